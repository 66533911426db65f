package moving

import "fmt"

// ResolvedDestination is the concrete target of a move after any required
// thread or forum post has been created.
type ResolvedDestination struct {
	// ParentID is the channel the ephemeral webhook is created on. For plain
	// channel destinations it is the destination itself.
	ParentID string
	// ThreadID is set when the destination is a thread or forum post.
	ThreadID string
	// NewlyCreated marks destinations created for this move, which are
	// deleted again if the relay fails.
	NewlyCreated bool
}

// TargetID is the channel messages actually land in.
func (d ResolvedDestination) TargetID() string {
	if d.ThreadID != "" {
		return d.ThreadID
	}
	return d.ParentID
}

// Resolver turns submitted move options into a concrete destination,
// creating threads and forum posts as needed. The destination lock is
// acquired by the caller only after resolution succeeds, so a rejected
// resolution never leaves a stale lock behind.
type Resolver struct {
	Discord Discord
}

// Resolve validates the options against the source channel and creates any
// platform resources the chosen kind requires.
func (r *Resolver) Resolve(opts MoveOptions, sourceChannelID string) (ResolvedDestination, error) {
	switch opts.Kind {
	case DestinationChannel:
		if opts.ChannelID == "" {
			return ResolvedDestination{}, ErrMissingField
		}
		if opts.ChannelID == sourceChannelID {
			return ResolvedDestination{}, ErrSameChannel
		}
		return ResolvedDestination{ParentID: opts.ChannelID}, nil

	case DestinationExistingThread:
		if opts.ThreadID == "" {
			return ResolvedDestination{}, ErrMissingField
		}
		if opts.ThreadID == sourceChannelID {
			return ResolvedDestination{}, ErrSameChannel
		}

		thread, err := r.Discord.Channel(opts.ThreadID)
		if err != nil {
			return ResolvedDestination{}, fmt.Errorf("resolving thread channel: %w", err)
		}
		if thread.ParentID == "" {
			return ResolvedDestination{}, fmt.Errorf("thread channel %s has no parent", opts.ThreadID)
		}

		return ResolvedDestination{
			ParentID: thread.ParentID,
			ThreadID: opts.ThreadID,
		}, nil

	case DestinationNewThread:
		if opts.ChannelID == "" {
			return ResolvedDestination{}, ErrMissingField
		}

		thread, err := r.Discord.CreateThread(opts.ChannelID, opts.Title)
		if err != nil {
			return ResolvedDestination{}, fmt.Errorf("creating thread: %w", err)
		}

		return ResolvedDestination{
			ParentID:     opts.ChannelID,
			ThreadID:     thread.ID,
			NewlyCreated: true,
		}, nil

	case DestinationNewForumPost:
		if opts.ForumID == "" {
			return ResolvedDestination{}, ErrMissingField
		}

		post, err := r.Discord.CreateForumPost(opts.ForumID, opts.Title, "Moved conversation")
		if err != nil {
			return ResolvedDestination{}, fmt.Errorf("creating forum post: %w", err)
		}

		return ResolvedDestination{
			ParentID:     opts.ForumID,
			ThreadID:     post.ID,
			NewlyCreated: true,
		}, nil

	default:
		return ResolvedDestination{}, fmt.Errorf("unknown destination kind %d", opts.Kind)
	}
}
