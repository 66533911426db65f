package moving

import "fmt"

// Validation errors surfaced to the invoking user without any platform
// side effects.
var (
	ErrSameChannel  = fmt.Errorf("source and destination cannot be the same")
	ErrMissingField = fmt.Errorf("a required destination field has not been set")
)

// DestinationKind selects where moved messages end up.
type DestinationKind int

const (
	DestinationChannel DestinationKind = iota
	DestinationNewThread
	DestinationExistingThread
	DestinationNewForumPost
)

var destinationNames = map[DestinationKind]string{
	DestinationChannel:        "Channel",
	DestinationNewThread:      "New Thread",
	DestinationExistingThread: "Existing Thread",
	DestinationNewForumPost:   "New Forum Post",
}

// String returns the label shown in the destination select menu.
func (k DestinationKind) String() string {
	return destinationNames[k]
}

// DestinationKinds lists every kind in menu order.
func DestinationKinds() []DestinationKind {
	return []DestinationKind{
		DestinationChannel,
		DestinationNewThread,
		DestinationExistingThread,
		DestinationNewForumPost,
	}
}

// DestinationKindFromName maps a select-menu value back to its kind.
func DestinationKindFromName(name string) (DestinationKind, bool) {
	for kind, label := range destinationNames {
		if label == name {
			return kind, true
		}
	}
	return DestinationChannel, false
}

// Field identifies one kind-specific dialog selection.
type Field int

const (
	FieldChannel Field = iota
	FieldThread
	FieldForum
)

// RequiredFields returns the selections that must be made before a move with
// this destination kind can be submitted.
func (k DestinationKind) RequiredFields() map[Field]struct{} {
	switch k {
	case DestinationChannel, DestinationNewThread:
		return map[Field]struct{}{FieldChannel: {}}
	case DestinationExistingThread:
		return map[Field]struct{}{FieldThread: {}}
	case DestinationNewForumPost:
		return map[Field]struct{}{FieldForum: {}}
	default:
		return nil
	}
}

// MoveOptions is the fully resolved user intent produced by a submitted
// dialog. Only the identifiers relevant to Kind are populated.
type MoveOptions struct {
	Kind DestinationKind

	// ChannelID is the destination channel for DestinationChannel, or the
	// parent channel for DestinationNewThread.
	ChannelID string
	// ThreadID is the destination thread for DestinationExistingThread.
	ThreadID string
	// ForumID is the target forum for DestinationNewForumPost.
	ForumID string
	// Title names the new thread or forum post.
	Title string

	// Participants are the users whose messages get moved.
	Participants []string
	// StopMessageID optionally bounds the selection; empty means no bound.
	StopMessageID string
}
