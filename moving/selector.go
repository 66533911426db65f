package moving

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	// MessageLimit caps how many messages a single move can carry.
	MessageLimit = 100
	// MaxTimeSpan bounds the window of moved messages, measured from the
	// starting message.
	MaxTimeSpan = 2 * time.Hour
)

// SelectedMessage is an immutable snapshot of one source message at
// selection time.
type SelectedMessage struct {
	ID          string
	ChannelID   string
	Author      *discordgo.User
	Content     string
	Timestamp   time.Time
	Attachments []*discordgo.MessageAttachment
	Embeds      []*discordgo.MessageEmbed
}

// SelectionFilters narrows the fetched window down to what actually moves.
type SelectionFilters struct {
	// Participants is the author allow-list.
	Participants []string
	// StopMessageID optionally ends the selection at a specific message. If
	// that message no longer exists, its snowflake-derived creation time is
	// used as the boundary instead.
	StopMessageID string
}

// Selector produces the ordered list of messages to relocate.
type Selector struct {
	Discord Discord
}

// FetchWindow returns the start message plus up to MessageLimit messages
// posted after it, in chronological order.
func (s *Selector) FetchWindow(start *discordgo.Message) ([]*discordgo.Message, error) {
	messages, err := s.Discord.MessagesAfter(start.ChannelID, start.ID, MessageLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching messages after %s: %w", start.ID, err)
	}

	// The API returns newest first; append the start message and flip the
	// whole window to chronological ascending.
	messages = append(messages, start)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// Select finalizes the message selection. The window passed in was fetched
// before the interactive dialog ran; if it still fits inside the time span,
// the window is fetched again first, since more messages may have arrived
// while the user was filling in the dialog.
func (s *Selector) Select(window []*discordgo.Message, start *discordgo.Message, filters SelectionFilters) ([]SelectedMessage, error) {
	refetch := len(window) == 0
	if !refetch {
		last := window[len(window)-1]
		refetch = withinTimeSpan(start, last.Timestamp)
	}

	if refetch {
		fresh, err := s.FetchWindow(start)
		if err != nil {
			return nil, err
		}
		window = fresh
	}

	stopID, stopTime := resolveStop(window, filters.StopMessageID)

	allowed := make(map[string]struct{}, len(filters.Participants))
	for _, id := range filters.Participants {
		allowed[id] = struct{}{}
	}

	var selected []SelectedMessage
	for _, m := range window {
		if m.Author == nil {
			continue
		}
		if _, ok := allowed[m.Author.ID]; !ok {
			continue
		}
		if !withinTimeSpan(start, m.Timestamp) {
			continue
		}
		if len(selected) >= MessageLimit {
			break
		}

		selected = append(selected, SelectedMessage{
			ID:          m.ID,
			ChannelID:   m.ChannelID,
			Author:      m.Author,
			Content:     m.Content,
			Timestamp:   m.Timestamp,
			Attachments: m.Attachments,
			Embeds:      m.Embeds,
		})

		// Inclusive stop: the boundary message itself is still moved.
		if stopID != "" && m.ID == stopID {
			break
		}
		if stopID == "" && !stopTime.IsZero() {
			if created, err := discordgo.SnowflakeTimestamp(m.ID); err == nil && !created.Before(stopTime) {
				break
			}
		}
	}

	return selected, nil
}

// resolveStop decides whether the stop condition is an exact message ID or,
// when the designated stop message has been deleted, a creation-time bound
// derived from its snowflake.
func resolveStop(window []*discordgo.Message, stopMessageID string) (stopID string, stopTime time.Time) {
	if stopMessageID == "" {
		return "", time.Time{}
	}

	for _, m := range window {
		if m.ID == stopMessageID {
			return stopMessageID, time.Time{}
		}
	}

	created, err := discordgo.SnowflakeTimestamp(stopMessageID)
	if err != nil {
		return "", time.Time{}
	}
	return "", created
}

func withinTimeSpan(start *discordgo.Message, ts time.Time) bool {
	return ts.Sub(start.Timestamp) < MaxTimeSpan
}
