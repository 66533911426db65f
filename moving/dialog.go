package moving

import (
	"strconv"
	"strings"
)

// Component and modal custom IDs used by the options dialog.
const (
	ComponentSelectUsers    = "move_select_users"
	ComponentDestination    = "move_destination"
	ComponentForum          = "move_forum"
	ComponentThread         = "move_thread"
	ComponentChannel        = "move_channel"
	ComponentExecute        = "move_execute"
	ComponentChangeName     = "move_change_name"
	ComponentSetLastMessage = "move_set_last_message"

	ModalThreadName  = "move_modal_thread_name"
	ModalLastMessage = "move_modal_last_message"
)

// DefaultTitle is the name given to new threads and forum posts unless the
// user picks their own.
const DefaultTitle = "Moved conversation"

// DialogEvent is one discrete user action on the rendered dialog,
// independent of the transport that delivered it.
type DialogEvent struct {
	// Component is the custom ID of the control (modal IDs for modal
	// submissions, without the dialog-message suffix).
	Component string
	// Values holds the select-menu selection, if any.
	Values []string
	// Text holds the modal text-input value, if any.
	Text string
}

// Transition tells the transport layer how to react to a handled event.
type Transition int

const (
	// TransitionNone acknowledges the event without changing the rendering.
	TransitionNone Transition = iota
	// TransitionRerender requires the dialog message to be re-rendered.
	TransitionRerender
	// TransitionOpenNameModal opens the thread/post title modal.
	TransitionOpenNameModal
	// TransitionOpenStopModal opens the stop-message modal.
	TransitionOpenStopModal
	// TransitionRejected means submit was attempted with mandatory fields
	// missing; the dialog stays open unchanged.
	TransitionRejected
	// TransitionSubmit means all mandatory fields are set and the dialog is
	// done; Options() yields the result.
	TransitionSubmit
)

// Dialog is the interactive state machine collecting move options. It is
// pure state: rendering and event transport live elsewhere, so tests can
// drive it with synthetic events.
type Dialog struct {
	SourceChannelID string
	StartMessageID  string

	Kind          DestinationKind
	InvolvedUsers []string
	SelectedUsers []string
	Title         string
	StopMessageID string

	SelectedForum   string
	SelectedThread  string
	SelectedChannel string

	outstanding map[Field]struct{}
}

// NewDialog seeds the dialog with the participants of the initial message
// window (default selection is everyone) and an optional pre-selected forum.
func NewDialog(sourceChannelID, startMessageID string, involvedUsers []string, preselectedForum string) *Dialog {
	d := &Dialog{
		SourceChannelID: sourceChannelID,
		StartMessageID:  startMessageID,
		Title:           DefaultTitle,
		InvolvedUsers:   involvedUsers,
		SelectedUsers:   append([]string(nil), involvedUsers...),
		SelectedForum:   preselectedForum,
	}
	d.switchKind(DestinationChannel)
	return d
}

// HandleEvent advances the state machine by one user action.
func (d *Dialog) HandleEvent(ev DialogEvent) Transition {
	switch ev.Component {
	case ComponentSelectUsers:
		d.SelectedUsers = append([]string(nil), ev.Values...)

	case ComponentDestination:
		if len(ev.Values) == 0 {
			break
		}
		kind, ok := DestinationKindFromName(ev.Values[0])
		if !ok {
			break
		}
		d.switchKind(kind)
		return TransitionRerender

	case ComponentForum:
		d.SelectedForum = firstValue(ev.Values)

	case ComponentThread:
		selected := firstValue(ev.Values)
		// The thread we are moving out of is not a valid destination.
		if d.Kind == DestinationExistingThread && selected == d.SourceChannelID {
			break
		}
		d.SelectedThread = selected

	case ComponentChannel:
		selected := firstValue(ev.Values)
		// Same guard for plain channels.
		if d.Kind == DestinationChannel && selected == d.SourceChannelID {
			break
		}
		d.SelectedChannel = selected

	case ComponentChangeName:
		return TransitionOpenNameModal

	case ComponentSetLastMessage:
		return TransitionOpenStopModal

	case ModalThreadName:
		if title := strings.TrimSpace(ev.Text); title != "" {
			d.Title = title
		}

	case ModalLastMessage:
		id := strings.TrimSpace(ev.Text)
		if _, err := strconv.ParseUint(id, 10, 64); err == nil {
			d.StopMessageID = id
		} else {
			d.StopMessageID = ""
		}

	case ComponentExecute:
		d.updateOutstanding()
		if len(d.outstanding) > 0 {
			// Mandatory fields missing: the dialog stays open unchanged.
			return TransitionRejected
		}
		return TransitionSubmit
	}

	d.updateOutstanding()
	return TransitionNone
}

// Options builds the MoveOptions for a submitted dialog.
func (d *Dialog) Options() (MoveOptions, error) {
	if len(d.outstanding) > 0 {
		return MoveOptions{}, ErrMissingField
	}

	opts := MoveOptions{
		Kind:          d.Kind,
		Title:         d.Title,
		Participants:  append([]string(nil), d.SelectedUsers...),
		StopMessageID: d.StopMessageID,
	}

	switch d.Kind {
	case DestinationChannel, DestinationNewThread:
		if d.SelectedChannel == "" {
			return MoveOptions{}, ErrMissingField
		}
		opts.ChannelID = d.SelectedChannel
	case DestinationExistingThread:
		if d.SelectedThread == "" {
			return MoveOptions{}, ErrMissingField
		}
		opts.ThreadID = d.SelectedThread
	case DestinationNewForumPost:
		if d.SelectedForum == "" {
			return MoveOptions{}, ErrMissingField
		}
		opts.ForumID = d.SelectedForum
	}

	return opts, nil
}

// switchKind changes the destination kind, dropping user selections that do
// not apply to the new kind. The forum selection is kept so that the
// single-forum pre-selection survives until the user lands on the forum kind.
func (d *Dialog) switchKind(kind DestinationKind) {
	d.Kind = kind

	required := kind.RequiredFields()
	if _, ok := required[FieldThread]; !ok {
		d.SelectedThread = ""
	}
	if _, ok := required[FieldChannel]; !ok {
		d.SelectedChannel = ""
	}

	d.updateOutstanding()
}

// Outstanding reports how many mandatory fields are still unset.
func (d *Dialog) Outstanding() int {
	d.updateOutstanding()
	return len(d.outstanding)
}

func (d *Dialog) updateOutstanding() {
	d.outstanding = d.Kind.RequiredFields()
	for field := range d.outstanding {
		set := false
		switch field {
		case FieldForum:
			set = d.SelectedForum != ""
		case FieldThread:
			set = d.SelectedThread != ""
		case FieldChannel:
			set = d.SelectedChannel != ""
		}
		if set {
			delete(d.outstanding, field)
		}
	}
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
