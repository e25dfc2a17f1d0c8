package scoring

import "fmt"

// Event is a named, discrete signal that raises a prospect's lead score.
type Event string

const (
	EventFormSubmitted        Event = "form_submitted"
	EventAssessmentCompleted  Event = "assessment_completed"
	EventHighAssessmentScore  Event = "high_assessment_score"
	EventLeadMagnetDownloaded Event = "lead_magnet_downloaded"
	EventEmailOpened          Event = "email_opened"
	EventEmailClicked         Event = "email_clicked"
	EventCalendarBooked       Event = "calendar_booked"
	EventChatUsed             Event = "chat_used"
)

var eventPoints = map[Event]int{
	EventFormSubmitted:        10,
	EventAssessmentCompleted:  30,
	EventHighAssessmentScore:  20,
	EventLeadMagnetDownloaded: 15,
	EventEmailOpened:          5,
	EventEmailClicked:         15,
	EventCalendarBooked:       35,
	EventChatUsed:             15,
}

// Points returns the score increase for the event. Unknown events are worth nothing.
func (e Event) Points() int {
	return eventPoints[e]
}

// Valid reports whether e is a known event.
func (e Event) Valid() bool {
	_, ok := eventPoints[e]
	return ok
}

// Reason is the human readable history line for the event.
func (e Event) Reason() string {
	switch e {
	case EventFormSubmitted:
		return "Submitted a form"
	case EventAssessmentCompleted:
		return "Completed the AI readiness assessment"
	case EventHighAssessmentScore:
		return "Scored 70+ on the assessment"
	case EventLeadMagnetDownloaded:
		return "Downloaded a lead magnet"
	case EventEmailOpened:
		return "Opened a nurture email"
	case EventEmailClicked:
		return "Clicked a link in a nurture email"
	case EventCalendarBooked:
		return "Booked a call"
	case EventChatUsed:
		return "Used the chat assistant"
	}
	return fmt.Sprintf("Event %s", string(e))
}

// ParseEvent validates a raw event name.
func ParseEvent(name string) (Event, error) {
	e := Event(name)
	if !e.Valid() {
		return "", fmt.Errorf("unknown score event %q", name)
	}
	return e, nil
}
