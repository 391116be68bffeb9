package sched

import "glowd/internal/alerts"

// Screens a tapped alert can navigate to.
const (
	ScreenHome          = "home"
	ScreenRoutineDetail = "routine_detail"
	ScreenShelfItem     = "shelf_item"
)

// Destination describes the in-app navigation target for a tapped alert.
// Routing is a pure mapping; the caller performs the actual navigation.
type Destination struct {
	Screen    string
	SubjectID string
	Segment   Segment
}

// Route maps a delivered alert payload to its destination. Unknown payload
// types fall back to the home screen.
func Route(p alerts.Payload) Destination {
	switch p.Type {
	case PayloadRoutineReminder:
		return Destination{
			Screen:    ScreenRoutineDetail,
			SubjectID: p.SubjectID,
			Segment:   Segment(p.Segment),
		}
	case PayloadExpiryReminder:
		return Destination{
			Screen:    ScreenShelfItem,
			SubjectID: p.SubjectID,
		}
	default:
		return Destination{Screen: ScreenHome}
	}
}
