package model

import "slotdesk/pkg/timeslot"

// RosterEntry is one reservation's appearance inside a window of the day
// view.
type RosterEntry struct {
	ReservationID   string `json:"reservation_id"`
	StudentID       string `json:"student_id"`
	Company         string `json:"company"`
	Round           string `json:"round"`
	DurationMinutes int    `json:"duration_minutes"`
}

// WindowView is one window of the calendar display: its occupancy count and
// the reservations overlapping it. Computed with exactly the same overlap
// rules as admission, so displayed counts and admission decisions never
// diverge.
type WindowView struct {
	Window    timeslot.Window `json:"window"`
	Occupancy int             `json:"occupancy"`
	Roster    []RosterEntry   `json:"roster"`
}

// DayView lists every window of the working-hours band for one calendar day,
// ascending by window start.
type DayView struct {
	Date    string       `json:"date"`
	Windows []WindowView `json:"windows"`
}
