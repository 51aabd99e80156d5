package model

import (
	"time"

	"slotdesk/pkg/localtime"
)

// Field caps for the free-text annotations on a reservation.
const (
	CompanyMaxLen = 25
	RoundMaxLen   = 25
)

// Reservation is one student's claim on a contiguous span of one or more
// capacity windows. ID, StudentID and CreatedAt are immutable after creation;
// edits overwrite time/company/round wholesale.
type Reservation struct {
	ID        string         `json:"id,omitempty" bson:"_id,omitempty"`
	StudentID string         `json:"student_id" bson:"student_id" validate:"required"`
	SlotStart localtime.Time `json:"slot_start" bson:"slot_start"`
	SlotEnd   localtime.Time `json:"slot_end" bson:"slot_end"`
	Company   string         `json:"company" bson:"company" validate:"max=25"`
	Round     string         `json:"round" bson:"round" validate:"max=25"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// DurationMinutes returns the reserved span length in minutes.
func (r *Reservation) DurationMinutes() int {
	return int(r.SlotEnd.Sub(r.SlotStart) / time.Minute)
}

// ReservationUpdate carries the full replacement of a reservation's mutable
// fields. There is no partial-field merge: an edit always rewrites all three.
type ReservationUpdate struct {
	SlotStart localtime.Time `json:"slot_start"`
	SlotEnd   localtime.Time `json:"slot_end"`
	Company   string         `json:"company" validate:"max=25"`
	Round     string         `json:"round" validate:"max=25"`
}
