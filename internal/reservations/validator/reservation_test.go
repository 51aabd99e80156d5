package validator

import (
	"strings"
	"testing"
	"time"

	apperrors "slotdesk/pkg/errors"
	"slotdesk/pkg/localtime"
	"slotdesk/pkg/logger"
	"slotdesk/pkg/model"
	"slotdesk/pkg/timeslot"
)

func newTestValidator(t *testing.T) *ReservationValidator {
	t.Helper()
	grid, err := timeslot.NewGrid(30, "09:00", "21:00")
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	log := logger.New(logger.Config{Level: logger.ERROR, Service: "test"})
	return NewReservationValidator(grid, log)
}

func at(hour, minute int) localtime.Time {
	return localtime.Date(2026, time.March, 2, hour, minute)
}

func TestValidateRejectionCodes(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name     string
		start    localtime.Time
		end      localtime.Time
		company  string
		round    string
		wantCode string
	}{
		{
			name:  "valid half hour",
			start: at(9, 0), end: at(9, 30),
			company: "Initech", round: "HR",
		},
		{
			name:  "valid full hour at end of day",
			start: at(20, 0), end: at(21, 0),
			company: "Globex", round: "Technical",
		},
		{
			name:  "end equals start",
			start: at(10, 0), end: at(10, 0),
			wantCode: apperrors.CodeInvalidRange,
		},
		{
			name:  "end before start",
			start: at(11, 0), end: at(10, 0),
			wantCode: apperrors.CodeInvalidRange,
		},
		{
			name:  "misaligned start",
			start: at(9, 15), end: at(9, 45),
			wantCode: apperrors.CodeMisaligned,
		},
		{
			name:  "misaligned end",
			start: at(9, 0), end: at(9, 45),
			wantCode: apperrors.CodeMisaligned,
		},
		{
			name:  "before opening",
			start: at(8, 30), end: at(9, 0),
			wantCode: apperrors.CodeOutOfHours,
		},
		{
			name:  "past closing",
			start: at(20, 30), end: at(21, 30),
			wantCode: apperrors.CodeOutOfHours,
		},
		{
			name:  "starts at closing",
			start: at(21, 0), end: at(21, 30),
			wantCode: apperrors.CodeOutOfHours,
		},
		{
			name:  "company too long",
			start: at(9, 0), end: at(9, 30),
			company:  strings.Repeat("x", model.CompanyMaxLen+1),
			wantCode: apperrors.CodeFieldTooLong,
		},
		{
			name:  "round too long",
			start: at(9, 0), end: at(9, 30),
			round:    strings.Repeat("x", model.RoundMaxLen+1),
			wantCode: apperrors.CodeFieldTooLong,
		},
		{
			name:  "company at cap is fine",
			start: at(9, 0), end: at(9, 30),
			company: strings.Repeat("x", model.CompanyMaxLen),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reservation := &model.Reservation{
				StudentID: "student-1",
				SlotStart: tt.start,
				SlotEnd:   tt.end,
				Company:   tt.company,
				Round:     tt.round,
			}
			err := v.Validate(reservation)

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected rejection: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s rejection, got none", tt.wantCode)
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("rejection code = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestValidateRequiresStudentAndSlots(t *testing.T) {
	v := newTestValidator(t)

	err := v.Validate(&model.Reservation{SlotStart: at(9, 0), SlotEnd: at(9, 30)})
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("missing student: got %v, want %s", err, apperrors.CodeInvalidInput)
	}

	err = v.Validate(&model.Reservation{StudentID: "student-1"})
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("missing slots: got %v, want %s", err, apperrors.CodeInvalidInput)
	}
}

func TestValidateUpdateUsesSameRules(t *testing.T) {
	v := newTestValidator(t)

	if err := v.ValidateUpdate(&model.ReservationUpdate{
		SlotStart: at(9, 30),
		SlotEnd:   at(10, 30),
		Company:   "Initech",
		Round:     "Final",
	}); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}

	err := v.ValidateUpdate(&model.ReservationUpdate{
		SlotStart: at(9, 10),
		SlotEnd:   at(9, 40),
	})
	if !apperrors.HasCode(err, apperrors.CodeMisaligned) {
		t.Errorf("got %v, want %s", err, apperrors.CodeMisaligned)
	}
}
