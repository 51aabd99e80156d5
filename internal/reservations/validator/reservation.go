package validator

import (
	"errors"
	"fmt"

	apperrors "slotdesk/pkg/errors"
	"slotdesk/pkg/localtime"
	"slotdesk/pkg/logger"
	"slotdesk/pkg/model"
	"slotdesk/pkg/timeslot"

	"github.com/go-playground/validator/v10"
)

// ReservationValidator enforces the structural booking rules: range
// ordering, grid alignment, working-hours band and field caps. Every
// rejection is a typed AppError value; quota and capacity checks live in the
// service because they need the store.
type ReservationValidator struct {
	validate *validator.Validate
	grid     *timeslot.Grid
	log      *logger.Logger
}

func NewReservationValidator(grid *timeslot.Grid, log *logger.Logger) *ReservationValidator {
	return &ReservationValidator{
		validate: validator.New(),
		grid:     grid,
		log:      log,
	}
}

func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	if reservation.StudentID == "" {
		return apperrors.InvalidInput("student_id is required")
	}
	if err := v.validateSlot(reservation.SlotStart, reservation.SlotEnd); err != nil {
		return err
	}
	if err := v.validateStruct(reservation); err != nil {
		return err
	}
	return nil
}

func (v *ReservationValidator) ValidateUpdate(update *model.ReservationUpdate) error {
	if err := v.validateSlot(update.SlotStart, update.SlotEnd); err != nil {
		return err
	}
	if err := v.validateStruct(update); err != nil {
		return err
	}
	return nil
}

// validateSlot applies the time rules in rejection-priority order: range,
// alignment, working hours.
func (v *ReservationValidator) validateSlot(start, end localtime.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperrors.InvalidInput("slot_start and slot_end are required")
	}
	if !end.After(start) {
		return apperrors.InvalidRange(fmt.Sprintf("slot_end %s must be after slot_start %s", end, start))
	}
	if !v.grid.IsAligned(start) || !v.grid.IsAligned(end) {
		return apperrors.Misaligned(fmt.Sprintf("slot endpoints must align to %d-minute boundaries", v.grid.WindowMinutes()))
	}
	if !v.grid.WithinHours(start, end) {
		return apperrors.OutOfHours(fmt.Sprintf("slot %s - %s is outside working hours", start, end))
	}
	return nil
}

// validateStruct runs the tag-level checks and translates them to the typed
// rejection kinds.
func (v *ReservationValidator) validateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperrors.Internal("field validation failed", err)
	}

	for _, fieldErr := range validationErrs {
		switch {
		case fieldErr.Field() == "Company" && fieldErr.Tag() == "max":
			return apperrors.FieldTooLong("company", model.CompanyMaxLen)
		case fieldErr.Field() == "Round" && fieldErr.Tag() == "max":
			return apperrors.FieldTooLong("round", model.RoundMaxLen)
		case fieldErr.Tag() == "required":
			return apperrors.InvalidInput(fmt.Sprintf("%s is required", fieldErr.Field()))
		}
	}
	return apperrors.Validation("reservation validation failed", map[string]any{
		"error": validationErrs.Error(),
	})
}
