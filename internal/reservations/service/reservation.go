package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	rerrors "slotdesk/internal/reservations/errors"
	"slotdesk/internal/reservations/events"
	"slotdesk/internal/reservations/repository"
	"slotdesk/internal/reservations/validator"
	"slotdesk/internal/students"
	"slotdesk/pkg/config"
	apperrors "slotdesk/pkg/errors"
	"slotdesk/pkg/localtime"
	"slotdesk/pkg/model"
	"slotdesk/pkg/timeslot"

	"github.com/google/uuid"
)

// swapped out in tests
var timeNow = time.Now

// ReservationService is the booking engine: structural validation, daily
// quota, window-capacity conflict resolution and the day view, all against a
// fresh read of the store.
type ReservationService interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, requesterID, id string) (*model.Reservation, error)
	Update(ctx context.Context, id, requesterID string, updates *model.ReservationUpdate) (*model.Reservation, error)
	Delete(ctx context.Context, id, requesterID string) error
	DayView(ctx context.Context, requesterID string, day localtime.Time) (*model.DayView, error)
	ListStudentDay(ctx context.Context, requesterID, studentID string, day localtime.Time) ([]*model.Reservation, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.WindowLockRepository
	directory students.Directory
	publisher events.Publisher
	validator *validator.ReservationValidator
	grid      *timeslot.Grid
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.WindowLockRepository,
	directory students.Directory,
	publisher events.Publisher,
	reservationValidator *validator.ReservationValidator,
	grid *timeslot.Grid,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		directory: directory,
		publisher: publisher,
		validator: reservationValidator,
		grid:      grid,
		cfg:       cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation) error {
	if _, err := s.requireApproved(ctx, reservation.StudentID); err != nil {
		return err
	}

	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "student_id", reservation.StudentID, "error", err)
		return err
	}

	windows := s.grid.Covering(reservation.SlotStart, reservation.SlotEnd)

	release, err := s.acquireWindowLocks(ctx, windows)
	if err != nil {
		return err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.checkDailyQuota(txCtx, reservation.StudentID, reservation.SlotStart, ""); err != nil {
			return err
		}
		if err := s.checkWindowCapacity(txCtx, windows, ""); err != nil {
			return err
		}

		reservation.ID = uuid.NewString()
		if err := s.repo.Create(txCtx, reservation); err != nil {
			return apperrors.StoreUnavailable(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"student_id", reservation.StudentID,
		"slot_start", reservation.SlotStart.String(),
		"slot_end", reservation.SlotEnd.String(),
	)
	s.publishEvent(ctx, s.publisher.ReservationCreated, reservation)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, requesterID, id string) (*model.Reservation, error) {
	if _, err := s.requireApproved(ctx, requesterID); err != nil {
		return nil, err
	}
	return s.findReservation(ctx, id)
}

func (s *reservationService) Update(ctx context.Context, id, requesterID string, updates *model.ReservationUpdate) (*model.Reservation, error) {
	existing, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only the owning student may edit; administrators may delete but not
	// rewrite another student's reservation.
	if existing.StudentID != requesterID {
		return nil, apperrors.NotOwner("only the reservation owner may edit it")
	}
	if _, err := s.requireApproved(ctx, requesterID); err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Reservation update validation failed", "id", id, "error", err)
		return nil, err
	}

	merged := *existing
	merged.SlotStart = updates.SlotStart
	merged.SlotEnd = updates.SlotEnd
	merged.Company = updates.Company
	merged.Round = updates.Round

	windows := s.grid.Covering(merged.SlotStart, merged.SlotEnd)

	release, err := s.acquireWindowLocks(ctx, windows)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		// Self excluded: the reservation being moved must not count
		// against its own quota or occupancy.
		if err := s.checkDailyQuota(txCtx, merged.StudentID, merged.SlotStart, merged.ID); err != nil {
			return err
		}
		if err := s.checkWindowCapacity(txCtx, windows, merged.ID); err != nil {
			return err
		}

		if err := s.repo.Update(txCtx, id, &merged); err != nil {
			if errors.Is(err, rerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.StoreUnavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation updated",
		"id", id,
		"slot_start", merged.SlotStart.String(),
		"slot_end", merged.SlotEnd.String(),
	)
	s.publishEvent(ctx, s.publisher.ReservationUpdated, &merged)
	return &merged, nil
}

func (s *reservationService) Delete(ctx context.Context, id, requesterID string) error {
	existing, err := s.findReservation(ctx, id)
	if err != nil {
		return err
	}

	requester, err := s.directory.Lookup(ctx, requesterID)
	if err != nil {
		return err
	}
	if !requester.IsAdmin() && existing.StudentID != requesterID {
		return apperrors.NotOwner("only the reservation owner or an administrator may delete it")
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			if errors.Is(err, rerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.StoreUnavailable(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Reservation deleted", "id", id, "requester_id", requesterID)
	s.publishEvent(ctx, s.publisher.ReservationDeleted, existing)
	return nil
}

// DayView assembles the calendar listing: every window of the working-hours
// band, ascending, with occupancy counts and rosters derived from the same
// overlap rules the resolver admits against.
func (s *reservationService) DayView(ctx context.Context, requesterID string, day localtime.Time) (*model.DayView, error) {
	if _, err := s.requireApproved(ctx, requesterID); err != nil {
		return nil, err
	}

	reservations, err := s.repo.FindByDay(ctx, day)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	windows := s.grid.DayWindows(day)
	views := make([]model.WindowView, 0, len(windows))
	for _, w := range windows {
		roster := make([]model.RosterEntry, 0)
		for _, r := range reservations {
			if timeslot.Overlaps(r.SlotStart, r.SlotEnd, w.Start, w.End) {
				roster = append(roster, model.RosterEntry{
					ReservationID:   r.ID,
					StudentID:       r.StudentID,
					Company:         r.Company,
					Round:           r.Round,
					DurationMinutes: r.DurationMinutes(),
				})
			}
		}
		views = append(views, model.WindowView{
			Window:    w,
			Occupancy: len(roster),
			Roster:    roster,
		})
	}

	return &model.DayView{
		Date:    day.DateString(),
		Windows: views,
	}, nil
}

func (s *reservationService) ListStudentDay(ctx context.Context, requesterID, studentID string, day localtime.Time) ([]*model.Reservation, error) {
	requester, err := s.requireApproved(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && requesterID != studentID {
		return nil, apperrors.NotOwner("students may only list their own reservations")
	}

	reservations, err := s.repo.FindByStudentAndDay(ctx, studentID, day)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return reservations, nil
}

// --- Helpers ---

func (s *reservationService) requireApproved(ctx context.Context, requesterID string) (*model.Student, error) {
	requester, err := s.directory.Lookup(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester.IsAdmin() {
		return requester, nil
	}
	if !requester.IsApproved() {
		return nil, apperrors.Forbidden("student account is not approved")
	}
	return requester, nil
}

func (s *reservationService) findReservation(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("reservation ID cannot be empty")
	}
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, rerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	return reservation, nil
}

// checkDailyQuota rejects once the student already holds the daily quota of
// reservations on the target day. excludeID keeps an edited reservation from
// counting against itself.
func (s *reservationService) checkDailyQuota(ctx context.Context, studentID string, day localtime.Time, excludeID string) error {
	count, err := s.repo.CountByStudentAndDay(ctx, studentID, day, excludeID)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if count >= int64(s.cfg.DailyQuota) {
		return apperrors.DailyQuotaExceeded(s.cfg.DailyQuota)
	}
	return nil
}

// checkWindowCapacity re-derives occupancy per touched window, chronologically,
// and rejects with the first full window. A reservation spanning several
// windows is admitted only when every one of them has room.
func (s *reservationService) checkWindowCapacity(ctx context.Context, windows []timeslot.Window, excludeID string) error {
	for _, w := range windows {
		count, err := s.repo.CountOverlappingWindow(ctx, w.Start, w.End, excludeID)
		if err != nil {
			return apperrors.StoreUnavailable(err)
		}
		if count >= int64(s.cfg.WindowCapacity) {
			return apperrors.WindowFull(w.Start.String(), s.cfg.WindowCapacity)
		}
	}
	return nil
}

// acquireWindowLocks takes one advisory lock per touched window, in
// chronological order so two spanning reservations cannot deadlock. The
// returned release func drops whatever was acquired.
func (s *reservationService) acquireWindowLocks(ctx context.Context, windows []timeslot.Window) (func(), error) {
	acquired := make([]string, 0, len(windows))
	release := func() {
		for _, lockID := range acquired {
			if err := s.lockRepo.Release(ctx, lockID); err != nil {
				s.cfg.Log.Warn("Failed to release window lock", "lock_id", lockID, "error", err)
			}
		}
	}

	for _, w := range windows {
		lock := &model.WindowLock{
			ID:        fmt.Sprintf("window_lock_%s", w.Start.String()),
			ExpiresAt: timeNow().Add(s.cfg.WindowLockTTL),
		}
		if err := s.lockRepo.Acquire(ctx, lock); err != nil {
			release()
			if errors.Is(err, rerrors.ErrLockHeld) {
				return nil, apperrors.Conflict("this time slot is currently being booked by another request, please retry")
			}
			return nil, apperrors.StoreUnavailable(err)
		}
		acquired = append(acquired, lock.ID)
	}

	return release, nil
}

func (s *reservationService) publishEvent(ctx context.Context, publish func(context.Context, *model.Reservation) error, reservation *model.Reservation) {
	if err := publish(ctx, reservation); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event", "id", reservation.ID, "error", err)
	}
}
