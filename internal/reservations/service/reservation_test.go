package service

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	rerrors "slotdesk/internal/reservations/errors"
	"slotdesk/internal/reservations/events"
	"slotdesk/internal/reservations/validator"
	"slotdesk/pkg/config"
	apperrors "slotdesk/pkg/errors"
	"slotdesk/pkg/localtime"
	"slotdesk/pkg/logger"
	"slotdesk/pkg/model"
	"slotdesk/pkg/timeslot"

	mongotx "slotdesk/pkg/db/mongo"
)

// In-memory store implementing the repository contract so the conflict
// resolver can be exercised against real occupancy counts.
type fakeReservationRepo struct {
	mu    sync.Mutex
	items map[string]*model.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{items: make(map[string]*model.Reservation)}
}

func (f *fakeReservationRepo) Create(_ context.Context, reservation *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation.CreatedAt = time.Now()
	stored := *reservation
	f.items[reservation.ID] = &stored
	return nil
}

func (f *fakeReservationRepo) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok {
		return nil, rerrors.ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeReservationRepo) Update(_ context.Context, id string, reservation *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok {
		return rerrors.ErrNotFound
	}
	stored.SlotStart = reservation.SlotStart
	stored.SlotEnd = reservation.SlotEnd
	stored.Company = reservation.Company
	stored.Round = reservation.Round
	return nil
}

func (f *fakeReservationRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return rerrors.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeReservationRepo) CountOverlappingWindow(_ context.Context, windowStart, windowEnd localtime.Time, excludeID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for id, r := range f.items {
		if id == excludeID {
			continue
		}
		if r.SlotStart.Before(windowEnd) && r.SlotEnd.After(windowStart) {
			count++
		}
	}
	return count, nil
}

func (f *fakeReservationRepo) CountByStudentAndDay(_ context.Context, studentID string, dayStart localtime.Time, excludeID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for id, r := range f.items {
		if id == excludeID || r.StudentID != studentID {
			continue
		}
		if r.SlotStart.SameDay(dayStart) {
			count++
		}
	}
	return count, nil
}

func (f *fakeReservationRepo) FindByDay(_ context.Context, dayStart localtime.Time) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Reservation
	for _, r := range f.items {
		if r.SlotStart.SameDay(dayStart) {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotStart.Before(out[j].SlotStart) })
	return out, nil
}

func (f *fakeReservationRepo) FindByStudentAndDay(_ context.Context, studentID string, dayStart localtime.Time) ([]*model.Reservation, error) {
	all, _ := f.FindByDay(context.Background(), dayStart)
	var out []*model.Reservation
	for _, r := range all {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type fakeLockRepo struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{held: make(map[string]bool)}
}

func (f *fakeLockRepo) Acquire(_ context.Context, lock *model.WindowLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[lock.ID] {
		return rerrors.ErrLockHeld
	}
	f.held[lock.ID] = true
	return nil
}

func (f *fakeLockRepo) Release(_ context.Context, lockID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, lockID)
	return nil
}

func (f *fakeLockRepo) heldCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.held)
}

type fakeDirectory struct {
	students map[string]*model.Student
}

func (f *fakeDirectory) Lookup(_ context.Context, id string) (*model.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Student", id)
	}
	return student, nil
}

type fixture struct {
	service   ReservationService
	repo      *fakeReservationRepo
	locks     *fakeLockRepo
	directory *fakeDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	grid, err := timeslot.NewGrid(30, "09:00", "21:00")
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	log := logger.New(logger.Config{Level: logger.ERROR, Service: "test"})
	cfg := &config.Config{
		Log:            log,
		WindowCapacity: 6,
		DailyQuota:     5,
		WindowLockTTL:  time.Second,
	}

	repo := newFakeReservationRepo()
	locks := newFakeLockRepo()
	directory := &fakeDirectory{students: map[string]*model.Student{
		"admin-1": {ID: "admin-1", Role: model.RoleAdmin, Status: model.StatusApproved},
	}}

	svc := NewReservationService(
		repo,
		locks,
		directory,
		events.NoopPublisher{},
		validator.NewReservationValidator(grid, log),
		grid,
		cfg,
	)

	return &fixture{service: svc, repo: repo, locks: locks, directory: directory}
}

func (fx *fixture) addStudent(id string) {
	fx.directory.students[id] = &model.Student{ID: id, Role: model.RoleStudent, Status: model.StatusApproved}
}

func (fx *fixture) mustCreate(t *testing.T, studentID string, start, end localtime.Time) *model.Reservation {
	t.Helper()
	reservation := &model.Reservation{
		StudentID: studentID,
		SlotStart: start,
		SlotEnd:   end,
	}
	if err := fx.service.Create(context.Background(), reservation); err != nil {
		t.Fatalf("Create(%s, %s-%s): %v", studentID, start, end, err)
	}
	return reservation
}

func at(hour, minute int) localtime.Time {
	return localtime.Date(2026, time.March, 2, hour, minute)
}

func day(t *testing.T) localtime.Time {
	t.Helper()
	d, err := localtime.ParseDate("2026-03-02")
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestCreateFirstReservationShowsInDayView(t *testing.T) {
	fx := newFixture(t)
	fx.addStudent("student-s")

	created := fx.mustCreate(t, "student-s", at(9, 0), at(9, 30))

	view, err := fx.service.DayView(context.Background(), "student-s", day(t))
	if err != nil {
		t.Fatalf("DayView: %v", err)
	}
	if len(view.Windows) != 24 {
		t.Fatalf("day view has %d windows, want 24", len(view.Windows))
	}

	for i, wv := range view.Windows {
		wantOccupancy := 0
		if i == 0 {
			wantOccupancy = 1
		}
		if wv.Occupancy != wantOccupancy {
			t.Errorf("window %s occupancy = %d, want %d", wv.Window.Start, wv.Occupancy, wantOccupancy)
		}
	}

	roster := view.Windows[0].Roster
	if len(roster) != 1 {
		t.Fatalf("roster has %d entries, want 1", len(roster))
	}
	if roster[0].ReservationID != created.ID || roster[0].StudentID != "student-s" || roster[0].DurationMinutes != 30 {
		t.Errorf("unexpected roster entry: %+v", roster[0])
	}

	// Read-only calls must not change what the view reports.
	again, err := fx.service.DayView(context.Background(), "student-s", day(t))
	if err != nil {
		t.Fatalf("DayView: %v", err)
	}
	if !reflect.DeepEqual(view, again) {
		t.Error("day view changed between two read-only calls")
	}
}

func TestCreateRejectsWhenWindowFull(t *testing.T) {
	fx := newFixture(t)

	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("student-%d", i)
		fx.addStudent(id)
		fx.mustCreate(t, id, at(10, 0), at(10, 30))
	}

	fx.addStudent("student-late")
	err := fx.service.Create(context.Background(), &model.Reservation{
		StudentID: "student-late",
		SlotStart: at(10, 0),
		SlotEnd:   at(10, 30),
	})
	if !apperrors.HasCode(err, apperrors.CodeWindowFull) {
		t.Fatalf("got %v, want %s", err, apperrors.CodeWindowFull)
	}

	appErr := apperrors.AsAppError(err)
	if got, want := appErr.Details["window"], "2026-03-02T10:00"; got != want {
		t.Errorf("rejection names window %v, want %v", got, want)
	}

	if fx.locks.heldCount() != 0 {
		t.Errorf("%d window locks still held after rejection", fx.locks.heldCount())
	}
}

func TestCreateEnforcesDailyQuota(t *testing.T) {
	fx := newFixture(t)
	fx.addStudent("student-s")

	for i := 0; i < 5; i++ {
		start := at(9, 0).AddMinutes(i * 30)
		fx.mustCreate(t, "student-s", start, start.AddMinutes(30))
	}

	err := fx.service.Create(context.Background(), &model.Reservation{
		StudentID: "student-s",
		SlotStart: at(15, 0),
		SlotEnd:   at(15, 30),
	})
	if !apperrors.HasCode(err, apperrors.CodeDailyQuotaExceeded) {
		t.Fatalf("got %v, want %s", err, apperrors.CodeDailyQuotaExceeded)
	}

	// The quota is per calendar day: tomorrow is wide open.
	tomorrow := at(9, 0).AddMinutes(24 * 60)
	fx.mustCreate(t, "student-s", tomorrow, tomorrow.AddMinutes(30))
}

func TestCreateSpanningReservationNamesFirstFullWindow(t *testing.T) {
	fx := newFixture(t)

	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("late-%d", i)
		fx.addStudent(id)
		fx.mustCreate(t, id, at(14, 30), at(15, 0))
	}
	for i := 0; i < 2; i++ {
		id := fmt.Sprintf("early-%d", i)
		fx.addStudent(id)
		fx.mustCreate(t, id, at(14, 0), at(14, 30))
	}

	fx.addStudent("student-span")
	err := fx.service.Create(context.Background(), &model.Reservation{
		StudentID: "student-span",
		SlotStart: at(14, 0),
		SlotEnd:   at(15, 0),
	})
	if !apperrors.HasCode(err, apperrors.CodeWindowFull) {
		t.Fatalf("got %v, want %s", err, apperrors.CodeWindowFull)
	}

	// No partial admission, and the rejection names the later window.
	appErr := apperrors.AsAppError(err)
	if got, want := appErr.Details["window"], "2026-03-02T14:30"; got != want {
		t.Errorf("rejection names window %v, want %v", got, want)
	}
	count, _ := fx.repo.CountOverlappingWindow(context.Background(), at(14, 0), at(14, 30), "")
	if count != 2 {
		t.Errorf("first window occupancy = %d after rejection, want 2", count)
	}
}

func TestUpdateSameSlotNeverConflictsWithItself(t *testing.T) {
	fx := newFixture(t)
	fx.addStudent("student-s")

	own := fx.mustCreate(t, "student-s", at(9, 0), at(9, 30))
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("other-%d", i)
		fx.addStudent(id)
		fx.mustCreate(t, id, at(9, 0), at(9, 30))
	}

	// Window is at capacity including our own reservation; re-saving the
	// same slot must exclude self from the count.
	updated, err := fx.service.Update(context.Background(), own.ID, "student-s", &model.ReservationUpdate{
		SlotStart: at(9, 0),
		SlotEnd:   at(9, 30),
		Company:   "Initech",
		Round:     "Final",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Company != "Initech" || updated.Round != "Final" {
		t.Errorf("mutable fields not overwritten: %+v", updated)
	}
}

func TestUpdateMovesOccupancyBetweenWindows(t *testing.T) {
	fx := newFixture(t)
	fx.addStudent("student-s")

	own := fx.mustCreate(t, "student-s", at(9, 0), at(9, 30))

	if _, err := fx.service.Update(context.Background(), own.ID, "student-s", &model.ReservationUpdate{
		SlotStart: at(9, 30),
		SlotEnd:   at(10, 0),
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	view, err := fx.service.DayView(context.Background(), "student-s", day(t))
	if err != nil {
		t.Fatalf("DayView: %v", err)
	}
	if view.Windows[0].Occupancy != 0 {
		t.Errorf("09:00 window occupancy = %d, want 0", view.Windows[0].Occupancy)
	}
	if view.Windows[1].Occupancy != 1 {
		t.Errorf("09:30 window occupancy = %d, want 1", view.Windows[1].Occupancy)
	}
}

func TestUpdateRejectsNonOwner(t *testing.T) {
	fx := newFixture(t)
	fx.addStudent("student-a")
	fx.addStudent("student-b")

	own := fx.mustCreate(t, "student-a", at(9, 0), at(9, 30))

	_, err := fx.service.Update(context.Background(), own.ID, "student-b", &model.ReservationUpdate{
		SlotStart: at(10, 0),
		SlotEnd:   at(10, 30),
	})
	if !apperrors.HasCode(err, apperrors.CodeNotOwner) {
		t.Errorf("got %v, want %s", err, apperrors.CodeNotOwner)
	}

	// Even an administrator may not rewrite a student's reservation.
	_, err = fx.service.Update(context.Background(), own.ID, "admin-1", &model.ReservationUpdate{
		SlotStart: at(10, 0),
		SlotEnd:   at(10, 30),
	})
	if !apperrors.HasCode(err, apperrors.CodeNotOwner) {
		t.Errorf("admin edit: got %v, want %s", err, apperrors.CodeNotOwner)
	}
}

func TestDeleteByOwnerAndAdmin(t *testing.T) {
	fx := newFixture(t)
	fx.addStudent("student-a")
	fx.addStudent("student-b")

	first := fx.mustCreate(t, "student-a", at(9, 0), at(9, 30))
	second := fx.mustCreate(t, "student-a", at(10, 0), at(10, 30))

	if err := fx.service.Delete(context.Background(), first.ID, "student-b"); !apperrors.HasCode(err, apperrors.CodeNotOwner) {
		t.Errorf("non-owner delete: got %v, want %s", err, apperrors.CodeNotOwner)
	}
	if err := fx.service.Delete(context.Background(), first.ID, "student-a"); err != nil {
		t.Errorf("owner delete: %v", err)
	}
	if err := fx.service.Delete(context.Background(), second.ID, "admin-1"); err != nil {
		t.Errorf("admin delete: %v", err)
	}

	if err := fx.service.Delete(context.Background(), first.ID, "student-a"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("double delete: got %v, want %s", err, apperrors.CodeNotFound)
	}
}

func TestCreateRequiresApprovedAccount(t *testing.T) {
	fx := newFixture(t)
	fx.directory.students["student-p"] = &model.Student{
		ID:     "student-p",
		Role:   model.RoleStudent,
		Status: model.StatusPending,
	}

	err := fx.service.Create(context.Background(), &model.Reservation{
		StudentID: "student-p",
		SlotStart: at(9, 0),
		SlotEnd:   at(9, 30),
	})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("got %v, want %s", err, apperrors.CodeForbidden)
	}

	err = fx.service.Create(context.Background(), &model.Reservation{
		StudentID: "student-unknown",
		SlotStart: at(9, 0),
		SlotEnd:   at(9, 30),
	})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("unknown student: got %v, want %s", err, apperrors.CodeNotFound)
	}
}

func TestCreateWhileWindowLockHeld(t *testing.T) {
	fx := newFixture(t)
	fx.addStudent("student-s")

	fx.locks.held["window_lock_2026-03-02T10:00"] = true

	err := fx.service.Create(context.Background(), &model.Reservation{
		StudentID: "student-s",
		SlotStart: at(10, 0),
		SlotEnd:   at(10, 30),
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("got %v, want %s", err, apperrors.CodeConflict)
	}
	if fx.locks.heldCount() != 1 {
		t.Errorf("contended lock count = %d, want only the pre-held lock", fx.locks.heldCount())
	}
}

func TestLocksReleasedAfterSuccessfulCreate(t *testing.T) {
	fx := newFixture(t)
	fx.addStudent("student-s")

	fx.mustCreate(t, "student-s", at(14, 0), at(15, 0))

	if fx.locks.heldCount() != 0 {
		t.Errorf("%d window locks still held after commit", fx.locks.heldCount())
	}
}

func TestListStudentDayAuthorization(t *testing.T) {
	fx := newFixture(t)
	fx.addStudent("student-a")
	fx.addStudent("student-b")

	fx.mustCreate(t, "student-a", at(9, 0), at(9, 30))
	fx.mustCreate(t, "student-a", at(11, 0), at(12, 0))

	own, err := fx.service.ListStudentDay(context.Background(), "student-a", "student-a", day(t))
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("owner sees %d reservations, want 2", len(own))
	}
	if len(own) == 2 && own[0].SlotStart.After(own[1].SlotStart) {
		t.Error("reservations not sorted by start time")
	}

	if _, err := fx.service.ListStudentDay(context.Background(), "student-b", "student-a", day(t)); !apperrors.HasCode(err, apperrors.CodeNotOwner) {
		t.Errorf("peer list: got %v, want %s", err, apperrors.CodeNotOwner)
	}

	asAdmin, err := fx.service.ListStudentDay(context.Background(), "admin-1", "student-a", day(t))
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(asAdmin) != 2 {
		t.Errorf("admin sees %d reservations, want 2", len(asAdmin))
	}
}
