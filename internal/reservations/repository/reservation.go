package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	rerrors "slotdesk/internal/reservations/errors"
	"slotdesk/pkg/config"
	mongotx "slotdesk/pkg/db/mongo"
	"slotdesk/pkg/localtime"
	"slotdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Reservations"

// ReservationRepository is the persistence surface the booking engine needs:
// overlap counting, per-student daily counting, day listing and plain CRUD.
// Occupancy is always counted fresh from the store at decision time; there
// are no cached counters.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	Update(ctx context.Context, id string, reservation *model.Reservation) error
	Delete(ctx context.Context, id string) error
	CountOverlappingWindow(ctx context.Context, windowStart, windowEnd localtime.Time, excludeID string) (int64, error)
	CountByStudentAndDay(ctx context.Context, studentID string, dayStart localtime.Time, excludeID string) (int64, error)
	FindByDay(ctx context.Context, dayStart localtime.Time) ([]*model.Reservation, error)
	FindByStudentAndDay(ctx context.Context, studentID string, dayStart localtime.Time) ([]*model.Reservation, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless it already carries a
// mongo session, which must not be re-wrapped mid-transaction.
func (r *mongoReservationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	reservation.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var reservation model.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return &reservation, nil
}

// Update overwrites the mutable fields; owner and creation time never change.
func (r *mongoReservationRepository) Update(ctx context.Context, id string, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"slot_start": reservation.SlotStart,
			"slot_end":   reservation.SlotEnd,
			"company":    reservation.Company,
			"round":      reservation.Round,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return rerrors.ErrNotFound
	}
	return nil
}

func (r *mongoReservationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return rerrors.ErrNotFound
	}
	return nil
}

// CountOverlappingWindow counts reservations meeting the half-open window
// [windowStart, windowEnd). excludeID omits a reservation from its own count
// on the edit path.
func (r *mongoReservationRepository) CountOverlappingWindow(ctx context.Context, windowStart, windowEnd localtime.Time, excludeID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"slot_start": bson.M{"$lt": windowEnd},
		"slot_end":   bson.M{"$gt": windowStart},
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count window occupancy: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) CountByStudentAndDay(ctx context.Context, studentID string, dayStart localtime.Time, excludeID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := r.dayFilter(dayStart)
	filter["student_id"] = studentID
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count student reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) FindByDay(ctx context.Context, dayStart localtime.Time) ([]*model.Reservation, error) {
	return r.findSorted(ctx, r.dayFilter(dayStart))
}

func (r *mongoReservationRepository) FindByStudentAndDay(ctx context.Context, studentID string, dayStart localtime.Time) ([]*model.Reservation, error) {
	filter := r.dayFilter(dayStart)
	filter["student_id"] = studentID
	return r.findSorted(ctx, filter)
}

func (r *mongoReservationRepository) findSorted(ctx context.Context, filter bson.M) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "slot_start", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

// dayFilter matches reservations whose slot_start falls on dayStart's
// calendar day. The canonical fixed-width time strings order correctly under
// plain string comparison.
func (r *mongoReservationRepository) dayFilter(dayStart localtime.Time) bson.M {
	from := dayStart.StartOfDay()
	to := from.AddMinutes(24 * 60)
	return bson.M{
		"slot_start": bson.M{"$gte": from, "$lt": to},
	}
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
