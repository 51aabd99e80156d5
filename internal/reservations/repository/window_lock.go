package repository

import (
	"context"
	"time"

	rerrors "slotdesk/internal/reservations/errors"
	"slotdesk/pkg/config"
	"slotdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// WindowLockRepository provides advisory locks over capacity windows. The
// collection carries a TTL index on expires_at so crashed holders do not
// wedge a window forever.
type WindowLockRepository interface {
	Acquire(ctx context.Context, lock *model.WindowLock) error
	Release(ctx context.Context, lockID string) error
}

type mongoWindowLockRepository struct {
	collection *mongo.Collection
}

func NewWindowLockRepository(cfg *config.Config) WindowLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWindowLockRepository{
		collection: db.Collection("Window_locks"),
	}
}

// Acquire inserts the lock document; the _id uniqueness constraint turns a
// concurrent holder into ErrLockHeld.
func (r *mongoWindowLockRepository) Acquire(ctx context.Context, lock *model.WindowLock) error {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rerrors.ErrLockHeld
		}
		return err
	}
	return nil
}

func (r *mongoWindowLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
