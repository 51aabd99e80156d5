package model

import "time"

// WindowLock is an advisory lock document keyed by day+window. Inserting it
// serializes concurrent admission attempts on the same window: the second
// writer hits the _id uniqueness constraint and is told to retry.
type WindowLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
