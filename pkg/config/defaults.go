package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "slotdesk"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Booking rules: 30-minute windows over [09:00, 21:00), at most 6
	// concurrent reservations per window and 5 reservations per student
	// per calendar day.
	DefaultWindowMinutes  = 30
	DefaultDayStart       = "09:00"
	DefaultDayEnd         = "21:00"
	DefaultWindowCapacity = 6
	DefaultDailyQuota     = 5
	DefaultWindowLockTTL  = 10 * time.Second

	DefaultKafkaBrokers = "localhost:9092"
	DefaultEventsTopic  = "reservation-events"

	DefaultStudentDirectoryURL = "http://localhost:8081"
)
