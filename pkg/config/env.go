package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvWindowMinutes  = "WINDOW_MINUTES"
	EnvDayStart       = "DAY_START"
	EnvDayEnd         = "DAY_END"
	EnvWindowCapacity = "WINDOW_CAPACITY"
	EnvDailyQuota     = "DAILY_QUOTA"
	EnvWindowLockTTL  = "WINDOW_LOCK_TTL"

	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvEventsTopic  = "EVENTS_TOPIC"

	EnvStudentDirectoryURL = "STUDENT_DIRECTORY_URL"
)
