package constants

import "time"

const (
	// DefaultWorkers is the number of background workers running derived-computation triggers.
	DefaultWorkers = 4

	// DefaultQueueSize is the buffered capacity of the background job queue.
	DefaultQueueSize = 64

	// DefaultWriteTimeout bounds a single persistence gateway call made during ingestion.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of the HTTP server and store.
	DefaultShutdownTimeout = 10 * time.Second
)

// Store drivers
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

// Derived-computation notifier drivers
const (
	NotifierLog   = "log"
	NotifierMQTT  = "mqtt"
	NotifierKafka = "kafka"
)
