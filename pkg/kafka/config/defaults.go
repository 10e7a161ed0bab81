package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultBookingEventsTopic = "staybook.booking-events"
	DefaultBookingEventsDLQ   = "staybook.booking-events.dlq"
	DefaultAuditGroupID       = "staybook-booking-audit"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // all replicas
	DefaultProducerCompression  = "snappy"

	DefaultConsumerStartOffset       = -2 // oldest, the audit trail wants every event
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 10 * 1024 * 1024 // 10MB
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = 1 * time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 60 * time.Second
	DefaultConsumerMaxRetries        = 3
	DefaultConsumerRetryBackoff      = 250 * time.Millisecond

	DefaultEnableMiddleware = true
)
