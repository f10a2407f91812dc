package constants

// Database table names.
const (
	TableSubscriptions      = "subscriptions"
	TableInvoices           = "invoices"
	TableOutboxMessages     = "outbox_messages"
	TableProcessedEvents    = "processed_events"
	TableWebhookInbox       = "webhook_inbox"
	TableIdempotencyRecords = "idempotency_records"
)

// HTTP header carrying the client idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// Runtime environments.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)
