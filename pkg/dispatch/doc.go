// Package dispatch delivers order side effects (confirmation email,
// invoice) to downstream webhooks through a persistent outbox.
//
// Tasks are keyed on (order number, kind), so enqueueing the same order
// twice is a no-op. Delivery is at least once: a task is only marked
// delivered after the webhook answered 2xx, and failed deliveries are
// retried with exponential backoff until the attempt limit is reached.
// A worker drains the outbox as soon as a task is enqueued and a cron
// sweep picks up due retries, including those left over from a restart.
package dispatch
