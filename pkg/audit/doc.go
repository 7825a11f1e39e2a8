// Package audit records every call that passes through the UVST gateway so
// operators can inspect traffic on the server side.
//
// A Record holds the action, environment, outcome, status, wall-clock
// duration and a SHA-256 digest of the request body. Credentials and tokens
// are never stored.
//
// Sub-packages:
//   - storage: memory and SQLite backends implementing Storage
//   - recorder: asynchronous, non-blocking writer in front of a Storage
//   - retention: age and count based pruning on a cron schedule
//   - export: JSON and CSV rendering for the CLI
package audit
