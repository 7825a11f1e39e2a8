// Package retention prunes old audit records.
//
// Pruning runs in two phases: records older than the retention period are
// deleted, then the oldest records beyond the record cap. A Scheduler runs
// the pruner on a cron expression such as "0 3 * * *".
package retention
