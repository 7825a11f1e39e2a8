// Package recorder writes audit records asynchronously so gateway calls
// never wait on storage.
//
// Records go through a buffered channel drained by one worker. When the
// buffer is full the record is dropped with a warning and counted in the
// audit_dropped_total metric. Close drains whatever is still queued.
package recorder
