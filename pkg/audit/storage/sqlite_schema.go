package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the audit tables.
const Schema = `
CREATE TABLE IF NOT EXISTS gateway_calls (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    action TEXT NOT NULL,
    environment TEXT NOT NULL,

    request_time TIMESTAMP NOT NULL,
    duration_ms INTEGER NOT NULL,

    status INTEGER NOT NULL,
    success BOOLEAN NOT NULL,
    outcome TEXT NOT NULL,

    request_hash TEXT,
    response_hash TEXT,

    remote_addr TEXT,
    error TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_gateway_calls_request_time ON gateway_calls(request_time);
CREATE INDEX IF NOT EXISTS idx_gateway_calls_action ON gateway_calls(action);
CREATE INDEX IF NOT EXISTS idx_gateway_calls_environment ON gateway_calls(environment);
`

// InsertSchemaVersion records the applied schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion reads the newest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
