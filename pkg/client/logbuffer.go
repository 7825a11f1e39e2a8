package client

import (
	"encoding/json"
	"time"
)

// DefaultLogCapacity is the number of entries a LogBuffer keeps.
const DefaultLogCapacity = 50

// LogEntry is one outbound call. Entries are immutable once appended.
type LogEntry struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Method         string            `json:"method"`
	Endpoint       string            `json:"endpoint"`
	RequestHeaders map[string]string `json:"requestHeaders"`
	RequestBody    json.RawMessage   `json:"requestBody,omitempty"`
	ResponseStatus int               `json:"responseStatus"`
	ResponseBody   json.RawMessage   `json:"responseBody,omitempty"`
	Duration       time.Duration     `json:"duration"`
}

type canonicalEntry struct {
	Request struct {
		Method   string            `json:"method"`
		Endpoint string            `json:"endpoint"`
		Headers  map[string]string `json:"headers"`
		Body     json.RawMessage   `json:"body"`
	} `json:"request"`
	Response struct {
		Status int             `json:"status"`
		Body   json.RawMessage `json:"body"`
	} `json:"response"`
	Duration int64 `json:"duration"`
}

// CanonicalJSON is the projection copied to the clipboard: request method,
// endpoint, headers and body, response status and body, and the duration
// in milliseconds.
func (e LogEntry) CanonicalJSON() ([]byte, error) {
	var c canonicalEntry
	c.Request.Method = e.Method
	c.Request.Endpoint = e.Endpoint
	c.Request.Headers = e.RequestHeaders
	if c.Request.Headers == nil {
		c.Request.Headers = map[string]string{}
	}
	c.Request.Body = orNull(e.RequestBody)
	c.Response.Status = e.ResponseStatus
	c.Response.Body = orNull(e.ResponseBody)
	c.Duration = e.Duration.Milliseconds()
	return json.MarshalIndent(c, "", "  ")
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

// LogBuffer keeps the most recent entries, newest first. Once full, the
// oldest entry is dropped on every append.
type LogBuffer struct {
	capacity int
	entries  []LogEntry
	expanded map[string]bool
}

// NewLogBuffer creates a buffer holding up to capacity entries.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogBuffer{
		capacity: capacity,
		entries:  make([]LogEntry, 0, capacity),
		expanded: make(map[string]bool),
	}
}

// Append adds e as the newest entry.
func (b *LogBuffer) Append(e LogEntry) {
	if len(b.entries) == b.capacity {
		evicted := b.entries[len(b.entries)-1]
		delete(b.expanded, evicted.ID)
		b.entries = b.entries[:len(b.entries)-1]
	}
	b.entries = append(b.entries, LogEntry{})
	copy(b.entries[1:], b.entries)
	b.entries[0] = e
}

// Clear removes every entry.
func (b *LogBuffer) Clear() {
	b.entries = b.entries[:0]
	clear(b.expanded)
}

// Entries returns a copy of the entries, newest first.
func (b *LogBuffer) Entries() []LogEntry {
	out := make([]LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries.
func (b *LogBuffer) Len() int {
	return len(b.entries)
}

// Capacity returns the maximum number of entries.
func (b *LogBuffer) Capacity() int {
	return b.capacity
}

// Get returns the entry with id.
func (b *LogBuffer) Get(id string) (LogEntry, bool) {
	for _, e := range b.entries {
		if e.ID == id {
			return e, true
		}
	}
	return LogEntry{}, false
}

// Newest returns the most recent entry.
func (b *LogBuffer) Newest() (LogEntry, bool) {
	if len(b.entries) == 0 {
		return LogEntry{}, false
	}
	return b.entries[0], true
}

// Toggle flips the expanded state of the entry with id and returns the new
// state. Unknown ids stay collapsed.
func (b *LogBuffer) Toggle(id string) bool {
	if _, ok := b.Get(id); !ok {
		return false
	}
	b.expanded[id] = !b.expanded[id]
	if !b.expanded[id] {
		delete(b.expanded, id)
		return false
	}
	return true
}

// IsExpanded reports whether the entry with id is expanded.
func (b *LogBuffer) IsExpanded(id string) bool {
	return b.expanded[id]
}
