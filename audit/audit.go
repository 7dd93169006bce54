// Package audit implements the append-only audit log that records every
// key lifecycle operation. Entries are kept in memory in arrival order
// and optionally mirrored to a sink as JSON lines. An entry, once
// appended, is never modified.
package audit

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// Operation names recorded by the key store.
const (
	OpGenerateKey         = "generate_key"
	OpRetrieveKey         = "retrieve_key"
	OpDestroySkipped      = "destroy_skipped"
	OpDestroyKeySuccess   = "destroy_key_success"
	OpDestroyKeyFailed    = "destroy_key_failed"
	OpLedgerRecordSuccess = "ledger_record_success"
	OpLedgerRecordFailed  = "ledger_record_failed"
	OpLedgerVerifySuccess = "ledger_verify_success"
	OpLedgerVerifyFailed  = "ledger_verify_failed"
)

// Log is a concurrency-safe append-only audit log.
type Log struct {
	log  *slog.Logger
	sink io.Writer

	mu      sync.RWMutex
	entries []interfaces.AuditEntry
}

// New creates an in-memory audit log.
func New(log *slog.Logger) *Log {
	return NewWithSink(log, nil)
}

// NewWithSink creates an audit log that additionally writes each entry to
// sink as one JSON line. Sink failures are logged and never fail the
// operation being audited.
func NewWithSink(log *slog.Logger, sink io.Writer) *Log {
	if log == nil {
		log = slog.Default()
	}
	return &Log{log: log, sink: sink}
}

// Append records an operation against a key. The details map is copied,
// so later changes by the caller do not reach the stored entry.
func (l *Log) Append(operation string, keyID interfaces.KeyID, details map[string]any) {
	entry := interfaces.AuditEntry{
		Timestamp: time.Now().UTC(),
		Operation: operation,
		KeyID:     keyID,
		Details:   copyDetails(details),
	}

	// The sink write happens under the lock so concurrent appends cannot
	// interleave partial JSON lines.
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if l.sink == nil {
		return
	}

	line, err := json.Marshal(entry)
	if err != nil {
		l.log.Warn("failed to encode audit entry", "operation", operation, "err", err)
		return
	}
	if _, err := l.sink.Write(append(line, '\n')); err != nil {
		l.log.Warn("failed to write audit entry to sink", "operation", operation, "err", err)
	}
}

// Query returns entries matching the filters, oldest first. An empty key
// id or operation matches everything. The result is a copy; mutating it
// does not affect the log.
func (l *Log) Query(keyID interfaces.KeyID, operation string) []interfaces.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := make([]interfaces.AuditEntry, 0, len(l.entries))
	for _, entry := range l.entries {
		if keyID != "" && entry.KeyID != keyID {
			continue
		}
		if operation != "" && entry.Operation != operation {
			continue
		}
		entry.Details = copyDetails(entry.Details)
		matched = append(matched, entry)
	}
	return matched
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func copyDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	copied := make(map[string]any, len(details))
	for k, v := range details {
		copied[k] = v
	}
	return copied
}
