package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

func TestLog_AppendAndQuery(t *testing.T) {
	log := New(nil)

	log.Append(OpGenerateKey, "key_a", map[string]any{"algorithm": "AES-256-GCM"})
	log.Append(OpRetrieveKey, "key_a", map[string]any{"requester_id": "alice"})
	log.Append(OpGenerateKey, "key_b", nil)

	// Filter by key id
	entries := log.Query("key_a", "")
	require.Equal(t, 2, len(entries), "Should match both key_a entries")
	assert.Equal(t, OpGenerateKey, entries[0].Operation, "Entries should come back oldest first")
	assert.Equal(t, OpRetrieveKey, entries[1].Operation)

	// Filter by operation
	entries = log.Query("", OpGenerateKey)
	require.Equal(t, 2, len(entries))
	assert.Equal(t, interfaces.KeyID("key_a"), entries[0].KeyID)
	assert.Equal(t, interfaces.KeyID("key_b"), entries[1].KeyID)

	// Both filters
	entries = log.Query("key_b", OpGenerateKey)
	require.Equal(t, 1, len(entries))

	// No filters returns everything
	assert.Equal(t, 3, len(log.Query("", "")))
	assert.Equal(t, 3, log.Len())

	// No matches is an empty slice, not nil semantics the caller must guess
	assert.Empty(t, log.Query("key_c", ""))
}

func TestLog_EntriesAreImmutable(t *testing.T) {
	log := New(nil)

	details := map[string]any{"method": "deterministic_zero"}
	log.Append(OpDestroyKeySuccess, "key_a", details)

	// Mutating the caller's map after the fact must not reach the log
	details["method"] = "null_erase"
	entries := log.Query("key_a", "")
	require.Equal(t, 1, len(entries))
	assert.Equal(t, "deterministic_zero", entries[0].Details["method"], "Stored entry must keep its original details")

	// Mutating a query result must not reach the log either
	entries[0].Details["method"] = "single_overwrite"
	assert.Equal(t, "deterministic_zero", log.Query("key_a", "")[0].Details["method"])
}

func TestLog_ConcurrentAppends(t *testing.T) {
	log := New(nil)

	var wg sync.WaitGroup
	for worker := 0; worker < 10; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			keyID := interfaces.KeyID(fmt.Sprintf("key_%032d", worker))
			for i := 0; i < 20; i++ {
				log.Append(OpRetrieveKey, keyID, map[string]any{"access": i})
			}
		}(worker)
	}
	wg.Wait()

	assert.Equal(t, 200, log.Len(), "All concurrent appends must be recorded")

	// Per-key entries keep their append order
	entries := log.Query(interfaces.KeyID(fmt.Sprintf("key_%032d", 3)), "")
	require.Equal(t, 20, len(entries), "Each worker's entries must all be present")
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Timestamp.Before(entries[i-1].Timestamp), "Timestamps must not regress within a key")
	}
}

func TestLog_JSONLSink(t *testing.T) {
	var sink bytes.Buffer
	log := NewWithSink(nil, &sink)

	log.Append(OpGenerateKey, "key_a", map[string]any{"key_size": 32})
	log.Append(OpDestroyKeySuccess, "key_a", map[string]any{"method": "deterministic_zero"})

	scanner := bufio.NewScanner(&sink)
	var lines []interfaces.AuditEntry
	for scanner.Scan() {
		var entry interfaces.AuditEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "Each sink line must be valid JSON")
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())

	require.Equal(t, 2, len(lines), "Sink should carry one line per entry")
	assert.Equal(t, OpGenerateKey, lines[0].Operation)
	assert.Equal(t, OpDestroyKeySuccess, lines[1].Operation)
	assert.Equal(t, float64(32), lines[0].Details["key_size"], "Details should survive the JSON round trip")
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestLog_SinkFailureDoesNotLoseEntries(t *testing.T) {
	log := NewWithSink(nil, brokenWriter{})

	log.Append(OpGenerateKey, "key_a", nil)

	// The in-memory record survives even when the sink write fails
	assert.Equal(t, 1, log.Len(), "Sink failures must never drop the audited operation")
}
