package kms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/audit"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/cryptoutils"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/erasure"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/metrics"
)

// Defaults applied when a generate request leaves fields unset.
const (
	DefaultAlgorithm = "AES-256-GCM"
	DefaultKeySize   = 32
)

// record is one managed key. The per-record mutex serializes every
// operation touching the key, so a destruction in progress can never race
// a retrieval of the same material.
type record struct {
	mu       sync.Mutex
	material []byte
	meta     interfaces.KeyMetadata

	// Destruction evidence, filled when the key reaches the destroyed
	// state and kept for re-anchoring and certificate issuance. The
	// canonical timestamp string is stored verbatim because recomputing
	// the proof from a re-rendered time would not be byte-identical.
	proof                interfaces.ProofHash
	destroyedAtCanonical string
	ledgerTx             string
	ledgerBlock          uint64
}

// Config configures a KeyStore.
type Config struct {
	// Ledger anchors destruction proofs. Nil disables anchoring; keys are
	// still destroyed and audited locally.
	Ledger interfaces.DeletionLedger

	// Audit receives one entry per lifecycle operation. A fresh in-memory
	// log is created when nil.
	Audit *audit.Log

	// Random sources key material and overwrite passes. Nil selects
	// crypto/rand.
	Random io.Reader

	// WaitForConfirmation makes anchoring block until the recording
	// transaction confirms instead of returning on submission.
	WaitForConfirmation bool

	Log *slog.Logger
}

// KeyStore owns the managed keys and drives the lifecycle state machine:
// active, pending_destruction, destroyed, and expired, with destroyed and
// expired terminal.
//
// Destruction is two-phase. DestroyLocal overwrites the material in
// place, commits the terminal state and the proof hash, and releases the
// buffer before returning; Anchor then records the proof on the ledger,
// best effort. A ledger outage can cost the on-chain record, never the
// destruction itself.
type KeyStore struct {
	log    *slog.Logger
	audit  *audit.Log
	ledger interfaces.DeletionLedger
	random io.Reader
	wait   bool

	mu   sync.RWMutex
	keys map[interfaces.KeyID]*record

	totalGenerated   atomic.Int64
	totalDestroyed   atomic.Int64
	totalAccesses    atomic.Int64
	ledgerRecordings atomic.Int64
	ledgerFailures   atomic.Int64
}

// NewKeyStore creates a key store from the config.
func NewKeyStore(cfg Config) *KeyStore {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	auditLog := cfg.Audit
	if auditLog == nil {
		auditLog = audit.New(log)
	}

	return &KeyStore{
		log:    log,
		audit:  auditLog,
		ledger: cfg.Ledger,
		random: cfg.Random,
		wait:   cfg.WaitForConfirmation,
		keys:   make(map[interfaces.KeyID]*record),
	}
}

// Audit returns the store's audit log.
func (s *KeyStore) Audit() *audit.Log {
	return s.audit
}

// Generate creates a key and returns its metadata. Unset request fields
// default to a 32-byte AES-256-GCM key owned by the system principal with
// no expiry.
func (s *KeyStore) Generate(req interfaces.GenerateRequest) (*interfaces.KeyMetadata, error) {
	if req.Algorithm == "" {
		req.Algorithm = DefaultAlgorithm
	}
	if req.KeySize == 0 {
		req.KeySize = DefaultKeySize
	}
	if req.OwnerID == "" {
		req.OwnerID = interfaces.SystemPrincipal
	}
	if req.ExpiresIn < 0 {
		return nil, fmt.Errorf("%w: negative expiry", interfaces.ErrInvalidParameter)
	}

	material, err := cryptoutils.GenerateKeyMaterial(req.Algorithm, req.KeySize, s.random)
	if err != nil {
		return nil, err
	}

	keyID, err := interfaces.NewKeyID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	meta := interfaces.KeyMetadata{
		KeyID:       keyID,
		State:       interfaces.KeyStateActive,
		Algorithm:   req.Algorithm,
		KeySize:     req.KeySize,
		Purpose:     req.Purpose,
		OwnerID:     req.OwnerID,
		CreatedAt:   now,
		Fingerprint: cryptoutils.KeyFingerprint(material),
	}
	if req.ExpiresIn > 0 {
		expiresAt := now.Add(req.ExpiresIn)
		meta.ExpiresAt = &expiresAt
	}

	s.mu.Lock()
	s.keys[keyID] = &record{material: material, meta: meta}
	s.mu.Unlock()

	s.totalGenerated.Inc()
	metrics.KeysGenerated.Inc()
	s.audit.Append(audit.OpGenerateKey, keyID, map[string]any{
		"algorithm":   meta.Algorithm,
		"key_size":    meta.KeySize,
		"purpose":     meta.Purpose,
		"owner_id":    meta.OwnerID,
		"fingerprint": meta.Fingerprint.String(),
	})
	s.log.Info("key generated",
		slog.String("key_id", keyID.String()),
		slog.String("algorithm", meta.Algorithm),
		slog.Int("key_size", meta.KeySize),
		slog.String("owner_id", meta.OwnerID))

	return copyMetadata(&meta), nil
}

// Retrieve returns a copy of the key material. The requester must be the
// key's owner or the system principal, and the key must be active.
func (s *KeyStore) Retrieve(keyID interfaces.KeyID, requesterID string) ([]byte, error) {
	rec, err := s.get(keyID)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if err := authorize(&rec.meta, requesterID); err != nil {
		return nil, err
	}
	s.applyExpiry(rec)

	switch rec.meta.State {
	case interfaces.KeyStateActive:
	case interfaces.KeyStateDestroyed:
		return nil, fmt.Errorf("%w: %s", interfaces.ErrKeyDestroyed, keyID)
	default:
		return nil, fmt.Errorf("%w: %s is %s", interfaces.ErrInvalidState, keyID, rec.meta.State)
	}

	rec.meta.AccessCount++
	now := time.Now().UTC()
	rec.meta.LastAccessedAt = &now

	s.totalAccesses.Inc()
	metrics.KeyAccesses.Inc()
	s.audit.Append(audit.OpRetrieveKey, keyID, map[string]any{
		"requester_id": requesterID,
		"access_count": rec.meta.AccessCount,
	})

	out := make([]byte, len(rec.material))
	copy(out, rec.material)
	return out, nil
}

// Destroy erases the key and then anchors the proof on the ledger. The
// erasure commits before any network traffic starts; an anchoring failure
// leaves the result successful with only the local audit trail.
func (s *KeyStore) Destroy(ctx context.Context, keyID interfaces.KeyID, method interfaces.ErasureMethod, requesterID string) (*interfaces.DestructionResult, error) {
	result, err := s.DestroyLocal(keyID, method, requesterID)
	if err != nil {
		return nil, err
	}
	s.Anchor(ctx, result)
	return result, nil
}

// DestroyLocal erases the key without touching the ledger.
//
// Destroying a destroyed key is an idempotent success: no erasure runs
// and the result reports the key was already gone. A key stuck in
// pending_destruction after a failed erasure may be destroyed again.
func (s *KeyStore) DestroyLocal(keyID interfaces.KeyID, method interfaces.ErasureMethod, requesterID string) (*interfaces.DestructionResult, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown erasure method", interfaces.ErrInvalidParameter)
	}

	rec, err := s.get(keyID)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if err := authorize(&rec.meta, requesterID); err != nil {
		return nil, err
	}
	s.applyExpiry(rec)

	switch rec.meta.State {
	case interfaces.KeyStateDestroyed:
		s.audit.Append(audit.OpDestroySkipped, keyID, map[string]any{
			"reason": "already_destroyed",
			"method": method.String(),
		})
		return &interfaces.DestructionResult{
			KeyID:     keyID,
			Method:    method,
			Outcome:   interfaces.OutcomeAlreadyDestroyed,
			Success:   true,
			OwnerID:   rec.meta.OwnerID,
			Algorithm: rec.meta.Algorithm,
			KeySize:   rec.meta.KeySize,
		}, nil
	case interfaces.KeyStateExpired:
		return nil, fmt.Errorf("%w: %s is expired", interfaces.ErrInvalidState, keyID)
	}

	rec.meta.State = interfaces.KeyStatePendingDestruction

	if err := s.erase(method, rec.material); err != nil {
		s.audit.Append(audit.OpDestroyKeyFailed, keyID, map[string]any{
			"method": method.String(),
			"error":  err.Error(),
		})
		s.log.Error("key destruction failed", slog.String("key_id", keyID.String()), slog.String("method", method.String()), "err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrDestructionFailed, err)
	}

	now := time.Now().UTC()
	canonical := cryptoutils.CanonicalTimestamp(now)
	proof, err := cryptoutils.ComputeProofHash(cryptoutils.ProofInput{
		Version:     cryptoutils.ProofFormatV1,
		KeyID:       keyID,
		Method:      method,
		DestroyedAt: canonical,
		Fingerprint: rec.meta.Fingerprint,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: proof derivation: %v", interfaces.ErrDestructionFailed, err)
	}

	// Commit the terminal state and release the buffer before anything
	// leaves this process.
	rec.meta.State = interfaces.KeyStateDestroyed
	rec.meta.DestroyedAt = &now
	methodCopy := method
	rec.meta.DestructionMethod = &methodCopy
	rec.proof = proof
	rec.destroyedAtCanonical = canonical
	wipe(rec.material)
	rec.material = nil

	s.totalDestroyed.Inc()
	metrics.KeysDestroyed.Inc()
	s.audit.Append(audit.OpDestroyKeySuccess, keyID, map[string]any{
		"method":       method.String(),
		"requester_id": requesterID,
		"destroyed_at": canonical,
	})
	s.log.Info("key destroyed",
		slog.String("key_id", keyID.String()),
		slog.String("method", method.String()),
		slog.String("proof_hash", proof.String()))

	return &interfaces.DestructionResult{
		KeyID:       keyID,
		Method:      method,
		Outcome:     interfaces.OutcomeDestroyed,
		Success:     true,
		DestroyedAt: now,
		Timestamp:   canonical,
		Fingerprint: rec.meta.Fingerprint,
		ProofHash:   &proof,
		OwnerID:     rec.meta.OwnerID,
		Algorithm:   rec.meta.Algorithm,
		KeySize:     rec.meta.KeySize,
	}, nil
}

// Anchor records a completed destruction on the ledger, filling the
// result's ledger fields in place. Results without a proof hash, results
// already anchored, and stores without a ledger are no-ops. Failures are
// audited and counted but never surfaced to the destruction path.
func (s *KeyStore) Anchor(ctx context.Context, result *interfaces.DestructionResult) {
	if result == nil || result.ProofHash == nil || result.Anchored() || s.ledger == nil {
		return
	}

	proof := *result.ProofHash
	receipt, err := s.ledger.RecordDeletion(ctx, result.KeyID, result.Method, proof, s.wait)
	if err != nil {
		s.ledgerFailures.Inc()
		metrics.LedgerFailures.Inc()
		s.audit.Append(audit.OpLedgerRecordFailed, result.KeyID, map[string]any{
			"error":      err.Error(),
			"proof_hash": proof.String(),
		})
		s.log.Warn("ledger recording failed, destruction remains locally auditable",
			slog.String("key_id", result.KeyID.String()), "err", err)
		return
	}

	result.LedgerTx = receipt.TxHash
	result.LedgerBlock = receipt.BlockNumber
	s.markAnchored(result.KeyID, receipt)

	s.ledgerRecordings.Inc()
	metrics.LedgerRecordings.Inc()
	s.audit.Append(audit.OpLedgerRecordSuccess, result.KeyID, map[string]any{
		"tx_hash":      receipt.TxHash,
		"proof_hash":   proof.String(),
		"block_number": receipt.BlockNumber,
	})
}

// AnchorBatch records the proofs of several destroyed keys in one
// transaction, rebuilding each proof from the key's tombstone. Keys that
// already carry a ledger transaction are skipped. The batch confirms or
// fails as a unit.
func (s *KeyStore) AnchorBatch(ctx context.Context, keyIDs []interfaces.KeyID) (*interfaces.TxReceiptSummary, error) {
	if s.ledger == nil {
		return nil, interfaces.ErrLedgerDisabled
	}
	if len(keyIDs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", interfaces.ErrInvalidParameter)
	}

	deletions := make([]interfaces.BatchDeletion, 0, len(keyIDs))
	for _, keyID := range keyIDs {
		rec, err := s.get(keyID)
		if err != nil {
			return nil, err
		}

		rec.mu.Lock()
		if rec.meta.State != interfaces.KeyStateDestroyed || rec.meta.DestructionMethod == nil {
			state := rec.meta.State
			rec.mu.Unlock()
			return nil, fmt.Errorf("%w: %s is %s, not destroyed", interfaces.ErrInvalidState, keyID, state)
		}
		if rec.ledgerTx != "" {
			rec.mu.Unlock()
			s.log.Debug("skipping already anchored key", slog.String("key_id", keyID.String()))
			continue
		}
		deletions = append(deletions, interfaces.BatchDeletion{
			KeyID:     keyID,
			Method:    *rec.meta.DestructionMethod,
			ProofHash: rec.proof,
		})
		rec.mu.Unlock()
	}

	if len(deletions) == 0 {
		return nil, fmt.Errorf("%w: every key in the batch is already anchored", interfaces.ErrInvalidParameter)
	}

	receipt, err := s.ledger.BatchRecordDeletion(ctx, deletions, s.wait)
	if err != nil {
		s.ledgerFailures.Inc()
		metrics.LedgerFailures.Inc()
		for _, deletion := range deletions {
			s.audit.Append(audit.OpLedgerRecordFailed, deletion.KeyID, map[string]any{
				"error":      err.Error(),
				"proof_hash": deletion.ProofHash.String(),
			})
		}
		return nil, err
	}

	s.ledgerRecordings.Add(int64(len(deletions)))
	metrics.LedgerRecordings.Add(float64(len(deletions)))
	for _, deletion := range deletions {
		s.markAnchored(deletion.KeyID, receipt)
		s.audit.Append(audit.OpLedgerRecordSuccess, deletion.KeyID, map[string]any{
			"tx_hash":      receipt.TxHash,
			"proof_hash":   deletion.ProofHash.String(),
			"block_number": receipt.BlockNumber,
		})
	}
	return receipt, nil
}

// List returns metadata for keys matching the filters, oldest first. An
// empty owner or state matches everything.
func (s *KeyStore) List(ownerID string, state interfaces.KeyState) []interfaces.KeyMetadata {
	s.mu.RLock()
	records := make([]*record, 0, len(s.keys))
	for _, rec := range s.keys {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	matched := make([]interfaces.KeyMetadata, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		s.applyExpiry(rec)
		meta := *copyMetadata(&rec.meta)
		rec.mu.Unlock()

		if ownerID != "" && meta.OwnerID != ownerID {
			continue
		}
		if state != "" && meta.State != state {
			continue
		}
		matched = append(matched, meta)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].KeyID < matched[j].KeyID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched
}

// Metadata returns a single key's metadata, tombstones included.
func (s *KeyStore) Metadata(keyID interfaces.KeyID) (*interfaces.KeyMetadata, error) {
	rec, err := s.get(keyID)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	s.applyExpiry(rec)
	return copyMetadata(&rec.meta), nil
}

// CompletedDestruction rebuilds the destruction result recorded in a
// destroyed key's tombstone, including any ledger anchoring.
func (s *KeyStore) CompletedDestruction(keyID interfaces.KeyID) (*interfaces.DestructionResult, error) {
	rec, err := s.get(keyID)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.meta.State != interfaces.KeyStateDestroyed || rec.meta.DestructionMethod == nil || rec.meta.DestroyedAt == nil {
		return nil, fmt.Errorf("%w: %s is %s, not destroyed", interfaces.ErrInvalidState, keyID, rec.meta.State)
	}

	proof := rec.proof
	return &interfaces.DestructionResult{
		KeyID:       keyID,
		Method:      *rec.meta.DestructionMethod,
		Outcome:     interfaces.OutcomeDestroyed,
		Success:     true,
		DestroyedAt: *rec.meta.DestroyedAt,
		Timestamp:   rec.destroyedAtCanonical,
		Fingerprint: rec.meta.Fingerprint,
		ProofHash:   &proof,
		LedgerTx:    rec.ledgerTx,
		LedgerBlock: rec.ledgerBlock,
		OwnerID:     rec.meta.OwnerID,
		Algorithm:   rec.meta.Algorithm,
		KeySize:     rec.meta.KeySize,
	}, nil
}

// Stats returns lifetime operation counters and current key counts.
func (s *KeyStore) Stats() interfaces.KeyStoreStats {
	s.mu.RLock()
	records := make([]*record, 0, len(s.keys))
	for _, rec := range s.keys {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	stats := interfaces.KeyStoreStats{
		TotalKeys:        int64(len(records)),
		TotalGenerated:   s.totalGenerated.Load(),
		TotalDestroyed:   s.totalDestroyed.Load(),
		TotalAccesses:    s.totalAccesses.Load(),
		LedgerRecordings: s.ledgerRecordings.Load(),
		LedgerFailures:   s.ledgerFailures.Load(),
	}
	for _, rec := range records {
		rec.mu.Lock()
		state := rec.meta.State
		rec.mu.Unlock()
		switch state {
		case interfaces.KeyStateActive:
			stats.ActiveKeys++
		case interfaces.KeyStateDestroyed:
			stats.DestroyedKeys++
		}
	}
	return stats
}

// LedgerStatus reports ledger configuration, connectivity and recording
// counters.
func (s *KeyStore) LedgerStatus(ctx context.Context) interfaces.LedgerStatus {
	status := interfaces.LedgerStatus{
		TotalRecordings: s.ledgerRecordings.Load(),
		TotalFailures:   s.ledgerFailures.Load(),
	}
	attempts := status.TotalRecordings + status.TotalFailures
	if attempts > 0 {
		status.SuccessRate = float64(status.TotalRecordings) / float64(attempts)
	}

	if s.ledger == nil {
		return status
	}
	status.Enabled = true
	status.Connected = s.ledger.Connected(ctx)
	status.ContractAddress = s.ledger.ContractAddress().Hex()
	return status
}

// VerifyOnLedger fetches the ledger's deletion record for a key. A key
// the ledger has never seen yields (nil, nil).
func (s *KeyStore) VerifyOnLedger(ctx context.Context, keyID interfaces.KeyID) (*interfaces.DeletionRecord, error) {
	if s.ledger == nil {
		return nil, interfaces.ErrLedgerDisabled
	}

	deletionRecord, err := s.ledger.GetDeletionRecord(ctx, keyID)
	if err != nil {
		s.audit.Append(audit.OpLedgerVerifyFailed, keyID, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("ledger verification: %w", err)
	}
	if deletionRecord == nil {
		s.audit.Append(audit.OpLedgerVerifyFailed, keyID, map[string]any{"reason": "no_record"})
		return nil, nil
	}

	s.audit.Append(audit.OpLedgerVerifySuccess, keyID, map[string]any{
		"operator":  deletionRecord.Operator.Hex(),
		"timestamp": deletionRecord.Timestamp,
	})
	return deletionRecord, nil
}

// erase dispatches to the erasure primitive for the method. The switch is
// exhaustive over the defined methods; Valid is checked at the entry
// points, so the default arm is unreachable.
func (s *KeyStore) erase(method interfaces.ErasureMethod, buf []byte) error {
	switch method {
	case interfaces.NullErase:
		return erasure.NullErase(buf)
	case interfaces.SingleOverwrite:
		return erasure.SingleOverwrite(buf, s.random)
	case interfaces.MultiPassOverwrite:
		return erasure.MultiPassOverwrite(buf, s.random)
	case interfaces.DeterministicZero:
		return erasure.DeterministicZero(buf, s.random)
	default:
		return fmt.Errorf("%w: unknown erasure method %d", interfaces.ErrInvalidParameter, int(method))
	}
}

// applyExpiry moves an active key past its expiry into the terminal
// expired state. The material is wiped without a destruction proof; a
// proof attests an explicit destruction, which this is not. Caller holds
// the record mutex.
func (s *KeyStore) applyExpiry(rec *record) {
	if rec.meta.State != interfaces.KeyStateActive || rec.meta.ExpiresAt == nil {
		return
	}
	if time.Now().Before(*rec.meta.ExpiresAt) {
		return
	}

	rec.meta.State = interfaces.KeyStateExpired
	wipe(rec.material)
	rec.material = nil
	s.log.Debug("key expired", slog.String("key_id", rec.meta.KeyID.String()))
}

// markAnchored persists ledger coordinates in the key's tombstone.
func (s *KeyStore) markAnchored(keyID interfaces.KeyID, receipt *interfaces.TxReceiptSummary) {
	rec, err := s.get(keyID)
	if err != nil {
		return
	}
	rec.mu.Lock()
	rec.ledgerTx = receipt.TxHash
	rec.ledgerBlock = receipt.BlockNumber
	rec.mu.Unlock()
}

func (s *KeyStore) get(keyID interfaces.KeyID) (*record, error) {
	s.mu.RLock()
	rec, ok := s.keys[keyID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrKeyNotFound, keyID)
	}
	return rec, nil
}

func authorize(meta *interfaces.KeyMetadata, requesterID string) error {
	if requesterID != interfaces.SystemPrincipal && requesterID != meta.OwnerID {
		return fmt.Errorf("%w: %s may not access %s", interfaces.ErrPermissionDenied, requesterID, meta.KeyID)
	}
	return nil
}

func copyMetadata(meta *interfaces.KeyMetadata) *interfaces.KeyMetadata {
	copied := *meta
	if meta.ExpiresAt != nil {
		expiresAt := *meta.ExpiresAt
		copied.ExpiresAt = &expiresAt
	}
	if meta.DestroyedAt != nil {
		destroyedAt := *meta.DestroyedAt
		copied.DestroyedAt = &destroyedAt
	}
	if meta.DestructionMethod != nil {
		method := *meta.DestructionMethod
		copied.DestructionMethod = &method
	}
	if meta.LastAccessedAt != nil {
		lastAccessedAt := *meta.LastAccessedAt
		copied.LastAccessedAt = &lastAccessedAt
	}
	return &copied
}

func wipe(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

var _ interfaces.KeyManager = (*KeyStore)(nil)
