package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// MockLedgerClient provides a simple in-memory implementation of the
// DeletionLedger interface for testing purposes without requiring a
// blockchain connection. It stores deletion records in memory and
// simulates transaction submission and confirmation.
type MockLedgerClient struct {
	mutex            sync.RWMutex
	records          map[interfaces.KeyID]*interfaces.DeletionRecord
	receipts         map[string]*interfaces.TxReceiptSummary
	submissions      []interfaces.BatchDeletion
	blockNumber      uint64
	operator         interfaces.ContractAddress
	contractAddr     interfaces.ContractAddress
	balance          *big.Int
	allowTransacting bool
	writeErr         error
	offline          bool
}

// NewMockLedgerClient creates a new mock ledger client with empty initial
// state. The client starts in a read-only state; call SetTransactOpts to
// enable write operations.
func NewMockLedgerClient() *MockLedgerClient {
	var operator, contractAddr interfaces.ContractAddress
	for i := range operator {
		operator[i] = 0xaa
	}
	for i := range contractAddr {
		contractAddr[i] = 0xcc
	}

	return &MockLedgerClient{
		records:      make(map[interfaces.KeyID]*interfaces.DeletionRecord),
		receipts:     make(map[string]*interfaces.TxReceiptSummary),
		operator:     operator,
		contractAddr: contractAddr,
		balance:      new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18)),
	}
}

// SetTransactOpts enables write operations on the mock client. While the
// mock doesn't make blockchain transactions, this simulates the
// authorization flow of the on-chain client.
func (m *MockLedgerClient) SetTransactOpts() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.allowTransacting = true
}

// SetWriteError forces every subsequent write to fail with the given
// error. Pass nil to restore normal behavior.
func (m *MockLedgerClient) SetWriteError(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.writeErr = err
}

// SetOffline simulates an unreachable endpoint: Connected reports false
// and reads degrade the way the on-chain client degrades.
func (m *MockLedgerClient) SetOffline(offline bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.offline = offline
}

// SetBalance sets the simulated operator balance in wei.
func (m *MockLedgerClient) SetBalance(balance *big.Int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.balance = new(big.Int).Set(balance)
}

// Submissions returns every deletion submitted so far, in order.
func (m *MockLedgerClient) Submissions() []interfaces.BatchDeletion {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]interfaces.BatchDeletion, len(m.submissions))
	copy(out, m.submissions)
	return out
}

// RecordDeletion stores one deletion record and returns a simulated
// confirmed receipt.
func (m *MockLedgerClient) RecordDeletion(ctx context.Context, keyID interfaces.KeyID, method interfaces.ErasureMethod, proofHash interfaces.ProofHash, wait bool) (*interfaces.TxReceiptSummary, error) {
	return m.BatchRecordDeletion(ctx, []interfaces.BatchDeletion{{KeyID: keyID, Method: method, ProofHash: proofHash}}, wait)
}

// BatchRecordDeletion stores several deletion records under one simulated
// transaction.
func (m *MockLedgerClient) BatchRecordDeletion(_ context.Context, deletions []interfaces.BatchDeletion, wait bool) (*interfaces.TxReceiptSummary, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.allowTransacting {
		return nil, interfaces.ErrNoTransactOpts
	}
	if m.writeErr != nil {
		return nil, m.writeErr
	}

	m.blockNumber++
	timestamp := uint64(time.Now().Unix())
	receipt := &interfaces.TxReceiptSummary{
		TxHash:      fmt.Sprintf("0x%064x", m.blockNumber),
		BlockNumber: m.blockNumber,
		GasUsed:     DefaultGasLimit / 10 * uint64(len(deletions)),
		Status:      interfaces.TxStatusSuccess,
	}
	if !wait {
		receipt.Status = interfaces.TxStatusPending
	}

	for _, deletion := range deletions {
		m.records[deletion.KeyID] = &interfaces.DeletionRecord{
			KeyID:             deletion.KeyID,
			Method:            deletion.Method.String(),
			Timestamp:         timestamp,
			TimestampReadable: time.Unix(int64(timestamp), 0).UTC().Format(time.RFC3339),
			Operator:          m.operator,
			ProofHash:         deletion.ProofHash,
			Exists:            true,
		}
		m.submissions = append(m.submissions, deletion)
	}
	m.receipts[receipt.TxHash] = &interfaces.TxReceiptSummary{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
		Status:      interfaces.TxStatusSuccess,
	}

	return receipt, nil
}

// GetDeletionRecord returns a copy of the stored record, or (nil, nil)
// for a key the mock has never seen.
func (m *MockLedgerClient) GetDeletionRecord(_ context.Context, keyID interfaces.KeyID) (*interfaces.DeletionRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.offline {
		return nil, interfaces.ErrLedgerUnavailable
	}

	record, exists := m.records[keyID]
	if !exists {
		return nil, nil
	}

	// Return a copy to prevent modification of internal state
	copied := *record
	return &copied, nil
}

// IsKeyDeleted reports whether the mock holds a record for the key.
func (m *MockLedgerClient) IsKeyDeleted(_ context.Context, keyID interfaces.KeyID) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.offline {
		return false
	}

	_, exists := m.records[keyID]
	return exists
}

// VerifyDeletionProof checks a proof hash against the stored record.
func (m *MockLedgerClient) VerifyDeletionProof(_ context.Context, keyID interfaces.KeyID, _ interfaces.ErasureMethod, proofHash interfaces.ProofHash) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.offline {
		return false
	}

	record, exists := m.records[keyID]
	if !exists {
		return false
	}
	return record.ProofHash.Equal(proofHash)
}

// TransactionReceipt returns the receipt of a simulated transaction, or
// nil for an unknown hash.
func (m *MockLedgerClient) TransactionReceipt(_ context.Context, txHash string) (*interfaces.TxReceiptSummary, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.offline {
		return nil, interfaces.ErrLedgerUnavailable
	}

	receipt, exists := m.receipts[txHash]
	if !exists {
		return nil, nil
	}

	copied := *receipt
	return &copied, nil
}

// OperatorBalance returns the simulated operator balance in wei.
func (m *MockLedgerClient) OperatorBalance(_ context.Context) (*big.Int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.offline {
		return nil, interfaces.ErrLedgerUnavailable
	}
	return new(big.Int).Set(m.balance), nil
}

// Connected reports whether the mock simulates a reachable endpoint.
func (m *MockLedgerClient) Connected(_ context.Context) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return !m.offline
}

// ContractAddress returns the mock contract address.
func (m *MockLedgerClient) ContractAddress() interfaces.ContractAddress {
	return m.contractAddr
}

var _ interfaces.DeletionLedger = (*MockLedgerClient)(nil)
