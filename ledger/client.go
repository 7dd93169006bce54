package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/bindings/deletionproof"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// Transaction defaults, tuned for the Sepolia testnet where the deletion
// contract is deployed.
const (
	// DefaultGasLimit bounds one recordDeletion call. Batch submissions
	// scale it by the entry count.
	DefaultGasLimit = 300_000

	// DefaultConfirmTimeout bounds how long a confirmation wait polls for a
	// receipt before giving up.
	DefaultConfirmTimeout = 120 * time.Second

	// DefaultPollInterval is the receipt polling cadence during a
	// confirmation wait.
	DefaultPollInterval = 2 * time.Second

	// DefaultSubmitAttempts is how many times a submission is retried
	// before the error is surfaced.
	DefaultSubmitAttempts = 3

	// DefaultSubmitDelay is the pause between submission attempts.
	DefaultSubmitDelay = 2 * time.Second

	explorerTxURL = "https://sepolia.etherscan.io/tx/%s"
)

// Default EIP-1559 fee caps in wei.
var (
	DefaultMaxFeePerGas         = new(big.Int).Mul(big.NewInt(20), big.NewInt(params.GWei))
	DefaultMaxPriorityFeePerGas = new(big.Int).Mul(big.NewInt(1), big.NewInt(params.GWei))
)

// ChainBackend bundles the node capabilities the client needs beyond
// contract binding: receipt lookups for confirmation waits, balance reads
// and chain id queries for connectivity probes. *ethclient.Client
// satisfies it.
type ChainBackend interface {
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// DeletionLedgerClient implements the interfaces.DeletionLedger interface
// against a DeletionProof contract deployed on an Ethereum network.
//
// Submissions are serialized through an internal mutex so concurrent
// callers cannot race the operator account's nonce.
type DeletionLedgerClient struct {
	contract *deletionproof.DeletionProof
	client   bind.ContractBackend
	backend  ChainBackend
	address  common.Address
	log      *slog.Logger

	txMutex sync.Mutex
	auth    *bind.TransactOpts

	gasLimit       uint64
	maxFeePerGas   *big.Int
	maxPriorityFee *big.Int
	confirmTimeout time.Duration
	pollInterval   time.Duration
	submitAttempts uint
	submitDelay    time.Duration
}

// NewDeletionLedgerClient creates a client for the DeletionProof contract
// at the specified address. It requires a ContractBackend for contract
// calls and a ChainBackend for receipt, balance and connectivity reads.
func NewDeletionLedgerClient(client bind.ContractBackend, backend ChainBackend, address common.Address, log *slog.Logger) (*DeletionLedgerClient, error) {
	contract, err := deletionproof.NewDeletionProof(address, client)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	return &DeletionLedgerClient{
		contract:       contract,
		client:         client,
		backend:        backend,
		address:        address,
		log:            log,
		gasLimit:       DefaultGasLimit,
		maxFeePerGas:   DefaultMaxFeePerGas,
		maxPriorityFee: DefaultMaxPriorityFeePerGas,
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   DefaultPollInterval,
		submitAttempts: DefaultSubmitAttempts,
		submitDelay:    DefaultSubmitDelay,
	}, nil
}

// SetTransactOpts sets the transaction options required for recording
// deletions. This must be called before any method that writes to the
// contract.
func (c *DeletionLedgerClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// SetGasLimit overrides the per-call gas limit. Zero keeps the current
// value. Like SetTransactOpts this is a setup-time call, not safe
// against in-flight submissions.
func (c *DeletionLedgerClient) SetGasLimit(gasLimit uint64) {
	if gasLimit == 0 {
		return
	}
	c.gasLimit = gasLimit
}

// SetFeeCaps overrides the EIP-1559 fee caps in wei. A nil cap keeps the
// current value.
func (c *DeletionLedgerClient) SetFeeCaps(maxFeePerGas, maxPriorityFeePerGas *big.Int) {
	if maxFeePerGas != nil {
		c.maxFeePerGas = new(big.Int).Set(maxFeePerGas)
	}
	if maxPriorityFeePerGas != nil {
		c.maxPriorityFee = new(big.Int).Set(maxPriorityFeePerGas)
	}
}

// SetConfirmTimeout overrides how long a confirmation wait polls for a
// receipt. Zero and negative values keep the current timeout.
func (c *DeletionLedgerClient) SetConfirmTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	c.confirmTimeout = timeout
}

// RecordDeletion submits one destruction proof to the contract. With wait
// set it blocks until the transaction confirms or the confirmation
// timeout lapses; otherwise it returns a pending summary immediately
// after submission.
func (c *DeletionLedgerClient) RecordDeletion(ctx context.Context, keyID interfaces.KeyID, method interfaces.ErasureMethod, proofHash interfaces.ProofHash, wait bool) (*interfaces.TxReceiptSummary, error) {
	if c.auth == nil {
		return nil, interfaces.ErrNoTransactOpts
	}

	c.log.Info("recording deletion on ledger", slog.String("key_id", keyID.String()))

	tx, err := c.submit(ctx, c.gasLimit, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.RecordDeletion(opts, keyID.String(), method.String(), proofHash)
	})
	if err != nil {
		return nil, fmt.Errorf("record deletion: %w", err)
	}

	txHash := tx.Hash().Hex()
	c.log.Info("deletion recording submitted",
		slog.String("key_id", keyID.String()),
		slog.String("tx_hash", txHash),
		slog.String("explorer", fmt.Sprintf(explorerTxURL, txHash)))

	if !wait {
		return &interfaces.TxReceiptSummary{TxHash: txHash, Status: interfaces.TxStatusPending}, nil
	}
	return c.waitMined(ctx, tx)
}

// BatchRecordDeletion submits several proofs in one transaction, with the
// gas limit scaled by the entry count. The batch confirms or fails as a
// unit.
func (c *DeletionLedgerClient) BatchRecordDeletion(ctx context.Context, deletions []interfaces.BatchDeletion, wait bool) (*interfaces.TxReceiptSummary, error) {
	if c.auth == nil {
		return nil, interfaces.ErrNoTransactOpts
	}
	if len(deletions) == 0 {
		return nil, errors.New("empty batch")
	}

	keyIDs := make([]string, len(deletions))
	methods := make([]string, len(deletions))
	proofHashes := make([][32]byte, len(deletions))
	for i, deletion := range deletions {
		keyIDs[i] = deletion.KeyID.String()
		methods[i] = deletion.Method.String()
		proofHashes[i] = deletion.ProofHash
	}

	c.log.Info("recording deletion batch on ledger", slog.Int("count", len(deletions)))

	tx, err := c.submit(ctx, c.gasLimit*uint64(len(deletions)), func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.BatchRecordDeletion(opts, keyIDs, methods, proofHashes)
	})
	if err != nil {
		return nil, fmt.Errorf("batch record deletion: %w", err)
	}

	txHash := tx.Hash().Hex()
	c.log.Info("deletion batch submitted",
		slog.Int("count", len(deletions)),
		slog.String("tx_hash", txHash),
		slog.String("explorer", fmt.Sprintf(explorerTxURL, txHash)))

	if !wait {
		return &interfaces.TxReceiptSummary{TxHash: txHash, Status: interfaces.TxStatusPending}, nil
	}
	return c.waitMined(ctx, tx)
}

// submit sends one contract transaction under the nonce mutex, retrying
// transient submission failures with a fixed delay.
func (c *DeletionLedgerClient) submit(ctx context.Context, gasLimit uint64, send func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Transaction, error) {
	c.txMutex.Lock()
	defer c.txMutex.Unlock()

	// Fee caps are pinned instead of estimated so a congested node cannot
	// talk the operator into an unbounded fee.
	opts := *c.auth
	opts.Context = ctx
	opts.GasLimit = gasLimit
	opts.GasFeeCap = c.maxFeePerGas
	opts.GasTipCap = c.maxPriorityFee

	var tx *types.Transaction
	err := retry.Do(
		func() error {
			var err error
			tx, err = send(&opts)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.submitAttempts),
		retry.Delay(c.submitDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	return tx, err
}

// waitMined polls for the transaction receipt until it lands or the
// confirmation timeout lapses. A mined transaction that reverted returns
// both its summary and ErrTransactionFailed.
func (c *DeletionLedgerClient) waitMined(ctx context.Context, tx *types.Transaction) (*interfaces.TxReceiptSummary, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(waitCtx, tx.Hash())
		if err == nil && receipt != nil {
			summary := receiptSummary(receipt)
			if summary.Status != interfaces.TxStatusSuccess {
				return summary, fmt.Errorf("%w: transaction %s reverted", interfaces.ErrTransactionFailed, summary.TxHash)
			}
			c.log.Info("transaction confirmed",
				slog.String("tx_hash", summary.TxHash),
				slog.Uint64("block_number", summary.BlockNumber),
				slog.Uint64("gas_used", summary.GasUsed))
			return summary, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.log.Debug("receipt poll failed", slog.String("tx_hash", tx.Hash().Hex()), "err", err)
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("%w: confirmation timed out after %s", interfaces.ErrTransactionFailed, c.confirmTimeout)
		case <-ticker.C:
		}
	}
}

// GetDeletionRecord reads the recorded deletion for a key. The contract
// reverts with a "does not exist" reason for unknown keys, which is
// mapped to (nil, nil).
func (c *DeletionLedgerClient) GetDeletionRecord(ctx context.Context, keyID interfaces.KeyID) (*interfaces.DeletionRecord, error) {
	out, err := c.contract.GetDeletionRecord(&bind.CallOpts{Context: ctx}, keyID.String())
	if err != nil {
		if isMissingRecordError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deletion record: %w", err)
	}

	operator, err := interfaces.NewContractAddressFromBytes(out.Operator.Bytes())
	if err != nil {
		return nil, fmt.Errorf("get deletion record: %w", err)
	}

	timestamp := out.Timestamp.Uint64()
	return &interfaces.DeletionRecord{
		KeyID:             interfaces.KeyID(out.KeyId),
		Method:            out.DestructionMethod,
		Timestamp:         timestamp,
		TimestampReadable: time.Unix(int64(timestamp), 0).UTC().Format(time.RFC3339),
		Operator:          operator,
		ProofHash:         interfaces.ProofHash(out.ProofHash),
		Exists:            true,
	}, nil
}

// IsKeyDeleted reports whether the ledger holds a record for the key.
// Transport errors degrade to false so a flaky endpoint cannot produce a
// false positive.
func (c *DeletionLedgerClient) IsKeyDeleted(ctx context.Context, keyID interfaces.KeyID) bool {
	deleted, err := c.contract.IsKeyDeleted(&bind.CallOpts{Context: ctx}, keyID.String())
	if err != nil {
		c.log.Warn("deletion status check failed", slog.String("key_id", keyID.String()), "err", err)
		return false
	}
	return deleted
}

// VerifyDeletionProof checks a proof hash against the recorded one. The
// contract keys proofs by id alone; the method argument is accepted for
// interface symmetry but never crosses the wire. Transport errors degrade
// to false.
func (c *DeletionLedgerClient) VerifyDeletionProof(ctx context.Context, keyID interfaces.KeyID, _ interfaces.ErasureMethod, proofHash interfaces.ProofHash) bool {
	valid, err := c.contract.VerifyDeletionProof(&bind.CallOpts{Context: ctx}, keyID.String(), proofHash)
	if err != nil {
		c.log.Warn("proof verification failed", slog.String("key_id", keyID.String()), "err", err)
		return false
	}
	return valid
}

// TransactionReceipt summarizes a transaction, or returns nil when the
// transaction is unknown or still pending.
func (c *DeletionLedgerClient) TransactionReceipt(ctx context.Context, txHash string) (*interfaces.TxReceiptSummary, error) {
	if !strings.HasPrefix(txHash, "0x") {
		txHash = "0x" + txHash
	}

	receipt, err := c.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("transaction receipt: %w", err)
	}
	return receiptSummary(receipt), nil
}

// OperatorBalance returns the operator account balance in wei.
func (c *DeletionLedgerClient) OperatorBalance(ctx context.Context) (*big.Int, error) {
	if c.auth == nil {
		return nil, interfaces.ErrNoTransactOpts
	}

	balance, err := c.backend.BalanceAt(ctx, c.auth.From, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrLedgerUnavailable, err)
	}
	return balance, nil
}

// Connected probes the node with a chain id query.
func (c *DeletionLedgerClient) Connected(ctx context.Context) bool {
	_, err := c.backend.ChainID(ctx)
	return err == nil
}

// ContractAddress returns the deletion contract's address.
func (c *DeletionLedgerClient) ContractAddress() interfaces.ContractAddress {
	return interfaces.ContractAddress(c.address)
}

func receiptSummary(receipt *types.Receipt) *interfaces.TxReceiptSummary {
	status := interfaces.TxStatusFailed
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = interfaces.TxStatusSuccess
	}
	return &interfaces.TxReceiptSummary{
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Status:      status,
	}
}

// isMissingRecordError matches the contract's revert reason for a key it
// has never seen.
func isMissingRecordError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "does not exist")
}

var _ interfaces.DeletionLedger = (*DeletionLedgerClient)(nil)
