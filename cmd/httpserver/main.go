package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/urfave/cli/v2"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/audit"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/certs"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/cmd/flags"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/httpserver"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/kms"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/ledger"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/storage"
)

// lowBalanceWei is the operator balance below which anchoring is at risk
// of running dry (0.01 ETH).
var lowBalanceWei = new(big.Int).Div(big.NewInt(params.Ether), big.NewInt(100))

var serverFlags = []cli.Flag{
	flags.ListenAddrFlag,
	flags.RpcAddrFlag,
	flags.ChainIDFlag,
	flags.ContractAddrFlag,
	flags.OperatorKeyFlag,
	flags.GasLimitFlag,
	flags.MaxFeeGweiFlag,
	flags.MaxPriorityFeeGweiFlag,
	flags.ConfirmTimeoutFlag,
	flags.NoConfirmWaitFlag,
	flags.CertStorageFlag,
	flags.AuditLogPathFlag,
}

func main() {
	app := &cli.App{
		Name:   "deletion-protocol-server",
		Usage:  "Serve the verifiable key deletion API",
		Flags:  append(serverFlags, flags.CommonFlags...),
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	// Audit trail, optionally mirrored to an append-only file.
	auditLog := audit.New(logger)
	if path := cCtx.String(flags.AuditLogPathFlag.Name); path != "" {
		sink, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			logger.Error("Failed to open audit log file", "path", path, "err", err)
			return err
		}
		defer sink.Close()
		auditLog = audit.NewWithSink(logger, sink)
		logger.Info("Audit trail mirrored to file", "path", path)
	}

	certBackend, err := configureCertStorage(cCtx, logger)
	if err != nil {
		return err
	}
	certStore := certs.NewStore(certBackend, logger)

	// The operator key signs certificates and, with a ledger configured,
	// the recording transactions.
	var operatorKey *ecdsa.PrivateKey
	if keyHex := cCtx.String(flags.OperatorKeyFlag.Name); keyHex != "" {
		operatorKey, err = ethcrypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
		if err != nil {
			logger.Error("Failed to parse operator key", "err", err)
			return err
		}
	} else {
		logger.Warn("No operator key configured, certificates will be issued unsigned")
	}

	ledgerClient, err := configureLedger(cCtx, logger, operatorKey)
	if err != nil {
		return err
	}
	var deletionLedger interfaces.DeletionLedger
	if ledgerClient != nil {
		deletionLedger = ledgerClient
	}

	keys := kms.NewKeyStore(kms.Config{
		Ledger:              deletionLedger,
		Audit:               auditLog,
		WaitForConfirmation: !cCtx.Bool(flags.NoConfirmWaitFlag.Name),
		Log:                 logger,
	})

	issuer := certs.NewIssuer(certs.Config{
		Store:      certStore,
		Ledger:     deletionLedger,
		SigningKey: operatorKey,
		ChainID:    uint64(cCtx.Int64(flags.ChainIDFlag.Name)),
		Log:        logger,
	})

	handler := httpserver.NewHandler(keys, deletionLedger, issuer, certStore, auditLog, logger)

	cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flags.ListenAddrFlag.Name))
	server, err := httpserver.New(cfg, handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	logger.Info("Starting server", "listenAddr", cfg.ListenAddr)
	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")
	return nil
}

// configureCertStorage builds the certificate storage backend from the
// cert-storage URIs, falling back to a local file backend.
func configureCertStorage(cCtx *cli.Context, logger *slog.Logger) (interfaces.StorageBackend, error) {
	uris := cCtx.StringSlice(flags.CertStorageFlag.Name)
	if len(uris) == 0 {
		uris = []string{"file://./certificates"}
	}

	locations := make([]interfaces.StorageBackendLocation, 0, len(uris))
	for _, uri := range uris {
		location, err := interfaces.NewStorageBackendLocation(uri)
		if err != nil {
			logger.Error("Invalid cert-storage URI", "uri", uri, "err", err)
			return nil, err
		}
		locations = append(locations, location)
	}

	factory := storage.NewStorageBackendFactory(logger)
	if len(locations) == 1 {
		return factory.StorageBackendFor(locations[0])
	}
	return factory.CreateMultiBackend(locations)
}

// configureLedger dials the RPC endpoint and prepares the on-chain client.
// An empty rpc-addr disables anchoring and returns nil.
func configureLedger(cCtx *cli.Context, logger *slog.Logger, operatorKey *ecdsa.PrivateKey) (*ledger.DeletionLedgerClient, error) {
	rpcAddress := cCtx.String(flags.RpcAddrFlag.Name)
	if rpcAddress == "" {
		logger.Warn("No RPC endpoint configured, destructions will not be anchored on the ledger")
		return nil, nil
	}

	contractHex := cCtx.String(flags.ContractAddrFlag.Name)
	if contractHex == "" {
		return nil, errors.New("contract-addr is required when rpc-addr is set")
	}
	contractAddr, err := interfaces.NewContractAddressFromHex(contractHex)
	if err != nil {
		return nil, fmt.Errorf("invalid contract-addr: %w", err)
	}
	if operatorKey == nil {
		return nil, errors.New("operator-key is required when rpc-addr is set")
	}

	logger.Info("Connecting to Ethereum RPC", "address", rpcAddress)
	ethClient, err := ethclient.Dial(rpcAddress)
	if err != nil {
		logger.Error("Failed to dial RPC", "err", err)
		return nil, err
	}

	client, err := ledger.NewDeletionLedgerClient(ethClient, ethClient, ethcommon.BytesToAddress(contractAddr[:]), logger)
	if err != nil {
		logger.Error("Failed to create ledger client", "err", err)
		return nil, err
	}

	chainID := cCtx.Int64(flags.ChainIDFlag.Name)
	auth, err := bind.NewKeyedTransactorWithChainID(operatorKey, big.NewInt(chainID))
	if err != nil {
		logger.Error("Failed to build transactor", "chainID", chainID, "err", err)
		return nil, err
	}
	client.SetTransactOpts(auth)
	client.SetGasLimit(cCtx.Uint64(flags.GasLimitFlag.Name))
	client.SetFeeCaps(gweiToWei(cCtx.Int64(flags.MaxFeeGweiFlag.Name)), gweiToWei(cCtx.Int64(flags.MaxPriorityFeeGweiFlag.Name)))
	client.SetConfirmTimeout(cCtx.Duration(flags.ConfirmTimeoutFlag.Name))

	// A drained operator account fails every anchoring.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	balance, err := client.OperatorBalance(ctx)
	operator := ethcrypto.PubkeyToAddress(operatorKey.PublicKey).Hex()
	switch {
	case err != nil:
		logger.Warn("Could not read operator balance", "operator", operator, "err", err)
	case balance.Cmp(lowBalanceWei) < 0:
		logger.Warn("Operator balance is low, anchoring transactions may start failing",
			"operator", operator, "balanceWei", balance.String())
	default:
		logger.Info("Ledger anchoring enabled",
			"operator", operator,
			"contract", contractAddr.Hex(),
			"balanceWei", balance.String())
	}

	return client, nil
}

func gweiToWei(gwei int64) *big.Int {
	if gwei <= 0 {
		return nil
	}
	return new(big.Int).Mul(big.NewInt(gwei), big.NewInt(params.GWei))
}
