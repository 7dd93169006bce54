package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/api"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/common"
)

// SetupLogger builds the root logger from the shared logging flags.
func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ConfigureServer assembles the HTTP server configuration from the shared
// server flags and the given listen address.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	metricsAddr := cCtx.String("metrics-addr")
	enablePprof := cCtx.Bool("pprof")
	drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	EnvVars: []string{"LISTEN_ADDR"},
	Usage:   "address to listen on for API",
}

var ServerAddrFlag = &cli.StringFlag{
	Name:    "server-addr",
	Value:   "http://127.0.0.1:8080",
	EnvVars: []string{"SERVER_ADDR"},
	Usage:   "deletion protocol server address to request",
}

var RpcAddrFlag = &cli.StringFlag{
	Name:    "rpc-addr",
	Value:   "",
	EnvVars: []string{"RPC_ADDR"},
	Usage:   "Ethereum RPC endpoint; empty runs without ledger anchoring",
}

var ChainIDFlag = &cli.Int64Flag{
	Name:    "chain-id",
	Value:   11155111,
	EnvVars: []string{"CHAIN_ID"},
	Usage:   "chain id for transaction signing (default: Sepolia)",
}

var ContractAddrFlag = &cli.StringFlag{
	Name:    "contract-addr",
	EnvVars: []string{"CONTRACT_ADDRESS"},
	Usage:   "DeletionProof contract address, 40-char hex with optional 0x prefix",
}

var OperatorKeyFlag = &cli.StringFlag{
	Name:    "operator-key",
	EnvVars: []string{"WALLET_PRIVATE_KEY"},
	Usage:   "hex-encoded private key of the operator account",
}

var GasLimitFlag = &cli.Uint64Flag{
	Name:    "gas-limit",
	Value:   0,
	EnvVars: []string{"GAS_LIMIT"},
	Usage:   "gas limit per recording transaction, 0 keeps the default",
}

var MaxFeeGweiFlag = &cli.Int64Flag{
	Name:    "max-fee-gwei",
	Value:   0,
	EnvVars: []string{"MAX_FEE_GWEI"},
	Usage:   "EIP-1559 max fee per gas in gwei, 0 keeps the default",
}

var MaxPriorityFeeGweiFlag = &cli.Int64Flag{
	Name:    "max-priority-fee-gwei",
	Value:   0,
	EnvVars: []string{"MAX_PRIORITY_FEE_GWEI"},
	Usage:   "EIP-1559 priority fee per gas in gwei, 0 keeps the default",
}

var ConfirmTimeoutFlag = &cli.DurationFlag{
	Name:    "confirm-timeout",
	Value:   0,
	EnvVars: []string{"CONFIRM_TIMEOUT"},
	Usage:   "how long to poll for a recording transaction receipt, 0 keeps the default",
}

var NoConfirmWaitFlag = &cli.BoolFlag{
	Name:    "no-confirm-wait",
	Value:   false,
	EnvVars: []string{"NO_CONFIRM_WAIT"},
	Usage:   "return destruction responses on transaction submission instead of confirmation",
}

var CertStorageFlag = &cli.StringSliceFlag{
	Name:    "cert-storage",
	EnvVars: []string{"CERT_STORAGE"},
	Usage:   "certificate storage backend URI (file://, s3://, ipfs://, github://, vault://), repeatable",
}

var AuditLogPathFlag = &cli.StringFlag{
	Name:    "audit-log-path",
	EnvVars: []string{"AUDIT_LOG_PATH"},
	Usage:   "append-only JSONL file for the audit trail; empty keeps the trail in memory only",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:    "log-json",
	Value:   false,
	EnvVars: []string{"LOG_JSON"},
	Usage:   "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:    "log-debug",
	Value:   false,
	EnvVars: []string{"LOG_DEBUG"},
	Usage:   "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:    "log-uid",
	Value:   false,
	EnvVars: []string{"LOG_UID"},
	Usage:   "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:    "log-service",
	Value:   common.PackageName,
	EnvVars: []string{"LOG_SERVICE"},
	Usage:   "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:    "pprof",
	Value:   false,
	EnvVars: []string{"PPROF"},
	Usage:   "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:    "drain-seconds",
	Value:   45,
	EnvVars: []string{"DRAIN_SECONDS"},
	Usage:   "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:    "metrics-addr",
	Value:   "127.0.0.1:8090",
	EnvVars: []string{"METRICS_ADDR"},
	Usage:   "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
