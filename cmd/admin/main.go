package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/urfave/cli/v2"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/cmd/flags"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/kms"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/ledger"
)

var flagKeyID *cli.StringFlag = &cli.StringFlag{
	Name:     "key",
	Required: true,
	Usage:    "key identifier (key_ followed by 32 hex characters)",
}

var flagMethod *cli.StringFlag = &cli.StringFlag{
	Name:     "method",
	Required: true,
	Usage:    "erasure method the proof was computed for",
}

var flagProofHash *cli.StringFlag = &cli.StringFlag{
	Name:     "proof-hash",
	Required: true,
	Usage:    "hex-encoded destruction proof hash to check",
}

var flagKeyFile *cli.StringFlag = &cli.StringFlag{
	Name:  "key-file",
	Value: "operator-key.hex",
	Usage: "path to the hex-encoded operator key file",
}

var flagSharePrefix *cli.StringFlag = &cli.StringFlag{
	Name:  "share-prefix",
	Value: "operator-share-",
	Usage: "filename prefix for the generated share files",
}

var flagShareFiles *cli.StringSliceFlag = &cli.StringSliceFlag{
	Name:     "share",
	Required: true,
	Usage:    "path to a share file, repeatable",
}

var flagShareParts *cli.IntFlag = &cli.IntFlag{
	Name:  "parts",
	Value: 3,
	Usage: "number of shares to generate",
}

var flagShareThreshold *cli.IntFlag = &cli.IntFlag{
	Name:  "threshold",
	Value: 2,
	Usage: "number of shares required to recover the key",
}

var ledgerFlags = []cli.Flag{
	flags.RpcAddrFlag,
	flags.ContractAddrFlag,
}

func main() {
	app := &cli.App{
		Name:           "admin client",
		Usage:          "Operator tooling for the deletion ledger and the operator key",
		DefaultCommand: "balance",
		Commands: []*cli.Command{
			&cli.Command{
				Name:        "balance",
				Usage:       "",
				Description: "report the operator account balance on the configured chain",
				Flags: append([]cli.Flag{
					flags.OperatorKeyFlag,
					flags.ChainIDFlag,
				}, ledgerFlags...),
				Action: func(cCtx *cli.Context) error {
					keyHex := cCtx.String(flags.OperatorKeyFlag.Name)
					if keyHex == "" {
						return errors.New("operator-key is required")
					}
					operatorKey, err := ethcrypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
					if err != nil {
						return fmt.Errorf("failed to parse operator key: %w", err)
					}

					client, err := newLedgerClient(cCtx)
					if err != nil {
						return err
					}
					auth, err := bind.NewKeyedTransactorWithChainID(operatorKey, big.NewInt(cCtx.Int64(flags.ChainIDFlag.Name)))
					if err != nil {
						return err
					}
					client.SetTransactOpts(auth)

					ctx, cancel := callContext()
					defer cancel()
					balance, err := client.OperatorBalance(ctx)
					if err != nil {
						return err
					}

					eth := new(big.Float).Quo(new(big.Float).SetInt(balance), big.NewFloat(params.Ether))
					return printJSON(struct {
						Operator   string `json:"operator"`
						BalanceWei string `json:"balance_wei"`
						BalanceEth string `json:"balance_eth"`
					}{
						Operator:   ethcrypto.PubkeyToAddress(operatorKey.PublicKey).Hex(),
						BalanceWei: balance.String(),
						BalanceEth: eth.Text('f', 6),
					})
				},
			},
			&cli.Command{
				Name:        "verify",
				Usage:       "",
				Description: "check a destruction proof hash directly against the contract",
				Flags: append([]cli.Flag{
					flagKeyID,
					flagMethod,
					flagProofHash,
				}, ledgerFlags...),
				Action: func(cCtx *cli.Context) error {
					method, err := interfaces.ParseErasureMethod(cCtx.String(flagMethod.Name))
					if err != nil {
						return err
					}
					proofHash, err := interfaces.ParseProofHash(cCtx.String(flagProofHash.Name))
					if err != nil {
						return err
					}

					client, err := newLedgerClient(cCtx)
					if err != nil {
						return err
					}

					ctx, cancel := callContext()
					defer cancel()
					keyID := interfaces.KeyID(cCtx.String(flagKeyID.Name))
					verified := client.VerifyDeletionProof(ctx, keyID, method, proofHash)
					return printJSON(struct {
						KeyID    interfaces.KeyID `json:"key_id"`
						Method   string           `json:"method"`
						Verified bool             `json:"verified"`
					}{keyID, method.String(), verified})
				},
			},
			&cli.Command{
				Name:        "is-deleted",
				Usage:       "",
				Description: "check whether the contract holds a deletion record for a key",
				Flags:       append([]cli.Flag{flagKeyID}, ledgerFlags...),
				Action: func(cCtx *cli.Context) error {
					client, err := newLedgerClient(cCtx)
					if err != nil {
						return err
					}

					ctx, cancel := callContext()
					defer cancel()
					keyID := interfaces.KeyID(cCtx.String(flagKeyID.Name))
					deleted := client.IsKeyDeleted(ctx, keyID)
					return printJSON(struct {
						KeyID   interfaces.KeyID `json:"key_id"`
						Deleted bool             `json:"deleted"`
					}{keyID, deleted})
				},
			},
			&cli.Command{
				Name:        "record-get",
				Usage:       "",
				Description: "fetch the full on-chain deletion record for a key",
				Flags:       append([]cli.Flag{flagKeyID}, ledgerFlags...),
				Action: func(cCtx *cli.Context) error {
					client, err := newLedgerClient(cCtx)
					if err != nil {
						return err
					}

					ctx, cancel := callContext()
					defer cancel()
					record, err := client.GetDeletionRecord(ctx, interfaces.KeyID(cCtx.String(flagKeyID.Name)))
					if err != nil {
						return err
					}
					return printJSON(record)
				},
			},
			&cli.Command{
				Name:  "escrow",
				Usage: "split the operator key into Shamir shares and recover it",
				Subcommands: []*cli.Command{
					&cli.Command{
						Name:        "split",
						Usage:       "",
						Description: "",
						Flags: []cli.Flag{
							flagKeyFile,
							flagSharePrefix,
							flagShareParts,
							flagShareThreshold,
						},
						Action: func(cCtx *cli.Context) error {
							raw, err := readOperatorKeyFile(cCtx.String(flagKeyFile.Name))
							if err != nil {
								return err
							}

							shares, err := kms.SplitOperatorKey(raw, cCtx.Int(flagShareParts.Name), cCtx.Int(flagShareThreshold.Name))
							if err != nil {
								return err
							}

							prefix := cCtx.String(flagSharePrefix.Name)
							files := make([]string, 0, len(shares))
							for i, share := range shares {
								path := fmt.Sprintf("%s%d.hex", prefix, i+1)
								if err := os.WriteFile(path, []byte(hex.EncodeToString(share)), 0600); err != nil {
									return err
								}
								files = append(files, path)
							}

							return printJSON(struct {
								Parts     int      `json:"parts"`
								Threshold int      `json:"threshold"`
								Files     []string `json:"files"`
							}{len(shares), cCtx.Int(flagShareThreshold.Name), files})
						},
					},
					&cli.Command{
						Name:        "recover",
						Usage:       "",
						Description: "",
						Flags: []cli.Flag{
							flagKeyFile,
							flagShareFiles,
						},
						Action: func(cCtx *cli.Context) error {
							paths := cCtx.StringSlice(flagShareFiles.Name)
							shares := make([][]byte, 0, len(paths))
							for _, path := range paths {
								encoded, err := os.ReadFile(path)
								if err != nil {
									return err
								}
								share, err := hex.DecodeString(strings.TrimSpace(string(encoded)))
								if err != nil {
									return fmt.Errorf("share file %s is not hex: %w", path, err)
								}
								shares = append(shares, share)
							}

							raw, err := kms.RecoverOperatorKey(shares)
							if err != nil {
								return err
							}
							operatorKey, err := ethcrypto.ToECDSA(raw)
							if err != nil {
								return fmt.Errorf("recovered bytes are not a valid private key: %w", err)
							}

							path := cCtx.String(flagKeyFile.Name)
							if err := os.WriteFile(path, []byte(hex.EncodeToString(raw)), 0600); err != nil {
								return err
							}

							// The key itself stays in the file; only the
							// derived account address is printed.
							return printJSON(struct {
								Operator string `json:"operator"`
								KeyFile  string `json:"key_file"`
							}{ethcrypto.PubkeyToAddress(operatorKey.PublicKey).Hex(), path})
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLedgerClient(cCtx *cli.Context) (*ledger.DeletionLedgerClient, error) {
	rpcAddress := cCtx.String(flags.RpcAddrFlag.Name)
	if rpcAddress == "" {
		return nil, errors.New("rpc-addr is required")
	}
	contractHex := cCtx.String(flags.ContractAddrFlag.Name)
	if contractHex == "" {
		return nil, errors.New("contract-addr is required")
	}
	contractAddr, err := interfaces.NewContractAddressFromHex(contractHex)
	if err != nil {
		return nil, fmt.Errorf("invalid contract-addr: %w", err)
	}

	ethClient, err := ethclient.Dial(rpcAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC: %w", err)
	}

	return ledger.NewDeletionLedgerClient(ethClient, ethClient, ethcommon.BytesToAddress(contractAddr[:]), nil)
}

func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func readOperatorKeyFile(path string) ([]byte, error) {
	encoded, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cleaned := strings.TrimPrefix(strings.TrimSpace(string(encoded)), "0x")
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("key file %s is not hex: %w", path, err)
	}
	if _, err := ethcrypto.ToECDSA(raw); err != nil {
		return nil, fmt.Errorf("key file %s does not hold a valid private key: %w", path, err)
	}
	return raw, nil
}

func printJSON(v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
