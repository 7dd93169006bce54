package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/api"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/api/clients"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/certs"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/cmd/flags"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

var flagKeyID *cli.StringFlag = &cli.StringFlag{
	Name:     "key",
	Required: true,
	Usage:    "key identifier (key_ followed by 32 hex characters)",
}

var flagKeys *cli.StringSliceFlag = &cli.StringSliceFlag{
	Name:     "key",
	Required: true,
	Usage:    "key identifier, repeatable",
}

var flagRequester *cli.StringFlag = &cli.StringFlag{
	Name:     "requester",
	Required: true,
	Usage:    "principal making the request, checked against the key's owner",
}

var flagOwner *cli.StringFlag = &cli.StringFlag{
	Name:  "owner",
	Usage: "key owner",
}

var flagState *cli.StringFlag = &cli.StringFlag{
	Name:  "state",
	Usage: "filter by lifecycle state: active, pending_destruction, destroyed, expired",
}

var flagAlgorithm *cli.StringFlag = &cli.StringFlag{
	Name:  "algorithm",
	Usage: "algorithm label for the key, default AES-256-GCM",
}

var flagKeySize *cli.IntFlag = &cli.IntFlag{
	Name:  "key-size",
	Usage: "key size in bytes (16, 24 or 32), default 32",
}

var flagPurpose *cli.StringFlag = &cli.StringFlag{
	Name:  "purpose",
	Usage: "free-form purpose recorded in the key metadata",
}

var flagExpiresIn *cli.Int64Flag = &cli.Int64Flag{
	Name:  "expires-in",
	Usage: "key lifetime in seconds, 0 for no expiry",
}

var flagMethod *cli.StringFlag = &cli.StringFlag{
	Name:  "method",
	Value: "multi_pass_overwrite",
	Usage: "erasure method: null_erase, single_overwrite, multi_pass_overwrite, deterministic_zero",
}

var flagProofHash *cli.StringFlag = &cli.StringFlag{
	Name:     "proof-hash",
	Required: true,
	Usage:    "hex-encoded destruction proof hash to check",
}

var flagUserID *cli.StringFlag = &cli.StringFlag{
	Name:     "user",
	Required: true,
	Usage:    "certificate subject; only its hash appears in the document",
}

var flagCertID *cli.StringFlag = &cli.StringFlag{
	Name:     "id",
	Required: true,
	Usage:    "certificate identifier (CERT-YYYYMMDD-XXXXXXXX)",
}

var flagVerifyCertID *cli.StringFlag = &cli.StringFlag{
	Name:  "id",
	Usage: "certificate identifier to fetch from the server and verify",
}

var flagCertFile *cli.StringFlag = &cli.StringFlag{
	Name:  "file",
	Usage: "read the certificate document from this file instead of the server",
}

var flagData *cli.StringSliceFlag = &cli.StringSliceFlag{
	Name:  "data",
	Usage: "additional key=value pair embedded in the certificate, repeatable",
}

var flagOutput *cli.StringFlag = &cli.StringFlag{
	Name:  "output",
	Usage: "write the certificate document to this file instead of stdout",
}

var flagOperation *cli.StringFlag = &cli.StringFlag{
	Name:  "operation",
	Usage: "filter audit entries by operation name",
}

var flagAuditKey *cli.StringFlag = &cli.StringFlag{
	Name:  "key",
	Usage: "filter audit entries by key identifier",
}

func main() {
	app := &cli.App{
		Name:           "kms client",
		Usage:          "Manage keys and destruction evidence over the deletion protocol API",
		DefaultCommand: "list",
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
		},
		Commands: []*cli.Command{
			&cli.Command{
				Name:        "generate",
				Usage:       "",
				Description: "",
				Flags: []cli.Flag{
					flagAlgorithm,
					flagKeySize,
					flagPurpose,
					flagOwner,
					flagExpiresIn,
				},
				Action: func(cCtx *cli.Context) error {
					meta, err := newClient(cCtx).GenerateKey(api.GenerateKeyRequest{
						Algorithm:        cCtx.String(flagAlgorithm.Name),
						KeySize:          cCtx.Int(flagKeySize.Name),
						Purpose:          cCtx.String(flagPurpose.Name),
						OwnerID:          cCtx.String(flagOwner.Name),
						ExpiresInSeconds: cCtx.Int64(flagExpiresIn.Name),
					})
					if err != nil {
						return err
					}
					return printJSON(meta)
				},
			},
			&cli.Command{
				Name:        "list",
				Usage:       "",
				Description: "",
				Flags: []cli.Flag{
					flagOwner,
					flagState,
				},
				Action: func(cCtx *cli.Context) error {
					listing, err := newClient(cCtx).ListKeys(
						cCtx.String(flagOwner.Name),
						interfaces.KeyState(cCtx.String(flagState.Name)),
					)
					if err != nil {
						return err
					}
					return printJSON(listing)
				},
			},
			&cli.Command{
				Name:        "retrieve",
				Usage:       "",
				Description: "",
				Flags: []cli.Flag{
					flagKeyID,
					flagRequester,
				},
				Action: func(cCtx *cli.Context) error {
					resp, err := newClient(cCtx).RetrieveKey(
						interfaces.KeyID(cCtx.String(flagKeyID.Name)),
						cCtx.String(flagRequester.Name),
					)
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			&cli.Command{
				Name:        "destroy",
				Usage:       "",
				Description: "",
				Flags: []cli.Flag{
					flagKeyID,
					flagRequester,
					flagMethod,
					flags.NoConfirmWaitFlag,
				},
				Action: func(cCtx *cli.Context) error {
					req := api.DestroyKeyRequest{
						Method:      cCtx.String(flagMethod.Name),
						RequesterID: cCtx.String(flagRequester.Name),
					}
					if cCtx.Bool(flags.NoConfirmWaitFlag.Name) {
						noWait := false
						req.WaitForConfirmation = &noWait
					}

					result, err := newClient(cCtx).DestroyKey(interfaces.KeyID(cCtx.String(flagKeyID.Name)), req)
					if err != nil {
						return err
					}
					return printJSON(result)
				},
			},
			&cli.Command{
				Name:        "record",
				Usage:       "",
				Description: "anchor destroyed keys whose ledger recording failed, in one batch transaction",
				Flags: []cli.Flag{
					flagKeys,
				},
				Action: func(cCtx *cli.Context) error {
					ids := cCtx.StringSlice(flagKeys.Name)
					keyIDs := make([]interfaces.KeyID, 0, len(ids))
					for _, id := range ids {
						keyIDs = append(keyIDs, interfaces.KeyID(id))
					}

					receipt, err := newClient(cCtx).RecordDeletions(keyIDs)
					if err != nil {
						return err
					}
					return printJSON(receipt)
				},
			},
			&cli.Command{
				Name:        "verify",
				Usage:       "",
				Description: "check a destruction proof hash against the on-chain record",
				Flags: []cli.Flag{
					flagKeyID,
					flagMethod,
					flagProofHash,
				},
				Action: func(cCtx *cli.Context) error {
					verdict, err := newClient(cCtx).VerifyDeletion(
						interfaces.KeyID(cCtx.String(flagKeyID.Name)),
						cCtx.String(flagMethod.Name),
						cCtx.String(flagProofHash.Name),
					)
					if err != nil {
						return err
					}
					return printJSON(verdict)
				},
			},
			&cli.Command{
				Name:        "record-get",
				Usage:       "",
				Description: "fetch the on-chain deletion record for a key",
				Flags: []cli.Flag{
					flagKeyID,
				},
				Action: func(cCtx *cli.Context) error {
					record, err := newClient(cCtx).DeletionRecord(interfaces.KeyID(cCtx.String(flagKeyID.Name)))
					if err != nil {
						return err
					}
					return printJSON(record)
				},
			},
			&cli.Command{
				Name:  "certificate",
				Usage: "issue and fetch destruction certificates",
				Subcommands: []*cli.Command{
					&cli.Command{
						Name:        "create",
						Usage:       "",
						Description: "",
						Flags: []cli.Flag{
							flagKeyID,
							flagUserID,
							flagData,
							flagOutput,
						},
						Action: func(cCtx *cli.Context) error {
							additional, err := parseDataPairs(cCtx.StringSlice(flagData.Name))
							if err != nil {
								return err
							}

							document, err := newClient(cCtx).CreateCertificate(api.CreateCertificateRequest{
								KeyID:          interfaces.KeyID(cCtx.String(flagKeyID.Name)),
								UserID:         cCtx.String(flagUserID.Name),
								AdditionalData: additional,
							})
							if err != nil {
								return err
							}
							return writeDocument(cCtx.String(flagOutput.Name), document)
						},
					},
					&cli.Command{
						Name:        "get",
						Usage:       "",
						Description: "",
						Flags: []cli.Flag{
							flagCertID,
							flagOutput,
						},
						Action: func(cCtx *cli.Context) error {
							document, err := newClient(cCtx).Certificate(interfaces.CertificateID(cCtx.String(flagCertID.Name)))
							if err != nil {
								return err
							}
							return writeDocument(cCtx.String(flagOutput.Name), document)
						},
					},
					&cli.Command{
						Name:        "list",
						Usage:       "",
						Description: "",
						Action: func(cCtx *cli.Context) error {
							listing, err := newClient(cCtx).ListCertificates()
							if err != nil {
								return err
							}
							return printJSON(listing)
						},
					},
					&cli.Command{
						Name:        "verify",
						Usage:       "",
						Description: "re-check a certificate document offline: proof hash and signature",
						Flags: []cli.Flag{
							flagVerifyCertID,
							flagCertFile,
						},
						Action: func(cCtx *cli.Context) error {
							var document []byte
							var err error
							switch {
							case cCtx.String(flagCertFile.Name) != "":
								document, err = os.ReadFile(cCtx.String(flagCertFile.Name))
							case cCtx.String(flagVerifyCertID.Name) != "":
								document, err = newClient(cCtx).Certificate(interfaces.CertificateID(cCtx.String(flagVerifyCertID.Name)))
							default:
								return errors.New("either --id or --file is required")
							}
							if err != nil {
								return err
							}

							report, err := certs.Verify(context.Background(), document, nil)
							if err != nil {
								return err
							}
							return printJSON(report)
						},
					},
				},
			},
			&cli.Command{
				Name:        "audit",
				Usage:       "",
				Description: "",
				Flags: []cli.Flag{
					flagAuditKey,
					flagOperation,
				},
				Action: func(cCtx *cli.Context) error {
					entries, err := newClient(cCtx).Audit(
						interfaces.KeyID(cCtx.String(flagAuditKey.Name)),
						cCtx.String(flagOperation.Name),
					)
					if err != nil {
						return err
					}
					return printJSON(entries)
				},
			},
			&cli.Command{
				Name:        "stats",
				Usage:       "",
				Description: "",
				Action: func(cCtx *cli.Context) error {
					stats, err := newClient(cCtx).Stats()
					if err != nil {
						return err
					}
					return printJSON(stats)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) *clients.Client {
	return &clients.Client{ServerAddr: cCtx.String(flags.ServerAddrFlag.Name)}
}

func printJSON(v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

// writeDocument sends a certificate document to stdout or, with --output
// set, to a file readable only by the caller.
func writeDocument(path string, document []byte) error {
	if path == "" {
		fmt.Println(string(document))
		return nil
	}
	return os.WriteFile(path, document, 0600)
}

func parseDataPairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	data := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --data %q, expected key=value", pair)
		}
		data[key] = value
	}
	return data, nil
}
