/*
Package clients provides the typed Go client for the deletion protocol
API.

Client implements api.DeletionServiceProvider over plain HTTP: every
endpoint of the server maps to one method, request and response bodies
use the DTO types from the api package, and non-2xx responses surface as
errors carrying the server's error message.

# Example Usage

	client := &clients.Client{ServerAddr: "http://127.0.0.1:8080"}

	meta, err := client.GenerateKey(api.GenerateKeyRequest{
		Algorithm: "AES-256-GCM",
		OwnerID:   "billing-service",
	})
	if err != nil {
		log.Fatal(err)
	}

	result, err := client.DestroyKey(meta.KeyID, api.DestroyKeyRequest{
		Method:      "multi_pass_overwrite",
		RequesterID: "billing-service",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("proof:", result.ProofHash)

The kmsclient command is a thin CLI wrapper around this package.
*/
package clients
