// Package document verifies Peruvian identity documents through the
// Decolecta API.
//
// A DNI lookup calls GET <base>/reniec/dni?numero=N and a RUC lookup calls
// GET <base>/sunat/ruc?numero=N, both with a bearer token. Responses are
// reshaped into Result.
//
//	client, err := document.NewClient(cfg)
//	res, err := client.Lookup(ctx, "dni", "46027897")
//
// The type and number are checked locally before any request is made.
// Upstream 400, 404 and 422 responses map to ErrDocumentNotFound; every
// other failure maps to ErrUpstreamFailed.
package document
