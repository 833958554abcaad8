// Package epsonconnect provides a client for the Epson Connect API.
//
// The Epson Connect API lets applications print to and manage scan
// destinations of cloud-registered Epson devices. A client is bound to one
// device, identified by its printer email address.
//
// Basic usage:
//
//	client, err := epsonconnect.New(printerEmail, clientID, clientSecret)
//
//	// Print a PDF file
//	jobID, err := client.Printer().Print(ctx, "/path/to/document.pdf", nil)
//
//	// List scan destinations
//	dests, err := client.Scanner().List(ctx)
//
// The package handles authentication automatically. The first operation
// performs a password grant; later operations reuse the access token until it
// expires and then renew it with the refresh token. Concurrent operations
// share a single renewal.
//
// Errors can be inspected with errors.As:
//   - *AuthenticationError: the token endpoint rejected the grant
//   - *APIError: an API response carried an error field
//   - *TransportError: network failure or non-2xx response without a JSON error
//   - *PreconditionError: the operation is not possible in the current state
package epsonconnect
