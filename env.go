package epsonconnect

import "os"

// Environment variables read by NewFromEnv.
const (
	EnvPrinterEmail = "EPSON_CONNECT_API_PRINTER_EMAIL"
	EnvClientID     = "EPSON_CONNECT_API_CLIENT_ID"
	EnvClientSecret = "EPSON_CONNECT_API_CLIENT_SECRET"
	EnvBaseURL      = "EPSON_CONNECT_API_BASE_URL"
)

// NewFromEnv creates a client from the EPSON_CONNECT_API_* environment
// variables. Options passed explicitly take precedence over the environment.
func NewFromEnv(opts ...Option) (*Client, error) {
	return newFromLookup(os.LookupEnv, opts...)
}

func newFromLookup(lookup func(string) (string, bool), opts ...Option) (*Client, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	if baseURL := get(EnvBaseURL); baseURL != "" {
		opts = append([]Option{WithBaseURL(baseURL)}, opts...)
	}

	return New(get(EnvPrinterEmail), get(EnvClientID), get(EnvClientSecret), opts...)
}
