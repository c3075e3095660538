package envelope

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/budgetkit/envelope-go/internal/transport"
	internalTypes "github.com/budgetkit/envelope-go/internal/types"
	"github.com/pkg/errors"
)

// FileSource loads a JSON ledger export from disk.
type FileSource struct {
	Path string
}

// Load reads and decodes the export file
func (s *FileSource) Load(_ context.Context) (*Ledger, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ledger file %s", s.Path)
	}

	var ledger Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, errors.Wrapf(err, "failed to parse ledger file %s", s.Path)
	}
	return &ledger, nil
}

// HTTPSource fetches a JSON ledger export from an HTTP endpoint, with
// optional bearer auth and retries.
type HTTPSource struct {
	URL string

	transport *transport.LedgerTransport
}

// HTTPSourceOptions configures an HTTPSource
type HTTPSourceOptions struct {
	// Token is sent as a bearer token when set
	Token string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// RetryConfig enables retries when set
	RetryConfig *internalTypes.RetryConfig

	// Logger for request logging
	Logger internalTypes.Logger
}

// NewHTTPSource creates an HTTPSource for the given export URL
func NewHTTPSource(url string, opts *HTTPSourceOptions) *HTTPSource {
	if opts == nil {
		opts = &HTTPSourceOptions{}
	}
	return &HTTPSource{
		URL: url,
		transport: transport.NewLedgerTransport(&transport.Options{
			HTTPClient:  opts.HTTPClient,
			Token:       opts.Token,
			RetryConfig: opts.RetryConfig,
			Logger:      opts.Logger,
		}),
	}
}

// Load fetches and decodes the export
func (s *HTTPSource) Load(ctx context.Context) (*Ledger, error) {
	var ledger Ledger
	if err := s.transport.Fetch(ctx, s.URL, &ledger); err != nil {
		return nil, err
	}
	return &ledger, nil
}
