package envelope

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ledgerExport = `{
	"transactions": [
		{
			"date": "2024-01-12",
			"payee": "Grocer",
			"postings": [
				{"account": "Assets:Checking", "amount": "-54.30", "currency": "USD"},
				{"account": "Expenses:Food:Groceries", "amount": "54.30", "currency": "USD"}
			]
		}
	],
	"directives": [
		{"date": "2024-01-01", "values": ["budget account", "Assets:Checking"]},
		{"date": "2024-01-05", "values": ["allocate", "Expenses:Food", "400"]}
	]
}`

func assertExportParsed(t *testing.T, ledger *Ledger) {
	t.Helper()
	require.Len(t, ledger.Transactions, 1)
	assert.Equal(t, "Grocer", ledger.Transactions[0].Payee)
	assert.True(t, ledger.Transactions[0].Postings[1].Amount.Equal(dec("54.30")))
	require.Len(t, ledger.Directives, 2)
	assert.Equal(t, "allocate", ledger.Directives[1].Values[0])
}

func TestFileSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(ledgerExport), 0o600))

	ledger, err := (&FileSource{Path: path}).Load(context.Background())
	require.NoError(t, err)
	assertExportParsed(t, ledger)
}

func TestFileSource_Load_Missing(t *testing.T) {
	_, err := (&FileSource{Path: "/nonexistent/ledger.json"}).Load(context.Background())
	assert.Error(t, err)
}

func TestHTTPSource_Load(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ledgerExport))
	}))
	defer server.Close()

	ledger, err := NewHTTPSource(server.URL, nil).Load(context.Background())
	require.NoError(t, err)
	assertExportParsed(t, ledger)
}

func TestHTTPSource_Load_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL, nil).Load(context.Background())
	assert.Error(t, err)
}
