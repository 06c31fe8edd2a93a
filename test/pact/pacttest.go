//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "storefront-api"
	ConsumerName = "storefront-cli"

	StateUserExists    = "user pact.user@example.com exists"
	StateCatalogSeeded = "catalog holds product KOP-01"
	StateOrderExists   = "transaction 301 exists for user 42"
	StateOrderMissing  = "no transaction with id 999"
)

const (
	UserEmail    = "pact.user@example.com"
	UserPassword = "pact-pass"
	UserID       = "42"
	Token        = "header.payload.signature"

	ProductID    = "7"
	ProductCode  = "KOP-01"
	ProductName  = "Kopi Arabika"
	ProductPrice = 15000

	ExistingOrderID = "301"
	MissingOrderID  = "999"
	exampleDate     = "2024-06-12T10:00:00Z"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the CLI consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleProductPayload is a catalog record in the current field layout.
func ExampleProductPayload() map[string]any {
	return map[string]any{
		"id":          ProductID,
		"code":        ProductCode,
		"name":        ProductName,
		"description": "Single origin, 250g",
		"price":       ProductPrice,
		"quantity":    10,
	}
}

// ExampleOrderPayload is a persisted transaction for UserID.
func ExampleOrderPayload() map[string]any {
	return map[string]any{
		"id":          ExistingOrderID,
		"invoiceNo":   "INV-00301",
		"customer":    "Rina",
		"userId":      UserID,
		"date":        exampleDate,
		"totalAmount": 3 * ProductPrice,
		"products": []map[string]any{{
			"productCode": ProductCode,
			"productName": ProductName,
			"price":       ProductPrice,
			"quantity":    3,
		}},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
