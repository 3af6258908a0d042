// Package formatter renders decoded ledgers for people and programs.
//
// This package is organized into:
// - wrapper.go: ledger views with display amounts, trip filtering
// - json.go: JSON serialization
// - text.go: plain text serialization
//
// Amounts are formatted with the ledger currency; symbols can be overridden
// per currency.
package formatter
