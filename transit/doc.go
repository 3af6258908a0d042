// Package transit defines the normalized output of every card decoder: trips,
// refills, subscriptions, informational items and the Ledger that groups
// them.
//
// # Overview
//
// All values are immutable once built. A Trip produced by pairing a tap-in
// with a tap-out is a new value; neither input is modified. Ledgers are
// assembled with a Builder that runs each subsystem (serial, balance, trips,
// refills, subscriptions, info) independently so a failure in one subsystem
// still yields a partial ledger.
//
// # Amounts
//
// Money is int64 minor units of the ledger currency. Positive fares are
// charges, negative fares are credits. FormatAmount renders an amount with
// the currency exponent.
//
// # Thread Safety
//
// Ledger, Trip and the other value types are safe to share once built. A
// Builder is not safe for concurrent use.
package transit
