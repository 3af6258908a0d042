// Package reconstruct turns decoded per-tap transactions into rider-facing
// trips.
//
// # Overview
//
// Card families differ in how a journey is recorded. Proof-of-payment
// systems (ORCA, OV-chipkaart) store a tap-in and a tap-out as separate
// records which must be paired. Clipper stores complete trips but may keep
// duplicate copies of the same trip. Families without a per-record balance
// (Clipper) need the running balance threaded backwards from the current
// card balance through trips and refills.
//
// The functions here are generic over the family's own transaction type;
// families supply accessors and predicates and keep their layouts to
// themselves.
//
// # Pairing
//
// Pair sorts records newest first (stable, so records sharing a timestamp
// keep their input order) and walks them with one step of lookahead. The
// record at position i is a candidate end; the older record at i+1 is a
// candidate start. When sameTrip(start, end) holds both records form one
// Segment and the walk skips past them; otherwise the record at i stands
// alone. Inputs are never modified.
//
// # Thread Safety
//
// All functions are pure.
package reconstruct
