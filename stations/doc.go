// Package stations resolves card station codes to station metadata.
//
// Decoders only see the Resolver interface. Implementations are an
// in-memory Table (built-in tables compiled into each card family and YAML
// files) and a SQLite database shared by all families, keyed by namespace.
// Chain combines several resolvers and returns the first hit.
//
// # Thread Safety
//
// Table is read-only after construction. SQLite serializes writes and allows
// concurrent reads.
package stations
