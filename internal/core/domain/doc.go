// Package domain defines the core entities of the ShareSentry engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Target: the address of one collaboration space
//   - Query: a search expression with optional filters
//   - SearchResult: a deduplicated set of content paths
//   - ProbeOutcome: the write-capability classification of a target
//   - DecoyRecord: a planted file with forged provenance
//   - WordlistIndex: filename material for decoy synthesis
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
