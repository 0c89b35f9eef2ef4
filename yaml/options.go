package yaml

import "github.com/coreyp1/text/internal/resolve"

// DuplicateKeyPolicy controls what happens when a mapping node sees the
// same scalar key twice.
type DuplicateKeyPolicy int8

const (
	DupKeyError DuplicateKeyPolicy = iota
	DupKeyFirstWins
	DupKeyLastWins
)

// Schema re-exports resolve.Schema so callers configuring Options never
// need the internal package.
type Schema = resolve.Schema

const (
	FailsafeSchema = resolve.FailsafeSchema
	JSONSchema     = resolve.JSONSchema
	CoreSchema     = resolve.CoreSchema
)

// Options configures a parse. There are no functional options here,
// matching the plain-struct configuration style used throughout this
// codebase.
type Options struct {
	Schema         Schema
	DuplicateKeys  DuplicateKeyPolicy
	MaxAliasEvents int
	MaxDepth       int

	// DisableJSONFastPath forces every input through the full
	// scanner/event-stream/DOM pipeline, bypassing the encoding/json
	// fast path even when the input is syntactically pure JSON. Tests
	// that need to compare the two paths' output use this.
	DisableJSONFastPath bool
}

// DefaultOptions returns the Options a plain Parse call uses.
func DefaultOptions() Options {
	return Options{
		Schema:         CoreSchema,
		DuplicateKeys:  DupKeyError,
		MaxAliasEvents: 100000,
		MaxDepth:       256,
	}
}
