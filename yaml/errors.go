package yaml

import "github.com/coreyp1/text/internal/yamlh"

// Error and Code are re-exported from the internal yamlh package so public
// callers never need to import an internal path to type-switch on a
// parse error's Code.
type Error = yamlh.Error
type Code = yamlh.Code

const (
	OK         = yamlh.OK
	OOM        = yamlh.OOM
	LIMIT      = yamlh.LIMIT
	DEPTH      = yamlh.DEPTH
	INCOMPLETE = yamlh.INCOMPLETE
	INVALID    = yamlh.INVALID
	BAD_TOKEN  = yamlh.BAD_TOKEN
	BAD_ESCAPE = yamlh.BAD_ESCAPE
	STATE      = yamlh.STATE
	DUPKEY     = yamlh.DUPKEY
)

// NewError re-exports yamlh.NewError for callers constructing sentinel
// errors of their own (e.g. ErrStreamFinished) without an internal import.
var NewError = yamlh.NewError
