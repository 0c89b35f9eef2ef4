//
// Copyright (c) 2011-2019 Canonical Ltd
// Copyright (c) 2006-2010 Kirill Simonov
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package yamlh holds the shared low-level types used across the scanner,
// event stream, and resolver layers of the YAML pipeline: positions,
// encodings, tokens, events, and the error-code taxonomy.
package yamlh

import "fmt"

// Position is a pointer position in the decoded input: a byte Offset plus
// 1-based Line and Column.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("offset %d (line %d, column %d)", p.Offset, p.Line, p.Column)
}

// Encoding is the detected stream encoding.
type Encoding int

const (
	ANY_ENCODING Encoding = iota
	UTF8_ENCODING
	UTF16LE_ENCODING
	UTF16BE_ENCODING
	UTF32LE_ENCODING
	UTF32BE_ENCODING
)

func (e Encoding) String() string {
	switch e {
	case UTF8_ENCODING:
		return "UTF-8"
	case UTF16LE_ENCODING:
		return "UTF-16LE"
	case UTF16BE_ENCODING:
		return "UTF-16BE"
	case UTF32LE_ENCODING:
		return "UTF-32LE"
	case UTF32BE_ENCODING:
		return "UTF-32BE"
	default:
		return "unknown"
	}
}

// Code is the YAML-side error taxonomy. It deliberately mirrors the
// vocabulary shared with the CSV engine (see csv.Code) even though the two
// packages do not share a type, because both pipelines are specified
// against the same taxonomy.
type Code int

const (
	OK Code = iota
	OOM
	LIMIT
	DEPTH
	INCOMPLETE
	INVALID
	BAD_TOKEN
	BAD_ESCAPE
	STATE
	DUPKEY
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case OOM:
		return "OOM"
	case LIMIT:
		return "LIMIT"
	case DEPTH:
		return "DEPTH"
	case INCOMPLETE:
		return "INCOMPLETE"
	case INVALID:
		return "INVALID"
	case BAD_TOKEN:
		return "BAD_TOKEN"
	case BAD_ESCAPE:
		return "BAD_ESCAPE"
	case STATE:
		return "STATE"
	case DUPKEY:
		return "DUPKEY"
	default:
		return "UNKNOWN"
	}
}

// Error is the error type surfaced by every fallible operation in the YAML
// pipeline. It carries a stable Code, a human message, the Position it
// occurred at, and an optional Snippet of surrounding bytes with a caret
// Offset into that snippet.
type Error struct {
	Code    Code
	Message string
	Pos     Position
	Snippet []byte
	Caret   int
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("yaml: %s: %s at %s", e.Code, e.Message, e.Pos)
}

// NewError builds an *Error. pos may be the zero Position when unknown.
func NewError(code Code, pos Position, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// ScalarStyle records how a scalar token/event was written.
type ScalarStyle int8

const (
	ANY_SCALAR_STYLE ScalarStyle = iota
	PLAIN_SCALAR_STYLE
	SINGLE_QUOTED_SCALAR_STYLE
	DOUBLE_QUOTED_SCALAR_STYLE
	LITERAL_SCALAR_STYLE
	FOLDED_SCALAR_STYLE
)

// Chomping is the block-scalar chomping indicator (+/-/ clip).
type Chomping int8

const (
	CLIP_CHOMPING Chomping = iota
	STRIP_CHOMPING
	KEEP_CHOMPING
)

// TokenKind is the scanner's token vocabulary: a small closed set plus an
// INDICATOR payload carrying the actual structural character.
type TokenKind int

const (
	NO_TOKEN TokenKind = iota
	TOKEN_INDICATOR
	TOKEN_SCALAR
	TOKEN_DIRECTIVE
	TOKEN_DOCUMENT_START
	TOKEN_DOCUMENT_END
	TOKEN_EOF
	TOKEN_ERROR
)

func (k TokenKind) String() string {
	switch k {
	case NO_TOKEN:
		return "NO_TOKEN"
	case TOKEN_INDICATOR:
		return "INDICATOR"
	case TOKEN_SCALAR:
		return "SCALAR"
	case TOKEN_DIRECTIVE:
		return "DIRECTIVE"
	case TOKEN_DOCUMENT_START:
		return "DOCUMENT_START"
	case TOKEN_DOCUMENT_END:
		return "DOCUMENT_END"
	case TOKEN_EOF:
		return "EOF"
	case TOKEN_ERROR:
		return "ERROR"
	default:
		return "<unknown token>"
	}
}

// Indicator characters recognized by the scanner.
const (
	IndicatorMappingValue   = ':'
	IndicatorBlockEntry     = '-'
	IndicatorExplicitKey    = '?'
	IndicatorFlowSeqStart   = '['
	IndicatorFlowSeqEnd     = ']'
	IndicatorFlowMapStart   = '{'
	IndicatorFlowMapEnd     = '}'
	IndicatorFlowEntry      = ','
	IndicatorComment        = '#'
	IndicatorAnchor         = '&'
	IndicatorAlias          = '*'
	IndicatorTag            = '!'
	IndicatorLiteralScalar  = '|'
	IndicatorFoldedScalar   = '>'
	IndicatorDirective      = '%'
	IndicatorSingleQuote    = '\''
	IndicatorDoubleQuote    = '"'
)

// Token is a single unit produced by the scanner. A SCALAR token's Scalar
// bytes are newly allocated and owned by the caller once returned.
type Token struct {
	Kind   TokenKind
	Pos    Position
	End    Position
	Char   byte        // for TOKEN_INDICATOR
	Scalar []byte       // for TOKEN_SCALAR, TOKEN_DIRECTIVE (name) and anchor/alias/tag names
	Style  ScalarStyle  // for TOKEN_SCALAR
	DirectiveArgs []string // for TOKEN_DIRECTIVE
	Major, Minor  int8     // for a %YAML directive
}

// EventType is the vocabulary of the event stream layer.
type EventType int8

const (
	NO_EVENT EventType = iota
	STREAM_START_EVENT
	STREAM_END_EVENT
	DOCUMENT_START_EVENT
	DOCUMENT_END_EVENT
	SEQUENCE_START_EVENT
	SEQUENCE_END_EVENT
	MAPPING_START_EVENT
	MAPPING_END_EVENT
	SCALAR_EVENT
	ALIAS_EVENT
	DIRECTIVE_EVENT
	INDICATOR_EVENT
)

var eventStrings = [...]string{
	NO_EVENT:              "none",
	STREAM_START_EVENT:    "stream start",
	STREAM_END_EVENT:      "stream end",
	DOCUMENT_START_EVENT:  "document start",
	DOCUMENT_END_EVENT:    "document end",
	SEQUENCE_START_EVENT:  "sequence start",
	SEQUENCE_END_EVENT:    "sequence end",
	MAPPING_START_EVENT:   "mapping start",
	MAPPING_END_EVENT:     "mapping end",
	SCALAR_EVENT:          "scalar",
	ALIAS_EVENT:           "alias",
	DIRECTIVE_EVENT:       "directive",
	INDICATOR_EVENT:       "indicator",
}

func (e EventType) String() string {
	if e < 0 || int(e) >= len(eventStrings) {
		return fmt.Sprintf("unknown event %d", e)
	}
	return eventStrings[e]
}

// CollectionStyle records whether a collection event came from flow or
// block context.
type CollectionStyle int8

const (
	AnyStyle CollectionStyle = iota
	BlockStyle
	FlowStyle
)

// Event is the high-level unit produced by the event stream. Anchor and Tag
// decorate the event exactly once, via a "pending slot" the event stream
// fills in as soon as the node the anchor/tag applies to is known.
type Event struct {
	Type  EventType
	Pos   Position
	End   Position
	Style CollectionStyle

	Anchor    []byte
	AnchorPos Position
	Tag       []byte

	Scalar      []byte
	ScalarStyle ScalarStyle

	AliasName []byte

	DirectiveName string
	DirectiveArgs []string

	Encoding Encoding

	// Char is set for INDICATOR_EVENT, carrying the raw structural
	// character (':', '-' or '?') that the DOM builder's block-context
	// inference layer needs to see.
	Char byte

	Implicit bool
}

// Tag constants, long form per the YAML core schema.
const (
	NullTag      = "tag:yaml.org,2002:null"
	BoolTag      = "tag:yaml.org,2002:bool"
	StrTag       = "tag:yaml.org,2002:str"
	IntTag       = "tag:yaml.org,2002:int"
	FloatTag     = "tag:yaml.org,2002:float"
	TimestampTag = "tag:yaml.org,2002:timestamp"
	SeqTag       = "tag:yaml.org,2002:seq"
	MapTag       = "tag:yaml.org,2002:map"
	BinaryTag    = "tag:yaml.org,2002:binary"
	MergeTag     = "tag:yaml.org,2002:merge"
	SetTag       = "tag:yaml.org,2002:set"
	OMapTag      = "tag:yaml.org,2002:omap"
	PairsTag     = "tag:yaml.org,2002:pairs"

	DefaultScalarTag   = StrTag
	DefaultSequenceTag = SeqTag
	DefaultMappingTag  = MapTag
)

// VersionDirective is the parsed value of a %YAML directive.
type VersionDirective struct {
	Major int8
	Minor int8
}

// TagDirective is the parsed value of a %TAG directive.
type TagDirective struct {
	Handle string
	Prefix string
}
