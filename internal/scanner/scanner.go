// Package scanner implements the YAML pipeline's streaming tokenizer: it
// turns a decoded UTF-8 byte stream into a sequence of Tokens (indicators,
// scalars, block scalars, quoted scalars, document markers, directives),
// tracking block-vs-flow context and position.
//
// The shape follows a libyaml-style yaml_parser_fetch_next_token /
// yaml_parser_scan_* family: the same by-hand escape tables for quoted
// scalars, and the same "determine encoding, then decode, then tokenize"
// layering — reshaped around a narrower Token union (INDICATOR carries the
// raw char rather than dozens of distinct *_TOKEN kinds) and around
// peek-before-commit incremental feeding instead of a pull io.Reader.
package scanner

import (
	"github.com/coreyp1/text/internal/decoder"
	"github.com/coreyp1/text/internal/yamlh"
)

// ErrIncomplete is returned by Next when the buffered input does not yet
// contain a complete token and Finish has not been called.
var ErrIncomplete = yamlh.NewError(yamlh.INCOMPLETE, yamlh.Position{}, "need more input")

const maxContextDepth = 32

// Scanner is the streaming tokenizer. It owns no copy of the caller's
// chunks: Feed hands bytes to the internal decoder, which folds them into
// a single growing UTF-8 buffer that Next reads from.
type Scanner struct {
	dec *decoder.Decoder

	buf  []byte
	pos  int
	line int
	col  int

	finished bool
	err      *yamlh.Error

	// context stack: '[' or '{' for flow nesting; empty means block
	// context. Depth is bounded by maxContextDepth.
	context []byte

	atLineStart bool
}

// New returns a Scanner ready to accept Feed calls.
func New() *Scanner {
	return &Scanner{
		dec:         decoder.New(),
		line:        1,
		col:         1,
		atLineStart: true,
	}
}

// Feed appends a chunk of raw (possibly multi-encoding) input bytes.
func (s *Scanner) Feed(p []byte) error {
	if s.err != nil {
		return s.err
	}
	if err := s.dec.Feed(p); err != nil {
		s.err = err
		return err
	}
	s.pullDecoded()
	return nil
}

// Finish signals end of input.
func (s *Scanner) Finish() error {
	if s.err != nil {
		return s.err
	}
	s.finished = true
	if err := s.dec.Finish(); err != nil {
		s.err = err
		return err
	}
	s.pullDecoded()
	return nil
}

func (s *Scanner) pullDecoded() {
	if n := len(s.dec.Bytes()); n > 0 {
		s.buf = append(s.buf, s.dec.Bytes()...)
		s.dec.Discard(n)
	}
}

func (s *Scanner) rest() []byte { return s.buf[s.pos:] }

func (s *Scanner) position() yamlh.Position {
	return yamlh.Position{Offset: s.pos, Line: s.line, Column: s.col}
}

func (s *Scanner) fail(code yamlh.Code, format string, args ...interface{}) *yamlh.Error {
	s.err = yamlh.NewError(code, s.position(), format, args...)
	return s.err
}

// advance moves the cursor forward n bytes, updating line/column. It must
// not be called across a line break; use advanceBreak for that.
func (s *Scanner) advance(n int) {
	s.pos += n
	s.col += n
	if n > 0 {
		s.atLineStart = false
	}
}

// advanceBreak consumes the line break at the cursor (CR, LF, or CRLF) and
// moves to the start of the next line.
func (s *Scanner) advanceBreak() {
	w := yamlh.BreakWidth(s.buf, s.pos)
	if w == 0 {
		return
	}
	s.pos += w
	s.line++
	s.col = 1
	s.atLineStart = true
}

func (s *Scanner) inFlow() bool { return len(s.context) > 0 }

func (s *Scanner) pushContext(c byte) error {
	if len(s.context) >= maxContextDepth {
		return s.fail(yamlh.DEPTH, "flow nesting exceeds maximum depth %d", maxContextDepth)
	}
	s.context = append(s.context, c)
	return nil
}

func (s *Scanner) popContext() {
	if len(s.context) > 0 {
		s.context = s.context[:len(s.context)-1]
	}
}

// advanceTo moves the cursor to absolute buffer offset target, correctly
// tracking line/column across any line breaks in between. Used by the
// quoted- and block-scalar scanners, whose content can span lines.
func (s *Scanner) advanceTo(target int) {
	for s.pos < target {
		if yamlh.IsBreak(s.buf, s.pos) {
			s.advanceBreak()
		} else {
			s.advance(1)
		}
	}
}

// Next returns the next token, or ErrIncomplete if the buffered input does
// not yet hold a complete token (only possible before Finish). Once Finish
// has been called, an incomplete construct at EOF is reported as INVALID
// rather than INCOMPLETE.
func (s *Scanner) Next() (*yamlh.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := s.skipToToken(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.buf) {
		if s.finished {
			return &yamlh.Token{Kind: yamlh.TOKEN_EOF, Pos: s.position(), End: s.position()}, nil
		}
		return nil, ErrIncomplete
	}

	start := s.position()
	c := s.buf[s.pos]

	if s.atLineStart {
		if tok, ok, err := s.tryDocumentMarker(); err != nil || ok {
			return tok, err
		}
		if c == '%' {
			return s.scanDirective()
		}
	}

	switch c {
	case '\'':
		return s.scanQuotedScalar(true)
	case '"':
		return s.scanQuotedScalar(false)
	case '|', '>':
		return s.scanBlockScalar(c == '|')
	case '[':
		s.advance(1)
		if err := s.pushContext('['); err != nil {
			return nil, err
		}
		return s.indicatorToken(c, start), nil
	case '{':
		s.advance(1)
		if err := s.pushContext('{'); err != nil {
			return nil, err
		}
		return s.indicatorToken(c, start), nil
	case ']', '}':
		s.advance(1)
		s.popContext()
		return s.indicatorToken(c, start), nil
	case ',':
		s.advance(1)
		return s.indicatorToken(c, start), nil
	case '&', '*':
		s.advance(1)
		return s.indicatorToken(c, start), nil
	case '!':
		return s.scanTagIndicator()
	case '?':
		if s.indicatorFollows(s.pos + 1) {
			s.advance(1)
			return s.indicatorToken(c, start), nil
		}
	case '-':
		if s.indicatorFollows(s.pos+1) && !s.inFlow() {
			s.advance(1)
			return s.indicatorToken(c, start), nil
		}
	case ':':
		if s.indicatorFollows(s.pos+1) || s.inFlow() && s.nextIsFlowStop() {
			s.advance(1)
			return s.indicatorToken(c, start), nil
		}
	}

	return s.scanPlainScalar()
}

// indicatorFollows reports whether the byte at i (possibly past EOF) is
// absent, a blank, or a line break — the condition for ':'/'-'/'?' to act
// as indicators rather than plain-scalar content.
func (s *Scanner) indicatorFollows(i int) bool {
	if i >= len(s.buf) {
		return s.finished
	}
	return yamlh.IsBlankZ(s.buf, i)
}

func (s *Scanner) nextIsFlowStop() bool {
	if s.pos+1 >= len(s.buf) {
		return s.finished
	}
	switch s.buf[s.pos+1] {
	case ',', ']', '}':
		return true
	default:
		return yamlh.IsBlankZ(s.buf, s.pos+1)
	}
}

func (s *Scanner) indicatorToken(c byte, start yamlh.Position) *yamlh.Token {
	return &yamlh.Token{Kind: yamlh.TOKEN_INDICATOR, Char: c, Pos: start, End: s.position()}
}

// skipToToken consumes whitespace, line breaks, and comments, returning
// once the cursor sits on the first byte of the next token (or at EOF).
func (s *Scanner) skipToToken() error {
	for {
		for s.pos < len(s.buf) && yamlh.IsBlank(s.buf, s.pos) {
			if s.atLineStart && s.buf[s.pos] == '\t' {
				return s.fail(yamlh.INVALID, "tabs may not be used for indentation")
			}
			s.advance(1)
		}
		if s.pos < len(s.buf) && s.buf[s.pos] == '#' {
			if s.pos > 0 && !yamlh.IsBlankZ(s.buf, s.pos-1) {
				// '#' not preceded by whitespace is part of a
				// plain scalar, not a comment.
				return nil
			}
			for s.pos < len(s.buf) && !yamlh.IsBreak(s.buf, s.pos) {
				s.advance(1)
			}
		}
		if s.pos < len(s.buf) && yamlh.IsBreak(s.buf, s.pos) {
			s.advanceBreak()
			continue
		}
		return nil
	}
}

// tryDocumentMarker recognizes "---" or "..." at the start of a line when
// followed by whitespace, a line break, or EOF.
func (s *Scanner) tryDocumentMarker() (*yamlh.Token, bool, error) {
	rest := s.rest()
	if len(rest) < 3 {
		if !s.finished {
			return nil, false, nil
		}
	}
	if len(rest) < 3 {
		return nil, false, nil
	}
	marker := string(rest[:3])
	if marker != "---" && marker != "..." {
		return nil, false, nil
	}
	if len(rest) == 3 {
		if !s.finished {
			return nil, false, ErrIncomplete
		}
	} else if !yamlh.IsBlankZ(rest, 3) {
		return nil, false, nil
	}
	start := s.position()
	s.advance(3)
	kind := yamlh.TOKEN_DOCUMENT_START
	if marker == "..." {
		kind = yamlh.TOKEN_DOCUMENT_END
	}
	return &yamlh.Token{Kind: kind, Pos: start, End: s.position()}, true, nil
}

// scanDirective and scanTagIndicator, like every other scan* helper, only
// track progress in a local index until the token is known to be complete:
// the scanner's own cursor (s.pos/s.line/s.col) is committed in one step via
// advance/advanceTo so that an ErrIncomplete return never leaves the cursor
// partway through a token.
func (s *Scanner) scanDirective() (*yamlh.Token, error) {
	start := s.position()
	i := s.pos + 1 // '%'
	nameStart := i
	for i < len(s.buf) && !yamlh.IsBlankZ(s.buf, i) {
		i++
	}
	if i >= len(s.buf) && !s.finished {
		return nil, ErrIncomplete
	}
	name := string(s.buf[nameStart:i])
	var args []string
	for {
		for i < len(s.buf) && yamlh.IsBlank(s.buf, i) {
			i++
		}
		if i >= len(s.buf) {
			if !s.finished {
				return nil, ErrIncomplete
			}
			break
		}
		if yamlh.IsBreak(s.buf, i) || s.buf[i] == '#' {
			break
		}
		argStart := i
		for i < len(s.buf) && !yamlh.IsBlankZ(s.buf, i) {
			i++
		}
		if i >= len(s.buf) && !s.finished {
			return nil, ErrIncomplete
		}
		args = append(args, string(s.buf[argStart:i]))
	}
	s.advance(i - s.pos)
	tok := &yamlh.Token{Kind: yamlh.TOKEN_DIRECTIVE, Pos: start, End: s.position(), DirectiveArgs: args}
	tok.Scalar = []byte(name)
	if name == "YAML" && len(args) == 1 && len(args[0]) == 3 && args[0][1] == '.' {
		tok.Major = int8(args[0][0] - '0')
		tok.Minor = int8(args[0][2] - '0')
	}
	return tok, nil
}

func (s *Scanner) scanTagIndicator() (*yamlh.Token, error) {
	start := s.position()
	i := s.pos + 1 // '!'
	nameStart := i
	for i < len(s.buf) && (yamlh.IsAlpha(s.buf, i) || s.buf[i] == '!' || s.buf[i] == '%') {
		i++
	}
	if i >= len(s.buf) && !s.finished {
		return nil, ErrIncomplete
	}
	s.advance(i - s.pos)
	tok := &yamlh.Token{Kind: yamlh.TOKEN_INDICATOR, Char: '!', Pos: start, End: s.position()}
	tok.Scalar = append([]byte{'!'}, s.buf[nameStart:i]...)
	return tok, nil
}
