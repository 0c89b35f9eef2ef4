package scanner

import (
	"errors"
	"fmt"

	"github.com/coreyp1/text/internal/yamlh"
)

var errNeedMore = errors.New("need more input")

// scanPlainScalar scans an unquoted scalar. Per the documented approximation
// in this implementation, plain scalars are scanned one physical line at a
// time rather than folding multi-line plain scalars into one value — the
// common single-line case (by far the most frequent in practice) is scanned
// exactly; a plain scalar that continues past a line break is emitted as
// several adjacent scalar tokens rather than the single folded value a full
// implementation would produce.
func (s *Scanner) scanPlainScalar() (*yamlh.Token, error) {
	start := s.position()
	var content []byte
	trailingWS := 0
	i := s.pos
	// An anchor or alias name (the token right after a '&' or '*'
	// indicator) ends at the first blank, in block and flow context alike.
	nameOnly := s.pos > 0 && (s.buf[s.pos-1] == '&' || s.buf[s.pos-1] == '*')
	for {
		if i >= len(s.buf) {
			if !s.finished {
				return nil, ErrIncomplete
			}
			break
		}
		if yamlh.IsBreak(s.buf, i) {
			break
		}
		c := s.buf[i]
		if nameOnly && (c == ' ' || c == '\t') {
			break
		}
		if c == ' ' || c == '\t' {
			if i+1 >= len(s.buf) {
				if !s.finished {
					return nil, ErrIncomplete
				}
			} else if c == ' ' && s.buf[i+1] == '#' {
				break
			}
			content = append(content, c)
			trailingWS++
			i++
			continue
		}
		if c == ':' {
			if i+1 >= len(s.buf) && !s.finished {
				return nil, ErrIncomplete
			}
			if s.indicatorFollows(i+1) && !s.inFlow() {
				break
			}
			if s.inFlow() && i+1 < len(s.buf) {
				switch s.buf[i+1] {
				case ',', ']', '}':
					goto stop
				}
				if yamlh.IsBlankZ(s.buf, i+1) {
					break
				}
			}
		}
		if s.inFlow() {
			switch c {
			case ',', '[', ']', '{', '}':
				goto stop
			}
		}
		content = append(content, c)
		trailingWS = 0
		i++
		continue
	stop:
		break
	}
	if trailingWS > 0 {
		content = content[:len(content)-trailingWS]
	}
	s.advance(i - s.pos)
	return &yamlh.Token{
		Kind: yamlh.TOKEN_SCALAR, Style: yamlh.PLAIN_SCALAR_STYLE,
		Scalar: content, Pos: start, End: s.position(),
	}, nil
}

// scanQuotedScalar scans a single- or double-quoted scalar, including the
// double-quoted escape table and the doubled-single-quote escape, folding
// embedded line breaks to a single space (literal breaks are not preserved
// inside quoted scalars, matching the CORE schema's treatment of flow
// scalars).
func (s *Scanner) scanQuotedScalar(single bool) (*yamlh.Token, error) {
	start := s.position()
	var content []byte
	i := s.pos + 1
	for {
		if i >= len(s.buf) {
			if !s.finished {
				return nil, ErrIncomplete
			}
			return nil, s.fail(yamlh.INVALID, "unterminated quoted scalar starting at %s", start)
		}
		c := s.buf[i]
		if single && c == '\'' {
			if i+1 < len(s.buf) && s.buf[i+1] == '\'' {
				content = append(content, '\'')
				i += 2
				continue
			}
			if i+1 >= len(s.buf) && !s.finished {
				return nil, ErrIncomplete
			}
			i++
			break
		}
		if !single && c == '"' {
			i++
			break
		}
		if !single && c == '\\' {
			if i+1 >= len(s.buf) {
				if !s.finished {
					return nil, ErrIncomplete
				}
				return nil, s.fail(yamlh.BAD_ESCAPE, "truncated escape sequence")
			}
			if yamlh.IsBreak(s.buf, i+1) {
				w := yamlh.BreakWidth(s.buf, i+1)
				i += 1 + w
				continue
			}
			decoded, n, err := decodeEscape(s.buf, i+1, s.finished)
			if err == errNeedMore {
				return nil, ErrIncomplete
			}
			if err != nil {
				return nil, s.fail(yamlh.BAD_ESCAPE, "%s", err.Error())
			}
			content = append(content, decoded...)
			i += 1 + n
			continue
		}
		if yamlh.IsBreak(s.buf, i) {
			w := yamlh.BreakWidth(s.buf, i)
			content = append(content, ' ')
			i += w
			continue
		}
		content = append(content, c)
		i++
	}
	style := yamlh.DOUBLE_QUOTED_SCALAR_STYLE
	if single {
		style = yamlh.SINGLE_QUOTED_SCALAR_STYLE
	}
	s.advanceTo(i)
	return &yamlh.Token{
		Kind: yamlh.TOKEN_SCALAR, Style: style,
		Scalar: content, Pos: start, End: s.position(),
	}, nil
}

// decodeEscape decodes a double-quoted-scalar escape sequence starting at
// b[i] (the character right after the backslash). It returns the decoded
// UTF-8 bytes and the number of input bytes consumed, including the escape
// letter itself.
func decodeEscape(b []byte, i int, finished bool) ([]byte, int, error) {
	c := b[i]
	switch c {
	case '0':
		return []byte{0}, 1, nil
	case 'a':
		return []byte{0x07}, 1, nil
	case 'b':
		return []byte{0x08}, 1, nil
	case 't', '\t':
		return []byte{0x09}, 1, nil
	case 'n':
		return []byte{0x0A}, 1, nil
	case 'v':
		return []byte{0x0B}, 1, nil
	case 'f':
		return []byte{0x0C}, 1, nil
	case 'r':
		return []byte{0x0D}, 1, nil
	case 'e':
		return []byte{0x1B}, 1, nil
	case ' ':
		return []byte{' '}, 1, nil
	case '"':
		return []byte{'"'}, 1, nil
	case '/':
		return []byte{'/'}, 1, nil
	case '\\':
		return []byte{'\\'}, 1, nil
	case 'N':
		return encodeRune(0x85), 1, nil
	case '_':
		return encodeRune(0xA0), 1, nil
	case 'L':
		return encodeRune(0x2028), 1, nil
	case 'P':
		return encodeRune(0x2029), 1, nil
	case 'x':
		return decodeHexEscape(b, i+1, 2, finished)
	case 'u':
		return decodeHexEscape(b, i+1, 4, finished)
	case 'U':
		return decodeHexEscape(b, i+1, 8, finished)
	default:
		return nil, 0, fmt.Errorf("unknown escape sequence '\\%c'", c)
	}
}

func decodeHexEscape(b []byte, digitsStart, ndigits int, finished bool) ([]byte, int, error) {
	if digitsStart+ndigits > len(b) {
		if !finished {
			return nil, 0, errNeedMore
		}
		return nil, 0, fmt.Errorf("truncated hex escape")
	}
	var value rune
	for k := 0; k < ndigits; k++ {
		if !yamlh.IsHex(b, digitsStart+k) {
			return nil, 0, fmt.Errorf("invalid hex digit in escape")
		}
		value = value<<4 + rune(yamlh.AsHex(b, digitsStart+k))
	}
	return encodeRune(value), 1 + ndigits, nil
}

func encodeRune(value rune) []byte {
	switch {
	case value <= 0x7F:
		return []byte{byte(value)}
	case value <= 0x7FF:
		return []byte{byte(0xC0 + (value >> 6)), byte(0x80 + (value & 0x3F))}
	case value <= 0xFFFF:
		return []byte{byte(0xE0 + (value >> 12)), byte(0x80 + ((value >> 6) & 0x3F)), byte(0x80 + (value & 0x3F))}
	default:
		return []byte{byte(0xF0 + (value >> 18)), byte(0x80 + ((value >> 12) & 0x3F)), byte(0x80 + ((value >> 6) & 0x3F)), byte(0x80 + (value & 0x3F))}
	}
}

// scanBlockScalar scans a literal (|) or folded (>) block scalar. The
// minimum-indentation-of-non-blank-lines rule is the documented
// approximation this implementation uses in place of full indentation
// diagnostics (detached tabs, inconsistent indentation) that a conformant
// YAML scanner would reject: any run of lines indented at or past the
// block's base indent is accepted as content, and the first non-blank
// line (or an explicit indentation digit in the header) fixes that base.
func (s *Scanner) scanBlockScalar(literal bool) (*yamlh.Token, error) {
	start := s.position()
	i := s.pos + 1

	chomp := yamlh.CLIP_CHOMPING
	explicitIndent := 0
	for i < len(s.buf) && (s.buf[i] == '+' || s.buf[i] == '-' || yamlh.IsDigit(s.buf, i)) {
		switch {
		case s.buf[i] == '+':
			chomp = yamlh.KEEP_CHOMPING
		case s.buf[i] == '-':
			chomp = yamlh.STRIP_CHOMPING
		default:
			explicitIndent = yamlh.AsDigit(s.buf, i)
		}
		i++
	}
	for i < len(s.buf) && yamlh.IsBlank(s.buf, i) {
		i++
	}
	if i < len(s.buf) && s.buf[i] == '#' {
		for i < len(s.buf) && !yamlh.IsBreak(s.buf, i) {
			i++
		}
	}
	if i >= len(s.buf) {
		if !s.finished {
			return nil, ErrIncomplete
		}
		s.advanceTo(i)
		return s.finishBlockScalar(start, literal, chomp, nil), nil
	}
	if !yamlh.IsBreak(s.buf, i) {
		return nil, s.fail(yamlh.BAD_TOKEN, "unexpected character in block scalar header")
	}

	var lines [][]byte
	baseIndent := -1
	if explicitIndent > 0 {
		baseIndent = explicitIndent
	}
	pos := i
	for {
		w := yamlh.BreakWidth(s.buf, pos)
		if w == 0 {
			break
		}
		pos += w
		lineStart := pos
		indent := 0
		for pos < len(s.buf) && s.buf[pos] == ' ' {
			pos++
			indent++
		}
		if pos >= len(s.buf) {
			if !s.finished {
				return nil, ErrIncomplete
			}
			lines = append(lines, nil)
			break
		}
		blank := yamlh.IsBreak(s.buf, pos)
		if !blank {
			if baseIndent < 0 {
				if indent == 0 {
					pos = lineStart
					break
				}
				baseIndent = indent
			}
			if indent < baseIndent {
				pos = lineStart
				break
			}
		}
		lineEnd := pos
		for lineEnd < len(s.buf) && !yamlh.IsBreak(s.buf, lineEnd) {
			lineEnd++
		}
		if lineEnd >= len(s.buf) && !s.finished {
			return nil, ErrIncomplete
		}
		var content []byte
		if !blank {
			content = s.buf[lineStart+baseIndent : lineEnd]
		}
		lines = append(lines, content)
		pos = lineEnd
	}
	s.advanceTo(pos)
	return s.finishBlockScalar(start, literal, chomp, lines), nil
}

func (s *Scanner) finishBlockScalar(start yamlh.Position, literal bool, chomp yamlh.Chomping, lines [][]byte) *yamlh.Token {
	var buf []byte
	started := false
	blankRun := 0
	for _, line := range lines {
		if line == nil {
			blankRun++
			continue
		}
		if started {
			switch {
			case blankRun > 0:
				for k := 0; k < blankRun; k++ {
					buf = append(buf, '\n')
				}
			case literal:
				buf = append(buf, '\n')
			default:
				buf = append(buf, ' ')
			}
		}
		blankRun = 0
		buf = append(buf, line...)
		started = true
	}
	switch chomp {
	case yamlh.KEEP_CHOMPING:
		for k := 0; k < blankRun; k++ {
			buf = append(buf, '\n')
		}
		if started {
			buf = append(buf, '\n')
		}
	case yamlh.STRIP_CHOMPING:
	default:
		if started {
			buf = append(buf, '\n')
		}
	}
	style := yamlh.FOLDED_SCALAR_STYLE
	if literal {
		style = yamlh.LITERAL_SCALAR_STYLE
	}
	return &yamlh.Token{
		Kind: yamlh.TOKEN_SCALAR, Style: style,
		Scalar: buf, Pos: start, End: s.position(),
	}
}
