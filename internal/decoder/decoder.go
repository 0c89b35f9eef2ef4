// Package decoder implements the YAML pipeline's encoding detector and
// incremental decoder: BOM sniffing across UTF-8/16/32 in both
// endiannesses, folding every encoding down into a single UTF-8 working
// buffer that the scanner reads from.
//
// The detect/decode split follows a libyaml-style yaml_parser_determine_
// encoding/yaml_parser_update_buffer pair, extended to cover UTF-32LE and
// UTF-32BE and reshaped around a push (Feed/Finish) rather than pull
// (io.Reader) input model so it composes with chunked feeding.
package decoder

import (
	"github.com/coreyp1/text/internal/yamlh"
)

// Decoder accumulates raw input bytes across Feed calls, determines the
// encoding from a BOM (or assumes UTF-8), and exposes the decoded content
// as a growing UTF-8 buffer.
type Decoder struct {
	encoding     yamlh.Encoding
	encodingKnown bool

	// raw holds bytes not yet consumed by BOM-detection or by the decode
	// loop: either we don't have enough of them yet to sniff the BOM, or
	// they form an incomplete multi-byte/multi-unit sequence.
	raw []byte

	// buf is the decoded UTF-8 output. consumed bytes are dropped from
	// the front by the scanner via Discard.
	buf []byte

	finished bool
	err      *yamlh.Error
}

// New returns an empty Decoder.
func New() *Decoder {
	return &Decoder{}
}

// Err returns the sticky decode error, if any.
func (d *Decoder) Err() *yamlh.Error { return d.err }

// Bytes returns the currently decoded, not-yet-discarded UTF-8 buffer.
func (d *Decoder) Bytes() []byte { return d.buf }

// Discard drops the first n decoded bytes, as the scanner consumes them.
func (d *Decoder) Discard(n int) {
	if n <= 0 {
		return
	}
	copy(d.buf, d.buf[n:])
	d.buf = d.buf[:len(d.buf)-n]
}

// Encoding returns the detected encoding. Valid only once at least one byte
// has been fed (or Finish called).
func (d *Decoder) Encoding() yamlh.Encoding { return d.encoding }

var (
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

func hasPrefix(b, prefix []byte) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == string(prefix)
}

// detectEncoding sniffs the BOM. Longer BOMs are checked first since
// UTF-32LE's BOM is a prefix-compatible false match for UTF-16LE's.
func detectEncoding(raw []byte, finished bool) (enc yamlh.Encoding, bomLen int, ok bool) {
	// UTF-32LE's BOM (FF FE 00 00) is a prefix-superset of UTF-16LE's
	// (FF FE), so the 4-byte encodings must be ruled out first. That
	// needs 4 bytes of lookahead unless input ends sooner.
	if len(raw) < 4 && !finished {
		return 0, 0, false
	}
	if hasPrefix(raw, bomUTF32BE) {
		return yamlh.UTF32BE_ENCODING, 4, true
	}
	if hasPrefix(raw, bomUTF32LE) {
		return yamlh.UTF32LE_ENCODING, 4, true
	}
	if hasPrefix(raw, bomUTF8) {
		return yamlh.UTF8_ENCODING, 3, true
	}
	if hasPrefix(raw, bomUTF16BE) {
		return yamlh.UTF16BE_ENCODING, 2, true
	}
	if hasPrefix(raw, bomUTF16LE) {
		return yamlh.UTF16LE_ENCODING, 2, true
	}
	return yamlh.UTF8_ENCODING, 0, true
}

// Feed appends raw input bytes and decodes as much as currently possible
// into the UTF-8 buffer.
func (d *Decoder) Feed(p []byte) *yamlh.Error {
	if d.err != nil {
		return d.err
	}
	d.raw = append(d.raw, p...)
	d.decode()
	return d.err
}

// Finish signals end of input; any undecodable remainder becomes an
// INVALID error.
func (d *Decoder) Finish() *yamlh.Error {
	if d.err != nil {
		return d.err
	}
	d.finished = true
	d.decode()
	if d.err != nil {
		return d.err
	}
	if len(d.raw) > 0 {
		d.fail("truncated input: %d undecoded byte(s) remain", len(d.raw))
	}
	return d.err
}

func (d *Decoder) fail(format string, args ...interface{}) {
	d.err = yamlh.NewError(yamlh.INVALID, yamlh.Position{}, format, args...)
}

func (d *Decoder) decode() {
	if !d.encodingKnown {
		enc, bomLen, ok := detectEncoding(d.raw, d.finished)
		if !ok {
			return
		}
		d.encoding = enc
		d.encodingKnown = true
		d.raw = d.raw[bomLen:]
	}

	switch d.encoding {
	case yamlh.UTF8_ENCODING:
		d.decodeUTF8()
	case yamlh.UTF16LE_ENCODING, yamlh.UTF16BE_ENCODING:
		d.decodeUTF16()
	case yamlh.UTF32LE_ENCODING, yamlh.UTF32BE_ENCODING:
		d.decodeUTF32()
	}
}

func (d *Decoder) appendRune(value rune) {
	switch {
	case value <= 0x7F:
		d.buf = append(d.buf, byte(value))
	case value <= 0x7FF:
		d.buf = append(d.buf, byte(0xC0+(value>>6)), byte(0x80+(value&0x3F)))
	case value <= 0xFFFF:
		d.buf = append(d.buf, byte(0xE0+(value>>12)), byte(0x80+((value>>6)&0x3F)), byte(0x80+(value&0x3F)))
	default:
		d.buf = append(d.buf, byte(0xF0+(value>>18)), byte(0x80+((value>>12)&0x3F)), byte(0x80+((value>>6)&0x3F)), byte(0x80+(value&0x3F)))
	}
}

func validCodepoint(value rune) bool {
	switch {
	case value == 0x09, value == 0x0A, value == 0x0D:
		return true
	case value >= 0x20 && value <= 0x7E:
		return true
	case value == 0x85:
		return true
	case value >= 0xA0 && value <= 0xD7FF:
		return true
	case value >= 0xE000 && value <= 0xFFFD:
		return true
	case value >= 0x10000 && value <= 0x10FFFF:
		return true
	default:
		return false
	}
}

func (d *Decoder) decodeUTF8() {
	pos := 0
	for pos < len(d.raw) {
		octet := d.raw[pos]
		width := yamlh.Width(octet)
		if width == 0 {
			d.fail("invalid leading UTF-8 octet 0x%02x", octet)
			return
		}
		if width > len(d.raw)-pos {
			if d.finished {
				d.fail("incomplete UTF-8 sequence at end of input")
			}
			break
		}
		var value rune
		switch width {
		case 1:
			value = rune(octet & 0x7F)
		case 2:
			value = rune(octet & 0x1F)
		case 3:
			value = rune(octet & 0x0F)
		case 4:
			value = rune(octet & 0x07)
		}
		for k := 1; k < width; k++ {
			trail := d.raw[pos+k]
			if trail&0xC0 != 0x80 {
				d.fail("invalid trailing UTF-8 octet")
				return
			}
			value = (value << 6) + rune(trail&0x3F)
		}
		if value > 0x10FFFF || (value >= 0xD800 && value <= 0xDFFF) {
			d.fail("invalid Unicode character U+%X", value)
			return
		}
		// The decoded working buffer is always legal UTF-8; we pass
		// the original bytes straight through rather than
		// re-encoding, to avoid needless churn.
		d.buf = append(d.buf, d.raw[pos:pos+width]...)
		pos += width
	}
	d.raw = d.raw[pos:]
}

func (d *Decoder) decodeUTF16() {
	low, high := 0, 1
	if d.encoding == yamlh.UTF16BE_ENCODING {
		low, high = 1, 0
	}
	pos := 0
	for pos+2 <= len(d.raw) {
		unit := rune(d.raw[pos+low]) + rune(d.raw[pos+high])<<8
		width := 2
		var value rune
		if unit&0xFC00 == 0xDC00 {
			d.fail("unexpected low surrogate")
			return
		}
		if unit&0xFC00 == 0xD800 {
			if pos+4 > len(d.raw) {
				if d.finished {
					d.fail("incomplete UTF-16 surrogate pair")
				}
				break
			}
			unit2 := rune(d.raw[pos+2+low]) + rune(d.raw[pos+2+high])<<8
			if unit2&0xFC00 != 0xDC00 {
				d.fail("expected low surrogate")
				return
			}
			value = 0x10000 + ((unit & 0x3FF) << 10) + (unit2 & 0x3FF)
			width = 4
		} else {
			value = unit
		}
		if !validCodepoint(value) {
			d.fail("control character not allowed: U+%X", value)
			return
		}
		d.appendRune(value)
		pos += width
	}
	d.raw = d.raw[pos:]
}

func (d *Decoder) decodeUTF32() {
	pos := 0
	for pos+4 <= len(d.raw) {
		var value rune
		if d.encoding == yamlh.UTF32LE_ENCODING {
			value = rune(d.raw[pos]) | rune(d.raw[pos+1])<<8 | rune(d.raw[pos+2])<<16 | rune(d.raw[pos+3])<<24
		} else {
			value = rune(d.raw[pos+3]) | rune(d.raw[pos+2])<<8 | rune(d.raw[pos+1])<<16 | rune(d.raw[pos])<<24
		}
		if !validCodepoint(value) {
			d.fail("control character not allowed: U+%X", value)
			return
		}
		d.appendRune(value)
		pos += 4
	}
	d.raw = d.raw[pos:]
	if d.finished && len(d.raw) > 0 {
		d.fail("truncated UTF-32 code unit")
	}
}
