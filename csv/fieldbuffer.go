package csv

// fieldBuffer holds a single field's bytes in whichever storage is
// cheapest. Two complementary modes share one struct instead of an
// interface: while !isOwned, the field has committed no bytes of its own
// at all — its true content is some contiguous range of the *caller's
// current chunk*, tracked by the Stream as (fieldStart, end) and only
// materialized into a slice at the moment it is actually needed (field
// emission, or a chunk boundary forcing promotion). Once isOwned, every
// byte the field gains is appended explicitly, because an owned field's
// bytes no longer live in one contiguous caller buffer.
type fieldBuffer struct {
	owned []byte

	isOwned       bool
	isQuoted      bool
	needsUnescape bool
}

// reset begins a new field. Any previously owned allocation is kept (its
// length truncated to zero) so the next field that needs to be buffered
// can reuse it without allocating.
func (f *fieldBuffer) reset(quoted bool) {
	f.owned = f.owned[:0]
	f.isOwned = false
	f.isQuoted = quoted
	f.needsUnescape = false
}

// grow ensures the owned buffer has capacity for at least needed bytes.
// The growth policy: first allocation is max(needed, 64), then +64 while
// under 1 KiB, then doubling, with a fallback to exactly what's needed if
// doubling would overflow.
func (f *fieldBuffer) grow(needed int) {
	cap0 := cap(f.owned)
	if cap0 >= needed {
		return
	}
	const firstMin = 64
	const doublingThreshold = 1024
	newCap := cap0
	if newCap == 0 {
		newCap = firstMin
		if needed > newCap {
			newCap = needed
		}
	}
	for newCap < needed {
		if newCap < doublingThreshold {
			newCap += firstMin
			continue
		}
		if newCap > (int(^uint(0)>>1))/2 {
			newCap = needed
			break
		}
		newCap *= 2
	}
	buf := make([]byte, len(f.owned), newCap)
	copy(buf, f.owned)
	f.owned = buf
}

// appendOwned appends p to the owned buffer. Only meaningful once isOwned
// is true; callers in window mode never call this, since window-mode
// content is derived lazily from the caller's chunk instead.
func (f *fieldBuffer) appendOwned(p []byte) {
	if len(p) == 0 {
		return
	}
	f.grow(len(f.owned) + len(p))
	f.owned = append(f.owned, p...)
}

// promote copies data[start:end] into the owned buffer and switches the
// field to owned mode. It is a no-op if already owned. This is the
// "essential correctness invariant" the chunk-boundary protocol relies on
//: called whenever a chunk ends mid-field, so bytes already
// seen survive into the next ProcessChunk call.
func (f *fieldBuffer) promote(data []byte, start, end int) {
	if f.isOwned {
		return
	}
	f.isOwned = true
	if end <= start {
		return
	}
	f.grow(end - start)
	f.owned = append(f.owned[:0], data[start:end]...)
}

// finalBytes returns the field's content as of the moment it is emitted:
// the owned buffer if promoted, or data[start:end] if the field never
// left window mode (the zero-copy path).
func (f *fieldBuffer) finalBytes(data []byte, start, end int) []byte {
	if f.isOwned {
		return f.owned
	}
	if end <= start {
		return nil
	}
	return data[start:end]
}

// unescapeField returns raw's bytes with doubled-quote and/or backslash
// escapes collapsed, per mode. It never mutates raw; the result is a fresh
// slice handed straight to the event callback.
func unescapeField(mode EscapeMode, quote byte, raw []byte) ([]byte, error) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		switch mode {
		case DoubledQuote:
			if b == quote && i+1 < len(raw) && raw[i+1] == quote {
				out = append(out, quote)
				i++
				continue
			}
			out = append(out, b)
		case Backslash:
			if b == '\\' && i+1 < len(raw) {
				i++
				switch raw[i] {
				case 'n':
					out = append(out, '\n')
				case 'r':
					out = append(out, '\r')
				case 't':
					out = append(out, '\t')
				case '\\':
					out = append(out, '\\')
				case quote:
					out = append(out, quote)
				default:
					return nil, newError(INVALID_ESCAPE, Position{}, "invalid escape sequence \\%c", raw[i])
				}
				continue
			}
			out = append(out, b)
		}
	}
	return out, nil
}
