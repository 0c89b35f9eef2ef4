package csv

// Stream is the CSV streaming state machine. It consumes
// arbitrarily sized byte chunks via ProcessChunk and delivers RecordBegin/
// Field/RecordEnd events to its callback without buffering the whole
// document. A Stream is single-use: once it records an error, it is
// sticky — every later call returns that same error without further side
// effects.
type Stream struct {
	opts Options
	cb   Callback

	state state
	field fieldBuffer

	// fieldStart is the index, within the chunk currently being
	// processed, where the in-flight field's window-mode content begins.
	// Only meaningful while !field.isOwned.
	fieldStart int

	// quotePendingAt is the index of a quote byte whose role (doubled
	// escape vs. true closing quote) has not yet been decided, valid
	// only in the quoteInQuoted state. It is how the field's final
	// content excludes a true closing quote without ever having
	// appended it speculatively.
	quotePendingAt int

	fieldCount int // fields seen so far in the current record
	rowCount   int

	recordBytes int // bytes consumed by the current record
	totalBytes  int

	pos Position
	err *Error

	// justProcessedDoubledQuote and quoteInQuotedAtChunkBoundary mirror
	// the flags a reference byte-level CSV parser uses to recover a
	// doubled-quote decision that straddled a chunk boundary. This
	// design doesn't need them for correctness: doubling is always
	// resolved through the explicit quoteInQuoted state (via
	// quotePendingAt) rather than a single-byte lookahead shortcut that
	// could skip it, so there is no case where QUOTED_FIELD itself must
	// special-case a delimiter as field-end. They are kept as
	// observable state for tests that want to assert the chunk-boundary
	// recovery path was actually exercised.
	justProcessedDoubledQuote    bool
	quoteInQuotedAtChunkBoundary bool

	// bomChecked guards a one-time UTF-8 BOM strip on the first
	// ProcessChunk call. A BOM split across the first two chunks is not
	// recognized; callers needing that should buffer the first few bytes
	// themselves before handing data to the Stream.
	bomChecked bool
}

// NewStream creates a Stream configured by opts, delivering events to cb.
func NewStream(opts Options, cb Callback) *Stream {
	return &Stream{
		opts:  opts,
		cb:    cb,
		state: startOfRecord,
		pos:   Position{Line: 1, Column: 1},
	}
}

// Err returns the sticky error recorded on this Stream, or nil.
func (s *Stream) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

// RowCount reports the number of complete records seen so far.
func (s *Stream) RowCount() int { return s.rowCount }

// Free releases resources held by s. A Stream's only heap state is its
// field buffer, which the garbage collector already reclaims once s is
// unreferenced; Free exists so callers used to a paired start/finish API
// have the symmetric call to make, and so a future owned resource (e.g. a
// pooled buffer) has somewhere to be returned.
func (s *Stream) Free() {
	s.field = fieldBuffer{}
}

func (s *Stream) fail(code Code, format string, args ...interface{}) *Error {
	e := newError(code, s.pos, format, args...)
	s.err = e
	s.state = end
	return e
}

// ProcessChunk feeds the next chunk of input bytes. Chunks need not align
// with any record or field boundary; splitting the same input into chunks
// of any size (including one byte at a time) must produce the same event
// sequence as feeding it all at once.
func (s *Stream) ProcessChunk(data []byte) error {
	if s.err != nil {
		return s.err
	}
	if !s.bomChecked {
		s.bomChecked = true
		if s.opts.Dialect.AllowBOM && len(data) >= 3 &&
			data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
			data = data[3:]
		}
	}
	i := 0
	for i < len(data) {
		if lim := s.opts.Limits.MaxTotalBytes; lim > 0 && s.totalBytes >= lim {
			return s.fail(LIMIT, "total bytes exceed max %d", lim)
		}
		var err *Error
		switch s.state {
		case startOfRecord:
			i, err = s.stepStartOfRecord(data, i)
		case startOfField:
			i, err = s.stepStartOfField(data, i)
		case unquotedField:
			i, err = s.stepUnquotedField(data, i)
		case quotedField:
			i, err = s.stepQuotedField(data, i)
		case quoteInQuoted:
			i, err = s.stepQuoteInQuoted(data, i)
		case escapeInQuoted:
			i, err = s.stepEscapeInQuoted(data, i)
		case comment:
			i, err = s.stepComment(data, i)
		case end:
			return s.err
		}
		if err != nil {
			return err
		}
	}
	// Chunk-boundary protocol: whatever byte would decide the
	// field's fate hasn't arrived yet, so promote to owned storage now,
	// excluding a still-undecided quote from the committed content.
	switch s.state {
	case unquotedField, quotedField:
		s.field.promote(data, s.fieldStart, len(data))
	case quoteInQuoted:
		s.field.promote(data, s.fieldStart, s.quotePendingAt)
		s.quoteInQuotedAtChunkBoundary = true
	case escapeInQuoted:
		s.field.promote(data, s.fieldStart, len(data))
	}
	return nil
}

// Finish signals that no more input is coming: it flushes any in-flight
// unquoted field and closes the last record if it was not newline
// terminated.
func (s *Stream) Finish() error {
	if s.err != nil {
		return s.err
	}
	switch s.state {
	case startOfRecord, comment:
		// nothing pending: a trailing comment line at EOF is not a record
	case quotedField, quoteInQuoted, escapeInQuoted:
		e := newError(INVALID, s.pos, "unterminated quoted field at end of input")
		s.err = e
		s.state = end
		return e
	case startOfField, unquotedField:
		if s.state == startOfField {
			// an empty last field: drop bytes a previous field promoted
			s.field.reset(false)
		}
		if err := s.finishField(nil, 0); err != nil {
			return err
		}
		if err := s.emitRecordEnd(); err != nil {
			return err
		}
	}
	s.state = end
	return nil
}

// newlineLen reports whether data[i] begins a newline sequence recognized
// by this stream (CR, LF, or CRLF) and how many bytes it consumes. CRLF
// always counts as a single logical line advance.
func newlineLen(data []byte, i int) (n int, isNewline bool) {
	switch data[i] {
	case '\n':
		return 1, true
	case '\r':
		if i+1 < len(data) && data[i+1] == '\n' {
			return 2, true
		}
		return 1, true
	default:
		return 0, false
	}
}

// advance moves the position forward by n bytes, optionally crossing one
// logical newline. It is the single place the position counters move;
// overflow is not reachable in practice given Go's int width, but
// MaxTotalBytes is the caller-visible guard against runaway growth.
func (s *Stream) advance(n int, crossesNewline bool) {
	s.pos.Offset += n
	s.totalBytes += n
	s.recordBytes += n
	if crossesNewline {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column += n
	}
}

// advanceRun moves the position across data[from:to], a span that may
// contain embedded newlines (legal inside a quoted field).
func (s *Stream) advanceRun(data []byte, from, to int) {
	i := from
	for i < to {
		if n, isNL := newlineLen(data, i); isNL && i+n <= to {
			s.advance(n, true)
			i += n
			continue
		}
		s.advance(1, false)
		i++
	}
}

func (s *Stream) emit(event EventType, data []byte) *Error {
	if s.cb == nil {
		return nil
	}
	if err := s.cb(event, data, s.pos); err != nil {
		e := newError(STATE, s.pos, "callback error: %v", err)
		s.err = e
		s.state = end
		return e
	}
	return nil
}

func (s *Stream) stepStartOfRecord(data []byte, i int) (int, *Error) {
	b := data[i]
	if s.opts.Dialect.AllowComments && b == s.opts.Dialect.CommentPrefix {
		s.advance(1, false)
		s.state = comment
		return i + 1, nil
	}
	if n, isNL := newlineLen(data, i); isNL {
		s.advance(n, true)
		return i + n, nil
	}
	s.recordBytes = 0
	s.fieldCount = 0
	if err := s.emit(RecordBegin, nil); err != nil {
		return i, err
	}
	s.state = startOfField
	return i, nil
}

func (s *Stream) stepStartOfField(data []byte, i int) (int, *Error) {
	d := s.opts.Dialect
	b := data[i]
	switch {
	case b == d.Quote:
		s.field.reset(true)
		s.advance(1, false)
		s.fieldStart = i + 1
		s.state = quotedField
		return i + 1, nil
	case b == d.Delimiter:
		s.field.reset(false)
		s.fieldStart = i
		if err := s.finishField(data, i); err != nil {
			return i, err
		}
		s.advance(1, false)
		return i + 1, nil
	}
	if n, isNL := newlineLen(data, i); isNL {
		s.field.reset(false)
		s.fieldStart = i
		if err := s.finishField(data, i); err != nil {
			return i, err
		}
		s.advance(n, true)
		if err := s.emitRecordEnd(); err != nil {
			return i, err
		}
		s.state = startOfRecord
		return i + n, nil
	}
	s.field.reset(false)
	s.fieldStart = i
	s.state = unquotedField
	return i, nil
}

// scanUnquotedRun returns the index of the next structural byte (delimiter,
// CR, LF, or an unescaped quote) starting at i, or len(data) if none
// appears in the rest of the chunk. This is the bulk fast path for
// unquoted fields: a single linear scan instead of a handler dispatch
// per byte.
func (s *Stream) scanUnquotedRun(data []byte, i int) int {
	d := s.opts.Dialect
	for j := i; j < len(data); j++ {
		b := data[j]
		if b == d.Delimiter || b == '\r' || b == '\n' {
			return j
		}
		if b == d.Quote && !d.AllowUnquotedQuotes {
			return j
		}
	}
	return len(data)
}

func (s *Stream) curFieldLen(cursor int) int {
	if s.field.isOwned {
		return len(s.field.owned)
	}
	return cursor - s.fieldStart
}

func (s *Stream) stepUnquotedField(data []byte, i int) (int, *Error) {
	d := s.opts.Dialect
	stop := s.scanUnquotedRun(data, i)

	if lim := s.opts.Limits.MaxFieldBytes; lim > 0 {
		if over := s.curFieldLen(stop) - lim; over > 0 {
			stop -= over
			if s.field.isOwned {
				s.field.appendOwned(data[i:stop])
			}
			s.advance(stop-i, false)
			return stop, s.failField(LIMIT, "field exceeds max field bytes %d", lim)
		}
	}
	if s.field.isOwned && stop > i {
		s.field.appendOwned(data[i:stop])
	}
	s.advance(stop-i, false)
	i = stop
	if i >= len(data) {
		return i, nil // chunk exhausted; ProcessChunk promotes to owned
	}

	b := data[i]
	if b == d.Quote {
		return i, s.failField(UNEXPECTED_QUOTE, "unquoted field contains quote character")
	}
	if n, isNL := newlineLen(data, i); isNL {
		// By default a newline ends the field and the record, the RFC
		// 4180 record separator. AllowUnquotedNewlines switches to the
		// permissive reading where an unquoted field may itself contain
		// a literal newline instead of being terminated by one.
		if d.AllowUnquotedNewlines {
			if s.field.isOwned {
				s.field.appendOwned(data[i : i+n])
			}
			s.advance(n, true)
			return i + n, nil
		}
		if err := s.finishField(data, i); err != nil {
			return i, err
		}
		s.advance(n, true)
		if err := s.emitRecordEnd(); err != nil {
			return i, err
		}
		s.state = startOfRecord
		return i + n, nil
	}
	if b == d.Delimiter {
		if err := s.finishField(data, i); err != nil {
			return i, err
		}
		s.advance(1, false)
		s.state = startOfField
		return i + 1, nil
	}
	// Unreachable: scanUnquotedRun only stops at bytes handled above.
	return i, nil
}

func (s *Stream) stepQuotedField(data []byte, i int) (int, *Error) {
	d := s.opts.Dialect
	j := i
	for j < len(data) {
		b := data[j]
		if b == d.Quote || (b == '\\' && d.EscapeMode == Backslash) {
			break
		}
		j++
	}
	if lim := s.opts.Limits.MaxFieldBytes; lim > 0 {
		if over := s.curFieldLen(j) - lim; over > 0 {
			j -= over
			if s.field.isOwned {
				s.field.appendOwned(data[i:j])
			}
			s.advanceRun(data, i, j)
			return j, s.failField(LIMIT, "field exceeds max field bytes %d", lim)
		}
	}
	if s.field.isOwned && j > i {
		s.field.appendOwned(data[i:j])
	}
	s.advanceRun(data, i, j)
	i = j
	if i >= len(data) {
		return i, nil // chunk exhausted; ProcessChunk promotes to owned
	}

	if data[i] == d.Quote {
		s.quotePendingAt = i
		s.advance(1, false)
		s.state = quoteInQuoted
		return i + 1, nil
	}
	// backslash escape lead-in
	if s.field.isOwned {
		s.field.appendOwned(data[i : i+1])
	}
	s.advance(1, false)
	s.state = escapeInQuoted
	return i + 1, nil
}

func (s *Stream) stepQuoteInQuoted(data []byte, i int) (int, *Error) {
	d := s.opts.Dialect
	b := data[i]
	switch {
	case b == d.Quote:
		// Doubled-quote escape: a literal quote byte. The pending quote
		// was never appended; append both copies now so later unescape
		// collapses the pair to one.
		s.field.needsUnescape = true
		if s.field.isOwned {
			s.field.appendOwned([]byte{d.Quote, d.Quote})
		}
		s.justProcessedDoubledQuote = true
		s.advance(1, false)
		s.state = quotedField
		return i + 1, nil
	case b == d.Delimiter:
		if err := s.finishField(data, s.quotePendingAt); err != nil {
			return i, err
		}
		s.advance(1, false)
		s.state = startOfField
		return i + 1, nil
	}
	if n, isNL := newlineLen(data, i); isNL {
		if err := s.finishField(data, s.quotePendingAt); err != nil {
			return i, err
		}
		s.advance(n, true)
		if err := s.emitRecordEnd(); err != nil {
			return i, err
		}
		s.state = startOfRecord
		return i + n, nil
	}
	return i, s.failField(INVALID, "quote must be followed by quote, delimiter, or newline")
}

func (s *Stream) stepEscapeInQuoted(data []byte, i int) (int, *Error) {
	d := s.opts.Dialect
	b := data[i]
	switch b {
	case 'n', 'r', 't', '\\':
	default:
		if b != d.Quote {
			return i, s.failField(INVALID_ESCAPE, "invalid escape sequence \\%c", b)
		}
	}
	s.field.needsUnescape = true
	if s.field.isOwned {
		s.field.appendOwned(data[i : i+1])
	}
	s.advance(1, false)
	s.state = quotedField
	return i + 1, nil
}

func (s *Stream) stepComment(data []byte, i int) (int, *Error) {
	j := i
	for j < len(data) && data[j] != '\r' && data[j] != '\n' {
		j++
	}
	s.advance(j-i, false)
	if j >= len(data) {
		return j, nil
	}
	n, _ := newlineLen(data, j)
	s.advance(n, true)
	s.state = startOfRecord
	return j + n, nil
}

// finishField finalizes the field as data[s.fieldStart:fieldEnd] (or the
// owned buffer, if promoted), unescaping if needed, and emits FIELD.
func (s *Stream) finishField(data []byte, fieldEnd int) *Error {
	raw := s.field.finalBytes(data, s.fieldStart, fieldEnd)
	var out []byte
	if s.field.needsUnescape {
		unescaped, err := unescapeField(s.opts.Dialect.EscapeMode, s.opts.Dialect.Quote, raw)
		if err != nil {
			e := err.(*Error)
			e.Pos = s.pos
			s.err = e
			s.state = end
			return e
		}
		out = unescaped
	} else {
		out = raw
	}

	s.fieldCount++
	if lim := s.opts.Limits.MaxCols; lim > 0 && s.fieldCount > lim {
		e := newError(TOO_MANY_COLS, s.pos, "record exceeds max columns %d", lim)
		s.err = e
		s.state = end
		return e
	}
	if lim := s.opts.Limits.MaxRecordBytes; lim > 0 && s.recordBytes > lim {
		e := newError(LIMIT, s.pos, "record exceeds max record bytes %d", lim)
		s.err = e
		s.state = end
		return e
	}
	if err := s.emit(Field, out); err != nil {
		return err
	}
	s.justProcessedDoubledQuote = false
	s.quoteInQuotedAtChunkBoundary = false
	return nil
}

func (s *Stream) emitRecordEnd() *Error {
	if err := s.emit(RecordEnd, nil); err != nil {
		return err
	}
	s.rowCount++
	return nil
}

// failField records err as the stream's sticky error. No FIELD event is
// emitted for a field that fails.
func (s *Stream) failField(code Code, format string, args ...interface{}) *Error {
	e := newError(code, s.pos, format, args...)
	s.err = e
	s.state = end
	return e
}
