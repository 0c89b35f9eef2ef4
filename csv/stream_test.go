package csv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	typ  EventType
	data string
}

// runChunked feeds input through a Stream split into chunks of chunkSize
// bytes (or as a single chunk when chunkSize <= 0), recording every event
// delivered to the callback.
func runChunked(t *testing.T, opts Options, input []byte, chunkSize int) ([]recordedEvent, *Stream) {
	t.Helper()
	var events []recordedEvent
	s := NewStream(opts, func(event EventType, data []byte, pos Position) error {
		events = append(events, recordedEvent{typ: event, data: string(data)})
		return nil
	})
	if chunkSize <= 0 {
		if err := s.ProcessChunk(input); err != nil {
			require.Equal(t, s.Err(), err)
			return events, s
		}
	} else {
		for i := 0; i < len(input); i += chunkSize {
			end := i + chunkSize
			if end > len(input) {
				end = len(input)
			}
			if err := s.ProcessChunk(input[i:end]); err != nil {
				return events, s
			}
		}
	}
	s.Finish()
	return events, s
}

func TestDoubledQuoteAcrossChunks(t *testing.T) {
	// Input split as `"he"` + `"llo",world\n`.
	opts := DefaultOptions()
	var events []recordedEvent
	s2 := NewStream(opts, func(event EventType, data []byte, pos Position) error {
		events = append(events, recordedEvent{typ: event, data: string(data)})
		return nil
	})
	require.NoError(t, s2.ProcessChunk([]byte(`"he"`)))
	require.NoError(t, s2.ProcessChunk([]byte(`"llo",world`+"\n")))
	require.NoError(t, s2.Finish())

	require.Equal(t, []recordedEvent{
		{RecordBegin, ""},
		{Field, `he"llo`},
		{Field, "world"},
		{RecordEnd, ""},
	}, events)
	require.Equal(t, 1, s2.RowCount())
}

func TestDoubledQuoteOneByteChunks(t *testing.T) {
	input := []byte(`"he""llo",world` + "\n")
	events, s := runChunked(t, DefaultOptions(), input, 1)
	require.NoError(t, s.Err())
	require.Equal(t, []recordedEvent{
		{RecordBegin, ""},
		{Field, `he"llo`},
		{Field, "world"},
		{RecordEnd, ""},
	}, events)
}

func TestCRLFTrailingEmptyField(t *testing.T) {
	events, s := runChunked(t, DefaultOptions(), []byte("a,,b\r\n"), 0)
	require.NoError(t, s.Err())
	require.Equal(t, []recordedEvent{
		{RecordBegin, ""},
		{Field, "a"},
		{Field, ""},
		{Field, "b"},
		{RecordEnd, ""},
	}, events)
	require.Equal(t, 2, s.pos.Line)
}

func TestFieldExceedsMaxFieldBytes(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxFieldBytes = 4
	events, s := runChunked(t, opts, []byte("abcde,"), 0)
	require.Error(t, s.Err())
	var cerr *Error
	require.ErrorAs(t, s.Err(), &cerr)
	require.Equal(t, LIMIT, cerr.Code)
	for _, e := range events {
		require.NotEqual(t, Field, e.typ)
	}
}

func TestChunkingInvariance(t *testing.T) {
	input := []byte("a,\"b,c\"\nd,\"e\"\"f\",g\n# a comment\nh,i\n")
	opts := DefaultOptions()
	opts.Dialect.AllowComments = true
	opts.Dialect.CommentPrefix = '#'

	whole, sWhole := runChunked(t, opts, input, 0)
	require.NoError(t, sWhole.Err())

	for size := 1; size <= len(input); size++ {
		chunked, s := runChunked(t, opts, input, size)
		require.NoErrorf(t, s.Err(), "chunk size %d", size)
		require.Equalf(t, whole, chunked, "chunk size %d", size)
	}
}

func TestStickyError(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxFieldBytes = 2
	s := NewStream(opts, func(EventType, []byte, Position) error { return nil })
	err := s.ProcessChunk([]byte("abc,d\n"))
	require.Error(t, err)
	// Further calls return the same sticky error without side effects.
	err2 := s.ProcessChunk([]byte("more,data\n"))
	require.Equal(t, err, err2)
	err3 := s.Finish()
	require.Equal(t, err, err3)
}

func TestUnquotedQuoteRejectedByDefault(t *testing.T) {
	_, s := runChunked(t, DefaultOptions(), []byte(`a"b,c`+"\n"), 0)
	require.Error(t, s.Err())
	var cerr *Error
	require.ErrorAs(t, s.Err(), &cerr)
	require.Equal(t, UNEXPECTED_QUOTE, cerr.Code)
}

func TestAllowUnquotedQuotes(t *testing.T) {
	opts := DefaultOptions()
	opts.Dialect.AllowUnquotedQuotes = true
	events, s := runChunked(t, opts, []byte(`a"b,c`+"\n"), 0)
	require.NoError(t, s.Err())
	require.Equal(t, []recordedEvent{
		{RecordBegin, ""},
		{Field, `a"b`},
		{Field, "c"},
		{RecordEnd, ""},
	}, events)
}

func TestCommentLine(t *testing.T) {
	opts := DefaultOptions()
	opts.Dialect.AllowComments = true
	opts.Dialect.CommentPrefix = '#'
	events, s := runChunked(t, opts, []byte("# a comment\na,b\n"), 0)
	require.NoError(t, s.Err())
	require.Equal(t, []recordedEvent{
		{RecordBegin, ""},
		{Field, "a"},
		{Field, "b"},
		{RecordEnd, ""},
	}, events)
}

func TestCommentLinesDoNotCountAsRows(t *testing.T) {
	opts := DefaultOptions()
	opts.Dialect.AllowComments = true
	opts.Dialect.CommentPrefix = '#'
	_, s := runChunked(t, opts, []byte("# one\n# two\na,b\n# trailing\n"), 0)
	require.NoError(t, s.Err())
	require.Equal(t, 1, s.RowCount())
}

func TestTrailingCommentWithoutNewlineDoesNotCountAsRow(t *testing.T) {
	opts := DefaultOptions()
	opts.Dialect.AllowComments = true
	opts.Dialect.CommentPrefix = '#'
	_, s := runChunked(t, opts, []byte("a,b\n# no trailing newline"), 0)
	require.NoError(t, s.Err())
	require.Equal(t, 1, s.RowCount())
}

func TestBackslashEscapeMode(t *testing.T) {
	opts := DefaultOptions()
	opts.Dialect.EscapeMode = Backslash
	events, s := runChunked(t, opts, []byte(`"a\"b",c`+"\n"), 0)
	require.NoError(t, s.Err())
	require.Equal(t, []recordedEvent{
		{RecordBegin, ""},
		{Field, `a"b`},
		{Field, "c"},
		{RecordEnd, ""},
	}, events)
}

func TestInvalidEscapeSequence(t *testing.T) {
	opts := DefaultOptions()
	opts.Dialect.EscapeMode = Backslash
	_, s := runChunked(t, opts, []byte(`"a\qb"`+"\n"), 0)
	require.Error(t, s.Err())
	var cerr *Error
	require.ErrorAs(t, s.Err(), &cerr)
	require.Equal(t, INVALID_ESCAPE, cerr.Code)
}

func TestRoundTripNoEscapes(t *testing.T) {
	// Testable property 6: a well-formed CSV with no escapes, rejoined
	// by the dialect delimiter and newline, equals the original.
	input := "alpha,beta,gamma\none,two,three\n"
	opts := DefaultOptions()
	var records [][]string
	var cur []string
	s := NewStream(opts, func(event EventType, data []byte, pos Position) error {
		switch event {
		case Field:
			cur = append(cur, string(data))
		case RecordEnd:
			records = append(records, cur)
			cur = nil
		}
		return nil
	})
	require.NoError(t, s.ProcessChunk([]byte(input)))
	require.NoError(t, s.Finish())

	var out string
	for _, rec := range records {
		for i, f := range rec {
			if i > 0 {
				out += ","
			}
			out += f
		}
		out += "\n"
	}
	require.Equal(t, input, out)
}

func TestEmptyLinesSkippedAtStartOfRecord(t *testing.T) {
	events, s := runChunked(t, DefaultOptions(), []byte("\n\na,b\n"), 0)
	require.NoError(t, s.Err())
	require.Equal(t, []recordedEvent{
		{RecordBegin, ""},
		{Field, "a"},
		{Field, "b"},
		{RecordEnd, ""},
	}, events)
}

func TestFinishFlushesUnterminatedLastRecord(t *testing.T) {
	events, s := runChunked(t, DefaultOptions(), []byte("a,b,c"), 0)
	require.NoError(t, s.Err())
	require.Equal(t, []recordedEvent{
		{RecordBegin, ""},
		{Field, "a"},
		{Field, "b"},
		{Field, "c"},
		{RecordEnd, ""},
	}, events)
}

func TestUnterminatedQuotedFieldAtEOF(t *testing.T) {
	_, s := runChunked(t, DefaultOptions(), []byte(`"abc`), 0)
	require.Error(t, s.Err())
	var cerr *Error
	require.ErrorAs(t, s.Err(), &cerr)
	require.Equal(t, INVALID, cerr.Code)
}

func TestCallbackErrorAborts(t *testing.T) {
	opts := DefaultOptions()
	callCount := 0
	s := NewStream(opts, func(event EventType, data []byte, pos Position) error {
		callCount++
		if event == Field && string(data) == "b" {
			return errStop
		}
		return nil
	})
	err := s.ProcessChunk([]byte("a,b,c\n"))
	require.Error(t, err)
	calls := callCount
	// Sticky: no further events delivered.
	require.NoError(t, func() error {
		_ = s.ProcessChunk([]byte("more\n"))
		return nil
	}())
	require.Equal(t, calls, callCount)
}

func TestAllowBOMStripped(t *testing.T) {
	opts := DefaultOptions()
	opts.Dialect.AllowBOM = true
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n")...)
	events, s := runChunked(t, opts, input, 0)
	require.NoError(t, s.Err())
	require.Equal(t, []recordedEvent{
		{RecordBegin, ""},
		{Field, "a"},
		{Field, "b"},
		{RecordEnd, ""},
	}, events)
}

func TestBOMNotStrippedByDefault(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n")...)
	events, s := runChunked(t, DefaultOptions(), input, 0)
	require.NoError(t, s.Err())
	require.Equal(t, string([]byte{0xEF, 0xBB, 0xBF})+"a", events[1].data)
}

var errStop = &Error{Code: STATE, Message: "stop"}
