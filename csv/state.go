package csv

// state is one of the seven states driving the byte-level tokenizer
//.
type state int8

const (
	startOfRecord state = iota
	startOfField
	unquotedField
	quotedField
	quoteInQuoted
	escapeInQuoted
	comment
	end
)

func (s state) String() string {
	switch s {
	case startOfRecord:
		return "START_OF_RECORD"
	case startOfField:
		return "START_OF_FIELD"
	case unquotedField:
		return "UNQUOTED_FIELD"
	case quotedField:
		return "QUOTED_FIELD"
	case quoteInQuoted:
		return "QUOTE_IN_QUOTED"
	case escapeInQuoted:
		return "ESCAPE_IN_QUOTED"
	case comment:
		return "COMMENT"
	case end:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// EventType is the vocabulary of events a Stream delivers to its callback.
type EventType int8

const (
	RecordBegin EventType = iota
	Field
	RecordEnd
)

func (e EventType) String() string {
	switch e {
	case RecordBegin:
		return "RECORD_BEGIN"
	case Field:
		return "FIELD"
	case RecordEnd:
		return "RECORD_END"
	default:
		return "UNKNOWN"
	}
}

// Callback receives one event at a time. Returning a non-nil error aborts
// the current ProcessChunk call and puts the Stream into the sticky-error
// state.
type Callback func(event EventType, data []byte, pos Position) error
