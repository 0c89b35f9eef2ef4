package yaml

import "github.com/coreyp1/text/internal/yamlh"

// Stream lets a caller feed a YAML document in chunks of arbitrary size,
// mirroring the chunked-feeding API the scanner and event stream support
// underneath. Document construction itself is still a batch step: Finish
// buffers everything fed so far and runs ParseAll over the whole thing, per
// the DOM builder's batch-only scope decision.
type Stream struct {
	opts Options
	buf  []byte
	done bool
}

// NewStream creates a Stream that will parse with opts once Finish is
// called.
func NewStream(opts Options) *Stream {
	return &Stream{opts: opts}
}

// Feed appends p to the buffered input. It never itself returns a parse
// error; malformed input is only detected in Finish, since the DOM layer
// cannot validate a document before it has seen all of it.
func (s *Stream) Feed(p []byte) error {
	if s.done {
		return ErrStreamFinished
	}
	s.buf = append(s.buf, p...)
	return nil
}

// Finish parses every document fed so far and marks the Stream unusable for
// further Feed calls.
func (s *Stream) Finish() ([]*Document, error) {
	if s.done {
		return nil, ErrStreamFinished
	}
	s.done = true
	return ParseAll(s.buf, s.opts)
}

// ErrStreamFinished is returned by Feed or Finish once Finish has already
// been called.
var ErrStreamFinished = &Error{}

func init() {
	*ErrStreamFinished = *NewError(INVALID, yamlh.Position{}, "yaml: stream already finished")
}
