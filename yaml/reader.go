package yaml

import (
	"io"

	"github.com/coreyp1/text/internal/eventstream"
	"github.com/coreyp1/text/internal/scanner"
	"github.com/coreyp1/text/internal/yamlh"
)

// EventReader exposes the raw scanner/event-stream pipeline directly, for
// callers that want pull-mode Events (SAX-style) instead of a built
// Document. Parse/ParseAll cover the complementary case: run the whole
// pipeline to completion and hand back a built tree.
type EventReader struct {
	es *eventstream.EventStream
}

// NewEventReader creates a reader backed by a fresh scanner/event-stream
// pair. Feed it input with Feed/Finish the way Stream is fed, then drain
// events with Next until io.EOF.
func NewEventReader(maxAliasEvents int) *EventReader {
	s := scanner.New()
	return &EventReader{es: eventstream.New(s, maxAliasEvents)}
}

// Feed appends p to the reader's input.
func (r *EventReader) Feed(p []byte) error { return r.es.Feed(p) }

// Finish signals that no more input is coming.
func (r *EventReader) Finish() error { return r.es.Finish() }

// Next returns the next Event, or io.EOF once the stream is exhausted.
// Each returned Event is a fresh value independent of any previous one
// returned by this reader; there's no shared buffer to invalidate between
// calls.
func (r *EventReader) Next() (*yamlh.Event, error) {
	ev, err := r.es.Next()
	if err != nil {
		return nil, err
	}
	if ev.Type == yamlh.NO_EVENT {
		return nil, io.EOF
	}
	return ev, nil
}
