// Package eventstream turns the scanner's Tokens into the higher-level
// Event vocabulary the DOM builder consumes: stream/document boundaries,
// flow collection start/end (unambiguous from '[' '{' ']' '}' tokens),
// scalars, aliases, directives, and a pass-through INDICATOR event for the
// block-structure characters (':', '-', '?') that only the DOM builder,
// tracking indentation, can turn into block SEQUENCE/MAPPING start/end.
//
// A libyaml-style parser builds sequence/mapping *events* directly because
// its scanner already tracks block indentation itself (see its
// "stream ::= STREAM-START implicit_document? ..." production). This
// implementation moves that responsibility one layer up into the DOM
// builder instead, and keeps the event stream a thin, stateless-per-node
// Token-to-Event translator with anchor/tag "pending slot" decoration.
package eventstream

import (
	"github.com/coreyp1/text/internal/scanner"
	"github.com/coreyp1/text/internal/yamlh"
)

const maxCollectionDepth = 256

// awaiting names what kind of name-scalar token the stream is in the
// middle of collecting, after having already consumed the '&' or '*'
// indicator that announced it. Because that consumption and the
// following scanner.Next() call are not atomic across a Feed boundary,
// this state has to survive on the EventStream itself rather than live
// on the Go call stack, so a resumed call to Next() picks up exactly
// where the previous one left off instead of losing the indicator.
type awaiting int8

const (
	awaitingNothing awaiting = iota
	awaitingAnchorName
	awaitingAliasName
)

// EventStream pulls Events out of a Scanner.
type EventStream struct {
	scanner *scanner.Scanner

	streamStarted bool
	streamEnded   bool

	pendingAnchor    []byte
	pendingAnchorPos yamlh.Position
	pendingTag       []byte

	awaiting    awaiting
	awaitingPos yamlh.Position

	collectionDepth int
	aliasEvents     int
	maxAliasEvents  int
}

// New wraps a Scanner. maxAliasEvents bounds how many ALIAS_EVENTs a single
// stream may emit before failing with LIMIT; 0 means unbounded.
func New(s *scanner.Scanner, maxAliasEvents int) *EventStream {
	return &EventStream{scanner: s, maxAliasEvents: maxAliasEvents}
}

// Feed and Finish simply forward to the underlying scanner; Events are only
// produced by Next, on demand, which is what makes this layer usable in
// both a fully-buffered "feed everything, then drain" sync style and an
// incrementally-fed async style — the choice lives entirely in how the
// caller interleaves Feed/Finish with Next, not in this type.
func (es *EventStream) Feed(p []byte) error { return es.scanner.Feed(p) }
func (es *EventStream) Finish() error       { return es.scanner.Finish() }

// Next returns the next Event, or scanner.ErrIncomplete if more input is
// needed before the next event can be produced.
func (es *EventStream) Next() (*yamlh.Event, error) {
	if !es.streamStarted {
		es.streamStarted = true
		return &yamlh.Event{Type: yamlh.STREAM_START_EVENT}, nil
	}
	for {
		if es.awaiting != awaitingNothing {
			ev, emit, err := es.resolveAwaitedName()
			if err != nil {
				return nil, err
			}
			if emit {
				return ev, nil
			}
			continue
		}

		tok, err := es.scanner.Next()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case yamlh.TOKEN_EOF:
			if es.streamEnded {
				return &yamlh.Event{Type: yamlh.NO_EVENT, Pos: tok.Pos}, nil
			}
			es.streamEnded = true
			return &yamlh.Event{Type: yamlh.STREAM_END_EVENT, Pos: tok.Pos}, nil

		case yamlh.TOKEN_DOCUMENT_START:
			es.pendingAnchor, es.pendingTag = nil, nil
			es.awaiting = awaitingNothing
			return &yamlh.Event{Type: yamlh.DOCUMENT_START_EVENT, Pos: tok.Pos}, nil

		case yamlh.TOKEN_DOCUMENT_END:
			return &yamlh.Event{Type: yamlh.DOCUMENT_END_EVENT, Pos: tok.Pos}, nil

		case yamlh.TOKEN_DIRECTIVE:
			return &yamlh.Event{
				Type:          yamlh.DIRECTIVE_EVENT,
				Pos:           tok.Pos,
				DirectiveName: string(tok.Scalar),
				DirectiveArgs: tok.DirectiveArgs,
			}, nil

		case yamlh.TOKEN_SCALAR:
			ev := &yamlh.Event{Type: yamlh.SCALAR_EVENT, Pos: tok.Pos, End: tok.End, Scalar: tok.Scalar, ScalarStyle: tok.Style}
			es.decorate(ev)
			return ev, nil

		case yamlh.TOKEN_INDICATOR:
			ev, emit, err := es.handleIndicator(tok)
			if err != nil {
				return nil, err
			}
			if !emit {
				continue
			}
			return ev, nil
		}
	}
}

func (es *EventStream) decorate(ev *yamlh.Event) {
	ev.Anchor, es.pendingAnchor = es.pendingAnchor, nil
	ev.AnchorPos, es.pendingAnchorPos = es.pendingAnchorPos, yamlh.Position{}
	ev.Tag, es.pendingTag = es.pendingTag, nil
}

func (es *EventStream) handleIndicator(tok *yamlh.Token) (*yamlh.Event, bool, error) {
	switch tok.Char {
	case yamlh.IndicatorAnchor:
		es.awaiting = awaitingAnchorName
		es.awaitingPos = tok.Pos
		return nil, false, nil

	case yamlh.IndicatorAlias:
		es.awaiting = awaitingAliasName
		es.awaitingPos = tok.Pos
		return nil, false, nil

	case yamlh.IndicatorTag:
		es.pendingTag = tok.Scalar
		return nil, false, nil

	case yamlh.IndicatorFlowSeqStart:
		if err := es.pushCollection(tok.Pos); err != nil {
			return nil, false, err
		}
		ev := &yamlh.Event{Type: yamlh.SEQUENCE_START_EVENT, Pos: tok.Pos, Style: yamlh.FlowStyle}
		es.decorate(ev)
		return ev, true, nil

	case yamlh.IndicatorFlowMapStart:
		if err := es.pushCollection(tok.Pos); err != nil {
			return nil, false, err
		}
		ev := &yamlh.Event{Type: yamlh.MAPPING_START_EVENT, Pos: tok.Pos, Style: yamlh.FlowStyle}
		es.decorate(ev)
		return ev, true, nil

	case yamlh.IndicatorFlowSeqEnd:
		es.popCollection()
		return &yamlh.Event{Type: yamlh.SEQUENCE_END_EVENT, Pos: tok.Pos}, true, nil

	case yamlh.IndicatorFlowMapEnd:
		es.popCollection()
		return &yamlh.Event{Type: yamlh.MAPPING_END_EVENT, Pos: tok.Pos}, true, nil

	case yamlh.IndicatorFlowEntry:
		return nil, false, nil

	default:
		// ':', '-', '?': forwarded verbatim for the DOM builder's
		// indentation-driven block-context inference.
		return &yamlh.Event{Type: yamlh.INDICATOR_EVENT, Pos: tok.Pos, Char: tok.Char}, true, nil
	}
}

func (es *EventStream) pushCollection(pos yamlh.Position) error {
	if es.collectionDepth >= maxCollectionDepth {
		return yamlh.NewError(yamlh.DEPTH, pos, "collection nesting exceeds maximum depth %d", maxCollectionDepth)
	}
	es.collectionDepth++
	return nil
}

func (es *EventStream) popCollection() {
	if es.collectionDepth > 0 {
		es.collectionDepth--
	}
}

// resolveAwaitedName pulls the token immediately following an already-
// consumed anchor/alias indicator, which the scanner always tokenizes as
// a plain scalar (anchor and alias names cannot contain flow indicators
// or whitespace). It is called instead of being inlined into
// handleIndicator so that an ErrIncomplete here — the name hasn't arrived
// in this Feed yet — leaves es.awaiting set and simply returns the error;
// the next call to Next() re-enters here first, rather than falling into
// the generic token dispatch and losing track of the indicator.
func (es *EventStream) resolveAwaitedName() (*yamlh.Event, bool, error) {
	tok, err := es.scanner.Next()
	if err != nil {
		return nil, false, err
	}
	if tok.Kind != yamlh.TOKEN_SCALAR {
		es.awaiting = awaitingNothing
		return nil, false, yamlh.NewError(yamlh.BAD_TOKEN, tok.Pos, "expected an anchor or alias name, found %s", tok.Kind)
	}

	kind, pos := es.awaiting, es.awaitingPos
	es.awaiting = awaitingNothing

	switch kind {
	case awaitingAnchorName:
		es.pendingAnchor = tok.Scalar
		es.pendingAnchorPos = pos
		return nil, false, nil

	case awaitingAliasName:
		es.aliasEvents++
		if es.maxAliasEvents > 0 && es.aliasEvents > es.maxAliasEvents {
			return nil, false, yamlh.NewError(yamlh.LIMIT, pos, "alias event count exceeds limit %d", es.maxAliasEvents)
		}
		return &yamlh.Event{Type: yamlh.ALIAS_EVENT, Pos: pos, AliasName: tok.Scalar}, true, nil

	default:
		return nil, false, nil
	}
}
