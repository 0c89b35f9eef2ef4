// The DOM builder: a stack-driven tree construction pass over an Event
// sequence. Flow collections are unambiguous from the event stream's own
// SEQUENCE/MAPPING start/end events; block collections have no bracketing
// event, so this layer infers them from the column at which a block-entry
// ('-') or mapping-value (':') INDICATOR_EVENT appears.
//
// The recursive node()/parseChild() shape mirrors a classic YAML decoder's
// parser struct (init/expect/peek/parse/node/parseChild/document/alias,
// plus an anchors map with deferred node indirection for aliases), rebuilt
// around an arena-owned Node tree instead of populating a reflect-driven Go
// value, and around three schemas instead of one implicit resolver.
//
// Scope decision: tree construction is a batch operation over a fully
// buffered Event sequence (the caller must Feed all input and call Finish
// before building), unlike the scanner and event stream, which are
// incrementally resumable. Most YAML libraries in this ecosystem make the
// same call — only the lower, byte-oriented layers need to support partial
// input.
package yaml

import (
	"github.com/coreyp1/text/internal/arena"
	"github.com/coreyp1/text/internal/eventstream"
	"github.com/coreyp1/text/internal/resolve"
	"github.com/coreyp1/text/internal/scanner"
	"github.com/coreyp1/text/internal/yamlh"
)

// pendingAlias records an alias encountered before its anchor target was
// seen. placeholder is the Node already linked into the tree (as a child,
// a mapping value, or a sequence element); once the real anchor is known,
// its fields are copied onto placeholder in place, so every other pointer
// to it already threaded through the tree updates for free.
type pendingAlias struct {
	placeholder *Node
	name        string
	pos         yamlh.Position
}

type builder struct {
	es      *eventstream.EventStream
	pending []*yamlh.Event

	opts Options
	a    *arena.Arena

	anchors        map[string]*Node
	pendingAliases []pendingAlias
	depth          int
}

func newBuilder(opts Options, a *arena.Arena) *builder {
	return &builder{opts: opts, a: a, anchors: make(map[string]*Node)}
}

func (b *builder) fill(n int) error {
	for len(b.pending) <= n {
		ev, err := b.es.Next()
		if err != nil {
			return err
		}
		b.pending = append(b.pending, ev)
	}
	return nil
}

func (b *builder) peek() (*yamlh.Event, error) {
	if err := b.fill(0); err != nil {
		return nil, err
	}
	return b.pending[0], nil
}

func (b *builder) next() (*yamlh.Event, error) {
	if err := b.fill(0); err != nil {
		return nil, err
	}
	ev := b.pending[0]
	b.pending = b.pending[1:]
	return ev, nil
}

// buildDocument drives one DOCUMENT_START..DOCUMENT_END (or, for an
// implicit document, one node..STREAM_END/DOCUMENT_START) span into a
// Document. It is called once per document in the stream.
func (b *builder) buildDocument() (*Node, yamlh.VersionDirective, bool, error) {
	var version yamlh.VersionDirective
	var hasVersion bool
	for {
		ev, err := b.peek()
		if err != nil {
			return nil, version, hasVersion, err
		}
		if ev.Type == yamlh.DIRECTIVE_EVENT {
			b.next()
			if ev.DirectiveName == "YAML" && len(ev.DirectiveArgs) == 1 {
				version = parseVersionArg(ev.DirectiveArgs[0])
				hasVersion = true
			}
			continue
		}
		break
	}
	ev, err := b.peek()
	if err != nil {
		return nil, version, hasVersion, err
	}
	if ev.Type == yamlh.DOCUMENT_START_EVENT {
		b.next()
	}

	root, err := b.parseNode(0)
	if err != nil {
		return nil, version, hasVersion, err
	}

	ev, err = b.peek()
	if err != nil {
		return nil, version, hasVersion, err
	}
	if ev.Type == yamlh.DOCUMENT_END_EVENT {
		b.next()
	}

	if err := b.resolveAliases(); err != nil {
		return nil, version, hasVersion, err
	}
	return root, version, hasVersion, nil
}

func parseVersionArg(s string) yamlh.VersionDirective {
	if len(s) == 3 && s[1] == '.' {
		return yamlh.VersionDirective{Major: int8(s[0] - '0'), Minor: int8(s[2] - '0')}
	}
	return yamlh.VersionDirective{}
}

// parseNode parses a single node (scalar, flow collection, or block
// collection) whose leading event must be at column >= minColumn, or else
// there is no content here and the value is an implicit null.
func (b *builder) parseNode(minColumn int) (*Node, error) {
	b.depth++
	defer func() { b.depth-- }()
	if b.opts.MaxDepth > 0 && b.depth > b.opts.MaxDepth {
		return nil, yamlh.NewError(yamlh.DEPTH, yamlh.Position{}, "node nesting exceeds maximum depth %d", b.opts.MaxDepth)
	}

	ev, err := b.peek()
	if err != nil {
		return nil, err
	}
	if isTerminator(ev) || ev.Pos.Column < minColumn {
		return b.nullNode(ev.Pos), nil
	}

	switch {
	case ev.Type == yamlh.SEQUENCE_START_EVENT:
		return b.parseFlowSequence()
	case ev.Type == yamlh.MAPPING_START_EVENT:
		return b.parseFlowMapping()
	case ev.Type == yamlh.INDICATOR_EVENT && ev.Char == yamlh.IndicatorBlockEntry:
		return b.parseBlockSequence(ev.Pos.Column)
	case ev.Type == yamlh.SCALAR_EVENT || ev.Type == yamlh.ALIAS_EVENT:
		b.next()
		first, err := b.scalarOrAliasNode(ev)
		if err != nil {
			return nil, err
		}
		next, err := b.peek()
		if err == nil && next.Type == yamlh.INDICATOR_EVENT && next.Char == yamlh.IndicatorMappingValue {
			m, err := b.parseBlockMapping(ev.Pos.Column, first)
			if err != nil {
				return nil, err
			}
			b.reparentAnchorToCollection(m, first)
			return m, nil
		}
		return first, nil
	default:
		return b.nullNode(ev.Pos), nil
	}
}

func isTerminator(ev *yamlh.Event) bool {
	switch ev.Type {
	case yamlh.STREAM_END_EVENT, yamlh.DOCUMENT_END_EVENT, yamlh.SEQUENCE_END_EVENT, yamlh.MAPPING_END_EVENT:
		return true
	}
	return false
}

func (b *builder) parseFlowSequence() (*Node, error) {
	start, _ := b.next()
	seq := &Node{Kind: SequenceNode, Tag: yamlh.SeqTag, Pos: start.Pos}
	b.applyAnchorTag(seq, start)
	for {
		ev, err := b.peek()
		if err != nil {
			return nil, err
		}
		if ev.Type == yamlh.SEQUENCE_END_EVENT {
			b.next()
			return seq, nil
		}
		child, err := b.parseNode(0)
		if err != nil {
			return nil, err
		}
		seq.Children = append(seq.Children, child)
	}
}

func (b *builder) parseFlowMapping() (*Node, error) {
	start, _ := b.next()
	m := &Node{Kind: MappingNode, Tag: yamlh.MapTag, Pos: start.Pos}
	b.applyAnchorTag(m, start)
	for {
		ev, err := b.peek()
		if err != nil {
			return nil, err
		}
		if ev.Type == yamlh.MAPPING_END_EVENT {
			b.next()
			return m, nil
		}
		if ev.Type == yamlh.INDICATOR_EVENT && ev.Char == yamlh.IndicatorExplicitKey {
			b.next()
			if ev, err = b.peek(); err != nil {
				return nil, err
			}
		}
		// A flow key's ':' belongs to this mapping, so a scalar or alias key
		// is taken as is instead of going through parseNode's block-mapping
		// detection.
		var key *Node
		if ev.Type == yamlh.SCALAR_EVENT || ev.Type == yamlh.ALIAS_EVENT {
			b.next()
			key, err = b.scalarOrAliasNode(ev)
		} else {
			key, err = b.parseNode(0)
		}
		if err != nil {
			return nil, err
		}
		ev, err = b.peek()
		if err != nil {
			return nil, err
		}
		var value *Node
		if ev.Type == yamlh.INDICATOR_EVENT && ev.Char == yamlh.IndicatorMappingValue {
			b.next()
			value, err = b.parseNode(0)
			if err != nil {
				return nil, err
			}
		} else {
			value = b.nullNode(ev.Pos)
		}
		if err := b.appendPair(m, key, value); err != nil {
			return nil, err
		}
	}
}

func (b *builder) parseBlockSequence(column int) (*Node, error) {
	first, _ := b.peek()
	seq := &Node{Kind: SequenceNode, Tag: yamlh.SeqTag, Pos: first.Pos}
	firstEntry := true
	for {
		ev, err := b.peek()
		if err != nil {
			return nil, err
		}
		if !(ev.Type == yamlh.INDICATOR_EVENT && ev.Char == yamlh.IndicatorBlockEntry && ev.Pos.Column == column) {
			break
		}
		dashPos := ev.Pos
		b.next()
		child, err := b.parseNode(column + 1)
		if err != nil {
			return nil, err
		}
		if firstEntry {
			b.reparentSequenceAnchor(seq, child, dashPos)
			firstEntry = false
		}
		seq.Children = append(seq.Children, child)
	}
	return seq, nil
}

// reparentAnchorToCollection moves an anchor the event stream had no choice
// but to decorate firstKey with (there is no event for a block mapping's
// start) onto the mapping node it turns out to open. The anchor always
// belongs to the mapping as a whole in this position, regardless of
// whether it shared firstKey's line ("&x k: v") or sat alone on the line
// before ("&x\n  k: v") — an anchor before a block node anchors whatever
// node that position resolves to, and here it resolves to the mapping.
func (b *builder) reparentAnchorToCollection(m, firstKey *Node) {
	if firstKey.Anchor == "" {
		return
	}
	m.Anchor = firstKey.Anchor
	m.anchorPos = firstKey.anchorPos
	b.anchors[m.Anchor] = m
	firstKey.Anchor = ""
	firstKey.anchorPos = yamlh.Position{}
}

// reparentSequenceAnchor moves an anchor off a block sequence's first
// child onto the sequence itself, but only when the anchor indicator
// actually preceded the '-' that opened this entry ("x: &a\n  - 1",
// anchoring the whole sequence). An anchor written after the dash on the
// same entry ("- &a 1") decorates that element and is left alone — the
// distinguishing fact is the anchor's own byte offset relative to the
// dash's, since the event stream carries the anchor along no matter how
// many plain INDICATOR_EVENTs intervene before the next scalar.
func (b *builder) reparentSequenceAnchor(seq, child *Node, dashPos yamlh.Position) {
	if child.Anchor == "" || child.anchorPos.Offset >= dashPos.Offset {
		return
	}
	seq.Anchor = child.Anchor
	seq.anchorPos = child.anchorPos
	b.anchors[seq.Anchor] = seq
	child.Anchor = ""
	child.anchorPos = yamlh.Position{}
}

func (b *builder) parseBlockMapping(column int, firstKey *Node) (*Node, error) {
	m := &Node{Kind: MappingNode, Tag: yamlh.MapTag, Pos: firstKey.Pos}
	key := firstKey
	for {
		// consume the ':' the caller already peeked at
		if _, err := b.next(); err != nil {
			return nil, err
		}
		value, err := b.parseNode(column + 1)
		if err != nil {
			return nil, err
		}
		if err := b.appendPair(m, key, value); err != nil {
			return nil, err
		}

		ev, err := b.peek()
		if err != nil {
			return nil, err
		}
		if !((ev.Type == yamlh.SCALAR_EVENT || ev.Type == yamlh.ALIAS_EVENT || (ev.Type == yamlh.INDICATOR_EVENT && ev.Char == yamlh.IndicatorExplicitKey)) && ev.Pos.Column == column) {
			break
		}
		explicit := ev.Type == yamlh.INDICATOR_EVENT
		if explicit {
			b.next()
		}
		keyEv, err := b.next()
		if err != nil {
			return nil, err
		}
		nextKey, err := b.scalarOrAliasNode(keyEv)
		if err != nil {
			return nil, err
		}
		if !explicit {
			next, err := b.peek()
			if err != nil || !(next.Type == yamlh.INDICATOR_EVENT && next.Char == yamlh.IndicatorMappingValue) {
				// A bare scalar at the mapping's key column that
				// isn't followed by ':' doesn't continue this
				// mapping; treat it (approximately) as the end of
				// this mapping rather than erroring, since the
				// scanner/event layers gave us no backtracking
				// buffer deep enough to re-surface it cleanly.
				break
			}
		}
		key = nextKey
	}
	return m, nil
}

func (b *builder) appendPair(m *Node, key, value *Node) error {
	if key.Kind == ScalarNode {
		for i := 0; i+1 < len(m.Children); i += 2 {
			if m.Children[i].Kind == ScalarNode && m.Children[i].Value == key.Value {
				switch b.opts.DuplicateKeys {
				case DupKeyFirstWins:
					return nil
				case DupKeyLastWins:
					m.Children[i+1] = value
					return nil
				default:
					return yamlh.NewError(yamlh.DUPKEY, key.Pos, "duplicate mapping key %q", key.Value)
				}
			}
		}
	}
	m.Children = append(m.Children, key, value)
	return nil
}

func (b *builder) scalarOrAliasNode(ev *yamlh.Event) (*Node, error) {
	if ev.Type == yamlh.ALIAS_EVENT {
		name := string(ev.AliasName)
		if target, ok := b.anchors[name]; ok {
			return target, nil
		}
		placeholder := &Node{Kind: ScalarNode, Pos: ev.Pos}
		b.pendingAliases = append(b.pendingAliases, pendingAlias{placeholder: placeholder, name: name, pos: ev.Pos})
		return placeholder, nil
	}
	node, err := b.scalarNode(ev)
	if err != nil {
		return nil, err
	}
	b.applyAnchorTag(node, ev)
	return node, nil
}

func (b *builder) scalarNode(ev *yamlh.Event) (*Node, error) {
	tag := string(ev.Tag)
	value := b.a.NewString(ev.Scalar)
	if tag == "" && ev.ScalarStyle != yamlh.PLAIN_SCALAR_STYLE {
		tag = yamlh.StrTag
	}
	rtag, _, err := resolve.Resolve(b.opts.Schema, tag, value)
	if err != nil {
		return nil, yamlh.NewError(yamlh.INVALID, ev.Pos, "%s", err.Error())
	}
	return &Node{Kind: ScalarNode, Tag: rtag, Value: value, Style: ev.ScalarStyle, Pos: ev.Pos}, nil
}

func (b *builder) nullNode(pos yamlh.Position) *Node {
	return &Node{Kind: ScalarNode, Tag: yamlh.NullTag, Pos: pos}
}

// applyAnchorTag records an anchor's binding to node, for both scalars and
// collection-start events, and assigns the carried tag to non-scalar nodes
// only (a scalar's tag is already resolved by scalarNode).
func (b *builder) applyAnchorTag(node *Node, ev *yamlh.Event) {
	if len(ev.Anchor) > 0 {
		node.Anchor = string(ev.Anchor)
		node.anchorPos = ev.AnchorPos
		b.anchors[node.Anchor] = node
	}
	if len(ev.Tag) > 0 && node.Kind != ScalarNode {
		node.Tag = string(ev.Tag)
	}
}

// resolveAliases patches every alias placeholder encountered before its
// anchor was seen. Because each pendingAlias entry is resolved by a fresh
// lookup into b.anchors rather than a cached slot address, it is immune to
// any slice reallocation that happened while the rest of the tree was
// still being built.
func (b *builder) resolveAliases() error {
	for _, p := range b.pendingAliases {
		target, ok := b.anchors[p.name]
		if !ok {
			return yamlh.NewError(yamlh.INVALID, p.pos, "undefined anchor %q", p.name)
		}
		pos := p.placeholder.Pos
		*p.placeholder = *target
		p.placeholder.Pos = pos
	}
	return nil
}

func newScannerPipeline(data []byte, maxAliasEvents int) (*eventstream.EventStream, error) {
	s := scanner.New()
	es := eventstream.New(s, maxAliasEvents)
	if err := es.Feed(data); err != nil {
		return nil, err
	}
	if err := es.Finish(); err != nil {
		return nil, err
	}
	return es, nil
}
