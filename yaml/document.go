// Package yaml is the public surface of the YAML pipeline: Parse/ParseAll
// build a Document tree from a byte slice; Stream and EventReader expose
// the chunked-feeding and raw-event layers underneath for callers that
// need them directly.
//
// Document plays the role a decoded Node result plays in other YAML
// libraries — the thing callers actually hold onto after decoding — but is
// reshaped around an arena-owned tree instead of a struct that Unmarshal
// reflects into, since this pipeline's job is "build the document tree"
// rather than "populate a Go value."
package yaml

import (
	"github.com/coreyp1/text/internal/arena"
	"github.com/coreyp1/text/internal/yamlh"
)

// NodeKind is the DOM node vocabulary: scalar, sequence, or mapping.
type NodeKind int8

const (
	ScalarNode NodeKind = iota
	SequenceNode
	MappingNode
)

func (k NodeKind) String() string {
	switch k {
	case ScalarNode:
		return "scalar"
	case SequenceNode:
		return "sequence"
	case MappingNode:
		return "mapping"
	default:
		return "unknown"
	}
}

// Node is one element of a parsed document tree. Scalars carry Value and
// Tag; sequences store their elements in Children; mappings store
// Children as flattened [key0, value0, key1, value1, ...] pairs, which
// keeps one node type for both collection kinds and preserves source
// order without a separate pair type.
type Node struct {
	Kind  NodeKind
	Tag   string
	Value string
	Style yamlh.ScalarStyle

	Anchor string

	// anchorPos is the origin position of the '&' indicator that set
	// Anchor, not this node's own Pos. The DOM builder uses it to tell
	// an anchor that merely landed on a block collection's first child
	// (because the collection itself has no start event to decorate)
	// from one truly written on that child, by comparing byte offsets
	// against the block-entry indicator that opened the collection.
	anchorPos yamlh.Position

	Children []*Node

	Pos yamlh.Position
}

// IsNull reports whether n is a scalar resolved to the null tag.
func (n *Node) IsNull() bool {
	return n != nil && n.Kind == ScalarNode && n.Tag == yamlh.NullTag
}

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key   *Node
	Value *Node
}

// Pairs returns n's entries if n is a mapping node, or nil otherwise.
func (n *Node) Pairs() []Pair {
	if n == nil || n.Kind != MappingNode {
		return nil
	}
	out := make([]Pair, 0, len(n.Children)/2)
	for i := 0; i+1 < len(n.Children); i += 2 {
		out = append(out, Pair{Key: n.Children[i], Value: n.Children[i+1]})
	}
	return out
}

// Get looks up a string-keyed entry in a mapping node, returning nil if n
// is not a mapping or the key is absent.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Children); i += 2 {
		if n.Children[i].Kind == ScalarNode && n.Children[i].Value == key {
			return n.Children[i+1]
		}
	}
	return nil
}

// Document is one parsed YAML document: its root node plus the %YAML
// version directive in effect, if any, and the arena backing every Node
// and string reachable from Root.
type Document struct {
	Root    *Node
	Version yamlh.VersionDirective
	HasVersion bool

	arena *arena.Arena
}

// Free releases the arena backing this document's whole tree in one bulk
// operation. After Free, Root and everything reachable from it must not be
// used.
func (d *Document) Free() {
	if d.arena != nil {
		d.arena.Free()
	}
}
