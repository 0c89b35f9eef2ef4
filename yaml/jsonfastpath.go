// The JSON fast path: every JSON document is also a YAML document (under
// the JSON and Core schemas, numbers and the three literals resolve the
// same way; Failsafe input always takes the full pipeline, where every
// scalar stays a string), so input that is syntactically pure JSON skips the
// scanner/event-stream/DOM pipeline entirely and goes through
// encoding/json's token reader instead. This follows the same spirit as
// this engine's resolver leaning on strconv/math for numeric parsing:
// reuse standard-library machinery wherever the grammars overlap, and this
// pipeline's layered architecture leaves room to take that further with a
// dedicated fast path.
package yaml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/coreyp1/text/internal/yamlh"
)

// looksLikeJSON is the cheap syntactic pre-check gating the fast path: a
// false positive here just costs a wasted (and then abandoned)
// json.Decoder pass before falling through to the slow path; a false
// negative only costs a missed optimization. Never a correctness issue.
func looksLikeJSON(data []byte) bool {
	i := 0
	for i < len(data) {
		switch data[i] {
		case ' ', '\t', '\r', '\n':
			i++
			continue
		}
		break
	}
	if i >= len(data) {
		return false
	}
	switch data[i] {
	case '{', '[', '"':
		return true
	}
	return false
}

// tryJSONFastPath attempts to parse data as a single JSON value, returning
// ok=false if it isn't one (including trailing non-whitespace content,
// which disqualifies it — a YAML document that merely starts with JSON-
// looking content must fall through to the slow path).
func tryJSONFastPath(data []byte) (node *Node, ok bool) {
	if !looksLikeJSON(data) {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			node, ok = nil, false
		}
	}()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeJSONValue(dec)
	if err != nil {
		return nil, false
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); err != io.EOF {
		return nil, false
	}
	return n, true
}

func decodeJSONValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return jsonTokenToNode(dec, tok)
}

func jsonTokenToNode(dec *json.Decoder, tok json.Token) (*Node, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := &Node{Kind: MappingNode, Tag: yamlh.MapTag}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				keyStr, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("json: non-string object key")
				}
				valNode, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Children = append(m.Children, &Node{Kind: ScalarNode, Tag: yamlh.StrTag, Value: keyStr}, valNode)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return m, nil
		case '[':
			s := &Node{Kind: SequenceNode, Tag: yamlh.SeqTag}
			for dec.More() {
				child, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				s.Children = append(s.Children, child)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return s, nil
		}
	case bool:
		s := "false"
		if t {
			s = "true"
		}
		return &Node{Kind: ScalarNode, Tag: yamlh.BoolTag, Value: s}, nil
	case json.Number:
		s := t.String()
		tag := yamlh.IntTag
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			tag = yamlh.FloatTag
		}
		return &Node{Kind: ScalarNode, Tag: tag, Value: s}, nil
	case string:
		return &Node{Kind: ScalarNode, Tag: yamlh.StrTag, Value: t}, nil
	case nil:
		return &Node{Kind: ScalarNode, Tag: yamlh.NullTag}, nil
	}
	return nil, fmt.Errorf("json: unexpected token %v", tok)
}
