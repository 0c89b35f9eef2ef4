package yaml

import (
	"github.com/coreyp1/text/internal/arena"
	"github.com/coreyp1/text/internal/yamlh"
)

// Parse parses data as a single YAML document. Use ParseAll for input that
// may contain multiple documents separated by "---"/"...".
func Parse(data []byte, opts Options) (*Document, error) {
	docs, err := ParseAll(data, opts)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return &Document{Root: nil}, nil
	}
	return docs[0], nil
}

// ParseAll parses every document in data. It is the batch entry point: the
// whole input must already be in memory, matching the "DOM construction is
// a batch operation" scope decision the scanner/event-stream layers
// underneath do not share.
func ParseAll(data []byte, opts Options) ([]*Document, error) {
	opts = fillDefaults(opts)

	if !opts.DisableJSONFastPath && opts.Schema != FailsafeSchema {
		if node, ok := tryJSONFastPath(data); ok {
			return []*Document{{Root: node}}, nil
		}
	}

	a := arena.New()
	es, err := newScannerPipeline(data, opts.MaxAliasEvents)
	if err != nil {
		return nil, err
	}

	// The first Next() call always yields STREAM_START_EVENT; consume it
	// once up front so the per-document loop below only ever sees
	// document-level events.
	if _, err := es.Next(); err != nil {
		return nil, err
	}

	var docs []*Document
	for {
		first, err := es.Next()
		if err != nil {
			return nil, err
		}
		if first.Type == yamlh.STREAM_END_EVENT || first.Type == yamlh.NO_EVENT {
			break
		}
		b := newBuilder(opts, a)
		b.es = es
		b.pending = []*yamlh.Event{first}

		root, version, hasVersion, err := b.buildDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, &Document{Root: root, Version: version, HasVersion: hasVersion, arena: a})
	}
	return docs, nil
}

// fillDefaults only backstops the two numeric limits, since 0 is never a
// meaningful caller choice for either; Schema's zero value (FailsafeSchema)
// and DuplicateKeys' zero value (DupKeyError) are both legitimate explicit
// settings, so callers who want CoreSchema/DefaultOptions' other choices
// must ask for them via DefaultOptions.
func fillDefaults(opts Options) Options {
	if opts.MaxAliasEvents == 0 {
		opts.MaxAliasEvents = DefaultOptions().MaxAliasEvents
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}
	return opts
}
