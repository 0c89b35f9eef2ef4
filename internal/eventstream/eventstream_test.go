package eventstream

import (
	"testing"

	"github.com/coreyp1/text/internal/scanner"
	"github.com/coreyp1/text/internal/yamlh"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, input string) []*yamlh.Event {
	t.Helper()
	s := scanner.New()
	es := New(s, 0)
	require.NoError(t, es.Feed([]byte(input)))
	require.NoError(t, es.Finish())

	var events []*yamlh.Event
	for {
		ev, err := es.Next()
		require.NoError(t, err)
		events = append(events, ev)
		if ev.Type == yamlh.STREAM_END_EVENT {
			break
		}
	}
	return events
}

func types(events []*yamlh.Event) []yamlh.EventType {
	out := make([]yamlh.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestEventStreamFlowMapping(t *testing.T) {
	events := drain(t, "{a: 1, b: 2}\n")
	require.Equal(t, []yamlh.EventType{
		yamlh.STREAM_START_EVENT,
		yamlh.MAPPING_START_EVENT,
		yamlh.SCALAR_EVENT, yamlh.INDICATOR_EVENT, yamlh.SCALAR_EVENT,
		yamlh.SCALAR_EVENT, yamlh.INDICATOR_EVENT, yamlh.SCALAR_EVENT,
		yamlh.MAPPING_END_EVENT,
		yamlh.STREAM_END_EVENT,
	}, types(events))
}

func TestEventStreamAnchorDecoratesScalar(t *testing.T) {
	events := drain(t, "&a1 foo\n")
	require.Equal(t, []yamlh.EventType{
		yamlh.STREAM_START_EVENT,
		yamlh.SCALAR_EVENT,
		yamlh.STREAM_END_EVENT,
	}, types(events))
	require.Equal(t, "a1", string(events[1].Anchor))
	require.Equal(t, "foo", string(events[1].Scalar))
}

func TestEventStreamAlias(t *testing.T) {
	events := drain(t, "*ref\n")
	require.Equal(t, yamlh.ALIAS_EVENT, events[1].Type)
	require.Equal(t, "ref", string(events[1].AliasName))
}

func TestEventStreamTagDecoratesScalar(t *testing.T) {
	events := drain(t, "!!str foo\n")
	require.Equal(t, yamlh.SCALAR_EVENT, events[1].Type)
	require.Equal(t, "!!str", string(events[1].Tag))
}

func TestEventStreamDirective(t *testing.T) {
	events := drain(t, "%YAML 1.1\n---\nx\n")
	require.Equal(t, yamlh.DIRECTIVE_EVENT, events[1].Type)
	require.Equal(t, "YAML", events[1].DirectiveName)
	require.Equal(t, yamlh.DOCUMENT_START_EVENT, events[2].Type)
}

// A Feed boundary falling between an anchor/alias indicator and its name
// scalar must not lose the indicator: the name has to surface decorated
// (anchor) or as an ALIAS_EVENT (alias), exactly as it would from one
// unsplit Feed.
func TestEventStreamAnchorSplitAcrossFeed(t *testing.T) {
	s := scanner.New()
	es := New(s, 0)
	require.NoError(t, es.Feed([]byte("&")))

	_, err := es.Next() // STREAM_START
	require.NoError(t, err)
	_, err = es.Next()
	require.Equal(t, scanner.ErrIncomplete, err)

	require.NoError(t, es.Feed([]byte("a1 foo\n")))
	require.NoError(t, es.Finish())

	ev, err := es.Next()
	require.NoError(t, err)
	require.Equal(t, yamlh.SCALAR_EVENT, ev.Type)
	require.Equal(t, "a1", string(ev.Anchor))
	require.Equal(t, "foo", string(ev.Scalar))
}

func TestEventStreamAliasSplitAcrossFeed(t *testing.T) {
	s := scanner.New()
	es := New(s, 0)
	require.NoError(t, es.Feed([]byte("*")))

	_, err := es.Next() // STREAM_START
	require.NoError(t, err)
	_, err = es.Next()
	require.Equal(t, scanner.ErrIncomplete, err)

	require.NoError(t, es.Feed([]byte("ref\n")))
	require.NoError(t, es.Finish())

	ev, err := es.Next()
	require.NoError(t, err)
	require.Equal(t, yamlh.ALIAS_EVENT, ev.Type)
	require.Equal(t, "ref", string(ev.AliasName))
}

func TestEventStreamAliasLimit(t *testing.T) {
	s := scanner.New()
	es := New(s, 1)
	require.NoError(t, es.Feed([]byte("*a *b\n")))
	require.NoError(t, es.Finish())

	_, err := es.Next() // STREAM_START
	require.NoError(t, err)
	_, err = es.Next() // ALIAS a, within limit
	require.NoError(t, err)
	_, err = es.Next() // ALIAS b, exceeds limit
	require.Error(t, err)
	yerr, ok := err.(*yamlh.Error)
	require.True(t, ok)
	require.Equal(t, yamlh.LIMIT, yerr.Code)
}
