package scanner

import (
	"testing"

	"github.com/coreyp1/text/internal/yamlh"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, input []byte, chunkSize int) []*yamlh.Token {
	t.Helper()
	s := New()
	if chunkSize <= 0 {
		require.NoError(t, s.Feed(input))
	} else {
		for i := 0; i < len(input); i += chunkSize {
			end := i + chunkSize
			if end > len(input) {
				end = len(input)
			}
			require.NoError(t, s.Feed(input[i:end]))
		}
	}
	require.NoError(t, s.Finish())

	var toks []*yamlh.Token
	for {
		tok, err := s.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == yamlh.TOKEN_EOF {
			break
		}
	}
	return toks
}

func TestScanPlainScalar(t *testing.T) {
	toks := scanAll(t, []byte("hello world\n"), 0)
	require.Len(t, toks, 2)
	require.Equal(t, yamlh.TOKEN_SCALAR, toks[0].Kind)
	require.Equal(t, "hello world", string(toks[0].Scalar))
	require.Equal(t, yamlh.PLAIN_SCALAR_STYLE, toks[0].Style)
}

func TestScanMappingIndicator(t *testing.T) {
	toks := scanAll(t, []byte("key: value\n"), 0)
	var kinds []yamlh.TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []yamlh.TokenKind{
		yamlh.TOKEN_SCALAR, yamlh.TOKEN_INDICATOR, yamlh.TOKEN_SCALAR, yamlh.TOKEN_EOF,
	}, kinds)
	require.Equal(t, "key", string(toks[0].Scalar))
	require.Equal(t, byte(':'), toks[1].Char)
	require.Equal(t, "value", string(toks[2].Scalar))
}

func TestScanDoubleQuotedEscapes(t *testing.T) {
	toks := scanAll(t, []byte(`"a\tbA\\c"`+"\n"), 0)
	require.Equal(t, yamlh.TOKEN_SCALAR, toks[0].Kind)
	require.Equal(t, yamlh.DOUBLE_QUOTED_SCALAR_STYLE, toks[0].Style)
	require.Equal(t, "a\tbA\\c", string(toks[0].Scalar))
}

func TestScanSingleQuotedDoubling(t *testing.T) {
	toks := scanAll(t, []byte(`'it''s'`+"\n"), 0)
	require.Equal(t, "it's", string(toks[0].Scalar))
	require.Equal(t, yamlh.SINGLE_QUOTED_SCALAR_STYLE, toks[0].Style)
}

func TestScanLiteralBlockScalarClip(t *testing.T) {
	toks := scanAll(t, []byte("|\n  one\n  two\n"), 0)
	require.Equal(t, yamlh.TOKEN_SCALAR, toks[0].Kind)
	require.Equal(t, yamlh.LITERAL_SCALAR_STYLE, toks[0].Style)
	require.Equal(t, "one\ntwo\n", string(toks[0].Scalar))
}

func TestScanFoldedBlockScalarStrip(t *testing.T) {
	toks := scanAll(t, []byte(">-\n  one\n  two\n"), 0)
	require.Equal(t, yamlh.FOLDED_SCALAR_STYLE, toks[0].Style)
	require.Equal(t, "one two", string(toks[0].Scalar))
}

func TestScanDocumentMarkers(t *testing.T) {
	toks := scanAll(t, []byte("---\nfoo\n...\n"), 0)
	require.Equal(t, yamlh.TOKEN_DOCUMENT_START, toks[0].Kind)
	require.Equal(t, yamlh.TOKEN_SCALAR, toks[1].Kind)
	require.Equal(t, yamlh.TOKEN_DOCUMENT_END, toks[2].Kind)
}

func TestScanDirective(t *testing.T) {
	toks := scanAll(t, []byte("%YAML 1.1\n---\nx\n"), 0)
	require.Equal(t, yamlh.TOKEN_DIRECTIVE, toks[0].Kind)
	require.Equal(t, "YAML", string(toks[0].Scalar))
	require.Equal(t, []string{"1.1"}, toks[0].DirectiveArgs)
	require.EqualValues(t, 1, toks[0].Major)
	require.EqualValues(t, 1, toks[0].Minor)
}

func TestScanFlowCollection(t *testing.T) {
	toks := scanAll(t, []byte("[a, b]\n"), 0)
	var scalars []string
	for _, tok := range toks {
		if tok.Kind == yamlh.TOKEN_SCALAR {
			scalars = append(scalars, string(tok.Scalar))
		}
	}
	require.Equal(t, []string{"a", "b"}, scalars)
}

func TestScanChunkingInvariance(t *testing.T) {
	input := []byte("---\nkey: \"va\\tlue\"\nblock: |\n  line one\n  line two\nlist: [1, 2, 3]\n...\n")
	whole := scanAll(t, input, 0)
	byteAtATime := scanAll(t, input, 1)
	require.Equal(t, len(whole), len(byteAtATime))
	for i := range whole {
		require.Equal(t, whole[i].Kind, byteAtATime[i].Kind, "token %d", i)
		require.Equal(t, whole[i].Scalar, byteAtATime[i].Scalar, "token %d", i)
		require.Equal(t, whole[i].Style, byteAtATime[i].Style, "token %d", i)
	}
}

func TestScanCommentStripped(t *testing.T) {
	toks := scanAll(t, []byte("key: value # trailing comment\n"), 0)
	require.Equal(t, "value", string(toks[2].Scalar))
}

func TestScanUnterminatedQuoteIsInvalid(t *testing.T) {
	s := New()
	require.NoError(t, s.Feed([]byte(`"unterminated`)))
	require.NoError(t, s.Finish())
	_, err := s.Next()
	require.Error(t, err)
	yerr, ok := err.(*yamlh.Error)
	require.True(t, ok)
	require.Equal(t, yamlh.INVALID, yerr.Code)
}

func TestScanFlowDepthLimit(t *testing.T) {
	s := New()
	input := make([]byte, 0, 40)
	for i := 0; i < maxContextDepth+1; i++ {
		input = append(input, '[')
	}
	require.NoError(t, s.Feed(input))
	require.NoError(t, s.Finish())

	var lastErr error
	for {
		_, err := s.Next()
		if err != nil {
			lastErr = err
			break
		}
	}
	require.Error(t, lastErr)
	yerr, ok := lastErr.(*yamlh.Error)
	require.True(t, ok)
	require.Equal(t, yamlh.DEPTH, yerr.Code)
}
