package resolve

import (
	"testing"

	"github.com/coreyp1/text/internal/yamlh"
	"github.com/stretchr/testify/require"
)

func TestResolveCoreSchema(t *testing.T) {
	tag, val, err := Resolve(CoreSchema, "", "42")
	require.NoError(t, err)
	require.Equal(t, yamlh.IntTag, tag)
	require.Equal(t, 42, val)

	tag, val, err = Resolve(CoreSchema, "", "Null")
	require.NoError(t, err)
	require.Equal(t, yamlh.NullTag, tag)
	require.Nil(t, val)

	tag, val, err = Resolve(CoreSchema, "", "TRUE")
	require.NoError(t, err)
	require.Equal(t, yamlh.BoolTag, tag)
	require.Equal(t, true, val)
}

func TestResolveJSONSchemaIsStricter(t *testing.T) {
	tag, val, err := Resolve(JSONSchema, "", "true")
	require.NoError(t, err)
	require.Equal(t, yamlh.BoolTag, tag)
	require.Equal(t, true, val)

	// JSON schema does not recognize YAML 1.1-style "True".
	tag, val, err = Resolve(JSONSchema, "", "True")
	require.NoError(t, err)
	require.Equal(t, yamlh.StrTag, tag)
	require.Equal(t, "True", val)
}

func TestResolveFailsafeSchemaNeverInfers(t *testing.T) {
	tag, val, err := Resolve(FailsafeSchema, "", "42")
	require.NoError(t, err)
	require.Equal(t, yamlh.StrTag, tag)
	require.Equal(t, "42", val)
}

func TestResolveCoreSchemaMergeKey(t *testing.T) {
	tag, val, err := Resolve(CoreSchema, "", "<<")
	require.NoError(t, err)
	require.Equal(t, yamlh.MergeTag, tag)
	require.Equal(t, "<<", val)
}

func TestShortLongTagRoundTrip(t *testing.T) {
	require.Equal(t, "!!str", ShortTag(yamlh.StrTag))
	require.Equal(t, yamlh.StrTag, LongTag("!!str"))
}
