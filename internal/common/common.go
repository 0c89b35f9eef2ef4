package common

import (
	"github.com/coreyp1/text/internal/yamlh"
)

// DefaultTagDirectives are the implicit %TAG directives every document
// starts with, before any explicit %TAG directives are parsed.
var DefaultTagDirectives = []yamlh.TagDirective{
	{Handle: "!", Prefix: "!"},
	{Handle: "!!", Prefix: "tag:yaml.org,2002:"},
}
