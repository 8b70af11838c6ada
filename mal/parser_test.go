package mal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Configuration {
	return New().Silent()
}

func TestParseMinimalDefines(t *testing.T) {
	src := "#id: \"x\"\n#version: \"1.0.0\"\n"
	doc, err := ParseString(testConfig(), src, "defines.mal")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "version"}, doc.Defines.Keys())
	id, ok := doc.Defines.Get("id")
	assert.True(t, ok)
	assert.Equal(t, "x", id)
	version, _ := doc.Defines.Get("version")
	assert.Equal(t, "1.0.0", version)
	assert.Equal(t, 0, doc.Categories.Len())
	assert.Empty(t, doc.Associations)
}

func TestParseCategoryWithOrAttribute(t *testing.T) {
	src := `category System {
  asset Host {
    | compromise [Bernoulli(0.5)] {C,I} @hidden
  }
}
`
	doc, err := ParseString(testConfig(), src, "system.mal")
	require.NoError(t, err)

	require.Equal(t, 1, doc.Categories.Len())
	cat, ok := doc.Categories.Get("System")
	require.True(t, ok)
	require.Equal(t, 1, cat.Assets.Len())

	asset, ok := cat.Assets.Get("Host")
	require.True(t, ok)
	assert.False(t, asset.Abstract)
	assert.Empty(t, asset.Extends)

	attr, ok := asset.Attributes.Get("compromise")
	require.True(t, ok)
	assert.Equal(t, Or, attr.Type)
	assert.Equal(t, "Bernoulli(0.5)", attr.Probability)
	assert.Equal(t, []string{"C", "I"}, attr.CIA)
	assert.Equal(t, []string{"hidden"}, attr.Tags)
}

func TestParseLeadsToWithLetBinding(t *testing.T) {
	src := `category System {
  asset Host {
    | step
      -> let x = other.attack,
         peer.do
  }
}
`
	doc, err := ParseString(testConfig(), src, "leadsto.mal")
	require.NoError(t, err)

	cat, _ := doc.Categories.Get("System")
	asset, _ := cat.Assets.Get("Host")
	attr, ok := asset.Attributes.Get("step")
	require.True(t, ok)
	require.NotNil(t, attr.LeadsToExpr)

	x, ok := attr.LeadsToExpr.Get("x")
	assert.True(t, ok)
	assert.Equal(t, "other.attack", x)
	zero, ok := attr.LeadsToExpr.Get("0")
	assert.True(t, ok)
	assert.Equal(t, "peer.do", zero)
	assert.Equal(t, []string{"x", "0"}, attr.LeadsToExpr.Keys())
}

func TestParseAssociationWithMultiplicity(t *testing.T) {
	src := `associations {
  Host [src] 1 <-- owns --> * [assets] Network
}
`
	doc, err := ParseString(testConfig(), src, "assoc.mal")
	require.NoError(t, err)

	require.Len(t, doc.Associations, 1)
	a := doc.Associations[0]
	assert.Equal(t, "owns", a.Name)
	assert.Equal(t, "Host", a.AssetL)
	assert.Equal(t, "src", a.FieldL)
	assert.Equal(t, "1", a.MultL)
	assert.Equal(t, "Network", a.AssetR)
	assert.Equal(t, "assets", a.FieldR)
	assert.Equal(t, "*", a.MultR)
}

func TestParsePreservesCommentLookingStringContent(t *testing.T) {
	src := `#note: "not // a comment"
`
	doc, err := ParseString(testConfig(), src, "note.mal")
	require.NoError(t, err)

	note, ok := doc.Defines.Get("note")
	require.True(t, ok)
	assert.Equal(t, "not // a comment", note)
}

func TestParseStripsRealComments(t *testing.T) {
	src := `// leading comment
#id: "x" // trailing comment
/* block
   comment */
#version: "1.0.0"
`
	doc, err := ParseString(testConfig(), src, "comments.mal")
	require.NoError(t, err)

	id, _ := doc.Defines.Get("id")
	assert.Equal(t, "x", id)
	version, _ := doc.Defines.Get("version")
	assert.Equal(t, "1.0.0", version)
}

func TestParseAbstractAssetWithExtends(t *testing.T) {
	src := `category System {
  abstract asset Base {
  }
  asset Host extends Base {
  }
}
`
	doc, err := ParseString(testConfig(), src, "extends.mal")
	require.NoError(t, err)

	cat, _ := doc.Categories.Get("System")
	base, ok := cat.Assets.Get("Base")
	require.True(t, ok)
	assert.True(t, base.Abstract)
	assert.Empty(t, base.Extends)

	host, ok := cat.Assets.Get("Host")
	require.True(t, ok)
	assert.False(t, host.Abstract)
	assert.Equal(t, "Base", host.Extends)
}

func TestParseCategoryAndAssetMeta(t *testing.T) {
	src := `category System
  info: "a category"
{
  asset Host
    info: "a host"
  {
  }
}
`
	doc, err := ParseString(testConfig(), src, "meta.mal")
	require.NoError(t, err)

	cat, _ := doc.Categories.Get("System")
	info, ok := cat.Meta.Get("info")
	require.True(t, ok)
	assert.Equal(t, "a category", info)

	asset, _ := cat.Assets.Get("Host")
	ainfo, ok := asset.Meta.Get("info")
	require.True(t, ok)
	assert.Equal(t, "a host", ainfo)
}

func TestParseIncompleteScriptError(t *testing.T) {
	src := `category System {
  asset Host {
`
	_, err := ParseString(testConfig(), src, "incomplete.mal")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorTypeIncomplete, perr.Type)
}

func TestParseImproperSyntaxError(t *testing.T) {
	src := "this is not a valid top-level line\n"
	_, err := ParseString(testConfig(), src, "bad.mal")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorTypeSyntax, perr.Type)
}

func TestParseAssociationsIgnoresUnmatchedLines(t *testing.T) {
	src := `associations {
  this line matches nothing in particular
  Host [src] 1 <-- owns --> * [assets] Network
}
`
	doc, err := ParseString(testConfig(), src, "assoc-ignore.mal")
	require.NoError(t, err)
	require.Len(t, doc.Associations, 1)
	assert.Equal(t, "owns", doc.Associations[0].Name)
}

func TestParseInclude(t *testing.T) {
	files := map[string]string{
		"main.mal": "#id: \"main\"\ninclude \"child.mal\"\n",
		"child.mal": "#note: \"from child\"\n",
	}
	cfg := testConfig()
	cfg.ReadFile = func(path string) ([]byte, error) {
		return []byte(files[path]), nil
	}

	doc, err := ParseFile(cfg, "main.mal")
	require.NoError(t, err)

	id, _ := doc.Defines.Get("id")
	assert.Equal(t, "main", id)
	note, ok := doc.Defines.Get("note")
	require.True(t, ok)
	assert.Equal(t, "from child", note)
}

func TestParseIOErrorOnMissingFile(t *testing.T) {
	cfg := testConfig()
	cfg.ReadFile = func(path string) ([]byte, error) {
		return nil, assertNotFoundError{path}
	}
	_, err := ParseFile(cfg, "missing.mal")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorTypeIO, perr.Type)
}

type assertNotFoundError struct{ path string }

func (e assertNotFoundError) Error() string { return e.path + ": not found" }
