package mal

import (
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertNoDiff fails with a unified diff when got != want, grounded on the
// teacher's go-difflib dependency for readable assertion failures.
func assertNoDiff(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	require.NoError(t, err)
	t.Errorf("unexpected output:\n%s", diff)
}

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseString(testConfig(), src, "fixture.mal")
	require.NoError(t, err)
	return doc
}

// TestRoundTripCategoryAsset covers spec §8 scenario 6: emitting then
// re-parsing the document from scenario 2 yields an identical document at
// the JSON layer.
func TestRoundTripCategoryAsset(t *testing.T) {
	src := `category System {
  asset Host {
    | compromise [Bernoulli(0.5)] {C,I} @hidden
  }
}
`
	doc := mustParse(t, src)

	emitted, err := String(doc)
	require.NoError(t, err)

	reparsed, err := ParseString(testConfig(), emitted, "roundtrip.mal")
	require.NoError(t, err)

	var wantJSON, gotJSON strings.Builder
	require.NoError(t, doc.WriteJSON(&wantJSON, true))
	require.NoError(t, reparsed.WriteJSON(&gotJSON, true))
	assertNoDiff(t, wantJSON.String(), gotJSON.String())
}

func TestRoundTripLeadsToExpression(t *testing.T) {
	src := `category System {
  asset Host {
    | step
      -> let x = other.attack,
         peer.do
  }
}
`
	doc := mustParse(t, src)
	emitted, err := String(doc)
	require.NoError(t, err)
	reparsed, err := ParseString(testConfig(), emitted, "roundtrip.mal")
	require.NoError(t, err)

	var wantJSON, gotJSON strings.Builder
	require.NoError(t, doc.WriteJSON(&wantJSON, true))
	require.NoError(t, reparsed.WriteJSON(&gotJSON, true))
	assertNoDiff(t, wantJSON.String(), gotJSON.String())
}

func TestRoundTripAssociations(t *testing.T) {
	src := `associations {
  Host [src] 1 <-- owns --> * [assets] Network
}
`
	doc := mustParse(t, src)
	emitted, err := String(doc)
	require.NoError(t, err)
	reparsed, err := ParseString(testConfig(), emitted, "roundtrip.mal")
	require.NoError(t, err)
	require.Len(t, reparsed.Associations, 1)
	assert.Equal(t, doc.Associations[0].Name, reparsed.Associations[0].Name)
	assert.Equal(t, doc.Associations[0].MultL, reparsed.Associations[0].MultL)
	assert.Equal(t, doc.Associations[0].MultR, reparsed.Associations[0].MultR)
}

func TestEmitRejectsAttributeWithoutType(t *testing.T) {
	doc := NewDocument()
	cat := newCategory("System")
	doc.Categories.Set("System", cat)
	asset := newAsset("Host")
	cat.Assets.Set("Host", asset)
	attr := newAttribute("compromise", "")
	asset.Attributes.Set("compromise", attr)

	_, err := String(doc)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorTypeEmit, perr.Type)
}

func TestEmitDefinesBeforeCategoriesAndAssociations(t *testing.T) {
	src := `#id: "x"
#version: "1.0.0"
category System {
  asset Host {
    E exists
  }
}
associations {
  Host [src] 1 <-- owns --> * [assets] Network
}
`
	doc := mustParse(t, src)
	emitted, err := String(doc)
	require.NoError(t, err)

	idIdx := strings.Index(emitted, `#id: "x"`)
	catIdx := strings.Index(emitted, "category System")
	assocIdx := strings.Index(emitted, "associations {")
	require.True(t, idIdx >= 0 && catIdx > idIdx && assocIdx > catIdx)
}
