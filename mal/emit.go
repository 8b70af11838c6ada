package mal

import (
	"fmt"
	"io"
	"strings"
)

// EmitterVersion is printed in the header comment of every MAL file this
// package writes, mirroring the Python original's
// `// Output from demal v{__version__}` line.
const EmitterVersion = "1.0.0"

// directionOrder fixes the iteration order emit walks an attribute's
// directional-expression blocks in: append, leads_to, require, matching
// the order those keywords are introduced in spec §3.
var directionOrder = []struct {
	dir Direction
	sym string
}{
	{Append, "+>"},
	{LeadsTo, "->"},
	{Require, "<-"},
}

// Emit walks d and writes MAL source text honoring the indentation,
// field ordering, and continuation-line layout spec §4.9 describes.
// Emission is all-or-nothing: if d's shape violates the structural
// expectations of this package's own document model, Emit returns an
// error and w receives nothing further (spec §7, "Incompatible emission
// input" never produces a partial file because the caller is expected
// to buffer and only commit this output once Emit succeeds).
func Emit(w io.Writer, d *Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "// Output from demal v%s\n", EmitterVersion)

	d.Defines.Range(func(k, v string) bool {
		fmt.Fprintf(&b, "\n#%s: %q", k, v)
		return true
	})
	b.WriteByte('\n')

	var emitErr error
	d.Categories.Range(func(name string, cat *Category) bool {
		if err := emitCategory(&b, name, cat); err != nil {
			emitErr = err
			return false
		}
		return true
	})
	if emitErr != nil {
		return emitErr
	}

	if len(d.Associations) > 0 {
		emitAssociations(&b, d.Associations)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String returns d's MAL representation as a string, using Emit.
func String(d *Document) (string, error) {
	var b strings.Builder
	if err := Emit(&b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}

func emitMeta(b *strings.Builder, meta *OrderedMap[string], indent string) {
	meta.Range(func(k, v string) bool {
		fmt.Fprintf(b, "%s%s: %q\n", indent, k, v)
		return true
	})
}

func emitCategory(b *strings.Builder, name string, cat *Category) error {
	fmt.Fprintf(b, "\ncategory %s", name)
	if cat.Meta.Len() > 0 {
		b.WriteByte('\n')
		emitMeta(b, cat.Meta, "  ")
		b.WriteString("{\n")
	} else {
		b.WriteString(" {\n")
	}

	first := true
	var err error
	cat.Assets.Range(func(aname string, asset *Asset) bool {
		if !first {
			b.WriteByte('\n')
		}
		first = false
		err = emitAsset(b, aname, asset)
		return err == nil
	})
	if err != nil {
		return err
	}
	b.WriteString("}\n")
	return nil
}

func emitAsset(b *strings.Builder, name string, asset *Asset) error {
	abstract := ""
	if asset.Abstract {
		abstract = "abstract "
	}
	extends := ""
	if asset.Extends != "" {
		extends = " extends " + asset.Extends
	}
	fmt.Fprintf(b, "  %sasset %s%s", abstract, name, extends)
	if asset.Meta.Len() > 0 {
		b.WriteByte('\n')
		emitMeta(b, asset.Meta, "    ")
		b.WriteString("  {\n")
	} else {
		b.WriteString(" {\n")
	}

	var err error
	asset.Attributes.Range(func(_ string, attr *Attribute) bool {
		err = emitAttribute(b, attr)
		return err == nil
	})
	if err != nil {
		return err
	}
	b.WriteString("  }\n")
	return nil
}

func emitAttribute(b *strings.Builder, attr *Attribute) error {
	if !attr.Type.Valid() || attr.Type == "" {
		return &ParseError{Type: ErrorTypeEmit, Msg: fmt.Sprintf("attribute %q has no recognized type", attr.Name)}
	}

	var parts []string
	if attr.Probability != "" {
		parts = append(parts, "["+attr.Probability+"]")
	}
	if len(attr.CIA) > 0 {
		parts = append(parts, "{"+strings.Join(attr.CIA, ",")+"}")
	}
	for _, tag := range attr.Tags {
		parts = append(parts, "@"+tag)
	}

	fmt.Fprintf(b, "    %s %s", attr.Type.Symbol(), attr.Name)
	if len(parts) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(parts, " "))
	}
	b.WriteByte('\n')

	if attr.Meta.Len() > 0 {
		emitMeta(b, attr.Meta, "      ")
	}

	for _, d := range directionOrder {
		m := attributeExprMap(attr, d.dir)
		if m == nil || m.Len() == 0 {
			continue
		}
		emitExpression(b, d.sym, m)
	}

	return nil
}

func attributeExprMap(attr *Attribute, d Direction) *OrderedMap[string] {
	switch d {
	case Append:
		return attr.AppendExpr
	case LeadsTo:
		return attr.LeadsToExpr
	case Require:
		return attr.RequireExpr
	}
	return nil
}

// emitExpression writes a directional-expression block: the first
// element after six spaces and the operator, subsequent elements on
// their own line indented nine spaces and preceded by a comma (spec
// §4.9, §9 "Open question: expression continuation indentation" — nine
// spaces is the layout this emitter commits to and is exercised by the
// round-trip tests).
func emitExpression(b *strings.Builder, sym string, m *OrderedMap[string]) {
	i := 0
	m.Range(func(key, expr string) bool {
		rendered := expr
		if !isPositionalKey(key) {
			rendered = fmt.Sprintf("let %s = %s", key, expr)
		}
		if i == 0 {
			fmt.Fprintf(b, "      %s %s", sym, rendered)
		} else {
			fmt.Fprintf(b, ",\n         %s", rendered)
		}
		i++
		return true
	})
	b.WriteByte('\n')
}

func isPositionalKey(key string) bool {
	_, ok := decimalValue(key)
	return ok
}

func emitAssociations(b *strings.Builder, associations []*Association) {
	b.WriteString("\nassociations {\n")
	for _, a := range associations {
		fmt.Fprintf(b, "  %s [%s] %s <-- %s --> %s [%s] %s\n",
			a.AssetL, a.FieldL, a.MultL, a.Name, a.MultR, a.FieldR, a.AssetR)
		if a.Meta.Len() > 0 {
			emitMeta(b, a.Meta, "    ")
		}
	}
	b.WriteString("}\n")
}
