package mal

// Combine merges two documents into a new one, mirroring MAL's
// `include` semantics: later definitions refine or override earlier
// ones (spec §4.8). Neither a nor b is mutated, and the result shares
// no backing storage with either operand (spec §8, "Combiner laws").
//
// spec §9's "Overloaded combination operator" note is honored by
// exposing exactly this one function: the Python original's `+`/`*`/`|`
// operator-overload surface is deliberately not replicated (see
// DESIGN.md).
func Combine(a, b *Document) *Document {
	out := a.Copy()

	b.Extra.Range(func(k string, v any) bool {
		out.Extra.Set(k, v)
		return true
	})

	b.Defines.Range(func(k, v string) bool {
		out.Defines.Set(k, v)
		return true
	})

	// Categories present on both sides have their assets and metadata
	// merged; categories present only on b are added as copies by the
	// else branch of this loop. This is the deliberate resolution of spec
	// §9's open question on that branch — see DESIGN.md.
	b.Categories.Range(func(name string, rightCat *Category) bool {
		if leftCat, ok := out.Categories.Get(name); ok {
			rightCat.Meta.Range(func(k, v string) bool {
				leftCat.Meta.Set(k, v)
				return true
			})
			rightCat.Assets.Range(func(aname string, asset *Asset) bool {
				leftCat.Assets.Set(aname, asset.Copy())
				return true
			})
		} else {
			out.Categories.Set(name, rightCat.Copy())
		}
		return true
	})

	if len(b.Associations) > 0 {
		out.Associations = make([]*Association, len(b.Associations))
		for i, a := range b.Associations {
			out.Associations[i] = a.Copy()
		}
	}

	return out
}

// Copy returns a deep copy of the document.
func (d *Document) Copy() *Document {
	out := NewDocument()
	out.Defines = d.Defines.Copy(func(s string) string { return s })
	out.Extra = d.Extra.Copy(func(v any) any { return v })
	out.Categories = d.Categories.Copy(func(c *Category) *Category { return c.Copy() })
	if len(d.Associations) > 0 {
		out.Associations = make([]*Association, len(d.Associations))
		for i, a := range d.Associations {
			out.Associations[i] = a.Copy()
		}
	}
	return out
}

func (c *Category) Copy() *Category {
	out := newCategory(c.Name)
	out.Pos = c.Pos
	out.Meta = c.Meta.Copy(func(s string) string { return s })
	out.Assets = c.Assets.Copy(func(a *Asset) *Asset { return a.Copy() })
	return out
}

func (a *Asset) Copy() *Asset {
	out := newAsset(a.Name)
	out.Pos = a.Pos
	out.Extends = a.Extends
	out.Abstract = a.Abstract
	out.Meta = a.Meta.Copy(func(s string) string { return s })
	out.Attributes = a.Attributes.Copy(func(at *Attribute) *Attribute { return at.Copy() })
	return out
}

func (a *Attribute) Copy() *Attribute {
	out := newAttribute(a.Name, a.Type)
	out.Pos = a.Pos
	out.Probability = a.Probability
	if a.CIA != nil {
		out.CIA = append([]string{}, a.CIA...)
	}
	if a.Tags != nil {
		out.Tags = append([]string{}, a.Tags...)
	}
	out.Meta = a.Meta.Copy(func(s string) string { return s })
	if a.AppendExpr != nil {
		out.AppendExpr = a.AppendExpr.Copy(func(s string) string { return s })
	}
	if a.LeadsToExpr != nil {
		out.LeadsToExpr = a.LeadsToExpr.Copy(func(s string) string { return s })
	}
	if a.RequireExpr != nil {
		out.RequireExpr = a.RequireExpr.Copy(func(s string) string { return s })
	}
	return out
}

func (a *Association) Copy() *Association {
	out := newAssociation()
	out.Pos = a.Pos
	out.Name, out.AssetL, out.FieldL, out.MultL = a.Name, a.AssetL, a.FieldL, a.MultL
	out.AssetR, out.FieldR, out.MultR = a.AssetR, a.FieldR, a.MultR
	out.Meta = a.Meta.Copy(func(s string) string { return s })
	return out
}
