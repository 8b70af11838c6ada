package mal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes d's wire-format JSON (spec §6) to w: pretty-printed
// with two-space indentation and sorted keys by default, or a single
// compact line with sorted keys when pretty is false. Both forms end
// with exactly one trailing newline. encoding/json already sorts map
// keys when marshaling, which is what makes plain map[string]any the
// right representation for this boundary: the document's insertion
// order matters for MAL emission (see OrderedMap), not for the wire
// format, which the spec defines as canonically sorted.
func (d *Document) WriteJSON(w io.Writer, pretty bool) error {
	value := d.toJSONValue()
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(value, "", "  ")
	} else {
		out, err = json.Marshal(value)
	}
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

// MarshalJSON implements json.Marshaler using the same sorted-key,
// flattened-defines layout as WriteJSON (without the trailing newline).
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toJSONValue())
}

func (d *Document) toJSONValue() map[string]any {
	m := map[string]any{}
	d.Extra.Range(func(k string, v any) bool {
		m[k] = v
		return true
	})
	d.Defines.Range(func(k, v string) bool {
		m[k] = v
		return true
	})
	if d.Categories.Len() > 0 {
		cats := map[string]any{}
		d.Categories.Range(func(name string, cat *Category) bool {
			cats[name] = cat.toJSONValue()
			return true
		})
		m["categories"] = cats
	}
	if len(d.Associations) > 0 {
		assocs := make([]any, 0, len(d.Associations))
		for _, a := range d.Associations {
			assocs = append(assocs, a.toJSONValue())
		}
		m["associations"] = assocs
	}
	return m
}

func metaToJSON(meta *OrderedMap[string]) map[string]any {
	out := map[string]any{}
	meta.Range(func(k, v string) bool {
		out[k] = v
		return true
	})
	return out
}

func (c *Category) toJSONValue() map[string]any {
	assets := map[string]any{}
	c.Assets.Range(func(name string, a *Asset) bool {
		assets[name] = a.toJSONValue()
		return true
	})
	return map[string]any{
		"meta":   metaToJSON(c.Meta),
		"assets": assets,
	}
}

func (a *Asset) toJSONValue() map[string]any {
	attrs := map[string]any{}
	a.Attributes.Range(func(name string, at *Attribute) bool {
		attrs[name] = at.toJSONValue()
		return true
	})
	var extends any
	if a.Extends != "" {
		extends = a.Extends
	}
	return map[string]any{
		"meta":       metaToJSON(a.Meta),
		"attributes": attrs,
		"extends":    extends,
		"abstract":   a.Abstract,
	}
}

func (at *Attribute) toJSONValue() map[string]any {
	var prob any
	if at.Probability != "" {
		prob = at.Probability
	}
	var cia any
	if at.CIA != nil {
		ciaList := make([]any, len(at.CIA))
		for i, v := range at.CIA {
			ciaList[i] = v
		}
		cia = ciaList
	}
	tags := make([]any, len(at.Tags))
	for i, v := range at.Tags {
		tags[i] = v
	}
	out := map[string]any{
		"type":        string(at.Type),
		"probability": prob,
		"cia":         cia,
		"tags":        tags,
		"meta":        metaToJSON(at.Meta),
	}
	if at.AppendExpr != nil {
		out["append"] = metaToJSON(at.AppendExpr)
	}
	if at.LeadsToExpr != nil {
		out["leads_to"] = metaToJSON(at.LeadsToExpr)
	}
	if at.RequireExpr != nil {
		out["require"] = metaToJSON(at.RequireExpr)
	}
	return out
}

func (a *Association) toJSONValue() map[string]any {
	return map[string]any{
		"name":    a.Name,
		"asset_l": a.AssetL,
		"field_l": a.FieldL,
		"mult_l":  a.MultL,
		"asset_r": a.AssetR,
		"field_r": a.FieldR,
		"mult_r":  a.MultR,
		"meta":    metaToJSON(a.Meta),
	}
}

// ReadJSON parses the document wire format (spec §6) from r.
func ReadJSON(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	d := NewDocument()
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return d, nil
}

// UnmarshalJSON implements json.Unmarshaler. It preserves the key order
// of the supplied JSON object at every level by decoding with
// json.Decoder.Token rather than into a plain map, so a document loaded
// from JSON and then re-emitted as MAL (the -r/--reverse CLI direction)
// keeps the order the caller wrote, instead of Go's unspecified map
// iteration order.
func (d *Document) UnmarshalJSON(data []byte) error {
	order, values, err := decodeOrderedObject(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	*d = *NewDocument()
	for _, k := range order {
		switch k {
		case "categories":
			cats, err := decodeCategories(values[k])
			if err != nil {
				return err
			}
			d.Categories = cats
		case "associations":
			var raw []json.RawMessage
			if err := json.Unmarshal(values[k], &raw); err != nil {
				return fmt.Errorf("decode associations: %w", err)
			}
			for _, r := range raw {
				a, err := decodeAssociation(r)
				if err != nil {
					return err
				}
				d.Associations = append(d.Associations, a)
			}
		default:
			var s string
			if err := json.Unmarshal(values[k], &s); err == nil {
				d.Defines.Set(k, s)
				continue
			}
			var v any
			if err := json.Unmarshal(values[k], &v); err != nil {
				return fmt.Errorf("decode key %q: %w", k, err)
			}
			d.Extra.Set(k, v)
		}
	}
	return nil
}

func decodeCategories(raw json.RawMessage) (*OrderedMap[*Category], error) {
	order, values, err := decodeOrderedObject(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	out := NewOrderedMap[*Category]()
	for _, name := range order {
		cat, err := decodeCategory(name, values[name])
		if err != nil {
			return nil, err
		}
		out.Set(name, cat)
	}
	return out, nil
}

func decodeCategory(name string, raw json.RawMessage) (*Category, error) {
	order, values, err := decodeOrderedObject(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode category %q: %w", name, err)
	}
	cat := newCategory(name)
	for _, k := range order {
		switch k {
		case "meta":
			meta, err := decodeMeta(values[k])
			if err != nil {
				return nil, err
			}
			cat.Meta = meta
		case "assets":
			assets, err := decodeAssets(values[k])
			if err != nil {
				return nil, err
			}
			cat.Assets = assets
		}
	}
	return cat, nil
}

func decodeAssets(raw json.RawMessage) (*OrderedMap[*Asset], error) {
	order, values, err := decodeOrderedObject(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode assets: %w", err)
	}
	out := NewOrderedMap[*Asset]()
	for _, name := range order {
		asset, err := decodeAsset(name, values[name])
		if err != nil {
			return nil, err
		}
		out.Set(name, asset)
	}
	return out, nil
}

func decodeAsset(name string, raw json.RawMessage) (*Asset, error) {
	order, values, err := decodeOrderedObject(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode asset %q: %w", name, err)
	}
	asset := newAsset(name)
	for _, k := range order {
		switch k {
		case "meta":
			meta, err := decodeMeta(values[k])
			if err != nil {
				return nil, err
			}
			asset.Meta = meta
		case "attributes":
			attrs, err := decodeAttributes(values[k])
			if err != nil {
				return nil, err
			}
			asset.Attributes = attrs
		case "extends":
			var s *string
			if err := json.Unmarshal(values[k], &s); err != nil {
				return nil, err
			}
			if s != nil {
				asset.Extends = *s
			}
		case "abstract":
			var b bool
			if err := json.Unmarshal(values[k], &b); err != nil {
				return nil, err
			}
			asset.Abstract = b
		}
	}
	return asset, nil
}

func decodeAttributes(raw json.RawMessage) (*OrderedMap[*Attribute], error) {
	order, values, err := decodeOrderedObject(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	out := NewOrderedMap[*Attribute]()
	for _, name := range order {
		attr, err := decodeAttribute(name, values[name])
		if err != nil {
			return nil, err
		}
		out.Set(name, attr)
	}
	return out, nil
}

func decodeAttribute(name string, raw json.RawMessage) (*Attribute, error) {
	order, values, err := decodeOrderedObject(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode attribute %q: %w", name, err)
	}
	attr := newAttribute(name, "")
	for _, k := range order {
		switch k {
		case "type":
			var s string
			if err := json.Unmarshal(values[k], &s); err != nil {
				return nil, err
			}
			attr.Type = AttributeType(s)
		case "probability":
			var s *string
			if err := json.Unmarshal(values[k], &s); err != nil {
				return nil, err
			}
			if s != nil {
				attr.Probability = *s
			}
		case "cia":
			var list []string
			if err := json.Unmarshal(values[k], &list); err != nil {
				return nil, err
			}
			attr.CIA = list
		case "tags":
			var list []string
			if err := json.Unmarshal(values[k], &list); err != nil {
				return nil, err
			}
			attr.Tags = list
		case "meta":
			meta, err := decodeMeta(values[k])
			if err != nil {
				return nil, err
			}
			attr.Meta = meta
		case "append":
			m, err := decodeMeta(values[k])
			if err != nil {
				return nil, err
			}
			attr.AppendExpr = m
		case "leads_to":
			m, err := decodeMeta(values[k])
			if err != nil {
				return nil, err
			}
			attr.LeadsToExpr = m
		case "require":
			m, err := decodeMeta(values[k])
			if err != nil {
				return nil, err
			}
			attr.RequireExpr = m
		}
	}
	return attr, nil
}

func decodeMeta(raw json.RawMessage) (*OrderedMap[string], error) {
	order, values, err := decodeOrderedObject(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	out := NewOrderedMap[string]()
	for _, k := range order {
		var s string
		if err := json.Unmarshal(values[k], &s); err != nil {
			return nil, fmt.Errorf("decode meta key %q: %w", k, err)
		}
		out.Set(k, s)
	}
	return out, nil
}

func decodeAssociation(raw json.RawMessage) (*Association, error) {
	order, values, err := decodeOrderedObject(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode association: %w", err)
	}
	a := newAssociation()
	strFields := map[string]*string{
		"name": &a.Name, "asset_l": &a.AssetL, "field_l": &a.FieldL, "mult_l": &a.MultL,
		"asset_r": &a.AssetR, "field_r": &a.FieldR, "mult_r": &a.MultR,
	}
	for _, k := range order {
		if dst, ok := strFields[k]; ok {
			if err := json.Unmarshal(values[k], dst); err != nil {
				return nil, fmt.Errorf("decode association field %q: %w", k, err)
			}
			continue
		}
		switch k {
		case "meta":
			meta, err := decodeMeta(values[k])
			if err != nil {
				return nil, err
			}
			a.Meta = meta
		}
	}
	return a, nil
}
