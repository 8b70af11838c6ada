// Package mal implements a bidirectional translator between MAL (Meta
// Attack Language) source text and a structured document: a
// recursive-descent parser turns MAL into a Document, and an Emitter turns
// a Document back into spec-conforming MAL text. The package does not
// evaluate attack-graph semantics, resolve asset inheritance, or validate
// references — it is a front end only.
package mal

import (
	"io"
	"log"
	"os"
	"sort"
)

// Position describes where a node began in its source file. Line is the
// 1-based index among the file's nonempty lines after comment stripping,
// not the raw line number in the file. It is never part of the JSON wire
// format; it exists purely for diagnostics and error messages.
type Position struct {
	Line int
	File string
}

// Configuration holds the (hopefully sane) defaults a Parser runs with:
// where to log trace/debug output and how to resolve included paths.
// Two Configurations, and the Documents parsed from them, never share
// mutable state (spec §5).
type Configuration struct {
	Log   *log.Logger // destination for parser/emitter trace and debug lines
	Debug bool        // when true, trace every line consumed from the LineSource

	// ReadFile loads the contents of an included or top-level source file.
	// Overridable for tests and for embedding demal in a larger tool.
	ReadFile func(path string) ([]byte, error)
}

// New returns a Configuration with sane defaults: logging to stderr,
// debug tracing off, and files read from the local filesystem.
func New() *Configuration {
	return &Configuration{
		Log:      log.New(os.Stderr, "demal: ", 0),
		ReadFile: os.ReadFile,
	}
}

// Silent discards all logging, including debug traces.
func (c *Configuration) Silent() *Configuration {
	c.Log = log.New(io.Discard, "", 0)
	return c
}

// AttributeType is the closed set of attack-step/defense kinds an
// Attribute can have. It is a tagged variant (spec §9, "Tagged variants
// for attributes") rather than a bare string, so the five recognized
// values are named constants and Valid can check any other value (the
// type is a plain string underneath, so a conversion such as
// AttributeType("x") still compiles). Its string form is the JSON form,
// and Symbol gives the MAL form.
type AttributeType string

const (
	Or      AttributeType = "or"
	And     AttributeType = "and"
	Defense AttributeType = "defense"
	Exists  AttributeType = "exists"
	Lacks   AttributeType = "lacks"
)

// attributeSymbols maps each AttributeType to its MAL surface symbol and
// back, in the single place both the parser and emitter consult.
var attributeSymbols = []struct {
	typ AttributeType
	sym string
}{
	{Or, "|"},
	{And, "&"},
	{Defense, "#"},
	{Exists, "E"},
	{Lacks, "!E"},
}

// symbolToType returns the AttributeType for a MAL attribute-header
// symbol, and false if sym isn't one of the recognized five.
func symbolToType(sym string) (AttributeType, bool) {
	for _, e := range attributeSymbols {
		if e.sym == sym {
			return e.typ, true
		}
	}
	return "", false
}

// Symbol returns the MAL surface symbol for t ("|", "&", "#", "E", "!E").
func (t AttributeType) Symbol() string {
	for _, e := range attributeSymbols {
		if e.typ == t {
			return e.sym
		}
	}
	return ""
}

// Valid reports whether t is one of the five recognized attribute types.
func (t AttributeType) Valid() bool {
	return t.Symbol() != ""
}

// Direction is the closed set of directional-expression kinds an
// Attribute's sub-blocks can carry, keyed by MAL operator.
type Direction string

const (
	Append  Direction = "append"
	LeadsTo Direction = "leads_to"
	Require Direction = "require"
)

var directionSymbols = map[string]Direction{
	"+>": Append,
	"->": LeadsTo,
	"<-": Require,
}

// Document is the root of the parsed (or externally supplied) tree: a
// mapping with the recognized keys `defines`, `categories`, and
// `associations` (spec §3). Extra holds any top-level keys outside that
// set found in an externally supplied JSON document: the parser never
// produces them, the emitter skips them silently (Emit writes no trace
// for them), and the combiner still preserves them.
type Document struct {
	Defines      *OrderedMap[string]
	Categories   *OrderedMap[*Category]
	Associations []*Association
	Extra        *OrderedMap[any]
}

// NewDocument returns an empty Document ready for parsing into.
func NewDocument() *Document {
	return &Document{
		Defines:    NewOrderedMap[string](),
		Categories: NewOrderedMap[*Category](),
		Extra:      NewOrderedMap[any](),
	}
}

// Category is a named group of assets, created by a `category Name`
// header (spec §4.4). Category names are unique within a Document;
// re-declaration on Combine merges metadata and assets.
type Category struct {
	Name   string
	Meta   *OrderedMap[string]
	Assets *OrderedMap[*Asset]
	Pos    Position
}

func newCategory(name string) *Category {
	return &Category{Name: name, Meta: NewOrderedMap[string](), Assets: NewOrderedMap[*Asset]()}
}

// Asset is a typed component declared inside a Category. Extends records
// only the base asset's name; no inheritance resolution is performed.
type Asset struct {
	Name       string
	Meta       *OrderedMap[string]
	Attributes *OrderedMap[*Attribute]
	Extends    string
	Abstract   bool
	Pos        Position
}

func newAsset(name string) *Asset {
	return &Asset{Name: name, Meta: NewOrderedMap[string](), Attributes: NewOrderedMap[*Attribute]()}
}

// Attribute is an attack step or defense declared inside an Asset body.
type Attribute struct {
	Name        string
	Type        AttributeType
	Probability string // verbatim distribution descriptor, "" if absent
	CIA         []string
	Tags        []string
	Meta        *OrderedMap[string]

	// Directional expression sub-blocks, present only when the
	// corresponding operator (+>/->/<-) appeared in the source.
	AppendExpr  *OrderedMap[string]
	LeadsToExpr *OrderedMap[string]
	RequireExpr *OrderedMap[string]

	Pos Position
}

func newAttribute(name string, typ AttributeType) *Attribute {
	return &Attribute{Name: name, Type: typ, Meta: NewOrderedMap[string]()}
}

// exprMap returns the OrderedMap for d, creating it on first use, so
// repeated directional-expression blocks of the same direction on one
// attribute accumulate into a single mapping (spec §4.5).
func (a *Attribute) exprMap(d Direction) *OrderedMap[string] {
	switch d {
	case Append:
		if a.AppendExpr == nil {
			a.AppendExpr = NewOrderedMap[string]()
		}
		return a.AppendExpr
	case LeadsTo:
		if a.LeadsToExpr == nil {
			a.LeadsToExpr = NewOrderedMap[string]()
		}
		return a.LeadsToExpr
	case Require:
		if a.RequireExpr == nil {
			a.RequireExpr = NewOrderedMap[string]()
		}
		return a.RequireExpr
	}
	return nil
}

// Association is a named, bidirectional, typed link between two assets:
// asset_l [field_l] mult_l <-- name --> mult_r [field_r] asset_r.
type Association struct {
	Name   string
	AssetL string
	FieldL string
	MultL  string
	AssetR string
	FieldR string
	MultR  string
	Meta   *OrderedMap[string]
	Pos    Position
}

func newAssociation() *Association {
	return &Association{Meta: NewOrderedMap[string]()}
}

// AssetNames returns every asset in the document as "Category.Asset",
// with assets sorted lexically within each category and categories
// visited in declaration order. This supplements the original Python
// implementation's MalParser.__iter__/__next__ asset-walk (see
// original_source/demal/demal.py), exposed here as a plain read-only
// method instead of iterator protocol plumbing.
func (d *Document) AssetNames() []string {
	var names []string
	d.Categories.Range(func(cname string, cat *Category) bool {
		assetKeys := append([]string{}, cat.Assets.Keys()...)
		sort.Strings(assetKeys)
		for _, aname := range assetKeys {
			names = append(names, cname+"."+aname)
		}
		return true
	})
	return names
}
