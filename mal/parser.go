package mal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Regular expressions for the main declarations (spec §4.3–§4.7), kept
// next to each other so the surface grammar reads as a single table,
// the way alexispurslane-go-org groups its lexFns.
var (
	defineRe              = regexp.MustCompile(`^#(\w+):\s*"(.*)"$`)
	includeRe             = regexp.MustCompile(`^include\s+"(.*)"$`)
	categoryStartRe       = regexp.MustCompile(`^category\s+\w+`)
	associationsStartRe   = regexp.MustCompile(`^associations\s*\{$`)
	categoryHeaderRe      = regexp.MustCompile(`^category\s+(\w+)`)
	assetHeaderRe         = regexp.MustCompile(`^(abstract\s+)?[Aa]sset\s+(\w+)(\s+extends\s+(\w+))?`)
	metaLineRe            = regexp.MustCompile(`^([\w ]+):\s*"(.*)"$`)
	attributeHeaderRe     = regexp.MustCompile(`^(!E|\||&|#|E)\s+(\w+)(\s+\[([\w(). ,]+)\])?`)
	ciaRe                 = regexp.MustCompile(`\{\s*([CIA])(,\s*([CIA])(,\s*([CIA]))?)?\s*\}`)
	exprLetRe             = regexp.MustCompile(`^let\s+([A-Za-z_]\w*)\s*=\s*"?([^"]+)"?`)
	associationRe         = regexp.MustCompile(`^(\w+)\s+\[(\w+)\]\s+([\d*.]+)\s+<--\s*(\w+)\s*-->\s+([\d*.]+)\s+\[(\w+)\]\s+(\w+)`)
	tagTokens             = map[string]bool{"@hidden": true, "@debug": true, "@trace": true}
)

// parser drives recursive-descent consumption of a document across
// however many included files contribute to it; every sub-parser
// mutates the single Document held here (spec §4.3, §9 "Global mutable
// document during parse" — implemented as parser state passed by
// reference, not as process-wide state).
type parser struct {
	cfg *Configuration
	doc *Document
}

// ParseString parses MAL source text into a new Document. path is used
// only for position reporting; include paths are passed to cfg.ReadFile
// as written, not resolved relative to path.
func ParseString(cfg *Configuration, src, path string) (*Document, error) {
	if cfg == nil {
		cfg = New()
	}
	p := &parser{cfg: cfg, doc: NewDocument()}
	if err := p.parseFile(src, path); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// ParseFile reads path (via cfg.ReadFile) and parses it as a top-level
// MAL source file.
func ParseFile(cfg *Configuration, path string) (*Document, error) {
	if cfg == nil {
		cfg = New()
	}
	data, err := cfg.ReadFile(path)
	if err != nil {
		return nil, newIOError(path, err)
	}
	return ParseString(cfg, string(data), path)
}

// parseFile parses one file's worth of top-level lines into p.doc. It
// is re-entrant: an `include` line recurses into parseFile for the
// included path before the parent's loop resumes (spec §4.3). Includes
// are not deduplicated — repeated includes re-execute (spec §4.3).
func (p *parser) parseFile(src, path string) error {
	ls := newLineSource(p.cfg, path, src)
	for ls.More() {
		line, pos, err := ls.Next("parse")
		if err != nil {
			return err
		}
		switch {
		case defineRe.MatchString(line):
			m := defineRe.FindStringSubmatch(line)
			p.doc.Defines.Set(m[1], m[2])
		case includeRe.MatchString(line):
			m := includeRe.FindStringSubmatch(line)
			data, rerr := p.cfg.ReadFile(m[1])
			if rerr != nil {
				return newIOError(m[1], rerr)
			}
			if err := p.parseFile(string(data), m[1]); err != nil {
				return err
			}
		case categoryStartRe.MatchString(line):
			if err := p.parseCategory(ls, line, pos); err != nil {
				return err
			}
		case associationsStartRe.MatchString(line):
			if err := p.parseAssociations(ls); err != nil {
				return err
			}
		default:
			return newSyntaxError(pos, line)
		}
	}
	return nil
}

// consumeMetaUntilBrace reads metadata lines (`key: "value"`) following
// a category or asset header until a line containing `{` is found (spec
// §4.4). Lines that match neither pattern are silently ignored, per the
// Python original's identical behavior — there is no else branch there.
func (p *parser) consumeMetaUntilBrace(ls *LineSource, headerLine string, meta *OrderedMap[string], caller string) error {
	if strings.Contains(headerLine, "{") {
		return nil
	}
	for {
		line, _, err := ls.Next(caller)
		if err != nil {
			return err
		}
		if strings.Contains(line, "{") {
			return nil
		}
		if m := metaLineRe.FindStringSubmatch(line); m != nil {
			meta.Set(m[1], m[2])
		}
	}
}

// parseCategory parses a full `category Name { ... }` block, including
// its metadata and every asset it contains.
func (p *parser) parseCategory(ls *LineSource, headerLine string, pos Position) error {
	m := categoryHeaderRe.FindStringSubmatch(headerLine)
	if m == nil {
		return newSyntaxError(pos, headerLine)
	}
	cat := newCategory(m[1])
	cat.Pos = pos
	p.doc.Categories.Set(m[1], cat)
	if err := p.consumeMetaUntilBrace(ls, headerLine, cat.Meta, "parseHeader"); err != nil {
		return err
	}
	for {
		line, lpos, err := ls.Next("parseCategory")
		if err != nil {
			return err
		}
		if line == "}" {
			return nil
		}
		asset, err := p.parseAssetHeader(ls, cat, line, lpos)
		if err != nil {
			return err
		}
		if err := p.parseAssetBody(ls, asset); err != nil {
			return err
		}
	}
}

func (p *parser) parseAssetHeader(ls *LineSource, cat *Category, line string, pos Position) (*Asset, error) {
	m := assetHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return nil, newSyntaxError(pos, line)
	}
	asset := newAsset(m[2])
	asset.Abstract = strings.TrimSpace(m[1]) != ""
	asset.Extends = m[4]
	asset.Pos = pos
	cat.Assets.Set(m[2], asset)
	if err := p.consumeMetaUntilBrace(ls, line, asset.Meta, "parseHeader"); err != nil {
		return nil, err
	}
	return asset, nil
}

// parseAssetBody reads attribute headers, their metadata, and their
// directional-expression blocks until a line that is exactly `}` is found
// (spec §4.5). The close brace is matched by exact line equality, not mere
// containment, because a `{C,I}`-style CIA annotation on an attribute
// header line would otherwise be mistaken for the closing brace.
func (p *parser) parseAssetBody(ls *LineSource, asset *Asset) error {
	var current *Attribute
	for {
		line, pos, err := ls.Next("parseAsset")
		if err != nil {
			return err
		}
		if line == "}" {
			return nil
		}

		if m := attributeHeaderRe.FindStringSubmatch(line); m != nil {
			typ, ok := symbolToType(m[1])
			if !ok {
				return newSyntaxError(pos, line)
			}
			attr := newAttribute(m[2], typ)
			attr.Probability = m[4]
			if ciaM := ciaRe.FindStringSubmatch(line); ciaM != nil {
				attr.CIA = extractCIA(ciaM)
			}
			attr.Tags = extractTags(line)
			attr.Pos = pos
			asset.Attributes.Set(m[2], attr)
			current = attr
			continue
		}

		if m := metaLineRe.FindStringSubmatch(line); m != nil && current != nil {
			current.Meta.Set(m[1], m[2])
			continue
		}

		if fields := strings.Fields(line); len(fields) > 0 {
			if dir, ok := directionSymbols[fields[0]]; ok && current != nil {
				rest := stripDirectionPrefix(line)
				if err := p.parseExpression(ls, rest, current.exprMap(dir)); err != nil {
					return err
				}
				continue
			}
		}

		return newSyntaxError(pos, line)
	}
}

// stripDirectionPrefix removes the two-character operator (+>, ->, <-)
// and one following space, if present, from the start of line (spec
// §4.5 item 3).
func stripDirectionPrefix(line string) string {
	if len(line) < 2 {
		return ""
	}
	rest := line[2:]
	rest = strings.TrimPrefix(rest, " ")
	return rest
}

// extractCIA reads the {C,I,A} capture groups (indices 1, 3, 5 of the
// ciaRe match) and returns them sorted C, I, A with duplicates removed.
func extractCIA(m []string) []string {
	seen := map[string]bool{}
	for _, idx := range []int{1, 3, 5} {
		if idx < len(m) && m[idx] != "" {
			seen[m[idx]] = true
		}
	}
	var out []string
	for _, letter := range []string{"C", "I", "A"} {
		if seen[letter] {
			out = append(out, letter)
		}
	}
	return out
}

// extractTags splits line on whitespace and keeps the recognized
// annotation tokens, stripping their leading @, in the order found.
func extractTags(line string) []string {
	var tags []string
	for _, f := range strings.Fields(line) {
		if tagTokens[f] {
			tags = append(tags, strings.TrimPrefix(f, "@"))
		}
	}
	return tags
}

// parseExpression parses a directional expression: a comma-terminated
// list, possibly continued across lines, of `let name = expr` or bare
// `expr` elements (spec §4.6). firstLine is the remainder of the header
// line after the operator has been stripped.
func (p *parser) parseExpression(ls *LineSource, firstLine string, field *OrderedMap[string]) error {
	nextKey := field.MaxNumericKey()
	line := firstLine
	for {
		if m := exprLetRe.FindStringSubmatch(line); m != nil {
			field.Set(m[1], strings.TrimSuffix(m[2], ","))
		} else {
			field.Set(strconv.Itoa(nextKey), strings.TrimSuffix(line, ","))
			nextKey++
		}
		if !strings.HasSuffix(line, ",") {
			return nil
		}
		next, _, err := ls.Next("parseExpression")
		if err != nil {
			return err
		}
		line = next
	}
}

// parseAssociations reads lines until one is exactly `}`. Each line either
// matches the full association pattern (spec §4.7), attaches metadata
// to the most recently declared association, or — unlike every other
// block in this grammar — is silently ignored if it matches neither.
func (p *parser) parseAssociations(ls *LineSource) error {
	var current *Association
	for {
		line, pos, err := ls.Next("parseAssociations")
		if err != nil {
			return err
		}
		if line == "}" {
			return nil
		}
		if m := associationRe.FindStringSubmatch(line); m != nil {
			a := newAssociation()
			a.AssetL, a.FieldL, a.MultL = m[1], m[2], m[3]
			a.Name = m[4]
			a.MultR, a.FieldR, a.AssetR = m[5], m[6], m[7]
			a.Pos = pos
			p.doc.Associations = append(p.doc.Associations, a)
			current = a
			continue
		}
		if m := metaLineRe.FindStringSubmatch(line); m != nil && current != nil {
			current.Meta.Set(m[1], m[2])
		}
	}
}

// unexpectedTokenError formats a plain "improper syntax" error for
// context. Nothing in the package calls it: the parser returns
// ParseError values and the emitter returns an ErrorTypeEmit ParseError.
func unexpectedTokenError(context string) error {
	return fmt.Errorf("improper syntax: %s", context)
}
