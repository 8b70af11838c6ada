package mal

// LineSource is a lazy, restartable-per-file sequence of trimmed,
// nonempty lines (spec §4.2). The parser drives it directly: the
// top-level loop and every block sub-parser call Next to advance past
// the line they just consumed, including for continuation lines inside
// multi-line constructs (metadata blocks, directional expressions).
type LineSource struct {
	file  string
	lines []string
	pos   int
	cfg   *Configuration
}

// newLineSource strips comments from text, splits it into trimmed
// nonempty lines, and returns a cursor over them scoped to file (used
// for position reporting and, if needed, later diagnostics).
func newLineSource(cfg *Configuration, file, text string) *LineSource {
	return &LineSource{
		file:  file,
		lines: splitLines(stripComments(text)),
		cfg:   cfg,
	}
}

// More reports whether another line is available without consuming it.
func (ls *LineSource) More() bool {
	return ls.pos < len(ls.lines)
}

// Next advances the cursor and returns the next line, its position, and
// a nil error — or, if the source is exhausted, a terminal "incomplete
// script" ParseError referencing the last line seen. caller identifies
// the requesting parser function for debug tracing.
func (ls *LineSource) Next(caller string) (string, Position, error) {
	if ls.pos >= len(ls.lines) {
		last := ""
		if ls.pos > 0 {
			last = ls.lines[ls.pos-1]
		}
		pos := Position{File: ls.file, Line: ls.pos + 1}
		return "", pos, newIncompleteError(pos, last)
	}
	line := ls.lines[ls.pos]
	ls.pos++
	pos := Position{File: ls.file, Line: ls.pos}
	if ls.cfg.Debug && ls.cfg.Log != nil {
		ls.cfg.Log.Printf("%s got: %q", caller, line)
	}
	return line, pos, nil
}
