package breakpoint

// Classified holds a file's breakpoint set partitioned by position kind.
type Classified struct {
	// LineLevel holds breakpoints with no column qualifier.
	LineLevel []Breakpoint

	// Inline holds column-qualified breakpoints.
	Inline []Breakpoint
}

// Classify partitions records by presence of a column qualifier. The
// partition is total: every record lands in exactly one group.
func Classify(records []Breakpoint) Classified {
	var c Classified
	for _, bp := range records {
		if bp.IsInline() {
			c.Inline = append(c.Inline, bp)
		} else {
			c.LineLevel = append(c.LineLevel, bp)
		}
	}
	return c
}

// FindAt returns the record at the exact (line, column) key, if any.
// Column 0 matches only line-level records; it never incidentally matches
// an inline record on the same line.
func FindAt(records []Breakpoint, line, column int) (Breakpoint, bool) {
	for _, bp := range records {
		if bp.Line == line && bp.Column == column {
			return bp, true
		}
	}
	return Breakpoint{}, false
}
