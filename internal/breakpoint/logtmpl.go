package breakpoint

import "strings"

// ExtractLogVariables scans a log message template for {expression} spans
// and returns the raw expression text in order of appearance. Spans are
// non-greedy and nested braces are not supported: a '{' opens a span that
// the next '}' closes. Unterminated spans are ignored. The result is used
// for previews only, never evaluation.
func ExtractLogVariables(template string) []string {
	var vars []string
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			continue
		}
		end := strings.IndexByte(template[i+1:], '}')
		if end < 0 {
			break
		}
		vars = append(vars, template[i+1:i+1+end])
		i += end + 1
	}
	return vars
}

// RenderLogPreview replaces each {expr} span with <expr> for display.
// This is a placeholder rendering; real interpolation is the adapter's job.
func RenderLogPreview(template string) string {
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '{' {
			b.WriteByte(c)
			continue
		}
		end := strings.IndexByte(template[i+1:], '}')
		if end < 0 {
			b.WriteString(template[i:])
			break
		}
		b.WriteByte('<')
		b.WriteString(template[i+1 : i+1+end])
		b.WriteByte('>')
		i += end + 1
	}
	return b.String()
}
