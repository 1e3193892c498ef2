// Package delimited parses and formats single lines of delimited text with
// double-quote quoting. It is the reader behind hierarchy files, which
// routinely carry separators inside labels such as "<40" or "30,35".
package delimited

import "strings"

const quote = '"'

// ParseLine splits one line into fields.
//
// A quote toggles quoted mode, except that inside quotes a doubled quote
// emits a literal quote. The separator only splits outside quotes. The last
// field is always emitted, so an empty line yields one empty field. An
// unterminated quote is treated as closed at end of line.
func ParseLine(line string, sep rune) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == quote:
			if inQuotes && i+1 < len(runes) && runes[i+1] == quote {
				field.WriteRune(quote)
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == sep && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(c)
		}
	}

	return append(fields, field.String())
}

// FormatLine joins fields with sep, quoting any field that contains the
// separator, a quote, or a line break and doubling embedded quotes.
func FormatLine(fields []string, sep rune) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteRune(sep)
		}
		if !needsQuoting(f, sep) {
			sb.WriteString(f)
			continue
		}
		sb.WriteRune(quote)
		sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
		sb.WriteRune(quote)
	}
	return sb.String()
}

func needsQuoting(field string, sep rune) bool {
	return strings.ContainsRune(field, sep) ||
		strings.ContainsRune(field, quote) ||
		strings.ContainsAny(field, "\r\n")
}
