package core

import "strings"

// ParseLine splits one line of delimited text into its fields.
//
// A doubled quote inside a quoted field yields one literal quote. A
// delimiter inside quotes is kept as text. An unterminated quote is treated
// as closed at end of line rather than reported. The result always holds
// one more field than there are delimiters outside quotes, so an empty line
// yields a single empty field.
func ParseLine(line string, delim, quote rune) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == quote:
			if inQuotes && i+1 < len(runes) && runes[i+1] == quote {
				current.WriteRune(quote)
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == delim && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	return append(fields, current.String())
}

// ParseCSVLine is ParseLine with the export delimiter and quote.
func ParseCSVLine(line string) []string {
	return ParseLine(line, Delimiter, Quote)
}
