// Package voice turns a spoken expense ("pollo dos kilos trescientos") into a
// categorized expense draft.
//
// Parse extracts the item phrase, quantity and amount from the transcript.
// Resolve maps the item phrase onto the caller's catalog snapshot. Both are
// pure functions and safe for concurrent use.
package voice

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ParsedCommand is the result of parsing one utterance. Quantity and Amount
// are numeric literals with "." as decimal separator, or empty.
type ParsedCommand struct {
	ItemQuery string `json:"itemQuery"`
	Quantity  string `json:"cantidad"`
	Amount    string `json:"monto"`
}

// Empty reports whether nothing usable was understood.
func (c ParsedCommand) Empty() bool {
	return strings.TrimSpace(c.ItemQuery) == "" && c.Quantity == "" && c.Amount == ""
}

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Parse reads an utterance in the canonical "item, quantity, amount" order.
//
// With no numbers the whole phrase is the item. With one number it is the
// amount and the quantity defaults to "1". With two or more, the first is the
// quantity and the last the amount; anything in between is dropped.
func Parse(text string) ParsedCommand {
	raw := normalizeUtterance(text)
	words := strings.Fields(raw)

	processed := translateNumerals(stripUnits(words))
	nums := extractNumbers(processed)

	// The item is cut from the raw words at the processed index. processed is
	// never longer than words, so a unit word said before the first number
	// shortens the item phrase by one word.
	item := raw
	for i, w := range processed {
		if startsWithDigit(w) {
			item = strings.Join(words[:i], " ")
			break
		}
	}

	cmd := ParsedCommand{ItemQuery: strings.TrimSpace(item)}
	switch len(nums) {
	case 0:
	case 1:
		cmd.Quantity = "1"
		cmd.Amount = nums[0]
	default:
		cmd.Quantity = nums[0]
		cmd.Amount = nums[len(nums)-1]
	}
	return cmd
}

// normalizeUtterance lowercases, turns commas and periods into spaces and
// collapses whitespace. A separator between two digits is a decimal mark and
// is kept.
func normalizeUtterance(text string) string {
	runes := []rune(strings.ToLower(norm.NFC.String(text)))
	var b strings.Builder
	b.Grow(len(runes))
	for i, r := range runes {
		if r == ',' || r == '.' {
			if i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
				b.WriteRune(r)
				continue
			}
			b.WriteRune(' ')
			continue
		}
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func extractNumbers(tokens []string) []string {
	found := numberPattern.FindAllString(strings.Join(tokens, " "), -1)
	for i, n := range found {
		found[i] = strings.ReplaceAll(n, ",", ".")
	}
	return found
}

func startsWithDigit(s string) bool {
	return s != "" && isDigit(rune(s[0]))
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
