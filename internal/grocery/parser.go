package grocery

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	saleTagPattern   = regexp.MustCompile(`(?i)\[SALE:\s*([^\]]+)\]`)
	reusedTagPattern = regexp.MustCompile(`(?i)\[REUSED\]`)
	// Only a price at the very end of the line counts; "$" amounts mentioned
	// mid-description are part of the name. Amounts stacked at the end are
	// all stripped and the last one is the price.
	trailingPricePattern = regexp.MustCompile(`\s*-?\s*\$(\d+(?:\.\d+)?)\s*$`)
)

// ParsedIngredient is one ingredient line with its inline markers resolved.
type ParsedIngredient struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	IsOnSale bool   `json:"is_on_sale"`
	Store    string `json:"store"`
	IsReused bool   `json:"is_reused"`
}

// Parse splits a raw ingredient line of the form
//
//	<name> [SALE:<store>] [REUSED] - $<price>
//
// into its parts. Tags may appear in any order; the price, when present,
// trails the line. Price is left empty when the line carries none, and Name
// is empty when nothing remains after stripping, in which case the line
// should be skipped.
func Parse(raw string) ParsedIngredient {
	var p ParsedIngredient
	rest := raw

	p.Store, rest, p.IsOnSale = extractSale(rest)
	rest, p.IsReused = extractReused(rest)

	var amount string
	var found bool
	amount, rest, found = extractPrice(rest)
	if found {
		p.Price = FormatPrice(amount)
	}

	p.Name = cleanName(rest)
	return p
}

func extractSale(s string) (store, rest string, ok bool) {
	m := saleTagPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return "", s, false
	}
	store = strings.TrimSpace(s[m[2]:m[3]])
	rest = s[:m[0]] + " " + s[m[1]:]
	return store, rest, true
}

func extractReused(s string) (rest string, ok bool) {
	if !reusedTagPattern.MatchString(s) {
		return s, false
	}
	return reusedTagPattern.ReplaceAllString(s, " "), true
}

func extractPrice(s string) (amount, rest string, ok bool) {
	rest = s
	for {
		m := trailingPricePattern.FindStringSubmatchIndex(rest)
		if m == nil {
			return amount, rest, ok
		}
		if !ok {
			amount, ok = rest[m[2]:m[3]], true
		}
		rest = rest[:m[0]]
	}
}

func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatPrice renders a numeric amount such as "8.99", "3" or "$2.5" as
// "$X.XX". Unparseable input yields DefaultPrice.
func FormatPrice(amount string) string {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(amount), "$"))
	if err != nil {
		return DefaultPrice
	}
	return "$" + d.StringFixed(2)
}
