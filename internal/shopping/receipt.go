package shopping

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	receiptWidth   = 40
	receiptNameCol = 26
)

// WriteReceipt renders the list as a fixed-width, receipt-style text block.
func WriteReceipt(w io.Writer, l *List) error {
	var b strings.Builder
	rule := strings.Repeat("-", receiptWidth)

	fmt.Fprintf(&b, "BARGAIN BITES - week of %s\n", l.WeekStart.Format("Jan 2, 2006"))
	b.WriteString(rule + "\n")

	if len(l.Items) == 0 {
		b.WriteString("No items for this week.\n")
	}

	for _, section := range l.Sections {
		b.WriteString(strings.ToUpper(string(section.Category)) + "\n")
		for _, it := range section.Items {
			box := "[ ]"
			if it.Checked {
				box = "[x]"
			}
			name := it.Name
			price := it.Price
			switch {
			case it.IsReused:
				name += " (reused)"
				price = "--"
			case it.IsOnSale:
				name += " *" + it.Store
			}
			fmt.Fprintf(&b, "%s %-*s %9s\n", box, receiptNameCol, truncate(name, receiptNameCol), price)
		}
		fmt.Fprintf(&b, "%*s\n", receiptWidth, "subtotal "+l.Subtotals[section.Category])
	}

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%-*s %9s\n", receiptWidth-10, "TOTAL", l.Total)
	if l.SaleCount > 0 {
		fmt.Fprintf(&b, "* on sale: %d item(s)\n", l.SaleCount)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "~"
}
