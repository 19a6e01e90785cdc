package grocery

import "strings"

// DefaultPrice is used when no price rule matches an ingredient name.
const DefaultPrice = "$3.99"

type priceRule struct {
	label string
	match func(name string) bool
	price string
}

// priceRules is evaluated top to bottom and the first match wins, so
// combination items ("mac and cheese", "peanut butter") must stay ahead of
// the generic keywords they contain.
var priceRules = []priceRule{
	{"mac and cheese", containsAll("mac", "cheese"), "$2.00"},
	{"peanut butter", containsAny("peanut butter", "kraft peanut", "skippy", "jif"), "$5.99"},
	{"fruit", containsAny("apple", "banana", "orange"), "$3.99"},
	{"leafy greens", containsAny("lettuce", "salad", "spinach", "kale", "greens", "arugula"), "$2.99"},
	{"produce", containsAny("tomato", "cucumber", "onion"), "$2.49"},
	{"cheese", func(n string) bool { return strings.Contains(n, "cheese") && !strings.Contains(n, "mac") }, "$4.99"},
	{"milk and yogurt", containsAny("milk", "yogurt"), "$4.29"},
	{"eggs", containsAny("egg"), "$3.99"},
	{"meat", containsAny("chicken", "beef", "pork"), "$8.99"},
	{"fish", containsAny("fish", "salmon"), "$12.99"},
	{"bread and pasta", containsAny("bread", "pasta"), "$2.99"},
	{"grains", containsAny("rice", "quinoa"), "$3.49"},
	{"oil", containsAny("oil", "olive"), "$5.99"},
	{"butter", containsAny("butter", "margarine"), "$4.49"},
	{"potatoes", containsAny("potato"), "$3.99"},
}

// EstimatePrice returns a typical grocery price for an ingredient that was
// listed without one. It never fails; unknown items get DefaultPrice.
func EstimatePrice(name string) string {
	n := strings.ToLower(name)
	for _, r := range priceRules {
		if r.match(n) {
			return r.price
		}
	}
	return DefaultPrice
}

func containsAny(keywords ...string) func(string) bool {
	return func(s string) bool {
		for _, k := range keywords {
			if strings.Contains(s, k) {
				return true
			}
		}
		return false
	}
}

func containsAll(keywords ...string) func(string) bool {
	return func(s string) bool {
		for _, k := range keywords {
			if !strings.Contains(s, k) {
				return false
			}
		}
		return true
	}
}
