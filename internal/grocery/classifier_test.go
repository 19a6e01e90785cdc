package grocery

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"Romaine Lettuce", Produce},
		{"cherry tomatoes", Produce},
		{"Red bell pepper", Produce},
		{"Sweet potato", Produce},
		{"Milk", Dairy},
		{"Greek yogurt", Dairy},
		{"Eggs", Dairy},
		{"mac and cheese", Dairy},
		{"Chicken breast", Meat},
		{"Ground turkey", Meat},
		{"Salmon fillet", Meat},
		{"Whole wheat bread", Bakery},
		{"Sesame bagels", Bakery},
		{"Rice", Pantry},
		{"Olive oil", Pantry},
		{"", Pantry},
	}
	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestClassifyPrefersEarlierGroups(t *testing.T) {
	// "buttermilk" hits Dairy before anything else; "onion bun" is Produce
	// because Produce is checked before Bakery.
	if got := Classify("onion bun"); got != Produce {
		t.Errorf("Classify(onion bun) = %q, want %q", got, Produce)
	}
	if got := Classify("buttermilk"); got != Dairy {
		t.Errorf("Classify(buttermilk) = %q, want %q", got, Dairy)
	}
}

func TestClassifyAlwaysReturnsKnownCategory(t *testing.T) {
	for _, name := range []string{"", "???", "dragon fruit", "Chicken", "kale chips", "SOY SAUCE"} {
		if c := Classify(name); !c.Valid() {
			t.Errorf("Classify(%q) = %q, not a known category", name, c)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" dairy "); !ok || c != Dairy {
		t.Errorf("ParseCategory(dairy) = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("frozen"); ok {
		t.Error("ParseCategory(frozen) should not match")
	}
}
