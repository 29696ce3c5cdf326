package usecase

import (
	"reflect"
	"testing"
)

func TestTransliterateASCII(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"diacritics folded", "café au lait", "cafe au lait"},
		{"ascii passthrough", "chicken breast", "chicken breast"},
		{"mixed diacritics", "jalapeño crème brûlée", "jalapeno creme brulee"},
		{"non-latin dropped", "鶏肉 chicken", " chicken"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.TransliterateASCII(tt.input); got != tt.want {
				t.Errorf("TransliterateASCII(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	n := NewNormalizer(nil)

	t.Run("rewrites soda to cola", func(t *testing.T) {
		if got := n.Canonicalize("soda", "", ""); got != "cola" {
			t.Errorf("got %q, want cola", got)
		}
	})

	t.Run("normalizes whey protein", func(t *testing.T) {
		if got := n.Canonicalize("whey protein", "", ""); got != "protein powder (whey)" {
			t.Errorf("got %q, want protein powder (whey)", got)
		}
	})

	t.Run("translates multilingual tokens", func(t *testing.T) {
		if got := n.Canonicalize("pollo asado", "", ""); got != "chicken asado" {
			t.Errorf("got %q, want chicken asado", got)
		}
	})

	t.Run("chips under mcdonalds side becomes fries", func(t *testing.T) {
		if got := n.Canonicalize("chips", "McDonald's", "side"); got != "fries" {
			t.Errorf("got %q, want fries", got)
		}
	})

	t.Run("chips without brand context stays chips", func(t *testing.T) {
		if got := n.Canonicalize("chips", "", ""); got != "chips" {
			t.Errorf("got %q, want chips", got)
		}
	})

	t.Run("transliterates before aliasing", func(t *testing.T) {
		if got := n.Canonicalize("Lait entier", "", ""); got != "milk entier" {
			t.Errorf("got %q, want milk entier", got)
		}
	})

	t.Run("skim milk alias", func(t *testing.T) {
		if got := n.Canonicalize("nonfat milk", "", ""); got != "milk (skim)" {
			t.Errorf("got %q, want milk (skim)", got)
		}
	})
}

func TestCanonicalPortionLabel(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		input string
		want  string
	}{
		{"Lg", "large"},
		{"med plate", "medium plate"},
		{"SMALL", "small"},
		{"", ""},
		{"2 scoops", "2 scoops"},
	}
	for _, tt := range tests {
		if got := n.CanonicalPortionLabel(tt.input); got != tt.want {
			t.Errorf("CanonicalPortionLabel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractCriticalTokens(t *testing.T) {
	n := NewNormalizer(nil)

	t.Run("diet cola", func(t *testing.T) {
		got := n.ExtractCriticalTokens("diet cola")
		if !got["diet"] {
			t.Errorf("want diet token, got %v", got)
		}
	})

	t.Run("sugar-free maps to diet", func(t *testing.T) {
		got := n.ExtractCriticalTokens("sugar-free lemonade")
		if !got["diet"] {
			t.Errorf("want diet token, got %v", got)
		}
	})

	t.Run("fat tier percent", func(t *testing.T) {
		got := n.ExtractCriticalTokens("milk (2%)")
		if !got["2%"] {
			t.Errorf("want 2%% token, got %v", got)
		}
	})

	t.Run("numeric lean percent", func(t *testing.T) {
		got := n.ExtractCriticalTokens("90% lean ground beef")
		if !got["lean"] {
			t.Errorf("want lean token, got %v", got)
		}
	})

	t.Run("whole only load-bearing for milk", func(t *testing.T) {
		if got := n.ExtractCriticalTokens("whole wheat bread"); got["whole"] {
			t.Errorf("whole wheat should not extract whole, got %v", got)
		}
		if got := n.ExtractCriticalTokens("whole milk"); !got["whole"] {
			t.Errorf("whole milk should extract whole, got %v", got)
		}
	})

	t.Run("nonfat folds to skim", func(t *testing.T) {
		got := n.ExtractCriticalTokens("nonfat yogurt")
		if !got["skim"] {
			t.Errorf("want skim token, got %v", got)
		}
	})

	t.Run("plain food has none", func(t *testing.T) {
		if got := n.ExtractCriticalTokens("chicken breast"); len(got) != 0 {
			t.Errorf("want no tokens, got %v", got)
		}
	})
}

func TestHeadToken(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		query string
		want  string
	}{
		{"cola (diet)", "cola"},
		{"fresh spinach salad", "spinach"},
		{"the whole milk", "whole"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := n.HeadToken(tt.query); got != tt.want {
			t.Errorf("HeadToken(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestStripParenthetical(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		query string
		want  string
	}{
		{"cola (diet)", "diet cola"},
		{"milk (2%)", "2% milk"},
		{"plain rice", "plain rice"},
		{"fries ()", "fries"},
	}
	for _, tt := range tests {
		if got := n.StripParenthetical(tt.query); got != tt.want {
			t.Errorf("StripParenthetical(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestHeadWords(t *testing.T) {
	n := NewNormalizer(nil)

	if got := n.HeadWords("grilled chicken breast with herbs", 2); got != "grilled chicken" {
		t.Errorf("got %q, want grilled chicken", got)
	}
	if got := n.HeadWords("rice", 2); got != "rice" {
		t.Errorf("got %q, want rice", got)
	}
	if got := n.HeadWords("cola (diet)", 2); got != "cola" {
		t.Errorf("got %q, want cola", got)
	}
}

func TestCategorize(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name string
		want string
	}{
		{"chicken biryani", "rice_mixed_main"},
		{"vegetable fried rice", "rice_mixed_main"},
		{"cucumber raita", "yogurt_side"},
		{"lentil curry", "curry"},
		{"dal tadka", "curry"},
		{"greek salad", "salad"},
		{"cheeseburger", ""},
	}
	for _, tt := range tests {
		if got := n.Categorize(tt.name); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExclusionConflict(t *testing.T) {
	n := NewNormalizer(nil)

	t.Run("sweet potato fries blocked for plain fries", func(t *testing.T) {
		if !n.ExclusionConflict("fries", "Sweet potato fries, frozen") {
			t.Error("want conflict")
		}
	})

	t.Run("sweet allowed when asked for", func(t *testing.T) {
		if n.ExclusionConflict("sweet potato fries", "Sweet potato fries, frozen") {
			t.Error("want no conflict")
		}
	})

	t.Run("veggie burger blocked for burger", func(t *testing.T) {
		if !n.ExclusionConflict("burger", "Veggie burger patty") {
			t.Error("want conflict")
		}
	})

	t.Run("unrelated description passes", func(t *testing.T) {
		if n.ExclusionConflict("fries", "Potatoes, french fried, fast food") {
			t.Error("want no conflict")
		}
	})
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Milk, reduced fat (2%)")
	want := []string{"milk", "reduced", "fat", "2%"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}

	if got := Tokenize("a b cd"); !reflect.DeepEqual(got, []string{"cd"}) {
		t.Errorf("single-char tokens should drop, got %v", got)
	}
}
