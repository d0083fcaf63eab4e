package scoring

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  London  ", "london"},
		{"LONDON.", "london"},
		{"the   answer,", "the answer"},
		{"red;", "red"},
		{"aب  c", "aب c"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		correct string
		want    bool
	}{
		{"case insensitive exact", "London", "london", true},
		{"trailing punctuation", "london.", "London", true},
		{"whitespace runs", "  the   moon  ", "the moon", true},
		{"empty user", "", "london", false},
		{"whitespace only user", "   ", "london", false},
		{"empty correct", "london", "", false},
		{"wrong answer", "paris", "london", false},
		{"containment in long answer", "the city is london", "london", true},
		{"containment requires doubling", "in london", "london", false},
		{"no partial word containment", "londonderry is a city", "london", false},
		{"token subset", "i think it is the red car", "red car", true},
		{"multi word near overlap", "climate change effects the world", "climate change affects the world", false},
		{"multi word reorder", "change climate", "climate change", true},
		{"typo tolerance", "environmental protecton", "environmental protection", true},
		{"typo below threshold", "enviroment", "environment", false},
		{"typo too far", "cat", "dog", false},
		{"option letter", "B", "b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.user, tt.correct); got != tt.want {
				t.Errorf("Compare(%q, %q) = %v, want %v", tt.user, tt.correct, got, tt.want)
			}
		})
	}
}

func TestOrderedSimilarity(t *testing.T) {
	if got := orderedSimilarity("", "abc"); got != 0 {
		t.Errorf("orderedSimilarity with empty input = %v, want 0", got)
	}
	if got := orderedSimilarity("abc", "abc"); got != 1.0 {
		t.Errorf("orderedSimilarity identical = %v, want 1.0", got)
	}
	got := orderedSimilarity("abcd", "abc")
	if got != 0.75 {
		t.Errorf("orderedSimilarity(abcd, abc) = %v, want 0.75", got)
	}
}
