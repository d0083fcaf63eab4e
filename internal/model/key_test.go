package model

import "testing"

func TestAnswerKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  AnswerKey
		want string
	}{
		{"listening", ListeningKey(1, 2, ""), "listening_s1_q2"},
		{"listening sub-item", ListeningKey(1, 2, "B"), "listening_s1_q2_B"},
		{"reading", ReadingKey(2, 3, ""), "reading_p2_q3"},
		{"reading sub-item", ReadingKey(1, 1, "A"), "reading_p1_q1_A"},
		{"speaking part1", SpeakingKey(1, 4), "speaking_part1_4"},
		{"speaking part2 no prompt id", SpeakingKey(2, 0), "speaking_part2"},
		{"speaking part3", SpeakingKey(3, 1), "speaking_part3_1"},
		{"writing task1", WritingKey(1), "writing_task1"},
		{"writing task2", WritingKey(2), "writing_task2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnswerKeyLookup(t *testing.T) {
	answers := map[string]string{
		"listening_s1_q2": "library",
		"writing_task2":   "my essay",
	}

	if got := ListeningKey(1, 2, "").Lookup(answers); got != "library" {
		t.Errorf("Lookup = %q, want library", got)
	}
	if got := WritingKey(2).Lookup(answers); got != "my essay" {
		t.Errorf("Lookup = %q, want my essay", got)
	}
	if got := ReadingKey(1, 1, "").Lookup(answers); got != "" {
		t.Errorf("Lookup for absent key = %q, want empty", got)
	}
	if got := ListeningKey(1, 2, "").Lookup(nil); got != "" {
		t.Errorf("Lookup on nil map = %q, want empty", got)
	}
}
