package tts

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "plain text untouched",
			text: "Alice was beginning to get very tired.",
			want: "Alice was beginning to get very tired.",
		},
		{
			name: "bare page number",
			text: "42",
			want: "",
		},
		{
			name: "labelled page number",
			text: "Page 42",
			want: "",
		},
		{
			name: "abbreviated page label",
			text: "pg. 7",
			want: "",
		},
		{
			name: "number inside a sentence kept",
			text: "There were 42 of them.",
			want: "There were 42 of them.",
		},
		{
			name: "asterisk separator",
			text: "  ***  ",
			want: "",
		},
		{
			name: "dash separator",
			text: "-----",
			want: "",
		},
		{
			name: "url reduced to domain",
			text: "Visit https://www.example.com/path/page for more.",
			want: "Visit example.com for more.",
		},
		{
			name: "url keeps trailing period",
			text: "Read https://example.com.",
			want: "Read example.com.",
		},
		{
			name: "numeric citation removed",
			text: "This was shown [1] before.",
			want: "This was shown before.",
		},
		{
			name: "multi-reference citation removed",
			text: "Several studies [1, 2, 3] agree.",
			want: "Several studies agree.",
		},
		{
			name: "author-year citation removed",
			text: "The study (Smith, 2020) shows growth.",
			want: "The study shows growth.",
		},
		{
			name: "parenthetical aside kept",
			text: "The dog (a terrier) barked.",
			want: "The dog (a terrier) barked.",
		},
		{
			name: "space runs collapsed",
			text: "Too   many    spaces.",
			want: "Too many spaces.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.text); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
