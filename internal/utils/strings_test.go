package utils

import "testing"

func TestSlugifyValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Larry Harvey", "larry_harvey"},
		{"  Rod's Road  ", "rod_s_road"},
		{"Black Rock City", "black_rock_city"},
		{"already_snake", "already_snake"},
		{"Multiple   Spaces", "multiple_spaces"},
		{"Trailing! ", "trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SlugifyValue(tt.in); got != tt.want {
			t.Fatalf("%q: want=%q got=%q", tt.in, tt.want, got)
		}
	}
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"larry_harvey", "Larry Harvey"},
		{"the_man", "The Man"},
		{"__double__underscores__", "Double Underscores"},
		{"single", "Single"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Humanize(tt.in); got != tt.want {
			t.Fatalf("%q: want=%q got=%q", tt.in, tt.want, got)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"larry harvey", "Larry Harvey"},
		{"ALL CAPS", "All Caps"},
		{"  spaced  out  ", "Spaced Out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TitleCase(tt.in); got != tt.want {
			t.Fatalf("%q: want=%q got=%q", tt.in, tt.want, got)
		}
	}
}
