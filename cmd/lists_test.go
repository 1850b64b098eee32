package main

import (
	"strings"
	"testing"

	"github.com/desertthunder/listsync/internal/services"
)

func TestSuggestListNames(t *testing.T) {
	lists := []services.ListSummary{
		{ID: "1", Name: "My Movie List"},
		{ID: "2", Name: "Movies to Watch"},
		{ID: "3", Name: "Horror"},
		{ID: "4", Name: "Movie Night"},
		{ID: "5", Name: "Favourite Movies"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"no match", "western", nil},
		{"case-insensitive", "HORROR", []string{`"Horror"`}},
		{"closest first", "movie list", []string{`"My Movie List"`}},
		{"capped", "movie", []string{`"Movie Night"`, `"My Movie List"`, `"Movies to Watch"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestListNames(tt.query, lists)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("suggestListNames(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
