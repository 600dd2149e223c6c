package alias_test

import (
	"strings"
	"testing"

	"reelcache/internal/alias"
)

func TestShouldAdd(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		existing  []string
		canonical string
		want      bool
	}{
		{"empty", "", nil, "Heat", false},
		{"blank", "   ", nil, "Heat", false},
		{"canonical", "heat", nil, "Heat", false},
		{"existing alias", "LE SAMOURAI", []string{"Le Samouraï", "Le Samourai"}, "The Samurai", false},
		{"anchored", "Up", []string{"Up in the Air"}, "", true},
		{"new", "Vertigo", []string{"Sueurs froides"}, "Vertigo (1958)", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := alias.ShouldAdd(tt.candidate, tt.existing, tt.canonical); got != tt.want {
				t.Errorf("ShouldAdd(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestAppendKeepsListUnique(t *testing.T) {
	canonical := "The Matrix"
	got := alias.Append(nil, canonical, 0, "Matrix", "the matrix", "MATRIX", "Matrix Reloaded", "", canonical)
	if len(got) != 2 {
		t.Fatalf("expected 2 aliases, got %v", got)
	}
	seen := map[string]bool{strings.ToLower(canonical): true}
	for _, value := range got {
		key := strings.ToLower(value)
		if seen[key] {
			t.Fatalf("duplicate alias %q in %v", value, got)
		}
		seen[key] = true
	}
}

func TestAppendRespectsLimit(t *testing.T) {
	got := alias.Append([]string{"A"}, "", 2, "B", "C", "D")
	if len(got) != 2 || got[1] != "B" {
		t.Fatalf("unexpected list: %v", got)
	}
}
