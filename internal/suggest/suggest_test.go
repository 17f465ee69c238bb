package suggest

import (
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"model", "model", 0},
		{"", "abc", 3},
		{"modle", "model", 2},
		{"kitten", "sitting", 3},
		{"list", "lsit", 2},
		{"ünï", "uni", 2},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClosest(t *testing.T) {
	commands := []string{"g", "generate", "d", "destroy", "list", "relation"}

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"generat", "generate", true},
		{"lst", "list", true},
		{"DESTROY", "destroy", true},
		{"relatoin", "relation", true},
		{"completelydifferent", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Closest(tt.input, commands)
			if ok != tt.ok {
				t.Fatalf("Closest(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Closest(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRanked(t *testing.T) {
	models := []string{"User", "UserProfile", "Post", "Comment"}

	got := Ranked("usr", models)
	if len(got) != 2 {
		t.Fatalf("Ranked(usr) = %v, want 2 matches", got)
	}
	for _, g := range got {
		if g != "User" && g != "UserProfile" {
			t.Errorf("unexpected match %q", g)
		}
	}

	if got := Ranked("", models); got != nil {
		t.Errorf("Ranked(\"\") = %v, want nil", got)
	}
	if got := Ranked("zzz", models); len(got) != 0 {
		t.Errorf("Ranked(zzz) = %v, want none", got)
	}
}

func TestDidYouMean(t *testing.T) {
	models := []string{"User", "UserProfile", "Post", "Comment"}

	if got, ok := DidYouMean("Usr", models); !ok || got != "User" {
		t.Errorf("DidYouMean(Usr) = %q, %v; want User", got, ok)
	}
	// Too far for edit distance, but still a fuzzy subsequence.
	if got, ok := DidYouMean("uprof", models); !ok || got != "UserProfile" {
		t.Errorf("DidYouMean(uprof) = %q, %v; want UserProfile", got, ok)
	}
	if _, ok := DidYouMean("", models); ok {
		t.Error("DidYouMean(\"\") reported a suggestion")
	}
	if _, ok := DidYouMean("xyzxyzxyz", models); ok {
		t.Error("DidYouMean(xyzxyzxyz) reported a suggestion")
	}
}
