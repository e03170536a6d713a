package roles

import (
	"testing"
)

var matchCandidates = []string{"Pronoun_roles", "Colour_roles", "Game_night", "Announcements"}

func TestMatchRanksBestFirst(t *testing.T) {
	matcher := NewMatcher(defaultFuzzyCutoff)
	ranked := matcher.Match("pronoun", matchCandidates)
	if len(ranked) == 0 {
		t.Fatalf("Expected at least one match for pronoun")
	}
	if ranked[0].Value != "Pronoun_roles" {
		t.Errorf("Expected Pronoun_roles ranked first, got %v", ranked[0].Value)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("Expected scores in descending order, got %v", ranked)
		}
	}
}

func TestMatchEmptyQueryMatchesNothing(t *testing.T) {
	matcher := NewMatcher(defaultFuzzyCutoff)
	if ranked := matcher.Match("", matchCandidates); ranked != nil {
		t.Errorf("Expected no matches for empty query, got %v", ranked)
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	matcher := NewMatcher(defaultFuzzyCutoff)
	ranked := matcher.Match("PRONOUN", matchCandidates)
	if len(ranked) == 0 || ranked[0].Value != "Pronoun_roles" {
		t.Errorf("Expected case-insensitive match, got %v", ranked)
	}
}

func TestBestAppliesCutoff(t *testing.T) {
	matcher := NewMatcher(defaultFuzzyCutoff)
	best, ok := matcher.Best("colour", matchCandidates)
	if !ok || best != "Colour_roles" {
		t.Errorf("Expected Colour_roles as best match, got %v (ok=%v)", best, ok)
	}
	if _, ok := matcher.Best("zzqqxx", matchCandidates); ok {
		t.Errorf("Expected garbage query to clear nothing")
	}
}
