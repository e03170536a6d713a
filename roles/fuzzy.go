package roles

import (
	"sort"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

const slab16Size int = 100 * 1024
const slab32Size int = 2048

//RankedMatch is one candidate scored against a query, highest score first in
//the slices Match returns.
type RankedMatch struct {
	Value string
	Score int
}

//Matcher scores user-typed strings against candidate sets using fzf's
//matching algorithm. Matching is case-insensitive. A Matcher is safe for
//concurrent use.
type Matcher struct {
	mu     sync.Mutex
	slab   *util.Slab
	cutoff int
}

//NewMatcher returns a matcher whose Best method requires at least cutoff
//score to report a match.
func NewMatcher(cutoff int) *Matcher {
	return &Matcher{
		slab:   util.MakeSlab(slab16Size, slab32Size),
		cutoff: cutoff,
	}
}

//Match returns every candidate with a positive score against query, ranked
//best first. An empty query matches nothing.
func (m *Matcher) Match(query string, candidates []string) []RankedMatch {
	pattern := []rune(strings.ToLower(query))
	if len(pattern) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []RankedMatch
	for _, candidate := range candidates {
		chars := util.ToChars([]byte(strings.ToLower(candidate)))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, m.slab)
		if result.Score > 0 {
			results = append(results, RankedMatch{Value: candidate, Score: result.Score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

//Best returns the highest-ranked candidate whose score clears the cutoff,
//or false if none does.
func (m *Matcher) Best(query string, candidates []string) (string, bool) {
	ranked := m.Match(query, candidates)
	if len(ranked) == 0 || ranked[0].Score < m.cutoff {
		return "", false
	}
	return ranked[0].Value, true
}
