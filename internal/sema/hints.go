package sema

import (
	"vesper/internal/sym"
)

// maxHintDistance caps how far a candidate name may drift before the
// suggestion does more harm than good.
const maxHintDistance = 2

// similarBaseName finds the closest dispatchable method name in the base
// chain, for "did you mean" hints on stray override markers.
func (r *Resolver) similarBaseName(classID sym.ClassID, name string) string {
	best := ""
	bestDist := maxHintDistance + 1
	for classID.IsValid() {
		c := r.graph.Classes.Get(classID)
		if c == nil {
			break
		}
		for _, mid := range c.Vtbl {
			m := r.graph.Decls.Get(mid)
			if m == nil {
				continue
			}
			candidate := r.graph.Name(mid)
			if candidate == "" || candidate == name {
				continue
			}
			if d := editDistance(name, candidate); d < bestDist {
				bestDist = d
				best = candidate
			}
		}
		classID = c.Base
	}
	return best
}

// editDistance is plain Levenshtein with a two-row table.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
