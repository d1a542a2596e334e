package slotmap

import "sort"

// Span is an inclusive, 1-based token range.  The zero Span is empty.
type Span struct {
	Start int
	End   int
}

// IsEmpty reports whether the span covers no token.
func (s Span) IsEmpty() bool { return s.Start == 0 || s.End < s.Start }

// Contains reports whether token i lies inside the span.
func (s Span) Contains(i int) bool { return !s.IsEmpty() && i >= s.Start && i <= s.End }

// SpanRules decides which dependents extend a constituent.
type SpanRules struct {
	// expanding lists the labels that extend the span; nil admits every
	// label that is not a boundary.
	expanding relations
	boundary  relations
	// stop marks individual tokens as boundaries regardless of label.
	stop func(i int) bool
	// within restricts extraction to a token scope.
	within func(i int) bool
}

// NounPhraseRules is the narrow noun-phrase rule set: determiners,
// possessives, compounds and adjectival modifiers extend the span, a
// relative-clause predicate bounds it.
var NounPhraseRules = SpanRules{
	expanding: relSet(relDet, relPoss, relCompound, relAmod),
	boundary:  relSet(relRelcl),
}

// phraseRules admits every dependent except the roots of detected
// subordinate clauses.
func phraseRules(clauseRoot func(int) bool) SpanRules {
	return SpanRules{stop: clauseRoot}
}

// flatRules admits the whole subtree restricted to a scope.
func flatRules(within func(int) bool) SpanRules {
	return SpanRules{within: within}
}

func (r SpanRules) isBoundary(t *Tree, c int) bool {
	if r.boundary.has(t.rel(c)) {
		return true
	}
	return r.stop != nil && r.stop(c)
}

func (r SpanRules) expands(t *Tree, c int) bool {
	if r.within != nil && !r.within(c) {
		return false
	}
	if r.expanding == nil {
		return true
	}
	return r.expanding.has(t.rel(c))
}

// Extract returns the contiguous range covered by the constituent headed
// by head.
func Extract(t *Tree, head int, rules SpanRules) Span {
	toks := ExtractTokens(t, head, rules)
	if len(toks) == 0 {
		return Span{}
	}
	return Span{Start: toks[0], End: toks[len(toks)-1]}
}

// ExtractTokens returns the tokens of the constituent headed by head in
// sentence order.  Embedded clause bodies are excluded; a relativizer is
// kept when it is the subject of the excluded clause.  Punctuation at either
// edge is trimmed.
func ExtractTokens(t *Tree, head int, rules SpanRules) []int {
	var out []int
	var visit func(i int)
	visit = func(i int) {
		out = append(out, i)
		for _, c := range t.Children(i) {
			if rules.isBoundary(t, c) {
				if rv := subjectRelativizer(t, c); rv != 0 {
					out = append(out, rv)
				}
				continue
			}
			if rules.expands(t, c) {
				visit(c)
			}
		}
	}
	visit(head)
	sort.Ints(out)

	for len(out) > 1 && t.isPunct(out[0]) {
		out = out[1:]
	}
	for len(out) > 1 && t.isPunct(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// relativizer returns the wh-word or "that" introducing the clause rooted
// at root, 0 when the clause has none.
func relativizer(t *Tree, root int) int {
	for _, k := range t.Subtree(root) {
		if k >= root {
			break
		}
		if !relativizers[t.lower(k)] {
			continue
		}
		if t.isWh(k) || t.lower(k) == "that" {
			return k
		}
	}
	return 0
}

// subjectRelativizer returns the relativizer of a relative clause rooted at
// root when it is that clause's subject.
func subjectRelativizer(t *Tree, root int) int {
	switch t.rel(root) {
	case relRelcl, relAcl:
	default:
		return 0
	}
	rv := relativizer(t, root)
	if rv == 0 || t.Head(rv) != root || !subjectRels.has(t.rel(rv)) {
		return 0
	}
	return rv
}
