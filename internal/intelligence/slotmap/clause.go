package slotmap

import (
	"sort"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// clauseForm is the verb form heading a clause.
type clauseForm string

const (
	formFinite     clauseForm = "finite"
	formInfinitive clauseForm = "infinitive"
	formGerund     clauseForm = "gerund"
	formParticiple clauseForm = "participle"
)

// Clause is one clause scope of a sentence.  Clauses live in an arena
// indexed by ID; Parent refers to the enclosing clause ID (-1 for main).
type Clause struct {
	ID     int
	Kind   grammar.ClauseKind
	Form   clauseForm
	Root   int
	Parent int
	// Anchor is the token of the enclosing clause the root attaches to.
	Anchor int
	// Marker is the subordinator or relativizer introducing the clause.
	Marker int
	Tokens []int
}

// Contains reports whether token i belongs to the clause scope.
func (c Clause) Contains(i int) bool {
	k := sort.SearchInts(c.Tokens, i)
	return k < len(c.Tokens) && c.Tokens[k] == i
}

// Info summarizes the clause for diagnostics.
func (c Clause) Info() grammar.ClauseInfo {
	return grammar.ClauseInfo{ID: c.ID, Kind: c.Kind, Root: c.Root, Parent: c.Parent}
}

// DetectClauses partitions the sentence into the main clause and the
// subordinate clauses attached directly inside it.  The main clause comes
// first; subordinate clauses follow in root order.  Clauses nested more than
// one level deep stay inside their depth-1 ancestor.
func DetectClauses(t *Tree) []Clause {
	root := t.Root()
	var subRoots []int
	for i := 1; i <= t.Len(); i++ {
		if i == root || !isClauseRoot(t, i) {
			continue
		}
		if nearestClauseAncestor(t, i) == root {
			subRoots = append(subRoots, i)
		}
	}

	inSub := make(map[int]bool)
	clauses := []Clause{{ID: 0, Kind: grammar.ClauseMain, Form: formFinite, Root: root, Parent: -1}}
	for _, r := range subRoots {
		c := classify(t, r)
		c.ID = len(clauses)
		c.Parent = 0
		c.Anchor = t.Head(r)
		c.Tokens = t.Subtree(r)
		for _, k := range c.Tokens {
			inSub[k] = true
		}
		clauses = append(clauses, c)
	}
	for i := 1; i <= t.Len(); i++ {
		if !inSub[i] {
			clauses[0].Tokens = append(clauses[0].Tokens, i)
		}
	}
	return clauses
}

func isClauseRoot(t *Tree, i int) bool {
	switch t.rel(i) {
	case relRelcl, relAdvcl, relCcomp, relCsubj, relCsubjPass:
		return true
	case relAcl:
		return t.isVerbal(i) || t.isFinite(i)
	case relXcomp:
		if !t.isVerbal(i) {
			return false
		}
		return t.toMarker(i) != 0 || t.isGerund(i) || t.isFinite(i)
	}
	return false
}

func nearestClauseAncestor(t *Tree, i int) int {
	for cur := t.Head(i); cur != 0; cur = t.Head(cur) {
		if cur == t.Root() || isClauseRoot(t, cur) {
			return cur
		}
	}
	return t.Root()
}

func hasCopula(t *Tree, i int) bool {
	for _, c := range t.Children(i) {
		if t.rel(c) == relCop {
			return true
		}
	}
	return false
}

func formOf(t *Tree, i int) clauseForm {
	switch {
	case t.toMarker(i) != 0:
		return formInfinitive
	case t.isFinite(i) || hasCopula(t, i):
		return formFinite
	case t.isGerund(i):
		return formGerund
	case t.isParticiple(i):
		return formParticiple
	}
	return formFinite
}

func subordinator(t *Tree, i int) int {
	for _, c := range t.Children(i) {
		if t.rel(c) == relMark && !t.isToMarker(c) {
			return c
		}
	}
	return 0
}

func classify(t *Tree, r int) Clause {
	c := Clause{Root: r, Form: formOf(t, r), Marker: subordinator(t, r)}
	switch t.rel(r) {
	case relRelcl:
		c.Kind = grammar.ClauseRelative
		if c.Marker == 0 {
			c.Marker = relativizer(t, r)
		}
	case relAcl:
		switch c.Form {
		case formInfinitive:
			c.Kind = grammar.ClauseComplement
		case formFinite:
			c.Kind = grammar.ClauseNoun
			if rv := relativizer(t, r); rv != 0 && t.rel(rv) != relMark {
				c.Kind = grammar.ClauseRelative
				c.Marker = rv
			}
		default:
			c.Kind = grammar.ClauseParticipial
		}
	case relAdvcl:
		switch c.Form {
		case formFinite:
			c.Kind = grammar.ClauseAdverbial
			if c.Marker != 0 && conditionalMarkers[t.lower(c.Marker)] {
				c.Kind = grammar.ClauseConditional
			}
		case formInfinitive:
			c.Kind = grammar.ClauseComplement
		default:
			c.Kind = grammar.ClauseParticipial
		}
	case relCcomp, relCsubj, relCsubjPass:
		c.Kind = grammar.ClauseNoun
		if c.Form == formInfinitive {
			c.Kind = grammar.ClauseComplement
		}
	case relXcomp:
		c.Kind = grammar.ClauseComplement
		if c.Form == formGerund {
			c.Kind = grammar.ClauseNoun
		}
	}
	return c
}
