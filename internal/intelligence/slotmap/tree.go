package slotmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// Tree is a validated, read-only dependency tree over one sentence.
// Token indices are 1-based throughout; index 0 is the virtual root.
type Tree struct {
	tokens   []grammar.Token
	rels     []rel
	heads    []int
	children [][]int
	root     int
}

// NewTree validates tokens and builds the tree.  The sequence must be
// non-empty, indexed 1..n without gaps, carry heads inside 0..n and form a
// single-rooted acyclic tree.  A root is a token whose head is 0, whose head
// points at itself, or whose label is ROOT.
func NewTree(tokens []grammar.Token) (*Tree, error) {
	n := len(tokens)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeParseInput, "empty token sequence")
	}

	t := &Tree{
		tokens:   make([]grammar.Token, n),
		rels:     make([]rel, n+1),
		heads:    make([]int, n+1),
		children: make([][]int, n+1),
	}
	copy(t.tokens, tokens)

	for i, tok := range t.tokens {
		idx := i + 1
		if tok.Index != idx {
			return nil, errors.New(errors.ErrCodeParseInput, "token indices must be contiguous and 1-based").
				WithDetail(fmt.Sprintf("position %d carries index %d", idx, tok.Index))
		}
		if tok.Head < 0 || tok.Head > n {
			return nil, errors.New(errors.ErrCodeParseInput, "head index out of range").
				WithDetail(fmt.Sprintf("token %d head=%d n=%d", idx, tok.Head, n))
		}
		r := normalizeRel(tok.Dep)
		if tok.Head == 0 || tok.Head == idx || r == relRoot {
			if t.root != 0 {
				return nil, errors.New(errors.ErrCodeParseInput, "more than one root").
					WithDetail(fmt.Sprintf("tokens %d and %d", t.root, idx))
			}
			t.root = idx
			r = relRoot
			t.heads[idx] = 0
		} else {
			t.heads[idx] = tok.Head
		}
		t.rels[idx] = r
	}
	if t.root == 0 {
		return nil, errors.New(errors.ErrCodeParseInput, "no root token")
	}

	for idx := 1; idx <= n; idx++ {
		h := t.heads[idx]
		t.children[h] = append(t.children[h], idx)
	}

	// every token must reach the root within n steps
	for idx := 1; idx <= n; idx++ {
		cur, steps := idx, 0
		for cur != 0 {
			cur = t.heads[cur]
			steps++
			if steps > n {
				return nil, errors.New(errors.ErrCodeParseInput, "dependency cycle").
					WithDetail(fmt.Sprintf("starting at token %d", idx))
			}
		}
	}
	return t, nil
}

// Len returns the number of tokens.
func (t *Tree) Len() int { return len(t.tokens) }

// Root returns the index of the root token.
func (t *Tree) Root() int { return t.root }

// Token returns the token at 1-based index i.
func (t *Tree) Token(i int) grammar.Token { return t.tokens[i-1] }

// Tokens returns a copy of the token sequence.
func (t *Tree) Tokens() []grammar.Token {
	out := make([]grammar.Token, len(t.tokens))
	copy(out, t.tokens)
	return out
}

// Head returns the head of token i, 0 for the root.
func (t *Tree) Head(i int) int { return t.heads[i] }

// Children returns the dependents of token i in sentence order.
func (t *Tree) Children(i int) []int { return t.children[i] }

func (t *Tree) rel(i int) rel { return t.rels[i] }

func (t *Tree) childrenWith(i int, set relations) []int {
	var out []int
	for _, c := range t.children[i] {
		if set.has(t.rels[c]) {
			out = append(out, c)
		}
	}
	return out
}

// Subtree returns i and all its descendants in sentence order.
func (t *Tree) Subtree(i int) []int {
	out := []int{i}
	for k := 0; k < len(out); k++ {
		out = append(out, t.children[out[k]]...)
	}
	sort.Ints(out)
	return out
}

// dominates reports whether anc is i or one of its ancestors.
func (t *Tree) dominates(anc, i int) bool {
	for cur := i; cur != 0; cur = t.heads[cur] {
		if cur == anc {
			return true
		}
	}
	return false
}

// Text joins the surface forms of the given tokens in sentence order.
func (t *Tree) Text(indices []int) string {
	if len(indices) == 0 {
		return ""
	}
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	var sb strings.Builder
	for k, i := range sorted {
		word := t.tokens[i-1].Text
		if k > 0 && !gluesLeft(word) && !gluesRight(t.tokens[sorted[k-1]-1].Text) {
			sb.WriteByte(' ')
		}
		sb.WriteString(word)
	}
	return sb.String()
}

var clitics = map[string]bool{"n't": true, "'s": true, "'re": true, "'ll": true, "'ve": true, "'m": true, "'d": true, "'": true}

func gluesLeft(word string) bool {
	if clitics[strings.ToLower(word)] {
		return true
	}
	switch word {
	case ",", ".", ";", ":", "!", "?", ")", "]", "%":
		return true
	}
	return false
}

func gluesRight(word string) bool {
	switch word {
	case "(", "[", "$", "#":
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Word-level predicates
// ---------------------------------------------------------------------------

func (t *Tree) lower(i int) string { return strings.ToLower(t.tokens[i-1].Text) }

func (t *Tree) lemma(i int) string {
	tok := t.tokens[i-1]
	if tok.Lemma != "" {
		return strings.ToLower(tok.Lemma)
	}
	return strings.ToLower(tok.Text)
}

func (t *Tree) isPunct(i int) bool {
	return t.rels[i] == relPunct || strings.EqualFold(t.tokens[i-1].POS, "PUNCT")
}

func (t *Tree) isVerbal(i int) bool {
	pos := strings.ToUpper(t.tokens[i-1].POS)
	return pos == "VERB" || pos == "AUX"
}

func (t *Tree) tag(i int) string { return strings.ToUpper(t.tokens[i-1].Tag) }

func (t *Tree) isWh(i int) bool {
	if tag := t.tag(i); tag != "" {
		return whTags[tag]
	}
	return whWords[t.lower(i)]
}

// isToMarker reports whether i is the infinitival "to".
func (t *Tree) isToMarker(i int) bool {
	if t.lower(i) != "to" {
		return false
	}
	if t.tag(i) == "TO" || strings.EqualFold(t.tokens[i-1].POS, "PART") {
		return true
	}
	r := t.rels[i]
	return r == relAux || r == relMark
}

func (t *Tree) toMarker(i int) int {
	for _, c := range t.children[i] {
		if (t.rels[c] == relAux || t.rels[c] == relMark) && t.isToMarker(c) {
			return c
		}
	}
	return 0
}

func (t *Tree) isGerund(i int) bool {
	if tag := t.tag(i); tag != "" {
		return tag == "VBG"
	}
	return t.isVerbal(i) && strings.HasSuffix(t.lower(i), "ing")
}

func (t *Tree) isParticiple(i int) bool {
	if tag := t.tag(i); tag != "" {
		return tag == "VBN" || tag == "VBG"
	}
	return t.isVerbal(i) && (strings.HasSuffix(t.lower(i), "ed") || strings.HasSuffix(t.lower(i), "ing"))
}

// isFinite reports whether i heads a tensed clause: it has a subject, a
// finite tag, or a non-infinitival auxiliary.
func (t *Tree) isFinite(i int) bool {
	for _, c := range t.children[i] {
		r := t.rels[c]
		if subjectRels.has(r) || clauseSubjRels.has(r) {
			return true
		}
		if auxRels.has(r) && !t.isToMarker(c) {
			return true
		}
	}
	switch t.tag(i) {
	case "VBD", "VBZ", "VBP", "MD":
		return true
	}
	return false
}
