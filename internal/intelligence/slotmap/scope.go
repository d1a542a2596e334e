package slotmap

import (
	"sort"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// Scope is the view a handler gets of one clause: the tree, the clause and
// the role analysis of the clause root.  A sub scope belongs to a decomposed
// subordinate clause and has no child clauses of its own.
type Scope struct {
	tree    *Tree
	clause  Clause
	clauses []Clause
	sub     bool
	rules   SpanRules
	roles   *clauseRoles
	byRoot  map[int]int
}

func newScope(t *Tree, clauses []Clause, id int, sub bool) *Scope {
	sc := &Scope{tree: t, clause: clauses[id], clauses: clauses, sub: sub, byRoot: make(map[int]int)}
	if sub {
		sc.rules = flatRules(sc.clause.Contains)
	} else {
		for _, c := range clauses {
			if c.Parent == id {
				sc.byRoot[c.Root] = c.ID
			}
		}
		sc.rules = phraseRules(func(i int) bool {
			_, ok := sc.byRoot[i]
			return ok
		})
	}
	sc.roles = analyzeRoles(sc)
	return sc
}

// Tree returns the sentence tree.
func (s *Scope) Tree() *Tree { return s.tree }

// Clause returns the clause under analysis.
func (s *Scope) Clause() Clause { return s.clause }

// IsSub reports whether the scope is a decomposed subordinate clause.
func (s *Scope) IsSub() bool { return s.sub }

// label names the scope in traces and conflicts.
func (s *Scope) label() string {
	if s.sub {
		return "clause"
	}
	return "main"
}

// childClauses returns the subordinate clauses directly inside this scope.
func (s *Scope) childClauses() []Clause {
	if s.sub {
		return nil
	}
	var out []Clause
	for _, c := range s.clauses {
		if c.Parent == s.clause.ID {
			out = append(out, c)
		}
	}
	return out
}

// clauseRootedAt returns the ID of the child clause rooted at token i.
func (s *Scope) clauseRootedAt(i int) int {
	if id, ok := s.byRoot[i]; ok {
		return id
	}
	return -1
}

// span extracts the constituent headed by head under the scope's rules.
func (s *Scope) span(head int) []int {
	return ExtractTokens(s.tree, head, s.rules)
}

// phrase returns the full subtree of head, embedded clauses included.
func (s *Scope) phrase(head int) []int {
	return ExtractTokens(s.tree, head, SpanRules{})
}

// argumentHeaded returns the argument whose head is token i.
func (s *Scope) argumentHeaded(i int) (argument, bool) {
	for _, a := range s.roles.args {
		if a.head == i {
			return a, true
		}
	}
	return argument{}, false
}

// argumentContaining returns the argument whose head dominates token i.
// A copular predicate heading the clause only contains its own phrase.
func (s *Scope) argumentContaining(i int) (argument, bool) {
	for _, a := range s.roles.args {
		if a.head == s.clause.Root {
			if containsInt(a.tokens, i) {
				return a, true
			}
			continue
		}
		if s.tree.dominates(a.head, i) {
			return a, true
		}
	}
	return argument{}, false
}

// argTokens returns the phrase claimed for a.
func (s *Scope) argTokens(a argument) []int {
	if a.tokens != nil {
		return a.tokens
	}
	return s.span(a.head)
}

// inChildClause reports whether token i belongs to a child clause.
func (s *Scope) inChildClause(i int) bool {
	for _, c := range s.childClauses() {
		if c.Contains(i) {
			return true
		}
	}
	return false
}

// antecedent returns the words of the phrase headed by head that lie
// outside every child clause, so no relativizer of a sibling clause leaks
// in.  A copular predicate heading the clause contributes only its own
// phrase, never the subject or the copula.
func (s *Scope) antecedent(a argument, head int) []int {
	toks := a.tokens
	if head != s.clause.Root || toks == nil {
		toks = s.span(head)
	}
	out := make([]int, 0, len(toks))
	for _, i := range toks {
		if !s.inChildClause(i) {
			out = append(out, i)
		}
	}
	return out
}

// firstWord returns the first non-punctuation token of the scope.
func (s *Scope) firstWord() int {
	for _, i := range s.clause.Tokens {
		if !s.tree.isPunct(i) {
			return i
		}
	}
	return 0
}

// ---------------------------------------------------------------------------
// Role analysis
// ---------------------------------------------------------------------------

// argument is a classified dependent of the clause root.
type argument struct {
	head   int
	slot   grammar.Slot
	clause int // child clause rooted at head, -1 for plain phrases
	tokens []int
}

// clauseRoles is the role analysis of a clause root shared by all
// handlers of a scope.
type clauseRoles struct {
	verb      int
	predicate int
	particles []int
	aux       []int
	subject   int
	passive   bool
	agent     int
	markers   []int
	args      []argument
	overflow  []int
	question  bool
}

func (r *clauseRoles) slotTaken(s grammar.Slot) bool {
	for _, a := range r.args {
		if a.slot == s {
			return true
		}
	}
	return false
}

func (r *clauseRoles) hasObject() bool {
	return r.slotTaken(grammar.SlotO1)
}

var predicateInner = relSet(relDet, relPoss, relCompound, relAmod, relNummod, relPredet, relCase, "nmod", relCc, relConj)

func analyzeRoles(sc *Scope) *clauseRoles {
	t := sc.tree
	root := sc.clause.Root
	r := &clauseRoles{verb: root}

	for _, c := range t.Children(root) {
		if t.rel(c) == relCop {
			r.verb, r.predicate = c, root
			break
		}
	}

	var (
		datives, dobjs, attrs, preds, ccomps, xcomps, mods, negs, predInner []int
	)
	for _, c := range t.Children(root) {
		if c == r.verb || t.isPunct(c) {
			continue
		}
		switch rl := t.rel(c); {
		case subjectRels.has(rl), clauseSubjRels.has(rl):
			if r.subject == 0 {
				r.subject = c
				r.args = append(r.args, argument{head: c, slot: grammar.SlotS})
			}
			if rl == relNsubjPass || rl == relCsubjPass {
				r.passive = true
			}
		case auxRels.has(rl):
			if t.isToMarker(c) {
				r.markers = append(r.markers, c)
				continue
			}
			r.aux = append(r.aux, c)
			if rl == relAuxPass {
				r.passive = true
			}
		case rl == relNeg:
			negs = append(negs, c)
		case rl == relPrt:
			r.particles = append(r.particles, c)
		case rl == relDobj:
			dobjs = append(dobjs, c)
		case rl == relDative:
			if len(t.childrenWith(c, relSet(relPobj))) > 0 || t.Token(c).POS == "ADP" {
				mods = append(mods, c)
			} else {
				datives = append(datives, c)
			}
		case rl == relAttr:
			attrs = append(attrs, c)
		case rl == relAcomp, rl == relOprd:
			preds = append(preds, c)
		case rl == relXcomp:
			if isClauseRoot(t, c) {
				xcomps = append(xcomps, c)
			} else {
				preds = append(preds, c)
			}
		case rl == relCcomp:
			ccomps = append(ccomps, c)
		case modifierRels.has(rl):
			mods = append(mods, c)
		case rl == relAgent:
			r.agent = c
			r.passive = true
		case rl == relMark:
			r.markers = append(r.markers, c)
		case r.predicate != 0 && predicateInner.has(rl):
			predInner = append(predInner, c)
		}
	}

	// negation inside an auxiliary chain joins Aux, otherwise it modifies
	for _, n := range negs {
		if len(r.aux) > 0 && n > r.aux[0] && n < r.verb {
			r.aux = append(r.aux, n)
		} else {
			mods = append(mods, n)
		}
	}
	sort.Ints(r.aux)
	sort.Ints(mods)

	add := func(head int, slot grammar.Slot) {
		r.args = append(r.args, argument{head: head, slot: slot})
	}

	switch {
	case len(datives) > 0:
		add(datives[0], grammar.SlotO1)
		if len(dobjs) > 0 {
			add(dobjs[0], grammar.SlotO2)
		}
	case len(dobjs) > 0:
		add(dobjs[0], grammar.SlotO1)
	}

	for _, c := range ccomps {
		switch {
		case r.hasObject() && !r.slotTaken(grammar.SlotO2):
			add(c, grammar.SlotO2)
		case linkingVerbs[t.lemma(r.verb)] && len(attrs) == 0 && !r.slotTaken(grammar.SlotC1):
			add(c, grammar.SlotC1)
		case !r.slotTaken(grammar.SlotO1):
			add(c, grammar.SlotO1)
		}
	}

	if len(attrs) > 0 {
		add(attrs[0], grammar.SlotC1)
	}
	if r.predicate != 0 && !r.slotTaken(grammar.SlotC1) {
		toks := append([]int{r.predicate}, predInner...)
		for _, c := range predInner {
			toks = append(toks, t.Subtree(c)...)
		}
		r.args = append(r.args, argument{head: r.predicate, slot: grammar.SlotC1, tokens: uniqueSorted(toks)})
	}
	for _, c := range preds {
		switch {
		case r.hasObject() && !r.slotTaken(grammar.SlotC2):
			add(c, grammar.SlotC2)
		case !r.slotTaken(grammar.SlotC1):
			add(c, grammar.SlotC1)
		case !r.slotTaken(grammar.SlotC2):
			add(c, grammar.SlotC2)
		}
	}
	for _, c := range xcomps {
		switch {
		case linkingVerbs[t.lemma(r.verb)] && !r.slotTaken(grammar.SlotC1):
			add(c, grammar.SlotC1)
		case r.hasObject() && !r.slotTaken(grammar.SlotC2):
			add(c, grammar.SlotC2)
		case !r.slotTaken(grammar.SlotO1):
			add(c, grammar.SlotO1)
		case !r.slotTaken(grammar.SlotC2):
			add(c, grammar.SlotC2)
		}
	}

	reserved := map[grammar.Slot]bool{}
	if r.agent != 0 {
		add(r.agent, grammar.SlotM1)
		reserved[grammar.SlotM1] = true
	}
	placed, overflow := placeModifiers(t, mods, r.verb, reserved)
	for _, m := range mods {
		if s, ok := placed[m]; ok {
			add(m, s)
		}
	}
	r.overflow = overflow

	for k := range r.args {
		r.args[k].clause = sc.clauseRootedAt(r.args[k].head)
	}
	sort.SliceStable(r.args, func(i, j int) bool { return r.args[i].head < r.args[j].head })

	if !sc.sub {
		r.question = detectQuestion(sc, r)
	}
	return r
}

// placeModifiers distributes modifier candidates over M1..M3.  A single
// candidate takes M2.  Two candidates take M1+M2 when the first precedes
// the verb and M2+M3 otherwise.  Three or more fill M1, M2, M3 left to
// right.  Reserved slots are skipped by moving to the next free one.
func placeModifiers(t *Tree, cands []int, verb int, reserved map[grammar.Slot]bool) (map[int]grammar.Slot, []int) {
	type cand struct{ head, start int }
	cs := make([]cand, 0, len(cands))
	for _, c := range cands {
		cs = append(cs, cand{head: c, start: t.Subtree(c)[0]})
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].start < cs[j].start })

	var want []grammar.Slot
	switch n := len(cs); {
	case n == 0:
		return nil, nil
	case n == 1:
		want = []grammar.Slot{grammar.SlotM2}
	case n == 2:
		if cs[0].start < verb {
			want = []grammar.Slot{grammar.SlotM1, grammar.SlotM2}
		} else {
			want = []grammar.Slot{grammar.SlotM2, grammar.SlotM3}
		}
	default:
		want = grammar.ModifierSlots
	}

	used := make(map[grammar.Slot]bool, len(reserved))
	for s, v := range reserved {
		used[s] = v
	}
	placed := make(map[int]grammar.Slot, len(cs))
	var overflow []int
	for k, c := range cs {
		if k >= len(want) {
			overflow = append(overflow, c.head)
			continue
		}
		s, ok := nextFreeModifier(want[k], used)
		if !ok {
			overflow = append(overflow, c.head)
			continue
		}
		used[s] = true
		placed[c.head] = s
	}
	return placed, overflow
}

func nextFreeModifier(from grammar.Slot, used map[grammar.Slot]bool) (grammar.Slot, bool) {
	start := 0
	for k, s := range grammar.ModifierSlots {
		if s == from {
			start = k
		}
	}
	n := len(grammar.ModifierSlots)
	for k := 0; k < n; k++ {
		s := grammar.ModifierSlots[(start+k)%n]
		if !used[s] {
			return s, true
		}
	}
	return "", false
}

// detectQuestion recognises a question mark, a fronted wh-word or
// subject-auxiliary inversion.
func detectQuestion(sc *Scope, r *clauseRoles) bool {
	t := sc.tree
	last := sc.clause.Tokens[len(sc.clause.Tokens)-1]
	if t.Token(last).Text == "?" {
		return true
	}
	first := sc.firstWord()
	if first != 0 && t.isWh(first) && first < r.verb {
		return true
	}
	if r.subject != 0 {
		head := r.verb
		if len(r.aux) > 0 {
			head = r.aux[0]
		}
		return head == first && head < r.subject
	}
	return false
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func uniqueSorted(in []int) []int {
	sort.Ints(in)
	out := in[:0]
	for k, v := range in {
		if k == 0 || v != in[k-1] {
			out = append(out, v)
		}
	}
	return out
}
