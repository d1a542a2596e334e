package slotmap

import (
	"sort"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// slotValue is the arbitrated content of one slot of a scope.
type slotValue struct {
	slot    grammar.Slot
	tokens  []int
	handler HandlerKind
	// group indexes merged.groups when the slot is decomposed, else -1.
	group int
}

type acceptedGroup struct {
	claim   GroupClaim
	handler HandlerKind
}

// merged is the outcome of arbitrating all contributions of one scope.
type merged struct {
	scope     string
	clause    int
	sub       bool
	slots     map[grammar.Slot]*slotValue
	owner     map[int]grammar.Slot
	groups    []acceptedGroup
	fronted   map[grammar.Slot]bool
	trace     []grammar.HandlerTrace
	conflicts []grammar.Conflict
}

func (m *merged) name(s grammar.Slot) string {
	if m.sub {
		return string(s.Sub())
	}
	return string(s)
}

// mergeContributions folds contributions into one slot assignment.
// Contributions are applied from highest to lowest priority.  The first
// claim on a slot wins; a claim whose tokens are already owned by another
// slot is discarded whole; a group may attach over a terminal value of the
// same slot but never over another group.  Zero-confidence contributions
// are traced and skipped.
func mergeContributions(scope string, clause int, sub bool, contribs []Contribution) *merged {
	m := &merged{
		scope:   scope,
		clause:  clause,
		sub:     sub,
		slots:   make(map[grammar.Slot]*slotValue),
		owner:   make(map[int]grammar.Slot),
		fronted: make(map[grammar.Slot]bool),
	}
	ordered := append([]Contribution(nil), contribs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	for _, c := range ordered {
		tr := grammar.HandlerTrace{Handler: string(c.Handler), Clause: clause, Scope: scope, Confidence: c.Confidence}
		if c.Confidence <= 0 {
			m.trace = append(m.trace, tr)
			continue
		}
		for _, g := range c.Groups {
			if m.foldGroup(c.Handler, g) {
				tr.Accepted = append(tr.Accepted, m.name(g.Parent)+"{}")
			} else {
				tr.Rejected = append(tr.Rejected, m.name(g.Parent)+"{}")
			}
		}
		for _, s := range c.Slots {
			if m.foldSlot(c.Handler, s) {
				tr.Accepted = append(tr.Accepted, m.name(s.Slot))
			} else {
				tr.Rejected = append(tr.Rejected, m.name(s.Slot))
			}
		}
		for _, f := range c.Fronted {
			if s, ok := m.owner[f]; ok {
				m.fronted[s] = true
			}
		}
		m.trace = append(m.trace, tr)
	}
	return m
}

func (m *merged) conflict(kind grammar.ConflictKind, s grammar.Slot, winner, loser HandlerKind, tokens []int) {
	m.conflicts = append(m.conflicts, grammar.Conflict{
		Kind: kind, Scope: m.scope, Slot: m.name(s),
		Winner: string(winner), Loser: string(loser), Tokens: tokens,
	})
}

// overlap returns the tokens of claim already owned by a slot other than s.
func (m *merged) overlap(s grammar.Slot, tokens []int) ([]int, grammar.Slot) {
	var clash []int
	var other grammar.Slot
	for _, i := range tokens {
		if o, ok := m.owner[i]; ok && o != s {
			clash = append(clash, i)
			other = o
		}
	}
	return clash, other
}

func (m *merged) own(s grammar.Slot, tokens []int) {
	for _, i := range tokens {
		m.owner[i] = s
	}
}

func (m *merged) foldSlot(h HandlerKind, c SlotClaim) bool {
	if cur, ok := m.slots[c.Slot]; ok {
		m.conflict(grammar.ConflictSlot, c.Slot, cur.handler, h, c.Tokens)
		return false
	}
	if clash, other := m.overlap(c.Slot, c.Tokens); len(clash) > 0 {
		m.conflict(grammar.ConflictToken, c.Slot, m.slots[other].handler, h, clash)
		return false
	}
	m.slots[c.Slot] = &slotValue{slot: c.Slot, tokens: uniqueSorted(append([]int(nil), c.Tokens...)), handler: h, group: -1}
	m.own(c.Slot, c.Tokens)
	return true
}

func (m *merged) foldGroup(h HandlerKind, g GroupClaim) bool {
	cur, exists := m.slots[g.Parent]
	if exists && cur.group >= 0 {
		m.conflict(grammar.ConflictGroup, g.Parent, m.groups[cur.group].handler, h, g.Tokens)
		return false
	}
	if clash, other := m.overlap(g.Parent, g.Tokens); len(clash) > 0 {
		m.conflict(grammar.ConflictToken, g.Parent, m.slots[other].handler, h, clash)
		return false
	}
	m.groups = append(m.groups, acceptedGroup{claim: g, handler: h})
	idx := len(m.groups) - 1
	if exists {
		cur.tokens = union(cur.tokens, g.Tokens)
		cur.group = idx
	} else {
		m.slots[g.Parent] = &slotValue{slot: g.Parent, tokens: union(nil, g.Tokens), handler: h, group: idx}
	}
	m.own(g.Parent, g.Tokens)
	return true
}

// attachStray gives each unowned token to the slot owning the nearest
// token to its right, or to its left when nothing follows.  Subordinators,
// infinitival "to" and carried antecedents travel this way.
func (m *merged) attachStray(stray []int) {
	var owned []int
	for i := range m.owner {
		owned = append(owned, i)
	}
	if len(owned) == 0 {
		return
	}
	sort.Ints(owned)

	target := make(map[int]grammar.Slot)
	for _, x := range stray {
		if _, ok := m.owner[x]; ok {
			continue
		}
		k := sort.SearchInts(owned, x)
		if k == len(owned) {
			k = len(owned) - 1
		}
		target[x] = m.owner[owned[k]]
	}
	for x, s := range target {
		v := m.slots[s]
		v.tokens = union(v.tokens, []int{x})
		m.owner[x] = s
	}
}

// unclaimed returns the scope's word tokens no slot owns.
func (m *merged) unclaimed(t *Tree, scope []int) []int {
	var out []int
	for _, i := range scope {
		if _, ok := m.owner[i]; !ok && !t.isPunct(i) {
			out = append(out, i)
		}
	}
	return out
}

// text renders a slot under the emptying rule: a decomposed slot is "".
func (v *slotValue) text(t *Tree) string {
	if v.group >= 0 {
		return ""
	}
	return t.Text(v.tokens)
}
