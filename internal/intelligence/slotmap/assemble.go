package slotmap

import (
	"fmt"
	"sort"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// scopeResult is the arbitrated outcome of one scope.
type scopeResult struct {
	scope     *Scope
	m         *merged
	unclaimed []int
}

// groupResult is a decomposed clause hanging off a main slot.
type groupResult struct {
	parent grammar.Slot
	clause Clause
	res    scopeResult
}

// assemble freezes the merged scopes into the public result, assigns the
// display order and checks the structural invariants of the output.
func assemble(t *Tree, sentence string, main scopeResult, groups []groupResult, cfg Config) (*grammar.OrderedResult, error) {
	out := &grammar.OrderedResult{
		Sentence:  sentence,
		MainSlots: make(map[grammar.Slot]string, len(main.m.slots)),
		SubSlots:  make(map[grammar.Slot]grammar.SubSlotGroup, len(groups)),
	}

	for _, s := range grammar.MainSlots {
		if v, ok := main.m.slots[s]; ok {
			out.MainSlots[s] = v.text(t)
		}
	}

	for _, g := range groups {
		values := make(map[grammar.SubSlot]string, len(g.res.m.slots))
		for _, s := range grammar.MainSlots {
			v, ok := g.res.m.slots[s]
			if !ok {
				continue
			}
			if v.group >= 0 {
				return nil, violation("sub-slot %s of %s carries a nested group", s.Sub(), g.parent)
			}
			if text := v.text(t); text != "" {
				values[s.Sub()] = text
			}
		}
		out.SubSlots[g.parent] = grammar.SubSlotGroup{Parent: g.parent, Kind: g.clause.Kind, Values: values}
	}

	placements := placementsOf(t, main, groups)
	out.Order = Order(placements)
	if err := validate(out, main); err != nil {
		return nil, err
	}
	if err := checkRendered(main, placements); err != nil {
		return nil, err
	}

	if cfg.trace {
		out.Trace = append(out.Trace, main.m.trace...)
		for _, g := range groups {
			out.Trace = append(out.Trace, g.res.m.trace...)
		}
	}
	if cfg.diagnostics {
		d := &grammar.Diagnostics{}
		for _, c := range main.scope.clauses {
			d.Clauses = append(d.Clauses, c.Info())
		}
		d.Conflicts = append(d.Conflicts, main.m.conflicts...)
		d.Unclaimed = append(d.Unclaimed, main.unclaimed...)
		for _, g := range groups {
			d.Conflicts = append(d.Conflicts, g.res.m.conflicts...)
			d.Unclaimed = append(d.Unclaimed, g.res.unclaimed...)
		}
		sort.Ints(d.Unclaimed)
		out.Diagnostics = d
	}
	return out, nil
}

// placementsOf lists every occupied main slot and every non-empty
// sub-slot with the tokens it covers.
func placementsOf(t *Tree, main scopeResult, groups []groupResult) []Placement {
	var ps []Placement
	for _, s := range grammar.MainSlots {
		if v, ok := main.m.slots[s]; ok {
			ps = append(ps, Placement{Parent: s, Tokens: v.tokens, Fronted: main.m.fronted[s]})
		}
	}
	for _, g := range groups {
		parentFronted := main.m.fronted[g.parent]
		for _, s := range grammar.MainSlots {
			v, ok := g.res.m.slots[s]
			if !ok || v.text(t) == "" {
				continue
			}
			ps = append(ps, Placement{
				Parent: g.parent, Sub: s.Sub(), Tokens: v.tokens,
				Fronted: parentFronted || g.res.m.fronted[s],
			})
		}
	}
	return ps
}

// checkRendered rejects a word shown by two values.  Decomposed parents
// render nothing and are skipped.
func checkRendered(main scopeResult, ps []Placement) error {
	seen := make(map[int]string)
	for _, p := range ps {
		if p.Sub == "" && main.m.slots[p.Parent].group >= 0 {
			continue
		}
		for _, i := range p.Tokens {
			if k, dup := seen[i]; dup {
				return violation("token %d rendered by %s and %s", i, k, p.Key())
			}
			seen[i] = p.Key()
		}
	}
	return nil
}

func violation(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeInvariantViolation, "slot invariant violated").
		WithDetail(fmt.Sprintf(format, args...))
}

// validate checks mutual exclusivity, parent references, the sub-slot
// vocabulary, token ownership and order density.
func validate(r *grammar.OrderedResult, main scopeResult) error {
	for s, text := range r.MainSlots {
		if !s.Valid() {
			return violation("unknown main slot %q", s)
		}
		v := main.m.slots[s]
		if v.group >= 0 && text != "" {
			return violation("slot %s has both a value and a sub-slot group", s)
		}
	}
	for parent, g := range r.SubSlots {
		text, ok := r.MainSlots[parent]
		if !ok {
			return violation("sub-slot group references missing slot %s", parent)
		}
		if text != "" {
			return violation("slot %s has both a value and a sub-slot group", parent)
		}
		if g.Parent != parent {
			return violation("group keyed %s names parent %s", parent, g.Parent)
		}
		for sub := range g.Values {
			if !sub.Valid() {
				return violation("unknown sub-slot %q under %s", sub, parent)
			}
		}
	}

	seen := make(map[int]grammar.Slot)
	for _, v := range main.m.slots {
		for _, i := range v.tokens {
			if o, dup := seen[i]; dup {
				return violation("token %d owned by %s and %s", i, o, v.slot)
			}
			seen[i] = v.slot
		}
	}

	positions := make([]int, 0, len(r.Order))
	for _, p := range r.Order {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	for k, p := range positions {
		if p != k+1 {
			return violation("order positions are not dense: %v", positions)
		}
	}
	return nil
}
