package slotmap

import (
	"math"
	"sort"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// Placement is one occupied slot or sub-slot awaiting a display position.
type Placement struct {
	Parent grammar.Slot
	// Sub is empty for main slots.
	Sub     grammar.SubSlot
	Tokens  []int
	Fronted bool
}

// Key returns the order key: the slot name for main slots, "Parent.sub-x"
// for sub-slots.
func (p Placement) Key() string {
	if p.Sub == "" {
		return string(p.Parent)
	}
	return grammar.OrderKey(p.Parent, p.Sub)
}

func (p Placement) start() int {
	if len(p.Tokens) == 0 {
		return math.MaxInt
	}
	m := p.Tokens[0]
	for _, i := range p.Tokens[1:] {
		if i < m {
			m = i
		}
	}
	return m
}

func (p Placement) rank() int {
	if p.Sub == "" {
		return p.Parent.Rank()
	}
	if s, ok := p.Sub.Main(); ok {
		return s.Rank()
	}
	return len(grammar.MainSlots)
}

// Order assigns dense 1-based display positions.  Fronted entries come
// first, then entries by the earliest token they cover; a parent slot
// precedes its own sub-slots on ties and canonical slot rank settles the
// rest.  Order is pure: the same placements always yield the same map.
func Order(placements []Placement) map[string]int {
	ps := append([]Placement(nil), placements...)
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.Fronted != b.Fronted {
			return a.Fronted
		}
		if sa, sb := a.start(), b.start(); sa != sb {
			return sa < sb
		}
		if (a.Sub == "") != (b.Sub == "") {
			return a.Sub == ""
		}
		if ra, rb := a.rank(), b.rank(); ra != rb {
			return ra < rb
		}
		return a.Key() < b.Key()
	})
	out := make(map[string]int, len(ps))
	for k, p := range ps {
		out[p.Key()] = k + 1
	}
	return out
}
