package slotmap

import (
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// Clause handlers decompose the depth-1 subordinate clauses of the main
// scope.  Each emits one GroupClaim per clause it recognises: the parent
// slot is the main-clause argument the clause fills or modifies, the backing
// tokens are that argument's full phrase.

// attachment locates the parent argument of a child clause.  viaAnchor is
// set when the clause modifies a word inside the argument rather than being
// the argument itself.
type attachment struct {
	arg       argument
	backing   []int
	viaAnchor bool
}

func attach(sc *Scope, c Clause) (attachment, bool) {
	if a, ok := sc.argumentHeaded(c.Root); ok {
		return attachment{arg: a, backing: sc.phrase(c.Root)}, true
	}
	if a, ok := sc.argumentContaining(c.Anchor); ok {
		backing := a.tokens
		if backing == nil || a.head != sc.clause.Root {
			backing = sc.phrase(a.head)
		} else {
			backing = union(backing, c.Tokens)
		}
		return attachment{arg: a, backing: backing, viaAnchor: true}, true
	}
	return attachment{}, false
}

func matchClauses(sc *Scope, want func(Clause) bool) []Clause {
	var out []Clause
	for _, c := range sc.childClauses() {
		if want(c) {
			out = append(out, c)
		}
	}
	return out
}

// groupContribution builds the contribution of a clause handler.  seed may
// be nil.
func groupContribution(sc *Scope, k HandlerKind, confidence float64, want func(Clause) bool,
	seed func(sc *Scope, c Clause, at attachment) GroupClaim) Contribution {
	out := contribution(k, confidence)
	for _, c := range matchClauses(sc, want) {
		at, ok := attach(sc, c)
		if !ok {
			continue
		}
		g := GroupClaim{Parent: at.arg.slot, Clause: c.ID, Tokens: at.backing}
		if seed != nil {
			s := seed(sc, c, at)
			g.Seeds, g.Attach = s.Seeds, s.Attach
		}
		out.Groups = append(out.Groups, g)
	}
	return out
}

// antecedentAttach carries the antecedent into the clause as a prefix of its
// first sub-slot.
func antecedentAttach(sc *Scope, c Clause, at attachment) GroupClaim {
	if !at.viaAnchor {
		return GroupClaim{}
	}
	return GroupClaim{Attach: sc.antecedent(at.arg, at.arg.head)}
}

// ---------------------------------------------------------------------------
// relative_clause
// ---------------------------------------------------------------------------

type relativeClauseHandler struct{}

func (relativeClauseHandler) Kind() HandlerKind { return HandlerRelativeClause }

func isRelative(c Clause) bool { return c.Kind == grammar.ClauseRelative }

func (relativeClauseHandler) CanHandle(sc *Scope) bool {
	return len(matchClauses(sc, isRelative)) > 0
}

func (relativeClauseHandler) Handle(sc *Scope) Contribution {
	return groupContribution(sc, HandlerRelativeClause, 0.9, isRelative, relativeSeeds)
}

// relativeSeeds places the antecedent in the clause.  A subject relativizer
// puts it in sub-s; any other relativizer shares the slot of the phrase it
// heads; with no relativizer the antecedent fills the first gap among
// subject and object, else the first modifier slot.  Only this clause's
// relativizer joins the antecedent.
func relativeSeeds(sc *Scope, c Clause, at attachment) GroupClaim {
	if !at.viaAnchor {
		return GroupClaim{}
	}
	t := sc.tree
	ante := sc.antecedent(at.arg, at.arg.head)
	rv := c.Marker
	if rv != 0 && subjectRelativizer(t, c.Root) == rv {
		return GroupClaim{Seeds: []SlotClaim{{Slot: grammar.SlotS, Tokens: union(ante, []int{rv})}}}
	}

	sub := newScope(t, sc.clauses, c.ID, true)
	if rv != 0 {
		if b, ok := sub.argumentContaining(rv); ok {
			return GroupClaim{Seeds: []SlotClaim{{Slot: b.slot, Tokens: union(ante, sub.argTokens(b))}}}
		}
		return GroupClaim{Attach: ante}
	}

	slot := grammar.SlotM1
	switch {
	case sub.roles.subject == 0:
		slot = grammar.SlotS
	case !sub.roles.hasObject():
		slot = grammar.SlotO1
	}
	return GroupClaim{Seeds: []SlotClaim{{Slot: slot, Tokens: ante}}}
}

// ---------------------------------------------------------------------------
// participial
// ---------------------------------------------------------------------------

type participialHandler struct{}

func (participialHandler) Kind() HandlerKind { return HandlerParticipial }

func isParticipial(c Clause) bool { return c.Kind == grammar.ClauseParticipial }

func (participialHandler) CanHandle(sc *Scope) bool {
	return len(matchClauses(sc, isParticipial)) > 0
}

// Handle decomposes reduced clauses.  A participle modifying a noun takes
// that noun as its understood subject.
func (participialHandler) Handle(sc *Scope) Contribution {
	return groupContribution(sc, HandlerParticipial, 0.8, isParticipial, func(sc *Scope, c Clause, at attachment) GroupClaim {
		if !at.viaAnchor {
			return GroupClaim{}
		}
		return GroupClaim{Seeds: []SlotClaim{{Slot: grammar.SlotS, Tokens: sc.antecedent(at.arg, c.Anchor)}}}
	})
}

// ---------------------------------------------------------------------------
// noun_clause
// ---------------------------------------------------------------------------

type nounClauseHandler struct{}

func (nounClauseHandler) Kind() HandlerKind { return HandlerNounClause }

func isNounClause(c Clause) bool { return c.Kind == grammar.ClauseNoun && c.Form == formFinite }

func (nounClauseHandler) CanHandle(sc *Scope) bool {
	return len(matchClauses(sc, isNounClause)) > 0
}

func (nounClauseHandler) Handle(sc *Scope) Contribution {
	return groupContribution(sc, HandlerNounClause, 0.85, isNounClause, antecedentAttach)
}

// ---------------------------------------------------------------------------
// conditional
// ---------------------------------------------------------------------------

type conditionalHandler struct{}

func (conditionalHandler) Kind() HandlerKind { return HandlerConditional }

func isAdverbialClause(c Clause) bool {
	return c.Kind == grammar.ClauseConditional || c.Kind == grammar.ClauseAdverbial
}

func (conditionalHandler) CanHandle(sc *Scope) bool {
	return len(matchClauses(sc, isAdverbialClause)) > 0
}

// Handle decomposes conditional and other finite adverbial clauses into
// their modifier slot.  A clause preceding the main subject is fronted.
func (conditionalHandler) Handle(sc *Scope) Contribution {
	out := groupContribution(sc, HandlerConditional, 0.9, isAdverbialClause, nil)
	pivot := sc.roles.subject
	if pivot == 0 {
		pivot = sc.roles.verb
	}
	for _, g := range out.Groups {
		c := sc.clauses[g.Clause]
		if c.Kind != grammar.ClauseConditional {
			out.Confidence = 0.85
		}
		if c.Tokens[0] < pivot {
			out.Fronted = append(out.Fronted, c.Tokens[0])
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// infinitive
// ---------------------------------------------------------------------------

type infinitiveHandler struct{}

func (infinitiveHandler) Kind() HandlerKind { return HandlerInfinitive }

func isInfinitive(c Clause) bool {
	return c.Form == formInfinitive && c.Kind != grammar.ClauseRelative
}

func (infinitiveHandler) CanHandle(sc *Scope) bool {
	return len(matchClauses(sc, isInfinitive)) > 0
}

// Handle decomposes to-infinitive clauses.  An infinitive modifying a noun
// takes the noun as its object when it has none, else as its subject.
func (infinitiveHandler) Handle(sc *Scope) Contribution {
	return groupContribution(sc, HandlerInfinitive, 0.85, isInfinitive, func(sc *Scope, c Clause, at attachment) GroupClaim {
		if !at.viaAnchor {
			return GroupClaim{}
		}
		sub := newScope(sc.tree, sc.clauses, c.ID, true)
		slot := grammar.SlotS
		if !sub.roles.hasObject() {
			slot = grammar.SlotO1
		}
		return GroupClaim{Seeds: []SlotClaim{{Slot: slot, Tokens: sc.antecedent(at.arg, c.Anchor)}}}
	})
}

// ---------------------------------------------------------------------------
// gerund
// ---------------------------------------------------------------------------

type gerundHandler struct{}

func (gerundHandler) Kind() HandlerKind { return HandlerGerund }

func isGerundClause(c Clause) bool { return c.Kind == grammar.ClauseNoun && c.Form == formGerund }

func (gerundHandler) CanHandle(sc *Scope) bool {
	return len(matchClauses(sc, isGerundClause)) > 0
}

func (gerundHandler) Handle(sc *Scope) Contribution {
	return groupContribution(sc, HandlerGerund, 0.8, isGerundClause, antecedentAttach)
}

func union(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return uniqueSorted(out)
}
