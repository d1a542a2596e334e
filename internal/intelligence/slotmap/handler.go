package slotmap

import (
	"fmt"
	"strings"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// HandlerKind identifies a grammatical handler.  The set is closed.
type HandlerKind string

const (
	HandlerInterrogative  HandlerKind = "interrogative"
	HandlerRelativeClause HandlerKind = "relative_clause"
	HandlerParticipial    HandlerKind = "participial"
	HandlerNounClause     HandlerKind = "noun_clause"
	HandlerConditional    HandlerKind = "conditional"
	HandlerInfinitive     HandlerKind = "infinitive"
	HandlerGerund         HandlerKind = "gerund"
	HandlerPassive        HandlerKind = "passive"
	HandlerAuxiliary      HandlerKind = "auxiliary"
	HandlerAdverbial      HandlerKind = "adverbial"
	HandlerBasicPattern   HandlerKind = "basic_pattern"
)

// handler is one strategy of the analysis.  Handlers are pure: they read
// the scope and describe claims, the merge decides what is kept.
type handler interface {
	Kind() HandlerKind
	CanHandle(sc *Scope) bool
	Handle(sc *Scope) Contribution
}

// handlerTable lists every handler from highest to lowest priority.
var handlerTable = []handler{
	interrogativeHandler{},
	relativeClauseHandler{},
	participialHandler{},
	nounClauseHandler{},
	conditionalHandler{},
	infinitiveHandler{},
	gerundHandler{},
	passiveHandler{},
	auxiliaryHandler{},
	adverbialHandler{},
	basicPatternHandler{},
}

// AllHandlers returns every handler kind in priority order.
func AllHandlers() []HandlerKind {
	out := make([]HandlerKind, len(handlerTable))
	for k, h := range handlerTable {
		out[k] = h.Kind()
	}
	return out
}

// Priority returns the arbitration weight of k; higher wins.  Unknown kinds
// return -1.
func (k HandlerKind) Priority() int {
	for i, h := range handlerTable {
		if h.Kind() == k {
			return len(handlerTable) - i
		}
	}
	return -1
}

// Valid reports whether k is a known handler.
func (k HandlerKind) Valid() bool { return k.Priority() > 0 }

// ParseHandlerKind resolves an identifier such as "relative_clause".
// Hyphens and case are tolerated.
func ParseHandlerKind(id string) (HandlerKind, error) {
	k := HandlerKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(id)), "-", "_"))
	if !k.Valid() {
		return "", errors.New(errors.ErrCodeUnknownHandler, "unknown handler").
			WithDetail(fmt.Sprintf("id=%q", id))
	}
	return k, nil
}

// SlotClaim proposes tokens for one slot of the current scope.
type SlotClaim struct {
	Slot   grammar.Slot
	Tokens []int
}

// GroupClaim proposes decomposing a subordinate clause under a parent slot.
// Tokens is the backing span of the parent slot.  Seeds are pre-claimed
// sub-slots, such as the antecedent of a relative clause.  Attach lists
// tokens that join the first sub-slot to their right.
type GroupClaim struct {
	Parent grammar.Slot
	Clause int
	Tokens []int
	Seeds  []SlotClaim
	Attach []int
}

// Contribution is the output of one handler on one scope.
type Contribution struct {
	Handler    HandlerKind
	Priority   int
	Confidence float64
	Slots      []SlotClaim
	Groups     []GroupClaim
	Fronted    []int
}

func contribution(k HandlerKind, confidence float64) Contribution {
	return Contribution{Handler: k, Priority: k.Priority(), Confidence: confidence}
}

func (c *Contribution) claim(s grammar.Slot, tokens []int) {
	if len(tokens) == 0 {
		return
	}
	c.Slots = append(c.Slots, SlotClaim{Slot: s, Tokens: tokens})
}

// empty reports whether the contribution claims nothing.
func (c Contribution) empty() bool {
	return len(c.Slots) == 0 && len(c.Groups) == 0 && len(c.Fronted) == 0
}
