package slotmap

import (
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// ---------------------------------------------------------------------------
// interrogative
// ---------------------------------------------------------------------------

type interrogativeHandler struct{}

func (interrogativeHandler) Kind() HandlerKind { return HandlerInterrogative }

func (interrogativeHandler) CanHandle(sc *Scope) bool {
	return !sc.sub && sc.roles.question
}

// Handle claims every wh-phrase preceding the verb in the slot of the role
// it plays and marks it fronted.  Yes/no questions contribute nothing but a
// trace entry.
func (interrogativeHandler) Handle(sc *Scope) Contribution {
	t := sc.tree
	out := contribution(HandlerInterrogative, 0.6)
	seen := make(map[int]bool)
	for _, i := range sc.clause.Tokens {
		if i >= sc.roles.verb || !t.isWh(i) {
			continue
		}
		a, ok := sc.argumentContaining(i)
		if !ok || a.clause >= 0 || seen[a.head] {
			continue
		}
		seen[a.head] = true
		out.claim(a.slot, sc.argTokens(a))
		out.Fronted = append(out.Fronted, i)
		out.Confidence = 0.95
	}
	return out
}

// ---------------------------------------------------------------------------
// passive
// ---------------------------------------------------------------------------

type passiveHandler struct{}

func (passiveHandler) Kind() HandlerKind { return HandlerPassive }

func (passiveHandler) CanHandle(sc *Scope) bool { return sc.roles.passive }

// Handle claims the patient subject, the be-auxiliary chain, the
// participle and the by-agent, which always takes M1.
func (passiveHandler) Handle(sc *Scope) Contribution {
	r := sc.roles
	out := contribution(HandlerPassive, 0.9)
	for _, a := range r.args {
		if a.clause >= 0 {
			continue
		}
		if a.slot == grammar.SlotS || a.head == r.agent {
			out.claim(a.slot, sc.argTokens(a))
		}
	}
	out.claim(grammar.SlotAux, r.aux)
	out.claim(grammar.SlotV, verbTokens(r))
	return out
}

// ---------------------------------------------------------------------------
// auxiliary
// ---------------------------------------------------------------------------

type auxiliaryHandler struct{}

func (auxiliaryHandler) Kind() HandlerKind { return HandlerAuxiliary }

func (auxiliaryHandler) CanHandle(sc *Scope) bool { return len(sc.roles.aux) > 0 }

// Handle claims the auxiliary chain, including a negation that sits
// between auxiliary and verb.
func (auxiliaryHandler) Handle(sc *Scope) Contribution {
	out := contribution(HandlerAuxiliary, 0.85)
	out.claim(grammar.SlotAux, sc.roles.aux)
	return out
}

// ---------------------------------------------------------------------------
// adverbial
// ---------------------------------------------------------------------------

type adverbialHandler struct{}

func (adverbialHandler) Kind() HandlerKind { return HandlerAdverbial }

func adverbials(sc *Scope) []argument {
	var out []argument
	for _, a := range sc.roles.args {
		if a.slot.IsModifier() && a.clause < 0 && a.head != sc.roles.agent {
			out = append(out, a)
		}
	}
	return out
}

func (adverbialHandler) CanHandle(sc *Scope) bool { return len(adverbials(sc)) > 0 }

// Handle claims the placed modifiers.  In the main clause a modifier
// opening the sentence ahead of the subject is topicalized.
func (adverbialHandler) Handle(sc *Scope) Contribution {
	out := contribution(HandlerAdverbial, 0.8)
	first := sc.firstWord()
	for _, a := range adverbials(sc) {
		toks := sc.argTokens(a)
		out.claim(a.slot, toks)
		if !sc.sub && len(toks) > 0 && toks[0] == first && sc.roles.subject > first {
			out.Fronted = append(out.Fronted, first)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// basic_pattern
// ---------------------------------------------------------------------------

type basicPatternHandler struct{}

func (basicPatternHandler) Kind() HandlerKind { return HandlerBasicPattern }

func (basicPatternHandler) CanHandle(*Scope) bool { return true }

// Handle maps the core arguments onto the five basic sentence patterns.  It
// runs last and fills whatever the specialised handlers left open.
func (basicPatternHandler) Handle(sc *Scope) Contribution {
	r := sc.roles
	confidence := 0.7
	if r.subject == 0 && !sc.sub {
		confidence = 0.5
	}
	out := contribution(HandlerBasicPattern, confidence)
	for _, a := range r.args {
		if a.clause >= 0 || a.slot.IsModifier() {
			continue
		}
		out.claim(a.slot, sc.argTokens(a))
	}
	out.claim(grammar.SlotV, verbTokens(r))
	return out
}

func verbTokens(r *clauseRoles) []int {
	return union([]int{r.verb}, r.particles)
}
