// Package grammar holds the public data model of the slot-mapping engine:
// parsed tokens, the slot vocabulary and the ordered analysis result.
package grammar

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// Token is one dependency-annotated word as delivered by a parse provider.
// Index is 1-based; Head is 0 for the sentence root.
type Token struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Tag   string `json:"tag,omitempty"`
	Dep   string `json:"dep"`
	Head  int    `json:"head"`
}

// ---------------------------------------------------------------------------
// Slots
// ---------------------------------------------------------------------------

// Slot is one of the ten fixed grammatical roles of a main clause.
type Slot string

const (
	SlotS   Slot = "S"
	SlotAux Slot = "Aux"
	SlotV   Slot = "V"
	SlotO1  Slot = "O1"
	SlotO2  Slot = "O2"
	SlotC1  Slot = "C1"
	SlotC2  Slot = "C2"
	SlotM1  Slot = "M1"
	SlotM2  Slot = "M2"
	SlotM3  Slot = "M3"
)

// MainSlots lists the slot vocabulary in canonical order.
var MainSlots = []Slot{SlotS, SlotAux, SlotV, SlotO1, SlotO2, SlotC1, SlotC2, SlotM1, SlotM2, SlotM3}

// ModifierSlots lists the M-slots in fill order.
var ModifierSlots = []Slot{SlotM1, SlotM2, SlotM3}

// Valid reports whether s belongs to the slot vocabulary.
func (s Slot) Valid() bool {
	return s.Rank() >= 0
}

// Rank returns the canonical position of s in MainSlots, or -1.
func (s Slot) Rank() int {
	for i, m := range MainSlots {
		if m == s {
			return i
		}
	}
	return -1
}

// IsModifier reports whether s is one of M1, M2, M3.
func (s Slot) IsModifier() bool {
	return s == SlotM1 || s == SlotM2 || s == SlotM3
}

// Sub returns the sub-slot name carrying the same role.
func (s Slot) Sub() SubSlot {
	return SubSlot(subPrefix + strings.ToLower(string(s)))
}

// ParseSlot resolves a slot name case-insensitively.
func ParseSlot(name string) (Slot, bool) {
	for _, m := range MainSlots {
		if strings.EqualFold(string(m), name) {
			return m, true
		}
	}
	return "", false
}

// SubSlot is a slot of a decomposed subordinate clause, e.g. "sub-s".
type SubSlot string

const subPrefix = "sub-"

// Main returns the main-slot role this sub-slot mirrors.
func (s SubSlot) Main() (Slot, bool) {
	if !strings.HasPrefix(string(s), subPrefix) {
		return "", false
	}
	return ParseSlot(strings.TrimPrefix(string(s), subPrefix))
}

// Valid reports whether s belongs to the sub-slot vocabulary.
func (s SubSlot) Valid() bool {
	_, ok := s.Main()
	return ok
}

// ---------------------------------------------------------------------------
// Clauses
// ---------------------------------------------------------------------------

// ClauseKind classifies a clause found by the boundary detector.
type ClauseKind string

const (
	ClauseMain        ClauseKind = "main"
	ClauseRelative    ClauseKind = "relative"
	ClauseAdverbial   ClauseKind = "adverbial"
	ClauseComplement  ClauseKind = "complement"
	ClauseConditional ClauseKind = "conditional"
	ClauseNoun        ClauseKind = "noun"
	ClauseParticipial ClauseKind = "participial"
)

// ---------------------------------------------------------------------------
// Sub-slot groups
// ---------------------------------------------------------------------------

// ParentSlotKey is the JSON key naming the owning main slot of a group.
const ParentSlotKey = "_parent_slot"

// SubSlotGroup is the internal grammar of one decomposed clause.
type SubSlotGroup struct {
	Parent Slot
	Kind   ClauseKind
	Values map[SubSlot]string
}

// MarshalJSON flattens the group into {sub-slot: text, ..., "_parent_slot": slot}.
func (g SubSlotGroup) MarshalJSON() ([]byte, error) {
	flat := make(map[string]string, len(g.Values)+1)
	for k, v := range g.Values {
		flat[string(k)] = v
	}
	flat[ParentSlotKey] = string(g.Parent)
	return json.Marshal(flat)
}

// UnmarshalJSON reverses MarshalJSON.
func (g *SubSlotGroup) UnmarshalJSON(data []byte) error {
	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	parent, ok := flat[ParentSlotKey]
	if !ok {
		return fmt.Errorf("sub-slot group without %s", ParentSlotKey)
	}
	g.Parent = Slot(parent)
	g.Values = make(map[SubSlot]string, len(flat)-1)
	for k, v := range flat {
		if k == ParentSlotKey {
			continue
		}
		sub := SubSlot(k)
		if !sub.Valid() {
			return fmt.Errorf("unknown sub-slot %q", k)
		}
		g.Values[sub] = v
	}
	return nil
}

// ---------------------------------------------------------------------------
// Result
// ---------------------------------------------------------------------------

// OrderKey builds the key used in OrderedResult.Order for a sub-slot.
func OrderKey(parent Slot, sub SubSlot) string {
	return string(parent) + "." + string(sub)
}

// HandlerTrace records what one handler contributed for one clause.
type HandlerTrace struct {
	Handler    string   `json:"handler"`
	Clause     int      `json:"clause"`
	Scope      string   `json:"scope"`
	Confidence float64  `json:"confidence"`
	Accepted   []string `json:"accepted,omitempty"`
	Rejected   []string `json:"rejected,omitempty"`
}

// ConflictKind names the way two claims collided during arbitration.
type ConflictKind string

const (
	ConflictSlot  ConflictKind = "slot_collision"
	ConflictToken ConflictKind = "token_overlap"
	ConflictGroup ConflictKind = "group_collision"
)

// Conflict describes a discarded claim.
type Conflict struct {
	Kind   ConflictKind `json:"kind"`
	Scope  string       `json:"scope"`
	Slot   string       `json:"slot"`
	Winner string       `json:"winner"`
	Loser  string       `json:"loser"`
	Tokens []int        `json:"tokens,omitempty"`
}

// ClauseInfo summarizes a detected clause.
type ClauseInfo struct {
	ID     int        `json:"id"`
	Kind   ClauseKind `json:"kind"`
	Root   int        `json:"root"`
	Parent int        `json:"parent"`
}

// Diagnostics carries non-fatal findings of one analysis.
type Diagnostics struct {
	Clauses   []ClauseInfo `json:"clauses,omitempty"`
	Conflicts []Conflict   `json:"conflicts,omitempty"`
	Unclaimed []int        `json:"unclaimed,omitempty"`
}

// OrderedResult is the grammar map of one sentence.
type OrderedResult struct {
	Sentence    string                `json:"sentence"`
	MainSlots   map[Slot]string       `json:"main_slots"`
	SubSlots    map[Slot]SubSlotGroup `json:"sub_slots"`
	Order       map[string]int        `json:"order"`
	Trace       []HandlerTrace        `json:"trace,omitempty"`
	Diagnostics *Diagnostics          `json:"diagnostics,omitempty"`
}

// OrderedValue is one occupied slot or sub-slot with its display position.
type OrderedValue struct {
	Key      string
	Parent   Slot
	Sub      SubSlot
	Text     string
	Position int
}

// Ordered returns every ordered entry sorted by position.
func (r *OrderedResult) Ordered() []OrderedValue {
	out := make([]OrderedValue, 0, len(r.Order))
	for key, pos := range r.Order {
		v := OrderedValue{Key: key, Position: pos}
		if parent, sub, ok := strings.Cut(key, "."); ok {
			v.Parent = Slot(parent)
			v.Sub = SubSlot(sub)
			if g, ok := r.SubSlots[v.Parent]; ok {
				v.Text = g.Values[v.Sub]
			}
		} else {
			v.Parent = Slot(key)
			v.Text = r.MainSlots[v.Parent]
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Reconstruct joins the non-empty values in display order.
func (r *OrderedResult) Reconstruct() string {
	parts := make([]string, 0, len(r.Order))
	for _, v := range r.Ordered() {
		if v.Text != "" {
			parts = append(parts, v.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Words splits text into lower-cased NFC words with edge punctuation
// removed.  A reconstruction and its sentence compare equal word for word.
func Words(text string) []string {
	var out []string
	for _, f := range strings.Fields(norm.NFC.String(text)) {
		if w := strings.TrimFunc(f, unicode.IsPunct); w != "" {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}
