package slotmap

import "strings"

// rel is a normalized dependency relation.  The engine speaks the
// ClearNLP/spaCy English label set; Universal Dependencies labels are mapped
// onto it by normalizeRel.
type rel string

const (
	relRoot      rel = "root"
	relNsubj     rel = "nsubj"
	relNsubjPass rel = "nsubjpass"
	relCsubj     rel = "csubj"
	relCsubjPass rel = "csubjpass"
	relExpl      rel = "expl"
	relAux       rel = "aux"
	relAuxPass   rel = "auxpass"
	relCop       rel = "cop"
	relNeg       rel = "neg"
	relPrt       rel = "prt"
	relDobj      rel = "dobj"
	relDative    rel = "dative"
	relAttr      rel = "attr"
	relAcomp     rel = "acomp"
	relOprd      rel = "oprd"
	relPrep      rel = "prep"
	relPobj      rel = "pobj"
	relPcomp     rel = "pcomp"
	relAgent     rel = "agent"
	relObl       rel = "obl"
	relCase      rel = "case"
	relAdvmod    rel = "advmod"
	relNpadvmod  rel = "npadvmod"
	relRelcl     rel = "relcl"
	relAcl       rel = "acl"
	relAdvcl     rel = "advcl"
	relCcomp     rel = "ccomp"
	relXcomp     rel = "xcomp"
	relMark      rel = "mark"
	relDet       rel = "det"
	relPoss      rel = "poss"
	relCompound  rel = "compound"
	relAmod      rel = "amod"
	relNummod    rel = "nummod"
	relPredet    rel = "predet"
	relCc        rel = "cc"
	relConj      rel = "conj"
	relPunct     rel = "punct"
	relIntj      rel = "intj"
	relDep       rel = "dep"
)

// udRelations maps Universal Dependencies v2 labels (and a few spaCy
// synonyms) onto the canonical set.
var udRelations = map[string]rel{
	"nsubj:pass":   relNsubjPass,
	"csubj:pass":   relCsubjPass,
	"aux:pass":     relAuxPass,
	"obj":          relDobj,
	"iobj":         relDative,
	"obl:agent":    relAgent,
	"obl:tmod":     relNpadvmod,
	"obl:npmod":    relNpadvmod,
	"nmod:tmod":    relNpadvmod,
	"nmod:npmod":   relNpadvmod,
	"acl:relcl":    relRelcl,
	"nmod:poss":    relPoss,
	"compound:prt": relPrt,
	"det:predet":   relPredet,
	"flat":         relCompound,
	"flat:name":    relCompound,
	"fixed":        relCompound,
	"discourse":    relIntj,
	"vocative":     relIntj,
	"parataxis":    relDep,
	"nmod":         "nmod",
	"tmod":         relNpadvmod,
	"quantmod":     relNummod,
	"nounmod":      relNpadvmod,
	"advmod:neg":   relNeg,
}

// normalizeRel lowercases a raw label and maps it into the canonical set.
// Unknown subtyped labels fall back to their base relation.
func normalizeRel(label string) rel {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return relDep
	}
	if r, ok := udRelations[l]; ok {
		return r
	}
	if base, _, ok := strings.Cut(l, ":"); ok {
		if r, ok := udRelations[base]; ok {
			return r
		}
		return rel(base)
	}
	return rel(l)
}

// Relation families used by the handlers.
var (
	subjectRels    = relSet(relNsubj, relNsubjPass, relExpl)
	clauseSubjRels = relSet(relCsubj, relCsubjPass)
	auxRels        = relSet(relAux, relAuxPass)
	modifierRels   = relSet(relAdvmod, relNpadvmod, relPrep, relObl, relAdvcl)
)

type relations map[rel]bool

func relSet(rs ...rel) relations {
	out := make(relations, len(rs))
	for _, r := range rs {
		out[r] = true
	}
	return out
}

func (s relations) has(r rel) bool { return s[r] }

// Closed-class vocabularies.

var whWords = map[string]bool{
	"who": true, "whom": true, "whose": true, "what": true, "which": true,
	"where": true, "when": true, "why": true, "how": true,
	"whoever": true, "whatever": true, "whichever": true, "wherever": true, "whenever": true,
}

var whTags = map[string]bool{"WDT": true, "WP": true, "WP$": true, "WRB": true}

var relativizers = map[string]bool{
	"who": true, "whom": true, "whose": true, "which": true, "that": true,
	"where": true, "when": true, "why": true,
}

var conditionalMarkers = map[string]bool{
	"if": true, "unless": true, "provided": true, "providing": true,
	"suppose": true, "supposing": true, "lest": true,
}

var linkingVerbs = map[string]bool{
	"be": true, "seem": true, "appear": true, "become": true, "remain": true,
	"happen": true, "tend": true, "prove": true, "look": true, "sound": true,
	"feel": true, "get": true, "turn": true, "grow": true, "stay": true,
}
