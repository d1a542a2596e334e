// Package slotmap maps a dependency-parsed English sentence onto the fixed
// slot grammar (S, Aux, V, O1, O2, C1, C2, M1, M2, M3), decomposing
// subordinate clauses into sub-slot groups and assigning a display order.
//
// The engine is a pure function of its configuration and the parse: a fixed
// table of grammatical handlers each describes the slots it recognises, a
// priority merge arbitrates their claims and an ordering pass lays the
// result out.
package slotmap

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// DependencyParser turns a sentence into dependency-annotated tokens.
type DependencyParser interface {
	Parse(ctx context.Context, sentence string) ([]grammar.Token, error)
	Name() string
}

// Engine runs the analysis pipeline.  An Engine is immutable and safe for
// concurrent use; reconfiguring means building a new one.
type Engine struct {
	parser   DependencyParser
	cfg      Config
	handlers []handler
	logger   logging.Logger
	metrics  common.GrammarMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m common.GrammarMetrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine builds an engine over parser with the handlers enabled in cfg.
func NewEngine(parser DependencyParser, cfg Config, opts ...Option) (*Engine, error) {
	if parser == nil {
		return nil, errors.InvalidParam("dependency parser is required")
	}
	if cfg.active == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		parser:   parser,
		cfg:      cfg,
		handlers: cfg.handlers(),
		logger:   logging.NewNopLogger(),
		metrics:  common.NewNoopGrammarMetrics(),
	}
	for _, o := range opts {
		o(e)
	}
	e.logger = e.logger.Named("slotmap")
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Parser returns the dependency parser.
func (e *Engine) Parser() DependencyParser { return e.parser }

// ListActiveHandlers returns the enabled handler ids in priority order.
func (e *Engine) ListActiveHandlers() []string { return e.cfg.ListActiveHandlers() }

// Reconfigure returns a new engine sharing parser, logger and metrics but
// running cfg.
func (e *Engine) Reconfigure(cfg Config) *Engine {
	cp := *e
	cp.cfg = cfg
	cp.handlers = cfg.handlers()
	return &cp
}

// Process parses sentence and analyses it.
func (e *Engine) Process(ctx context.Context, sentence string) (*grammar.OrderedResult, error) {
	start := time.Now()
	text := strings.TrimSpace(sentence)
	if text == "" {
		return nil, errors.New(errors.ErrCodeEmptySentence, "sentence is empty")
	}

	res, tokens, err := e.process(ctx, text)
	params := &common.AnalysisMetricParams{
		Provider:   e.parser.Name(),
		DurationMs: float64(time.Since(start).Microseconds()) / 1000,
		Success:    err == nil,
		Tokens:     tokens,
	}
	if err != nil {
		params.ErrorCode = string(errors.GetCode(err))
		e.logger.Warn("analysis failed", logging.Sentence(text), logging.Err(err))
	} else if res.Diagnostics != nil {
		params.Clauses = len(res.Diagnostics.Clauses)
		params.Groups = len(res.SubSlots)
	}
	e.metrics.RecordAnalysis(ctx, params)
	return res, err
}

func (e *Engine) process(ctx context.Context, text string) (*grammar.OrderedResult, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeTimeout, "analysis cancelled")
	}

	parseStart := time.Now()
	tokens, err := e.parser.Parse(ctx, text)
	e.metrics.RecordParserCall(ctx, e.parser.Name(), float64(time.Since(parseStart).Microseconds())/1000, err == nil)
	if err != nil {
		if errors.GetCode(err) != errors.CodeUnknown {
			return nil, 0, err
		}
		return nil, 0, errors.Wrap(err, errors.ErrCodeParserUnavailable, "dependency parser failed")
	}

	res, err := e.Analyze(text, tokens)
	return res, len(tokens), err
}

// Analyze maps an already parsed sentence.  It never consults the parser.
func (e *Engine) Analyze(sentence string, tokens []grammar.Token) (*grammar.OrderedResult, error) {
	t, err := NewTree(tokens)
	if err != nil {
		return nil, err
	}
	log := e.logger.With(logging.Sentence(sentence))
	clauses := DetectClauses(t)

	main, groups := e.arbitrate(t, clauses, log)
	if len(main.unclaimed) > 0 {
		log.Debug("tokens left unclaimed", logging.Ints("tokens", main.unclaimed))
	}

	out, err := assemble(t, sentence, main, groups, e.cfg)
	if err != nil {
		log.Error("invariant violation", logging.Err(err))
		return nil, err
	}
	log.Debug("sentence analysed",
		logging.Int("clauses", len(clauses)),
		logging.Int("groups", len(groups)),
		logging.Int("slots", len(out.Order)))
	return out, nil
}

// arbitrate runs the handler table over the main clause and then over
// every subordinate clause it decomposed.  Words that no value renders and
// no group already reports end up in the main scope's unclaimed list.
func (e *Engine) arbitrate(t *Tree, clauses []Clause, log logging.Logger) (scopeResult, []groupResult) {
	main := e.runScope(t, clauses, 0, false, nil, nil, "main", log)

	groups := make([]groupResult, 0, len(main.m.groups))
	for _, g := range main.m.groups {
		var seed *Contribution
		if len(g.claim.Seeds) > 0 {
			seed = &Contribution{Handler: g.handler, Priority: math.MaxInt, Confidence: 1, Slots: g.claim.Seeds}
		}
		sub := e.runScope(t, clauses, g.claim.Clause, true, seed, g.claim.Attach, string(g.claim.Parent), log)
		groups = append(groups, groupResult{parent: g.claim.Parent, clause: clauses[g.claim.Clause], res: sub})
	}

	main.unclaimed = uncovered(t, main, groups)
	return main, groups
}

// uncovered lists the words neither rendered by a value nor reported
// unclaimed by a group.  A decomposed slot renders nothing itself, so words
// of its backing phrase that no sub-slot took, such as a discarded second
// clause, surface here.
func uncovered(t *Tree, main scopeResult, groups []groupResult) []int {
	covered := make(map[int]bool, t.Len())
	for _, v := range main.m.slots {
		if v.group >= 0 {
			continue
		}
		for _, i := range v.tokens {
			covered[i] = true
		}
	}
	for _, g := range groups {
		for i := range g.res.m.owner {
			covered[i] = true
		}
		for _, i := range g.res.unclaimed {
			covered[i] = true
		}
	}
	var out []int
	for i := 1; i <= t.Len(); i++ {
		if !covered[i] && !t.isPunct(i) {
			out = append(out, i)
		}
	}
	return out
}

func (e *Engine) runScope(t *Tree, clauses []Clause, id int, sub bool, seed *Contribution, attach []int, label string, log logging.Logger) scopeResult {
	sc := newScope(t, clauses, id, sub)

	var contribs []Contribution
	if seed != nil {
		contribs = append(contribs, *seed)
	}
	for _, h := range e.handlers {
		if h.CanHandle(sc) {
			contribs = append(contribs, h.Handle(sc))
		}
	}

	m := mergeContributions(label, id, sub, contribs)
	stray := append(append([]int(nil), sc.roles.markers...), attach...)
	m.attachStray(stray)

	ctx := context.Background()
	for _, tr := range m.trace {
		e.metrics.RecordHandler(ctx, tr.Handler, len(tr.Accepted) > 0)
	}
	for _, c := range m.conflicts {
		e.metrics.RecordConflict(ctx, string(c.Kind))
		fields := []logging.Field{
			logging.String(logging.KeySlot, c.Slot),
			logging.Int(logging.KeyClause, id),
			logging.String("winner", c.Winner),
			logging.Handler(c.Loser),
			logging.Ints("tokens", c.Tokens),
		}
		switch c.Kind {
		case grammar.ConflictToken:
			log.Error("claim overlaps tokens owned by another slot", fields...)
		case grammar.ConflictGroup:
			log.Warn("second sub-slot group for slot discarded", fields...)
		default:
			log.Warn("slot already claimed", fields...)
		}
	}

	return scopeResult{scope: sc, m: m, unclaimed: m.unclaimed(t, sc.clause.Tokens)}
}

//Personal.AI order the ending
