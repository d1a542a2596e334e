package slotmap

import (
	"fmt"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

// Config selects the active handlers and the optional result sections.
// Config is a value: every modifier returns a new Config.
type Config struct {
	active      map[HandlerKind]bool
	trace       bool
	diagnostics bool
}

// DefaultConfig activates every handler with trace and diagnostics on.
func DefaultConfig() Config {
	c := Config{active: make(map[HandlerKind]bool, len(handlerTable)), trace: true, diagnostics: true}
	for _, h := range handlerTable {
		c.active[h.Kind()] = true
	}
	return c
}

// NewConfig activates exactly the named handlers.  An empty list activates
// all of them.
func NewConfig(ids ...string) (Config, error) {
	if len(ids) == 0 {
		return DefaultConfig(), nil
	}
	c := Config{active: make(map[HandlerKind]bool, len(ids)), trace: true, diagnostics: true}
	for _, id := range ids {
		k, err := ParseHandlerKind(id)
		if err != nil {
			return Config{}, err
		}
		c.active[k] = true
	}
	return c, nil
}

func (c Config) clone() Config {
	out := Config{active: make(map[HandlerKind]bool, len(c.active)), trace: c.trace, diagnostics: c.diagnostics}
	for k, v := range c.active {
		out.active[k] = v
	}
	return out
}

// AddHandler returns a copy of c with handler id enabled.
func (c Config) AddHandler(id string) (Config, error) {
	k, err := ParseHandlerKind(id)
	if err != nil {
		return c, err
	}
	out := c.clone()
	out.active[k] = true
	return out, nil
}

// RemoveHandler returns a copy of c with handler id disabled.
func (c Config) RemoveHandler(id string) (Config, error) {
	k, err := ParseHandlerKind(id)
	if err != nil {
		return c, err
	}
	if !c.active[k] {
		return c, errors.New(errors.ErrCodeUnknownHandler, "handler not active").
			WithDetail(fmt.Sprintf("id=%q", id))
	}
	out := c.clone()
	delete(out.active, k)
	return out, nil
}

// WithTrace toggles the per-handler trace in results.
func (c Config) WithTrace(on bool) Config {
	out := c.clone()
	out.trace = on
	return out
}

// WithDiagnostics toggles the diagnostics section in results.
func (c Config) WithDiagnostics(on bool) Config {
	out := c.clone()
	out.diagnostics = on
	return out
}

// Trace reports whether results carry the handler trace.
func (c Config) Trace() bool { return c.trace }

// Diagnostics reports whether results carry diagnostics.
func (c Config) Diagnostics() bool { return c.diagnostics }

// IsActive reports whether handler k is enabled.
func (c Config) IsActive(k HandlerKind) bool { return c.active[k] }

// ListActiveHandlers returns the enabled handler ids in priority order.
func (c Config) ListActiveHandlers() []string {
	var out []string
	for _, h := range handlerTable {
		if c.active[h.Kind()] {
			out = append(out, string(h.Kind()))
		}
	}
	return out
}

func (c Config) handlers() []handler {
	var out []handler
	for _, h := range handlerTable {
		if c.active[h.Kind()] {
			out = append(out, h)
		}
	}
	return out
}
