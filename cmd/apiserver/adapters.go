package main

import (
	"context"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/depparse"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/http/handlers"
)

// parserHealthAdapter exposes the parse provider to the readiness probe.
// A cached provider also pings Redis.
type parserHealthAdapter struct {
	parser depparse.Parser
	probe  depparse.HealthChecker
}

func (a *parserHealthAdapter) Name() string {
	return "parser:" + a.parser.Name()
}

func (a *parserHealthAdapter) Check(ctx context.Context) error {
	return a.probe.Health(ctx)
}

func readinessChecks(p depparse.Parser) []handlers.HealthChecker {
	h, ok := p.(depparse.HealthChecker)
	if !ok {
		return nil
	}
	return []handlers.HealthChecker{&parserHealthAdapter{parser: p, probe: h}}
}

//Personal.AI order the ending
