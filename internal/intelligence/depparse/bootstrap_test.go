package depparse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/config"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

func conlluConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.conllu")
	require.NoError(t, os.WriteFile(path, []byte(treebank), 0o600))

	cfg := &config.Config{Parser: config.ParserConfig{Provider: ProviderConllu, ConlluPath: path}}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestBuild_Conllu(t *testing.T) {
	p, release, err := Build(conlluConfig(t), nil, nil)
	require.NoError(t, err)
	defer release()

	assert.IsType(t, &ConlluParser{}, p)
	toks, err := p.Parse(context.Background(), "He   runs.")
	require.NoError(t, err)
	assert.Len(t, toks, 3)
}

func TestBuild_WithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := conlluConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Addr = mr.Addr()

	p, release, err := Build(cfg, nil, nil)
	require.NoError(t, err)

	require.IsType(t, &CachedParser{}, p)
	_, err = p.Parse(context.Background(), "He runs.")
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())
	require.NoError(t, p.(HealthChecker).Health(context.Background()))

	require.NoError(t, release())
}

func TestBuild_Errors(t *testing.T) {
	cfg := conlluConfig(t)
	cfg.Parser.ConlluPath = filepath.Join(t.TempDir(), "missing.conllu")
	_, release, err := Build(cfg, nil, nil)
	assert.Error(t, err)
	assert.NoError(t, release())

	cfg = conlluConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Addr = "127.0.0.1:1"
	_, _, err = Build(cfg, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable), "got %v", err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, ProviderHTTP, opts.Provider)
	assert.Equal(t, config.DefaultParserEndpoint, opts.Endpoint)
	assert.Equal(t, config.DefaultCacheTTL, opts.CacheTTL)
	assert.Nil(t, opts.Cache)
}

//Personal.AI order the ending
