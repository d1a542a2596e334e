package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/config"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/slotmap"
	apihttp "github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/http"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/http/handlers"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/testutil"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

type closeRecorder struct {
	Backend
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return c.Backend.Close()
}

func localFactory(t *testing.T, rec **closeRecorder) BackendFactory {
	return func(_ *config.Config, opts *RootOptions, _ logging.Logger) (Backend, error) {
		cfg, err := slotmap.NewConfig(opts.Handlers...)
		if err != nil {
			return nil, err
		}
		b, err := NewLocalBackend(testutil.NewParser(t, testutil.SampleTreebank), cfg, 2, logging.NewNopLogger(), nil)
		if err != nil {
			return nil, err
		}
		r := &closeRecorder{Backend: b}
		if rec != nil {
			*rec = r
		}
		return r, nil
	}
}

func execute(t *testing.T, root *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "rephrase", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"analyze", "batch", "handlers", "version"} {
		assert.True(t, names[want], want)
	}
	for _, flag := range []string{"config", "output", "server", "treebank", "handlers", "trace", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestAnalyze_JSON(t *testing.T) {
	var rec *closeRecorder
	out, err := execute(t, NewRootCommandWithBackend(localFactory(t, &rec)), "", "-o", "json", "analyze", "She", "reads", "books.")
	require.NoError(t, err)

	var res grammar.OrderedResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "She", res.MainSlots[grammar.SlotS])
	assert.Equal(t, "reads", res.MainSlots[grammar.SlotV])
	assert.Equal(t, "books", res.MainSlots[grammar.SlotO1])
	assert.Equal(t, 1, rec.closed)
}

func TestAnalyze_FromStdinAsText(t *testing.T) {
	out, err := execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "It rains.\n", "analyze")
	require.NoError(t, err)
	assert.Contains(t, out, "S    It")
	assert.Contains(t, out, "V    rains")
}

func TestAnalyze_Table(t *testing.T) {
	out, err := execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "", "-o", "table", "analyze", "It rains.")
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(out), "SLOT")
	assert.Contains(t, out, "rains")
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "  ", "analyze")
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptySentence))
	assert.Equal(t, 2, exitCode(err))

	var rec *closeRecorder
	_, err = execute(t, NewRootCommandWithBackend(localFactory(t, &rec)), "", "analyze", "Unknown.")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSentenceNotFound))
	assert.Equal(t, 1, rec.closed, "backend closed after a failed run")

	_, err = execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "", "-o", "xml", "analyze", "It rains.")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestBatch_YAMLFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("# corpus\nIt rains.\n\nMissing sentence.\n"), 0o600))

	out, err := execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "", "-o", "yaml", "batch", path)
	require.NoError(t, err)

	var resp struct {
		Total     int `yaml:"total"`
		Succeeded int `yaml:"succeeded"`
		Items     []struct {
			Status string `yaml:"status"`
			Error  *struct {
				Code string `yaml:"code"`
			} `yaml:"error"`
		} `yaml:"items"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, "SUCCESS", resp.Items[0].Status)
	assert.Equal(t, "GRAM_007", resp.Items[1].Error.Code)
}

func TestBatch_FailOnErrorAndEmptyInput(t *testing.T) {
	out, err := execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "It rains.\nNope.\n", "batch", "--fail-on-error")
	assert.Error(t, err)
	assert.Contains(t, out, "2 sentences, 1 succeeded, 1 failed")

	_, err = execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "# nothing\n\n", "batch", "-")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "", "batch", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestHandlers_Local(t *testing.T) {
	out, err := execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "", "--handlers", "basic_pattern,passive", "-o", "json", "handlers")
	require.NoError(t, err)

	var list apitypes.HandlerList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.ElementsMatch(t, []string{"basic_pattern", "passive"}, list.Active)

	_, err = execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "", "handlers", "disable", "passive")
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))

	_, err = execute(t, NewRootCommandWithBackend(localFactory(t, nil)), "", "--handlers", "bogus", "handlers")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownHandler))
}

func TestDefaultBackend_Treebank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.conllu")
	require.NoError(t, os.WriteFile(path, []byte(testutil.SampleTreebank), 0o600))

	out, err := execute(t, NewRootCommand(), "", "--treebank", path, "-o", "json", "analyze", "It rains.")
	require.NoError(t, err)
	assert.Contains(t, out, `"V": "rains"`)
}

func TestDefaultBackend_Remote(t *testing.T) {
	engines := handlers.NewEngineHolder(testutil.NewEngine(t, testutil.SampleTreebank), nil, nil)
	ah := handlers.NewAnalyzeHandler(engines, handlers.AnalyzeOptions{}, nil)
	defer ah.Shutdown(context.Background())
	srv := httptest.NewServer(apihttp.NewRouter(apihttp.RouterConfig{
		AnalyzeHandler:  ah,
		RegistryHandler: handlers.NewRegistryHandler(engines, nil),
	}))
	defer srv.Close()

	out, err := execute(t, NewRootCommand(), "", "--server", srv.URL, "-o", "json", "analyze", "It rains.")
	require.NoError(t, err)
	assert.Contains(t, out, `"S": "It"`)

	_, err = execute(t, NewRootCommand(), "", "--server", srv.URL, "handlers", "disable", "passive")
	require.NoError(t, err)
	assert.False(t, engines.Load().Config().IsActive(slotmap.HandlerPassive))

	_, err = execute(t, NewRootCommand(), "", "--server", srv.URL, "handlers", "enable", "bogus")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, NewRootCommandWithBackend(func(*config.Config, *RootOptions, logging.Logger) (Backend, error) {
		t.Fatal("version must not build a backend")
		return nil, nil
	}), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rephrase dev")
}

func TestReadSentences(t *testing.T) {
	got, err := readSentences(strings.NewReader("  a  \n#b\n\nc\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got)
}

//Personal.AI order the ending
