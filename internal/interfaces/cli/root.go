// Package cli implements the rephrase command-line interface.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/config"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/client"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
	ServerAddr   string
	Treebank     string
	Handlers     []string
	Trace        bool
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	NoColor      bool
	Timeout      time.Duration

	opts    *RootOptions
	factory BackendFactory

	once    sync.Once
	backend Backend
	err     error
}

// Backend builds the analysis backend on first use.
func (c *CLIContext) Backend() (Backend, error) {
	c.once.Do(func() {
		c.backend, c.err = c.factory(c.Config, c.opts, c.Logger)
	})
	return c.backend, c.err
}

// run builds the backend, calls fn under the global timeout and closes the
// backend afterwards.
func (c *CLIContext) run(parent context.Context, fn func(ctx context.Context, b Backend) error) error {
	b, err := c.Backend()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			c.Logger.Warn("closing backend failed", logging.Err(cerr))
		}
	}()

	ctx, cancel := c.withTimeout(parent)
	defer cancel()
	return fn(ctx, b)
}

// NewRootCommand creates the root command with the default backend.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithBackend(DefaultBackend)
}

// NewRootCommandWithBackend creates the root command using factory to
// build the analysis backend.
func NewRootCommandWithBackend(factory BackendFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rephrase",
		Short: "Rephrase maps English sentences onto grammatical slots",
		Long: "Rephrase decomposes English sentences into the slot grammar\n" +
			"(S, Aux, V, O1, O2, C1, C2, M1, M2, M3) with sub-slots for\n" +
			"subordinate clauses, using a dependency parse of each sentence.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newCLIContext(opts, factory)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, c))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./rephrase.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, yaml, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall operation timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "API server address; analyses run in-process when empty")
	pf.StringVar(&opts.Treebank, "treebank", "", "CoNLL-U treebank to parse from instead of the parse service")
	pf.StringSliceVar(&opts.Handlers, "handlers", nil, "comma-separated active handlers for local runs (default: all)")
	pf.BoolVar(&opts.Trace, "trace", false, "include the handler trace and diagnostics in results")

	cmd.AddCommand(
		NewAnalyzeCmd(),
		NewBatchCmd(),
		NewHandlersCmd(),
		NewVersionCmd(),
	)
	return cmd
}

func newCLIContext(opts *RootOptions, factory BackendFactory) (*CLIContext, error) {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "yaml", "table":
	default:
		return nil, errors.New(errors.ErrCodeValidation, "unsupported output format").
			WithDetail(opts.OutputFormat + " (expected text|json|yaml|table)")
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := initLogger(opts)
	if err != nil {
		return nil, err
	}
	return &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		NoColor:      opts.NoColor,
		Timeout:      opts.Timeout,
		opts:         opts,
		factory:      factory,
	}, nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	path := opts.ConfigPath
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if opts.Treebank != "" {
		cfg.Parser.Provider = "conllu"
		cfg.Parser.ConlluPath = opts.Treebank
	}
	return cfg, nil
}

func findConfigFile() string {
	paths := []string{"./rephrase.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".rephrase", "config.yaml"))
	}
	paths = append(paths, "/etc/rephrase/config.yaml")

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// initLogger creates a console logger on stderr so results on stdout stay
// machine-readable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	c, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || c == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return c, nil
}

// withTimeout derives the per-invocation context.
func (c *CLIContext) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		PrintError(root, err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps client errors to 2 and everything else to 1.
func exitCode(err error) int {
	code := errors.GetCode(err)
	var apiErr *client.APIError
	if stderrors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}
	if errors.IsClientError(code) {
		return 2
	}
	return 1
}

//Personal.AI order the ending
