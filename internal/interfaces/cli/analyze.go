package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [sentence]",
		Short: "Map one sentence onto slots",
		Long: "Analyze maps a single sentence onto the slot grammar.  The words\n" +
			"of all arguments form the sentence; without arguments it is read\n" +
			"from stdin.",
		Example: `  rephrase analyze "The book that he bought is expensive."
  echo "If it rains, we stay home." | rephrase analyze -o table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			sentence := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeValidation, "reading stdin failed")
				}
				sentence = string(b)
			}
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				return errors.New(errors.ErrCodeEmptySentence, "sentence is empty")
			}

			return c.run(cmd.Context(), func(ctx context.Context, b Backend) error {
				res, err := b.Analyze(ctx, sentence)
				if err != nil {
					return err
				}
				c.Logger.Debug("sentence analysed", logging.Sentence(sentence), logging.Int("slots", len(res.Order)))
				return PrintResult(cmd, res)
			})
		},
	}
}

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Map every line of a file onto slots",
		Long: "Batch analyses one sentence per line.  Blank lines and lines\n" +
			"starting with # are skipped.  The file defaults to stdin; \"-\"\n" +
			"also selects stdin.  Sentences fail individually.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeValidation, "cannot open input").WithDetail(args[0])
				}
				defer f.Close()
				in = f
			}
			sentences, err := readSentences(in)
			if err != nil {
				return err
			}
			if len(sentences) == 0 {
				return errors.New(errors.ErrCodeValidation, "no sentences in input")
			}

			return c.run(cmd.Context(), func(ctx context.Context, b Backend) error {
				resp, err := b.AnalyzeBatch(ctx, sentences)
				if err != nil {
					return err
				}
				c.Logger.Info("batch finished",
					logging.String("batch_id", resp.BatchID),
					logging.Int("total", resp.Total),
					logging.Int("failed", resp.Failed))
				if err := PrintResult(cmd, resp); err != nil {
					return err
				}
				if failOnError && resp.Failed > 0 {
					return errors.New(errors.ErrCodeParseInput, fmt.Sprintf("%d of %d sentences failed", resp.Failed, resp.Total))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any sentence fails")
	return cmd
}

func readSentences(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "reading input failed")
	}
	return out, nil
}

//Personal.AI order the ending
