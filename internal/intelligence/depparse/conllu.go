package depparse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

const (
	conlluFields    = 10
	conlluTextLabel = "# text ="
)

// Treebank maps normalized sentence text to its gold parse.
type Treebank map[string][]grammar.Token

// ReadTreebank reads CoNLL-U sentences.  A sentence is keyed by its
// "# text =" comment, or by its forms joined with spaces when the comment
// is absent.  Multiword ranges (1-2) and empty nodes (1.1) are skipped.
func ReadTreebank(r io.Reader) (Treebank, error) {
	bank := make(Treebank)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		text   string
		tokens []grammar.Token
		line   int
	)
	flush := func() {
		if len(tokens) == 0 {
			text = ""
			return
		}
		key := text
		if key == "" {
			forms := make([]string, len(tokens))
			for i, t := range tokens {
				forms[i] = t.Text
			}
			key = strings.Join(forms, " ")
		}
		bank[Normalize(key)] = tokens
		text, tokens = "", nil
	}

	for sc.Scan() {
		line++
		row := strings.TrimRight(sc.Text(), "\r")
		switch {
		case strings.TrimSpace(row) == "":
			flush()
			continue
		case strings.HasPrefix(row, conlluTextLabel):
			text = strings.TrimSpace(strings.TrimPrefix(row, conlluTextLabel))
			continue
		case strings.HasPrefix(row, "#"):
			continue
		}

		fields := strings.Split(row, "\t")
		if len(fields) != conlluFields {
			return nil, parseInputError(line, fmt.Sprintf("expected %d fields, got %d", conlluFields, len(fields)))
		}
		if strings.ContainsAny(fields[0], "-.") {
			continue
		}
		tok, err := parseRow(fields)
		if err != nil {
			return nil, parseInputError(line, err.Error())
		}
		tokens = append(tokens, tok)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeParseInput, "failed to read treebank")
	}
	flush()
	return bank, nil
}

func parseRow(f []string) (grammar.Token, error) {
	id, err := strconv.Atoi(f[0])
	if err != nil {
		return grammar.Token{}, fmt.Errorf("bad id %q", f[0])
	}
	head, err := strconv.Atoi(f[6])
	if err != nil {
		return grammar.Token{}, fmt.Errorf("bad head %q", f[6])
	}
	return grammar.Token{
		Index: id,
		Text:  f[1],
		Lemma: field(f[2]),
		POS:   field(f[3]),
		Tag:   field(f[4]),
		Head:  head,
		Dep:   field(f[7]),
	}, nil
}

func field(v string) string {
	if v == "_" {
		return ""
	}
	return v
}

func parseInputError(line int, msg string) error {
	return errors.New(errors.ErrCodeParseInput, "malformed CoNLL-U").
		WithDetail(fmt.Sprintf("line %d: %s", line, msg))
}

// ConlluParser answers Parse from a fixed treebank.
type ConlluParser struct {
	bank Treebank
}

// NewConlluParser wraps an in-memory treebank.
func NewConlluParser(bank Treebank) *ConlluParser {
	return &ConlluParser{bank: bank}
}

// LoadConlluParser reads the treebank at path.
func LoadConlluParser(path string) (*ConlluParser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeParserUnavailable, "failed to open treebank").WithDetail(path)
	}
	defer f.Close()
	bank, err := ReadTreebank(f)
	if err != nil {
		return nil, err
	}
	return NewConlluParser(bank), nil
}

// Name implements slotmap.DependencyParser.
func (p *ConlluParser) Name() string { return "conllu" }

// Len returns the number of sentences in the treebank.
func (p *ConlluParser) Len() int { return len(p.bank) }

// Parse implements slotmap.DependencyParser.  The returned slice is a copy.
func (p *ConlluParser) Parse(ctx context.Context, sentence string) ([]grammar.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "parse cancelled")
	}
	key := Normalize(sentence)
	tokens, ok := p.bank[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeSentenceNotFound, "sentence not in treebank").WithDetail(key)
	}
	return append([]grammar.Token(nil), tokens...), nil
}

// Health always succeeds once the treebank is loaded.
func (p *ConlluParser) Health(context.Context) error { return nil }
