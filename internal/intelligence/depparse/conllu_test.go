package depparse

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

const treebank = "# sent_id = 1\n" +
	"# text = He runs.\n" +
	"1\tHe\the\tPRON\tPRP\t_\t2\tnsubj\t_\t_\n" +
	"2\truns\trun\tVERB\tVBZ\t_\t0\troot\t_\t_\n" +
	"3\t.\t.\tPUNCT\t.\t_\t2\tpunct\t_\t_\n" +
	"\n" +
	"1-2\tdon't\t_\t_\t_\t_\t_\t_\t_\t_\n" +
	"1\tdo\tdo\tAUX\tVBP\t_\t3\taux\t_\t_\n" +
	"2\tn't\tnot\tPART\tRB\t_\t3\tadvmod\t_\t_\n" +
	"3\tgo\tgo\tVERB\tVB\t_\t0\troot\t_\t_\n" +
	"3.1\tgo\tgo\tVERB\tVB\t_\t_\t_\t_\t_\n"

func TestReadTreebank(t *testing.T) {
	bank, err := ReadTreebank(strings.NewReader(treebank))
	require.NoError(t, err)
	require.Len(t, bank, 2)

	he := bank["He runs."]
	require.Len(t, he, 3)
	assert.Equal(t, "run", he[1].Lemma)
	assert.Equal(t, "VBZ", he[1].Tag)
	assert.Equal(t, 0, he[1].Head)
	assert.Equal(t, "root", he[1].Dep)

	dont := bank["do n't go"]
	require.Len(t, dont, 3, "multiword range and empty node are skipped")
	assert.Equal(t, "n't", dont[1].Text)
}

func TestReadTreebank_Malformed(t *testing.T) {
	_, err := ReadTreebank(strings.NewReader("1\tHe\the\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeParseInput))
	assert.Contains(t, err.Error(), "line 1")

	_, err = ReadTreebank(strings.NewReader("1\tHe\the\tPRON\tPRP\t_\tX\tnsubj\t_\t_\n"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeParseInput))
}

func TestConlluParser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold.conllu")
	require.NoError(t, os.WriteFile(path, []byte(treebank), 0o600))

	p, err := LoadConlluParser(path)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "conllu", p.Name())

	tokens, err := p.Parse(context.Background(), " He  runs. ")
	require.NoError(t, err)
	tokens[0].Text = "mutated"
	again, _ := p.Parse(context.Background(), "He runs.")
	assert.Equal(t, "He", again[0].Text)

	_, err = p.Parse(context.Background(), "She walks.")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSentenceNotFound))
	assert.True(t, errors.IsNotFound(err))

	_, err = LoadConlluParser(filepath.Join(t.TempDir(), "missing.conllu"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeParserUnavailable))
}
