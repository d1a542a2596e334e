package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/depparse"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/slotmap"
)

// SampleTreebank holds hand-checked parses in CoNLL-U with 1-based heads.
//
//	It rains.              S V
//	She reads books.       S V O1
//	The car is red.        S V C1
//	Cycle here.            no root; analysis fails with a parse-input error
const SampleTreebank = "# text = It rains.\n" +
	"1\tIt\tit\tPRON\tPRP\t_\t2\tnsubj\t_\t_\n" +
	"2\trains\train\tVERB\tVBZ\t_\t0\tROOT\t_\t_\n" +
	"3\t.\t.\tPUNCT\t.\t_\t2\tpunct\t_\t_\n" +
	"\n" +
	"# text = She reads books.\n" +
	"1\tShe\tshe\tPRON\tPRP\t_\t2\tnsubj\t_\t_\n" +
	"2\treads\tread\tVERB\tVBZ\t_\t0\tROOT\t_\t_\n" +
	"3\tbooks\tbook\tNOUN\tNNS\t_\t2\tdobj\t_\t_\n" +
	"4\t.\t.\tPUNCT\t.\t_\t2\tpunct\t_\t_\n" +
	"\n" +
	"# text = The car is red.\n" +
	"1\tThe\tthe\tDET\tDT\t_\t2\tdet\t_\t_\n" +
	"2\tcar\tcar\tNOUN\tNN\t_\t3\tnsubj\t_\t_\n" +
	"3\tis\tbe\tAUX\tVBZ\t_\t0\tROOT\t_\t_\n" +
	"4\tred\tred\tADJ\tJJ\t_\t3\tacomp\t_\t_\n" +
	"5\t.\t.\tPUNCT\t.\t_\t3\tpunct\t_\t_\n" +
	"\n" +
	"# text = Cycle here.\n" +
	"1\tCycle\tcycle\tVERB\tVB\t_\t2\tdep\t_\t_\n" +
	"2\there\there\tADV\tRB\t_\t1\tadvmod\t_\t_\n" +
	"3\t.\t.\tPUNCT\t.\t_\t1\tpunct\t_\t_\n"

// Treebank parses conllu, failing the test on error.
func Treebank(t testing.TB, conllu string) depparse.Treebank {
	t.Helper()
	bank, err := depparse.ReadTreebank(strings.NewReader(conllu))
	require.NoError(t, err)
	return bank
}

// NewParser returns a ConlluParser over conllu.
func NewParser(t testing.TB, conllu string) *depparse.ConlluParser {
	t.Helper()
	return depparse.NewConlluParser(Treebank(t, conllu))
}

// NewEngine builds an engine over conllu with the named handlers active;
// no names activates all of them.
func NewEngine(t testing.TB, conllu string, handlers ...string) *slotmap.Engine {
	t.Helper()
	cfg, err := slotmap.NewConfig(handlers...)
	require.NoError(t, err)
	e, err := slotmap.NewEngine(NewParser(t, conllu), cfg)
	require.NoError(t, err)
	return e
}

//Personal.AI order the ending
