package slotmap

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// parseTable reads one token per line: index text lemma pos tag dep head.
func parseTable(t testing.TB, table string) []grammar.Token {
	t.Helper()
	var out []grammar.Token
	for _, line := range strings.Split(strings.TrimSpace(table), "\n") {
		f := strings.Fields(line)
		require.Len(t, f, 7, "bad fixture line %q", line)
		idx, err := strconv.Atoi(f[0])
		require.NoError(t, err)
		head, err := strconv.Atoi(f[6])
		require.NoError(t, err)
		out = append(out, grammar.Token{Index: idx, Text: f[1], Lemma: f[2], POS: f[3], Tag: f[4], Dep: f[5], Head: head})
	}
	return out
}

var fixtures = map[string]string{
	"The car is red.": `
1 The the DET DT det 2
2 car car NOUN NN nsubj 3
3 is be AUX VBZ ROOT 0
4 red red ADJ JJ acomp 3
5 . . PUNCT . punct 3`,

	"The man who runs fast is strong.": `
1 The the DET DT det 2
2 man man NOUN NN nsubj 6
3 who who PRON WP nsubj 4
4 runs run VERB VBZ relcl 2
5 fast fast ADV RB advmod 4
6 is be AUX VBZ ROOT 0
7 strong strong ADJ JJ acomp 6
8 . . PUNCT . punct 6`,

	"The letter was written by John.": `
1 The the DET DT det 2
2 letter letter NOUN NN nsubjpass 4
3 was be AUX VBD auxpass 4
4 written write VERB VBN ROOT 0
5 by by ADP IN agent 4
6 John John PROPN NNP pobj 5
7 . . PUNCT . punct 4`,

	"If it rains tomorrow, I will stay home.": `
1 If if SCONJ IN mark 3
2 it it PRON PRP nsubj 3
3 rains rain VERB VBZ advcl 8
4 tomorrow tomorrow NOUN NN npadvmod 3
5 , , PUNCT , punct 8
6 I I PRON PRP nsubj 8
7 will will AUX MD aux 8
8 stay stay VERB VB ROOT 0
9 home home ADV RB advmod 8
10 . . PUNCT . punct 8`,

	"I want to go home.": `
1 I I PRON PRP nsubj 2
2 want want VERB VBP ROOT 0
3 to to PART TO aux 4
4 go go VERB VB xcomp 2
5 home home ADV RB advmod 4
6 . . PUNCT . punct 2`,

	"What did you buy?": `
1 What what PRON WP dobj 4
2 did do AUX VBD aux 4
3 you you PRON PRP nsubj 4
4 buy buy VERB VB ROOT 0
5 ? ? PUNCT . punct 4`,

	"The book that I read is good.": `
1 The the DET DT det 2
2 book book NOUN NN nsubj 6
3 that that PRON WDT dobj 5
4 I I PRON PRP nsubj 5
5 read read VERB VBD relcl 2
6 is be AUX VBZ ROOT 0
7 good good ADJ JJ acomp 6
8 . . PUNCT . punct 6`,

	"She gave him a book.": `
1 She she PRON PRP nsubj 2
2 gave give VERB VBD ROOT 0
3 him he PRON PRP dative 2
4 a a DET DT det 5
5 book book NOUN NN dobj 2
6 . . PUNCT . punct 2`,

	"He said that she was right.": `
1 He he PRON PRP nsubj 2
2 said say VERB VBD ROOT 0
3 that that SCONJ IN mark 5
4 she she PRON PRP nsubj 5
5 was be AUX VBD ccomp 2
6 right right ADJ JJ acomp 5
7 . . PUNCT . punct 2`,

	"Yesterday I met him in the park at noon.": `
1 Yesterday yesterday NOUN NN npadvmod 3
2 I I PRON PRP nsubj 3
3 met meet VERB VBD ROOT 0
4 him he PRON PRP dobj 3
5 in in ADP IN prep 3
6 the the DET DT det 7
7 park park NOUN NN pobj 5
8 at at ADP IN prep 3
9 noon noon NOUN NN pobj 8
10 . . PUNCT . punct 3`,

	"I have not finished my homework.": `
1 I I PRON PRP nsubj 4
2 have have AUX VBP aux 4
3 not not PART RB neg 4
4 finished finish VERB VBN ROOT 0
5 my my PRON PRP$ poss 6
6 homework homework NOUN NN dobj 4
7 . . PUNCT . punct 4`,

	"He enjoys swimming in the lake.": `
1 He he PRON PRP nsubj 2
2 enjoys enjoy VERB VBZ ROOT 0
3 swimming swim VERB VBG xcomp 2
4 in in ADP IN prep 3
5 the the DET DT det 6
6 lake lake NOUN NN pobj 4
7 . . PUNCT . punct 2`,

	"I saw a man standing by the door.": `
1 I I PRON PRP nsubj 2
2 saw see VERB VBD ROOT 0
3 a a DET DT det 4
4 man man NOUN NN dobj 2
5 standing stand VERB VBG acl 4
6 by by ADP IN prep 5
7 the the DET DT det 8
8 door door NOUN NN pobj 6
9 . . PUNCT . punct 2`,

	"He picked up the phone.": `
1 He he PRON PRP nsubj 2
2 picked pick VERB VBD ROOT 0
3 up up ADP RP prt 2
4 the the DET DT det 5
5 phone phone NOUN NN dobj 2
6 . . PUNCT . punct 2`,

	"The car is red. (UD)": `
1 The the DET DT det 2
2 car car NOUN NN nsubj 4
3 is be AUX VBZ cop 4
4 red red ADJ JJ root 0
5 . . PUNCT . punct 4`,

	"The man who runs fast is strong. (UD)": `
1 The the DET DT det 2
2 man man NOUN NN nsubj 7
3 who who PRON WP nsubj 4
4 runs run VERB VBZ acl:relcl 2
5 fast fast ADV RB advmod 4
6 is be AUX VBZ cop 7
7 strong strong ADJ JJ root 0
8 . . PUNCT . punct 7`,

	"He is a teacher who loves books. (UD)": `
1 He he PRON PRP nsubj 4
2 is be AUX VBZ cop 4
3 a a DET DT det 4
4 teacher teacher NOUN NN root 0
5 who who PRON WP nsubj 6
6 loves love VERB VBZ acl:relcl 4
7 books book NOUN NNS obj 6
8 . . PUNCT . punct 4`,

	"He is a man standing there. (UD)": `
1 He he PRON PRP nsubj 4
2 is be AUX VBZ cop 4
3 a a DET DT det 4
4 man man NOUN NN root 0
5 standing stand VERB VBG acl 4
6 there there ADV RB advmod 5
7 . . PUNCT . punct 4`,

	"He is the man to ask. (UD)": `
1 He he PRON PRP nsubj 4
2 is be AUX VBZ cop 4
3 the the DET DT det 4
4 man man NOUN NN root 0
5 to to PART TO mark 6
6 ask ask VERB VB acl 4
7 . . PUNCT . punct 4`,

	"The man standing there who runs is strong.": `
1 The the DET DT det 2
2 man man NOUN NN nsubj 7
3 standing stand VERB VBG acl 2
4 there there ADV RB advmod 3
5 who who PRON WP nsubj 6
6 runs run VERB VBZ relcl 2
7 is be AUX VBZ ROOT 0
8 strong strong ADJ JJ acomp 7
9 . . PUNCT . punct 7`,

	"The girl that I like who sings is here.": `
1 The the DET DT det 2
2 girl girl NOUN NN nsubj 8
3 that that PRON WDT dobj 5
4 I I PRON PRP nsubj 5
5 like like VERB VBP relcl 2
6 who who PRON WP nsubj 7
7 sings sing VERB VBZ relcl 2
8 is be AUX VBZ ROOT 0
9 here here ADV RB advmod 8
10 . . PUNCT . punct 8`,
}

// partialFixtures lists the fixtures with words no value renders: a second
// clause competing for an already decomposed slot is discarded.
var partialFixtures = map[string][]int{
	"The man standing there who runs is strong.": {3, 4},
	"The girl that I like who sings is here.":    {6, 7},
}

// sentenceOf strips a fixture label suffix such as " (UD)".
func sentenceOf(key string) string {
	if i := strings.Index(key, " ("); i >= 0 {
		return key[:i]
	}
	return key
}

func fixtureTokens(t testing.TB, key string) []grammar.Token {
	t.Helper()
	table, ok := fixtures[key]
	require.True(t, ok, "no fixture %q", key)
	return parseTable(t, table)
}

func fixtureTree(t testing.TB, key string) *Tree {
	t.Helper()
	tree, err := NewTree(fixtureTokens(t, key))
	require.NoError(t, err)
	return tree
}

// tableParser serves fixtures by sentence.
type tableParser struct {
	t     testing.TB
	err   error
	calls int
}

func (p *tableParser) Name() string { return "table" }

func (p *tableParser) Parse(_ context.Context, sentence string) ([]grammar.Token, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return fixtureTokens(p.t, sentence), nil
}
