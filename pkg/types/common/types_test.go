package common

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

func TestTimestamp_MarshalJSON(t *testing.T) {
	ts := Timestamp(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-01T10:00:00Z"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Time().Equal(ts.Time()))
}

func TestTimestamp_UnmarshalJSON_Invalid(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestNewSentenceMessage(t *testing.T) {
	m := NewSentenceMessage("He runs.")
	_, err := uuid.Parse(m.ID)
	assert.NoError(t, err)
	assert.Equal(t, "He runs.", m.Sentence)
	assert.False(t, m.SubmittedAt.Time().IsZero())
}

func TestResultMessage_CarriesSubSlotParent(t *testing.T) {
	msg := ResultMessage{
		ID:       "m-1",
		Sentence: "The man who runs is here.",
		Result: &grammar.OrderedResult{
			MainSlots: map[grammar.Slot]string{grammar.Slot("S"): ""},
			SubSlots: map[grammar.Slot]grammar.SubSlotGroup{
				grammar.Slot("S"): {Parent: grammar.Slot("S"), Values: map[grammar.SubSlot]string{"sub-s": "The man who"}},
			},
		},
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"_parent_slot":"S"`)
}

func TestResponses(t *testing.T) {
	ok := NewSuccessResponse(HandlerList{Active: []string{"passive"}})
	assert.True(t, ok.Success)
	assert.Nil(t, ok.Error)

	bad := NewErrorResponse("GRAM_005", "unknown handler", `id="foo"`)
	assert.False(t, bad.Success)
	assert.Equal(t, "GRAM_005", bad.Error.Code)
}

func TestGenerateID(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateID("batch"), "batch-"))
	assert.NotEqual(t, GenerateID(""), GenerateID(""))
}

//Personal.AI order the ending
