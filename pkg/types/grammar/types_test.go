package grammar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_Sub(t *testing.T) {
	assert.Equal(t, SubSlot("sub-s"), SlotS.Sub())
	assert.Equal(t, SubSlot("sub-aux"), SlotAux.Sub())
	assert.Equal(t, SubSlot("sub-m2"), SlotM2.Sub())

	main, ok := SubSlot("sub-o1").Main()
	require.True(t, ok)
	assert.Equal(t, SlotO1, main)

	_, ok = SubSlot("o1").Main()
	assert.False(t, ok)
}

func TestParseSlot(t *testing.T) {
	s, ok := ParseSlot("aux")
	require.True(t, ok)
	assert.Equal(t, SlotAux, s)

	_, ok = ParseSlot("X1")
	assert.False(t, ok)
	assert.Equal(t, 9, SlotM3.Rank())
	assert.True(t, SlotM1.IsModifier())
	assert.False(t, SlotC1.IsModifier())
}

func TestSubSlotGroup_JSON(t *testing.T) {
	g := SubSlotGroup{
		Parent: SlotS,
		Values: map[SubSlot]string{"sub-s": "The man who", "sub-v": "runs", "sub-m2": ""},
	}
	data, err := json.Marshal(g)
	require.NoError(t, err)

	var flat map[string]string
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "S", flat["_parent_slot"])
	assert.Equal(t, "The man who", flat["sub-s"])
	v, present := flat["sub-m2"]
	assert.True(t, present)
	assert.Equal(t, "", v)

	var back SubSlotGroup
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, g.Parent, back.Parent)
	assert.Equal(t, g.Values, back.Values)
}

func TestSubSlotGroup_UnmarshalRejectsUnknown(t *testing.T) {
	var g SubSlotGroup
	assert.Error(t, g.UnmarshalJSON([]byte(`{"sub-s":"x"}`)))
	assert.Error(t, g.UnmarshalJSON([]byte(`{"_parent_slot":"S","subject":"x"}`)))
}

func TestOrderedResult_Reconstruct(t *testing.T) {
	r := &OrderedResult{
		MainSlots: map[Slot]string{SlotS: "", SlotV: "is", SlotC1: "strong"},
		SubSlots: map[Slot]SubSlotGroup{
			SlotS: {Parent: SlotS, Values: map[SubSlot]string{"sub-s": "The man who", "sub-v": "runs", "sub-m2": "fast"}},
		},
		Order: map[string]int{
			"S": 1, "S.sub-s": 2, "S.sub-v": 3, "S.sub-m2": 4, "V": 5, "C1": 6,
		},
	}
	assert.Equal(t, "The man who runs fast is strong", r.Reconstruct())

	ordered := r.Ordered()
	require.Len(t, ordered, 6)
	assert.Equal(t, "S", ordered[0].Key)
	assert.Equal(t, SubSlot("sub-s"), ordered[1].Sub)
	assert.Equal(t, OrderKey(SlotS, "sub-v"), ordered[2].Key)
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"if", "it", "rains", "tomorrow", "i", "will", "stay", "home"},
		Words("If it rains tomorrow, I will stay home."))
	assert.Equal(t, Words("Café au lait ?"), Words("cafe\u0301 au lait"))
	assert.Empty(t, Words(" . , "))
}
