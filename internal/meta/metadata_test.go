package meta

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlugifiesKeys(t *testing.T) {
	m := New(map[string]string{"Vergi Dairesi": "Kadıköy", "IBAN": "TR00", "!!": "dropped"})
	assert.Equal(t, Metadata{"vergi_dairesi": "Kadıköy", "iban": "TR00"}, m)
}

func TestMergeAndClone(t *testing.T) {
	m := New(map[string]string{"a": "1", "b": "2"})
	m.Merge(Metadata{"b": "", "c": "3"})
	assert.Equal(t, Metadata{"a": "1", "c": "3"}, m)

	cloned := m.Clone()
	cloned["a"] = "changed"
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, Metadata{}, Metadata(nil).Clone())
}

func TestValidationLimits(t *testing.T) {
	pairs := make(map[string]string)
	for i := 0; i < MaxPairs+1; i++ {
		pairs["key_"+strings.Repeat("x", i+1)] = "v"
	}
	assert.Error(t, New(pairs).Validate())

	assert.Error(t, Metadata{"Bad Key": "v"}.Validate())
	assert.Error(t, Metadata{"k1": strings.Repeat("v", MaxValLen+1)}.Validate())
	assert.NoError(t, Metadata{"notes": "pays monthly"}.Validate())
}

func TestStableJSONAndRoundtrip(t *testing.T) {
	m := New(map[string]string{"b": "2", "a": "1"})
	b1, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"1","b":"2"}`, string(b1))

	var back Metadata
	require.NoError(t, json.Unmarshal(b1, &back))
	assert.Equal(t, m, back)

	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.Empty(t, back)
}
