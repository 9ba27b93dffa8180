package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListValue(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringList{"SF", "스릴러"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["SF","스릴러"]`, v)
}

func TestStringListScan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want StringList
	}{
		{"nil", nil, StringList{}},
		{"empty string", "", StringList{}},
		{"bytes", []byte(`["a","b"]`), StringList{"a", "b"}},
		{"string", `["액션"]`, StringList{"액션"}},
		{"json null", "null", StringList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			require.NoError(t, l.Scan(tt.src))
			assert.Equal(t, tt.want, l)
		})
	}

	var l StringList
	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan("not json"))
}

func TestStringListMarshalNilAsEmptyArray(t *testing.T) {
	out, err := json.Marshal(struct {
		Genres StringList `json:"genres"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"genres":[]}`, string(out))
}

func TestStringListContainsIsExact(t *testing.T) {
	l := StringList{"액션", "SF"}
	assert.True(t, l.Contains("액션"))
	assert.False(t, l.Contains("액"))
	assert.False(t, l.Contains("sf"))
}

func TestActorList(t *testing.T) {
	a := ParseActorList(" Leonardo DiCaprio, Elliot Page ,, Tom Hardy")
	assert.Equal(t, ActorList{"Leonardo DiCaprio", "Elliot Page", "Tom Hardy"}, a)
	assert.Equal(t, "Leonardo DiCaprio, Elliot Page, Tom Hardy", a.String())

	v, err := a.Value()
	require.NoError(t, err)
	assert.Equal(t, "Leonardo DiCaprio, Elliot Page, Tom Hardy", v)

	var scanned ActorList
	require.NoError(t, scanned.Scan([]byte("A, B")))
	assert.Equal(t, ActorList{"A", "B"}, scanned)
}

func TestActorListUnmarshalJSON(t *testing.T) {
	var fromList ActorList
	require.NoError(t, json.Unmarshal([]byte(`["A"," B "]`), &fromList))
	assert.Equal(t, ActorList{"A", "B"}, fromList)

	var fromString ActorList
	require.NoError(t, json.Unmarshal([]byte(`"A, B"`), &fromString))
	assert.Equal(t, ActorList{"A", "B"}, fromString)

	var bad ActorList
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}
