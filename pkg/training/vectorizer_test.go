package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	v, err := NewVectorizer(100, StopWordsNone, 0)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"ciudad", "de", "mexico", "tenochtitlan", "city"},
		v.Tokenize("Ciudad de México|Tenochtitlan a City"))

	spanish, err := NewVectorizer(100, "Spanish", 0)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"ciudad", "mexico", "tenochtitlan", "city"},
		spanish.Tokenize("Ciudad de México|Tenochtitlan a City"))

	_, err = NewVectorizer(100, "klingon", 0)
	assert.Error(t, err)
}

func TestFitKeepsMostFrequentTerms(t *testing.T) {
	v, err := NewVectorizer(2, StopWordsNone, 0)
	require.NoError(t, err)
	require.NoError(t, v.Fit([]string{"alpha beta", "alpha gamma", "alpha beta delta"}))

	assert.Equal(t, []string{"alpha", "beta"}, v.Terms)
	assert.InDelta(t, 1.0, v.IDF[v.Vocabulary["alpha"]], 1e-12)
	assert.InDelta(t, math.Log(4.0/3.0)+1, v.IDF[v.Vocabulary["beta"]], 1e-12)

	assert.Error(t, v.Fit(nil))
	assert.Error(t, v.Fit([]string{"a", "?"}))
}

func TestTransformIsNormalized(t *testing.T) {
	v, err := NewVectorizer(100, StopWordsNone, 0)
	require.NoError(t, err)
	require.NoError(t, v.Fit([]string{"alpha beta", "alpha gamma", "alpha beta delta"}))

	vec := v.Transform("beta alpha beta")
	require.Len(t, vec.Indices, 2)
	assert.Less(t, vec.Indices[0], vec.Indices[1])
	assert.InDelta(t, 1.0, vec.Dot(vec), 1e-12)

	assert.Empty(t, v.Transform("zeta").Indices)
}

func TestFuzzyLookup(t *testing.T) {
	fuzzy, err := NewVectorizer(100, StopWordsNone, 1)
	require.NoError(t, err)
	require.NoError(t, fuzzy.Fit([]string{"mexico city"}))

	vec := fuzzy.Transform("Mexco")
	require.Len(t, vec.Indices, 1)
	assert.Equal(t, fuzzy.Vocabulary["mexico"], vec.Indices[0])

	assert.Empty(t, fuzzy.Transform("cty").Indices, "short tokens are not matched fuzzily")
	assert.Empty(t, fuzzy.Transform("mxco").Indices, "two edits away")

	exact, err := NewVectorizer(100, StopWordsNone, 0)
	require.NoError(t, err)
	require.NoError(t, exact.Fit([]string{"mexico city"}))
	assert.Empty(t, exact.Transform("Mexco").Indices)
}

func TestSparseDot(t *testing.T) {
	a := SparseVector{Indices: []int32{0, 2, 5}, Values: []float64{1, 2, 3}}
	b := SparseVector{Indices: []int32{2, 3, 5}, Values: []float64{4, 7, 0.5}}
	assert.InDelta(t, 9.5, a.Dot(b), 1e-12)
	assert.Zero(t, a.Dot(SparseVector{}))
}
