package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/gazetteer/pkg/model"
)

func place(id int64, name string, score *int) *model.CanonicalPlace {
	return &model.CanonicalPlace{
		OriginalSourceID: id,
		Source:           model.SourceHGIS,
		PlaceName:        name,
		CertaintyScore:   score,
	}
}

func TestDeduplicateKeepsHighestCertainty(t *testing.T) {
	buena := place(7, "Buena", model.IntPtr(85))
	exacta := place(7, "Exacta", model.IntPtr(100))

	result := Deduplicate([]*model.CanonicalPlace{buena, exacta})

	require.Len(t, result.Places, 1)
	assert.Equal(t, "Exacta", result.Places[0].PlaceName)
	assert.Equal(t, 1, result.Discarded)
}

func TestDeduplicateTiesKeepInputOrder(t *testing.T) {
	first := place(3, "first", model.IntPtr(70))
	second := place(3, "second", model.IntPtr(70))
	unscored := place(3, "unscored", nil)

	result := Deduplicate([]*model.CanonicalPlace{unscored, first, second})

	require.Len(t, result.Places, 1)
	assert.Equal(t, "first", result.Places[0].PlaceName)
}

func TestDeduplicateAbsentScoresRankLast(t *testing.T) {
	unscored := place(1, "unscored", nil)
	low := place(1, "low", model.IntPtr(25))

	result := Deduplicate([]*model.CanonicalPlace{unscored, low})
	require.Len(t, result.Places, 1)
	assert.Equal(t, "low", result.Places[0].PlaceName)
}

func TestDeduplicateDistinguishesSources(t *testing.T) {
	hgis := place(5, "hgis", nil)
	tgn := place(5, "tgn", nil)
	tgn.Source = model.SourceTGN

	result := Deduplicate([]*model.CanonicalPlace{hgis, tgn})
	assert.Len(t, result.Places, 2)
	assert.Zero(t, result.Discarded)
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	candidates := []*model.CanonicalPlace{
		place(1, "a", model.IntPtr(50)),
		place(2, "b", nil),
		place(1, "c", model.IntPtr(100)),
		place(3, "d", model.IntPtr(40)),
		place(2, "e", model.IntPtr(25)),
	}

	once := Deduplicate(candidates)
	twice := Deduplicate(once.Places)

	assert.Equal(t, once.Places, twice.Places)
	assert.Zero(t, twice.Discarded)
	assert.Len(t, candidates, 5, "input must not be modified")
	assert.Equal(t, "a", candidates[0].PlaceName)
}
