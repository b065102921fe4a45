package placetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/gazetteer/pkg/model"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		in   *string
		want *string
	}{
		{model.StringPtr("Ciudad"), model.StringPtr(City)},
		{model.StringPtr(" Villa "), model.StringPtr(Town)},
		{model.StringPtr("[-]"), model.StringPtr(Unspecified)},
		{model.StringPtr("Poblacion"), model.StringPtr(PopulationCenter)},
		{model.StringPtr("Unknown-Category"), nil},
		{model.StringPtr("ciudad"), nil},
		{nil, nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Translate(tt.in))
	}
}

func TestTranslateAll(t *testing.T) {
	places := []*model.CanonicalPlace{
		{PlaceType: model.StringPtr("Fuerte")},
		{PlaceType: model.StringPtr("Hacienda")},
		{PlaceType: nil},
	}

	dropped := TranslateAll(places)

	assert.Equal(t, 1, dropped)
	require.NotNil(t, places[0].PlaceType)
	assert.Equal(t, Fort, *places[0].PlaceType)
	assert.Nil(t, places[1].PlaceType)
	assert.Nil(t, places[2].PlaceType)
}

func TestTable(t *testing.T) {
	table := Table()
	require.Len(t, table, 9)
	assert.Equal(t, Mapping{From: "Ciudad", To: City}, table[0])
	assert.Equal(t, "[-]", table[8].From)
}
