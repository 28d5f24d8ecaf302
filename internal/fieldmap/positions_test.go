package fieldmap_test

import (
	"testing"

	"crew-recruitment-backend/internal/fieldmap"

	"github.com/stretchr/testify/assert"
)

func TestStandardizePosition(t *testing.T) {
	cases := []struct {
		in       string
		standard string
		category string
	}{
		{"Captain", "Captain", fieldmap.CategoryDeck},
		{"  SKIPPER ", "Captain", fieldmap.CategoryDeck},
		{"1st Officer", "Chief Officer", fieldmap.CategoryDeck},
		{"Deck Hand", "Deckhand", fieldmap.CategoryDeck},
		{"2nd Engineer", "Second Engineer", fieldmap.CategoryEngineering},
		{"Chief Stew", "Chief Stewardess", fieldmap.CategoryInterior},
		{"Stewardéss", "Stewardess", fieldmap.CategoryInterior},
		{"cook / stew", "Cook/Stewardess", fieldmap.CategoryGalley},
		{"Sous-Chef", "Sous-Chef", fieldmap.CategoryOther},
		{"Head Chef", "Head Chef", fieldmap.CategoryGalley},
		{"Helicopter Pilot", "Helicopter Pilot", fieldmap.CategoryOther},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			p := fieldmap.StandardizePosition(tc.in)
			assert.Equal(t, tc.standard, p.StandardName)
			assert.Equal(t, tc.category, p.Category)
		})
	}
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, []string{"permanent", "rotational"}, fieldmap.NormalizeContractTypes("Perm / Rotation"))
	assert.Equal(t, []string{"motor", "sail"}, fieldmap.NormalizeYachtTypes("M/Y, Sailing"))
	assert.Equal(t, "Master 3000GT", fieldmap.NormalizeLicense("master (3000 gt)"))
	assert.Equal(t, "Second Engineer Unlimited", fieldmap.NormalizeLicense("2nd Engineer Unlimited"))
	assert.Equal(t, "Yachtmaster Offshore", fieldmap.NormalizeLicense("YM Offshore"))
	assert.Equal(t, "Something Else", fieldmap.NormalizeLicense(" Something Else "))

	status, ok := fieldmap.NormalizeAvailabilityStatus("Not available until June")
	assert.True(t, ok)
	assert.Equal(t, "unavailable", status)

	_, ok = fieldmap.NormalizeAvailabilityStatus("maybe")
	assert.False(t, ok)
}
