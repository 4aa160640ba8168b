package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_FirstTokenOnly(t *testing.T) {
	got := Lookup("Fire accident")
	assert.Equal(t, Lookup("Fire"), got)
	assert.Contains(t, got.AuthorityAlertRecommendation, "Fire & Rescue")
	assert.True(t, Known("Fire accident"))
}

func TestLookup_Unknown(t *testing.T) {
	got := Lookup("Unknown")
	assert.Equal(t, "No analysis available.", got.SituationAnalysis)
	assert.Equal(t, "No precautions available.", got.Precautions)
	assert.Equal(t, "No guidance available.", got.WhatToDoNow)
	assert.Equal(t, "No recommendation available.", got.AuthorityAlertRecommendation)
}

func TestLookup_CaseSensitive(t *testing.T) {
	assert.Equal(t, "No analysis available.", Lookup("fire").SituationAnalysis)
	assert.False(t, Known("flood"))
	assert.Equal(t, "No analysis available.", Lookup("").SituationAnalysis)
}

func TestCategoriesCovered(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, Known(c), c)
	}
	assert.Len(t, Categories(), 6)
}
