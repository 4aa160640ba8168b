package language

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shenikar/incident_response_system/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name                         string
		city, state, country, target string
		want                         string
	}{
		{"chennai", "Chennai", "Tamil Nadu", "India", "", "Tamil"},
		{"english sentinel with empty place", "", "", "", "English", "English"},
		{"unknown place", "Unknown City", "Unknown State", "Narnia", "", "English"},
		{"bengaluru by city", "Bengaluru", "", "", "", "Kannada"},
		{"karnataka by state", "Mysuru", "Karnataka", "India", "", "Kannada"},
		{"explicit language wins", "Chennai", "Tamil Nadu", "India", "Swahili", "Swahili"},
		{"regional sentinel resolves", "Kolkata", "West Bengal", "India", "Regional Language", "Bengali"},
		{"hindi sentinel resolves by place", "Tokyo", "Tokyo", "Japan", "Hindi", "Japanese"},
		{"case insensitive", "PARIS", "", "", "", "French"},
		{"mexico by country", "Mexico City", "CDMX", "Mexico", "", "Spanish"},
		{"unicode city", "São Paulo", "SP", "Brazil", "", "Portuguese"},
		{"seoul", "Seoul", "", "South Korea", "", "Korean"},
		{"delhi is hindi", "New Delhi", "Delhi", "India", "", "Hindi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.city, tt.state, tt.country, tt.target))
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	first := Resolve("Hyderabad", "Telangana", "India", "")
	second := Resolve("Hyderabad", "Telangana", "India", "")
	assert.Equal(t, first, second)
	assert.Equal(t, "Telugu", first)
}

func TestForMode(t *testing.T) {
	beijing, _ := models.Preset("Beijing Sector")

	assert.Equal(t, "Chinese", ForMode(beijing, models.LanguageModeRegional))
	assert.Equal(t, "Hindi", ForMode(beijing, models.LanguageModeHindi))
	assert.Equal(t, "English", ForMode(beijing, models.LanguageModeEnglish))

	// пустое местоположение -> штаб в Ченнаи
	assert.Equal(t, "Tamil", ForMode(models.Location{}, models.LanguageModeRegional))
	assert.Equal(t, "English", ForMode(models.GPSLocation(1, 2), models.LanguageModeRegional))
}
