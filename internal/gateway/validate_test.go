package gateway

import (
	"testing"

	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestValidate_ClassifyInput(t *testing.T) {
	v := NewValidator()

	err := Validate(v, CapabilityClassify, ClassifyInput{
		MediaDataURI: "data:image/jpeg;base64,anBlZy1ieXRlcw==",
		Latitude:     13.0827,
		Longitude:    80.2707,
	})
	assert.NoError(t, err)

	err = Validate(v, CapabilityClassify, ClassifyInput{MediaDataURI: "not-a-uri", Latitude: 13, Longitude: 80})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	err = Validate(v, CapabilityClassify, ClassifyInput{MediaDataURI: "data:image/jpeg;base64,anBlZy1ieXRlcw==", Latitude: 123})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestValidate_SeverityEnum(t *testing.T) {
	v := NewValidator()
	base := ClassifyOutput{
		IncidentType:           "Fire",
		NearbyFireStations:     "Egmore Fire Station",
		NearbyHospitals:        "General Hospital",
		NearbyPoliceStations:   "Egmore Police Station",
		SituationAnalysis:      "Smoke visible.",
		Precautions:            "Stay low.",
		WhatToDoNow:            "Evacuate.",
		AuthoritiesToBeAlerted: "Fire & Rescue",
	}

	for _, s := range []string{"High", "🔴 High", "🟢 Low", "Medium"} {
		out := base
		out.Severity = models.Severity(s)
		assert.NoError(t, Validate(v, CapabilityClassify, out), s)
	}

	out := base
	out.Severity = "Catastrophic"
	assert.Error(t, Validate(v, CapabilityClassify, out))
}
