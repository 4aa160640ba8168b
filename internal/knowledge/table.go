// Package knowledge хранит справочные рекомендации по категориям инцидентов.
package knowledge

import (
	"strings"

	"github.com/shenikar/incident_response_system/internal/models"
)

var categories = []string{"Fire", "Flood", "Accident", "Collapse", "Crowd", "Environmental"}

var table = map[string]models.IncidentDefaults{
	"Fire": {
		SituationAnalysis:            "A fire incident has been detected. This is dangerous due to potential burns, smoke inhalation, and structural collapse.",
		Precautions:                  "Stay low to the ground to avoid smoke inhalation. Cover your mouth and nose with a damp cloth. Evacuate immediately if possible.",
		WhatToDoNow:                  "1. Evacuate the building immediately. 2. Call the fire department. 3. Assist others in evacuating if it is safe to do so.",
		AuthorityAlertRecommendation: "Alert the Fire & Rescue Department immediately. Also, alert Emergency Medical Services in case of injuries.",
	},
	"Flood": {
		SituationAnalysis:            "A flood incident has been detected. This is dangerous due to potential drowning, electrocution, and waterborne diseases.",
		Precautions:                  "Move to higher ground immediately. Avoid contact with floodwater. Turn off electricity if it is safe to do so.",
		WhatToDoNow:                  "1. Move to the highest level of the building. 2. Wait for emergency responders. 3. Avoid walking or driving through floodwater.",
		AuthorityAlertRecommendation: "Alert the Flood Control Department and Emergency Medical Services due to potential injuries or health hazards.",
	},
	"Accident": {
		SituationAnalysis:            "A road accident has been detected. This may cause injuries and traffic congestion.",
		Precautions:                  "If you are near the accident, maintain a safe distance. Do not obstruct emergency responders. If involved, check for injuries and call for help.",
		WhatToDoNow:                  "1. If involved, call emergency services. 2. Provide first aid if trained. 3. Stay calm and assist authorities.",
		AuthorityAlertRecommendation: "Alert the Police Department and Emergency Medical Services immediately.",
	},
	"Collapse": {
		SituationAnalysis:            "A building collapse has been detected. This is extremely dangerous due to potential for serious injuries or fatalities from falling debris.",
		Precautions:                  "Evacuate immediately to a safe distance. Watch out for falling debris and power lines.",
		WhatToDoNow:                  "1. Clear the area immediately. 2. Assist in rescuing trapped individuals if safe. 3. Alert emergency services.",
		AuthorityAlertRecommendation: "Alert Fire & Rescue Department and Emergency Medical Services to search for survivors and provide medical aid.",
	},
	"Crowd": {
		SituationAnalysis:            "A crowd hazard incident has been detected. Large gatherings can become dangerous due to trampling or stampede risks.",
		Precautions:                  "Maintain situational awareness. Stay on the edges of the crowd. Identify escape routes.",
		WhatToDoNow:                  "1. Avoid entering crowded areas if possible. 2. Stay calm and move with the flow of the crowd. 3. If feeling overwhelmed, move to an exit.",
		AuthorityAlertRecommendation: "Alert the Police Department to monitor and manage the crowd to prevent escalating dangers.",
	},
	"Environmental": {
		SituationAnalysis:            "An environmental risk has been detected, such as a chemical spill. This poses health risks to the population.",
		Precautions:                  "Avoid the affected area. Stay indoors if possible. Seal windows and doors.",
		WhatToDoNow:                  "1. Follow instructions from local authorities. 2. Evacuate if instructed to do so. 3. Seek medical attention if exposed.",
		AuthorityAlertRecommendation: "Alert environmental protection agencies and emergency medical services for monitoring and response.",
	},
}

var unknown = models.IncidentDefaults{
	SituationAnalysis:            "No analysis available.",
	Precautions:                  "No precautions available.",
	WhatToDoNow:                  "No guidance available.",
	AuthorityAlertRecommendation: "No recommendation available.",
}

// Lookup ищет рекомендации по первому слову типа инцидента (с учетом регистра).
// Для неизвестных категорий возвращает заглушки "No ... available.".
func Lookup(incidentType string) models.IncidentDefaults {
	key, _, _ := strings.Cut(strings.TrimSpace(incidentType), " ")
	if d, ok := table[key]; ok {
		return d
	}
	return unknown
}

// Known сообщает, есть ли категория в справочнике
func Known(incidentType string) bool {
	key, _, _ := strings.Cut(strings.TrimSpace(incidentType), " ")
	_, ok := table[key]
	return ok
}

// Categories возвращает известные категории
func Categories() []string {
	return append([]string(nil), categories...)
}
