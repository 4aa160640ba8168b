package gemini

import (
	"fmt"
	"strings"

	"github.com/shenikar/incident_response_system/internal/gateway"
)

func classifyPrompt(in gateway.ClassifyInput) string {
	return fmt.Sprintf(`Analyze the provided media captured at location (Lat: %g, Lng: %g).
Identify the incident type, its severity, and provide emergency instructions and nearby services.
Start the incident type with one of: Fire, Flood, Accident, Collapse, Crowd, Environmental, when one applies.`,
		in.Latitude, in.Longitude)
}

func translatePrompt(in gateway.TranslateInput) string {
	return fmt.Sprintf(`You are an expert translator specializing in emergency communications.
CRITICAL: You MUST translate the following emergency information into the native script of %[1]s.
- Tamil -> Tamil script
- Kannada -> Kannada script
- Hindi -> Devanagari script
- Chinese -> Simplified Chinese characters
- Japanese -> Kanji/Kana
- Arabic -> Arabic script
Do NOT use Romanized characters. Use the actual native characters.

Information to translate:
Situation: %[2]s
Precautions: %[3]s
Instructions: %[4]s

Set "language" to %[1]s.`, in.Language, in.SituationAnalysis, in.Precautions, in.WhatToDoNow)
}

func speechPrompt(in gateway.SpeechInput) string {
	return fmt.Sprintf("Speak this emergency report clearly in %s. Ensure the pronunciation is accurate for the native script: %s",
		in.Language, in.Text)
}

func summarySystemPrompt(language string) string {
	return fmt.Sprintf(`You are an Emergency Dispatch Voice Agent.
Generate a calm, authoritative emergency voice message ONLY in the native script of %s.
Rules:
1. Output plain text only, no markdown.
2. Use only the native script of the selected language.
3. Do not use English characters or words unless the language is English.
4. Do not mention AI or internal systems.
Structure: emergency alert statement, location confirmation, incident type, immediate instruction.`, language)
}

func summaryPrompt(in gateway.SummaryInput, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate the emergency brief in the native script of %s.\n", language)
	fmt.Fprintf(&b, "Location: %s\n", in.Location)
	fmt.Fprintf(&b, "Incident: %s\n", in.IncidentType)
	fmt.Fprintf(&b, "Severity: %s\n", in.Severity)
	fmt.Fprintf(&b, "Context: %s\n", in.SituationAnalysis)
	if in.AuthorityRecommendation != "" {
		fmt.Fprintf(&b, "Responders: %s\n", in.AuthorityRecommendation)
	}
	return b.String()
}
