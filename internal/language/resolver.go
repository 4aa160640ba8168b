// Package language сопоставляет место с языком, на котором говорят в регионе.
package language

import (
	"strings"

	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"

	"github.com/shenikar/incident_response_system/internal/models"
)

// Default - язык, если ни одно правило не подошло
const Default = "English"

type field int

const (
	fieldCity field = iota
	fieldState
	fieldCountry
)

type match struct {
	field  field
	substr string
}

type rule struct {
	language string
	any      []match
}

func city(s string) match    { return match{fieldCity, s} }
func state(s string) match   { return match{fieldState, s} }
func country(s string) match { return match{fieldCountry, s} }

// Порядок важен только для пересекающихся подстрок.
var rules = []rule{
	{"Tamil", []match{state("tamil"), city("chennai")}},
	{"Kannada", []match{state("karnataka"), city("bangalore"), city("bengaluru")}},
	{"Marathi", []match{state("maharashtra"), city("mumbai"), city("pune")}},
	{"Telugu", []match{state("telangana"), state("andhra"), city("hyderabad")}},
	{"Bengali", []match{state("west bengal"), city("kolkata")}},
	{"Gujarati", []match{state("gujarat"), city("ahmedabad")}},
	{"Malayalam", []match{state("kerala"), city("kochi")}},
	{"Hindi", []match{state("delhi"), state("uttar"), state("bihar"), state("haryana")}},

	{"Chinese", []match{country("china"), city("beijing"), city("shanghai")}},
	{"Japanese", []match{country("japan"), city("tokyo"), city("osaka")}},
	{"French", []match{country("france"), city("paris")}},
	{"German", []match{country("germany"), city("berlin"), city("munich")}},
	{"Spanish", []match{country("spain"), country("madrid"), country("mexico"), country("argentina")}},
	{"Italian", []match{country("italy"), city("rome"), city("milan")}},
	{"Russian", []match{country("russia"), city("moscow")}},
	{"Portuguese", []match{country("brazil"), country("portugal")}},
	{"Korean", []match{country("korea"), city("seoul")}},
}

// isSentinel сообщает, что target - это режим панели, а не конкретный язык
func isSentinel(target string) bool {
	switch target {
	case models.LanguageModeRegional, models.LanguageModeHindi, models.LanguageModeEnglish:
		return true
	}
	return false
}

func lower(s string) string {
	return cases.Lower(textlang.Und).String(s)
}

// Resolve возвращает язык для места. Явно заданный язык (не режим панели)
// возвращается как есть. Функция чистая и не может завершиться ошибкой.
func Resolve(cityName, stateName, countryName, explicitTarget string) string {
	if explicitTarget != "" && !isSentinel(explicitTarget) {
		return explicitTarget
	}

	values := [...]string{
		fieldCity:    lower(cityName),
		fieldState:   lower(stateName),
		fieldCountry: lower(countryName),
	}
	for _, r := range rules {
		for _, m := range r.any {
			if strings.Contains(values[m.field], m.substr) {
				return r.language
			}
		}
	}
	return Default
}

// ForMode выбирает язык перевода по режиму панели и местоположению.
// Пустые поля местоположения заменяются штабом в Ченнаи.
func ForMode(loc models.Location, mode string) string {
	switch mode {
	case models.LanguageModeHindi:
		return "Hindi"
	case models.LanguageModeEnglish:
		return "English"
	}
	return Resolve(
		orDefault(loc.City, "Chennai"),
		orDefault(loc.State, "Tamil Nadu"),
		orDefault(loc.Country, "India"),
		mode,
	)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
