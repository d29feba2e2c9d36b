package ai

import (
	"regexp"
	"strings"

	"centromedico/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Phrases in the caller's own words that always mean "put me through to a person".
var transferPhrases = []string{
	"operatore", "segretaria", "una persona", "parlare con qualcuno",
	"parlare con la segretaria", "voglio parlare con", "metto in contatto",
	"trasferisci", "trasferire", "voglio un operatore", "voglio la segretaria",
	"posso parlare con", "devo parlare con", "parlare con operatore",
}

var bookingPhrases = []string{
	"prenotare", "prenotazione", "prenotato", "prenotiamo",
	"appuntamento", "appuntamenti", "visita", "visite",
	"disponibilità", "disponibile", "fissare", "fissiamo", "fisso", "prenota",
}

type visitCategory struct {
	name     string
	keywords []string
}

// Checked in order; the first category with a matching keyword wins.
var visitCategories = []visitCategory{
	{"eco-color-doppler", []string{"doppler", "ecodoppler", "circolazione", "gambe"}},
	{"emorroidi", []string{"emorroidi", "emorroide"}},
	{"medicina estetica", []string{"estetica", "botox", "filler"}},
}

var (
	// Capitalised name, up to two words: "mi chiamo Mario Rossi".
	properNamePattern = regexp.MustCompile(`(?i:mi chiamo|sono|chiamo)\s+(\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+)?)`)
	// Any single word after an introduction, for transcripts without capitals.
	loweredNamePattern = regexp.MustCompile(`(?i)(?:mi chiamo|sono|chiamo)\s+(\p{L}+)`)

	// Words that commonly follow "sono" without being a name.
	notNames = map[string]bool{
		"qui": true, "io": true, "un": true, "una": true, "il": true, "la": true, "lo": true,
		"stato": true, "stata": true, "contento": true, "contenta": true, "interessato": true,
		"interessata": true, "disponibile": true, "libero": true, "libera": true, "in": true,
		"di": true, "a": true, "al": true, "alla": true, "già": true, "ancora": true, "molto": true,
	}
)

// WantsOperator reports whether the caller explicitly asked for a person.
func WantsOperator(utterance string) bool {
	return containsAny(strings.ToLower(utterance), transferPhrases)
}

// WantsBooking reports whether the caller asked for an appointment and the reply
// goes along with it.
func WantsBooking(utterance, reply string) bool {
	if !containsAny(strings.ToLower(utterance), bookingPhrases) {
		return false
	}
	r := strings.ToLower(reply)
	has := func(s string) bool { return strings.Contains(r, s) }
	switch {
	case has("prenot"), has("fissiamo"):
		return true
	case has("appuntamento") && has("fiss"):
		return true
	case has("disponibile") && (has("quando") || has("orario")):
		return true
	case has("quando") && (has("visita") || has("appuntamento")):
		return true
	}
	return false
}

// ExtractName finds the patient's name in an introduction such as "mi chiamo Anna Bianchi".
// It returns "" when there is none.
func ExtractName(text string) string {
	if m := properNamePattern.FindStringSubmatch(text); m != nil {
		return titleCase(m[1])
	}
	if m := loweredNamePattern.FindStringSubmatch(text); m != nil && !notNames[strings.ToLower(m[1])] {
		return titleCase(m[1])
	}
	return ""
}

// ExtractVisitType maps the utterance to a visit category, defaulting to a generic visit.
func ExtractVisitType(utterance string) string {
	u := strings.ToLower(utterance)
	for _, c := range visitCategories {
		if containsAny(u, c.keywords) {
			return c.name
		}
	}
	return models.VisitGeneric
}

// titleCase builds a fresh Caser per call; Casers are not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.Italian).String(s)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
