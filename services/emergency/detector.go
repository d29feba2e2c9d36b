package emergency

import (
	"fmt"
	"regexp"
	"strings"
)

const nationalEmergencyNumber = "118"

var defaultKeywords = []string{
	"emergenza",
	"emergenze",
	"dolore acuto",
	"urgente",
	"pronto soccorso",
}

// Detector flags caller text that describes a medical emergency.
type Detector struct {
	keywords []string
	numbers  []*regexp.Regexp // matched on digit boundaries only
	number   string
}

// NewDetector returns a Detector that also matches the emergency number itself.
func NewDetector(emergencyNumber string) *Detector {
	number := strings.TrimSpace(emergencyNumber)
	if number == "" {
		number = nationalEmergencyNumber
	}
	numbers := []*regexp.Regexp{numberPattern(number)}
	if number != nationalEmergencyNumber {
		numbers = append(numbers, numberPattern(nationalEmergencyNumber))
	}
	return &Detector{keywords: defaultKeywords, numbers: numbers, number: number}
}

// Normalize lowercases text and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// IsEmergency reports whether text contains any emergency keyword.
func (d *Detector) IsEmergency(text string) bool {
	norm := Normalize(text)
	if norm == "" {
		return false
	}
	for _, kw := range d.keywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	for _, re := range d.numbers {
		if re.MatchString(norm) {
			return true
		}
	}
	return false
}

// numberPattern matches number as a whole, so "1184455" read out as a phone
// number does not count as "118".
func numberPattern(number string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^0-9])` + regexp.QuoteMeta(number) + `([^0-9]|$)`)
}

// Response is the fixed message read to a caller in an emergency.
func (d *Detector) Response() string {
	return fmt.Sprintf("Per le emergenze mediche le consiglio di contattare immediatamente il %s o di recarsi al pronto soccorso più vicino.", d.number)
}
