package models

// ReasoningResult is what the reasoning backend returns for one caller utterance.
type ReasoningResult struct {
	Text              string `json:"text"`
	TransferRequested bool   `json:"transferRequested"`
	BookingRequested  bool   `json:"bookingRequested"`
	PatientName       string `json:"patientName,omitempty"` // optional, from a booking tool call
	VisitType         string `json:"visitType,omitempty"`
}
