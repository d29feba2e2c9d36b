package models

import "time"

// Role identifies who spoke a Turn.
type Role string

const (
	RoleCaller    Role = "caller"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a call. Turns are never modified after being appended.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// CallSession is the conversation state of one live phone call.
type CallSession struct {
	CallID            string    `json:"callSid"`
	CallerNumber      string    `json:"from"`
	Turns             []Turn    `json:"turns"`
	BookingInProgress bool      `json:"bookingInProgress"`
	OutOfHours        bool      `json:"outOfHours"` // latched when the call starts
	ReasoningFailures int       `json:"reasoningFailures"`
	EmptyInputs       int       `json:"emptyInputs"`
	CreatedAt         time.Time `json:"createdAt"`
	LastActivity      time.Time `json:"lastActivity"`
}

// Recent returns at most the last n turns, oldest first.
func (s CallSession) Recent(n int) []Turn {
	if n <= 0 || len(s.Turns) <= n {
		return append([]Turn(nil), s.Turns...)
	}
	return append([]Turn(nil), s.Turns[len(s.Turns)-n:]...)
}

// Clone returns a deep copy safe to hand out of the session store.
func (s CallSession) Clone() CallSession {
	c := s
	c.Turns = append([]Turn(nil), s.Turns...)
	return c
}

// CallSummary is the admin view of an active call.
type CallSummary struct {
	CallID       string    `json:"callSid"`
	CallerNumber string    `json:"from"`
	Turns        int       `json:"turns"`
	OutOfHours   bool      `json:"outOfHours"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}
