package models

// Directive is the instruction returned to the telephony gateway for one webhook.
// The set of implementations is closed: Speak, GatherNextInput, Transfer, Hangup.
type Directive interface {
	directive()
	// Text is what the caller hears first.
	Text() string
}

// Speak says a message and then keeps listening.
type Speak struct {
	Message string
}

// GatherNextInput says a prompt while collecting the caller's next utterance.
type GatherNextInput struct {
	Prompt string
}

// Transfer connects the caller to another line after a spoken lead-in.
type Transfer struct {
	Decision TransferDecision
	LeadIn   string
}

// Hangup says a final message and ends the call.
type Hangup struct {
	FinalText string
}

func (Speak) directive()           {}
func (GatherNextInput) directive() {}
func (Transfer) directive()        {}
func (Hangup) directive()          {}

func (d Speak) Text() string           { return d.Message }
func (d GatherNextInput) Text() string { return d.Prompt }
func (d Transfer) Text() string        { return d.LeadIn }
func (d Hangup) Text() string          { return d.FinalText }

// TransferKind selects which TransferDecision fields are meaningful.
type TransferKind int

const (
	TransferInternal TransferKind = iota + 1
	TransferExternal
)

// TransferDecision is where a transfer goes. Extension is set for internal
// transfers; Target and ViaTrunk are set for external ones.
type TransferDecision struct {
	Kind      TransferKind `json:"kind"`
	Extension string       `json:"extension,omitempty"`
	Target    string       `json:"target,omitempty"`
	ViaTrunk  string       `json:"viaTrunk,omitempty"`
}

// InternalExtension builds an internal-line decision.
func InternalExtension(ext string) TransferDecision {
	return TransferDecision{Kind: TransferInternal, Extension: ext}
}

// ExternalNumber builds an external-line decision placed via trunk.
func ExternalNumber(target, viaTrunk string) TransferDecision {
	return TransferDecision{Kind: TransferExternal, Target: target, ViaTrunk: viaTrunk}
}

// Destination is the number to dial.
func (d TransferDecision) Destination() string {
	if d.Kind == TransferExternal {
		return d.Target
	}
	return d.Extension
}
