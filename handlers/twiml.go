package handlers

import (
	"fmt"
	"strconv"
	"time"

	"centromedico/models"
	"centromedico/utils"

	"github.com/twilio/twilio-go/twiml"
)

// Webhook paths the rendered markup points back to.
const (
	VoicePath          = "/webhook/voice"
	ProcessPath        = "/webhook/voice/process"
	StatusPath         = "/webhook/voice/status"
	RecordingPath      = "/webhook/voice/recording"
	TransferStatusPath = "/webhook/voice/transfer-status"
)

// VoiceSettings controls how directives become call-control markup.
type VoiceSettings struct {
	BaseURL           string // prefix for callback URLs; empty keeps them relative
	DialTimeout       int    // seconds
	RecordingFallback bool   // record the caller when speech gathering hears nothing
	TranscribeTimeout time.Duration
}

// RenderDirective turns one directive into a TwiML document.
func RenderDirective(d models.Directive, vs VoiceSettings) (string, error) {
	var elems []twiml.Element
	switch d := d.(type) {
	case models.Speak:
		elems = append(elems, say(d.Message), vs.gather(""))
		elems = append(elems, vs.noInput()...)
	case models.GatherNextInput:
		elems = append(elems, vs.gather(d.Prompt))
		elems = append(elems, vs.noInput()...)
	case models.Transfer:
		if d.LeadIn != "" {
			elems = append(elems, say(d.LeadIn))
		}
		elems = append(elems, vs.dial(d.Decision))
	case models.Hangup:
		if d.FinalText != "" {
			elems = append(elems, say(d.FinalText))
		}
		elems = append(elems, &twiml.VoiceHangup{})
	default:
		return "", fmt.Errorf("unsupported directive %T", d)
	}
	return twiml.Voice(elems)
}

func say(text string) *twiml.VoiceSay {
	return &twiml.VoiceSay{Message: text, Language: utils.VoiceLanguage, Voice: utils.VoiceName}
}

func (vs VoiceSettings) url(path string) string {
	return vs.BaseURL + path
}

func (vs VoiceSettings) gather(prompt string) *twiml.VoiceGather {
	g := &twiml.VoiceGather{
		Input:         "speech",
		Action:        vs.url(ProcessPath),
		Method:        "POST",
		Language:      utils.VoiceLanguage,
		SpeechTimeout: "auto",
		Timeout:       "10",
	}
	if prompt != "" {
		g.InnerElements = []twiml.Element{say(prompt)}
	}
	return g
}

// noInput runs when the gather times out without speech.
func (vs VoiceSettings) noInput() []twiml.Element {
	if vs.RecordingFallback {
		return []twiml.Element{
			say("Non ho capito, può ripetere dopo il segnale?"),
			&twiml.VoiceRecord{
				Action:    vs.url(RecordingPath),
				Method:    "POST",
				MaxLength: "15",
				Timeout:   "3",
				PlayBeep:  "true",
				Trim:      "trim-silence",
			},
		}
	}
	return []twiml.Element{
		&twiml.VoiceRedirect{Url: vs.url(ProcessPath), Method: "POST"},
	}
}

func (vs VoiceSettings) dial(dec models.TransferDecision) *twiml.VoiceDial {
	timeout := vs.DialTimeout
	if timeout <= 0 {
		timeout = 30
	}
	dial := &twiml.VoiceDial{
		Action:        vs.url(TransferStatusPath),
		Method:        "POST",
		Timeout:       strconv.Itoa(timeout),
		InnerElements: []twiml.Element{&twiml.VoiceNumber{PhoneNumber: dec.Destination()}},
	}
	if dec.Kind == models.TransferExternal {
		dial.CallerId = dec.ViaTrunk
	}
	return dial
}
