package handlers

import (
	"context"
	"errors"
	"net/http"

	"centromedico/models"
	"centromedico/services/call"
	"centromedico/services/speech"
	"centromedico/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Call statuses after which the call is gone.
var finalCallStatuses = map[string]bool{
	"completed": true,
	"busy":      true,
	"failed":    true,
	"no-answer": true,
	"canceled":  true,
}

// VoiceHandler serves the telephony webhooks.
type VoiceHandler struct {
	Calls       *call.Handler
	Transcriber speech.Transcriber // nil disables the recording fallback
	Settings    VoiceSettings
}

func NewVoiceHandler(calls *call.Handler, transcriber speech.Transcriber, settings VoiceSettings) *VoiceHandler {
	if transcriber == nil {
		settings.RecordingFallback = false
	}
	return &VoiceHandler{Calls: calls, Transcriber: transcriber, Settings: settings}
}

// IncomingCallHandler answers a new call with the greeting.
func (vh *VoiceHandler) IncomingCallHandler(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	if callSid == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing CallSid", "")
		return
	}
	getLogger(c).Info("Incoming call",
		zap.String("callSid", callSid),
		zap.String("from", c.PostForm("From")),
		zap.String("to", c.PostForm("To")))

	vh.respond(c, vh.Calls.CallStarted(c.Request.Context(), callSid, c.PostForm("From")))
}

// ProcessSpeechHandler answers the caller's recognised speech.
func (vh *VoiceHandler) ProcessSpeechHandler(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	if callSid == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing CallSid", "")
		return
	}
	d := vh.Calls.SpeechRecognized(c.Request.Context(), callSid, c.PostForm("From"), c.PostForm("SpeechResult"))
	vh.respond(c, d)
}

// RecordingHandler transcribes a fallback recording and answers it like recognised speech.
func (vh *VoiceHandler) RecordingHandler(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	if callSid == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing CallSid", "")
		return
	}
	logger := getLogger(c).With(zap.String("callSid", callSid))

	var text string
	if url := c.PostForm("RecordingUrl"); url != "" && vh.Transcriber != nil {
		transcript, err := vh.transcribe(c.Request.Context(), url)
		switch {
		case err == nil:
			text = transcript
		case errors.Is(err, speech.ErrNoSpeech):
			logger.Info("Recording contained no speech")
		default:
			logger.Error("Recording transcription failed", zap.Error(err))
		}
	}
	vh.respond(c, vh.Calls.SpeechRecognized(c.Request.Context(), callSid, c.PostForm("From"), text))
}

// TransferStatusHandler receives the outcome of a dialled transfer.
func (vh *VoiceHandler) TransferStatusHandler(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	vh.respond(c, vh.Calls.TransferFinished(c.Request.Context(), callSid, c.PostForm("DialCallStatus")))
}

// CallStatusHandler receives call progress callbacks and drops finished calls.
func (vh *VoiceHandler) CallStatusHandler(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")
	if callSid != "" && finalCallStatuses[status] {
		vh.Calls.CallEnded(c.Request.Context(), callSid, status)
	}
	c.Status(http.StatusNoContent)
}

func (vh *VoiceHandler) transcribe(ctx context.Context, url string) (string, error) {
	timeout := vh.Settings.TranscribeTimeout
	if timeout <= 0 {
		return vh.Transcriber.Transcribe(ctx, url)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return vh.Transcriber.Transcribe(ctx, url)
}

func (vh *VoiceHandler) respond(c *gin.Context, d models.Directive) {
	doc, err := RenderDirective(d, vh.Settings)
	if err != nil {
		getLogger(c).Error("Failed to render directive", zap.Error(err))
		utils.TwiMLApology(c)
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(doc))
}
