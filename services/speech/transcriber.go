package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	MaxRecordingSize  = 5 * 1024 * 1024
	defaultSampleRate = 8000 // telephony recordings
)

// ErrNoSpeech is returned when a recording contained nothing recognisable.
var ErrNoSpeech = errors.New("no speech recognised")

// Transcriber turns a call recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, recordingURL string) (string, error)
}

// GoogleTranscriber downloads a recording from the telephony provider and runs
// it through Cloud Speech-to-Text.
type GoogleTranscriber struct {
	client     *gspeech.Client
	httpClient *http.Client
	accountSID string
	authToken  string
	language   string
	logger     *zap.Logger
}

func NewGoogleTranscriber(ctx context.Context, credentialsFile, accountSID, authToken, language string, logger *zap.Logger) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gspeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &GoogleTranscriber{
		client:     client,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		accountSID: accountSID,
		authToken:  authToken,
		language:   language,
		logger:     logger,
	}, nil
}

func (t *GoogleTranscriber) Close() error {
	return t.client.Close()
}

func (t *GoogleTranscriber) Transcribe(ctx context.Context, recordingURL string) (string, error) {
	audio, err := t.fetch(ctx, recordingURL)
	if err != nil {
		return "", err
	}

	rate := int32(defaultSampleRate)
	if h, err := parseWaveHeader(audio); err == nil && h.SampleRate > 0 {
		rate = int32(h.SampleRate)
	}

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   rate,
			LanguageCode:      t.language,
			AudioChannelCount: 1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript.WriteString(result.Alternatives[0].Transcript + " ")
		}
	}
	text := strings.TrimSpace(transcript.String())
	if text == "" {
		return "", ErrNoSpeech
	}
	t.logger.Debug("Recording transcribed", zap.Int("bytes", len(audio)), zap.String("text", text))
	return text, nil
}

// fetch downloads the WAV rendition of a recording.
func (t *GoogleTranscriber) fetch(ctx context.Context, recordingURL string) ([]byte, error) {
	url := recordingURL
	if !strings.HasSuffix(url, ".wav") {
		url += ".wav"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if t.accountSID != "" {
		req.SetBasicAuth(t.accountSID, t.authToken)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download recording: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxRecordingSize))
}

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < 44 {
		return nil, errors.New("invalid WAV header length")
	}
	var h waveHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if string(h.RiffTag[:]) != "RIFF" || string(h.WaveTag[:]) != "WAVE" {
		return nil, errors.New("not a WAV file")
	}
	return &h, nil
}
