package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// Telegram voice notes are Opus in an Ogg container at 48 kHz.
const voiceSampleRate = 48000

// MaxVoiceDuration is the longest clip synchronous recognition accepts.
const MaxVoiceDuration = time.Minute

var ErrNoTranscript = errors.New("no transcription results")

// Transcriber converts a voice note into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type SpeechTranscriber struct {
	client       *speech.Client
	languageCode string
}

func NewSpeechTranscriber(ctx context.Context, languageCode string) (*SpeechTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &SpeechTranscriber{client: client, languageCode: languageCode}, nil
}

func (s *SpeechTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("audio data is empty")
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_OGG_OPUS,
			SampleRateHertz: voiceSampleRate,
			LanguageCode:    s.languageCode,
			Model:           "latest_short",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audio,
			},
		},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := s.client.Recognize(timeoutCtx, req)
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript.WriteString(result.Alternatives[0].Transcript)
			transcript.WriteString(" ")
		}
	}

	text := strings.TrimSpace(transcript.String())
	if text == "" {
		return "", ErrNoTranscript
	}
	return text, nil
}

func (s *SpeechTranscriber) Close() error {
	return s.client.Close()
}

var spokenAmount = regexp.MustCompile(`^(?i:rp\.?)?(\d{1,3}(?:\.\d{3})+|\d+)$`)

// VoiceCommandLine turns a transcript such as "keluar 50.000 makan siang"
// into "/keluar 50000 makan siang". It reports false when the first word is
// not a command name.
func VoiceCommandLine(transcript string) (string, bool) {
	words := strings.Fields(transcript)
	if len(words) == 0 {
		return "", false
	}

	name := strings.ToLower(strings.TrimPrefix(words[0], commandPrefix))
	name = strings.TrimRight(name, ".,!?")
	if _, ok := commandNames[name]; !ok {
		return "", false
	}

	out := make([]string, 0, len(words))
	out = append(out, commandPrefix+name)
	for _, w := range words[1:] {
		if m := spokenAmount.FindStringSubmatch(w); m != nil {
			w = strings.ReplaceAll(m[1], ".", "")
		}
		out = append(out, w)
	}
	return strings.Join(out, " "), true
}
