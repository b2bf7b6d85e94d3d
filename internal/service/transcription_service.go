package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qvhoang/Peregrine/config"
	"github.com/qvhoang/Peregrine/internal/resilience"
	"github.com/rs/zerolog/log"
)

// TranscriptionService fetches a submission's video and turns it into text
// through the transcription API. An empty transcript is a valid result, not
// an error; the processor treats it as a distinct terminal outcome.
type TranscriptionService interface {
	FetchVideo(ctx context.Context, videoURL string) ([]byte, error)
	Transcribe(ctx context.Context, media []byte) (string, error)
}

type transcriptionService struct {
	cfg    *config.Config
	client *http.Client
}

func NewTranscriptionService(cfg *config.Config) TranscriptionService {
	return &transcriptionService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Services.CallTimeout},
	}
}

func (s *transcriptionService) FetchVideo(ctx context.Context, videoURL string) ([]byte, error) {
	return resilience.Call(ctx, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building video request: %w", err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, &resilience.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return io.ReadAll(resp.Body)
	}, resilience.Options{OnRetry: logRetry("fetch_video")})
}

// deepgramResponse mirrors the transcription API's nested result layout.
type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (s *transcriptionService) Transcribe(ctx context.Context, media []byte) (string, error) {
	if s.cfg.Services.DeepgramApiKey == "" {
		return "", fmt.Errorf("DEEPGRAM_API_KEY is not configured")
	}

	url := s.cfg.Services.DeepgramURL + "?model=nova-2&smart_format=true&punctuate=true"

	raw, err := resilience.Call(ctx, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(media))
		if err != nil {
			return nil, fmt.Errorf("building transcription request: %w", err)
		}
		req.Header.Set("Authorization", "Token "+s.cfg.Services.DeepgramApiKey)
		req.Header.Set("Content-Type", "audio/webm")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, &resilience.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return io.ReadAll(resp.Body)
	}, resilience.Options{OnRetry: logRetry("transcribe")})
	if err != nil {
		return "", fmt.Errorf("transcription call failed: %w", err)
	}

	var parsed deepgramResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding transcription response: %w", err)
	}
	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}

// logRetry is the shared observability hook passed to the resilient call
// wrapper by every stage.
func logRetry(stage string) func(attempt int, delay time.Duration, cause error) {
	return func(attempt int, delay time.Duration, cause error) {
		log.Warn().
			Str("stage", stage).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(cause).
			Msg("Retrying external call")
	}
}
