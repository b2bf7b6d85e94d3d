package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/qvhoang/Peregrine/config"
	"github.com/qvhoang/Peregrine/internal/resilience"
	"github.com/rs/zerolog/log"
)

const (
	deliveryPositiveVerdict = "✓ Used hands effectively"
	deliveryNegativeVerdict = "✗ Did not use hands effectively"

	// Shown when the analysis service cannot be reached. Kept distinct from
	// the genuine verdicts so students never mistake an outage for a score.
	deliveryUnavailableVerdict = "Delivery analysis unavailable for this recording"
)

// DeliveryResult is the outcome of the gesture analysis stage.
type DeliveryResult struct {
	Verdict     string
	Details     string
	Unavailable bool
}

// DeliveryAnalysisService asks the gesture service whether the speaker used
// hand movement effectively. The stage is best effort: it never returns an
// error and never blocks grading beyond its own timeout.
type DeliveryAnalysisService interface {
	Analyze(ctx context.Context, videoURL string) DeliveryResult
}

type deliveryAnalysisService struct {
	cfg    *config.Config
	client *http.Client
}

func NewDeliveryAnalysisService(cfg *config.Config) DeliveryAnalysisService {
	return &deliveryAnalysisService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Services.GestureCallTimeout},
	}
}

type gestureRequest struct {
	VideoURL string `json:"video_url"`
}

type gestureResponse struct {
	UsedHandsEffectively bool   `json:"used_hands_effectively"`
	HandsDetected        bool   `json:"hands_detected"`
	MovementDetected     bool   `json:"movement_detected"`
	Details              string `json:"details"`
}

func (s *deliveryAnalysisService) Analyze(ctx context.Context, videoURL string) DeliveryResult {
	if s.cfg.Services.GestureServiceURL == "" {
		return DeliveryResult{Verdict: deliveryUnavailableVerdict, Unavailable: true}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Services.GestureCallTimeout)
	defer cancel()

	parsed, err := resilience.Call(callCtx, func(ctx context.Context) (gestureResponse, error) {
		var out gestureResponse
		payload, err := json.Marshal(gestureRequest{VideoURL: videoURL})
		if err != nil {
			return out, fmt.Errorf("encoding gesture request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Services.GestureServiceURL+"/analyze", bytes.NewReader(payload))
		if err != nil {
			return out, fmt.Errorf("building gesture request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return out, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return out, &resilience.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return out, fmt.Errorf("decoding gesture response: %w", err)
		}
		return out, nil
	}, resilience.Options{MaxAttempts: 2, OnRetry: logRetry("delivery_analysis")})
	if err != nil {
		log.Warn().Err(err).Str("videoURL", videoURL).Msg("Gesture analysis unavailable, continuing without delivery verdict")
		return DeliveryResult{Verdict: deliveryUnavailableVerdict, Unavailable: true}
	}

	if parsed.UsedHandsEffectively {
		return DeliveryResult{Verdict: deliveryPositiveVerdict, Details: parsed.Details}
	}
	return DeliveryResult{Verdict: deliveryNegativeVerdict, Details: parsed.Details}
}
