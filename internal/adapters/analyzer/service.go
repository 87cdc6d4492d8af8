package analyzer

import (
	"artcritic/internal/core/domain"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	analyzePath = "/api/analyze"
	healthPath  = "/api/health"
)

// Service talks to the remote art analysis service.
type Service struct {
	baseURL       string
	client        *http.Client
	healthTimeout time.Duration
}

func NewService(baseURL string, client *http.Client, healthTimeout time.Duration) *Service {
	if client == nil {
		client = http.DefaultClient
	}

	return &Service{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		client:        client,
		healthTimeout: healthTimeout,
	}
}

type analyzeRequest struct {
	Image domain.TransportPayload `json:"image"`
}

type analyzeResponse struct {
	Critique *string `json:"critique"`
}

// Analyze posts the payload once. Retries are left to the caller.
func (s *Service) Analyze(ctx context.Context, payload domain.TransportPayload) (domain.CritiqueResult, error) {
	payloadBuf := new(bytes.Buffer)
	err := json.NewEncoder(payloadBuf).Encode(analyzeRequest{Image: payload})
	if err != nil {
		return "", fmt.Errorf("error encoding analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+analyzePath, payloadBuf)
	if err != nil {
		return "", fmt.Errorf("error creating analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &domain.RequestError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}

	var result analyzeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Debug().Int("bytes", len(body)).Msg("analyze response is not JSON")
		return "", fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}

	if result.Critique == nil || strings.TrimSpace(*result.Critique) == "" {
		return "", fmt.Errorf("%w: missing critique", domain.ErrMalformedResponse)
	}

	return domain.CritiqueResult(*result.Critique), nil
}

func (s *Service) CheckHealth(ctx context.Context) domain.HealthStatus {
	if s.healthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.healthTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+healthPath, nil)
	if err != nil {
		return failed(err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", req.URL.String()).Msg("health check failed")
		return failed(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.HealthStatus{
			State:     domain.Unhealthy,
			Message:   resp.Status,
			CheckedAt: time.Now(),
		}
	}

	return domain.HealthStatus{State: domain.Healthy, CheckedAt: time.Now()}
}

func failed(err error) domain.HealthStatus {
	return domain.HealthStatus{State: domain.HealthFail, Message: err.Error(), CheckedAt: time.Now()}
}
