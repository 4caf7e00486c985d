package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
)

const (
	NAME = "openai"
)

type Driver struct {
	client *openai.Client
}

func NewClient(token, baseURL string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(cfg)
}

// New builds a driver for any OpenAI compatible endpoint. An empty baseURL targets api.openai.com.
func New(token, baseURL string, timeout time.Duration) *Driver {
	return &Driver{
		client: NewClient(token, baseURL, timeout),
	}
}

func rejected(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}

// Models lists the model ids the credentials can use.
func (s *Driver) Models(ctx context.Context) ([]string, error) {
	list, err := s.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(list.Models, func(m openai.Model, _ int) string { return m.ID }), nil
}

// VerifyCredentials reports false when the provider refuses the key.
// Transport and server failures are returned as errors.
func (s *Driver) VerifyCredentials(ctx context.Context) (bool, error) {
	_, err := s.Models(ctx)
	if err == nil {
		return true, nil
	}
	if rejected(err) {
		slog.Debug("credentials rejected", slog.String("driver", NAME), slog.String("error", err.Error()))
		return false, nil
	}
	return false, err
}
