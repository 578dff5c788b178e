// Package clerk is a small client for the identity provider's backend API.
package clerk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.clerk.com"

// PublicMetadata is copied by the provider into session tokens, which is
// where the auth middleware reads the role from.
type PublicMetadata struct {
	Role      string `json:"role"`
	NutriCode string `json:"nutri_code,omitempty"`
}

type metadataUpdate struct {
	PublicMetadata PublicMetadata `json:"public_metadata"`
}

type apiError struct {
	Errors []struct {
		Message     string `json:"message"`
		LongMessage string `json:"long_message"`
		Code        string `json:"code"`
	} `json:"errors"`
}

func (e *apiError) message() string {
	if e == nil || len(e.Errors) == 0 {
		return ""
	}
	if e.Errors[0].LongMessage != "" {
		return e.Errors[0].LongMessage
	}
	return e.Errors[0].Message
}

// ErrNotConfigured is returned when no secret key was provided.
var ErrNotConfigured = errors.New("clerk: secret key not configured")

// Client calls the backend API. It never retries: a failed call surfaces to
// the operation that made it.
type Client struct {
	http       *resty.Client
	configured bool
	logger     zerolog.Logger
}

func NewClient(baseURL, secretKey string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(0).
		SetAuthToken(secretKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: http, configured: secretKey != "", logger: logger}
}

// UpdateUserRole merges the role (and nutri code, for doctors) into the
// user's public metadata.
func (c *Client) UpdateUserRole(ctx context.Context, userID string, meta PublicMetadata) error {
	if !c.configured {
		return ErrNotConfigured
	}
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetBody(metadataUpdate{PublicMetadata: meta}).
		SetError(&apiErr).
		Patch("/v1/users/{id}/metadata")
	if err != nil {
		return fmt.Errorf("clerk: update metadata: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.message()
		if msg == "" {
			msg = resp.Status()
		}
		c.logger.Warn().
			Str("user_id", userID).
			Int("status", resp.StatusCode()).
			Str("error", msg).
			Msg("clerk metadata update rejected")
		return fmt.Errorf("clerk: update metadata: %s", msg)
	}
	c.logger.Info().Str("user_id", userID).Str("role", meta.Role).Msg("clerk metadata updated")
	return nil
}
