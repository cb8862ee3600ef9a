package license

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// validatePath is the activation endpoint on the sales platform
const validatePath = "/api/licenses/validate"

// ActivationClient talks to the remote sales platform. The platform is
// the single source of truth for license validity; the client sends the
// device fingerprint and relays the verdict without local verification.
type ActivationClient struct {
	baseURL       string
	clientVersion string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewActivationClient creates a sales platform client
func NewActivationClient(baseURL, clientVersion string, timeout time.Duration, logger *slog.Logger) *ActivationClient {
	return &ActivationClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		clientVersion: clientVersion,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger.With(slog.String("component", "license_client")),
	}
}

type activationRequest struct {
	Email             string `json:"email"`
	LicenseKey        string `json:"licenseKey"`
	DeviceFingerprint string `json:"deviceFingerprint"`
	MachineLabel      string `json:"machineLabel"`
	ClientVersion     string `json:"clientVersion"`
}

type activationResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Validate submits the activation request. A *ValidationError means the
// platform answered and said no; any other error is a transport or
// protocol failure.
func (c *ActivationClient) Validate(ctx context.Context, email, licenseKey, fingerprint, machineLabel string) error {
	payload := activationRequest{
		Email:             email,
		LicenseKey:        licenseKey,
		DeviceFingerprint: fingerprint,
		MachineLabel:      machineLabel,
		ClientVersion:     c.clientVersion,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode activation request: %w", err)
	}

	url := c.baseURL + validatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build activation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.InfoContext(ctx, "validating license with sales platform",
		slog.String("url", url),
		slog.String("email", email))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sales platform unreachable: %w", err)
	}
	defer resp.Body.Close()

	// Cap the body read; the platform's responses are small
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read sales platform response: %w", err)
	}

	var result activationResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &ValidationError{Message: fmt.Sprintf("license validation failed (status %d)", resp.StatusCode)}
		}
		return fmt.Errorf("failed to decode sales platform response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !result.Valid {
		message := result.Message
		if message == "" {
			message = result.Error
		}
		if message == "" {
			message = "License validation failed"
		}
		c.logger.WarnContext(ctx, "license rejected by sales platform",
			slog.Int("status", resp.StatusCode),
			slog.String("message", message))
		return &ValidationError{Message: message}
	}

	return nil
}
