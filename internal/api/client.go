package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/scan-pay/scan_pay/internal/session"
)

// Client is the typed boundary to the verification backend. The scan flow
// consumes this interface; tests substitute the in-process fake.
type Client interface {
	VerifyFace(ctx context.Context, input VerifyFaceInput) (FaceVerificationResult, error)
	VerifyPIN(ctx context.Context, input VerifyPINInput) (PinVerificationResult, error)
	ListPaymentRequests(ctx context.Context) ([]PaymentRequest, error)
	CancelPaymentRequest(ctx context.Context, requestID string) (string, error)
}

const maxErrorBodyBytes = 4096

// HTTPClient talks to the backend over HTTP with bearer auth and a single
// transparent refresh-and-retry on 401.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  session.Store
	logger  *slog.Logger
}

// NewHTTPClient constructs the backend client. A nil httpClient gets a
// default with a 30s timeout.
func NewHTTPClient(baseURL string, httpClient *http.Client, tokens session.Store, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		logger:  logger,
	}
}

// VerifyFace uploads a captured image with the charge details.
func (c *HTTPClient) VerifyFace(ctx context.Context, input VerifyFaceInput) (FaceVerificationResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	filename := input.Filename
	if filename == "" {
		filename = "capture.jpg"
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return FaceVerificationResult{}, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(input.Image); err != nil {
		return FaceVerificationResult{}, fmt.Errorf("build multipart: %w", err)
	}
	fields := map[string]string{
		"amount":      strconv.FormatInt(input.AmountMinor, 10),
		"currency":    input.Currency,
		"description": input.Description,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return FaceVerificationResult{}, fmt.Errorf("build multipart: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return FaceVerificationResult{}, fmt.Errorf("build multipart: %w", err)
	}

	var result FaceVerificationResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/verify-face", mw.FormDataContentType(), buf.Bytes(), &result); err != nil {
		return FaceVerificationResult{}, err
	}
	return result, nil
}

// VerifyPIN submits the collected PIN keyed to a face scan.
func (c *HTTPClient) VerifyPIN(ctx context.Context, input VerifyPINInput) (PinVerificationResult, error) {
	payload, err := json.Marshal(map[string]any{
		"pin":          input.PIN,
		"face_scan_id": input.FaceScanID,
		"amount":       input.AmountMinor,
		"currency":     input.Currency,
		"description":  input.Description,
	})
	if err != nil {
		return PinVerificationResult{}, fmt.Errorf("encode pin request: %w", err)
	}

	var result PinVerificationResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/verify-pin", "application/json", payload, &result); err != nil {
		return PinVerificationResult{}, err
	}
	return result, nil
}

// ListPaymentRequests fetches the merchant's payment requests.
func (c *HTTPClient) ListPaymentRequests(ctx context.Context) ([]PaymentRequest, error) {
	var result []PaymentRequest
	if err := c.do(ctx, http.MethodGet, "/api/v1/payment-requests", "", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CancelPaymentRequest asks the backend to cancel a pending request.
func (c *HTTPClient) CancelPaymentRequest(ctx context.Context, requestID string) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	path := "/api/v1/payment-requests/" + requestID + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, "application/json", nil, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// do sends one request with bearer auth. On 401 it refreshes the token pair
// once and retries; a second rejection tears the session down and reports a
// network-class error so the flow aborts without a bogus payment outcome.
func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	resp, err := c.send(ctx, method, path, contentType, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if err := c.refresh(ctx); err != nil {
			_ = c.tokens.Clear(ctx)
			return fmt.Errorf("%w: session refresh failed", ErrNetwork)
		}
		resp, err = c.send(ctx, method, path, contentType, body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			drain(resp)
			_ = c.tokens.Clear(ctx)
			return fmt.Errorf("%w: session rejected", ErrNetwork)
		}
	}

	return decodeResponse(resp, out)
}

func (c *HTTPClient) send(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	pair, err := c.tokens.Get(ctx)
	if err == nil && pair.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	} else if err != nil && !errors.Is(err, session.ErrNoSession) {
		return nil, err
	}

	return c.http.Do(req)
}

func (c *HTTPClient) refresh(ctx context.Context) error {
	pair, err := c.tokens.Get(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": pair.RefreshToken})
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, http.MethodPost, "/api/v1/auth/refresh", "application/json", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var refreshed session.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		return err
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = pair.RefreshToken
	}

	if c.logger != nil {
		c.logger.Debug("session refreshed")
	}
	return c.tokens.Set(ctx, refreshed)
}

// decodeResponse translates HTTP statuses into the client error taxonomy and
// decodes successful bodies. Raw backend bodies never reach the caller except
// as the validation detail.
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
		}
		return nil
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return ErrPayloadTooLarge
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return &ValidationError{Detail: errorDetail(resp.Body)}
	case resp.StatusCode >= 500:
		return ErrServiceUnavailable
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrNetwork, resp.StatusCode)
	}
}

// errorDetail pulls a short human detail out of a JSON error body, falling
// back to the raw text, capped so oversized bodies cannot blow up logs.
func errorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}

	var decoded struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil {
		switch {
		case decoded.Detail != "":
			return decoded.Detail
		case decoded.Message != "":
			return decoded.Message
		case decoded.Error != "":
			return decoded.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	resp.Body.Close()
}
