// Package backendtest provides an in-process fake of the verification backend
// for unit and end-to-end tests. It speaks the same four endpoints as the real
// service and can be scripted per call.
package backendtest

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/scan-pay/scan_pay/internal/api"
	"github.com/scan-pay/scan_pay/internal/session"
)

type faceScript struct {
	status int
	result api.FaceVerificationResult
}

type pinScript struct {
	status int
	result api.PinVerificationResult
}

type listScript struct {
	status   int
	requests []api.PaymentRequest
}

// Backend is a scriptable fake verification backend.
type Backend struct {
	app *fiber.App

	mu          sync.Mutex
	faceQueue   []faceScript
	pinQueue    []pinScript
	listQueue   []listScript
	lastList    listScript
	cancelled   []string
	pinHash     []byte
	accessToken string
	refresh     string
	faceCalls   int
	pinCalls    int
	listCalls   int
}

// New creates a fake backend with auth disabled until SetTokens is called.
func New() *Backend {
	b := &Backend{}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/api/v1/auth/refresh", b.handleRefresh)
	app.Post("/api/v1/verify-face", b.handleVerifyFace)
	app.Post("/api/v1/verify-pin", b.handleVerifyPIN)
	app.Get("/api/v1/payment-requests", b.handleList)
	app.Post("/api/v1/payment-requests/:id/cancel", b.handleCancel)

	b.app = app
	return b
}

// SetTokens enables bearer auth: requests must carry the access token, and the
// refresh endpoint rotates it when presented with the refresh token.
func (b *Backend) SetTokens(access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessToken = access
	b.refresh = refresh
}

// SetPIN installs a bcrypt-hashed PIN fixture checked by the verify-pin
// handler before any scripted response is served.
func (b *Backend) SetPIN(pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pinHash = hash
	return nil
}

// QueueFace schedules the next verify-face response.
func (b *Backend) QueueFace(status int, result api.FaceVerificationResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faceQueue = append(b.faceQueue, faceScript{status: status, result: result})
}

// QueuePIN schedules the next verify-pin response.
func (b *Backend) QueuePIN(status int, result api.PinVerificationResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pinQueue = append(b.pinQueue, pinScript{status: status, result: result})
}

// QueueList schedules the next payment-request listing. Once the queue is
// drained the last page keeps being served, matching a backend whose state
// stopped changing.
func (b *Backend) QueueList(status int, requests ...api.PaymentRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listQueue = append(b.listQueue, listScript{status: status, requests: requests})
}

// Cancelled returns the request IDs cancelled so far.
func (b *Backend) Cancelled() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.cancelled))
	copy(out, b.cancelled)
	return out
}

// Calls reports how many times each endpoint was hit.
func (b *Backend) Calls() (face, pin, list int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.faceCalls, b.pinCalls, b.listCalls
}

func (b *Backend) authorized(c *fiber.Ctx) bool {
	b.mu.Lock()
	token := b.accessToken
	b.mu.Unlock()
	if token == "" {
		return true
	}
	authz := c.Get(fiber.HeaderAuthorization)
	return strings.TrimPrefix(authz, "Bearer ") == token
}

func (b *Backend) handleRefresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refresh == "" || req.RefreshToken != b.refresh {
		return fiber.NewError(http.StatusUnauthorized, "invalid refresh token")
	}
	b.accessToken = uuid.NewString()
	return c.JSON(session.TokenPair{AccessToken: b.accessToken, RefreshToken: b.refresh, ExpiresIn: 900})
}

func (b *Backend) handleVerifyFace(c *fiber.Ctx) error {
	if !b.authorized(c) {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}
	if _, err := c.FormFile("file"); err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, "file is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.faceCalls++
	if len(b.faceQueue) == 0 {
		return fiber.NewError(http.StatusInternalServerError, "no scripted face response")
	}
	next := b.faceQueue[0]
	b.faceQueue = b.faceQueue[1:]
	if next.status != http.StatusOK {
		return fiber.NewError(next.status, "scripted error")
	}
	return c.JSON(next.result)
}

func (b *Backend) handleVerifyPIN(c *fiber.Ctx) error {
	if !b.authorized(c) {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}
	var req struct {
		PIN        string `json:"pin"`
		FaceScanID string `json:"face_scan_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.FaceScanID == "" {
		return fiber.NewError(http.StatusUnprocessableEntity, "face_scan_id is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pinCalls++

	if b.pinHash != nil {
		if err := bcrypt.CompareHashAndPassword(b.pinHash, []byte(req.PIN)); err != nil {
			return c.JSON(api.PinVerificationResult{Success: false, Message: "incorrect PIN"})
		}
	}

	if len(b.pinQueue) == 0 {
		return c.JSON(api.PinVerificationResult{Success: true, VerifiedUserID: uuid.NewString()})
	}
	next := b.pinQueue[0]
	b.pinQueue = b.pinQueue[1:]
	if next.status != http.StatusOK {
		return fiber.NewError(next.status, "scripted error")
	}
	return c.JSON(next.result)
}

func (b *Backend) handleList(c *fiber.Ctx) error {
	if !b.authorized(c) {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++

	page := b.lastList
	if len(b.listQueue) > 0 {
		page = b.listQueue[0]
		b.listQueue = b.listQueue[1:]
		b.lastList = page
	}
	if page.status != 0 && page.status != http.StatusOK {
		return fiber.NewError(page.status, "scripted error")
	}
	if page.requests == nil {
		return c.JSON([]api.PaymentRequest{})
	}
	return c.JSON(page.requests)
}

func (b *Backend) handleCancel(c *fiber.Ctx) error {
	if !b.authorized(c) {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelled = append(b.cancelled, c.Params("id"))
	return c.JSON(fiber.Map{"message": "payment request cancelled"})
}
