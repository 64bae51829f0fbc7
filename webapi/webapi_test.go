package webapi

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/ledger/infra/memory"
	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RateLimitTestSuite struct {
	suite.Suite
	app *fiber.App
}

func newTestApp(t *testing.T, cfg *config.App) *fiber.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.New(&app.Deps{Uow: memory.New(time.Second, logger), Logger: logger}, cfg)
	require.NoError(t, err)
	return SetupApp(a)
}

func (s *RateLimitTestSuite) SetupTest() {
	s.app = newTestApp(s.T(), &config.App{
		Env:       "test",
		RateLimit: &config.RateLimit{MaxRequests: 5, Window: time.Second},
	})
}

func (s *RateLimitTestSuite) TestRateLimit() {
	for i := range [6]int{} {
		resp := testutils.MakeRequest(s.app, fiber.MethodGet, "/", "")
		defer resp.Body.Close() //nolint: errcheck

		if i < 5 {
			s.Assert().Equal(fiber.StatusOK, resp.StatusCode, "Expected OK for request %d", i+1)
		} else {
			s.Assert().Equal(fiber.StatusTooManyRequests, resp.StatusCode, "Expected Too Many Requests for request %d", i+1)
		}
	}

	// the limiter clock ticks in whole seconds
	time.Sleep(time.Second + 1100*time.Millisecond)

	resp := testutils.MakeRequest(s.app, fiber.MethodGet, "/", "")
	defer resp.Body.Close() //nolint: errcheck
	s.Assert().Equal(fiber.StatusOK, resp.StatusCode, "Expected OK after rate limit reset")
}

func (s *RateLimitTestSuite) TestForwardedClientsAreLimitedSeparately() {
	for range 5 {
		req := httptest.NewRequest(fiber.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
		resp, err := s.app.Test(req, -1)
		s.Require().NoError(err)
		_ = resp.Body.Close()
	}
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusTooManyRequests, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.2")
	resp2, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp2.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusOK, resp2.StatusCode)
}

func TestRateLimitTestSuite(t *testing.T) {
	suite.Run(t, new(RateLimitTestSuite))
}

func TestSetupApp_RecoversFromPanics(t *testing.T) {
	fiberApp := newTestApp(t, nil)
	fiberApp.Get("/panic", func(*fiber.Ctx) error { panic("boom") })

	resp := testutils.MakeRequest(fiberApp, fiber.MethodGet, "/panic", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
}

func TestSetupApp_RegistersLedgerRoutes(t *testing.T) {
	fiberApp := newTestApp(t, nil)
	resp := testutils.MakeRequest(fiberApp, fiber.MethodPost, "/accounts", `{"bank_code":"088","account_number":"1"}`)
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = testutils.MakeRequest(fiberApp, fiber.MethodGet, "/accounts/088/1", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
