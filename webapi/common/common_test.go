package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{account.ErrAccountNotFound, fiber.StatusNotFound},
		{account.ErrTargetAccountNotFound, fiber.StatusNotFound},
		{account.ErrInvalidAmount, fiber.StatusBadRequest},
		{account.ErrSameAccountTransfer, fiber.StatusBadRequest},
		{account.ErrInvalidAccountNumber, fiber.StatusBadRequest},
		{account.ErrInactiveAccount, fiber.StatusUnprocessableEntity},
		{account.ErrInsufficientBalance, fiber.StatusUnprocessableEntity},
		{account.ErrDailyWithdrawLimitExceeded, fiber.StatusUnprocessableEntity},
		{account.ErrDailyTransferLimitExceeded, fiber.StatusUnprocessableEntity},
		{account.ErrAlreadyDeactivated, fiber.StatusUnprocessableEntity},
		{account.ErrAccountHasBalance, fiber.StatusUnprocessableEntity},
		{account.ErrAccountExists, fiber.StatusConflict},
		{fmt.Errorf("commit: %w", account.ErrVersionConflict), fiber.StatusConflict},
		{account.ErrLockTimeout, fiber.StatusConflict},
		{fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed},
		{account.ErrLedgerInconsistent, fiber.StatusInternalServerError},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorToStatusCode(tt.err))
		})
	}
}

func TestProblemDetailsJSON(t *testing.T) {
	app := fiber.New()
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Failed to withdraw", account.ErrVersionConflict)
	})
	app.Get("/override", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Slow down", errors.New("rate limit exceeded"), "try later", fiber.StatusTooManyRequests)
	})

	resp := testutils.MakeRequest(app, fiber.MethodGet, "/conflict", "")
	defer resp.Body.Close() //nolint: errcheck
	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "about:blank", pd.Type)
	assert.Equal(t, "/conflict", pd.Instance)
	assert.Equal(t, "version conflict", pd.Detail)
	assert.True(t, pd.Retryable)

	resp = testutils.MakeRequest(app, fiber.MethodGet, "/override", "")
	defer resp.Body.Close() //nolint: errcheck
	pd = ProblemDetails{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, fiber.StatusTooManyRequests, pd.Status)
	assert.Equal(t, "try later", pd.Detail)
	assert.False(t, pd.Retryable)
}

type bindInput struct {
	Name string `json:"name" validate:"required,max=4"`
}

func TestBindAndValidate(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[bindInput](c)
		if in == nil {
			return err
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "ok", in)
	})

	resp := testutils.MakeRequest(app, fiber.MethodPost, "/", `{"name":"abc"}`)
	defer resp.Body.Close() //nolint: errcheck
	var ok Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ok))
	assert.Equal(t, fiber.StatusOK, ok.Status)
	assert.Equal(t, map[string]any{"name": "abc"}, ok.Data)

	resp = testutils.MakeRequest(app, fiber.MethodPost, "/", `{"name":"abcdef"}`)
	defer resp.Body.Close() //nolint: errcheck
	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, map[string]any{"name": "max"}, pd.Errors)
}
