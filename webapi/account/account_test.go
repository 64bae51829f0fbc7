package account

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/ledger/infra/memory"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/amirasaad/ledger/pkg/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type AccountTestSuite struct {
	suite.Suite
	app *fiber.App
}

func (s *AccountTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ledger.New(memory.New(time.Second, logger), nil, logger)
	s.app = fiber.New()
	Routes(s.app, svc, 3)

	s.open("088", "110-123-4567")
	s.open("088", "220-000-0001")
}

func TestAccountTestSuite(t *testing.T) {
	suite.Run(t, new(AccountTestSuite))
}

func (s *AccountTestSuite) do(method, path, body string) (*http.Response, map[string]any) {
	resp := testutils.MakeRequest(s.app, method, path, body)
	defer resp.Body.Close() //nolint: errcheck
	var payload map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func (s *AccountTestSuite) open(bank, number string) {
	resp, _ := s.do(fiber.MethodPost, "/accounts", `{"bank_code":"`+bank+`","account_number":"`+number+`"}`)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
}

func (s *AccountTestSuite) data(payload map[string]any) map[string]any {
	d, ok := payload["data"].(map[string]any)
	s.Require().True(ok, "payload has no data object: %v", payload)
	return d
}

func (s *AccountTestSuite) TestOpenAccount() {
	s.Run("duplicate number conflicts", func() {
		resp, body := s.do(fiber.MethodPost, "/accounts", `{"bank_code":"088","account_number":"1101234567"}`)
		s.Equal(fiber.StatusConflict, resp.StatusCode)
		s.Equal("application/problem+json", resp.Header.Get(fiber.HeaderContentType))
		s.Equal("account already exists", body["detail"])
	})

	s.Run("validation failure lists fields", func() {
		resp, body := s.do(fiber.MethodPost, "/accounts", `{"bank_code":"abc"}`)
		s.Equal(fiber.StatusBadRequest, resp.StatusCode)
		errs, ok := body["errors"].(map[string]any)
		s.Require().True(ok)
		s.Equal("numeric", errs["bank_code"])
		s.Equal("required", errs["account_number"])
	})

	s.Run("malformed body", func() {
		resp, _ := s.do(fiber.MethodPost, "/accounts", `{`)
		s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	})
}

func (s *AccountTestSuite) TestDepositAndGet() {
	resp, body := s.do(fiber.MethodPost, "/accounts/088/110-123-4567/deposit", `{"amount":"1500.5","description":"salary"}`)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	tx := s.data(body)
	s.Equal("DEPOSIT", tx["kind"])
	s.Equal("1500.50", tx["amount"])
	s.Equal("1500.50", tx["balance_after"])

	resp, body = s.do(fiber.MethodGet, "/accounts/088/1101234567", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	acc := s.data(body)
	s.Equal("1500.50", acc["balance"])
	s.Equal("110-123-4567", acc["account_number"])
	s.Equal("ACTIVE", acc["status"])
}

func (s *AccountTestSuite) TestErrorMapping() {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown account", fiber.MethodGet, "/accounts/088/999", "", fiber.StatusNotFound},
		{"zero amount", fiber.MethodPost, "/accounts/088/1101234567/deposit", `{"amount":0}`, fiber.StatusBadRequest},
		{"three decimals", fiber.MethodPost, "/accounts/088/1101234567/deposit", `{"amount":"1.005"}`, fiber.StatusBadRequest},
		{"insufficient balance", fiber.MethodPost, "/accounts/088/1101234567/withdraw", `{"amount":1}`, fiber.StatusUnprocessableEntity},
		{"same account", fiber.MethodPost, "/transfers",
			`{"from_bank_code":"088","from_account_number":"1101234567","to_bank_code":"088","to_account_number":"110-123-4567","amount":1}`,
			fiber.StatusBadRequest},
		{"unknown target", fiber.MethodPost, "/transfers",
			`{"from_bank_code":"088","from_account_number":"1101234567","to_bank_code":"088","to_account_number":"404","amount":1}`,
			fiber.StatusNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, body := s.do(tt.method, tt.path, tt.body)
			s.Equal(tt.status, resp.StatusCode)
			s.Equal(float64(tt.status), body["status"])
		})
	}
}

func (s *AccountTestSuite) TestWithdrawOverDailyLimit() {
	resp, _ := s.do(fiber.MethodPost, "/accounts/088/1101234567/deposit", `{"amount":2000000}`)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	resp, _ = s.do(fiber.MethodPost, "/accounts/088/1101234567/withdraw", `{"amount":800000}`)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	resp, body := s.do(fiber.MethodPost, "/accounts/088/1101234567/withdraw", `{"amount":300000}`)
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)
	s.Equal("daily withdraw limit exceeded", body["detail"])
}

func (s *AccountTestSuite) TestTransfer() {
	resp, _ := s.do(fiber.MethodPost, "/accounts/088/1101234567/deposit", `{"amount":200000}`)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	resp, body := s.do(fiber.MethodPost, "/transfers",
		`{"from_bank_code":"088","from_account_number":"110-123-4567","to_bank_code":"088","to_account_number":"2200000001","amount":100000}`)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	out := s.data(body)
	s.Equal("TRANSFER_OUT", out["kind"])
	s.Equal("1000.00", out["fee"])
	s.Equal("99000.00", out["balance_after"])
	s.NotContains(out, "incoming_transaction")

	resp, body = s.do(fiber.MethodGet, "/accounts/088/2200000001/transactions?limit=1", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	received, ok := body["data"].([]any)
	s.Require().True(ok)
	s.Require().Len(received, 1)
	in := received[0].(map[string]any)
	s.Equal("TRANSFER_IN", in["kind"])
	s.Equal("100000.00", in["balance_after"])
	s.Equal(out["reference"], in["reference"])

	resp, body = s.do(fiber.MethodGet, "/accounts/088/1101234567/transactions?limit=1", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	txs, ok := body["data"].([]any)
	s.Require().True(ok)
	s.Require().Len(txs, 1)
	s.Equal("TRANSFER_OUT", txs[0].(map[string]any)["kind"])
}

func (s *AccountTestSuite) TestCloseAccount() {
	resp, _ := s.do(fiber.MethodPost, "/accounts/088/2200000001/deposit", `{"amount":10}`)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	resp, body := s.do(fiber.MethodDelete, "/accounts/088/2200000001", "")
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)
	s.Equal("account balance must be zero to deactivate", body["detail"])

	resp, body = s.do(fiber.MethodDelete, "/accounts/088/1101234567", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	acc := s.data(body)
	s.Equal("DEACTIVATED", acc["status"])
	s.NotEmpty(acc["deactivated_at"])

	resp, _ = s.do(fiber.MethodDelete, "/accounts/088/1101234567", "")
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = s.do(fiber.MethodPost, "/accounts/088/1101234567/deposit", `{"amount":1}`)
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)
}
