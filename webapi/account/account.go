package account

import (
	"context"

	"github.com/amirasaad/ledger/pkg/commands"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/amirasaad/ledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers the account and transfer endpoints.
//
// Routes:
//   - POST   /accounts                             : Open an account.
//   - GET    /accounts/:bank/:number               : Current balance and status.
//   - DELETE /accounts/:bank/:number               : Deactivate an empty account.
//   - GET    /accounts/:bank/:number/transactions  : Newest transactions first.
//   - POST   /accounts/:bank/:number/deposit       : Deposit funds.
//   - POST   /accounts/:bank/:number/withdraw      : Withdraw funds.
//   - POST   /transfers                            : Transfer funds between accounts.
//
// Operations that lose a race are re-run up to retryAttempts times before
// the conflict is reported.
func Routes(app *fiber.App, svc *ledger.Service, retryAttempts int) {
	app.Post("/accounts", OpenAccount(svc))
	app.Get("/accounts/:bank/:number", GetAccount(svc))
	app.Delete("/accounts/:bank/:number", CloseAccount(svc, retryAttempts))
	app.Get("/accounts/:bank/:number/transactions", ListTransactions(svc))
	app.Post("/accounts/:bank/:number/deposit", Deposit(svc, retryAttempts))
	app.Post("/accounts/:bank/:number/withdraw", Withdraw(svc, retryAttempts))
	app.Post("/transfers", Transfer(svc, retryAttempts))
}

// OpenAccount returns a Fiber handler for opening an account.
// @Summary Open an account
// @Description Opens an active account with a zero balance. The account number may contain separators; only its digits identify it.
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body OpenAccountRequest true "Account identity"
// @Success 201 {object} common.Response "Account opened"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 409 {object} common.ProblemDetails "Account already exists"
// @Router /accounts [post]
func OpenAccount(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[OpenAccountRequest](c)
		if input == nil {
			return err // error response already written
		}
		a, err := svc.OpenAccount(c.UserContext(), commands.OpenAccount{
			BankCode:      input.BankCode,
			AccountNumber: input.AccountNumber,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to open account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Account opened", ToAccountDTO(a))
	}
}

// GetAccount returns a Fiber handler for reading an account.
// @Summary Get an account
// @Tags accounts
// @Produce json
// @Param bank path string true "Bank code"
// @Param number path string true "Account number"
// @Success 200 {object} common.Response "Account fetched"
// @Failure 404 {object} common.ProblemDetails "Account not found"
// @Router /accounts/{bank}/{number} [get]
func GetAccount(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := svc.GetAccount(c.UserContext(), c.Params("bank"), c.Params("number"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account fetched", ToAccountDTO(a))
	}
}

// CloseAccount returns a Fiber handler that deactivates an account.
// @Summary Close an account
// @Description Deactivates an active account whose balance is zero. A closed account never reopens.
// @Tags accounts
// @Produce json
// @Param bank path string true "Bank code"
// @Param number path string true "Account number"
// @Success 200 {object} common.Response "Account closed"
// @Failure 404 {object} common.ProblemDetails "Account not found"
// @Failure 422 {object} common.ProblemDetails "Account has balance or is already closed"
// @Router /accounts/{bank}/{number} [delete]
func CloseAccount(svc *ledger.Service, retryAttempts int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cmd := commands.CloseAccount{BankCode: c.Params("bank"), AccountNumber: c.Params("number")}
		a, err := ledger.RetryOnConflict(c.UserContext(), retryAttempts,
			func(ctx context.Context) (*account.Account, error) {
				return svc.CloseAccount(ctx, cmd)
			})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to close account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account closed", ToAccountDTO(a))
	}
}

// ListTransactions returns a Fiber handler for an account's history.
// @Summary List transactions
// @Tags accounts
// @Produce json
// @Param bank path string true "Bank code"
// @Param number path string true "Account number"
// @Param limit query int false "Page size, 1 to 100"
// @Success 200 {object} common.Response "Transactions fetched"
// @Failure 404 {object} common.ProblemDetails "Account not found"
// @Router /accounts/{bank}/{number}/transactions [get]
func ListTransactions(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		txs, err := svc.ListTransactions(c.UserContext(), c.Params("bank"), c.Params("number"), c.QueryInt("limit"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		out := make([]*TransactionDTO, 0, len(txs))
		for _, tx := range txs {
			out = append(out, ToTransactionDTO(tx))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", out)
	}
}

// Deposit returns a Fiber handler for depositing into an account.
// @Summary Deposit funds into an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param bank path string true "Bank code"
// @Param number path string true "Account number"
// @Param request body AmountRequest true "Deposit details"
// @Success 200 {object} common.Response "Deposit successful"
// @Failure 400 {object} common.ProblemDetails "Invalid amount"
// @Failure 404 {object} common.ProblemDetails "Account not found"
// @Failure 409 {object} common.ProblemDetails "Conflict persisted after retries"
// @Failure 422 {object} common.ProblemDetails "Account inactive"
// @Router /accounts/{bank}/{number}/deposit [post]
func Deposit(svc *ledger.Service, retryAttempts int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[AmountRequest](c)
		if input == nil {
			return err // error response already written
		}
		cmd := commands.Deposit{
			BankCode:      c.Params("bank"),
			AccountNumber: c.Params("number"),
			Amount:        input.Amount,
			Description:   input.Description,
		}
		tx, err := ledger.RetryOnConflict(c.UserContext(), retryAttempts,
			func(ctx context.Context) (*account.Transaction, error) {
				return svc.Deposit(ctx, cmd)
			})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to deposit", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Deposit successful", ToTransactionDTO(tx))
	}
}

// Withdraw returns a Fiber handler for withdrawing from an account.
// @Summary Withdraw funds from an account
// @Description Withdraws funds, subject to the balance and the daily withdraw limit.
// @Tags accounts
// @Accept json
// @Produce json
// @Param bank path string true "Bank code"
// @Param number path string true "Account number"
// @Param request body AmountRequest true "Withdrawal details"
// @Success 200 {object} common.Response "Withdrawal successful"
// @Failure 400 {object} common.ProblemDetails "Invalid amount"
// @Failure 404 {object} common.ProblemDetails "Account not found"
// @Failure 409 {object} common.ProblemDetails "Conflict persisted after retries"
// @Failure 422 {object} common.ProblemDetails "Insufficient balance or limit exceeded"
// @Router /accounts/{bank}/{number}/withdraw [post]
func Withdraw(svc *ledger.Service, retryAttempts int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[AmountRequest](c)
		if input == nil {
			return err // error response already written
		}
		cmd := commands.Withdraw{
			BankCode:      c.Params("bank"),
			AccountNumber: c.Params("number"),
			Amount:        input.Amount,
			Description:   input.Description,
		}
		tx, err := ledger.RetryOnConflict(c.UserContext(), retryAttempts,
			func(ctx context.Context) (*account.Transaction, error) {
				return svc.Withdraw(ctx, cmd)
			})
		if err != nil {
			log.Debugf("withdraw rejected for %s/%s: %v", cmd.BankCode, cmd.AccountNumber, err)
			return common.ProblemDetailsJSON(c, "Failed to withdraw", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Withdrawal successful", ToTransactionDTO(tx))
	}
}

// Transfer returns a Fiber handler for transferring funds between accounts.
// @Summary Transfer funds between accounts
// @Description Moves the amount to the destination. The sender also pays a 1% fee, which does not count against the daily transfer limit.
// @Tags transfers
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer details"
// @Success 200 {object} common.Response "Transfer successful; data is the outgoing record"
// @Failure 400 {object} common.ProblemDetails "Invalid amount or same account"
// @Failure 404 {object} common.ProblemDetails "Account not found"
// @Failure 409 {object} common.ProblemDetails "Conflict persisted after retries"
// @Failure 422 {object} common.ProblemDetails "Insufficient balance, inactive account or limit exceeded"
// @Router /transfers [post]
func Transfer(svc *ledger.Service, retryAttempts int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err // error response already written
		}
		cmd := commands.Transfer{
			FromBankCode:      input.FromBankCode,
			FromAccountNumber: input.FromAccountNumber,
			ToBankCode:        input.ToBankCode,
			ToAccountNumber:   input.ToAccountNumber,
			Amount:            input.Amount,
			Description:       input.Description,
		}
		tx, err := ledger.RetryOnConflict(c.UserContext(), retryAttempts,
			func(ctx context.Context) (*account.Transaction, error) {
				return svc.Transfer(ctx, cmd)
			})
		if err != nil {
			log.Debugf("transfer rejected: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to transfer", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transfer successful", ToTransactionDTO(tx))
	}
}
