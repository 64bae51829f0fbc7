package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/amirasaad/ledger/infra/initializer"
	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/commands"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/shopspring/decimal"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  open <bank> <number>
  deposit <bank> <number> <amount> [description]
  withdraw <bank> <number> <amount> [description]
  transfer <from_bank> <from_number> <to_bank> <to_number> <amount> [description]
  close <bank> <number>
  balance <bank> <number>
  history <bank> <number> [limit]`

var errUsage = errors.New("invalid arguments")

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		return
	}
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Println("Failed to load configuration:", err)
		os.Exit(1)
	}
	if warning := storeWarning(cfg.Ledger); warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		fmt.Println("Failed to initialize dependencies:", err)
		os.Exit(1)
	}
	ledgerApp, err := app.New(deps, cfg)
	if err != nil {
		fmt.Println("Failed to build application:", err)
		os.Exit(1)
	}
	defer ledgerApp.Close() //nolint:errcheck

	err = execute(context.Background(), ledgerApp.LedgerService, ledgerApp.RetryAttempts(), os.Args[1:], os.Stdout)
	if errors.Is(err, errUsage) {
		fmt.Println(usage)
	}
	if err != nil {
		fmt.Println("Error:", err)
		_ = ledgerApp.Close()
		os.Exit(1)
	}
}

// storeWarning explains that an in-memory ledger is gone when the command
// returns, so a later invocation will not see accounts opened by this one.
func storeWarning(cfg *config.Ledger) string {
	if cfg != nil && cfg.Store != "" && cfg.Store != "memory" {
		return ""
	}
	return "Warning: LEDGER_STORE=memory keeps state only for this command; set LEDGER_STORE=postgres to persist it"
}

func execute(ctx context.Context, svc *ledger.Service, attempts int, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "open":
		if len(args) != 2 {
			return errUsage
		}
		a, err := svc.OpenAccount(ctx, commands.OpenAccount{BankCode: args[0], AccountNumber: args[1]})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Account opened: ID=%d, Number=%s/%s\n", a.ID, a.BankCode, a.DisplayNumber)
	case "deposit", "withdraw":
		if len(args) < 3 {
			return errUsage
		}
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		tx, err := ledger.RetryOnConflict(ctx, attempts, func(ctx context.Context) (*account.Transaction, error) {
			if cmd == "deposit" {
				return svc.Deposit(ctx, commands.Deposit{
					BankCode: args[0], AccountNumber: args[1], Amount: amount, Description: optional(args, 3),
				})
			}
			return svc.Withdraw(ctx, commands.Withdraw{
				BankCode: args[0], AccountNumber: args[1], Amount: amount, Description: optional(args, 3),
			})
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s. New balance: %s\n", tx.Kind, money(tx.Amount), money(tx.BalanceAfter))
	case "transfer":
		if len(args) < 5 {
			return errUsage
		}
		amount, err := parseAmount(args[4])
		if err != nil {
			return err
		}
		res, err := ledger.RetryOnConflict(ctx, attempts, func(ctx context.Context) (*ledger.TransferResult, error) {
			return svc.Transfers(ctx, commands.Transfer{
				FromBankCode: args[0], FromAccountNumber: args[1],
				ToBankCode: args[2], ToAccountNumber: args[3],
				Amount: amount, Description: optional(args, 5),
			})
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Transferred %s (fee %s). Sender balance: %s, receiver balance: %s\n",
			money(res.Out.Amount), money(res.Out.Fee), money(res.Out.BalanceAfter), money(res.In.BalanceAfter))
	case "close":
		if len(args) != 2 {
			return errUsage
		}
		a, err := ledger.RetryOnConflict(ctx, attempts, func(ctx context.Context) (*account.Account, error) {
			return svc.CloseAccount(ctx, commands.CloseAccount{BankCode: args[0], AccountNumber: args[1]})
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Account %d closed\n", a.ID)
	case "balance":
		if len(args) != 2 {
			return errUsage
		}
		a, err := svc.GetAccount(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Account %s/%s balance: %s (%s)\n", a.BankCode, a.DisplayNumber, money(a.Balance), a.Status)
	case "history":
		if len(args) < 2 {
			return errUsage
		}
		limit := 0
		if raw := optional(args, 2); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("invalid limit %q: %w", raw, errUsage)
			}
			limit = n
		}
		txs, err := svc.ListTransactions(ctx, args[0], args[1], limit)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\t%s\n",
				tx.ID, tx.CreatedAt.Format("2006-01-02 15:04:05"), tx.Kind,
				money(tx.Amount), money(tx.Fee), money(tx.BalanceAfter))
		}
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
	return nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, errUsage)
	}
	return amount, nil
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func money(d decimal.Decimal) string {
	return d.StringFixed(account.AmountScale)
}
