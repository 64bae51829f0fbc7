// Package testutils holds helpers shared by the ledger's tests.
package testutils

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/ledger/infra/migrations"
	"github.com/gofiber/fiber/v2"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// IntegrationEnv must be set for container-backed tests to run.
const IntegrationEnv = "LEDGER_INTEGRATION"

// RequireDocker skips tb unless IntegrationEnv is set and a docker daemon
// answers.
func RequireDocker(tb testing.TB) {
	tb.Helper()
	if os.Getenv(IntegrationEnv) == "" {
		tb.Skipf("set %s=1 to run integration tests", IntegrationEnv)
	}
	if !dockerIsReachable() {
		tb.Skip("docker is not reachable")
	}
}

func dockerIsReachable() bool {
	host := os.Getenv("DOCKER_HOST")
	if strings.HasPrefix(host, "unix://") {
		return canDialUnix(strings.TrimPrefix(host, "unix://"))
	}
	if host != "" {
		return true
	}
	return canDialUnix("/var/run/docker.sock")
}

func canDialUnix(path string) bool {
	conn, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// SetupPostgres starts a Postgres container, applies the ledger schema and
// returns a gorm handle to it. The container is removed when tb ends.
func SetupPostgres(tb testing.TB) *gorm.DB {
	tb.Helper()
	RequireDocker(tb)
	ctx := context.Background()

	pg, err := tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		tb.Fatalf("failed to start Postgres container: %v", err)
	}
	tb.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tb.Fatalf("failed to get Postgres DSN: %v", err)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		tb.Fatalf("failed to connect to Postgres: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql.DB: %v", err)
	}
	if err := migrations.Up(sqlDB); err != nil {
		tb.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// MakeRequest sends a request through app without a network listener.
func MakeRequest(app *fiber.App, method, path, body string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}
