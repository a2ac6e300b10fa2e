package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/scan-pay/scan_pay/internal/api"
	"github.com/scan-pay/scan_pay/internal/config"
	"github.com/scan-pay/scan_pay/internal/infra"
	"github.com/scan-pay/scan_pay/internal/journal"
	"github.com/scan-pay/scan_pay/internal/logging"
	"github.com/scan-pay/scan_pay/internal/scan"
	"github.com/scan-pay/scan_pay/internal/session"
)

// consolePrompt collects PIN codes from the terminal operator. An empty line
// cancels the payment attempt.
type consolePrompt struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *consolePrompt) CollectPIN(_ context.Context) (string, error) {
	fmt.Fprint(p.out, "pin> ")
	if !p.in.Scan() {
		return "", scan.ErrUserCancelled
	}
	code := strings.TrimSpace(p.in.Text())
	if code == "" {
		return "", scan.ErrUserCancelled
	}
	return code, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, cleanup, err := buildSessionStore(ctx, cfg)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer cleanup()
	seedSession(ctx, tokens, logger)

	ledger, closeJournal, err := buildJournal(ctx, cfg)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer closeJournal()

	client := api.NewHTTPClient(
		cfg.BackendURL,
		&http.Client{Timeout: cfg.HTTPTimeout},
		tokens,
		logger,
	)

	stdin := bufio.NewScanner(os.Stdin)
	orch := scan.NewOrchestrator(scan.Deps{
		Cfg:       cfg,
		Client:    client,
		Camera:    scan.FileCamera{Path: os.Getenv("IMAGE_SOURCE")},
		PinPrompt: &consolePrompt{in: stdin, out: os.Stdout},
		Logger:    logger,
		Journal:   ledger,
	})

	// A shutdown signal aborts whatever phase the current charge is in.
	go func() {
		<-ctx.Done()
		orch.Cancel()
	}()

	logger.Info("terminal ready",
		"terminal_id", cfg.TerminalID,
		"backend", cfg.BackendURL,
		"currency", cfg.Currency)

	run(ctx, orch, ledger, stdin, logger)
	logger.Info("terminal exited cleanly")
}

func run(ctx context.Context, orch *scan.Orchestrator, ledger journal.Journal, stdin *bufio.Scanner, logger *slog.Logger) {
	for {
		fmt.Print("amount> ")
		if !stdin.Scan() || ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(stdin.Text())

		switch line {
		case "":
			continue
		case "exit", "quit":
			return
		case "history":
			printHistory(ctx, ledger)
		default:
			result, err := orch.Charge(ctx, line)
			if err != nil {
				fmt.Printf("charge failed: %s\n", scan.UserMessage(err))
				logger.Error("charge failed", "error", err)
				continue
			}
			if result.RequestID != "" {
				fmt.Printf("charge %s (request %s)\n", result.Status, result.RequestID)
			} else {
				fmt.Printf("charge %s\n", result.Status)
			}
		}
	}
}

func printHistory(ctx context.Context, ledger journal.Journal) {
	records, err := ledger.Recent(ctx, 10)
	if err != nil {
		fmt.Printf("history unavailable: %v\n", err)
		return
	}
	for _, record := range records {
		status := "in progress"
		if record.Outcome != nil {
			status = record.Outcome.Result
		}
		fmt.Printf("%s  %d %s  %s\n",
			record.StartedAt.Format("15:04:05"), record.AmountMinor, record.Currency, status)
	}
}

// buildSessionStore prefers Redis so tokens survive terminal restarts, and
// falls back to process memory when no REDIS_URL is configured.
func buildSessionStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(), func() {}, nil
	}
	client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client, cfg.TerminalID), func() { _ = client.Close() }, nil
}

// buildJournal prefers Postgres for a durable attempt trail, and falls back
// to process memory when no DATABASE_URL is configured.
func buildJournal(ctx context.Context, cfg config.Config) (journal.Journal, func(), error) {
	if cfg.DatabaseURL == "" {
		return journal.NewInMemory(), func() {}, nil
	}
	pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return journal.NewPostgresJournal(pool), pool.Close, nil
}

// seedSession installs bootstrap tokens from the environment when the store
// is empty. Provisioning real terminals happens out of band.
func seedSession(ctx context.Context, tokens session.Store, logger *slog.Logger) {
	access := os.Getenv("ACCESS_TOKEN")
	refresh := os.Getenv("REFRESH_TOKEN")
	if access == "" && refresh == "" {
		return
	}
	if _, err := tokens.Get(ctx); err == nil {
		return
	} else if !errors.Is(err, session.ErrNoSession) {
		logger.Warn("session store unreachable", "error", err)
		return
	}
	if err := tokens.Set(ctx, session.TokenPair{AccessToken: access, RefreshToken: refresh}); err != nil {
		logger.Warn("seed session failed", "error", err)
	}
}
