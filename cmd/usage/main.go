package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"server/internal/infra"
	"server/internal/session"
	"server/internal/store"
)

// usage inspects and maintains the persisted session ledger. It speaks to the
// same Postgres rows the gateway uses, so it must not run against a live
// gateway mid-transcription.
func main() {
	var (
		resetGuestFlag   bool
		clearAccountFlag bool
	)
	flag.BoolVar(&resetGuestFlag, "reset-guest", false, "reset the guest usage counter to zero")
	flag.BoolVar(&clearAccountFlag, "clear-account", false, "delete the stored account, reverting to guest")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "usage").Logger()

	kv := store.NewPostgres(pool)
	if err := kv.Init(ctx); err != nil {
		exitWithError(fmt.Errorf("failed to prepare schema: %w", err))
	}

	sess := session.NewManager(kv, logger)
	if err := sess.Load(ctx); err != nil {
		exitWithError(fmt.Errorf("failed to load session state: %w", err))
	}

	if clearAccountFlag {
		if err := sess.Logout(ctx); err != nil {
			exitWithError(fmt.Errorf("failed to clear account: %w", err))
		}
		fmt.Println("account cleared")
	}
	if resetGuestFlag {
		if err := sess.ResetGuestUsage(ctx); err != nil {
			exitWithError(fmt.Errorf("failed to reset guest usage: %w", err))
		}
		fmt.Println("guest usage reset")
	}

	if acct := sess.Account(); acct != nil {
		fmt.Printf("account: %s <%s> plan=%s\n", acct.Name, acct.Email, acct.Plan)
	} else {
		fmt.Println("account: none (guest)")
	}
	ledger := sess.Ledger()
	fmt.Printf("usage: %.1f / %.0f minutes (%.1f remaining)\n", ledger.Used, ledger.Ceiling, ledger.Remaining())
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
