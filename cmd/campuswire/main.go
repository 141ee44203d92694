package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campuswire/internal/app"
	"campuswire/internal/auth"
	"campuswire/internal/config"
	"campuswire/pkg/types"

	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run serves by default. "token" mints a bearer token for local testing.
// ARCHITECTURAL DISCOVERY: main only reports; everything else returns errors to it
func run(args []string, stdout io.Writer) error {
	if len(args) > 0 && args[0] == "token" {
		return issueToken(args[1:], stdout)
	}
	return serve(args)
}

func serve(args []string) error {
	fs := flag.NewFlagSet("campuswire", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CAMPUSWIRE_CONFIG_FILE"), "optional JSON, YAML or TOML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// STEP 1: Load configuration with precedence (file > env > defaults)
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := logs.GetLoggerFromString(cfg.LogLevel)

	// STEP 2: Create application with configuration
	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// STEP 3: Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// STEP 4: Start application
	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("application error: %w", err)
	}

	// STEP 5: Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func issueToken(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	user := fs.String("user", "", "identity id")
	role := fs.String("role", string(types.RoleStudent), "student, professor or admin")
	ttl := fs.Duration("ttl", 0, "token lifetime, defaults to the configured TTL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("-user is required")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	signer, err := auth.NewSigner(cfg.Auth.Secret, cfg.Auth.Issuer, lifetime)
	if err != nil {
		return err
	}
	token, err := signer.Sign(*user, types.Role(*role))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}
