package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/erazemk/poshledger/internal/api"
	"github.com/erazemk/poshledger/internal/auth"
	"github.com/erazemk/poshledger/internal/blob"
	"github.com/erazemk/poshledger/internal/db"
	"github.com/erazemk/poshledger/internal/model"
	"github.com/erazemk/poshledger/internal/store"
	"github.com/erazemk/poshledger/internal/web"
)

type serveCmd struct {
	dbPath    string
	addr      string
	uploads   string
	adminUser string
	logPath   string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the web server" }
func (*serveCmd) Usage() string {
	return `poshledger serve [-db <path>] [-addr <host:port>] [-uploads <dir>] [-user <name>] [-log <path>]

  Serves the web UI and the JSON API. On first run the database is created
  together with an admin account whose password is printed once.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", envOr(envDB, defaultDBPath), "SQLite database path ($"+envDB+")")
	f.StringVar(&c.addr, "addr", envOr(envAddr, ":8080"), "listen address ($"+envAddr+")")
	f.StringVar(&c.uploads, "uploads", envOr(envUploads, "uploads"), "directory for uploaded images ($"+envUploads+")")
	f.StringVar(&c.adminUser, "user", "admin", "admin username created on first run")
	f.StringVar(&c.logPath, "log", envOr(envLog, ""), "log file path, in addition to stdout/stderr ($"+envLog+")")
}

func (c *serveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", f.Arg(0))
		return subcommands.ExitUsageError
	}

	closeLog, err := setupLogger(c.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeLog()

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(c.dbPath); os.IsNotExist(err) {
		database, password, err := initDatabase(c.dbPath, c.adminUser)
		if err != nil {
			slog.Error("failed to initialize database", "error", err)
			return subcommands.ExitFailure
		}
		database.Close()

		printInitResult(c.dbPath, c.adminUser, password)
		fmt.Println()
	}

	database, err := openDatabase(c.dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return subcommands.ExitFailure
	}
	defer database.Close()

	slog.Info("database ready", "path", c.dbPath)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		return subcommands.ExitFailure
	}

	if n, err := store.PurgeExpiredTokens(context.Background(), database, time.Now()); err != nil {
		slog.Warn("failed to purge revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged expired revocations", "count", n)
	}

	blobs, err := blob.New(c.uploads)
	if err != nil {
		slog.Error("failed to open upload directory", "error", err)
		return subcommands.ExitFailure
	}

	apiRouter := api.NewRouter(database, blobs, jwtSecret)
	webRouter, err := web.NewRouter(database, blobs, jwtSecret)
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		return subcommands.ExitFailure
	}

	// Combine: API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              c.addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", c.addr, "uploads", blobs.Dir)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		return subcommands.ExitFailure
	}

	slog.Info("server stopped, closing database")
	return subcommands.ExitSuccess
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(format string, err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf(format, err)
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail("ensuring schema: %w", err)
	}

	password, err := createAccount(context.Background(), database, adminUsername, model.RoleAdmin)
	if err != nil {
		return fail("creating admin user: %w", err)
	}

	return database, password, nil
}

// createAccount adds a user with a generated password and returns the password.
func createAccount(ctx context.Context, database *sql.DB, username, role string) (string, error) {
	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	if _, err := store.CreateUser(ctx, database, username, hash, role); err != nil {
		return "", err
	}
	return password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
