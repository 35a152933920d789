package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/erazemk/poshledger/internal/model"
	"github.com/erazemk/poshledger/internal/store"
)

type useraddCmd struct {
	dbPath string
	role   string
}

func (*useraddCmd) Name() string     { return "useradd" }
func (*useraddCmd) Synopsis() string { return "create an account with a generated password" }
func (*useraddCmd) Usage() string {
	return `poshledger useradd [-db <path>] [-role user|admin] <username>

  Creates the account and prints its password once.
`
}

func (c *useraddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", envOr(envDB, defaultDBPath), "SQLite database path ($"+envDB+")")
	f.StringVar(&c.role, "role", model.RoleUser, "role of the new account: user or admin")
}

func (c *useraddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "useradd: expected exactly one username")
		return subcommands.ExitUsageError
	}
	if !model.ValidRole(c.role) {
		fmt.Fprintf(os.Stderr, "useradd: invalid role %q\n", c.role)
		return subcommands.ExitUsageError
	}
	username := f.Arg(0)

	password, err := c.run(ctx, username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "useradd: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Account created:\n  Username: %s\n  Role:     %s\n  Password: %s\n", username, c.role, password)
	return subcommands.ExitSuccess
}

func (c *useraddCmd) run(ctx context.Context, username string) (string, error) {
	database, err := openDatabase(c.dbPath)
	if err != nil {
		return "", err
	}
	defer database.Close()

	existing, err := store.GetUserByUsername(ctx, database, username)
	if err != nil {
		return "", err
	}
	if existing.Active() {
		return "", fmt.Errorf("username %s is taken", username)
	}
	return createAccount(ctx, database, username, c.role)
}
