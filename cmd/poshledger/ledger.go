package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/erazemk/poshledger/internal/ledger"
	"github.com/erazemk/poshledger/internal/store"
)

type exportCmd struct {
	dbPath string
	owner  string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a user's items as CSV" }
func (*exportCmd) Usage() string {
	return `poshledger export -owner <username> [-db <path>] [-o <file>]

  Writes every item of the user in the CSV layout the web UI exports.
  Without -o the CSV goes to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", envOr(envDB, defaultDBPath), "SQLite database path ($"+envDB+")")
	f.StringVar(&c.owner, "owner", "", "username whose items are exported")
	f.StringVar(&c.output, "o", "", "output file (default stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *exportCmd) run(ctx context.Context, stdout io.Writer) error {
	database, err := openDatabase(c.dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	owner, err := lookupOwner(ctx, database, c.owner)
	if err != nil {
		return err
	}

	items, err := store.ListItems(ctx, database, owner.UserID, store.DefaultSort)
	if err != nil {
		return err
	}

	if c.output == "" {
		return ledger.WriteCSV(stdout, items)
	}

	f, err := os.Create(c.output)
	if err != nil {
		return err
	}
	if err := ledger.WriteCSV(f, items); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type importCmd struct {
	dbPath string
	owner  string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "add items from a CSV file to a user's ledger" }
func (*importCmd) Usage() string {
	return `poshledger import -owner <username> [-db <path>] <file.csv>

  Imports every valid row of the file. Rows that cannot be read are
  skipped and listed with their line number.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", envOr(envDB, defaultDBPath), "SQLite database path ($"+envDB+")")
	f.StringVar(&c.owner, "owner", "", "username the imported items belong to")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "import: expected exactly one CSV file")
		return subcommands.ExitUsageError
	}
	report, err := c.run(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		return subcommands.ExitFailure
	}
	printReport(os.Stdout, report)
	return subcommands.ExitSuccess
}

func (c *importCmd) run(ctx context.Context, file string) (*ledger.ImportReport, error) {
	database, err := openDatabase(c.dbPath)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	owner, err := lookupOwner(ctx, database, c.owner)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ledger.Import(ctx, owner, f, store.ItemInserter(database))
}

func printReport(w io.Writer, report *ledger.ImportReport) {
	fmt.Fprintf(w, "Imported %d item(s).\n", report.Imported)
	if len(report.Failed) == 0 {
		return
	}
	fmt.Fprintf(w, "Skipped %d line(s):\n", len(report.Failed))
	for _, f := range report.Failed {
		fmt.Fprintf(w, "  line %d: %s\n", f.Line, f.Reason)
	}
}
