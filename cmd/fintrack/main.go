package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rumor-ml/commons.systems/fintrack/internal/dedupe"
	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
	"github.com/rumor-ml/commons.systems/fintrack/internal/registry"
	"github.com/rumor-ml/commons.systems/fintrack/internal/rules"
	"github.com/rumor-ml/commons.systems/fintrack/internal/scanner"
	"github.com/rumor-ml/commons.systems/fintrack/internal/store"
	"github.com/rumor-ml/commons.systems/fintrack/internal/ui"
)

const version = "0.1.0"

var (
	versionFlag = flag.Bool("version", false, "Show version")

	inputDir  = flag.String("input", "", "Input directory containing bank exports (required)")
	dbPath    = flag.String("db", "fintrack.db", "SQLite database file")
	userEmail = flag.String("user", "", "Email of the importing user (required)")
	rulesFile = flag.String("rules", "", "Category rules file (default: embedded rules)")
	dryRun    = flag.Bool("dry-run", false, "Parse and report without writing to the database")
	verbose   = flag.Bool("verbose", false, "Show detailed parsing logs")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `fintrack - import bank exports into a fintrack database

Usage:
  fintrack [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Import every export under ~/exports for one user
  fintrack -input ~/exports -db fintrack.db -user alice@example.com

  # See what would be imported without writing
  fintrack -input ~/exports -user alice@example.com -dry-run

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("fintrack version %s\n", version)
		os.Exit(0)
	}

	if *inputDir == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	if *userEmail == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -user flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	if !*verbose {
		ui.Header("Importing Bank Exports")
		ui.Step(1, 4, "Scanning directory")
	} else {
		fmt.Fprintf(os.Stderr, "Scanning directory: %s\n", *inputDir)
	}

	files, err := scanner.New(*inputDir).Scan()
	if err != nil {
		return fmt.Errorf("failed to scan directory %s: %w", *inputDir, err)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Found %d export files\n", len(files))
		for _, f := range files {
			fmt.Fprintf(os.Stderr, "  - %s (bank: %s, detected: %s)\n",
				f.Path, f.Metadata.Bank(), f.Metadata.DetectedAt().Format(time.RFC3339))
		}
	} else {
		ui.Success("Found %d export files", len(files))
	}

	if len(files) == 0 {
		return fmt.Errorf("no export files found in %s (supported extensions: .qfx, .ofx, .csv)", *inputDir)
	}

	reg := registry.New()
	if *verbose {
		fmt.Fprintf(os.Stderr, "Registered parsers: %v\n", reg.ListParsers())
	}

	if !*verbose {
		ui.Step(2, 4, "Parsing export files")
	}

	var candidates []domain.Candidate
	for i, file := range files {
		p, err := reg.FindParser(file.Path)
		if err != nil {
			return fmt.Errorf("failed to find parser for %s: %w", file.Path, err)
		}

		if *verbose {
			fmt.Fprintf(os.Stderr, "  Parsing %s with %s parser\n", file.Path, p.Name())
		} else {
			fmt.Fprintf(os.Stderr, "\r  Progress: %d/%d files...", i+1, len(files))
		}

		f, err := os.Open(file.Path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file.Path, err)
		}

		parsed, err := p.Parse(ctx, f, file.Metadata)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse failed for file %d of %d (%s): %w", i+1, len(files), file.Path, err)
		}

		candidates = append(candidates, parsed...)
	}
	if !*verbose {
		fmt.Fprintf(os.Stderr, "\r  Progress: %d/%d files - Complete!\n", len(files), len(files))
	}

	if !*verbose {
		ui.Step(3, 4, "Removing transfer pairs and categorizing")
	}

	candidates, removedTransfers := dedupe.FilterTransferPairs(candidates)
	if removedTransfers > 0 {
		ui.Info("Removed %d matched transfer transactions", removedTransfers)
	}

	engine, err := loadRules()
	if err != nil {
		return err
	}
	engine.Categorize(candidates)

	uncategorized := 0
	for _, c := range candidates {
		if c.Category == "" {
			uncategorized++
		}
	}
	if uncategorized > 0 {
		ui.Warning("%d transactions have no category and will be skipped", uncategorized)
		if !*verbose {
			ui.Info("Run with -verbose to see them, or add rules with -rules")
		} else {
			for _, c := range candidates {
				if c.Category == "" {
					fmt.Fprintf(os.Stderr, "  - %s %s %.2f\n", c.Date, c.Vendor, c.Amount)
				}
			}
		}
	}

	if *dryRun {
		fmt.Printf("Dry run complete. Would import up to %d transactions (%d uncategorized, %d transfers removed).\n",
			len(candidates)-uncategorized, uncategorized, removedTransfers)
		return nil
	}

	if !*verbose {
		ui.Step(4, 4, "Writing to database")
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", *dbPath, err)
	}
	defer st.Close()

	user, err := resolveUser(ctx, st, *userEmail)
	if err != nil {
		return err
	}

	existing, err := st.ExistingKeys(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load existing transactions: %w", err)
	}

	accepted, stats := dedupe.NewDetector(existing).Screen(candidates)
	created, err := st.ImportTransactions(ctx, user.ID, accepted)
	if err != nil {
		return fmt.Errorf("failed to import transactions: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	ui.Success("Imported %d transactions for %s", created, ui.BlueText(user.Email))
	if stats.Skipped > 0 {
		ui.Info("Skipped %d duplicates (of %d parsed)", stats.Skipped, stats.Total)
	}

	return nil
}

func loadRules() (*rules.Engine, error) {
	if *rulesFile != "" {
		engine, err := rules.LoadFromFile(*rulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules file: %w", err)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d custom rules from %s\n", len(engine.GetRules()), *rulesFile)
		}
		return engine, nil
	}

	engine, err := rules.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules: %w", err)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d embedded rules\n", len(engine.GetRules()))
	}
	return engine, nil
}

// resolveUser finds the importing user by email, creating the account on
// first use with a name derived from the email.
func resolveUser(ctx context.Context, st *store.Store, email string) (*domain.User, error) {
	user, err := st.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user %s: %w", email, err)
	}

	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	user, err = st.CreateUser(ctx, name, email, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	ui.Info("Created user %s (%s)", name, email)
	return user, nil
}
