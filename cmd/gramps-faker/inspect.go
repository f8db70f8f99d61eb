package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gramps-faker/internal/db"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Query people in a staged tree database",
	Long: `Inspect lists people from a staging database written by tree --db,
with optional filters on surname and birth year. Output is a table by
default; use --json for machine-readable output.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("db", "", "staging database written by tree --db")
	inspectCmd.Flags().String("surname", "", "filter by exact surname")
	inspectCmd.Flags().Int("born-after", 0, "only people born after this year")
	inspectCmd.Flags().Int("born-before", 0, "only people born before this year")
	inspectCmd.Flags().Int("limit", 0, "maximum results (default 20)")
	inspectCmd.Flags().Bool("json", false, "output JSON instead of a table")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		return fmt.Errorf("provide --db pointing at a staging database (generate one with tree --db)")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("staging database %s does not exist", dbPath)
	}

	store, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	surname, _ := cmd.Flags().GetString("surname")
	bornAfter, _ := cmd.Flags().GetInt("born-after")
	bornBefore, _ := cmd.Flags().GetInt("born-before")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	opts := db.QueryOptions{
		Surname:    surname,
		BornAfter:  bornAfter,
		BornBefore: bornBefore,
		MaxResults: limit,
	}

	rows, err := store.QueryPeople(context.Background(), opts)
	if err != nil {
		return err
	}

	if asJSON {
		return db.FormatJSON(rows, os.Stdout)
	}
	db.FormatTable(rows, os.Stdout)
	return nil
}
