package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gramps-faker/internal/db"
	"github.com/pdiddy/gramps-faker/internal/grampsxml"
	"github.com/pdiddy/gramps-faker/internal/tree"
	"github.com/pdiddy/gramps-faker/pkg/types"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Generate a random family tree as a Gramps XML file",
	Long: `Tree invents a plausible family tree: a starting person born in recent
decades, their ancestors going back several generations, with marriages,
siblings, deaths, notes, and places. Images found under the images directory
are attached as portraits and family photos. The result is written as an
uncompressed .gramps XML file ready for import.

Records are staged in an in-memory SQLite database while the tree is built;
pass --db to keep the staging database on disk and inspect it afterwards.`,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().String("out", "random_tree.gramps", "output file")
	treeCmd.Flags().Int("generations", 6, "ancestor generations to aim for")
	treeCmd.Flags().Int("places", 50, "number of places to invent")
	treeCmd.Flags().Uint64("seed", 0, "random seed (0 derives one from the clock)")
	treeCmd.Flags().String("db", "", "stage records in this SQLite file instead of memory")
	treeCmd.Flags().String("images-dir", ".", "directory scanned for attachable .jpg images")

	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	generations, _ := cmd.Flags().GetInt("generations")
	places, _ := cmd.Flags().GetInt("places")
	seed, _ := cmd.Flags().GetUint64("seed")
	dbPath, _ := cmd.Flags().GetString("db")
	imagesDir, _ := cmd.Flags().GetString("images-dir")

	if generations < 1 {
		return fmt.Errorf("generations must be at least 1")
	}
	if places < 1 {
		return fmt.Errorf("places must be at least 1")
	}

	if dbPath == "" {
		dbPath = db.MemoryPath
	}
	store, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := types.TreeConfig{
		Generations: generations,
		Places:      places,
		Seed:        seed,
		OutputPath:  out,
		ImagesDir:   imagesDir,
		DBPath:      dbPath,
	}

	gen := tree.NewGenerator(store, cfg)
	fmt.Printf("Generating tree (seed %d)\n", gen.Seed())

	counts, err := gen.Build(context.Background())
	if err != nil {
		return err
	}

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		return err
	}
	if err := grampsxml.WriteFile(out, snap, version); err != nil {
		return err
	}

	fmt.Printf("Wrote %s: %d people, %d families, %d events, %d places, %d media, %d notes\n",
		out, counts.People, counts.Families, counts.Events, counts.Places, counts.Media, counts.Notes)
	return nil
}
