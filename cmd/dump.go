package cmd

import (
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/loog-project/rulist/internal/store"
	bboltStore "github.com/loog-project/rulist/internal/store/bbolt"
)

var dumpVerbose bool

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Prints the fetch history recorded with --record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dump(cmd, args[0])
	},
}

func init() {
	dumpCmd.Flags().BoolVarP(&dumpVerbose, "verbose", "v", false,
		"Also print every batch including the received users")
	rootCmd.AddCommand(dumpCmd)
}

func dump(cmd *cobra.Command, path string) error {
	history, err := bboltStore.OpenReadOnly(path, store.DefaultCodec)
	if err != nil {
		return fmt.Errorf("opening history %s: %w", path, err)
	}
	defer func() {
		_ = history.Close()
	}()

	var batches []*store.Batch
	if err = history.Walk(func(b *store.Batch) bool {
		batches = append(batches, b)
		return true
	}); err != nil {
		return fmt.Errorf("reading history %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	if len(batches) == 0 {
		_, err = fmt.Fprintf(out, "No fetches recorded in %s\n", path)
		return err
	}

	if _, err = fmt.Fprintln(out, renderBatchesTable(batches, time.Now())); err != nil {
		return err
	}
	if dumpVerbose {
		for _, b := range batches {
			spew.Fdump(out, b)
		}
	}
	return nil
}
