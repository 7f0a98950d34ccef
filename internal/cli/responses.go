package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/storybias/internal/store"
)

// responsesCmd moves stored responses to and from CSV
var responsesCmd = &cobra.Command{
	Use:   "responses",
	Short: "Export, import and list stored responses",
	Long: `Stored responses can be exchanged as ;-separated CSV files with one
roundN column per generation round and one row per prompt, the layout of
<model>_responses.csv files.`,
}

var responsesExportCmd = &cobra.Command{
	Use:   "export <model> [file]",
	Short: "Write a model's responses as CSV (stdout when no file is given)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openCheckpoint()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		out := os.Stdout
		if len(args) == 2 {
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("create %s: %w", args[1], err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}
		return st.ExportCSV(context.Background(), out, args[0])
	},
}

var responsesImportCmd = &cobra.Command{
	Use:   "import <model> <file>",
	Short: "Load a model's responses from CSV into the store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openCheckpoint()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[1], err)
		}
		defer func() { _ = f.Close() }()

		ctx := context.Background()
		run, err := st.BeginRun(ctx, []string{args[0]})
		if err != nil {
			return err
		}
		n, err := st.ImportCSV(ctx, f, args[0], run.ID)
		status := store.RunCompleted
		if err != nil {
			status = store.RunFailed
		}
		_ = st.FinishRun(ctx, run.ID, status)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "✓ Imported %d responses for %s\n", n, args[0])
		return nil
	},
}

var responsesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored models, rounds and generation runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openCheckpoint()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		ctx := context.Background()
		models, err := st.Models(ctx)
		if err != nil {
			return err
		}
		for _, name := range models {
			rounds, err := st.Rounds(ctx, name)
			if err != nil {
				return err
			}
			fmt.Printf("%s\trounds %v\n", name, rounds)
		}

		runs, err := st.Runs(ctx)
		if err != nil {
			return err
		}
		for _, run := range runs {
			fmt.Printf("run %s\t%s\t%s\t%v\n", run.ID, run.StartedAt.Format("2006-01-02 15:04"), run.Status, run.Models)
		}
		return nil
	},
}

func openCheckpoint() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Data.Checkpoint)
}

func init() {
	rootCmd.AddCommand(responsesCmd)
	responsesCmd.AddCommand(responsesExportCmd)
	responsesCmd.AddCommand(responsesImportCmd)
	responsesCmd.AddCommand(responsesListCmd)
}
