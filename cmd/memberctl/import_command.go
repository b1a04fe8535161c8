package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/memberdesk/internal/app"
	"github.com/JonMunkholm/memberdesk/internal/core"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var mode string
	var strict bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import members from an .xlsx or .csv file",
		Long: "Import members from the first sheet of a spreadsheet. Rows are matched to\n" +
			"existing members by membership ID, CIN, email, phone and then full name.\n" +
			"Modes: upsert (default) merges matches, skip leaves them alone, append\n" +
			"always creates.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateMode(mode); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			data, err := readImportFile(args[0], cfg.Import.MaxFileSize)
			if err != nil {
				return err
			}

			runCtx, cancel := context.WithTimeout(cmd.Context(), cfg.Import.Timeout)
			defer cancel()

			var summary *core.ImportSummary
			err = ctx.withApp(runCtx, func(ctx context.Context, a *app.App) error {
				var err error
				summary, err = a.Service.ImportFile(ctx, data, core.ParseImportMode(mode))
				return err
			})
			if err != nil {
				return err
			}
			if err := writeJSON(cmd, summary); err != nil {
				return err
			}
			if strict && summary.Results.Failed > 0 {
				return fmt.Errorf("%d of %d rows failed", summary.Results.Failed, summary.Rows)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(core.ModeUpsert), "Import mode: upsert, skip or append")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any row fails")
	return cmd
}

// validateMode rejects typos on the command line. The HTTP surface falls
// back to upsert instead.
func validateMode(mode string) error {
	switch core.ImportMode(strings.ToLower(strings.TrimSpace(mode))) {
	case core.ModeUpsert, core.ModeSkip, core.ModeAppend:
		return nil
	}
	return fmt.Errorf("unknown import mode %q (want upsert, skip or append)", mode)
}

func readImportFile(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%s is %d bytes, the import limit is %d", path, info.Size(), maxSize)
	}
	return os.ReadFile(path)
}
