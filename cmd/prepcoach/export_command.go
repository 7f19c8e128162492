package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"prepcoach/internal/config"
	"prepcoach/internal/fileutil"
	"prepcoach/internal/logging"
	"prepcoach/internal/services"
	"prepcoach/internal/services/backend"
	"prepcoach/internal/session"
)

type exportResult struct {
	Path      string   `json:"path"`
	Format    string   `json:"format"`
	Bytes     int      `json:"bytes"`
	Interview []string `json:"interviews"`
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export <interview-id>...",
		Short: "Download interview reports as PDF or CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != backend.ExportPDF && format != backend.ExportCSV {
				return services.Wrap(services.ErrValidation, "export", "format",
					fmt.Sprintf("unsupported format %q (use pdf or csv)", format), nil)
			}
			for _, id := range args {
				if err := session.ValidateID(id); err != nil {
					return err
				}
			}
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}

			var payload []byte
			if len(args) == 1 && format == backend.ExportPDF {
				payload, err = client.ExportInterviewPDF(cmd.Context(), args[0])
			} else {
				payload, err = client.ExportBatch(cmd.Context(), format, args)
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if len(payload) == 0 {
				return services.Wrap(services.ErrTransient, "export", "download", "server returned an empty document", nil)
			}

			target, err := exportPath(output, format, args, time.Now())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create export directory: %w", err)
			}
			if err := fileutil.WriteVerified(target, payload, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			ctx.ensureLogger().Info("export written",
				logging.String("path", target),
				logging.String("format", format),
				logging.Int("bytes", len(payload)),
			)

			if ctx.wantJSON() {
				return writeJSON(cmd, exportResult{Path: target, Format: format, Bytes: len(payload), Interview: args})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", backend.ExportPDF, "Document format: pdf or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "File or directory to write (defaults to the current directory)")
	return cmd
}

// exportPath picks the destination file. An existing file is never
// overwritten; a numbered sibling is used instead.
func exportPath(output, format string, ids []string, now time.Time) (string, error) {
	name := fmt.Sprintf("interview-%s.%s", ids[0], format)
	if len(ids) > 1 {
		name = fmt.Sprintf("interviews-%s.%s", now.Format("20060102-150405"), format)
	}

	target := strings.TrimSpace(output)
	switch {
	case target == "":
		target = name
	default:
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		target = expanded
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			target = filepath.Join(target, name)
		}
	}
	return fileutil.UniquePath(target), nil
}
