package main

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amaumene/syllabus-merge/internal/app"
	"github.com/amaumene/syllabus-merge/internal/domain"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Prepend a title to one document without starting the server",
	Long: `Merge runs the same pipeline as the HTTP endpoint for a single document.
The source is either fetched from --url or read from --in. The result is
written to --out, or to stdout when --out is "-".`,
	Example: `  syllabus-merge merge --title "CS101 Syllabus" --url https://files.example.edu/cs101.docx
  syllabus-merge merge --title "CS101 Syllabus" --in cs101.docx --out cs101-titled.docx`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("title", "", "title paragraph text (required)")
	mergeCmd.Flags().String("url", "", "URL of the source .docx")
	mergeCmd.Flags().String("in", "", "path of a local source .docx")
	mergeCmd.Flags().String("out", "merged.docx", `output path, or "-" for stdout`)
	mergeCmd.Flags().Duration("fetch-timeout", 0, "timeout for fetching the source document (default 30s)")
	mergeCmd.Flags().Int64("max-document-bytes", 0, "largest source document accepted (default 32 MiB)")
	_ = mergeCmd.MarkFlagRequired("title")
	mergeCmd.MarkFlagsMutuallyExclusive("url", "in")
	mergeCmd.MarkFlagsOneRequired("url", "in")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	sourceURL, _ := cmd.Flags().GetString("url")
	inPath, _ := cmd.Flags().GetString("in")
	outPath, _ := cmd.Flags().GetString("out")

	svc := app.NewMergeService(cfg)

	var out []byte
	if inPath != "" {
		data, err := os.ReadFile(inPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", inPath, err)
		}
		out, err = svc.MergeDocument(data, title)
		if err != nil {
			return describe(err)
		}
	} else {
		out, err = svc.Merge(cmd.Context(), domain.NewMergeRequest(title, sourceURL))
		if err != nil {
			return describe(err)
		}
	}

	if outPath == "-" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	log.WithFields(log.Fields{
		"out":   outPath,
		"bytes": len(out),
	}).Info("merged document written")
	return nil
}

// describe prefixes pipeline errors with the stage that failed.
func describe(err error) error {
	switch {
	case errors.Is(err, domain.ErrSourceFetch):
		return fmt.Errorf("fetch: %w", err)
	case errors.Is(err, domain.ErrDocumentParse), errors.Is(err, domain.ErrEmptyDocument):
		return fmt.Errorf("document: %w", err)
	default:
		return err
	}
}
