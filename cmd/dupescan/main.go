package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/app"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/config"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "scan", "watch").
func newApp(operation, parameters string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation, parameters)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "dupescan",
	Short: "Content fingerprinting and duplicate detection for images and PDFs",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Concurrency: %d\n", cfg.Scan.Concurrency)
		fmt.Printf("PDF Tool:    %s (timeout %dms)\n", cfg.PDF.Tool, cfg.PDF.TimeoutMS)
		fmt.Printf("Threshold:   %.1f%%\n", cfg.Similarity.ThresholdPercent)
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan [PATH]",
	Short: "Fingerprint files and store the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		a, err := newApp("scan", fmt.Sprintf("%s recursive=%t", target, recursive))
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := a.ScanPath(ctx, target, recursive)
		if err != nil {
			a.MarkFailed()
			return fmt.Errorf("scan failed: %w", err)
		}
		if summary.Failed > 0 {
			a.MarkFailed()
		}

		fmt.Printf("Scanned %d file(s), %d failed, %d skipped\n",
			summary.Scanned, summary.Failed, summary.Skipped)
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch [PATH]",
	Short: "Continuously fingerprint files as they appear or change",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		a, err := newApp("watch", target)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s (Ctrl-C to stop)\n", target)
		if err := a.WatchPath(ctx, target); err != nil && !errors.Is(err, context.Canceled) {
			a.MarkFailed()
			return fmt.Errorf("watch failed: %w", err)
		}
		return nil
	},
}

// dupes command
var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Find near-duplicate images among stored fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		a, err := newApp("dupes", "")
		if err != nil {
			return err
		}
		defer a.Close()

		matches, err := a.FindDuplicates(threshold)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			fmt.Println("No duplicates found.")
			return nil
		}

		for _, m := range matches {
			fmt.Printf("%6.2f%%  %-10s  %s\n         %s\n",
				m.Similarity, m.Kind, m.A, m.B)
		}
		fmt.Printf("%d duplicate pair(s)\n", len(matches))
		return nil
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check FILE_A FILE_B",
	Short: "Compare two files directly",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("check", "")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmp, err := a.CheckFiles(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		if cmp.Identical {
			fmt.Println("Identical: yes (byte-for-byte)")
		} else {
			fmt.Println("Identical: no")
		}
		if cmp.CanonicalIdentical != nil {
			fmt.Printf("Canonically identical: %t\n", *cmp.CanonicalIdentical)
		}
		if cmp.Similarities != nil {
			for kind, pct := range cmp.Similarities {
				fmt.Printf("%-10s %6.2f%%\n", kind, pct)
			}
		}
		if cmp.SimHashSimilarity != nil {
			fmt.Printf("Text similarity: %6.2f%%\n", *cmp.SimHashSimilarity)
		}
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status PATH",
	Short: "Show the stored fingerprint of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("status", "")
		if err != nil {
			return err
		}
		defer a.Close()

		record, pages, err := a.GetStatus(args[0])
		if err != nil {
			return err
		}
		if record == nil {
			fmt.Println("Not scanned.")
			return nil
		}

		fmt.Printf("Path:       %s\n", record.Path)
		fmt.Printf("Type:       %s\n", record.FileType)
		fmt.Printf("Size:       %d bytes\n", record.SizeBytes)
		fmt.Printf("SHA-256:    %s\n", record.SHA256Raw)
		if record.SHA256Canonical != nil {
			fmt.Printf("Canonical:  %s\n", *record.SHA256Canonical)
		}
		if record.FileType == model.FileTypeImage && record.PHash != nil {
			fmt.Printf("Dimensions: %dx%d\n", deref(record.Width), deref(record.Height))
			fmt.Printf("pHash:      %s\n", *record.PHash)
			fmt.Printf("dHash:      %s\n", *record.DHash)
			fmt.Printf("avgHash:    %s\n", *record.AvgHash)
			fmt.Printf("colorHash:  %s\n", *record.ColorHash)
			if record.ExifDatetime != nil {
				fmt.Printf("EXIF time:  %s\n", record.ExifDatetime.Format("2006-01-02 15:04:05"))
			}
		}
		if record.FileType == model.FileTypePDF {
			if record.PDFPages != nil {
				fmt.Printf("Pages:      %d\n", *record.PDFPages)
			}
			if record.PDFHasText != nil {
				fmt.Printf("Has text:   %t\n", *record.PDFHasText)
			}
			if record.PDFSimHash != nil {
				fmt.Printf("SimHash:    %016x\n", *record.PDFSimHash)
			}
			for _, p := range pages {
				fmt.Printf("  page %3d  phash=%s  %dx%d\n", p.PageIndex, p.PHash, p.Width, p.Height)
			}
		}
		fmt.Printf("Scanned at: %s\n", record.ScannedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored fingerprint records",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("list", "")
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.ListFiles()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No files recorded.")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%-5s  %10d  %s  %s\n",
				r.FileType, r.SizeBytes,
				r.ScannedAt.Format("2006-01-02 15:04:05"), r.Path)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View scan run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history", "")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No scan runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt != nil {
				d := run.FinishedAt.Sub(run.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-10s  %s  %-10s  %s\n",
				run.ID,
				run.Operation,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status,
				duration,
			)
		}
		return nil
	},
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dupesCmd)
	dupesCmd.Flags().Float64P("threshold", "t", 0, "Similarity threshold percent (default from config)")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
}
