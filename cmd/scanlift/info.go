package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tsawler/scanlift"
	"github.com/tsawler/scanlift/ocr"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the recognition profiles tried on every image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tNAME\tPSM\tOEM")
			for i, p := range ocr.DefaultProfiles() {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i+1, p.Name, p.PageSegMode, p.EngineMode)
			}
			return w.Flush()
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  "Show the configuration read from the environment and report invalid settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(c); err != nil {
					return err
				}
			} else {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "engine\t%s\n", c.OCR.Engine)
				fmt.Fprintf(w, "tesseract\t%s\n", c.OCR.TesseractPath)
				fmt.Fprintf(w, "language\t%s\n", c.OCR.Language)
				fmt.Fprintf(w, "tessdata\t%s\n", c.OCR.TessdataDir)
				fmt.Fprintf(w, "output\t%s\n", c.OCR.Output)
				fmt.Fprintf(w, "pool size\t%d\n", c.OCR.PoolSize)
				fmt.Fprintf(w, "preprocess\t%t\n", c.Preprocess.Enabled)
				fmt.Fprintf(w, "min width\t%d\n", c.Preprocess.MinWidth)
				fmt.Fprintf(w, "max pixels\t%d\n", c.Preprocess.MaxPixels)
				fmt.Fprintf(w, "temp dir\t%s\n", c.TempDir)
				fmt.Fprintf(w, "timeout\t%s\n", c.Timeout)
				fmt.Fprintf(w, "log\t%s/%s\n", c.Log.Level, c.Log.Format)
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return c.Validate()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scanlift %s\n", scanlift.Version)
			fmt.Fprintf(out, "  Git Commit:  %s\n", gitCommit)
			fmt.Fprintf(out, "  Build Time:  %s\n", buildTime)
			fmt.Fprintf(out, "  Go Version:  %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
