package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gramps-faker/internal/faces"
	"github.com/pdiddy/gramps-faker/pkg/types"
)

var facesCmd = &cobra.Command{
	Use:   "faces [count]",
	Short: "Download generated face portraits in color and grayscale",
	Long: `Faces downloads AI-generated portrait photos and stores each one twice:
the original under people/color/ and a grayscale derivative under
people/grayscale/. Files are numbered 00001.jpg upwards. The tree command
attaches these as person portraits.`,
	Args: cobra.ExactArgs(1),
	RunE: runFaces,
}

func init() {
	facesCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	facesCmd.Flags().Duration("delay", 0, "delay between consecutive downloads")
	facesCmd.Flags().String("images-dir", "images", "base directory for image sets")

	rootCmd.AddCommand(facesCmd)
}

func runFaces(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("count must be a positive integer, got %q", args[0])
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	imagesDir, _ := cmd.Flags().GetString("images-dir")

	cfg := types.FacesConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		FetchDelay: delay,
		ImagesDir:  imagesDir,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	result := faces.FetchBatch(context.Background(), client, n, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d face(s) failed to download", result.Failed)
	}
	return nil
}
