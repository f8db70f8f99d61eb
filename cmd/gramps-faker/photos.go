package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/gramps-faker/internal/photos"
	"github.com/pdiddy/gramps-faker/internal/secrets"
	"github.com/pdiddy/gramps-faker/pkg/types"
)

var photosCmd = &cobra.Command{
	Use:   "photos [query]",
	Short: "Download themed stock photos from Pexels",
	Long: `Photos searches Pexels for the query and downloads the results into
<images-dir>/<query>/, alternating between color originals and grayscale
derivatives. The query names the image set directory, so it must be a single
word; use a theme like "family" or "wedding" to build the sets the tree
command attaches.

The API key is read from --api-key, the GRAMPS_FAKER_PEXELS_API_KEY or
PEXELS_API_KEY environment variables, or .secrets/pexels-api-key.`,
	Args: cobra.ExactArgs(1),
	RunE: runPhotos,
}

func init() {
	photosCmd.Flags().Int("count", 10, "photos to download per variant")
	photosCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	photosCmd.Flags().Duration("delay", 0, "delay between consecutive downloads")
	photosCmd.Flags().String("images-dir", "images", "base directory for image sets")
	photosCmd.Flags().String("api-key", "", "Pexels API key")

	rootCmd.AddCommand(photosCmd)
}

func runPhotos(cmd *cobra.Command, args []string) error {
	query := args[0]

	count, _ := cmd.Flags().GetInt("count")
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	imagesDir, _ := cmd.Flags().GetString("images-dir")

	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = viper.GetString("pexels_api_key")
	}
	if apiKey == "" {
		apiKey = secrets.Lookup(loadedSecrets, secrets.KeyPexels, "PEXELS_API_KEY")
	}

	cfg := types.PhotosConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		APIKey:     apiKey,
		FetchDelay: delay,
		ImagesDir:  imagesDir,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	result, err := photos.FetchPhotos(context.Background(), client, query, count, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d photo(s) failed to download", result.Failed)
	}
	return nil
}
