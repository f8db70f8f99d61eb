// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package photos downloads themed stock photos from the Pexels API,
// alternating color originals and grayscale derivatives to build the
// family and wedding image sets.
package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/gramps-faker/internal/httputil"
	"github.com/pdiddy/gramps-faker/internal/imaging"
	"github.com/pdiddy/gramps-faker/pkg/types"
)

// pexelsAPIBase is the Pexels photo search endpoint. Declared as a var
// so tests can substitute an httptest server.
var pexelsAPIBase = "https://api.pexels.com/v1/search"

const (
	// One search page covers the whole batch; Pexels caps per_page at 80
	// plus change, and requesting 100 returns the maximum.
	perPage = 100

	colorDir     = "color"
	grayscaleDir = "grayscale"

	sourceName = "pexels"
)

// pexelsResponse captures the fields we need from a Pexels search.
type pexelsResponse struct {
	Photos []pexelsPhoto `json:"photos"`
}

type pexelsPhoto struct {
	Src pexelsSrc `json:"src"`
}

type pexelsSrc struct {
	Large string `json:"large"`
}

// BatchResult holds the outcome of a photo-fetching run.
type BatchResult struct {
	Saved  int
	Failed int
}

// Total returns the number of photos processed.
func (r BatchResult) Total() int {
	return r.Saved + r.Failed
}

// HasFailures reports whether any downloads failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ValidateQuery rejects queries the image-set layout cannot hold: the
// query names the set's directory, so it must be one non-empty word.
func ValidateQuery(query string) error {
	if query == "" {
		return fmt.Errorf("query must not be empty")
	}
	if strings.Contains(query, " ") {
		return fmt.Errorf("query must be a single word, got %q", query)
	}
	return nil
}

// searchPhotos asks Pexels for photos matching query and returns their
// large-size URLs.
func searchPhotos(ctx context.Context, client *http.Client, query string, cfg types.PhotosConfig) ([]string, error) {
	params := url.Values{
		"query":    {query},
		"per_page": {fmt.Sprintf("%d", perPage)},
	}
	reqURL := pexelsAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	// Pexels wants the bare key, no Bearer prefix.
	req.Header.Set("Authorization", cfg.APIKey)
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Pexels API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Pexels API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading Pexels response: %w", err)
	}
	var pr pexelsResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("parsing Pexels response: %w", err)
	}

	urls := make([]string, 0, len(pr.Photos))
	for _, p := range pr.Photos {
		if p.Src.Large != "" {
			urls = append(urls, p.Src.Large)
		}
	}
	return urls, nil
}

// FetchPhotos downloads up to 2*count photos for query into
// <images-dir>/<query>/, alternating variants starting with color.
// Filenames keep the global position, so the color set holds the odd
// numbers (00001, 00003, ...) and the grayscale set the even ones.
func FetchPhotos(ctx context.Context, client *http.Client, query string, count int, cfg types.PhotosConfig, w io.Writer) (BatchResult, error) {
	var result BatchResult

	if err := ValidateQuery(query); err != nil {
		return result, err
	}
	if cfg.APIKey == "" {
		return result, fmt.Errorf("Pexels API key is required (set PEXELS_API_KEY or .secrets/pexels-api-key)")
	}

	urls, err := searchPhotos(ctx, client, query, cfg)
	if err != nil {
		return result, err
	}
	if len(urls) == 0 {
		fmt.Fprintf(w, "no photos found for %q\n", query)
		return result, nil
	}

	setDir := filepath.Join(cfg.ImagesDir, query)
	var saved []imaging.ManifestEntry
	for i, photoURL := range urls {
		if i == count*2 {
			break
		}
		if i > 0 && cfg.FetchDelay > 0 {
			time.Sleep(cfg.FetchDelay)
		}

		name := fmt.Sprintf("%05d.jpg", i+1)
		variant := colorDir
		if i%2 == 1 {
			variant = grayscaleDir
		}

		size, err := fetchPhoto(ctx, client, photoURL, filepath.Join(setDir, variant, name), variant, cfg)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "saved: %s\n", filepath.Join(query, variant, name))
		saved = append(saved, imaging.ManifestEntry{
			Name:      filepath.Join(variant, name),
			SourceURL: photoURL,
			Size:      size,
		})
		result.Saved++
	}
	fmt.Fprintf(w, "\nBatch summary: %d saved, %d failed (total: %d)\n",
		result.Saved, result.Failed, result.Total())

	if result.Saved > 0 {
		manifest := &imaging.Manifest{
			Source:    sourceName,
			Query:     query,
			Count:     result.Saved,
			FetchedAt: time.Now().UTC(),
			Files:     saved,
		}
		if err := imaging.WriteManifest(setDir, manifest); err != nil {
			fmt.Fprintf(w, "warning: writing manifest: %v\n", err)
		}
	}
	return result, nil
}

// fetchPhoto downloads one photo, converting to grayscale when the
// variant asks for it, and reports the size of the file it wrote.
func fetchPhoto(ctx context.Context, client *http.Client, photoURL, path, variant string, cfg types.PhotosConfig) (int, error) {
	data, err := httputil.FetchBytes(ctx, client, photoURL, cfg.UserAgent)
	if err != nil {
		return 0, err
	}
	if variant == grayscaleDir {
		if data, err = imaging.Grayscale(data); err != nil {
			return 0, err
		}
	}
	if err := imaging.SaveFile(path, data); err != nil {
		return 0, err
	}
	return len(data), nil
}
