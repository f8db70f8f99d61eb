// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package faces downloads AI-generated portrait photos and derives a
// grayscale companion for each, building the people image set the tree
// generator attaches portraits from.
package faces

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pdiddy/gramps-faker/internal/httputil"
	"github.com/pdiddy/gramps-faker/internal/imaging"
	"github.com/pdiddy/gramps-faker/pkg/types"
)

// faceAPIBase serves a fresh generated face on every request. Declared
// as a var so tests can substitute an httptest server.
var faceAPIBase = "https://thispersondoesnotexist.com"

const (
	peopleDir    = "people"
	colorDir     = "color"
	grayscaleDir = "grayscale"

	sourceName = "thispersondoesnotexist"
)

// BatchResult holds the outcome of a face-fetching run.
type BatchResult struct {
	Saved  int
	Failed int
}

// Total returns the number of face pairs processed.
func (r BatchResult) Total() int {
	return r.Saved + r.Failed
}

// HasFailures reports whether any pairs failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchFace downloads one face pair: a color portrait saved as-is, and
// a second download converted to grayscale. The endpoint returns a
// different face every time, so the two shots show different people;
// the tree mixes eras anyway. The returned entries describe the two
// saved files for the batch manifest.
func FetchFace(ctx context.Context, client *http.Client, index int, cfg types.FacesConfig, w io.Writer) ([]imaging.ManifestEntry, error) {
	name := fmt.Sprintf("%05d.jpg", index)
	fmt.Fprintf(w, "fetching: face %s\n", name)

	data, err := httputil.FetchBytes(ctx, client, faceAPIBase, cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("fetching face: %w", err)
	}
	colorPath := filepath.Join(cfg.ImagesDir, peopleDir, colorDir, name)
	if err := imaging.SaveFile(colorPath, data); err != nil {
		return nil, err
	}
	entries := []imaging.ManifestEntry{
		{Name: filepath.Join(colorDir, name), Size: len(data)},
	}

	data, err = httputil.FetchBytes(ctx, client, faceAPIBase, cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("fetching face: %w", err)
	}
	gray, err := imaging.Grayscale(data)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", name, err)
	}
	grayPath := filepath.Join(cfg.ImagesDir, peopleDir, grayscaleDir, name)
	if err := imaging.SaveFile(grayPath, gray); err != nil {
		return nil, err
	}
	return append(entries, imaging.ManifestEntry{
		Name: filepath.Join(grayscaleDir, name),
		Size: len(gray),
	}), nil
}

// FetchBatch downloads n face pairs, printing per-item status and
// returning a summary. It continues after individual failures and
// applies a delay between consecutive pairs.
func FetchBatch(ctx context.Context, client *http.Client, n int, cfg types.FacesConfig, w io.Writer) BatchResult {
	var result BatchResult
	var saved []imaging.ManifestEntry
	for i := 1; i <= n; i++ {
		if i > 1 && cfg.FetchDelay > 0 {
			time.Sleep(cfg.FetchDelay)
		}
		entries, err := FetchFace(ctx, client, i, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  face %05d (%v)\n", i, err)
			result.Failed++
			continue
		}
		saved = append(saved, entries...)
		result.Saved++
	}
	fmt.Fprintf(w, "\nBatch summary: %d saved, %d failed (total: %d)\n",
		result.Saved, result.Failed, result.Total())

	if result.Saved > 0 {
		manifest := &imaging.Manifest{
			Source:    sourceName,
			Count:     result.Saved,
			FetchedAt: time.Now().UTC(),
			Files:     saved,
		}
		if err := imaging.WriteManifest(filepath.Join(cfg.ImagesDir, peopleDir), manifest); err != nil {
			fmt.Fprintf(w, "warning: writing manifest: %v\n", err)
		}
	}
	return result
}
