// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imaging provides the JPEG plumbing shared by the face and
// photo fetching stages: grayscale conversion, atomic file saves, and
// the manifest written beside each downloaded image set.
package imaging

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// MIMEJPEG is the media type recorded for attached images.
const MIMEJPEG = "image/jpeg"

// Grayscale re-encodes a JPEG as its grayscale derivative. Drawing onto
// an image.Gray applies the standard Rec. 601 luma weights, matching
// what photo editors produce for a luminosity conversion.
func Grayscale(data []byte) ([]byte, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding JPEG: %w", err)
	}

	gray := image.NewGray(src.Bounds())
	draw.Draw(gray, gray.Bounds(), src, src.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gray, nil); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveFile writes data to path via a temporary file in the same
// directory, renaming on success so a failed write never leaves a
// partial image behind. Parent directories are created as needed.
func SaveFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".imaging-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing image: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Checksum returns the hex MD5 digest of data, the fingerprint Gramps
// stores for media objects.
func Checksum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

const manifestFile = "manifest.yaml"

// ManifestEntry records one saved image: its path relative to the set
// root, where it was downloaded from when the source URL is per-image,
// and its size in bytes.
type ManifestEntry struct {
	Name      string `yaml:"name"`
	SourceURL string `yaml:"source_url,omitempty"`
	Size      int    `yaml:"size"`
}

// Manifest records how an image set was produced. It sits next to the
// color/ and grayscale/ directories of a set.
type Manifest struct {
	Source    string          `yaml:"source"`
	Query     string          `yaml:"query,omitempty"`
	Count     int             `yaml:"count"`
	FetchedAt time.Time       `yaml:"fetched_at"`
	Files     []ManifestEntry `yaml:"files,omitempty"`
}

// WriteManifest writes the manifest for the image set rooted at dir.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644)
}

// ReadManifest reads the manifest for the image set rooted at dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
