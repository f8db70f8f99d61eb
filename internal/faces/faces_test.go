package faces

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/gramps-faker/internal/imaging"
	"github.com/pdiddy/gramps-faker/pkg/types"
)

// --- test helpers ---

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testConfig(t *testing.T) types.FacesConfig {
	t.Helper()
	return types.FacesConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "gramps-faker-test"},
		ImagesDir:  t.TempDir(),
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	return len(matches)
}

// --- tests ---

func TestFetchBatchSavesPairs(t *testing.T) {
	face := testJPEG(t)
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(face)
	}))
	defer srv.Close()

	oldBase := faceAPIBase
	faceAPIBase = srv.URL
	defer func() { faceAPIBase = oldBase }()

	cfg := testConfig(t)
	result := FetchBatch(context.Background(), srv.Client(), 3, cfg, io.Discard)

	if result.Saved != 3 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 3 saved", result)
	}
	if requests != 6 {
		t.Errorf("server saw %d requests, want 6 (two per pair)", requests)
	}

	colorFiles := countFiles(t, filepath.Join(cfg.ImagesDir, "people", "color"))
	grayFiles := countFiles(t, filepath.Join(cfg.ImagesDir, "people", "grayscale"))
	if colorFiles != 3 || grayFiles != 3 {
		t.Errorf("saved %d color and %d grayscale files, want 3 each", colorFiles, grayFiles)
	}

	for i := 1; i <= 3; i++ {
		name := filepath.Join(cfg.ImagesDir, "people", "color", fmt.Sprintf("%05d.jpg", i))
		if _, err := os.Stat(name); err != nil {
			t.Errorf("missing %s", name)
		}
	}

	// Grayscale derivatives really are grayscale.
	data, err := os.ReadFile(filepath.Join(cfg.ImagesDir, "people", "grayscale", "00001.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded.(*image.Gray); !ok {
		t.Errorf("grayscale file decoded as %T", decoded)
	}

	manifest, err := imaging.ReadManifest(filepath.Join(cfg.ImagesDir, "people"))
	if err != nil {
		t.Fatal(err)
	}
	if manifest.Source != "thispersondoesnotexist" || manifest.Count != 3 {
		t.Errorf("manifest = %+v", manifest)
	}
	if len(manifest.Files) != 6 {
		t.Fatalf("manifest lists %d files, want 6", len(manifest.Files))
	}
	if manifest.Files[0].Name != filepath.Join("color", "00001.jpg") {
		t.Errorf("first manifest entry = %q", manifest.Files[0].Name)
	}
	for _, f := range manifest.Files {
		if f.Size == 0 {
			t.Errorf("manifest entry %s has no size", f.Name)
		}
	}
}

func TestFetchBatchContinuesAfterFailure(t *testing.T) {
	face := testJPEG(t)
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Break the second pair's first download; the pair fails and
		// the batch moves on.
		if requests == 3 {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		w.Write(face)
	}))
	defer srv.Close()

	oldBase := faceAPIBase
	faceAPIBase = srv.URL
	defer func() { faceAPIBase = oldBase }()

	cfg := testConfig(t)
	var out bytes.Buffer
	result := FetchBatch(context.Background(), srv.Client(), 3, cfg, &out)

	if result.Saved != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 2 saved 1 failed", result)
	}
	if !strings.Contains(out.String(), "failed:  face 00002") {
		t.Errorf("missing failure line in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Batch summary: 2 saved, 1 failed (total: 3)") {
		t.Errorf("missing summary in output:\n%s", out.String())
	}

	colorFiles := countFiles(t, filepath.Join(cfg.ImagesDir, "people", "color"))
	if colorFiles != 2 {
		t.Errorf("saved %d color files, want 2", colorFiles)
	}
}

func TestFetchFaceSetsUserAgent(t *testing.T) {
	face := testJPEG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "gramps-faker-test" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Write(face)
	}))
	defer srv.Close()

	oldBase := faceAPIBase
	faceAPIBase = srv.URL
	defer func() { faceAPIBase = oldBase }()

	cfg := testConfig(t)
	if _, err := FetchFace(context.Background(), srv.Client(), 1, cfg, io.Discard); err != nil {
		t.Fatal(err)
	}
}
