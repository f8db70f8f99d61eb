// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tree

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/gramps-faker/internal/imaging"
	"github.com/pdiddy/gramps-faker/pkg/types"
)

// mediaPool hands out local images for portrait attachment. Paths are
// relative to root, kept sorted, and each image is used at most once.
type mediaPool struct {
	root  string
	files []string
}

// scanImages collects every .jpg under dir. A missing directory yields
// an empty pool; the tree then simply carries no images.
func scanImages(dir string) (*mediaPool, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	pool := &mediaPool{root: root}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".jpg" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		pool.files = append(pool.files, rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return pool, nil
		}
		return nil, err
	}
	return pool, nil
}

// take removes and returns the first unused image whose path mentions
// both the folder (people, family, wedding) and the variant (color,
// grayscale).
func (p *mediaPool) take(folder, variant string) (string, bool) {
	for i, f := range p.files {
		if strings.Contains(f, folder) && strings.Contains(f, variant) {
			p.files = append(p.files[:i], p.files[i+1:]...)
			return f, true
		}
	}
	return "", false
}

// attachImage stages a media object for the next matching pool image
// and appends its handle to refs. When the pool has no match the
// record is simply left without an image.
func (g *Generator) attachImage(ctx context.Context, refs *[]string, folder, variant, description string) error {
	rel, ok := g.media.take(folder, variant)
	if !ok {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(g.media.root, rel))
	if err != nil {
		return fmt.Errorf("reading image %s: %w", rel, err)
	}

	m := &types.Media{
		Handle:      g.newHandle(),
		Path:        rel,
		MIME:        imaging.MIMEJPEG,
		Checksum:    imaging.Checksum(data),
		Description: description,
	}
	if err := g.store.PutMedia(ctx, m); err != nil {
		return err
	}
	*refs = append(*refs, m.Handle)
	return nil
}

// attachPortrait picks the portrait variant a person's birth year
// allows: color for births after the color era began, grayscale for
// the photographic era before that, nothing earlier.
func (g *Generator) attachPortrait(ctx context.Context, p *types.Person) error {
	birth, err := g.birthOf(ctx, p)
	if err != nil {
		return err
	}
	switch {
	case birth.Date.Year > colorPhotoYear:
		return g.attachImage(ctx, &p.MediaRefs, "people", "color", p.DisplayName())
	case birth.Date.Year > monoPhotoYear:
		return g.attachImage(ctx, &p.MediaRefs, "people", "grayscale", p.DisplayName())
	}
	return nil
}
