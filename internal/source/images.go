// Package source lists image files from a directory and reads their
// dimensions and pixels.
package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/piwi3910/framefill/internal/model"
)

// extensions is the recognized image file allow-list, lower case, without dot.
var extensions = []string{"jpg", "jpeg", "png", "tif", "tiff", "psd"}

// Extensions returns a copy of the recognized extension list.
func Extensions() []string {
	out := make([]string, len(extensions))
	copy(out, extensions)
	return out
}

// IsImageFile reports whether name carries a recognized extension
// (case-insensitive).
func IsImageFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ListImages enumerates the recognized image files directly inside dir and
// returns them ordered by case-insensitive name. Entries that compare equal
// keep their directory order.
func ListImages(dir string) ([]model.ImageAsset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image folder %s: %w", dir, err)
	}

	var assets []model.ImageAsset
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		assets = append(assets, model.ImageAsset{
			Path: filepath.Join(dir, entry.Name()),
			Name: entry.Name(),
		})
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("%w in %s (accepted: %s)", model.ErrNoImages, dir, strings.Join(extensions, ", "))
	}

	SortAssets(assets)
	return assets, nil
}

// SortAssets orders assets by lower-cased file name, stable.
func SortAssets(assets []model.ImageAsset) {
	sort.SliceStable(assets, func(i, j int) bool {
		return strings.ToLower(assets[i].Name) < strings.ToLower(assets[j].Name)
	})
}

// Probe reads only the image header and returns the natural pixel size as
// Decode will see it: a JPEG whose EXIF orientation turns it by a quarter
// turn reports its width and height swapped.
func Probe(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}
	if format == "jpeg" {
		if _, err := f.Seek(0, io.SeekStart); err == nil && quarterTurn(f) {
			return cfg.Height, cfg.Width, nil
		}
	}
	return cfg.Width, cfg.Height, nil
}

// quarterTurn reports whether the EXIF orientation in r is one of the
// transposing values 5 to 8. Missing or broken EXIF data means no turn.
func quarterTurn(r io.Reader) bool {
	x, err := exif.Decode(r)
	if err != nil {
		return false
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return false
	}
	o, err := tag.Int(0)
	if err != nil {
		return false
	}
	return o >= 5 && o <= 8
}

// Decode fully decodes the image at path, applying EXIF orientation.
func Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
