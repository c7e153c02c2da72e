package reader

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/JonMunkholm/colimport/internal/core"
)

// ImageFile is a grid source over a raster image. Each pixel column becomes
// a table column holding the pixel gray values, top row first.
type ImageFile struct {
	Path string
}

func (f ImageFile) Name() string { return filepath.Base(f.Path) }

// OpenGrid decodes the image. A missing file or an undecodable image both
// report core.ErrSourceUnavailable, so the import is skipped.
func (f ImageFile) OpenGrid(ctx context.Context) (core.Grid, error) {
	fh, err := openSource(f.Path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	img, format, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", core.ErrSourceUnavailable, f.Name(), err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %s image %s has no pixels", core.ErrSourceUnavailable, format, f.Name())
	}
	return grayGrid{img: img, bounds: b}, nil
}

type grayGrid struct {
	img    image.Image
	bounds image.Rectangle
}

func (g grayGrid) Width() int  { return g.bounds.Dx() }
func (g grayGrid) Height() int { return g.bounds.Dy() }

func (g grayGrid) At(row, col int) float64 {
	c := g.img.At(g.bounds.Min.X+col, g.bounds.Min.Y+row)
	return float64(Gray(c))
}

// Gray weights the 8-bit channels of c 11:16:5, the common integer
// approximation of luminance. Alpha is ignored.
func Gray(c color.Color) int {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return (int(n.R)*11 + int(n.G)*16 + int(n.B)*5) / 32
}
