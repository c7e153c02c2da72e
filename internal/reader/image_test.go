package reader

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/table"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestGray(t *testing.T) {
	tests := []struct {
		name string
		c    color.Color
		want int
	}{
		{"white", color.White, 255},
		{"black", color.Black, 0},
		{"red", color.NRGBA{R: 255, A: 255}, 87},
		{"green", color.NRGBA{G: 255, A: 255}, 127},
		{"blue", color.NRGBA{B: 255, A: 255}, 39},
		{"gray16", color.Gray16{Y: 0xffff}, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Gray(tt.c))
		})
	}
}

func TestImageFile_Import(t *testing.T) {
	// 3 pixels wide, 2 high
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.White)
	img.Set(1, 0, color.NRGBA{R: 255, A: 255})
	img.Set(2, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.Black)
	img.Set(2, 1, color.White)
	path := writePNG(t, img)

	tbl := table.New("img")
	sum, err := core.Import(context.Background(), ImageFile{Path: path}, tbl, core.DefaultOptions(), nil)
	require.NoError(t, err)
	require.Equal(t, 3, sum.ColumnsWritten)
	require.Equal(t, 2, sum.RowsWritten)
	require.Equal(t, []string{"Column 1", "Column 2", "Column 3"}, tbl.ColumnNames())

	col0, err := tbl.Values(0)
	require.NoError(t, err)
	require.Equal(t, []float64{255, 39}, col0)
	col1, err := tbl.Values(1)
	require.NoError(t, err)
	require.Equal(t, []float64{87, 0}, col1)

	comment, err := tbl.Comment(2)
	require.NoError(t, err)
	require.Equal(t, "numerical data, 2 elements", comment)
}

func TestImageFile_UndecodableIsNoOp(t *testing.T) {
	path := writeFile(t, "broken.png", "not an image")

	_, err := ImageFile{Path: path}.OpenGrid(context.Background())
	require.ErrorIs(t, err, core.ErrSourceUnavailable)

	tbl := table.New("t")
	sum, err := core.Import(context.Background(), ImageFile{Path: path}, tbl, core.DefaultOptions(), nil)
	require.NoError(t, err)
	require.True(t, sum.Empty())
}
