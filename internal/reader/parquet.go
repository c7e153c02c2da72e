package reader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"reflect"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	pqreader "github.com/xitongsys/parquet-go/reader"

	"github.com/JonMunkholm/colimport/internal/core"
)

// parquetParallelism is the number of goroutines parquet-go uses per column.
const parquetParallelism = 4

// ParquetFile is a grid source over the top-level columns of a parquet file.
// Nested columns are kept in place and read as NaN.
type ParquetFile struct {
	Path string
}

func (f ParquetFile) Name() string { return filepath.Base(f.Path) }

// OpenGrid reads every row of the file into memory.
func (f ParquetFile) OpenGrid(ctx context.Context) (_ core.Grid, err error) {
	// parquet-go panics on some malformed footers
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet: read %s: %v", f.Name(), r)
		}
	}()

	if _, err := os.Stat(f.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
		}
		return nil, err
	}

	fr, err := local.NewLocalFileReader(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}
	defer fr.Close()

	pr, err := pqreader.NewParquetReader(fr, nil, parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("parquet: open %s: %w", f.Name(), err)
	}
	defer pr.ReadStop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	num := int(pr.GetNumRows())
	grid := &parquetGrid{names: topLevelNames(pr)}
	if num == 0 {
		return grid, nil
	}

	rows, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, fmt.Errorf("parquet: read %s: %w", f.Name(), err)
	}

	grid.cells = make([][]float64, 0, len(rows))
	for _, row := range rows {
		// row is a struct generated from the file schema
		v := reflect.Indirect(reflect.ValueOf(row))
		if v.Kind() != reflect.Struct {
			return nil, fmt.Errorf("parquet: unexpected row type %s", v.Type())
		}
		cells := make([]float64, v.NumField())
		for i := range cells {
			cells[i] = fieldValue(v.Field(i))
		}
		grid.cells = append(grid.cells, cells)
	}
	if len(grid.names) != grid.Width() {
		grid.names = nil
	}
	return grid, nil
}

// fieldValue dereferences optional values and converts the result.
func fieldValue(v reflect.Value) float64 {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return math.NaN()
		}
		v = v.Elem()
	}
	if !v.CanInterface() {
		return math.NaN()
	}
	return core.ToFloat(v.Interface())
}

// topLevelNames returns the external names of the root's direct children,
// in schema order. The footer lists the schema depth first, so nested
// elements are skipped by their child counts.
func topLevelNames(pr *pqreader.ParquetReader) []string {
	schema := pr.Footer.GetSchema()
	if len(schema) == 0 {
		return nil
	}

	var names []string
	for i := 1; i < len(schema); i += 1 + descendants(schema, i) {
		names = append(names, externalName(pr, i, schema[i]))
	}
	return names
}

func descendants(schema []*parquet.SchemaElement, i int) int {
	count := 0
	next := i + 1
	for k := 0; k < int(schema[i].GetNumChildren()) && next < len(schema); k++ {
		d := descendants(schema, next)
		count += 1 + d
		next += 1 + d
	}
	return count
}

// externalName prefers the name as written to the file over parquet-go's
// exported Go field name.
func externalName(pr *pqreader.ParquetReader, i int, el *parquet.SchemaElement) string {
	if pr.SchemaHandler != nil && i < len(pr.SchemaHandler.Infos) && pr.SchemaHandler.Infos[i].ExName != "" {
		return pr.SchemaHandler.Infos[i].ExName
	}
	return el.GetName()
}

type parquetGrid struct {
	names []string
	cells [][]float64
}

func (g *parquetGrid) Height() int { return len(g.cells) }

func (g *parquetGrid) Width() int {
	if len(g.cells) == 0 {
		return len(g.names)
	}
	return len(g.cells[0])
}

func (g *parquetGrid) At(row, col int) float64 {
	if col >= len(g.cells[row]) {
		return math.NaN()
	}
	return g.cells[row][col]
}

func (g *parquetGrid) ColumnNames() []string { return g.names }
