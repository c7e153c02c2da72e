// Package reader provides the file and database sources the importer reads
// from. Importing the package registers every file reader with the core
// reader registry.
package reader

import "github.com/JonMunkholm/colimport/internal/core"

// Reader keys, as used by the registry, the CLI --format flag and the HTTP
// API.
const (
	KeyText    = "ascii"
	KeyImage   = "image"
	KeyParquet = "parquet"
	KeyXLSX    = "xlsx"
)

func init() {
	core.RegisterReader(core.ReaderDefinition{
		Info: core.ReaderInfo{
			Key:        KeyText,
			Label:      "ASCII data",
			Kind:       core.KindText,
			Extensions: []string{"txt", "dat", "csv", "tsv", "asc"},
		},
		Open: func(path string) core.Source { return TextFile{Path: path} },
	})
	core.RegisterReader(core.ReaderDefinition{
		Info: core.ReaderInfo{
			Key:        KeyImage,
			Label:      "Image (gray values)",
			Kind:       core.KindGrid,
			Extensions: []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"},
		},
		Open: func(path string) core.Source { return ImageFile{Path: path} },
	})
	core.RegisterReader(core.ReaderDefinition{
		Info: core.ReaderInfo{
			Key:        KeyParquet,
			Label:      "Parquet",
			Kind:       core.KindGrid,
			Extensions: []string{"parquet"},
		},
		Open: func(path string) core.Source { return ParquetFile{Path: path} },
	})
	core.RegisterReader(core.ReaderDefinition{
		Info: core.ReaderInfo{
			Key:        KeyXLSX,
			Label:      "Excel workbook",
			Kind:       core.KindRecords,
			Extensions: []string{"xlsx", "xlsm"},
		},
		Open: func(path string) core.Source { return Workbook{Path: path} },
	})
}
