// Command colimport imports column data from text, spreadsheet, image,
// parquet and SQL sources and writes the resulting table as CSV or JSON.
package main

import (
	"fmt"
	"os"

	_ "github.com/JonMunkholm/colimport/internal/reader"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
