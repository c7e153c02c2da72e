package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a sample ASCII data file with random numeric columns",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.Int("rows", 100, "data rows")
	f.Int("cols", 3, "columns")
	f.Int64("seed", 0, "random seed, 0 for a random one")
	f.String("delimiter", " ", "field separator")
	f.Bool("header", true, "write a header line of column names")
	f.Float64("missing", 0, "share of cells left empty, 0 to 1")
	f.String("out", "", "output file (default stdout)")
}

// sample describes a generated file.
type sample struct {
	rows, cols int
	seed       int64
	delimiter  string
	header     bool
	missing    float64
}

func runGenerate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	s := sample{}
	s.rows, _ = f.GetInt("rows")
	s.cols, _ = f.GetInt("cols")
	s.seed, _ = f.GetInt64("seed")
	s.delimiter, _ = f.GetString("delimiter")
	s.header, _ = f.GetBool("header")
	s.missing, _ = f.GetFloat64("missing")
	if s.rows < 0 || s.cols < 1 {
		return fmt.Errorf("need rows >= 0 and cols >= 1")
	}
	if s.missing < 0 || s.missing > 1 {
		return fmt.Errorf("missing must be between 0 and 1")
	}

	var w io.Writer = os.Stdout
	if path, _ := f.GetString("out"); path != "" {
		fh, err := os.Create(path)
		if err != nil {
			return err
		}
		defer fh.Close()
		w = fh
	}
	return s.write(w)
}

// write emits a "# generated" comment line, the optional header and the
// data rows. Missing cells are empty fields, which a non-whitespace
// delimiter keeps in place.
func (s sample) write(w io.Writer) error {
	faker := gofakeit.New(s.seed)
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# generated by colimport: %d rows, %d columns\n", s.rows, s.cols)
	if s.header {
		names := make([]string, s.cols)
		for i := range names {
			names[i] = fmt.Sprintf("%s_%d", strings.ToLower(faker.Noun()), i+1)
		}
		fmt.Fprintln(bw, strings.Join(names, s.delimiter))
	}

	fields := make([]string, s.cols)
	for r := 0; r < s.rows; r++ {
		for c := range fields {
			if s.missing > 0 && faker.Float64() < s.missing {
				fields[c] = ""
				continue
			}
			fields[c] = strconv.FormatFloat(faker.Float64Range(-1000, 1000), 'g', 8, 64)
		}
		fmt.Fprintln(bw, strings.Join(fields, s.delimiter))
	}
	return bw.Flush()
}
