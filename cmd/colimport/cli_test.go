package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/colimport/internal/core"
)

func TestSample_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample{rows: 5, cols: 3, seed: 1, delimiter: " ", header: true}.write(&buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	require.True(t, strings.HasPrefix(lines[0], "# generated"))
	require.Len(t, strings.Fields(lines[1]), 3)
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		require.Len(t, fields, 3)
		for _, f := range fields {
			require.False(t, math.IsNaN(core.ParseFloat(f)), f)
		}
	}

	// Same seed, same file.
	var again bytes.Buffer
	require.NoError(t, sample{rows: 5, cols: 3, seed: 1, delimiter: " ", header: true}.write(&again))
	require.Equal(t, buf.String(), again.String())
}

func TestImportOptions_Layering(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.xml")
	require.NoError(t, os.WriteFile(settings, []byte(`<asciiFilter commentCharacter="!" header="false" startRow="2"/>`), 0o644))

	viper.Set("import.settings", settings)
	viper.Set("import.start-row", 4)
	viper.Set("import.mode", "replace")

	opts, err := importOptions()
	require.NoError(t, err)
	require.Equal(t, "!", opts.CommentPrefix)
	require.False(t, opts.Header)
	require.Equal(t, 4, opts.StartRow)
	require.Equal(t, core.Replace, opts.Mode)
	require.True(t, opts.EndRow.IsUnbounded())
}

func TestImportOptions_BadMode(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("import.mode", "merge")
	_, err := importOptions()
	require.Error(t, err)
}

func TestOutputConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("output.output", "json")
	viper.Set("output.out-delimiter", "tab")
	out, err := outputConfig()
	require.NoError(t, err)
	require.Equal(t, "json", out.format)
	require.Equal(t, '\t', out.delimiter)

	viper.Set("output.output", "yaml")
	_, err = outputConfig()
	require.Error(t, err)
}

func TestImportCommand(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	in := filepath.Join(dir, "data.txt")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("# c\nx y\n1 2\n3 4\n"), 0o644))

	rootCmd.SetArgs([]string{"import", in, "--progress=false", "--out", out})
	require.NoError(t, rootCmd.Execute())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "x,y\n1,2\n3,4\n", string(got))
}
