package migrate

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const legacyHeader = "place_id\tplace_name\tplace_type\tlatitude\tlongitude\tparent_id\talternate_names\tcreated_at\tupdated_at\n"

func convert(t *testing.T, input string) ([][]string, Stats) {
	t.Helper()
	var buf bytes.Buffer
	stats, err := NewLegacyConverter(zap.NewNop()).Convert(context.Background(), strings.NewReader(input), &buf)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, OutputColumns, records[0])
	return records[1:], stats
}

func TestConvertMovesPlaceID(t *testing.T) {
	input := legacyHeader +
		"7005685\tMéxico\tnations\t23.0\t-102.0\t7000000\tMexico|Estados Unidos Mexicanos\t2024-12-01\t2024-12-02\n"

	rows, stats := convert(t, input)
	require.Len(t, rows, 1)
	assert.Equal(t, Stats{Rows: 1, Written: 1}, stats)
	assert.Equal(t, []string{
		"México", "nations", "23", "-102", "7000000",
		"Mexico|Estados Unidos Mexicanos", "2024-12-01", "2024-12-02", "7005685", "TGN",
	}, rows[0])
}

func TestConvertHandlesEscapesAndNulls(t *testing.T) {
	input := legacyHeader +
		"1\tSan Juan\\\tde Dios\tinhabited places\t\\N\t\\N\t\\N\tSt. John\\\\s\t\\N\t\\N\r\n" +
		"2\t\"Quoted \"\"Name\"\"\"\t\t1.5\t\t2.0\t\t\t\n" +
		"\n" +
		"3\tShort\n"

	rows, stats := convert(t, input)
	require.Len(t, rows, 3)
	assert.Equal(t, 3, stats.Written)

	assert.Equal(t, "San Juan\tde Dios", rows[0][0])
	assert.Equal(t, "", rows[0][2])
	assert.Equal(t, "", rows[0][4])
	assert.Equal(t, `St. John\s`, rows[0][5])
	assert.Equal(t, "", rows[0][7])

	assert.Equal(t, `Quoted "Name"`, rows[1][0])
	assert.Equal(t, "1.5", rows[1][2])
	assert.Equal(t, "2", rows[1][4])

	assert.Equal(t, []string{"Short", "", "", "", "", "", "", "", "3", "TGN"}, rows[2])
}

func TestConvertSkipsBadLines(t *testing.T) {
	input := legacyHeader +
		"abc\tBad id\t\t\t\t\t\t\t\n" +
		"4\tBad lat\t\tnorth\t\t\t\t\t\n" +
		"5\tToo\tmany\t1\t2\t3\t4\t5\t6\t7\n" +
		"\\N\tNo id\t\t\t\t\t\t\t\n" +
		"6\tGood\t\t\t\t\t\t\t\n"

	rows, stats := convert(t, input)
	assert.Equal(t, Stats{Rows: 5, Written: 1, Skipped: 4}, stats)
	require.Len(t, rows, 1)
	assert.Equal(t, "Good", rows[0][0])
}

func TestConvertRequiresHeader(t *testing.T) {
	_, err := NewLegacyConverter(zap.NewNop()).Convert(context.Background(), strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "raw_data/TGN/tgn_new_columns.csv", DefaultOutputPath("raw_data/TGN/tgn.csv"))
	assert.Equal(t, "exports/tgn.tsv_new_columns.csv", DefaultOutputPath("exports/tgn.tsv"))
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tgn.csv")
	require.NoError(t, os.WriteFile(in, []byte(legacyHeader+"9\tLima\t\t-12.04\t-77.04\t\t\t\t\n"), 0o644))

	out := DefaultOutputPath(in)
	stats, err := NewLegacyConverter(zap.NewNop()).ConvertFile(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Lima,,-12.04,-77.04,,,,,9,TGN")

	_, err = NewLegacyConverter(zap.NewNop()).ConvertFile(context.Background(), filepath.Join(dir, "missing.csv"), out)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
