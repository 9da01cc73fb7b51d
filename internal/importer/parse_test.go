package importer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSVSniffsSemicolonDelimiter(t *testing.T) {
	data := []byte("Email;Nom\njean@acme.fr;Dupont\n\n;\npaul@acme.fr;Martin\n")

	table, err := ParseFile("export.csv", data)

	require.NoError(t, err)
	assert.Equal(t, []string{"Email", "Nom"}, table.Headers)
	// Blank and all-empty rows are dropped.
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"paul@acme.fr", "Martin"}, table.Rows[1])
}

func TestParseCSVCommaDelimiter(t *testing.T) {
	data := []byte("Email,Nom\njean@acme.fr,Dupont\n")

	table, err := ParseFile("export.csv", data)

	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "jean@acme.fr", table.Rows[0][0])
}

func TestParseSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Email", "Nom"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"jean@acme.fr", "Dupont"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := ParseFile("clients.xlsx", buf.Bytes())

	require.NoError(t, err)
	assert.Equal(t, []string{"Email", "Nom"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "jean@acme.fr", table.Rows[0][0])
}

func TestParseFileRejectsUnknownExtension(t *testing.T) {
	_, err := ParseFile("clients.txt", []byte("whatever"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestCellLookupIsCaseInsensitive(t *testing.T) {
	table := &Table{Headers: []string{"Email", "Nom "}, Rows: [][]string{{" jean@acme.fr "}}}

	// Header trimming happens in tableFrom; Cell trims the value.
	value, found := table.Cell(table.Rows[0], "EMAIL")
	assert.True(t, found)
	assert.Equal(t, "jean@acme.fr", value)

	// A short row still reports the column as present.
	value, found = table.Cell(table.Rows[0], "nom ")
	assert.True(t, found)
	assert.Empty(t, value)

	_, found = table.Cell(table.Rows[0], "Ville")
	assert.False(t, found)
}
