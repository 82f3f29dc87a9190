package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
)

func TestWriteStandings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standings.xlsx")
	records := []*competitor.Competitor{
		{
			Rank:        competitor.Int(1),
			Username:    "alice",
			ProfileURL:  "https://10fastfingers.com/user/1",
			WPM:         competitor.Float(88.5),
			Keystrokes:  competitor.Float(12345),
			TestsTaken:  competitor.Float(3),
			DirectoryID: "U1",
		},
		{Username: "bob"},
	}

	require.NoError(t, WriteStandings(path, records))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"1", "alice", "https://10fastfingers.com/user/1", "88.5", "12345", "3", "U1"}, rows[1])

	require.GreaterOrEqual(t, len(rows[2]), 2)
	assert.Empty(t, rows[2][0])
	assert.Equal(t, "bob", rows[2][1])
}

func TestWriteStandings_NoRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteStandings(path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWriteStandings_BadPath(t *testing.T) {
	err := WriteStandings(filepath.Join(t.TempDir(), "missing", "x.xlsx"), nil)
	assert.Error(t, err)
}
