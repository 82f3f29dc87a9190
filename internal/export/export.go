// Package export writes tournament standings to a spreadsheet.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
)

// SheetName is the worksheet holding the standings
const SheetName = "Standings"

// Header is the first row of the standings sheet
var Header = []string{"Rank", "Username", "Profile", "WPM", "Keystrokes", "Tests Taken", "Slack ID"}

// WriteStandings saves records as an XLSX workbook at path. Absent numbers
// are left as empty cells.
func WriteStandings(path string, records []*competitor.Competitor) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for idx, rec := range records {
		axis, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return fmt.Errorf("locating row %d: %w", idx+1, err)
		}
		row := []interface{}{
			cellInt(rec.Rank),
			rec.Username,
			rec.ProfileURL,
			cellFloat(rec.WPM),
			cellFloat(rec.Keystrokes),
			cellFloat(rec.TestsTaken),
			rec.DirectoryID,
		}
		if err := f.SetSheetRow(SheetName, axis, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", idx+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func cellInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func cellFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
