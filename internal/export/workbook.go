package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"wordslayer/internal/models"
)

const sheet = "Sheet1"

var header = []string{"Word", "Memorized", "Status", "Tags"}

// Row is one word line of a batch export
type Row struct {
	Word      string
	Memorized bool
	Status    models.WordStatus
	Tags      []string
}

// BatchWorkbook builds a workbook with a title line, a header and one row per word
func BatchWorkbook(batch *models.BatchRecord, rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()

	title := fmt.Sprintf("Batch %s (%d words)", batch.BatchNo, len(rows))
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, fmt.Errorf("failed to write title: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A2", "D2", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		values := []interface{}{row.Word, yesNo(row.Memorized), row.Status.String(), strings.Join(row.Tags, ", ")}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+3)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "B", "C", 14); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "D", "D", 30); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteBatch renders the batch workbook to w
func WriteBatch(w io.Writer, batch *models.BatchRecord, rows []Row) error {
	f, err := BatchWorkbook(batch, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
