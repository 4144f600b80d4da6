package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/theryston/cerrado/internal/domain"
)

const (
	planSheet    = "Plan"
	classesSheet = "Classes"

	numFmtMoney   = 4  // #,##0.00
	numFmtPercent = 10 // 0.00%
)

// NewWorkbook renders the plan of p into a workbook with Plan and Classes sheets.
// The caller owns the returned file and must Close it.
func NewWorkbook(p domain.Portfolio, results []domain.AllocationResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), planSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("renaming default sheet: %w", err)
	}
	if _, err := f.NewSheet(classesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating %s sheet: %w", classesSheet, err)
	}

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeSheet(f, planSheet, planValues(Rows(p, results)), st, map[string]int{
		"D": st.money, "H": st.money,
		"E": st.percent, "F": st.percent, "G": st.percent,
	}); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeSheet(f, classesSheet, classValues(ClassRows(p, results)), st, map[string]int{
		"B": st.percent, "C": st.percent, "D": st.percent,
		"E": st.money,
	}); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// WriteXLSX writes the plan workbook to w.
func WriteXLSX(w io.Writer, p domain.Portfolio, results []domain.AllocationResult) error {
	f, err := NewWorkbook(p, results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the plan workbook to a file.
func SaveXLSX(path string, p domain.Portfolio, results []domain.AllocationResult) error {
	f, err := NewWorkbook(p, results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

type styles struct {
	header  int
	money   int
	percent int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	if st.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return styles{}, fmt.Errorf("creating header style: %w", err)
	}
	if st.money, err = f.NewStyle(&excelize.Style{NumFmt: numFmtMoney}); err != nil {
		return styles{}, fmt.Errorf("creating money style: %w", err)
	}
	if st.percent, err = f.NewStyle(&excelize.Style{NumFmt: numFmtPercent}); err != nil {
		return styles{}, fmt.Errorf("creating percent style: %w", err)
	}
	return st, nil
}

func writeSheet(f *excelize.File, sheet string, values [][]any, st styles, colStyles map[string]int) error {
	for col, style := range colStyles {
		if err := f.SetColStyle(sheet, col, style); err != nil {
			return fmt.Errorf("styling %s!%s: %w", sheet, col, err)
		}
	}

	for i, row := range values {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("resolving cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}

	if err := f.SetRowStyle(sheet, 1, 1, st.header); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
