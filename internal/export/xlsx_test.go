package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	p, results := samplePlan(t)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, p, results); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != planSheet || got[1] != classesSheet {
		t.Errorf("sheets = %v, want [Plan Classes]", got)
	}

	rows, err := f.GetRows(planSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("plan rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Ticker" {
		t.Errorf("A1 = %q, want Ticker", rows[0][0])
	}

	classRows, err := f.GetRows(classesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(classRows) != 3 {
		t.Errorf("class rows = %d, want 3", len(classRows))
	}
}

func TestSaveXLSX(t *testing.T) {
	p, results := samplePlan(t)
	path := filepath.Join(t.TempDir(), "plan.xlsx")

	if err := SaveXLSX(path, p, results); err != nil {
		t.Fatalf("SaveXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	v, err := f.GetCellValue(planSheet, "B2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if v == "" {
		t.Error("B2 (class name) is empty")
	}
}
