// Package report renders fault lists as spreadsheets for offline review.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cuihairu/faultline/internal/repo/gorm/faults"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName       = "Faults"
)

type column struct {
	title string
	width float64
	value func(f *faults.Fault) any
}

var columns = []column{
	{"ID", 8, func(f *faults.Fault) any { return f.ID }},
	{"Title", 30, func(f *faults.Fault) any { return f.Title }},
	{"Description", 40, func(f *faults.Fault) any { return f.Description }},
	{"Status", 10, func(f *faults.Fault) any { return f.Status }},
	{"Chiefdom", 18, func(f *faults.Fault) any {
		if f.Chiefdom == nil {
			return ""
		}
		return f.Chiefdom.Name
	}},
	{"Reported By", 18, func(f *faults.Fault) any {
		if f.ReportedBy == nil {
			return ""
		}
		return f.ReportedBy.Username
	}},
	{"Assigned To", 18, func(f *faults.Fault) any {
		if f.AssignedTo == nil {
			return ""
		}
		return f.AssignedTo.Username
	}},
	{"Created", 20, func(f *faults.Fault) any { return f.CreatedAt.UTC().Format(time.DateTime) }},
	{"Fault Date", 12, func(f *faults.Fault) any { return f.FaultDate }},
	{"Fault Time", 10, func(f *faults.Fault) any { return f.FaultTime }},
	{"Reporter", 18, func(f *faults.Fault) any { return f.ReporterName }},
	{"Line", 20, func(f *faults.Fault) any { return f.LineInfo }},
	{"Closure Info", 30, func(f *faults.Fault) any { return f.ClosureFaultInfo }},
	{"Solution", 30, func(f *faults.Fault) any { return f.Solution }},
	{"Working Personnel", 24, func(f *faults.Fault) any { return f.WorkingPersonnel }},
	{"TCDD Personnel", 24, func(f *faults.Fault) any { return f.TCDDPersonnel }},
	{"Images", 8, func(f *faults.Fault) any { return len(f.Images) }},
}

// Headers lists the column titles in sheet order.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.title
	}
	return out
}

// WriteFaults writes list as a single-sheet workbook, one row per fault.
func WriteFaults(w io.Writer, list []*faults.Fault) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, c := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, c.title); err != nil {
			return err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, col, col, c.width); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, header); err != nil {
		return err
	}

	for r, flt := range list {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = c.value(flt)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", r+2, err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// Filename names an export by view and date, e.g. faults-history-20240501.xlsx.
func Filename(view string, now time.Time) string {
	view = strings.TrimSpace(view)
	if view == "" {
		view = "all"
	}
	return fmt.Sprintf("faults-%s-%s.xlsx", view, now.UTC().Format("20060102"))
}
