package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/cuihairu/faultline/internal/repo/gorm/faults"
	"github.com/cuihairu/faultline/internal/repo/gorm/org"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteFaults(t *testing.T) {
	list := []*faults.Fault{
		{
			ID: 1, Title: "Signal down", Description: "km 12", Status: faults.StatusClosed,
			Chiefdom:   &org.Chiefdom{Name: "Ankara"},
			ReportedBy: &usersgorm.UserAccount{Username: "watch"},
			Closure:    faults.Closure{FaultDate: "01.01.2025", Solution: "relay replaced"},
			Images:     []faults.Image{{URL: "/uploads/a.jpg"}, {URL: "/uploads/b.jpg"}},
			CreatedAt:  time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC),
		},
		{ID: 2, Title: "Switch stuck", Status: faults.StatusOpen},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFaults(&buf, list))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, Headers(), rows[0])
	require.Equal(t, "Signal down", rows[1][1])
	require.Equal(t, "Ankara", rows[1][4])
	require.Equal(t, "2025-01-01 08:30:00", rows[1][7])
	require.Equal(t, "relay replaced", rows[1][13])
	require.Equal(t, "2", rows[1][16])
	require.Equal(t, "open", rows[2][3])
}

func TestWriteFaultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFaults(&buf, nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	require.Equal(t, "faults-history-20240501.xlsx", Filename("history", now))
	require.Equal(t, "faults-all-20240501.xlsx", Filename("", now))
}
