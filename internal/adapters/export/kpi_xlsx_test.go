package export

import (
	"bytes"
	"testing"
	"time"

	"tms-load-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteKPIWorkbook(t *testing.T) {
	rate := decimal.RequireFromString("500")
	snap := domain.KPISnapshot{
		GeneratedAt:    time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		TotalLoads:     2,
		DeliveredLoads: 1,
		PendingLoads:   1,
		ActiveLoads:    1,
		TotalRevenue:   decimal.RequireFromString("500"),
		CompletionRate: 50,
		StatusDistribution: []domain.StatusShare{
			{Status: domain.StatusPending, Count: 1, Percentage: 50},
			{Status: domain.StatusDelivered, Count: 1, Percentage: 50},
		},
		MonthlyTrend: []domain.MonthCount{
			{Month: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Count: 0},
			{Month: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Count: 2},
		},
		RecentActivity: []domain.Load{
			{ID: "a", OrderNumber: "ORD-1", Status: domain.StatusDelivered, ConfirmedRate: &rate, CreatedAt: time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteKPIWorkbook(&buf, snap))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetDistribution, SheetTrend, SheetRecent}, f.GetSheetList())

	total, err := f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	status, err := f.GetCellValue(SheetDistribution, "A3")
	require.NoError(t, err)
	assert.Equal(t, "delivered", status)

	month, err := f.GetCellValue(SheetTrend, "A3")
	require.NoError(t, err)
	assert.Equal(t, "2024-06", month)

	rows, err := f.GetRows(SheetRecent)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ORD-1", rows[1][1])
	assert.Equal(t, "500", rows[1][3])
}

func TestWriteKPIWorkbookEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKPIWorkbook(&buf, domain.KPISnapshot{TotalRevenue: decimal.Zero}))
	assert.NotZero(t, buf.Len())
}
