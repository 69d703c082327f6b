package export

import (
	"fmt"
	"io"
	"time"

	"tms-load-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary      = "Summary"
	SheetDistribution = "Status Distribution"
	SheetTrend        = "Monthly Trend"
	SheetRecent       = "Recent Activity"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteKPIWorkbook renders a snapshot as an xlsx workbook with one sheet per
// section.
func WriteKPIWorkbook(w io.Writer, snap domain.KPISnapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("kpi workbook: %w", err)
	}

	summary := [][]any{
		{"Metric", "Value"},
		{"Generated At", snap.GeneratedAt.Format(time.RFC3339)},
		{"Total Loads", snap.TotalLoads},
		{"Active Loads", snap.ActiveLoads},
		{"Delivered Loads", snap.DeliveredLoads},
		{"Pending Loads", snap.PendingLoads},
		{"Overdue Loads", snap.OverdueLoads},
		{"Total Revenue", snap.TotalRevenue.InexactFloat64()},
		{"Loads This Month", snap.LoadsThisMonth},
		{"Loads This Week", snap.LoadsThisWeek},
		{"Completion Rate (%)", snap.CompletionRate},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	dist := [][]any{{"Status", "Count", "Percentage"}}
	for _, s := range snap.StatusDistribution {
		dist = append(dist, []any{string(s.Status), s.Count, s.Percentage})
	}
	if err := writeSheet(f, SheetDistribution, dist); err != nil {
		return err
	}

	trend := [][]any{{"Month", "Loads"}}
	for _, m := range snap.MonthlyTrend {
		trend = append(trend, []any{m.Month.Format("2006-01"), m.Count})
	}
	if err := writeSheet(f, SheetTrend, trend); err != nil {
		return err
	}

	recent := [][]any{{"Load ID", "Order Number", "Status", "Revenue", "Created At"}}
	for _, l := range snap.RecentActivity {
		recent = append(recent, []any{
			l.ID,
			l.OrderNumber,
			string(l.Status),
			l.Revenue().InexactFloat64(),
			l.CreatedAt.Format(time.RFC3339),
		})
	}
	if err := writeSheet(f, SheetRecent, recent); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("kpi workbook: write: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("kpi workbook: new sheet %q: %w", sheet, err)
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("kpi workbook: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("kpi workbook: sheet %q row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
