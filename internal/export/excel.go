package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vitrina/internal/domain"
	"vitrina/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExcelExporter выгружает журнал бронирований магазина в xlsx:
// строки — слоты, колонки — даты периода.
type ExcelExporter struct {
	repo       domain.Repository
	exportPath string
	logger     *zerolog.Logger
}

func NewExcelExporter(repo domain.Repository, exportPath string, logger *zerolog.Logger) *ExcelExporter {
	return &ExcelExporter{
		repo:       repo,
		exportPath: exportPath,
		logger:     logger,
	}
}

// ExportStoreSchedule создает Excel файл с расписанием бронирований магазина
func (e *ExcelExporter) ExportStoreSchedule(ctx context.Context, storeID string, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	store, err := e.repo.GetStore(ctx, storeID)
	if err != nil {
		return "", err
	}

	bookings, err := e.repo.BookingsForStoreByDateRange(ctx, storeID, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Бронирования"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s: %s - %s",
		store.Name, startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateCols := e.writeDateHeaders(f, sheetName, startDate, endDate)
	slotRows := e.writeSlotHeaders(f, sheetName, store)
	e.writeBookingCells(f, sheetName, bookings, dateCols, slotRows)

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	lastCol, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
	_ = f.SetColWidth(sheetName, "B", lastCol, 24)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_%s_to_%s.xlsx",
		store.ID,
		startDate.Format(models.DateLayout),
		endDate.Format(models.DateLayout))
	filePath := filepath.Join(e.exportPath, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Str("store_id", storeID).Msg("Excel file created")
	return filePath, nil
}

func (e *ExcelExporter) writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) map[string]int {
	col := 2
	current := startDate
	dateCols := make(map[string]int)

	for !current.After(endDate) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, current.Format("02.01"))
		dateCols[current.Format(models.DateLayout)] = col
		col++
		current = current.AddDate(0, 0, 1)
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	first, _ := excelize.CoordinatesToCellName(2, 2)
	last, _ := excelize.CoordinatesToCellName(col-1, 2)
	_ = f.SetCellStyle(sheetName, first, last, style)

	return dateCols
}

func (e *ExcelExporter) writeSlotHeaders(f *excelize.File, sheetName string, store *models.Store) map[string]int {
	slotRows := make(map[string]int)
	row := 3
	for _, slot := range store.SortedSlots() {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, slot)
		slotRows[slot] = row
		row++
	}
	return slotRows
}

func (e *ExcelExporter) writeBookingCells(f *excelize.File, sheetName string, bookings []*models.Booking, dateCols, slotRows map[string]int) {
	for _, b := range bookings {
		if !b.CountsTowardCapacity() {
			continue
		}
		col, okCol := dateCols[b.Date.Format(models.DateLayout)]
		row, okRow := slotRows[b.Slot]
		if !okCol || !okRow {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col, row)

		// Несколько броней в одном слоте складываются в одну ячейку.
		existing, _ := f.GetCellValue(sheetName, cell)
		entry := fmt.Sprintf("%s (%d) [%s]", b.CustomerID, b.PartySize, b.Status)
		if existing != "" {
			entry = existing + "\n" + entry
		}
		_ = f.SetCellValue(sheetName, cell, entry)
	}
}
