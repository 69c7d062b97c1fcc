package report

import (
	"fmt"
	"io"

	"github.com/kevinzhao/taskflow/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Transitions"

var headers = []string{"Task ID", "Actor", "Event", "From", "To", "Timestamp"}

// HistoryExporter renders task transition history as an Excel workbook for
// offline review, one row per transition.
type HistoryExporter struct {
	logger *zap.Logger
}

// NewHistoryExporter creates a new history exporter
func NewHistoryExporter(logger *zap.Logger) *HistoryExporter {
	return &HistoryExporter{logger: logger}
}

// WriteTo writes the workbook for records to w
func (e *HistoryExporter) WriteTo(w io.Writer, records []*entity.TaskHistory) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, h := range headers {
		e.setCell(f, col+1, 1, h)
	}

	for i, record := range records {
		row := i + 2
		e.setCell(f, 1, row, record.TaskID)
		e.setCell(f, 2, row, record.ActorID)
		e.setCell(f, 3, row, record.Event)
		e.setCell(f, 4, row, record.PreviousStatus)
		e.setCell(f, 5, row, record.NewStatus)
		e.setCell(f, 6, row, record.Timestamp.Format("2006-01-02 15:04:05"))
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("History report exported", zap.Int("rows", len(records)))
	return nil
}

// setCell sets a cell value, logging failures without aborting the export
func (e *HistoryExporter) setCell(f *excelize.File, col, row int, value interface{}) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		e.logger.Warn("Invalid cell coordinates", zap.Int("col", col), zap.Int("row", row))
		return
	}
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value", zap.String("cell", cell), zap.Error(err))
	}
}
