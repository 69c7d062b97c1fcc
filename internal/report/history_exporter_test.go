package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kevinzhao/taskflow/internal/domain/entity"
)

func TestHistoryExporter_WriteTo(t *testing.T) {
	records := []*entity.TaskHistory{
		{
			TaskID:         1,
			ActorID:        "manager",
			PreviousStatus: "DRAFT",
			NewStatus:      "AWAITING",
			Event:          "ASSIGN",
			Timestamp:      time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		},
		{
			TaskID:         1,
			ActorID:        "u1",
			PreviousStatus: "AWAITING",
			NewStatus:      "ACCEPTED",
			Event:          "ACCEPT",
			Timestamp:      time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	exporter := NewHistoryExporter(zap.NewNop())
	require.NoError(t, exporter.WriteTo(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(sheetName, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Event", header)

	event, err := f.GetCellValue(sheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "ASSIGN", event)

	to, err := f.GetCellValue(sheetName, "E3")
	require.NoError(t, err)
	assert.Equal(t, "ACCEPTED", to)
}

func TestHistoryExporter_EmptyHistory(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewHistoryExporter(zap.NewNop())
	require.NoError(t, exporter.WriteTo(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "only the header row is expected")
}
