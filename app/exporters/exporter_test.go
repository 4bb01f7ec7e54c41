package exporters_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/darzi-app/darzi/app/exporters"
	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/pkg/storage"
)

var shirtID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func sampleReport() models.Report {
	day := time.Date(2023, 4, 20, 0, 0, 0, 0, time.UTC)
	orders := []models.Order{
		{
			OrderID:     "ORD-124",
			Status:      models.StatusPending,
			TotalAmount: decimal.NewFromInt(1200),
			OrderDate:   day.Add(10 * time.Hour),
			Items:       []models.LineItem{{CategoryID: shirtID, Quantity: 2}},
		},
		{
			OrderID:     "ORD-122",
			Status:      models.StatusDelivered,
			TotalAmount: decimal.NewFromInt(1800),
			OrderDate:   day.Add(12 * time.Hour),
			Items:       []models.LineItem{{CategoryID: shirtID, Quantity: 3}},
		},
	}
	w := models.Window{Start: day, End: day.AddDate(0, 0, 1)}
	return models.Aggregate(models.ReportDaily, w, orders, map[uuid.UUID]string{shirtID: "Shirt"}, day.Add(18*time.Hour))
}

func newExporter(t *testing.T) (*exporters.StorageExporter, storage.Disk) {
	t.Helper()
	disk, err := storage.NewLocalDisk(t.TempDir(), "https://files.example.com")
	require.NoError(t, err)
	return exporters.NewStorageExporter(disk, "reports", "Darzi Tailors"), disk
}

func TestExportCSV(t *testing.T) {
	e, disk := newExporter(t)
	ctx := context.Background()

	art, err := e.Export(ctx, sampleReport(), models.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "reports/daily-20230420-180000.csv", art.Path)
	assert.Equal(t, "https://files.example.com/reports/daily-20230420-180000.csv", art.URL)
	assert.Equal(t, models.FormatCSV, art.Format)

	data, err := disk.Get(ctx, art.Path)
	require.NoError(t, err)
	assert.EqualValues(t, len(data), art.Size)

	body := string(data)
	assert.True(t, strings.HasPrefix(body, "Darzi Tailors\n"))
	assert.Contains(t, body, "Revenue,3000.00\n")
	assert.Contains(t, body, "Paid,0\n")
	assert.Contains(t, body, "Shirt,2,5\n")
}

func TestExportExcel(t *testing.T) {
	e, disk := newExporter(t)
	ctx := context.Background()

	art, err := e.Export(ctx, sampleReport(), models.FormatExcel)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(art.Path, ".xlsx"))

	data, err := disk.Get(ctx, art.Path)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Orders by status", "Orders by category"}, f.GetSheetList())
	v, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Darzi Tailors", v)
	v, err = f.GetCellValue("Orders by category", "C2")
	require.NoError(t, err)
	assert.Equal(t, "5", v)
}

func TestExportPDF(t *testing.T) {
	e, disk := newExporter(t)
	ctx := context.Background()

	art, err := e.Export(ctx, sampleReport(), models.FormatPDF)
	require.NoError(t, err)

	data, err := disk.Get(ctx, art.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportEmptyReport(t *testing.T) {
	e, _ := newExporter(t)
	day := time.Date(2023, 4, 21, 0, 0, 0, 0, time.UTC)
	r := models.Aggregate(models.ReportDaily, models.Window{Start: day, End: day.AddDate(0, 0, 1)}, nil, nil, day)

	for _, f := range []models.ReportFormat{models.FormatCSV, models.FormatExcel, models.FormatPDF} {
		_, err := e.Export(context.Background(), r, f)
		assert.NoError(t, err, f)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	e, _ := newExporter(t)
	_, err := e.Export(context.Background(), sampleReport(), "docx")
	assert.Error(t, err)
}

type brokenDisk struct{ storage.Disk }

func (brokenDisk) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func TestExportStorageFailure(t *testing.T) {
	e := exporters.NewStorageExporter(brokenDisk{}, "reports", "")
	_, err := e.Export(context.Background(), sampleReport(), models.FormatCSV)
	assert.ErrorContains(t, err, "disk full")
}

func TestList(t *testing.T) {
	e, _ := newExporter(t)
	ctx := context.Background()

	_, err := e.Export(ctx, sampleReport(), models.FormatCSV)
	require.NoError(t, err)
	_, err = e.Export(ctx, sampleReport(), models.FormatPDF)
	require.NoError(t, err)

	files, err := e.List(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
