// Package exporters renders reports as CSV, Excel or PDF files and stores
// them on a storage disk.
package exporters

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/services"
	"github.com/darzi-app/darzi/pkg/storage"
)

// renderFunc turns a report into file content.
type renderFunc func(r models.Report, shop string) ([]byte, error)

var renderers = map[models.ReportFormat]renderFunc{
	models.FormatCSV:   renderCSV,
	models.FormatExcel: renderExcel,
	models.FormatPDF:   renderPDF,
}

// StorageExporter writes rendered reports under a directory of a disk.
type StorageExporter struct {
	disk storage.Disk
	dir  string
	shop string
	now  func() time.Time
}

// NewStorageExporter returns an exporter that writes to dir on disk. shop
// is printed in report headings.
func NewStorageExporter(disk storage.Disk, dir, shop string) *StorageExporter {
	return &StorageExporter{
		disk: disk,
		dir:  strings.Trim(dir, "/"),
		shop: shop,
		now:  time.Now,
	}
}

// Export renders r as format and stores it. File names carry the report
// type, its first day and the generation time so reruns never overwrite.
func (e *StorageExporter) Export(ctx context.Context, r models.Report, format models.ReportFormat) (services.Artifact, error) {
	render, ok := renderers[format]
	if !ok {
		return services.Artifact{}, fmt.Errorf("exporters: unsupported format %q", format)
	}
	data, err := render(r, e.shop)
	if err != nil {
		return services.Artifact{}, fmt.Errorf("exporters: render %s: %w", format, err)
	}

	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = e.now()
	}
	name := fmt.Sprintf("%s-%s-%s.%s",
		r.Type,
		r.Window.Start.Format("20060102"),
		generated.Format("150405"),
		format.Extension(),
	)
	p := path.Join(e.dir, name)

	if err := e.disk.Put(ctx, p, data); err != nil {
		return services.Artifact{}, fmt.Errorf("exporters: store %s: %w", p, err)
	}
	return services.Artifact{
		Path:   p,
		URL:    e.disk.URL(p),
		Format: format,
		Size:   int64(len(data)),
	}, nil
}

// List returns the stored reports, newest first.
func (e *StorageExporter) List(ctx context.Context) ([]storage.FileInfo, error) {
	files, err := e.disk.Files(ctx, e.dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].LastModified.Equal(files[j].LastModified) {
			return files[i].LastModified.After(files[j].LastModified)
		}
		return files[i].Path > files[j].Path
	})
	return files, nil
}

// table is the tabular form shared by every renderer.
type table struct {
	title  string
	header []string
	rows   [][]string
}

func money(r models.Report) string { return r.Revenue.StringFixed(2) }

func tables(r models.Report) []table {
	summary := table{
		title:  "Summary",
		header: []string{"Metric", "Value"},
		rows: [][]string{
			{"Report", r.Title()},
			{"Period", r.Window.String()},
			{"Orders", fmt.Sprint(r.OrderCount)},
			{"Revenue", money(r)},
			{"Generated", r.GeneratedAt.Format("2006-01-02 15:04")},
		},
	}

	status := table{title: "Orders by status", header: []string{"Status", "Orders"}}
	for _, sc := range r.ByStatus {
		status.rows = append(status.rows, []string{string(sc.Status), fmt.Sprint(sc.Count)})
	}

	category := table{title: "Orders by category", header: []string{"Category", "Line items", "Units"}}
	for _, c := range r.ByCategory {
		category.rows = append(category.rows, []string{c.Name, fmt.Sprint(c.LineItems), fmt.Sprint(c.Units)})
	}

	return []table{summary, status, category}
}
