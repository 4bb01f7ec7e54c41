package exporters

import (
	"bytes"
	"encoding/csv"

	"github.com/darzi-app/darzi/app/models"
)

// renderCSV writes each table as a titled block separated by a blank line.
func renderCSV(r models.Report, shop string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if shop != "" {
		if err := w.Write([]string{shop}); err != nil {
			return nil, err
		}
	}
	for i, t := range tables(r) {
		if i > 0 || shop != "" {
			if err := w.Write([]string{""}); err != nil {
				return nil, err
			}
		}
		if err := w.Write([]string{t.title}); err != nil {
			return nil, err
		}
		if err := w.Write(t.header); err != nil {
			return nil, err
		}
		if err := w.WriteAll(t.rows); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
