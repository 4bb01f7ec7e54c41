package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportType selects the report window.
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportCustom  ReportType = "custom"
)

// ReportFormat is a hint for the exporter; the core never renders files.
type ReportFormat string

const (
	FormatPDF   ReportFormat = "pdf"
	FormatExcel ReportFormat = "excel"
	FormatCSV   ReportFormat = "csv"
)

// ParseReportType resolves s case-insensitively.
func ParseReportType(s string) (ReportType, error) {
	switch t := ReportType(strings.ToLower(strings.TrimSpace(s))); t {
	case ReportDaily, ReportWeekly, ReportMonthly, ReportCustom:
		return t, nil
	}
	return "", NewValidationError("type", fmt.Sprintf("Unknown report type %q.", s))
}

// ParseReportFormat resolves s case-insensitively. Empty means PDF.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatExcel, FormatCSV:
		return f, nil
	}
	return "", NewValidationError("format", fmt.Sprintf("Unknown report format %q.", s))
}

// Extension is the file suffix used for exported artifacts.
func (f ReportFormat) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// ReportRequest describes which report to build. From and To are only read
// for custom reports and are inclusive calendar dates.
type ReportRequest struct {
	Type   ReportType
	From   *time.Time
	To     *time.Time
	Format ReportFormat
}

// Window is the half-open range [Start, End) used to select orders.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside w.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	last := w.End.AddDate(0, 0, -1)
	if last.Equal(w.Start) || last.Before(w.Start) {
		return w.Start.Format("2006-01-02")
	}
	return w.Start.Format("2006-01-02") + " – " + last.Format("2006-01-02")
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ResolveWindow turns req into a concrete window relative to now, using
// now's location for day boundaries:
//
//	daily    today
//	weekly   the 7 days ending today
//	monthly  the current calendar month
//	custom   From through To, both inclusive
func ResolveWindow(req ReportRequest, now time.Time) (Window, error) {
	today := StartOfDay(now)
	y, m, d := today.Date()
	loc := today.Location()

	switch req.Type {
	case ReportDaily:
		return Window{Start: today, End: time.Date(y, m, d+1, 0, 0, 0, 0, loc)}, nil
	case ReportWeekly:
		return Window{Start: time.Date(y, m, d-6, 0, 0, 0, 0, loc), End: time.Date(y, m, d+1, 0, 0, 0, 0, loc)}, nil
	case ReportMonthly:
		return Window{Start: time.Date(y, m, 1, 0, 0, 0, 0, loc), End: time.Date(y, m+1, 1, 0, 0, 0, 0, loc)}, nil
	case ReportCustom:
		if req.From == nil || req.To == nil {
			return Window{}, NewValidationError("range", "A custom report needs both a start and an end date.")
		}
		from := StartOfDay(req.From.In(loc))
		to := StartOfDay(req.To.In(loc))
		if to.Before(from) {
			return Window{}, NewValidationError("range", "The end date must not be before the start date.")
		}
		ty, tm, td := to.Date()
		return Window{Start: from, End: time.Date(ty, tm, td+1, 0, 0, 0, 0, loc)}, nil
	}
	return Window{}, NewValidationError("type", fmt.Sprintf("Unknown report type %q.", req.Type))
}

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int         `json:"count"`
}

// CategoryTally counts line items and garments for one category.
type CategoryTally struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	LineItems  int       `json:"line_items"`
	Units      int       `json:"units"`
}

// Report is the aggregate handed to an exporter. Aggregate builds a fresh
// value every call; nothing in it aliases the orders it was built from.
type Report struct {
	Type        ReportType      `json:"type"`
	Window      Window          `json:"window"`
	OrderCount  int             `json:"order_count"`
	Revenue     decimal.Decimal `json:"revenue"`
	ByStatus    []StatusCount   `json:"by_status"`
	ByCategory  []CategoryTally `json:"by_category"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Aggregate selects orders inside w and computes counts and sums. Every
// status appears in ByStatus even when zero; ByCategory is ordered by units
// then name.
func Aggregate(t ReportType, w Window, orders []Order, categoryNames map[uuid.UUID]string, now time.Time) Report {
	r := Report{
		Type:        t,
		Window:      w,
		Revenue:     decimal.Zero,
		GeneratedAt: now,
	}

	perStatus := make(map[OrderStatus]int, len(Statuses))
	perCategory := map[uuid.UUID]*CategoryTally{}

	for _, o := range orders {
		if !w.Contains(o.OrderDate) {
			continue
		}
		r.OrderCount++
		r.Revenue = r.Revenue.Add(o.TotalAmount)
		perStatus[o.Status]++

		for _, li := range o.Items {
			tally, ok := perCategory[li.CategoryID]
			if !ok {
				name, known := categoryNames[li.CategoryID]
				if !known {
					name = li.CategoryID.String()
				}
				tally = &CategoryTally{CategoryID: li.CategoryID, Name: name}
				perCategory[li.CategoryID] = tally
			}
			tally.LineItems++
			tally.Units += li.Quantity
		}
	}

	r.ByStatus = make([]StatusCount, 0, len(Statuses))
	for _, st := range Statuses {
		r.ByStatus = append(r.ByStatus, StatusCount{Status: st, Count: perStatus[st]})
	}

	r.ByCategory = make([]CategoryTally, 0, len(perCategory))
	for _, tally := range perCategory {
		r.ByCategory = append(r.ByCategory, *tally)
	}
	sort.Slice(r.ByCategory, func(i, j int) bool {
		a, b := r.ByCategory[i], r.ByCategory[j]
		if a.Units != b.Units {
			return a.Units > b.Units
		}
		return a.Name < b.Name
	})

	return r
}

// CountFor returns the number of orders in status s.
func (r Report) CountFor(s OrderStatus) int {
	for _, sc := range r.ByStatus {
		if sc.Status == s {
			return sc.Count
		}
	}
	return 0
}

// Empty reports whether no orders fell inside the window.
func (r Report) Empty() bool { return r.OrderCount == 0 }

// Title is a human-readable heading, e.g. "Weekly report 2023-04-14 – 2023-04-20".
func (r Report) Title() string {
	name := string(r.Type)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s report %s", name, r.Window)
}
