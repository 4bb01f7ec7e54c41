package main

import (
	"context"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/services"
	"github.com/darzi-app/darzi/config"
	"github.com/darzi-app/darzi/internal/bootstrap"
)

var (
	reportType     string
	reportFrom     string
	reportTo       string
	reportFormat   string
	reportDump     bool
	reportNoExport bool
)

// darzi report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a sales report and export it",
	Long: `Generate a report for a period and store it as pdf, excel or csv.

  darzi report --type daily
  darzi report --type custom --from 2023-03-01 --to 2023-03-31 --format csv
  darzi report --type monthly --no-export --dump`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		req, err := reportRequest()
		if err != nil {
			return err
		}

		var (
			r   models.Report
			art services.Artifact
		)
		if reportNoExport {
			r, err = app.Reports.Generate(ctx, req)
		} else {
			r, art, err = app.Reports.Export(ctx, req)
		}
		if err != nil {
			return err
		}

		if reportDump {
			spew.Dump(r)
		} else {
			printReport(r)
		}
		if art.Path != "" {
			fmt.Printf("\nSaved %s (%d bytes): %s\n", art.Path, art.Size, art.URL)
		}
		return nil
	}),
}

func reportRequest() (models.ReportRequest, error) {
	t, err := models.ParseReportType(reportType)
	if err != nil {
		return models.ReportRequest{}, err
	}
	format, err := models.ParseReportFormat(reportFormat)
	if err != nil {
		return models.ReportRequest{}, err
	}
	req := models.ReportRequest{Type: t, Format: format}
	if req.From, err = parseDay("from", reportFrom); err != nil {
		return req, err
	}
	if req.To, err = parseDay("to", reportTo); err != nil {
		return req, err
	}
	return req, nil
}

func parseDay(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, s, config.ShopLocation())
	if err != nil {
		return nil, models.NewValidationError(field, fmt.Sprintf("The %s date must look like 2023-04-20.", field))
	}
	return &d, nil
}

func printReport(r models.Report) {
	fmt.Println(r.Title())
	fmt.Printf("Orders:  %d\n", r.OrderCount)
	fmt.Printf("Revenue: %s\n", r.Revenue.StringFixed(2))

	w := table()
	fmt.Fprintln(w, "\nSTATUS\tORDERS")
	for _, sc := range r.ByStatus {
		fmt.Fprintf(w, "%s\t%d\n", sc.Status, sc.Count)
	}
	if len(r.ByCategory) > 0 {
		fmt.Fprintln(w, "\nCATEGORY\tUNITS\tLINES")
		for _, c := range r.ByCategory {
			fmt.Fprintf(w, "%s\t%d\t%d\n", c.Name, c.Units, c.LineItems)
		}
	}
	_ = w.Flush()
}

// darzi report:list
var reportListCmd = &cobra.Command{
	Use:   "report:list",
	Short: "List exported reports, newest first",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		files, err := app.Exporter.List(ctx)
		if err != nil {
			return err
		}
		w := table()
		fmt.Fprintln(w, "FILE\tSIZE\tSAVED")
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%d\t%s\n", f.Path, f.Size, f.LastModified.In(config.ShopLocation()).Format("2006-01-02 15:04"))
		}
		return w.Flush()
	}),
}

// darzi dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show shop totals, delayed and recent orders",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		s, err := app.Dashboard.Summary(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Customers: %d   Orders: %d   Revenue: %s\n", s.Customers, s.Orders, s.Revenue.StringFixed(2))
		for _, sc := range s.ByStatus {
			fmt.Printf("  %-10s %d\n", sc.Status, sc.Count)
		}

		w := table()
		section := func(title string, views []models.OrderView) {
			fmt.Fprintf(w, "\n%s\t\t\t\n", title)
			if len(views) == 0 {
				fmt.Fprintln(w, "  none\t\t\t")
			}
			for _, v := range views {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", v.Order.OrderID, v.CustomerName, v.Order.Status,
					v.Order.OrderDate.In(config.ShopLocation()).Format(dateLayout))
			}
		}
		section("Delayed", s.Delayed)
		section("Recent", s.Recent)

		fmt.Fprintf(w, "\nPopular %s\t\t\t\n", s.PopularWindow)
		for _, c := range s.Popular {
			fmt.Fprintf(w, "  %s\t%d units\t\t\n", c.Name, c.Units)
		}
		return w.Flush()
	}),
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportType, "type", "t", string(models.ReportDaily), "daily, weekly, monthly or custom")
	f.StringVar(&reportFrom, "from", "", "First day of a custom report (YYYY-MM-DD)")
	f.StringVar(&reportTo, "to", "", "Last day of a custom report (YYYY-MM-DD)")
	f.StringVarP(&reportFormat, "format", "f", string(models.FormatPDF), "pdf, excel or csv")
	f.BoolVar(&reportDump, "dump", false, "Print the raw report structure")
	f.BoolVar(&reportNoExport, "no-export", false, "Only print the report")
}
