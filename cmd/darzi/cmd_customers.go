package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/internal/bootstrap"
)

var (
	customerSearch     string
	customerActiveOnly bool
	customerInput      models.CustomerInput
	shirtFlag          map[string]string
	pantFlag           map[string]string
	measureUnit        string
)

// darzi customer:list
var customerListCmd = &cobra.Command{
	Use:   "customer:list",
	Short: "List customers",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		customers, err := app.Customers.List(ctx, customerSearch, customerActiveOnly)
		if err != nil {
			return err
		}
		w := table()
		fmt.Fprintln(w, "CODE\tNAME\tPHONE\tEMAIL\tORDERS\tLAST ORDER\tACTIVE")
		for _, c := range customers {
			last := "-"
			if c.LastOrderDate != nil {
				last = c.LastOrderDate.Format(dateLayout)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%t\n",
				c.CustomerCode, c.Name, c.Phone, c.Email, c.TotalOrders, last, c.Active)
		}
		return w.Flush()
	}),
}

// darzi customer:add
var customerAddCmd = &cobra.Command{
	Use:   "customer:add",
	Short: "Onboard a customer with their measurements",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		m, err := measurementsFromFlags()
		if err != nil {
			return err
		}
		in := customerInput
		in.Measurements = m
		c, err := app.Customers.Onboard(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("Customer %s (%s) added.\n", c.CustomerCode, c.Name)
		return nil
	}),
}

// darzi customer:measure CODE
var customerMeasureCmd = &cobra.Command{
	Use:   "customer:measure CODE",
	Short: "Replace a customer's measurements",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, app *bootstrap.App, args []string) error {
		m, err := measurementsFromFlags()
		if err != nil {
			return err
		}
		c, err := app.Customers.UpdateMeasurements(ctx, args[0], m)
		if err != nil {
			return err
		}
		printMeasurements(c)
		return nil
	}),
}

// darzi customer:deactivate CODE
var customerDeactivateCmd = &cobra.Command{
	Use:   "customer:deactivate CODE",
	Short: "Stop taking new orders for a customer",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, app *bootstrap.App, args []string) error {
		c, err := app.Customers.Deactivate(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Customer %s deactivated.\n", c.CustomerCode)
		return nil
	}),
}

// darzi customer:activate CODE
var customerActivateCmd = &cobra.Command{
	Use:   "customer:activate CODE",
	Short: "Reactivate a customer",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, app *bootstrap.App, args []string) error {
		c, err := app.Customers.Reactivate(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Customer %s reactivated.\n", c.CustomerCode)
		return nil
	}),
}

// measurementsFromFlags reads --shirt chest=40,waist=34 style flags.
func measurementsFromFlags() (models.Measurements, error) {
	shirt, err := measurementSet("shirt", shirtFlag)
	if err != nil {
		return models.Measurements{}, err
	}
	pant, err := measurementSet("pant", pantFlag)
	if err != nil {
		return models.Measurements{}, err
	}
	return models.Measurements{Shirt: shirt, Pant: pant}, nil
}

func measurementSet(kind string, raw map[string]string) (models.MeasurementSet, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	set := models.MeasurementSet{}
	for name, v := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, models.NewValidationError("measurements."+kind+"."+name,
				fmt.Sprintf("The %s %s measurement must be a number.", kind, name))
		}
		set[name] = models.Measurement{Value: f, Unit: measureUnit}
	}
	return set, nil
}

func printMeasurements(c models.Customer) {
	fmt.Printf("%s (%s)\n", c.Name, c.CustomerCode)
	for _, part := range []struct {
		label string
		set   models.MeasurementSet
	}{{"Shirt", c.Measurements.Shirt}, {"Pant", c.Measurements.Pant}} {
		if len(part.set) == 0 {
			continue
		}
		names := make([]string, 0, len(part.set))
		for name := range part.set {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("  %s:\n", part.label)
		for _, name := range names {
			m := part.set[name]
			fmt.Printf("    %-10s %g %s\n", name, m.Value, m.Unit)
		}
	}
}

func init() {
	customerListCmd.Flags().StringVarP(&customerSearch, "search", "s", "", "Match name, phone, e-mail or code")
	customerListCmd.Flags().BoolVar(&customerActiveOnly, "active", false, "Only active customers")

	f := customerAddCmd.Flags()
	f.StringVar(&customerInput.Name, "name", "", "Full name")
	f.StringVar(&customerInput.Phone, "phone", "", "Phone number")
	f.StringVar(&customerInput.Email, "email", "", "E-mail address")
	f.StringVar(&customerInput.CustomerCode, "code", "", "Shop-assigned customer code, e.g. CS005")

	for _, c := range []*cobra.Command{customerAddCmd, customerMeasureCmd} {
		c.Flags().StringToStringVar(&shirtFlag, "shirt", nil, "Shirt measurements, e.g. chest=40,waist=34")
		c.Flags().StringToStringVar(&pantFlag, "pant", nil, "Pant measurements, e.g. waist=32,length=40")
		c.Flags().StringVar(&measureUnit, "unit", models.DefaultUnit, "Unit for the measurements given")
	}
}
