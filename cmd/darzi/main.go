package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "darzi",
	Short:         "Darzi — tailor shop orders and reports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Customers
	rootCmd.AddCommand(customerListCmd)
	rootCmd.AddCommand(customerAddCmd)
	rootCmd.AddCommand(customerMeasureCmd)
	rootCmd.AddCommand(customerDeactivateCmd)
	rootCmd.AddCommand(customerActivateCmd)

	// Categories
	rootCmd.AddCommand(categoryListCmd)
	rootCmd.AddCommand(categoryAddCmd)
	rootCmd.AddCommand(categoryEditCmd)
	rootCmd.AddCommand(categoryDeleteCmd)
	rootCmd.AddCommand(categoryItemCmd)

	// Orders
	rootCmd.AddCommand(orderListCmd)
	rootCmd.AddCommand(orderShowCmd)
	rootCmd.AddCommand(orderCreateCmd)
	rootCmd.AddCommand(orderTransitionCmd)
	rootCmd.AddCommand(orderAdjustCmd)

	// Reports
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(reportListCmd)
	rootCmd.AddCommand(dashboardCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(scheduleRunCmd)
	rootCmd.AddCommand(metricsServeCmd)
}
