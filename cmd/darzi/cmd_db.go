package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/darzi-app/darzi/config"
	"github.com/darzi-app/darzi/database/seeders"
	"github.com/darzi-app/darzi/internal/bootstrap"
	"github.com/darzi-app/darzi/pkg/database"
	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/migration"

	_ "github.com/darzi-app/darzi/database/migrations"
)

// bootDB loads config and opens the database connection.
func bootDB() (*gorm.DB, error) {
	logger.SetOutput(os.Stderr)
	if err := config.Load(); err != nil {
		return nil, err
	}
	return database.Connect()
}

// darzi migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		ran, err := migration.New(db).Run()
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			fmt.Println("Nothing to migrate.")
		}
		for _, name := range ran {
			fmt.Println("Migrated:", name)
		}
		return nil
	},
}

// darzi migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		rolled, err := migration.New(db).Rollback()
		if err != nil {
			return err
		}
		if len(rolled) == 0 {
			fmt.Println("Nothing to roll back.")
		}
		for _, name := range rolled {
			fmt.Println("Rolled back:", name)
		}
		return nil
	},
}

// darzi migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		statuses, err := migration.New(db).Status()
		if err != nil {
			return err
		}
		w := table()
		fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
		for _, s := range statuses {
			ran, batch := "no", "-"
			if s.Ran {
				ran, batch = "yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, ran, batch)
		}
		return w.Flush()
	},
}

// darzi seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		names, err := seeders.RunAll(ctx, app.Store)
		for _, name := range names {
			fmt.Println("Seeded:", name)
		}
		return err
	}),
}
