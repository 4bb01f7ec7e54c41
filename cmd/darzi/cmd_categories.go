package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/internal/bootstrap"
)

var (
	categorySearch  string
	categoryInput   models.CategoryInput
	categoryCascade bool
	categoryItems   bool
)

// darzi category:list
var categoryListCmd = &cobra.Command{
	Use:   "category:list",
	Short: "List garment categories",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		categories, err := app.Categories.List(ctx, categorySearch)
		if err != nil {
			return err
		}
		w := table()
		fmt.Fprintln(w, "NAME\tITEMS\tCOLOR\tDESCRIPTION")
		for _, c := range categories {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.Name, c.ItemCount, c.ColorTag, c.Description)
			if !categoryItems {
				continue
			}
			items, err := app.Categories.Items(ctx, c.ID)
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Fprintf(w, "  · %s\t\t\t\n", it.Name)
			}
		}
		return w.Flush()
	}),
}

// darzi category:add
var categoryAddCmd = &cobra.Command{
	Use:   "category:add",
	Short: "Create a category",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		c, err := app.Categories.Create(ctx, categoryInput)
		if err != nil {
			return err
		}
		fmt.Printf("Category %s created (%s).\n", c.Name, c.ID)
		return nil
	}),
}

// darzi category:edit NAME
var categoryEditCmd = &cobra.Command{
	Use:   "category:edit NAME",
	Short: "Rename or describe a category",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, app *bootstrap.App, args []string) error {
		current, err := app.Categories.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		in := models.CategoryInput{Name: current.Name, Description: current.Description, ColorTag: current.ColorTag}
		if categoryInput.Name != "" {
			in.Name = categoryInput.Name
		}
		if categoryInput.Description != "" {
			in.Description = categoryInput.Description
		}
		if categoryInput.ColorTag != "" {
			in.ColorTag = categoryInput.ColorTag
		}
		c, err := app.Categories.Update(ctx, current.ID, in)
		if err != nil {
			return err
		}
		fmt.Printf("Category %s updated.\n", c.Name)
		return nil
	}),
}

// darzi category:delete NAME
var categoryDeleteCmd = &cobra.Command{
	Use:   "category:delete NAME",
	Short: "Delete a category that no order uses",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, app *bootstrap.App, args []string) error {
		c, err := app.Categories.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.Categories.Delete(ctx, c.ID, categoryCascade); err != nil {
			return err
		}
		fmt.Printf("Category %s deleted.\n", c.Name)
		return nil
	}),
}

// darzi category:item NAME ITEM
var categoryItemCmd = &cobra.Command{
	Use:   "category:item CATEGORY ITEM",
	Short: "Add a catalog item to a category",
	Args:  cobra.ExactArgs(2),
	RunE: run(func(ctx context.Context, app *bootstrap.App, args []string) error {
		c, err := app.Categories.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		item, err := app.Categories.AddItem(ctx, c.ID, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Added %s to %s.\n", item.Name, c.Name)
		return nil
	}),
}

func init() {
	categoryListCmd.Flags().StringVarP(&categorySearch, "search", "s", "", "Match name or description")
	categoryListCmd.Flags().BoolVar(&categoryItems, "items", false, "Show catalog items")

	for _, c := range []*cobra.Command{categoryAddCmd, categoryEditCmd} {
		c.Flags().StringVar(&categoryInput.Name, "name", "", "Category name")
		c.Flags().StringVar(&categoryInput.Description, "description", "", "Short description")
		c.Flags().StringVar(&categoryInput.ColorTag, "color", "", "Hex color tag, e.g. #3b82f6")
	}
	categoryDeleteCmd.Flags().BoolVar(&categoryCascade, "cascade", false, "Also delete the category's catalog items")
}
