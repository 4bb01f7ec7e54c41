package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/query"
	"github.com/darzi-app/darzi/config"
	"github.com/darzi-app/darzi/internal/bootstrap"
)

var (
	orderCriteria     query.OrderCriteria
	orderCustomer     string
	orderItems        []string
	orderInstructions string
	orderDate         string
	adjustReason      string
)

// darzi order:list
var orderListCmd = &cobra.Command{
	Use:   "order:list",
	Short: "List orders, newest first",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		views, err := app.Orders.Search(ctx, orderCriteria)
		if err != nil {
			return err
		}
		w := table()
		fmt.Fprintln(w, "ORDER\tDATE\tCUSTOMER\tITEMS\tSTATUS\tTOTAL")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				v.Order.OrderID,
				v.Order.OrderDate.In(config.ShopLocation()).Format(dateLayout),
				v.CustomerName,
				v.ItemSummary(),
				v.Order.Status,
				v.Order.TotalAmount.StringFixed(2),
			)
		}
		return w.Flush()
	}),
}

// darzi order:show ORDER
var orderShowCmd = &cobra.Command{
	Use:   "order:show ORDER",
	Short: "Show one order with its line items",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, app *bootstrap.App, args []string) error {
		v, err := app.Orders.View(ctx, args[0])
		if err != nil {
			return err
		}
		o := v.Order
		fmt.Printf("%s  %s  %s\n", o.OrderID, o.Status, o.OrderDate.In(config.ShopLocation()).Format(dateLayout))
		fmt.Printf("Customer: %s (%s)\n", v.CustomerName, o.CustomerCode)
		if o.Instructions != "" {
			fmt.Printf("Instructions: %s\n", o.Instructions)
		}
		w := table()
		fmt.Fprintln(w, "CATEGORY\tQTY\tUNIT PRICE\tSUBTOTAL")
		for _, li := range o.Items {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", v.CategoryName(li.CategoryID), li.Quantity,
				li.UnitPrice.StringFixed(2), li.Subtotal().StringFixed(2))
		}
		fmt.Fprintf(w, "\t\tTOTAL\t%s\n", o.TotalAmount.StringFixed(2))
		return w.Flush()
	}),
}

// darzi order:create
var orderCreateCmd = &cobra.Command{
	Use:   "order:create",
	Short: "Place a new order",
	Long: `Place a new order. Each --item is CATEGORY:QUANTITY:UNIT_PRICE, e.g.

  darzi order:create --customer CS001 --item Shirt:2:400 --item Pant:1:400`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		in := models.OrderInput{CustomerCode: orderCustomer, Instructions: orderInstructions}
		if orderDate != "" {
			d, err := time.ParseInLocation(dateLayout, orderDate, config.ShopLocation())
			if err != nil {
				return models.NewValidationError("order_date", "The order_date must look like 2023-04-20.")
			}
			in.OrderDate = d
		}
		for i, raw := range orderItems {
			item, err := parseItem(ctx, app, i, raw)
			if err != nil {
				return err
			}
			in.Items = append(in.Items, item)
		}

		o, err := app.Orders.Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("Order %s placed for %s, total %s.\n", o.OrderID, o.CustomerCode, o.TotalAmount.StringFixed(2))
		return nil
	}),
}

func parseItem(ctx context.Context, app *bootstrap.App, i int, raw string) (models.LineItemInput, error) {
	field := fmt.Sprintf("items[%d]", i)
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return models.LineItemInput{}, models.NewValidationError(field, fmt.Sprintf("Item %q must be CATEGORY:QUANTITY:UNIT_PRICE.", raw))
	}
	c, err := app.Categories.Resolve(ctx, parts[0])
	if err != nil {
		return models.LineItemInput{}, err
	}
	qty, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return models.LineItemInput{}, models.NewValidationError(field+".quantity", fmt.Sprintf("Quantity %q is not a number.", parts[1]))
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return models.LineItemInput{}, models.NewValidationError(field+".unit_price", fmt.Sprintf("Unit price %q is not a number.", parts[2]))
	}
	return models.LineItemInput{CategoryID: c.ID, Quantity: qty, UnitPrice: price}, nil
}

// darzi order:transition ORDER [STATUS]
var orderTransitionCmd = &cobra.Command{
	Use:   "order:transition ORDER [STATUS]",
	Short: "Move an order to its next status (Pending → Paid → Delivered)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: run(func(ctx context.Context, app *bootstrap.App, args []string) error {
		var (
			o   models.Order
			err error
		)
		if len(args) == 1 {
			o, err = app.Orders.Advance(ctx, args[0])
		} else {
			var target models.OrderStatus
			if target, err = models.ParseStatus(args[1]); err != nil {
				return err
			}
			o, err = app.Orders.Transition(ctx, args[0], target)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Order %s is %s.\n", o.OrderID, o.Status)
		return nil
	}),
}

// darzi order:adjust ORDER AMOUNT
var orderAdjustCmd = &cobra.Command{
	Use:   "order:adjust ORDER AMOUNT",
	Short: "Replace an order's total",
	Args:  cobra.ExactArgs(2),
	RunE: run(func(ctx context.Context, app *bootstrap.App, args []string) error {
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return models.NewValidationError("total_amount", fmt.Sprintf("Amount %q is not a number.", args[1]))
		}
		o, err := app.Orders.AdjustPrice(ctx, args[0], amount, adjustReason)
		if err != nil {
			return err
		}
		fmt.Printf("Order %s total is now %s.\n", o.OrderID, o.TotalAmount.StringFixed(2))
		return nil
	}),
}

func init() {
	f := orderListCmd.Flags()
	f.StringVarP(&orderCriteria.Search, "search", "s", "", "Match customer name or order id")
	f.StringVar(&orderCriteria.Status, "status", "", "Pending, Paid or Delivered")
	f.StringVar(&orderCriteria.Category, "category", "", "Only orders with this category")

	f = orderCreateCmd.Flags()
	f.StringVar(&orderCustomer, "customer", "", "Customer code")
	f.StringArrayVar(&orderItems, "item", nil, "Line item CATEGORY:QUANTITY:UNIT_PRICE (repeatable)")
	f.StringVar(&orderInstructions, "instructions", "", "Special instructions")
	f.StringVar(&orderDate, "date", "", "Order date (default today)")

	orderAdjustCmd.Flags().StringVar(&adjustReason, "reason", "", "Why the price changed")
}
