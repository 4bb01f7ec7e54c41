package seeders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/pkg/logger"
)

func init() {
	Register("sample_data", SampleData)
}

type sampleCategory struct {
	name, description, color string
	items                    int
}

var sampleCategories = []sampleCategory{
	{"Shirt", "Formal and casual shirts for men", "#3b82f6", 24},
	{"Pant", "Formal and casual pants for men", "#10b981", 18},
	{"Kurta", "Traditional Indian kurtas", "#f97316", 12},
	{"Suit", "Business, wedding and special event suits", "#8b5cf6", 8},
	{"Sherwani", "Traditional Indian wedding wear", "#ec4899", 6},
	{"Blazer", "Formal and semi-formal blazers", "#f43f5e", 10},
}

func shirt(chest, waist, length, shoulder float64) models.MeasurementSet {
	return models.MeasurementSet{
		"chest":    {Value: chest},
		"waist":    {Value: waist},
		"length":   {Value: length},
		"shoulder": {Value: shoulder},
	}
}

func pant(waist, length, bottom float64) models.MeasurementSet {
	return models.MeasurementSet{
		"waist":  {Value: waist},
		"length": {Value: length},
		"bottom": {Value: bottom},
	}
}

var sampleCustomers = []models.CustomerInput{
	{
		Name: "Vikram Singh", Phone: "+91 98765 43210", Email: "vikram@example.com", CustomerCode: "CS001",
		Measurements: models.Measurements{Shirt: shirt(42, 38, 30, 18), Pant: pant(34, 40, 16)},
	},
	{
		Name: "Priya Sharma", Phone: "+91 87654 32109", Email: "priya@example.com", CustomerCode: "CS002",
		Measurements: models.Measurements{Shirt: shirt(36, 32, 26, 16), Pant: pant(28, 38, 14)},
	},
	{
		Name: "Ravi Kumar", Phone: "+91 76543 21098", Email: "ravi@example.com", CustomerCode: "CS003",
		Measurements: models.Measurements{Shirt: shirt(40, 36, 28, 17.5), Pant: pant(32, 39, 15)},
	},
	{
		Name: "Ananya Patel", Phone: "+91 65432 10987", Email: "ananya@example.com", CustomerCode: "CS004",
		Measurements: models.Measurements{Shirt: shirt(34, 30, 25, 15.5), Pant: pant(26, 36, 13)},
	},
}

type sampleLine struct {
	category string
	quantity int
	price    int64
}

type sampleOrder struct {
	seq          int64
	customer     string
	lines        []sampleLine
	instructions string
	status       models.OrderStatus
	date         string
}

var sampleOrders = []sampleOrder{
	{124, "CS001", []sampleLine{{"Shirt", 2, 400}, {"Pant", 1, 400}}, "Need the shirts by next Friday for an event.", models.StatusPending, "2023-04-20"},
	{123, "CS002", []sampleLine{{"Suit", 1, 2500}}, "Special stitching for wedding.", models.StatusPaid, "2023-04-15"},
	{122, "CS003", []sampleLine{{"Shirt", 3, 600}}, "Office wear shirts, regular fit.", models.StatusDelivered, "2023-04-10"},
	{121, "CS004", []sampleLine{{"Kurta", 2, 1000}, {"Pant", 2, 600}}, "Festival wear, bright colors.", models.StatusPending, "2023-04-05"},
}

// historyOffset is how far the repeat orders ORD-125..128 precede their
// originals. They are old enough to have been delivered.
const historyOffset = 4

// SampleData loads the demo shop: four customers, six categories with
// their catalog items, and orders ORD-121 to ORD-128. It does nothing when
// customer CS001 already exists.
func SampleData(ctx context.Context, store repositories.Store) error {
	log := logger.WithCtx(ctx)

	seeded, err := store.CustomerCodeTaken(ctx, "CS001")
	if err != nil {
		return err
	}
	if seeded {
		log.Info("seed: sample data already present")
		return nil
	}

	categories := map[string]models.Category{}
	for _, sc := range sampleCategories {
		c, err := models.NewCategory(models.CategoryInput{Name: sc.name, Description: sc.description, ColorTag: sc.color}, nil)
		if err != nil {
			return err
		}
		if err := store.PutCategory(ctx, c); err != nil {
			return err
		}
		for i := 1; i <= sc.items; i++ {
			item, err := models.NewCatalogItem(fmt.Sprintf("%s design %02d", sc.name, i), c.ID)
			if err != nil {
				return err
			}
			if err := store.PutCatalogItem(ctx, item); err != nil {
				return err
			}
		}
		categories[sc.name] = c
	}

	for _, in := range sampleCustomers {
		c, err := models.NewCustomer(in, nil)
		if err != nil {
			return err
		}
		if err := store.PutCustomer(ctx, c); err != nil {
			return err
		}
	}

	var last int64
	for _, so := range sampleOrders {
		date, err := time.Parse("2006-01-02", so.date)
		if err != nil {
			return err
		}
		if err := seedOrder(ctx, store, categories, so, date); err != nil {
			return err
		}

		repeat := so
		repeat.seq += historyOffset
		repeat.status = models.StatusDelivered
		if err := seedOrder(ctx, store, categories, repeat, date.AddDate(0, 0, -30)); err != nil {
			return err
		}
		last = max(last, repeat.seq)
	}

	if err := store.SetOrderSequence(ctx, last); err != nil {
		return err
	}
	log.Info("seed: sample data loaded",
		"customers", len(sampleCustomers),
		"categories", len(sampleCategories),
		"orders", 2*len(sampleOrders),
	)
	return nil
}

func seedOrder(ctx context.Context, store repositories.Store, categories map[string]models.Category, so sampleOrder, date time.Time) error {
	in := models.OrderInput{
		CustomerCode: so.customer,
		Instructions: so.instructions,
		OrderDate:    date,
	}
	for _, l := range so.lines {
		in.Items = append(in.Items, models.LineItemInput{
			CategoryID: categories[l.category].ID,
			Quantity:   l.quantity,
			UnitPrice:  decimal.NewFromInt(l.price),
		})
	}

	o, err := models.NewOrder(in, nil)
	if err != nil {
		return err
	}
	o.OrderID = models.FormatOrderID("ORD", so.seq)
	o.Status = so.status

	if err := store.CreateOrder(ctx, o); err != nil {
		return err
	}
	return store.RecordCustomerOrder(ctx, o.CustomerCode, o.OrderDate)
}
