package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/app/models"
)

var (
	shirtID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	pantID  = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

func knownCategories(id uuid.UUID) (bool, error) {
	return id == shirtID || id == pantID, nil
}

func orderInput() models.OrderInput {
	return models.OrderInput{
		CustomerCode: "cs005",
		Items: []models.LineItemInput{
			{CategoryID: shirtID, Quantity: 2, UnitPrice: decimal.NewFromInt(450)},
			{CategoryID: pantID, Quantity: 1, UnitPrice: decimal.NewFromInt(600)},
		},
		OrderDate: time.Date(2023, 4, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewOrder(t *testing.T) {
	o, err := models.NewOrder(orderInput(), knownCategories)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, "CS005", o.CustomerCode)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(1500)), o.TotalAmount.String())
	assert.Equal(t, 3, o.Units())
	require.Len(t, o.Items, 2)
	assert.Equal(t, o.ID, o.Items[0].OrderRef)
	assert.Equal(t, 1, o.Items[1].Position)
	assert.Empty(t, o.OrderID)
}

func TestNewOrderRejectsBadInput(t *testing.T) {
	cases := map[string]func(*models.OrderInput){
		"items":                func(in *models.OrderInput) { in.Items = nil },
		"items[0].quantity":    func(in *models.OrderInput) { in.Items[0].Quantity = 0 },
		"items[1].quantity":    func(in *models.OrderInput) { in.Items[1].Quantity = 1000 },
		"items[1].unit_price":  func(in *models.OrderInput) { in.Items[1].UnitPrice = decimal.NewFromInt(-1) },
		"items[0].category_id": func(in *models.OrderInput) { in.Items[0].CategoryID = uuid.New() },
		"customer_code":        func(in *models.OrderInput) { in.CustomerCode = "  " },
		"order_date":           func(in *models.OrderInput) { in.OrderDate = time.Time{} },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := orderInput()
			mutate(&in)
			_, err := models.NewOrder(in, knownCategories)

			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, field)
			assert.True(t, errors.Is(err, models.ErrValidation))
		})
	}
}

func TestTransitionForwardOnly(t *testing.T) {
	o, err := models.NewOrder(orderInput(), knownCategories)
	require.NoError(t, err)
	o.OrderID = "ORD-001"

	paid, err := o.Transition(models.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, paid.Status)
	assert.Equal(t, models.StatusPending, o.Status, "original must be untouched")

	delivered, err := paid.Transition(models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, delivered.Status)

	_, err = o.Transition(models.StatusDelivered)
	var terr *models.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.StatusPending, terr.From)
	assert.Equal(t, models.StatusDelivered, terr.To)

	_, err = delivered.Transition(models.StatusPending)
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))
}

func TestTransitionSameStatusIsNoop(t *testing.T) {
	o, err := models.NewOrder(orderInput(), knownCategories)
	require.NoError(t, err)

	again, err := o.Transition(models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, o.Status, again.Status)
	assert.True(t, o.TotalAmount.Equal(again.TotalAmount))
}

func TestTransitionIgnoresTargetCase(t *testing.T) {
	o, err := models.NewOrder(orderInput(), knownCategories)
	require.NoError(t, err)

	paid, err := o.Transition(models.OrderStatus("paid"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, paid.Status)

	again, err := paid.Transition(models.OrderStatus("PAID"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, again.Status)
}

func TestWithTotal(t *testing.T) {
	o, err := models.NewOrder(orderInput(), knownCategories)
	require.NoError(t, err)

	adjusted, err := o.WithTotal(decimal.NewFromInt(1400))
	require.NoError(t, err)
	assert.True(t, adjusted.TotalAmount.Equal(decimal.NewFromInt(1400)))
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(1500)))

	_, err = o.WithTotal(decimal.NewFromInt(-5))
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestOrderViewSummary(t *testing.T) {
	o, err := models.NewOrder(orderInput(), knownCategories)
	require.NoError(t, err)
	o.OrderID = models.FormatOrderID("ORD", 7)

	v := models.OrderView{
		Order:         o,
		CustomerName:  "Test User",
		CategoryNames: map[uuid.UUID]string{shirtID: "Shirt"},
	}
	assert.Equal(t, "ORD-007", o.OrderID)
	assert.Equal(t, "2×Shirt, 1×"+pantID.String(), v.ItemSummary())
	assert.Equal(t, []string{"Test User", "ORD-007"}, v.SearchFields())
}
