package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/repositories"
	_ "github.com/darzi-app/darzi/database/migrations"
	"github.com/darzi-app/darzi/pkg/cache"
	"github.com/darzi-app/darzi/pkg/database"
	"github.com/darzi-app/darzi/pkg/migration"
)

func newGormStore(t *testing.T) repositories.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	_, err = migration.New(db).Run()
	require.NoError(t, err)
	return repositories.NewGormStore(db)
}

// stores returns one fresh instance of every Store implementation.
func stores(t *testing.T) map[string]repositories.Store {
	return map[string]repositories.Store{
		"memory": repositories.NewMemoryStore(),
		"gorm":   newGormStore(t),
		"cached": repositories.NewCachedStore(repositories.NewMemoryStore(), cache.NewMemory(), time.Minute),
	}
}

func eachStore(t *testing.T, fn func(t *testing.T, s repositories.Store)) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) { fn(t, s) })
	}
}

func customer(t *testing.T, code, name string) models.Customer {
	t.Helper()
	c, err := models.NewCustomer(models.CustomerInput{
		Name:         name,
		Phone:        "+91 98765 43210",
		CustomerCode: code,
	}, nil)
	require.NoError(t, err)
	return c
}

func category(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := models.NewCategory(models.CategoryInput{Name: name}, nil)
	require.NoError(t, err)
	return c
}

func order(t *testing.T, id, code string, cat uuid.UUID, date time.Time) models.Order {
	t.Helper()
	o, err := models.NewOrder(models.OrderInput{
		CustomerCode: code,
		Items:        []models.LineItemInput{{CategoryID: cat, Quantity: 2, UnitPrice: decimal.NewFromInt(450)}},
		OrderDate:    date,
	}, nil)
	require.NoError(t, err)
	o.OrderID = id
	return o
}

func TestCustomers(t *testing.T) {
	eachStore(t, func(t *testing.T, s repositories.Store) {
		ctx := context.Background()
		c := customer(t, "CS001", "Vikram Singh")
		require.NoError(t, s.PutCustomer(ctx, c))

		got, err := s.GetCustomer(ctx, "cs001")
		require.NoError(t, err)
		assert.Equal(t, "Vikram Singh", got.Name)
		assert.True(t, got.Active)

		taken, err := s.CustomerCodeTaken(ctx, "CS001")
		require.NoError(t, err)
		assert.True(t, taken)

		dup := customer(t, "CS001", "Someone Else")
		assert.ErrorIs(t, s.PutCustomer(ctx, dup), models.ErrValidation)

		got.Active = false
		require.NoError(t, s.PutCustomer(ctx, got))
		got, err = s.GetCustomer(ctx, "CS001")
		require.NoError(t, err)
		assert.False(t, got.Active)

		date := time.Date(2023, 4, 20, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.RecordCustomerOrder(ctx, "CS001", date))
		require.NoError(t, s.RecordCustomerOrder(ctx, "CS001", date.AddDate(0, 0, -30)))
		got, err = s.GetCustomer(ctx, "CS001")
		require.NoError(t, err)
		assert.Equal(t, 2, got.TotalOrders)
		require.NotNil(t, got.LastOrderDate)
		assert.True(t, got.LastOrderDate.Equal(date))

		n, err := s.CountCustomers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, err = s.GetCustomer(ctx, "CS404")
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.ErrorIs(t, s.RecordCustomerOrder(ctx, "CS404", date), models.ErrNotFound)
	})
}

func TestCategories(t *testing.T) {
	eachStore(t, func(t *testing.T, s repositories.Store) {
		ctx := context.Background()
		shirt := category(t, "Shirt")
		pant := category(t, "Pant")
		require.NoError(t, s.PutCategory(ctx, shirt))
		require.NoError(t, s.PutCategory(ctx, pant))

		for _, name := range []string{"Oxford", "Linen"} {
			item, err := models.NewCatalogItem(name, shirt.ID)
			require.NoError(t, err)
			require.NoError(t, s.PutCatalogItem(ctx, item))
		}

		list, err := s.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Pant", list[0].Name)
		assert.Equal(t, 0, list[0].ItemCount)
		assert.Equal(t, "Shirt", list[1].Name)
		assert.Equal(t, 2, list[1].ItemCount)

		byName, err := s.GetCategoryByName(ctx, "shirt")
		require.NoError(t, err)
		assert.Equal(t, shirt.ID, byName.ID)

		clash := category(t, "SHIRT")
		assert.ErrorIs(t, s.PutCategory(ctx, clash), models.ErrValidation)

		shirt.Description = "Formal and casual"
		require.NoError(t, s.PutCategory(ctx, shirt))
		got, err := s.GetCategory(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Equal(t, "Formal and casual", got.Description)
		assert.Equal(t, 2, got.ItemCount)

		orphan, err := models.NewCatalogItem("Ghost", uuid.New())
		require.NoError(t, err)
		assert.ErrorIs(t, s.PutCatalogItem(ctx, orphan), models.ErrNotFound)

		require.NoError(t, s.DeleteCategory(ctx, shirt.ID))
		n, err := s.CountCatalogItems(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		list, err = s.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Pant", list[0].Name)

		assert.ErrorIs(t, s.DeleteCategory(ctx, shirt.ID), models.ErrNotFound)
	})
}

func TestOrders(t *testing.T) {
	eachStore(t, func(t *testing.T, s repositories.Store) {
		ctx := context.Background()
		shirt := category(t, "Shirt")
		require.NoError(t, s.PutCategory(ctx, shirt))

		day := func(d int) time.Time { return time.Date(2023, 4, d, 9, 0, 0, 0, time.UTC) }
		require.NoError(t, s.CreateOrder(ctx, order(t, "ORD-001", "CS001", shirt.ID, day(10))))
		require.NoError(t, s.CreateOrder(ctx, order(t, "ORD-002", "CS001", shirt.ID, day(20))))
		require.NoError(t, s.CreateOrder(ctx, order(t, "ORD-003", "CS002", shirt.ID, day(15))))

		assert.ErrorIs(t, s.CreateOrder(ctx, order(t, "ORD-001", "CS001", shirt.ID, day(1))), models.ErrValidation)

		got, err := s.GetOrder(ctx, "ord-002")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 2, got.Items[0].Quantity)
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(900)))

		all, err := s.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"ORD-002", "ORD-003", "ORD-001"}, ids(all))

		between, err := s.ListOrdersBetween(ctx, day(10), day(20))
		require.NoError(t, err)
		assert.Equal(t, []string{"ORD-001", "ORD-003"}, ids(between))

		inUse, err := s.CategoryInUse(ctx, shirt.ID)
		require.NoError(t, err)
		assert.True(t, inUse)

		require.NoError(t, s.UpdateOrderStatus(ctx, "ORD-002", models.StatusPending, models.StatusPaid))
		err = s.UpdateOrderStatus(ctx, "ORD-002", models.StatusPending, models.StatusPaid)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.ErrorIs(t, s.UpdateOrderStatus(ctx, "ORD-404", models.StatusPending, models.StatusPaid), models.ErrNotFound)

		require.NoError(t, s.UpdateOrderTotal(ctx, "ORD-002", decimal.NewFromInt(1000)))
		got, err = s.GetOrder(ctx, "ORD-002")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaid, got.Status)
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(1000)))

		_, err = s.GetOrder(ctx, "ORD-404")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestOrderSequence(t *testing.T) {
	eachStore(t, func(t *testing.T, s repositories.Store) {
		ctx := context.Background()
		first, err := s.NextOrderSequence(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, first)

		require.NoError(t, s.SetOrderSequence(ctx, 128))
		require.NoError(t, s.SetOrderSequence(ctx, 5))
		next, err := s.NextOrderSequence(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 129, next)
	})
}

func TestAtomicRollsBack(t *testing.T) {
	eachStore(t, func(t *testing.T, s repositories.Store) {
		ctx := context.Background()
		boom := errors.New("boom")

		err := s.Atomic(ctx, func(tx repositories.Store) error {
			if err := tx.PutCustomer(ctx, customer(t, "CS001", "Vikram Singh")); err != nil {
				return err
			}
			if _, err := tx.NextOrderSequence(ctx); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		n, err := s.CountCustomers(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		seq, err := s.NextOrderSequence(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, seq)

		require.NoError(t, s.Atomic(ctx, func(tx repositories.Store) error {
			return tx.PutCustomer(ctx, customer(t, "CS002", "Priya Sharma"))
		}))
		_, err = s.GetCustomer(ctx, "CS002")
		assert.NoError(t, err)
	})
}

func TestMemoryStoreSequenceIsUnique(t *testing.T) {
	s := repositories.NewMemoryStore()
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Atomic(ctx, func(tx repositories.Store) error {
				n, err := tx.NextOrderSequence(ctx)
				if err != nil {
					return err
				}
				mu.Lock()
				seen[n] = true
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestCachedStoreInvalidates(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	s := repositories.NewCachedStore(repositories.NewMemoryStore(), c, time.Minute)

	require.NoError(t, s.PutCategory(ctx, category(t, "Shirt")))
	list, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	var cached []models.Category
	assert.True(t, c.Get(ctx, repositories.CategoriesKey, &cached))
	assert.Len(t, cached, 1)

	require.NoError(t, s.Atomic(ctx, func(tx repositories.Store) error {
		return tx.PutCategory(ctx, category(t, "Pant"))
	}))
	assert.False(t, c.Get(ctx, repositories.CategoriesKey, &cached))

	list, err = s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func ids(orders []models.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.OrderID
	}
	return out
}
