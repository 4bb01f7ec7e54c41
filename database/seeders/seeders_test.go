package seeders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/repositories"
	_ "github.com/darzi-app/darzi/database/migrations"
	"github.com/darzi-app/darzi/database/seeders"
	"github.com/darzi-app/darzi/pkg/database"
	"github.com/darzi-app/darzi/pkg/migration"
)

func sqliteStore(t *testing.T) repositories.Store {
	t.Helper()
	db, err := database.Open("sqlite", "file:seeders_test?mode=memory&cache=shared")
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

func TestRunAll(t *testing.T) {
	stores := map[string]repositories.Store{
		"memory": repositories.NewMemoryStore(),
		"gorm":   sqliteStore(t),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ran, err := seeders.RunAll(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, seeders.Names(), ran)

			n, err := store.CountCustomers(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, n)

			cats, err := store.ListCategories(ctx)
			require.NoError(t, err)
			assert.Len(t, cats, 6)

			orders, err := store.ListOrders(ctx)
			require.NoError(t, err)
			require.Len(t, orders, 8)
			assert.Equal(t, "ORD-124", orders[0].OrderID)

			priya, err := store.GetCustomer(ctx, "CS002")
			require.NoError(t, err)
			assert.Equal(t, 2, priya.TotalOrders)
			assert.Equal(t, 26.0, priya.Measurements.Shirt["length"].Value)

			o, err := store.GetOrder(ctx, "ORD-127")
			require.NoError(t, err)
			assert.Equal(t, models.StatusDelivered, o.Status)
			assert.Equal(t, "2023-03-16", o.OrderDate.Format("2006-01-02"))

			// Running again changes nothing.
			_, err = seeders.RunAll(ctx, store)
			require.NoError(t, err)
			n, err = store.CountCustomers(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, n)

			next, err := store.NextOrderSequence(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 129, next)
		})
	}
}
