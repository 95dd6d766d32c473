//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"RocketShoes/internal/cart"
	"RocketShoes/internal/catalog"
	"RocketShoes/internal/database"
	"RocketShoes/internal/storage"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()

	var (
		dbName = "rocketshoes"
		dbPwd  = "password"
		dbUser = "user"
	)

	ctx := context.Background()
	container, err := postgres.Run(
		ctx,
		"postgres:16",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return db
}

func TestPostgres(t *testing.T) {
	db := startPostgres(t)

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, database.Migrate(db, zap.NewNop()))
	})

	t.Run("storage slots", func(t *testing.T) {
		ctx := context.Background()
		s := storage.NewPostgresStore(db)

		require.NoError(t, s.Ping(ctx))

		_, ok, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Set(ctx, "k", "v1"))
		require.NoError(t, s.Set(ctx, "k", "v2"))
		v, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v2", v)

		assert.ErrorIs(t, s.Set(ctx, "", "v"), storage.ErrEmptyKey)
	})

	t.Run("catalog", func(t *testing.T) {
		ctx := context.Background()
		s := catalog.NewPostgresStore(db)

		seeded, err := s.SeedDemo(ctx)
		require.NoError(t, err)
		assert.True(t, seeded)

		seeded, err = s.SeedDemo(ctx)
		require.NoError(t, err)
		assert.False(t, seeded, "a populated catalog is left alone")

		products, err := s.ListSortedByID(ctx)
		require.NoError(t, err)
		require.Len(t, products, 6)
		for i := 1; i < len(products); i++ {
			assert.Less(t, products[i-1].ID, products[i].ID)
		}

		p, ok, err := s.Get(ctx, 3)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(21990), p.PriceCents)

		require.NoError(t, s.SetStock(ctx, 3, 7))
		st, ok, err := s.GetStock(ctx, 3)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 7, st.Amount)

		assert.ErrorIs(t, s.SetStock(ctx, 3, -1), catalog.ErrInvalidAmount)
		assert.True(t, errors.Is(s.SetStock(ctx, 999, 1), catalog.ErrProductNotFound))

		_, ok, err = s.GetStock(ctx, 999)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cart survives a restart", func(t *testing.T) {
		ctx := context.Background()

		cs := catalog.NewPostgresStore(db)
		_, err := cs.SeedDemo(ctx)
		require.NoError(t, err)
		require.NoError(t, cs.SetStock(ctx, 1, 3))

		catalogTS := httptest.NewServer(catalog.NewHandler(&catalog.Server{Store: cs}, catalog.HTTPDeps{
			Log:     zap.NewNop(),
			Service: "catalog",
		}))
		t.Cleanup(catalogTS.Close)

		api := cart.NewAPIClient(catalogTS.URL, 2*time.Second)
		newSessions := func() *cart.Sessions {
			return cart.NewSessions(cart.SessionsConfig{
				Stock:     api,
				Catalog:   api,
				Storage:   storage.NewPostgresStore(db),
				Namespace: "rocketshoes",
			})
		}

		sid := uuid.NewString()
		m, err := newSessions().Get(ctx, sid)
		require.NoError(t, err)
		require.NoError(t, m.AddProduct(ctx, 1))
		require.NoError(t, m.AddProduct(ctx, 1))
		require.NoError(t, m.AddProduct(ctx, 2))
		require.NoError(t, m.UpdateProductAmount(ctx, cart.UpdateAmount{ProductID: 2, Amount: 4}))
		require.ErrorIs(t, m.UpdateProductAmount(ctx, cart.UpdateAmount{ProductID: 1, Amount: 4}), cart.ErrStockExhausted)

		restored, err := newSessions().Get(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, m.Items(), restored.Items())
		require.Len(t, restored.Items(), 2)
		assert.Equal(t, 2, restored.Items()[0].Amount)
		assert.Equal(t, 4, restored.Items()[1].Amount)
	})
}
