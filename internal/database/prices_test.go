package database

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfolio/portfolio-service/internal/models"
)

func TestPriceStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	ctx := context.Background()

	seedSecurity := func(t *testing.T, ticker string) {
		t.Helper()
		require.NoError(t, testDB.CreateSecurity(ctx, &models.Security{
			Ticker:   ticker,
			Name:     ticker + " Inc",
			Currency: "USD",
			Country:  "USA",
		}))
	}

	closing := func(ticker, date, close string) *models.ClosingPrice {
		return &models.ClosingPrice{
			Ticker: ticker,
			Date:   mustDate(date),
			Close:  decimal.RequireFromString(close),
		}
	}

	t.Run("UpsertClosingPrice inserts and replaces on conflict", func(t *testing.T) {
		testDB.TruncateAll(t)
		seedSecurity(t, "ABC")

		p := closing("ABC", "2024-06-10", "101.25")
		require.NoError(t, testDB.UpsertClosingPrice(ctx, p))
		assert.NotZero(t, p.ID)

		revised := closing("ABC", "2024-06-10", "102.50")
		require.NoError(t, testDB.UpsertClosingPrice(ctx, revised))
		assert.Equal(t, p.ID, revised.ID)

		prices, err := testDB.ClosingPrices(ctx, "ABC", mustDate("2024-06-10"), mustDate("2024-06-10"))
		require.NoError(t, err)
		require.Len(t, prices, 1)
		assert.True(t, prices[0].Close.Equal(decimal.RequireFromString("102.50")))
	})

	t.Run("UpsertClosingPrice requires a catalog row", func(t *testing.T) {
		testDB.TruncateAll(t)

		err := testDB.UpsertClosingPrice(ctx, closing("ZZZ", "2024-06-10", "10"))
		assert.Error(t, err, "FK to securities should reject unknown tickers")
	})

	t.Run("UpsertClosingPriceBatch writes all rows in one transaction", func(t *testing.T) {
		testDB.TruncateAll(t)
		seedSecurity(t, "ABC")

		batch := []*models.ClosingPrice{
			closing("ABC", "2024-06-10", "100"),
			closing("ABC", "2024-06-11", "101"),
			closing("ABC", "2024-06-12", "99.5"),
		}
		require.NoError(t, testDB.UpsertClosingPriceBatch(ctx, batch))

		prices, err := testDB.ClosingPrices(ctx, "ABC", mustDate("2024-06-10"), mustDate("2024-06-12"))
		require.NoError(t, err)
		assert.Len(t, prices, 3)
	})

	t.Run("ClosingPrices filters by range and orders by date", func(t *testing.T) {
		testDB.TruncateAll(t)
		seedSecurity(t, "ABC")
		seedSecurity(t, "XYZ")

		require.NoError(t, testDB.UpsertClosingPriceBatch(ctx, []*models.ClosingPrice{
			closing("ABC", "2024-06-12", "99.5"),
			closing("ABC", "2024-06-10", "100"),
			closing("ABC", "2024-06-11", "101"),
			closing("XYZ", "2024-06-11", "55"),
		}))

		prices, err := testDB.ClosingPrices(ctx, "ABC", mustDate("2024-06-10"), mustDate("2024-06-11"))
		require.NoError(t, err)
		require.Len(t, prices, 2)
		assert.Equal(t, mustDate("2024-06-10"), prices[0].Date)
		assert.Equal(t, mustDate("2024-06-11"), prices[1].Date)
	})
}
