package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfolio/portfolio-service/internal/models"
)

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func entry(portfolioID int, ticker, side string, qty int64, price, tradeDate string) *models.Position {
	return &models.Position{
		PortfolioID: portfolioID,
		Ticker:      ticker,
		Quantity:    qty,
		Price:       decimal.RequireFromString(price),
		Side:        side,
		TradeDate:   mustDate(tradeDate),
		Comments:    "test trade",
	}
}

// admit inserts the entry through AdmitTrade without validating, mirroring
// what the trade service's decide callback does after its checks pass.
func admit(t *testing.T, testDB *TestDB, e *models.Position) *models.Position {
	t.Helper()
	admitted, err := testDB.AdmitTrade(context.Background(), e.PortfolioID, e.Ticker,
		func(_ *models.Position, _ decimal.Decimal) (*models.Position, error) {
			return e, nil
		})
	require.NoError(t, err)
	return admitted
}

func TestPositionLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	ctx := context.Background()

	newPortfolio := func(t *testing.T, name string) int {
		t.Helper()
		p, err := testDB.CreatePortfolio(ctx, 1, name)
		require.NoError(t, err)
		return p.ID
	}

	t.Run("AdmitTrade inserts the pair's first entry as current", func(t *testing.T) {
		testDB.TruncateAll(t)
		pid := newPortfolio(t, "Retirement")

		var sawCurrent *models.Position
		admitted, err := testDB.AdmitTrade(ctx, pid, "ABC",
			func(current *models.Position, netValue decimal.Decimal) (*models.Position, error) {
				sawCurrent = current
				assert.True(t, netValue.IsZero())
				return entry(pid, "ABC", models.SideBuy, 10, "100", "2024-06-10"), nil
			})
		require.NoError(t, err)
		assert.Nil(t, sawCurrent)
		assert.NotZero(t, admitted.ID)
		assert.True(t, admitted.IsCurrent)
		assert.False(t, admitted.CreatedAt.IsZero())
	})

	t.Run("AdmitTrade hands the decide callback the current entry and net value", func(t *testing.T) {
		testDB.TruncateAll(t)
		pid := newPortfolio(t, "Retirement")

		first := admit(t, testDB, entry(pid, "ABC", models.SideBuy, 10, "100", "2024-06-10"))

		_, err := testDB.AdmitTrade(ctx, pid, "ABC",
			func(current *models.Position, netValue decimal.Decimal) (*models.Position, error) {
				require.NotNil(t, current)
				assert.Equal(t, first.ID, current.ID)
				assert.Equal(t, mustDate("2024-06-10"), current.TradeDate)
				assert.True(t, netValue.Equal(decimal.RequireFromString("1000")))
				return entry(pid, "ABC", models.SideSell, 5, "100", "2024-06-11"), nil
			})
		require.NoError(t, err)
	})

	t.Run("follow-on trade retires the old current entry atomically", func(t *testing.T) {
		testDB.TruncateAll(t)
		pid := newPortfolio(t, "Retirement")

		first := admit(t, testDB, entry(pid, "ABC", models.SideBuy, 10, "100", "2024-06-10"))
		second := admit(t, testDB, entry(pid, "ABC", models.SideSell, 5, "100", "2024-06-11"))

		current, err := testDB.CurrentPosition(ctx, pid, "ABC")
		require.NoError(t, err)
		assert.Equal(t, second.ID, current.ID)

		var firstCurrent bool
		err = testDB.GetRawConn().QueryRow(`SELECT is_current FROM positions WHERE id = $1`, first.ID).Scan(&firstCurrent)
		require.NoError(t, err)
		assert.False(t, firstCurrent, "old entry should be historical")

		var count int
		err = testDB.GetRawConn().QueryRow(
			`SELECT COUNT(*) FROM positions WHERE portfolio_id = $1 AND ticker = 'ABC' AND is_current`, pid,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("decide error rolls the transaction back", func(t *testing.T) {
		testDB.TruncateAll(t)
		pid := newPortfolio(t, "Retirement")

		first := admit(t, testDB, entry(pid, "ABC", models.SideBuy, 10, "100", "2024-06-10"))

		rejection := errors.New("trade rejected")
		_, err := testDB.AdmitTrade(ctx, pid, "ABC",
			func(current *models.Position, netValue decimal.Decimal) (*models.Position, error) {
				return nil, rejection
			})
		assert.ErrorIs(t, err, rejection)

		current, err := testDB.CurrentPosition(ctx, pid, "ABC")
		require.NoError(t, err)
		assert.Equal(t, first.ID, current.ID, "current entry should be untouched")

		var count int
		err = testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM positions WHERE portfolio_id = $1`, pid).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("NetValue sums historical and current entries", func(t *testing.T) {
		testDB.TruncateAll(t)
		pid := newPortfolio(t, "Retirement")

		admit(t, testDB, entry(pid, "ABC", models.SideBuy, 10, "100", "2024-06-10"))
		admit(t, testDB, entry(pid, "ABC", models.SideSell, 5, "100", "2024-06-11"))
		admit(t, testDB, entry(pid, "ABC", models.SideBuy, 2, "50.5", "2024-06-12"))

		netValue, err := testDB.NetValue(ctx, pid, "ABC")
		require.NoError(t, err)
		assert.True(t, netValue.Equal(decimal.RequireFromString("601")), "got %s", netValue)
	})

	t.Run("NetValue of an empty pair is zero", func(t *testing.T) {
		testDB.TruncateAll(t)
		pid := newPortfolio(t, "Retirement")

		netValue, err := testDB.NetValue(ctx, pid, "ABC")
		require.NoError(t, err)
		assert.True(t, netValue.IsZero())
	})

	t.Run("CurrentPositions lists one entry per pair ordered by ticker", func(t *testing.T) {
		testDB.TruncateAll(t)
		pid := newPortfolio(t, "Retirement")

		admit(t, testDB, entry(pid, "XYZ", models.SideBuy, 1, "10", "2024-06-10"))
		admit(t, testDB, entry(pid, "ABC", models.SideBuy, 10, "100", "2024-06-10"))
		admit(t, testDB, entry(pid, "ABC", models.SideSell, 5, "100", "2024-06-11"))

		positions, err := testDB.CurrentPositions(ctx, pid)
		require.NoError(t, err)
		require.Len(t, positions, 2)
		assert.Equal(t, "ABC", positions[0].Ticker)
		assert.Equal(t, models.SideSell, positions[0].Side)
		assert.Equal(t, "XYZ", positions[1].Ticker)
	})

	t.Run("DeletePositions removes the pair's full history", func(t *testing.T) {
		testDB.TruncateAll(t)
		pid := newPortfolio(t, "Retirement")

		admit(t, testDB, entry(pid, "ABC", models.SideBuy, 10, "100", "2024-06-10"))
		admit(t, testDB, entry(pid, "ABC", models.SideSell, 5, "100", "2024-06-11"))
		admit(t, testDB, entry(pid, "XYZ", models.SideBuy, 1, "10", "2024-06-10"))

		deleted, err := testDB.DeletePositions(ctx, pid, "ABC")
		require.NoError(t, err)
		assert.EqualValues(t, 2, deleted)

		_, err = testDB.CurrentPosition(ctx, pid, "ABC")
		assert.ErrorIs(t, err, ErrNotFound)

		positions, err := testDB.CurrentPositions(ctx, pid)
		require.NoError(t, err)
		require.Len(t, positions, 1)
		assert.Equal(t, "XYZ", positions[0].Ticker)
	})

	t.Run("DeletePositions of an absent ticker deletes nothing", func(t *testing.T) {
		testDB.TruncateAll(t)
		pid := newPortfolio(t, "Retirement")

		deleted, err := testDB.DeletePositions(ctx, pid, "ABC")
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}
