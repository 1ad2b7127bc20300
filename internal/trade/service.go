package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/openfolio/portfolio-service/internal/database"
	"github.com/openfolio/portfolio-service/internal/models"
)

// Registry is the portfolio store contract used by the service.
type Registry interface {
	CreatePortfolio(ctx context.Context, ownerID int, name string) (*models.Portfolio, error)
	PortfolioByName(ctx context.Context, ownerID int, name string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, ownerID int) ([]*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, id int) error
}

// Ledger is the position store contract. AdmitTrade must run decide inside
// the same transaction that applies the returned entry, with the pair's
// current entry and cumulative net value read under that transaction.
type Ledger interface {
	AdmitTrade(ctx context.Context, portfolioID int, ticker string,
		decide func(current *models.Position, netValue decimal.Decimal) (*models.Position, error)) (*models.Position, error)
	CurrentPositions(ctx context.Context, portfolioID int) ([]*models.Position, error)
	DeletePositions(ctx context.Context, portfolioID int, ticker string) (int64, error)
}

// Catalog answers ticker-existence lookups against the security reference
// data.
type Catalog interface {
	SecurityExists(ctx context.Context, ticker string) (bool, error)
}

// Service runs every user-facing portfolio action: portfolio lifecycle and
// trade admission with validation.
type Service struct {
	registry Registry
	ledger   Ledger
	catalog  Catalog
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a Service over the given collaborators.
func NewService(registry Registry, ledger Ledger, catalog Catalog, log zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		ledger:   ledger,
		catalog:  catalog,
		log:      log,
		now:      time.Now,
	}
}

// CreatePortfolio creates a named portfolio for the owner.
func (s *Service) CreatePortfolio(ctx context.Context, ownerID int, name string) (*models.Portfolio, error) {
	existing, err := s.registry.PortfolioByName(ctx, ownerID, name)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateNameError{Name: name}
	}

	p, err := s.registry.CreatePortfolio(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("owner", ownerID).Str("portfolio", name).Msg("portfolio created")
	return p, nil
}

// ListPortfolios returns the owner's portfolios in stable id order.
func (s *Service) ListPortfolios(ctx context.Context, ownerID int) ([]*models.Portfolio, error) {
	return s.registry.ListPortfolios(ctx, ownerID)
}

// DeletePortfolio removes the named portfolio and, through the ledger
// cascade, every position it holds.
func (s *Service) DeletePortfolio(ctx context.Context, ownerID int, name string) error {
	p, err := s.resolvePortfolio(ctx, ownerID, name)
	if err != nil {
		return err
	}
	if err := s.registry.DeletePortfolio(ctx, p.ID); err != nil {
		return err
	}
	s.log.Info().Int("owner", ownerID).Str("portfolio", name).Msg("portfolio deleted")
	return nil
}

// CurrentPositions returns the current ledger entry of every (portfolio,
// ticker) pair in the named portfolio.
func (s *Service) CurrentPositions(ctx context.Context, ownerID int, name string) ([]*models.Position, error) {
	p, err := s.resolvePortfolio(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	return s.ledger.CurrentPositions(ctx, p.ID)
}

// AddPosition admits req as a trade against the named portfolio. The pair
// may or may not have prior trades; a pair with a current entry is treated
// as a follow-on trade so the single-current-entry invariant holds.
func (s *Service) AddPosition(ctx context.Context, ownerID int, name string, req TradeRequest) (*models.Position, error) {
	return s.recordTrade(ctx, ownerID, name, req, false)
}

// UpdatePosition admits req as a follow-on trade. It fails if the pair has
// no current entry to follow.
func (s *Service) UpdatePosition(ctx context.Context, ownerID int, name string, req TradeRequest) (*models.Position, error) {
	return s.recordTrade(ctx, ownerID, name, req, true)
}

func (s *Service) recordTrade(ctx context.Context, ownerID int, name string, req TradeRequest, mustFollow bool) (*models.Position, error) {
	p, err := s.resolvePortfolio(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}

	ok, err := s.catalog.SecurityExists(ctx, req.Ticker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &UnknownTickerError{Ticker: req.Ticker}
	}

	now := s.now()
	entry, err := s.ledger.AdmitTrade(ctx, p.ID, req.Ticker,
		func(current *models.Position, netValue decimal.Decimal) (*models.Position, error) {
			if mustFollow && current == nil {
				return nil, fmt.Errorf("no trades of ticker %q to update: %w", req.Ticker, database.ErrNotFound)
			}
			if err := ValidateTrade(req, Intent{Current: current, NetValue: netValue}, now); err != nil {
				return nil, err
			}
			return &models.Position{
				PortfolioID: p.ID,
				Ticker:      req.Ticker,
				Quantity:    req.Quantity,
				Price:       req.Price,
				Side:        req.Side,
				TradeDate:   req.TradeDate,
				Comments:    req.Comments,
			}, nil
		})
	if err != nil {
		if IsValidation(err) {
			s.log.Debug().Int("owner", ownerID).Str("portfolio", name).
				Str("ticker", req.Ticker).Err(err).Msg("trade rejected")
		}
		return nil, err
	}

	s.log.Info().Int("owner", ownerID).Str("portfolio", name).
		Str("ticker", entry.Ticker).Str("side", entry.Side).
		Int64("quantity", entry.Quantity).Str("price", entry.Price.String()).
		Msg("trade admitted")
	return entry, nil
}

// DeletePosition removes every ledger entry of the ticker within the named
// portfolio, returning the number of entries removed.
func (s *Service) DeletePosition(ctx context.Context, ownerID int, name, ticker string) (int64, error) {
	p, err := s.resolvePortfolio(ctx, ownerID, name)
	if err != nil {
		return 0, err
	}

	deleted, err := s.ledger.DeletePositions(ctx, p.ID, ticker)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, fmt.Errorf("no entries of ticker %q in portfolio %q: %w", ticker, name, database.ErrNotFound)
	}
	s.log.Info().Int("owner", ownerID).Str("portfolio", name).
		Str("ticker", ticker).Int64("deleted", deleted).Msg("positions deleted")
	return deleted, nil
}

func (s *Service) resolvePortfolio(ctx context.Context, ownerID int, name string) (*models.Portfolio, error) {
	p, err := s.registry.PortfolioByName(ctx, ownerID, name)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &UnknownPortfolioError{Name: name}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
