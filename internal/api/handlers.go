package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/openfolio/portfolio-service/internal/database"
	"github.com/openfolio/portfolio-service/internal/kafka"
	"github.com/openfolio/portfolio-service/internal/models"
	"github.com/openfolio/portfolio-service/internal/trade"
)

// ownerHeader carries the acting owner's id. There is no authorization
// model beyond it; every registry and ledger call is scoped to this owner.
const ownerHeader = "X-Owner-ID"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc      *trade.Service
	db       *database.DB
	producer *kafka.Producer
	log      zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc *trade.Service, db *database.DB, producer *kafka.Producer, log zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		db:       db,
		producer: producer,
		log:      log,
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ListSecurities handles GET /securities
func (h *Handler) ListSecurities(w http.ResponseWriter, r *http.Request) {
	securities, err := h.db.ListSecurities(r.Context())
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, securities)
}

// ListPortfolios handles GET /portfolios
func (h *Handler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	portfolios, err := h.svc.ListPortfolios(r.Context(), ownerID)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, portfolios)
}

// CreatePortfolio handles POST /portfolios
func (h *Handler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Name) < 3 || len(req.Name) > 25 {
		respondError(w, http.StatusBadRequest, "the portfolio name must be between 3 and 25 characters")
		return
	}

	p, err := h.svc.CreatePortfolio(r.Context(), ownerID, req.Name)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPortfolioCreated(r.Context(), ownerID, p.Name); err != nil {
			h.log.Error().Err(err).Str("portfolio", p.Name).Msg("failed to publish portfolio created event")
		}
	}

	respondMessage(w, http.StatusCreated, fmt.Sprintf("The portfolio '%s' has been added.", p.Name), p)
}

// DeletePortfolio handles DELETE /portfolios/{name}
func (h *Handler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]

	if err := h.svc.DeletePortfolio(r.Context(), ownerID, name); err != nil {
		h.respondFailure(w, err)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPortfolioDeleted(r.Context(), ownerID, name); err != nil {
			h.log.Error().Err(err).Str("portfolio", name).Msg("failed to publish portfolio deleted event")
		}
	}

	respondMessage(w, http.StatusOK, fmt.Sprintf("The portfolio '%s' has been deleted.", name), nil)
}

// ListPositions handles GET /portfolios/{name}/positions
func (h *Handler) ListPositions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]

	positions, err := h.svc.CurrentPositions(r.Context(), ownerID, name)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, positions)
}

type positionRequest struct {
	Ticker    string `json:"ticker"`
	Side      string `json:"side"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
	TradeDate string `json:"trade_date"`
	Comments  string `json:"comments"`
}

func (h *Handler) decodeTrade(w http.ResponseWriter, r *http.Request) (trade.TradeRequest, bool) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return trade.TradeRequest{}, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "the price format is invalid")
		return trade.TradeRequest{}, false
	}

	tradeDate, err := trade.ParseTradeDate(req.TradeDate)
	if err != nil {
		h.respondFailure(w, err)
		return trade.TradeRequest{}, false
	}

	return trade.TradeRequest{
		Ticker:    req.Ticker,
		Side:      req.Side,
		Quantity:  req.Quantity,
		Price:     price,
		TradeDate: tradeDate,
		Comments:  req.Comments,
	}, true
}

// AddPosition handles POST /portfolios/{name}/positions
func (h *Handler) AddPosition(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]

	req, ok := h.decodeTrade(w, r)
	if !ok {
		return
	}

	pos, err := h.svc.AddPosition(r.Context(), ownerID, name, req)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPositionAdded(r.Context(), ownerID, name, pos); err != nil {
			h.log.Error().Err(err).Str("ticker", pos.Ticker).Msg("failed to publish position added event")
		}
	}

	respondMessage(w, http.StatusCreated, fmt.Sprintf("The ticker '%s' has been added to the portfolio.", pos.Ticker), pos)
}

// UpdatePosition handles PUT /portfolios/{name}/positions/{ticker}
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	name := vars["name"]

	req, ok := h.decodeTrade(w, r)
	if !ok {
		return
	}
	req.Ticker = vars["ticker"]

	pos, err := h.svc.UpdatePosition(r.Context(), ownerID, name, req)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPositionUpdated(r.Context(), ownerID, name, pos); err != nil {
			h.log.Error().Err(err).Str("ticker", pos.Ticker).Msg("failed to publish position updated event")
		}
	}

	respondMessage(w, http.StatusOK, fmt.Sprintf("The ticker '%s' has been updated.", pos.Ticker), pos)
}

// DeletePosition handles DELETE /portfolios/{name}/positions/{ticker}
func (h *Handler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	name := vars["name"]
	ticker := vars["ticker"]

	if _, err := h.svc.DeletePosition(r.Context(), ownerID, name, ticker); err != nil {
		h.respondFailure(w, err)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPositionDeleted(r.Context(), ownerID, name, ticker); err != nil {
			h.log.Error().Err(err).Str("ticker", ticker).Msg("failed to publish position deleted event")
		}
	}

	respondMessage(w, http.StatusOK,
		fmt.Sprintf("The items of ticker '%s' have been deleted from portfolio '%s'.", ticker, name), nil)
}

// UpsertPrice handles POST /prices
func (h *Handler) UpsertPrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker string `json:"ticker"`
		Date   string `json:"date"`
		Close  string `json:"close"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, ok := h.decodeClose(w, req.Ticker, req.Date, req.Close)
	if !ok {
		return
	}

	if err := h.db.UpsertClosingPrice(r.Context(), price); err != nil {
		h.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, price)
}

// UpsertPriceBatch handles POST /prices/batch
func (h *Handler) UpsertPriceBatch(w http.ResponseWriter, r *http.Request) {
	var req []struct {
		Ticker string `json:"ticker"`
		Date   string `json:"date"`
		Close  string `json:"close"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prices := make([]*models.ClosingPrice, 0, len(req))
	for _, item := range req {
		price, ok := h.decodeClose(w, item.Ticker, item.Date, item.Close)
		if !ok {
			return
		}
		prices = append(prices, price)
	}

	if err := h.db.UpsertClosingPriceBatch(r.Context(), prices); err != nil {
		h.respondFailure(w, err)
		return
	}
	respondMessage(w, http.StatusCreated, fmt.Sprintf("%d prices recorded.", len(prices)), nil)
}

// GetPrices handles GET /prices/{ticker}?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) GetPrices(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	start, err := parseDateParam(r.URL.Query().Get("start"), time.Time{})
	if err != nil {
		respondError(w, http.StatusBadRequest, "the start date format is invalid")
		return
	}
	end, err := parseDateParam(r.URL.Query().Get("end"), time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "the end date format is invalid")
		return
	}

	prices, err := h.db.ClosingPrices(r.Context(), ticker, start, end)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prices)
}

func (h *Handler) decodeClose(w http.ResponseWriter, ticker, dateStr, closeStr string) (*models.ClosingPrice, bool) {
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return nil, false
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "the price date format is invalid")
		return nil, false
	}
	closePrice, err := decimal.NewFromString(closeStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "the close price format is invalid")
		return nil, false
	}
	return &models.ClosingPrice{Ticker: ticker, Date: date, Close: closePrice}, true
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.Header.Get(ownerHeader)
	if raw == "" {
		respondError(w, http.StatusUnauthorized, "missing "+ownerHeader+" header")
		return 0, false
	}
	ownerID, err := strconv.Atoi(raw)
	if err != nil || ownerID <= 0 {
		respondError(w, http.StatusUnauthorized, "invalid "+ownerHeader+" header")
		return 0, false
	}
	return ownerID, true
}

// respondFailure maps a service error to a single user-visible message.
// Validation errors keep their message; storage failures are logged and
// surfaced as a generic operation failure.
func (h *Handler) respondFailure(w http.ResponseWriter, err error) {
	var dup *trade.DuplicateNameError
	var unkPortf *trade.UnknownPortfolioError

	switch {
	case errors.As(err, &dup):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &unkPortf), errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case trade.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("operation failed")
		respondError(w, http.StatusInternalServerError, "The operation could not be completed.")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondMessage(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"message": message,
		"data":    data,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func parseDateParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", raw)
}
