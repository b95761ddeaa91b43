// Package api exposes the analysis, market, sentiment and session
// administration endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/signaldesk/signaldesk/internal/models"
)

// Analyzer produces combined analysis reports.
type Analyzer interface {
	Analyze(ctx context.Context, tokenID string) (*models.AnalysisReport, error)
}

// SentimentService fetches normalized sentiment.
type SentimentService interface {
	GetSentiment(ctx context.Context, topic string) (models.SentimentRecord, error)
}

// MarketService is the market-data surface used by the handlers.
type MarketService interface {
	GetMarketSnapshots(ctx context.Context, ids []string) ([]models.MarketSnapshot, error)
	GetCoinsByCategory(ctx context.Context, categoryID string) ([]models.MarketSnapshot, error)
	GetCategories(ctx context.Context, id string) ([]string, error)
	SearchCoins(ctx context.Context, query string) ([]models.CoinSearchResult, error)
	VsCurrency() string
}

// ComparableService selects valuation comparables.
type ComparableService interface {
	GetComparables(ctx context.Context, source models.SourceToken) ([]models.ComparisonProjection, error)
}

// HealthChecker reports provider health.
type HealthChecker interface {
	Latest() []models.ProviderHealth
	CheckNow(ctx context.Context) []models.ProviderHealth
}

// Handler serves the public API.
type Handler struct {
	analyzer    Analyzer
	sentiment   SentimentService
	market      MarketService
	inCurrency  func(currency string) MarketService
	comparables ComparableService
	health      HealthChecker
	logger      *slog.Logger
	startTime   time.Time
}

// HandlerDeps groups the Handler collaborators. InCurrency is optional and
// enables the vs_currency parameter of /api/coins.
type HandlerDeps struct {
	Analyzer    Analyzer
	Sentiment   SentimentService
	Market      MarketService
	InCurrency  func(currency string) MarketService
	Comparables ComparableService
	Health      HealthChecker
	Logger      *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		analyzer:    deps.Analyzer,
		sentiment:   deps.Sentiment,
		market:      deps.Market,
		inCurrency:  deps.InCurrency,
		comparables: deps.Comparables,
		health:      deps.Health,
		logger:      logger.With("component", "api"),
		startTime:   time.Now(),
	}
}

type resultsResponse[T any] struct {
	Results []T `json:"results"`
}

// GetAnalysis handles GET /api/analysis?token=
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = "bitcoin"
	}

	report, err := h.analyzer.Analyze(r.Context(), token)
	if err != nil {
		h.writeError(w, r, "failed to generate analysis", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Report  *models.AnalysisReport `json:"report"`
	}{true, report})
}

// GetSentiment handles GET /api/sentiment?topic=
func (h *Handler) GetSentiment(w http.ResponseWriter, r *http.Request) {
	record, err := h.sentiment.GetSentiment(r.Context(), r.URL.Query().Get("topic"))
	if err != nil {
		h.writeError(w, r, "failed to fetch sentiment", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Result  models.SentimentRecord `json:"result"`
	}{true, record})
}

// GetCoins handles GET /api/coins?ids=&vs_currency=
func (h *Handler) GetCoins(w http.ResponseWriter, r *http.Request) {
	ids, err := parseCoinIDs(r.URL.Query().Get("ids"))
	if err != nil {
		h.writeError(w, r, "invalid request", err)
		return
	}

	market := h.market
	if currency := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("vs_currency"))); currency != "" && currency != market.VsCurrency() {
		if !isCurrencyCode(currency) {
			h.writeError(w, r, "invalid request", ValidationError{Field: "vs_currency", Message: "unsupported currency code"})
			return
		}
		if h.inCurrency != nil {
			market = h.inCurrency(currency)
		}
	}

	snapshots, err := market.GetMarketSnapshots(r.Context(), ids)
	if err != nil {
		h.writeError(w, r, "failed to fetch coin data", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resultsResponse[models.MarketSnapshot]{Results: snapshots})
}

// SearchCoins handles GET /api/search?q=
func (h *Handler) SearchCoins(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, r, "invalid request", ValidationError{Field: "q", Message: `query parameter "q" is required`})
		return
	}

	results, err := h.market.SearchCoins(r.Context(), query)
	if err != nil {
		h.writeError(w, r, "failed to search coins", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resultsResponse[models.CoinSearchResult]{Results: results})
}

// GetCoinDetails handles GET /api/coin-details?id=
func (h *Handler) GetCoinDetails(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		h.writeError(w, r, "invalid request", ValidationError{Field: "id", Message: `query parameter "id" is required`})
		return
	}

	categories, err := h.market.GetCategories(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "failed to fetch coin details", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"result": map[string]any{"id": id, "categories": categories},
	})
}

// GetCoinsByCategory handles GET /api/coins-by-category?category=
func (h *Handler) GetCoinsByCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		h.writeError(w, r, "invalid request", ValidationError{Field: "category", Message: `query parameter "category" is required`})
		return
	}

	snapshots, err := h.market.GetCoinsByCategory(r.Context(), category)
	if err != nil {
		h.writeError(w, r, "failed to fetch coins by category", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resultsResponse[models.MarketSnapshot]{Results: snapshots})
}

// SimilarByCategory handles POST /api/similar-by-category. A missing
// currentPrice is resolved with one market snapshot lookup.
func (h *Handler) SimilarByCategory(w http.ResponseWriter, r *http.Request) {
	var req SimilarByCategoryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		h.writeError(w, r, "invalid request", ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, r, "invalid request", err)
		return
	}

	source := models.SourceToken{ID: strings.TrimSpace(req.CoinID), MarketCap: req.MarketCap}
	if req.CurrentPrice != nil {
		source.CurrentPrice = *req.CurrentPrice
	} else {
		price, err := h.currentPrice(r.Context(), source.ID)
		if err != nil {
			h.writeError(w, r, "failed to resolve current price", err)
			return
		}
		source.CurrentPrice = price
	}

	projections, err := h.comparables.GetComparables(r.Context(), source)
	if err != nil {
		h.writeError(w, r, "failed to get similar coins by category", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool                          `json:"success"`
		Results []models.ComparisonProjection `json:"results"`
	}{true, projections})
}

func (h *Handler) currentPrice(ctx context.Context, id string) (float64, error) {
	snapshots, err := h.market.GetMarketSnapshots(ctx, []string{id})
	if err != nil {
		return 0, err
	}
	for _, s := range snapshots {
		if s.ID == id {
			return s.CurrentPrice, nil
		}
	}
	return 0, nil
}

// GetHealth handles GET /api/health. It serves the monitor's latest results
// and probes on demand before the first scheduled check.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	results := h.health.Latest()
	if results == nil {
		results = h.health.CheckNow(r.Context())
	}

	healthy := true
	for _, res := range results {
		healthy = healthy && res.Healthy()
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"healthy":   healthy,
		"health":    results,
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var validation ValidationError
	var connErr *models.ConnectionError
	var noContent *models.NoContentError
	var unparseable *models.UnparseableResponseError
	var toolErr *models.ToolError
	switch {
	case errors.As(err, &validation), errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &connErr), errors.As(err, &noContent), errors.As(err, &unparseable), errors.As(err, &toolErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: message, Details: err.Error(), Retryable: models.IsRetryable(err)}
	if status == http.StatusBadRequest {
		resp.Error = err.Error()
		resp.Details = ""
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(message, "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.logger.Info(message, "path", r.URL.Path, "status", status, "error", err)
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
