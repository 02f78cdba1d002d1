// Package handlers provides HTTP handlers for the trade lifecycle.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/aristath/tradebook/internal/api"
	"github.com/aristath/tradebook/internal/auth"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/rs/zerolog"
)

// maxScreenshotBytes bounds multipart uploads held in memory
const maxScreenshotBytes = 10 << 20

// Authorizer checks portfolio ownership before the core is invoked
type Authorizer interface {
	CanAccessPortfolio(ctx context.Context, portfolioID, userID int64) error
	CanAccessTrade(ctx context.Context, tradeID, userID int64) error
}

// TradingHandlers contains HTTP handlers for trading API
type TradingHandlers struct {
	log        zerolog.Logger
	service    *trading.TradingService
	authorizer Authorizer
}

// NewTradingHandlers creates a new trading handlers instance
func NewTradingHandlers(service *trading.TradingService, authorizer Authorizer, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		log:        log.With().Str("handler", "trading").Logger(),
		service:    service,
		authorizer: authorizer,
	}
}

type closeRequest struct {
	ExitPrice *float64   `json:"exit_price"`
	ExitDate  *time.Time `json:"exit_date"`
}

// HandleListTrades returns a portfolio's trades
// GET /api/trades/portfolio/{portfolioID}?status=open|closed
func (h *TradingHandlers) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := api.URLParamInt64(r, "portfolioID")
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	if !h.authorizePortfolio(w, r, portfolioID) {
		return
	}

	var status *trading.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := trading.ParseStatus(raw)
		if err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		status = &s
	}

	trades, err := h.service.List(r.Context(), portfolioID, status)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, trades)
}

// HandleCreateTrade opens a trade
// POST /api/trades
func (h *TradingHandlers) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var req trading.TradeCreate
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	if req.PortfolioID <= 0 {
		api.WriteError(w, h.log, fmt.Errorf("%w: portfolio_id is required", domain.ErrInvalidInput))
		return
	}
	if !h.authorizePortfolio(w, r, req.PortfolioID) {
		return
	}

	trade, err := h.service.Create(r.Context(), req)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusCreated, trade)
}

// HandleGetTrade returns a single trade
// GET /api/trades/{id}
func (h *TradingHandlers) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeTrade(w, r)
	if !ok {
		return
	}

	trade, err := h.service.Get(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, trade)
}

// HandleUpdateTrade applies a partial edit
// PATCH /api/trades/{id}
func (h *TradingHandlers) HandleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeTrade(w, r)
	if !ok {
		return
	}

	var req trading.TradeUpdate
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	trade, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, trade)
}

// HandleCloseTrade closes an open trade
// POST /api/trades/{id}/close
func (h *TradingHandlers) HandleCloseTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeTrade(w, r)
	if !ok {
		return
	}

	var req closeRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	if req.ExitPrice == nil {
		api.WriteError(w, h.log, fmt.Errorf("%w: exit_price is required", domain.ErrInvalidInput))
		return
	}

	in := trading.TradeClose{ExitPrice: *req.ExitPrice}
	if req.ExitDate != nil {
		in.ExitDate = *req.ExitDate
	}

	trade, err := h.service.Close(r.Context(), id, in)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, trade)
}

// HandleUploadScreenshot attaches an image to a trade
// POST /api/trades/{id}/screenshot (multipart field "file")
func (h *TradingHandlers) HandleUploadScreenshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeTrade(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxScreenshotBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, h.log, fmt.Errorf("%w: multipart field \"file\" is required: %v", domain.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	trade, err := h.service.AttachScreenshot(r.Context(), id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	path := ""
	if trade.ScreenshotPath != nil {
		path = *trade.ScreenshotPath
	}
	api.WriteJSON(w, h.log, http.StatusOK, map[string]string{
		"filename": filepath.Base(path),
		"path":     path,
	})
}

// HandleDeleteTrade removes a trade
// DELETE /api/trades/{id}
func (h *TradingHandlers) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeTrade(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TradingHandlers) authorizePortfolio(w http.ResponseWriter, r *http.Request, portfolioID int64) bool {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		api.WriteError(w, h.log, domain.ErrUnauthorized)
		return false
	}
	if err := h.authorizer.CanAccessPortfolio(r.Context(), portfolioID, user.UserID); err != nil {
		api.WriteError(w, h.log, err)
		return false
	}
	return true
}

func (h *TradingHandlers) authorizeTrade(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := api.URLParamInt64(r, "id")
	if err != nil {
		api.WriteError(w, h.log, err)
		return 0, false
	}
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		api.WriteError(w, h.log, domain.ErrUnauthorized)
		return 0, false
	}
	if err := h.authorizer.CanAccessTrade(r.Context(), id, user.UserID); err != nil {
		api.WriteError(w, h.log, err)
		return 0, false
	}
	return id, true
}
