package trading

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/events"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/aristath/tradebook/pkg/formulas"
	"github.com/rs/zerolog"
)

// TradeRepositoryInterface defines the interface for trade persistence
type TradeRepositoryInterface interface {
	Insert(ctx context.Context, trade *Trade) error
	GetByID(ctx context.Context, id int64) (*Trade, error)
	ListByPortfolio(ctx context.Context, portfolioID int64, status *Status) ([]Trade, error)
	ListClosed(ctx context.Context, portfolioID int64) ([]Trade, error)
	Save(ctx context.Context, trade *Trade) error
	CloseOpen(ctx context.Context, trade *Trade) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// Compile-time check that TradeRepository implements TradeRepositoryInterface
var _ TradeRepositoryInterface = (*TradeRepository)(nil)

// PortfolioLookup answers whether a portfolio exists.
// Implemented by the portfolio repository; kept narrow to avoid a module cycle.
type PortfolioLookup interface {
	Exists(ctx context.Context, portfolioID int64) (bool, error)
}

// ScreenshotStore persists an attachment and returns its reference
type ScreenshotStore interface {
	Save(ctx context.Context, tradeID int64, filename, contentType string, body io.Reader) (string, error)
}

// TradingService owns the trade lifecycle: create (open), edit, close, delete.
//
// Ownership checks are the caller's job; the service only validates shape
// and state. P&L is derived by pkg/formulas at close time and whenever an
// edit leaves the trade with an exit price.
type TradingService struct {
	log          zerolog.Logger
	tradeRepo    TradeRepositoryInterface
	portfolios   PortfolioLookup
	screenshots  ScreenshotStore
	eventManager *events.Manager
}

// NewTradingService creates a new trading service.
// screenshots and eventManager may be nil.
func NewTradingService(
	tradeRepo TradeRepositoryInterface,
	portfolios PortfolioLookup,
	screenshots ScreenshotStore,
	eventManager *events.Manager,
	log zerolog.Logger,
) *TradingService {
	return &TradingService{
		log:          log.With().Str("service", "trading").Logger(),
		tradeRepo:    tradeRepo,
		portfolios:   portfolios,
		screenshots:  screenshots,
		eventManager: eventManager,
	}
}

// Create opens a new trade. It always starts open with no exit data.
func (s *TradingService) Create(ctx context.Context, in TradeCreate) (*Trade, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	direction, _ := ParseDirection(string(in.Direction))

	if err := s.requirePortfolio(ctx, in.PortfolioID); err != nil {
		return nil, err
	}

	created := now()
	entryDate := in.EntryDate.UTC().Truncate(time.Second)
	if in.EntryDate.IsZero() {
		entryDate = created
	}

	trade := &Trade{
		PortfolioID: in.PortfolioID,
		Symbol:      utils.NormalizeSymbol(in.Symbol),
		Direction:   direction,
		Status:      StatusOpen,
		EntryPrice:  in.EntryPrice,
		EntryDate:   entryDate,
		Quantity:    in.Quantity,
		Notes:       in.Notes,
		Tags:        utils.NormalizeTags(in.Tags),
		CreatedAt:   created,
	}

	if err := s.tradeRepo.Insert(ctx, trade); err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", in.PortfolioID).Msg("Failed to create trade")
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	s.log.Info().
		Int64("trade_id", trade.ID).
		Int64("portfolio_id", trade.PortfolioID).
		Str("symbol", trade.Symbol).
		Str("trade_type", string(trade.Direction)).
		Msg("Trade created")

	s.emit(events.TradeCreated, trade)
	return trade, nil
}

// Get returns a trade by id
func (s *TradingService) Get(ctx context.Context, id int64) (*Trade, error) {
	return s.tradeRepo.GetByID(ctx, id)
}

// List returns a portfolio's trades, optionally filtered by status,
// most recent entry first.
func (s *TradingService) List(ctx context.Context, portfolioID int64, status *Status) ([]Trade, error) {
	if err := s.requirePortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	return s.tradeRepo.ListByPortfolio(ctx, portfolioID, status)
}

// Update applies a partial edit. If the trade carries an exit price after
// the edit, profit/loss is recomputed and overwritten whatever the status.
// A rejected edit leaves the stored trade untouched.
func (s *TradingService) Update(ctx context.Context, id int64, in TradeUpdate) (*Trade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasClosed := trade.IsClosed()
	if err := applyUpdate(trade, in); err != nil {
		return nil, err
	}

	if trade.ExitPrice != nil {
		if err := derivePnL(trade); err != nil {
			return nil, err
		}
	}

	updated := now()
	trade.UpdatedAt = &updated

	if err := s.tradeRepo.Save(ctx, trade); err != nil {
		s.log.Error().Err(err).Int64("trade_id", id).Msg("Failed to update trade")
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}

	s.log.Info().Int64("trade_id", id).Str("status", string(trade.Status)).Msg("Trade updated")

	if !wasClosed && trade.IsClosed() && trade.ExitPrice != nil {
		s.emitClosed(trade)
	} else {
		s.emit(events.TradeUpdated, trade)
	}
	return trade, nil
}

// Close sets the exit, forces status closed and derives P&L.
// Closing a trade that is not open fails with domain.ErrInvalidState and
// performs no mutation.
func (s *TradingService) Close(ctx context.Context, id int64, in TradeClose) (*Trade, error) {
	if in.ExitPrice < 0 {
		return nil, fmt.Errorf("%w: exit_price must not be negative", domain.ErrInvalidInput)
	}

	trade, err := s.tradeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade.IsClosed() {
		return nil, fmt.Errorf("trade %d is already closed: %w", id, domain.ErrInvalidState)
	}

	closedAt := now()
	exitDate := in.ExitDate.UTC().Truncate(time.Second)
	if in.ExitDate.IsZero() {
		exitDate = closedAt
	}
	exitPrice := in.ExitPrice

	trade.Status = StatusClosed
	trade.ExitPrice = &exitPrice
	trade.ExitDate = &exitDate
	trade.UpdatedAt = &closedAt
	if err := derivePnL(trade); err != nil {
		return nil, err
	}

	ok, err := s.tradeRepo.CloseOpen(ctx, trade)
	if err != nil {
		s.log.Error().Err(err).Int64("trade_id", id).Msg("Failed to close trade")
		return nil, fmt.Errorf("failed to close trade: %w", err)
	}
	if !ok {
		// Lost a race: deleted or closed by someone else since the read
		if _, err := s.tradeRepo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("trade %d is already closed: %w", id, domain.ErrInvalidState)
	}

	s.log.Info().
		Int64("trade_id", id).
		Str("symbol", trade.Symbol).
		Float64("exit_price", exitPrice).
		Float64("profit_loss", *trade.ProfitLoss).
		Msg("Trade closed")

	s.emitClosed(trade)
	return trade, nil
}

// Delete removes a trade regardless of its state
func (s *TradingService) Delete(ctx context.Context, id int64) error {
	trade, err := s.tradeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.tradeRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Int64("trade_id", id).Str("symbol", trade.Symbol).Msg("Trade deleted")
	s.emit(events.TradeDeleted, trade)
	return nil
}

// AttachScreenshot stores an image and records its reference on the trade
// through the edit path.
func (s *TradingService) AttachScreenshot(ctx context.Context, id int64, filename, contentType string, body io.Reader) (*Trade, error) {
	if s.screenshots == nil {
		return nil, fmt.Errorf("screenshot storage is not configured")
	}
	if _, err := s.tradeRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	ref, err := s.screenshots.Save(ctx, id, filename, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store screenshot: %w", err)
	}

	return s.Update(ctx, id, TradeUpdate{ScreenshotPath: &ref})
}

func (s *TradingService) requirePortfolio(ctx context.Context, portfolioID int64) error {
	exists, err := s.portfolios.Exists(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to check portfolio: %w", err)
	}
	if !exists {
		return fmt.Errorf("portfolio %d: %w", portfolioID, domain.ErrNotFound)
	}
	return nil
}

func (s *TradingService) emit(kind events.EventType, t *Trade) {
	s.eventManager.EmitTyped("trading", &events.TradeEventData{
		Kind:        kind,
		TradeID:     t.ID,
		PortfolioID: t.PortfolioID,
		Symbol:      t.Symbol,
		Direction:   string(t.Direction),
		Status:      string(t.Status),
		ProfitLoss:  t.ProfitLoss,
	})
}

func (s *TradingService) emitClosed(t *Trade) {
	s.eventManager.EmitTyped("trading", &events.TradeClosedData{
		TradeID:              t.ID,
		PortfolioID:          t.PortfolioID,
		Symbol:               t.Symbol,
		Direction:            string(t.Direction),
		ExitPrice:            *t.ExitPrice,
		ProfitLoss:           *t.ProfitLoss,
		ProfitLossPercentage: *t.ProfitLossPercentage,
	})
}

// derivePnL recomputes the derived pair from the trade's current fields
func derivePnL(t *Trade) error {
	pnl, err := formulas.ProfitLoss(t.Direction.Side(), t.EntryPrice, t.ExitPrice, t.Quantity)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	amount, pct := pnl.Amount, pnl.Percentage
	t.ProfitLoss = &amount
	t.ProfitLossPercentage = &pct
	return nil
}

// applyUpdate copies the supplied fields onto t, validating each
func applyUpdate(t *Trade, in TradeUpdate) error {
	if in.Symbol != nil {
		symbol := utils.NormalizeSymbol(*in.Symbol)
		if symbol == "" {
			return fmt.Errorf("%w: symbol must not be empty", domain.ErrInvalidInput)
		}
		t.Symbol = symbol
	}
	if in.Direction != nil {
		d, err := ParseDirection(string(*in.Direction))
		if err != nil {
			return err
		}
		t.Direction = d
	}
	if in.Status != nil {
		st, err := ParseStatus(string(*in.Status))
		if err != nil {
			return err
		}
		t.Status = st
	}
	if in.EntryPrice != nil {
		if *in.EntryPrice <= 0 {
			return fmt.Errorf("%w: entry_price must be positive", domain.ErrInvalidInput)
		}
		t.EntryPrice = *in.EntryPrice
	}
	if in.EntryDate != nil {
		t.EntryDate = in.EntryDate.UTC().Truncate(time.Second)
	}
	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
		}
		t.Quantity = *in.Quantity
	}
	if in.ExitPrice != nil {
		if *in.ExitPrice < 0 {
			return fmt.Errorf("%w: exit_price must not be negative", domain.ErrInvalidInput)
		}
		exit := *in.ExitPrice
		t.ExitPrice = &exit
	}
	if in.ExitDate != nil {
		exitDate := in.ExitDate.UTC().Truncate(time.Second)
		t.ExitDate = &exitDate
	}
	if in.Notes != nil {
		t.Notes = *in.Notes
	}
	if in.Tags != nil {
		t.Tags = utils.NormalizeTags(*in.Tags)
	}
	if in.ScreenshotPath != nil {
		path := strings.TrimSpace(*in.ScreenshotPath)
		t.ScreenshotPath = &path
	}
	return nil
}
