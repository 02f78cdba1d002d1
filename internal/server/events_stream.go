package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/api"
	"github.com/aristath/tradebook/internal/auth"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/events"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
)

const (
	streamBufferSize   = 100
	streamWriteTimeout = 5 * time.Second
	heartbeatInterval  = 30 * time.Second
)

// PortfolioAccess decides whether a user may see a portfolio's events
type PortfolioAccess interface {
	CanAccessPortfolio(ctx context.Context, portfolioID, userID int64) error
}

// streamMessage is the envelope for frames that are not journal events
type streamMessage struct {
	Type      string    `json:"type" msgpack:"type"`
	Message   string    `json:"message,omitempty" msgpack:"message,omitempty"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
}

// EventsStreamHandler streams journal events over a websocket.
// Frames are msgpack binary by default and JSON text with ?format=json.
type EventsStreamHandler struct {
	eventBus       *events.Bus
	access         PortfolioAccess
	originPatterns []string
	heartbeat      time.Duration
	log            zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler.
// origins are CORS-style allowed origins; "*" accepts any.
func NewEventsStreamHandler(eventBus *events.Bus, access PortfolioAccess, origins []string, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus:       eventBus,
		access:         access,
		originPatterns: origins,
		heartbeat:      heartbeatInterval,
		log:            log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws. Must run behind authentication.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentUser(r.Context())
	if !ok {
		api.WriteError(w, h.log, domain.ErrUnauthorized)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "":
		format = "msgpack"
	case "msgpack", "json":
	default:
		api.WriteError(w, h.log, fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, format))
		return
	}

	var allowedTypes map[events.EventType]bool
	if types := utils.ParseCSV(r.URL.Query().Get("types")); types != nil {
		allowedTypes = make(map[events.EventType]bool)
		for _, t := range types {
			allowedTypes[events.EventType(strings.ToUpper(t))] = true
		}
	}

	// Long-lived connection: lift the server-wide deadlines
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket handshake failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	// The stream is send-only; CloseRead handles control frames and
	// cancels ctx once the client goes away.
	ctx := conn.CloseRead(r.Context())

	eventChan := make(chan events.Event, streamBufferSize)
	unsubscribe := h.eventBus.SubscribeAll(func(event events.Event) {
		if allowedTypes != nil && !allowedTypes[event.Type] {
			return
		}

		// Non-blocking send (drop if channel full)
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Int64("user_id", principal.UserID).
				Msg("Event channel full, dropping event")
		}
	})
	defer unsubscribe()

	h.log.Info().
		Int64("user_id", principal.UserID).
		Str("format", format).
		Msg("Client connected to event stream")

	if err := h.write(ctx, conn, format, streamMessage{
		Type:      "connected",
		Message:   "Connected to event stream",
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Int64("user_id", principal.UserID).Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			if !h.visible(ctx, principal, event) {
				continue
			}
			if err := h.write(ctx, conn, format, event); err != nil {
				return
			}

		case <-heartbeat.C:
			if err := h.write(ctx, conn, format, streamMessage{
				Type:      "heartbeat",
				Timestamp: time.Now().UTC(),
			}); err != nil {
				return
			}
		}
	}
}

func (h *EventsStreamHandler) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, origin := range h.originPatterns {
		if origin == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		// Patterns match the origin host, not the full URL
		origin = strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
		opts.OriginPatterns = append(opts.OriginPatterns, origin)
	}
	return opts
}

// visible reports whether principal may receive event. Admins see everything;
// other users see events about themselves or portfolios they own.
func (h *EventsStreamHandler) visible(ctx context.Context, principal *auth.Principal, event events.Event) bool {
	if principal.IsAdmin {
		return true
	}
	if userID, ok := int64Field(event.Data, "user_id"); ok {
		return userID == principal.UserID
	}
	if portfolioID, ok := int64Field(event.Data, "portfolio_id"); ok && h.access != nil {
		return h.access.CanAccessPortfolio(ctx, portfolioID, principal.UserID) == nil
	}
	return false
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, format string, v interface{}) error {
	var (
		payload []byte
		msgType websocket.MessageType
		err     error
	)
	if format == "json" {
		payload, err = json.Marshal(v)
		msgType = websocket.MessageText
	} else {
		payload, err = msgpack.Marshal(v)
		msgType = websocket.MessageBinary
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode stream frame")
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	if err := conn.Write(writeCtx, msgType, payload); err != nil {
		h.log.Debug().Err(err).Msg("Stream write failed")
		return err
	}
	return nil
}

// int64Field reads a numeric id out of an event payload. Payloads pass
// through JSON, so numbers arrive as float64.
func int64Field(data map[string]interface{}, key string) (int64, bool) {
	switch v := data[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
