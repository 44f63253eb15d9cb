package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/middleware"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/service"
	ws "github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams verdicts for client-side transcriptions.
type WSHandler struct {
	matchService *service.MatchService
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(matchService *service.MatchService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		matchService: matchService,
		log:          log.With().Str("component", "ws_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// PracticeStream godoc
// WS /ws/v1/practice?token=...
// Each "attempt" message is answered with a "verdict" event.
func (h *WSHandler) PracticeStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := claims.UserID
	wsLog := h.log.With().Int("user_id", userID).Logger()
	wsLog.Info().Msg("Practice stream connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var werr error
		switch msg.Action {
		case ws.ActionAttempt:
			werr = h.handleAttempt(c, conn, userID, &msg)
		case ws.ActionPing:
			werr = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			werr = ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
		if werr != nil {
			wsLog.Debug().Err(werr).Msg("Write failed, closing")
			return
		}
	}
}

// handleAttempt scores one transcription and writes the verdict.
func (h *WSHandler) handleAttempt(c *gin.Context, conn *websocket.Conn, userID int, msg *ws.RequestPayload) error {
	if msg.WordID < 1 {
		return ws.WriteError(conn, "word_id is required")
	}
	if t := msg.Threshold; t != nil && (*t <= 0 || *t > 1) {
		return ws.WriteError(conn, "threshold must be in (0, 1]")
	}

	resp, err := h.matchService.CheckText(c.Request.Context(), userID, msg.WordID, msg.Transcription, msg.Threshold, model.SourceWebSocket)
	if err != nil {
		if errors.Is(err, service.ErrWordNotFound) {
			return ws.WriteError(conn, "word not found")
		}
		h.log.Error().Err(err).Msg("Attempt check failed")
		return ws.WriteError(conn, "internal error")
	}

	return ws.WriteTyped(conn, ws.VerdictResponse{Event: ws.EventVerdict, MatchResponse: resp})
}
