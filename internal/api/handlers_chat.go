// handlers_chat.go - AI chat handler
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ifc-analysis/backend/internal/chat"
)

// ChatHandlerImpl implements the ChatHandler interface
type ChatHandlerImpl struct {
	sessions SessionStore
	service  chat.Service
}

// NewChatHandler creates a new chat handler instance
func NewChatHandler(sessions SessionStore, service chat.Service) ChatHandler {
	return &ChatHandlerImpl{
		sessions: sessions,
		service:  service,
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// HandleChat answers a free-text question about the session's model. Service
// failures degrade into an answer-shaped error message, never a 5xx.
func (h *ChatHandlerImpl) HandleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("corpo da requisição inválido", err)
	}

	sess, ok := h.sessions.Get(req.SessionID)
	if !ok || sess.ModelIndex == nil {
		return NewBadRequestError("nenhum IFC processado nesta sessão; carregue um IFC primeiro", nil)
	}

	if strings.TrimSpace(req.Message) == "" {
		return NewBadRequestError("mensagem vazia", nil)
	}

	answer, err := h.service.Ask(c.Request().Context(), sess.ModelIndex, sess.Filename, req.Message)
	if err != nil {
		log.Error().Err(err).Str("session", req.SessionID).Msg("chat service failed")
		return c.JSON(http.StatusOK, chat.Answer{
			Answer:  fmt.Sprintf("❌ Erro interno ao consultar a IA: %v", err),
			Sources: []chat.Source{},
		})
	}

	return c.JSON(http.StatusOK, answer)
}
