package http

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invoice-assistant/internal/application/dto"
)

// DefaultTurnTimeout tiempo máximo de un turno completo (ruteo, consulta y paráfrasis).
const DefaultTurnTimeout = 60 * time.Second

// Asker lo implementa chatbot.ChatbotUseCase.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// ChatbotHandler expone el asistente de facturas por HTTP.
type ChatbotHandler struct {
	asker   Asker
	timeout time.Duration
	log     zerolog.Logger
}

// NewChatbotHandler construye el handler. timeout <= 0 usa DefaultTurnTimeout.
func NewChatbotHandler(asker Asker, timeout time.Duration, log zerolog.Logger) *ChatbotHandler {
	if timeout <= 0 {
		timeout = DefaultTurnTimeout
	}
	return &ChatbotHandler{asker: asker, timeout: timeout, log: log}
}

// Ask godoc
// @Summary      Preguntar al asistente de facturas
// @Description  Responde en lenguaje natural (inglés o árabe) preguntas sobre conteos, totales,
//               vencidas, saldos, antigüedad, mejores clientes y comparaciones entre períodos.
//               Las cifras siempre salen de la base de datos, nunca del modelo.
// @Tags         chatbot
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AskRequest  true  "pregunta del usuario"
// @Success      200   {object}  dto.AskResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      408   {object}  dto.ErrorResponse
// @Router       /api/chatbot [post]
func (h *ChatbotHandler) Ask(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "INVALID_BODY", Message: "cuerpo de la petición inválido",
		})
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "question es obligatorio",
		})
	}
	if utf8.RuneCountInString(question) > dto.MaxQuestionLength {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "question es demasiado larga",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	answer, err := h.asker.Ask(ctx, question)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			h.log.Warn().Err(err).Str("user_id", GetUserID(c)).Str("tenant_id", GetTenantID(c)).Msg("turno cancelado")
			return c.Status(fiber.StatusRequestTimeout).JSON(dto.ErrorResponse{
				Code: "TIMEOUT", Message: "el asistente tardó demasiado; intenta de nuevo",
			})
		}
		h.log.Error().Err(err).Str("user_id", GetUserID(c)).Str("tenant_id", GetTenantID(c)).Msg("turno del asistente")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "INTERNAL", Message: "error interno",
		})
	}
	return c.JSON(dto.AskResponse{Answer: answer})
}
