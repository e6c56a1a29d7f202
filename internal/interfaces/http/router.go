package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invoice-assistant/internal/application/dto"
)

// RouterDeps dependencias para registrar rutas.
type RouterDeps struct {
	Chatbot     Asker
	ServiceName string
	LLMProvider string
	JWTSecret   string // vacío = /api/chatbot sin autenticación
	JWTIssuer   string
	TurnTimeout time.Duration
	Log         zerolog.Logger
}

// Router registra /health, /metrics y /api/chatbot.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok", Service: deps.ServiceName, Provider: deps.LLMProvider})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	if deps.JWTSecret != "" {
		api.Use(AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	} else {
		deps.Log.Warn().Msg("JWT_SECRET vacío: /api/chatbot sin autenticación")
	}

	chatbotHandler := NewChatbotHandler(deps.Chatbot, deps.TurnTimeout, deps.Log)
	api.Post("/chatbot", chatbotHandler.Ask)
}
