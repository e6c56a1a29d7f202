package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/invoice-assistant/internal/bootstrap"
	httpRouter "github.com/jhoicas/invoice-assistant/internal/interfaces/http"
	"github.com/jhoicas/invoice-assistant/pkg/config"
	"github.com/jhoicas/invoice-assistant/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("llm_provider", cfg.LLM.Provider).
		Str("timezone", cfg.Tenant.TimeZone).
		Msg("iniciando asistente de facturas")

	ctx := context.Background()
	assistant, err := bootstrap.NewAssistant(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar asistente")
	}
	defer assistant.Close()

	// el turno puede tardar lo que el router y la paráfrasis juntos
	turnTimeout := 2*cfg.Chatbot.RouterTimeout + 30*time.Second

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: turnTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Invoice Assistant API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Chatbot:     assistant.UseCase,
		ServiceName: cfg.App.Name,
		LLMProvider: cfg.LLM.Provider,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		TurnTimeout: turnTimeout,
		Log:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
