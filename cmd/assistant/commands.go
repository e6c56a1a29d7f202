package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhoicas/invoice-assistant/internal/bootstrap"
	"github.com/jhoicas/invoice-assistant/internal/domain/period"
	"github.com/jhoicas/invoice-assistant/pkg/config"
	"github.com/jhoicas/invoice-assistant/pkg/logger"
)

type rootOptions struct {
	envFile string
	verbose bool
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Asistente de facturas en lenguaje natural",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// las variables ya definidas en el entorno tienen prioridad sobre el archivo
			if err := godotenv.Load(opts.envFile); err != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("cargar %s: %w", opts.envFile, err)
			}
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "archivo de variables de entorno")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "mostrar logs en stderr")

	root.AddCommand(newResolveCommand(), newAskCommand(opts))
	return root
}

type resolveOptions struct {
	tz          string
	weekStart   string
	fiscalMonth int
	now         string
}

func newResolveCommand() *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve <frase>",
		Short: "Resuelve una frase de período al rango UTC exacto",
		Example: `  assistant resolve "last month" --tz Africa/Cairo
  assistant resolve "الربع الماضي" --now 2024-05-15T10:00:00Z`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := bootstrap.Calendar(config.TenantConfig{
				TimeZone:         opts.tz,
				WeekStart:        opts.weekStart,
				FiscalStartMonth: opts.fiscalMonth,
			})
			if err != nil {
				return err
			}
			now := time.Now()
			if opts.now != "" {
				if now, err = time.Parse(time.RFC3339, opts.now); err != nil {
					return fmt.Errorf("--now debe ser RFC3339: %w", err)
				}
			}

			r, rule := period.ResolveRule(strings.Join(args, " "), cal, now)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "rule:  %s\n", rule)
			fmt.Fprintf(w, "start: %s\n", r.Start.Format(time.RFC3339Nano))
			fmt.Fprintf(w, "end:   %s\n", r.End.Format(time.RFC3339Nano))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.tz, "tz", "Africa/Cairo", "zona horaria IANA del tenant")
	cmd.Flags().StringVar(&opts.weekStart, "week-start", "monday", "primer día de la semana")
	cmd.Flags().IntVar(&opts.fiscalMonth, "fiscal-month", 1, "mes de inicio del año fiscal (1-12)")
	cmd.Flags().StringVar(&opts.now, "now", "", "instante de referencia RFC3339 (por defecto, ahora)")
	return cmd
}

func newAskCommand(root *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ask <pregunta>",
		Short: "Hace una pregunta al asistente usando el LLM y la base de datos configurados",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.Nop()
			if root.verbose {
				log = logger.New(logger.Config{Env: "development", Level: cfg.App.LogLevel, Out: cmd.ErrOrStderr()})
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			assistant, err := bootstrap.NewAssistant(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer assistant.Close()

			answer, err := assistant.UseCase.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "tiempo máximo del turno")
	return cmd
}
