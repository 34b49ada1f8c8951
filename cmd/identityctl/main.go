package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Mojtabakargaran/identity-service/internal/config"
	"github.com/Mojtabakargaran/identity-service/internal/email"
	"github.com/Mojtabakargaran/identity-service/internal/store"
	pgmigrations "github.com/Mojtabakargaran/identity-service/migrations/postgres"
)

// identityctl: tareas de mantenimiento offline contra la misma base que el
// servicio (purga de tokens, ventanas de rate limit, chequeo de SMTP).

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:           "identityctl",
		Short:         "Herramientas de mantenimiento del identity service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "ruta al YAML de configuración")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout global del comando")

	loadCfg := func() *config.Config {
		if cfgPath != "" {
			c, err := config.Load(cfgPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "config: %v\n", err)
				os.Exit(1)
			}
			return c
		}
		return config.FromEnv()
	}

	openPool := func(ctx context.Context, cfg *config.Config) *pgxpool.Pool {
		pool, err := store.Open(ctx, cfg.Storage.Postgres.DSN,
			cfg.Storage.Postgres.MaxOpenConns,
			config.Dur(cfg.Storage.Postgres.ConnMaxLifetime, 30*time.Minute))
		if err != nil {
			fmt.Fprintf(os.Stderr, "postgres: %v\n", err)
			os.Exit(1)
		}
		return pool
	}

	var grace time.Duration
	purgeTokens := &cobra.Command{
		Use:   "purge-tokens",
		Short: "Elimina tokens de verificación y reset ya vencidos",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			pool := openPool(ctx, loadCfg())
			defer pool.Close()

			tokens := store.NewTokenStore(pool)
			total := int64(0)
			for _, kind := range []store.TokenKind{store.TokenEmailVerify, store.TokenPasswordReset} {
				n, err := tokens.DeleteExpired(ctx, kind, grace)
				if err != nil {
					return fmt.Errorf("purge %s: %w", kind, err)
				}
				fmt.Printf("%s: %d eliminados\n", kind, n)
				total += n
			}
			fmt.Printf("total: %d\n", total)
			return nil
		},
	}
	purgeTokens.Flags().DurationVar(&grace, "grace", 24*time.Hour, "conservar tokens vencidos hace menos de este período")

	var olderThan time.Duration
	purgeWindows := &cobra.Command{
		Use:   "purge-rate-windows",
		Short: "Elimina ventanas de rate limit sin actividad reciente",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			pool := openPool(ctx, loadCfg())
			defer pool.Close()

			n, err := store.NewRateLimitStore(pool).DeleteStale(ctx, olderThan)
			if err != nil {
				return err
			}
			fmt.Printf("ventanas eliminadas: %d\n", n)
			return nil
		},
	}
	purgeWindows.Flags().DurationVar(&olderThan, "older-than", 48*time.Hour, "antigüedad mínima de la ventana")

	var smtpTo string
	smtpCheck := &cobra.Command{
		Use:   "smtp-check",
		Short: "Envía un email de prueba y clasifica el error si falla",
		RunE: func(cmd *cobra.Command, args []string) error {
			if smtpTo == "" {
				return fmt.Errorf("falta --to")
			}
			cfg := loadCfg()
			sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
			sender.TLSMode = cfg.SMTP.TLS
			sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify

			err := sender.Send(smtpTo, "identityctl smtp-check",
				"<p>Mensaje de prueba.</p>", "Mensaje de prueba.")
			if err != nil {
				diag := email.DiagnoseSMTP(err)
				fmt.Printf("fallo: code=%s temporary=%v retry_after=%s\n", diag.Code, diag.Temporary, diag.RetryAfter)
				return err
			}
			fmt.Println("entregado")
			return nil
		},
	}
	smtpCheck.Flags().StringVar(&smtpTo, "to", "", "destinatario del email de prueba")

	var down bool
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas (o las revierte con --down)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			pool := openPool(ctx, loadCfg())
			defer pool.Close()

			if down {
				return store.MigrateDown(ctx, pool, pgmigrations.FS)
			}
			return store.Migrate(ctx, pool, pgmigrations.FS)
		},
	}
	migrateCmd.Flags().BoolVar(&down, "down", false, "revertir en lugar de aplicar")

	root.AddCommand(purgeTokens, purgeWindows, smtpCheck, migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
