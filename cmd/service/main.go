package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Mojtabakargaran/identity-service/internal/auth"
	"github.com/Mojtabakargaran/identity-service/internal/config"
	"github.com/Mojtabakargaran/identity-service/internal/email"
	"github.com/Mojtabakargaran/identity-service/internal/events"
	httpserver "github.com/Mojtabakargaran/identity-service/internal/http"
	"github.com/Mojtabakargaran/identity-service/internal/http/handlers"
	"github.com/Mojtabakargaran/identity-service/internal/institution"
	"github.com/Mojtabakargaran/identity-service/internal/lockout"
	"github.com/Mojtabakargaran/identity-service/internal/metrics"
	"github.com/Mojtabakargaran/identity-service/internal/observability/logger"
	"github.com/Mojtabakargaran/identity-service/internal/profile"
	"github.com/Mojtabakargaran/identity-service/internal/rate"
	"github.com/Mojtabakargaran/identity-service/internal/security/password"
	"github.com/Mojtabakargaran/identity-service/internal/session"
	"github.com/Mojtabakargaran/identity-service/internal/store"
	"github.com/Mojtabakargaran/identity-service/internal/tenant"
	pgmigrations "github.com/Mojtabakargaran/identity-service/migrations/postgres"
)

func main() {
	// .env es best-effort; en contenedores las vars vienen del entorno.
	_ = godotenv.Load()

	var (
		cfgPath string
		migrate bool
	)
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "ruta al YAML de configuración (opcional)")
	flag.BoolVar(&migrate, "migrate", os.Getenv("MIGRATE") == "true", "aplicar migraciones al arrancar")
	flag.Parse()

	var cfg *config.Config
	if cfgPath != "" {
		c, err := config.Load(cfgPath)
		if err != nil {
			// Logger todavía no inicializado.
			panic("config: " + err.Error())
		}
		cfg = c
	} else {
		cfg = config.FromEnv()
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Open(ctx, cfg.Storage.Postgres.DSN,
		cfg.Storage.Postgres.MaxOpenConns,
		config.Dur(cfg.Storage.Postgres.ConnMaxLifetime, 30*time.Minute))
	if err != nil {
		log.Fatal("postgres", logger.Err(err))
	}
	defer pool.Close()

	if migrate {
		if err := store.Migrate(ctx, pool, pgmigrations.FS); err != nil {
			log.Fatal("migrations", logger.Err(err))
		}
		log.Info("migrations applied")
	}

	users := store.NewUserStore(pool)
	roles := store.NewRoleStore(pool)
	tenants := store.NewTenantStore(pool)
	tokens := store.NewTokenStore(pool)
	rateStore := store.NewRateLimitStore(pool)
	instStore := store.NewInstitutionStore(pool)

	// Redis es opcional: sesiones, limiter de reenvío y eventos lo usan
	// cuando está configurado; si no, hay fallbacks en memoria / nop.
	var redisClient *rdb.Client
	if cfg.Cache.Redis.Addr != "" {
		redisClient = rdb.NewClient(&rdb.Options{Addr: cfg.Cache.Redis.Addr, DB: cfg.Cache.Redis.DB})
		defer func() { _ = redisClient.Close() }()
	}

	sessionTTL := config.Dur(cfg.Auth.Session.TTL, 24*time.Hour)
	var sessions session.Store
	switch cfg.Cache.Kind {
	case "redis":
		if redisClient == nil {
			log.Fatal("cache.kind=redis requiere cache.redis.addr")
		}
		sessions = session.NewRedisStore(redisClient, cfg.Cache.Redis.Prefix)
	default:
		sessions = session.NewMemoryStore(config.Dur(cfg.Cache.Memory.DefaultTTL, 2*time.Minute))
	}

	// Las ventanas de recuperación de contraseña persisten en Postgres para
	// sobrevivir reinicios; el reenvío de verificación usa el cache.
	forgotWindow := config.Dur(cfg.Rate.Forgot.Window, time.Hour)
	resendWindow := config.Dur(cfg.Rate.Resend.Window, time.Hour)
	forgotLimit := rate.Pair{
		ByEmail: rate.NewPGLimiter(rateStore, "email", cfg.Rate.Forgot.Limit, forgotWindow),
		ByIP:    rate.NewPGLimiter(rateStore, "ip", cfg.Rate.Forgot.Limit, forgotWindow),
	}
	var resendLimit rate.Pair
	if cfg.Cache.Kind == "redis" {
		resendLimit = rate.Pair{
			ByEmail: rate.NewRedisLimiter(redisClient, cfg.Cache.Redis.Prefix+"rl:resend:", cfg.Rate.Resend.Limit, resendWindow),
			ByIP:    rate.NewRedisLimiter(redisClient, cfg.Cache.Redis.Prefix+"rl:resend:", cfg.Rate.Resend.Limit, resendWindow),
		}
	} else {
		resendLimit = rate.Pair{
			ByEmail: rate.NewMemoryLimiter(cfg.Rate.Resend.Limit, resendWindow),
			ByIP:    rate.NewMemoryLimiter(cfg.Rate.Resend.Limit, resendWindow),
		}
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.Kind == "redis" {
		if redisClient == nil {
			log.Fatal("events.kind=redis requiere cache.redis.addr")
		}
		publisher = events.NewRedisPublisher(redisClient)
	}

	sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	sender.TLSMode = cfg.SMTP.TLS
	sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
	mailer := email.NewMailer(sender, cfg.Email.BaseURL)

	if err := metrics.RegisterAuth(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("metrics", logger.Err(err))
	}

	policy := password.Policy{
		MinLength:     cfg.Security.PasswordPolicy.MinLength,
		RequireUpper:  cfg.Security.PasswordPolicy.RequireUpper,
		RequireLower:  cfg.Security.PasswordPolicy.RequireLower,
		RequireDigit:  cfg.Security.PasswordPolicy.RequireDigit,
		RequireSymbol: cfg.Security.PasswordPolicy.RequireSymbol,
	}
	verifyTTL := config.Dur(cfg.Auth.Verify.TTL, 24*time.Hour)
	resetTTL := config.Dur(cfg.Auth.Reset.TTL, 24*time.Hour)

	machine := lockout.New(users,
		cfg.Auth.Lockout.Threshold,
		config.Dur(cfg.Auth.Lockout.Duration, 30*time.Minute))

	authSvc := &auth.Service{
		Users:       users,
		Roles:       roles,
		Tenants:     tenants,
		Tokens:      tokens,
		Lockout:     machine,
		Sessions:    sessions,
		Mailer:      mailer,
		Events:      publisher,
		Tx:          auth.NewPgTx(pool),
		ForgotLimit: forgotLimit,
		ResendLimit: resendLimit,
		Params:      password.Default,
		Policy:      policy,
		SessionTTL:  sessionTTL,
		VerifyTTL:   verifyTTL,
		ResetTTL:    resetTTL,
	}
	tenantSvc := &tenant.Service{
		DB:        pool,
		Tokens:    tokens,
		Mailer:    mailer,
		Events:    publisher,
		Params:    password.Default,
		Policy:    policy,
		VerifyTTL: verifyTTL,
	}
	profileSvc := &profile.Service{Users: users, Events: publisher}
	instSvc := &institution.Service{Store: instStore}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Tenant:      &handlers.Tenant{Svc: tenantSvc},
		Auth:        &handlers.Auth{Svc: authSvc},
		Profile:     &handlers.Profile{Svc: profileSvc, Institution: instSvc},
		Institution: &handlers.Institution{Svc: instSvc},
		Health:      &handlers.Health{DB: pool, Sessions: sessions},
		Sessions:    sessions,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  config.Dur(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout: config.Dur(cfg.Server.WriteTimeout, 30*time.Second),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server up",
			logger.String("addr", cfg.Server.Addr),
			logger.String("env", cfg.App.Env),
			logger.String("cache", cfg.Cache.Kind))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server", logger.Err(err))
	}
}
