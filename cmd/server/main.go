package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laimu/erptracker/internal/api"
	"github.com/laimu/erptracker/internal/auth"
	"github.com/laimu/erptracker/internal/clock"
	"github.com/laimu/erptracker/internal/config"
	"github.com/laimu/erptracker/internal/db"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/observ"
	"github.com/laimu/erptracker/internal/portal"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/repository/memory"
	"github.com/laimu/erptracker/internal/repository/postgres"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("erptracker", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to a YAML config file (overrides CONFIG_FILE)")
	port := flags.String("port", "", "HTTP port")
	env := flags.String("env", "", "environment: development or production")
	logLevel := flags.String("log-level", "", "debug, info, warn or error")
	store := flags.String("store", "", "backend: postgres or memory")
	migrate := flags.Bool("migrate", true, "create missing tables at startup")
	seedEmail := flags.String("seed-admin-email", "", "memory store only: create a super admin with this email")
	seedPassword := flags.String("seed-admin-password", "", "memory store only: password of the seeded super admin")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// 1. Config: defaults, file, dotenv, environment, then flags.
	if *configFile != "" {
		os.Setenv("CONFIG_FILE", *configFile)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *env != "" {
		cfg.Env = *env
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *store != "" {
		cfg.Store = *store
	}
	if flags.Changed("migrate") {
		cfg.Migrate = *migrate
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 2. Logger
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// 3. Stores and session tracking
	ctx := context.Background()
	var (
		stores   api.Stores
		sessions api.Sessions
	)
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		mem := memory.New()
		stores = api.Stores{
			Sources: portal.Sources{
				Modules:            memory.Modules{Store: mem},
				Timeline:           memory.Timeline{Store: mem},
				Tickets:            memory.Tickets{Store: mem},
				Actions:            memory.Actions{Store: mem},
				Faqs:               memory.Faqs{Store: mem},
				Tutorials:          memory.Tutorials{Store: mem},
				CustomDevelopments: memory.CustomDevelopments{Store: mem},
				Profiles:           memory.Profiles{Store: mem},
				Users:              memory.DirectoryUsers{Store: mem},
				Notifications:      memory.Notifications{Store: mem},
			},
			Organizations: memory.Organizations{Store: mem},
			Credentials:   memory.Profiles{Store: mem},
		}
		sessions = auth.NewMemorySessions(time.Now)

		if *seedEmail != "" {
			if err := seedSuperAdmin(ctx, memory.Profiles{Store: mem}, *seedEmail, *seedPassword); err != nil {
				return fmt.Errorf("seed super admin: %w", err)
			}
			logger.Info("seeded super admin", zap.String("email", *seedEmail))
		}

	default:
		database, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		if cfg.Migrate {
			if err := database.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}

		rdb, err := db.NewRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()

		pool := database.Pool()
		profiles := postgres.NewProfileStore(pool)
		stores = api.Stores{
			Sources: portal.Sources{
				Modules:            postgres.NewModuleStore(pool),
				Timeline:           postgres.NewTimelineStore(pool),
				Tickets:            postgres.NewTicketStore(pool),
				Actions:            postgres.NewActionItemStore(pool),
				Faqs:               postgres.NewFaqStore(pool),
				Tutorials:          postgres.NewTutorialStore(pool),
				CustomDevelopments: postgres.NewCustomDevelopmentStore(pool),
				Profiles:           profiles,
				Users:              postgres.NewDirectoryStore(pool),
				Notifications:      postgres.NewNotificationStore(pool),
			},
			Organizations: postgres.NewOrganizationStore(pool),
			Credentials:   profiles,
		}
		sessions = auth.NewRedisSessions(rdb)
	}

	// 4. HTTP server
	router := api.NewRouter(api.RouterConfig{
		Stores:              stores,
		Sessions:            sessions,
		JWTSecret:           cfg.JWTSecret,
		TokenTTL:            cfg.TokenTTL,
		RemoteTimeout:       cfg.RemoteTimeout,
		LogoutOnAuthExpired: cfg.LogoutOnAuthExpired,
		Clock:               clock.Real(),
		Logger:              logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting erptracker",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 5. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// seedSuperAdmin gives a fresh in-memory server someone who can create
// organizations and assign signed-up users to them.
func seedSuperAdmin(ctx context.Context, profiles memory.Profiles, email, password string) error {
	if len(password) < 8 {
		return errors.New("seed admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	p, err := profiles.CreatePrincipal(ctx, email, string(hash), "Administrator")
	if err != nil {
		return err
	}
	role := models.RoleSuperAdmin
	_, err = profiles.Update(ctx, p.ID, repository.ProfilePatch{Role: &role})
	return err
}
