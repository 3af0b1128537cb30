package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayurclinic/clinic/internal/config"
	"github.com/ayurclinic/clinic/internal/domain/appointment"
	"github.com/ayurclinic/clinic/internal/domain/dashboard"
	"github.com/ayurclinic/clinic/internal/domain/loginlog"
	"github.com/ayurclinic/clinic/internal/domain/patient"
	"github.com/ayurclinic/clinic/internal/domain/payment"
	"github.com/ayurclinic/clinic/internal/domain/prescription"
	"github.com/ayurclinic/clinic/internal/domain/user"
	"github.com/ayurclinic/clinic/internal/platform/auth"
	"github.com/ayurclinic/clinic/internal/platform/blobstore"
	"github.com/ayurclinic/clinic/internal/platform/db"
	"github.com/ayurclinic/clinic/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Ayurvedic clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// adminCmd bootstraps the first admin account; there is no self-registration.
func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			email, _ := cmd.Flags().GetString("email")
			fullName, _ := cmd.Flags().GetString("name")
			if username == "" || password == "" || email == "" || fullName == "" {
				return fmt.Errorf("--username, --password, --email and --name are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			userRepo := user.NewPGRepository(pool)
			counters := patient.NewPGCounterStore(pool)
			allocator := patient.NewAllocator(user.NewDirectory(userRepo), counters)
			users := user.NewService(userRepo, allocator, logger)

			u, err := users.Create(ctx, user.CreateParams{
				Username: username,
				Password: password,
				Email:    email,
				FullName: fullName,
				Role:     auth.RoleAdmin.String(),
			})
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			fmt.Printf("Admin account %q created (id %d).\n", u.Username, u.ID)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Login username")
	createCmd.Flags().String("password", "", "Login password (min 8 characters)")
	createCmd.Flags().String("email", "", "Account email")
	createCmd.Flags().String("name", "", "Display name")
	cmd.AddCommand(createCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := newLogger(os.Getenv("ENV"))

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Identity provider, selected once at startup.
	var provider auth.IdentityProvider = auth.Disabled{}
	if cfg.OIDCProvider == "oidc" {
		provider, err = auth.NewOIDCProvider(auth.OIDCConfig{
			Issuer:   cfg.OIDCIssuer,
			Audience: cfg.OIDCAudience,
			JWKSURL:  cfg.OIDCJWKSURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure identity provider")
		}
	}
	logger.Info().Str("provider", provider.Name()).Msg("identity provider configured")

	// Blob storage for prescription uploads.
	blobs, err := blobstore.NewDiskBlobStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize upload storage")
	}

	// Repositories and services.
	sessions := auth.NewPGSessionStore(pool, cfg.SessionTTL())

	userRepo := user.NewPGRepository(pool)
	counters := patient.NewPGCounterStore(pool)
	patientRepo := patient.NewPGRepository(pool)
	allocator := patient.NewAllocator(user.NewDirectory(userRepo), counters)

	users := user.NewService(userRepo, allocator, logger)
	patients := patient.NewService(patientRepo, allocator, logger)
	appointments := appointment.NewService(appointment.NewPGRepository(pool), patients, logger)
	prescriptions := prescription.NewService(prescription.NewPGRepository(pool), patients, blobs, logger)
	payments := payment.NewService(payment.NewPGRepository(pool), patients, logger)
	audit := loginlog.NewService(loginlog.NewPGRepository(pool), logger)
	dashboards := dashboard.NewService(dashboard.NewPGRepository(pool), appointments, patients, logger)

	sessionCfg := auth.SessionConfig{
		Store:        sessions,
		Users:        users,
		CookieName:   cfg.SessionCookie,
		CookieSecure: cfg.CookieSecure,
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(corsConfig(cfg.CORSOrigins)))
	e.Use(auth.SessionMiddleware(sessionCfg))

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	// API routes
	api := e.Group("/api")
	api.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	authHandler := user.NewAuthHandler(users, sessions, audit, provider, sessionCfg)
	authHandler.RegisterRoutes(api, middleware.RateLimit(middleware.LoginRateLimitConfig()))

	user.NewHandler(users).RegisterRoutes(api)
	patient.NewHandler(patients).RegisterRoutes(api)
	appointment.NewHandler(appointments).RegisterRoutes(api)
	payment.NewHandler(payments).RegisterRoutes(api)
	loginlog.NewHandler(audit).RegisterRoutes(api)
	dashboard.NewHandler(dashboards).RegisterRoutes(api)

	rxHandler := prescription.NewHandler(prescriptions)
	rxHandler.RegisterRoutes(api)
	rxHandler.RegisterUploadRoutes(e.Group(""))

	// Background sweep of expired sessions.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, sessions, logger)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}

// newLogger returns JSON output everywhere except development, where the
// console writer is easier to read.
func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// corsConfig allows credentialed requests from the configured origins only.
// The session cookie never travels on a wildcard origin.
func corsConfig(origins []string) echomw.CORSConfig {
	return echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}
}

// sweepSessions deletes expired session rows hourly so the table does not
// grow without bound.
func sweepSessions(ctx context.Context, sessions auth.SessionStore, logger zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("session sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("deleted", n).Msg("expired sessions removed")
			}
		}
	}
}
