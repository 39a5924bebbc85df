package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dcclinic/clinic/internal/config"
	"github.com/dcclinic/clinic/internal/domain/inventory"
	"github.com/dcclinic/clinic/internal/domain/payment"
	"github.com/dcclinic/clinic/internal/domain/prescribing"
	"github.com/dcclinic/clinic/internal/domain/scheduling"
	"github.com/dcclinic/clinic/internal/domain/staff"
	"github.com/dcclinic/clinic/internal/domain/stats"
	"github.com/dcclinic/clinic/internal/platform/auth"
	"github.com/dcclinic/clinic/internal/platform/db"
	"github.com/dcclinic/clinic/internal/platform/middleware"
	"github.com/dcclinic/clinic/internal/platform/notification"
)

var rootCmd = &cobra.Command{
	Use:   "clinic-server",
	Short: "Clinic management backend",
	Long:  "HTTP API for clinic scheduling, prescribing, inventory, payments and statistics.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrationsDir string

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return err
		}
		defer pool.Close()

		migrator := db.NewMigrator(pool, migrationsDir)
		applied, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migration(s)\n", applied)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return err
		}
		defer pool.Close()

		migrator := db.NewMigrator(pool, migrationsDir)
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			mark := "pending"
			if st.Applied {
				mark = "applied"
			}
			fmt.Printf("%03d  %-40s %s\n", st.Version, st.Name, mark)
		}
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "migrations directory")
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// staffCallerResolver bridges JWT subjects to profile identities for the
// handlers that scope responses by role.
type staffCallerResolver struct {
	profiles *staff.Service
}

func (r *staffCallerResolver) resolve(ctx context.Context, userID string) (uuid.UUID, string, error) {
	p, err := r.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, "", err
	}
	return p.ID, string(p.Kind), nil
}

type schedulingCallers struct{ r *staffCallerResolver }

func (a schedulingCallers) Caller(ctx context.Context, userID string) (*scheduling.Caller, error) {
	id, kind, err := a.r.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &scheduling.Caller{ProfileID: id, Kind: kind}, nil
}

type prescribingCallers struct{ r *staffCallerResolver }

func (a prescribingCallers) Caller(ctx context.Context, userID string) (*prescribing.Caller, error) {
	id, kind, err := a.r.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &prescribing.Caller{ProfileID: id, Kind: kind}, nil
}

type paymentCallers struct{ r *staffCallerResolver }

func (a paymentCallers) Caller(ctx context.Context, userID string) (*payment.Caller, error) {
	id, kind, err := a.r.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &payment.Caller{ProfileID: id, Kind: kind}, nil
}

// patientDirectoryAdapter exposes patient contact details to the scheduler's
// confirmation emails.
type patientDirectoryAdapter struct {
	profiles *staff.Service
}

func (a *patientDirectoryAdapter) PatientContact(ctx context.Context, patientID uuid.UUID) (*scheduling.PatientContact, error) {
	p, err := a.profiles.GetProfile(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &scheduling.PatientContact{FullName: p.FullName, Email: p.Email}, nil
}

// appointmentGatewayAdapter narrows the scheduling service to what the
// prescription workflow needs.
type appointmentGatewayAdapter struct {
	appointments *scheduling.Service
}

func (a *appointmentGatewayAdapter) Appointment(ctx context.Context, id uuid.UUID) (*prescribing.AppointmentInfo, error) {
	appt, err := a.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &prescribing.AppointmentInfo{
		ID:            appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		ScheduledTime: appt.ScheduledTime,
		Confirmed:     appt.Confirmed,
		Examined:      appt.Examined,
	}, nil
}

func (a *appointmentGatewayAdapter) MarkExamined(ctx context.Context, id uuid.UUID) error {
	return a.appointments.MarkExamined(ctx, id)
}

// medicineGatewayAdapter narrows the inventory service to catalog lookup and
// stock decrement.
type medicineGatewayAdapter struct {
	medicines *inventory.Service
}

func (a *medicineGatewayAdapter) Medicine(ctx context.Context, id uuid.UUID) (*prescribing.MedicineInfo, error) {
	m, err := a.medicines.GetMedicine(ctx, id)
	if err != nil {
		return nil, err
	}
	return &prescribing.MedicineInfo{
		ID:                m.ID,
		Name:              m.Name,
		Price:             m.Price,
		Instructions:      m.Instructions,
		UsageInstructions: m.UsageInstructions,
	}, nil
}

func (a *medicineGatewayAdapter) Decrement(ctx context.Context, id uuid.UUID, qty int) error {
	return a.medicines.Decrement(ctx, id, qty)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	cancel()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	if cfg.IsDev() {
		logger.Warn().Msg("dev auth middleware enabled, do not use in production")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}
	e.Use(middleware.Audit(logger))

	e.GET("/health", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	apiV1.Use(middleware.RequestTimeout(30 * time.Second))

	// Repositories and transaction runner.
	txRunner := db.NewTxRunner(pool)
	profileRepo := staff.NewProfileRepoPG(pool)
	medicineRepo := inventory.NewMedicineRepoPG(pool)
	statsRepo := stats.NewStatsRepoPG(pool)
	appointmentRepo := scheduling.NewAppointmentRepoPG(pool)
	prescriptionRepo := prescribing.NewPrescriptionRepoPG(pool)
	paymentRepo := payment.NewPaymentRepoPG(pool)

	// Services.
	staffSvc := staff.NewService(profileRepo)
	inventorySvc := inventory.NewService(medicineRepo)
	statsSvc := stats.NewService(statsRepo)
	schedulingSvc := scheduling.NewService(appointmentRepo, txRunner, cfg.DailyAppointmentCap)
	paymentSvc := payment.NewService(paymentRepo, txRunner, statsSvc)
	prescribingSvc := prescribing.NewService(
		prescriptionRepo,
		txRunner,
		&appointmentGatewayAdapter{appointments: schedulingSvc},
		&medicineGatewayAdapter{medicines: inventorySvc},
		paymentSvc,
		statsSvc,
	)

	// Confirmation emails.
	var sender notification.EmailSender = notification.NoopSender{}
	if cfg.SMTPAddr != "" {
		sender = notification.NewSMTPSender(cfg.SMTPAddr, cfg.MailFrom)
	}
	notifier := notification.NewNotifier(sender, notification.NewTemplateEngine(), logger)
	schedulingSvc.SetNotifier(notifier, &patientDirectoryAdapter{profiles: staffSvc})

	resolver := &staffCallerResolver{profiles: staffSvc}

	staff.NewHandler(staffSvc).RegisterRoutes(apiV1)
	inventory.NewHandler(inventorySvc).RegisterRoutes(apiV1)
	stats.NewHandler(statsSvc).RegisterRoutes(apiV1)
	scheduling.NewHandler(schedulingSvc, schedulingCallers{r: resolver}).RegisterRoutes(apiV1)
	prescribing.NewHandler(prescribingSvc, prescribingCallers{r: resolver}).RegisterRoutes(apiV1)
	payment.NewHandler(paymentSvc, paymentCallers{r: resolver}).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	notifier.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
