package commands

import (
	"context"
	"fmt"
	"io"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/remindly/core/internal/adapters/blob"
	"github.com/remindly/core/internal/adapters/repository"
	"github.com/remindly/core/internal/application/services"
	"github.com/remindly/core/internal/infrastructure/config"
	"github.com/remindly/core/internal/infrastructure/database"
	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/infrastructure/server"
	"github.com/remindly/core/internal/ports"
)

// Build metadata, set with -ldflags "-X github.com/remindly/core/cmd/api/commands.Version=..."
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "development"
)

const shutdownTimeout = 15 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Remindly API server",
		Long:  "Start the Remindly API server with all configured routes and middleware",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), migrateFirst)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *database.Migrator) error {
				applied, err := m.Up()
				if err != nil {
					return err
				}
				reportMigration(cmd.OutOrStdout(), "up", applied)
				return nil
			})
		},
	})

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 0 {
				return fmt.Errorf("--steps must not be negative")
			}
			return withMigrator(cmd.Context(), func(m *database.Migrator) error {
				applied, err := m.Down(steps)
				if err != nil {
					return err
				}
				reportMigration(cmd.OutOrStdout(), "down", applied)
				return nil
			})
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to roll back (0 rolls back all)")
	migrateCmd.AddCommand(downCmd)

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *database.Migrator) error {
				status, err := m.Status()
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create accounts without going through the HTTP signup flow",
	}

	var req ports.RegisterRequest
	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return createUser(cmd.Context(), cmd.OutOrStdout(), req)
		},
	}

	createUserCmd.Flags().StringVar(&req.Username, "username", "", "Username (required)")
	createUserCmd.Flags().StringVar(&req.Email, "email", "", "User email (required)")
	createUserCmd.Flags().StringVar(&req.Password, "password", "", "User password (required)")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Remindly version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Remindly Core %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer(parent context.Context, migrateFirst bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(contextOrBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		appLogger.Errorw("Failed to connect to database", "error", err)
		return err
	}
	defer db.Close()

	if migrateFirst {
		m, err := database.NewMigrator(db)
		if err != nil {
			return err
		}
		applied, err := m.Up()
		if err != nil {
			appLogger.Errorw("Failed to apply migrations", "error", err)
			return err
		}
		appLogger.Infow("Migrations checked", "applied", applied)
	}

	blobs, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		appLogger.Errorw("Failed to initialize blob storage", "error", err, "driver", cfg.Storage.Driver)
		return err
	}

	srv, err := server.New(cfg, db, blobs, appLogger)
	if err != nil {
		appLogger.Errorw("Failed to initialize server", "error", err)
		return err
	}

	appLogger.Infow("Starting Remindly API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Errorw("Server failed", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err)
		return err
	}

	appLogger.Infow("Server stopped")
	return nil
}

func withMigrator(parent context.Context, fn func(*database.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(contextOrBackground(parent), cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}

	return fn(m)
}

func reportMigration(out io.Writer, direction string, applied bool) {
	if !applied {
		fmt.Fprintln(out, "No migrations to run")
		return
	}
	fmt.Fprintf(out, "Migration %s completed successfully\n", direction)
}

func printStatus(out io.Writer, status database.MigrationStatus) {
	if !status.Applied {
		fmt.Fprintln(out, "No migrations applied")
		return
	}
	fmt.Fprintf(out, "Current migration version: %d\n", status.Version)
	fmt.Fprintf(out, "Dirty: %t\n", status.Dirty)
}

func createUser(parent context.Context, out io.Writer, req ports.RegisterRequest) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(contextOrBackground(parent), cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	authService := services.NewAuthService(repository.NewUserRepository(db.DB), cfg.JWT, logger.NewNop())

	resp, err := authService.Register(contextOrBackground(parent), req)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	printUser(out, resp)
	return nil
}

func printUser(out io.Writer, resp *ports.AuthResponse) {
	fmt.Fprintf(out, "User created successfully:\n")
	fmt.Fprintf(out, "  ID: %s\n", resp.UserID)
	fmt.Fprintf(out, "  Username: %s\n", resp.Username)
	fmt.Fprintf(out, "  Token: %s\n", resp.Token)
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
