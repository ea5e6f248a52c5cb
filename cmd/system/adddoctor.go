package system

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caretap/caretap_backend/config"
	"github.com/caretap/caretap_backend/internal/store"
	"github.com/caretap/caretap_backend/internal/store/postgres"
	"github.com/caretap/caretap_backend/pkg/database"
	"github.com/caretap/caretap_backend/pkg/util/password"
)

// Doctors are provisioned by the clinic operator rather than through
// self-service registration.
func NewAddDoctorCommand() *cobra.Command {
	var (
		name      string
		email     string
		phone     string
		specialty string
		pass      string
	)

	cmd := &cobra.Command{
		Use:   "add-doctor",
		Short: "Create a doctor account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" || pass == "" {
				return fmt.Errorf("--name, --email and --password are required")
			}

			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			pool, err := database.NewPool(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			hash, err := password.Hash(pass)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate id: %w", err)
			}

			u := &store.User{
				ID:           id,
				Role:         store.RoleDoctor,
				Name:         name,
				Email:        strings.ToLower(strings.TrimSpace(email)),
				Phone:        phone,
				Specialty:    specialty,
				PasswordHash: hash,
				CreatedAt:    time.Now().UTC(),
			}

			if err := postgres.New(pool).CreateUser(ctx, u); err != nil {
				return fmt.Errorf("failed to create doctor: %w", err)
			}

			fmt.Printf("Doctor %s created with id %s\n", u.Name, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Doctor's full name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone number")
	cmd.Flags().StringVar(&specialty, "specialty", "", "Medical specialty")
	cmd.Flags().StringVar(&pass, "password", "", "Initial password")

	return cmd
}
