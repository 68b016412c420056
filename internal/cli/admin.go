package cli

import (
	"errors"

	"quizbank-service/internal/app"
	"quizbank-service/internal/config"

	"github.com/spf13/cobra"
)

// NewCreateAdminCmd bootstraps an admin account.
func NewCreateAdminCmd(configPath *string) *cobra.Command {
	var in app.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := cfg.NewLogger()
			if cfg.Postgres.URL == "" {
				return errors.New("postgres url not configured; an in-memory admin would not outlive this command")
			}

			deps, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer deps.Close()

			user, err := app.NewUserService(deps.users, log).CreateAdmin(ctx, in)
			if err != nil {
				return err
			}
			cmd.Printf("admin %s created with id %d\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email (login)")
	cmd.Flags().StringVar(&in.Name, "name", "", "admin display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
