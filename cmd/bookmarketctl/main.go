package main

import (
	"context"
	"fmt"
	"os"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/app"
	"bookmarket-api/internal/config"
	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/core/services"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "bookmarketctl",
		Short:        "Maintenance commands for the Bookmarket API database",
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCommand(),
		newCreateLibrarianCommand(),
		newScanOverdueCommand(),
	)
	return root
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the accounts, books and loans tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := open()
			if err != nil {
				return err
			}
			defer config.CloseDatabase(db)

			if err := models.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Database migration completed")
			return nil
		},
	}
}

func newCreateLibrarianCommand() *cobra.Command {
	var username, password, nickname string

	cmd := &cobra.Command{
		Use:   "create-librarian",
		Short: "Register a librarian (ADMIN) account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := open()
			if err != nil {
				return err
			}
			defer config.CloseDatabase(db)

			svc, err := app.NewServices(cfg, db)
			if err != nil {
				return err
			}

			account, err := svc.Auth.Register(cmd.Context(), domain.KindLibrarian, &services.RegisterInput{
				Username: username,
				Password: password,
				Nickname: nickname,
			})
			if err != nil {
				return fmt.Errorf("create librarian: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Librarian %s created (id=%d)\n", account.Username, account.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "librarian username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "librarian password (min 8 characters)")
	cmd.Flags().StringVar(&nickname, "nickname", "", "display name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newScanOverdueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan-overdue",
		Short: "Run one overdue scan now and notify the configured sink",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := open()
			if err != nil {
				return err
			}
			defer config.CloseDatabase(db)

			svc, err := app.NewServices(cfg, db)
			if err != nil {
				return err
			}

			n, err := svc.Overdue.ScanOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan overdue: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📋 %d overdue loan(s) notified\n", n)
			return nil
		},
	}
}

func open() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
