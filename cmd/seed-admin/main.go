// Command seed-admin provisions the administrator account. Admins cannot
// self-register, so this is the only way one comes into existence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/config"
	"garment-tracker/internal/model"
	"garment-tracker/internal/repository"
	"garment-tracker/pkg/database"
	"garment-tracker/pkg/identity"
	"garment-tracker/pkg/logger"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "email of the identity that becomes admin")
	name := flag.String("name", "Administrator", "display name")
	flag.Parse()

	if err := run(*email, *name); err != nil {
		log.Fatalf("seed-admin: %v", err)
	}
}

func run(email, name string) error {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return errors.New("admin email is required (-email or ADMIN_EMAIL)")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	appLog, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer appLog.Sync()

	db, err := database.Connect(cfg.DB.DSN(), database.Options{MaxOpenConns: 2})
	if err != nil {
		return err
	}
	if err := repository.AutoMigrate(db); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accounts := repository.NewAccountRepo(db)
	existing, err := accounts.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrAccountNotFound):
		admin := &model.Account{
			Email:       email,
			DisplayName: name,
			Role:        model.RoleAdmin,
			Status:      model.AccountApproved,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"
		if err := accounts.Create(ctx, admin); err != nil {
			return err
		}
		appLog.Info("admin account created", logger.String("email", email), logger.String("id", admin.ID.String()))
		return nil
	case err != nil:
		return err
	}

	if existing.Role != model.RoleAdmin {
		return fmt.Errorf("%s is already registered as %s; roles are fixed at registration", email, existing.Role)
	}
	if existing.IsApproved() {
		appLog.Info("admin account already active", logger.String("email", email))
		return nil
	}

	_, err = accounts.Update(ctx, existing.ID, func(a *model.Account) error {
		a.Status = model.AccountApproved
		a.SuspendReason = ""
		a.UpdatedBy = "system"
		return nil
	})
	if err != nil {
		return err
	}
	appLog.Info("admin account reinstated", logger.String("email", email))
	return nil
}
