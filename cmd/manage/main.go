package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"contest-tracker/internal/app"
	"contest-tracker/internal/bootstrap"
	"contest-tracker/internal/platform/database"
	"contest-tracker/internal/repository"
)

const usage = `usage: manage <command> [flags]

commands:
  wait-for-db        block until the configured database accepts connections
  migrate            create or update the database tables
  create-superuser   create a staff superuser (-email, -password, -name)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		log.Errorf("manage: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "wait-for-db":
		return waitForDB(ctx)
	case "migrate":
		return migrate(ctx)
	case "create-superuser":
		return createSuperuser(ctx, args[1:], stderr)
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func waitForDB(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	log.Info("waiting for database...")
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	closeDB(db)
	log.Info("database available")
	return nil
}

func migrate(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

func createSuperuser(ctx context.Context, args []string, stderr io.Writer) error {
	var input app.SuperuserInput

	fs := flag.NewFlagSet("create-superuser", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&input.Email, "email", "", "Email address of the new superuser")
	fs.StringVar(&input.Password, "password", "", "Password (prefer SUPERUSER_PASSWORD env)")
	fs.StringVar(&input.Name, "name", "", "Display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if input.Password == "" {
		input.Password = os.Getenv("SUPERUSER_PASSWORD")
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB(db)
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	// no token store: creating an account never issues a token
	svc := app.NewUserService(repository.NewUserRepository(db), nil, cfg.Auth)
	user, err := svc.CreateSuperuser(ctx, input)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": user.ID, "email": user.Email}).Info("superuser created successfully")
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
