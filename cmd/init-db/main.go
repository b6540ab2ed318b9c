package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/yourusername/quiz-master/internal/config"
	"github.com/yourusername/quiz-master/internal/logger"
	pgRepo "github.com/yourusername/quiz-master/internal/repository/postgres"
	"github.com/yourusername/quiz-master/internal/service"
	"github.com/yourusername/quiz-master/pkg/database"
)

// init-db применяет миграции и создает администратора по умолчанию.
// С --force сначала снимает dirty-состояние, выставляя указанную версию миграций.
func main() {
	configPath := pflag.StringP("config", "c", "config/config.yaml", "path to the YAML config file")
	force := pflag.Int("force", -1, "force migration version before applying migrations (clears dirty state)")
	skipAdmin := pflag.Bool("skip-admin", false, "do not create the default admin user")
	pflag.Parse()

	if env := os.Getenv("CONFIG_PATH"); env != "" && !pflag.CommandLine.Changed("config") {
		*configPath = env
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(cfg.Database, false)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}

	if *force >= 0 {
		if err := database.ForceMigrationVersion(db, cfg.Database.MigrationsPath, *force, log); err != nil {
			log.Fatal("Failed to force migration version", "version", *force, "error", err)
		}
		log.Info("Dirty state cleaned", "version", *force)
	}

	if err := database.MigrateDB(db, cfg.Database.MigrationsPath, log); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}

	if *skipAdmin {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := service.NewUserService(pgRepo.NewUserRepo(db), nil, nil, nil, nil, log)
	created, err := users.EnsureAdmin(ctx, service.AdminSeed{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	})
	if err != nil {
		log.Fatal("Failed to create admin user", "error", err)
	}
	if created {
		log.Info("Admin user created successfully", "username", cfg.Admin.Username)
	} else {
		log.Info("Admin user already exists")
	}
}
