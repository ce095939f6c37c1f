package main

import (
	"fmt"
	"os"

	"github.com/blog-articles-api/internal/config"
	"github.com/blog-articles-api/internal/database"
	"github.com/blog-articles-api/internal/repository"
	"github.com/blog-articles-api/internal/service"
	"github.com/blog-articles-api/internal/validation"
	"github.com/blog-articles-api/pkg/logger"
)

// connect wires the services against the configured database
func connect() (*service.Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.Log)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	services := service.NewServices(repository.New(db), validation.NewValidator(), log)
	return services, func() { db.Close() }, nil
}

func main() {
	if err := newRootCmd(connect, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
