package app

import (
	"context"

	"digitaldome/config"
	"digitaldome/internal/controllers"
	"digitaldome/internal/database"
	"digitaldome/internal/events"
	"digitaldome/internal/handlers/middleware"
	"digitaldome/internal/jobs"
	"digitaldome/internal/logger"
	"digitaldome/internal/repositories"
	"digitaldome/internal/services"
	"digitaldome/internal/websockets"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config

	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	appServices, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	repos := repositories.New(db)

	websocket, err := websockets.New(db, eventBus, config, appServices.Auth)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	middleware := middleware.New(db, eventBus, config, repos)
	appControllers := controllers.New(appServices, repos, eventBus, config, db)

	if config.SchedulerEnabled {
		if err := jobs.RegisterAllJobs(appServices.Scheduler, config, appServices, repos); err != nil {
			return &App{}, log.Err("failed to register jobs", err)
		}
		if err := appServices.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
		log.Info("Scheduler started with registered jobs")
	}

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware,
		Websocket:   websocket,
		EventBus:    eventBus,
		Services:    appServices,
		Repos:       repos,
		Controllers: appControllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Storage,
		a.Services.Token,
		a.Services.Auth,
		a.Services.Enrichment,
		a.Services.Stats,
		a.Services.Import,
		a.Services.Export,
		a.Services.Maintenance,
		a.Controllers.User,
		a.Controllers.Entity,
		a.Controllers.Tracking,
		a.Controllers.Integration,
		a.Repos.User,
		a.Repos.Entity,
		a.Repos.Tag,
		a.Repos.Platform,
		a.Repos.Tracking,
		a.Repos.UserStats,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil && a.Services.Scheduler.IsRunning() {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
