package controllers

import (
	"digitaldome/config"
	"digitaldome/internal/database"
	"digitaldome/internal/events"
	"digitaldome/internal/repositories"
	"digitaldome/internal/services"

	entityController "digitaldome/internal/controllers/entities"
	integrationController "digitaldome/internal/controllers/integrations"
	trackingController "digitaldome/internal/controllers/tracking"
	userController "digitaldome/internal/controllers/users"
)

type Controllers struct {
	User        userController.UserControllerInterface
	Entity      entityController.EntityControllerInterface
	Tracking    trackingController.TrackingControllerInterface
	Integration integrationController.IntegrationControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		User:        userController.New(repos, services, config),
		Entity:      entityController.New(repos, services, eventBus, config, db),
		Tracking:    trackingController.New(repos, services, eventBus, config, db),
		Integration: integrationController.New(services, eventBus, config),
	}
}
