package services

import (
	"digitaldome/config"
	"digitaldome/internal/database"
	"digitaldome/internal/events"
	"digitaldome/internal/repositories"
)

type Service struct {
	Transaction *TransactionService
	Scheduler   *SchedulerService
	Storage     *StorageService
	Token       *TokenService
	Auth        *AuthService
	TMDB        *TMDBService
	IGDB        *IGDBService
	OpenAI      *OpenAIService
	Enrichment  *EnrichmentService
	Stats       *StatsService
	Import      *ImportService
	Export      *ExportService
	FileCleanup *FileCleanupService
	Maintenance *MaintenanceService
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Service, error) {
	transactionService := NewTransactionService(db)
	repos := repositories.New(db)

	storageService, err := NewStorageService(config)
	if err != nil {
		return Service{}, err
	}

	tokenService := NewTokenService(config)
	authService := NewAuthService(db, repos.User, tokenService)

	tmdbService := NewTMDBService(config)
	igdbService := NewIGDBService(config)
	openaiService := NewOpenAIService(config)
	enrichmentService := NewEnrichmentService(
		tmdbService,
		igdbService,
		openaiService,
		storageService,
		repos.Tag,
		repos.Platform,
	)

	statsService := NewStatsService(repos.UserStats)
	importService := NewImportService(db, transactionService)
	exportService := NewExportService(repos.Tracking)
	fileCleanupService := NewFileCleanupService(db, storageService)
	maintenanceService := NewMaintenanceService(db, repos.Tracking, repos.UserStats)

	return Service{
		Transaction: transactionService,
		Scheduler:   NewSchedulerService(),
		Storage:     storageService,
		Token:       tokenService,
		Auth:        authService,
		TMDB:        tmdbService,
		IGDB:        igdbService,
		OpenAI:      openaiService,
		Enrichment:  enrichmentService,
		Stats:       statsService,
		Import:      importService,
		Export:      exportService,
		FileCleanup: fileCleanupService,
		Maintenance: maintenanceService,
	}, nil
}
