package fx

import (
	"reforger-battlelog/internal/config"
	"reforger-battlelog/internal/database"
	"reforger-battlelog/internal/logger"
	"reforger-battlelog/internal/repository"
	"reforger-battlelog/internal/server"
	"reforger-battlelog/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	database.Module,
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(repository.NewParticipationRepository),
	fx.Provide(repository.NewKillEventRepository),
	fx.Provide(repository.NewItemStatsRepository),
	fx.Provide(repository.NewAchievementRepository),
	fx.Provide(repository.NewLeaderboardRepository),
	fx.Provide(repository.NewCatalogRepository),
	// svc
	fx.Provide(service.NewAchievementService),
	fx.Provide(service.NewSessionService),
	fx.Provide(service.NewRecorderService),
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(service.NewDemoService),
	// server
	fx.Provide(server.NewBattlelogServer),
)
