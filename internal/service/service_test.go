package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"reforger-battlelog/internal/config"
	"reforger-battlelog/internal/database"
	"reforger-battlelog/internal/domain"
	"reforger-battlelog/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db             *sql.DB
	players        *repository.PlayerRepository
	sessions       *repository.SessionRepository
	participations *repository.ParticipationRepository
	killEvents     *repository.KillEventRepository
	itemStats      *repository.ItemStatsRepository
	achievements   *repository.AchievementRepository
	leaderboards   *repository.LeaderboardRepository
	catalog        *repository.CatalogRepository

	achievementSvc *AchievementService
	sessionSvc     *SessionService
	recorder       *RecorderService
	leaderboard    *LeaderboardService
	stats          *StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zerolog.Nop()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:             db,
		players:        repository.NewPlayerRepository(db, log),
		sessions:       repository.NewSessionRepository(db, log),
		participations: repository.NewParticipationRepository(db, log),
		killEvents:     repository.NewKillEventRepository(db, log),
		itemStats:      repository.NewItemStatsRepository(db, log),
		achievements:   repository.NewAchievementRepository(db, log),
		leaderboards:   repository.NewLeaderboardRepository(db, log),
		catalog:        repository.NewCatalogRepository(db, log),
	}
	env.achievementSvc = NewAchievementService(env.achievements, env.players, log)
	env.sessionSvc = NewSessionService(env.sessions, env.participations, env.players, env.catalog, env.achievementSvc, log)
	env.recorder = NewRecorderService(env.sessions, env.participations, env.players, env.killEvents, env.itemStats, env.catalog, env.sessionSvc, env.achievementSvc, log)
	env.leaderboard = NewLeaderboardService(env.players, env.leaderboards, log)
	env.stats = NewStatsService(env.players, env.sessions, env.participations, env.killEvents, env.itemStats, env.achievements, env.catalog, log)
	return env
}

func (env *testEnv) startSession(t *testing.T) *domain.Session {
	t.Helper()
	session, err := env.sessionSvc.Start(context.Background(), StartSessionInput{
		ServerID: "test-server",
		GameMode: "Conflict",
	})
	require.NoError(t, err)
	return session
}

func (env *testEnv) connect(t *testing.T, sessionID int64, platformID, name, faction string) *domain.Participation {
	t.Helper()
	pt, err := env.sessionSvc.Connect(context.Background(), sessionID, platformID, name, "steam", faction)
	require.NoError(t, err)
	return pt
}

func (env *testEnv) setLifetimeKills(t *testing.T, playerID int64, kills int) {
	t.Helper()
	_, err := env.db.Exec(`UPDATE players SET total_kills = ?, games_played = 1 WHERE id = ?`, kills, playerID)
	require.NoError(t, err)
}
