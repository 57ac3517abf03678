package service

import (
	"context"
	"testing"

	"reforger-battlelog/internal/config"
	"reforger-battlelog/internal/constants"
	"reforger-battlelog/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDemoService(env *testEnv, enabled bool) *DemoService {
	cfg := &config.Config{DemoMode: enabled}
	return NewDemoService(cfg, env.players, env.catalog, env.itemStats, env.sessionSvc, env.recorder, env.leaderboard, zerolog.Nop())
}

func TestDemoDisabled(t *testing.T) {
	env := newTestEnv(t)
	demo := newDemoService(env, false)

	_, err := demo.GeneratePlayers(context.Background(), 5)
	assert.ErrorIs(t, err, ErrDemoDisabled)

	_, err = demo.GenerateSessions(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrDemoDisabled)
}

func TestGeneratePlayersClampsCount(t *testing.T) {
	env := newTestEnv(t)
	demo := newDemoService(env, true)
	ctx := context.Background()

	players, err := demo.GeneratePlayers(ctx, 5000)
	require.NoError(t, err)
	assert.Len(t, players, constants.DemoMaxPlayersPerCall)

	for _, p := range players {
		assert.NotEmpty(t, p.Name)
		assert.Contains(t, p.PlatformID, "demo_")
	}

	// population cap: repeated calls stop at the total limit
	for i := 0; i < 5; i++ {
		_, err := demo.GeneratePlayers(ctx, 5000)
		require.NoError(t, err)
	}
	total, err := env.players.Count(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, total, constants.DemoMaxPlayers)
}

func TestGenerateSessionsSimulatesFullMatches(t *testing.T) {
	env := newTestEnv(t)
	demo := newDemoService(env, true)
	ctx := context.Background()

	sessions, err := demo.GenerateSessions(ctx, 2, 8)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	for _, session := range sessions {
		assert.Equal(t, domain.SessionEnded, session.Status)
		assert.NotEmpty(t, session.WinnerFaction)
		assert.Equal(t, 8, session.TotalPlayers)
		assert.Greater(t, session.TotalKills, 0)
	}

	// the generated data is already ranked
	page, err := env.leaderboard.Page(ctx, domain.CategoryKills, domain.PeriodAllTime, 10, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, page.Entries)
}

func TestGenerateSessionsSynthesizeUsage(t *testing.T) {
	env := newTestEnv(t)
	demo := newDemoService(env, true)
	ctx := context.Background()

	_, err := demo.GenerateSessions(ctx, 2, 8)
	require.NoError(t, err)

	roster, err := env.players.ListWithGames(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, roster)

	var sawShots, sawVehicleTime bool
	for _, p := range roster {
		weapons, err := env.itemStats.ListWeaponStats(ctx, p.ID)
		require.NoError(t, err)
		for _, ws := range weapons {
			if ws.ShotsFired > 0 {
				sawShots = true
				assert.LessOrEqual(t, ws.ShotsHit, ws.ShotsFired)
				assert.Greater(t, ws.ShotsHit, 0)
			}
		}
		vehicles, err := env.itemStats.ListVehicleStats(ctx, p.ID)
		require.NoError(t, err)
		for _, vs := range vehicles {
			if vs.TimeUsed > 0 {
				sawVehicleTime = true
				assert.Greater(t, vs.DistanceTraveled, 0.0)
			}
		}
	}
	assert.True(t, sawShots, "expected synthesized weapon shots")
	assert.True(t, sawVehicleTime, "expected synthesized vehicle time")
}

func TestGenerateSessionsClampsCaps(t *testing.T) {
	env := newTestEnv(t)
	demo := newDemoService(env, true)

	sessions, err := demo.GenerateSessions(context.Background(), 500, 2)
	require.NoError(t, err)
	assert.Len(t, sessions, constants.DemoMaxSessions)
}
