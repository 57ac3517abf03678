package service

import (
	"context"
	"testing"

	"reforger-battlelog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) insertAchievement(t *testing.T, code string, metric domain.Metric, value float64) *domain.Achievement {
	t.Helper()
	res, err := env.db.Exec(`
		INSERT INTO achievements (code, name, requirement_type, requirement_value)
		VALUES (?, ?, ?, ?)`, code, code, string(metric), value)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return &domain.Achievement{ID: id, Code: code, RequirementType: metric, RequirementValue: value, IsActive: true}
}

func TestEvaluateOneUnlocksExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	player, err := env.players.GetOrCreate(ctx, "ach-1", "Achiever", "steam")
	require.NoError(t, err)
	def := env.insertAchievement(t, "test_five_kills", domain.MetricKills, 5)

	// below the requirement: progress tracked, no unlock
	env.setLifetimeKills(t, player.ID, 3)
	player, err = env.players.Get(ctx, player.ID)
	require.NoError(t, err)

	unlocked, err := env.achievementSvc.EvaluateOne(ctx, player, def)
	require.NoError(t, err)
	assert.False(t, unlocked)

	progress, err := env.achievements.GetProgress(ctx, player.ID, def.ID)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 3.0, progress.Progress)
	assert.False(t, progress.IsUnlocked)

	// requirement met: unlocks on this call only
	env.setLifetimeKills(t, player.ID, 7)
	player, err = env.players.Get(ctx, player.ID)
	require.NoError(t, err)

	unlocked, err = env.achievementSvc.EvaluateOne(ctx, player, def)
	require.NoError(t, err)
	assert.True(t, unlocked)

	for i := 0; i < 3; i++ {
		unlocked, err = env.achievementSvc.EvaluateOne(ctx, player, def)
		require.NoError(t, err)
		assert.False(t, unlocked)
	}

	progress, err = env.achievements.GetProgress(ctx, player.ID, def.ID)
	require.NoError(t, err)
	assert.True(t, progress.IsUnlocked)
	assert.NotNil(t, progress.UnlockedAt)
}

func TestUnlockedProgressNeverDecrements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	player, err := env.players.GetOrCreate(ctx, "ach-2", "Achiever", "steam")
	require.NoError(t, err)
	def := env.insertAchievement(t, "test_ten_kills", domain.MetricKills, 10)

	env.setLifetimeKills(t, player.ID, 12)
	player, err = env.players.Get(ctx, player.ID)
	require.NoError(t, err)

	unlocked, err := env.achievementSvc.EvaluateOne(ctx, player, def)
	require.NoError(t, err)
	assert.True(t, unlocked)

	// lifetime counters never go down in production; even if a raw
	// write did, the unlocked row must keep its state
	env.setLifetimeKills(t, player.ID, 0)
	player, err = env.players.Get(ctx, player.ID)
	require.NoError(t, err)

	unlocked, err = env.achievementSvc.EvaluateOne(ctx, player, def)
	require.NoError(t, err)
	assert.False(t, unlocked)

	progress, err := env.achievements.GetProgress(ctx, player.ID, def.ID)
	require.NoError(t, err)
	assert.True(t, progress.IsUnlocked)
	assert.Equal(t, 12.0, progress.Progress)
}

func TestEvaluateAllReturnsNewlyUnlocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	player, err := env.players.GetOrCreate(ctx, "ach-3", "Achiever", "steam")
	require.NoError(t, err)

	// seeded catalog: first_blood (1 kill) and centurion (100 kills)
	env.setLifetimeKills(t, player.ID, 150)

	unlocked, err := env.achievementSvc.EvaluateAll(ctx, player.ID)
	require.NoError(t, err)

	codes := make(map[string]bool, len(unlocked))
	for _, a := range unlocked {
		codes[a.Code] = true
	}
	assert.True(t, codes["first_blood"])
	assert.True(t, codes["centurion"])
	assert.False(t, codes["killing_machine"])

	// a second pass unlocks nothing new
	again, err := env.achievementSvc.EvaluateAll(ctx, player.ID)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestEvaluateKillRelatedSkipsOtherMetrics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	player, err := env.players.GetOrCreate(ctx, "ach-4", "Achiever", "steam")
	require.NoError(t, err)

	killDef := env.insertAchievement(t, "test_kill_metric", domain.MetricKills, 1)
	winDef := env.insertAchievement(t, "test_win_metric", domain.MetricWins, 1)

	_, err = env.db.Exec(`UPDATE players SET total_kills = 5, wins = 5, games_played = 5 WHERE id = ?`, player.ID)
	require.NoError(t, err)

	unlocked, err := env.achievementSvc.EvaluateKillRelated(ctx, player.ID)
	require.NoError(t, err)

	codes := make(map[string]bool, len(unlocked))
	for _, a := range unlocked {
		codes[a.Code] = true
	}
	assert.True(t, codes[killDef.Code])
	assert.False(t, codes[winDef.Code], "win requirements are not on the kill path")
}
