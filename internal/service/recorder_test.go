package service

import (
	"context"
	"testing"

	"reforger-battlelog/internal/domain"
	"reforger-battlelog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreForKill(t *testing.T) {
	tests := []struct {
		name     string
		headshot bool
		distance float64
		want     int
	}{
		{"close range body shot", false, 50, 100},
		{"close range headshot", true, 50, 125},
		{"long range body shot", false, 250, 125},
		{"extreme range headshot stacks every bonus", true, 600, 200},
		{"exactly at long range threshold earns no bonus", false, 200, 100},
		{"exactly at extreme range threshold earns only long bonus", false, 500, 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreForKill(tt.headshot, tt.distance))
		})
	}
}

func TestRecordKillFanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session := env.startSession(t)
	env.connect(t, session.ID, "killer-1", "Killer", "us")
	env.connect(t, session.ID, "victim-1", "Victim", "ussr")

	ev, err := env.recorder.RecordKill(ctx, session.ID, KillInput{
		KillerPlatformID: "killer-1",
		KillerName:       "Killer",
		VictimPlatformID: "victim-1",
		VictimName:       "Victim",
		Platform:         "steam",
		WeaponID:         "M16A2",
		Distance:         600,
		IsHeadshot:       true,
		KillerFaction:    "us",
		VictimFaction:    "ussr",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.IsSuicide)
	require.NotNil(t, ev.WeaponID)

	killer, err := env.players.GetByPlatformID(ctx, "killer-1")
	require.NoError(t, err)
	victim, err := env.players.GetByPlatformID(ctx, "victim-1")
	require.NoError(t, err)

	killerPt, err := env.participations.Get(ctx, session.ID, killer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, killerPt.Kills)
	assert.Equal(t, 1, killerPt.Headshots)
	assert.Equal(t, 600.0, killerPt.LongestKill)
	assert.Equal(t, 200, killerPt.Score)

	victimPt, err := env.participations.Get(ctx, session.ID, victim.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, victimPt.Deaths)
	assert.Zero(t, victimPt.Kills)

	updated, err := env.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalKills)

	weapons, err := env.itemStats.ListWeaponStats(ctx, killer.ID)
	require.NoError(t, err)
	require.Len(t, weapons, 1)
	assert.Equal(t, "M16A2", weapons[0].WeaponName)
	assert.Equal(t, 1, weapons[0].Kills)
	assert.Equal(t, 1, weapons[0].Headshots)
}

func TestRecordKillSuicideInference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session := env.startSession(t)
	env.connect(t, session.ID, "solo-1", "Solo", "us")

	// no killer at all
	ev, err := env.recorder.RecordKill(ctx, session.ID, KillInput{
		VictimPlatformID: "solo-1",
		VictimName:       "Solo",
	})
	require.NoError(t, err)
	assert.True(t, ev.IsSuicide)
	assert.Nil(t, ev.KillerID)

	// killer equals victim
	ev, err = env.recorder.RecordKill(ctx, session.ID, KillInput{
		KillerPlatformID: "solo-1",
		VictimPlatformID: "solo-1",
		VictimName:       "Solo",
	})
	require.NoError(t, err)
	assert.True(t, ev.IsSuicide)

	player, err := env.players.GetByPlatformID(ctx, "solo-1")
	require.NoError(t, err)
	pt, err := env.participations.Get(ctx, session.ID, player.ID)
	require.NoError(t, err)
	assert.Zero(t, pt.Kills)
	assert.Zero(t, pt.Score)
	assert.Equal(t, 2, pt.Deaths)
}

func TestRecordKillUnknownVictimRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session := env.startSession(t)

	_, err := env.recorder.RecordKill(ctx, session.ID, KillInput{
		VictimPlatformID: "never-connected",
		VictimName:       "Ghost",
		Platform:         "steam",
	})
	assert.ErrorIs(t, err, ErrNotFound)

	// the rejected event must not have minted a player row
	_, err = env.players.GetByPlatformID(ctx, "never-connected")
	assert.True(t, repository.IsNotFound(err))
}

func TestRecordKillUnknownKillerBecomesKillerless(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session := env.startSession(t)
	env.connect(t, session.ID, "known-victim", "Victim", "ussr")

	ev, err := env.recorder.RecordKill(ctx, session.ID, KillInput{
		KillerPlatformID: "drifter-99",
		KillerName:       "Drifter",
		VictimPlatformID: "known-victim",
		VictimName:       "Victim",
		Platform:         "steam",
	})
	require.NoError(t, err)
	assert.Nil(t, ev.KillerID)
	assert.True(t, ev.IsSuicide)

	_, err = env.players.GetByPlatformID(ctx, "drifter-99")
	assert.True(t, repository.IsNotFound(err))
}

func TestRecordKillSuicideEvaluatesKillAchievements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session := env.startSession(t)
	pt := env.connect(t, session.ID, "grief-1", "Griefer", "us")
	def := env.insertAchievement(t, "test_first_blood", domain.MetricKills, 1)
	env.setLifetimeKills(t, pt.PlayerID, 1)

	_, err := env.recorder.RecordKill(ctx, session.ID, KillInput{
		KillerPlatformID: "grief-1",
		VictimPlatformID: "grief-1",
		VictimName:       "Griefer",
	})
	require.NoError(t, err)

	progress, err := env.achievements.GetProgress(ctx, pt.PlayerID, def.ID)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.True(t, progress.IsUnlocked)
}

func TestRecordKillTeamkillScoresNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session := env.startSession(t)
	env.connect(t, session.ID, "tk-1", "Shooter", "us")
	env.connect(t, session.ID, "tk-2", "Buddy", "us")

	_, err := env.recorder.RecordKill(ctx, session.ID, KillInput{
		KillerPlatformID: "tk-1",
		VictimPlatformID: "tk-2",
		VictimName:       "Buddy",
		IsTeamkill:       true,
		Distance:         10,
	})
	require.NoError(t, err)

	shooter, err := env.players.GetByPlatformID(ctx, "tk-1")
	require.NoError(t, err)
	pt, err := env.participations.Get(ctx, session.ID, shooter.ID)
	require.NoError(t, err)
	assert.Zero(t, pt.Kills)
	assert.Zero(t, pt.Score)
}

func TestRecordKillUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.recorder.RecordKill(context.Background(), 9999, KillInput{
		VictimPlatformID: "victim-1",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordKillRequiresVictim(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t)

	_, err := env.recorder.RecordKill(context.Background(), session.ID, KillInput{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordBatchPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t)

	events := []BatchEvent{
		{Type: "objective"},
		{Type: "warp_drive"},
		{Type: "capture"},
	}
	result := env.recorder.RecordBatch(context.Background(), session.ID, events)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "warp_drive")
}

func TestRecordBatchMixedEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.startSession(t)

	events := []BatchEvent{
		{Type: "connect", Data: []byte(`{"platform_id":"b-1","player_name":"Alpha","platform":"steam","faction":"us"}`)},
		{Type: "connect", Data: []byte(`{"platform_id":"b-2","player_name":"Bravo","platform":"steam","faction":"ussr"}`)},
		{Type: "kill", Data: []byte(`{"killer_id":"b-1","victim_id":"b-2","victim_name":"Bravo","distance":300,"is_headshot":true}`)},
		{Type: "disconnect", Data: []byte(`{"platform_id":"b-2","stats":{"assists":3}}`)},
	}
	result := env.recorder.RecordBatch(ctx, session.ID, events)

	assert.Equal(t, 4, result.Processed)
	assert.Empty(t, result.Errors)

	alpha, err := env.players.GetByPlatformID(ctx, "b-1")
	require.NoError(t, err)
	pt, err := env.participations.Get(ctx, session.ID, alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pt.Kills)
	assert.Equal(t, 150, pt.Score)

	bravo, err := env.players.GetByPlatformID(ctx, "b-2")
	require.NoError(t, err)
	bravoPt, err := env.participations.Get(ctx, session.ID, bravo.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, bravoPt.Assists)
	assert.NotNil(t, bravoPt.LeftAt)
}
