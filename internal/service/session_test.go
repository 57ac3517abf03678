package service

import (
	"context"
	"encoding/json"
	"testing"

	"reforger-battlelog/internal/domain"
	"reforger-battlelog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSessionResolvesMap(t *testing.T) {
	env := newTestEnv(t)

	session, err := env.sessionSvc.Start(context.Background(), StartSessionInput{
		ServerID:      "srv-1",
		MapInternalID: "everon",
		GameMode:      "Conflict",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, session.Status)
	require.NotNil(t, session.MapID)

	unknown, err := env.sessionSvc.Start(context.Background(), StartSessionInput{
		ServerID:      "srv-2",
		MapInternalID: "atlantis",
	})
	require.NoError(t, err)
	assert.Nil(t, unknown.MapID)
}

func TestStartSessionRequiresServerID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessionSvc.Start(context.Background(), StartSessionInput{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConnectIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.startSession(t)

	first := env.connect(t, session.ID, "p-1", "Alpha", "us")
	second := env.connect(t, session.ID, "p-1", "Alpha", "us")
	assert.Equal(t, first.ID, second.ID)

	updated, err := env.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalPlayers)
	assert.Equal(t, 1, updated.MaxPlayers)
}

func TestConnectRejectsEndedSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.startSession(t)

	_, err := env.sessionSvc.End(ctx, session.ID, 100, 50, "us")
	require.NoError(t, err)

	_, err = env.sessionSvc.Connect(ctx, session.ID, "late-1", "Latecomer", "steam", "us")
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestDisconnectWhitelist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.startSession(t)
	env.connect(t, session.ID, "p-1", "Alpha", "us")

	// score is not part of the accepted stats shape and must not leak
	// through the wire payload
	var stats DisconnectStatsInput
	require.NoError(t, json.Unmarshal([]byte(`{"score":999999,"kills":5,"longest_kill":123.5}`), &stats))

	require.NoError(t, env.sessionSvc.Disconnect(ctx, session.ID, "p-1", stats.ToStats()))

	player, err := env.players.GetByPlatformID(ctx, "p-1")
	require.NoError(t, err)
	pt, err := env.participations.Get(ctx, session.ID, player.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, pt.Kills)
	assert.Equal(t, 123.5, pt.LongestKill)
	assert.Zero(t, pt.Score)
	assert.NotNil(t, pt.LeftAt)
}

func TestDisconnectFoldsIntoLifetimeTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.startSession(t)
	env.connect(t, session.ID, "p-1", "Alpha", "us")
	env.connect(t, session.ID, "p-2", "Bravo", "ussr")

	_, err := env.recorder.RecordKill(ctx, session.ID, KillInput{
		KillerPlatformID: "p-1",
		VictimPlatformID: "p-2",
		VictimName:       "Bravo",
		Distance:         300,
		IsHeadshot:       true,
	})
	require.NoError(t, err)

	require.NoError(t, env.sessionSvc.Disconnect(ctx, session.ID, "p-1", repository.DisconnectStats{}))

	player, err := env.players.GetByPlatformID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 1, player.TotalKills)
	assert.Equal(t, 1, player.TotalHeadshots)
	assert.Equal(t, 150, player.TotalScore)
	assert.Equal(t, 300.0, player.LongestKill)
	assert.Equal(t, 1, player.GamesPlayed)

	// repeated disconnect must not fold twice
	require.NoError(t, env.sessionSvc.Disconnect(ctx, session.ID, "p-1", repository.DisconnectStats{}))
	player, err = env.players.GetByPlatformID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 1, player.TotalKills)
	assert.Equal(t, 1, player.GamesPlayed)
}

func TestDisconnectUnknownPlayerIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t)

	assert.NoError(t, env.sessionSvc.Disconnect(context.Background(), session.ID, "ghost", repository.DisconnectStats{}))
}

func TestEndSessionResolvesWinnersAndMVP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.startSession(t)

	env.connect(t, session.ID, "p-1", "Alpha", "us")
	env.connect(t, session.ID, "p-2", "Bravo", "us")
	env.connect(t, session.ID, "p-3", "Charlie", "ussr")

	// Alpha and Bravo tie on score; the earlier participation wins MVP
	for _, platformID := range []string{"p-1", "p-2"} {
		_, err := env.recorder.RecordKill(ctx, session.ID, KillInput{
			KillerPlatformID: platformID,
			VictimPlatformID: "p-3",
			VictimName:       "Charlie",
			Distance:         10,
		})
		require.NoError(t, err)
	}

	ended, err := env.sessionSvc.End(ctx, session.ID, 800, 200, "us")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionEnded, ended.Status)
	assert.Equal(t, "us", ended.WinnerFaction)

	participations, err := env.participations.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, participations, 3)

	var mvps int
	for _, pt := range participations {
		require.NotNil(t, pt.IsWinner)
		assert.Equal(t, pt.Faction == "us", *pt.IsWinner)
		if pt.IsMVP {
			mvps++
			assert.Equal(t, "us", pt.Faction)
		}
	}
	assert.Equal(t, 1, mvps)
	assert.True(t, participations[0].IsMVP, "tie goes to the first participation")

	alpha, err := env.players.GetByPlatformID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 1, alpha.Wins)
	assert.Zero(t, alpha.Losses)

	charlie, err := env.players.GetByPlatformID(ctx, "p-3")
	require.NoError(t, err)
	assert.Equal(t, 1, charlie.Losses)
}

func TestEndSessionIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.startSession(t)

	_, err := env.sessionSvc.End(ctx, session.ID, 1, 0, "us")
	require.NoError(t, err)

	_, err = env.sessionSvc.End(ctx, session.ID, 0, 1, "ussr")
	assert.ErrorIs(t, err, ErrSessionNotActive)

	session, err = env.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "us", session.WinnerFaction)
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.startSession(t)

	assert.NoError(t, env.sessionSvc.Heartbeat(ctx, session.ID))
	assert.ErrorIs(t, env.sessionSvc.Heartbeat(ctx, 9999), ErrNotFound)

	_, err := env.sessionSvc.End(ctx, session.ID, 0, 0, "draw")
	require.NoError(t, err)
	assert.ErrorIs(t, env.sessionSvc.Heartbeat(ctx, session.ID), ErrSessionNotActive)
}
