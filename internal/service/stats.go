package service

import (
	"context"
	"fmt"
	"time"

	"reforger-battlelog/internal/constants"
	"reforger-battlelog/internal/domain"
	"reforger-battlelog/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StatsService builds the read-side projections: global snapshot,
// player detail, battle report. Read-only, no fan-out.
type StatsService struct {
	players        *repository.PlayerRepository
	sessions       *repository.SessionRepository
	participations *repository.ParticipationRepository
	killEvents     *repository.KillEventRepository
	itemStats      *repository.ItemStatsRepository
	achievements   *repository.AchievementRepository
	catalog        *repository.CatalogRepository
	logger         zerolog.Logger
}

func NewStatsService(
	players *repository.PlayerRepository,
	sessions *repository.SessionRepository,
	participations *repository.ParticipationRepository,
	killEvents *repository.KillEventRepository,
	itemStats *repository.ItemStatsRepository,
	achievements *repository.AchievementRepository,
	catalog *repository.CatalogRepository,
	logger zerolog.Logger,
) *StatsService {
	return &StatsService{
		players:        players,
		sessions:       sessions,
		participations: participations,
		killEvents:     killEvents,
		itemStats:      itemStats,
		achievements:   achievements,
		catalog:        catalog,
		logger:         logger,
	}
}

type GlobalStats struct {
	TotalPlayers   int   `json:"total_players"`
	TotalKills     int64 `json:"total_kills"`
	TotalPlaytime  int64 `json:"total_playtime"`
	SessionsPlayed int   `json:"sessions_played"`
	ActiveSessions int   `json:"active_sessions"`
}

func (s *StatsService) Global(ctx context.Context) (*GlobalStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var out GlobalStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.TotalPlayers, err = s.players.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalKills, err = s.players.SumColumn(gctx, "total_kills")
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalPlaytime, err = s.players.SumColumn(gctx, "total_playtime")
		return err
	})
	g.Go(func() error {
		var err error
		out.SessionsPlayed, err = s.sessions.CountEnded(gctx)
		return err
	})
	g.Go(func() error {
		active, err := s.sessions.ListActive(gctx)
		if err != nil {
			return err
		}
		out.ActiveSessions = len(active)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build global stats: %w", err)
	}
	return &out, nil
}

type RivalrySummary struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Times    int    `json:"times"`
}

type PlayerDetail struct {
	Player          *domain.Player                    `json:"player"`
	KDRatio         float64                           `json:"kd_ratio"`
	Accuracy        float64                           `json:"accuracy"`
	HeadshotPercent float64                           `json:"headshot_percent"`
	WinRate         float64                           `json:"win_rate"`
	ScorePerMinute  float64                           `json:"score_per_minute"`
	Weapons         []repository.NamedWeaponStat      `json:"weapons"`
	Vehicles        []repository.NamedVehicleStat     `json:"vehicles"`
	RecentSessions  []domain.Participation            `json:"recent_sessions"`
	Achievements    []repository.PlayerAchievementRow `json:"achievements"`
	AchievementSum  *repository.UnlockStats           `json:"achievement_summary"`
	Nemesis         *RivalrySummary                   `json:"nemesis"`
	FavoriteVictim  *RivalrySummary                   `json:"favorite_victim"`
}

// PlayerByPlatformID builds the full player projection: lifetime
// counters with derived ratios, weapon and vehicle breakdowns, recent
// sessions, achievement state and rivalries.
func (s *StatsService) PlayerByPlatformID(ctx context.Context, platformID string) (*PlayerDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	player, err := s.players.GetByPlatformID(ctx, platformID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	detail := &PlayerDetail{
		Player:          player,
		KDRatio:         player.KDRatio(),
		Accuracy:        player.Accuracy(),
		HeadshotPercent: player.HeadshotPercent(),
		WinRate:         player.WinRate(),
		ScorePerMinute:  player.ScorePerMinute(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail.Weapons, err = s.itemStats.ListWeaponStats(gctx, player.ID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Vehicles, err = s.itemStats.ListVehicleStats(gctx, player.ID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.RecentSessions, err = s.participations.ListByPlayer(gctx, player.ID, constants.PlayerSessionsLimit)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Achievements, err = s.achievements.ListForPlayer(gctx, player.ID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.AchievementSum, err = s.achievements.StatsForPlayer(gctx, player.ID)
		return err
	})
	g.Go(func() error {
		rival, err := s.killEvents.Nemesis(gctx, player.ID)
		if err != nil {
			return err
		}
		if rival != nil {
			detail.Nemesis = &RivalrySummary{PlayerID: rival.PlayerID, Name: rival.Name, Times: rival.Times}
		}
		return nil
	})
	g.Go(func() error {
		rival, err := s.killEvents.FavoriteVictim(gctx, player.ID)
		if err != nil {
			return err
		}
		if rival != nil {
			detail.FavoriteVictim = &RivalrySummary{PlayerID: rival.PlayerID, Name: rival.Name, Times: rival.Times}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build player detail: %w", err)
	}
	return detail, nil
}

type ScoreboardEntry struct {
	PlayerID   int64   `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Faction    string  `json:"faction"`
	Kills      int     `json:"kills"`
	Deaths     int     `json:"deaths"`
	KDRatio    float64 `json:"kd_ratio"`
	Score      int     `json:"score"`
	Headshots  int     `json:"headshots"`
	IsWinner   *bool   `json:"is_winner"`
	IsMVP      bool    `json:"is_mvp"`
}

type TimelineEntry struct {
	KillerName string    `json:"killer_name"`
	VictimName string    `json:"victim_name"`
	WeaponName string    `json:"weapon_name"`
	Distance   float64   `json:"distance"`
	IsHeadshot bool      `json:"is_headshot"`
	IsTeamkill bool      `json:"is_teamkill"`
	IsSuicide  bool      `json:"is_suicide"`
	Timestamp  time.Time `json:"timestamp"`
}

type BattleReport struct {
	Session    *domain.Session              `json:"session"`
	MapName    string                       `json:"map_name"`
	Factions   map[string][]ScoreboardEntry `json:"factions"`
	Timeline   []TimelineEntry              `json:"timeline"`
	MVP        *ScoreboardEntry             `json:"mvp"`
	TotalKills int                          `json:"total_kills"`
}

// Report assembles the post-match view of one session: per-faction
// scoreboard, kill timeline and the MVP entry.
func (s *StatsService) Report(ctx context.Context, sessionID int64) (*BattleReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	report := &BattleReport{
		Session:  session,
		MapName:  "Unknown",
		Factions: map[string][]ScoreboardEntry{},
		Timeline: []TimelineEntry{},
	}
	// The event log is authoritative; the session counter is a running
	// total that a failed increment can leave behind.
	report.TotalKills, err = s.killEvents.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count kills: %w", err)
	}
	if session.MapID != nil {
		name, err := s.catalog.MapName(ctx, *session.MapID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve map name: %w", err)
		}
		report.MapName = name
	}

	rows, err := s.participations.Scoreboard(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoreboard: %w", err)
	}
	for i := range rows {
		entry := ScoreboardEntry{
			PlayerID:   rows[i].PlayerID,
			PlayerName: rows[i].PlayerName,
			Faction:    rows[i].Faction,
			Kills:      rows[i].Kills,
			Deaths:     rows[i].Deaths,
			KDRatio:    rows[i].KDRatio(),
			Score:      rows[i].Score,
			Headshots:  rows[i].Headshots,
			IsWinner:   rows[i].IsWinner,
			IsMVP:      rows[i].IsMVP,
		}
		report.Factions[entry.Faction] = append(report.Factions[entry.Faction], entry)
		if entry.IsMVP {
			mvp := entry
			report.MVP = &mvp
		}
	}

	timeline, err := s.killEvents.Timeline(ctx, sessionID, constants.BattleReportTimeline)
	if err != nil {
		return nil, fmt.Errorf("failed to load kill timeline: %w", err)
	}
	for i := range timeline {
		report.Timeline = append(report.Timeline, TimelineEntry{
			KillerName: timeline[i].KillerName,
			VictimName: timeline[i].VictimName,
			WeaponName: timeline[i].WeaponName,
			Distance:   timeline[i].Distance,
			IsHeadshot: timeline[i].IsHeadshot,
			IsTeamkill: timeline[i].IsTeamkill,
			IsSuicide:  timeline[i].IsSuicide,
			Timestamp:  timeline[i].Timestamp,
		})
	}

	return report, nil
}
