package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reforger-battlelog/internal/constants"
	"reforger-battlelog/internal/domain"
	"reforger-battlelog/internal/metrics"
	"reforger-battlelog/internal/repository"

	"github.com/rs/zerolog"
)

// RecorderService is the kill-event ingestion path: it persists the
// immutable event, then fans the update out to the participation,
// weapon and vehicle aggregates, each as an atomic row increment.
type RecorderService struct {
	sessions       *repository.SessionRepository
	participations *repository.ParticipationRepository
	players        *repository.PlayerRepository
	killEvents     *repository.KillEventRepository
	itemStats      *repository.ItemStatsRepository
	catalog        *repository.CatalogRepository
	sessionSvc     *SessionService
	achievements   *AchievementService
	logger         zerolog.Logger
}

func NewRecorderService(
	sessions *repository.SessionRepository,
	participations *repository.ParticipationRepository,
	players *repository.PlayerRepository,
	killEvents *repository.KillEventRepository,
	itemStats *repository.ItemStatsRepository,
	catalog *repository.CatalogRepository,
	sessionSvc *SessionService,
	achievements *AchievementService,
	logger zerolog.Logger,
) *RecorderService {
	return &RecorderService{
		sessions:       sessions,
		participations: participations,
		players:        players,
		killEvents:     killEvents,
		itemStats:      itemStats,
		catalog:        catalog,
		sessionSvc:     sessionSvc,
		achievements:   achievements,
		logger:         logger,
	}
}

type KillInput struct {
	KillerPlatformID string          `json:"killer_id"`
	KillerName       string          `json:"killer_name"`
	VictimPlatformID string          `json:"victim_id"`
	VictimName       string          `json:"victim_name"`
	Platform         string          `json:"platform"`
	WeaponID         string          `json:"weapon_id"`
	VehicleID        string          `json:"vehicle_id"`
	Distance         float64         `json:"distance"`
	IsHeadshot       bool            `json:"is_headshot"`
	IsTeamkill       bool            `json:"is_teamkill"`
	IsRoadkill       bool            `json:"is_roadkill"`
	KillerPosition   json.RawMessage `json:"killer_position"`
	VictimPosition   json.RawMessage `json:"victim_position"`
	KillerFaction    string          `json:"killer_faction"`
	VictimFaction    string          `json:"victim_faction"`
}

// ScoreForKill computes the score awarded for one kill. Bonuses are
// additive: a headshot at 600 m earns the base plus all three.
func ScoreForKill(headshot bool, distance float64) int {
	score := constants.KillBaseScore
	if headshot {
		score += constants.HeadshotBonus
	}
	if distance > constants.LongRangeMeters {
		score += constants.LongRangeBonus
	}
	if distance > constants.ExtremeRangeMeters {
		score += constants.ExtremeRangeBonus
	}
	return score
}

// RecordKill ingests one kill event. Players are resolved by lookup
// only, never created here; Connect is the sole path that mints a
// player. An unknown victim rejects the event, an unknown killer
// downgrades it to killer-less. A missing killer or killer equal to
// the victim makes the event a suicide. Weapon and vehicle references
// resolve against the catalog and stay null when unmatched.
func (s *RecorderService) RecordKill(ctx context.Context, sessionID int64, in KillInput) (*domain.KillEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if in.VictimPlatformID == "" {
		return nil, fmt.Errorf("%w: victim_id is required", ErrValidation)
	}

	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	victim, err := s.players.GetByPlatformID(ctx, in.VictimPlatformID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: unknown victim %s", ErrNotFound, in.VictimPlatformID)
		}
		return nil, fmt.Errorf("failed to resolve victim: %w", err)
	}

	var killer *domain.Player
	if in.KillerPlatformID != "" {
		killer, err = s.players.GetByPlatformID(ctx, in.KillerPlatformID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, fmt.Errorf("failed to resolve killer: %w", err)
		}
	}
	suicide := killer == nil || killer.ID == victim.ID

	ev := &domain.KillEvent{
		SessionID:      sessionID,
		VictimID:       victim.ID,
		Distance:       in.Distance,
		IsHeadshot:     in.IsHeadshot,
		IsTeamkill:     in.IsTeamkill,
		IsSuicide:      suicide,
		IsRoadkill:     in.IsRoadkill,
		KillerPosition: string(in.KillerPosition),
		VictimPosition: string(in.VictimPosition),
		KillerFaction:  in.KillerFaction,
		VictimFaction:  in.VictimFaction,
		Timestamp:      time.Now(),
	}
	if killer != nil {
		ev.KillerID = &killer.ID
	}

	var weapon *domain.Weapon
	if in.WeaponID != "" {
		weapon, err = s.catalog.WeaponByInternalID(ctx, in.WeaponID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve weapon: %w", err)
		}
		if weapon != nil {
			ev.WeaponID = &weapon.ID
		}
	}
	var vehicle *domain.Vehicle
	if in.VehicleID != "" {
		vehicle, err = s.catalog.VehicleByInternalID(ctx, in.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve vehicle: %w", err)
		}
		if vehicle != nil {
			ev.VehicleID = &vehicle.ID
		}
	}

	if err := s.killEvents.Insert(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to persist kill event: %w", err)
	}
	if err := s.sessions.IncrementKills(ctx, sessionID); err != nil {
		s.logger.Error().Err(err).Int64("sessionId", sessionID).Msg("failed to bump session kill count")
	}

	if killer != nil && !suicide && !in.IsTeamkill {
		score := ScoreForKill(in.IsHeadshot, in.Distance)
		if err := s.participations.ApplyKill(ctx, sessionID, killer.ID, in.IsHeadshot, in.Distance, score); err != nil {
			s.logger.Error().Err(err).Int64("playerId", killer.ID).Msg("failed to apply kill to participation")
		}
		if weapon != nil {
			if err := s.itemStats.RecordWeaponKill(ctx, killer.ID, weapon.ID, in.IsHeadshot, in.Distance); err != nil {
				s.logger.Error().Err(err).Int64("weaponId", weapon.ID).Msg("failed to record weapon kill")
			}
		}
		if vehicle != nil {
			if err := s.itemStats.RecordVehicleKill(ctx, killer.ID, vehicle.ID, in.IsRoadkill); err != nil {
				s.logger.Error().Err(err).Int64("vehicleId", vehicle.ID).Msg("failed to record vehicle kill")
			}
		}
	}

	if err := s.participations.AddDeath(ctx, sessionID, victim.ID); err != nil {
		s.logger.Error().Err(err).Int64("playerId", victim.ID).Msg("failed to apply death to participation")
	}

	if killer != nil {
		if err := s.players.TouchLastSeen(ctx, killer.ID); err != nil {
			s.logger.Warn().Err(err).Int64("playerId", killer.ID).Msg("failed to touch last seen")
		}
		if _, err := s.achievements.EvaluateKillRelated(ctx, killer.ID); err != nil {
			s.logger.Error().Err(err).Int64("playerId", killer.ID).Msg("kill achievement evaluation failed")
		}
	}

	metrics.EventsIngested.WithLabelValues("kill").Inc()
	return ev, nil
}

type ConnectInput struct {
	PlatformID string `json:"platform_id"`
	Name       string `json:"player_name"`
	Platform   string `json:"platform"`
	Faction    string `json:"faction"`
}

type DisconnectInput struct {
	PlatformID string               `json:"platform_id"`
	Stats      DisconnectStatsInput `json:"stats"`
}

// DisconnectStatsInput is the whitelist of fields a game server may
// report at disconnect. Score, winner and MVP are absent on purpose:
// those are computed here and never accepted from the wire.
type DisconnectStatsInput struct {
	Kills              *int     `json:"kills"`
	Deaths             *int     `json:"deaths"`
	Assists            *int     `json:"assists"`
	Headshots          *int     `json:"headshots"`
	ObjectivesCaptured *int     `json:"objectives_captured"`
	ObjectivesDefended *int     `json:"objectives_defended"`
	Revives            *int     `json:"revives"`
	Heals              *int     `json:"heals"`
	VehicleKills       *int     `json:"vehicle_kills"`
	LongestKill        *float64 `json:"longest_kill"`
	BestKillstreak     *int     `json:"best_killstreak"`
}

func (in DisconnectStatsInput) ToStats() repository.DisconnectStats {
	return repository.DisconnectStats{
		Kills:              in.Kills,
		Deaths:             in.Deaths,
		Assists:            in.Assists,
		Headshots:          in.Headshots,
		ObjectivesCaptured: in.ObjectivesCaptured,
		ObjectivesDefended: in.ObjectivesDefended,
		Revives:            in.Revives,
		Heals:              in.Heals,
		VehicleKills:       in.VehicleKills,
		LongestKill:        in.LongestKill,
		BestKillstreak:     in.BestKillstreak,
	}
}

type BatchEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type BatchResult struct {
	Processed int      `json:"processed"`
	Total     int      `json:"total"`
	Errors    []string `json:"errors"`
}

// RecordBatch processes a list of typed events for one session in
// order. A failing entry is recorded into the error list and does not
// stop its siblings. Delivery is at least once: resubmitting an event
// re-applies its effects.
func (s *RecorderService) RecordBatch(ctx context.Context, sessionID int64, events []BatchEvent) *BatchResult {
	result := &BatchResult{Total: len(events), Errors: []string{}}

	for i, ev := range events {
		if err := s.processBatchEvent(ctx, sessionID, ev); err != nil {
			metrics.BatchEventErrors.Inc()
			result.Errors = append(result.Errors, fmt.Sprintf("event %d (%s): %v", i, ev.Type, err))
			continue
		}
		result.Processed++
	}

	s.logger.Info().
		Int64("sessionId", sessionID).
		Int("processed", result.Processed).
		Int("total", result.Total).
		Int("errors", len(result.Errors)).
		Msg("batch processed")
	return result
}

func (s *RecorderService) processBatchEvent(ctx context.Context, sessionID int64, ev BatchEvent) error {
	switch ev.Type {
	case "kill", "death":
		var in KillInput
		if err := json.Unmarshal(ev.Data, &in); err != nil {
			return fmt.Errorf("malformed payload: %w", err)
		}
		_, err := s.RecordKill(ctx, sessionID, in)
		return err

	case "connect", "player_connect":
		var in ConnectInput
		if err := json.Unmarshal(ev.Data, &in); err != nil {
			return fmt.Errorf("malformed payload: %w", err)
		}
		_, err := s.sessionSvc.Connect(ctx, sessionID, in.PlatformID, in.Name, in.Platform, in.Faction)
		return err

	case "disconnect", "player_disconnect":
		var in DisconnectInput
		if err := json.Unmarshal(ev.Data, &in); err != nil {
			return fmt.Errorf("malformed payload: %w", err)
		}
		return s.sessionSvc.Disconnect(ctx, sessionID, in.PlatformID, in.Stats.ToStats())

	case "spawn", "damage", "objective", "capture", "vehicle_enter", "vehicle_exit", "vehicle_destroy":
		// Accepted acknowledgements; these carry no state change yet.
		metrics.EventsIngested.WithLabelValues(ev.Type).Inc()
		return nil
	}

	return fmt.Errorf("unknown event type %q", ev.Type)
}
