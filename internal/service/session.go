package service

import (
	"context"
	"fmt"
	"time"

	"reforger-battlelog/internal/constants"
	"reforger-battlelog/internal/domain"
	"reforger-battlelog/internal/metrics"
	"reforger-battlelog/internal/repository"

	"github.com/rs/zerolog"
)

type SessionService struct {
	sessions       *repository.SessionRepository
	participations *repository.ParticipationRepository
	players        *repository.PlayerRepository
	catalog        *repository.CatalogRepository
	achievements   *AchievementService
	logger         zerolog.Logger
}

func NewSessionService(
	sessions *repository.SessionRepository,
	participations *repository.ParticipationRepository,
	players *repository.PlayerRepository,
	catalog *repository.CatalogRepository,
	achievements *AchievementService,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:       sessions,
		participations: participations,
		players:        players,
		catalog:        catalog,
		achievements:   achievements,
		logger:         logger,
	}
}

type StartSessionInput struct {
	ServerID      string
	ServerName    string
	MapInternalID string
	ScenarioID    string
	GameMode      string
}

func (s *SessionService) Start(ctx context.Context, in StartSessionInput) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if in.ServerID == "" {
		return nil, fmt.Errorf("%w: server_id is required", ErrValidation)
	}

	session := &domain.Session{
		ServerID:   in.ServerID,
		ServerName: in.ServerName,
		ScenarioID: in.ScenarioID,
		GameMode:   in.GameMode,
		StartedAt:  time.Now(),
		Status:     domain.SessionActive,
	}

	if in.MapInternalID != "" {
		m, err := s.catalog.MapByInternalID(ctx, in.MapInternalID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve map: %w", err)
		}
		if m != nil {
			session.MapID = &m.ID
		}
	}

	session, err := s.sessions.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	metrics.SessionsStarted.Inc()
	s.logger.Info().
		Int64("sessionId", session.ID).
		Str("serverId", session.ServerID).
		Msg("session started")
	return session, nil
}

// End closes an active session, resolves win and loss for every
// participation, and marks the highest-scoring participation as MVP.
// Score ties go to the participation created first.
func (s *SessionService) End(ctx context.Context, sessionID int64, usScore, ussrScore int, winnerFaction string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.IsActive() {
		return nil, ErrSessionNotActive
	}

	endedAt := time.Now()
	if err := s.sessions.End(ctx, sessionID, usScore, ussrScore, winnerFaction, endedAt); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}

	participations, err := s.participations.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}

	var mvpID int64
	var mvpScore = -1
	for i := range participations {
		pt := &participations[i]

		won := pt.Faction == winnerFaction
		if err := s.participations.SetWinner(ctx, pt.ID, won); err != nil {
			s.logger.Error().Err(err).Int64("participationId", pt.ID).Msg("failed to set winner flag")
			continue
		}
		if err := s.players.AddWinLoss(ctx, pt.PlayerID, won); err != nil {
			s.logger.Error().Err(err).Int64("playerId", pt.PlayerID).Msg("failed to record win/loss")
		}

		if pt.Score > mvpScore {
			mvpScore = pt.Score
			mvpID = pt.ID
		}
	}

	if mvpID != 0 {
		if err := s.participations.SetMVP(ctx, mvpID); err != nil {
			s.logger.Error().Err(err).Int64("participationId", mvpID).Msg("failed to set mvp")
		}
	}

	metrics.SessionsEnded.Inc()
	s.logger.Info().
		Int64("sessionId", sessionID).
		Str("winner", winnerFaction).
		Int("participants", len(participations)).
		Msg("session ended")

	return s.sessions.Get(ctx, sessionID)
}

// Connect registers a player into a session. Reconnecting with the
// same platform id returns the existing participation unchanged and
// does not bump the session player counters.
func (s *SessionService) Connect(ctx context.Context, sessionID int64, platformID, name, platform, faction string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if platformID == "" {
		return nil, fmt.Errorf("%w: platform_id is required", ErrValidation)
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.IsActive() {
		return nil, ErrSessionNotActive
	}

	player, err := s.players.GetOrCreate(ctx, platformID, name, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve player: %w", err)
	}

	existing, err := s.participations.Get(ctx, sessionID, player.ID)
	if err == nil {
		return existing, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}

	pt, err := s.participations.Create(ctx, sessionID, player.ID, faction)
	if err != nil {
		return nil, fmt.Errorf("failed to create participation: %w", err)
	}
	if err := s.sessions.AddPlayer(ctx, sessionID); err != nil {
		s.logger.Error().Err(err).Int64("sessionId", sessionID).Msg("failed to bump session player count")
	}

	s.logger.Info().
		Int64("sessionId", sessionID).
		Int64("playerId", player.ID).
		Str("faction", faction).
		Msg("player connected")
	return pt, nil
}

// Disconnect closes a participation and folds its final counters into
// the player's lifetime totals. Only the server-reported numeric
// fields in DisconnectStats are accepted; score, winner and MVP flags
// stay server-computed. Unknown players and already-closed
// participations are a no-op.
func (s *SessionService) Disconnect(ctx context.Context, sessionID int64, platformID string, stats repository.DisconnectStats) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	player, err := s.players.GetByPlatformID(ctx, platformID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to resolve player: %w", err)
	}

	pt, err := s.participations.Get(ctx, sessionID, player.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to load participation: %w", err)
	}
	if pt.LeftAt != nil {
		return nil
	}

	if err := s.participations.Disconnect(ctx, sessionID, player.ID, time.Now(), stats); err != nil {
		return fmt.Errorf("failed to close participation: %w", err)
	}

	pt, err = s.participations.Get(ctx, sessionID, player.ID)
	if err != nil {
		return fmt.Errorf("failed to reload participation: %w", err)
	}

	if err := s.players.FoldParticipation(ctx, player.ID, pt, pt.Duration()); err != nil {
		return fmt.Errorf("failed to fold participation into player totals: %w", err)
	}

	if _, err := s.achievements.EvaluateAll(ctx, player.ID); err != nil {
		s.logger.Error().Err(err).Int64("playerId", player.ID).Msg("achievement evaluation failed on disconnect")
	}

	s.logger.Info().
		Int64("sessionId", sessionID).
		Int64("playerId", player.ID).
		Msg("player disconnected")
	return nil
}

// Heartbeat confirms a session is still known and active.
func (s *SessionService) Heartbeat(ctx context.Context, sessionID int64) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load session: %w", err)
	}
	if !session.IsActive() {
		return ErrSessionNotActive
	}
	return nil
}
