package service

import (
	"context"

	"smartturf/internal/database"
	"smartturf/internal/domain"
	"smartturf/internal/events"
	"smartturf/internal/models"

	"github.com/rs/zerolog"
)

// MatchService owns the roster: match creation with organizer auto-join and
// capacity-guarded joins.
type MatchService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewMatchService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *MatchService {
	return &MatchService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateMatch validates and persists a match; the organizer becomes the first
// participant in the same transaction. A 1-player match comes back full.
func (s *MatchService) CreateMatch(ctx context.Context, match *models.Match) error {
	if match.PlayersNeeded < 1 {
		return database.ErrInvalidPlayersNeeded
	}
	if match.MatchTime.IsZero() {
		return database.ErrInvalidMatchTime
	}

	if err := s.repo.CreateMatch(ctx, match); err != nil {
		return err
	}

	s.publishMatchEvent(events.EventMatchCreated, match, match.OrganizerID)
	if match.Status == models.MatchStatusFull {
		s.publishMatchEvent(events.EventMatchFull, match, match.OrganizerID)
	}
	return nil
}

// JoinMatch admits one participant; duplicates and over-capacity joins are
// rejected by the repository transaction.
func (s *MatchService) JoinMatch(ctx context.Context, matchID, userID int64) error {
	if err := s.repo.JoinMatch(ctx, matchID, userID); err != nil {
		return err
	}

	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		// The join committed; a failed read-back only costs the events.
		s.logger.Warn().Err(err).Int64("match_id", matchID).Msg("read back joined match")
		return nil
	}

	s.publishMatchEvent(events.EventMatchJoined, match, userID)
	if match.Status == models.MatchStatusFull {
		s.publishMatchEvent(events.EventMatchFull, match, userID)
	}
	return nil
}

func (s *MatchService) GetOpenMatches(ctx context.Context) ([]*models.MatchView, error) {
	return s.repo.GetOpenMatches(ctx)
}

func (s *MatchService) GetMatch(ctx context.Context, id int64) (*models.Match, error) {
	return s.repo.GetMatch(ctx, id)
}

func (s *MatchService) CountParticipants(ctx context.Context, matchID int64) (int64, error) {
	return s.repo.CountParticipants(ctx, matchID)
}

func (s *MatchService) publishMatchEvent(eventType string, match *models.Match, userID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.MatchEventPayload{
		MatchID:       match.ID,
		UserID:        userID,
		TurfID:        match.TurfID,
		Sport:         match.Sport,
		MatchTime:     match.MatchTime,
		PlayersNeeded: match.PlayersNeeded,
		Status:        match.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("match_id", match.ID).Msg("publish event error")
	}
}
