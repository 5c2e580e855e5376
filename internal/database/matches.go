package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartturf/internal/models"
)

// CreateMatch inserts the match row and enrolls the organizer as the first
// participant in one transaction. A match whose capacity is already met by
// the organizer alone (players_needed == 1) is created full.
func (db *DB) CreateMatch(ctx context.Context, match *models.Match) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var turfExists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM turfs WHERE id = ?`, match.TurfID).Scan(&turfExists)
	if err != nil {
		return fmt.Errorf("failed to check turf: %w", err)
	}
	if turfExists == 0 {
		return ErrTurfNotFound
	}

	status := models.MatchStatusOpen
	if match.PlayersNeeded == 1 {
		status = models.MatchStatusFull
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `INSERT INTO matches (
				organizer_id, turf_id, sport, match_time,
				players_needed, contribution_per_person, status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		match.OrganizerID,
		match.TurfID,
		match.Sport,
		slotKey(match.MatchTime),
		match.PlayersNeeded,
		match.ContributionPerPerson,
		status,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO match_participants (match_id, user_id, joined_at) VALUES (?, ?, ?)`,
		id, match.OrganizerID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to enroll organizer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match: %w", err)
	}

	match.ID = id
	match.Status = status
	match.MatchTime = match.MatchTime.UTC()
	match.CreatedAt = now
	return nil
}

// JoinMatch admits a participant under the capacity ceiling. The count check,
// the insert and the open→full transition share one transaction; the
// UNIQUE(match_id, user_id) constraint rejects duplicate joins.
func (db *DB) JoinMatch(ctx context.Context, matchID, userID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var playersNeeded int64
	var status string
	err = tx.QueryRowContext(ctx, `SELECT players_needed, status FROM matches WHERE id = ?`, matchID).
		Scan(&playersNeeded, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMatchNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}

	if status != models.MatchStatusOpen {
		return ErrMatchFull
	}

	var count int64
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_participants WHERE match_id = ?`, matchID).
		Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}
	if count >= playersNeeded {
		return ErrMatchFull
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO match_participants (match_id, user_id, joined_at) VALUES (?, ?, ?)`,
		matchID, userID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyJoined
		}
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	if count+1 == playersNeeded {
		if _, err := tx.ExecContext(ctx,
			`UPDATE matches SET status = ? WHERE id = ?`, models.MatchStatusFull, matchID,
		); err != nil {
			return fmt.Errorf("failed to mark match full: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit join: %w", err)
	}
	return nil
}

func (db *DB) GetMatch(ctx context.Context, id int64) (*models.Match, error) {
	var m models.Match
	var timeStr string
	query := `SELECT id, organizer_id, turf_id, sport, match_time,
	                 players_needed, contribution_per_person, status, created_at
              FROM matches WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.OrganizerID, &m.TurfID, &m.Sport, &timeStr,
		&m.PlayersNeeded, &m.ContributionPerPerson, &m.Status, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if m.MatchTime, err = time.Parse(time.RFC3339, timeStr); err != nil {
		return nil, fmt.Errorf("failed to parse match time %s: %w", timeStr, err)
	}
	return &m, nil
}

// CountParticipants returns the current roster size of a match.
func (db *DB) CountParticipants(ctx context.Context, matchID int64) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_participants WHERE match_id = ?`, matchID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// GetOpenMatches lists joinable matches with live participant counts,
// soonest first. Full and cancelled matches are excluded.
func (db *DB) GetOpenMatches(ctx context.Context) ([]*models.MatchView, error) {
	query := `SELECT m.id, m.sport, m.match_time, m.players_needed,
	                 m.contribution_per_person, m.status, t.name,
	                 COUNT(mp.id) AS current_players
              FROM matches m
              JOIN turfs t ON m.turf_id = t.id
              LEFT JOIN match_participants mp ON m.id = mp.match_id
              WHERE m.status = ?
              GROUP BY m.id, t.name
              HAVING COUNT(mp.id) < m.players_needed
              ORDER BY m.match_time ASC`
	rows, err := db.QueryContext(ctx, query, models.MatchStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to get open matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.MatchView
	for rows.Next() {
		v := &models.MatchView{}
		var timeStr string
		err := rows.Scan(
			&v.ID, &v.Sport, &timeStr, &v.PlayersNeeded,
			&v.ContributionPerPerson, &v.Status, &v.TurfName, &v.CurrentPlayers,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if v.MatchTime, err = time.Parse(time.RFC3339, timeStr); err != nil {
			return nil, fmt.Errorf("failed to parse match time %s: %w", timeStr, err)
		}
		matches = append(matches, v)
	}
	return matches, rows.Err()
}
