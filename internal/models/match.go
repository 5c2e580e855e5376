package models

import "time"

type Match struct {
	ID                    int64     `json:"id"`
	OrganizerID           int64     `json:"organizer_id"`
	TurfID                int64     `json:"turf_id"`
	Sport                 string    `json:"sport"`
	MatchTime             time.Time `json:"match_time"`
	PlayersNeeded         int64     `json:"players_needed"`
	ContributionPerPerson float64   `json:"contribution_per_person"`
	Status                string    `json:"status"` // open, full, cancelled
	CreatedAt             time.Time `json:"created_at"`
}

type MatchParticipant struct {
	ID       int64     `json:"id"`
	MatchID  int64     `json:"match_id"`
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// MatchView is a match joined with its turf and a live participant count.
type MatchView struct {
	ID                    int64     `json:"id"`
	Sport                 string    `json:"sport"`
	MatchTime             time.Time `json:"match_time"`
	PlayersNeeded         int64     `json:"players_needed"`
	ContributionPerPerson float64   `json:"contribution_per_person"`
	Status                string    `json:"status"`
	TurfName              string    `json:"turf_name"`
	CurrentPlayers        int64     `json:"current_players"`
}
