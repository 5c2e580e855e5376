package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"smartturf/internal/database"
	"smartturf/internal/metrics"
	"smartturf/internal/models"
)

func (s *HTTPServer) handleTurfs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		turfs, err := s.catalog.GetTurfs(r.Context())
		if err != nil {
			s.handleError(w, r, "list turfs", err)
			return
		}
		writeJSON(w, http.StatusOK, turfs)
	case http.MethodPost:
		s.requireAuth(s.handleCreateTurf)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCreateTurf(w http.ResponseWriter, r *http.Request) {
	var turf models.Turf
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&turf); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.catalog.CreateTurf(r.Context(), &turf); err != nil {
		s.handleError(w, r, "create turf", err)
		return
	}
	writeJSON(w, http.StatusCreated, turf)
}

func (s *HTTPServer) handleKits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		kits, err := s.catalog.GetAvailableKits(r.Context())
		if err != nil {
			s.handleError(w, r, "list kits", err)
			return
		}
		writeJSON(w, http.StatusOK, kits)
	case http.MethodPost:
		s.requireAuth(s.handleCreateKit)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCreateKit(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var kit models.Kit
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&kit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	kit.OwnerID = userID

	if err := s.catalog.CreateKit(r.Context(), &kit); err != nil {
		s.handleError(w, r, "create kit", err)
		return
	}
	writeJSON(w, http.StatusCreated, kit)
}

// handleSlots serves GET /api/bookings/slots/{turf_id}?date=YYYY-MM-DD with
// the full hourly grid for that turf and day.
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/bookings/slots/"
	rawID := strings.TrimPrefix(r.URL.Path, prefix)
	turfID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || turfID <= 0 {
		writeError(w, http.StatusBadRequest, "turf_id must be a positive integer")
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	slots, err := s.bookings.ComputeSlots(r.Context(), turfID, date)
	if err != nil {
		s.handleError(w, r, "compute slots", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.Slot{"slots": slots})
}

type createBookingRequest struct {
	TurfID    int64  `json:"turf_id"`
	StartTime string `json:"start_time"`
	KitID     *int64 `json:"kit_id"`
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TurfID <= 0 {
		writeError(w, http.StatusBadRequest, "turf_id is required")
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time; expected RFC3339")
		return
	}

	booking := &models.Booking{
		UserID:    userID,
		TurfID:    req.TurfID,
		KitID:     req.KitID,
		StartTime: startTime,
	}
	if err := s.bookings.Reserve(r.Context(), booking); err != nil {
		if status, _ := statusFromError(err); status == http.StatusBadRequest {
			metrics.IncBooking("rejected")
		}
		s.handleError(w, r, "create booking", err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	bookings, err := s.bookings.GetUserBookings(r.Context(), userID)
	if err != nil {
		s.handleError(w, r, "list bookings", err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

type createMatchRequest struct {
	TurfID                int64   `json:"turf_id"`
	Sport                 string  `json:"sport"`
	MatchTime             string  `json:"match_time"`
	PlayersNeeded         int64   `json:"players_needed"`
	ContributionPerPerson float64 `json:"contribution_per_person"`
}

func (s *HTTPServer) handleMatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		matches, err := s.matches.GetOpenMatches(r.Context())
		if err != nil {
			s.handleError(w, r, "list matches", err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	case http.MethodPost:
		s.requireAuth(s.handleCreateMatch)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createMatchRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TurfID <= 0 {
		writeError(w, http.StatusBadRequest, "turf_id is required")
		return
	}

	var matchTime time.Time
	if req.MatchTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.MatchTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid match_time; expected RFC3339")
			return
		}
		matchTime = parsed
	}

	match := &models.Match{
		OrganizerID:           userID,
		TurfID:                req.TurfID,
		Sport:                 req.Sport,
		MatchTime:             matchTime,
		PlayersNeeded:         req.PlayersNeeded,
		ContributionPerPerson: req.ContributionPerPerson,
	}
	if err := s.matches.CreateMatch(r.Context(), match); err != nil {
		s.handleError(w, r, "create match", err)
		return
	}

	writeJSON(w, http.StatusCreated, match)
}

// handleJoinMatch serves POST /api/matches/{id}/join.
func (s *HTTPServer) handleJoinMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/matches/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "join" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	matchID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || matchID <= 0 {
		writeError(w, http.StatusBadRequest, "match id must be a positive integer")
		return
	}

	if err := s.matches.JoinMatch(r.Context(), matchID, userID); err != nil {
		switch {
		case errors.Is(err, database.ErrMatchFull):
			metrics.IncMatchJoin("full")
		case errors.Is(err, database.ErrAlreadyJoined):
			metrics.IncMatchJoin("duplicate")
		}
		s.handleError(w, r, "join match", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "joined match"})
}

type exportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// handleExport queues a bookings report for the background worker. The
// response acknowledges the request; the file lands on disk asynchronously.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.exports == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are disabled")
		return
	}

	var req exportRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	end := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -30)
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date; expected YYYY-MM-DD")
			return
		}
		end = parsed.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		writeError(w, http.StatusBadRequest, "start_date must be before end_date")
		return
	}

	if err := s.exports.Enqueue(r.Context(), start, end); err != nil {
		s.handleError(w, r, "queue export", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
