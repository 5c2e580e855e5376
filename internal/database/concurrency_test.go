package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"smartturf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentReserveSlot(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	turf := createTestTurf(t, db, 1000)

	const numGoroutines = 10
	users := make([]*models.Booking, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		user := createTestUser(t, db, fmt.Sprintf("racer%d@example.com", i))
		users[i] = &models.Booking{
			UserID:    user.ID,
			TurfID:    turf.ID,
			StartTime: slotAt(time.Now().UTC().AddDate(0, 0, 1), 19),
		}
	}

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(b *models.Booking) {
			defer wg.Done()
			results <- db.ReserveSlot(ctx, b)
		}(users[i])
	}

	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, ErrSlotTaken):
			conflicts++
		}
	}

	// The slot admits exactly one winner no matter the interleaving.
	assert.Equal(t, 1, successes)
	assert.Equal(t, numGoroutines-1, conflicts)
}

func TestConcurrentJoinMatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	organizer := createTestUser(t, db, "organizer@example.com")
	turf := createTestTurf(t, db, 1000)

	const playersNeeded = 4
	match := createTestMatch(t, db, organizer.ID, turf.ID, playersNeeded)

	const numGoroutines = 12
	userIDs := make([]int64, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		user := createTestUser(t, db, fmt.Sprintf("joiner%d@example.com", i))
		userIDs[i] = user.ID
	}

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(userID int64) {
			defer wg.Done()
			results <- db.JoinMatch(ctx, match.ID, userID)
		}(userIDs[i])
	}

	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrMatchFull)
		}
	}

	// Organizer holds one seat; concurrent joins fill the rest and no more.
	assert.Equal(t, playersNeeded-1, successes)

	count, err := db.CountParticipants(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(playersNeeded), count)

	got, err := db.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusFull, got.Status)
}
