package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-hub-system/models"
)

func TestDeclareWinner_ClosesContestAndCreditsWinner(t *testing.T) {
	db := newTestDB(t)
	svc := NewWinnerService(db)

	seedUser(t, db, "creator@example.com", "Creator", models.RoleCreator)
	winner := seedUser(t, db, "winner@example.com", "Winnie", models.RoleUser)
	require.NoError(t, db.Model(&winner).Update("participated_count", 4).Error)
	contest := seedContest(t, db, "creator@example.com", models.ContestStatusConfirmed,
		time.Now().Add(-time.Hour))

	closed, err := svc.DeclareWinner(contest.ID, "creator@example.com", "winner@example.com")
	require.NoError(t, err)

	assert.Equal(t, models.ContestStatusClosed, closed.Status)
	require.NotNil(t, closed.WinnerEmail)
	assert.Equal(t, "winner@example.com", *closed.WinnerEmail)
	require.NotNil(t, closed.WinnerPrizeMoney)
	assert.Equal(t, contest.PrizeMoney, *closed.WinnerPrizeMoney)

	var after models.User
	require.NoError(t, db.First(&after, "email = ?", "winner@example.com").Error)
	assert.Equal(t, 1, after.Wins)
	assert.InDelta(t, 25.0, after.WinPercentage, 0.001)
}

func TestDeclareWinner_SecondCallFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewWinnerService(db)

	seedUser(t, db, "creator@example.com", "Creator", models.RoleCreator)
	seedUser(t, db, "a@example.com", "A", models.RoleUser)
	seedUser(t, db, "b@example.com", "B", models.RoleUser)
	contest := seedContest(t, db, "creator@example.com", models.ContestStatusConfirmed,
		time.Now().Add(-time.Hour))

	_, err := svc.DeclareWinner(contest.ID, "creator@example.com", "a@example.com")
	require.NoError(t, err)

	_, err = svc.DeclareWinner(contest.ID, "creator@example.com", "b@example.com")
	assert.ErrorIs(t, err, ErrAlreadyDeclared)

	// The losing call must not have touched either user's statistics.
	var b models.User
	require.NoError(t, db.First(&b, "email = ?", "b@example.com").Error)
	assert.Equal(t, 0, b.Wins)
}

func TestDeclareWinner_BeforeDeadline(t *testing.T) {
	db := newTestDB(t)
	svc := NewWinnerService(db)

	seedUser(t, db, "creator@example.com", "Creator", models.RoleCreator)
	seedUser(t, db, "winner@example.com", "Winnie", models.RoleUser)
	contest := seedContest(t, db, "creator@example.com", models.ContestStatusConfirmed,
		time.Now().Add(time.Hour))

	_, err := svc.DeclareWinner(contest.ID, "creator@example.com", "winner@example.com")
	assert.ErrorIs(t, err, ErrDeadlineNotPassed)

	var unchanged models.Contest
	require.NoError(t, db.First(&unchanged, "id = ?", contest.ID).Error)
	assert.Nil(t, unchanged.WinnerEmail)
	assert.Equal(t, models.ContestStatusConfirmed, unchanged.Status)
}

func TestDeclareWinner_UnreviewedContest(t *testing.T) {
	db := newTestDB(t)
	svc := NewWinnerService(db)

	seedUser(t, db, "creator@example.com", "Creator", models.RoleCreator)
	seedUser(t, db, "winner@example.com", "Winnie", models.RoleUser)

	// Past-deadline pending and rejected contests still cannot close: only a
	// confirmed contest ever opened for entries.
	for _, status := range []string{models.ContestStatusPending, models.ContestStatusRejected} {
		contest := seedContest(t, db, "creator@example.com", status,
			time.Now().Add(-time.Hour))

		_, err := svc.DeclareWinner(contest.ID, "creator@example.com", "winner@example.com")
		assert.ErrorIs(t, err, ErrContestNotOpen)

		var unchanged models.Contest
		require.NoError(t, db.First(&unchanged, "id = ?", contest.ID).Error)
		assert.Equal(t, status, unchanged.Status)
		assert.Nil(t, unchanged.WinnerEmail)
	}

	var winner models.User
	require.NoError(t, db.First(&winner, "email = ?", "winner@example.com").Error)
	assert.Equal(t, 0, winner.Wins)
}

func TestDeclareWinner_NotOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewWinnerService(db)

	seedUser(t, db, "creator@example.com", "Creator", models.RoleCreator)
	seedUser(t, db, "winner@example.com", "Winnie", models.RoleUser)
	contest := seedContest(t, db, "creator@example.com", models.ContestStatusConfirmed,
		time.Now().Add(-time.Hour))

	_, err := svc.DeclareWinner(contest.ID, "other@example.com", "winner@example.com")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestDeclareWinner_UnknownContestAndWinner(t *testing.T) {
	db := newTestDB(t)
	svc := NewWinnerService(db)

	seedUser(t, db, "creator@example.com", "Creator", models.RoleCreator)
	contest := seedContest(t, db, "creator@example.com", models.ContestStatusConfirmed,
		time.Now().Add(-time.Hour))

	_, err := svc.DeclareWinner("no-such-id", "creator@example.com", "winner@example.com")
	assert.ErrorIs(t, err, ErrContestNotFound)

	_, err = svc.DeclareWinner(contest.ID, "creator@example.com", "ghost@example.com")
	assert.ErrorIs(t, err, ErrWinnerNotFound)
}

func TestDeclareWinner_ZeroParticipationsYieldsZeroPercentage(t *testing.T) {
	db := newTestDB(t)
	svc := NewWinnerService(db)

	seedUser(t, db, "creator@example.com", "Creator", models.RoleCreator)
	seedUser(t, db, "winner@example.com", "Winnie", models.RoleUser)
	contest := seedContest(t, db, "creator@example.com", models.ContestStatusConfirmed,
		time.Now().Add(-time.Hour))

	_, err := svc.DeclareWinner(contest.ID, "creator@example.com", "winner@example.com")
	require.NoError(t, err)

	var after models.User
	require.NoError(t, db.First(&after, "email = ?", "winner@example.com").Error)
	assert.Equal(t, 1, after.Wins)
	assert.Equal(t, 0.0, after.WinPercentage)
}

// Two concurrent declarations with different winners: exactly one wins the
// conditional update, the other observes the already-declared state.
func TestDeclareWinner_ConcurrentRace(t *testing.T) {
	db := newTestDB(t)
	svc := NewWinnerService(db)

	seedUser(t, db, "creator@example.com", "Creator", models.RoleCreator)
	seedUser(t, db, "a@example.com", "A", models.RoleUser)
	seedUser(t, db, "b@example.com", "B", models.RoleUser)
	contest := seedContest(t, db, "creator@example.com", models.ContestStatusConfirmed,
		time.Now().Add(-time.Hour))

	var wg sync.WaitGroup
	wg.Add(2)
	var err1, err2 error
	go func() {
		defer wg.Done()
		_, err1 = svc.DeclareWinner(contest.ID, "creator@example.com", "a@example.com")
	}()
	go func() {
		defer wg.Done()
		_, err2 = svc.DeclareWinner(contest.ID, "creator@example.com", "b@example.com")
	}()
	wg.Wait()

	if err1 == nil {
		assert.ErrorIs(t, err2, ErrAlreadyDeclared)
	} else {
		assert.NoError(t, err2, "one declaration must succeed")
		assert.ErrorIs(t, err1, ErrAlreadyDeclared)
	}

	var after models.Contest
	require.NoError(t, db.First(&after, "id = ?", contest.ID).Error)
	assert.Equal(t, models.ContestStatusClosed, after.Status)
	require.NotNil(t, after.WinnerEmail)

	// Exactly one win was credited across both candidates.
	var totalWins int
	require.NoError(t, db.Raw(
		"SELECT COALESCE(SUM(wins), 0) FROM users WHERE email IN (?, ?)",
		"a@example.com", "b@example.com").Scan(&totalWins).Error)
	assert.Equal(t, 1, totalWins)
}

// Full lifecycle: pending -> confirmed -> participation -> deadline passes ->
// winner declared with 1 win out of 1 entry.
func TestFullContestLifecycle(t *testing.T) {
	db := newTestDB(t)
	winners := NewWinnerService(db)
	participations := NewParticipationService(db)

	seedUser(t, db, "creator@example.com", "Creator", models.RoleCreator)
	entrant := seedUser(t, db, "entrant@example.com", "Entrant", models.RoleUser)
	contest := seedContest(t, db, "creator@example.com", models.ContestStatusPending,
		time.Now().Add(200*time.Millisecond))

	// Admin confirms.
	require.NoError(t, db.Model(&models.Contest{}).Where("id = ?", contest.ID).
		Update("status", models.ContestStatusConfirmed).Error)

	_, err := participations.RecordParticipation(ParticipationInfo{
		ContestID:        contest.ID,
		ParticipantEmail: entrant.Email,
		PaidAmount:       10,
		TransactionID:    "txn-1",
	})
	require.NoError(t, err)

	var midContest models.Contest
	require.NoError(t, db.First(&midContest, "id = ?", contest.ID).Error)
	assert.Equal(t, 1, midContest.ParticipantsCount)

	// Wait out the deadline, then declare.
	time.Sleep(250 * time.Millisecond)
	closed, err := winners.DeclareWinner(contest.ID, "creator@example.com", entrant.Email)
	require.NoError(t, err)

	assert.Equal(t, models.ContestStatusClosed, closed.Status)
	require.NotNil(t, closed.WinnerEmail)
	assert.Equal(t, entrant.Email, *closed.WinnerEmail)

	var after models.User
	require.NoError(t, db.First(&after, "email = ?", entrant.Email).Error)
	assert.Equal(t, 1, after.Wins)
	assert.Equal(t, 1, after.ParticipatedCount)
	assert.InDelta(t, 100.0, after.WinPercentage, 0.001)
}
