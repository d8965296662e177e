package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"unity-within-go/internal/model"
)

type fakeMoodRepo struct {
	created    []*model.UserMood
	recentDays int
}

func (r *fakeMoodRepo) Create(mood *model.UserMood) error {
	r.created = append(r.created, mood)
	return nil
}

func (r *fakeMoodRepo) FindByUser(userID uint, limit int) ([]model.UserMood, error) {
	return nil, nil
}

func (r *fakeMoodRepo) FindRecentByUser(userID uint, days int) ([]model.UserMood, error) {
	r.recentDays = days
	return nil, nil
}

// TestRecordMood_ClampsIntensity verifies out-of-range intensities fall back to
// the midpoint instead of being stored as-is.
func TestRecordMood_ClampsIntensity(t *testing.T) {
	repo := &fakeMoodRepo{}
	svc := NewWellnessService(repo, nil, nil)

	require.NoError(t, svc.RecordMood(&model.UserMood{UserID: 1, Mood: "happy", Intensity: 42}))
	require.NoError(t, svc.RecordMood(&model.UserMood{UserID: 1, Mood: "calm", Intensity: 0}))
	require.NoError(t, svc.RecordMood(&model.UserMood{UserID: 1, Mood: "tired", Intensity: 7}))

	require.Len(t, repo.created, 3)
	assert.Equal(t, 5, repo.created[0].Intensity)
	assert.Equal(t, 5, repo.created[1].Intensity)
	assert.Equal(t, 7, repo.created[2].Intensity)
}

// TestListMoodsInRange_MapsRangeNames verifies each range name resolves to the
// expected lookback window, with week as the default for unknown names.
func TestListMoodsInRange_MapsRangeNames(t *testing.T) {
	repo := &fakeMoodRepo{}
	svc := NewWellnessService(repo, nil, nil)

	cases := map[string]int{
		"day":    1,
		"week":   7,
		"month":  30,
		"year":   365,
		"decade": 7,
		"":       7,
	}
	for rangeName, wantDays := range cases {
		_, err := svc.ListMoodsInRange(1, rangeName)
		require.NoError(t, err)
		assert.Equal(t, wantDays, repo.recentDays, "range %q", rangeName)
	}
}
