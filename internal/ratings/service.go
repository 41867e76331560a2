package ratings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/missions"
	"github.com/shieldmate/backend/internal/models"
)

var (
	// ErrMissionNotCompleted means ratings are not yet unlocked for the mission.
	ErrMissionNotCompleted = errors.New("mission is not completed")
	// ErrAlreadyRated means the rater already rated on this mission.
	ErrAlreadyRated = errors.New("already rated this mission")
	// ErrInvalidCounterpart means the rated user is not the rater's counterpart.
	ErrInvalidCounterpart = errors.New("rated user is not your counterpart on this mission")
	// ErrInvalidRating means the score is outside 1-5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Store persists ratings. Create returns ErrAlreadyRated on the
// (mission, rater) natural key.
type Store interface {
	Create(ctx context.Context, rating *models.Rating) error
}

// Service gates rating submission on mission completion and party
// membership. Ratings are purely informational; they never feed back
// into mission state.
type Service struct {
	missions *missions.Service
	store    Store
	logger   *zap.Logger

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// NewService creates the ratings service.
func NewService(m *missions.Service, store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{missions: m, store: store, logger: logger, Now: time.Now}
}

// Submit records one party's rating of the counterpart on a completed
// mission. Exactly one rating per (mission, rater).
func (s *Service) Submit(ctx context.Context, missionID, raterID, ratedID uuid.UUID, score int, review string) (*models.Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidRating
	}
	if raterID == ratedID {
		return nil, ErrInvalidCounterpart
	}
	m, err := s.missions.Mission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MissionCompleted {
		return nil, ErrMissionNotCompleted
	}
	raterParty, err := s.missions.PartyOf(ctx, m, raterID)
	if err != nil {
		return nil, err
	}
	ratedParty, err := s.missions.PartyOf(ctx, m, ratedID)
	if err != nil {
		if errors.Is(err, missions.ErrNotAuthorized) {
			return nil, ErrInvalidCounterpart
		}
		return nil, err
	}
	if raterParty == ratedParty {
		return nil, ErrInvalidCounterpart
	}
	rating := &models.Rating{
		MissionID:   missionID,
		RaterUserID: raterID,
		RatedUserID: ratedID,
		Rating:      score,
		ReviewText:  review,
		CreatedAt:   s.Now(),
	}
	if err := s.store.Create(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}
