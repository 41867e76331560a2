package ratings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shieldmate/backend/internal/missions"
	"github.com/shieldmate/backend/internal/models"
)

// fakeMissionStore backs the mission engine with just enough state to
// resolve parties: one mission, one accepted volunteer, one org member.
type fakeMissionStore struct {
	mission  *models.Mission
	accepted *models.Application
	members  map[uuid.UUID]bool
}

func (s *fakeMissionStore) GetMission(_ context.Context, id uuid.UUID) (*models.Mission, error) {
	if s.mission == nil || s.mission.ID != id {
		return nil, missions.ErrNotFound
	}
	cp := *s.mission
	return &cp, nil
}

func (s *fakeMissionStore) GetApplication(context.Context, uuid.UUID) (*models.Application, error) {
	return nil, missions.ErrNotFound
}

func (s *fakeMissionStore) AcceptedApplication(_ context.Context, missionID uuid.UUID) (*models.Application, error) {
	if s.accepted == nil || s.accepted.MissionID != missionID {
		return nil, missions.ErrNoAcceptedVolunteer
	}
	cp := *s.accepted
	return &cp, nil
}

func (s *fakeMissionStore) IsApprovedOrgMember(_ context.Context, orgID, userID uuid.UUID) (bool, error) {
	return s.mission != nil && s.mission.OrganizationID == orgID && s.members[userID], nil
}

func (s *fakeMissionStore) ApprovedOrgMemberIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range s.members {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeMissionStore) CreateApplication(context.Context, *models.Application) error {
	return missions.ErrInvalidTransition
}

func (s *fakeMissionStore) AcceptApplicationAndActivate(context.Context, uuid.UUID, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (s *fakeMissionStore) RejectApplication(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (s *fakeMissionStore) MarkPendingClosure(context.Context, uuid.UUID, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (s *fakeMissionStore) MarkCompleted(context.Context, uuid.UUID, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (s *fakeMissionStore) ReopenFromPendingClosure(context.Context, uuid.UUID, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (s *fakeMissionStore) CancelOpenMission(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (s *fakeMissionStore) ExpirePendingClosures(context.Context, time.Time, time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

// fakeRatingStore enforces the (mission, rater) unique key in memory.
type fakeRatingStore struct {
	mu      sync.Mutex
	ratings []*models.Rating
}

func (s *fakeRatingStore) Create(_ context.Context, r *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ratings {
		if existing.MissionID == r.MissionID && existing.RaterUserID == r.RaterUserID {
			return ErrAlreadyRated
		}
	}
	r.ID = uuid.New()
	cp := *r
	s.ratings = append(s.ratings, &cp)
	return nil
}

type ratingFixture struct {
	svc       *Service
	store     *fakeRatingStore
	mstore    *fakeMissionStore
	missionID uuid.UUID
	orgUser   uuid.UUID
	volunteer uuid.UUID
}

func newRatingFixture(t *testing.T, status models.MissionStatus) *ratingFixture {
	t.Helper()
	missionID := uuid.New()
	orgID := uuid.New()
	orgUser := uuid.New()
	volunteer := uuid.New()
	mstore := &fakeMissionStore{
		mission: &models.Mission{
			ID:             missionID,
			OrganizationID: orgID,
			Status:         status,
		},
		accepted: &models.Application{
			ID:          uuid.New(),
			MissionID:   missionID,
			VolunteerID: volunteer,
			Status:      models.ApplicationAccepted,
		},
		members: map[uuid.UUID]bool{orgUser: true},
	}
	store := &fakeRatingStore{}
	svc := NewService(missions.NewService(mstore, nil, nil), store, nil)
	return &ratingFixture{
		svc:       svc,
		store:     store,
		mstore:    mstore,
		missionID: missionID,
		orgUser:   orgUser,
		volunteer: volunteer,
	}
}

func TestSubmitScoreRange(t *testing.T) {
	ctx := context.Background()
	f := newRatingFixture(t, models.MissionCompleted)
	for _, score := range []int{0, -1, 6, 100} {
		if _, err := f.svc.Submit(ctx, f.missionID, f.volunteer, f.orgUser, score, ""); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("score %d: want ErrInvalidRating, got %v", score, err)
		}
	}
	if _, err := f.svc.Submit(ctx, f.missionID, f.volunteer, f.orgUser, 5, "great org"); err != nil {
		t.Fatalf("valid score: %v", err)
	}
}

func TestSubmitRequiresCompletedMission(t *testing.T) {
	ctx := context.Background()
	for _, status := range []models.MissionStatus{
		models.MissionOpen, models.MissionInProgress, models.MissionPendingClosure, models.MissionCancelled,
	} {
		f := newRatingFixture(t, status)
		if _, err := f.svc.Submit(ctx, f.missionID, f.volunteer, f.orgUser, 4, ""); !errors.Is(err, ErrMissionNotCompleted) {
			t.Errorf("status %s: want ErrMissionNotCompleted, got %v", status, err)
		}
	}
}

func TestSubmitCounterpartChecks(t *testing.T) {
	ctx := context.Background()
	f := newRatingFixture(t, models.MissionCompleted)

	// Rating yourself.
	if _, err := f.svc.Submit(ctx, f.missionID, f.volunteer, f.volunteer, 4, ""); !errors.Is(err, ErrInvalidCounterpart) {
		t.Errorf("self: want ErrInvalidCounterpart, got %v", err)
	}
	// Rating a user who is not a party on the mission.
	if _, err := f.svc.Submit(ctx, f.missionID, f.volunteer, uuid.New(), 4, ""); !errors.Is(err, ErrInvalidCounterpart) {
		t.Errorf("stranger: want ErrInvalidCounterpart, got %v", err)
	}
	// A non-party cannot rate at all.
	if _, err := f.svc.Submit(ctx, f.missionID, uuid.New(), f.volunteer, 4, ""); !errors.Is(err, missions.ErrNotAuthorized) {
		t.Errorf("outsider rater: want ErrNotAuthorized, got %v", err)
	}
}

func TestSubmitSamePartyRejected(t *testing.T) {
	ctx := context.Background()
	f := newRatingFixture(t, models.MissionCompleted)
	second := uuid.New()
	// A second approved member of the same org rates the first one.
	f.mstore.members[second] = true
	if _, err := f.svc.Submit(ctx, f.missionID, second, f.orgUser, 4, ""); !errors.Is(err, ErrInvalidCounterpart) {
		t.Errorf("want ErrInvalidCounterpart, got %v", err)
	}
}

func TestSubmitOncePerMission(t *testing.T) {
	ctx := context.Background()
	f := newRatingFixture(t, models.MissionCompleted)

	r, err := f.svc.Submit(ctx, f.missionID, f.orgUser, f.volunteer, 5, "reliable and fast")
	if err != nil {
		t.Fatalf("first rating: %v", err)
	}
	if r.Rating != 5 || r.ReviewText != "reliable and fast" {
		t.Errorf("rating fields not carried: %+v", r)
	}

	if _, err := f.svc.Submit(ctx, f.missionID, f.orgUser, f.volunteer, 3, "changed my mind"); !errors.Is(err, ErrAlreadyRated) {
		t.Errorf("want ErrAlreadyRated, got %v", err)
	}

	// The counterpart still gets their own rating.
	if _, err := f.svc.Submit(ctx, f.missionID, f.volunteer, f.orgUser, 4, ""); err != nil {
		t.Fatalf("counterpart rating: %v", err)
	}
	if len(f.store.ratings) != 2 {
		t.Errorf("want 2 stored ratings, got %d", len(f.store.ratings))
	}
}

func TestSubmitUnknownMission(t *testing.T) {
	ctx := context.Background()
	f := newRatingFixture(t, models.MissionCompleted)
	if _, err := f.svc.Submit(ctx, uuid.New(), f.volunteer, f.orgUser, 4, ""); !errors.Is(err, missions.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}
