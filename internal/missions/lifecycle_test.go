package missions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shieldmate/backend/internal/models"
)

// memStore is an in-memory Store with the same conditional-update
// semantics as the SQL repository: every transition checks the current
// status under the lock and reports whether a row changed.
type memStore struct {
	mu       sync.Mutex
	missions map[uuid.UUID]*models.Mission
	apps     map[uuid.UUID]*models.Application
	members  map[uuid.UUID]map[uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		missions: make(map[uuid.UUID]*models.Mission),
		apps:     make(map[uuid.UUID]*models.Application),
		members:  make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (s *memStore) addMission(orgID uuid.UUID, status models.MissionStatus) *models.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &models.Mission{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          "Build a donation page",
		Status:         status,
	}
	s.missions[m.ID] = m
	return m
}

func (s *memStore) addMember(orgID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[orgID] == nil {
		s.members[orgID] = make(map[uuid.UUID]bool)
	}
	s.members[orgID][userID] = true
}

func (s *memStore) GetMission(_ context.Context, id uuid.UUID) (*models.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) GetApplication(_ context.Context, id uuid.UUID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) AcceptedApplication(_ context.Context, missionID uuid.UUID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.MissionID == missionID && a.Status == models.ApplicationAccepted {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNoAcceptedVolunteer
}

func (s *memStore) IsApprovedOrgMember(_ context.Context, orgID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[orgID][userID], nil
}

func (s *memStore) ApprovedOrgMemberIDs(_ context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for id := range s.members[orgID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memStore) CreateApplication(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[app.MissionID]
	if !ok || m.Status != models.MissionOpen {
		return ErrInvalidTransition
	}
	for _, a := range s.apps {
		if a.MissionID == app.MissionID && a.VolunteerID == app.VolunteerID {
			return ErrDuplicateApplication
		}
	}
	app.ID = uuid.New()
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *memStore) AcceptApplicationAndActivate(_ context.Context, missionID, applicationID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[missionID]
	if !ok || m.Status != models.MissionOpen {
		return false, nil
	}
	a, ok := s.apps[applicationID]
	if !ok || a.MissionID != missionID || a.Status != models.ApplicationPending {
		return false, nil
	}
	m.Status = models.MissionInProgress
	m.UpdatedAt = at
	a.Status = models.ApplicationAccepted
	a.UpdatedAt = at
	for _, sib := range s.apps {
		if sib.MissionID == missionID && sib.Status == models.ApplicationPending {
			sib.Status = models.ApplicationRejected
			sib.UpdatedAt = at
		}
	}
	return true, nil
}

func (s *memStore) RejectApplication(_ context.Context, applicationID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[applicationID]
	if !ok || a.Status != models.ApplicationPending {
		return false, nil
	}
	a.Status = models.ApplicationRejected
	a.UpdatedAt = at
	return true, nil
}

func (s *memStore) MarkPendingClosure(_ context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[missionID]
	if !ok || m.Status != models.MissionInProgress {
		return false, nil
	}
	m.Status = models.MissionPendingClosure
	id := initiatorID
	t := at
	m.ClosureInitiatorID = &id
	m.ClosureInitiatedAt = &t
	m.UpdatedAt = at
	return true, nil
}

func (s *memStore) MarkCompleted(_ context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[missionID]
	if !ok || m.Status != models.MissionPendingClosure {
		return false, nil
	}
	if m.ClosureInitiatorID == nil || *m.ClosureInitiatorID != initiatorID {
		return false, nil
	}
	m.Status = models.MissionCompleted
	t := at
	m.ClosedAt = &t
	m.UpdatedAt = at
	return true, nil
}

func (s *memStore) ReopenFromPendingClosure(_ context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[missionID]
	if !ok || m.Status != models.MissionPendingClosure {
		return false, nil
	}
	if m.ClosureInitiatorID == nil || *m.ClosureInitiatorID != initiatorID {
		return false, nil
	}
	m.Status = models.MissionInProgress
	m.ClosureInitiatorID = nil
	m.ClosureInitiatedAt = nil
	m.UpdatedAt = at
	return true, nil
}

func (s *memStore) CancelOpenMission(_ context.Context, missionID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[missionID]
	if !ok || m.Status != models.MissionOpen {
		return false, nil
	}
	m.Status = models.MissionCancelled
	m.UpdatedAt = at
	return true, nil
}

func (s *memStore) ExpirePendingClosures(_ context.Context, cutoff, closedAt time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, m := range s.missions {
		if m.Status != models.MissionPendingClosure || m.ClosureInitiatedAt == nil {
			continue
		}
		if m.ClosureInitiatedAt.After(cutoff) {
			continue
		}
		m.Status = models.MissionCompleted
		t := closedAt
		m.ClosedAt = &t
		m.UpdatedAt = closedAt
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// memNotifier records Notify calls.
type memNotifier struct {
	mu    sync.Mutex
	sent  map[uuid.UUID][]string
	total int
}

func newMemNotifier() *memNotifier {
	return &memNotifier{sent: make(map[uuid.UUID][]string)}
}

func (n *memNotifier) Notify(_ context.Context, recipientID uuid.UUID, message, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[recipientID] = append(n.sent[recipientID], message)
	n.total++
}

func (n *memNotifier) countFor(id uuid.UUID) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent[id])
}

// fixture is a mission with one approved org member and one volunteer.
type fixture struct {
	store     *memStore
	notifier  *memNotifier
	svc       *Service
	orgID     uuid.UUID
	orgUser   uuid.UUID
	volunteer uuid.UUID
	mission   *models.Mission
}

func newFixture(t *testing.T, status models.MissionStatus) *fixture {
	t.Helper()
	store := newMemStore()
	notifier := newMemNotifier()
	svc := NewService(store, notifier, nil)
	f := &fixture{
		store:     store,
		notifier:  notifier,
		svc:       svc,
		orgID:     uuid.New(),
		orgUser:   uuid.New(),
		volunteer: uuid.New(),
	}
	store.addMember(f.orgID, f.orgUser)
	f.mission = store.addMission(f.orgID, status)
	return f
}

// inProgressFixture runs a real apply-and-accept so the accepted
// application exists, then leaves the mission in_progress.
func inProgressFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, models.MissionOpen)
	ctx := context.Background()
	app, err := f.svc.SubmitApplication(ctx, f.mission.ID, f.volunteer, "I can help")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.DecideApplication(ctx, app.ID, true, f.orgUser); err != nil {
		t.Fatalf("accept: %v", err)
	}
	return f
}

func (f *fixture) missionStatus(t *testing.T) models.MissionStatus {
	t.Helper()
	m, err := f.store.GetMission(context.Background(), f.mission.ID)
	if err != nil {
		t.Fatalf("get mission: %v", err)
	}
	return m.Status
}

func TestSubmitApplicationOpenOnly(t *testing.T) {
	ctx := context.Background()
	for _, status := range []models.MissionStatus{
		models.MissionInProgress, models.MissionPendingClosure, models.MissionCompleted, models.MissionCancelled,
	} {
		f := newFixture(t, status)
		if _, err := f.svc.SubmitApplication(ctx, f.mission.ID, f.volunteer, ""); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("status %s: want ErrInvalidTransition, got %v", status, err)
		}
	}

	f := newFixture(t, models.MissionOpen)
	app, err := f.svc.SubmitApplication(ctx, f.mission.ID, f.volunteer, "hello")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if app.Status != models.ApplicationPending {
		t.Errorf("want pending, got %s", app.Status)
	}
}

func TestSubmitApplicationDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.MissionOpen)
	if _, err := f.svc.SubmitApplication(ctx, f.mission.ID, f.volunteer, ""); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := f.svc.SubmitApplication(ctx, f.mission.ID, f.volunteer, "again"); !errors.Is(err, ErrDuplicateApplication) {
		t.Errorf("want ErrDuplicateApplication, got %v", err)
	}
}

func TestAcceptActivatesAndRejectsSiblings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.MissionOpen)
	other := uuid.New()

	app, err := f.svc.SubmitApplication(ctx, f.mission.ID, f.volunteer, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	sibling, err := f.svc.SubmitApplication(ctx, f.mission.ID, other, "")
	if err != nil {
		t.Fatalf("submit sibling: %v", err)
	}

	accepted, err := f.svc.DecideApplication(ctx, app.ID, true, f.orgUser)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.ApplicationAccepted {
		t.Errorf("want accepted, got %s", accepted.Status)
	}
	if got := f.missionStatus(t); got != models.MissionInProgress {
		t.Errorf("want in_progress, got %s", got)
	}
	sib, _ := f.store.GetApplication(ctx, sibling.ID)
	if sib.Status != models.ApplicationRejected {
		t.Errorf("sibling: want rejected, got %s", sib.Status)
	}
	if f.notifier.countFor(f.volunteer) != 1 {
		t.Errorf("accepted volunteer should be notified once, got %d", f.notifier.countFor(f.volunteer))
	}
	if f.notifier.countFor(other) != 0 {
		t.Errorf("rejected volunteer should not be notified, got %d", f.notifier.countFor(other))
	}
}

func TestDecideApplicationRequiresOrgMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.MissionOpen)
	app, err := f.svc.SubmitApplication(ctx, f.mission.ID, f.volunteer, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.DecideApplication(ctx, app.ID, true, uuid.New()); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("want ErrNotAuthorized, got %v", err)
	}
	// The volunteer cannot decide their own application either.
	if _, err := f.svc.DecideApplication(ctx, app.ID, true, f.volunteer); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("want ErrNotAuthorized, got %v", err)
	}
}

func TestRejectLeavesMissionOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.MissionOpen)
	app, err := f.svc.SubmitApplication(ctx, f.mission.ID, f.volunteer, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	rejected, err := f.svc.DecideApplication(ctx, app.ID, false, f.orgUser)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.ApplicationRejected {
		t.Errorf("want rejected, got %s", rejected.Status)
	}
	if got := f.missionStatus(t); got != models.MissionOpen {
		t.Errorf("mission should stay open, got %s", got)
	}
	// A decided application cannot be decided again.
	if _, err := f.svc.DecideApplication(ctx, app.ID, true, f.orgUser); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("want ErrInvalidTransition, got %v", err)
	}
}

func TestConcurrentAcceptSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.MissionOpen)
	volunteers := []uuid.UUID{f.volunteer, uuid.New(), uuid.New(), uuid.New()}
	appIDs := make([]uuid.UUID, len(volunteers))
	for i, v := range volunteers {
		app, err := f.svc.SubmitApplication(ctx, f.mission.ID, v, "")
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		appIDs[i] = app.ID
	}

	var wg sync.WaitGroup
	results := make([]error, len(appIDs))
	for i, id := range appIDs {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, results[i] = f.svc.DecideApplication(ctx, id, true, f.orgUser)
		}(i, id)
	}
	wg.Wait()

	wins := 0
	for i, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidTransition):
		default:
			t.Errorf("accept %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("want exactly one winning accept, got %d", wins)
	}

	accepted := 0
	for _, id := range appIDs {
		a, _ := f.store.GetApplication(ctx, id)
		if a.Status == models.ApplicationAccepted {
			accepted++
		} else if a.Status != models.ApplicationRejected {
			t.Errorf("application %s left in %s", id, a.Status)
		}
	}
	if accepted != 1 {
		t.Errorf("want exactly one accepted application, got %d", accepted)
	}
	if got := f.missionStatus(t); got != models.MissionInProgress {
		t.Errorf("want in_progress, got %s", got)
	}
}

func TestProposeClosurePartiesOnly(t *testing.T) {
	ctx := context.Background()
	f := inProgressFixture(t)
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, uuid.New()); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("outsider: want ErrNotAuthorized, got %v", err)
	}
	m, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.volunteer)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if m.Status != models.MissionPendingClosure {
		t.Errorf("want pending_closure, got %s", m.Status)
	}
	if m.ClosureInitiatorID == nil || *m.ClosureInitiatorID != f.volunteer {
		t.Errorf("initiator not recorded")
	}
	if f.notifier.countFor(f.orgUser) == 0 {
		t.Errorf("counterpart org member should be notified")
	}
}

func TestProposeClosureInProgressOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.MissionOpen)
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.orgUser); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("open: want ErrInvalidTransition, got %v", err)
	}
}

func TestConfirmClosureCounterpartOnly(t *testing.T) {
	ctx := context.Background()
	f := inProgressFixture(t)
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.volunteer); err != nil {
		t.Fatalf("propose: %v", err)
	}
	// The initiating party cannot confirm its own proposal.
	if _, err := f.svc.ConfirmClosure(ctx, f.mission.ID, f.volunteer); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("initiator confirm: want ErrNotAuthorized, got %v", err)
	}
	m, err := f.svc.ConfirmClosure(ctx, f.mission.ID, f.orgUser)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if m.Status != models.MissionCompleted {
		t.Errorf("want completed, got %s", m.Status)
	}
	if m.ClosedAt == nil {
		t.Errorf("closed_at not set")
	}
	if f.notifier.countFor(f.volunteer) < 2 {
		t.Errorf("initiator should be notified of confirmation")
	}
}

func TestConfirmClosureByAnyOrgMember(t *testing.T) {
	ctx := context.Background()
	f := inProgressFixture(t)
	second := uuid.New()
	f.store.addMember(f.orgID, second)
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.volunteer); err != nil {
		t.Fatalf("propose: %v", err)
	}
	// The party check is by side, not user: a different approved member
	// confirms for the org.
	if _, err := f.svc.ConfirmClosure(ctx, f.mission.ID, second); err != nil {
		t.Fatalf("confirm by second member: %v", err)
	}
	// And when the org proposed, no org member can confirm.
	f2 := inProgressFixture(t)
	other := uuid.New()
	f2.store.addMember(f2.orgID, other)
	if _, err := f2.svc.ProposeClosure(ctx, f2.mission.ID, f2.orgUser); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := f2.svc.ConfirmClosure(ctx, f2.mission.ID, other); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("same party confirm: want ErrNotAuthorized, got %v", err)
	}
	if _, err := f2.svc.ConfirmClosure(ctx, f2.mission.ID, f2.volunteer); err != nil {
		t.Fatalf("volunteer confirm: %v", err)
	}
}

func TestDisputeResetsNegotiation(t *testing.T) {
	ctx := context.Background()
	f := inProgressFixture(t)
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.volunteer); err != nil {
		t.Fatalf("propose: %v", err)
	}
	m, err := f.svc.DisputeClosure(ctx, f.mission.ID, f.orgUser)
	if err != nil {
		t.Fatalf("dispute: %v", err)
	}
	if m.Status != models.MissionInProgress {
		t.Errorf("want in_progress, got %s", m.Status)
	}
	if m.ClosureInitiatorID != nil || m.ClosureInitiatedAt != nil {
		t.Errorf("initiator fields should be cleared")
	}
	if f.notifier.countFor(f.volunteer) < 2 {
		t.Errorf("original initiator should be notified of the dispute")
	}

	// The negotiation fully reset: the other party can now propose.
	m, err = f.svc.ProposeClosure(ctx, f.mission.ID, f.orgUser)
	if err != nil {
		t.Fatalf("re-propose: %v", err)
	}
	if m.ClosureInitiatorID == nil || *m.ClosureInitiatorID != f.orgUser {
		t.Errorf("new initiator not recorded")
	}
}

// interleaveStore runs a callback once, right before MarkCompleted
// reaches the underlying store, to wedge other transitions into the
// window between a confirm's validation and its write.
type interleaveStore struct {
	*memStore
	beforeComplete func()
}

func (s *interleaveStore) MarkCompleted(ctx context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error) {
	if f := s.beforeComplete; f != nil {
		s.beforeComplete = nil
		f()
	}
	return s.memStore.MarkCompleted(ctx, missionID, initiatorID, at)
}

func TestConfirmStaleAfterDisputeAndReproposal(t *testing.T) {
	ctx := context.Background()
	f := inProgressFixture(t)
	raced := &interleaveStore{memStore: f.store}
	svc := NewService(raced, f.notifier, nil)

	if _, err := svc.ProposeClosure(ctx, f.mission.ID, f.volunteer); err != nil {
		t.Fatalf("propose: %v", err)
	}

	// Between the org confirm's validation and its completion write, the
	// org disputes the volunteer's proposal and proposes its own closure.
	raced.beforeComplete = func() {
		if _, err := f.svc.DisputeClosure(ctx, f.mission.ID, f.orgUser); err != nil {
			t.Fatalf("interleaved dispute: %v", err)
		}
		if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.orgUser); err != nil {
			t.Fatalf("interleaved re-propose: %v", err)
		}
	}

	// The confirm was validated against the volunteer's proposal; an org
	// confirm of the org's own proposal would be unilateral closure.
	if _, err := svc.ConfirmClosure(ctx, f.mission.ID, f.orgUser); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("stale confirm: want ErrInvalidTransition, got %v", err)
	}

	m, err := f.store.GetMission(ctx, f.mission.ID)
	if err != nil {
		t.Fatalf("get mission: %v", err)
	}
	if m.Status != models.MissionPendingClosure {
		t.Fatalf("want pending_closure on the org proposal, got %s", m.Status)
	}
	if m.ClosureInitiatorID == nil || *m.ClosureInitiatorID != f.orgUser {
		t.Fatalf("org proposal should stand, initiator %v", m.ClosureInitiatorID)
	}

	// The volunteer, the real counterpart now, confirms and completes.
	if _, err := f.svc.ConfirmClosure(ctx, f.mission.ID, f.volunteer); err != nil {
		t.Fatalf("volunteer confirm: %v", err)
	}
	if got := f.missionStatus(t); got != models.MissionCompleted {
		t.Fatalf("want completed, got %s", got)
	}
}

func TestDisputeStaleAfterResolution(t *testing.T) {
	ctx := context.Background()
	f := inProgressFixture(t)

	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.volunteer); err != nil {
		t.Fatalf("propose: %v", err)
	}
	// The dispute's target proposal is resolved and replaced before the
	// reopen write lands; the stale dispute must not cancel the new one.
	if ok, err := f.store.ReopenFromPendingClosure(ctx, f.mission.ID, f.volunteer, time.Now()); err != nil || !ok {
		t.Fatalf("reopen: ok=%v err=%v", ok, err)
	}
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.orgUser); err != nil {
		t.Fatalf("re-propose: %v", err)
	}
	if ok, err := f.store.ReopenFromPendingClosure(ctx, f.mission.ID, f.volunteer, time.Now()); err != nil {
		t.Fatalf("stale reopen: %v", err)
	} else if ok {
		t.Fatalf("stale reopen should miss the org proposal")
	}
	m, _ := f.store.GetMission(ctx, f.mission.ID)
	if m.ClosureInitiatorID == nil || *m.ClosureInitiatorID != f.orgUser {
		t.Fatalf("org proposal should stand")
	}
}

func TestConfirmVsDisputeRace(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		f := inProgressFixture(t)
		if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.volunteer); err != nil {
			t.Fatalf("propose: %v", err)
		}

		var wg sync.WaitGroup
		var confirmErr, disputeErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, confirmErr = f.svc.ConfirmClosure(ctx, f.mission.ID, f.orgUser)
		}()
		go func() {
			defer wg.Done()
			_, disputeErr = f.svc.DisputeClosure(ctx, f.mission.ID, f.orgUser)
		}()
		wg.Wait()

		status := f.missionStatus(t)
		switch {
		case confirmErr == nil && disputeErr == nil:
			t.Fatalf("confirm and dispute both won; status %s", status)
		case confirmErr == nil:
			if status != models.MissionCompleted {
				t.Fatalf("confirm won but status %s", status)
			}
		case disputeErr == nil:
			if status != models.MissionInProgress {
				t.Fatalf("dispute won but status %s", status)
			}
		default:
			t.Fatalf("both lost: confirm %v, dispute %v", confirmErr, disputeErr)
		}
	}
}

func TestCancelOpenOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.MissionOpen)
	if _, err := f.svc.CancelMission(ctx, f.mission.ID, f.volunteer); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("non-member cancel: want ErrNotAuthorized, got %v", err)
	}
	m, err := f.svc.CancelMission(ctx, f.mission.ID, f.orgUser)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if m.Status != models.MissionCancelled {
		t.Errorf("want cancelled, got %s", m.Status)
	}

	f2 := inProgressFixture(t)
	if _, err := f2.svc.CancelMission(ctx, f2.mission.ID, f2.orgUser); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("in_progress cancel: want ErrInvalidTransition, got %v", err)
	}
}

func TestEnforcementSweep(t *testing.T) {
	ctx := context.Background()
	f := inProgressFixture(t)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.Now = func() time.Time { return t0 }
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.volunteer); err != nil {
		t.Fatalf("propose: %v", err)
	}

	// Two days later: still within the 72h window.
	f.svc.Now = func() time.Time { return t0.Add(48 * time.Hour) }
	ids, err := f.svc.RunEnforcementSweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("sweep at +48h closed %d missions", len(ids))
	}
	if got := f.missionStatus(t); got != models.MissionPendingClosure {
		t.Errorf("want pending_closure, got %s", got)
	}

	// Four days later: the window expired.
	f.svc.Now = func() time.Time { return t0.Add(96 * time.Hour) }
	ids, err = f.svc.RunEnforcementSweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(ids) != 1 || ids[0] != f.mission.ID {
		t.Fatalf("want the mission closed, got %v", ids)
	}
	if got := f.missionStatus(t); got != models.MissionCompleted {
		t.Errorf("want completed, got %s", got)
	}

	// Re-running is a no-op.
	ids, err = f.svc.RunEnforcementSweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("second sweep should close nothing, got %v", ids)
	}
}

func TestEnforcementSweepExactBoundary(t *testing.T) {
	ctx := context.Background()
	f := inProgressFixture(t)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.Now = func() time.Time { return t0 }
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.volunteer); err != nil {
		t.Fatalf("propose: %v", err)
	}

	// Exactly 72h later the window is spent, inclusive.
	f.svc.Now = func() time.Time { return t0.Add(ClosureWindow) }
	ids, err := f.svc.RunEnforcementSweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("want close at exactly the window boundary, got %v", ids)
	}
}

func TestNotifyAutoClosedReachesBothParties(t *testing.T) {
	ctx := context.Background()
	f := inProgressFixture(t)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.Now = func() time.Time { return t0 }
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.volunteer); err != nil {
		t.Fatalf("propose: %v", err)
	}
	f.svc.Now = func() time.Time { return t0.Add(96 * time.Hour) }
	ids, err := f.svc.RunEnforcementSweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	before := f.notifier.countFor(f.volunteer)
	f.svc.NotifyAutoClosed(ctx, ids)
	if f.notifier.countFor(f.volunteer) != before+1 {
		t.Errorf("volunteer should get one auto-close notification")
	}
	if f.notifier.countFor(f.orgUser) == 0 {
		t.Errorf("org member should get an auto-close notification")
	}
}

func TestHappyPathLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.MissionOpen)

	app, err := f.svc.SubmitApplication(ctx, f.mission.ID, f.volunteer, "ready to help")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.DecideApplication(ctx, app.ID, true, f.orgUser); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.ProposeClosure(ctx, f.mission.ID, f.orgUser); err != nil {
		t.Fatalf("propose: %v", err)
	}
	m, err := f.svc.ConfirmClosure(ctx, f.mission.ID, f.volunteer)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if m.Status != models.MissionCompleted {
		t.Fatalf("want completed, got %s", m.Status)
	}
}
