package missions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/models"
)

// ClosureWindow is how long a closure proposal waits for the counterpart
// before the enforcement sweep force-completes the mission.
const ClosureWindow = 72 * time.Hour

// Party identifies which side of a mission a user acts for.
type Party string

const (
	PartyVolunteer    Party = "volunteer"
	PartyOrganization Party = "organization"
)

// Notifier is the fire-and-forget notification sink. Implementations
// must never fail the triggering transition; errors are swallowed and logged.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, message, link string)
}

// Service is the mission lifecycle engine: application submission and
// acceptance, the bilateral closure negotiation, and the enforcement sweep.
type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger

	// Now is the clock, overridable in tests.
	Now func() time.Time
	// Window is the closure response window used by the enforcement
	// sweep. Defaults to ClosureWindow.
	Window time.Duration
}

// NewService creates the lifecycle service.
func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger, Now: time.Now, Window: ClosureWindow}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Mission returns a mission by ID.
func (s *Service) Mission(ctx context.Context, id uuid.UUID) (*models.Mission, error) {
	return s.store.GetMission(ctx, id)
}

// PartyOf resolves which party the user acts for on the mission: the
// accepted volunteer, or the owning organization (any approved member).
// Returns ErrNotAuthorized for everyone else.
func (s *Service) PartyOf(ctx context.Context, m *models.Mission, userID uuid.UUID) (Party, error) {
	app, err := s.store.AcceptedApplication(ctx, m.ID)
	if err == nil && app.VolunteerID == userID {
		return PartyVolunteer, nil
	}
	if err != nil && err != ErrNoAcceptedVolunteer {
		return "", err
	}
	member, err := s.store.IsApprovedOrgMember(ctx, m.OrganizationID, userID)
	if err != nil {
		return "", err
	}
	if member {
		return PartyOrganization, nil
	}
	return "", ErrNotAuthorized
}

// SubmitApplication creates a pending application by a volunteer against
// an open mission. The (mission, volunteer) pair is unique.
func (s *Service) SubmitApplication(ctx context.Context, missionID, volunteerID uuid.UUID, message string) (*models.Application, error) {
	m, err := s.store.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MissionOpen {
		return nil, ErrInvalidTransition
	}
	app := &models.Application{
		MissionID:   missionID,
		VolunteerID: volunteerID,
		Message:     message,
		Status:      models.ApplicationPending,
		AppliedAt:   s.now(),
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// DecideApplication accepts or rejects a pending application on behalf of
// the owning organization. Accepting rejects all sibling pending
// applications and activates the mission (open→in_progress) as one
// conditional compound update, so a concurrent accept on a sibling
// observes in_progress and loses with ErrInvalidTransition.
func (s *Service) DecideApplication(ctx context.Context, applicationID uuid.UUID, accept bool, deciderID uuid.UUID) (*models.Application, error) {
	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	m, err := s.store.GetMission(ctx, app.MissionID)
	if err != nil {
		return nil, err
	}
	member, err := s.store.IsApprovedOrgMember(ctx, m.OrganizationID, deciderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotAuthorized
	}
	if app.Status != models.ApplicationPending {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	if !accept {
		ok, err := s.store.RejectApplication(ctx, app.ID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidTransition
		}
		return s.store.GetApplication(ctx, app.ID)
	}

	ok, err := s.store.AcceptApplicationAndActivate(ctx, m.ID, app.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	s.notify(ctx, app.VolunteerID,
		"Your application for \""+m.Title+"\" was accepted. The mission is now in progress.",
		missionLink(m.ID))
	return s.store.GetApplication(ctx, app.ID)
}

// ProposeClosure transitions in_progress→pending_closure, recording the
// proposer as closure initiator, and notifies the counterpart.
func (s *Service) ProposeClosure(ctx context.Context, missionID, proposerID uuid.UUID) (*models.Mission, error) {
	m, err := s.store.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MissionInProgress {
		return nil, ErrInvalidTransition
	}
	party, err := s.PartyOf(ctx, m, proposerID)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.MarkPendingClosure(ctx, missionID, proposerID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	s.notifyCounterpart(ctx, m, party,
		"Closure was proposed for \""+m.Title+"\". Confirm or dispute within 3 days.",
		missionLink(m.ID))
	return s.store.GetMission(ctx, missionID)
}

// ConfirmClosure completes a pending_closure mission. Only the
// counterpart of the closure initiator may confirm; the check is by
// party, not user id, so any approved org member can confirm for the org.
func (s *Service) ConfirmClosure(ctx context.Context, missionID, confirmerID uuid.UUID) (*models.Mission, error) {
	m, err := s.store.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MissionPendingClosure || m.ClosureInitiatorID == nil {
		return nil, ErrInvalidTransition
	}
	party, err := s.PartyOf(ctx, m, confirmerID)
	if err != nil {
		return nil, err
	}
	// The initiator's party is derived from the accepted application, not
	// membership: an initiator who has since left the org still counts as
	// the organization side.
	initiatorParty := PartyOrganization
	if app, err := s.store.AcceptedApplication(ctx, m.ID); err == nil && app.VolunteerID == *m.ClosureInitiatorID {
		initiatorParty = PartyVolunteer
	}
	if party == initiatorParty {
		return nil, ErrNotAuthorized
	}
	// Complete only against the initiator just validated. If a dispute
	// and a re-proposal slipped in, the initiator changed and this
	// confirm must lose rather than complete the other side's proposal.
	ok, err := s.store.MarkCompleted(ctx, missionID, *m.ClosureInitiatorID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	s.notify(ctx, *m.ClosureInitiatorID,
		"Closure of \""+m.Title+"\" was confirmed. The mission is completed. You can now rate your counterpart.",
		missionLink(m.ID))
	return s.store.GetMission(ctx, missionID)
}

// DisputeClosure returns a pending_closure mission to in_progress and
// fully resets the negotiation: the initiator fields are cleared, so a
// later proposal may record a different initiator. The original
// initiator is notified.
func (s *Service) DisputeClosure(ctx context.Context, missionID, disputerID uuid.UUID) (*models.Mission, error) {
	m, err := s.store.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MissionPendingClosure || m.ClosureInitiatorID == nil {
		return nil, ErrInvalidTransition
	}
	if _, err := s.PartyOf(ctx, m, disputerID); err != nil {
		return nil, err
	}
	initiatorID := *m.ClosureInitiatorID
	ok, err := s.store.ReopenFromPendingClosure(ctx, missionID, initiatorID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	s.notify(ctx, initiatorID,
		"Your closure proposal for \""+m.Title+"\" was disputed. The mission is back in progress.",
		missionLink(m.ID))
	return s.store.GetMission(ctx, missionID)
}

// CancelMission cancels an open mission (no accepted volunteer yet) on
// behalf of the owning organization.
func (s *Service) CancelMission(ctx context.Context, missionID, userID uuid.UUID) (*models.Mission, error) {
	m, err := s.store.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	member, err := s.store.IsApprovedOrgMember(ctx, m.OrganizationID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotAuthorized
	}
	ok, err := s.store.CancelOpenMission(ctx, missionID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	return s.store.GetMission(ctx, missionID)
}

// RunEnforcementSweep force-completes every mission that has sat in
// pending_closure for longer than ClosureWindow. One batch conditional
// update; re-running is a no-op for missions already transitioned out.
// Returns the IDs of missions closed by this run.
func (s *Service) RunEnforcementSweep(ctx context.Context) ([]uuid.UUID, error) {
	window := s.Window
	if window <= 0 {
		window = ClosureWindow
	}
	now := s.now()
	ids, err := s.store.ExpirePendingClosures(ctx, now.Add(-window), now)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		s.logger.Info("enforcement sweep closed missions", zap.Int("count", len(ids)))
	}
	return ids, nil
}

// NotifyAutoClosed informs both parties of missions the sweep closed.
// Best-effort: failures are logged and never surfaced to the sweep.
func (s *Service) NotifyAutoClosed(ctx context.Context, missionIDs []uuid.UUID) {
	for _, id := range missionIDs {
		m, err := s.store.GetMission(ctx, id)
		if err != nil {
			s.logger.Warn("auto-close notify: load mission", zap.String("mission_id", id.String()), zap.Error(err))
			continue
		}
		msg := "\"" + m.Title + "\" was automatically completed after 3 days without a response to the closure proposal."
		if app, err := s.store.AcceptedApplication(ctx, id); err == nil {
			s.notify(ctx, app.VolunteerID, msg, missionLink(id))
		}
		members, err := s.store.ApprovedOrgMemberIDs(ctx, m.OrganizationID)
		if err != nil {
			s.logger.Warn("auto-close notify: load members", zap.String("mission_id", id.String()), zap.Error(err))
			continue
		}
		for _, uid := range members {
			s.notify(ctx, uid, msg, missionLink(id))
		}
	}
}

// notifyCounterpart notifies the party opposite to from: the accepted
// volunteer when the org acted, every approved org member otherwise.
func (s *Service) notifyCounterpart(ctx context.Context, m *models.Mission, from Party, message, link string) {
	if from == PartyOrganization {
		app, err := s.store.AcceptedApplication(ctx, m.ID)
		if err != nil {
			s.logger.Warn("notify counterpart: no accepted volunteer", zap.String("mission_id", m.ID.String()), zap.Error(err))
			return
		}
		s.notify(ctx, app.VolunteerID, message, link)
		return
	}
	members, err := s.store.ApprovedOrgMemberIDs(ctx, m.OrganizationID)
	if err != nil {
		s.logger.Warn("notify counterpart: load members", zap.String("mission_id", m.ID.String()), zap.Error(err))
		return
	}
	for _, uid := range members {
		s.notify(ctx, uid, message, link)
	}
}

func (s *Service) notify(ctx context.Context, recipientID uuid.UUID, message, link string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, recipientID, message, link)
}

func missionLink(id uuid.UUID) string {
	return "/missions/" + id.String()
}
