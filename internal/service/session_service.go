package service

import (
	"biteswipe/internal/cache"
	"biteswipe/internal/model"
	"biteswipe/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	DefaultSessionTTL       = 24 * time.Hour
	DefaultMatchingDuration = 10 * time.Minute
)

// Completion triggers, used as metric labels and in logs
const (
	triggerDoneSwiping = "done_swiping"
	triggerResult      = "result_request"
	triggerExpiry      = "expiry"
	triggerDrained     = "drained"
)

// SessionOptions tunes session lifetimes
type SessionOptions struct {
	SessionTTL       time.Duration
	MatchingDuration time.Duration
	JoinCodeAttempts int
}

// SessionService coordinates the session lifecycle.
//
// Every mutation is one conditional update against the store. When the store
// reports no match the session is re-read to name the precise cause; the
// update is never split into a read followed by an unconditional write.
type SessionService struct {
	sessions repository.SessionRepo
	catalog  Catalog
	users    IdentityStore
	codes    *JoinCodeGenerator
	log      *zap.Logger

	cache     cache.SessionCache
	notifier  Notifier
	scheduler Scheduler

	sessionTTL       time.Duration
	matchingDuration time.Duration
	now              func() time.Time
	newID            func() string
}

// NewSessionService creates the coordinator
func NewSessionService(
	sessions repository.SessionRepo,
	catalog Catalog,
	users IdentityStore,
	log *zap.Logger,
	opts SessionOptions,
) *SessionService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.MatchingDuration <= 0 {
		opts.MatchingDuration = DefaultMatchingDuration
	}
	return &SessionService{
		sessions:         sessions,
		catalog:          catalog,
		users:            users,
		codes:            NewJoinCodeGenerator(sessions.JoinCodeInUse, opts.JoinCodeAttempts),
		log:              log,
		sessionTTL:       opts.SessionTTL,
		matchingDuration: opts.MatchingDuration,
		now:              time.Now,
		newID:            func() string { return primitive.NewObjectID().Hex() },
	}
}

// SetCache sets the read snapshot cache
func (s *SessionService) SetCache(c cache.SessionCache) {
	s.cache = c
}

// SetNotifier sets the notifier for invites and completions
func (s *SessionService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetScheduler sets the scheduler arming forced completions
func (s *SessionService) SetScheduler(sch Scheduler) {
	s.scheduler = sch
}

// CreateSession opens a session owned by creatorID over the restaurants near settings.Location
func (s *SessionService) CreateSession(ctx context.Context, creatorID string, settings model.SessionSettings) (session *model.Session, err error) {
	defer observe("create_session", time.Now(), &err)

	if !validSettings(settings) {
		return nil, ErrInvalidSettings
	}
	if err := s.requireUser(ctx, creatorID); err != nil {
		return nil, err
	}

	restaurants, err := s.catalog.FetchCandidates(ctx, settings.Location, settings.Radius)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch restaurants: %w", err)
	}
	if len(restaurants) == 0 {
		return nil, ErrNoCandidates
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate join code: %w", err)
	}

	now := s.now()
	candidates := make([]model.Candidate, len(restaurants))
	for i, r := range restaurants {
		candidates[i] = model.Candidate{CandidateID: r.ID}
	}
	session = &model.Session{
		ID:                 s.newID(),
		Creator:            creatorID,
		JoinCode:           code,
		Status:             model.SessionCreated,
		Settings:           settings,
		Candidates:         candidates,
		Participants:       []model.Participant{{UserID: creatorID, Preferences: []model.Preference{}}},
		PendingInvitations: []string{},
		DoneSwiping:        []string{creatorID},
		CreatedAt:          now,
		ExpiresAt:          now.Add(s.sessionTTL),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.schedule(session.ID, session.ExpiresAt)
	s.remember(ctx, session)
	s.log.Info("session created",
		zap.String("sessionId", session.ID),
		zap.String("creator", creatorID),
		zap.String("joinCode", code),
		zap.Int("candidates", len(candidates)),
	)
	return session, nil
}

// InviteParticipant lets a participant invite userID and notifies them with
// the inviter's display name
func (s *SessionService) InviteParticipant(ctx context.Context, sessionID, inviterID, userID string) (session *model.Session, err error) {
	defer observe("invite_participant", time.Now(), &err)

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	session, err = s.sessions.AddInvitation(ctx, sessionID, inviterID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to invite user: %w", err)
	}
	if session == nil {
		return nil, s.diagnose(ctx, sessionID, func(cur *model.Session) error {
			switch {
			case cur.Status == model.SessionCompleted:
				return ErrSessionCompleted
			case !cur.IsParticipant(inviterID):
				return ErrNotMember
			case cur.IsParticipant(userID):
				return ErrAlreadyParticipant
			case cur.IsInvited(userID):
				return ErrAlreadyInvited
			}
			return nil
		})
	}

	s.remember(ctx, session)
	s.notifyInvite(ctx, session, inviterID, userID)
	return session, nil
}

// JoinSession accepts userID's pending invitation to the session holding joinCode
func (s *SessionService) JoinSession(ctx context.Context, joinCode, userID string) (session *model.Session, err error) {
	defer observe("join_session", time.Now(), &err)

	session, err = s.sessions.AcceptInvitation(ctx, joinCode, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to join session: %w", err)
	}
	if session != nil {
		s.remember(ctx, session)
		return session, nil
	}

	cur, err := s.sessions.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	switch {
	case cur == nil:
		return nil, ErrSessionNotFound
	case cur.Status == model.SessionCompleted:
		return nil, ErrSessionCompleted
	case cur.IsParticipant(userID):
		return nil, ErrAlreadyParticipant
	case !cur.IsInvited(userID):
		return nil, ErrNotInvited
	}
	return nil, ErrConcurrentUpdate
}

// RejectInvitation drops userID's pending invitation
func (s *SessionService) RejectInvitation(ctx context.Context, sessionID, userID string) (session *model.Session, err error) {
	defer observe("reject_invitation", time.Now(), &err)

	session, err = s.sessions.DeclineInvitation(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject invitation: %w", err)
	}
	if session == nil {
		return nil, s.diagnose(ctx, sessionID, func(cur *model.Session) error {
			switch {
			case cur.Status == model.SessionCompleted:
				return ErrSessionCompleted
			case cur.IsParticipant(userID):
				return ErrAlreadyParticipant
			case !cur.IsInvited(userID):
				return ErrNotInvited
			}
			return nil
		})
	}

	return s.completeIfDrained(ctx, session)
}

// LeaveSession removes a non-creator participant
func (s *SessionService) LeaveSession(ctx context.Context, sessionID, userID string) (session *model.Session, err error) {
	defer observe("leave_session", time.Now(), &err)

	session, err = s.sessions.RemoveParticipant(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to leave session: %w", err)
	}
	if session == nil {
		return nil, s.diagnose(ctx, sessionID, func(cur *model.Session) error {
			switch {
			case cur.Creator == userID:
				return ErrCreatorCannotLeave
			case cur.Status == model.SessionCompleted:
				return ErrSessionCompleted
			case !cur.IsParticipant(userID):
				return ErrNotParticipant
			}
			return nil
		})
	}

	return s.completeIfDrained(ctx, session)
}

// SessionSwiped records userID's vote on candidateID. A (user, candidate) pair is recorded at most once.
func (s *SessionService) SessionSwiped(ctx context.Context, sessionID, userID, candidateID string, liked bool) (session *model.Session, err error) {
	defer observe("session_swiped", time.Now(), &err)

	pref := model.Preference{CandidateID: candidateID, Liked: liked, Timestamp: s.now()}
	session, err = s.sessions.AppendPreference(ctx, sessionID, userID, pref)
	if err != nil {
		return nil, fmt.Errorf("failed to record swipe: %w", err)
	}
	if session == nil {
		return nil, s.diagnose(ctx, sessionID, func(cur *model.Session) error {
			switch {
			case cur.HasVoted(userID, candidateID):
				return ErrAlreadyVoted
			case cur.Status == model.SessionCompleted:
				return ErrSessionCompleted
			case cur.Status != model.SessionMatching:
				return ErrSessionNotMatching
			case !cur.IsParticipant(userID):
				return ErrNotParticipant
			case !cur.HasCandidate(candidateID):
				return ErrCandidateNotFound
			}
			return nil
		})
	}

	s.remember(ctx, session)
	return session, nil
}

// UserDoneSwiping marks userID as finished; the last one to finish completes the session
func (s *SessionService) UserDoneSwiping(ctx context.Context, sessionID, userID string) (session *model.Session, err error) {
	defer observe("user_done_swiping", time.Now(), &err)

	session, err = s.sessions.MarkDoneSwiping(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark done swiping: %w", err)
	}
	if session == nil {
		return nil, s.diagnose(ctx, sessionID, func(cur *model.Session) error {
			switch {
			case cur.Status == model.SessionCompleted:
				return ErrSessionCompleted
			case cur.Status != model.SessionMatching:
				return ErrSessionNotMatching
			case !cur.IsParticipant(userID):
				return ErrNotParticipant
			}
			return nil
		})
	}

	if len(session.DoneSwiping) == 0 {
		return s.complete(ctx, sessionID, triggerDoneSwiping)
	}
	s.remember(ctx, session)
	return session, nil
}

// StartSession opens voting. durationMinutes <= 0 uses the default matching
// duration. Voting is force-closed when the duration elapses.
func (s *SessionService) StartSession(ctx context.Context, sessionID, userID string, durationMinutes int) (session *model.Session, err error) {
	defer observe("start_session", time.Now(), &err)

	duration := s.matchingDuration
	if durationMinutes > 0 {
		duration = time.Duration(durationMinutes) * time.Minute
	}

	now := s.now()
	session, err = s.sessions.Start(ctx, sessionID, userID, now, now.Add(duration))
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if session == nil {
		return nil, s.diagnose(ctx, sessionID, func(cur *model.Session) error {
			switch {
			case cur.Creator != userID:
				return ErrNotCreator
			case cur.Status != model.SessionCreated:
				return ErrSessionNotCreated
			}
			return nil
		})
	}

	s.schedule(sessionID, session.ExpiresAt)
	s.remember(ctx, session)
	s.log.Info("session started",
		zap.String("sessionId", sessionID),
		zap.Duration("duration", duration),
		zap.Time("expiresAt", session.ExpiresAt),
	)
	return session, nil
}

// GetResultForSession returns the winning restaurant. A MATCHING session whose
// participants are all done is completed first. Repeated calls return the
// recorded selection without re-tallying.
func (s *SessionService) GetResultForSession(ctx context.Context, sessionID string) (restaurant *model.Restaurant, err error) {
	defer observe("get_result", time.Now(), &err)

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch {
	case session.Status == model.SessionCompleted && session.FinalSelection != nil:
	case session.Status == model.SessionCompleted,
		session.Status == model.SessionMatching && len(session.DoneSwiping) == 0:
		session, err = s.complete(ctx, sessionID, triggerResult)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrResultNotReady
	}

	restaurant, err = s.catalog.FetchCandidate(ctx, session.FinalSelection.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, ErrCandidateNotFound
	}
	return restaurant, nil
}

// ForceComplete completes the session if it is not already. It is safe to
// call any number of times; timers and the expiry sweep both use it.
func (s *SessionService) ForceComplete(ctx context.Context, sessionID string) (session *model.Session, err error) {
	defer observe("force_complete", time.Now(), &err)

	session, err = s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted && session.FinalSelection != nil {
		return session, nil
	}
	return s.complete(ctx, sessionID, triggerExpiry)
}

// SweepExpired force-completes every open session past its expiry, records
// the result of completed sessions left without one, and returns how many it
// handled. It keeps going past individual failures.
func (s *SessionService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.sessions.ListExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired sessions: %w", err)
	}

	var errs []error
	completed := 0
	for _, session := range expired {
		if _, err := s.ForceComplete(ctx, session.ID); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", session.ID, err))
			continue
		}
		completed++
	}
	return completed, errors.Join(errs...)
}

// GetUserSessions lists the open sessions userID created, joined or was invited to, newest first
func (s *SessionService) GetUserSessions(ctx context.Context, userID string) (sessions []*model.Session, err error) {
	defer observe("get_user_sessions", time.Now(), &err)

	sessions, err = s.sessions.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []*model.Session{}
	}
	return sessions, nil
}

// GetSession returns a session snapshot, possibly from the cache
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (session *model.Session, err error) {
	defer observe("get_session", time.Now(), &err)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, sessionID)
		if err != nil {
			s.log.Warn("session cache read failed", zap.String("sessionId", sessionID), zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	session, err = s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, session)
	return session, nil
}

// GetSessionRestaurants returns the catalog records of the session's
// candidates, in session order, to its creator or participants
func (s *SessionService) GetSessionRestaurants(ctx context.Context, sessionID, userID string) (restaurants []*model.Restaurant, err error) {
	defer observe("get_session_restaurants", time.Now(), &err)

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Creator != userID && !session.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}

	restaurants = make([]*model.Restaurant, 0, len(session.Candidates))
	for _, c := range session.Candidates {
		r, err := s.catalog.FetchCandidate(ctx, c.CandidateID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch restaurant %s: %w", c.CandidateID, err)
		}
		if r == nil {
			s.log.Warn("restaurant missing from catalog",
				zap.String("sessionId", sessionID),
				zap.String("restaurantId", c.CandidateID),
			)
			continue
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, nil
}

// complete moves the session to COMPLETED and records its result. Losing a
// race to another completer is not an error: the stored outcome is returned.
func (s *SessionService) complete(ctx context.Context, sessionID, trigger string) (*model.Session, error) {
	session, err := s.sessions.MarkCompleted(ctx, sessionID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	if session != nil {
		sessionsCompleted.WithLabelValues(trigger).Inc()
		s.log.Info("session completed", zap.String("sessionId", sessionID), zap.String("trigger", trigger))
	} else {
		if session, err = s.load(ctx, sessionID); err != nil {
			return nil, err
		}
		if session.Status != model.SessionCompleted {
			return nil, ErrConcurrentUpdate
		}
	}

	s.unschedule(sessionID)

	if session.FinalSelection != nil {
		s.remember(ctx, session)
		return session, nil
	}
	return s.recordResult(ctx, session)
}

// recordResult tallies a COMPLETED session. Completed sessions no longer
// change, so concurrent callers compute the same winner and only the first
// write is kept.
func (s *SessionService) recordResult(ctx context.Context, session *model.Session) (*model.Session, error) {
	candidates, winner, ok := Tally(session)
	if !ok {
		return nil, ErrNoCandidates
	}

	selection := model.FinalSelection{CandidateID: winner.CandidateID, SelectedAt: s.now()}
	updated, err := s.sessions.RecordResult(ctx, session.ID, candidates, selection)
	if err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}
	if updated == nil {
		return s.load(ctx, session.ID)
	}

	s.remember(ctx, updated)
	s.notifyCompleted(ctx, updated)
	return updated, nil
}

func (s *SessionService) completeIfDrained(ctx context.Context, session *model.Session) (*model.Session, error) {
	if session.Status == model.SessionMatching && len(session.DoneSwiping) == 0 {
		return s.complete(ctx, session.ID, triggerDrained)
	}
	s.remember(ctx, session)
	return session, nil
}

// diagnose re-reads a session after a rejected conditional update. classify
// returns nil when the current state would have satisfied the predicate.
func (s *SessionService) diagnose(ctx context.Context, sessionID string, classify func(cur *model.Session) error) error {
	cur, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := classify(cur); err != nil {
		return err
	}
	return ErrConcurrentUpdate
}

func (s *SessionService) load(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) requireUser(ctx context.Context, userID string) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

func (s *SessionService) schedule(sessionID string, at time.Time) {
	if s.scheduler != nil {
		s.scheduler.Schedule(sessionID, at)
	}
}

func (s *SessionService) unschedule(sessionID string) {
	if s.scheduler != nil {
		s.scheduler.Cancel(sessionID)
	}
}

func (s *SessionService) remember(ctx context.Context, session *model.Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, session); err != nil {
		s.log.Warn("session cache write failed", zap.String("sessionId", session.ID), zap.Error(err))
	}
}

func (s *SessionService) notifyInvite(ctx context.Context, session *model.Session, inviterID, userID string) {
	if s.notifier == nil {
		return
	}
	name, ok, err := s.users.GetDisplayName(ctx, inviterID)
	if err != nil {
		s.log.Warn("inviter display name lookup failed", zap.String("sessionId", session.ID), zap.Error(err))
	}
	if !ok || name == "" {
		name = "Someone"
	}
	s.notify(ctx, userID, fmt.Sprintf("%s invited you to a BiteSwipe session", name), map[string]interface{}{
		"type":      NotificationSessionInvite,
		"sessionId": session.ID,
		"joinCode":  session.JoinCode,
		"inviter":   name,
	})
}

func (s *SessionService) notifyCompleted(ctx context.Context, session *model.Session) {
	if s.notifier == nil {
		return
	}
	for _, p := range session.Participants {
		s.notify(ctx, p.UserID, "Your BiteSwipe session has a winner", map[string]interface{}{
			"type":         NotificationSessionCompleted,
			"sessionId":    session.ID,
			"restaurantId": session.FinalSelection.CandidateID,
		})
	}
}

func (s *SessionService) notify(ctx context.Context, userID, message string, payload map[string]interface{}) {
	if err := s.notifier.Notify(ctx, userID, message, payload); err != nil {
		s.log.Warn("notification failed", zap.String("userId", userID), zap.Error(err))
	}
}

func validSettings(settings model.SessionSettings) bool {
	loc := settings.Location
	return settings.Radius > 0 &&
		loc.Latitude >= -90 && loc.Latitude <= 90 &&
		loc.Longitude >= -180 && loc.Longitude <= 180
}
