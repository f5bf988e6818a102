package memory

import (
	"biteswipe/internal/model"
	"biteswipe/internal/repository"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// SessionRepo keeps sessions in process. Every conditional method evaluates
// its predicate and applies its update under one lock, which gives the same
// per-document compare-and-swap behaviour as the Mongo store.
type SessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

var _ repository.SessionRepo = (*SessionRepo)(nil)

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{
		sessions: make(map[string]*model.Session),
	}
}

func (r *SessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return fmt.Errorf("duplicate session id %s", session.ID)
	}
	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *SessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (r *SessionRepo) GetByJoinCode(_ context.Context, joinCode string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *model.Session
	for _, s := range r.sessions {
		if s.JoinCode != joinCode {
			continue
		}
		if s.Status != model.SessionCompleted {
			return s.Clone(), nil
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	return latest.Clone(), nil
}

func (r *SessionRepo) JoinCodeInUse(_ context.Context, joinCode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.activeByCode(joinCode) != nil, nil
}

func (r *SessionRepo) ListActiveByUser(_ context.Context, userID string) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Session
	for _, s := range r.sessions {
		if s.Status != model.SessionCompleted && s.Involves(userID) {
			out = append(out, s.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *SessionRepo) ListExpired(_ context.Context, now time.Time) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Session
	for _, s := range r.sessions {
		expired := s.Status != model.SessionCompleted && !s.ExpiresAt.After(now)
		unrecorded := s.Status == model.SessionCompleted && s.FinalSelection == nil
		if expired || unrecorded {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (r *SessionRepo) AddInvitation(_ context.Context, id, inviterID, userID string) (*model.Session, error) {
	return r.update(id, func(s *model.Session) bool {
		if s.Status == model.SessionCompleted || !s.IsParticipant(inviterID) || s.IsParticipant(userID) || s.IsInvited(userID) {
			return false
		}
		s.PendingInvitations = append(s.PendingInvitations, userID)
		s.DoneSwiping = addToSet(s.DoneSwiping, userID)
		return true
	})
}

func (r *SessionRepo) AcceptInvitation(_ context.Context, joinCode, userID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.activeByCode(joinCode)
	if s == nil || !s.IsInvited(userID) || s.IsParticipant(userID) {
		return nil, nil
	}
	s.PendingInvitations = pull(s.PendingInvitations, userID)
	s.Participants = append(s.Participants, model.Participant{UserID: userID, Preferences: []model.Preference{}})
	return s.Clone(), nil
}

func (r *SessionRepo) DeclineInvitation(_ context.Context, id, userID string) (*model.Session, error) {
	return r.update(id, func(s *model.Session) bool {
		if s.Status == model.SessionCompleted || !s.IsInvited(userID) {
			return false
		}
		s.PendingInvitations = pull(s.PendingInvitations, userID)
		s.DoneSwiping = pull(s.DoneSwiping, userID)
		return true
	})
}

func (r *SessionRepo) RemoveParticipant(_ context.Context, id, userID string) (*model.Session, error) {
	return r.update(id, func(s *model.Session) bool {
		if s.Status == model.SessionCompleted || s.Creator == userID || !s.IsParticipant(userID) {
			return false
		}
		kept := s.Participants[:0]
		for _, p := range s.Participants {
			if p.UserID != userID {
				kept = append(kept, p)
			}
		}
		s.Participants = kept
		s.DoneSwiping = pull(s.DoneSwiping, userID)
		return true
	})
}

func (r *SessionRepo) AppendPreference(_ context.Context, id, userID string, pref model.Preference) (*model.Session, error) {
	return r.update(id, func(s *model.Session) bool {
		if s.Status != model.SessionMatching || !s.HasCandidate(pref.CandidateID) {
			return false
		}
		p := s.Participant(userID)
		if p == nil || s.HasVoted(userID, pref.CandidateID) {
			return false
		}
		p.Preferences = append(p.Preferences, pref)
		return true
	})
}

func (r *SessionRepo) MarkDoneSwiping(_ context.Context, id, userID string) (*model.Session, error) {
	return r.update(id, func(s *model.Session) bool {
		if s.Status != model.SessionMatching || !s.IsParticipant(userID) {
			return false
		}
		s.DoneSwiping = pull(s.DoneSwiping, userID)
		return true
	})
}

func (r *SessionRepo) Start(_ context.Context, id, creatorID string, startedAt, deadline time.Time) (*model.Session, error) {
	return r.update(id, func(s *model.Session) bool {
		if s.Creator != creatorID || s.Status != model.SessionCreated {
			return false
		}
		s.Status = model.SessionMatching
		s.StartedAt = &startedAt
		if deadline.Before(s.ExpiresAt) {
			s.ExpiresAt = deadline
		}
		return true
	})
}

func (r *SessionRepo) MarkCompleted(_ context.Context, id string, completedAt time.Time) (*model.Session, error) {
	return r.update(id, func(s *model.Session) bool {
		if s.Status == model.SessionCompleted {
			return false
		}
		s.Status = model.SessionCompleted
		s.CompletedAt = &completedAt
		return true
	})
}

func (r *SessionRepo) RecordResult(_ context.Context, id string, candidates []model.Candidate, selection model.FinalSelection) (*model.Session, error) {
	return r.update(id, func(s *model.Session) bool {
		if s.Status != model.SessionCompleted || s.FinalSelection != nil {
			return false
		}
		s.Candidates = append([]model.Candidate{}, candidates...)
		s.FinalSelection = &selection
		return true
	})
}

// update applies fn to the stored session under the lock; fn reports whether
// its predicate held. fn must not mutate the session when it returns false.
func (r *SessionRepo) update(id string, fn func(s *model.Session) bool) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || !fn(s) {
		return nil, nil
	}
	return s.Clone(), nil
}

func (r *SessionRepo) activeByCode(joinCode string) *model.Session {
	for _, s := range r.sessions {
		if s.JoinCode == joinCode && s.Status != model.SessionCompleted {
			return s
		}
	}
	return nil
}

func addToSet(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func pull(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
