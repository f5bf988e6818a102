package model

import "time"

type SessionStatus string

const (
	SessionCreated   SessionStatus = "CREATED"
	SessionMatching  SessionStatus = "MATCHING"
	SessionCompleted SessionStatus = "COMPLETED"
)

// Location is a WGS84 point.
type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// SessionSettings are the search criteria used to populate candidates
type SessionSettings struct {
	Location Location `json:"location" bson:"location"`
	Radius   float64  `json:"radius" bson:"radius"` // meters
}

// Candidate is a restaurant under vote within a session
type Candidate struct {
	CandidateID   string  `json:"candidateId" bson:"candidateId"`
	Score         float64 `json:"score" bson:"score"`
	TotalVotes    int     `json:"totalVotes" bson:"totalVotes"`
	PositiveVotes int     `json:"positiveVotes" bson:"positiveVotes"`
}

// Preference is a single swipe
type Preference struct {
	CandidateID string    `json:"candidateId" bson:"candidateId"`
	Liked       bool      `json:"liked" bson:"liked"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// Participant is a user who joined the session and may vote
type Participant struct {
	UserID      string       `json:"userId" bson:"userId"`
	Preferences []Preference `json:"preferences" bson:"preferences"`
}

// FinalSelection is the winning candidate, recorded once on completion
type FinalSelection struct {
	CandidateID string    `json:"candidateId" bson:"candidateId"`
	SelectedAt  time.Time `json:"selectedAt" bson:"selectedAt"`
}

// Session is one run of the group decision process
type Session struct {
	ID                 string          `json:"id" bson:"_id"`
	Creator            string          `json:"creator" bson:"creator"`
	JoinCode           string          `json:"joinCode" bson:"joinCode"`
	Status             SessionStatus   `json:"status" bson:"status"`
	Settings           SessionSettings `json:"settings" bson:"settings"`
	Candidates         []Candidate     `json:"candidates" bson:"candidates"`
	Participants       []Participant   `json:"participants" bson:"participants"`
	PendingInvitations []string        `json:"pendingInvitations" bson:"pendingInvitations"`
	DoneSwiping        []string        `json:"doneSwiping" bson:"doneSwiping"`
	FinalSelection     *FinalSelection `json:"finalSelection,omitempty" bson:"finalSelection,omitempty"`
	CreatedAt          time.Time       `json:"createdAt" bson:"createdAt"`
	ExpiresAt          time.Time       `json:"expiresAt" bson:"expiresAt"`
	StartedAt          *time.Time      `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// Participant returns the participant entry for userID, or nil.
func (s *Session) Participant(userID string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].UserID == userID {
			return &s.Participants[i]
		}
	}
	return nil
}

func (s *Session) IsParticipant(userID string) bool {
	return s.Participant(userID) != nil
}

func (s *Session) IsInvited(userID string) bool {
	return contains(s.PendingInvitations, userID)
}

func (s *Session) IsDoneSwipingPending(userID string) bool {
	return contains(s.DoneSwiping, userID)
}

func (s *Session) HasCandidate(candidateID string) bool {
	for _, c := range s.Candidates {
		if c.CandidateID == candidateID {
			return true
		}
	}
	return false
}

// HasVoted reports whether userID already recorded a preference for candidateID.
func (s *Session) HasVoted(userID, candidateID string) bool {
	p := s.Participant(userID)
	if p == nil {
		return false
	}
	for _, pref := range p.Preferences {
		if pref.CandidateID == candidateID {
			return true
		}
	}
	return false
}

// Involves reports whether userID is the creator, a participant or a pending invitee.
func (s *Session) Involves(userID string) bool {
	return s.Creator == userID || s.IsParticipant(userID) || s.IsInvited(userID)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Candidates = append([]Candidate{}, s.Candidates...)
	c.PendingInvitations = append([]string{}, s.PendingInvitations...)
	c.DoneSwiping = append([]string{}, s.DoneSwiping...)
	c.Participants = make([]Participant, len(s.Participants))
	for i, p := range s.Participants {
		c.Participants[i] = Participant{
			UserID:      p.UserID,
			Preferences: append([]Preference{}, p.Preferences...),
		}
	}
	if s.FinalSelection != nil {
		fs := *s.FinalSelection
		c.FinalSelection = &fs
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
