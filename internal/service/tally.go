package service

import "biteswipe/internal/model"

// Tally scores every candidate against the session's current participants and
// picks the winner.
//
// positiveVotes counts participants who liked the candidate, totalVotes is the
// participant count and score is their ratio (0 with no participants). The
// winner has the strictly highest positiveVotes; ties go to the candidate
// listed first in the session's stored order. ok is false only when the
// session has no candidates.
func Tally(s *model.Session) (candidates []model.Candidate, winner model.Candidate, ok bool) {
	liked := make(map[string]int, len(s.Candidates))
	for _, p := range s.Participants {
		for _, pref := range p.Preferences {
			if pref.Liked {
				liked[pref.CandidateID]++
			}
		}
	}

	total := len(s.Participants)
	candidates = make([]model.Candidate, len(s.Candidates))
	best := -1
	for i, c := range s.Candidates {
		c.PositiveVotes = liked[c.CandidateID]
		c.TotalVotes = total
		c.Score = 0
		if total > 0 {
			c.Score = float64(c.PositiveVotes) / float64(total)
		}
		candidates[i] = c

		if best < 0 || c.PositiveVotes > candidates[best].PositiveVotes {
			best = i
		}
	}

	if best < 0 {
		return candidates, model.Candidate{}, false
	}
	return candidates, candidates[best], true
}
