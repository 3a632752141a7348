package services

import (
	"github.com/tenantly/rewards-server/models"
)

// RewardCalculator computes earned amounts for a session. The payout is flat
// per answered question; per-option scores feed analytics only.
type RewardCalculator struct{}

// StartingTotal is the accrued amount when a session becomes available.
func (RewardCalculator) StartingTotal(s *models.Survey) int64 {
	return s.StartPointsCents
}

// Increment is the amount earned for one answered question, regardless of
// which options were chosen.
func (RewardCalculator) Increment(s *models.Survey, selected []string) int64 {
	return s.PointsPerAnswerCents
}

// CompletedTotal is what a fully answered survey pays out.
func (RewardCalculator) CompletedTotal(s *models.Survey, answered int) int64 {
	return s.StartPointsCents + s.PointsPerAnswerCents*int64(answered)
}
