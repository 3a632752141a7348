package services

import (
	"github.com/tenantly/rewards-server/models"
)

// ValidateAnswer checks submitted option keys against a question and returns
// them unchanged on success. It is pure: no database access, no mutation.
//
// single   → exactly one key.
// multiple → at least one key, no duplicates.
// Every key must match an option key on the question, case-sensitively.
func ValidateAnswer(q *models.FeedbackQuestion, keys []string) ([]string, error) {
	switch q.AnswerType {
	case models.AnswerTypeSingle:
		if len(keys) != 1 {
			return nil, ErrInvalidAnswerCount
		}
	case models.AnswerTypeMultiple:
		if len(keys) == 0 {
			return nil, ErrInvalidAnswerCount
		}
		seen := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				return nil, ErrDuplicateAnswer
			}
			seen[k] = struct{}{}
		}
	default:
		return nil, ErrInvalidAnswerCount
	}

	known := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		known[opt.Key] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := known[k]; !ok {
			return nil, &UnknownOptionKeyError{Key: k}
		}
	}
	return keys, nil
}
