package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/tenantly/rewards-server/models"
)

func questionWithOptions(answerType string, keys ...string) *models.FeedbackQuestion {
	q := &models.FeedbackQuestion{AnswerType: answerType}
	for i, k := range keys {
		q.Options = append(q.Options, models.FeedbackOption{Key: k, Ordinal: i})
	}
	return q
}

func TestValidateSingleExactlyOne(t *testing.T) {
	q := questionWithOptions(models.AnswerTypeSingle, "a", "b")

	if _, err := ValidateAnswer(q, nil); !errors.Is(err, ErrInvalidAnswerCount) {
		t.Fatalf("empty single: got %v, want ErrInvalidAnswerCount", err)
	}
	if _, err := ValidateAnswer(q, []string{"a", "b"}); !errors.Is(err, ErrInvalidAnswerCount) {
		t.Fatalf("two keys on single: got %v, want ErrInvalidAnswerCount", err)
	}
	keys, err := ValidateAnswer(q, []string{"a"})
	if err != nil {
		t.Fatalf("valid single: %v", err)
	}
	if len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestValidateMultiple(t *testing.T) {
	q := questionWithOptions(models.AnswerTypeMultiple, "a", "b", "c")

	if _, err := ValidateAnswer(q, []string{}); !errors.Is(err, ErrInvalidAnswerCount) {
		t.Fatalf("empty multiple: got %v, want ErrInvalidAnswerCount", err)
	}
	if _, err := ValidateAnswer(q, []string{"a", "a"}); !errors.Is(err, ErrDuplicateAnswer) {
		t.Fatalf("duplicate: got %v, want ErrDuplicateAnswer", err)
	}
	keys, err := ValidateAnswer(q, []string{"a", "c"})
	if err != nil {
		t.Fatalf("valid multiple: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestValidateUnknownKeyNamesOffender(t *testing.T) {
	q := questionWithOptions(models.AnswerTypeSingle, "a", "b")

	_, err := ValidateAnswer(q, []string{"nope"})
	if !errors.Is(err, ErrUnknownOptionKey) {
		t.Fatalf("got %v, want ErrUnknownOptionKey", err)
	}
	if !strings.Contains(err.Error(), `"nope"`) {
		t.Fatalf("error should name the key: %v", err)
	}
}

func TestValidateKeysAreCaseSensitive(t *testing.T) {
	q := questionWithOptions(models.AnswerTypeSingle, "Yes")

	if _, err := ValidateAnswer(q, []string{"yes"}); !errors.Is(err, ErrUnknownOptionKey) {
		t.Fatalf("case-insensitive match accepted: %v", err)
	}
	if _, err := ValidateAnswer(q, []string{"Yes"}); err != nil {
		t.Fatalf("exact match rejected: %v", err)
	}
}

func TestValidateUnknownAnswerType(t *testing.T) {
	q := questionWithOptions("rating", "a")
	if _, err := ValidateAnswer(q, []string{"a"}); !errors.Is(err, ErrInvalidAnswerCount) {
		t.Fatalf("got %v, want ErrInvalidAnswerCount", err)
	}
}
