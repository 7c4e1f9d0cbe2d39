package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brainbrawl/internal/model"
	"brainbrawl/internal/repository"
)

// ErrInsufficientQuestions means the bank cannot fill a batch for the
// requested category. The affected room degrades; nothing else does.
var ErrInsufficientQuestions = errors.New("not enough questions available")

// QuestionService is the Question Source: it draws random batches from the
// bank and normalizes stored documents into the canonical Question form.
type QuestionService struct {
	repo repository.QuestionRepo
}

func NewQuestionService(repo repository.QuestionRepo) *QuestionService {
	return &QuestionService{repo: repo}
}

// Fetch returns an ordered batch of count questions for the category filter.
func (s *QuestionService) Fetch(ctx context.Context, count int, category string) ([]model.Question, error) {
	docs, err := s.repo.Sample(ctx, count, category)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	if len(docs) < count {
		return nil, ErrInsufficientQuestions
	}

	questions := make([]model.Question, 0, len(docs))
	for _, doc := range docs {
		q, err := normalizeQuestion(doc)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", doc.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// normalizeQuestion converts a stored document into the canonical in-memory
// representation: an ordered 4-tuple of options and a single-letter correct
// option. This runs once per load, never per broadcast.
func normalizeQuestion(doc repository.QuestionDoc) (model.Question, error) {
	correct, err := normalizeCorrect(doc.CorrectAnswer)
	if err != nil {
		return model.Question{}, err
	}
	return model.Question{
		ID:          doc.ID,
		Prompt:      doc.Question,
		Options:     [4]string{doc.OptionA, doc.OptionB, doc.OptionC, doc.OptionD},
		Correct:     correct,
		Category:    doc.Category,
		Explanation: doc.FunFact,
		FlavorText:  doc.SnarkyComment,
	}, nil
}

// normalizeCorrect accepts the formats the bank has accumulated: a bare
// letter, a legacy "option_x" string, or a numeric index 0-3.
func normalizeCorrect(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		letter := strings.ToLower(strings.TrimPrefix(v, "option_"))
		for _, l := range model.OptionLabels {
			if letter == l {
				return letter, nil
			}
		}
		return "", fmt.Errorf("invalid correct answer %q", v)
	case int:
		return indexToLetter(v)
	case int32:
		return indexToLetter(int(v))
	case int64:
		return indexToLetter(int(v))
	case float64:
		return indexToLetter(int(v))
	default:
		return "", fmt.Errorf("invalid correct answer type %T", raw)
	}
}

func indexToLetter(i int) (string, error) {
	if i < 0 || i >= len(model.OptionLabels) {
		return "", fmt.Errorf("correct answer index %d out of range", i)
	}
	return model.OptionLabels[i], nil
}
