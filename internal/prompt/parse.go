// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/mdaqa/pkg/types"
)

// ErrNoQuestions is returned when a generation reply parses but holds no
// usable question.
var ErrNoQuestions = errors.New("no questions in response")

// ParseQuestions decodes a generation reply. It accepts {"questions": [...]}
// or a bare array, optionally wrapped in a fenced code block. Pairs missing
// a question or answer are dropped.
func ParseQuestions(raw string) ([]types.QAPair, error) {
	body := []byte(stripFence(raw))

	var pairs []types.QAPair
	if t := bytes.TrimSpace(body); len(t) > 0 && t[0] == '[' {
		if err := json.Unmarshal(t, &pairs); err != nil {
			return nil, fmt.Errorf("parsing questions: %w", err)
		}
	} else {
		var wrapped struct {
			Questions []types.QAPair `json:"questions"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("parsing questions: %w", err)
		}
		pairs = wrapped.Questions
	}

	out := pairs[:0]
	for _, p := range pairs {
		p.Question = strings.TrimSpace(p.Question)
		p.Answer = strings.TrimSpace(p.Answer)
		if p.Question == "" || p.Answer == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrNoQuestions
	}
	return out, nil
}

// Grade holds the scores from one grading reply.
type Grade struct {
	Relevance     int     `json:"relevance"`
	MultiDocument int     `json:"multi_document"`
	Answerability int     `json:"answerability"`
	Clarity       int     `json:"clarity"`
	Overall       float64 `json:"overall"`
	Pass          bool    `json:"pass"`
	Feedback      string  `json:"feedback"`
}

// Apply returns qa annotated with g.
func (g Grade) Apply(qa types.QAPair) types.QuestionEvaluation {
	return types.QuestionEvaluation{
		QAPair:        qa,
		Relevance:     g.Relevance,
		MultiDocument: g.MultiDocument,
		Answerability: g.Answerability,
		Clarity:       g.Clarity,
		Overall:       g.Overall,
		Pass:          g.Pass,
		Feedback:      g.Feedback,
	}
}

// ParseGrade decodes a grading reply. When the model omits overall it is
// computed as the mean of the four criterion scores.
func ParseGrade(raw string) (Grade, error) {
	var g Grade
	if err := json.Unmarshal([]byte(stripFence(raw)), &g); err != nil {
		return Grade{}, fmt.Errorf("parsing grade: %w", err)
	}
	for name, v := range map[string]int{
		"relevance":      g.Relevance,
		"multi_document": g.MultiDocument,
		"answerability":  g.Answerability,
		"clarity":        g.Clarity,
	} {
		if v < 1 || v > 5 {
			return Grade{}, fmt.Errorf("parsing grade: %s score %d outside 1-5", name, v)
		}
	}
	if g.Overall == 0 {
		g.Overall = float64(g.Relevance+g.MultiDocument+g.Answerability+g.Clarity) / 4
	}
	g.Feedback = strings.TrimSpace(g.Feedback)
	return g, nil
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
