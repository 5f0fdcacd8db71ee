// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Evidence is a supporting passage for an answer, attributed to one paper.
type Evidence struct {
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`
	Text    string `json:"text" yaml:"text"`
}

// QAPair is one generated multi-document question with its reference answer.
type QAPair struct {
	Question  string     `json:"question" yaml:"question"`
	Answer    string     `json:"answer" yaml:"answer"`
	Reasoning string     `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Evidence  []Evidence `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// GenerationRecord is the checkpointed output of question generation for
// one community.
type GenerationRecord struct {
	CommunityID CommunityID      `json:"community_id" yaml:"community_id"`
	Papers      []PaperCandidate `json:"papers" yaml:"papers"`
	Questions   []QAPair         `json:"questions" yaml:"questions"`
	Model       string           `json:"model" yaml:"model"`
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at"`
}

// QuestionEvaluation holds the grades assigned to one question. Individual
// scores are on a 1-5 scale.
type QuestionEvaluation struct {
	QAPair `yaml:",inline"`

	Relevance     int     `json:"relevance" yaml:"relevance"`
	MultiDocument int     `json:"multi_document" yaml:"multi_document"`
	Answerability int     `json:"answerability" yaml:"answerability"`
	Clarity       int     `json:"clarity" yaml:"clarity"`
	Overall       float64 `json:"overall" yaml:"overall"`
	Pass          bool    `json:"pass" yaml:"pass"`
	Feedback      string  `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// EvaluationRecord is the checkpointed output of quality evaluation for one
// community.
type EvaluationRecord struct {
	CommunityID CommunityID          `json:"community_id" yaml:"community_id"`
	Papers      []PaperCandidate     `json:"papers" yaml:"papers"`
	Evaluations []QuestionEvaluation `json:"evaluations" yaml:"evaluations"`
	EvaluatedAt time.Time            `json:"evaluated_at" yaml:"evaluated_at"`
}

// DatasetEntry is one example in the final dataset.
type DatasetEntry struct {
	// ID is a stable identifier derived from the community and question text.
	ID          string           `json:"id" yaml:"id"`
	CommunityID CommunityID      `json:"community_id" yaml:"community_id"`
	Question    string           `json:"question" yaml:"question"`
	Answer      string           `json:"answer" yaml:"answer"`
	Papers      []PaperCandidate `json:"papers" yaml:"papers"`
	Evidence    []Evidence       `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Score       float64          `json:"score" yaml:"score"`
}
