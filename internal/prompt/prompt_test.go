// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mdaqa/pkg/types"
)

var testSelection = &types.CommunitySelection{
	Text: "**title**: One\n**arxiv_id**: 2301.00001\n**content**: alpha\n\n",
	Papers: []types.PaperCandidate{
		{ID: "2301.00001", Title: "One"},
		{ID: "2301.00002", Title: "Two"},
	},
}

func TestGeneration(t *testing.T) {
	got, err := Generation(testSelection, 3)
	require.NoError(t, err)
	assert.Contains(t, got, "The following 2 papers")
	assert.Contains(t, got, "- 2301.00001: One\n- 2301.00002: Two\n")
	assert.Contains(t, got, "Write 3 question-answer pairs")
	assert.Contains(t, got, testSelection.Text)
}

func TestEvaluation(t *testing.T) {
	qa := types.QAPair{Question: "How do A and B differ?", Answer: "A uses X; B uses Y.", Reasoning: "Compare methods."}
	got, err := Evaluation(testSelection, qa)
	require.NoError(t, err)
	assert.Contains(t, got, "Question: How do A and B differ?")
	assert.Contains(t, got, "Answer: A uses X; B uses Y.")
	assert.Contains(t, got, "Reasoning: Compare methods.")
	assert.Contains(t, got, testSelection.Text)

	qa.Reasoning = ""
	got, err = Evaluation(testSelection, qa)
	require.NoError(t, err)
	assert.NotContains(t, got, "Reasoning:")
}

func TestParseQuestions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []types.QAPair
	}{
		{
			name: "wrapped object",
			raw:  `{"questions": [{"question": "Q1", "answer": "A1", "evidence": [{"arxiv_id": "x", "text": "t"}]}]}`,
			want: []types.QAPair{{Question: "Q1", Answer: "A1", Evidence: []types.Evidence{{ArxivID: "x", Text: "t"}}}},
		},
		{
			name: "bare array",
			raw:  `[{"question": "Q1", "answer": "A1"}, {"question": "Q2", "answer": "A2"}]`,
			want: []types.QAPair{{Question: "Q1", Answer: "A1"}, {Question: "Q2", Answer: "A2"}},
		},
		{
			name: "json fence",
			raw:  "```json\n{\"questions\": [{\"question\": \"Q1\", \"answer\": \"A1\"}]}\n```",
			want: []types.QAPair{{Question: "Q1", Answer: "A1"}},
		},
		{
			name: "plain fence",
			raw:  "```\n[{\"question\": \"Q1\", \"answer\": \"A1\"}]\n```",
			want: []types.QAPair{{Question: "Q1", Answer: "A1"}},
		},
		{
			name: "drops incomplete pairs and trims",
			raw:  `{"questions": [{"question": "  Q1 ", "answer": "A1"}, {"question": "Q2", "answer": ""}, {"answer": "A3"}]}`,
			want: []types.QAPair{{Question: "Q1", Answer: "A1"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuestions(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuestionsErrors(t *testing.T) {
	_, err := ParseQuestions(`{"questions": []}`)
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = ParseQuestions(`{"questions": [{"question": "", "answer": ""}]}`)
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = ParseQuestions(`Sure! Here are your questions.`)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoQuestions)
}

func TestParseGrade(t *testing.T) {
	g, err := ParseGrade(`{"relevance": 5, "multi_document": 4, "answerability": 4, "clarity": 5, "overall": 4.5, "pass": true, "feedback": " Good. "}`)
	require.NoError(t, err)
	assert.Equal(t, Grade{Relevance: 5, MultiDocument: 4, Answerability: 4, Clarity: 5, Overall: 4.5, Pass: true, Feedback: "Good."}, g)
}

func TestParseGradeComputesOverall(t *testing.T) {
	g, err := ParseGrade("```json\n{\"relevance\": 4, \"multi_document\": 3, \"answerability\": 5, \"clarity\": 4, \"pass\": true}\n```")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, g.Overall, 1e-9)
}

func TestParseGradeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "looks good to me"},
		{"score too high", `{"relevance": 6, "multi_document": 4, "answerability": 4, "clarity": 4}`},
		{"missing score", `{"relevance": 4, "answerability": 4, "clarity": 4}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGrade(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestGradeApply(t *testing.T) {
	qa := types.QAPair{Question: "Q", Answer: "A"}
	ev := Grade{Relevance: 5, MultiDocument: 5, Answerability: 4, Clarity: 3, Overall: 4.25, Pass: true, Feedback: "ok"}.Apply(qa)
	assert.Equal(t, qa, ev.QAPair)
	assert.Equal(t, 4.25, ev.Overall)
	assert.True(t, ev.Pass)
	assert.Equal(t, 3, ev.Clarity)
}
