// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt renders the generation and grading prompts and parses the
// model's JSON replies.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/mdaqa/pkg/types"
)

// GenerationSystem is the system prompt for question generation.
const GenerationSystem = `You are an expert research assistant who writes challenging question-answer pairs for evaluating multi-document reasoning over scientific papers. Every question you write must require information from at least two of the provided papers to answer. Respond only with JSON.`

// EvaluationSystem is the system prompt for question grading.
const EvaluationSystem = `You are a strict reviewer of multi-document question-answer datasets built from scientific papers. You grade each question against the source papers and respond only with JSON.`

var generationTmpl = template.Must(template.New("generation").Parse(`The following {{len .Papers}} papers belong to one research community:
{{range .Papers}}- {{.ID}}: {{.Title}}
{{end}}
Write {{.Count}} question-answer pairs that require combining information from at least two of these papers. For each pair provide:
- question: a self-contained question that does not mention "the papers" or "the documents"
- answer: a complete answer grounded in the paper text
- reasoning: how the answer is assembled across papers
- evidence: a list of {"arxiv_id", "text"} objects quoting the supporting passages

Respond with a JSON object of the form {"questions": [{"question": "...", "answer": "...", "reasoning": "...", "evidence": [{"arxiv_id": "...", "text": "..."}]}]}.

Papers:
{{.Text}}`))

var evaluationTmpl = template.Must(template.New("evaluation").Parse(`Grade the question-answer pair below against the source papers.

Score each criterion from 1 (poor) to 5 (excellent):
- relevance: the question concerns the substance of the papers
- multi_document: answering genuinely requires two or more papers
- answerability: the answer is fully supported by the paper text
- clarity: the question is unambiguous and self-contained

Also report overall (the mean of the four scores), pass (true when the pair is fit for the dataset), and feedback (one or two sentences).

Respond with a JSON object of the form {"relevance": 0, "multi_document": 0, "answerability": 0, "clarity": 0, "overall": 0.0, "pass": false, "feedback": "..."}.

Question: {{.QA.Question}}
Answer: {{.QA.Answer}}
{{- if .QA.Reasoning}}
Reasoning: {{.QA.Reasoning}}
{{- end}}

Papers:
{{.Text}}`))

// Generation renders the user prompt asking for count questions over sel.
func Generation(sel *types.CommunitySelection, count int) (string, error) {
	return render(generationTmpl, struct {
		Papers []types.PaperCandidate
		Text   string
		Count  int
	}{sel.Papers, sel.Text, count})
}

// Evaluation renders the user prompt grading qa against sel.
func Evaluation(sel *types.CommunitySelection, qa types.QAPair) (string, error) {
	return render(evaluationTmpl, struct {
		QA   types.QAPair
		Text string
	}{qa, sel.Text})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
