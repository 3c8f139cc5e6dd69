// Package qa composes retrieval with a completion service to answer
// questions about patient records.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chartdexhq/chartdex/pkg/retriever"
)

const answerSystem = `You are an AI assistant for healthcare professionals. You help doctors and nurses access patient information quickly and accurately. Always provide factual, evidence-based information from the provided context.`

const answerPrompt = `When answering, please:
1. Only use information explicitly stated in the context
2. Cite the specific parts of the document where your answer comes from
3. If the context doesn't contain the answer, say "I don't have enough information about that"
4. Maintain confidentiality and privacy of all patient data
5. Format your answers clearly, using bullet points and sections when appropriate

Context:
%s

Question: %s`

const summarySystem = `You are a medical professional reviewing patient records.`

const summaryPrompt = `Create a concise but comprehensive summary of the patient information below. Include key demographics, medical history, current medications, recent vitals, and any notable lab results.

Patient Information:
%s

Summary:`

const issuesSystem = `You are a clinical decision support system analyzing patient data.`

const issuesPrompt = `Based on the following patient information, identify potential health issues, risks, or areas of concern that healthcare providers should be aware of. Consider factors such as vital signs, lab results, medical history, medications, and any trends or abnormalities.

Patient Information:
%s

Analysis of Potential Health Issues:`

// Completion generates text from a prompt. Implementations wrap a
// completion service; the chain treats it as a black box.
type Completion interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Retriever is the slice of the retriever the chain consumes.
type Retriever interface {
	Query(ctx context.Context, query string, topK int) []retriever.Result
	PatientDocuments(ctx context.Context, patientID string) []retriever.Result
}

var _ Retriever = (*retriever.Retriever)(nil)

// Answer is one chain response with the sources that grounded it.
type Answer struct {
	Text      string
	Sources   []string
	PatientID string
}

// Chain answers questions about patient records by assembling retrieved
// chunks into prompts.
type Chain struct {
	retriever  Retriever
	completion Completion
	logger     *slog.Logger
}

// New creates a Chain.
func New(r Retriever, c Completion, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{retriever: r, completion: c, logger: logger}
}

// AnswerQuestion answers a clinical question from semantically retrieved
// context. With no matching context the completion is still consulted;
// the prompt instructs it to say it lacks information.
func (c *Chain) AnswerQuestion(ctx context.Context, question string) (*Answer, error) {
	docs := c.retriever.Query(ctx, question, 0)
	c.logger.Debug("answering question", "context_chunks", len(docs))

	prompt := fmt.Sprintf(answerPrompt, joinContexts(docs), question)
	text, err := c.completion.Complete(ctx, answerSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("completing answer: %w", err)
	}

	return &Answer{Text: text, Sources: sources(docs)}, nil
}

// PatientSummary summarizes one patient's records. A patient with no
// documents gets a canned response without consulting the completion.
func (c *Chain) PatientSummary(ctx context.Context, patientID string) (*Answer, error) {
	docs := c.retriever.PatientDocuments(ctx, patientID)
	if len(docs) == 0 {
		return noInformation(patientID), nil
	}

	c.logger.Debug("summarizing patient", "patient_id", patientID, "context_chunks", len(docs))

	prompt := fmt.Sprintf(summaryPrompt, joinContexts(docs))
	text, err := c.completion.Complete(ctx, summarySystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("completing patient summary: %w", err)
	}

	return &Answer{Text: text, Sources: sources(docs), PatientID: patientID}, nil
}

// HealthIssues flags potential risks in one patient's records, under
// the same no-documents rule as PatientSummary.
func (c *Chain) HealthIssues(ctx context.Context, patientID string) (*Answer, error) {
	docs := c.retriever.PatientDocuments(ctx, patientID)
	if len(docs) == 0 {
		return noInformation(patientID), nil
	}

	c.logger.Debug("analyzing patient issues", "patient_id", patientID, "context_chunks", len(docs))

	prompt := fmt.Sprintf(issuesPrompt, joinContexts(docs))
	text, err := c.completion.Complete(ctx, issuesSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("completing health issues: %w", err)
	}

	return &Answer{Text: text, Sources: sources(docs), PatientID: patientID}, nil
}

func noInformation(patientID string) *Answer {
	return &Answer{
		Text:      fmt.Sprintf("No information found for patient %s", patientID),
		Sources:   []string{},
		PatientID: patientID,
	}
}

// joinContexts assembles the prompt context, preserving chunk order.
func joinContexts(docs []retriever.Result) string {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return strings.Join(texts, "\n\n")
}

// sources returns de-duplicated source filenames in first-seen order.
func sources(docs []retriever.Result) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, d := range docs {
		src := d.Metadata["source"]
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}
