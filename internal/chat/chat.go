// Package chat answers free-form questions about an extracted invoice using
// the model, grounded in the structured extraction result.
package chat

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
	"github.com/vensonaa/enterprise-invoice-automation/pkg/anthropic"
)

const assistantSystemPrompt = `You are an expert invoice analyst assistant. You have access to detailed invoice data and can answer questions about:
- Invoice details (number, dates, amounts)
- Vendor and customer information
- Line items and their details
- Financial calculations and summaries
- Payment terms and conditions
- Any discrepancies or issues found

Provide clear, accurate, and helpful responses based on the invoice data provided. If information is not available in the data, clearly state that.

Format your response in a conversational but professional manner.`

const questionsSystemPrompt = `You are an expert invoice analyst. Given extracted invoice data, suggest questions a reviewer would most likely want to ask about this specific invoice.

Return ONLY a JSON array of 4-6 short question strings. Do not include any explanatory text.`

// defaultQuestions covers the common cases when the model yields nothing
// usable.
var defaultQuestions = []string{
	"What is the total amount on this invoice?",
	"When is this invoice due?",
	"Who is the vendor?",
	"What line items are included?",
	"Do the line items add up to the invoice total?",
}

// Assistant wraps the model client for invoice Q&A.
type Assistant struct {
	anthropic anthropic.Client
}

func NewAssistant(aiClient anthropic.Client) *Assistant {
	return &Assistant{anthropic: aiClient}
}

// Ask answers one user question about the given extracted invoice data.
func (a *Assistant) Ask(ctx context.Context, fields model.InvoiceFields, question string) (string, error) {
	payload, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "chat: marshal invoice data")
	}

	user := "Invoice Data:\n" + string(payload) +
		"\n\nUser Question: " + question +
		"\n\nPlease analyze the invoice data and provide a comprehensive answer to the user's question."

	answer, err := a.anthropic.Generate(ctx, assistantSystemPrompt, user)
	if err != nil {
		return "", eris.Wrap(err, "chat: generate answer")
	}
	return answer, nil
}

// SuggestQuestions proposes follow-up questions for an invoice. Unparseable
// model output falls back to a fixed set rather than failing.
func (a *Assistant) SuggestQuestions(ctx context.Context, fields model.InvoiceFields) ([]string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, eris.Wrap(err, "chat: marshal invoice data")
	}

	resp, err := a.anthropic.Generate(ctx, questionsSystemPrompt, "Suggest questions for this invoice:\n\n"+string(payload))
	if err != nil {
		return nil, eris.Wrap(err, "chat: generate questions")
	}

	questions := parseQuestions(resp)
	if len(questions) == 0 {
		zap.L().Debug("chat: question response unparseable, using defaults")
		return defaultQuestions, nil
	}
	return questions, nil
}

func parseQuestions(text string) []string {
	var questions []string
	if err := json.Unmarshal([]byte(text), &questions); err == nil {
		return questions
	}

	// The model sometimes wraps the array in an object.
	var wrapped struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil {
		return wrapped.Questions
	}
	return nil
}
