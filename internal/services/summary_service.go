package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/providers/llm"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

const (
	extractiveSentences = 15
	// maxPromptChars bounds what is sent to the model for very long inputs.
	maxPromptChars = 400_000
)

const transcriptPrompt = `You are a helpful assistant that summarizes educational video transcripts.
Summarize the following transcript in 200-250 words using bullet points, covering all key topics clearly.

Transcript:
%s

Summary (brief, concise, and focused on the key points):`

const paperPrompt = `You are an expert research assistant. Summarize the following research paper for a student.
Structure the summary with these sections: Introduction, Methodology, Key Findings, Conclusions.
Keep it under 400 words and mention concrete numbers where the paper reports them.

Paper:
%s`

const extractiveNote = `# Transcript Summary
(Generated using local extraction due to API quota limits)

%s

---
*Note: This is an extractive summary created without AI due to API quota limitations.
For full AI summarization, please try again later when API quota resets, or with a shorter video.*`

type SummaryService interface {
	Summarize(ctx context.Context, transcript string) (string, error)
	SummarizePaper(ctx context.Context, text string) (string, error)
}

type summaryService struct {
	llm llm.Provider
	log logrus.FieldLogger
}

func NewSummaryService(p llm.Provider, log logrus.FieldLogger) SummaryService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &summaryService{llm: p, log: log}
}

func (s *summaryService) Summarize(ctx context.Context, transcript string) (string, error) {
	const op = "SummaryService.Summarize"

	if strings.TrimSpace(transcript) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}
	out, err := llm.Complete(ctx, s.llm, fmt.Sprintf(transcriptPrompt, truncate(transcript, maxPromptChars)))
	if err != nil {
		if llm.IsQuotaError(err) {
			s.log.WithError(err).Warn("model quota exhausted, using extractive summary")
			return fmt.Sprintf(extractiveNote, KeyPoints(transcript, extractiveSentences)), nil
		}
		return "", utils.E(utils.CodeUnavailable, op, "failed to generate summary", err)
	}
	if out == "" {
		return "", utils.E(utils.CodeUnavailable, op, "model returned an empty summary", nil)
	}
	return out, nil
}

func (s *summaryService) SummarizePaper(ctx context.Context, text string) (string, error) {
	const op = "SummaryService.SummarizePaper"

	if strings.TrimSpace(text) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "paper has no extractable text", nil)
	}
	out, err := llm.Complete(ctx, s.llm, fmt.Sprintf(paperPrompt, truncate(text, maxPromptChars)))
	if err != nil {
		if llm.IsQuotaError(err) {
			s.log.WithError(err).Warn("model quota exhausted, using extractive summary")
			return ExtractiveSummary(text, extractiveSentences), nil
		}
		return "", utils.E(utils.CodeUnavailable, op, "failed to generate summary", err)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
