package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/embed"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/llm"
	pgrepo "github.com/Phoenix-070/Edutranscribe/internal/repositories/postgres"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

const (
	retrieveK    = 3
	memoryTurns  = 2
	historyLimit = 200
)

const chatPrompt = `You are an expert research assistant having a conversation about a research paper.
You have deep understanding of the paper's content and can explain complex concepts in a clear, conversational way.

Context from the paper:
%s

Previous conversation:
%s

Question:
%s
Answer:`

type AskResult struct {
	Answer  string            `json:"answer"`
	History []models.Exchange `json:"history"`
}

type ChatService interface {
	Ask(ctx context.Context, userID, pdfID, question string) (*AskResult, error)
	History(ctx context.Context, userID, pdfID string) ([]models.Exchange, error)
}

type chatService struct {
	papers PaperService
	chunks pgrepo.ChunkRepo
	logs   pgrepo.ChatLogRepo
	embed  embed.Provider
	llm    llm.Provider
	log    logrus.FieldLogger
}

func NewChatService(papers PaperService, chunks pgrepo.ChunkRepo, logs pgrepo.ChatLogRepo, e embed.Provider, l llm.Provider, log logrus.FieldLogger) ChatService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &chatService{papers: papers, chunks: chunks, logs: logs, embed: e, llm: l, log: log}
}

func (s *chatService) Ask(ctx context.Context, userID, pdfID, question string) (*AskResult, error) {
	const op = "ChatService.Ask"

	question = strings.TrimSpace(question)
	if question == "" || pdfID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question and pdf_id are required", nil)
	}
	doc, err := s.papers.Get(ctx, userID, pdfID)
	if err != nil {
		return nil, err
	}
	switch doc.Status {
	case models.DocumentReady:
	case models.DocumentFailed:
		return nil, utils.E(utils.CodeConflict, op, "PDF could not be processed", nil)
	default:
		return nil, utils.E(utils.CodeUnavailable, op, "PDF is still being processed", nil)
	}

	vec, err := s.embed.EmbedQuery(ctx, question)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to embed question", err)
	}
	hits, err := s.chunks.Nearest(ctx, pdfID, vec, retrieveK)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to search paper", err)
	}
	recent, err := s.logs.LatestN(ctx, userID, pdfID, memoryTurns)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load conversation", err)
	}

	answer, err := llm.Complete(ctx, s.llm, buildChatPrompt(hits, recent, question))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to generate answer", err)
	}
	sources, pages := quoteSources(hits)
	answer += sources

	meta, _ := json.Marshal(map[string]any{"chunks": len(hits)})
	row := &models.ChatLog{
		ID:          uuid.NewString(),
		UserID:      userID,
		PdfID:       pdfID,
		Question:    question,
		Answer:      answer,
		SourcePages: pages,
		Metadata:    datatypes.JSON(meta),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.logs.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store answer", err)
	}

	history, err := s.History(ctx, userID, pdfID)
	if err != nil {
		return nil, err
	}
	return &AskResult{Answer: answer, History: history}, nil
}

func (s *chatService) History(ctx context.Context, userID, pdfID string) ([]models.Exchange, error) {
	const op = "ChatService.History"

	if _, err := s.papers.Get(ctx, userID, pdfID); err != nil {
		return nil, err
	}
	rows, err := s.logs.ListByDocument(ctx, userID, pdfID, historyLimit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load history", err)
	}
	out := make([]models.Exchange, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Exchange())
	}
	return out, nil
}

func buildChatPrompt(hits []models.DocumentChunk, recent []models.ChatLog, question string) string {
	var ctxb strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&ctxb, "[Page %d]\n%s\n\n", h.Page, strings.TrimSpace(h.Content))
	}
	var hist strings.Builder
	for _, r := range recent {
		fmt.Fprintf(&hist, "Human: %s\nAssistant: %s\n", r.Question, r.Answer)
	}
	return fmt.Sprintf(chatPrompt, strings.TrimSpace(ctxb.String()), strings.TrimSpace(hist.String()), question)
}

var quotable = regexp.MustCompile(`\d+|accuracy|algorithm|method|result`)

// quoteSources cites, per page, the first sentence of the retrieved text that
// mentions a number or a methods/results keyword.
func quoteSources(hits []models.DocumentChunk) (string, pq.Int64Array) {
	quotes := map[int]string{}
	for _, h := range hits {
		if _, seen := quotes[h.Page]; seen {
			continue
		}
		for _, sentence := range strings.Split(h.Content, ".") {
			if quotable.MatchString(strings.ToLower(sentence)) {
				quotes[h.Page] = strings.Join(strings.Fields(sentence), " ")
				break
			}
		}
	}

	pages := make([]int, 0, len(quotes))
	for p := range quotes {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var sb strings.Builder
	sb.WriteString("\n\nSources:")
	out := make(pq.Int64Array, 0, len(pages))
	for _, p := range pages {
		fmt.Fprintf(&sb, "\n\nPage %d:\n• %s", p, quotes[p])
		out = append(out, int64(p))
	}
	return sb.String(), out
}
