// Package chat keeps the question/answer history of each uploaded document.
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/stage"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

// Backend answers questions about a document and returns its stored history.
type Backend interface {
	Ask(ctx context.Context, documentID, question string) (string, error)
	History(ctx context.Context, documentID string) ([]models.Exchange, error)
}

type askRequest struct {
	question string
}

type session struct {
	mu      sync.Mutex
	history []models.Exchange
	ask     *stage.Executor[askRequest, models.Exchange]
}

type Manager struct {
	backend Backend
	log     logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewManager(backend Backend, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		backend:  backend,
		log:      log.WithField("component", "chat"),
		sessions: make(map[string]*session),
	}
}

func (m *Manager) session(documentID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[documentID]; ok {
		return s
	}
	s := &session{}
	s.ask = stage.New(stage.Stage[askRequest, models.Exchange]{
		Name: "askQuestion",
		Validate: func(_ context.Context, req askRequest) error {
			if strings.TrimSpace(req.question) == "" {
				return utils.E(utils.CodeEmptyInput, "Chat.Ask", "question is empty", nil)
			}
			return nil
		},
		Call: func(ctx context.Context, req askRequest) (models.Exchange, error) {
			answer, err := m.backend.Ask(ctx, documentID, req.question)
			if err != nil {
				return models.Exchange{}, err
			}
			return models.Exchange{Question: req.question, Answer: answer}, nil
		},
		Apply: func(_ context.Context, ex models.Exchange) error {
			s.mu.Lock()
			s.history = append(s.history, ex)
			s.mu.Unlock()
			return nil
		},
	}, m.log.WithField("document_id", documentID))
	m.sessions[documentID] = s
	return s
}

// Ask sends question about the document and, on success, appends the
// exchange to its history. A failed ask leaves the history as it was.
func (m *Manager) Ask(ctx context.Context, documentID, question string) (string, error) {
	const op = "Chat.Ask"

	if strings.TrimSpace(documentID) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "document id is required", nil)
	}
	ex, err := m.session(documentID).ask.Execute(ctx, askRequest{question: question})
	if err != nil {
		return "", err
	}
	return ex.Answer, nil
}

// Result exposes the ask executor state of a document.
func (m *Manager) Result(documentID string) stage.Result[models.Exchange] {
	return m.session(documentID).ask.Result()
}

// LoadHistory replaces the local view with the service's stored history.
func (m *Manager) LoadHistory(ctx context.Context, documentID string) ([]models.Exchange, error) {
	const op = "Chat.LoadHistory"

	if strings.TrimSpace(documentID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "document id is required", nil)
	}
	history, err := m.backend.History(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s := m.session(documentID)
	s.mu.Lock()
	s.history = append([]models.Exchange(nil), history...)
	s.mu.Unlock()
	return m.History(documentID), nil
}

// History returns a copy of the document's exchanges, oldest first.
func (m *Manager) History(documentID string) []models.Exchange {
	s := m.session(documentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Exchange(nil), s.history...)
}
