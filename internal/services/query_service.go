package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contractsense/contractsense-backend/internal/analysis"
	"github.com/contractsense/contractsense-backend/internal/data/repos"
	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/rag/composer"
	"github.com/contractsense/contractsense-backend/internal/rag/retriever"
)

// Suggestion is one canned question tied to a clause type, plus the
// user's own recent questions for quick re-asking.
type Suggestion struct {
	ClauseType types.ClauseType `json:"clause_type"`
	Question   string           `json:"question"`
}

type Suggestions struct {
	Canned []Suggestion `json:"canned"`
	Recent []string     `json:"recent"`
}

type QueryService interface {
	Ask(ctx context.Context, userID string, documentID, sessionID uuid.UUID, question string) (*types.QueryResponse, error)
	History(ctx context.Context, userID string, limit int) ([]*types.QueryResponse, error)
	DeleteResponse(ctx context.Context, userID string, id uuid.UUID) error
	DeleteSession(ctx context.Context, userID string, sessionID uuid.UUID) (int64, error)
	Suggestions(ctx context.Context, userID string) (*Suggestions, error)
}

type queryService struct {
	log       *logger.Logger
	retriever *retriever.Retriever
	composer  *composer.Composer
	history   repos.QueryResponseRepo
	canned    []Suggestion
}

func NewQueryService(
	baseLog *logger.Logger,
	ret *retriever.Retriever,
	comp *composer.Composer,
	history repos.QueryResponseRepo,
) (QueryService, error) {
	catalogue, err := analysis.Catalogue()
	if err != nil {
		return nil, err
	}
	canned := make([]Suggestion, 0, len(catalogue))
	for _, e := range catalogue {
		if e.Suggestion == "" {
			continue
		}
		canned = append(canned, Suggestion{ClauseType: e.Type, Question: e.Suggestion})
	}
	return &queryService{
		log:       baseLog.With("service", "QueryService"),
		retriever: ret,
		composer:  comp,
		history:   history,
		canned:    canned,
	}, nil
}

// Ask retrieves, composes and appends the exchange to history. The
// response is persisted even when degraded so the history honestly
// reflects what the user was told.
func (s *queryService) Ask(ctx context.Context, userID string, documentID, sessionID uuid.UUID, question string) (*types.QueryResponse, error) {
	if userID == "" {
		return nil, errors.InvalidInput("QueryService.Ask", "user id is required")
	}
	if question == "" {
		return nil, errors.InvalidInput("QueryService.Ask", "question is required")
	}

	hits, err := s.retriever.Retrieve(ctx, nil, userID, documentID, question, 0)
	if err != nil {
		return nil, err
	}
	resp, err := s.composer.Compose(ctx, question, hits)
	if err != nil {
		return nil, err
	}

	resp.UserID = userID
	resp.DocumentID = documentID
	resp.SessionID = sessionID
	if _, err := s.history.Create(ctx, nil, resp); err != nil {
		return nil, err
	}

	s.log.Info("query answered",
		"user_id", userID,
		"document_id", documentID,
		"confidence", resp.Confidence,
		"citations", len(resp.CitationList()),
		"failure_kind", resp.FailureKind)
	return resp, nil
}

func (s *queryService) History(ctx context.Context, userID string, limit int) ([]*types.QueryResponse, error) {
	return s.history.ListByUserID(ctx, nil, userID, limit)
}

func (s *queryService) DeleteResponse(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.history.DeleteByID(ctx, nil, userID, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("QueryService.DeleteResponse", "query response not found")
		}
		return err
	}
	return nil
}

// DeleteSession clears every exchange of one conversation. An unknown
// session deletes nothing, which is not an error.
func (s *queryService) DeleteSession(ctx context.Context, userID string, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, errors.InvalidInput("QueryService.DeleteSession", "session id is required")
	}
	n, err := s.history.DeleteBySessionID(ctx, nil, userID, sessionID)
	if err != nil {
		return 0, err
	}
	s.log.Info("session cleared", "user_id", userID, "session_id", sessionID, "deleted", n)
	return n, nil
}

func (s *queryService) Suggestions(ctx context.Context, userID string) (*Suggestions, error) {
	recent, err := s.history.RecentQuestions(ctx, nil, userID, 0)
	if err != nil {
		return nil, err
	}
	return &Suggestions{Canned: s.canned, Recent: recent}, nil
}
