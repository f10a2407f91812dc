package usecases

import (
	"context"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/domain/webhook"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// DeadLetterDTO is the operator-facing view of a dead-lettered inbox message.
type DeadLetterDTO struct {
	SID             string `json:"sid"`
	ExternalEventID string `json:"external_event_id"`
	EventType       string `json:"event_type"`
	Attempts        int    `json:"attempts"`
	LastError       string `json:"last_error"`
	DeadLetteredAt  string `json:"dead_lettered_at"`
	ReceivedAt      string `json:"received_at"`
}

// ListDeadLettersQuery pages through dead-lettered messages, newest first
// unless a sort column is given. Search matches external event IDs and
// recorded errors.
type ListDeadLettersQuery struct {
	EventType string
	Search    string
	SortBy    string
	SortDesc  bool
	Limit     int
	Offset    int
}

type ListDeadLettersResult struct {
	Messages []DeadLetterDTO `json:"messages"`
	Total    int64           `json:"total"`
}

type ListDeadLettersUseCase struct {
	inboxRepo webhook.InboxRepository
	logger    logger.Interface
}

func NewListDeadLettersUseCase(inboxRepo webhook.InboxRepository, logger logger.Interface) *ListDeadLettersUseCase {
	return &ListDeadLettersUseCase{
		inboxRepo: inboxRepo,
		logger:    logger,
	}
}

func (uc *ListDeadLettersUseCase) Execute(ctx context.Context, query ListDeadLettersQuery) (*ListDeadLettersResult, error) {
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	messages, total, err := uc.inboxRepo.ListDeadLettered(ctx, webhook.DeadLetterFilter{
		EventType: query.EventType,
		Search:    query.Search,
		SortBy:    query.SortBy,
		SortDesc:  query.SortDesc,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}

	dtos := make([]DeadLetterDTO, 0, len(messages))
	for _, msg := range messages {
		dto := DeadLetterDTO{
			SID:             msg.SID(),
			ExternalEventID: msg.ExternalEventID(),
			EventType:       msg.EventType(),
			Attempts:        msg.AttemptCount(),
			ReceivedAt:      msg.ReceivedAt().Format("2006-01-02T15:04:05Z07:00"),
		}
		if lastErr := msg.LastError(); lastErr != nil {
			dto.LastError = *lastErr
		}
		if t := msg.DeadLetteredAt(); t != nil {
			dto.DeadLetteredAt = t.Format("2006-01-02T15:04:05Z07:00")
		}
		dtos = append(dtos, dto)
	}

	return &ListDeadLettersResult{Messages: dtos, Total: total}, nil
}
