package usecases

import (
	"context"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription/valueobjects"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// ListSubscriptionsQuery filters and pages the subscription list.
type ListSubscriptionsQuery struct {
	TenantSID string
	PlanCode  string
	Status    string
	Page      int
	PageSize  int
	SortBy    string
	SortDesc  bool
}

type ListSubscriptionsResult struct {
	Subscriptions []SubscriptionDTO `json:"subscriptions"`
	Total         int64             `json:"total"`
	Page          int               `json:"page"`
	PageSize      int               `json:"page_size"`
}

type ListSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewListSubscriptionsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *ListSubscriptionsUseCase {
	return &ListSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *ListSubscriptionsUseCase) Execute(ctx context.Context, query ListSubscriptionsQuery) (*ListSubscriptionsResult, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 || query.PageSize > 100 {
		query.PageSize = 20
	}

	filter := subscription.SubscriptionFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		SortBy:   query.SortBy,
		SortDesc: query.SortDesc,
	}
	if query.TenantSID != "" {
		filter.TenantSID = &query.TenantSID
	}
	if query.PlanCode != "" {
		filter.PlanCode = &query.PlanCode
	}
	if query.Status != "" {
		if _, err := valueobjects.ParseSubscriptionStatus(query.Status); err != nil {
			return nil, apperrors.NewValidationError("invalid status filter", err.Error())
		}
		filter.Status = &query.Status
	}

	subs, total, err := uc.subscriptionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	dtos := make([]SubscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		dtos = append(dtos, toSubscriptionDTO(sub))
	}

	return &ListSubscriptionsResult{
		Subscriptions: dtos,
		Total:         total,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}, nil
}
