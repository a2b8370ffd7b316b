package services

import (
	"context"
	"strings"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// providerTimeout bounds every call to an external provider.
	providerTimeout = 15 * time.Second
)

// PageRequest is the common limit/offset query.
type PageRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

func (p PageRequest) limit() int {
	if p.Limit <= 0 {
		return defaultPageSize
	}
	if p.Limit > maxPageSize {
		return maxPageSize
	}
	return p.Limit
}

// localized merges a bare text field and its Arabic companion, e.g.
// "title" and "titleAr", into one value.
func localized(text models.LocalizedText, ar *string) models.LocalizedText {
	text.En = strings.TrimSpace(text.En)
	text.Ar = strings.TrimSpace(text.Ar)
	if ar != nil && strings.TrimSpace(*ar) != "" {
		text.Ar = strings.TrimSpace(*ar)
	}
	return text
}

func parseMoneyField(v *validator, field string, raw *string) *models.Money {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	m, err := models.ParseMoney(*raw)
	v.check(err == nil, field, "must be a decimal amount with at most 2 fractional digits")
	if err != nil {
		return nil
	}
	return &m
}

func currencyOr(cur, fallback string) string {
	cur = strings.ToUpper(strings.TrimSpace(cur))
	if cur == "" {
		return fallback
	}
	return cur
}

// enqueueIndex schedules translation and embedding refresh for a listing.
func enqueueIndex(q queue.TaskQueue, kind, id string) {
	if q == nil {
		return
	}
	if err := q.Enqueue(TaskTypeIndexListing, &IndexTask{Kind: kind, ID: id}); err != nil {
		logger.Warn().Err(err).Str("kind", kind).Str("id", id).Msg("[Index] Failed to enqueue")
	}
}

// providerContext derives the bounded context used for provider calls.
func providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, providerTimeout)
}
