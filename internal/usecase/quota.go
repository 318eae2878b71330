package usecase

import (
	"context"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/infra/metrics"
)

// checkQuota admits a new resource iff the lifetime count is under the plan
// limit. Unlimited plans always admit. There is deliberately no reservation
// between this check and the subsequent insert for rooms and visitors; the
// booking path layers the transactional conflict guard on top.
func checkQuota(ctx context.Context, ent *model.Entitlements, res model.Resource, count func(ctx context.Context) (int, error)) error {
	limit := ent.LimitFor(res)
	if limit == model.Unlimited {
		return nil
	}
	n, err := count(ctx)
	if err != nil {
		return err
	}
	if n >= limit {
		metrics.IncQuotaDenied(string(res))
		return &domain.QuotaError{Plan: string(ent.Plan), Resource: string(res), Limit: limit}
	}
	return nil
}
