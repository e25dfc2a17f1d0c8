package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"leadengine/models"
	"leadengine/scoring"
	"leadengine/services"
	"leadengine/store"
	"leadengine/utils"
)

const engagementPageSize = 200

// EngagementWorker periodically refreshes temperature, priority, status and
// follow-up dates so that recency decay shows up without new events.
type EngagementWorker struct {
	Prospects   store.ProspectStore
	Assessments store.AssessmentStore
	Logger      *logrus.Entry
	Interval    time.Duration
	PageSize    int

	now func() time.Time
}

func NewEngagementWorker(prospects store.ProspectStore, assessments store.AssessmentStore) *EngagementWorker {
	return &EngagementWorker{
		Prospects:   prospects,
		Assessments: assessments,
		Logger:      utils.ComponentLogger("engagement_worker"),
		Interval:    time.Hour,
		PageSize:    engagementPageSize,
		now:         time.Now,
	}
}

func (ew *EngagementWorker) Start(ctx context.Context) {
	ew.Logger.Info("Starting engagement worker...")
	ticker := time.NewTicker(ew.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ew.RescoreAll(ctx)
		case <-ctx.Done():
			ew.Logger.Info("Stopping engagement worker...")
			return
		}
	}
}

// RescoreAll walks every prospect and saves the ones whose derived fields
// changed. It returns the number saved.
func (ew *EngagementWorker) RescoreAll(ctx context.Context) int {
	now := ew.now()
	updated := 0
	after := ""

	for {
		page, err := ew.Prospects.Batch(ctx, after, ew.PageSize)
		if err != nil {
			utils.LogError("engagement_batch_failed", err, map[string]interface{}{"after": after})
			break
		}
		for i := range page {
			if ctx.Err() != nil {
				return updated
			}
			if ew.rescore(ctx, &page[i], now) {
				updated++
			}
		}
		if len(page) < ew.PageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	ew.Logger.WithField("updated", updated).Info("Engagement rescore finished")
	return updated
}

func (ew *EngagementWorker) rescore(ctx context.Context, p *models.Prospect, now time.Time) bool {
	before := *p
	services.Rescore(p, ew.breakdown(ctx, p), now)
	if !derivedChanged(&before, p) {
		return false
	}

	if err := ew.Prospects.SaveDerived(ctx, p); err != nil {
		utils.LogError("engagement_save_failed", err, map[string]interface{}{"prospect_id": p.ID})
		return false
	}
	return true
}

// breakdown returns the dimensions of the prospect's latest assessment.
func (ew *EngagementWorker) breakdown(ctx context.Context, p *models.Prospect) *scoring.ScoreBreakdown {
	if ew.Assessments == nil || p.AssessmentCompletedAt == nil {
		return nil
	}
	assessments, err := ew.Assessments.ForProspect(ctx, p.ID)
	if err != nil || len(assessments) == 0 {
		return nil
	}
	a := assessments[0]
	return &scoring.ScoreBreakdown{
		CurrentState:     a.CurrentState,
		StrategyVision:   a.StrategyVision,
		TeamCapabilities: a.TeamCapabilities,
		Implementation:   a.Implementation,
	}
}

// derivedChanged compares the fields Rescore writes. The follow-up date is
// anchored on the last engagement, so an idle prospect compares equal.
func derivedChanged(before, after *models.Prospect) bool {
	if before.Temperature != after.Temperature ||
		before.Priority != after.Priority ||
		before.Status != after.Status ||
		before.Tier != after.Tier {
		return true
	}
	if before.NextFollowUpAt == nil || after.NextFollowUpAt == nil {
		return before.NextFollowUpAt != after.NextFollowUpAt
	}
	return !before.NextFollowUpAt.Equal(*after.NextFollowUpAt)
}
