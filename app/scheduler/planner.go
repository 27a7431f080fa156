package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/metrics"
	"github.com/vibast-solutions/ms-go-mailings/app/queue"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
	"github.com/vibast-solutions/ms-go-mailings/app/schedule"
)

// Publisher hands a due occurrence to the dispatch consumers.
type Publisher interface {
	Publish(ctx context.Context, msg queue.DispatchMessage) (bool, error)
}

// Planner finds due occurrences and publishes them for dispatch.
type Planner struct {
	mailings  *repository.MailingRepository
	publisher Publisher
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
	batch     int
	claimTTL  time.Duration
	now       func() time.Time
}

func NewPlanner(
	mailings *repository.MailingRepository,
	publisher Publisher,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
	batch int,
	claimTTL time.Duration,
) *Planner {
	return &Planner{
		mailings:  mailings,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		batch:     batch,
		claimTTL:  claimTTL,
		now:       time.Now,
	}
}

// Tick is the scheduler callback.
func (p *Planner) Tick(ctx context.Context) {
	published, err := p.PlanDue(ctx)
	if err != nil {
		p.logger.WithError(err).Error("planning due mailings failed")
		return
	}
	if published > 0 {
		p.logger.WithField("published", published).Info("due occurrences published")
	}
}

// PlanDue publishes every due occurrence and finishes mailings that ran past
// their finish time. It returns the number of messages published.
func (p *Planner) PlanDue(ctx context.Context) (int, error) {
	now := p.now()
	due, err := p.mailings.ListDue(ctx, now, p.batch)
	if err != nil {
		return 0, fmt.Errorf("list due mailings: %w", err)
	}

	published := 0
	for _, m := range due {
		log := p.logger.WithField("mailing_id", m.ID)

		if schedule.IsExpired(m) {
			if err := p.mailings.Finish(ctx, m.ID); err != nil {
				return published, fmt.Errorf("finish mailing %d: %w", m.ID, err)
			}
			log.Info("mailing past its finish time, finished")
			continue
		}
		if !schedule.IsEligible(m, now) || p.claimedRecently(m, now) {
			continue
		}

		ok, err := p.publisher.Publish(ctx, queue.DispatchMessage{MailingID: m.ID, Occurrence: m.Next})
		if err != nil {
			return published, fmt.Errorf("publish mailing %d: %w", m.ID, err)
		}
		if ok {
			published++
			if p.metrics != nil {
				p.metrics.ScheduledTotal.Inc()
			}
		}
	}
	return published, nil
}

func (p *Planner) claimedRecently(m entity.Mailing, now time.Time) bool {
	return m.Status == entity.MailingStatusProcessing &&
		m.ClaimedAt != nil &&
		m.ClaimedAt.After(now.Add(-p.claimTTL))
}
