package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/lock"
	"github.com/vibast-solutions/ms-go-mailings/app/metrics"
	"github.com/vibast-solutions/ms-go-mailings/app/preparer"
	"github.com/vibast-solutions/ms-go-mailings/app/provider"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
	"github.com/vibast-solutions/ms-go-mailings/app/schedule"
)

const noMailResponse = "mailing has no mail attached"

type DispatchConfig struct {
	LockTTL     time.Duration
	ClaimTTL    time.Duration
	SendTimeout time.Duration
	SendRate    float64
	SendBurst   int
}

// DispatchResult summarizes one handled occurrence.
type DispatchResult struct {
	Status  entity.MailingStatus
	Next    time.Time
	Sent    int
	Failed  int
	Skipped int
}

type DispatchService struct {
	mailings *repository.MailingRepository
	mails    *repository.MailRepository
	logs     *repository.LogRepository
	preparer preparer.EmailPreparer
	provider provider.EmailProvider
	locker   lock.Locker
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
	cfg      DispatchConfig
	now      func() time.Time
}

func NewDispatchService(
	mailings *repository.MailingRepository,
	mails *repository.MailRepository,
	logs *repository.LogRepository,
	prep preparer.EmailPreparer,
	prov provider.EmailProvider,
	locker lock.Locker,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
	cfg DispatchConfig,
) *DispatchService {
	return &DispatchService{
		mailings: mailings,
		mails:    mails,
		logs:     logs,
		preparer: prep,
		provider: prov,
		locker:   locker,
		limiter:  rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Dispatch delivers one occurrence of a mailing to every recipient and moves
// the mailing on to its following occurrence. It returns ErrNotClaimed when
// the occurrence is no longer due or another dispatcher owns it.
func (s *DispatchService) Dispatch(ctx context.Context, mailingID int64, occurrence time.Time) (DispatchResult, error) {
	started := s.now()
	log := s.logger.WithFields(logrus.Fields{
		"mailing_id": mailingID,
		"occurrence": occurrence.UTC().Format(time.RFC3339),
	})

	key := lock.DispatchKey(mailingID)
	if err := s.locker.Acquire(ctx, key, s.cfg.LockTTL); err != nil {
		if errors.Is(err, lock.ErrNotAcquired) || errors.Is(err, lock.ErrAlreadyHeld) {
			s.outcome("locked")
			return DispatchResult{}, ErrNotClaimed
		}
		return DispatchResult{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key); err != nil {
			log.WithError(err).Warn("failed to release dispatch lock")
		}
	}()

	m, err := s.mailings.Get(ctx, mailingID)
	if errors.Is(err, repository.ErrNotFound) {
		s.outcome("stale")
		return DispatchResult{}, ErrNotClaimed
	}
	if err != nil {
		return DispatchResult{}, fmt.Errorf("load mailing: %w", err)
	}
	if !m.Next.Equal(occurrence) {
		s.outcome("stale")
		return DispatchResult{}, ErrNotClaimed
	}

	now := s.now()
	if schedule.IsExpired(m) {
		if err := s.mailings.Finish(ctx, m.ID); err != nil {
			return DispatchResult{}, fmt.Errorf("finish expired mailing: %w", err)
		}
		s.outcome("expired")
		log.Info("mailing expired before its occurrence, finished without sending")
		return DispatchResult{Status: entity.MailingStatusFinished, Next: m.Next}, nil
	}
	if !schedule.IsEligible(m, now) {
		s.outcome("stale")
		return DispatchResult{}, ErrNotClaimed
	}

	claimed, err := s.mailings.Claim(ctx, m.ID, occurrence, now, now.Add(-s.cfg.ClaimTTL))
	if err != nil {
		return DispatchResult{}, fmt.Errorf("claim occurrence: %w", err)
	}
	if !claimed {
		s.outcome("not_claimed")
		return DispatchResult{}, ErrNotClaimed
	}

	result, err := s.deliver(ctx, log, m, occurrence)
	if err != nil {
		// The claim stays in place and is taken over once it goes stale.
		return result, err
	}

	tr := schedule.Advance(m)
	if err := s.mailings.Complete(ctx, m.ID, occurrence, tr.Next, tr.Status); err != nil {
		if errors.Is(err, repository.ErrClaimLost) {
			s.outcome("claim_lost")
			log.Warn("mailing changed while dispatching, occurrence not advanced")
			return result, fmt.Errorf("complete occurrence: %w", ErrNotClaimed)
		}
		return result, fmt.Errorf("complete occurrence: %w", err)
	}
	result.Status = tr.Status
	result.Next = tr.Next

	s.outcome("dispatched")
	if s.metrics != nil {
		s.metrics.DispatchDuration.Observe(s.now().Sub(started).Seconds())
	}
	log.WithFields(logrus.Fields{
		"sent":    result.Sent,
		"failed":  result.Failed,
		"skipped": result.Skipped,
		"status":  result.Status,
	}).Info("occurrence dispatched")

	return result, nil
}

func (s *DispatchService) deliver(ctx context.Context, log logrus.FieldLogger, m entity.Mailing, occurrence time.Time) (DispatchResult, error) {
	var result DispatchResult

	var mail *entity.Mail
	if m.MailID != nil {
		loaded, err := s.mails.Get(ctx, *m.MailID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return result, fmt.Errorf("load mail: %w", err)
		default:
			mail = &loaded
		}
	}

	recipients, err := s.mailings.Recipients(ctx, m.ID)
	if err != nil {
		return result, fmt.Errorf("load recipients: %w", err)
	}
	attempted, err := s.logs.AttemptedClientIDs(ctx, m.ID, occurrence)
	if err != nil {
		return result, fmt.Errorf("load attempted recipients: %w", err)
	}

	lastRefresh := s.now()
	for _, c := range recipients {
		if attempted[c.ID] {
			result.Skipped++
			continue
		}

		if s.now().Sub(lastRefresh) > s.cfg.LockTTL/2 {
			if err := s.locker.Refresh(ctx, lock.DispatchKey(m.ID), s.cfg.LockTTL); err != nil {
				return result, fmt.Errorf("refresh lock: %w", err)
			}
			lastRefresh = s.now()
		}

		if mail != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return result, fmt.Errorf("wait for send slot: %w", err)
			}
		}

		entry := log.WithField("recipient", c.Email)
		response, sendErr := s.send(ctx, m, mail, c, occurrence)

		status := entity.LogStatusSent
		if sendErr != nil {
			status = entity.LogStatusFailed
			response = sendErr.Error()
			result.Failed++
			entry.WithError(sendErr).Warn("delivery failed")
		} else {
			result.Sent++
			entry.Debug("delivered")
		}
		if s.metrics != nil {
			s.metrics.DeliveryAttemptsTotal.WithLabelValues(status).Inc()
		}

		mailingID, clientID := m.ID, c.ID
		if err := s.logs.Record(context.WithoutCancel(ctx), entity.Log{
			MailingID:      &mailingID,
			ClientID:       &clientID,
			Occurrence:     occurrence,
			AttemptTime:    s.now(),
			Status:         status,
			ServerResponse: &response,
		}); err != nil {
			return result, fmt.Errorf("record attempt for client %d: %w", c.ID, err)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (s *DispatchService) send(ctx context.Context, m entity.Mailing, mail *entity.Mail, c entity.Client, occurrence time.Time) (string, error) {
	if mail == nil {
		return "", errors.New(noMailResponse)
	}

	raw, err := s.preparer.Prepare(ctx, preparer.Message{
		MailingID:  m.ID,
		Occurrence: occurrence,
		Recipient:  c.Email,
		Subject:    mail.Subject,
		Content:    mail.Content,
	})
	if err != nil {
		return "", fmt.Errorf("prepare message: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()
	return s.provider.SendRaw(sendCtx, c.Email, raw)
}

func (s *DispatchService) outcome(name string) {
	if s.metrics != nil {
		s.metrics.OccurrencesTotal.WithLabelValues(name).Inc()
	}
}
