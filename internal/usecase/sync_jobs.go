package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/pkg/vincere"

	"go.uber.org/zap"
)

// PullJob imports a position and its custom fields into the local jobs table.
func (s *SyncService) PullJob(ctx context.Context, externalJobID string) (*domain.Job, error) {
	if !s.IsConfigured() {
		return nil, ErrATSNotConfigured
	}
	ref := strings.TrimSpace(externalJobID)
	if _, err := vincere.ParseRef(ref); err != nil {
		return nil, err
	}

	var pos domain.ExternalPosition
	if err := s.call(ctx, func() error { return s.ats.Get(ctx, vincere.PositionPath(ref), &pos) }); err != nil {
		return nil, fmt.Errorf("fetch position %s: %w", ref, err)
	}

	var custom []domain.CustomFieldValue
	var raw any
	if err := s.call(ctx, func() error { return s.ats.Get(ctx, vincere.PositionCustomFieldsPath(ref), &raw) }); err != nil {
		s.log.Warn("position custom fields unavailable", zap.String("external_ref", ref), zap.Error(err))
	} else if custom, err = vincere.DecodeCustomFields(raw); err != nil {
		s.log.Warn("position custom fields unreadable", zap.String("external_ref", ref), zap.Error(err))
	}

	patch := s.mapper.JobToInternal(&pos, custom)

	job, err := s.jobs.GetByExternalRef(ctx, ref)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		job = &domain.Job{VincereID: &ref, Status: "draft"}
	case err != nil:
		return nil, fmt.Errorf("load job %s: %w", ref, err)
	}
	patch.ApplyTo(job)

	if err := s.jobs.UpsertByExternalRef(ctx, job); err != nil {
		return nil, fmt.Errorf("save job %s: %w", ref, err)
	}
	s.log.Info("job pulled from ats", zap.String("external_ref", ref), zap.Int64("job_id", job.ID))
	return job, nil
}

func (s *SyncService) EnsureWebhook(ctx context.Context, url string, events []string) (*domain.Webhook, error) {
	if !s.IsConfigured() {
		return nil, ErrATSNotConfigured
	}
	hooks, err := s.ats.ListWebhooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	for i := range hooks {
		if hooks[i].URL == url && sameEvents(hooks[i].Events, events) {
			return &hooks[i], nil
		}
	}
	hook, err := s.ats.CreateWebhook(ctx, domain.Webhook{URL: url, Events: events})
	if err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}
	s.log.Info("ats webhook registered", zap.String("url", url), zap.Strings("events", events))
	return hook, nil
}

func (s *SyncService) ListWebhooks(ctx context.Context) ([]domain.Webhook, error) {
	if !s.IsConfigured() {
		return nil, ErrATSNotConfigured
	}
	return s.ats.ListWebhooks(ctx)
}

func (s *SyncService) DeleteWebhook(ctx context.Context, id string) error {
	if !s.IsConfigured() {
		return ErrATSNotConfigured
	}
	return s.ats.DeleteWebhook(ctx, id)
}

func sameEvents(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, e := range a {
		seen[strings.ToLower(e)]++
	}
	for _, e := range b {
		k := strings.ToLower(e)
		if seen[k] == 0 {
			return false
		}
		seen[k]--
	}
	return true
}
