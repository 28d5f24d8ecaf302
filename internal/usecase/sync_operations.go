package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/fieldmap"
	"crew-recruitment-backend/pkg/logger"
	"crew-recruitment-backend/pkg/vincere"

	"go.uber.org/zap"
)

// outcome is what a sync operation reports besides its error.
type outcome struct {
	ref     string
	skipped string
}

func (s *SyncService) locked(ctx context.Context, req domain.SyncRequest) (outcome, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, "candidate:"+req.CandidateID, s.cfg.LockTTL)
		if err != nil {
			return outcome{}, fmt.Errorf("lock candidate %s: %w", req.CandidateID, err)
		}
		defer release()
	}
	return s.execute(ctx, req)
}

func (s *SyncService) execute(ctx context.Context, req domain.SyncRequest) (outcome, error) {
	if strings.TrimSpace(req.CandidateID) == "" {
		return outcome{}, local(errors.New("candidate id is required"))
	}

	c, err := s.candidates.GetByID(ctx, req.CandidateID)
	if err != nil {
		return outcome{}, local(fmt.Errorf("load candidate %s: %w", req.CandidateID, err))
	}

	switch req.Type {
	case domain.SyncTypeCreate:
		ref, _, err := s.ensureRef(ctx, c)
		return outcome{ref: ref}, err

	case domain.SyncTypeUpdate:
		var p domain.UpdatePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return outcome{}, err
		}
		return s.update(ctx, c, p.Fields)

	case domain.SyncTypeDocument:
		var p domain.DocumentPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return outcome{}, err
		}
		return s.document(ctx, c, p.DocumentID)

	case domain.SyncTypeApplication:
		var p domain.ApplicationPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return outcome{}, err
		}
		return s.application(ctx, c, p.JobID)

	case domain.SyncTypeAvailability:
		var p domain.AvailabilityPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return outcome{}, err
		}
		return s.availability(ctx, c, p.AvailableFrom)
	}

	return outcome{}, fmt.Errorf("%w: unknown sync type %q", domain.ErrInvalidPayload, req.Type)
}

func decodePayload(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}

// ensureRef returns the candidate's external reference, linking to an
// existing remote record by email or creating one. created reports a new
// remote record.
func (s *SyncService) ensureRef(ctx context.Context, c *domain.Candidate) (ref string, created bool, err error) {
	if c.HasExternalRef() {
		return strings.TrimSpace(*c.VincereID), false, nil
	}

	email := strings.TrimSpace(c.Email)
	if email == "" {
		return "", false, fmt.Errorf("%w: candidate %s has no email", domain.ErrInvalidPayload, c.ID)
	}
	log := s.log.With(zap.String("candidate_id", c.ID), zap.String("email", logger.MaskEmail(email)))

	ref, err = s.findByEmail(ctx, email)
	if err != nil {
		return "", false, fmt.Errorf("search candidate by email: %w", err)
	}
	if ref != "" {
		if err := s.candidates.SetExternalRef(ctx, c.ID, ref, s.now().UTC()); err != nil {
			return ref, false, local(fmt.Errorf("store external ref: %w", err))
		}
		c.VincereID = &ref
		log.Info("linked existing ats candidate", zap.String("external_ref", ref))
		return ref, false, nil
	}

	payload := s.mapper.ToExternal(c)
	if !c.CreatedAt.IsZero() {
		reg := c.CreatedAt.UTC().Format(fieldmap.ExternalDateLayout)
		payload.Basic.RegistrationDate = &reg
	}

	var rec vincere.CreatedRecord
	if err := s.call(ctx, func() error {
		return s.ats.Post(ctx, vincere.CandidateCreatePath(), payload.Basic, &rec)
	}); err != nil {
		return "", false, fmt.Errorf("create candidate: %w", err)
	}
	if rec.ID == 0 {
		return "", false, errors.New("create candidate: ats returned no id")
	}
	ref = vincere.FormatRef(rec.ID)

	if err := s.candidates.SetExternalRef(ctx, c.ID, ref, s.now().UTC()); err != nil {
		// The remote record exists; the next create links to it by email.
		return ref, true, local(fmt.Errorf("store external ref: %w", err))
	}
	c.VincereID = &ref
	log.Info("created ats candidate", zap.String("external_ref", ref))

	// Follow-ups are best effort: the record exists and a later update
	// carries these fields again.
	if err := s.pushCustomFields(ctx, ref, payload.Custom); err != nil {
		log.Warn("failed to push custom fields after create", zap.Error(err))
	}
	if err := s.pushPositionCode(ctx, ref, payload.PositionCode); err != nil {
		log.Warn("failed to push position category after create", zap.Error(err))
	}
	return ref, true, nil
}

func (s *SyncService) findByEmail(ctx context.Context, email string) (string, error) {
	var ref string
	err := s.call(ctx, func() error {
		var err error
		ref, err = findCandidateByEmail(ctx, s.ats, email)
		return err
	})
	return ref, err
}

// findCandidateByEmail returns the id of the remote candidate whose primary
// email matches, or "" when there is none.
func findCandidateByEmail(ctx context.Context, ats domain.ATSClient, email string) (string, error) {
	var res vincere.SearchResult
	if err := ats.Get(ctx, vincere.CandidateSearchPath(email), &res); err != nil {
		return "", err
	}

	var found []domain.ExternalCandidate
	if err := res.Decode(&found); err != nil {
		return "", fmt.Errorf("decode search result: %w", err)
	}
	for _, f := range found {
		if f.ID == 0 {
			continue
		}
		if f.Email == nil || strings.EqualFold(strings.TrimSpace(*f.Email), email) {
			return vincere.FormatRef(f.ID), nil
		}
	}
	return "", nil
}

func (s *SyncService) update(ctx context.Context, c *domain.Candidate, fields []string) (outcome, error) {
	ref, created, err := s.ensureRef(ctx, c)
	if err != nil || created {
		// A fresh record already carries the full profile.
		return outcome{ref: ref}, err
	}

	payload := s.mapper.ToExternal(c, fields...)
	if !payload.Basic.IsEmpty() {
		if err := s.call(ctx, func() error {
			return s.ats.Patch(ctx, vincere.CandidatePath(ref), payload.Basic, nil)
		}); err != nil {
			return outcome{ref: ref}, fmt.Errorf("update candidate: %w", err)
		}
	}
	if err := s.pushCustomFields(ctx, ref, payload.Custom); err != nil {
		return outcome{ref: ref}, fmt.Errorf("update custom fields: %w", err)
	}
	if err := s.pushPositionCode(ctx, ref, payload.PositionCode); err != nil {
		s.log.Warn("failed to push position category", zap.String("candidate_id", c.ID), zap.Error(err))
	}

	s.touch(ctx, c.ID)
	return outcome{ref: ref}, nil
}

func (s *SyncService) document(ctx context.Context, c *domain.Candidate, documentID string) (outcome, error) {
	if strings.TrimSpace(documentID) == "" {
		return outcome{}, fmt.Errorf("%w: document id is required", domain.ErrInvalidPayload)
	}
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return outcome{}, local(fmt.Errorf("load document %s: %w", documentID, err))
	}
	if doc.CandidateID != c.ID {
		return outcome{}, fmt.Errorf("%w: document %s does not belong to candidate %s", domain.ErrInvalidPayload, doc.ID, c.ID)
	}

	ref, _, err := s.ensureRef(ctx, c)
	if err != nil {
		return outcome{ref: ref}, err
	}

	data, err := s.storage.Download(ctx, doc.StorageURL)
	if err != nil {
		return outcome{ref: ref}, fmt.Errorf("download document %s: %w", doc.ID, err)
	}

	kind := uploadKind(doc.Type)
	upload := domain.FileUpload{
		FileName:     doc.FileName,
		ContentType:  doc.ContentType,
		Content:      data,
		IsCV:         doc.Type == domain.DocumentTypeCV,
		DocumentType: doc.Type,
	}
	// Photo size limits are enforced by Vincere; a rejection is a permanent 4xx.
	if err := s.call(ctx, func() error {
		return s.ats.Upload(ctx, vincere.FileUploadPath(ref, kind), upload)
	}); err != nil {
		return outcome{ref: ref}, fmt.Errorf("upload %s document: %w", doc.Type, err)
	}

	if err := s.documents.MarkSynced(ctx, doc.ID, s.now().UTC()); err != nil {
		s.log.Warn("document uploaded but not marked synced", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return outcome{ref: ref}, nil
}

func uploadKind(docType string) string {
	switch docType {
	case domain.DocumentTypeCV:
		return vincere.UploadCV
	case domain.DocumentTypePhoto:
		return vincere.UploadPhoto
	case domain.DocumentTypeCertification, domain.DocumentTypeMedical:
		return vincere.UploadCertificate
	}
	return vincere.UploadDocument
}

func (s *SyncService) application(ctx context.Context, c *domain.Candidate, jobID int64) (outcome, error) {
	if jobID <= 0 {
		return outcome{}, fmt.Errorf("%w: job id is required", domain.ErrInvalidPayload)
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return outcome{}, local(fmt.Errorf("load job %d: %w", jobID, err))
	}
	if !job.HasExternalRef() {
		return outcome{skipped: "job is not linked to the ats"}, nil
	}

	ref, _, err := s.ensureRef(ctx, c)
	if err != nil {
		return outcome{ref: ref}, err
	}
	candidateRef, err := vincere.ParseRef(ref)
	if err != nil {
		return outcome{ref: ref}, err
	}

	err = s.call(ctx, func() error {
		return s.ats.Post(ctx, vincere.ShortlistPath(strings.TrimSpace(*job.VincereID)), vincere.ShortlistRequest{
			CandidateID: candidateRef,
			Stage:       vincere.DefaultShortlistStage,
		}, nil)
	})
	var atsErr *domain.ATSError
	if errors.As(err, &atsErr) && atsErr.StatusCode == http.StatusConflict {
		return outcome{ref: ref, skipped: "candidate already shortlisted"}, nil
	}
	if err != nil {
		return outcome{ref: ref}, fmt.Errorf("shortlist candidate on job %s: %w", *job.VincereID, err)
	}
	return outcome{ref: ref}, nil
}

func (s *SyncService) availability(ctx context.Context, c *domain.Candidate, availableFrom *time.Time) (outcome, error) {
	if availableFrom == nil {
		availableFrom = c.AvailableFrom
	}
	fields := s.mapper.AvailabilityFields(availableFrom)
	if len(fields) == 0 {
		return outcome{skipped: "no available-from date"}, nil
	}

	ref, _, err := s.ensureRef(ctx, c)
	if err != nil {
		return outcome{ref: ref}, err
	}
	if err := s.pushCustomFields(ctx, ref, fields); err != nil {
		return outcome{ref: ref}, fmt.Errorf("update start date: %w", err)
	}
	s.touch(ctx, c.ID)
	return outcome{ref: ref}, nil
}

func (s *SyncService) pushCustomFields(ctx context.Context, ref string, fields []domain.CustomFieldValue) error {
	body := vincere.EncodeCustomFields(fields)
	if len(body.Data) == 0 {
		return nil
	}
	return s.call(ctx, func() error {
		return s.ats.Patch(ctx, vincere.CandidateCustomFieldsPath(ref), body, nil)
	})
}

func (s *SyncService) pushPositionCode(ctx context.Context, ref string, code int) error {
	if code == 0 {
		return nil
	}
	return s.call(ctx, func() error {
		return s.ats.Put(ctx, vincere.CandidateExpertisePath(ref), []vincere.ExpertiseRequest{{FunctionalExpertiseID: code}}, nil)
	})
}

func (s *SyncService) touch(ctx context.Context, candidateID string) {
	if err := s.candidates.TouchSynced(ctx, candidateID, s.now().UTC()); err != nil {
		s.log.Warn("failed to record sync time", zap.String("candidate_id", candidateID), zap.Error(err))
	}
}

// call sleeps the advisory delay before an ATS request.
func (s *SyncService) call(ctx context.Context, fn func() error) error {
	if s.cfg.RequestDelay > 0 {
		t := time.NewTimer(s.cfg.RequestDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fn()
}
