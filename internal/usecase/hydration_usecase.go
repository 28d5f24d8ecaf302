package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"crew-recruitment-backend/internal/docclass"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/fieldmap"
	"crew-recruitment-backend/pkg/apperror"
	"crew-recruitment-backend/pkg/imageutil"
	"crew-recruitment-backend/pkg/logger"
	"crew-recruitment-backend/pkg/storage"
	"crew-recruitment-backend/pkg/vincere"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMinTextLength = 200
	documentSourceATS    = "vincere"
)

// HydrationConfig tunes the first-login import.
type HydrationConfig struct {
	// MinTextLength is the shortest extracted CV text worth embedding.
	MinTextLength int
	LockTTL       time.Duration
}

// HydrationDeps groups the hydration collaborators. Extractor and Embedder
// are optional; without them CVs are stored but not indexed.
type HydrationDeps struct {
	ATS        domain.ATSClient
	Mapper     *fieldmap.Mapper
	Candidates domain.CandidateRepository
	Documents  domain.DocumentRepository
	Storage    domain.FileStorage
	Extractor  domain.TextExtractor
	Embedder   domain.Embedder
	Locker     domain.Locker
	Logger     *zap.Logger
}

type hydrationUsecase struct {
	deps HydrationDeps
	cfg  HydrationConfig
	log  *zap.Logger
	now  func() time.Time
}

func NewHydrationUsecase(deps HydrationDeps, cfg HydrationConfig) domain.HydrationUsecase {
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = DefaultMinTextLength
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &hydrationUsecase{deps: deps, cfg: cfg, log: log, now: time.Now}
}

// NeedsHydration is true for a candidate with an email but no name, or one
// that has never been synchronised.
func (h *hydrationUsecase) NeedsHydration(c *domain.Candidate) bool {
	if c == nil || strings.TrimSpace(c.Email) == "" {
		return false
	}
	noName := isBlank(c.FirstName) && isBlank(c.LastName)
	return noName || c.LastSyncedAt == nil
}

func (h *hydrationUsecase) HydrateUser(ctx context.Context, userID string) (domain.HydrationReport, error) {
	c, err := h.deps.Candidates.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.HydrationReport{}, apperror.NotFound("Candidate profile not found")
		}
		return domain.HydrationReport{}, apperror.Internal(err)
	}
	return h.Hydrate(ctx, c.ID), nil
}

// Hydrate runs one pass. The profile step decides success; CV and photo
// failures are reported per step and never fail the pass.
func (h *hydrationUsecase) Hydrate(ctx context.Context, candidateID string) domain.HydrationReport {
	report := domain.HydrationReport{
		CandidateID: candidateID,
		CV:          domain.StepResult{Status: domain.StepSkipped},
		Photo:       domain.StepResult{Status: domain.StepSkipped},
	}
	if h.deps.ATS == nil {
		report.CV.Reason = ErrATSNotConfigured.Error()
		report.Photo.Reason = ErrATSNotConfigured.Error()
		return report
	}

	if h.deps.Locker != nil {
		release, err := h.deps.Locker.Acquire(ctx, "candidate:"+candidateID, h.cfg.LockTTL)
		if err != nil {
			report.Error = fmt.Sprintf("lock candidate: %v", err)
			return report
		}
		defer release()
	}

	c, err := h.deps.Candidates.GetByID(ctx, candidateID)
	if err != nil {
		report.Error = fmt.Sprintf("load candidate: %v", err)
		return report
	}
	if !h.NeedsHydration(c) {
		report.CV.Reason = "hydration not needed"
		report.Photo.Reason = "hydration not needed"
		return report
	}
	report.Needed = true

	log := h.log.With(zap.String("candidate_id", c.ID), zap.String("email", logger.MaskEmail(c.Email)))

	ref := ""
	if c.HasExternalRef() {
		ref = strings.TrimSpace(*c.VincereID)
	} else if ref, err = findCandidateByEmail(ctx, h.deps.ATS, strings.TrimSpace(c.Email)); err != nil {
		report.Error = fmt.Sprintf("search ats: %v", err)
		log.Warn("hydration search failed", zap.Error(err))
		return report
	}
	if ref == "" {
		log.Info("no ats record to hydrate from")
		report.CV.Reason = "no ats match"
		report.Photo.Reason = "no ats match"
		return report
	}
	report.Matched = true
	report.ExternalRef = ref
	log = log.With(zap.String("external_ref", ref))

	filled, err := h.hydrateProfile(ctx, c, ref)
	if err != nil {
		report.Error = err.Error()
		log.Error("hydration profile step failed", zap.Error(err))
		return report
	}
	report.ProfileSaved = true
	report.FieldsFilled = filled

	var files []domain.ExternalFile
	if err := h.deps.ATS.Get(ctx, vincere.CandidateFilesPath(ref), &files); err != nil {
		reason := fmt.Sprintf("list ats files: %v", err)
		report.CV = domain.StepResult{Status: domain.StepFailed, Reason: reason}
		report.Photo = domain.StepResult{Status: domain.StepFailed, Reason: reason}
		log.Warn("hydration could not list files", zap.Error(err))
		return report
	}

	// Both steps always return nil so one failing never cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		report.CV = h.importCV(ctx, c, files, log)
		return nil
	})
	g.Go(func() error {
		report.Photo = h.importPhoto(ctx, c, files, log)
		return nil
	})
	_ = g.Wait()

	log.Info("candidate hydrated",
		zap.Strings("fields_filled", filled),
		zap.String("cv", report.CV.Status),
		zap.String("photo", report.Photo.Status),
	)
	return report
}

func (h *hydrationUsecase) hydrateProfile(ctx context.Context, c *domain.Candidate, ref string) ([]string, error) {
	var rec domain.ExternalCandidate
	if err := h.deps.ATS.Get(ctx, vincere.CandidatePath(ref), &rec); err != nil {
		return nil, fmt.Errorf("fetch ats candidate: %w", err)
	}

	var custom []domain.CustomFieldValue
	var raw any
	if err := h.deps.ATS.Get(ctx, vincere.CandidateCustomFieldsPath(ref), &raw); err != nil {
		h.log.Warn("custom fields unavailable, hydrating basic fields only", zap.String("external_ref", ref), zap.Error(err))
	} else if custom, err = vincere.DecodeCustomFields(raw); err != nil {
		h.log.Warn("custom fields unreadable", zap.String("external_ref", ref), zap.Error(err))
	}

	patch := h.deps.Mapper.ToInternal(&rec, custom)
	filled := patch.ApplyMissing(c)

	now := h.now().UTC()
	c.VincereID = &ref
	c.LastSyncedAt = &now
	if err := h.deps.Candidates.SaveHydrated(ctx, c); err != nil {
		return nil, fmt.Errorf("save hydrated candidate: %w", err)
	}
	return filled, nil
}

func (h *hydrationUsecase) importCV(ctx context.Context, c *domain.Candidate, files []domain.ExternalFile, log *zap.Logger) domain.StepResult {
	usable, excludedReason := dropExcluded(files, log)
	file, class, ok := pickCV(usable)
	if !ok {
		if excludedReason != "" {
			return domain.StepResult{Status: domain.StepSkipped, Reason: "excluded: " + excludedReason}
		}
		return domain.StepResult{Status: domain.StepSkipped, Reason: "no cv on ats record"}
	}

	data, err := h.deps.ATS.GetRaw(ctx, file.URL)
	if err != nil {
		return h.stepFailed(log, "cv", "download cv", err)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = storage.ContentType(file.FileName)
	}
	url, err := h.deps.Storage.Upload(ctx, storage.ObjectKey(c.ID, domain.DocumentTypeCV, file.FileName), data, contentType)
	if err != nil {
		return h.stepFailed(log, "cv", "store cv", err)
	}

	now := h.now().UTC()
	externalID := vincere.FormatRef(file.ID)
	confidence, method := string(class.Confidence), string(class.Method)
	doc := &domain.CandidateDocument{
		ID:                 uuid.NewString(),
		CandidateID:        c.ID,
		Type:               domain.DocumentTypeCV,
		FileName:           file.FileName,
		StorageURL:         url,
		ContentType:        contentType,
		SizeBytes:          int64(len(data)),
		ClassifyConfidence: &confidence,
		ClassifyMethod:     &method,
		ExternalFileID:     &externalID,
		Source:             documentSourceATS,
		SyncedAt:           &now,
		CreatedAt:          now,
	}
	h.index(ctx, doc, data, log)

	if err := h.deps.Documents.Create(ctx, doc); err != nil {
		return h.stepFailed(log, "cv", "save cv document", err)
	}
	return domain.StepResult{Status: domain.StepCompleted, DocumentID: doc.ID, URL: url}
}

// index extracts text and, when there is enough of it, an embedding. Both
// are optional enrichments; failures are logged only.
func (h *hydrationUsecase) index(ctx context.Context, doc *domain.CandidateDocument, data []byte, log *zap.Logger) {
	if h.deps.Extractor == nil || !h.deps.Extractor.CanExtract(doc.FileName) {
		return
	}
	text, err := h.deps.Extractor.Extract(ctx, doc.FileName, data)
	if err != nil {
		log.Warn("cv text extraction failed", zap.String("file", doc.FileName), zap.Error(err))
		return
	}
	if text == "" {
		return
	}
	doc.ExtractedText = &text

	if h.deps.Embedder == nil || utf8.RuneCountInString(text) < h.cfg.MinTextLength {
		return
	}
	vec, err := h.deps.Embedder.Embed(ctx, text)
	if err != nil {
		log.Warn("cv embedding failed", zap.Error(err))
		return
	}
	doc.Embedding = vec
}

func (h *hydrationUsecase) importPhoto(ctx context.Context, c *domain.Candidate, files []domain.ExternalFile, log *zap.Logger) domain.StepResult {
	if !isBlank(c.PhotoURL) {
		return domain.StepResult{Status: domain.StepSkipped, Reason: "photo already set"}
	}

	candidates := make([]docclass.File, 0, len(files))
	byURL := make(map[string]domain.ExternalFile, len(files))
	for _, f := range files {
		candidates = append(candidates, docclass.File{FileName: f.FileName, IsCV: f.OriginalCV, URL: f.URL})
		byURL[f.URL] = f
	}
	picked, ok := docclass.SelectAvatar(candidates)
	if !ok {
		return domain.StepResult{Status: domain.StepSkipped, Reason: "no avatar-like image"}
	}
	file := byURL[picked.URL]

	data, err := h.deps.ATS.GetRaw(ctx, file.URL)
	if err != nil {
		return h.stepFailed(log, "photo", "download photo", err)
	}
	resized, err := imageutil.ResizeToJPEG(data, imageutil.DefaultMaxDimension, imageutil.DefaultQuality)
	if err != nil {
		return h.stepFailed(log, "photo", "resize photo", err)
	}

	name := strings.TrimSuffix(file.FileName, filepath.Ext(file.FileName)) + ".jpg"
	url, err := h.deps.Storage.Upload(ctx, storage.ObjectKey(c.ID, domain.DocumentTypePhoto, name), resized, "image/jpeg")
	if err != nil {
		return h.stepFailed(log, "photo", "store photo", err)
	}
	if err := h.deps.Candidates.SetPhotoURL(ctx, c.ID, url); err != nil {
		return h.stepFailed(log, "photo", "save photo url", err)
	}
	return domain.StepResult{Status: domain.StepCompleted, URL: url}
}

func (h *hydrationUsecase) stepFailed(log *zap.Logger, step, action string, err error) domain.StepResult {
	log.Warn("hydration sub-step failed", zap.String("step", step), zap.String("action", action), zap.Error(err))
	return domain.StepResult{Status: domain.StepFailed, Reason: fmt.Sprintf("%s: %v", action, err)}
}

// dropExcluded removes files that must never be imported. The returned
// reason is that of the first excluded file the classifier calls a CV.
func dropExcluded(files []domain.ExternalFile, log *zap.Logger) ([]domain.ExternalFile, string) {
	usable := make([]domain.ExternalFile, 0, len(files))
	var reason string
	for _, f := range files {
		df := docclass.File{FileName: f.FileName, IsCV: f.OriginalCV, URL: f.URL}
		ex := docclass.ShouldExclude(df)
		if !ex.Excluded {
			usable = append(usable, f)
			continue
		}
		log.Info("ats file excluded from import", zap.String("file", f.FileName), zap.String("reason", ex.Reason))
		if reason == "" && docclass.Classify(df).Type == domain.DocumentTypeCV {
			reason = ex.Reason
		}
	}
	return usable, reason
}

// pickCV prefers the file flagged as the original CV, then the first file
// the classifier calls a CV.
func pickCV(files []domain.ExternalFile) (domain.ExternalFile, docclass.Result, bool) {
	var (
		best      domain.ExternalFile
		bestClass docclass.Result
		found     bool
	)
	for _, f := range files {
		r := docclass.Classify(docclass.File{FileName: f.FileName, IsCV: f.OriginalCV, URL: f.URL})
		if r.Type != domain.DocumentTypeCV {
			continue
		}
		if f.OriginalCV {
			return f, r, true
		}
		if !found {
			best, bestClass, found = f, r, true
		}
	}
	return best, bestClass, found
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
