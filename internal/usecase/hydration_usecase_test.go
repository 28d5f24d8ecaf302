package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/fieldmap"
	"crew-recruitment-backend/internal/usecase"
	"crew-recruitment-backend/pkg/vincere"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct{ text string }

func (f fakeExtractor) CanExtract(name string) bool { return strings.HasSuffix(name, ".pdf") }
func (f fakeExtractor) Extract(context.Context, string, []byte) (string, error) {
	return f.text, nil
}

type fakeEmbedder struct{ calls int }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2, 0.3}, nil
}

type hydrationFixture struct {
	ats        *MockATS
	candidates *MockCandidateRepo
	documents  *MockDocumentRepo
	storage    *MockStorage
	embedder   *fakeEmbedder
	uc         domain.HydrationUsecase
}

func newHydrationFixture(t *testing.T, cvText string) *hydrationFixture {
	t.Helper()
	dict, err := fieldmap.DefaultDictionary()
	require.NoError(t, err)

	f := &hydrationFixture{
		ats:        new(MockATS),
		candidates: new(MockCandidateRepo),
		documents:  new(MockDocumentRepo),
		storage:    new(MockStorage),
		embedder:   &fakeEmbedder{},
	}
	f.uc = usecase.NewHydrationUsecase(usecase.HydrationDeps{
		ATS:        f.ats,
		Mapper:     fieldmap.NewMapper(dict),
		Candidates: f.candidates,
		Documents:  f.documents,
		Storage:    f.storage,
		Extractor:  fakeExtractor{text: cvText},
		Embedder:   f.embedder,
	}, usecase.HydrationConfig{})
	return f
}

// expectProfile stubs the search, the record and its custom fields.
func (f *hydrationFixture) expectProfile(ctx context.Context, ref int64, rec domain.ExternalCandidate) {
	f.ats.On("Get", ctx, vincere.CandidateSearchPath("jane@example.com"), mock.Anything).
		Run(searchHit(ref, "jane@example.com")).Return(nil)
	f.ats.On("Get", ctx, vincere.CandidatePath(vincere.FormatRef(ref)), mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*domain.ExternalCandidate) = rec }).Return(nil)
	f.ats.On("Get", ctx, vincere.CandidateCustomFieldsPath(vincere.FormatRef(ref)), mock.Anything).Return(nil)
}

func (f *hydrationFixture) expectFiles(ctx context.Context, ref int64, files []domain.ExternalFile) {
	f.ats.On("Get", ctx, vincere.CandidateFilesPath(vincere.FormatRef(ref)), mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*[]domain.ExternalFile) = files }).Return(nil)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 1000, 1000))
	img.Set(10, 10, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNeedsHydration(t *testing.T) {
	uc := usecase.NewHydrationUsecase(usecase.HydrationDeps{}, usecase.HydrationConfig{})
	synced := time.Now()

	tests := []struct {
		name string
		c    *domain.Candidate
		want bool
	}{
		{"no email", &domain.Candidate{}, false},
		{"email without name", &domain.Candidate{Email: "a@x.com", LastSyncedAt: &synced}, true},
		{"named but never synced", &domain.Candidate{Email: "a@x.com", FirstName: strPtr("Ann")}, true},
		{"named and synced", &domain.Candidate{Email: "a@x.com", LastName: strPtr("Lee"), LastSyncedAt: &synced}, false},
	}
	for _, tt := range tests {
		t.Run("Should decide for "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uc.NeedsHydration(tt.c))
		})
	}
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should fill only missing fields and import the CV and photo", func(t *testing.T) {
		f := newHydrationFixture(t, strings.Repeat("Chief stewardess with ten seasons. ", 10))
		c := &domain.Candidate{ID: "cand-1", Email: "jane@example.com", Phone: strPtr("+44 7000 000000")}
		f.candidates.On("GetByID", ctx, "cand-1").Return(c, nil)
		f.expectProfile(ctx, 77, domain.ExternalCandidate{
			ID:        77,
			FirstName: strPtr("Jane"),
			LastName:  strPtr("Doe"),
			Phone:     strPtr("+33 6 99 99 99 99"),
		})
		f.expectFiles(ctx, 77, []domain.ExternalFile{
			{ID: 1, FileName: "Jane Doe CV.pdf", URL: "https://files/cv", ContentType: "application/pdf", OriginalCV: true},
			{ID: 2, FileName: "jane_headshot.png", URL: "https://files/photo"},
		})

		var saved domain.Candidate
		f.candidates.On("SaveHydrated", ctx, c).Run(func(args mock.Arguments) {
			saved = *args.Get(1).(*domain.Candidate)
		}).Return(nil).Once()

		f.ats.On("GetRaw", ctx, "https://files/cv").Return([]byte("%PDF-1.4"), nil)
		f.ats.On("GetRaw", ctx, "https://files/photo").Return(pngBytes(t), nil)
		f.storage.On("Upload", ctx, mock.Anything, []byte("%PDF-1.4"), "application/pdf").Return("https://store/cv.pdf", nil)
		f.storage.On("Upload", ctx, mock.Anything, mock.Anything, "image/jpeg").Return("https://store/photo.jpg", nil)
		f.candidates.On("SetPhotoURL", ctx, "cand-1", "https://store/photo.jpg").Return(nil).Once()

		var doc *domain.CandidateDocument
		f.documents.On("Create", ctx, mock.AnythingOfType("*domain.CandidateDocument")).Run(func(args mock.Arguments) {
			doc = args.Get(1).(*domain.CandidateDocument)
		}).Return(nil).Once()

		report := f.uc.Hydrate(ctx, "cand-1")
		require.Empty(t, report.Error)
		assert.True(t, report.Needed)
		assert.True(t, report.Matched)
		assert.True(t, report.ProfileSaved)
		assert.Equal(t, "77", report.ExternalRef)

		assert.Equal(t, "Jane", *saved.FirstName)
		assert.Equal(t, "+44 7000 000000", *saved.Phone, "local values are never overwritten")
		assert.Equal(t, "77", *saved.VincereID)
		assert.NotNil(t, saved.LastSyncedAt)
		assert.NotContains(t, report.FieldsFilled, domain.FieldPhone)

		assert.Equal(t, domain.StepCompleted, report.CV.Status, report.CV.Reason)
		require.NotNil(t, doc)
		assert.Equal(t, domain.DocumentTypeCV, doc.Type)
		assert.Equal(t, "vincere", doc.Source)
		assert.Equal(t, "1", *doc.ExternalFileID)
		assert.Len(t, doc.Embedding, 3)

		assert.Equal(t, domain.StepCompleted, report.Photo.Status, report.Photo.Reason)
		assert.Equal(t, "https://store/photo.jpg", report.Photo.URL)
	})

	t.Run("Should store short CVs without embedding them", func(t *testing.T) {
		f := newHydrationFixture(t, "too short")
		c := &domain.Candidate{ID: "cand-1", Email: "jane@example.com", PhotoURL: strPtr("https://store/old.jpg")}
		f.candidates.On("GetByID", ctx, "cand-1").Return(c, nil)
		f.expectProfile(ctx, 77, domain.ExternalCandidate{ID: 77})
		f.expectFiles(ctx, 77, []domain.ExternalFile{{ID: 1, FileName: "cv.pdf", URL: "https://files/cv", OriginalCV: true}})
		f.candidates.On("SaveHydrated", ctx, c).Return(nil)
		f.ats.On("GetRaw", ctx, "https://files/cv").Return([]byte("%PDF"), nil)
		f.storage.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything).Return("https://store/cv.pdf", nil)
		f.documents.On("Create", ctx, mock.Anything).Return(nil)

		report := f.uc.Hydrate(ctx, "cand-1")
		assert.Equal(t, domain.StepCompleted, report.CV.Status)
		assert.Equal(t, domain.StepSkipped, report.Photo.Status)
		assert.Equal(t, 0, f.embedder.calls)
	})

	t.Run("Should skip excluded CVs", func(t *testing.T) {
		f := newHydrationFixture(t, "")
		c := &domain.Candidate{ID: "cand-1", Email: "jane@example.com"}
		f.candidates.On("GetByID", ctx, "cand-1").Return(c, nil)
		f.expectProfile(ctx, 77, domain.ExternalCandidate{ID: 77})
		f.expectFiles(ctx, 77, []domain.ExternalFile{{ID: 5, FileName: "Jane CV rebuilt.pdf", URL: "https://files/cv", OriginalCV: true}})
		f.candidates.On("SaveHydrated", ctx, c).Return(nil)

		report := f.uc.Hydrate(ctx, "cand-1")
		assert.Equal(t, domain.StepSkipped, report.CV.Status)
		assert.Contains(t, report.CV.Reason, "excluded")
		f.ats.AssertNotCalled(t, "GetRaw", mock.Anything, mock.Anything)
	})

	t.Run("Should import a valid CV listed after an excluded one", func(t *testing.T) {
		f := newHydrationFixture(t, "")
		c := &domain.Candidate{ID: "cand-1", Email: "jane@example.com", PhotoURL: strPtr("https://store/old.jpg")}
		f.candidates.On("GetByID", ctx, "cand-1").Return(c, nil)
		f.expectProfile(ctx, 77, domain.ExternalCandidate{ID: 77})
		f.expectFiles(ctx, 77, []domain.ExternalFile{
			{ID: 5, FileName: "Jane CV rebuilt.pdf", URL: "https://files/rebuilt"},
			{ID: 6, FileName: "Jane_CV.pdf", URL: "https://files/cv"},
		})
		f.candidates.On("SaveHydrated", ctx, c).Return(nil)
		f.ats.On("GetRaw", ctx, "https://files/cv").Return([]byte("%PDF"), nil).Once()
		f.storage.On("Upload", ctx, mock.Anything, []byte("%PDF"), mock.Anything).Return("https://store/cv.pdf", nil)

		var doc *domain.CandidateDocument
		f.documents.On("Create", ctx, mock.AnythingOfType("*domain.CandidateDocument")).Run(func(args mock.Arguments) {
			doc = args.Get(1).(*domain.CandidateDocument)
		}).Return(nil).Once()

		report := f.uc.Hydrate(ctx, "cand-1")
		assert.Equal(t, domain.StepCompleted, report.CV.Status, report.CV.Reason)
		require.NotNil(t, doc)
		assert.Equal(t, "Jane_CV.pdf", doc.FileName)
		f.ats.AssertNotCalled(t, "GetRaw", ctx, "https://files/rebuilt")
	})

	t.Run("Should stop quietly when nothing matches", func(t *testing.T) {
		f := newHydrationFixture(t, "")
		f.candidates.On("GetByID", ctx, "cand-1").Return(&domain.Candidate{ID: "cand-1", Email: "jane@example.com"}, nil)
		f.ats.On("Get", ctx, mock.Anything, mock.Anything).Return(nil)

		report := f.uc.Hydrate(ctx, "cand-1")
		assert.True(t, report.Needed)
		assert.False(t, report.Matched)
		assert.Empty(t, report.Error)
		f.candidates.AssertNotCalled(t, "SaveHydrated", mock.Anything, mock.Anything)
	})

	t.Run("Should keep the profile when file steps fail", func(t *testing.T) {
		f := newHydrationFixture(t, "")
		c := &domain.Candidate{ID: "cand-1", Email: "jane@example.com"}
		f.candidates.On("GetByID", ctx, "cand-1").Return(c, nil)
		f.expectProfile(ctx, 77, domain.ExternalCandidate{ID: 77, FirstName: strPtr("Jane")})
		f.expectFiles(ctx, 77, []domain.ExternalFile{{ID: 1, FileName: "cv.pdf", URL: "https://files/cv", OriginalCV: true}})
		f.candidates.On("SaveHydrated", ctx, c).Return(nil)
		f.ats.On("GetRaw", ctx, "https://files/cv").Return(nil, errors.New("connection reset"))

		report := f.uc.Hydrate(ctx, "cand-1")
		assert.True(t, report.ProfileSaved)
		assert.Equal(t, domain.StepFailed, report.CV.Status)
		assert.Contains(t, report.CV.Reason, "connection reset")
	})

	t.Run("Should skip candidates that are already complete", func(t *testing.T) {
		f := newHydrationFixture(t, "")
		synced := time.Now()
		f.candidates.On("GetByID", ctx, "cand-1").Return(&domain.Candidate{ID: "cand-1", Email: "a@x.com", FirstName: strPtr("A"), LastSyncedAt: &synced}, nil)

		report := f.uc.Hydrate(ctx, "cand-1")
		assert.False(t, report.Needed)
		f.ats.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})
}
