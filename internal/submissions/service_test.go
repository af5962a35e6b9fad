package submissions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/internal/catalog"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type reviewHarness struct {
	db  *gorm.DB
	svc Service
}

func newReviewHarness(t *testing.T) *reviewHarness {
	t.Helper()
	dsn := "file:submissions_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	cardSubmissions := `
CREATE TABLE IF NOT EXISTS card_submissions (
  id TEXT PRIMARY KEY,
  card_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  submitter_email TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  reviewed_by TEXT,
  reviewed_at DATETIME,
  review_notes TEXT,
  created_at DATETIME
);`
	cards := `
CREATE TABLE IF NOT EXISTS cards (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  set_code TEXT NOT NULL,
  collector_number TEXT NOT NULL,
  rarity TEXT NOT NULL,
  ink_color TEXT,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	activityLog := `
CREATE TABLE IF NOT EXISTS activity_log (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  details TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(cardSubmissions).Error)
	require.NoError(t, db.Exec(cards).Error)
	require.NoError(t, db.Exec(activityLog).Error)

	activitySvc, err := activity.NewService(activity.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		Cards:    catalog.NewRepository(db),
		Tx:       gormTxRunner{db: db},
		Activity: activitySvc,
	})
	require.NoError(t, err)

	return &reviewHarness{db: db, svc: svc}
}

func sampleInput(cardID string) SubmissionInput {
	return SubmissionInput{
		CardID:          cardID,
		Name:            "Maui - Hero to All",
		SetCode:         "TFC",
		CollectorNumber: "114",
		Rarity:          "rare",
		SubmitterEmail:  "collector@example.com",
	}
}

func TestSubmitAndList(t *testing.T) {
	t.Parallel()

	h := newReviewHarness(t)
	ctx := context.Background()

	submission, err := h.svc.Submit(ctx, sampleInput("tfc-114"))
	require.NoError(t, err)
	assert.Equal(t, enums.SubmissionStatusPending, submission.Status)
	require.NotNil(t, submission.SubmitterEmail)
	assert.Equal(t, "collector@example.com", *submission.SubmitterEmail)

	list, err := h.svc.List(ctx, ListFilters{Status: enums.SubmissionStatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
	require.Len(t, list.Submissions, 1)
	assert.Equal(t, "tfc-114", list.Submissions[0].CardID)
}

func TestSubmit_Validation(t *testing.T) {
	t.Parallel()

	h := newReviewHarness(t)

	_, err := h.svc.Submit(context.Background(), SubmissionInput{CardID: " ", Name: "x", SetCode: "TFC"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestApprove_UpsertsCardAndLogs(t *testing.T) {
	t.Parallel()

	h := newReviewHarness(t)
	ctx := context.Background()
	reviewer := uuid.New()

	submission, err := h.svc.Submit(ctx, sampleInput("tfc-114"))
	require.NoError(t, err)

	reviewed, err := h.svc.Approve(ctx, ReviewInput{
		SubmissionID: submission.ID,
		ReviewerID:   reviewer,
		Notes:        "looks right",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.SubmissionStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, reviewer, *reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewNotes)
	assert.Equal(t, "looks right", *reviewed.ReviewNotes)

	card, err := catalog.NewRepository(h.db).FindByID(ctx, "tfc-114")
	require.NoError(t, err)
	assert.Equal(t, "Maui - Hero to All", card.Name)

	var logs []models.ActivityLog
	require.NoError(t, h.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.ActivityActionSubmissionApproved, logs[0].Action)
	assert.Equal(t, reviewer.String(), logs[0].UserID)
}

func TestApprove_OverwritesExistingCard(t *testing.T) {
	t.Parallel()

	h := newReviewHarness(t)
	ctx := context.Background()

	stale := models.Card{
		ID:              "tfc-114",
		Name:            "Maui",
		SetCode:         "TFC",
		CollectorNumber: "114",
		Rarity:          "common",
	}
	require.NoError(t, h.db.Create(&stale).Error)

	submission, err := h.svc.Submit(ctx, sampleInput("tfc-114"))
	require.NoError(t, err)
	_, err = h.svc.Approve(ctx, ReviewInput{SubmissionID: submission.ID, ReviewerID: uuid.New()})
	require.NoError(t, err)

	card, err := catalog.NewRepository(h.db).FindByID(ctx, "tfc-114")
	require.NoError(t, err)
	assert.Equal(t, "Maui - Hero to All", card.Name)
	assert.Equal(t, "rare", card.Rarity)
}

func TestReject_LogsWithoutTouchingCatalog(t *testing.T) {
	t.Parallel()

	h := newReviewHarness(t)
	ctx := context.Background()

	submission, err := h.svc.Submit(ctx, sampleInput("tfc-115"))
	require.NoError(t, err)

	reviewed, err := h.svc.Reject(ctx, ReviewInput{
		SubmissionID: submission.ID,
		ReviewerID:   uuid.New(),
		Notes:        "wrong collector number",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.SubmissionStatusRejected, reviewed.Status)

	_, err = catalog.NewRepository(h.db).FindByID(ctx, "tfc-115")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var logs []models.ActivityLog
	require.NoError(t, h.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.ActivityActionSubmissionRejected, logs[0].Action)
}

func TestReview_AlreadyReviewed(t *testing.T) {
	t.Parallel()

	h := newReviewHarness(t)
	ctx := context.Background()

	submission, err := h.svc.Submit(ctx, sampleInput("tfc-116"))
	require.NoError(t, err)
	_, err = h.svc.Reject(ctx, ReviewInput{SubmissionID: submission.ID, ReviewerID: uuid.New()})
	require.NoError(t, err)

	_, err = h.svc.Approve(ctx, ReviewInput{SubmissionID: submission.ID, ReviewerID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestReview_UnknownSubmission(t *testing.T) {
	t.Parallel()

	h := newReviewHarness(t)

	_, err := h.svc.Approve(context.Background(), ReviewInput{SubmissionID: uuid.New(), ReviewerID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestMarkReviewed_DoubleReviewRace(t *testing.T) {
	t.Parallel()

	h := newReviewHarness(t)
	repo := NewRepository(h.db)
	ctx := context.Background()

	submission := models.CardSubmission{
		ID:      uuid.New(),
		CardID:  "tfc-117",
		Payload: []byte(`{}`),
		Status:  enums.SubmissionStatusPending,
	}
	require.NoError(t, repo.Insert(ctx, &submission))

	now := time.Now().UTC()
	require.NoError(t, repo.MarkReviewed(ctx, submission.ID, enums.SubmissionStatusApproved, uuid.New(), nil, now))
	err := repo.MarkReviewed(ctx, submission.ID, enums.SubmissionStatusRejected, uuid.New(), nil, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
