// Package submissions handles community card-data submissions and their
// admin review flow. Approval promotes the submitted payload into the
// catalog; both review outcomes land in the activity log.
package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/internal/catalog"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubmissionInput is the public submit request. The payload mirrors the
// catalog card shape so approval can upsert it directly.
type SubmissionInput struct {
	CardID          string  `json:"card_id" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	SetCode         string  `json:"set_code" validate:"required"`
	CollectorNumber string  `json:"collector_number" validate:"required"`
	Rarity          string  `json:"rarity" validate:"required"`
	InkColor        *string `json:"ink_color,omitempty"`
	ImageURL        *string `json:"image_url,omitempty"`
	SubmitterEmail  string  `json:"submitter_email" validate:"omitempty,email"`
}

// ReviewInput identifies the submission under review and the reviewer.
type ReviewInput struct {
	SubmissionID uuid.UUID
	ReviewerID   uuid.UUID
	Notes        string
}

// ListFilters narrows the submission queue.
type ListFilters struct {
	Status enums.SubmissionStatus
	Limit  int
	Offset int
}

// SubmissionList is a page of submissions with the unfiltered total.
type SubmissionList struct {
	Submissions []models.CardSubmission `json:"submissions"`
	Total       int64                   `json:"total"`
}

// Service defines the submission operations.
type Service interface {
	Submit(ctx context.Context, input SubmissionInput) (*models.CardSubmission, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CardSubmission, error)
	List(ctx context.Context, filters ListFilters) (*SubmissionList, error)
	Approve(ctx context.Context, input ReviewInput) (*models.CardSubmission, error)
	Reject(ctx context.Context, input ReviewInput) (*models.CardSubmission, error)
}

type service struct {
	repo     Repository
	cards    catalog.Repository
	tx       txRunner
	activity activity.Recorder
	now      func() time.Time
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Repo     Repository
	Cards    catalog.Repository
	Tx       txRunner
	Activity activity.Recorder
	Now      func() time.Time
}

// NewService builds a submission service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("submission repository required")
	}
	if params.Cards == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		cards:    params.Cards,
		tx:       params.Tx,
		activity: params.Activity,
		now:      now,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmissionInput) (*models.CardSubmission, error) {
	cardID := strings.TrimSpace(input.CardID)
	if cardID == "" || input.Name == "" || input.SetCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission requires card id, name and set code")
	}
	input.CardID = cardID

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode submission payload")
	}

	submission := models.CardSubmission{
		ID:      uuid.New(),
		CardID:  cardID,
		Payload: payload,
		Status:  enums.SubmissionStatusPending,
	}
	if email := strings.TrimSpace(input.SubmitterEmail); email != "" {
		submission.SubmitterEmail = &email
	}
	if err := s.repo.Insert(ctx, &submission); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store submission")
	}
	return &submission, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.CardSubmission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}
	return submission, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) (*SubmissionList, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown submission status")
	}
	filters.Limit = pagination.NormalizeLimit(filters.Limit)
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	rows, total, err := s.repo.List(ctx, filters.Status, filters.Limit, filters.Offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list submissions")
	}
	return &SubmissionList{Submissions: rows, Total: total}, nil
}

func (s *service) Approve(ctx context.Context, input ReviewInput) (*models.CardSubmission, error) {
	submission, err := s.Get(ctx, input.SubmissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status != enums.SubmissionStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "submission already reviewed").
			WithDetails(map[string]any{"status": submission.Status.String()})
	}

	var payload SubmissionInput
	if err := json.Unmarshal(submission.Payload, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode submission payload")
	}

	now := s.now().UTC()
	card := models.Card{
		ID:              submission.CardID,
		Name:            payload.Name,
		SetCode:         payload.SetCode,
		CollectorNumber: payload.CollectorNumber,
		Rarity:          payload.Rarity,
		InkColor:        payload.InkColor,
		ImageURL:        payload.ImageURL,
		UpdatedAt:       now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkReviewed(ctx, submission.ID, enums.SubmissionStatusApproved, input.ReviewerID, notesPtr(input.Notes), now); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeConflict, "submission already reviewed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark submission reviewed")
		}
		if err := s.cards.WithTx(tx).Upsert(ctx, &card); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert card from submission")
		}
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     input.ReviewerID.String(),
			Action:     enums.ActivityActionSubmissionApproved,
			EntityType: "card_submission",
			EntityID:   submission.ID.String(),
			Details: map[string]any{
				"card_id": submission.CardID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, submission.ID)
}

func (s *service) Reject(ctx context.Context, input ReviewInput) (*models.CardSubmission, error) {
	submission, err := s.Get(ctx, input.SubmissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status != enums.SubmissionStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "submission already reviewed").
			WithDetails(map[string]any{"status": submission.Status.String()})
	}

	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkReviewed(ctx, submission.ID, enums.SubmissionStatusRejected, input.ReviewerID, notesPtr(input.Notes), now); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeConflict, "submission already reviewed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark submission reviewed")
		}
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     input.ReviewerID.String(),
			Action:     enums.ActivityActionSubmissionRejected,
			EntityType: "card_submission",
			EntityID:   submission.ID.String(),
			Details: map[string]any{
				"card_id": submission.CardID,
				"notes":   input.Notes,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, submission.ID)
}

func notesPtr(notes string) *string {
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
