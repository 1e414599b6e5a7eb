package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/casahojaldre/chatbot-backend/api/responses"
	"github.com/casahojaldre/chatbot-backend/api/validators"
	"github.com/casahojaldre/chatbot-backend/internal/answers"
	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
)

type knowledgeEntryRequest struct {
	Question   string   `json:"question" validate:"required,min=3"`
	Keywords   []string `json:"keywords" validate:"required,min=1,dive,min=2"`
	Answer     string   `json:"answer" validate:"required,min=3"`
	Confidence *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	IsActive   *bool    `json:"is_active"`
}

// AdminCreateKnowledgeEntry adds a curated question/answer pair.
func AdminCreateKnowledgeEntry(repo answers.KnowledgeRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "knowledge repository unavailable"))
			return
		}

		var req knowledgeEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry := &models.KnowledgeEntry{
			Question:   strings.TrimSpace(req.Question),
			Keywords:   pq.StringArray(req.Keywords),
			Answer:     strings.TrimSpace(req.Answer),
			Confidence: 1,
			IsActive:   true,
		}
		if req.Confidence != nil {
			entry.Confidence = *req.Confidence
		}
		if req.IsActive != nil {
			entry.IsActive = *req.IsActive
		}

		created, err := repo.Create(r.Context(), entry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create knowledge entry"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AdminUpdateKnowledgeEntry replaces an entry's content while keeping
// its usage counter.
func AdminUpdateKnowledgeEntry(repo answers.KnowledgeRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "knowledge repository unavailable"))
			return
		}

		entryID, err := knowledgeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req knowledgeEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := repo.Find(r.Context(), entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "knowledge entry not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch knowledge entry"))
			return
		}

		entry.Question = strings.TrimSpace(req.Question)
		entry.Keywords = pq.StringArray(req.Keywords)
		entry.Answer = strings.TrimSpace(req.Answer)
		if req.Confidence != nil {
			entry.Confidence = *req.Confidence
		}
		if req.IsActive != nil {
			entry.IsActive = *req.IsActive
		}

		updated, err := repo.Update(r.Context(), entry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update knowledge entry"))
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func knowledgeIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "entryId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id is required")
	}
	entryID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry id")
	}
	return entryID, nil
}
