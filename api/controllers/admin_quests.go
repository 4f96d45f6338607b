package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bloomretail/bloom-backend/api/responses"
	"github.com/bloomretail/bloom-backend/api/validators"
	"github.com/bloomretail/bloom-backend/internal/quests"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	pkgerrors "github.com/bloomretail/bloom-backend/pkg/errors"
	"github.com/bloomretail/bloom-backend/pkg/logger"
)

type createQuestRequest struct {
	Name              string          `json:"name" validate:"required,max=200"`
	Description       string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Kind              string          `json:"kind" validate:"required"`
	Difficulty        string          `json:"difficulty,omitempty"`
	PointsReward      int             `json:"points_reward" validate:"min=0"`
	BadgeName         *string         `json:"badge_name,omitempty" validate:"omitempty,max=100"`
	DiscountPercent   *string         `json:"discount_percent,omitempty"`
	NonFungibleReward bool            `json:"non_fungible_reward,omitempty"`
	Requirements      json.RawMessage `json:"requirements,omitempty"`
}

// AdminQuestCreate registers a new quest definition.
func AdminQuestCreate(svc quests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createQuestRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseQuestKind(req.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}
		params := quests.CreateParams{
			Name:              req.Name,
			Description:       req.Description,
			Kind:              kind,
			PointsReward:      req.PointsReward,
			BadgeName:         req.BadgeName,
			NonFungibleReward: req.NonFungibleReward,
			Requirements:      req.Requirements,
		}
		if req.Difficulty != "" {
			difficulty, err := enums.ParseQuestDifficulty(req.Difficulty)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid difficulty"))
				return
			}
			params.Difficulty = difficulty
		}
		if req.DiscountPercent != nil {
			discount, err := decimal.NewFromString(*req.DiscountPercent)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount percent"))
				return
			}
			params.DiscountPercent = &discount
		}

		quest, err := svc.Create(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, quest)
	}
}

// AdminQuestList returns every quest, active or not.
func AdminQuestList(svc quests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := questListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ListAll(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminQuestGet returns a single quest by id.
func AdminQuestGet(svc quests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questID, err := questIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quest, err := svc.Get(r.Context(), questID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quest)
	}
}

type updateQuestRequest struct {
	Name            *string         `json:"name,omitempty" validate:"omitempty,max=200"`
	Description     *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Difficulty      *string         `json:"difficulty,omitempty"`
	PointsReward    *int            `json:"points_reward,omitempty" validate:"omitempty,min=0"`
	BadgeName       *string         `json:"badge_name,omitempty" validate:"omitempty,max=100"`
	DiscountPercent *string         `json:"discount_percent,omitempty"`
	Requirements    json.RawMessage `json:"requirements,omitempty"`
	IsActive        *bool           `json:"is_active,omitempty"`
}

// AdminQuestUpdate applies a partial update to a quest definition.
func AdminQuestUpdate(svc quests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questID, err := questIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateQuestRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := quests.UpdateParams{
			Name:         req.Name,
			Description:  req.Description,
			PointsReward: req.PointsReward,
			BadgeName:    req.BadgeName,
			Requirements: req.Requirements,
			IsActive:     req.IsActive,
		}
		if req.Difficulty != nil {
			difficulty, err := enums.ParseQuestDifficulty(*req.Difficulty)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid difficulty"))
				return
			}
			params.Difficulty = &difficulty
		}
		if req.DiscountPercent != nil {
			discount, err := decimal.NewFromString(*req.DiscountPercent)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount percent"))
				return
			}
			params.DiscountPercent = &discount
		}

		quest, err := svc.Update(r.Context(), questID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quest)
	}
}

// AdminQuestDeactivate retires a quest without touching historical progress.
func AdminQuestDeactivate(svc quests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questID, err := questIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), questID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// AdminQuestDelete permanently removes a quest that has no recorded progress.
func AdminQuestDelete(svc quests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questID, err := questIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.HardDelete(r.Context(), questID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
