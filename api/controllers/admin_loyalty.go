package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bloomretail/bloom-backend/api/responses"
	"github.com/bloomretail/bloom-backend/api/validators"
	"github.com/bloomretail/bloom-backend/internal/loyalty"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	pkgerrors "github.com/bloomretail/bloom-backend/pkg/errors"
	"github.com/bloomretail/bloom-backend/pkg/logger"
)

type grantPointsRequest struct {
	CustomerID  string     `json:"customer_id" validate:"required,uuid"`
	Points      int        `json:"points" validate:"required,min=1"`
	SourceType  string     `json:"source_type,omitempty"`
	SourceID    *string    `json:"source_id,omitempty" validate:"omitempty,uuid"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=500"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// AdminLoyaltyGrant credits points to a customer outside the quest flow.
func AdminLoyaltyGrant(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req grantPointsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		source := enums.PointSourceManual
		if req.SourceType != "" {
			parsed, err := enums.ParsePointSource(req.SourceType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source type"))
				return
			}
			source = parsed
		}

		params := loyalty.EarnParams{
			CustomerID:  customerID,
			Points:      req.Points,
			SourceType:  source,
			Description: req.Description,
			ExpiresAt:   req.ExpiresAt,
		}
		if req.SourceID != nil {
			sourceID, err := uuid.Parse(*req.SourceID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source id"))
				return
			}
			params.SourceID = &sourceID
		}

		balance, err := svc.Earn(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, balance)
	}
}
