package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/bloomretail/bloom-backend/internal/loyalty"
	"github.com/bloomretail/bloom-backend/internal/quests"
	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	pkgerrors "github.com/bloomretail/bloom-backend/pkg/errors"
)

func TestAdminQuestCreateSuccess(t *testing.T) {
	created := false
	svc := &testQuestService{
		createFn: func(ctx context.Context, params quests.CreateParams) (*models.Quest, error) {
			created = true
			if params.Kind != enums.QuestKindReview {
				t.Fatalf("unexpected kind %s", params.Kind)
			}
			if params.PointsReward != 150 {
				t.Fatalf("unexpected reward %d", params.PointsReward)
			}
			if params.DiscountPercent == nil || params.DiscountPercent.String() != "12.5" {
				t.Fatal("discount percent not parsed")
			}
			return &models.Quest{ID: uuid.New(), Name: params.Name, IsActive: true}, nil
		},
	}

	body := `{"name":"Write a Review","kind":"review","difficulty":"easy","points_reward":150,"discount_percent":"12.5"}`
	req := authedRequest(http.MethodPost, "/api/admin/v1/quests", body, uuid.New())
	resp := httptest.NewRecorder()
	AdminQuestCreate(svc, testLogg())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if !created {
		t.Fatal("expected service called")
	}
}

func TestAdminQuestCreateRejectsUnknownKind(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/admin/v1/quests", `{"name":"Mystery","kind":"mystery","points_reward":10}`, uuid.New())
	resp := httptest.NewRecorder()
	AdminQuestCreate(&testQuestService{}, testLogg())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminQuestCreateRejectsMissingName(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/admin/v1/quests", `{"kind":"review","points_reward":10}`, uuid.New())
	resp := httptest.NewRecorder()
	AdminQuestCreate(&testQuestService{}, testLogg())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminQuestUpdatePartialFields(t *testing.T) {
	questID := uuid.New()
	svc := &testQuestService{
		updateFn: func(ctx context.Context, qid uuid.UUID, params quests.UpdateParams) (*models.Quest, error) {
			if qid != questID {
				t.Fatal("quest id not forwarded")
			}
			if params.PointsReward == nil || *params.PointsReward != 300 {
				t.Fatal("points reward not forwarded")
			}
			if params.Name != nil {
				t.Fatal("name should be untouched")
			}
			return &models.Quest{ID: qid, PointsReward: 300}, nil
		},
	}

	req := authedRequest(http.MethodPatch, "/api/admin/v1/quests/"+questID.String(), `{"points_reward":300}`, uuid.New())
	req = addRouteParam(req, "questId", questID.String())
	resp := httptest.NewRecorder()
	AdminQuestUpdate(svc, testLogg())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminQuestDeactivate(t *testing.T) {
	questID := uuid.New()
	called := false
	svc := &testQuestService{
		deactivateFn: func(ctx context.Context, qid uuid.UUID) error {
			called = true
			return nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/admin/v1/quests/"+questID.String()+"/deactivate", "", uuid.New())
	req = addRouteParam(req, "questId", questID.String())
	resp := httptest.NewRecorder()
	AdminQuestDeactivate(svc, testLogg())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestAdminQuestDeleteConflictsOnProgress(t *testing.T) {
	questID := uuid.New()
	svc := &testQuestService{
		hardDeleteFn: func(ctx context.Context, qid uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeConflict, "quest has recorded progress")
		},
	}

	req := authedRequest(http.MethodDelete, "/api/admin/v1/quests/"+questID.String(), "", uuid.New())
	req = addRouteParam(req, "questId", questID.String())
	resp := httptest.NewRecorder()
	AdminQuestDelete(svc, testLogg())(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAdminLoyaltyGrantSuccess(t *testing.T) {
	customerID := uuid.New()
	svc := &testLoyaltyService{
		earnFn: func(ctx context.Context, params loyalty.EarnParams) (*models.Balance, error) {
			if params.CustomerID != customerID {
				t.Fatal("customer id not forwarded")
			}
			if params.SourceType != enums.PointSourceManual {
				t.Fatalf("expected manual source, got %s", params.SourceType)
			}
			return &models.Balance{CustomerID: customerID, CurrentPoints: params.Points}, nil
		},
	}

	body := `{"customer_id":"` + customerID.String() + `","points":500,"description":"goodwill credit"}`
	req := authedRequest(http.MethodPost, "/api/admin/v1/loyalty/grant", body, uuid.New())
	resp := httptest.NewRecorder()
	AdminLoyaltyGrant(svc, testLogg())(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminLoyaltyGrantRejectsBadCustomerID(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/admin/v1/loyalty/grant", `{"customer_id":"nope","points":500}`, uuid.New())
	resp := httptest.NewRecorder()
	AdminLoyaltyGrant(&testLoyaltyService{}, testLogg())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminLoyaltyGrantDuplicateSource(t *testing.T) {
	customerID := uuid.New()
	sourceID := uuid.New()
	svc := &testLoyaltyService{
		earnFn: func(ctx context.Context, params loyalty.EarnParams) (*models.Balance, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "points already awarded for this source")
		},
	}

	body, _ := json.Marshal(map[string]any{
		"customer_id": customerID.String(),
		"points":      100,
		"source_type": "purchase",
		"source_id":   sourceID.String(),
	})
	req := authedRequest(http.MethodPost, "/api/admin/v1/loyalty/grant", string(body), uuid.New())
	resp := httptest.NewRecorder()
	AdminLoyaltyGrant(svc, testLogg())(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}
