package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bloomretail/bloom-backend/internal/loyalty"
	"github.com/bloomretail/bloom-backend/internal/quests"
	pkgAuth "github.com/bloomretail/bloom-backend/pkg/auth"
	"github.com/bloomretail/bloom-backend/pkg/auth/session"
	"github.com/bloomretail/bloom-backend/pkg/config"
	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	"github.com/bloomretail/bloom-backend/pkg/logger"
	"github.com/bloomretail/bloom-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubLoyaltyService struct{}

func (stubLoyaltyService) Earn(ctx context.Context, params loyalty.EarnParams) (*models.Balance, error) {
	return &models.Balance{}, nil
}

func (stubLoyaltyService) Redeem(ctx context.Context, params loyalty.RedeemParams) (*models.Balance, error) {
	return &models.Balance{}, nil
}

func (stubLoyaltyService) CompleteQuest(ctx context.Context, customerID, questID uuid.UUID) (*loyalty.CompleteQuestResult, error) {
	return &loyalty.CompleteQuestResult{}, nil
}

func (stubLoyaltyService) GetBalance(ctx context.Context, customerID uuid.UUID) (*models.Balance, error) {
	return &models.Balance{CustomerID: customerID}, nil
}

func (stubLoyaltyService) ListTransactions(ctx context.Context, params loyalty.ListTransactionsParams) (*loyalty.TransactionList, error) {
	return &loyalty.TransactionList{}, nil
}

type stubQuestService struct{}

func (stubQuestService) Create(ctx context.Context, params quests.CreateParams) (*models.Quest, error) {
	return &models.Quest{}, nil
}

func (stubQuestService) Get(ctx context.Context, questID uuid.UUID) (*models.Quest, error) {
	return &models.Quest{ID: questID}, nil
}

func (stubQuestService) ListActive(ctx context.Context, params quests.ListParams) (*quests.ListResult, error) {
	return &quests.ListResult{}, nil
}

func (stubQuestService) ListAll(ctx context.Context, params quests.ListParams) (*quests.ListResult, error) {
	return &quests.ListResult{}, nil
}

func (stubQuestService) Update(ctx context.Context, questID uuid.UUID, params quests.UpdateParams) (*models.Quest, error) {
	return &models.Quest{ID: questID}, nil
}

func (stubQuestService) Deactivate(ctx context.Context, questID uuid.UUID) error {
	return nil
}

func (stubQuestService) HardDelete(ctx context.Context, questID uuid.UUID) error {
	return nil
}

type stubProgressService struct{}

func (stubProgressService) StartQuest(ctx context.Context, customerID, questID uuid.UUID) (*models.QuestProgress, error) {
	return &models.QuestProgress{}, nil
}

func (stubProgressService) Get(ctx context.Context, customerID, questID uuid.UUID) (*models.QuestProgress, error) {
	return &models.QuestProgress{}, nil
}

func (stubProgressService) ListByCustomer(ctx context.Context, customerID uuid.UUID, status enums.QuestProgressStatus) ([]models.QuestProgress, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:              "secret",
			Issuer:              "issuer",
			ExpirationMinutes:   60,
			RefreshTokenTTLDays: 30,
		},
		WriteRateLimit: config.WriteRateLimitConfig{Window: time.Minute, Limit: 30},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionManager{},
		stubLoyaltyService{},
		stubQuestService{},
		stubProgressService{},
	)
}

func TestHealthLiveAlwaysOpen(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loyalty/balance", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loyalty/balance", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for balance got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/quests/", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/quests/", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestQuestListRequiresAuth(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quests/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/api/v1/quests/", nil)
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for quest list got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       role,
		JTI:        accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
