package quests

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	pkgerrors "github.com/bloomretail/bloom-backend/pkg/errors"
	"github.com/bloomretail/bloom-backend/pkg/logger"
	"github.com/bloomretail/bloom-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn        func(ctx context.Context, quest *models.Quest) error
	getByIDFn       func(ctx context.Context, questID uuid.UUID) (*models.Quest, error)
	listFn          func(ctx context.Context, params ListQuestsParams) ([]models.Quest, *pagination.Cursor, error)
	updateFn        func(ctx context.Context, questID uuid.UUID, updates map[string]any) (int64, error)
	deactivateFn    func(ctx context.Context, questID uuid.UUID, now time.Time) (int64, error)
	hardDeleteFn    func(ctx context.Context, questID uuid.UUID) (int64, error)
	countProgressFn func(ctx context.Context, questID uuid.UUID) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, quest *models.Quest) error {
	if f.createFn != nil {
		return f.createFn(ctx, quest)
	}
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, questID uuid.UUID) (*models.Quest, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, questID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(ctx context.Context, params ListQuestsParams) ([]models.Quest, *pagination.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, questID uuid.UUID, updates map[string]any) (int64, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, questID, updates)
	}
	return 0, nil
}

func (f *fakeRepository) Deactivate(ctx context.Context, questID uuid.UUID, now time.Time) (int64, error) {
	if f.deactivateFn != nil {
		return f.deactivateFn(ctx, questID, now)
	}
	return 0, nil
}

func (f *fakeRepository) HardDelete(ctx context.Context, questID uuid.UUID) (int64, error) {
	if f.hardDeleteFn != nil {
		return f.hardDeleteFn(ctx, questID)
	}
	return 0, nil
}

func (f *fakeRepository) CountProgress(ctx context.Context, questID uuid.UUID) (int64, error) {
	if f.countProgressFn != nil {
		return f.countProgressFn(ctx, questID)
	}
	return 0, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	svc, err := NewService(repo, fakeTxRunner{}, logg)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestService_Create(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	var created *models.Quest
	repo.createFn = func(ctx context.Context, quest *models.Quest) error {
		created = quest
		return nil
	}

	got, err := svc.Create(context.Background(), CreateParams{
		Name:         "First Purchase",
		Kind:         enums.QuestKindPurchase,
		Difficulty:   enums.QuestDifficultyEasy,
		PointsReward: 600,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created == nil {
		t.Fatal("expected quest to be created")
	}
	if !created.IsActive {
		t.Fatal("new quests must start active")
	}
	if got.PointsReward != 600 || got.Kind != enums.QuestKindPurchase {
		t.Fatalf("unexpected quest data: %+v", got)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{})

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"missing name", CreateParams{Kind: enums.QuestKindReview, PointsReward: 10}},
		{"invalid kind", CreateParams{Name: "x", Kind: enums.QuestKind("not_real")}},
		{"negative reward", CreateParams{Name: "x", Kind: enums.QuestKindReview, PointsReward: -5}},
		{"invalid difficulty", CreateParams{Name: "x", Kind: enums.QuestKindReview, Difficulty: enums.QuestDifficulty("brutal")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.params)
			if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_UpdateNotFound(t *testing.T) {
	repo := &fakeRepository{
		updateFn: func(ctx context.Context, questID uuid.UUID, updates map[string]any) (int64, error) {
			return 0, nil
		},
	}
	svc := newTestService(t, repo)

	name := "Renamed"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateParams{Name: &name})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_DeactivateAlreadyInactive(t *testing.T) {
	questID := uuid.New()
	repo := &fakeRepository{
		deactivateFn: func(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
			return 0, nil
		},
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
			return &models.Quest{ID: questID, IsActive: false}, nil
		},
	}
	svc := newTestService(t, repo)

	err := svc.Deactivate(context.Background(), questID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for an already inactive quest, got %v", err)
	}
}

func TestService_DeactivateActiveQuest(t *testing.T) {
	repo := &fakeRepository{
		deactivateFn: func(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
			return 1, nil
		},
	}
	svc := newTestService(t, repo)

	if err := svc.Deactivate(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}
}

func TestService_DeactivateMissingQuest(t *testing.T) {
	repo := &fakeRepository{
		deactivateFn: func(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
			return 0, nil
		},
	}
	svc := newTestService(t, repo)

	err := svc.Deactivate(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_HardDeleteBlockedByProgress(t *testing.T) {
	repo := &fakeRepository{
		countProgressFn: func(ctx context.Context, questID uuid.UUID) (int64, error) {
			return 3, nil
		},
	}
	svc := newTestService(t, repo)

	err := svc.HardDelete(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_HardDeleteRepoError(t *testing.T) {
	expectedErr := errors.New("boom")
	repo := &fakeRepository{
		hardDeleteFn: func(ctx context.Context, questID uuid.UUID) (int64, error) {
			return 0, expectedErr
		},
	}
	svc := newTestService(t, repo)

	if err := svc.HardDelete(context.Background(), uuid.New()); !errors.Is(err, expectedErr) {
		t.Fatalf("expected repo error to bubble up, got %v", err)
	}
}
