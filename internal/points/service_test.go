package points

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
	"github.com/pawpal-io/pawpal-backend/pkg/pagination"
)

const pointsDDL = `
CREATE TABLE IF NOT EXISTS points_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  points INTEGER NOT NULL,
  type TEXT NOT NULL,
  description TEXT NOT NULL,
  order_id TEXT,
  expires_at DATETIME,
  created_at DATETIME
);`

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:points_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Exec(pointsDDL).Error; err != nil {
		t.Fatalf("create points table: %v", err)
	}
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func TestBalanceIsSumOfEntries(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.Award(ctx, nil, AwardInput{UserID: user, Amount: 100, Type: enums.PointsEntryBonus, Description: "signup"}); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := svc.Award(ctx, nil, AwardInput{UserID: user, Amount: 27, Type: enums.PointsEntryPurchaseReward, Description: "order"}); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := svc.Spend(ctx, nil, SpendInput{UserID: user, Amount: 40, Type: enums.PointsEntryRedemption, Description: "coupon"}); err != nil {
		t.Fatalf("spend: %v", err)
	}

	balance, err := svc.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 87 {
		t.Fatalf("expected balance 87, got %d", balance)
	}
}

func TestSpendRejectsInsufficientBalance(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.Award(ctx, nil, AwardInput{UserID: user, Amount: 10, Type: enums.PointsEntryBonus, Description: "signup"}); err != nil {
		t.Fatalf("award: %v", err)
	}

	_, err := svc.Spend(ctx, nil, SpendInput{UserID: user, Amount: 11, Type: enums.PointsEntryRedemption, Description: "coupon"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}

	// the failed spend must not have appended anything
	var count int64
	if err := db.Model(&models.PointsEntry{}).Where("user_id = ?", user).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", count)
	}
}

func TestExpiredCreditsExcludedFromBalance(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	past := time.Now().Add(-time.Hour)
	if _, err := svc.Award(ctx, nil, AwardInput{UserID: user, Amount: 50, Type: enums.PointsEntryBonus, Description: "expired promo", ExpiresAt: &past}); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := svc.Award(ctx, nil, AwardInput{UserID: user, Amount: 5, Type: enums.PointsEntryBonus, Description: "live promo"}); err != nil {
		t.Fatalf("award: %v", err)
	}

	balance, err := svc.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 5 {
		t.Fatalf("expected balance 5, got %d", balance)
	}

	// expiry filters, it never deletes
	var count int64
	if err := db.Model(&models.PointsEntry{}).Where("user_id = ?", user).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", count)
	}
}

func TestAwardValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input AwardInput
	}{
		{"missing user", AwardInput{Amount: 10, Type: enums.PointsEntryBonus}},
		{"zero amount", AwardInput{UserID: uuid.New(), Amount: 0, Type: enums.PointsEntryBonus}},
		{"negative amount", AwardInput{UserID: uuid.New(), Amount: -5, Type: enums.PointsEntryBonus}},
		{"invalid type", AwardInput{UserID: uuid.New(), Amount: 5, Type: enums.PointsEntryType("mystery")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Award(ctx, nil, tc.input); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	base := time.Now().Add(-time.Hour)
	for i, desc := range []string{"first", "second", "third"} {
		entry := &models.PointsEntry{
			ID:          uuid.New(),
			UserID:      user,
			Points:      10,
			Type:        enums.PointsEntryBonus,
			Description: desc,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	list, err := svc.History(ctx, user, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(list.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list.Entries))
	}
	if list.Entries[0].Description != "third" {
		t.Fatalf("expected newest first, got %q", list.Entries[0].Description)
	}
	if list.NextCursor == "" {
		t.Fatal("expected next cursor for remaining page")
	}

	rest, err := svc.History(ctx, user, pagination.Params{Limit: 2, Cursor: list.NextCursor})
	if err != nil {
		t.Fatalf("history next page: %v", err)
	}
	if len(rest.Entries) != 1 || rest.Entries[0].Description != "first" {
		t.Fatalf("unexpected second page: %+v", rest.Entries)
	}
}
