package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"vigor/internal/service/checkout/domain"
)

func TestMemoryStorePromoCodes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	pc := &domain.PromoCode{ID: "s1", Code: "SUMMER10", Type: domain.DiscountPercentage, Value: 10, Active: true}

	if err := store.Create(ctx, pc); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, &domain.PromoCode{ID: "s2", Code: "summer10"}); !errors.Is(err, domain.ErrDuplicateCode) {
		t.Errorf("duplicate Create() = %v, want ErrDuplicateCode", err)
	}

	got, err := store.FindByCode(ctx, "summer10")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "s1" {
		t.Errorf("FindByCode resolved %s", got.ID)
	}

	if _, err := store.FindByCode(ctx, "NOPE"); !errors.Is(err, domain.ErrPromoNotFound) {
		t.Errorf("missing code err = %v", err)
	}

	if err := store.IncrementUsage(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.FindByCode(ctx, "SUMMER10")
	if got.UsageCount != 1 {
		t.Errorf("UsageCount = %d, want 1", got.UsageCount)
	}
}

func TestMemoryStoreUsageCounters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 3; i++ {
		if err := store.RecordUse(ctx, "c1", "ana@example.com"); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.RecordUse(ctx, "c1", ""); err != nil {
		t.Fatal(err)
	}

	total, _ := store.TotalUses(ctx, "c1")
	if total != 4 {
		t.Errorf("TotalUses = %d, want 4", total)
	}
	perCustomer, _ := store.CustomerUses(ctx, "c1", "ana@example.com")
	if perCustomer != 3 {
		t.Errorf("CustomerUses = %d, want 3", perCustomer)
	}
	other, _ := store.CustomerUses(ctx, "c1", "otro@example.com")
	if other != 0 {
		t.Errorf("CustomerUses for stranger = %d, want 0", other)
	}
}

func TestMemoryStoreIdempotentCreates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sub := &domain.Subscription{ID: "sub-1", IdempotencyKey: "order-1:subscription:0"}
	id, err := store.SubscriptionRepo().Create(ctx, sub)
	if err != nil || id != "sub-1" {
		t.Fatalf("first create = %q, %v", id, err)
	}

	retry := &domain.Subscription{ID: "sub-2", IdempotencyKey: "order-1:subscription:0"}
	id, err = store.SubscriptionRepo().Create(ctx, retry)
	if err != nil {
		t.Fatal(err)
	}
	if id != "sub-1" {
		t.Errorf("retried create = %q, want original sub-1", id)
	}
	if len(store.Subscriptions()) != 1 {
		t.Errorf("subscriptions stored = %d, want 1", len(store.Subscriptions()))
	}

	v := &domain.Voucher{ID: "v-1", IdempotencyKey: "order-1:voucher:0:0"}
	if _, err := store.VoucherRepo().Create(ctx, v); err != nil {
		t.Fatal(err)
	}
	id, err = store.VoucherRepo().Create(ctx, &domain.Voucher{ID: "v-2", IdempotencyKey: "order-1:voucher:0:0"})
	if err != nil || id != "v-1" {
		t.Errorf("retried voucher create = %q, %v", id, err)
	}
}

func TestMemoryStoreCustomers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := store.CustomerRepo()

	if _, err := repo.FindByEmail(ctx, "ana@example.com"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("missing customer err = %v", err)
	}

	created, err := repo.Create(ctx, &domain.Customer{ID: "c1", Email: "ana@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	again, err := repo.Create(ctx, &domain.Customer{ID: "c2", Email: "ana@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != created.ID {
		t.Errorf("second create returned %s, want existing %s", again.ID, created.ID)
	}
}

func TestMemoryStoreOffers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	store.SeedOffers(
		&domain.SpecialOffer{
			ID: "live", Active: true, ProductIDs: []string{"bono"},
			StartDate: now.AddDate(0, 0, -1), EndDate: now.AddDate(0, 0, 1),
		},
		&domain.SpecialOffer{
			ID: "over", Active: true, ProductIDs: []string{"bono"},
			StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 0, -1),
		},
	)

	offers, err := store.ActiveForProduct(ctx, "bono", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(offers) != 1 || offers[0].ID != "live" {
		t.Errorf("ActiveForProduct = %+v, want only the live offer", offers)
	}
}

func TestMemoryStoreOrders(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := store.OrderRepo()

	if _, err := repo.FindByID(ctx, "nope"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("missing order err = %v", err)
	}
	order := &domain.Order{ID: "o1", State: domain.StateSucceeded}
	if err := repo.Save(ctx, order); err != nil {
		t.Fatal(err)
	}
	got, err := repo.FindByID(ctx, "o1")
	if err != nil || got.State != domain.StateSucceeded {
		t.Errorf("FindByID = %+v, %v", got, err)
	}
}
