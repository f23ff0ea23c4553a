package product_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vhrodrigues/notinha/internal/category"
	"github.com/vhrodrigues/notinha/internal/normalize"
	"github.com/vhrodrigues/notinha/internal/product"
)

// fakeRepo is an in-memory Repository. Stats transactions commit directly
// against the maps; the serialization guarantees of the real store are not
// exercised here.
type fakeRepo struct {
	products map[uuid.UUID]*product.Product
	prices   []*product.PriceEntry

	createCalls int
	failCreate  error

	// codeMisses forces the next N code lookups to miss and hideList empties
	// the candidate scan, simulating a concurrent insert that has not become
	// visible yet.
	codeMisses int
	hideList   bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: make(map[uuid.UUID]*product.Product)}
}

func (r *fakeRepo) CreateProduct(_ context.Context, p *product.Product) error {
	r.createCalls++

	if r.failCreate != nil {
		return r.failCreate
	}

	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	r.products[p.ID] = p

	return nil
}

func (r *fakeRepo) GetProduct(_ context.Context, userID, id uuid.UUID) (*product.Product, error) {
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return nil, product.ErrNotFound
	}

	return p, nil
}

func (r *fakeRepo) GetByCode(_ context.Context, userID uuid.UUID, code string) (*product.Product, error) {
	if r.codeMisses > 0 {
		r.codeMisses--

		return nil, product.ErrNotFound
	}

	for _, p := range r.products {
		if p.UserID == userID && p.ProductCode == code {
			return p, nil
		}
	}

	return nil, product.ErrNotFound
}

func (r *fakeRepo) ListProducts(_ context.Context, userID uuid.UUID, _ product.ListFilter) ([]*product.Product, error) {
	if r.hideList {
		return nil, nil
	}

	var out []*product.Product

	for _, p := range r.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *fakeRepo) UpdateCategory(_ context.Context, userID, id uuid.UUID, c category.Category) error {
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return product.ErrNotFound
	}

	p.Category = c

	return nil
}

func (r *fakeRepo) AppendPrice(_ context.Context, e *product.PriceEntry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.prices = append(r.prices, e)

	return nil
}

func (r *fakeRepo) ListPrices(_ context.Context, userID, productID uuid.UUID, _, _ int) ([]*product.PriceEntry, error) {
	var out []*product.PriceEntry

	for _, e := range r.prices {
		if e.UserID == userID && e.ProductID == productID {
			out = append(out, e)
		}
	}

	return out, nil
}

func (r *fakeRepo) DeletePricesByInvoice(_ context.Context, userID, invoiceID uuid.UUID) error {
	kept := r.prices[:0]

	for _, e := range r.prices {
		if !(e.UserID == userID && e.InvoiceID == invoiceID) {
			kept = append(kept, e)
		}
	}

	r.prices = kept

	return nil
}

func (r *fakeRepo) BeginStats(_ context.Context, userID, productID uuid.UUID) (product.StatsTx, error) {
	return &fakeStatsTx{repo: r, userID: userID, productID: productID}, nil
}

type fakeStatsTx struct {
	repo      *fakeRepo
	userID    uuid.UUID
	productID uuid.UUID
}

func (t *fakeStatsTx) Product(ctx context.Context) (*product.Product, error) {
	return t.repo.GetProduct(ctx, t.userID, t.productID)
}

func (t *fakeStatsTx) RemainingPrices(_ context.Context, excludeInvoiceID uuid.UUID) ([]decimal.Decimal, error) {
	var prices []decimal.Decimal

	for _, e := range t.repo.prices {
		if e.UserID == t.userID && e.ProductID == t.productID && e.InvoiceID != excludeInvoiceID {
			prices = append(prices, e.UnitPrice)
		}
	}

	return prices, nil
}

func (t *fakeStatsTx) SaveStats(_ context.Context, count int64, avg decimal.Decimal, last *time.Time) error {
	p := t.repo.products[t.productID]
	p.PurchaseCount = count
	p.AvgUnitPrice = avg
	p.LastPurchaseAt = last

	return nil
}

func (t *fakeStatsTx) Commit() error   { return nil }
func (t *fakeStatsTx) Rollback() error { return nil }

func seedProduct(r *fakeRepo, userID uuid.UUID, p product.Product) *product.Product {
	p.ID = uuid.New()
	p.UserID = userID
	p.CreatedAt = time.Now()
	r.products[p.ID] = &p

	return r.products[p.ID]
}

func TestService_ResolveOrCreate(t *testing.T) {
	userID := uuid.New()

	t.Run("CodeLookupWins", func(t *testing.T) {
		repo := newFakeRepo()
		existing := seedProduct(repo, userID, product.Product{
			Name:        "Leite Integral",
			ProductCode: "7891000100103",
			Category:    category.Groceries,
		})

		svc := product.NewService(repo)

		res, err := svc.ResolveOrCreate(context.Background(), userID, normalize.Product{
			NormalizedName: "Leite Uht Integral",
			ProductCode:    "7891000100103",
		}, category.Supermarket)
		require.NoError(t, err)

		assert.False(t, res.Created)
		assert.Equal(t, existing.ID, res.Product.ID)
		assert.Equal(t, 1.0, res.Confidence)
		assert.Zero(t, repo.createCalls)
	})

	t.Run("FuzzyNameMatch", func(t *testing.T) {
		repo := newFakeRepo()
		existing := seedProduct(repo, userID, product.Product{
			Name:     "Leite Uht Integral",
			Category: category.Groceries,
		})

		svc := product.NewService(repo)

		// Different brand, same normalized shape: merges into one product.
		res, err := svc.ResolveOrCreate(context.Background(), userID, normalize.Product{
			NormalizedName: "Leite Integral",
		}, category.Groceries)
		require.NoError(t, err)

		assert.False(t, res.Created)
		assert.Equal(t, existing.ID, res.Product.ID)
		assert.GreaterOrEqual(t, res.Confidence, 0.75)
	})

	t.Run("NoMatchCreates", func(t *testing.T) {
		repo := newFakeRepo()
		seedProduct(repo, userID, product.Product{Name: "Leite Uht Integral"})

		svc := product.NewService(repo)

		res, err := svc.ResolveOrCreate(context.Background(), userID, normalize.Product{
			NormalizedName: "Detergente Neutro",
			OriginalName:   "DET NEUTRO 500ML",
			Brand:          "Ypê",
		}, category.Home)
		require.NoError(t, err)

		assert.True(t, res.Created)
		assert.Equal(t, "Detergente Neutro", res.Product.Name)
		assert.Equal(t, "Ypê", res.Product.Brand)
		assert.Equal(t, category.Home, res.Product.Category)
		assert.Equal(t, 1, repo.createCalls)
	})

	t.Run("DistinctProductsStaySeparate", func(t *testing.T) {
		repo := newFakeRepo()
		seedProduct(repo, userID, product.Product{Name: "Arroz Branco"})

		svc := product.NewService(repo)

		res, err := svc.ResolveOrCreate(context.Background(), userID, normalize.Product{
			NormalizedName: "Cafe Torrado Moido",
		}, category.Groceries)
		require.NoError(t, err)

		assert.True(t, res.Created)
		assert.Len(t, repo.products, 2)
	})

	t.Run("CategoryUpgradeFromOther", func(t *testing.T) {
		repo := newFakeRepo()
		existing := seedProduct(repo, userID, product.Product{
			Name:        "Dipirona 30 Comprimidos",
			ProductCode: "7891234567895",
			Category:    category.Other,
		})

		svc := product.NewService(repo)

		res, err := svc.ResolveOrCreate(context.Background(), userID, normalize.Product{
			NormalizedName: "Dipirona 30 Comprimidos",
			ProductCode:    "7891234567895",
		}, category.Pharmacy)
		require.NoError(t, err)

		assert.Equal(t, category.Pharmacy, res.Product.Category)
		assert.Equal(t, category.Pharmacy, repo.products[existing.ID].Category)
	})

	t.Run("ConcurrentCodeInsertFallsBackToLookup", func(t *testing.T) {
		repo := newFakeRepo()
		svc := product.NewService(repo)

		// Simulate a concurrent ingestion winning the insert race: the first
		// lookup misses, the create fails with the unique-index error, and
		// the re-fetch finds the winner.
		repo.failCreate = product.ErrCodeExists
		repo.codeMisses = 1
		repo.hideList = true
		winner := seedProduct(repo, userID, product.Product{
			Name:        "Cerveja Lata",
			ProductCode: "7894900010015",
		})

		res, err := svc.ResolveOrCreate(context.Background(), userID, normalize.Product{
			NormalizedName: "Cerveja Pilsen Lata",
			ProductCode:    "7894900010015",
		}, category.Supermarket)
		require.NoError(t, err)

		assert.False(t, res.Created)
		assert.Equal(t, winner.ID, res.Product.ID)
	})
}

func TestService_RecordPurchase(t *testing.T) {
	userID := uuid.New()
	repo := newFakeRepo()
	p := seedProduct(repo, userID, product.Product{Name: "Leite Integral"})

	svc := product.NewService(repo)
	ctx := context.Background()

	day1 := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.RecordPurchase(ctx, userID, p.ID, decimal.RequireFromString("10.00"), day1))
	assert.EqualValues(t, 1, p.PurchaseCount)
	assert.True(t, p.AvgUnitPrice.Equal(decimal.RequireFromString("10.00")))
	require.NotNil(t, p.LastPurchaseAt)
	assert.True(t, p.LastPurchaseAt.Equal(day1))

	require.NoError(t, svc.RecordPurchase(ctx, userID, p.ID, decimal.RequireFromString("20.00"), day2))
	assert.EqualValues(t, 2, p.PurchaseCount)
	assert.True(t, p.AvgUnitPrice.Equal(decimal.RequireFromString("15.00")))
	assert.True(t, p.LastPurchaseAt.Equal(day2))

	// An older purchase must not move the last-purchase date backwards.
	require.NoError(t, svc.RecordPurchase(ctx, userID, p.ID, decimal.RequireFromString("12.00"), day1))
	assert.EqualValues(t, 3, p.PurchaseCount)
	assert.True(t, p.AvgUnitPrice.Equal(decimal.RequireFromString("14.00")))
	assert.True(t, p.LastPurchaseAt.Equal(day2))
}

func TestService_ReversePurchase(t *testing.T) {
	userID := uuid.New()
	ctx := context.Background()

	t.Run("RecomputesFromRemainingHistory", func(t *testing.T) {
		repo := newFakeRepo()
		p := seedProduct(repo, userID, product.Product{Name: "Leite Integral"})
		svc := product.NewService(repo)

		invoiceA := uuid.New()
		invoiceB := uuid.New()

		day := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

		for _, e := range []struct {
			invoice uuid.UUID
			price   string
		}{
			{invoiceA, "10.00"},
			{invoiceB, "20.00"},
		} {
			require.NoError(t, svc.RecordPrice(ctx, &product.PriceEntry{
				UserID:      userID,
				ProductID:   p.ID,
				InvoiceID:   e.invoice,
				UnitPrice:   decimal.RequireFromString(e.price),
				Quantity:    decimal.NewFromInt(1),
				PurchasedAt: day,
			}))
			require.NoError(t, svc.RecordPurchase(ctx, userID, p.ID, decimal.RequireFromString(e.price), day))
		}

		require.NoError(t, svc.ReversePurchase(ctx, userID, p.ID, invoiceA))

		assert.EqualValues(t, 1, p.PurchaseCount)
		assert.True(t, p.AvgUnitPrice.Equal(decimal.RequireFromString("20.00")),
			"average must be the mean of history rows excluding the deleted invoice, got %s", p.AvgUnitPrice)
	})

	t.Run("LastPurchaseResetsAtZero", func(t *testing.T) {
		repo := newFakeRepo()
		p := seedProduct(repo, userID, product.Product{Name: "Leite Integral"})
		svc := product.NewService(repo)

		invoice := uuid.New()
		day := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, svc.RecordPurchase(ctx, userID, p.ID, decimal.RequireFromString("10.00"), day))
		require.NoError(t, svc.ReversePurchase(ctx, userID, p.ID, invoice))

		assert.EqualValues(t, 0, p.PurchaseCount)
		assert.True(t, p.AvgUnitPrice.IsZero())
		assert.Nil(t, p.LastPurchaseAt)
	})

	t.Run("CountFlooredAtZero", func(t *testing.T) {
		repo := newFakeRepo()
		p := seedProduct(repo, userID, product.Product{Name: "Leite Integral"})
		svc := product.NewService(repo)

		require.NoError(t, svc.ReversePurchase(ctx, userID, p.ID, uuid.New()))
		assert.EqualValues(t, 0, p.PurchaseCount)
	})
}

func TestService_RecordPurchase_TxProtocol(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	day1 := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	ctrl := gomock.NewController(t)
	repo := product.NewMockRepository(ctrl)
	stx := product.NewMockStatsTx(ctrl)

	repo.EXPECT().BeginStats(gomock.Any(), userID, productID).Return(stx, nil)
	stx.EXPECT().Product(gomock.Any()).Return(&product.Product{
		ID:             productID,
		UserID:         userID,
		PurchaseCount:  2,
		AvgUnitPrice:   decimal.RequireFromString("15.00"),
		LastPurchaseAt: &day2,
	}, nil)
	stx.EXPECT().
		SaveStats(gomock.Any(), int64(3), gomock.Cond(func(x any) bool {
			avg, ok := x.(decimal.Decimal)
			return ok && avg.Equal(decimal.RequireFromString("14.00"))
		}), &day2).
		Return(nil)
	stx.EXPECT().Commit().Return(nil)
	stx.EXPECT().Rollback().Return(nil)

	svc := product.NewService(repo)

	err := svc.RecordPurchase(context.Background(), userID, productID, decimal.RequireFromString("12.00"), day1)
	require.NoError(t, err)
}

func TestService_ReversePurchase_RollsBackOnSaveFailure(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	ctrl := gomock.NewController(t)
	repo := product.NewMockRepository(ctrl)
	stx := product.NewMockStatsTx(ctrl)

	boom := errors.New("stats write failed")

	repo.EXPECT().BeginStats(gomock.Any(), userID, productID).Return(stx, nil)
	stx.EXPECT().Product(gomock.Any()).Return(&product.Product{
		ID:            productID,
		UserID:        userID,
		PurchaseCount: 1,
		AvgUnitPrice:  decimal.RequireFromString("10.00"),
	}, nil)
	stx.EXPECT().SaveStats(gomock.Any(), int64(0), gomock.Any(), gomock.Nil()).Return(boom)
	stx.EXPECT().Rollback().Return(nil)

	svc := product.NewService(repo)

	err := svc.ReversePurchase(context.Background(), userID, productID, uuid.New())
	require.ErrorIs(t, err, boom)
}

func TestService_PriceHistory(t *testing.T) {
	userID := uuid.New()
	repo := newFakeRepo()
	p := seedProduct(repo, userID, product.Product{Name: "Leite Integral"})
	svc := product.NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RecordPrice(ctx, &product.PriceEntry{
		UserID:    userID,
		ProductID: p.ID,
		InvoiceID: uuid.New(),
		UnitPrice: decimal.RequireFromString("5.50"),
		Quantity:  decimal.NewFromInt(2),
	}))

	entries, err := svc.PriceHistory(ctx, userID, p.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Another user cannot see them.
	_, err = svc.PriceHistory(ctx, uuid.New(), p.ID, 10, 0)
	assert.ErrorIs(t, err, product.ErrNotFound)
}
