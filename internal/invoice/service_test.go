package invoice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhrodrigues/notinha/internal/category"
	"github.com/vhrodrigues/notinha/internal/extract"
	"github.com/vhrodrigues/notinha/internal/invoice"
	"github.com/vhrodrigues/notinha/internal/product"
)

// fakeInvoiceRepo is an in-memory Repository enforcing the unique
// (user, access key) guard the way the SQL store does.
type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*invoice.Invoice
	items    map[uuid.UUID][]*invoice.Item

	failItems error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[uuid.UUID]*invoice.Invoice),
		items:    make(map[uuid.UUID][]*invoice.Item),
	}
}

func (r *fakeInvoiceRepo) FindByKey(_ context.Context, userID uuid.UUID, key string) (*invoice.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.UserID == userID && inv.AccessKey == key {
			return inv, nil
		}
	}

	return nil, invoice.ErrNotFound
}

func (r *fakeInvoiceRepo) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if existing, err := r.FindByKey(ctx, inv.UserID, inv.AccessKey); err == nil {
		return &invoice.DuplicateError{ExistingID: existing.ID, CreatedAt: existing.CreatedAt}
	}

	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	r.invoices[inv.ID] = inv

	return nil
}

func (r *fakeInvoiceRepo) CreateItems(_ context.Context, items []*invoice.Item) error {
	if r.failItems != nil {
		return r.failItems
	}

	for _, item := range items {
		item.ID = uuid.New()
		item.CreatedAt = time.Now()
		r.items[item.InvoiceID] = append(r.items[item.InvoiceID], item)
	}

	return nil
}

func (r *fakeInvoiceRepo) GetInvoice(_ context.Context, userID, id uuid.UUID) (*invoice.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, invoice.ErrNotFound
	}

	return inv, nil
}

func (r *fakeInvoiceRepo) GetItems(_ context.Context, userID, invoiceID uuid.UUID) ([]*invoice.Item, error) {
	var out []*invoice.Item

	for _, item := range r.items[invoiceID] {
		if item.UserID == userID {
			out = append(out, item)
		}
	}

	return out, nil
}

func (r *fakeInvoiceRepo) ListInvoices(_ context.Context, userID uuid.UUID, _ invoice.ListFilter) ([]*invoice.Invoice, error) {
	var out []*invoice.Invoice

	for _, inv := range r.invoices {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}

	return out, nil
}

func (r *fakeInvoiceRepo) DeleteInvoice(_ context.Context, userID, id uuid.UUID) error {
	inv, ok := r.invoices[id]
	if !ok || inv.UserID != userID {
		return invoice.ErrNotFound
	}

	delete(r.invoices, id)
	delete(r.items, id)

	return nil
}

func (r *fakeInvoiceRepo) MonthlySummary(_ context.Context, userID uuid.UUID, year int, month time.Month) ([]invoice.CategoryTotal, error) {
	byCategory := make(map[category.Category]*invoice.CategoryTotal)

	for _, inv := range r.invoices {
		if inv.UserID != userID || inv.IssuedAt.Year() != year || inv.IssuedAt.Month() != month {
			continue
		}

		ct, ok := byCategory[inv.Category]
		if !ok {
			ct = &invoice.CategoryTotal{Category: inv.Category}
			byCategory[inv.Category] = ct
		}

		ct.Total = ct.Total.Add(inv.Total)
		ct.Count++
	}

	var out []invoice.CategoryTotal
	for _, ct := range byCategory {
		out = append(out, *ct)
	}

	return out, nil
}

// fakeProductRepo backs the real product.Service so assembly tests exercise
// genuine normalization, matching and statistics.
type fakeProductRepo struct {
	products map[uuid.UUID]*product.Product
	prices   []*product.PriceEntry

	appendCalls  int
	failAppendAt int // 1-based call index at which AppendPrice starts failing
	failAppend   error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*product.Product)}
}

func (r *fakeProductRepo) CreateProduct(_ context.Context, p *product.Product) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	r.products[p.ID] = p

	return nil
}

func (r *fakeProductRepo) GetProduct(_ context.Context, userID, id uuid.UUID) (*product.Product, error) {
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return nil, product.ErrNotFound
	}

	return p, nil
}

func (r *fakeProductRepo) GetByCode(_ context.Context, userID uuid.UUID, code string) (*product.Product, error) {
	for _, p := range r.products {
		if p.UserID == userID && p.ProductCode == code {
			return p, nil
		}
	}

	return nil, product.ErrNotFound
}

func (r *fakeProductRepo) ListProducts(_ context.Context, userID uuid.UUID, _ product.ListFilter) ([]*product.Product, error) {
	var out []*product.Product

	for _, p := range r.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *fakeProductRepo) UpdateCategory(_ context.Context, userID, id uuid.UUID, c category.Category) error {
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return product.ErrNotFound
	}

	p.Category = c

	return nil
}

func (r *fakeProductRepo) AppendPrice(_ context.Context, e *product.PriceEntry) error {
	r.appendCalls++
	if r.failAppendAt > 0 && r.appendCalls >= r.failAppendAt {
		return r.failAppend
	}

	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.prices = append(r.prices, e)

	return nil
}

func (r *fakeProductRepo) ListPrices(_ context.Context, userID, productID uuid.UUID, _, _ int) ([]*product.PriceEntry, error) {
	var out []*product.PriceEntry

	for _, e := range r.prices {
		if e.UserID == userID && e.ProductID == productID {
			out = append(out, e)
		}
	}

	return out, nil
}

func (r *fakeProductRepo) DeletePricesByInvoice(_ context.Context, userID, invoiceID uuid.UUID) error {
	kept := r.prices[:0]

	for _, e := range r.prices {
		if !(e.UserID == userID && e.InvoiceID == invoiceID) {
			kept = append(kept, e)
		}
	}

	r.prices = kept

	return nil
}

func (r *fakeProductRepo) BeginStats(_ context.Context, userID, productID uuid.UUID) (product.StatsTx, error) {
	return &fakeStatsTx{repo: r, userID: userID, productID: productID}, nil
}

type fakeStatsTx struct {
	repo      *fakeProductRepo
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

type fixture struct {
	svc         *invoice.Service
	invoiceRepo *fakeInvoiceRepo
	productRepo *fakeProductRepo
}

func newFixture() *fixture {
	invoiceRepo := newFakeInvoiceRepo()
	productRepo := newFakeProductRepo()

	return &fixture{
		svc:         invoice.NewService(invoiceRepo, product.NewService(productRepo)),
		invoiceRepo: invoiceRepo,
		productRepo: productRepo,
	}
}

func pharmacyParsed() *extract.ParsedInvoice {
	return &extract.ParsedInvoice{
		AccessKey: "35240805123456000190650010000001231000001234",
		Number:    "123456",
		Series:    "1",
		IssuedAt:  time.Date(2024, 8, 5, 14, 30, 0, 0, time.UTC),
		Merchant: extract.MerchantInfo{
			TaxID:     "12345678000195",
			LegalName: "FARMACIA EXEMPLO LTDA",
		},
		Items: []extract.Item{
			{
				Description: "DIPIRONA 500MG C/ 30 COMP",
				ProductCode: "7891234567895",
				NCMCode:     "30049099",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.RequireFromString("5.50"),
				TotalPrice:  decimal.RequireFromString("11.00"),
			},
			{
				Description: "VITAMINA C EFERV",
				NCMCode:     "30045090",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.RequireFromString("8.90"),
				TotalPrice:  decimal.RequireFromString("8.40"),
				Discount:    decimal.RequireFromString("0.50"),
			},
		},
		Totals: extract.Totals{
			Subtotal: decimal.RequireFromString("19.90"),
			Discount: decimal.RequireFromString("0.50"),
			Total:    decimal.RequireFromString("19.40"),
		},
		Category: category.Pharmacy,
	}
}

func milkParsed(key, description string) *extract.ParsedInvoice {
	return &extract.ParsedInvoice{
		AccessKey: key,
		IssuedAt:  time.Date(2024, 8, 10, 9, 0, 0, 0, time.UTC),
		Merchant: extract.MerchantInfo{
			TaxID:     "98765432000110",
			LegalName: "SUPERMERCADO DOIS IRMAOS",
		},
		Items: []extract.Item{
			{
				Description: description,
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.RequireFromString("6.00"),
				TotalPrice:  decimal.RequireFromString("6.00"),
			},
		},
		Totals:   extract.Totals{Total: decimal.RequireFromString("6.00")},
		Category: category.Supermarket,
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	got, err := f.svc.Create(context.Background(), userID, pharmacyParsed(), invoice.CreateOptions{})
	require.NoError(t, err)

	assert.True(t, got.Invoice.Total.Equal(decimal.RequireFromString("19.40")))
	assert.Equal(t, category.Pharmacy, got.Invoice.Category)
	assert.Equal(t, "FARMACIA EXEMPLO LTDA", got.Invoice.MerchantName)

	require.Len(t, got.Items, 2)
	assert.Equal(t, 1, got.Items[0].LineNumber)
	assert.Equal(t, 2, got.Items[1].LineNumber)

	// Two distinct products, each with one purchase and a history row.
	assert.Len(t, f.productRepo.products, 2)
	assert.Len(t, f.productRepo.prices, 2)

	dipirona := f.productRepo.products[got.Items[0].ProductID]
	require.NotNil(t, dipirona)
	assert.Equal(t, "Dipirona 30 Comprimidos", dipirona.Name)
	assert.EqualValues(t, 1, dipirona.PurchaseCount)
	assert.True(t, dipirona.AvgUnitPrice.Equal(decimal.RequireFromString("5.50")))
}

func TestService_Create_CustomCategoryOverride(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	custom := category.Health

	got, err := f.svc.Create(context.Background(), userID, pharmacyParsed(), invoice.CreateOptions{
		CustomCategory: &custom,
	})
	require.NoError(t, err)

	assert.Equal(t, category.Health, got.Invoice.Category)
}

func TestService_Create_Duplicate(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	ctx := context.Background()

	first, err := f.svc.Create(ctx, userID, pharmacyParsed(), invoice.CreateOptions{})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, userID, pharmacyParsed(), invoice.CreateOptions{})
	require.Error(t, err)

	var dup *invoice.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.Invoice.ID, dup.ExistingID)
	assert.True(t, invoice.IsDuplicate(err))

	// The same document is fine for a different user.
	_, err = f.svc.Create(ctx, uuid.New(), pharmacyParsed(), invoice.CreateOptions{})
	require.NoError(t, err)
}

func TestService_Create_FuzzyMergeAcrossInvoices(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	ctx := context.Background()

	first, err := f.svc.Create(ctx, userID,
		milkParsed("11111111111111111111111111111111111111111111", "LEITE UHT ITALAC INT 1L"),
		invoice.CreateOptions{})
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, userID,
		milkParsed("22222222222222222222222222222222222222222222", "LEITE TIROL INT 1L"),
		invoice.CreateOptions{})
	require.NoError(t, err)

	// Different brands of the same product merge into one catalog entry.
	assert.Equal(t, first.Items[0].ProductID, second.Items[0].ProductID)
	assert.Len(t, f.productRepo.products, 1)

	merged := f.productRepo.products[first.Items[0].ProductID]
	assert.EqualValues(t, 2, merged.PurchaseCount)
}

func TestService_Create_CleanupOnItemFailure(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	boom := errors.New("items write failed")
	f.invoiceRepo.failItems = boom

	_, err := f.svc.Create(context.Background(), userID, pharmacyParsed(), invoice.CreateOptions{})
	require.ErrorIs(t, err, boom)

	// The partially created invoice is gone.
	assert.Empty(t, f.invoiceRepo.invoices)
	assert.Empty(t, f.productRepo.prices)
}

func TestService_Create_CleanupReversesRecordedPurchases(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	// Line 1 is fully recorded; line 2's purchase is recorded but its price
	// row fails, aborting assembly half-way through the statistics loop.
	boom := errors.New("price write failed")
	f.productRepo.failAppendAt = 2
	f.productRepo.failAppend = boom

	_, err := f.svc.Create(context.Background(), userID, pharmacyParsed(), invoice.CreateOptions{})
	require.ErrorIs(t, err, boom)

	assert.Empty(t, f.invoiceRepo.invoices)
	assert.Empty(t, f.productRepo.prices)

	// Purchases applied before the failure are reversed, not just deleted
	// around: the products survive with no phantom counts, so re-ingesting
	// the same document does not double count.
	require.Len(t, f.productRepo.products, 2)

	for _, p := range f.productRepo.products {
		assert.EqualValues(t, 0, p.PurchaseCount, "product %q", p.Name)
		assert.True(t, p.AvgUnitPrice.IsZero(), "product %q", p.Name)
		assert.Nil(t, p.LastPurchaseAt, "product %q", p.Name)
	}

	// A retry of the same document succeeds and lands on clean aggregates.
	f.productRepo.failAppendAt = 0

	got, err := f.svc.Create(context.Background(), userID, pharmacyParsed(), invoice.CreateOptions{})
	require.NoError(t, err)

	dipirona := f.productRepo.products[got.Items[0].ProductID]
	assert.EqualValues(t, 1, dipirona.PurchaseCount)
	assert.True(t, dipirona.AvgUnitPrice.Equal(decimal.RequireFromString("5.50")))
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, userID,
		milkParsed("11111111111111111111111111111111111111111111", "LEITE UHT ITALAC INT 1L"),
		invoice.CreateOptions{})
	require.NoError(t, err)

	productID := created.Items[0].ProductID

	require.NoError(t, f.svc.Delete(ctx, userID, created.Invoice.ID))

	// The sole purchase is reversed: stats reset, history gone, product kept.
	p := f.productRepo.products[productID]
	require.NotNil(t, p, "products must survive invoice deletion")
	assert.EqualValues(t, 0, p.PurchaseCount)
	assert.True(t, p.AvgUnitPrice.IsZero())
	assert.Nil(t, p.LastPurchaseAt)
	assert.Empty(t, f.productRepo.prices)

	_, err = f.svc.Get(ctx, userID, created.Invoice.ID)
	assert.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestService_Delete_OwnershipReportsNotFound(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, userID, pharmacyParsed(), invoice.CreateOptions{})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, uuid.New(), created.Invoice.ID)
	assert.ErrorIs(t, err, invoice.ErrNotFound)

	// Still there for the owner.
	_, err = f.svc.Get(ctx, userID, created.Invoice.ID)
	assert.NoError(t, err)
}

func TestService_DeleteThenRecreateReproducesAggregates(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	ctx := context.Background()

	key := "11111111111111111111111111111111111111111111"

	first, err := f.svc.Create(ctx, userID, milkParsed(key, "LEITE UHT ITALAC INT 1L"), invoice.CreateOptions{})
	require.NoError(t, err)

	wantCount := f.productRepo.products[first.Items[0].ProductID].PurchaseCount
	wantAvg := f.productRepo.products[first.Items[0].ProductID].AvgUnitPrice

	require.NoError(t, f.svc.Delete(ctx, userID, first.Invoice.ID))

	second, err := f.svc.Create(ctx, userID, milkParsed(key, "LEITE UHT ITALAC INT 1L"), invoice.CreateOptions{})
	require.NoError(t, err)

	p := f.productRepo.products[second.Items[0].ProductID]
	assert.Equal(t, wantCount, p.PurchaseCount)
	assert.True(t, p.AvgUnitPrice.Equal(wantAvg))
}

func TestService_MonthlySummary(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, userID, pharmacyParsed(), invoice.CreateOptions{})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, userID,
		milkParsed("22222222222222222222222222222222222222222222", "LEITE TIROL INT 1L"),
		invoice.CreateOptions{})
	require.NoError(t, err)

	totals, err := f.svc.MonthlySummary(ctx, userID, 2024, time.August)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	sum := decimal.Zero
	for _, ct := range totals {
		sum = sum.Add(ct.Total)
	}

	assert.True(t, sum.Equal(decimal.RequireFromString("25.40")))
}
