package posting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/core/numerator"
	"saldo/internal/core/tenant"
	"saldo/internal/core/types"
	"saldo/internal/domain/currency"
	"saldo/internal/domain/documents"
	"saldo/internal/domain/inventory"
	"saldo/internal/domain/ledger"
)

// In-memory store shared by the repository fakes, with snapshot/restore
// so the fake transaction manager rolls back the way the real one does.

type posKey struct {
	productID id.ID
	storeID   id.ID
}

type memStore struct {
	docs      map[id.ID]*documents.Document
	lines     map[id.ID][]documents.DocumentLine
	journal   []*ledger.JournalLine
	positions map[posKey]*entity.InventoryPosition
	movements []*entity.InventoryMovement
}

func newMemStore() *memStore {
	return &memStore{
		docs:      make(map[id.ID]*documents.Document),
		lines:     make(map[id.ID][]documents.DocumentLine),
		positions: make(map[posKey]*entity.InventoryPosition),
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for docID, doc := range s.docs {
		cp := *doc
		c.docs[docID] = &cp
	}
	for docID, lines := range s.lines {
		c.lines[docID] = append([]documents.DocumentLine(nil), lines...)
	}
	c.journal = append([]*ledger.JournalLine(nil), s.journal...)
	for key, pos := range s.positions {
		cp := *pos
		c.positions[key] = &cp
	}
	c.movements = append([]*entity.InventoryMovement(nil), s.movements...)
	return c
}

func (s *memStore) restore(from *memStore) {
	s.docs = from.docs
	s.lines = from.lines
	s.journal = from.journal
	s.positions = from.positions
	s.movements = from.movements
}

// memTx serializes units like the document row lock does and restores
// the store snapshot on error.
type memTx struct {
	mu    sync.Mutex
	store *memStore
}

func (t *memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.store.clone()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// memDocs implements documents.Repository over the shared store.
type memDocs struct {
	documents.Repository // unimplemented methods panic
	store                *memStore
}

func (r *memDocs) Create(ctx context.Context, doc *documents.Document) error {
	cp := *doc
	cp.Lines = nil
	r.store.docs[doc.ID] = &cp
	return nil
}

func (r *memDocs) GetByID(ctx context.Context, docID id.ID) (*documents.Document, error) {
	doc, ok := r.store.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("document", docID.String())
	}
	cp := *doc
	cp.Lines = nil
	return &cp, nil
}

func (r *memDocs) GetForUpdate(ctx context.Context, docID id.ID) (*documents.Document, error) {
	return r.GetByID(ctx, docID)
}

func (r *memDocs) GetLines(ctx context.Context, docID id.ID) ([]documents.DocumentLine, error) {
	return append([]documents.DocumentLine(nil), r.store.lines[docID]...), nil
}

func (r *memDocs) SaveLines(ctx context.Context, docID id.ID, lines []documents.DocumentLine) error {
	r.store.lines[docID] = append([]documents.DocumentLine(nil), lines...)
	return nil
}

func (r *memDocs) Update(ctx context.Context, doc *documents.Document) error {
	if _, ok := r.store.docs[doc.ID]; !ok {
		return apperror.NewNotFound("document", doc.ID.String())
	}
	cp := *doc
	cp.Lines = nil
	r.store.docs[doc.ID] = &cp
	return nil
}

func (r *memDocs) UpdateLineFulfillment(ctx context.Context, line *documents.DocumentLine) error {
	lines := r.store.lines[line.DocumentID]
	for i := range lines {
		if lines[i].LineID == line.LineID {
			lines[i].Fulfilled = line.Fulfilled
			return nil
		}
	}
	return apperror.NewNotFound("document line", line.LineID.String())
}

func (r *memDocs) Delete(ctx context.Context, docID id.ID) error {
	delete(r.store.docs, docID)
	delete(r.store.lines, docID)
	return nil
}

// memJournal implements ledger.Repository.
type memJournal struct {
	store      *memStore
	failInsert bool
}

func (r *memJournal) InsertLines(ctx context.Context, lines []*ledger.JournalLine) error {
	if r.failInsert {
		return errors.New("journal store unavailable")
	}
	r.store.journal = append(r.store.journal, lines...)
	return nil
}

func (r *memJournal) ExistsForAttempt(ctx context.Context, documentID id.ID, attempt int) (bool, error) {
	for _, line := range r.store.journal {
		if line.DocumentID == documentID && line.Attempt == attempt {
			return true, nil
		}
	}
	return false, nil
}

func (r *memJournal) ExistsForDocument(ctx context.Context, documentID id.ID) (bool, error) {
	for _, line := range r.store.journal {
		if line.DocumentID == documentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memJournal) ListByReference(ctx context.Context, reference string) ([]*ledger.JournalLine, error) {
	var out []*ledger.JournalLine
	for _, line := range r.store.journal {
		if line.Reference == reference {
			out = append(out, line)
		}
	}
	return out, nil
}

func (r *memJournal) ListByDocument(ctx context.Context, documentID id.ID) ([]*ledger.JournalLine, error) {
	var out []*ledger.JournalLine
	for _, line := range r.store.journal {
		if line.DocumentID == documentID {
			out = append(out, line)
		}
	}
	return out, nil
}

// memPositions implements inventory.PositionRepository.
type memPositions struct {
	inventory.PositionRepository
	store *memStore
}

func (r *memPositions) Get(ctx context.Context, productID, storeID id.ID) (*entity.InventoryPosition, error) {
	pos, ok := r.store.positions[posKey{productID, storeID}]
	if !ok {
		return nil, apperror.NewNotFound("inventory position", productID.String())
	}
	cp := *pos
	return &cp, nil
}

func (r *memPositions) GetForUpdate(ctx context.Context, productID, storeID id.ID) (*entity.InventoryPosition, error) {
	return r.Get(ctx, productID, storeID)
}

func (r *memPositions) Upsert(ctx context.Context, position *entity.InventoryPosition) error {
	cp := *position
	r.store.positions[posKey{position.ProductID, position.StoreID}] = &cp
	return nil
}

// memMovements implements inventory.MovementRepository.
type memMovements struct {
	store *memStore
}

func (r *memMovements) Insert(ctx context.Context, movements []*entity.InventoryMovement) error {
	r.store.movements = append(r.store.movements, movements...)
	return nil
}

func (r *memMovements) ListByRecorder(ctx context.Context, recorderID id.ID) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	for _, mv := range r.store.movements {
		if mv.RecorderID == recorderID {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (r *memMovements) ListByPosition(ctx context.Context, productID, storeID id.ID, limit int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	for _, mv := range r.store.movements {
		if mv.ProductID == productID && mv.StoreID == storeID {
			out = append(out, mv)
		}
	}
	return out, nil
}

// memCurrencies implements the catalog lookups the converter needs.
type memCurrencies struct {
	currency.Repository
	byID map[id.ID]*currency.Currency
}

func (r *memCurrencies) GetByID(ctx context.Context, currencyID id.ID) (*currency.Currency, error) {
	curr, ok := r.byID[currencyID]
	if !ok {
		return nil, apperror.NewNotFound("currency", currencyID.String())
	}
	return curr, nil
}

// memRates implements currency.RateRepository.
type memRates struct {
	quotes []*currency.ExchangeRate
}

func (r *memRates) Insert(ctx context.Context, rate *currency.ExchangeRate) error {
	r.quotes = append(r.quotes, rate)
	return nil
}

func (r *memRates) Latest(ctx context.Context, currencyID id.ID, asOf time.Time) (*currency.ExchangeRate, error) {
	var best *currency.ExchangeRate
	for _, q := range r.quotes {
		if q.CurrencyID != currencyID || q.EffectiveDate.After(asOf) {
			continue
		}
		if best == nil || q.EffectiveDate.After(best.EffectiveDate) {
			best = q
		}
	}
	if best == nil {
		return nil, apperror.NewNotFound("exchange rate", currencyID.String())
	}
	return best, nil
}

func (r *memRates) ListForCurrency(ctx context.Context, currencyID id.ID, limit int) ([]*currency.ExchangeRate, error) {
	var out []*currency.ExchangeRate
	for _, q := range r.quotes {
		if q.CurrencyID == currencyID {
			out = append(out, q)
		}
	}
	return out, nil
}

// memAccounts implements the account lookups the resolver needs.
type memAccounts struct {
	ledger.AccountRepository
	byCode map[string]*ledger.Account
}

func (r *memAccounts) GetByCode(ctx context.Context, code string) (*ledger.Account, error) {
	acc, ok := r.byCode[code]
	if !ok {
		return nil, apperror.NewNotFound("account", code)
	}
	return acc, nil
}

// idSet satisfies Exister.
type idSet map[id.ID]bool

func (s idSet) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s[entityID], nil
}

// captureSink records emitted transition events.
type captureSink struct {
	mu     sync.Mutex
	events []TransitionEvent
}

func (s *captureSink) Record(ctx context.Context, ev TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) all() []TransitionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TransitionEvent(nil), s.events...)
}

// harness wires a full engine over the in-memory store.
type harness struct {
	t *testing.T

	store    *memStore
	engine   *Engine
	journal  *memJournal
	sink     *captureSink
	accounts *memAccounts

	tenantID     id.ID
	userID       id.ID
	usd          id.ID
	eur          id.ID
	gbp          id.ID
	storeID      id.ID
	productA     id.ID
	productB     id.ID
	counterparty id.ID

	today time.Time
}

func strPtr(s string) *string { return &s }

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemStore()
	h := &harness{
		t:            t,
		store:        store,
		journal:      &memJournal{store: store},
		sink:         &captureSink{},
		tenantID:     id.New(),
		userID:       id.New(),
		storeID:      id.New(),
		productA:     id.New(),
		productB:     id.New(),
		counterparty: id.New(),
		today:        time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC),
	}

	usd := currency.NewCurrency(h.tenantID, "USD", "US Dollar", strPtr("USD"), strPtr("$"))
	usd.IsBase = true
	eur := currency.NewCurrency(h.tenantID, "EUR", "Euro", strPtr("EUR"), strPtr("€"))
	gbp := currency.NewCurrency(h.tenantID, "GBP", "Pound Sterling", strPtr("GBP"), strPtr("£"))
	h.usd, h.eur, h.gbp = usd.ID, eur.ID, gbp.ID
	currencies := &memCurrencies{byID: map[id.ID]*currency.Currency{
		usd.ID: usd,
		eur.ID: eur,
		gbp.ID: gbp,
	}}

	rates := &memRates{}
	rates.quotes = append(rates.quotes, currency.NewExchangeRate(
		h.tenantID, eur.ID, types.MustMoney("1.1"),
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))

	accounts := &memAccounts{byCode: map[string]*ledger.Account{}}
	h.accounts = accounts
	chart := []struct {
		code string
		name string
		typ  ledger.AccountType
	}{
		{"1010", "Cash", ledger.AccountAsset},
		{"1210", "Accounts receivable", ledger.AccountAsset},
		{"1310", "Inventory", ledger.AccountAsset},
		{"2010", "Accounts payable", ledger.AccountLiability},
		{"4010", "Revenue", ledger.AccountIncome},
		{"5010", "Cost of goods sold", ledger.AccountExpense},
		{"5020", "Inventory adjustment", ledger.AccountExpense},
	}
	for _, a := range chart {
		accounts.byCode[a.code] = ledger.NewAccount(h.tenantID, a.code, a.name, a.typ)
	}

	policy, err := documents.NewPolicyEngine(nil)
	require.NoError(t, err)

	txm := &memTx{store: store}
	positions := &memPositions{store: store}

	h.engine = NewEngine(Config{
		Documents: &memDocs{store: store},
		Journal:   h.journal,
		Positions: positions,
		Converter: currency.NewConverter(currencies, rates),
		Updater:   inventory.NewUpdater(positions, &memMovements{store: store}),
		Poster:    ledger.NewPoster(h.journal),
		Accounts:  NewAccountResolver(accounts),
		Policy:    policy,
		Numbers:   &numerator.MockGenerator{},
		Refs: &CatalogChecker{
			Products:       idSet{h.productA: true, h.productB: true},
			Stores:         idSet{h.storeID: true},
			Counterparties: idSet{h.counterparty: true},
		},
		TxManager: txm,
		Sinks:     []EventSink{h.sink},
	})

	return h
}

func (h *harness) ctx() context.Context {
	return h.ctxWith(tenant.Settings{})
}

func (h *harness) ctxWith(settings tenant.Settings) context.Context {
	return tenant.WithScope(context.Background(), tenant.Scope{
		TenantID:     h.tenantID,
		UserID:       h.userID,
		TenantCode:   "acme",
		BaseCurrency: "USD",
		Settings:     settings,
	})
}

type lineSpec struct {
	product   id.ID
	qty       string
	price     string
	direction documents.LineDirection
}

// newDoc seeds a draft document directly into the store.
func (h *harness) newDoc(kind documents.Kind, currencyID id.ID, lines ...lineSpec) *documents.Document {
	doc := documents.NewDocument(h.tenantID, kind, h.today)
	doc.CurrencyID = currencyID
	if kind.MovesStock() {
		doc.StoreID = h.storeID
	}
	if kind != documents.KindStockAdjustment && kind != documents.KindPhysicalInventory {
		doc.CounterpartyID = h.counterparty
	}
	for _, spec := range lines {
		line := doc.AddLine(spec.product, types.MustQuantity(spec.qty), types.MustMoney(spec.price))
		if spec.direction != "" {
			line.Direction = spec.direction
		}
	}
	h.seed(doc)
	return doc
}

func (h *harness) seed(doc *documents.Document) {
	cp := *doc
	cp.Lines = nil
	h.store.docs[doc.ID] = &cp
	h.store.lines[doc.ID] = append([]documents.DocumentLine(nil), doc.Lines...)
}

func (h *harness) confirm(doc *documents.Document) *documents.Document {
	h.t.Helper()
	res, err := h.engine.Confirm(h.ctx(), doc.ID)
	require.NoError(h.t, err)
	return res.Document
}

func (h *harness) seedPosition(productID id.ID, qty, avgCost string) {
	h.store.positions[posKey{productID, h.storeID}] = &entity.InventoryPosition{
		TenantID:  h.tenantID,
		ProductID: productID,
		StoreID:   h.storeID,
		Quantity:  types.MustQuantity(qty),
		AvgCost:   types.MustMoney(avgCost),
	}
}

func (h *harness) loadDoc(docID id.ID) *documents.Document {
	doc := h.store.docs[docID]
	cp := *doc
	cp.Lines = append([]documents.DocumentLine(nil), h.store.lines[docID]...)
	return &cp
}

func (h *harness) position(productID id.ID) *entity.InventoryPosition {
	return h.store.positions[posKey{productID, h.storeID}]
}

func (h *harness) journalFor(docID id.ID) []*ledger.JournalLine {
	var out []*ledger.JournalLine
	for _, line := range h.store.journal {
		if line.DocumentID == docID {
			out = append(out, line)
		}
	}
	return out
}

func (h *harness) accountID(code string) id.ID {
	return h.accounts.byCode[code].ID
}
