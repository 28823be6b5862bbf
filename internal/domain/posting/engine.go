package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/numerator"
	"saldo/internal/core/security"
	"saldo/internal/core/tenant"
	"saldo/internal/core/tx"
	"saldo/internal/core/types"
	"saldo/internal/domain/currency"
	"saldo/internal/domain/documents"
	"saldo/internal/domain/inventory"
	"saldo/internal/domain/ledger"
	"saldo/pkg/logger"
)

// Engine executes document transitions. The document row lock acquired
// by GetForUpdate is the serialization point: concurrent transitions of
// one document strictly serialize, different documents proceed
// independently and meet only on shared position rows.
type Engine struct {
	docs      documents.Repository
	journal   ledger.Repository
	positions inventory.PositionRepository
	converter *currency.Converter
	updater   *inventory.Updater
	poster    *ledger.Poster
	accounts  *AccountResolver
	policy    *documents.PolicyEngine
	numbers   numerator.Generator
	refs      ReferenceChecker
	txManager tx.Manager
	sinks     []EventSink

	sm      documents.StateMachine
	tracker documents.Tracker
}

// Config wires the engine's collaborators. Policy, Refs and Sinks are
// optional.
type Config struct {
	Documents documents.Repository
	Journal   ledger.Repository
	Positions inventory.PositionRepository
	Converter *currency.Converter
	Updater   *inventory.Updater
	Poster    *ledger.Poster
	Accounts  *AccountResolver
	Policy    *documents.PolicyEngine
	Numbers   numerator.Generator
	Refs      ReferenceChecker
	TxManager tx.Manager
	Sinks     []EventSink
}

// NewEngine creates a posting engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		docs:      cfg.Documents,
		journal:   cfg.Journal,
		positions: cfg.Positions,
		converter: cfg.Converter,
		updater:   cfg.Updater,
		poster:    cfg.Poster,
		accounts:  cfg.Accounts,
		policy:    cfg.Policy,
		numbers:   cfg.Numbers,
		refs:      cfg.Refs,
		txManager: cfg.TxManager,
		sinks:     cfg.Sinks,
	}
}

// ReceiveOptions tunes one receive call.
type ReceiveOptions struct {
	// Strict overrides the tenant's over-receipt setting. Nil keeps it.
	Strict *bool
}

// Confirm transitions a draft to confirmed, assigning the document
// number. No ledger or inventory effect.
func (e *Engine) Confirm(ctx context.Context, documentID id.ID) (*Result, error) {
	return e.Execute(ctx, documentID, documents.IntentConfirm, Payload{})
}

// Receive applies fulfillment deltas: tracker, valuation and ledger in
// one unit. Empty deltas apply the full remaining quantity of every line.
func (e *Engine) Receive(ctx context.Context, documentID id.ID, deltas []documents.LineDelta, opts *ReceiveOptions) (*Result, error) {
	payload := Payload{Deltas: deltas}
	if opts != nil {
		payload.Strict = opts.Strict
	}
	return e.Execute(ctx, documentID, documents.IntentReceive, payload)
}

// RecordPayment posts one debit/credit pair and advances the paid total.
func (e *Engine) RecordPayment(ctx context.Context, documentID id.ID, payment PaymentRequest) (*Result, error) {
	return e.Execute(ctx, documentID, documents.IntentPay, Payload{Payment: &payment})
}

// Cancel transitions draft or confirmed to cancelled. Fails when journal
// lines exist; posted documents are corrected by reversal documents.
func (e *Engine) Cancel(ctx context.Context, documentID id.ID) (*Result, error) {
	return e.Execute(ctx, documentID, documents.IntentCancel, Payload{})
}

// Execute runs one transition as one database transaction: lock the
// document, load lines, check the state machine, run the intent, commit.
// Any error rolls the whole unit back; post-commit sinks never do.
func (e *Engine) Execute(ctx context.Context, documentID id.ID, intent documents.Intent, payload Payload) (*Result, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, apperror.NewTenantScopeMissing()
	}

	var res *Result
	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := e.docs.GetForUpdate(ctx, documentID)
		if err != nil {
			return err
		}
		lines, err := e.docs.GetLines(ctx, documentID)
		if err != nil {
			return fmt.Errorf("load lines: %w", err)
		}
		doc.Lines = lines

		if err := e.sm.Check(doc, intent); err != nil {
			return err
		}

		switch intent {
		case documents.IntentConfirm:
			res, err = e.confirm(ctx, doc)
		case documents.IntentReceive:
			res, err = e.receive(ctx, scope, doc, payload)
		case documents.IntentPay:
			res, err = e.pay(ctx, doc, payload.Payment)
		case documents.IntentCancel:
			res, err = e.cancel(ctx, doc)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, res.Document, intent)

	logger.Info(ctx, "document transition executed",
		"document_id", documentID,
		"kind", res.Document.Kind,
		"intent", intent,
		"status", res.Document.Status,
		"attempt", res.Document.Attempt)

	return res, nil
}

func (e *Engine) confirm(ctx context.Context, doc *documents.Document) (*Result, error) {
	if doc.Kind == documents.KindCashReceipt {
		if !doc.Total.IsPositive() {
			return nil, apperror.NewValidation("cash receipt amount must be positive").
				WithDetail("documentId", doc.ID.String())
		}
	} else if len(doc.Lines) == 0 {
		return nil, apperror.NewValidation("cannot confirm a document without lines").
			WithDetail("documentId", doc.ID.String())
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	if e.refs != nil {
		if err := e.refs.CheckDocument(ctx, doc); err != nil {
			return nil, err
		}
	}
	if err := e.policy.CheckConfirm(ctx, doc); err != nil {
		return nil, err
	}

	// The exchange rate freezes at confirmation; a missing quotation
	// fails here, before anything is posted against the document.
	if !doc.ExchangeRate.IsPositive() {
		rate, err := e.converter.Resolve(ctx, doc.CurrencyID, doc.Date)
		if err != nil {
			return nil, err
		}
		doc.ExchangeRate = rate
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(doc.Kind.NumberPrefix())
		number, err := e.numbers.NextNumber(ctx, cfg, numerator.DefaultOptions(), doc.Date)
		if err != nil {
			return nil, fmt.Errorf("assign number: %w", err)
		}
		doc.Number = number
	}

	doc.Status = documents.StatusConfirmed
	doc.Touch()
	if err := e.docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	return &Result{Document: doc}, nil
}

func (e *Engine) receive(ctx context.Context, scope tenant.Scope, doc *documents.Document, payload Payload) (*Result, error) {
	strict := scope.Settings.StrictOverReceipt
	if payload.Strict != nil {
		strict = *payload.Strict
	}

	deltas := payload.Deltas
	if doc.Kind == documents.KindPhysicalInventory && len(deltas) > 0 {
		// Counted-vs-book deviations only make sense against one
		// consistent book snapshot, so the whole sheet applies at once.
		return nil, apperror.NewValidation("physical inventory applies all lines at once").
			WithDetail("documentId", doc.ID.String())
	}
	if len(deltas) == 0 {
		deltas = remainingDeltas(doc)
	}
	if len(deltas) == 0 {
		return nil, apperror.NewValidation("nothing to receive").
			WithDetail("documentId", doc.ID.String())
	}

	rate, err := e.documentRate(ctx, doc)
	if err != nil {
		return nil, err
	}

	lineByID := make(map[id.ID]*documents.DocumentLine, len(doc.Lines))
	for i := range doc.Lines {
		lineByID[doc.Lines[i].LineID] = &doc.Lines[i]
	}

	attempt := doc.Attempt + 1

	// Value buckets for the journal group. Receipt and sales values are
	// in the document currency; inbound/consumed are base-currency
	// amounts taken from the valuation step.
	var (
		outcomes      []LineOutcome
		changed       []*documents.DocumentLine
		receiptValue  = types.Zero()
		salesValue    = types.Zero()
		inboundValue  = types.Zero()
		consumedValue = types.Zero()
	)

	for _, delta := range deltas {
		line, ok := lineByID[delta.LineID]
		if !ok {
			return nil, apperror.NewValidation("unknown document line").
				WithDetail("lineId", delta.LineID.String())
		}
		if delta.UnitCost.IsNegative() {
			return nil, apperror.NewValidation("unit cost must not be negative").
				WithDetail("lineId", delta.LineID.String())
		}

		step, err := e.tracker.Apply(line, delta.Quantity, strict)
		if err != nil {
			return nil, err
		}

		out := LineOutcome{
			LineID:    line.LineID,
			Requested: delta.Quantity,
			Applied:   step.Applied,
			Capped:    step.Capped,
			Fulfilled: step.NewFulfilled,
		}
		if step.Applied.IsZero() {
			outcomes = append(outcomes, out)
			continue
		}
		changed = append(changed, line)

		unitPrice := line.UnitPrice
		if delta.UnitCost.IsPositive() {
			unitPrice = delta.UnitCost
		}

		switch doc.Kind {
		case documents.KindPurchaseOrder:
			mv, err := e.applyMovement(ctx, doc, line, step.Applied, types.RoundCost(unitPrice.Mul(rate)), attempt)
			if err != nil {
				return nil, err
			}
			out.Clamped, out.ClampedBy = mv.Clamped, mv.ClampedBy
			receiptValue = receiptValue.Add(types.RoundAmount(step.Applied.Decimal().Mul(unitPrice)))

		case documents.KindSalesInvoice:
			mv, err := e.applyMovement(ctx, doc, line, step.Applied.Neg(), types.Zero(), attempt)
			if err != nil {
				return nil, err
			}
			out.Clamped, out.ClampedBy = mv.Clamped, mv.ClampedBy
			consumedValue = consumedValue.Add(mv.ConsumedValue)
			salesValue = salesValue.Add(types.RoundAmount(step.Applied.Decimal().Mul(line.UnitPrice)))

		case documents.KindStockAdjustment:
			qty := step.Applied
			cost := types.Zero()
			if line.Direction == documents.DirectionOut {
				qty = qty.Neg()
			} else {
				cost = types.RoundCost(unitPrice.Mul(rate))
			}
			mv, err := e.applyMovement(ctx, doc, line, qty, cost, attempt)
			if err != nil {
				return nil, err
			}
			out.Clamped, out.ClampedBy = mv.Clamped, mv.ClampedBy
			if qty.IsPositive() {
				inboundValue = inboundValue.Add(mv.Movement.Value)
			} else {
				consumedValue = consumedValue.Add(mv.ConsumedValue)
			}

		case documents.KindPhysicalInventory:
			book := types.Quantity(0)
			avg := types.Zero()
			pos, err := e.positions.Get(ctx, line.ProductID, doc.StoreID)
			switch {
			case err == nil:
				book, avg = pos.Quantity, pos.AvgCost
			case apperror.IsCode(err, apperror.CodeNotFound):
				// no position yet: book quantity is zero
			default:
				return nil, err
			}

			deviation := line.Ordered - book
			if deviation.IsZero() {
				break
			}
			cost := types.Zero()
			if deviation.IsPositive() {
				// Surplus enters at the line price when given, otherwise
				// at the current average so the cost does not move.
				cost = avg
				if line.UnitPrice.IsPositive() {
					cost = types.RoundCost(line.UnitPrice.Mul(rate))
				}
			}
			mv, err := e.applyMovement(ctx, doc, line, deviation, cost, attempt)
			if err != nil {
				return nil, err
			}
			if deviation.IsPositive() {
				inboundValue = inboundValue.Add(mv.Movement.Value)
			} else {
				consumedValue = consumedValue.Add(mv.ConsumedValue)
			}
		}

		outcomes = append(outcomes, out)
	}

	if len(changed) == 0 {
		return &Result{Document: doc, Lines: outcomes}, nil
	}

	entries, err := e.receiveEntries(ctx, doc.Kind, rate, receiptValue, salesValue, inboundValue, consumedValue)
	if err != nil {
		return nil, err
	}

	for _, line := range changed {
		if err := e.docs.UpdateLineFulfillment(ctx, line); err != nil {
			return nil, fmt.Errorf("update line fulfillment: %w", err)
		}
	}

	var journalLines []*ledger.JournalLine
	if len(entries) > 0 {
		journalLines, err = e.poster.Post(ctx, ledger.PostingInput{
			Reference:  doc.Number,
			DocumentID: doc.ID,
			Attempt:    attempt,
			Date:       doc.Date,
			Lines:      entries,
		})
		if err != nil {
			return nil, err
		}
	}

	doc.Attempt = attempt
	doc.Status = e.tracker.DeriveStatus(doc)
	doc.Touch()
	if err := e.docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	return &Result{Document: doc, Lines: outcomes, Journal: journalLines}, nil
}

// receiveEntries builds the balanced journal group for one receive.
func (e *Engine) receiveEntries(ctx context.Context, kind documents.Kind, rate decimal.Decimal, receiptValue, salesValue, inboundValue, consumedValue types.Money) ([]ledger.EntryLine, error) {
	var entries []ledger.EntryLine
	one := decimal.NewFromInt(1)

	resolved := make(map[Role]id.ID)
	account := func(role Role) (id.ID, error) {
		if accID, ok := resolved[role]; ok {
			return accID, nil
		}
		acc, err := e.accounts.Resolve(ctx, role)
		if err != nil {
			return id.Nil(), err
		}
		resolved[role] = acc.ID
		return acc.ID, nil
	}

	pair := func(drRole, crRole Role, amount types.Money, lineRate decimal.Decimal) error {
		if !amount.IsPositive() {
			return nil
		}
		dr, err := account(drRole)
		if err != nil {
			return err
		}
		cr, err := account(crRole)
		if err != nil {
			return err
		}
		entries = append(entries,
			ledger.EntryLine{AccountID: dr, Side: ledger.Debit, Amount: amount, Rate: lineRate},
			ledger.EntryLine{AccountID: cr, Side: ledger.Credit, Amount: amount, Rate: lineRate},
		)
		return nil
	}

	switch kind {
	case documents.KindPurchaseOrder:
		if err := pair(RoleInventory, RolePayable, receiptValue, rate); err != nil {
			return nil, err
		}
	case documents.KindSalesInvoice:
		if err := pair(RoleCOGS, RoleInventory, consumedValue, one); err != nil {
			return nil, err
		}
		if err := pair(RoleReceivable, RoleRevenue, salesValue, rate); err != nil {
			return nil, err
		}
	case documents.KindStockAdjustment, documents.KindPhysicalInventory:
		if err := pair(RoleInventory, RoleAdjustment, inboundValue, one); err != nil {
			return nil, err
		}
		if err := pair(RoleAdjustment, RoleInventory, consumedValue, one); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func (e *Engine) applyMovement(ctx context.Context, doc *documents.Document, line *documents.DocumentLine, quantity types.Quantity, unitCost types.Money, attempt int) (*inventory.MovementResult, error) {
	return e.updater.ApplyMovement(ctx, inventory.MovementInput{
		ProductID:      line.ProductID,
		StoreID:        doc.StoreID,
		Quantity:       quantity,
		UnitCost:       unitCost,
		RecorderID:     doc.ID,
		RecorderKind:   string(doc.Kind),
		RecorderLineID: line.LineID,
		Attempt:        attempt,
		Period:         doc.Date,
	})
}

func (e *Engine) pay(ctx context.Context, doc *documents.Document, payment *PaymentRequest) (*Result, error) {
	if payment == nil {
		return nil, apperror.NewValidation("payment details are required")
	}
	if !payment.Amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").
			WithDetail("amount", payment.Amount.String())
	}
	if payment.Amount.GreaterThan(doc.Balance()) {
		return nil, apperror.NewValidation("payment exceeds document balance").
			WithDetail("amount", payment.Amount.String()).
			WithDetail("balance", doc.Balance().String())
	}

	currencyID := payment.CurrencyID
	if id.IsNil(currencyID) {
		currencyID = doc.CurrencyID
	}
	payDate := payment.Date
	if payDate.IsZero() {
		payDate = doc.Date
	}

	var rate decimal.Decimal
	if currencyID == doc.CurrencyID && doc.ExchangeRate.IsPositive() {
		rate = doc.ExchangeRate
	} else {
		var err error
		rate, err = e.converter.Resolve(ctx, currencyID, payDate)
		if err != nil {
			return nil, err
		}
	}

	paymentAccount := payment.PaymentAccountID
	if id.IsNil(paymentAccount) {
		acc, err := e.accounts.Resolve(ctx, RoleCash)
		if err != nil {
			return nil, err
		}
		paymentAccount = acc.ID
	}
	counterpartAccount := payment.CounterpartAccountID
	if id.IsNil(counterpartAccount) {
		role := RoleReceivable
		if doc.Kind == documents.KindPurchaseOrder {
			role = RolePayable
		}
		acc, err := e.accounts.Resolve(ctx, role)
		if err != nil {
			return nil, err
		}
		counterpartAccount = acc.ID
	}

	// Outgoing settlement debits the payable; incoming debits cash.
	debit, credit := paymentAccount, counterpartAccount
	if doc.Kind == documents.KindPurchaseOrder {
		debit, credit = counterpartAccount, paymentAccount
	}

	doc.Attempt++
	journalLines, err := e.poster.Post(ctx, ledger.PostingInput{
		Reference:  doc.Number,
		DocumentID: doc.ID,
		Attempt:    doc.Attempt,
		Date:       payDate,
		Lines: []ledger.EntryLine{
			{AccountID: debit, Side: ledger.Debit, Amount: payment.Amount, Rate: rate},
			{AccountID: credit, Side: ledger.Credit, Amount: payment.Amount, Rate: rate},
		},
	})
	if err != nil {
		return nil, err
	}

	doc.PaidTotal = doc.PaidTotal.Add(payment.Amount)
	if doc.Kind == documents.KindCashReceipt && !doc.Balance().IsPositive() {
		doc.Status = documents.StatusFulfilled
	}
	doc.Touch()
	if err := e.docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	return &Result{Document: doc, Journal: journalLines}, nil
}

func (e *Engine) cancel(ctx context.Context, doc *documents.Document) (*Result, error) {
	posted, err := e.journal.ExistsForDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if posted {
		return nil, apperror.NewInvalidTransition(string(doc.Kind), string(doc.Status), string(documents.IntentCancel)).
			WithDetail("reason", "journal lines exist; post a reversal document instead")
	}

	doc.Status = documents.StatusCancelled
	doc.Touch()
	if err := e.docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	return &Result{Document: doc}, nil
}

// documentRate returns the rate frozen at confirmation, resolving from
// the history only for documents confirmed before rates were recorded.
func (e *Engine) documentRate(ctx context.Context, doc *documents.Document) (decimal.Decimal, error) {
	if doc.ExchangeRate.IsPositive() {
		return doc.ExchangeRate, nil
	}
	return e.converter.Resolve(ctx, doc.CurrencyID, doc.Date)
}

func (e *Engine) emit(ctx context.Context, doc *documents.Document, intent documents.Intent) {
	if len(e.sinks) == 0 {
		return
	}
	ev := TransitionEvent{
		TenantID:   doc.TenantID,
		DocumentID: doc.ID,
		Kind:       doc.Kind,
		Number:     doc.Number,
		Intent:     intent,
		Status:     doc.Status,
		Attempt:    doc.Attempt,
		UserID:     security.GetUserID(ctx),
		OccurredAt: time.Now().UTC(),
	}
	for _, sink := range e.sinks {
		if err := sink.Record(ctx, ev); err != nil {
			logger.Warn(ctx, "transition event sink failed",
				"document_id", doc.ID,
				"error", err)
		}
	}
}

func remainingDeltas(doc *documents.Document) []documents.LineDelta {
	var deltas []documents.LineDelta
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.Complete() {
			continue
		}
		deltas = append(deltas, documents.LineDelta{
			LineID:   line.LineID,
			Quantity: line.Remaining(),
		})
	}
	return deltas
}
