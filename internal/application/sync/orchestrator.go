package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	loyaltyapp "github.com/loyalty/backend/internal/application/loyalty"
	"github.com/loyalty/backend/internal/domain/catalog"
	"github.com/loyalty/backend/internal/domain/partner"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/domain/trade"
	"github.com/loyalty/backend/internal/domain/wawi"
	"github.com/loyalty/backend/internal/infrastructure/config"
)

// wawiDatetimeLayout is the datetime format of WAWI search domains
const wawiDatetimeLayout = "2006-01-02 15:04:05"

// maxRecordedErrors caps the per-run error list
const maxRecordedErrors = 100

// Orchestrator drives the cascading WAWI sync: customers first, then
// their orders with line items, resolving the referenced products and
// product attributes on demand. At most one run is active at a time.
type Orchestrator struct {
	client       wawi.SearchClient
	customerRepo partner.CustomerRepository
	orderRepo    trade.SalesOrderRepository
	productRepo  catalog.ProductRepository
	attrRepo     catalog.ProductAttributeRepository
	accrual      *loyaltyapp.AccrualService
	cfg          *config.SyncConfig
	logger       *zap.Logger

	mu            sync.Mutex
	running       bool
	status        RunStatus
	consecAuth    int
	cooldownUntil time.Time

	// per-run lookup caches, reset at run start
	customerCache map[int64]uuid.UUID
	productCache  map[int64]uuid.UUID
	attrCache     map[int64]uuid.UUID
	valueCache    map[int64]uuid.UUID
}

// NewOrchestrator creates a sync orchestrator
func NewOrchestrator(
	client wawi.SearchClient,
	customerRepo partner.CustomerRepository,
	orderRepo trade.SalesOrderRepository,
	productRepo catalog.ProductRepository,
	attrRepo catalog.ProductAttributeRepository,
	accrual *loyaltyapp.AccrualService,
	cfg *config.SyncConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		client:       client,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		attrRepo:     attrRepo,
		accrual:      accrual,
		cfg:          cfg,
		logger:       logger.Named("sync"),
	}
}

// Status returns a snapshot of the orchestrator state
func (o *Orchestrator) Status() RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	snapshot := o.status
	snapshot.Errors = append([]SyncError(nil), o.status.Errors...)
	if !o.cooldownUntil.IsZero() && time.Now().Before(o.cooldownUntil) {
		until := o.cooldownUntil
		snapshot.CooldownUntil = &until
	}
	return snapshot
}

// RunFullSync mirrors the complete WAWI dataset: every customer, every
// order with its lines, and the referenced products and attributes.
func (o *Orchestrator) RunFullSync(ctx context.Context) error {
	return o.run(ctx, ModeFull, time.Time{})
}

// RunIncrementalSync mirrors records modified within the configured
// look-back window.
func (o *Orchestrator) RunIncrementalSync(ctx context.Context) error {
	since := time.Now().Add(-time.Duration(o.cfg.IncrementalHoursBack) * time.Hour)
	return o.run(ctx, ModeIncremental, since)
}

// StartFullSync claims the exclusion flag and runs a full sync in the
// background. It returns immediately with ErrSyncAlreadyRunning or
// ErrAuthCooldown when the run cannot start.
func (o *Orchestrator) StartFullSync() error {
	return o.startAsync(ModeFull, time.Time{})
}

// StartIncrementalSync claims the exclusion flag and runs an incremental
// sync in the background.
func (o *Orchestrator) StartIncrementalSync() error {
	since := time.Now().Add(-time.Duration(o.cfg.IncrementalHoursBack) * time.Hour)
	return o.startAsync(ModeIncremental, since)
}

// startAsync claims the flag synchronously so callers get the rejection
// immediately, then executes detached from the caller's request context.
func (o *Orchestrator) startAsync(mode Mode, since time.Time) error {
	if err := o.tryStart(mode); err != nil {
		return err
	}
	go func() {
		defer o.finish()
		o.execute(context.Background(), mode, since)
	}()
	return nil
}

// SyncCustomer mirrors a single WAWI customer and all of their orders
func (o *Orchestrator) SyncCustomer(ctx context.Context, customerWawiID int64) error {
	if err := o.tryStart(ModeCustomer); err != nil {
		return err
	}
	defer o.finish()

	o.setStep("customer")
	recs, err := o.search(ctx, wawi.ModelCustomer, wawi.Query{
		Fields: customerFields,
		Domain: []wawi.Condition{wawi.Cond("id", "=", customerWawiID)},
		Limit:  1,
	})
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("sync: customer %d not found upstream: %w", customerWawiID, shared.ErrNotFound)
	}

	customerID, err := o.upsertCustomer(ctx, recs[0])
	if err != nil {
		return err
	}
	o.bump(func(p *Progress) { p.Customers++ })

	o.setStep("orders")
	return o.syncOrdersPage(ctx, []wawi.Condition{wawi.Cond("partner_id", "=", customerWawiID)}, customerID)
}

// run executes a full or incremental cascade under the exclusion flag
func (o *Orchestrator) run(ctx context.Context, mode Mode, since time.Time) error {
	if err := o.tryStart(mode); err != nil {
		return err
	}
	defer o.finish()

	return o.execute(ctx, mode, since)
}

// execute performs the cascade. The exclusion flag must already be held.
func (o *Orchestrator) execute(ctx context.Context, mode Mode, since time.Time) error {
	started := time.Now()
	o.logger.Info("Sync run started", zap.String("mode", string(mode)))

	if err := o.syncCustomers(ctx, since); err != nil {
		o.logger.Error("Sync run aborted", zap.String("step", "customers"), zap.Error(err))
		return err
	}
	if err := o.syncOrders(ctx, since); err != nil {
		o.logger.Error("Sync run aborted", zap.String("step", "orders"), zap.Error(err))
		return err
	}

	status := o.Status()
	o.logger.Info("Sync run finished",
		zap.String("mode", string(mode)),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("customers", status.Progress.Customers),
		zap.Int("orders", status.Progress.Orders),
		zap.Int("order_lines", status.Progress.OrderLines),
		zap.Int("products", status.Progress.Products),
		zap.Int("discount_groups", status.Progress.DiscountGroups),
		zap.Int("errors", len(status.Errors)),
	)
	return nil
}

// syncCustomers pages through upstream customers and upserts them
func (o *Orchestrator) syncCustomers(ctx context.Context, since time.Time) error {
	o.setStep("customers")

	var domain []wawi.Condition
	if !since.IsZero() {
		domain = append(domain, wawi.Cond("write_date", ">=", since.UTC().Format(wawiDatetimeLayout)))
	}

	for offset := 0; ; offset += o.cfg.BatchSize {
		recs, err := o.search(ctx, wawi.ModelCustomer, wawi.Query{
			Fields: customerFields,
			Domain: domain,
			Limit:  o.cfg.BatchSize,
			Offset: offset,
			Order:  "id asc",
		})
		if err != nil {
			return err
		}

		for _, rec := range recs {
			if _, err := o.upsertCustomer(ctx, rec); err != nil {
				if abort := o.recordError("customer", rec.Int64("id"), err); abort != nil {
					return abort
				}
				continue
			}
			o.bump(func(p *Progress) { p.Customers++ })
		}

		if len(recs) < o.cfg.BatchSize {
			return nil
		}
	}
}

// syncOrders pages through upstream orders, cascading into lines,
// products and attributes per order.
func (o *Orchestrator) syncOrders(ctx context.Context, since time.Time) error {
	o.setStep("orders")

	var domain []wawi.Condition
	if !since.IsZero() {
		domain = append(domain, wawi.Cond("write_date", ">=", since.UTC().Format(wawiDatetimeLayout)))
	}
	return o.syncOrdersPage(ctx, domain, uuid.Nil)
}

// syncOrdersPage pages through orders matching the domain. A non-nil
// knownCustomer skips the per-order customer resolution.
func (o *Orchestrator) syncOrdersPage(ctx context.Context, domain []wawi.Condition, knownCustomer uuid.UUID) error {
	for offset := 0; ; offset += o.cfg.BatchSize {
		recs, err := o.search(ctx, wawi.ModelOrder, wawi.Query{
			Fields: orderFields,
			Domain: domain,
			Limit:  o.cfg.BatchSize,
			Offset: offset,
			Order:  "id asc",
		})
		if err != nil {
			return err
		}

		for _, rec := range recs {
			if err := o.syncOneOrder(ctx, rec, knownCustomer); err != nil {
				if abort := o.recordError("order", rec.Int64("id"), err); abort != nil {
					return abort
				}
				continue
			}
			o.bump(func(p *Progress) { p.Orders++ })
		}

		if len(recs) < o.cfg.BatchSize {
			return nil
		}
	}
}

// syncOneOrder upserts a single order with its lines and feeds the
// accrual engine when the resulting order qualifies.
func (o *Orchestrator) syncOneOrder(ctx context.Context, rec wawi.Record, knownCustomer uuid.UUID) error {
	data, err := MapOrder(rec)
	if err != nil {
		return err
	}

	customerID := knownCustomer
	if customerID == uuid.Nil {
		customerID, err = o.resolveCustomer(ctx, data.CustomerWawiID)
		if err != nil {
			return fmt.Errorf("resolve customer %d: %w", data.CustomerWawiID, err)
		}
	}

	order, err := o.orderRepo.FindByWawiID(ctx, data.WawiID)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		order, err = trade.NewWawiSalesOrder(data.WawiID, customerID, data.Number, data.OrderDate)
		if err != nil {
			return err
		}
	default:
		return err
	}

	order.Number = data.Number
	order.CustomerID = customerID
	order.Currency = data.Currency
	order.OrderDate = data.OrderDate
	if err := order.SetState(data.State); err != nil {
		return err
	}

	items, err := o.syncOrderLines(ctx, data.WawiID, order)
	if err != nil {
		return err
	}
	order.ReplaceItems(items)
	if data.AmountTotal.IsPositive() {
		// WAWI totals are authoritative when present
		order.SetTotals(data.AmountUntaxed, data.AmountTotal)
	}
	order.MarkSynced(time.Now())

	if err := o.orderRepo.Save(ctx, order); err != nil {
		return err
	}

	if order.AccrualEligible() {
		result, err := o.accrual.Enqueue(ctx, order.CustomerID, order.ID)
		if err != nil {
			return fmt.Errorf("enqueue order %s: %w", order.ID, err)
		}
		if result.Group != nil {
			o.bump(func(p *Progress) { p.DiscountGroups++ })
		}
	}
	return nil
}

// syncOrderLines fetches the upstream lines of an order and maps them to
// local items, resolving referenced products on the way. Existing local
// line identities are kept so re-syncs do not churn row ids.
func (o *Orchestrator) syncOrderLines(ctx context.Context, orderWawiID int64, order *trade.SalesOrder) ([]trade.SalesOrderItem, error) {
	recs, err := o.search(ctx, wawi.ModelOrderLine, wawi.Query{
		Fields: lineFields,
		Domain: []wawi.Condition{wawi.Cond("order_id", "=", orderWawiID)},
		Order:  "id asc",
	})
	if err != nil {
		return nil, err
	}

	existing := make(map[int64]trade.SalesOrderItem, len(order.Items))
	for _, item := range order.Items {
		if item.WawiLineID != nil {
			existing[*item.WawiLineID] = item
		}
	}

	items := make([]trade.SalesOrderItem, 0, len(recs))
	for _, rec := range recs {
		data, err := MapOrderLine(rec)
		if err != nil {
			if abort := o.recordError("order_line", rec.Int64("id"), err); abort != nil {
				return nil, abort
			}
			continue
		}

		var productID *uuid.UUID
		if data.ProductWawiID > 0 {
			id, err := o.resolveProduct(ctx, data.ProductWawiID)
			if err != nil {
				if abort := o.recordError("product", data.ProductWawiID, err); abort != nil {
					return nil, abort
				}
				// The line is kept without a product reference
			} else {
				productID = &id
			}
		}

		item, ok := existing[data.WawiLineID]
		if !ok {
			lineID := data.WawiLineID
			item = trade.SalesOrderItem{
				BaseEntity: shared.NewBaseEntity(),
				WawiLineID: &lineID,
			}
		}
		item.ProductID = productID
		item.Name = data.Name
		item.Quantity = data.Quantity
		item.UnitPrice = data.UnitPrice
		item.DiscountPercent = data.DiscountPercent
		item.SubtotalExcl = data.SubtotalExcl
		item.SubtotalIncl = data.SubtotalIncl
		item.DiscountEligible = data.DiscountEligible
		items = append(items, item)

		o.bump(func(p *Progress) { p.OrderLines++ })
	}
	return items, nil
}

// upsertCustomer creates or updates the local mirror of a customer record
func (o *Orchestrator) upsertCustomer(ctx context.Context, rec wawi.Record) (uuid.UUID, error) {
	data, err := MapCustomer(rec)
	if err != nil {
		return uuid.Nil, err
	}

	customer, err := o.customerRepo.FindByWawiID(ctx, data.WawiID)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		// A locally created customer with the same code is linked instead
		// of duplicated
		customer, err = o.customerRepo.FindByCode(ctx, data.Code)
		switch {
		case err == nil:
			if err := customer.LinkWawiID(data.WawiID); err != nil {
				return uuid.Nil, err
			}
		case errors.Is(err, shared.ErrNotFound):
			customer, err = partner.NewWawiCustomer(data.WawiID, data.Code, data.Name)
			if err != nil {
				return uuid.Nil, err
			}
		default:
			return uuid.Nil, err
		}
	default:
		return uuid.Nil, err
	}

	if err := customer.Update(data.Name); err != nil {
		return uuid.Nil, err
	}
	if err := customer.SetContact("", data.Phone, data.Email); err != nil {
		// Contact details are best-effort; a malformed upstream email must
		// not block the customer mirror
		o.logger.Debug("Skipped invalid contact data",
			zap.Int64("wawi_id", data.WawiID), zap.Error(err))
	}
	customer.SetAddress(data.Street, data.City, data.PostalCode, data.Country)
	customer.MarkSynced(time.Now())

	if err := o.customerRepo.Save(ctx, customer); err != nil {
		return uuid.Nil, err
	}
	o.cacheCustomer(data.WawiID, customer.ID)
	return customer.ID, nil
}

// resolveCustomer returns the local id for a WAWI customer, fetching the
// record on demand when it is not mirrored yet.
func (o *Orchestrator) resolveCustomer(ctx context.Context, wawiID int64) (uuid.UUID, error) {
	if id, ok := o.cachedCustomer(wawiID); ok {
		return id, nil
	}

	customer, err := o.customerRepo.FindByWawiID(ctx, wawiID)
	if err == nil {
		o.cacheCustomer(wawiID, customer.ID)
		return customer.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}

	recs, err := o.search(ctx, wawi.ModelCustomer, wawi.Query{
		Fields: customerFields,
		Domain: []wawi.Condition{wawi.Cond("id", "=", wawiID)},
		Limit:  1,
	})
	if err != nil {
		return uuid.Nil, err
	}
	if len(recs) == 0 {
		return uuid.Nil, shared.ErrNotFound
	}
	id, err := o.upsertCustomer(ctx, recs[0])
	if err != nil {
		return uuid.Nil, err
	}
	o.bump(func(p *Progress) { p.Customers++ })
	return id, nil
}

// resolveProduct returns the local id for a WAWI product, fetching it
// upstream when missing or stale. Fresh mirrors are not re-fetched.
func (o *Orchestrator) resolveProduct(ctx context.Context, wawiID int64) (uuid.UUID, error) {
	o.mu.Lock()
	if id, ok := o.productCache[wawiID]; ok {
		o.mu.Unlock()
		return id, nil
	}
	o.mu.Unlock()

	product, err := o.productRepo.FindByWawiID(ctx, wawiID)
	if err == nil && product.SyncedWithin(o.cfg.ProductFreshnessWindow, time.Now()) {
		o.cacheProduct(wawiID, product.ID)
		return product.ID, nil
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}

	recs, err := o.search(ctx, wawi.ModelProduct, wawi.Query{
		Fields: productFields,
		Domain: []wawi.Condition{wawi.Cond("id", "=", wawiID)},
		Limit:  1,
	})
	if err != nil {
		return uuid.Nil, err
	}
	if len(recs) == 0 {
		if product != nil {
			// Stale mirror of a product that vanished upstream stays usable
			o.cacheProduct(wawiID, product.ID)
			return product.ID, nil
		}
		return uuid.Nil, shared.ErrNotFound
	}

	data, err := MapProduct(recs[0])
	if err != nil {
		return uuid.Nil, err
	}

	if product == nil {
		product, err = catalog.NewProduct(data.WawiID, data.Name)
		if err != nil {
			return uuid.Nil, err
		}
	}
	if err := product.ApplyUpdate(data.Name, data.DefaultCode, data.ListPrice, data.Active); err != nil {
		return uuid.Nil, err
	}

	values := make([]catalog.ProductAttributeValue, 0, len(data.AttributeValueIDs))
	for _, valueWawiID := range data.AttributeValueIDs {
		value, err := o.resolveAttributeValue(ctx, valueWawiID)
		if err != nil {
			if abort := o.recordError("attribute_value", valueWawiID, err); abort != nil {
				return uuid.Nil, abort
			}
			continue
		}
		values = append(values, *value)
	}
	product.AttributeValues = values
	product.MarkSynced(time.Now())

	if err := o.productRepo.Save(ctx, product); err != nil {
		return uuid.Nil, err
	}
	o.cacheProduct(wawiID, product.ID)
	o.bump(func(p *Progress) { p.Products++ })
	return product.ID, nil
}

// resolveAttributeValue mirrors an attribute value and its parent
// attribute on demand.
func (o *Orchestrator) resolveAttributeValue(ctx context.Context, wawiID int64) (*catalog.ProductAttributeValue, error) {
	o.mu.Lock()
	_, cached := o.valueCache[wawiID]
	o.mu.Unlock()
	if cached {
		return o.attrRepo.FindValueByWawiID(ctx, wawiID)
	}

	recs, err := o.search(ctx, wawi.ModelAttributeValue, wawi.Query{
		Fields: valueFields,
		Domain: []wawi.Condition{wawi.Cond("id", "=", wawiID)},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		value, err := o.attrRepo.FindValueByWawiID(ctx, wawiID)
		if err != nil {
			return nil, shared.ErrNotFound
		}
		return value, nil
	}

	data, err := MapAttributeValue(recs[0])
	if err != nil {
		return nil, err
	}

	attributeID, err := o.resolveAttribute(ctx, data.AttributeWawiID)
	if err != nil {
		return nil, err
	}

	value, err := o.attrRepo.FindValueByWawiID(ctx, wawiID)
	switch {
	case err == nil:
		value.Name = data.Name
		value.AttributeID = attributeID
	case errors.Is(err, shared.ErrNotFound):
		value, err = catalog.NewProductAttributeValue(data.WawiID, attributeID, data.Name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := o.attrRepo.SaveValue(ctx, value); err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.valueCache[wawiID] = value.ID
	o.mu.Unlock()
	return value, nil
}

// resolveAttribute mirrors a variant attribute on demand
func (o *Orchestrator) resolveAttribute(ctx context.Context, wawiID int64) (uuid.UUID, error) {
	o.mu.Lock()
	if id, ok := o.attrCache[wawiID]; ok {
		o.mu.Unlock()
		return id, nil
	}
	o.mu.Unlock()

	attribute, err := o.attrRepo.FindAttributeByWawiID(ctx, wawiID)
	if err == nil {
		o.mu.Lock()
		o.attrCache[wawiID] = attribute.ID
		o.mu.Unlock()
		return attribute.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}

	recs, err := o.search(ctx, wawi.ModelAttribute, wawi.Query{
		Fields: attrFields,
		Domain: []wawi.Condition{wawi.Cond("id", "=", wawiID)},
		Limit:  1,
	})
	if err != nil {
		return uuid.Nil, err
	}
	if len(recs) == 0 {
		return uuid.Nil, shared.ErrNotFound
	}

	data, err := MapAttribute(recs[0])
	if err != nil {
		return uuid.Nil, err
	}
	attribute, err = catalog.NewProductAttribute(data.WawiID, data.Name)
	if err != nil {
		return uuid.Nil, err
	}
	if err := o.attrRepo.SaveAttribute(ctx, attribute); err != nil {
		return uuid.Nil, err
	}

	o.mu.Lock()
	o.attrCache[wawiID] = attribute.ID
	o.mu.Unlock()
	o.bump(func(p *Progress) { p.Attributes++ })
	return attribute.ID, nil
}

// search wraps the WAWI client with the consecutive auth failure
// counter. Hitting the threshold pauses the running sync for the
// configured cooldown and retries the query once; a failure after the
// pause is reported to the caller like any other upstream error, so
// the run moves on to the next record. The cooldown window also blocks
// new runs from starting until it elapses.
func (o *Orchestrator) search(ctx context.Context, model string, query wawi.Query) ([]wawi.Record, error) {
	retried := false
	for {
		recs, err := o.client.SearchRead(ctx, model, query)
		if err == nil {
			o.mu.Lock()
			o.consecAuth = 0
			o.mu.Unlock()
			return recs, nil
		}
		if !errors.Is(err, wawi.ErrAuthFailed) {
			return nil, err
		}

		o.mu.Lock()
		o.consecAuth++
		tripped := o.consecAuth >= o.cfg.AuthErrorThreshold
		if tripped {
			o.cooldownUntil = time.Now().Add(o.cfg.AuthErrorCooldown)
			o.consecAuth = 0
		}
		o.mu.Unlock()

		if !tripped || retried {
			return nil, err
		}

		o.logger.Warn("Too many consecutive auth failures, pausing sync",
			zap.Duration("cooldown", o.cfg.AuthErrorCooldown))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.cfg.AuthErrorCooldown):
		}
		retried = true
	}
}

// tryStart claims the exclusion flag and resets the run state
func (o *Orchestrator) tryStart(mode Mode) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return ErrSyncAlreadyRunning
	}
	if time.Now().Before(o.cooldownUntil) {
		return ErrAuthCooldown
	}

	now := time.Now()
	o.running = true
	o.status = RunStatus{
		IsRunning: true,
		Mode:      mode,
		StartedAt: &now,
	}
	o.customerCache = make(map[int64]uuid.UUID)
	o.productCache = make(map[int64]uuid.UUID)
	o.attrCache = make(map[int64]uuid.UUID)
	o.valueCache = make(map[int64]uuid.UUID)
	return nil
}

// finish releases the exclusion flag
func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	o.running = false
	o.status.IsRunning = false
	o.status.CurrentStep = ""
	o.status.FinishedAt = &now
}

// recordError appends a per-entity failure to the run status. The
// returned error is non-nil only when the run must abort.
func (o *Orchestrator) recordError(entity string, wawiID int64, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	o.mu.Lock()
	if len(o.status.Errors) < maxRecordedErrors {
		o.status.Errors = append(o.status.Errors, SyncError{
			Entity:     entity,
			WawiID:     wawiID,
			Message:    err.Error(),
			OccurredAt: time.Now(),
		})
	}
	o.mu.Unlock()

	o.logger.Warn("Sync record failed",
		zap.String("entity", entity),
		zap.Int64("wawi_id", wawiID),
		zap.Error(err),
	)
	return nil
}

func (o *Orchestrator) setStep(step string) {
	o.mu.Lock()
	o.status.CurrentStep = step
	o.mu.Unlock()
}

func (o *Orchestrator) bump(fn func(*Progress)) {
	o.mu.Lock()
	fn(&o.status.Progress)
	o.mu.Unlock()
}

func (o *Orchestrator) cacheCustomer(wawiID int64, id uuid.UUID) {
	o.mu.Lock()
	o.customerCache[wawiID] = id
	o.mu.Unlock()
}

func (o *Orchestrator) cachedCustomer(wawiID int64) (uuid.UUID, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id, ok := o.customerCache[wawiID]
	return id, ok
}

func (o *Orchestrator) cacheProduct(wawiID int64, id uuid.UUID) {
	o.mu.Lock()
	o.productCache[wawiID] = id
	o.mu.Unlock()
}
