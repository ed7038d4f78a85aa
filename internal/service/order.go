package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/cravewave/api/internal/billing"
	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/enum"
	"github.com/cravewave/api/internal/events"
	"github.com/cravewave/api/internal/metrics"
	"github.com/cravewave/api/internal/ws"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems         = errors.New("items are required")
	ErrInvalidOrderType   = errors.New("invalid order_type")
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID  = errors.New("invalid menu_item_id")
	ErrMenuItemNotFound   = errors.New("menu item not found in restaurant")
	ErrMenuItemOffMenu    = errors.New("menu item is not available")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrInvalidDiscount    = errors.New("invalid discount")
	ErrInvalidDeliveryFee = errors.New("invalid delivery_fee")
	ErrNoTargets          = errors.New("at least one target restaurant is required")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAlreadyPaid        = errors.New("order is already paid")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create and mutate orders.
// Satisfied by *database.Queries (and its transaction-scoped variant).
type OrderStore interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	GetNextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error)
	DeleteOrder(ctx context.Context, arg database.DeleteOrderParams) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// Broadcaster pushes live events to the order board. Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToRestaurant(restaurantID uuid.UUID, event ws.Event)
}

// PlaceOrderRequest is the validated input for creating an order.
type PlaceOrderRequest struct {
	RestaurantID  uuid.UUID
	CreatedBy     uuid.UUID // uuid.Nil for storefront orders
	Source        string    // ONLINE or POS
	OrderType     string
	PaymentMethod string
	CustomerName  string
	CustomerPhone string
	TableNo       string
	Discount      string // POS only; storefront carries no discount
	DeliveryFee   string // optional override; "" uses the restaurant default
	Items         []PlaceOrderItem
}

// PlaceOrderItem is a single requested line. Unit prices always come from the
// menu, never from the client.
type PlaceOrderItem struct {
	MenuItemID string
	Quantity   int32
}

// PlaceOrderResult is the created order with its item snapshot.
type PlaceOrderResult struct {
	Order database.Order
	Items []database.OrderItem
	Bill  billing.Bill
}

// PlacementResult is the outcome for one target of a multi-restaurant
// placement.
type PlacementResult struct {
	RestaurantID uuid.UUID
	Result       *PlaceOrderResult
	Err          error
}

// OrderService handles order business logic.
type OrderService struct {
	pool      TxBeginner
	store     OrderStore // pool-backed, for single-statement mutations
	newStore  NewOrderStore
	hub       Broadcaster
	publisher events.Publisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore, hub Broadcaster, publisher events.Publisher) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore, hub: hub, publisher: publisher}
}

// preparedOrder holds validated, priced order data ready for insertion.
type preparedOrder struct {
	items []database.CreateOrderItemParams
	bill  billing.Bill
}

// PlaceOrder validates, prices, and creates an order atomically. The write is
// fire-and-once: there is no retry on store failure and no idempotency key;
// the caller keeps its cart and may resubmit manually. Order-number conflicts
// (concurrent transactions racing on MAX) are the one retried condition.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if _, err := billing.ParseMode(req.OrderType); err != nil {
		return nil, ErrInvalidOrderType
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.placeOrderTx(ctx, req)
		if err == nil {
			s.announceCreated(ctx, result)
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		metrics.OrderFailures.Inc()
		return nil, err
	}
	metrics.OrderFailures.Inc()
	return nil, lastErr
}

// PlaceOrderMulti submits the same cart to several restaurants at once, one
// independent transaction per target. There is no atomicity across targets:
// partial success is reported per target and never rolled back. Each target
// validates and prices the items against its own menu, so a restaurant that
// is missing one of the items simply fails its slot.
func (s *OrderService) PlaceOrderMulti(ctx context.Context, targets []uuid.UUID, req PlaceOrderRequest) ([]PlacementResult, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if _, err := billing.ParseMode(req.OrderType); err != nil {
		return nil, ErrInvalidOrderType
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	results := make([]PlacementResult, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target uuid.UUID) {
			defer wg.Done()
			targetReq := req
			targetReq.RestaurantID = target

			var lastErr error
			for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
				result, err := s.placeOrderTx(ctx, targetReq)
				if err == nil {
					s.announceCreated(ctx, result)
					results[i] = PlacementResult{RestaurantID: target, Result: result}
					return
				}
				lastErr = err
				if !isOrderNumberConflict(err) {
					break
				}
			}
			metrics.OrderFailures.Inc()
			results[i] = PlacementResult{RestaurantID: target, Err: lastErr}
		}(i, target)
	}
	wg.Wait()
	return results, nil
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_restaurant_id_order_number_key"
	}
	return false
}

// placeOrderTx executes the full order creation in a single transaction.
func (s *OrderService) placeOrderTx(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	restaurant, err := store.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}

	prepared, err := s.prepare(ctx, store, restaurant, req)
	if err != nil {
		return nil, err
	}

	nextNum, err := store.GetNextOrderNumber(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("CW-%03d", nextNum)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		RestaurantID:   req.RestaurantID,
		OrderNumber:    orderNumber,
		OrderType:      req.OrderType,
		Source:         req.Source,
		PaymentStatus:  initialPaymentStatus(req),
		PaymentMethod:  textOrNull(req.PaymentMethod),
		CustomerName:   textOrNull(req.CustomerName),
		CustomerPhone:  textOrNull(req.CustomerPhone),
		TableNo:        textOrNull(req.TableNo),
		Subtotal:       database.DecimalToNumeric(prepared.bill.Subtotal),
		DiscountAmount: database.DecimalToNumeric(prepared.bill.DiscountAmount),
		TaxableAmount:  database.DecimalToNumeric(prepared.bill.TaxableAmount),
		GstRate:        database.DecimalToNumeric(prepared.bill.GSTRate),
		GstAmount:      database.DecimalToNumeric(prepared.bill.GSTAmount),
		ServiceRate:    database.DecimalToNumeric(prepared.bill.ServiceRate),
		ServiceAmount:  database.DecimalToNumeric(prepared.bill.ServiceAmount),
		DeliveryFee:    database.DecimalToNumeric(prepared.bill.DeliveryFee),
		Total:          database.DecimalToNumeric(prepared.bill.Total),
		TaxBase:        string(taxBaseOf(restaurant)),
		CreatedBy:      uuidOrNull(req.CreatedBy),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for _, params := range prepared.items {
		params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &PlaceOrderResult{Order: order, Items: items, Bill: prepared.bill}, nil
}

// prepare validates the request against the restaurant's menu and computes
// the bill. All prices come from the menu; the client only names items and
// quantities.
func (s *OrderService) prepare(ctx context.Context, store OrderStore, restaurant database.Restaurant, req PlaceOrderRequest) (*preparedOrder, error) {
	mode, _ := billing.ParseMode(req.OrderType)

	var lines []billing.LineItem
	var itemParams []database.CreateOrderItemParams
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuItemID)
		}

		menuItem, err := store.GetMenuItem(ctx, database.GetMenuItemParams{
			ID:           menuItemID,
			RestaurantID: restaurant.ID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get menu item: %w", i, err)
		}
		if !menuItem.Available {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemOffMenu)
		}

		unitPrice := database.NumericToDecimal(menuItem.Price)
		lines = append(lines, billing.LineItem{
			ID:        menuItem.ID.String(),
			Name:      menuItem.Name,
			UnitPrice: unitPrice,
			Quantity:  item.Quantity,
		})
		itemParams = append(itemParams, database.CreateOrderItemParams{
			MenuItemID: pgtype.UUID{Bytes: menuItem.ID, Valid: true},
			Name:       menuItem.Name,
			UnitPrice:  database.DecimalToNumeric(unitPrice),
			Quantity:   item.Quantity,
			LineTotal:  database.DecimalToNumeric(unitPrice.Mul(decimal.NewFromInt32(item.Quantity))),
		})
	}

	// Storefront orders never carry a discount.
	discount := decimal.Zero
	if req.Source == enum.OrderSourcePOS && req.Discount != "" {
		d, err := decimal.NewFromString(req.Discount)
		if err != nil {
			return nil, ErrInvalidDiscount
		}
		discount = d
	}

	deliveryFee := database.NumericToDecimal(restaurant.DefaultDeliveryCharge)
	if req.Source == enum.OrderSourcePOS && req.DeliveryFee != "" {
		d, err := decimal.NewFromString(req.DeliveryFee)
		if err != nil {
			return nil, ErrInvalidDeliveryFee
		}
		deliveryFee = d
	}

	in := billing.Input{
		Items:       lines,
		Mode:        mode,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		Tax: billing.TaxConfig{
			GSTPercent:           database.NumericToDecimal(restaurant.GstPercent),
			ServiceChargePercent: database.NumericToDecimal(restaurant.ServiceChargePercent),
			ApplyTax:             restaurant.ApplyTax,
			Base:                 taxBaseOf(restaurant),
		},
	}
	if err := billing.ValidateInput(in); err != nil {
		switch {
		case errors.Is(err, billing.ErrNegativeDiscount):
			return nil, ErrInvalidDiscount
		case errors.Is(err, billing.ErrNegativeFee):
			return nil, ErrInvalidDeliveryFee
		}
		return nil, err
	}

	return &preparedOrder{items: itemParams, bill: billing.Compute(in)}, nil
}

// UpdateStatus moves an order along PENDING -> PREPARING -> READY ->
// COMPLETED. CANCELLED is reachable from any non-terminal state. Monetary
// fields are frozen; only the status column changes.
func (s *OrderService) UpdateStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (*database.Order, error) {
	if !isValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	order, err := s.store.GetOrder(ctx, database.GetOrderParams{ID: orderID, RestaurantID: restaurantID})
	if err != nil {
		return nil, err
	}
	if !canTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	updated, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:           orderID,
		RestaurantID: restaurantID,
		Status:       status,
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, &updated, ws.EventOrderUpdated, events.ActionStatusChanged)
	return &updated, nil
}

// MarkPaid settles an order's payment exactly once.
func (s *OrderService) MarkPaid(ctx context.Context, restaurantID, orderID uuid.UUID, method string) (*database.Order, error) {
	order, err := s.store.GetOrder(ctx, database.GetOrderParams{ID: orderID, RestaurantID: restaurantID})
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enum.PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}

	updated, err := s.store.MarkOrderPaid(ctx, database.MarkOrderPaidParams{
		ID:            orderID,
		RestaurantID:  restaurantID,
		PaymentMethod: textOrNull(method),
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, &updated, ws.EventOrderUpdated, events.ActionPaid)
	return &updated, nil
}

// DeleteOrder removes an order and its items from the board.
func (s *OrderService) DeleteOrder(ctx context.Context, restaurantID, orderID uuid.UUID) error {
	if err := s.store.DeleteOrder(ctx, database.DeleteOrderParams{ID: orderID, RestaurantID: restaurantID}); err != nil {
		return err
	}

	s.hub.BroadcastToRestaurant(restaurantID, ws.Event{
		Type:    ws.EventOrderDeleted,
		Payload: ws.OrderPayload{OrderID: orderID},
	})
	s.publish(ctx, events.OrderEvent{
		OrderID:      orderID,
		RestaurantID: restaurantID,
		Action:       events.ActionDeleted,
	})
	return nil
}

// --- Helpers ---

func (s *OrderService) announceCreated(ctx context.Context, result *PlaceOrderResult) {
	metrics.OrdersCreated.WithLabelValues(result.Order.Source, result.Order.OrderType).Inc()
	total, _ := result.Bill.Total.Float64()
	metrics.OrderTotal.Observe(total)
	s.announce(ctx, &result.Order, ws.EventOrderCreated, events.ActionCreated)
}

// announce pushes the change to the live board and the broker. Both are
// best-effort; a slow consumer or a broker outage never fails the order.
func (s *OrderService) announce(ctx context.Context, order *database.Order, wsType, action string) {
	s.hub.BroadcastToRestaurant(order.RestaurantID, ws.Event{
		Type: wsType,
		Payload: ws.OrderPayload{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			Total:       billing.Format(database.NumericToDecimal(order.Total)),
		},
	})

	s.publish(ctx, events.OrderEvent{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		Action:       action,
		Status:       order.Status,
		Total:        billing.Format(database.NumericToDecimal(order.Total)),
	})
}

func (s *OrderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		slog.Warn("publish order event", "order_id", event.OrderID, "error", err)
	}
}

// initialPaymentStatus mirrors the POS rule: cash and card are settled at the
// counter, online payment stays pending until confirmed. Storefront orders
// are always pending.
func initialPaymentStatus(req PlaceOrderRequest) string {
	if req.Source == enum.OrderSourcePOS && req.PaymentMethod != "" && req.PaymentMethod != enum.PaymentMethodOnline {
		return enum.PaymentStatusPaid
	}
	return enum.PaymentStatusPending
}

func isValidStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusCompleted, enum.OrderStatusCancelled:
		return true
	}
	return false
}

// canTransition enforces the forward-only board flow.
func canTransition(from, to string) bool {
	switch from {
	case enum.OrderStatusPending:
		return to == enum.OrderStatusPreparing || to == enum.OrderStatusCancelled
	case enum.OrderStatusPreparing:
		return to == enum.OrderStatusReady || to == enum.OrderStatusCancelled
	case enum.OrderStatusReady:
		return to == enum.OrderStatusCompleted || to == enum.OrderStatusCancelled
	}
	return false
}

func taxBaseOf(r database.Restaurant) billing.TaxBase {
	if r.TaxBase == string(billing.TaxBaseSubtotal) {
		return billing.TaxBaseSubtotal
	}
	return billing.TaxBaseTaxable
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func uuidOrNull(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}
