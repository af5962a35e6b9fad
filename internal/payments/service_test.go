package payments

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/internal/fulfillment"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
	"github.com/inkwell-tcg/inkwell-backend/pkg/metrics"
)

type stubGateway struct {
	payments map[string]*mercadopago.Payment
	calls    int
}

func (s *stubGateway) GetPayment(_ context.Context, paymentID string) (*mercadopago.Payment, error) {
	s.calls++
	if payment, ok := s.payments[paymentID]; ok {
		return payment, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment gateway resource not found")
}

type stubEngine struct {
	result    *fulfillment.Result
	err       error
	processed []string
	actors    []string
}

func (s *stubEngine) ProcessConfirmedPayment(_ context.Context, actorID string, payment *mercadopago.Payment) (*fulfillment.Result, error) {
	s.processed = append(s.processed, payment.PaymentID())
	s.actors = append(s.actors, actorID)
	return s.result, s.err
}

func newRefDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	paymentRefs := `
CREATE TABLE IF NOT EXISTS payment_refs (
  id TEXT PRIMARY KEY,
  payment_id TEXT NOT NULL UNIQUE,
  last_status TEXT NOT NULL,
  last_checked_at DATETIME NOT NULL,
  created_at DATETIME
);`
	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  payment_id TEXT NOT NULL,
  external_reference TEXT NOT NULL,
  items TEXT NOT NULL,
  customer_email TEXT,
  status TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  mp_fee_amount NUMERIC,
  net_received_amount NUMERIC,
  created_at DATETIME
);`
	ordersPaymentIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS orders_payment_id_key ON orders (payment_id);`
	activityLog := `
CREATE TABLE IF NOT EXISTS activity_log (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  details TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(paymentRefs).Error)
	require.NoError(t, db.Exec(ordersTable).Error)
	require.NoError(t, db.Exec(ordersPaymentIndex).Error)
	require.NoError(t, db.Exec(activityLog).Error)
	return db
}

func gatewayPayment(id, status string) *mercadopago.Payment {
	return &mercadopago.Payment{
		ID:                json.Number(id),
		Status:            status,
		TransactionAmount: decimal.NewFromInt(10),
	}
}

func newTestService(t *testing.T, gateway *stubGateway, engine *stubEngine, db *gorm.DB) Service {
	t.Helper()
	activitySvc, err := activity.NewService(activity.NewRepository(db))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Gateway:  gateway,
		Engine:   engine,
		Refs:     NewRefRepository(db),
		Activity: activitySvc,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Metrics:  metrics.NewFulfillmentMetrics(nil),
	})
	require.NoError(t, err)
	return svc
}

func TestHandleNotification_ApprovedPaymentFulfills(t *testing.T) {
	t.Parallel()

	db := newRefDB(t)
	gateway := &stubGateway{payments: map[string]*mercadopago.Payment{
		"2001": gatewayPayment("2001", "approved"),
	}}
	engine := &stubEngine{result: &fulfillment.Result{Order: &models.Order{PaymentID: "2001"}}}
	svc := newTestService(t, gateway, engine, db)

	result, err := svc.HandleNotification(context.Background(), Notification{Type: "payment", PaymentID: "2001"})
	require.NoError(t, err)
	assert.Equal(t, DispositionFulfilled, result.Disposition)
	assert.Equal(t, []string{"2001"}, engine.processed)
	assert.Equal(t, []string{enums.ActorMobileUser}, engine.actors)

	// the ref row captured the gateway truth
	ref, err := NewRefRepository(db).FindByPaymentID(context.Background(), "2001")
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayPaymentStatusApproved, ref.LastStatus)
}

func TestHandleNotification_DuplicateMapsToDuplicate(t *testing.T) {
	t.Parallel()

	db := newRefDB(t)
	gateway := &stubGateway{payments: map[string]*mercadopago.Payment{
		"2002": gatewayPayment("2002", "approved"),
	}}
	engine := &stubEngine{result: &fulfillment.Result{AlreadyFulfilled: true, Order: &models.Order{PaymentID: "2002"}}}
	svc := newTestService(t, gateway, engine, db)

	result, err := svc.HandleNotification(context.Background(), Notification{Type: "payment", PaymentID: "2002"})
	require.NoError(t, err)
	assert.Equal(t, DispositionDuplicate, result.Disposition)
}

func TestHandleNotification_PendingDoesNotInvokeEngine(t *testing.T) {
	t.Parallel()

	db := newRefDB(t)
	gateway := &stubGateway{payments: map[string]*mercadopago.Payment{
		"2003": gatewayPayment("2003", "pending"),
	}}
	engine := &stubEngine{}
	svc := newTestService(t, gateway, engine, db)

	result, err := svc.HandleNotification(context.Background(), Notification{Type: "payment", PaymentID: "2003"})
	require.NoError(t, err)
	assert.Equal(t, DispositionPending, result.Disposition)
	assert.Empty(t, engine.processed)

	ref, err := NewRefRepository(db).FindByPaymentID(context.Background(), "2003")
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayPaymentStatusPending, ref.LastStatus)
}

func TestHandleNotification_NonPaymentTypeIgnored(t *testing.T) {
	t.Parallel()

	db := newRefDB(t)
	gateway := &stubGateway{}
	engine := &stubEngine{}
	svc := newTestService(t, gateway, engine, db)

	result, err := svc.HandleNotification(context.Background(), Notification{Type: "merchant_order", PaymentID: "x"})
	require.NoError(t, err)
	assert.Equal(t, DispositionIgnored, result.Disposition)
	assert.Zero(t, gateway.calls, "ignored notifications must not hit the gateway")
}

func TestHandleNotification_MissingPaymentID(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubGateway{}, &stubEngine{}, newRefDB(t))

	_, err := svc.HandleNotification(context.Background(), Notification{Type: "payment"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestHandleNotification_UnknownPayment(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubGateway{}, &stubEngine{}, newRefDB(t))

	_, err := svc.HandleNotification(context.Background(), Notification{Type: "payment", PaymentID: "ghost"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestConfirmPayment_UsesProvidedActor(t *testing.T) {
	t.Parallel()

	db := newRefDB(t)
	gateway := &stubGateway{payments: map[string]*mercadopago.Payment{
		"2004": gatewayPayment("2004", "approved"),
	}}
	engine := &stubEngine{result: &fulfillment.Result{Order: &models.Order{PaymentID: "2004"}}}
	svc := newTestService(t, gateway, engine, db)

	adminID := uuid.NewString()
	result, err := svc.ConfirmPayment(context.Background(), adminID, "2004")
	require.NoError(t, err)
	assert.Equal(t, DispositionFulfilled, result.Disposition)
	assert.Equal(t, []string{adminID}, engine.actors)

	// empty actor falls back to the system sentinel
	_, err = svc.ConfirmPayment(context.Background(), "", "2004")
	require.NoError(t, err)
	assert.Equal(t, enums.ActorSystem, engine.actors[1])
}

func TestConfirmPayment_AdminActorLeavesManualTrail(t *testing.T) {
	t.Parallel()

	db := newRefDB(t)
	gateway := &stubGateway{payments: map[string]*mercadopago.Payment{
		"2005": gatewayPayment("2005", "approved"),
	}}
	engine := &stubEngine{result: &fulfillment.Result{Order: &models.Order{PaymentID: "2005"}}}
	svc := newTestService(t, gateway, engine, db)

	adminID := uuid.NewString()
	_, err := svc.ConfirmPayment(context.Background(), adminID, "2005")
	require.NoError(t, err)

	var logs []models.ActivityLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.ActivityActionManualFulfillment, logs[0].Action)
	assert.Equal(t, adminID, logs[0].UserID)
	assert.Equal(t, "2005", logs[0].EntityID)

	// reconcile sweeps run as the system actor and leave no trail
	_, err = svc.ConfirmPayment(context.Background(), "", "2005")
	require.NoError(t, err)
	require.NoError(t, db.Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestRefRepository_ListApprovedWithoutOrder(t *testing.T) {
	t.Parallel()

	db := newRefDB(t)
	repo := NewRefRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, "3001", enums.GatewayPaymentStatusApproved, now))
	require.NoError(t, repo.Upsert(ctx, "3002", enums.GatewayPaymentStatusApproved, now))
	require.NoError(t, repo.Upsert(ctx, "3003", enums.GatewayPaymentStatusPending, now))

	// 3002 already has an order, so only 3001 needs repair
	order := models.Order{
		ID:          uuid.New(),
		PaymentID:   "3002",
		Items:       json.RawMessage(`[]`),
		Status:      enums.OrderStatusFulfilled,
		TotalAmount: decimal.NewFromInt(5),
	}
	require.NoError(t, db.Create(&order).Error)

	refs, err := repo.ListApprovedWithoutOrder(ctx, now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "3001", refs[0].PaymentID)
}

func TestRefRepository_UpsertUpdatesStatus(t *testing.T) {
	t.Parallel()

	db := newRefDB(t)
	repo := NewRefRepository(db)
	ctx := context.Background()

	first := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, repo.Upsert(ctx, "3004", enums.GatewayPaymentStatusPending, first))
	require.NoError(t, repo.Upsert(ctx, "3004", enums.GatewayPaymentStatusApproved, time.Now().UTC()))

	ref, err := repo.FindByPaymentID(ctx, "3004")
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayPaymentStatusApproved, ref.LastStatus)

	var count int64
	require.NoError(t, db.Model(&models.PaymentRef{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
