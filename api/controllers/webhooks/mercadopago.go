// Package webhooks receives payment gateway notifications. The notification
// body is treated as a hint only: the handler re-fetches the payment from
// the gateway before fulfilling, so a forged delivery can at worst trigger
// an extra lookup.
package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/inkwell-tcg/inkwell-backend/api/responses"
	"github.com/inkwell-tcg/inkwell-backend/internal/payments"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
)

const maxNotificationBody = 64 * 1024

// notificationPayload is the shape Mercado Pago posts. The payment id can
// arrive in the body or as the query parameters of older topic formats.
type notificationPayload struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

type notificationService interface {
	HandleNotification(ctx context.Context, notif payments.Notification) (*payments.NotificationResult, error)
}

type deliveryGuard interface {
	CheckAndMark(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

// MercadoPago handles payment notifications. Processed and duplicate
// deliveries answer 200 so the gateway stops retrying; infrastructure
// failures answer 5xx to request a retry.
func MercadoPago(svc notificationService, guard deliveryGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification service unavailable"))
			return
		}

		notif, err := parseNotification(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if guard != nil && notif.PaymentID != "" {
			seen, err := guard.CheckAndMark(ctx, notif.PaymentID)
			if err != nil {
				// the order unique constraint still holds, keep going
				if logg != nil {
					logg.Error(ctx, "webhook idempotency check", err)
				}
			} else if seen {
				responses.WriteSuccess(w, map[string]string{"disposition": string(payments.DispositionDuplicate)})
				return
			}
		}

		result, err := svc.HandleNotification(ctx, notif)
		if err != nil {
			if guard != nil && notif.PaymentID != "" {
				_ = guard.Forget(ctx, notif.PaymentID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if result.Disposition == payments.DispositionPending && guard != nil && notif.PaymentID != "" {
			// not approved yet, let a later delivery for the same payment in
			_ = guard.Forget(ctx, notif.PaymentID)
		}

		responses.WriteSuccess(w, map[string]string{"disposition": string(result.Disposition)})
	}
}

func parseNotification(r *http.Request) (payments.Notification, error) {
	notif := payments.Notification{
		Type:      strings.TrimSpace(r.URL.Query().Get("type")),
		PaymentID: strings.TrimSpace(r.URL.Query().Get("data.id")),
	}
	if notif.Type == "" {
		// legacy topic parameter
		notif.Type = strings.TrimSpace(r.URL.Query().Get("topic"))
	}
	if notif.PaymentID == "" {
		notif.PaymentID = strings.TrimSpace(r.URL.Query().Get("id"))
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBody))
	if err != nil {
		return notif, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read notification body")
	}
	if len(body) > 0 {
		var payload notificationPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return notif, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification body")
		}
		if payload.Type != "" {
			notif.Type = payload.Type
		}
		if id := paymentIDFromNumber(payload.Data.ID); id != "" {
			notif.PaymentID = id
		}
	}
	return notif, nil
}

// paymentIDFromNumber normalizes numeric ids rendered with a trailing ".0".
func paymentIDFromNumber(raw json.Number) string {
	id := strings.TrimSpace(raw.String())
	if id == "" {
		return ""
	}
	if n, err := raw.Int64(); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return id
}
