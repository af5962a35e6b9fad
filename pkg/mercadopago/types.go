package mercadopago

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PreferenceItem is one line item on a checkout preference. The same shape
// comes back on the payment's additional_info, where Mercado Pago renders
// quantity and unit_price as strings; Quantity tolerates both encodings and
// decimal.Decimal already accepts quoted numbers.
type PreferenceItem struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Quantity   FlexInt         `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CurrencyID string          `json:"currency_id,omitempty"`
}

// FlexInt unmarshals from a JSON number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		// tolerate "1.0" style renderings
		parsed, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return err
		}
		val = int(parsed)
	}
	*f = FlexInt(val)
	return nil
}

// Int returns the plain integer value.
func (f FlexInt) Int() int {
	return int(f)
}

// BackURLs configures where the hosted checkout redirects the buyer.
type BackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

// PreferenceRequest is the payload for POST /checkout/preferences.
type PreferenceRequest struct {
	Items             []PreferenceItem  `json:"items"`
	Payer             *PreferencePayer  `json:"payer,omitempty"`
	BackURLs          *BackURLs         `json:"back_urls,omitempty"`
	AutoReturn        string            `json:"auto_return,omitempty"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	ExternalReference string            `json:"external_reference,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// PreferencePayer carries the buyer hints for the hosted page.
type PreferencePayer struct {
	Email string `json:"email,omitempty"`
}

// Preference is the subset of the create-preference response we use.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment is the gateway's source-of-truth payment object. Extra fields the
// provider may add are ignored by encoding/json, which keeps parsing
// forward-compatible.
type Payment struct {
	ID                json.Number         `json:"id"`
	Status            string              `json:"status"`
	StatusDetail      string              `json:"status_detail"`
	TransactionAmount decimal.Decimal     `json:"transaction_amount"`
	ExternalReference string              `json:"external_reference"`
	Payer             *PaymentPayer       `json:"payer"`
	AdditionalInfo    *AdditionalInfo     `json:"additional_info"`
	FeeDetails        []FeeDetail         `json:"fee_details"`
	TransactionDetail *TransactionDetails `json:"transaction_details"`
}

// PaymentID returns the gateway id as a string.
func (p *Payment) PaymentID() string {
	if p == nil {
		return ""
	}
	return p.ID.String()
}

// PayerEmail extracts the payer email when present.
func (p *Payment) PayerEmail() string {
	if p == nil || p.Payer == nil {
		return ""
	}
	return p.Payer.Email
}

// Items returns the line items echoed back on the payment, or nil.
func (p *Payment) Items() []PreferenceItem {
	if p == nil || p.AdditionalInfo == nil {
		return nil
	}
	return p.AdditionalInfo.Items
}

// FeeAmount sums fee_details defensively; the provider does not guarantee
// the field on every payment object.
func (p *Payment) FeeAmount() (decimal.Decimal, bool) {
	if p == nil || len(p.FeeDetails) == 0 {
		return decimal.Zero, false
	}
	total := decimal.Zero
	for _, fee := range p.FeeDetails {
		total = total.Add(fee.Amount)
	}
	return total, true
}

// NetReceivedAmount extracts transaction_details.net_received_amount when present.
func (p *Payment) NetReceivedAmount() (decimal.Decimal, bool) {
	if p == nil || p.TransactionDetail == nil || p.TransactionDetail.NetReceivedAmount == nil {
		return decimal.Zero, false
	}
	return *p.TransactionDetail.NetReceivedAmount, true
}

type PaymentPayer struct {
	Email string `json:"email"`
}

type AdditionalInfo struct {
	Items []PreferenceItem `json:"items"`
}

type FeeDetail struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type TransactionDetails struct {
	NetReceivedAmount *decimal.Decimal `json:"net_received_amount"`
}
