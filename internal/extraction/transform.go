package extraction

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ddaros/financas/internal/domain"
)

// header is the statement-level metadata extracted alongside the
// transactions.
type header struct {
	BankName   string
	CardNumber string
	CardHolder string
}

// transformModelOutput validates the decoded model object against the
// expected shape and builds transaction candidates. Items missing required
// fields are rejected individually; the batch survives. A malformed
// top-level shape rejects the whole response.
func transformModelOutput(parsed map[string]interface{}, ownerID, documentID, sourceFile string) ([]*domain.Transaction, header, []Rejection, error) {
	h := header{
		BankName:   optionalString(parsed, "bank_name"),
		CardNumber: optionalString(parsed, "card_number"),
		CardHolder: optionalString(parsed, "card_holder"),
	}

	txAny, ok := parsed["transactions"]
	if !ok {
		return nil, h, nil, fmt.Errorf("extraction: missing 'transactions' key in model output")
	}
	txSlice, ok := txAny.([]interface{})
	if !ok {
		return nil, h, nil, fmt.Errorf("extraction: 'transactions' is %T, want array", txAny)
	}

	var txs []*domain.Transaction
	var rejected []Rejection

	for i, item := range txSlice {
		obj, ok := item.(map[string]interface{})
		if !ok {
			rejected = append(rejected, Rejection{Index: i, Reason: fmt.Sprintf("item is %T, want object", item)})
			continue
		}

		tx, err := transformItem(obj, ownerID, documentID, sourceFile, h)
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, Reason: err.Error()})
			continue
		}
		txs = append(txs, tx)
	}

	return txs, h, rejected, nil
}

func transformItem(obj map[string]interface{}, ownerID, documentID, sourceFile string, h header) (*domain.Transaction, error) {
	desc, err := getStringField(obj, "description", true)
	if err != nil {
		return nil, err
	}
	amount, err := getFloat64Field(obj, "amount", true)
	if err != nil {
		return nil, err
	}
	// Statements report charges; sign is presentation noise.
	amount = math.Abs(amount)

	dateIncurred, err := getDateField(obj, "date_incurred")
	if err != nil {
		return nil, err
	}
	datePayment, err := getDateField(obj, "date_payment")
	if err != nil {
		return nil, err
	}
	if datePayment.IsZero() {
		datePayment = dateIncurred
	}
	if dateIncurred.IsZero() {
		return nil, fmt.Errorf("missing required field %q", "date_incurred")
	}

	current := getIntField(obj, "installment_current", 1)
	total := getIntField(obj, "installment_total", 1)
	if current < 1 || total < 1 || current > total {
		return nil, fmt.Errorf("invalid installments %d/%d", current, total)
	}

	return &domain.Transaction{
		OwnerID:            ownerID,
		DateIncurred:       dateIncurred,
		DatePayment:        datePayment,
		Description:        desc,
		Amount:             amount,
		Currency:           domain.Currency,
		Category:           optionalString(obj, "category"),
		BehaviorClass:      optionalString(obj, "behavior_class"),
		InstallmentCurrent: current,
		InstallmentTotal:   total,
		Entity:             optionalString(obj, "entity"),
		PaymentMethod:      "Cartão",
		BankName:           h.BankName,
		CardName:           h.CardNumber,
		CardHolder:         h.CardHolder,
		SourceFile:         sourceFile,
		DocumentID:         documentID,
	}, nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return strings.TrimSpace(val), nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func optionalString(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func getFloat64Field(m map[string]interface{}, key string, required bool) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return 0, fmt.Errorf("missing required field %q", key)
		}
		return 0, nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case string:
		// Some models quote numbers; tolerate "55.90" but not "55,90".
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("field %q is not a number: %q", key, val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}

func getIntField(m map[string]interface{}, key string, fallback int) int {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	switch val := v.(type) {
	case float64:
		return int(val)
	default:
		return fallback
	}
}

func getDateField(m map[string]interface{}, key string) (time.Time, error) {
	s := optionalString(m, key)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q for field %q", s, key)
	}
	return d, nil
}
