package email

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/illegalcall/storefront-mailer/internal/models"
)

var requiredFields = map[Action][]string{
	ActionContact:             {"name", "email", "subject", "message"},
	ActionTest:                {"to", "subject", "message"},
	ActionOrderConfirmation:   {"customerName", "customerEmail", "orderNumber", "items", "total"},
	ActionPaymentConfirmation: {"customerName", "customerEmail", "orderNumber", "items", "total"},
	ActionNewsletterSubscribe: {"email"},
}

// normalizePayload treats an empty or blank body as an empty object.
func normalizePayload(payload []byte) []byte {
	if len(bytes.TrimSpace(payload)) == 0 {
		return []byte("{}")
	}
	return payload
}

// validateRequired checks the raw payload before it is decoded. A field
// counts as missing when it is absent, null, false, 0, "" or an empty array.
func validateRequired(action Action, payload []byte) error {
	if !gjson.ValidBytes(payload) {
		return validationError(msgInvalidBody, errors.New("invalid JSON payload"))
	}

	data := gjson.ParseBytes(payload)
	if !data.IsObject() {
		return validationError(msgInvalidBody, errors.New("payload is not a JSON object"))
	}

	var missing []string
	for _, field := range requiredFields[action] {
		if !present(data.Get(field)) {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	message := msgMissingFields
	if action == ActionNewsletterSubscribe {
		message = msgEmailRequired
	}
	return validationError(message, fmt.Errorf("missing required field: %s", strings.Join(missing, ", ")))
}

func present(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	case gjson.JSON:
		if r.IsArray() {
			return len(r.Array()) > 0
		}
	}
	return true
}

func validateItems(items []models.OrderItem) error {
	for i, item := range items {
		switch {
		case strings.TrimSpace(item.Name) == "":
			return validationError(msgInvalidItems, fmt.Errorf("item %d: name is required", i))
		case item.Quantity < 1 || item.Quantity != math.Trunc(item.Quantity):
			return validationError(msgInvalidItems, fmt.Errorf("item %d: quantity must be a positive whole number", i))
		case item.Price < 0:
			return validationError(msgInvalidItems, fmt.Errorf("item %d: price must not be negative", i))
		}
	}
	return nil
}
