package email

import (
	"fmt"
	"strings"
)

// Action selects the template, validation rules and headers of a dispatch.
type Action string

const (
	ActionContact             Action = "contact"
	ActionTest                Action = "test"
	ActionOrderConfirmation   Action = "order-confirmation"
	ActionPaymentConfirmation Action = "payment-confirmation"
	ActionNewsletterSubscribe Action = "newsletter-subscribe"
)

// Actions lists every dispatchable action in display order.
var Actions = []Action{
	ActionContact,
	ActionTest,
	ActionOrderConfirmation,
	ActionPaymentConfirmation,
	ActionNewsletterSubscribe,
}

// ParseAction returns an UnknownAction error for anything outside Actions.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions {
		if string(a) == name {
			return a, nil
		}
	}
	return "", UnknownActionError(name)
}

// UnknownActionError reports name as outside the accepted action set.
func UnknownActionError(name string) *Error {
	return &Error{
		Kind:    KindUnknownAction,
		Message: invalidActionMessage(),
		Err:     fmt.Errorf("action %q", name),
	}
}

func invalidActionMessage() string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = string(a)
	}
	return "Invalid action. Valid actions: " + strings.Join(names, ", ")
}

func (a Action) String() string { return string(a) }
