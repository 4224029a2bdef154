package order

import (
	"fmt"
	"regexp"

	"malume-nico/internal/models"
)

// ValidationError reports a malformed or incomplete request. It maps to a 400
// response and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Type         string  `json:"type"`
	TableNumber  *string `json:"table_number,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	CustomerName *string `json:"customer_name,omitempty"`
	Note         *string `json:"note,omitempty"`
}

// Validate checks the conditional field rules for the request's fulfillment
// type: dine-in needs a table number, pickup and delivery need phone and
// email.
func (r *CreateOrderRequest) Validate() (models.FulfillmentType, error) {
	fulfillment, err := models.ParseFulfillmentType(r.Type)
	if err != nil {
		return "", ValidationError{Field: "type", Message: err.Error()}
	}

	switch fulfillment {
	case models.DineIn:
		if r.TableNumber == nil || *r.TableNumber == "" {
			return "", ValidationError{Field: "table_number", Message: "table number is required for dine-in orders"}
		}
	case models.Pickup, models.Delivery:
		if r.Phone == nil || *r.Phone == "" {
			return "", ValidationError{Field: "phone", Message: fmt.Sprintf("phone is required for %s orders", fulfillment)}
		}
		if r.Email == nil || *r.Email == "" {
			return "", ValidationError{Field: "email", Message: fmt.Sprintf("email is required for %s orders", fulfillment)}
		}
		if !emailPattern.MatchString(*r.Email) {
			return "", ValidationError{Field: "email", Message: "email is not valid"}
		}
	}

	if r.CustomerName != nil && len(*r.CustomerName) > 100 {
		return "", ValidationError{Field: "customer_name", Message: "customer name must be less than 100 characters"}
	}

	return fulfillment, nil
}

// ValidateSelections checks a submitted item list for the replace-items and
// price-preview operations.
func ValidateSelections(items []models.ItemSelection) error {
	for i, item := range items {
		if item.MenuItemID <= 0 {
			return ValidationError{
				Field:   fmt.Sprintf("items[%d].menu_item_id", i),
				Message: "menu item id is required",
			}
		}
		if item.Quantity < 1 {
			return ValidationError{
				Field:   fmt.Sprintf("items[%d].qty", i),
				Message: "quantity must be at least 1",
			}
		}
	}
	return nil
}
