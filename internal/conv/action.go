package conv

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
)

// Action is a typed decoding of the callback data attached to inline
// keyboard buttons. Each concrete action knows how to render itself
// back into wire form via Callback.
type Action interface {
	Callback() string
}

// ShowMenu returns the user to the main menu.
type ShowMenu struct{}

func (ShowMenu) Callback() string { return "menu_main" }

// ShowCatalog lists the active product categories.
type ShowCatalog struct{}

func (ShowCatalog) Callback() string { return "catalog" }

// ShowCategory lists the products of one category.
type ShowCategory struct {
	CategoryID uuid.UUID
}

func (a ShowCategory) Callback() string { return joinData("cat", a.CategoryID.String()) }

// ShowProduct shows a single product with quantity choices.
type ShowProduct struct {
	ProductID uuid.UUID
}

func (a ShowProduct) Callback() string { return joinData("prod", a.ProductID.String()) }

// AddToCart appends a product line to the session cart.
type AddToCart struct {
	ProductID uuid.UUID
	Quantity  int
}

func (a AddToCart) Callback() string {
	return joinData("add", a.ProductID.String(), strconv.Itoa(a.Quantity))
}

// ViewCart shows the current cart with totals and tier progress.
type ViewCart struct{}

func (ViewCart) Callback() string { return "view_cart" }

// ClearCart empties the session's cart.
type ClearCart struct{}

func (ClearCart) Callback() string { return "clear_cart" }

// ConfirmOrder runs the order confirmation pipeline on the cart.
type ConfirmOrder struct{}

func (ConfirmOrder) Callback() string { return "confirm_order" }

// StartPreorder enters the preorder wizard.
type StartPreorder struct{}

func (StartPreorder) Callback() string { return "preorder_start" }

// ChooseCustomerType answers the wizard's first question.
type ChooseCustomerType struct {
	Type string
}

func (a ChooseCustomerType) Callback() string { return joinData("preorder", "type", a.Type) }

// ChoosePickupLocation answers the wizard's location question.
type ChoosePickupLocation struct {
	LocationID uuid.UUID
}

func (a ChoosePickupLocation) Callback() string {
	return joinData("preorder", "loc", a.LocationID.String())
}

// ChoosePickupDate answers the wizard's date question. Date is an
// ISO 8601 calendar date (2006-01-02).
type ChoosePickupDate struct {
	Date string
}

func (a ChoosePickupDate) Callback() string { return joinData("preorder", "date", a.Date) }

// ChoosePickupTime answers the wizard's hour question. Time is HH:MM.
type ChoosePickupTime struct {
	Time string
}

func (a ChoosePickupTime) Callback() string { return joinData("preorder", "time", a.Time) }

// ConfirmPreorder accepts the wizard summary and places the order.
type ConfirmPreorder struct{}

func (ConfirmPreorder) Callback() string { return "preorder_confirm" }

// CancelPreorder abandons the wizard mid-flow.
type CancelPreorder struct{}

func (CancelPreorder) Callback() string { return "preorder_cancel" }

// WizardBack rewinds the wizard to an earlier state.
type WizardBack struct {
	State string
}

func (a WizardBack) Callback() string { return joinData("preorder", "back", a.State) }

// StartFreeChat switches the session into free-form question mode.
type StartFreeChat struct{}

func (StartFreeChat) Callback() string { return "chat_free" }

func invalidCallback(data string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "unrecognized callback data").
		WithDetails(map[string]any{"data": data})
}

// ParseCallback decodes callback data into its typed action. Unknown or
// malformed payloads return a validation error so the dispatcher can
// answer the callback without acting on it.
func ParseCallback(data string) (Action, error) {
	switch data {
	case "menu_main":
		return ShowMenu{}, nil
	case "catalog":
		return ShowCatalog{}, nil
	case "view_cart":
		return ViewCart{}, nil
	case "clear_cart":
		return ClearCart{}, nil
	case "confirm_order":
		return ConfirmOrder{}, nil
	case "preorder_start":
		return StartPreorder{}, nil
	case "preorder_confirm":
		return ConfirmPreorder{}, nil
	case "preorder_cancel":
		return CancelPreorder{}, nil
	case "chat_free":
		return StartFreeChat{}, nil
	}

	switch {
	case strings.HasPrefix(data, "cat_"):
		id, err := uuid.Parse(strings.TrimPrefix(data, "cat_"))
		if err != nil {
			return nil, invalidCallback(data)
		}
		return ShowCategory{CategoryID: id}, nil

	case strings.HasPrefix(data, "prod_"):
		id, err := uuid.Parse(strings.TrimPrefix(data, "prod_"))
		if err != nil {
			return nil, invalidCallback(data)
		}
		return ShowProduct{ProductID: id}, nil

	case strings.HasPrefix(data, "add_"):
		rest := strings.TrimPrefix(data, "add_")
		idx := strings.LastIndex(rest, "_")
		if idx < 0 {
			return nil, invalidCallback(data)
		}
		id, err := uuid.Parse(rest[:idx])
		if err != nil {
			return nil, invalidCallback(data)
		}
		qty, err := strconv.Atoi(rest[idx+1:])
		if err != nil || qty <= 0 {
			return nil, invalidCallback(data)
		}
		return AddToCart{ProductID: id, Quantity: qty}, nil

	case strings.HasPrefix(data, "preorder_type_"):
		kind := strings.TrimPrefix(data, "preorder_type_")
		if kind == "" {
			return nil, invalidCallback(data)
		}
		return ChooseCustomerType{Type: kind}, nil

	case strings.HasPrefix(data, "preorder_loc_"):
		id, err := uuid.Parse(strings.TrimPrefix(data, "preorder_loc_"))
		if err != nil {
			return nil, invalidCallback(data)
		}
		return ChoosePickupLocation{LocationID: id}, nil

	case strings.HasPrefix(data, "preorder_date_"):
		date := strings.TrimPrefix(data, "preorder_date_")
		if date == "" {
			return nil, invalidCallback(data)
		}
		return ChoosePickupDate{Date: date}, nil

	case strings.HasPrefix(data, "preorder_time_"):
		t := strings.TrimPrefix(data, "preorder_time_")
		if t == "" {
			return nil, invalidCallback(data)
		}
		return ChoosePickupTime{Time: t}, nil

	case strings.HasPrefix(data, "preorder_back_"):
		state := strings.TrimPrefix(data, "preorder_back_")
		if state == "" {
			return nil, invalidCallback(data)
		}
		return WizardBack{State: state}, nil
	}

	return nil, invalidCallback(data)
}
