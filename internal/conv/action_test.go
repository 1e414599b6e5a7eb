package conv

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
)

func TestParseCallbackRoundTrip(t *testing.T) {
	productID := uuid.New()
	categoryID := uuid.New()
	locationID := uuid.New()

	actions := []Action{
		ShowMenu{},
		ShowCatalog{},
		ShowCategory{CategoryID: categoryID},
		ShowProduct{ProductID: productID},
		AddToCart{ProductID: productID, Quantity: 12},
		ViewCart{},
		ClearCart{},
		ConfirmOrder{},
		StartPreorder{},
		ChooseCustomerType{Type: "wholesale"},
		ChoosePickupLocation{LocationID: locationID},
		ChoosePickupDate{Date: "2026-09-03"},
		ChoosePickupTime{Time: "14:00"},
		ConfirmPreorder{},
		CancelPreorder{},
		WizardBack{State: "selecting_date"},
		StartFreeChat{},
	}

	for _, action := range actions {
		parsed, err := ParseCallback(action.Callback())
		require.NoError(t, err, action.Callback())
		assert.Equal(t, action, parsed)
	}
}

func TestParseCallbackRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"bogus",
		"cat_not-a-uuid",
		"prod_",
		"add_" + uuid.NewString(),
		"add_" + uuid.NewString() + "_zero",
		"add_" + uuid.NewString() + "_0",
		"preorder_loc_123",
		"preorder_type_",
		"preorder_back_",
	}
	for _, data := range cases {
		_, err := ParseCallback(data)
		require.Error(t, err, data)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	}
}
