package cart

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
)

func TestAddKeepsSeparateLines(t *testing.T) {
	store := NewStore()
	productID := uuid.New()

	require.NoError(t, store.Add("chat-1", Line{ProductID: productID, Name: "Milhoja", UnitPrice: 5000, Quantity: 2}))
	require.NoError(t, store.Add("chat-1", Line{ProductID: productID, Name: "Milhoja", UnitPrice: 5000, Quantity: 3}))

	lines := store.Lines("chat-1")
	require.Len(t, lines, 2, "same product must not merge")
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 3, lines[1].Quantity)
	assert.Equal(t, 5, store.TotalQuantity("chat-1"))
}

func TestAddValidation(t *testing.T) {
	store := NewStore()
	productID := uuid.New()

	cases := []struct {
		name string
		sess string
		line Line
	}{
		{"missing session", "", Line{ProductID: productID, Name: "Milhoja", UnitPrice: 100, Quantity: 1}},
		{"missing product", "chat-1", Line{Name: "Milhoja", UnitPrice: 100, Quantity: 1}},
		{"missing name", "chat-1", Line{ProductID: productID, UnitPrice: 100, Quantity: 1}},
		{"zero quantity", "chat-1", Line{ProductID: productID, Name: "Milhoja", UnitPrice: 100, Quantity: 0}},
		{"negative quantity", "chat-1", Line{ProductID: productID, Name: "Milhoja", UnitPrice: 100, Quantity: -1}},
		{"negative price", "chat-1", Line{ProductID: productID, Name: "Milhoja", UnitPrice: -5, Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Add(tc.sess, tc.line)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
	assert.True(t, store.IsEmpty("chat-1"))
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Add("chat-1", Line{ProductID: uuid.New(), Name: "Torta", UnitPrice: 8000, Quantity: 1}))

	assert.True(t, store.IsEmpty("chat-2"))
	assert.False(t, store.IsEmpty("chat-1"))

	store.Clear("chat-1")
	assert.True(t, store.IsEmpty("chat-1"))
}

func TestLinesReturnsCopy(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Add("chat-1", Line{ProductID: uuid.New(), Name: "Torta", UnitPrice: 8000, Quantity: 1}))

	lines := store.Lines("chat-1")
	lines[0].Quantity = 99

	assert.Equal(t, 1, store.Lines("chat-1")[0].Quantity)
}

func TestConcurrentAdds(t *testing.T) {
	store := NewStore()
	productID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Add("chat-1", Line{ProductID: productID, Name: "Palito", UnitPrice: 1000, Quantity: 1})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.TotalQuantity("chat-1"))
	assert.Len(t, store.Lines("chat-1"), 50)
}

func TestPricingLines(t *testing.T) {
	lines := []Line{
		{ProductID: uuid.New(), Name: "A", UnitPrice: 5000, Quantity: 30},
	}
	projected := PricingLines(lines)
	require.Len(t, projected, 1)
	assert.Equal(t, int64(5000), projected[0].UnitPrice)
	assert.Equal(t, 30, projected[0].Quantity)
}
