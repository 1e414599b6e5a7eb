package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteTierBoundaries(t *testing.T) {
	engine := NewEngine(nil)

	cases := []struct {
		name        string
		lines       []Line
		wantQty     int
		wantPercent int
		wantSub     int64
		wantDisc    int64
		wantTotal   int64
	}{
		{
			name:      "empty cart",
			lines:     nil,
			wantQty:   0,
			wantSub:   0,
			wantDisc:  0,
			wantTotal: 0,
		},
		{
			name:        "below first tier",
			lines:       []Line{{UnitPrice: 5000, Quantity: 19}},
			wantQty:     19,
			wantPercent: 0,
			wantSub:     95000,
			wantDisc:    0,
			wantTotal:   95000,
		},
		{
			name:        "exactly at first tier",
			lines:       []Line{{UnitPrice: 5000, Quantity: 20}},
			wantQty:     20,
			wantPercent: 5,
			wantSub:     100000,
			wantDisc:    5000,
			wantTotal:   95000,
		},
		{
			name:        "mid tier across lines",
			lines:       []Line{{UnitPrice: 5000, Quantity: 30}},
			wantQty:     30,
			wantPercent: 5,
			wantSub:     150000,
			wantDisc:    7500,
			wantTotal:   142500,
		},
		{
			name:        "second tier",
			lines:       []Line{{UnitPrice: 2000, Quantity: 25}, {UnitPrice: 3000, Quantity: 25}},
			wantQty:     50,
			wantPercent: 10,
			wantSub:     125000,
			wantDisc:    12500,
			wantTotal:   112500,
		},
		{
			name:        "top tier",
			lines:       []Line{{UnitPrice: 1000, Quantity: 120}},
			wantQty:     120,
			wantPercent: 15,
			wantSub:     120000,
			wantDisc:    18000,
			wantTotal:   102000,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote := engine.Quote(tc.lines)
			assert.Equal(t, tc.wantQty, quote.TotalQuantity)
			assert.Equal(t, tc.wantPercent, quote.DiscountPercent)
			assert.Equal(t, tc.wantSub, quote.Subtotal)
			assert.Equal(t, tc.wantDisc, quote.Discount)
			assert.Equal(t, tc.wantTotal, quote.Total)
		})
	}
}

func TestQuoteRoundsHalfUp(t *testing.T) {
	// 333*101 = 33633 subtotal at 15% => 5044.95, rounds to 5045.
	engine := NewEngine(nil)
	quote := engine.Quote([]Line{{UnitPrice: 333, Quantity: 101}})
	assert.Equal(t, int64(33633), quote.Subtotal)
	assert.Equal(t, int64(5045), quote.Discount)
	assert.Equal(t, int64(28588), quote.Total)
}

func TestQuoteUsesHighestQualifyingTier(t *testing.T) {
	// Unordered tier input must still resolve to the highest threshold met.
	engine := NewEngine([]Tier{
		{MinQuantity: 20, DiscountPercent: 5},
		{MinQuantity: 100, DiscountPercent: 15},
		{MinQuantity: 50, DiscountPercent: 10},
	})
	quote := engine.Quote([]Line{{UnitPrice: 100, Quantity: 100}})
	assert.Equal(t, 15, quote.DiscountPercent)
}

func TestProgress(t *testing.T) {
	engine := NewEngine(nil)
	statuses := engine.Progress(30)
	require.Len(t, statuses, 3)

	assert.Equal(t, 100, statuses[0].MinQuantity)
	assert.False(t, statuses[0].Reached)
	assert.Equal(t, 70, statuses[0].UnitsRemaining)

	assert.Equal(t, 50, statuses[1].MinQuantity)
	assert.False(t, statuses[1].Reached)
	assert.Equal(t, 20, statuses[1].UnitsRemaining)

	assert.Equal(t, 20, statuses[2].MinQuantity)
	assert.True(t, statuses[2].Reached)
	assert.Equal(t, 0, statuses[2].UnitsRemaining)
}

func TestParseTiers(t *testing.T) {
	tiers, err := ParseTiers("100:15,50:10,20:5")
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	assert.Equal(t, Tier{MinQuantity: 100, DiscountPercent: 15}, tiers[0])

	_, err = ParseTiers("banana")
	require.Error(t, err)

	_, err = ParseTiers("0:5")
	require.Error(t, err)

	_, err = ParseTiers("10:101")
	require.Error(t, err)

	tiers, err = ParseTiers("  ")
	require.NoError(t, err)
	assert.Nil(t, tiers)
}
