package pricing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier grants a percentage discount once the cart reaches a total quantity.
type Tier struct {
	MinQuantity     int
	DiscountPercent int
}

// DefaultTiers mirrors the storefront's standing volume promotion.
var DefaultTiers = []Tier{
	{MinQuantity: 100, DiscountPercent: 15},
	{MinQuantity: 50, DiscountPercent: 10},
	{MinQuantity: 20, DiscountPercent: 5},
}

// Quote is the full price breakdown for a cart. Amounts are whole pesos.
type Quote struct {
	Subtotal        int64
	TotalQuantity   int
	DiscountPercent int
	Discount        int64
	Total           int64
}

// TierStatus reports how far a cart is from each configured tier.
type TierStatus struct {
	MinQuantity     int
	DiscountPercent int
	Reached         bool
	UnitsRemaining  int
}

// Line is the minimal cart line shape the engine prices.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Engine computes volume discounts from a fixed tier table.
type Engine struct {
	tiers []Tier // sorted by MinQuantity descending
}

// NewEngine builds an engine from the given tiers; nil or empty falls
// back to DefaultTiers.
func NewEngine(tiers []Tier) *Engine {
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity > sorted[j].MinQuantity
	})
	return &Engine{tiers: sorted}
}

// Tiers returns the configured tiers, highest threshold first.
func (e *Engine) Tiers() []Tier {
	out := make([]Tier, len(e.tiers))
	copy(out, e.tiers)
	return out
}

// Quote prices the given lines. The highest tier whose threshold the
// total quantity meets wins; below every threshold the discount is zero.
func (e *Engine) Quote(lines []Line) Quote {
	var subtotal int64
	var totalQty int
	for _, line := range lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
		totalQty += line.Quantity
	}

	percent := e.percentFor(totalQty)
	discount := discountAmount(subtotal, percent)

	return Quote{
		Subtotal:        subtotal,
		TotalQuantity:   totalQty,
		DiscountPercent: percent,
		Discount:        discount,
		Total:           subtotal - discount,
	}
}

// Progress reports, for each tier, whether the quantity qualifies and
// how many units remain to reach it.
func (e *Engine) Progress(totalQty int) []TierStatus {
	statuses := make([]TierStatus, 0, len(e.tiers))
	for _, tier := range e.tiers {
		status := TierStatus{
			MinQuantity:     tier.MinQuantity,
			DiscountPercent: tier.DiscountPercent,
			Reached:         totalQty >= tier.MinQuantity,
		}
		if !status.Reached {
			status.UnitsRemaining = tier.MinQuantity - totalQty
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (e *Engine) percentFor(totalQty int) int {
	for _, tier := range e.tiers {
		if totalQty >= tier.MinQuantity {
			return tier.DiscountPercent
		}
	}
	return 0
}

func discountAmount(subtotal int64, percent int) int64 {
	if subtotal <= 0 || percent <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// ParseTiers reads a "minQty:percent,minQty:percent" spec, as carried
// in configuration.
func ParseTiers(spec string) ([]Tier, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return nil, nil
	}

	var tiers []Tier
	for _, pair := range strings.Split(trimmed, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid tier %q (expected minQty:percent)", pair)
		}
		minQty, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || minQty <= 0 {
			return nil, fmt.Errorf("invalid tier quantity %q", parts[0])
		}
		percent, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || percent < 0 || percent > 100 {
			return nil, fmt.Errorf("invalid tier percent %q", parts[1])
		}
		tiers = append(tiers, Tier{MinQuantity: minQty, DiscountPercent: percent})
	}
	return tiers, nil
}
