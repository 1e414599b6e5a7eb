package cart

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/casahojaldre/chatbot-backend/internal/pricing"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
)

// Line is one addition to a session's cart. Repeated additions of the
// same product stay as separate lines; nothing ever merges or edits a
// line in place.
type Line struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice int64
	Quantity  int
}

// Store keeps per-session carts in memory. Carts live only as long as
// the process; a confirmed order is the durable record.
type Store struct {
	mu    sync.RWMutex
	lines map[string][]Line
}

// NewStore builds an empty cart store.
func NewStore() *Store {
	return &Store{lines: make(map[string][]Line)}
}

// Add appends a line to the session's cart.
func (s *Store) Add(sessionID string, line Line) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if line.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(line.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if line.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if line.UnitPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[sessionID] = append(s.lines[sessionID], line)
	return nil
}

// Lines returns a copy of the session's cart in insertion order.
func (s *Store) Lines(sessionID string) []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing := s.lines[sessionID]
	out := make([]Line, len(existing))
	copy(out, existing)
	return out
}

// IsEmpty reports whether the session has no cart lines.
func (s *Store) IsEmpty(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines[sessionID]) == 0
}

// TotalQuantity sums units across every line in the session's cart.
func (s *Store) TotalQuantity(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int
	for _, line := range s.lines[sessionID] {
		total += line.Quantity
	}
	return total
}

// Clear drops the session's cart.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, sessionID)
}

// PricingLines projects the cart into the shape the discount engine prices.
func PricingLines(lines []Line) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, pricing.Line{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}
	return out
}
