// Package customers persists the chat users who place orders.
package customers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
)

// Repository wires customer persistence helpers.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByChatID loads the customer for a chat, or nil when unknown.
func (r *Repository) FindByChatID(ctx context.Context, chatID string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).First(&customer, "chat_id = ?", chatID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpsertInput carries the fields refreshed on every order.
type UpsertInput struct {
	ChatID string
	Name   string
	Phone  *string
	Email  *string
}

// Upsert creates the customer on first contact and refreshes name,
// contact details and last_seen on every later order.
func (r *Repository) Upsert(ctx context.Context, input UpsertInput) (*models.Customer, error) {
	existing, err := r.FindByChatID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if existing == nil {
		customer := &models.Customer{
			ID:       uuid.New(),
			ChatID:   input.ChatID,
			Name:     input.Name,
			Phone:    input.Phone,
			Email:    input.Email,
			LastSeen: &now,
		}
		if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
			return nil, err
		}
		return customer, nil
	}

	if input.Name != "" {
		existing.Name = input.Name
	}
	if input.Phone != nil {
		existing.Phone = input.Phone
	}
	if input.Email != nil {
		existing.Email = input.Email
	}
	existing.LastSeen = &now
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}
