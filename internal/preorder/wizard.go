// Package preorder implements the guided preorder wizard: a linear
// question flow that collects contact and pickup details before an
// order is placed.
package preorder

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/casahojaldre/chatbot-backend/internal/conv"
	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	"github.com/casahojaldre/chatbot-backend/pkg/enums"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
)

const (
	// Pickup must be booked at least one day ahead and at most a week out.
	minLeadDays = 1
	maxLeadDays = 7

	// Pickup hours, inclusive on both ends.
	firstPickupHour = 8
	lastPickupHour  = 18
)

// Session is the wizard's per-chat state. It lives inside the chat
// session and is discarded once the flow completes or is cancelled.
type Session struct {
	State        State
	Name         string
	CustomerType enums.CustomerType
	Email        string
	Phone        string
	Company      string
	LocationID   uuid.UUID
	LocationName string
	PickupDate   time.Time
	PickupTime   string
}

// Identity is what the transport already knows about the chat peer.
// Begin uses it to look up the customer record and pre-fill the wizard.
type Identity struct {
	ChatID      string
	DisplayName string
}

// Details is the completed wizard output handed to the order pipeline.
type Details struct {
	CustomerType enums.CustomerType
	Email        string
	Phone        string
	Company      string
	LocationID   uuid.UUID
	LocationName string
	PickupDate   time.Time
	PickupTime   string
}

// Result is the outcome of feeding one event to the wizard.
type Result struct {
	Reply     conv.Reply
	Completed bool
	Cancelled bool
	Details   *Details
}

type locationsReader interface {
	ListActivePickupLocations(ctx context.Context) ([]models.PickupLocation, error)
}

type customersReader interface {
	FindByChatID(ctx context.Context, chatID string) (*models.Customer, error)
}

// Service drives the wizard state machine.
type Service interface {
	Begin(ctx context.Context, identity Identity) (*Session, conv.Reply, error)
	Handle(ctx context.Context, sess *Session, event conv.Event) (Result, error)
}

type service struct {
	locations locationsReader
	customers customersReader
	now       func() time.Time
}

// NewService builds the wizard. customers may be nil, in which case the
// flow starts without pre-filled contact details.
func NewService(locations locationsReader, customers customersReader, now func() time.Time) (Service, error) {
	if locations == nil {
		return nil, fmt.Errorf("pickup locations reader required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{locations: locations, customers: customers, now: now}, nil
}

func (s *service) Begin(ctx context.Context, identity Identity) (*Session, conv.Reply, error) {
	sess := &Session{State: StateSelectingType, Name: identity.DisplayName}

	// Pre-fill is best effort: a returning customer skips retyping
	// contact details, a lookup failure just starts the flow blank.
	if s.customers != nil && identity.ChatID != "" {
		if customer, err := s.customers.FindByChatID(ctx, identity.ChatID); err == nil && customer != nil {
			if customer.Name != "" {
				sess.Name = customer.Name
			}
			if customer.Email != nil {
				sess.Email = *customer.Email
			}
			if customer.Phone != nil {
				sess.Phone = *customer.Phone
			}
		}
	}
	if sess.Name == "" {
		sess.Name = "Cliente"
	}
	return sess, promptType(sess), nil
}

func (s *service) Handle(ctx context.Context, sess *Session, event conv.Event) (Result, error) {
	if sess == nil || !sess.State.IsValid() {
		return Result{}, pkgerrors.New(pkgerrors.CodeInvariant, "preorder session in unknown state")
	}

	if isCancelText(event.Text) {
		return cancelled(), nil
	}

	if event.IsCallback() {
		action, err := conv.ParseCallback(event.CallbackData)
		if err != nil {
			return s.reprompt(ctx, sess)
		}
		switch a := action.(type) {
		case conv.CancelPreorder:
			return cancelled(), nil
		case conv.WizardBack:
			return s.handleBack(ctx, sess, a)
		}
		return s.handleAction(ctx, sess, action)
	}

	return s.handleText(ctx, sess, event.Text)
}

func (s *service) handleBack(ctx context.Context, sess *Session, back conv.WizardBack) (Result, error) {
	target := State(back.State)
	if !target.IsValid() || target.order() >= sess.State.order() {
		return s.reprompt(ctx, sess)
	}
	sess.State = target
	return s.reprompt(ctx, sess)
}

func (s *service) handleAction(ctx context.Context, sess *Session, action conv.Action) (Result, error) {
	switch sess.State {
	case StateSelectingType:
		choice, ok := action.(conv.ChooseCustomerType)
		if !ok {
			return s.reprompt(ctx, sess)
		}
		kind, err := enums.ParseCustomerType(choice.Type)
		if err != nil {
			return s.reprompt(ctx, sess)
		}
		sess.CustomerType = kind
		sess.State = StateEnteringEmail
		return Result{Reply: promptEmail(sess)}, nil

	case StateSelectingLocation:
		choice, ok := action.(conv.ChoosePickupLocation)
		if !ok {
			return s.reprompt(ctx, sess)
		}
		location, err := s.findLocation(ctx, choice.LocationID)
		if err != nil {
			return Result{}, err
		}
		if location == nil {
			return s.reprompt(ctx, sess)
		}
		sess.LocationID = location.ID
		sess.LocationName = location.Name
		sess.State = StateSelectingDate
		return Result{Reply: s.promptDate()}, nil

	case StateSelectingDate:
		choice, ok := action.(conv.ChoosePickupDate)
		if !ok {
			return s.reprompt(ctx, sess)
		}
		date, err := time.ParseInLocation("2006-01-02", choice.Date, s.now().Location())
		if err != nil || !s.dateInWindow(date) {
			return s.reprompt(ctx, sess)
		}
		sess.PickupDate = date
		sess.State = StateSelectingTime
		return Result{Reply: promptTime()}, nil

	case StateSelectingTime:
		choice, ok := action.(conv.ChoosePickupTime)
		if !ok {
			return s.reprompt(ctx, sess)
		}
		if !validPickupTime(choice.Time) {
			return s.reprompt(ctx, sess)
		}
		sess.PickupTime = choice.Time
		sess.State = StateConfirming
		return Result{Reply: promptSummary(sess)}, nil

	case StateConfirming:
		if _, ok := action.(conv.ConfirmPreorder); !ok {
			return s.reprompt(ctx, sess)
		}
		details := &Details{
			CustomerType: sess.CustomerType,
			Email:        sess.Email,
			Phone:        sess.Phone,
			Company:      sess.Company,
			LocationID:   sess.LocationID,
			LocationName: sess.LocationName,
			PickupDate:   sess.PickupDate,
			PickupTime:   sess.PickupTime,
		}
		return Result{Completed: true, Details: details}, nil
	}

	return s.reprompt(ctx, sess)
}

func (s *service) handleText(ctx context.Context, sess *Session, text string) (Result, error) {
	text = strings.TrimSpace(text)

	switch sess.State {
	case StateEnteringEmail:
		if !keepPrefilled(sess.Email, text) {
			if !ValidEmail(text) {
				return Result{Reply: conv.Reply{Text: "Ese correo no parece válido. 🤔 Escríbelo de nuevo, por ejemplo: maria@gmail.com"}}, nil
			}
			sess.Email = text
		}
		sess.State = StateEnteringPhone
		return Result{Reply: promptPhone(sess)}, nil

	case StateEnteringPhone:
		if !keepPrefilled(sess.Phone, text) {
			if !ValidPhone(text) {
				return Result{Reply: conv.Reply{Text: "Ese número no parece válido. 🤔 Escríbelo de nuevo, por ejemplo: 301 417 0313"}}, nil
			}
			sess.Phone = text
		}
		if sess.CustomerType == enums.CustomerTypeWholesale {
			sess.State = StateEnteringCompany
			return Result{Reply: promptCompany()}, nil
		}
		sess.State = StateSelectingLocation
		return s.advanceToLocation(ctx, sess)

	case StateEnteringCompany:
		if strings.EqualFold(text, "omitir") {
			sess.Company = ""
			sess.State = StateSelectingLocation
			return s.advanceToLocation(ctx, sess)
		}
		if text == "" {
			return Result{Reply: conv.Reply{Text: "Escribe el nombre de tu empresa o negocio, o *omitir* si prefieres no darlo. 🏢"}}, nil
		}
		sess.Company = text
		sess.State = StateSelectingLocation
		return s.advanceToLocation(ctx, sess)
	}

	// Button-driven steps ignore free text and re-ask.
	return s.reprompt(ctx, sess)
}

func (s *service) advanceToLocation(ctx context.Context, sess *Session) (Result, error) {
	reply, err := s.promptLocation(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Reply: reply}, nil
}

func (s *service) reprompt(ctx context.Context, sess *Session) (Result, error) {
	switch sess.State {
	case StateSelectingType:
		return Result{Reply: promptType(sess)}, nil
	case StateEnteringEmail:
		return Result{Reply: promptEmail(sess)}, nil
	case StateEnteringPhone:
		return Result{Reply: promptPhone(sess)}, nil
	case StateEnteringCompany:
		return Result{Reply: promptCompany()}, nil
	case StateSelectingLocation:
		return s.advanceToLocation(ctx, sess)
	case StateSelectingDate:
		return Result{Reply: s.promptDate()}, nil
	case StateSelectingTime:
		return Result{Reply: promptTime()}, nil
	case StateConfirming:
		return Result{Reply: promptSummary(sess)}, nil
	}
	return Result{}, pkgerrors.New(pkgerrors.CodeInvariant, "preorder session in unknown state")
}

func (s *service) findLocation(ctx context.Context, id uuid.UUID) (*models.PickupLocation, error) {
	locations, err := s.locations.ListActivePickupLocations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range locations {
		if locations[i].ID == id {
			return &locations[i], nil
		}
	}
	return nil, nil
}

func (s *service) dateInWindow(date time.Time) bool {
	today := truncateToDay(s.now())
	diff := int(truncateToDay(date).Sub(today).Hours() / 24)
	return diff >= minLeadDays && diff <= maxLeadDays
}

// ValidEmail applies the same loose check the bot has always used: an
// address needs an '@' and a '.' somewhere after the first character.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if len(email) < 5 {
		return false
	}
	at := strings.Index(email, "@")
	if at < 1 {
		return false
	}
	return strings.Contains(email[at:], ".")
}

// ValidPhone accepts digits with optional '+', spaces and dashes, and
// requires at least seven digits.
func ValidPhone(phone string) bool {
	digits := 0
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	return digits >= 7
}

func validPickupTime(value string) bool {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return false
	}
	hour := parsed.Hour()
	if hour < firstPickupHour || hour > lastPickupHour {
		return false
	}
	return !(hour == lastPickupHour && parsed.Minute() > 0)
}

func isCancelText(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "cancelar")
}

// keepPrefilled reports whether the user answered "ok" to reuse a value
// the wizard already pre-filled from their customer record.
func keepPrefilled(prefilled, text string) bool {
	return prefilled != "" && strings.EqualFold(text, "ok")
}

func cancelled() Result {
	return Result{
		Reply:     conv.Reply{Text: "Listo, cancelé el pedido anticipado. Escribe *menú* cuando quieras empezar de nuevo. 👋"},
		Cancelled: true,
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
