// Package chat routes normalized conversation events to the catalog,
// cart, order pipeline, preorder wizard and answer resolver, holding
// the session lock for the whole turn so updates for one chat are
// processed strictly in order.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/casahojaldre/chatbot-backend/internal/answers"
	"github.com/casahojaldre/chatbot-backend/internal/cart"
	"github.com/casahojaldre/chatbot-backend/internal/catalog"
	"github.com/casahojaldre/chatbot-backend/internal/conv"
	"github.com/casahojaldre/chatbot-backend/internal/orders"
	"github.com/casahojaldre/chatbot-backend/internal/preorder"
	"github.com/casahojaldre/chatbot-backend/internal/pricing"
	"github.com/casahojaldre/chatbot-backend/internal/session"
	"github.com/casahojaldre/chatbot-backend/pkg/config"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
	"github.com/casahojaldre/chatbot-backend/pkg/metrics"
)

// Dispatcher owns one conversational turn end to end.
type Dispatcher struct {
	logg     *logger.Logger
	sessions *session.Store
	cart     *cart.Store
	catalog  catalog.Service
	orders   orders.Service
	wizard   preorder.Service
	answers  answers.Service
	engine   *pricing.Engine
	metrics  *metrics.BotMetrics
	business config.BusinessConfig
	resolver config.ResolverConfig
}

// DispatcherParams wires the dispatcher's collaborators.
type DispatcherParams struct {
	Logger   *logger.Logger
	Sessions *session.Store
	Cart     *cart.Store
	Catalog  catalog.Service
	Orders   orders.Service
	Wizard   preorder.Service
	Answers  answers.Service
	Engine   *pricing.Engine
	Metrics  *metrics.BotMetrics
	Business config.BusinessConfig
	Resolver config.ResolverConfig
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Wizard == nil {
		return nil, fmt.Errorf("preorder wizard required")
	}
	if params.Answers == nil {
		return nil, fmt.Errorf("answer resolver required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	return &Dispatcher{
		logg:     params.Logger,
		sessions: params.Sessions,
		cart:     params.Cart,
		catalog:  params.Catalog,
		orders:   params.Orders,
		wizard:   params.Wizard,
		answers:  params.Answers,
		engine:   params.Engine,
		metrics:  params.Metrics,
		business: params.Business,
		resolver: params.Resolver,
	}, nil
}

// Dispatch handles one event under the session lock and returns the
// reply to send back to the chat.
func (d *Dispatcher) Dispatch(ctx context.Context, event conv.Event) (conv.Reply, error) {
	if event.SessionID == "" {
		return conv.Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	state := d.sessions.Acquire(event.SessionID)
	defer d.sessions.Release(event.SessionID)

	if event.DisplayName != "" {
		state.DisplayName = event.DisplayName
	}
	ctx = d.logg.WithSessionID(ctx, event.SessionID)

	if isMenuCommand(event.Text) {
		if state.Mode == session.ModeWizard {
			d.metrics.IncWizardOutcome("abandoned")
		}
		state.Mode = session.ModeOrdering
		state.Wizard = nil
		return d.mainMenu(state), nil
	}

	if state.Mode == session.ModeWizard {
		return d.dispatchWizard(ctx, state, event)
	}

	if event.IsCallback() {
		return d.dispatchAction(ctx, state, event)
	}
	return d.dispatchText(ctx, state, event)
}

func isMenuCommand(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/start", "/menu", "menu", "menú", "hola", "inicio":
		return true
	}
	return false
}

func (d *Dispatcher) dispatchAction(ctx context.Context, state *session.State, event conv.Event) (conv.Reply, error) {
	action, err := conv.ParseCallback(event.CallbackData)
	if err != nil {
		d.logg.Warn(ctx, "unrecognized callback data")
		return conv.Reply{Text: "No entendí esa opción. Escribe *menú* para empezar de nuevo."}, nil
	}

	switch a := action.(type) {
	case conv.ShowMenu:
		state.Mode = session.ModeOrdering
		return d.mainMenu(state), nil

	case conv.ShowCatalog:
		return d.showCatalog(ctx)

	case conv.ShowCategory:
		return d.showCategory(ctx, a.CategoryID)

	case conv.ShowProduct:
		return d.showProduct(ctx, a.ProductID)

	case conv.AddToCart:
		return d.addToCart(ctx, state, a)

	case conv.ViewCart:
		return d.viewCart(state), nil

	case conv.ClearCart:
		d.cart.Clear(state.ID)
		return conv.Reply{
			Text: "🧹 Listo, vacié tu carrito.",
			Buttons: conv.Row(
				conv.Button{Label: "🥐 Ver menú", Data: conv.ShowCatalog{}.Callback()},
				conv.Button{Label: "🏠 Menú principal", Data: conv.ShowMenu{}.Callback()},
			),
		}, nil

	case conv.ConfirmOrder:
		return d.confirmOrder(ctx, state, nil)

	case conv.StartPreorder:
		return d.startWizard(ctx, state)

	case conv.StartFreeChat:
		state.Mode = session.ModeFreeChat
		return conv.Reply{
			Text:    "💬 ¡Claro! Pregúntame lo que quieras sobre nuestros productos, horarios o pedidos.",
			Buttons: conv.Row(conv.Button{Label: "⬅️ Menú principal", Data: conv.ShowMenu{}.Callback()}),
		}, nil
	}

	// Wizard callbacks pressed after the flow ended land here.
	d.logg.Warn(ctx, "callback outside of its flow")
	return conv.Reply{Text: "Esa opción ya no está activa. Escribe *menú* para empezar de nuevo."}, nil
}

func (d *Dispatcher) dispatchText(ctx context.Context, state *session.State, event conv.Event) (conv.Reply, error) {
	question := strings.TrimSpace(event.Text)
	if question == "" {
		return d.mainMenu(state), nil
	}

	answer, err := d.answers.Resolve(ctx, answers.Query{
		SessionID: event.SessionID,
		Text:      question,
		History:   state.History,
	})
	if err != nil {
		return conv.Reply{}, err
	}

	state.Remember(conv.RoleUser, question, d.historyLimit())
	state.Remember(conv.RoleAssistant, answer.Text, d.historyLimit())

	var buttons [][]conv.Button
	if row := suggestionButtons(answer.Suggestions); len(row) > 0 {
		buttons = append(buttons, row)
	}
	buttons = append(buttons, []conv.Button{{Label: "🏠 Menú principal", Data: conv.ShowMenu{}.Callback()}})

	return conv.Reply{
		Text:    answer.Text,
		Buttons: buttons,
	}, nil
}

const maxSuggestionButtons = 3

func suggestionButtons(suggestions []answers.ProductSuggestion) []conv.Button {
	var row []conv.Button
	for _, suggestion := range suggestions {
		if suggestion.ProductID == uuid.Nil || suggestion.Name == "" {
			continue
		}
		row = append(row, conv.Button{
			Label: suggestion.Name,
			Data:  conv.ShowProduct{ProductID: suggestion.ProductID}.Callback(),
		})
		if len(row) == maxSuggestionButtons {
			break
		}
	}
	return row
}

func (d *Dispatcher) historyLimit() int {
	if d.resolver.HistoryWindow > 0 {
		return d.resolver.HistoryWindow
	}
	return 10
}

func (d *Dispatcher) startWizard(ctx context.Context, state *session.State) (conv.Reply, error) {
	if d.cart.IsEmpty(state.ID) {
		return conv.Reply{
			Text:    "🛒 Tu carrito está vacío. Agrega productos antes de programar un pedido anticipado.",
			Buttons: conv.Row(conv.Button{Label: "🥐 Ver menú", Data: conv.ShowMenu{}.Callback()}),
		}, nil
	}

	wizardSession, reply, err := d.wizard.Begin(ctx, preorder.Identity{
		ChatID:      state.ID,
		DisplayName: state.DisplayName,
	})
	if err != nil {
		return conv.Reply{}, err
	}
	state.Mode = session.ModeWizard
	state.Wizard = wizardSession
	d.metrics.IncWizardOutcome("started")
	return reply, nil
}

func (d *Dispatcher) dispatchWizard(ctx context.Context, state *session.State, event conv.Event) (conv.Reply, error) {
	result, err := d.wizard.Handle(ctx, state.Wizard, event)
	if err != nil {
		return conv.Reply{}, err
	}

	if result.Cancelled {
		state.Mode = session.ModeOrdering
		state.Wizard = nil
		d.metrics.IncWizardOutcome("cancelled")
		return result.Reply, nil
	}
	if result.Completed {
		state.Mode = session.ModeOrdering
		state.Wizard = nil
		d.metrics.IncWizardOutcome("completed")
		return d.confirmOrder(ctx, state, result.Details)
	}
	return result.Reply, nil
}

func (d *Dispatcher) addToCart(ctx context.Context, state *session.State, action conv.AddToCart) (conv.Reply, error) {
	product, err := d.catalog.Product(ctx, action.ProductID)
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound {
			return conv.Reply{Text: "Ese producto ya no está disponible. Escribe *menú* para ver el catálogo actual."}, nil
		}
		return conv.Reply{}, err
	}

	line := cart.Line{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		Quantity:  action.Quantity,
	}
	if err := d.cart.Add(state.ID, line); err != nil {
		return conv.Reply{}, err
	}
	state.Mode = session.ModeOrdering

	return d.addedToCartReply(state, product.Name, action.Quantity), nil
}

func (d *Dispatcher) confirmOrder(ctx context.Context, state *session.State, details *preorder.Details) (conv.Reply, error) {
	lines := d.cart.Lines(state.ID)
	if len(lines) == 0 {
		return conv.Reply{
			Text:    "🛒 Tu carrito está vacío. Agrega productos antes de confirmar.",
			Buttons: conv.Row(conv.Button{Label: "🥐 Ver menú", Data: conv.ShowMenu{}.Callback()}),
		}, nil
	}

	confirmation, err := d.orders.Confirm(ctx, orders.ConfirmInput{
		SessionID:   state.ID,
		DisplayName: state.DisplayName,
		Lines:       lines,
		Preorder:    details,
	})
	if err != nil {
		d.logg.Error(ctx, "order confirmation failed", err)
		return conv.Reply{Text: "😔 No pudimos registrar tu pedido. Inténtalo de nuevo en un momento."}, nil
	}

	d.cart.Clear(state.ID)
	reply, err := d.confirmationReply(ctx, confirmation, details)
	if err != nil {
		return conv.Reply{}, err
	}
	return reply, nil
}
