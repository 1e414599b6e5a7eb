package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/casahojaldre/chatbot-backend/internal/cart"
	"github.com/casahojaldre/chatbot-backend/internal/conv"
	"github.com/casahojaldre/chatbot-backend/internal/orders"
	"github.com/casahojaldre/chatbot-backend/internal/preorder"
	"github.com/casahojaldre/chatbot-backend/internal/session"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
	"github.com/casahojaldre/chatbot-backend/pkg/types"
)

// quantityChoices are the quick-add buttons shown under a product.
var quantityChoices = []int{1, 6, 12, 24}

func (d *Dispatcher) mainMenu(state *session.State) conv.Reply {
	name := state.DisplayName
	greeting := "¡Hola!"
	if name != "" {
		greeting = fmt.Sprintf("¡Hola, %s!", name)
	}

	text := fmt.Sprintf(
		"%s 👋 Bienvenido a *%s*.\n\n¿Qué quieres hacer hoy?",
		greeting, d.business.Name,
	)
	return conv.Reply{
		Text: text,
		Buttons: [][]conv.Button{
			{{Label: "🥐 Ver menú", Data: conv.ShowCatalog{}.Callback()}},
			{{Label: "🛒 Ver carrito", Data: conv.ViewCart{}.Callback()}},
			{{Label: "📋 Pedido anticipado", Data: conv.StartPreorder{}.Callback()}},
			{{Label: "💬 Tengo una pregunta", Data: conv.StartFreeChat{}.Callback()}},
		},
	}
}

func (d *Dispatcher) showCatalog(ctx context.Context) (conv.Reply, error) {
	categories, err := d.catalog.Categories(ctx)
	if err != nil {
		return conv.Reply{}, err
	}
	if len(categories) == 0 {
		return conv.Reply{
			Text:    "Por ahora no tenemos catálogo cargado. Vuelve a intentarlo más tarde. 😔",
			Buttons: conv.Row(conv.Button{Label: "🏠 Menú principal", Data: conv.ShowMenu{}.Callback()}),
		}, nil
	}

	buttons := make([][]conv.Button, 0, len(categories)+1)
	for _, category := range categories {
		label := category.Name
		if category.IconEmoji != "" {
			label = category.IconEmoji + " " + category.Name
		}
		buttons = append(buttons, []conv.Button{{
			Label: label,
			Data:  conv.ShowCategory{CategoryID: category.ID}.Callback(),
		}})
	}
	buttons = append(buttons, []conv.Button{{Label: "🏠 Menú principal", Data: conv.ShowMenu{}.Callback()}})

	return conv.Reply{Text: "🥐 ¿Qué se te antoja hoy?", Buttons: buttons}, nil
}

func (d *Dispatcher) showCategory(ctx context.Context, categoryID uuid.UUID) (conv.Reply, error) {
	products, err := d.catalog.Products(ctx, categoryID)
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound {
			return conv.Reply{Text: "Esa categoría ya no existe. Escribe *menú* para ver el catálogo actual."}, nil
		}
		return conv.Reply{}, err
	}
	if len(products) == 0 {
		return conv.Reply{
			Text:    "Por ahora no hay productos en esta categoría. 😔",
			Buttons: conv.Row(conv.Button{Label: "⬅️ Categorías", Data: conv.ShowCatalog{}.Callback()}),
		}, nil
	}

	buttons := make([][]conv.Button, 0, len(products)+1)
	for _, product := range products {
		label := fmt.Sprintf("%s · %s", product.Name, types.FormatCOP(product.UnitPrice))
		buttons = append(buttons, []conv.Button{{
			Label: label,
			Data:  conv.ShowProduct{ProductID: product.ID}.Callback(),
		}})
	}
	buttons = append(buttons, []conv.Button{{Label: "⬅️ Categorías", Data: conv.ShowCatalog{}.Callback()}})

	return conv.Reply{Text: "Elige un producto:", Buttons: buttons}, nil
}

func (d *Dispatcher) showProduct(ctx context.Context, productID uuid.UUID) (conv.Reply, error) {
	product, err := d.catalog.Product(ctx, productID)
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound {
			return conv.Reply{Text: "Ese producto ya no está disponible. Escribe *menú* para ver el catálogo actual."}, nil
		}
		return conv.Reply{}, err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("*%s*\n", product.Name))
	if product.Description != nil && *product.Description != "" {
		b.WriteString(*product.Description + "\n")
	}
	b.WriteString(fmt.Sprintf("\nPrecio: %s por unidad", types.FormatCOP(product.UnitPrice)))
	b.WriteString("\n\n¿Cuántas unidades quieres?")

	row := make([]conv.Button, 0, len(quantityChoices))
	for _, qty := range quantityChoices {
		row = append(row, conv.Button{
			Label: fmt.Sprintf("%d", qty),
			Data:  conv.AddToCart{ProductID: product.ID, Quantity: qty}.Callback(),
		})
	}

	return conv.Reply{
		Text: b.String(),
		Buttons: [][]conv.Button{
			row,
			{{Label: "⬅️ Categorías", Data: conv.ShowCatalog{}.Callback()}},
		},
	}, nil
}

func (d *Dispatcher) addedToCartReply(state *session.State, productName string, quantity int) conv.Reply {
	totalQty := d.cart.TotalQuantity(state.ID)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ Agregué *%d x %s* a tu carrito.\n", quantity, productName))
	b.WriteString(fmt.Sprintf("Llevas %d unidades en total.\n", totalQty))
	b.WriteString(d.tierProgressText(totalQty))

	return conv.Reply{
		Text: b.String(),
		Buttons: [][]conv.Button{
			{{Label: "🥐 Seguir comprando", Data: conv.ShowCatalog{}.Callback()}},
			{{Label: "🛒 Ver carrito", Data: conv.ViewCart{}.Callback()}},
		},
	}
}

// tierProgressText tells the user how far they are from the next
// volume discount.
func (d *Dispatcher) tierProgressText(totalQty int) string {
	var current string
	for _, tier := range d.engine.Progress(totalQty) {
		if tier.Reached {
			current = fmt.Sprintf("🎉 Ya tienes el *%d%% de descuento* por volumen.", tier.DiscountPercent)
			break
		}
	}

	var next string
	for i := len(d.engine.Tiers()) - 1; i >= 0; i-- {
		tier := d.engine.Tiers()[i]
		if totalQty < tier.MinQuantity {
			next = fmt.Sprintf("Te faltan %d unidades para el %d%% de descuento.",
				tier.MinQuantity-totalQty, tier.DiscountPercent)
			break
		}
	}

	switch {
	case current != "" && next != "":
		return current + " " + next
	case current != "":
		return current
	case next != "":
		return next
	}
	return ""
}

func (d *Dispatcher) viewCart(state *session.State) conv.Reply {
	lines := d.cart.Lines(state.ID)
	if len(lines) == 0 {
		return conv.Reply{
			Text:    "🛒 Tu carrito está vacío.",
			Buttons: conv.Row(conv.Button{Label: "🥐 Ver menú", Data: conv.ShowCatalog{}.Callback()}),
		}
	}

	quote := d.engine.Quote(cart.PricingLines(lines))

	var b strings.Builder
	b.WriteString("🛒 *Tu carrito:*\n\n")
	for _, line := range lines {
		b.WriteString(fmt.Sprintf("• %d x %s = %s\n",
			line.Quantity, line.Name, types.FormatCOP(line.UnitPrice*int64(line.Quantity))))
	}
	b.WriteString(fmt.Sprintf("\nSubtotal: %s\n", types.FormatCOP(quote.Subtotal)))
	if quote.Discount > 0 {
		b.WriteString(fmt.Sprintf("Descuento (%d%%): -%s\n", quote.DiscountPercent, types.FormatCOP(quote.Discount)))
	}
	b.WriteString(fmt.Sprintf("*Total: %s*\n", types.FormatCOP(quote.Total)))
	if progress := d.tierProgressText(quote.TotalQuantity); progress != "" {
		b.WriteString("\n" + progress)
	}

	return conv.Reply{
		Text: b.String(),
		Buttons: [][]conv.Button{
			{{Label: "✅ Confirmar pedido", Data: conv.ConfirmOrder{}.Callback()}},
			{{Label: "📋 Pedido anticipado", Data: conv.StartPreorder{}.Callback()}},
			{{Label: "🥐 Seguir comprando", Data: conv.ShowCatalog{}.Callback()}},
			{{Label: "🧹 Vaciar carrito", Data: conv.ClearCart{}.Callback()}},
		},
	}
}

func (d *Dispatcher) confirmationReply(ctx context.Context, confirmation *orders.Confirmation, details *preorder.Details) (conv.Reply, error) {
	quote := confirmation.Quote

	var b strings.Builder
	b.WriteString("🎉 *¡Pedido registrado!*\n\n")
	for _, item := range confirmation.Order.Items {
		b.WriteString(fmt.Sprintf("• %d x %s = %s\n", item.Quantity, item.Name, types.FormatCOP(item.Subtotal)))
	}
	b.WriteString(fmt.Sprintf("\nSubtotal: %s\n", types.FormatCOP(quote.Subtotal)))
	if quote.Discount > 0 {
		b.WriteString(fmt.Sprintf("Descuento (%d%%): -%s\n", quote.DiscountPercent, types.FormatCOP(quote.Discount)))
	}
	b.WriteString(fmt.Sprintf("*Total: %s*\n\n", types.FormatCOP(quote.Total)))

	anticipoPercent := d.business.AnticipoPercent
	if anticipoPercent <= 0 {
		anticipoPercent = 50
	}
	b.WriteString(fmt.Sprintf(
		"💰 Para confirmarlo, envía un anticipo del %d%%: *%s* por %s al *%s*.\n",
		anticipoPercent, types.FormatCOP(confirmation.Anticipo), d.business.PaymentMethods, d.business.PaymentPhone,
	))

	if details != nil {
		b.WriteString(fmt.Sprintf(
			"\n📍 Recoges en *%s* el %s a las %s.\n",
			details.LocationName, details.PickupDate.Format("2006-01-02"), details.PickupTime,
		))
	} else {
		locations, err := d.catalog.ListActivePickupLocations(ctx)
		if err != nil {
			return conv.Reply{}, err
		}
		if len(locations) > 0 {
			b.WriteString("\n📍 Puedes recoger tu pedido en:\n")
			for _, loc := range locations {
				b.WriteString(fmt.Sprintf("• %s (%s): %s\n", loc.Name, loc.Neighborhood, loc.Address))
			}
		}
	}

	b.WriteString("\n¡Gracias por tu compra! 🥐")

	return conv.Reply{
		Text:    b.String(),
		Buttons: conv.Row(conv.Button{Label: "🏠 Menú principal", Data: conv.ShowMenu{}.Callback()}),
	}, nil
}
