package preorder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/casahojaldre/chatbot-backend/internal/conv"
	"github.com/casahojaldre/chatbot-backend/pkg/enums"
)

var spanishWeekdays = map[time.Weekday]string{
	time.Monday:    "lun",
	time.Tuesday:   "mar",
	time.Wednesday: "mié",
	time.Thursday:  "jue",
	time.Friday:    "vie",
	time.Saturday:  "sáb",
	time.Sunday:    "dom",
}

var spanishMonths = map[time.Month]string{
	time.January:   "ene",
	time.February:  "feb",
	time.March:     "mar",
	time.April:     "abr",
	time.May:       "may",
	time.June:      "jun",
	time.July:      "jul",
	time.August:    "ago",
	time.September: "sep",
	time.October:   "oct",
	time.November:  "nov",
	time.December:  "dic",
}

func spanishDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s", spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()])
}

func backButton(target State) conv.Button {
	return conv.Button{Label: "⬅️ Atrás", Data: conv.WizardBack{State: target.String()}.Callback()}
}

func promptType(sess *Session) conv.Reply {
	return conv.Reply{
		Text: fmt.Sprintf("¡Hola, %s! Vamos a armar tu pedido anticipado. 📋\n\n¿Es un pedido personal o para tu negocio?\n\n_Escribe *cancelar* en cualquier momento para salir._", sess.Name),
		Buttons: [][]conv.Button{
			{
				{Label: "🙋 Personal", Data: conv.ChooseCustomerType{Type: enums.CustomerTypeIndividual.String()}.Callback()},
				{Label: "🏪 Mayorista", Data: conv.ChooseCustomerType{Type: enums.CustomerTypeWholesale.String()}.Callback()},
			},
		},
	}
}

func promptEmail(sess *Session) conv.Reply {
	text := "Perfecto. 📧 ¿Cuál es tu correo electrónico?"
	if sess.Email != "" {
		text = fmt.Sprintf("Perfecto. 📧 Tengo guardado el correo *%s*. Escribe *ok* para usarlo, o envíame uno nuevo.", sess.Email)
	}
	return conv.Reply{
		Text: text,
		Buttons: [][]conv.Button{
			{backButton(StateSelectingType)},
		},
	}
}

func promptPhone(sess *Session) conv.Reply {
	text := "📱 ¿A qué número de celular te podemos contactar?"
	if sess.Phone != "" {
		text = fmt.Sprintf("📱 Tengo guardado el celular *%s*. Escribe *ok* para usarlo, o envíame uno nuevo.", sess.Phone)
	}
	return conv.Reply{
		Text: text,
		Buttons: [][]conv.Button{
			{backButton(StateEnteringEmail)},
		},
	}
}

func promptCompany() conv.Reply {
	return conv.Reply{
		Text: "🏢 ¿Cuál es el nombre de tu empresa o negocio? _Escribe *omitir* si prefieres no darlo._",
		Buttons: [][]conv.Button{
			{backButton(StateEnteringPhone)},
		},
	}
}

func (s *service) promptLocation(ctx context.Context) (conv.Reply, error) {
	locations, err := s.locations.ListActivePickupLocations(ctx)
	if err != nil {
		return conv.Reply{}, err
	}
	if len(locations) == 0 {
		// Stay in the flow: there is nothing the user can do about an
		// empty location list except come back later.
		return conv.Reply{
			Text: "😔 Por ahora no tenemos puntos de recogida disponibles. Inténtalo de nuevo más tarde, por favor.",
			Buttons: [][]conv.Button{
				{{Label: "❌ Cancelar pedido", Data: conv.CancelPreorder{}.Callback()}},
			},
		}, nil
	}

	buttons := make([][]conv.Button, 0, len(locations)+1)
	for _, loc := range locations {
		label := fmt.Sprintf("📍 %s (%s)", loc.Name, loc.Neighborhood)
		buttons = append(buttons, []conv.Button{{
			Label: label,
			Data:  conv.ChoosePickupLocation{LocationID: loc.ID}.Callback(),
		}})
	}
	buttons = append(buttons, []conv.Button{backButton(StateEnteringPhone)})

	return conv.Reply{
		Text:    "📍 ¿En cuál punto quieres recoger tu pedido?",
		Buttons: buttons,
	}, nil
}

func (s *service) promptDate() conv.Reply {
	today := truncateToDay(s.now())

	buttons := make([][]conv.Button, 0, 4)
	var row []conv.Button
	for offset := minLeadDays; offset <= maxLeadDays; offset++ {
		day := today.AddDate(0, 0, offset)
		row = append(row, conv.Button{
			Label: spanishDate(day),
			Data:  conv.ChoosePickupDate{Date: day.Format("2006-01-02")}.Callback(),
		})
		if len(row) == 2 {
			buttons = append(buttons, row)
			row = nil
		}
	}
	if len(row) > 0 {
		buttons = append(buttons, row)
	}
	buttons = append(buttons, []conv.Button{backButton(StateSelectingLocation)})

	return conv.Reply{
		Text:    "🗓 ¿Qué día recoges tu pedido? Puedes elegir desde mañana hasta dentro de una semana.",
		Buttons: buttons,
	}
}

func promptTime() conv.Reply {
	buttons := make([][]conv.Button, 0, 5)
	var row []conv.Button
	for hour := firstPickupHour; hour <= lastPickupHour; hour++ {
		value := fmt.Sprintf("%02d:00", hour)
		row = append(row, conv.Button{
			Label: value,
			Data:  conv.ChoosePickupTime{Time: value}.Callback(),
		})
		if len(row) == 3 {
			buttons = append(buttons, row)
			row = nil
		}
	}
	if len(row) > 0 {
		buttons = append(buttons, row)
	}
	buttons = append(buttons, []conv.Button{backButton(StateSelectingDate)})

	return conv.Reply{
		Text:    "⏰ ¿A qué hora pasas por él? Atendemos de 8:00 AM a 6:00 PM.",
		Buttons: buttons,
	}
}

func promptSummary(sess *Session) conv.Reply {
	var b strings.Builder
	b.WriteString("✅ *Revisa los datos de tu pedido anticipado:*\n\n")
	if sess.CustomerType == enums.CustomerTypeWholesale {
		b.WriteString("• Tipo: Mayorista\n")
		if sess.Company != "" {
			b.WriteString(fmt.Sprintf("• Empresa: %s\n", sess.Company))
		}
	} else {
		b.WriteString("• Tipo: Personal\n")
	}
	b.WriteString(fmt.Sprintf("• Nombre: %s\n", sess.Name))
	b.WriteString(fmt.Sprintf("• Correo: %s\n", sess.Email))
	b.WriteString(fmt.Sprintf("• Celular: %s\n", sess.Phone))
	b.WriteString(fmt.Sprintf("• Punto de recogida: %s\n", sess.LocationName))
	b.WriteString(fmt.Sprintf("• Fecha: %s\n", spanishDate(sess.PickupDate)))
	b.WriteString(fmt.Sprintf("• Hora: %s\n", sess.PickupTime))
	b.WriteString("\n¿Todo correcto?")

	return conv.Reply{
		Text: b.String(),
		Buttons: [][]conv.Button{
			{{Label: "✅ Confirmar", Data: conv.ConfirmPreorder{}.Callback()}},
			{backButton(StateSelectingTime)},
		},
	}
}
