package answers

import (
	"strings"

	"github.com/casahojaldre/chatbot-backend/pkg/enums"
)

// normalize lowercases the text and strips Spanish accents so keyword
// matching is insensitive to how the user typed.
func normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	replacer := strings.NewReplacer(
		"á", "a",
		"é", "e",
		"í", "i",
		"ó", "o",
		"ú", "u",
		"ü", "u",
		"¿", "",
		"?", "",
		"¡", "",
		"!", "",
		",", " ",
		".", " ",
	)
	return replacer.Replace(lowered)
}

func words(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		set[w] = struct{}{}
	}
	return set
}

var intentKeywords = map[enums.Intent][]string{
	enums.IntentHours: {
		"horario", "horarios", "abren", "cierran", "abierto", "atienden",
	},
	enums.IntentContact: {
		"contacto", "telefono", "celular", "whatsapp", "correo",
		"instagram", "direccion", "ubicados", "ubicacion",
	},
	enums.IntentOrderStatus: {
		"pedido", "pedidos", "orden", "estado", "entregan",
	},
	enums.IntentPurchase: {
		"comprar", "precio", "precios", "menu", "carta", "productos",
		"catalogo", "vende", "venden",
	},
}

// classificationOrder fixes precedence when a message matches several
// intents: a question about "el horario para recoger mi pedido" is
// about hours first.
var classificationOrder = []enums.Intent{
	enums.IntentHours,
	enums.IntentContact,
	enums.IntentOrderStatus,
	enums.IntentPurchase,
}

// ClassifyIntent maps free text onto one of the bot's known intents.
func ClassifyIntent(text string) enums.Intent {
	tokens := words(normalize(text))
	if len(tokens) == 0 {
		return enums.IntentGeneral
	}
	for _, intent := range classificationOrder {
		for _, keyword := range intentKeywords[intent] {
			if _, ok := tokens[keyword]; ok {
				return intent
			}
		}
	}
	return enums.IntentGeneral
}
