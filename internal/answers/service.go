// Package answers resolves free-text customer questions: deterministic
// intents first, then the curated knowledge base, then the generative
// fallback, with low-confidence answers escalated to a human contact.
package answers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casahojaldre/chatbot-backend/internal/conv"
	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	"github.com/casahojaldre/chatbot-backend/pkg/enums"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
	"github.com/casahojaldre/chatbot-backend/pkg/metrics"
	"github.com/casahojaldre/chatbot-backend/pkg/openai"
	"github.com/casahojaldre/chatbot-backend/pkg/types"
)

const (
	baseConfidence      = 0.85
	uncertainConfidence = 0.5
	domainBoost         = 0.1
	maxConfidence       = 0.95
)

// Query is one question in its session context.
type Query struct {
	SessionID string
	Text      string
	History   []conv.Turn
}

// Answer is the resolver result. Escalated answers already include the
// human-contact suggestion in Text.
type Answer struct {
	Text        string
	Source      enums.AnswerSource
	Intent      enums.Intent
	Confidence  float64
	Escalated   bool
	Suggestions []ProductSuggestion
}

// ProductSuggestion is a product the generative model proposed for the
// question. Quantity is passed through exactly as the model stated it.
type ProductSuggestion struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
}

type generativeClient interface {
	Complete(ctx context.Context, messages []openai.ChatMessage) (string, error)
}

type catalogReader interface {
	AllProducts(ctx context.Context) ([]models.Product, error)
}

type ordersReader interface {
	CountActiveByChatID(ctx context.Context, chatID string) (int64, error)
	LatestByChatID(ctx context.Context, chatID string) (*models.Order, error)
}

// Service resolves questions into answers.
type Service interface {
	Resolve(ctx context.Context, query Query) (Answer, error)
}

type service struct {
	logg       *logger.Logger
	knowledge  KnowledgeRepository
	generative generativeClient
	catalog    catalogReader
	orders     ordersReader
	metrics    *metrics.BotMetrics
	business   config.BusinessConfig
	resolver   config.ResolverConfig
}

// ServiceParams configures the resolver. Generative, Catalog and Orders
// are optional; without them the corresponding stages degrade to the
// escalation fallback.
type ServiceParams struct {
	Logger     *logger.Logger
	Knowledge  KnowledgeRepository
	Generative generativeClient
	Catalog    catalogReader
	Orders     ordersReader
	Metrics    *metrics.BotMetrics
	Business   config.BusinessConfig
	Resolver   config.ResolverConfig
}

func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Knowledge == nil {
		return nil, fmt.Errorf("knowledge repository required")
	}
	return &service{
		logg:       params.Logger,
		knowledge:  params.Knowledge,
		generative: params.Generative,
		catalog:    params.Catalog,
		orders:     params.Orders,
		metrics:    params.Metrics,
		business:   params.Business,
		resolver:   params.Resolver,
	}, nil
}

func (s *service) Resolve(ctx context.Context, query Query) (Answer, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveResolverDuration(time.Since(start))
	}()

	intent := ClassifyIntent(query.Text)
	answer, err := s.resolve(ctx, intent, query)
	if err != nil {
		return Answer{}, err
	}
	if answer.Intent == "" {
		answer.Intent = intent
	}
	answer = s.escalate(answer)
	s.metrics.IncAnswer(answer.Source.String())
	return answer, nil
}

func (s *service) resolve(ctx context.Context, intent enums.Intent, query Query) (Answer, error) {
	switch intent {
	case enums.IntentHours:
		return staticAnswer(fmt.Sprintf("🕗 Nuestro horario es: %s. ¡Te esperamos!", s.business.HoursText)), nil
	case enums.IntentContact:
		return staticAnswer(s.contactText()), nil
	case enums.IntentOrderStatus:
		return s.orderStatusAnswer(ctx, query.SessionID)
	case enums.IntentPurchase:
		return staticAnswer("🛍 ¡Con gusto! Escribe *menú* para ver nuestras categorías y precios, y arma tu pedido desde el chat."), nil
	}
	return s.knowledgeOrGenerative(ctx, query)
}

func staticAnswer(text string) Answer {
	return Answer{Text: text, Source: enums.AnswerSourceStatic, Confidence: 1.0}
}

func (s *service) contactText() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📞 Puedes contactar a %s por:\n", s.business.Name))
	b.WriteString(fmt.Sprintf("• WhatsApp: %s\n", s.business.WhatsApp))
	if s.business.Email != "" {
		b.WriteString(fmt.Sprintf("• Correo: %s\n", s.business.Email))
	}
	if s.business.Instagram != "" {
		b.WriteString(fmt.Sprintf("• Instagram: %s", s.business.Instagram))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *service) orderStatusAnswer(ctx context.Context, sessionID string) (Answer, error) {
	if s.orders == nil || sessionID == "" {
		return staticAnswer("📦 Para revisar el estado de tu pedido escríbenos por WhatsApp al " + s.business.WhatsApp + "."), nil
	}

	count, err := s.orders.CountActiveByChatID(ctx, sessionID)
	if err != nil {
		return Answer{}, err
	}
	if count == 0 {
		return staticAnswer("📦 No tienes pedidos en curso. Escribe *menú* si quieres hacer uno nuevo."), nil
	}

	latest, err := s.orders.LatestByChatID(ctx, sessionID)
	if err != nil {
		return Answer{}, err
	}
	text := fmt.Sprintf("📦 Tienes %d pedido(s) en curso.", count)
	if latest != nil {
		text += fmt.Sprintf(" El más reciente está *%s* por un total de %s.",
			statusInSpanish(latest.Status), types.FormatCOP(latest.Total))
	}
	return staticAnswer(text), nil
}

func statusInSpanish(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusPending:
		return "pendiente de confirmación"
	case enums.OrderStatusConfirmed:
		return "confirmado"
	case enums.OrderStatusPreparing:
		return "en preparación"
	case enums.OrderStatusReady:
		return "listo para recoger"
	case enums.OrderStatusDelivered:
		return "entregado"
	case enums.OrderStatusCancelled:
		return "cancelado"
	}
	return status.String()
}

func (s *service) knowledgeOrGenerative(ctx context.Context, query Query) (Answer, error) {
	entries, err := s.knowledge.ListActive(ctx)
	if err != nil {
		s.logg.Error(ctx, "knowledge base lookup failed", err)
	} else if entry := bestMatch(query.Text, entries); entry != nil {
		if err := s.knowledge.IncrementUsage(ctx, entry.ID); err != nil {
			s.logg.Warn(ctx, "knowledge usage bump failed")
		}
		return Answer{
			Text:       entry.Answer,
			Source:     enums.AnswerSourceKnowledge,
			Confidence: entry.Confidence,
		}, nil
	}

	return s.generativeAnswer(ctx, query), nil
}

func (s *service) generativeAnswer(ctx context.Context, query Query) Answer {
	if s.generative == nil {
		return s.fallbackAnswer()
	}

	completion, err := s.generative.Complete(ctx, s.buildPrompt(ctx, query))
	if err != nil || strings.TrimSpace(completion) == "" {
		if err != nil {
			s.logg.Error(ctx, "generative completion failed", err)
		}
		return s.fallbackAnswer()
	}

	answer := Answer{
		Text:   completion,
		Source: enums.AnswerSourceGenerative,
	}
	if reply, ok := parseStructuredReply(completion); ok {
		answer.Text = reply.Response
		answer.Suggestions = reply.SuggestedProducts
		if intent := enums.Intent(reply.Intent); intent.IsValid() {
			answer.Intent = intent
		}
	}
	answer.Confidence = s.scoreConfidence(answer.Text)
	return answer
}

// structuredReply is the JSON contract the model is instructed to
// answer with. Completions that do not parse are used verbatim.
type structuredReply struct {
	Response          string              `json:"response"`
	Intent            string              `json:"intent"`
	SuggestedProducts []ProductSuggestion `json:"suggested_products"`
}

func parseStructuredReply(completion string) (structuredReply, bool) {
	trimmed := strings.TrimSpace(completion)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var reply structuredReply
	if err := json.Unmarshal([]byte(trimmed), &reply); err != nil {
		return structuredReply{}, false
	}
	if reply.Response == "" {
		return structuredReply{}, false
	}
	return reply, true
}

func (s *service) buildPrompt(ctx context.Context, query Query) []openai.ChatMessage {
	messages := make([]openai.ChatMessage, 0, s.resolver.PromptTurns+2)
	messages = append(messages, openai.ChatMessage{
		Role:    openai.RoleSystem,
		Content: s.systemPrompt(ctx),
	})

	turns := query.History
	if window := s.resolver.PromptTurns; window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}
	for _, turn := range turns {
		role := openai.RoleUser
		if turn.Role == conv.RoleAssistant {
			role = openai.RoleAssistant
		}
		messages = append(messages, openai.ChatMessage{Role: role, Content: turn.Content})
	}

	return append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: query.Text})
}

func (s *service) systemPrompt(ctx context.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Eres el asistente virtual de %s, una pastelería colombiana especializada en hojaldres. "+
			"Responde en español, en tono cercano y breve. "+
			"Horario: %s. WhatsApp: %s. Pagos: %s al %s. "+
			"Si no sabes la respuesta, dilo claramente y sugiere escribir por WhatsApp.",
		s.business.Name, s.business.HoursText, s.business.WhatsApp,
		s.business.PaymentMethods, s.business.PaymentPhone,
	)
	b.WriteString(s.catalogPromptSection(ctx))
	b.WriteString("\n\nResponde ÚNICAMENTE con un JSON válido con esta forma: " +
		`{"response": "texto para el cliente", "intent": "hours|contact|order_status|purchase|general", ` +
		`"suggested_products": [{"product_id": "uuid", "name": "nombre", "quantity": 1}]}. ` +
		"Sugiere productos solo del catálogo listado, con su product_id exacto. " +
		"Si el cliente menciona una cantidad, usa exactamente esa cantidad; nunca la cambies.")
	return b.String()
}

func (s *service) catalogPromptSection(ctx context.Context) string {
	if s.catalog == nil {
		return ""
	}
	products, err := s.catalog.AllProducts(ctx)
	if err != nil {
		s.logg.Warn(ctx, "catalog unavailable for generative prompt")
		return ""
	}
	if len(products) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nCatálogo actual:\n")
	for _, product := range products {
		fmt.Fprintf(&b, "- %s (%s por unidad, product_id: %s)\n",
			product.Name, types.FormatCOP(product.UnitPrice), product.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// scoreConfidence applies cheap lexical heuristics to a completion:
// hedging phrases pull it down, staying on bakery topics nudges it up.
func (s *service) scoreConfidence(completion string) float64 {
	lowered := normalize(completion)

	for _, phrase := range []string{
		"no se", "no estoy seguro", "no estoy segura", "no tengo informacion",
		"no puedo ayudarte", "no cuento con", "lo siento",
	} {
		if strings.Contains(lowered, phrase) {
			return uncertainConfidence
		}
	}

	confidence := baseConfidence
	for _, term := range []string{"hojaldre", "pedido", "pasteleria", "horario", "recoger"} {
		if strings.Contains(lowered, term) {
			confidence += domainBoost
			break
		}
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return confidence
}

func (s *service) fallbackAnswer() Answer {
	return Answer{
		Text:       "🤔 No tengo una respuesta clara para eso.",
		Source:     enums.AnswerSourceFallback,
		Confidence: 0,
	}
}

// escalate appends the human-contact suggestion to any low-confidence
// answer. The answer itself is still delivered.
func (s *service) escalate(answer Answer) Answer {
	threshold := s.resolver.ConfidenceThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	if answer.Confidence >= threshold {
		return answer
	}
	answer.Text += fmt.Sprintf(
		"\n\n💬 Si prefieres hablar con una persona, escríbenos por WhatsApp al %s.",
		s.business.WhatsApp,
	)
	answer.Escalated = true
	return answer
}
