package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/store"
)

// Webhook event types.
const (
	EventInstrumentRegistered = "instrument.registered"
	EventOrderPlaced          = "order.placed"
	EventTradeExecuted        = "trade.executed"
)

var validWebhookEvents = map[string]bool{
	EventInstrumentRegistered: true,
	EventOrderPlaced:          true,
	EventTradeExecuted:        true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	Account string
	URL     string
	Events  []string
}

// WebhookService handles webhook CRUD and event dispatch. It implements
// domain.Notifier: instrument.registered is delivered to every subscriber of
// that event, order.placed to the caller's subscription, and trade.executed
// to the buyer's and seller's subscriptions.
type WebhookService struct {
	store  *store.WebhookStore
	client *http.Client
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(webhookStore *store.WebhookStore, webhookTimeout time.Duration) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
	}
}

// Upsert validates the request and creates or updates webhook subscriptions.
// Returns the resulting webhooks, whether any new subscriptions were created,
// and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if !accountRegex.MatchString(req.Account) {
		return nil, false, &domain.ValidationError{
			Message: "account must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}

	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: instrument.registered, order.placed, trade.executed",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	// Upsert each (account, event) pair.
	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			Account:   req.Account,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		created := s.store.Upsert(w)
		if created {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else {
			existing := s.store.GetByAccountEvent(req.Account, event)
			if existing != nil {
				webhooks = append(webhooks, existing)
			}
		}
	}

	return webhooks, anyCreated, nil
}

// List returns all webhook subscriptions for an account.
func (s *WebhookService) List(account string) ([]*domain.Webhook, error) {
	if !accountRegex.MatchString(account) {
		return nil, &domain.ValidationError{
			Message: "account must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	return s.store.ListByAccount(account), nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// instrumentRegisteredPayload is the JSON payload for instrument.registered.
type instrumentRegisteredPayload struct {
	Event     string                   `json:"event"`
	Timestamp string                   `json:"timestamp"`
	Data      instrumentRegisteredData `json:"data"`
}

type instrumentRegisteredData struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	TotalShares int64  `json:"total_shares"`
	Price       int64  `json:"price"`
}

// orderPlacedPayload is the JSON payload for order.placed.
type orderPlacedPayload struct {
	Event     string          `json:"event"`
	Timestamp string          `json:"timestamp"`
	Data      orderPlacedData `json:"data"`
}

type orderPlacedData struct {
	Caller  string `json:"caller"`
	Symbol  string `json:"symbol"`
	Amount  int64  `json:"amount"`
	Price   int64  `json:"price"`
	IsBuy   bool   `json:"is_buy"`
	Type    string `json:"type"`
	OrderID uint64 `json:"order_id"`
}

// tradeExecutedPayload is the JSON payload for trade.executed.
type tradeExecutedPayload struct {
	Event     string            `json:"event"`
	Timestamp string            `json:"timestamp"`
	Data      tradeExecutedData `json:"data"`
}

type tradeExecutedData struct {
	TradeID string `json:"trade_id"`
	Buyer   string `json:"buyer"`
	Seller  string `json:"seller"`
	Symbol  string `json:"symbol"`
	Amount  int64  `json:"amount"`
	Price   int64  `json:"price"`
}

// InstrumentRegistered dispatches instrument.registered to every subscriber.
// Fire-and-forget: delivery errors are silently ignored.
func (s *WebhookService) InstrumentRegistered(e domain.InstrumentRegisteredEvent) {
	payload := instrumentRegisteredPayload{
		Event:     EventInstrumentRegistered,
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: instrumentRegisteredData{
			Symbol:      e.Symbol,
			Name:        e.Name,
			TotalShares: e.TotalShares,
			Price:       e.Price,
		},
	}

	for _, wh := range s.store.ListByEvent(EventInstrumentRegistered) {
		go s.deliver(wh, EventInstrumentRegistered, payload)
	}
}

// OrderPlaced dispatches order.placed to the caller's subscription.
// Fire-and-forget.
func (s *WebhookService) OrderPlaced(e domain.OrderPlacedEvent) {
	wh := s.store.GetByAccountEvent(e.Caller, EventOrderPlaced)
	if wh == nil {
		return
	}

	payload := orderPlacedPayload{
		Event:     EventOrderPlaced,
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: orderPlacedData{
			Caller:  e.Caller,
			Symbol:  e.Symbol,
			Amount:  e.Amount,
			Price:   e.Price,
			IsBuy:   e.Side == domain.OrderSideBuy,
			Type:    string(e.Type),
			OrderID: e.OrderID,
		},
	}

	go s.deliver(wh, EventOrderPlaced, payload)
}

// TradeExecuted dispatches trade.executed to the buyer's and seller's
// subscriptions. A self-trade gets a single delivery. Fire-and-forget.
func (s *WebhookService) TradeExecuted(e domain.TradeExecutedEvent) {
	payload := tradeExecutedPayload{
		Event:     EventTradeExecuted,
		Timestamp: e.ExecutedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: tradeExecutedData{
			TradeID: e.TradeID,
			Buyer:   e.Buyer,
			Seller:  e.Seller,
			Symbol:  e.Symbol,
			Amount:  e.Amount,
			Price:   e.Price,
		},
	}

	accounts := []string{e.Buyer}
	if e.Seller != e.Buyer {
		accounts = append(accounts, e.Seller)
	}
	for _, account := range accounts {
		if wh := s.store.GetByAccountEvent(account, EventTradeExecuted); wh != nil {
			go s.deliver(wh, EventTradeExecuted, payload)
		}
	}
}

// deliver sends the webhook payload via HTTP POST with the required headers.
// Errors are silently ignored (fire-and-forget).
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
