package engine

import (
	"errors"
	"testing"

	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/ledger"
	"github.com/dmelo/sharebook/internal/store"
)

// harness bundles an Engine with its dependencies for white-box tests.
type harness struct {
	engine      *Engine
	book        *OrderBook
	instruments *store.InstrumentStore
	orders      *store.OrderStore
	trades      *store.TradeStore
	ownership   *ledger.Ownership
	tokens      *ledger.MemoryTokenLedger
}

func newTestHarness() *harness {
	book := NewOrderBook()
	instruments := store.NewInstrumentStore()
	orders := store.NewOrderStore()
	trades := store.NewTradeStore()
	ownership := ledger.NewOwnership()
	tokens := ledger.NewMemoryTokenLedger(0)
	eng := New(book, instruments, orders, trades, ownership, tokens, domain.NopNotifier{})
	return &harness{
		engine:      eng,
		book:        book,
		instruments: instruments,
		orders:      orders,
		trades:      trades,
		ownership:   ownership,
		tokens:      tokens,
	}
}

func (h *harness) register(symbol, caller string, shares, price int64) {
	_, err := h.engine.Register(RegisterRequest{
		Name:        symbol + " Corp",
		Symbol:      symbol,
		TotalShares: shares,
		Price:       price,
		Caller:      caller,
	})
	if err != nil {
		panic(err)
	}
}

func (h *harness) submit(caller, symbol string, side domain.OrderSide, typ domain.OrderType, amount, price int64) (*domain.Order, *domain.Trade, error) {
	return h.engine.Submit(SubmitRequest{
		Symbol: symbol,
		Amount: amount,
		Price:  price,
		Side:   side,
		Type:   typ,
		Caller: caller,
	})
}

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	registered []domain.InstrumentRegisteredEvent
	placed     []domain.OrderPlacedEvent
	executed   []domain.TradeExecutedEvent
}

func (r *recordingNotifier) InstrumentRegistered(e domain.InstrumentRegisteredEvent) {
	r.registered = append(r.registered, e)
}

func (r *recordingNotifier) OrderPlaced(e domain.OrderPlacedEvent) {
	r.placed = append(r.placed, e)
}

func (r *recordingNotifier) TradeExecuted(e domain.TradeExecutedEvent) {
	r.executed = append(r.executed, e)
}

// failingTokens reports a healthy balance but refuses every transfer.
type failingTokens struct {
	balance int64
}

func (f failingTokens) TransferFrom(from, to string, amount int64) error {
	return errors.New("token ledger unavailable")
}

func (f failingTokens) Transfer(to string, amount int64) error {
	return errors.New("token ledger unavailable")
}

func (f failingTokens) BalanceOf(account string) (int64, error) {
	return f.balance, nil
}

func TestSubmit_InstrumentNotFound(t *testing.T) {
	h := newTestHarness()

	_, _, err := h.submit("alice", "NOPE", domain.OrderSideBuy, domain.OrderTypeLimit, 10, 5)
	if err != domain.ErrInstrumentNotFound {
		t.Fatalf("expected ErrInstrumentNotFound, got %v", err)
	}
	if h.book.Len() != 0 {
		t.Fatal("failed submission must not touch the book")
	}
}

func TestSubmit_InvalidAmount(t *testing.T) {
	h := newTestHarness()
	h.register("ACME", "alice", 1000, 1)

	for _, amount := range []int64{0, -3} {
		_, _, err := h.submit("alice", "ACME", domain.OrderSideSell, domain.OrderTypeLimit, amount, 5)
		if err != domain.ErrInvalidAmount {
			t.Fatalf("amount=%d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestSubmit_InvalidPriceForLimit(t *testing.T) {
	h := newTestHarness()
	h.register("ACME", "alice", 1000, 1)

	_, _, err := h.submit("alice", "ACME", domain.OrderSideSell, domain.OrderTypeLimit, 10, 0)
	if err != domain.ErrInvalidPrice {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestSubmit_ZeroPriceAllowedForMarket(t *testing.T) {
	h := newTestHarness()
	h.register("ACME", "alice", 1000, 1)

	// Market sell at price 0 is valid and rests when nothing crosses.
	order, trade, err := h.submit("alice", "ACME", domain.OrderSideSell, domain.OrderTypeMarket, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trade != nil {
		t.Fatal("expected no trade on an empty book")
	}
	if order.Status != domain.OrderStatusResting {
		t.Fatalf("expected resting, got %s", order.Status)
	}
}

func TestSubmit_InsufficientFundsForLimitBuy(t *testing.T) {
	h := newTestHarness()
	h.register("ACME", "alice", 1000, 1)
	h.tokens.SetBalance("bob", 99)

	_, _, err := h.submit("bob", "ACME", domain.OrderSideBuy, domain.OrderTypeLimit, 10, 10)
	if err != domain.ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if h.book.Len() != 0 {
		t.Fatal("rejected order must not rest")
	}
}

func TestSubmit_MarketBuySkipsFundsPrecheck(t *testing.T) {
	h := newTestHarness()
	h.register("ACME", "alice", 1000, 1)

	// bob has no tokens at all, but the market buy is still accepted.
	order, trade, err := h.submit("bob", "ACME", domain.OrderSideBuy, domain.OrderTypeMarket, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trade != nil {
		t.Fatal("expected no trade on an empty book")
	}
	if order.Status != domain.OrderStatusResting {
		t.Fatalf("expected resting, got %s", order.Status)
	}
}

func TestSubmit_InsufficientShares(t *testing.T) {
	h := newTestHarness()
	h.register("ACME", "alice", 1000, 1)

	_, _, err := h.submit("bob", "ACME", domain.OrderSideSell, domain.OrderTypeLimit, 1, 5)
	if err != domain.ErrInsufficientShares {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}
}

func TestSubmit_PartialFill(t *testing.T) {
	h := newTestHarness()
	h.register("X", "A", 1000, 1)
	h.tokens.SetBalance("B", 10_000)

	sell, trade, err := h.submit("A", "X", domain.OrderSideSell, domain.OrderTypeLimit, 60, 10)
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}
	if trade != nil {
		t.Fatal("expected no trade yet")
	}

	buy, trade, err := h.submit("B", "X", domain.OrderSideBuy, domain.OrderTypeLimit, 100, 10)
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if trade == nil {
		t.Fatal("expected a trade")
	}
	if trade.Amount != 60 || trade.Price != 10 {
		t.Fatalf("expected amount=60 price=10, got amount=%d price=%d", trade.Amount, trade.Price)
	}
	if trade.Buyer != "B" || trade.Seller != "A" {
		t.Fatalf("unexpected parties: buyer=%s seller=%s", trade.Buyer, trade.Seller)
	}

	// Buy rests with the remainder; sell is gone.
	if buy.Remaining != 40 || buy.Status != domain.OrderStatusPartiallyFilled {
		t.Fatalf("expected buy remaining=40 partially_filled, got %d %s", buy.Remaining, buy.Status)
	}
	if _, ok := h.book.Get(buy.ID); !ok {
		t.Fatal("expected buy still on book")
	}
	if _, ok := h.book.Get(sell.ID); ok {
		t.Fatal("expected sell removed from book")
	}
	if sell.Remaining != 0 || sell.Status != domain.OrderStatusFilled {
		t.Fatalf("expected sell filled, got remaining=%d status=%s", sell.Remaining, sell.Status)
	}

	// Ownership moved 60 shares from A to B.
	if got := h.ownership.Balance("X", "B"); got != 60 {
		t.Fatalf("expected B to hold 60, got %d", got)
	}
	if got := h.ownership.Balance("X", "A"); got != 940 {
		t.Fatalf("expected A to hold 940, got %d", got)
	}

	// Settlement moved 600 tokens from B to A.
	bBal, _ := h.tokens.BalanceOf("B")
	aBal, _ := h.tokens.BalanceOf("A")
	if bBal != 9_400 || aBal != 600 {
		t.Fatalf("expected 9400/600, got %d/%d", bBal, aBal)
	}
}

func TestSubmit_MarketBuyCrossesAnyPrice(t *testing.T) {
	h := newTestHarness()
	h.register("X", "C", 50, 1)
	h.tokens.SetBalance("D", 250)

	sell, _, err := h.submit("C", "X", domain.OrderSideSell, domain.OrderTypeLimit, 50, 5)
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}

	buy, trade, err := h.submit("D", "X", domain.OrderSideBuy, domain.OrderTypeMarket, 50, 0)
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if trade == nil {
		t.Fatal("expected a trade")
	}
	// Market buy trades at the resting seller's price.
	if trade.Price != 5 || trade.Amount != 50 {
		t.Fatalf("expected price=5 amount=50, got price=%d amount=%d", trade.Price, trade.Amount)
	}

	// Both orders fully filled and removed.
	if _, ok := h.book.Get(sell.ID); ok {
		t.Fatal("expected sell removed")
	}
	if _, ok := h.book.Get(buy.ID); ok {
		t.Fatal("expected buy removed")
	}

	dBal, _ := h.tokens.BalanceOf("D")
	if dBal != 0 {
		t.Fatalf("expected D to have spent all 250 tokens, got %d", dBal)
	}
}

func TestSubmit_ScanOrderNotBestPrice(t *testing.T) {
	h := newTestHarness()
	h.register("X", "a1", 1000, 1)
	// a2 holds shares through an out-of-band credit so two distinct sellers
	// can rest on the book.
	h.ownership.Credit("X", "a2", 100)
	h.tokens.SetBalance("b", 10_000)

	expensive, _, err := h.submit("a1", "X", domain.OrderSideSell, domain.OrderTypeLimit, 10, 8)
	if err != nil {
		t.Fatalf("sell@8 error: %v", err)
	}
	cheap, _, err := h.submit("a2", "X", domain.OrderSideSell, domain.OrderTypeLimit, 10, 5)
	if err != nil {
		t.Fatalf("sell@5 error: %v", err)
	}

	_, trade, err := h.submit("b", "X", domain.OrderSideBuy, domain.OrderTypeLimit, 10, 10)
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if trade == nil {
		t.Fatal("expected a trade")
	}

	// First-found policy: the earlier-inserted price-8 sell wins even
	// though the price-5 sell is cheaper.
	if trade.Seller != "a1" {
		t.Fatalf("expected match with earlier sell (a1), got seller=%s", trade.Seller)
	}
	if _, ok := h.book.Get(expensive.ID); ok {
		t.Fatal("expected price-8 sell removed")
	}
	if _, ok := h.book.Get(cheap.ID); !ok {
		t.Fatal("expected price-5 sell still resting")
	}
}

func TestSubmit_SelfTradeNotPrevented(t *testing.T) {
	h := newTestHarness()
	h.register("X", "A", 1000, 1)
	h.tokens.SetBalance("A", 100)

	_, _, err := h.submit("A", "X", domain.OrderSideSell, domain.OrderTypeLimit, 10, 5)
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}

	_, trade, err := h.submit("A", "X", domain.OrderSideBuy, domain.OrderTypeLimit, 10, 5)
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if trade == nil {
		t.Fatal("expected a self-trade")
	}
	if trade.Buyer != "A" || trade.Seller != "A" {
		t.Fatalf("expected A on both sides, got buyer=%s seller=%s", trade.Buyer, trade.Seller)
	}

	// Net positions unchanged.
	if got := h.ownership.Balance("X", "A"); got != 1000 {
		t.Fatalf("expected 1000 shares after self-trade, got %d", got)
	}
	aBal, _ := h.tokens.BalanceOf("A")
	if aBal != 100 {
		t.Fatalf("expected 100 tokens after self-trade, got %d", aBal)
	}
	if h.book.Len() != 0 {
		t.Fatalf("expected empty book, got %d orders", h.book.Len())
	}
}

func TestSubmit_SettlementFailureRollsBack(t *testing.T) {
	h := newTestHarness()
	// Swap in a token ledger that reports funds but fails transfers.
	h.engine.tokens = failingTokens{balance: 1_000_000}

	h.register("X", "A", 1000, 1)

	sell, _, err := h.submit("A", "X", domain.OrderSideSell, domain.OrderTypeLimit, 10, 5)
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}

	_, _, err = h.submit("B", "X", domain.OrderSideBuy, domain.OrderTypeLimit, 10, 5)
	if !errors.Is(err, domain.ErrTokenTransferFailed) {
		t.Fatalf("expected ErrTokenTransferFailed, got %v", err)
	}

	// Ownership mutation rolled back.
	if got := h.ownership.Balance("X", "A"); got != 1000 {
		t.Fatalf("expected A to still hold 1000, got %d", got)
	}
	if got := h.ownership.Balance("X", "B"); got != 0 {
		t.Fatalf("expected B to hold 0, got %d", got)
	}

	// Sell untouched and still resting; the failed buy did not survive.
	if sell.Remaining != 10 {
		t.Fatalf("expected sell remaining 10, got %d", sell.Remaining)
	}
	if h.book.Len() != 1 {
		t.Fatalf("expected only the sell on the book, got %d orders", h.book.Len())
	}

	// No trade recorded or attached.
	if trades := h.trades.GetBySymbol("X"); len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
	if len(sell.Trades) != 0 {
		t.Fatalf("expected no trades on sell, got %d", len(sell.Trades))
	}
}

func TestSubmit_StaleSellerBalanceSkipsPair(t *testing.T) {
	h := newTestHarness()
	h.register("X", "A", 1000, 1)
	h.tokens.SetBalance("B", 10_000)

	sell, _, err := h.submit("A", "X", domain.OrderSideSell, domain.OrderTypeLimit, 60, 10)
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}

	// Drain A's shares behind the resting order's back.
	if err := h.ownership.Debit("X", "A", 950); err != nil {
		t.Fatalf("debit error: %v", err)
	}

	// A now holds 50 < 60: the pair fails the commit-time re-check and no
	// trade executes.
	buy, trade, err := h.submit("B", "X", domain.OrderSideBuy, domain.OrderTypeLimit, 60, 10)
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if trade != nil {
		t.Fatal("expected no trade for a stale seller balance")
	}
	if sell.Remaining != 60 || buy.Remaining != 60 {
		t.Fatalf("expected both untouched, got %d/%d", sell.Remaining, buy.Remaining)
	}
	if h.book.Len() != 2 {
		t.Fatalf("expected both resting, got %d", h.book.Len())
	}
}

func TestSubmit_MarketBuyRevalidatedAtExecution(t *testing.T) {
	h := newTestHarness()
	h.register("X", "A", 1000, 1)

	_, _, err := h.submit("A", "X", domain.OrderSideSell, domain.OrderTypeLimit, 10, 5)
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}

	// D was accepted without a funds pre-check but cannot pay at the
	// discovered price, so the pair is skipped and both orders rest.
	buy, trade, err := h.submit("D", "X", domain.OrderSideBuy, domain.OrderTypeMarket, 10, 0)
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if trade != nil {
		t.Fatal("expected no trade for an unfunded market buy")
	}
	if buy.Status != domain.OrderStatusResting {
		t.Fatalf("expected resting, got %s", buy.Status)
	}

	// Once funded, a later submission triggers the match.
	h.tokens.SetBalance("D", 50)
	h.tokens.SetBalance("E", 1_000)
	_, trade, err = h.submit("E", "X", domain.OrderSideBuy, domain.OrderTypeLimit, 1, 1)
	if err != nil {
		t.Fatalf("trigger error: %v", err)
	}
	if trade == nil {
		t.Fatal("expected the resting market buy to match once funded")
	}
	if trade.Buyer != "D" || trade.Price != 5 || trade.Amount != 10 {
		t.Fatalf("unexpected trade: %+v", trade)
	}
}

func TestSubmit_SingleMatchPerCall(t *testing.T) {
	h := newTestHarness()
	h.register("X", "A", 1000, 1)
	h.tokens.SetBalance("B", 10_000)

	_, _, err := h.submit("A", "X", domain.OrderSideSell, domain.OrderTypeLimit, 5, 5)
	if err != nil {
		t.Fatalf("sell1 error: %v", err)
	}
	_, _, err = h.submit("A", "X", domain.OrderSideSell, domain.OrderTypeLimit, 5, 5)
	if err != nil {
		t.Fatalf("sell2 error: %v", err)
	}

	// The buy could fill against both sells, but only one trade executes
	// per submission.
	buy, trade, err := h.submit("B", "X", domain.OrderSideBuy, domain.OrderTypeLimit, 10, 10)
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if trade == nil || trade.Amount != 5 {
		t.Fatalf("expected one trade of 5, got %+v", trade)
	}
	if buy.Remaining != 5 {
		t.Fatalf("expected buy remaining 5, got %d", buy.Remaining)
	}
	if len(h.trades.GetBySymbol("X")) != 1 {
		t.Fatal("expected exactly one trade so far")
	}

	// The next submission on the symbol triggers another pass, which
	// matches the resting remainder.
	_, trade, err = h.submit("B", "X", domain.OrderSideBuy, domain.OrderTypeLimit, 1, 1)
	if err != nil {
		t.Fatalf("trigger error: %v", err)
	}
	if trade == nil || trade.Amount != 5 || trade.Buyer != "B" {
		t.Fatalf("expected resting remainder to fill, got %+v", trade)
	}
	if buy.Remaining != 0 || buy.Status != domain.OrderStatusFilled {
		t.Fatalf("expected first buy filled, got remaining=%d status=%s", buy.Remaining, buy.Status)
	}
}

func TestSubmit_EmitsNotifications(t *testing.T) {
	h := newTestHarness()
	rec := &recordingNotifier{}
	h.engine.notifier = rec

	h.register("X", "A", 1000, 1)
	h.tokens.SetBalance("B", 1_000)

	h.submit("A", "X", domain.OrderSideSell, domain.OrderTypeLimit, 10, 5)
	h.submit("B", "X", domain.OrderSideBuy, domain.OrderTypeLimit, 10, 5)

	if len(rec.placed) != 2 {
		t.Fatalf("expected 2 order events, got %d", len(rec.placed))
	}
	if rec.placed[0].Caller != "A" || rec.placed[1].Caller != "B" {
		t.Fatalf("unexpected order events: %+v", rec.placed)
	}
	if len(rec.executed) != 1 {
		t.Fatalf("expected 1 trade event, got %d", len(rec.executed))
	}
	e := rec.executed[0]
	if e.Buyer != "B" || e.Seller != "A" || e.Amount != 10 || e.Price != 5 {
		t.Fatalf("unexpected trade event: %+v", e)
	}
}
