package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketmister-backend/catalog"
	"ticketmister-backend/model"
	"ticketmister-backend/records"
	"ticketmister-backend/registry"
	"ticketmister-backend/settlement"
)

const (
	ether = uint64(1_000_000_000_000_000_000)

	organiser = "organiser-1"
	alice     = "alice"
	bob       = "bob"
)

type fixture struct {
	market *Market
	ledger *settlement.Ledger
	sink   *records.Memory

	eventID   int64
	ticketIDs []int64
}

// newFixture stands up a market with one event (resale cap 50%) and one
// category of three 1-ether tickets, and clears the setup records.
func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	reg := registry.New()
	cat := catalog.New(reg)
	ledger := settlement.NewLedger()
	sink := records.NewMemory()
	m := New(cat, reg, ledger, sink, cfg)

	ctx := context.Background()
	eventID, err := m.CreateEvent(ctx, "Test Event", "This is a test event", "Town Hall", nil, 50, organiser)
	require.Nil(t, err)
	category, err := m.CreateCategory(ctx, eventID, "Standard", "Standard ticket", ether, 3, organiser)
	require.Nil(t, err)

	sink.Reset()
	return &fixture{
		market:    m,
		ledger:    ledger,
		sink:      sink,
		eventID:   eventID,
		ticketIDs: category.TicketIDs,
	}
}

func TestCreateRecords(t *testing.T) {
	reg := registry.New()
	cat := catalog.New(reg)
	sink := records.NewMemory()
	m := New(cat, reg, settlement.NewLedger(), sink, DefaultConfig())

	ctx := context.Background()
	eventID, err := m.CreateEvent(ctx, "Test Event", "Description", "", nil, 20, organiser)
	require.Nil(t, err)
	_, err = m.CreateCategory(ctx, eventID, "VIP", "VIP ticket", 100, 5, organiser)
	require.Nil(t, err)

	assert.Equal(t, []string{"EventCreated", "TicketCategoryCreated"}, sink.Kinds())
}

func TestPrimaryBuy(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, ether)

	err := f.market.BuyTicket(context.Background(), f.ticketIDs[0], alice, ether)
	require.Nil(t, err)

	ticket, err := f.market.TicketInfo(f.ticketIDs[0])
	require.Nil(t, err)
	assert.Equal(t, alice, ticket.Owner)
	assert.False(t, ticket.IsOnSale)
	assert.Equal(t, uint64(0), ticket.ResalePrice)

	// 5% of the paid price accrues as reward points.
	assert.Equal(t, ether/20, f.market.RewardBalance(alice))

	assert.Equal(t, uint64(0), f.ledger.Balance(alice))
	assert.Equal(t, ether, f.ledger.Balance(organiser))
	assert.Equal(t, uint64(0), f.ledger.Escrow())

	assert.Equal(t, []string{"RewardEarned", "TicketBought"}, f.sink.Kinds())

	onSale, err := f.market.TicketsOnSale(f.eventID)
	require.Nil(t, err)
	assert.NotContains(t, onSale, f.ticketIDs[0])
}

func TestDiscountedBuy(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, 2*ether)
	ctx := context.Background()

	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))
	points := f.market.RewardBalance(alice)
	require.Equal(t, ether/20, points)
	f.sink.Reset()

	discounted, err := f.market.CheckDiscountedPrice(f.ticketIDs[1], alice)
	require.Nil(t, err)
	assert.Equal(t, ether-points, discounted)

	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[1], alice, discounted))

	assert.Equal(t, []string{"RewardUsed", "RewardEarned", "TicketBought"}, f.sink.Kinds())
	used := f.sink.Records[0].(records.RewardUsed)
	earned := f.sink.Records[1].(records.RewardEarned)
	bought := f.sink.Records[2].(records.TicketBought)
	assert.Equal(t, points, used.Amount)
	assert.Equal(t, percentage(discounted, 5), earned.Amount)
	assert.Equal(t, discounted, bought.Price)

	// All spent points are gone; only the new accrual remains.
	assert.Equal(t, percentage(discounted, 5), f.market.RewardBalance(alice))
	assert.Equal(t, ether+discounted, f.ledger.Balance(organiser))
}

func TestDiscountNeverMakesTicketFree(t *testing.T) {
	reg := registry.New()
	cat := catalog.New(reg)
	ledger := settlement.NewLedger()
	m := New(cat, reg, ledger, records.NewMemory(), Config{RewardRatePercent: 100, GiftUnlists: true})

	ctx := context.Background()
	eventID, err := m.CreateEvent(ctx, "Test Event", "Description", "", nil, 0, organiser)
	require.Nil(t, err)
	category, err := m.CreateCategory(ctx, eventID, "Standard", "Standard ticket", 100, 2, organiser)
	require.Nil(t, err)

	ledger.Deposit(alice, 101)
	require.Nil(t, m.BuyTicket(ctx, category.TicketIDs[0], alice, 100))
	require.Equal(t, uint64(100), m.RewardBalance(alice))

	// Points cover at most price-1; the floor is 1.
	price, err := m.CheckDiscountedPrice(category.TicketIDs[1], alice)
	require.Nil(t, err)
	assert.Equal(t, uint64(1), price)

	// 99 points spent, 1 earned on the 1-unit purchase.
	require.Nil(t, m.BuyTicket(ctx, category.TicketIDs[1], alice, 1))
	assert.Equal(t, uint64(2), m.RewardBalance(alice))
}

func TestBuyRequiresExactPayment(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, 2*ether)

	err := f.market.BuyTicket(context.Background(), f.ticketIDs[0], alice, ether-1)
	assert.ErrorIs(t, err, model.ErrWrongPayment)
	err = f.market.BuyTicket(context.Background(), f.ticketIDs[0], alice, ether+1)
	assert.ErrorIs(t, err, model.ErrWrongPayment)

	// Nothing moved.
	owner, err := f.market.TicketOwner(f.ticketIDs[0])
	require.Nil(t, err)
	assert.Equal(t, organiser, owner)
	assert.Equal(t, 2*ether, f.ledger.Balance(alice))
	assert.Equal(t, uint64(0), f.market.RewardBalance(alice))
	assert.Empty(t, f.sink.Records)
}

func TestBuyUnknownOrUnlistedTicket(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, 2*ether)
	ctx := context.Background()

	err := f.market.BuyTicket(ctx, 99, alice, ether)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))
	err = f.market.BuyTicket(ctx, f.ticketIDs[0], bob, ether)
	assert.ErrorIs(t, err, model.ErrNotForSale)
}

func TestResaleCap(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, ether)
	ctx := context.Background()
	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))

	// Cap is originalPrice * 150% with the event's 50% resale margin.
	err := f.market.ListTicketForResale(ctx, f.ticketIDs[0], percentage(ether, 150)+1, alice)
	assert.ErrorIs(t, err, model.ErrResaleCapExceeded)

	require.Nil(t, f.market.ListTicketForResale(ctx, f.ticketIDs[0], percentage(ether, 150), alice))
	ticket, err := f.market.TicketInfo(f.ticketIDs[0])
	require.Nil(t, err)
	assert.True(t, ticket.IsOnSale)
	assert.Equal(t, percentage(ether, 150), ticket.ResalePrice)

	onSale, err := f.market.TicketsOnSale(f.eventID)
	require.Nil(t, err)
	assert.Contains(t, onSale, f.ticketIDs[0])
}

func TestListRequiresOwnerAndPositivePrice(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, ether)
	ctx := context.Background()
	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))

	err := f.market.ListTicketForResale(ctx, f.ticketIDs[0], ether, bob)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	err = f.market.ListTicketForResale(ctx, f.ticketIDs[0], 0, alice)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestResalePaysSellerWithoutReward(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, ether)
	f.ledger.Deposit(bob, 2*ether)
	ctx := context.Background()

	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))
	require.Nil(t, f.market.ListTicketForResale(ctx, f.ticketIDs[0], percentage(ether, 120), alice))
	f.sink.Reset()

	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], bob, percentage(ether, 120)))

	owner, err := f.market.TicketOwner(f.ticketIDs[0])
	require.Nil(t, err)
	assert.Equal(t, bob, owner)

	// The seller, not the organiser, receives resale proceeds, and a
	// resale purchase accrues no points under the default policy.
	assert.Equal(t, percentage(ether, 120), f.ledger.Balance(alice))
	assert.Equal(t, uint64(0), f.market.RewardBalance(bob))
	assert.Equal(t, []string{"TicketBought"}, f.sink.Kinds())
}

func TestResaleRewardWhenPolicyAllows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RewardOnResale = true
	f := newFixture(t, cfg)
	f.ledger.Deposit(alice, ether)
	f.ledger.Deposit(bob, ether)
	ctx := context.Background()

	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))
	require.Nil(t, f.market.ListTicketForResale(ctx, f.ticketIDs[0], ether, alice))

	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], bob, ether))
	assert.Equal(t, ether/20, f.market.RewardBalance(bob))
}

func TestUnlist(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, ether)
	ctx := context.Background()
	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))
	require.Nil(t, f.market.ListTicketForResale(ctx, f.ticketIDs[0], ether, alice))

	assert.ErrorIs(t, f.market.UnlistTicketFromResale(ctx, f.ticketIDs[0], bob), model.ErrUnauthorized)
	require.Nil(t, f.market.UnlistTicketFromResale(ctx, f.ticketIDs[0], alice))

	ticket, err := f.market.TicketInfo(f.ticketIDs[0])
	require.Nil(t, err)
	assert.False(t, ticket.IsOnSale)
	assert.Equal(t, uint64(0), ticket.ResalePrice)

	assert.ErrorIs(t, f.market.UnlistTicketFromResale(ctx, f.ticketIDs[0], alice), model.ErrNotForSale)

	onSale, err := f.market.TicketsOnSale(f.eventID)
	require.Nil(t, err)
	assert.NotContains(t, onSale, f.ticketIDs[0])
}

func TestGift(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, ether)
	ctx := context.Background()
	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))

	assert.ErrorIs(t, f.market.GiftTicket(ctx, f.ticketIDs[0], bob, bob), model.ErrUnauthorized)
	assert.ErrorIs(t, f.market.GiftTicket(ctx, f.ticketIDs[0], alice, alice), model.ErrSelfGift)

	require.Nil(t, f.market.GiftTicket(ctx, f.ticketIDs[0], bob, alice))
	owner, err := f.market.TicketOwner(f.ticketIDs[0])
	require.Nil(t, err)
	assert.Equal(t, bob, owner)

	// No money moved and no points accrued for a gift.
	assert.Equal(t, uint64(0), f.ledger.Balance(bob))
	assert.Equal(t, ether/20, f.market.RewardBalance(alice))
	assert.Equal(t, uint64(0), f.market.RewardBalance(bob))
}

func TestGiftUnlistsListedTicket(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, ether)
	ctx := context.Background()
	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))
	require.Nil(t, f.market.ListTicketForResale(ctx, f.ticketIDs[0], ether, alice))

	require.Nil(t, f.market.GiftTicket(ctx, f.ticketIDs[0], bob, alice))

	ticket, err := f.market.TicketInfo(f.ticketIDs[0])
	require.Nil(t, err)
	assert.Equal(t, bob, ticket.Owner)
	assert.False(t, ticket.IsOnSale)

	onSale, err := f.market.TicketsOnSale(f.eventID)
	require.Nil(t, err)
	assert.NotContains(t, onSale, f.ticketIDs[0])
}

func TestCancelEventAndRefund(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, ether)
	f.ledger.Deposit(bob, ether)
	ctx := context.Background()

	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))
	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[1], bob, ether))

	// Relisting at a premium does not change what a refund owes.
	require.Nil(t, f.market.ListTicketForResale(ctx, f.ticketIDs[0], percentage(ether, 150), alice))

	assert.ErrorIs(t, f.market.CancelEventAndRefund(ctx, f.eventID, bob, 2*ether), model.ErrUnauthorized)
	assert.ErrorIs(t, f.market.CancelEventAndRefund(ctx, f.eventID, organiser, ether), model.ErrWrongPayment)

	ev, err := f.market.EventInfo(f.eventID)
	require.Nil(t, err)
	require.True(t, ev.IsActive)

	require.Nil(t, f.market.CancelEventAndRefund(ctx, f.eventID, organiser, 2*ether))

	ev, err = f.market.EventInfo(f.eventID)
	require.Nil(t, err)
	assert.False(t, ev.IsActive)

	// Each sold ticket is refunded at its original category price.
	assert.Equal(t, ether, f.ledger.Balance(alice))
	assert.Equal(t, ether, f.ledger.Balance(bob))
	assert.Equal(t, uint64(0), f.ledger.Balance(organiser))
	assert.Equal(t, uint64(0), f.ledger.Escrow())

	// Refunded owners keep their tickets; nothing is burned.
	owner, err := f.market.TicketOwner(f.ticketIDs[0])
	require.Nil(t, err)
	assert.Equal(t, alice, owner)

	assert.ErrorIs(t, f.market.CancelEventAndRefund(ctx, f.eventID, organiser, 0), model.ErrAlreadyInactive)
}

func TestCancelWithNoSoldTickets(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	require.Nil(t, f.market.CancelEventAndRefund(context.Background(), f.eventID, organiser, 0))
	ev, err := f.market.EventInfo(f.eventID)
	require.Nil(t, err)
	assert.False(t, ev.IsActive)
}

func TestCheckDiscountedPriceIsPure(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.ledger.Deposit(alice, ether)
	ctx := context.Background()
	require.Nil(t, f.market.BuyTicket(ctx, f.ticketIDs[0], alice, ether))
	points := f.market.RewardBalance(alice)

	for i := 0; i < 3; i++ {
		price, err := f.market.CheckDiscountedPrice(f.ticketIDs[1], alice)
		require.Nil(t, err)
		assert.Equal(t, ether-points, price)
	}
	assert.Equal(t, points, f.market.RewardBalance(alice))

	_, err := f.market.CheckDiscountedPrice(99, alice)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// brokenRail accepts payments into escrow but fails every payout,
// forcing the engine down its unwind path.
type brokenRail struct {
	received uint64
}

func (r *brokenRail) Receive(ctx context.Context, from string, amount uint64) error {
	r.received += amount
	return nil
}

func (r *brokenRail) Transfer(ctx context.Context, to string, amount uint64) error {
	return errors.New("transfer: rail unavailable")
}

func TestBuyRollsBackOnRailFailure(t *testing.T) {
	reg := registry.New()
	cat := catalog.New(reg)
	sink := records.NewMemory()
	m := New(cat, reg, &brokenRail{}, sink, DefaultConfig())

	ctx := context.Background()
	eventID, err := m.CreateEvent(ctx, "Test Event", "Description", "", nil, 50, organiser)
	require.Nil(t, err)
	category, err := m.CreateCategory(ctx, eventID, "Standard", "Standard ticket", ether, 1, organiser)
	require.Nil(t, err)
	sink.Reset()

	err = m.BuyTicket(ctx, category.TicketIDs[0], alice, ether)
	require.NotNil(t, err)

	// Ownership, listing, discovery index and points are all back to
	// the pre-call state, and no records were published.
	ticket, err := m.TicketInfo(category.TicketIDs[0])
	require.Nil(t, err)
	assert.Equal(t, organiser, ticket.Owner)
	assert.True(t, ticket.IsOnSale)
	assert.Equal(t, ether, ticket.ResalePrice)
	assert.Equal(t, uint64(0), m.RewardBalance(alice))
	assert.Empty(t, sink.Records)

	onSale, err := m.TicketsOnSale(eventID)
	require.Nil(t, err)
	assert.Contains(t, onSale, category.TicketIDs[0])
}

func TestBuyFailsWhenBuyerCannotPay(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	err := f.market.BuyTicket(context.Background(), f.ticketIDs[0], alice, ether)
	require.NotNil(t, err)

	owner, err := f.market.TicketOwner(f.ticketIDs[0])
	require.Nil(t, err)
	assert.Equal(t, organiser, owner)
	assert.Empty(t, f.sink.Records)
}

// flakyRail is a real ledger whose Nth transfer fails once, so a
// payout loop can be broken partway through.
type flakyRail struct {
	*settlement.Ledger
	failAt    int
	transfers int
}

func (r *flakyRail) Transfer(ctx context.Context, to string, amount uint64) error {
	r.transfers++
	if r.transfers == r.failAt {
		return errors.New("transfer: rail unavailable")
	}
	return r.Ledger.Transfer(ctx, to, amount)
}

func TestCancelClawsBackPartialRefunds(t *testing.T) {
	reg := registry.New()
	cat := catalog.New(reg)
	ledger := settlement.NewLedger()
	// Transfers 1 and 2 settle the two buys; 3 and 4 are the refund
	// payouts, so the second payout fails.
	rail := &flakyRail{Ledger: ledger, failAt: 4}
	m := New(cat, reg, rail, records.NewMemory(), DefaultConfig())

	ctx := context.Background()
	eventID, err := m.CreateEvent(ctx, "Test Event", "Description", "", nil, 50, organiser)
	require.Nil(t, err)
	category, err := m.CreateCategory(ctx, eventID, "Standard", "Standard ticket", 100, 2, organiser)
	require.Nil(t, err)

	ledger.Deposit(alice, 100)
	ledger.Deposit(bob, 100)
	require.Nil(t, m.BuyTicket(ctx, category.TicketIDs[0], alice, 100))
	require.Nil(t, m.BuyTicket(ctx, category.TicketIDs[1], bob, 100))
	require.Equal(t, uint64(200), ledger.Balance(organiser))

	err = m.CancelEventAndRefund(ctx, eventID, organiser, 200)
	require.NotNil(t, err)

	// The aborted call has no monetary effect: the refund already paid
	// out is clawed back and the whole pot returns to the organiser.
	assert.Equal(t, uint64(0), ledger.Balance(alice))
	assert.Equal(t, uint64(0), ledger.Balance(bob))
	assert.Equal(t, uint64(200), ledger.Balance(organiser))
	assert.Equal(t, uint64(0), ledger.Escrow())

	ev, err := m.EventInfo(eventID)
	require.Nil(t, err)
	assert.True(t, ev.IsActive)

	// A retry owes the full sum again and pays each owner exactly once.
	require.Nil(t, m.CancelEventAndRefund(ctx, eventID, organiser, 200))
	assert.Equal(t, uint64(100), ledger.Balance(alice))
	assert.Equal(t, uint64(100), ledger.Balance(bob))
	assert.Equal(t, uint64(0), ledger.Balance(organiser))
	assert.Equal(t, uint64(0), ledger.Escrow())
}

func TestCancelKeepsEventActiveOnRailFailure(t *testing.T) {
	reg := registry.New()
	cat := catalog.New(reg)
	ledger := settlement.NewLedger()
	m := New(cat, reg, ledger, records.NewMemory(), DefaultConfig())

	ctx := context.Background()
	eventID, err := m.CreateEvent(ctx, "Test Event", "Description", "", nil, 50, organiser)
	require.Nil(t, err)
	category, err := m.CreateCategory(ctx, eventID, "Standard", "Standard ticket", ether, 1, organiser)
	require.Nil(t, err)

	ledger.Deposit(alice, ether)
	require.Nil(t, m.BuyTicket(ctx, category.TicketIDs[0], alice, ether))

	// Organiser spent nothing yet, so the pot cannot be collected.
	ledger.Deposit(organiser, ether/2)
	err = m.CancelEventAndRefund(ctx, eventID, organiser, ether)
	require.NotNil(t, err)

	ev, err := m.EventInfo(eventID)
	require.Nil(t, err)
	assert.True(t, ev.IsActive)
	assert.Equal(t, ether/2, ledger.Balance(organiser))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, uint64(0), percentage(0, 5))
	assert.Equal(t, uint64(5), percentage(100, 5))
	assert.Equal(t, uint64(0), percentage(19, 5))
	assert.Equal(t, ether/20, percentage(ether, 5))
	assert.Equal(t, percentage(ether, 150), ether+ether/2)
	// No overflow at ether scale, where amount*pct would wrap uint64.
	assert.Equal(t, uint64(18_000_000_000_000_000_000), percentage(9_000_000_000_000_000_000, 200))
}
