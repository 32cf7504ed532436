// Package market is the orchestration layer of the marketplace: it
// computes discounted and resale prices, enforces the exact-payment
// rule and the per-event resale cap, keeps the reward ledger, and
// settles cancellation refunds, driving the catalog and the ownership
// registry underneath.
//
// Every mutating call is applied atomically: all preconditions are
// checked before any state is touched, the settlement rail runs after
// the bookkeeping, and a failed transfer unwinds the bookkeeping and
// aborts the whole call. A single mutex serializes mutating calls into
// one global ordered stream.
package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ticketmister-backend/catalog"
	"ticketmister-backend/logger"
	"ticketmister-backend/model"
	"ticketmister-backend/records"
	"ticketmister-backend/registry"
	"ticketmister-backend/settlement"
)

// Config carries the marketplace policy knobs.
type Config struct {
	// RewardRatePercent is the fixed fraction of each qualifying
	// purchase price credited as reward points: floor(price*rate/100).
	RewardRatePercent uint64
	// RewardOnResale extends reward accrual to resale purchases.
	// Default policy is primary sales only.
	RewardOnResale bool
	// GiftUnlists clears a ticket's listing when it is gifted away.
	GiftUnlists bool
}

func DefaultConfig() Config {
	return Config{
		RewardRatePercent: 5,
		RewardOnResale:    false,
		GiftUnlists:       true,
	}
}

// Market holds the reward ledger and orchestrates cross-component
// calls; all other primary state lives in the catalog and registry.
type Market struct {
	mu sync.Mutex

	catalog  *catalog.Catalog
	registry *registry.Registry
	rail     settlement.Rail
	sink     records.Sink
	cfg      Config

	rewards map[string]uint64
}

func New(cat *catalog.Catalog, reg *registry.Registry, rail settlement.Rail, sink records.Sink, cfg Config) *Market {
	return &Market{
		catalog:  cat,
		registry: reg,
		rail:     rail,
		sink:     sink,
		cfg:      cfg,
		rewards:  make(map[string]uint64),
	}
}

// CreateEvent registers an event for the organiser and emits
// EventCreated.
func (m *Market) CreateEvent(ctx context.Context, name, description, location string, date *time.Time, maxResalePercentage uint64, organiser string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.catalog.CreateEvent(name, description, location, date, maxResalePercentage, organiser)
	if err != nil {
		return 0, fmt.Errorf("createEvent: %w", err)
	}

	m.sink.Publish(records.EventCreated{
		EventID:             id,
		Name:                name,
		Organiser:           organiser,
		Description:         description,
		Location:            location,
		Date:                date,
		MaxResalePercentage: maxResalePercentage,
	})
	return id, nil
}

// CreateCategory mints the category's tickets, already listed for
// first sale at the original price, and emits TicketCategoryCreated.
func (m *Market) CreateCategory(ctx context.Context, eventID int64, name, description string, price, count uint64, caller string) (*model.TicketCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat, err := m.catalog.CreateCategory(eventID, name, description, price, count, caller)
	if err != nil {
		return nil, fmt.Errorf("createCategory: %w", err)
	}

	m.sink.Publish(records.TicketCategoryCreated{
		CategoryID:  cat.CategoryID,
		EventID:     eventID,
		Name:        name,
		Description: description,
		Price:       price,
		Count:       count,
	})
	return cat, nil
}

func (m *Market) UpdateEventDescription(ctx context.Context, eventID int64, description, caller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog.UpdateDescription(eventID, description, caller)
}

func (m *Market) UpdateEventLocation(ctx context.Context, eventID int64, location, caller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog.UpdateLocation(eventID, location, caller)
}

func (m *Market) UpdateEventDate(ctx context.Context, eventID int64, date *time.Time, caller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog.UpdateDate(eventID, date, caller)
}

func (m *Market) UpdateMaxResalePercentage(ctx context.Context, eventID int64, percentage uint64, caller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog.UpdateMaxResalePercentage(eventID, percentage, caller)
}

// CheckDiscountedPrice returns what the buyer would actually pay for a
// listed ticket: the listed price minus min(points, price-1). The
// discount never makes a ticket free. Pure read.
func (m *Market) CheckDiscountedPrice(ticketID int64, buyer string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	price, _, err := m.discountedPrice(ticketID, buyer)
	return price, err
}

func (m *Market) discountedPrice(ticketID int64, buyer string) (price, discount uint64, err error) {
	t, err := m.registry.Info(ticketID)
	if err != nil {
		return 0, 0, fmt.Errorf("discountedPrice: %w", err)
	}
	if !t.IsOnSale {
		return 0, 0, fmt.Errorf("discountedPrice: ticket %d: %w", ticketID, model.ErrNotForSale)
	}

	listed := t.ResalePrice
	discount = m.rewards[buyer]
	if discount > listed-1 {
		discount = listed - 1
	}
	return listed - discount, discount, nil
}

// BuyTicket sells a listed ticket to buyer for exactly the discounted
// price. On a discounted purchase the records come out in the order
// RewardUsed, RewardEarned, TicketBought.
func (m *Market) BuyTicket(ctx context.Context, ticketID int64, buyer string, payment uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	before, err := m.registry.Info(ticketID)
	if err != nil {
		return fmt.Errorf("buyTicket: %w", err)
	}
	if !before.IsOnSale {
		return fmt.Errorf("buyTicket: ticket %d: %w", ticketID, model.ErrNotForSale)
	}

	price, discount, err := m.discountedPrice(ticketID, buyer)
	if err != nil {
		return fmt.Errorf("buyTicket: %w", err)
	}
	if payment != price {
		return fmt.Errorf("buyTicket: must pay the exact amount this is listed for, attached %d, required %d: %w", payment, price, model.ErrWrongPayment)
	}

	ev, err := m.catalog.EventInfo(before.EventID)
	if err != nil {
		return fmt.Errorf("buyTicket: %w", err)
	}

	seller := before.Owner
	primary := seller == ev.Organiser
	earns := primary || m.cfg.RewardOnResale
	var earned uint64
	if earns {
		earned = percentage(price, m.cfg.RewardRatePercent)
	}

	// Bookkeeping. Every step below is infallible given the checks
	// above, so the call can only abort cleanly at the rail.
	prevBalance := m.rewards[buyer]
	if discount > 0 {
		m.rewards[buyer] -= discount
	}
	if err := m.registry.Transfer(ticketID, buyer); err != nil {
		return fmt.Errorf("buyTicket: error transferring ownership: %w", err)
	}
	if err := m.registry.SetSaleState(ticketID, buyer, false, 0); err != nil {
		return fmt.Errorf("buyTicket: error clearing sale state: %w", err)
	}
	m.catalog.RemoveFromOnSale(before.EventID, ticketID)
	if earns {
		m.rewards[buyer] += earned
	}

	rollback := func() {
		m.rewards[buyer] = prevBalance
		m.registry.Transfer(ticketID, seller)
		m.registry.SetSaleState(ticketID, seller, true, before.ResalePrice)
		m.catalog.AddToOnSale(before.EventID, ticketID)
	}

	// Money moves last: collect the payment, then forward it to the
	// party that gave up the ticket (the organiser on a primary sale).
	if err := m.rail.Receive(ctx, buyer, payment); err != nil {
		rollback()
		return fmt.Errorf("buyTicket: error collecting payment: %w", err)
	}
	if err := m.rail.Transfer(ctx, seller, payment); err != nil {
		if gbErr := m.rail.Transfer(ctx, buyer, payment); gbErr != nil {
			logger.Errorf(ctx, "buyTicket: payment of %d stranded in escrow for %s: %+v", payment, buyer, gbErr)
		}
		rollback()
		return fmt.Errorf("buyTicket: error forwarding payment: %w", err)
	}

	out := make([]records.Record, 0, 3)
	if discount > 0 {
		out = append(out, records.RewardUsed{Buyer: buyer, Amount: discount})
	}
	if earns {
		out = append(out, records.RewardEarned{Buyer: buyer, Amount: earned})
	}
	out = append(out, records.TicketBought{TicketID: ticketID, Buyer: buyer, Price: price})
	m.sink.Publish(out...)
	return nil
}

// ListTicketForResale lists an owned ticket at price, subject to the
// event's resale cap: price <= originalPrice*(100+maxResalePct)/100.
func (m *Market) ListTicketForResale(ctx context.Context, ticketID int64, price uint64, caller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.registry.Info(ticketID)
	if err != nil {
		return fmt.Errorf("listTicketForResale: %w", err)
	}
	if t.Owner != caller {
		return fmt.Errorf("listTicketForResale: caller %s does not own ticket %d: %w", caller, ticketID, model.ErrUnauthorized)
	}
	if price == 0 {
		return fmt.Errorf("listTicketForResale: resale price must be greater than 0: %w", model.ErrInvalidArgument)
	}

	ev, err := m.catalog.EventInfo(t.EventID)
	if err != nil {
		return fmt.Errorf("listTicketForResale: %w", err)
	}
	maxPrice := percentage(t.OriginalPrice, 100+ev.MaxResalePercentage)
	if price > maxPrice {
		return fmt.Errorf("listTicketForResale: price %d exceeds cap %d: %w", price, maxPrice, model.ErrResaleCapExceeded)
	}

	if err := m.registry.SetSaleState(ticketID, caller, true, price); err != nil {
		return fmt.Errorf("listTicketForResale: %w", err)
	}
	m.catalog.AddToOnSale(t.EventID, ticketID)
	return nil
}

// UnlistTicketFromResale takes an owned, listed ticket off sale and
// resets its resale price to 0.
func (m *Market) UnlistTicketFromResale(ctx context.Context, ticketID int64, caller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.registry.Info(ticketID)
	if err != nil {
		return fmt.Errorf("unlistTicketFromResale: %w", err)
	}
	if t.Owner != caller {
		return fmt.Errorf("unlistTicketFromResale: caller %s does not own ticket %d: %w", caller, ticketID, model.ErrUnauthorized)
	}
	if !t.IsOnSale {
		return fmt.Errorf("unlistTicketFromResale: ticket %d: %w", ticketID, model.ErrNotForSale)
	}

	if err := m.registry.SetSaleState(ticketID, caller, false, 0); err != nil {
		return fmt.Errorf("unlistTicketFromResale: %w", err)
	}
	m.catalog.RemoveFromOnSale(t.EventID, ticketID)
	return nil
}

// GiftTicket hands an owned ticket to recipient for free, with no
// reward effect. A listed ticket is implicitly unlisted first.
func (m *Market) GiftTicket(ctx context.Context, ticketID int64, recipient, caller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.registry.Info(ticketID)
	if err != nil {
		return fmt.Errorf("giftTicket: %w", err)
	}
	if t.Owner != caller {
		return fmt.Errorf("giftTicket: caller %s does not own ticket %d: %w", caller, ticketID, model.ErrUnauthorized)
	}
	if recipient == caller {
		return fmt.Errorf("giftTicket: recipient equals the current owner: %w", model.ErrSelfGift)
	}

	if t.IsOnSale && m.cfg.GiftUnlists {
		if err := m.registry.SetSaleState(ticketID, caller, false, 0); err != nil {
			return fmt.Errorf("giftTicket: error clearing sale state: %w", err)
		}
		m.catalog.RemoveFromOnSale(t.EventID, ticketID)
	}
	if err := m.registry.Transfer(ticketID, recipient); err != nil {
		return fmt.Errorf("giftTicket: error transferring ownership: %w", err)
	}
	return nil
}

// CancelEventAndRefund cancels an active event and pays every holder
// of a sold ticket back the ticket's original category price. The
// attached refund funds must equal the owed sum exactly. Tickets are
// not burned; the event is just flagged inactive for all future
// queries.
func (m *Market) CancelEventAndRefund(ctx context.Context, eventID int64, caller string, refundFunds uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, err := m.catalog.EventInfo(eventID)
	if err != nil {
		return fmt.Errorf("cancelEventAndRefund: %w", err)
	}
	if caller != ev.Organiser {
		return fmt.Errorf("cancelEventAndRefund: caller %s is not the organiser of event %d: %w", caller, eventID, model.ErrUnauthorized)
	}
	if !ev.IsActive {
		return fmt.Errorf("cancelEventAndRefund: event %d: %w", eventID, model.ErrAlreadyInactive)
	}

	owners, owed, total, err := m.refundsOwed(eventID, ev.Organiser)
	if err != nil {
		return fmt.Errorf("cancelEventAndRefund: %w", err)
	}
	if refundFunds != total {
		return fmt.Errorf("cancelEventAndRefund: attached %d, owed %d: %w", refundFunds, total, model.ErrWrongPayment)
	}

	// Collect the refund pot and pay it out before flipping the flag;
	// the flip itself cannot fail, so a rail failure here leaves the
	// event untouched.
	if err := m.rail.Receive(ctx, caller, refundFunds); err != nil {
		return fmt.Errorf("cancelEventAndRefund: error collecting refund funds: %w", err)
	}
	paid := uint64(0)
	for i, owner := range owners {
		if err := m.rail.Transfer(ctx, owner, owed[owner]); err != nil {
			// Claw back every refund already paid out so the aborted
			// call leaves no monetary effect and a retry owes the full
			// sum again.
			recovered := refundFunds - paid
			for _, prev := range owners[:i] {
				if cbErr := m.rail.Receive(ctx, prev, owed[prev]); cbErr != nil {
					logger.Errorf(ctx, "cancelEventAndRefund: unable to claw back %d from %s: %+v", owed[prev], prev, cbErr)
					continue
				}
				recovered += owed[prev]
			}
			m.rail.Transfer(ctx, caller, recovered)
			return fmt.Errorf("cancelEventAndRefund: error refunding owner %s: %w", owner, err)
		}
		paid += owed[owner]
	}

	if err := m.catalog.Cancel(eventID, caller); err != nil {
		return fmt.Errorf("cancelEventAndRefund: %w", err)
	}
	return nil
}

// refundsOwed walks every ticket minted for the event and sums the
// original category price of each one sold, i.e. held by someone other
// than the organiser. Resale prices never matter for refunds.
func (m *Market) refundsOwed(eventID int64, organiser string) (owners []string, owed map[string]uint64, total uint64, err error) {
	categoryIDs, err := m.catalog.EventCategories(eventID)
	if err != nil {
		return nil, nil, 0, err
	}

	owed = make(map[string]uint64)
	for _, categoryID := range categoryIDs {
		ticketIDs, err := m.catalog.CategoryTickets(categoryID)
		if err != nil {
			return nil, nil, 0, err
		}
		for _, ticketID := range ticketIDs {
			t, err := m.registry.Info(ticketID)
			if err != nil {
				return nil, nil, 0, err
			}
			if t.Owner == organiser {
				continue
			}
			if _, seen := owed[t.Owner]; !seen {
				owners = append(owners, t.Owner)
			}
			owed[t.Owner] += t.OriginalPrice
			total += t.OriginalPrice
		}
	}
	return owners, owed, total, nil
}

// RewardBalance reads a buyer's accrued points.
func (m *Market) RewardBalance(buyer string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rewards[buyer]
}

func (m *Market) EventInfo(eventID int64) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog.EventInfo(eventID)
}

func (m *Market) CategoryInfo(categoryID int64) (*model.TicketCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog.CategoryInfo(categoryID)
}

func (m *Market) CategoryTickets(categoryID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog.CategoryTickets(categoryID)
}

func (m *Market) TicketInfo(ticketID int64) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Info(ticketID)
}

func (m *Market) TicketOwner(ticketID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Owner(ticketID)
}

func (m *Market) TicketsOnSale(eventID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog.TicketsOnSale(eventID)
}

func (m *Market) EventsOrganised(organiser string) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog.EventsOrganised(organiser)
}

// percentage computes floor(amount*pct/100) without overflowing on
// ether-scale amounts.
func percentage(amount, pct uint64) uint64 {
	return (amount/100)*pct + (amount%100)*pct/100
}
