// Package catalog owns the Event and TicketCategory records and the
// organiser authorization around them. Category creation delegates the
// actual minting to the ownership registry, and the catalog keeps the
// per-event tickets-on-sale index the marketplace uses for discovery.
package catalog

import (
	"fmt"
	"time"

	"ticketmister-backend/model"
	"ticketmister-backend/registry"
)

type Catalog struct {
	registry *registry.Registry

	events     map[int64]*model.Event
	categories map[int64]*model.TicketCategory
	byEvent    map[int64][]int64
	organised  map[string][]int64
	onSale     map[int64][]int64

	nextEventID    int64
	nextCategoryID int64
}

func New(reg *registry.Registry) *Catalog {
	return &Catalog{
		registry:       reg,
		events:         make(map[int64]*model.Event),
		categories:     make(map[int64]*model.TicketCategory),
		byEvent:        make(map[int64][]int64),
		organised:      make(map[string][]int64),
		onSale:         make(map[int64][]int64),
		nextEventID:    1,
		nextCategoryID: 1,
	}
}

// CreateEvent registers a new active event owned by organiser and
// appends it to the organiser's index.
func (c *Catalog) CreateEvent(name, description, location string, date *time.Time, maxResalePercentage uint64, organiser string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("createEvent: event name cannot be empty: %w", model.ErrInvalidArgument)
	}
	if description == "" {
		return 0, fmt.Errorf("createEvent: event description cannot be empty: %w", model.ErrInvalidArgument)
	}
	if maxResalePercentage > 100 {
		return 0, fmt.Errorf("createEvent: max resale percentage must be between 0 and 100: %w", model.ErrInvalidArgument)
	}

	id := c.nextEventID
	c.nextEventID++
	c.events[id] = &model.Event{
		EventID:             id,
		Organiser:           organiser,
		Name:                name,
		Description:         description,
		Location:            location,
		Date:                date,
		MaxResalePercentage: maxResalePercentage,
		IsActive:            true,
	}
	c.organised[organiser] = append(c.organised[organiser], id)
	return id, nil
}

// CreateCategory mints count tickets priced at price, held by the
// organiser and immediately listed for first sale. Only the event's
// organiser may create categories, and only while the event is active.
func (c *Catalog) CreateCategory(eventID int64, name, description string, price, count uint64, caller string) (*model.TicketCategory, error) {
	ev, ok := c.events[eventID]
	if !ok {
		return nil, fmt.Errorf("createCategory: event %d: %w", eventID, model.ErrNotFound)
	}
	if caller != ev.Organiser {
		return nil, fmt.Errorf("createCategory: caller %s is not the organiser of event %d: %w", caller, eventID, model.ErrUnauthorized)
	}
	if !ev.IsActive {
		return nil, fmt.Errorf("createCategory: event %d: %w", eventID, model.ErrInactive)
	}
	if name == "" {
		return nil, fmt.Errorf("createCategory: category name cannot be empty: %w", model.ErrInvalidArgument)
	}
	if description == "" {
		return nil, fmt.Errorf("createCategory: category description cannot be empty: %w", model.ErrInvalidArgument)
	}
	if price == 0 {
		return nil, fmt.Errorf("createCategory: ticket price must be greater than 0: %w", model.ErrInvalidArgument)
	}
	if count == 0 {
		return nil, fmt.Errorf("createCategory: number of tickets must be greater than 0: %w", model.ErrInvalidArgument)
	}

	id := c.nextCategoryID
	ids, err := c.registry.Mint(id, eventID, price, count, ev.Organiser)
	if err != nil {
		return nil, fmt.Errorf("createCategory: error minting tickets: %w", err)
	}
	c.nextCategoryID++

	cat := &model.TicketCategory{
		CategoryID:      id,
		EventID:         eventID,
		Name:            name,
		Description:     description,
		OriginalPrice:   price,
		NumberOfTickets: count,
		TicketIDs:       ids,
	}
	c.categories[id] = cat
	c.byEvent[eventID] = append(c.byEvent[eventID], id)
	c.onSale[eventID] = append(c.onSale[eventID], ids...)

	copied := *cat
	copied.TicketIDs = append([]int64(nil), ids...)
	return &copied, nil
}

func (c *Catalog) UpdateDescription(eventID int64, description, caller string) error {
	ev, err := c.activeEventForOrganiser("updateDescription", eventID, caller)
	if err != nil {
		return err
	}
	if description == "" {
		return fmt.Errorf("updateDescription: event description cannot be empty: %w", model.ErrInvalidArgument)
	}
	ev.Description = description
	return nil
}

func (c *Catalog) UpdateLocation(eventID int64, location, caller string) error {
	ev, err := c.activeEventForOrganiser("updateLocation", eventID, caller)
	if err != nil {
		return err
	}
	ev.Location = location
	return nil
}

func (c *Catalog) UpdateDate(eventID int64, date *time.Time, caller string) error {
	ev, err := c.activeEventForOrganiser("updateDate", eventID, caller)
	if err != nil {
		return err
	}
	ev.Date = date
	return nil
}

func (c *Catalog) UpdateMaxResalePercentage(eventID int64, percentage uint64, caller string) error {
	ev, err := c.activeEventForOrganiser("updateMaxResalePercentage", eventID, caller)
	if err != nil {
		return err
	}
	if percentage > 100 {
		return fmt.Errorf("updateMaxResalePercentage: max resale percentage must be between 0 and 100: %w", model.ErrInvalidArgument)
	}
	ev.MaxResalePercentage = percentage
	return nil
}

// Cancel flips the event inactive. Irreversible; a second call fails
// with ErrAlreadyInactive.
func (c *Catalog) Cancel(eventID int64, caller string) error {
	ev, ok := c.events[eventID]
	if !ok {
		return fmt.Errorf("cancel: event %d: %w", eventID, model.ErrNotFound)
	}
	if caller != ev.Organiser {
		return fmt.Errorf("cancel: caller %s is not the organiser of event %d: %w", caller, eventID, model.ErrUnauthorized)
	}
	if !ev.IsActive {
		return fmt.Errorf("cancel: event %d: %w", eventID, model.ErrAlreadyInactive)
	}
	ev.IsActive = false
	return nil
}

func (c *Catalog) EventInfo(eventID int64) (*model.Event, error) {
	ev, ok := c.events[eventID]
	if !ok {
		return nil, fmt.Errorf("eventInfo: event %d: %w", eventID, model.ErrNotFound)
	}
	copied := *ev
	return &copied, nil
}

func (c *Catalog) CategoryInfo(categoryID int64) (*model.TicketCategory, error) {
	cat, ok := c.categories[categoryID]
	if !ok {
		return nil, fmt.Errorf("categoryInfo: category %d: %w", categoryID, model.ErrNotFound)
	}
	copied := *cat
	copied.TicketIDs = append([]int64(nil), cat.TicketIDs...)
	return &copied, nil
}

func (c *Catalog) CategoryTickets(categoryID int64) ([]int64, error) {
	cat, ok := c.categories[categoryID]
	if !ok {
		return nil, fmt.Errorf("categoryTickets: category %d: %w", categoryID, model.ErrNotFound)
	}
	return append([]int64(nil), cat.TicketIDs...), nil
}

// TicketsOnSale returns the per-event discovery index. The index
// mirrors each ticket's IsOnSale flag but is never the source of
// truth.
func (c *Catalog) TicketsOnSale(eventID int64) ([]int64, error) {
	if _, ok := c.events[eventID]; !ok {
		return nil, fmt.Errorf("ticketsOnSale: event %d: %w", eventID, model.ErrNotFound)
	}
	return append([]int64(nil), c.onSale[eventID]...), nil
}

// EventCategories lists the category ids created under an event, in
// creation order.
func (c *Catalog) EventCategories(eventID int64) ([]int64, error) {
	if _, ok := c.events[eventID]; !ok {
		return nil, fmt.Errorf("eventCategories: event %d: %w", eventID, model.ErrNotFound)
	}
	return append([]int64(nil), c.byEvent[eventID]...), nil
}

func (c *Catalog) EventsOrganised(organiser string) []int64 {
	return append([]int64(nil), c.organised[organiser]...)
}

// AddToOnSale registers a ticket in the event's discovery index. The
// marketplace calls it after a successful listing.
func (c *Catalog) AddToOnSale(eventID, ticketID int64) {
	for _, id := range c.onSale[eventID] {
		if id == ticketID {
			return
		}
	}
	c.onSale[eventID] = append(c.onSale[eventID], ticketID)
}

// RemoveFromOnSale drops a ticket from the event's discovery index.
func (c *Catalog) RemoveFromOnSale(eventID, ticketID int64) {
	ids := c.onSale[eventID]
	for i, id := range ids {
		if id == ticketID {
			c.onSale[eventID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

func (c *Catalog) activeEventForOrganiser(op string, eventID int64, caller string) (*model.Event, error) {
	ev, ok := c.events[eventID]
	if !ok {
		return nil, fmt.Errorf("%s: event %d: %w", op, eventID, model.ErrNotFound)
	}
	if caller != ev.Organiser {
		return nil, fmt.Errorf("%s: caller %s is not the organiser of event %d: %w", op, caller, eventID, model.ErrUnauthorized)
	}
	if !ev.IsActive {
		return nil, fmt.Errorf("%s: event %d: %w", op, eventID, model.ErrInactive)
	}
	return ev, nil
}
