// Package records defines the named result records a successful
// mutating call emits for external observers, and the sinks they are
// delivered to. Emission order is part of the contract: sinks receive
// records exactly in the order the engine produced them.
package records

import "time"

type Record interface {
	Kind() string
}

type EventCreated struct {
	EventID             int64      `json:"event_id"`
	Name                string     `json:"name"`
	Organiser           string     `json:"organiser"`
	Description         string     `json:"description"`
	Location            string     `json:"location,omitempty"`
	Date                *time.Time `json:"date,omitempty"`
	MaxResalePercentage uint64     `json:"max_resale_percentage"`
}

func (EventCreated) Kind() string { return "EventCreated" }

type TicketCategoryCreated struct {
	CategoryID int64  `json:"category_id"`
	EventID    int64  `json:"event_id"`
	Name       string `json:"name"`
	Description string `json:"description"`
	Price      uint64 `json:"price"`
	Count      uint64 `json:"count"`
}

func (TicketCategoryCreated) Kind() string { return "TicketCategoryCreated" }

type TicketBought struct {
	TicketID int64  `json:"ticket_id"`
	Buyer    string `json:"buyer"`
	Price    uint64 `json:"price"`
}

func (TicketBought) Kind() string { return "TicketBought" }

type RewardEarned struct {
	Buyer  string `json:"buyer"`
	Amount uint64 `json:"amount"`
}

func (RewardEarned) Kind() string { return "RewardEarned" }

type RewardUsed struct {
	Buyer  string `json:"buyer"`
	Amount uint64 `json:"amount"`
}

func (RewardUsed) Kind() string { return "RewardUsed" }

// Sink receives the records of one committed call, in order. Delivery
// happens after the call has committed; a sink error is logged by the
// implementation and never unwinds the committed call.
type Sink interface {
	Publish(records ...Record)
}

// Memory buffers records in process. Used by tests and as the default
// sink when no external observer is configured.
type Memory struct {
	Records []Record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(records ...Record) {
	m.Records = append(m.Records, records...)
}

// Kinds returns the record kinds in emission order, which is what most
// tests assert on.
func (m *Memory) Kinds() []string {
	kinds := make([]string, 0, len(m.Records))
	for _, r := range m.Records {
		kinds = append(kinds, r.Kind())
	}
	return kinds
}

func (m *Memory) Reset() {
	m.Records = nil
}

// Multi fans records out to every configured sink in order.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Publish(records ...Record) {
	for _, s := range m.sinks {
		s.Publish(records...)
	}
}
