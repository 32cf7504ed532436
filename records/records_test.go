package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeepsEmissionOrder(t *testing.T) {
	m := NewMemory()
	m.Publish(
		RewardUsed{Buyer: "alice", Amount: 5},
		RewardEarned{Buyer: "alice", Amount: 3},
		TicketBought{TicketID: 1, Buyer: "alice", Price: 95},
	)

	assert.Equal(t, []string{"RewardUsed", "RewardEarned", "TicketBought"}, m.Kinds())

	m.Reset()
	assert.Empty(t, m.Records)
}

func TestMultiFansOutInOrder(t *testing.T) {
	a := NewMemory()
	b := NewMemory()
	multi := NewMulti(a, b)

	multi.Publish(EventCreated{EventID: 1, Name: "Test Event", Organiser: "organiser-1"})
	multi.Publish(TicketCategoryCreated{CategoryID: 1, EventID: 1, Name: "VIP"})

	assert.Equal(t, []string{"EventCreated", "TicketCategoryCreated"}, a.Kinds())
	assert.Equal(t, a.Kinds(), b.Kinds())
}

func TestMarshalRecordEnvelope(t *testing.T) {
	payload, err := marshalRecord(TicketBought{TicketID: 7, Buyer: "alice", Price: 100})
	require.Nil(t, err)
	assert.JSONEq(t, `{"kind":"TicketBought","record":{"ticket_id":7,"buyer":"alice","price":100}}`, string(payload))
}
