package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketmister-backend/model"
)

func TestMintAssignsMonotonicIDs(t *testing.T) {
	r := New()

	first, err := r.Mint(1, 1, 100, 3, "organiser")
	require.Nil(t, err)
	assert.Equal(t, []int64{1, 2, 3}, first)

	second, err := r.Mint(2, 1, 200, 2, "organiser")
	require.Nil(t, err)
	assert.Equal(t, []int64{4, 5}, second)
}

func TestMintedTicketIsListedForFirstSale(t *testing.T) {
	r := New()

	ids, err := r.Mint(7, 3, 250, 1, "organiser")
	require.Nil(t, err)

	ticket, err := r.Info(ids[0])
	require.Nil(t, err)
	assert.Equal(t, int64(7), ticket.CategoryID)
	assert.Equal(t, int64(3), ticket.EventID)
	assert.Equal(t, "organiser", ticket.Owner)
	assert.Equal(t, uint64(250), ticket.OriginalPrice)
	assert.True(t, ticket.IsOnSale)
	assert.Equal(t, uint64(250), ticket.ResalePrice)
}

func TestMintRejectsZeroCountAndPrice(t *testing.T) {
	r := New()

	_, err := r.Mint(1, 1, 100, 0, "organiser")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = r.Mint(1, 1, 0, 5, "organiser")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestTransfer(t *testing.T) {
	r := New()
	ids, err := r.Mint(1, 1, 100, 1, "organiser")
	require.Nil(t, err)

	err = r.Transfer(ids[0], "buyer")
	require.Nil(t, err)

	owner, err := r.Owner(ids[0])
	require.Nil(t, err)
	assert.Equal(t, "buyer", owner)
}

func TestTransferUnknownTicket(t *testing.T) {
	r := New()
	err := r.Transfer(42, "buyer")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSetSaleStateRequiresOwner(t *testing.T) {
	r := New()
	ids, err := r.Mint(1, 1, 100, 1, "organiser")
	require.Nil(t, err)

	err = r.SetSaleState(ids[0], "stranger", false, 0)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	ticket, err := r.Info(ids[0])
	require.Nil(t, err)
	assert.True(t, ticket.IsOnSale)
}

func TestSetSaleStateRejectsZeroPriceListing(t *testing.T) {
	r := New()
	ids, err := r.Mint(1, 1, 100, 1, "organiser")
	require.Nil(t, err)

	err = r.SetSaleState(ids[0], "organiser", true, 0)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestUnlistResetsResalePrice(t *testing.T) {
	r := New()
	ids, err := r.Mint(1, 1, 100, 1, "organiser")
	require.Nil(t, err)

	err = r.SetSaleState(ids[0], "organiser", false, 0)
	require.Nil(t, err)

	ticket, err := r.Info(ids[0])
	require.Nil(t, err)
	assert.False(t, ticket.IsOnSale)
	assert.Equal(t, uint64(0), ticket.ResalePrice)
}

func TestInfoReturnsACopy(t *testing.T) {
	r := New()
	ids, err := r.Mint(1, 1, 100, 1, "organiser")
	require.Nil(t, err)

	ticket, err := r.Info(ids[0])
	require.Nil(t, err)
	ticket.Owner = "tampered"

	owner, err := r.Owner(ids[0])
	require.Nil(t, err)
	assert.Equal(t, "organiser", owner)
}

func TestReadsFailForUnknownIDs(t *testing.T) {
	r := New()

	_, err := r.Owner(1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = r.Info(1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
