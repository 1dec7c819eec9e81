package room

import (
	"context"
	"math"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddExpense(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, sender := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	connectTestMember(t, s, roomId, hostId)

	resp, err := s.AddExpense(ctx, &AddExpenseParams{
		Amount:   45.50,
		Note:     "pizza",
		Weight:   1,
		SenderId: hostId,
		RoomId:   roomId,
	})
	require.NoError(t, err)
	assert.Equal(t, 45.50, resp.Expense.Amount)
	assert.Equal(t, hostId, resp.Expense.UserId)
	assert.Len(t, sender.byType("EXPENSE_ADDED"), 1)

	expenses, err := s.GetExpenses(ctx, roomId)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "pizza", expenses[0].Note)
}

func TestAddExpenseInvalidInput(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)

	tests := []struct {
		name   string
		params AddExpenseParams
	}{
		{name: "zero amount", params: AddExpenseParams{Amount: 0, Note: "x", Weight: 1}},
		{name: "negative amount", params: AddExpenseParams{Amount: -5, Note: "x", Weight: 1}},
		{name: "nan amount", params: AddExpenseParams{Amount: math.NaN(), Note: "x", Weight: 1}},
		{name: "empty note", params: AddExpenseParams{Amount: 10, Note: " ", Weight: 1}},
		{name: "zero weight", params: AddExpenseParams{Amount: 10, Note: "x", Weight: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.SenderId = hostId
			tt.params.RoomId = roomId
			_, err := s.AddExpense(ctx, &tt.params)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestBalances(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	userId := joinTestMember(t, s, roomId, "bob")

	_, err := s.AddExpense(ctx, &AddExpenseParams{
		Amount:   90,
		Note:     "tickets",
		Weight:   1,
		SenderId: hostId,
		RoomId:   roomId,
	})
	require.NoError(t, err)

	_, err = s.AddExpense(ctx, &AddExpenseParams{
		Amount:   30,
		Note:     "snacks",
		Weight:   1,
		SenderId: userId,
		RoomId:   roomId,
	})
	require.NoError(t, err)

	resp, err := s.Balances(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, float64(120), resp.TotalAmount)
	require.Len(t, resp.PerMember, 2)

	byUser := make(map[string]Balance, len(resp.PerMember))
	var sum float64
	for _, balance := range resp.PerMember {
		byUser[balance.UserId] = balance
		sum += balance.Balance
	}

	assert.Equal(t, float64(30), byUser[hostId].Balance)
	assert.Equal(t, float64(-30), byUser[userId].Balance)
	assert.Equal(t, float64(60), byUser[hostId].Owed)
	assert.Zero(t, sum)
}

func TestBalancesNoExpenses(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)

	resp, err := s.Balances(ctx, roomId)
	require.NoError(t, err)
	assert.Zero(t, resp.TotalAmount)
	require.Len(t, resp.PerMember, 1)
	assert.Zero(t, resp.PerMember[0].Balance)
	assert.Equal(t, hostId, resp.PerMember[0].UserId)
}

func TestBalancesRoomNotFound(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())

	_, err := s.Balances(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
