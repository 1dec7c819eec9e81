package room

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/watchparty/server/internal/repository/room"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type AddExpenseParams struct {
	Amount   float64
	Note     string
	Weight   int
	SenderId string
	RoomId   string
}

type AddExpenseResponse struct {
	Expense Expense
}

// AddExpense records a shared expense paid by the sender.
func (s *service) AddExpense(ctx context.Context, params *AddExpenseParams) (AddExpenseResponse, error) {
	if params.Amount <= 0 || math.IsNaN(params.Amount) || math.IsInf(params.Amount, 0) {
		return AddExpenseResponse{}, ErrInvalidInput
	}
	if strings.TrimSpace(params.Note) == "" || params.Weight < 1 {
		return AddExpenseResponse{}, ErrInvalidInput
	}

	rm, err := s.checkIfMember(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return AddExpenseResponse{}, err
	}
	if rm.Status == room.StatusEnded {
		return AddExpenseResponse{}, ErrRoomEnded
	}

	expense := room.Expense{
		Id:        uuid.NewString(),
		UserId:    params.SenderId,
		Amount:    params.Amount,
		Note:      params.Note,
		Weight:    params.Weight,
		CreatedAt: s.nowMilli(),
	}
	if err := s.roomRepo.AddExpense(ctx, &room.AddExpenseParams{
		Expense: expense,
		RoomId:  params.RoomId,
	}); err != nil {
		return AddExpenseResponse{}, fmt.Errorf("failed to add expense: %w", err)
	}

	added := Expense{
		Id:        expense.Id,
		UserId:    expense.UserId,
		Amount:    expense.Amount,
		Note:      expense.Note,
		Weight:    expense.Weight,
		CreatedAt: expense.CreatedAt,
	}

	s.broadcast(ctx, params.RoomId, &Output{
		Type: "EXPENSE_ADDED",
		Payload: map[string]any{
			"expense": added,
		},
	})

	return AddExpenseResponse{Expense: added}, nil
}

// GetExpenses returns the recorded expenses, oldest first.
func (s *service) GetExpenses(ctx context.Context, roomId string) ([]Expense, error) {
	if _, err := s.roomRepo.GetRoom(ctx, roomId); err != nil {
		if err == room.ErrRoomNotFound {
			return nil, ErrRoomNotFound
		}

		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	stored, err := s.roomRepo.GetExpenses(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}

	expenses := make([]Expense, 0, len(stored))
	for _, expense := range stored {
		expenses = append(expenses, Expense{
			Id:        expense.Id,
			UserId:    expense.UserId,
			Amount:    expense.Amount,
			Note:      expense.Note,
			Weight:    expense.Weight,
			CreatedAt: expense.CreatedAt,
		})
	}

	return expenses, nil
}

type BalancesResponse struct {
	TotalAmount float64   `json:"total_amount"`
	PerMember   []Balance `json:"per_member"`
}

// Balances splits the room total equally across all members: balance is
// what the member paid minus their share, so a positive balance is owed
// money by the group.
func (s *service) Balances(ctx context.Context, roomId string) (BalancesResponse, error) {
	if _, err := s.roomRepo.GetRoom(ctx, roomId); err != nil {
		if err == room.ErrRoomNotFound {
			return BalancesResponse{}, ErrRoomNotFound
		}

		return BalancesResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	expenses, err := s.roomRepo.GetExpenses(ctx, roomId)
	if err != nil {
		return BalancesResponse{}, fmt.Errorf("failed to get expenses: %w", err)
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return BalancesResponse{}, fmt.Errorf("failed to get member ids: %w", err)
	}

	paid := make(map[string]float64, len(memberIds))
	for _, userId := range memberIds {
		paid[userId] = 0
	}

	var total float64
	for _, expense := range expenses {
		total += expense.Amount
		paid[expense.UserId] += expense.Amount
	}

	userIds := maps.Keys(paid)
	slices.Sort(userIds)

	var share float64
	if len(userIds) > 0 {
		share = total / float64(len(userIds))
	}

	perMember := make([]Balance, 0, len(userIds))
	for _, userId := range userIds {
		perMember = append(perMember, Balance{
			UserId:  userId,
			Paid:    paid[userId],
			Owed:    share,
			Balance: paid[userId] - share,
		})
	}

	return BalancesResponse{
		TotalAmount: total,
		PerMember:   perMember,
	}, nil
}
