package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) getExpensesKey(roomId string) string {
	return "room:" + roomId + ":expenses"
}

func (r repo) AddExpense(ctx context.Context, params *room.AddExpenseParams) error {
	data, err := json.Marshal(params.Expense)
	if err != nil {
		return fmt.Errorf("failed to marshal expense: %w", err)
	}

	pipe := r.rc.TxPipeline()

	expensesKey := r.getExpensesKey(params.RoomId)
	pipe.RPush(ctx, expensesKey, data)
	pipe.Expire(ctx, expensesKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to add expense: %w", err)
	}

	return nil
}

func (r repo) GetExpenses(ctx context.Context, roomId string) ([]room.Expense, error) {
	expensesKey := r.getExpensesKey(roomId)
	raw, err := r.rc.LRange(ctx, expensesKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}

	r.rc.Expire(ctx, expensesKey, r.expireDuration)

	expenses := make([]room.Expense, 0, len(raw))
	for _, item := range raw {
		var expense room.Expense
		if err := json.Unmarshal([]byte(item), &expense); err != nil {
			return nil, fmt.Errorf("failed to unmarshal expense: %w", err)
		}

		expenses = append(expenses, expense)
	}

	return expenses, nil
}
