package controller

import "context"

type ctxKey string

const (
	roomIdKey ctxKey = "room_id"
	userIdKey ctxKey = "user_id"
)

func contextWithIdentity(ctx context.Context, roomId, userId string) context.Context {
	ctx = context.WithValue(ctx, roomIdKey, roomId)
	return context.WithValue(ctx, userIdKey, userId)
}

func getRoomIdFromCtx(ctx context.Context) string {
	roomId, _ := ctx.Value(roomIdKey).(string)
	return roomId
}

func getUserIdFromCtx(ctx context.Context) string {
	userId, _ := ctx.Value(userIdKey).(string)
	return userId
}
