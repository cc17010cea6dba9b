package utils

import (
	"context"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"
)

// RqIDKey is the telebot context key holding the update's request id.
const RqIDKey = "rqID"

type rqIDKey struct{}

func GetRequestIDFromCtx(ctx context.Context) string {
	rqID, _ := ctx.Value(rqIDKey{}).(string)
	return rqID
}

func WithRqID(ctx context.Context, rqID string) context.Context {
	return context.WithValue(ctx, rqIDKey{}, rqID)
}

// NewCtxWithRqID is used outside of telegram updates: scheduler jobs and cli commands.
func NewCtxWithRqID(ctx context.Context) context.Context {
	return WithRqID(ctx, uuid.NewString())
}

// AssignRqID stores a fresh request id on the update unless one is already set.
func AssignRqID(c tele.Context) string {
	if rqID := RqIDFromTele(c); rqID != "" {
		return rqID
	}
	rqID := uuid.NewString()
	c.Set(RqIDKey, rqID)
	return rqID
}

func RqIDFromTele(c tele.Context) string {
	rqID, _ := c.Get(RqIDKey).(string)
	return rqID
}

// CreateCtxWithRqID starts a handler context carrying the update's request id.
func CreateCtxWithRqID(c tele.Context) context.Context {
	return WithRqID(context.Background(), AssignRqID(c))
}
