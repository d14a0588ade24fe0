package devserver

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/gallery-client/internal/model"
)

type userIDKey struct{}

var _ model.ContextManager = ContextManager{}

// ContextManager stores the authenticated user ID in request contexts.
type ContextManager struct{}

func (ContextManager) SetUserIDToContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func (ContextManager) GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
