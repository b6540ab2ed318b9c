package auth

import "context"

// Identity текущий пользователь запроса
type Identity struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

type identityKey struct{}

// WithIdentity кладет личность пользователя в контекст запроса
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext возвращает личность пользователя. false, если запрос анонимный.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != 0
}
