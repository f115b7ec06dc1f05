package engine

import (
	"context"
)

// UserResolver looks users up on demand. Nothing is cached.
type UserResolver struct {
	gateway RemoteGateway
}

func NewUserResolver(gateway RemoteGateway) *UserResolver {
	return &UserResolver{gateway: gateway}
}

/*
 * Resolve returns
 * - the user and true if it exists
 * - nil and false if Github doesn't know this login
 * - a *RemoteIOError for any other failure
 */
func (r *UserResolver) Resolve(ctx context.Context, login string) (*GithubUser, bool, error) {
	user, err := r.gateway.LookupUser(ctx, login)
	if err != nil {
		return nil, false, newRemoteIOError("lookup user", login, err)
	}
	if user == nil {
		return nil, false, nil
	}
	return user, true, nil
}
