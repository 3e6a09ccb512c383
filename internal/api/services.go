package api

import "github.com/listenupapp/watchlist-server/internal/service"

// Services groups the business logic services used by the API server.
type Services struct {
	Auth     *service.AuthService
	Sessions *service.SessionService
	Lists    *service.ListService
	Search   *service.SearchService
}
