package service

import "github.com/listenupapp/watchlist-server/internal/validation"

// validate is the shared request validator. Its errors are already domain
// validation errors, so services return them unchanged.
var validate = validation.New()
