package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMySessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/sessions",
		Summary:     "List sessions",
		Description: "Returns the authenticated user's active sessions, most recently used first",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMySessions)
}

// === DTOs ===

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// SessionResponse describes one signed-in device.
type SessionResponse struct {
	ID            string    `json:"id" doc:"Session ID"`
	DeviceType    string    `json:"device_type,omitempty" doc:"Device type"`
	Platform      string    `json:"platform,omitempty" doc:"Platform"`
	ClientName    string    `json:"client_name,omitempty" doc:"Client name"`
	ClientVersion string    `json:"client_version,omitempty" doc:"Client version"`
	DeviceName    string    `json:"device_name,omitempty" doc:"Device name"`
	IPAddress     string    `json:"ip_address,omitempty" doc:"Last seen IP address"`
	CreatedAt     time.Time `json:"created_at" doc:"Sign-in time"`
	LastSeenAt    time.Time `json:"last_seen_at" doc:"Last token refresh"`
	ExpiresAt     time.Time `json:"expires_at" doc:"Refresh token expiry"`
}

// SessionsOutput wraps the session list for Huma.
type SessionsOutput struct {
	Body struct {
		Sessions []SessionResponse `json:"sessions" doc:"Active sessions"`
	}
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUser(user)}, nil
}

func (s *Server) handleListMySessions(ctx context.Context, _ *struct{}) (*SessionsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.services.Sessions.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &SessionsOutput{}
	out.Body.Sessions = make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out.Body.Sessions = append(out.Body.Sessions, SessionResponse{
			ID:            sess.ID,
			DeviceType:    sess.DeviceType,
			Platform:      sess.Platform,
			ClientName:    sess.ClientName,
			ClientVersion: sess.ClientVersion,
			DeviceName:    sess.DeviceName,
			IPAddress:     sess.IPAddress,
			CreatedAt:     sess.CreatedAt,
			LastSeenAt:    sess.LastSeenAt,
			ExpiresAt:     sess.ExpiresAt,
		})
	}
	return out, nil
}
