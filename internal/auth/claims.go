package auth

import (
	"time"
)

// AccessClaims are the claims carried inside an encrypted access token.
type AccessClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// DeviceInfo is what a client reports about itself when it signs in.
// It is stored on the session so users can tell their devices apart.
type DeviceInfo struct {
	DeviceType    string `json:"device_type"` // mobile, tablet, desktop, web, tv
	Platform      string `json:"platform"`    // iOS, Android, Windows, macOS, Linux, Web
	ClientName    string `json:"client_name"`
	ClientVersion string `json:"client_version"`
	DeviceName    string `json:"device_name"`
}

// IsValid reports whether the minimum fields (device type and platform) are set.
func (d DeviceInfo) IsValid() bool {
	return d.DeviceType != "" && d.Platform != ""
}
