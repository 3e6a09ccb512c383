// Package mdns advertises the server on the local network through the Avahi
// daemon, so clients can discover it without manual configuration.
package mdns

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/holoplot/go-avahi"
)

const (
	// ServiceType is the DNS-SD service type for Watchlist servers.
	ServiceType = "_watchlist._tcp"

	// APIVersion is the API version advertised in TXT records.
	APIVersion = "v1"

	// ServerVersion is the server version advertised in TXT records.
	ServerVersion = "1.0.0"
)

// Service manages the Avahi entry group for this server.
type Service struct {
	logger *slog.Logger

	mu     sync.Mutex
	server *avahi.Server
	group  *avahi.EntryGroup
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// TXTRecords builds the TXT record set advertised for a server called name.
func TXTRecords(name string) [][]byte {
	return [][]byte{
		[]byte("name=" + name),
		[]byte("version=" + ServerVersion),
		[]byte("api=" + APIVersion),
	}
}

// Start publishes the service on port. Calling Start again replaces the
// previous advertisement. Errors are usually non-fatal for the caller:
// containers rarely have a system bus or an Avahi daemon.
func (s *Service) Start(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("connect to system bus: %w", err)
	}

	server, err := avahi.ServerNew(conn)
	if err != nil {
		return fmt.Errorf("connect to avahi: %w", err)
	}

	group, err := server.EntryGroupNew()
	if err != nil {
		server.Close()
		return fmt.Errorf("create entry group: %w", err)
	}

	err = group.AddService(
		avahi.InterfaceUnspec,
		avahi.ProtoUnspec,
		0,
		name,
		ServiceType,
		"", // default domain (.local)
		"", // host name of this machine
		uint16(port),
		TXTRecords(name),
	)
	if err != nil {
		server.EntryGroupFree(group)
		server.Close()
		return fmt.Errorf("add service: %w", err)
	}

	if err := group.Commit(); err != nil {
		server.EntryGroupFree(group)
		server.Close()
		return fmt.Errorf("commit entry group: %w", err)
	}

	s.server = server
	s.group = group

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", port,
		"name", name,
	)

	return nil
}

// Running reports whether an advertisement is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group != nil
}

// Stop withdraws the advertisement. Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.group == nil {
		return
	}

	if err := s.group.Reset(); err != nil {
		s.logger.Warn("Failed to reset mDNS entry group", "error", err)
	}
	s.server.EntryGroupFree(s.group)
	s.server.Close()

	s.group = nil
	s.server = nil
	s.logger.Info("mDNS advertisement stopped")
}
