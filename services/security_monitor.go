package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// FailedLoginThreshold failures inside FailedLoginWindow raise an alert
	FailedLoginThreshold = 5
	FailedLoginWindow    = 10 * time.Minute
	// AlertCooldown is the minimum gap between two alerts for one address
	AlertCooldown = time.Hour
	maxAlerts     = 100
)

// SecurityAlert represents a triggered security alert
type SecurityAlert struct {
	Timestamp time.Time
	IP        string
	Reason    string
}

// LoginMonitor watches sign-in failures per remote address and logs an alert
// when an address keeps failing.
type LoginMonitor struct {
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time
	alerted  map[string]time.Time
	alerts   []SecurityAlert
}

func NewLoginMonitor(logger *zap.Logger) *LoginMonitor {
	return &LoginMonitor{
		logger:   logger,
		now:      time.Now,
		failures: make(map[string][]time.Time),
		alerted:  make(map[string]time.Time),
	}
}

// Failed records a failed sign-in and reports whether it raised an alert
func (m *LoginMonitor) Failed(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	recent := m.failures[ip][:0]
	for _, t := range m.failures[ip] {
		if now.Sub(t) < FailedLoginWindow {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	m.failures[ip] = recent

	if len(recent) < FailedLoginThreshold {
		return false
	}
	if last, ok := m.alerted[ip]; ok && now.Sub(last) < AlertCooldown {
		return false
	}

	m.alerted[ip] = now
	alert := SecurityAlert{Timestamp: now, IP: ip, Reason: "Multiple failed logins detected"}
	m.alerts = append([]SecurityAlert{alert}, m.alerts...)
	if len(m.alerts) > maxAlerts {
		m.alerts = m.alerts[:maxAlerts]
	}
	m.logger.Warn("security alert",
		zap.String("ip", ip),
		zap.String("reason", alert.Reason),
		zap.Int("failures", len(recent)),
	)
	return true
}

// Succeeded forgets the failures of an address after a good sign-in
func (m *LoginMonitor) Succeeded(ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, ip)
}

// RecentAlerts returns the alerts newest first
func (m *LoginMonitor) RecentAlerts() []SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SecurityAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Prune drops failure windows and alert cooldowns that have expired
func (m *LoginMonitor) Prune() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for ip, attempts := range m.failures {
		if len(attempts) == 0 || now.Sub(attempts[len(attempts)-1]) >= FailedLoginWindow {
			delete(m.failures, ip)
		}
	}
	for ip, last := range m.alerted {
		if now.Sub(last) >= AlertCooldown {
			delete(m.alerted, ip)
		}
	}
}
