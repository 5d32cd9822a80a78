// Package featureflags evaluates runtime switches configured through FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// RecordPostViews makes post detail requests record a PostView.
	RecordPostViews = "record_post_views"
	// RealtimeNotifications publishes follow, like and comment events to websocket clients.
	RealtimeNotifications = "realtime_notifications"
)

// defaults apply when a known flag is absent from the configuration.
var defaults = map[string]bool{
	RecordPostViews:       true,
	RealtimeNotifications: true,
}

// rule is a parsed flag value: fully on, fully off or a percentage rollout.
type rule struct {
	raw     string
	percent int
}

// Manager evaluates flags written as "name=value" pairs separated by commas.
// Values are on/off (true/false, 1/0) or a rollout percentage such as "25%".
type Manager struct {
	rules map[string]rule
}

func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" {
			continue
		}
		r, ok := parseRule(value)
		if !ok {
			continue
		}
		rules[name] = r
	}
	return &Manager{rules: rules}
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, percent: 100}, true
	case "off", "false", "0":
		return rule{raw: value, percent: 0}, true
	}
	if pct, ok := strings.CutSuffix(value, "%"); ok {
		n, err := strconv.Atoi(pct)
		if err != nil {
			return rule{}, false
		}
		return rule{raw: value, percent: min(max(n, 0), 100)}, true
	}
	return rule{}, false
}

// Enabled reports whether name is on for userID. Partial rollouts are
// deterministic per user and always off for anonymous callers (userID 0).
func (m *Manager) Enabled(name string, userID uint) bool {
	name = normalize(name)
	if m == nil {
		return defaults[name]
	}
	r, ok := m.rules[name]
	if !ok {
		return defaults[name]
	}
	switch {
	case r.percent >= 100:
		return true
	case r.percent <= 0, userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// On reports whether name is enabled for everyone.
func (m *Manager) On(name string) bool {
	name = normalize(name)
	if m == nil {
		return defaults[name]
	}
	if r, ok := m.rules[name]; ok {
		return r.percent >= 100
	}
	return defaults[name]
}

// Raw returns the configured values, including defaults for known flags that were not set.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(defaults))
	for name, on := range defaults {
		if on {
			out[name] = "on"
		} else {
			out[name] = "off"
		}
	}
	if m != nil {
		for name, r := range m.rules {
			out[name] = r.raw
		}
	}
	return out
}

// Snapshot evaluates every known and configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	raw := m.Raw()
	out := make(map[string]bool, len(raw))
	for name := range raw {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
