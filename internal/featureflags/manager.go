// Package featureflags evaluates FEATURE_FLAGS rollouts per user.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags understood by the API.
const (
	// WebPVariants writes a downscaled .webp copy next to uploaded images.
	WebPVariants = "webp_variants"
	// ActivityStream enables the /api/ws activity feed.
	ActivityStream = "activity_stream"
)

// Manager evaluates flags defined as a comma-separated key=value list, for
// example "webp_variants=25%,activity_stream=on".
type Manager struct {
	flags map[string]string
}

// State is one flag's configured value and its evaluation for a user.
type State struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// NewManager parses raw. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return &Manager{flags: out}
}

// Enabled reports whether name is on for userID. Values may be on/true/1,
// off/false/0, or N% for a deterministic per-user rollout. Percentage
// rollouts never include anonymous users.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// States lists every configured flag evaluated for userID, sorted by name.
func (m *Manager) States(userID uint) []State {
	if m == nil {
		return []State{}
	}
	out := make([]State, 0, len(m.flags))
	for name, value := range m.flags {
		out = append(out, State{Name: name, Value: value, Enabled: m.Enabled(name, userID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
