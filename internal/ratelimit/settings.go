package ratelimit

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/BenWassa/hearth/internal/config"
)

// Mode identifies which admission algorithm a Decision came from.
type Mode string

const (
	ModeTokenBucket Mode = "token_bucket"
	ModeFixedWindow Mode = "fixed_window"
)

// Environment keys read on every check.
const (
	EnvRatePerSecond = "RATE_LIMIT_RATE_PER_SECOND"
	EnvBurstCapacity = "RATE_LIMIT_BURST_CAPACITY"
	EnvScopeWeights  = "RATE_LIMIT_SCOPE_WEIGHTS"
	EnvWindowMs      = "RATE_LIMIT_WINDOW_MS"
	EnvMaxRequests   = "RATE_LIMIT_MAX_REQUESTS"
)

const (
	defaultWindow      = 60 * time.Second
	defaultMaxRequests = 60
)

// Settings is one snapshot of the limiter configuration.
type Settings struct {
	Mode          Mode
	RatePerSecond float64
	BurstCapacity float64
	ScopeWeights  map[string]int
	Window        time.Duration
	MaxRequests   int
}

// DefaultSettings is the permissive fixed-window configuration used when
// nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Mode:         ModeFixedWindow,
		ScopeWeights: map[string]int{},
		Window:       defaultWindow,
		MaxRequests:  defaultMaxRequests,
	}
}

// LoadSettings reads limiter settings from env. It never fails: invalid
// values are treated as absent.
func LoadSettings(env config.Env) (s Settings) {
	defer func() {
		if recover() != nil {
			s = DefaultSettings()
		}
	}()

	s = DefaultSettings()
	if env == nil {
		return s
	}

	if ms, ok := positiveFloat(env, EnvWindowMs); ok {
		s.Window = time.Duration(ms * float64(time.Millisecond))
	}
	if maxReq, ok := positiveFloat(env, EnvMaxRequests); ok {
		s.MaxRequests = int(maxReq)
		if s.MaxRequests < 1 {
			s.MaxRequests = 1
		}
	}

	rate, hasRate := positiveFloat(env, EnvRatePerSecond)
	burst, hasBurst := positiveFloat(env, EnvBurstCapacity)
	if hasRate || hasBurst {
		if !hasBurst {
			burst = math.Max(1, math.Ceil(rate))
		}
		if !hasRate {
			rate = burst
		}
		s.Mode = ModeTokenBucket
		s.RatePerSecond = rate
		s.BurstCapacity = burst
	}

	if raw, ok := env(EnvScopeWeights); ok {
		s.ScopeWeights = parseScopeWeights(raw)
	}
	return s
}

// Weight returns the token cost of one call in scope.
func (s Settings) Weight(scope string) int {
	if w, ok := s.ScopeWeights[scope]; ok && w > 0 {
		return w
	}
	return 1
}

// parseScopeWeights decodes a JSON object of scope to positive integer cost.
// Anything malformed yields an empty map so every scope costs 1.
func parseScopeWeights(raw string) map[string]int {
	weights := map[string]int{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return weights
	}

	var decoded map[string]json.Number
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return map[string]int{}
	}
	for scope, n := range decoded {
		w, err := strconv.Atoi(n.String())
		if err != nil {
			return map[string]int{}
		}
		if w > 0 {
			weights[scope] = w
		}
	}
	return weights
}

func positiveFloat(env config.Env, key string) (float64, bool) {
	raw, ok := env(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
