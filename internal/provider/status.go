package provider

import (
	"context"
	"time"
)

// Status is the result of pinging one provider.
type Status struct {
	Name       string
	Err        error
	Latency    time.Duration
	Categories map[string][]ModelType // supported models by ModelCategory
}

// OK reports whether the ping succeeded.
func (s Status) OK() bool { return s.Err == nil }

// Check pings each provider in turn, each bounded by timeout, and groups
// its supported models by category in AllModels order.
func Check(ctx context.Context, timeout time.Duration, providers ...Provider) []Status {
	out := make([]Status, 0, len(providers))
	for _, p := range providers {
		st := Status{Name: p.Info().Name, Categories: make(map[string][]ModelType)}

		supported := make(map[ModelType]bool)
		for _, m := range p.SupportedModels() {
			supported[m] = true
		}
		for _, m := range AllModels() {
			if supported[m] {
				cat := ModelCategory(m)
				st.Categories[cat] = append(st.Categories[cat], m)
			}
		}

		pctx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		st.Err = p.Ping(pctx)
		st.Latency = time.Since(start)
		cancel()

		out = append(out, st)
	}
	return out
}
