package llm

import (
	"fmt"

	commonllm "github.com/lessonforge/pipeline/common/llm"
	"github.com/lessonforge/pipeline/internal/config"
	"github.com/lessonforge/pipeline/internal/ratelimit"
)

// BuildTiers constructs the ordered tier list (primary, secondary, backup)
// from configuration, skipping any tier whose API key is absent. At least
// the primary tier must be configured; config.Load already enforces that.
func BuildTiers(cfg config.Config) ([]Tier, error) {
	specs := []struct {
		name string
		pc   config.ProviderConfig
	}{
		{"primary", cfg.PrimaryLLM},
		{"secondary", cfg.SecondaryLLM},
		{"backup", cfg.BackupLLM},
	}

	var tiers []Tier
	for _, s := range specs {
		if !s.pc.Enabled() {
			continue
		}

		client, err := newClient(s.pc)
		if err != nil {
			return nil, fmt.Errorf("building %s tier: %w", s.name, err)
		}

		tiers = append(tiers, Tier{
			Name:   s.name,
			Client: client,
			Gate:   ratelimit.NewGate(s.pc.MinInterval),
		})
	}

	if len(tiers) == 0 {
		return nil, fmt.Errorf("no provider tiers configured")
	}

	return tiers, nil
}

func newClient(pc config.ProviderConfig) (commonllm.Client, error) {
	ccfg := commonllm.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL, Model: pc.Model}

	switch pc.Provider {
	case "anthropic":
		return commonllm.NewAnthropicChat(ccfg)
	case "openai", "openai_compatible":
		return commonllm.New(ccfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", pc.Provider)
	}
}
