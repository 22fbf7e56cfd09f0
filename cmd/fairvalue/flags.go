package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// requestFromFlags builds a raw valuation request from the flags the user
// actually set, so unset flags fall through to configured defaults.
func requestFromFlags(cmd *cobra.Command) (map[string]any, error) {
	raw := map[string]any{}
	f := cmd.Flags()

	if f.Changed("mode") {
		v, _ := f.GetString("mode")
		raw["mode"] = v
	}
	if f.Changed("years") {
		v, _ := f.GetInt("years")
		raw["forecast_years"] = v
	}
	if f.Changed("discount-rate") {
		v, _ := f.GetFloat64("discount-rate")
		raw["discount_rate"] = v
	}
	if f.Changed("margin") {
		v, _ := f.GetFloat64("margin")
		raw["margin_of_safety"] = v
	}
	if f.Changed("owner-earnings") {
		v, _ := f.GetBool("owner-earnings")
		raw["use_owner_earnings"] = v
	}

	specs, _ := f.GetStringArray("scenario")
	if len(specs) > 0 {
		scenarios := make([]any, 0, len(specs))
		for _, spec := range specs {
			s, err := parseScenarioFlag(spec)
			if err != nil {
				return nil, err
			}
			scenarios = append(scenarios, s)
		}
		raw["scenarios"] = scenarios
	}
	return raw, nil
}

// parseScenarioFlag parses name:growth[:multiple[:probability]]. growth is
// a rate or a comma-separated list of per-year rates.
func parseScenarioFlag(spec string) (map[string]any, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 4 || strings.TrimSpace(parts[0]) == "" {
		return nil, fmt.Errorf("invalid scenario %q: want name:growth[:multiple[:probability]]", spec)
	}

	s := map[string]any{"name": strings.TrimSpace(parts[0])}

	rates := strings.Split(parts[1], ",")
	growth := make([]any, 0, len(rates))
	for _, r := range rates {
		g, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid growth rate %q in scenario %q", r, spec)
		}
		growth = append(growth, g)
	}
	if len(growth) == 1 {
		s["growth_rate"] = growth[0]
	} else {
		s["growth_rates"] = growth
	}

	for i, key := range []string{"terminal_multiple", "probability"} {
		if len(parts) <= i+2 {
			break
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i+2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q in scenario %q", strings.ReplaceAll(key, "_", " "), parts[i+2], spec)
		}
		s[key] = v
	}
	return s, nil
}
