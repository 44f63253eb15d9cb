package adaptive

// Rule names reported in Analysis.Rule.
const (
	RuleNoHistory      = "no_history"
	RuleFastAccurate   = "fast_accurate"
	RuleQuickAccurate  = "quick_accurate"
	RuleFrequentExceed = "frequent_timeouts"
	RuleStruggling     = "struggling"
	RuleSlowInaccurate = "slow_inaccurate"
	RuleStable         = "stable"
)

// Rule is one row of the adjustment table. Applies receives the window
// aggregate; a.CurrentLimitMs is the limit the window was played under.
type Rule struct {
	Name    string
	Delta   int
	Applies func(a Analysis) bool
}

// Rules is evaluated top to bottom and the first match wins. The conditions
// overlap, so the order is part of the behavior.
var Rules = []Rule{
	{
		Name:  RuleFastAccurate,
		Delta: -5000,
		Applies: func(a Analysis) bool {
			return a.Accuracy > 70 && a.AvgResponseTimeMs < 0.6*float64(a.CurrentLimitMs)
		},
	},
	{
		Name:  RuleQuickAccurate,
		Delta: -3000,
		Applies: func(a Analysis) bool {
			return a.Accuracy > 60 && a.AvgResponseTimeMs < 0.7*float64(a.CurrentLimitMs)
		},
	},
	{
		Name:  RuleFrequentExceed,
		Delta: 10000,
		Applies: func(a Analysis) bool {
			return a.ExceedRate > 0.3
		},
	},
	{
		Name:  RuleStruggling,
		Delta: 5000,
		Applies: func(a Analysis) bool {
			return a.Accuracy < 50 || a.AvgResponseTimeMs > 0.8*float64(a.CurrentLimitMs)
		},
	},
	{
		Name:  RuleSlowInaccurate,
		Delta: 3000,
		Applies: func(a Analysis) bool {
			return a.Accuracy < 60 && a.AvgResponseTimeMs > 0.7*float64(a.CurrentLimitMs)
		},
	},
}

var stable = Rule{Name: RuleStable}

func selectRule(a Analysis) Rule {
	for _, r := range Rules {
		if r.Applies(a) {
			return r
		}
	}
	return stable
}
