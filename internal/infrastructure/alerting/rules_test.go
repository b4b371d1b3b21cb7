package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRuleBreaches(t *testing.T) {
	above := Rule{ID: "r", Metric: "m", Comparator: CompareAbove, Threshold: 100, Severity: SeverityWarning}
	assert.True(t, above.Breaches(150))
	assert.False(t, above.Breaches(100), "threshold itself is not a breach")
	assert.False(t, above.Breaches(50))

	below := Rule{ID: "r", Metric: "m", Comparator: CompareBelow, Threshold: 0.7, Severity: SeverityWarning}
	assert.True(t, below.Breaches(0.5))
	assert.False(t, below.Breaches(0.7))
	assert.False(t, below.Breaches(0.9))
}

func TestRuleValidate(t *testing.T) {
	valid := Rule{ID: "r", Metric: "m", Comparator: CompareAbove, Threshold: 1, Severity: SeverityInfo}
	assert.NoError(t, valid.Validate())

	for name, rule := range map[string]Rule{
		"missing id":       {Metric: "m", Comparator: CompareAbove, Severity: SeverityInfo},
		"missing metric":   {ID: "r", Comparator: CompareAbove, Severity: SeverityInfo},
		"bad comparator":   {ID: "r", Metric: "m", Comparator: "equals", Severity: SeverityInfo},
		"bad severity":     {ID: "r", Metric: "m", Comparator: CompareAbove, Severity: "panic"},
		"negative sustain": {ID: "r", Metric: "m", Comparator: CompareAbove, Severity: SeverityInfo, SustainedFor: -time.Second},
	} {
		assert.Error(t, rule.Validate(), name)
	}
}

func TestConfigValidateEscalationSchedules(t *testing.T) {
	cfg := testEngineConfig()
	cfg.EscalationSchedules[SeverityWarning] = []EscalationTier{
		{After: 5 * time.Minute},
		{After: time.Minute}, // out of order
	}
	assert.Error(t, cfg.Validate())

	cfg = testEngineConfig()
	cfg.EscalationSchedules[SeverityWarning] = []EscalationTier{{After: 0}}
	assert.Error(t, cfg.Validate())

	assert.NoError(t, testEngineConfig().Validate())
}
