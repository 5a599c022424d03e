package agent

import (
	"strings"
	"testing"
)

func validConfig() OfflineConfig {
	return OfflineConfig{
		SummaryCheckpoint:    100,
		TargetUpdateInterval: 10,
		Gamma:                0.99,
		LearningRate:         0.001,
		NumHeads:             4,
		BatchSize:            32,
	}
}

// TestOfflineConfigValidate ensures every required field is rejected
// at its zero value: the configuration surface has no defaults.
func TestOfflineConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid configuration rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*OfflineConfig)
	}{
		{"summary checkpoint", func(c *OfflineConfig) { c.SummaryCheckpoint = 0 }},
		{"target update interval", func(c *OfflineConfig) { c.TargetUpdateInterval = 0 }},
		{"gamma", func(c *OfflineConfig) { c.Gamma = 0 }},
		{"learning rate", func(c *OfflineConfig) { c.LearningRate = 0 }},
		{"num heads", func(c *OfflineConfig) { c.NumHeads = 0 }},
		{"batch size", func(c *OfflineConfig) { c.BatchSize = 0 }},
	}
	for _, test := range tests {
		c := validConfig()
		test.mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("zero %v accepted", test.name)
		}
	}

	c := validConfig()
	c.Gamma = 1.5
	if err := c.Validate(); err == nil {
		t.Error("gamma above 1 accepted")
	}
}

// TestCreateOfflineUnknownType ensures requesting an unregistered
// variant fails with an informative error.
func TestCreateOfflineUnknownType(t *testing.T) {
	_, err := CreateOffline(Type("NoSuchAgent"), nil, validConfig(), 14)
	if err == nil {
		t.Fatal("expected error for unregistered type")
	}
	if !strings.Contains(err.Error(), "NoSuchAgent") {
		t.Errorf("error does not name the requested type: %v", err)
	}
}
