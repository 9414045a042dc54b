package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hi-paris/denslowrank/common"
	"github.com/hi-paris/denslowrank/model"
)

func TestConfigValidate(t *testing.T) {
	valid := model.Config{Alpha: 0.1, L: 1, C: 0.005, Cbar: 0.5, Cstar: 0.01}
	assert.NoError(t, valid.Validate())

	for _, tc := range []struct {
		name   string
		mutate func(*model.Config)
	}{
		{"zero alpha", func(c *model.Config) { c.Alpha = 0 }},
		{"negative L", func(c *model.Config) { c.L = -1 }},
		{"zero C", func(c *model.Config) { c.C = 0 }},
		{"zero Cbar", func(c *model.Config) { c.Cbar = 0 }},
		{"negative cstar", func(c *model.Config) { c.Cstar = -0.5 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.True(t, errors.Is(cfg.Validate(), common.ErrorInvalidValue))
		})
	}
}
