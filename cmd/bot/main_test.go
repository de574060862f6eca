package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/centromex/foodwaste/internal/config"
)

func TestRunRequiresToken(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "memory"

	err := run(cfg, zap.NewNop())
	assert.ErrorIs(t, err, errMissingToken)
}
