package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidArgs(t *testing.T) {
	tests := []struct {
		command string
		args    []string
		want    bool
	}{
		{"migrate", nil, true},
		{"migrate", []string{"now"}, false},
		{"seed-categories", nil, true},
		{"create-admin", []string{"admin@cipelem.id", "Siti", "rahasia123"}, true},
		{"create-admin", []string{"admin@cipelem.id"}, false},
		{"list-tickets", nil, true},
		{"list-tickets", []string{"pending"}, true},
		{"list-tickets", []string{"pending", "extra"}, false},
		{"drop-all", nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validArgs(tt.command, tt.args), "%s %v", tt.command, tt.args)
	}
}

func TestRunReturnsConfigErrors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENVIRONMENT", "development")

	err := run(zap.NewNop().Sugar(), "migrate", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
