package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elk-audio/sushi-go/pkg/obslog"
)

func TestNewRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["render"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, obslog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, obslog.LevelInfo, parseLogLevel("unknown"))
}
