package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestTag_MatchesLabel(t *testing.T) {
	tag := &Tag{
		Kind:    KindGame,
		Name:    "Role-playing (RPG)",
		Aliases: pq.StringArray{"RPG", "Role-playing"},
	}

	assert.True(t, tag.MatchesLabel("Role-playing (RPG)"))
	assert.True(t, tag.MatchesLabel("RPG"))
	assert.True(t, tag.MatchesLabel("Role-playing"))
	assert.False(t, tag.MatchesLabel("rpg"))
	assert.False(t, tag.MatchesLabel("Strategy"))
}

func TestPlatform_MatchesLabel(t *testing.T) {
	platform := &Platform{
		Name:    "PC",
		Aliases: pq.StringArray{"PC (Microsoft Windows)", "Windows"},
	}

	assert.True(t, platform.MatchesLabel("PC"))
	assert.True(t, platform.MatchesLabel("PC (Microsoft Windows)"))
	assert.True(t, platform.MatchesLabel("Windows"))
	assert.False(t, platform.MatchesLabel("pc"))
	assert.False(t, platform.MatchesLabel("Linux"))
}
