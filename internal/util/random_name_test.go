package util

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRandomName(t *testing.T) {
	a := assert.New(t)

	random = rand.New(rand.NewSource(0)) // nolint:gosec
	first := GetRandomName()
	second := GetRandomName()

	random = rand.New(rand.NewSource(0)) // nolint:gosec
	a.Equal(first, GetRandomName())
	a.Equal(second, GetRandomName())

	parts := strings.Split(first, " ")
	if a.Len(parts, 2) {
		a.Contains(adjectives, parts[0])
		a.Contains(animals, parts[1])
	}
}

func TestGetRandomUsername(t *testing.T) {
	username := GetRandomUsername()
	assert.Regexp(t, `^[a-z]+_[a-z]+$`, username)
}
