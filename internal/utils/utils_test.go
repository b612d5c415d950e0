package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailValid(t *testing.T) {
	assert.True(t, EmailValid("member@example.com"))
	assert.True(t, EmailValid("first.last+tag@sub.example.co"))

	assert.False(t, EmailValid("not-an-email"))
	assert.False(t, EmailValid("Member <member@example.com>"))
	assert.False(t, EmailValid(""))
}

func TestGenerateRandomId(t *testing.T) {
	id, err := GenerateRandomId()
	assert.NoError(t, err)
	assert.Len(t, id, 8)

	long, err := GenerateRandomId(24)
	assert.NoError(t, err)
	assert.Len(t, long, 24)

	other, err := GenerateRandomId()
	assert.NoError(t, err)
	assert.NotEqual(t, id, other)
}
