package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessages(t *testing.T) {
	var m Messages
	assert.Equal(t, 0, m.Len())

	m1 := m.Set("required", "value is required").Set("inRange", "out of range")
	assert.Equal(t, []string{"inRange", "required"}, m1.Names())
	assert.Equal(t, 0, m.Len(), "receiver untouched")

	m2 := m1.Acknowledge("inRange")
	assert.True(t, m2.Acknowledged("inRange"))
	assert.False(t, m1.Acknowledged("inRange"))
	assert.Equal(t, []string{"required"}, m2.Pending())

	m3 := m2.Clear("required")
	_, ok := m3.Get("required")
	assert.False(t, ok)

	reset := m2.Reset()
	assert.Equal(t, 0, reset.Len())
	assert.Equal(t, []string{"inRange"}, reset.Acks())
}

func TestMessagesEqual(t *testing.T) {
	a := NewMessages(map[string]string{"x": "1"})
	b := Messages{}.Set("x", "1")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(b.Acknowledge("x")))
	assert.True(t, Messages{}.Equal(Messages{}.Reset()))
}
