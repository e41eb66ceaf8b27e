package survey

import (
	"maps"
	"slices"
)

// Messages maps rule names to message text plus the set of rule names
// whose messages were acknowledged.
//
// Messages is immutable: every method returns a new value.
type Messages struct {
	text  map[string]string
	acked map[string]bool
}

// NewMessages builds a message set from text entries.
func NewMessages(text map[string]string) Messages {
	return Messages{text: maps.Clone(text)}
}

// Set records a message for a rule.
func (m Messages) Set(name, text string) Messages {
	if current, ok := m.text[name]; ok && current == text {
		return m
	}
	next := m.clone()
	next.text[name] = text
	return next
}

// Clear removes the message of a rule.
func (m Messages) Clear(name string) Messages {
	if _, ok := m.text[name]; !ok {
		return m
	}
	next := m.clone()
	delete(next.text, name)
	return next
}

// Acknowledge marks a rule's message as acknowledged.
func (m Messages) Acknowledge(names ...string) Messages {
	next := m.clone()
	for _, name := range names {
		next.acked[name] = true
	}
	return next
}

// Reset drops all message text and keeps acknowledgements.
func (m Messages) Reset() Messages {
	if len(m.text) == 0 {
		return m
	}
	return Messages{text: map[string]string{}, acked: maps.Clone(m.acked)}
}

// Get returns the message text for a rule.
func (m Messages) Get(name string) (string, bool) {
	text, ok := m.text[name]
	return text, ok
}

// Acknowledged reports whether a rule's message was acknowledged.
func (m Messages) Acknowledged(name string) bool {
	return m.acked[name]
}

// Names returns rule names carrying a message, sorted.
func (m Messages) Names() []string {
	return slices.Sorted(maps.Keys(m.text))
}

// Acks returns acknowledged rule names, sorted.
func (m Messages) Acks() []string {
	return slices.Sorted(maps.Keys(m.acked))
}

// Pending returns rule names with a message that is not acknowledged, sorted.
func (m Messages) Pending() []string {
	var out []string
	for _, name := range m.Names() {
		if !m.acked[name] {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of messages.
func (m Messages) Len() int {
	return len(m.text)
}

// Equal reports whether both sets carry the same text and acknowledgements.
func (m Messages) Equal(other Messages) bool {
	return maps.Equal(m.text, other.text) && ackEqual(m.acked, other.acked)
}

func ackEqual(a, b map[string]bool) bool {
	count := 0
	for k, v := range a {
		if v {
			count++
			if !b[k] {
				return false
			}
		}
	}
	for _, v := range b {
		if v {
			count--
		}
	}
	return count == 0
}

func (m Messages) clone() Messages {
	next := Messages{text: maps.Clone(m.text), acked: maps.Clone(m.acked)}
	if next.text == nil {
		next.text = map[string]string{}
	}
	if next.acked == nil {
		next.acked = map[string]bool{}
	}
	return next
}
