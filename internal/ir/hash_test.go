package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Object{"WEIGHT": Number(70), "HEIGHT": Number(1.75)}
	b := Object{"HEIGHT": Number(1.75), "WEIGHT": Number(70)}

	fa, err := Fingerprint(DomainScope, a)
	require.NoError(t, err)
	fb, err := Fingerprint(DomainScope, b)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 64)
}

func TestFingerprintDomainSeparation(t *testing.T) {
	v := Object{"x": Number(1)}
	assert.NotEqual(t,
		MustFingerprint(DomainScope, v),
		MustFingerprint(DomainRecord, v))
}

func TestFingerprintDistinguishesNullFromUndefined(t *testing.T) {
	withNull := Object{"x": Null{}}
	withUndefined := Object{"x": nil}
	assert.NotEqual(t,
		MustFingerprint(DomainScope, withNull),
		MustFingerprint(DomainScope, withUndefined))
}

func TestFingerprintError(t *testing.T) {
	_, err := Fingerprint(DomainScope, nil)
	assert.Error(t, err)
	assert.Panics(t, func() { MustFingerprint(DomainScope, nil) })
}
