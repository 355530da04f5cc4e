package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelfilter/internal/ir"
)

func TestFingerprintStable(t *testing.T) {
	groups := []ConditionGroup{referenceGroup()}

	a, err := Fingerprint(groups)
	require.NoError(t, err)
	b, err := Fingerprint([]ConditionGroup{referenceGroup()})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
}

func TestFingerprintSensitiveToValuesAndOrder(t *testing.T) {
	base, err := Fingerprint([]ConditionGroup{referenceGroup()})
	require.NoError(t, err)

	changed := referenceGroup()
	changed.Conditions[1].Value = ir.IRInt(0)
	other, err := Fingerprint([]ConditionGroup{changed})
	require.NoError(t, err)
	assert.NotEqual(t, base, other)

	swapped := referenceGroup()
	swapped.Conditions[0], swapped.Conditions[1] = swapped.Conditions[1], swapped.Conditions[0]
	other, err = Fingerprint([]ConditionGroup{swapped})
	require.NoError(t, err)
	assert.NotEqual(t, base, other)
}

func TestFingerprintDefaultOp(t *testing.T) {
	explicit, err := Fingerprint([]ConditionGroup{referenceGroup()})
	require.NoError(t, err)

	implicit := referenceGroup()
	implicit.Op = ""
	got, err := Fingerprint([]ConditionGroup{implicit})
	require.NoError(t, err)

	assert.Equal(t, explicit, got)
}
