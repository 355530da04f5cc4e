package queryir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelfilter/internal/ir"
)

func TestFormatComposite(t *testing.T) {
	tree, err := Combine(referenceGroup())
	require.NoError(t, err)

	assert.Equal(t, `(date_from > "2025-01-01" AND vvip = 1)`, Format(tree))
}

func TestFormatGroup(t *testing.T) {
	assert.Equal(t, `Model1: (date_from > "2025-01-01" AND vvip = 1)`, FormatGroup(referenceGroup()))
}

func TestFormatConditions(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		node Condition
		want string
	}{
		{"membership", cond("M", "s", "bt_status", ir.OpIn, ir.IRArray{ir.IRString("Planning"), ir.IRString("Done")}), `bt_status IN ["Planning", "Done"]`},
		{"not in", cond("M", "s", "bt_status", ir.OpNotIn, ir.IRArray{ir.IRInt(1)}), `bt_status NOT IN [1]`},
		{"not equals bool", cond("M", "v", "vvip", ir.OpNotEquals, ir.IRBool(false)), `vvip != false`},
		{"time", cond("M", "d", "date_from", ir.OpLessThan, ir.NewIRTime(ts)), `date_from < "2025-01-01T00:00:00Z"`},
		{"escaped string", cond("M", "n", "name", ir.OpEquals, ir.IRString(`a"b`)), `name = "a\"b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.node))
		})
	}
}

func TestFormatNil(t *testing.T) {
	assert.Equal(t, "<nil>", Format(nil))
	assert.Equal(t, "<nil>", Format((*Composite)(nil)))
	assert.Equal(t, "null", FormatValue(ir.IRNull{}))
}
