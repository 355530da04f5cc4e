package queryexpr

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/queryir"
)

func leaf(model, field string, op ir.Operator, v ir.IRValue) queryir.Condition {
	return queryir.Condition{ModelID: model, FilterKey: field, Field: field, Operator: op, Value: v}
}

func model1Tree(t *testing.T) *queryir.Composite {
	t.Helper()
	tree, err := queryir.Combine(queryir.ConditionGroup{
		ModelID: "Model1",
		Op:      ir.LogicalAnd,
		Conditions: []queryir.Condition{
			leaf("Model1", "date_from", ir.OpGreaterThan, ir.IRString("2025-01-01")),
			leaf("Model1", "vvip", ir.OpEquals, ir.IRInt(1)),
		},
	})
	require.NoError(t, err)
	return tree
}

func TestCompile_Source(t *testing.T) {
	p, err := Compile(model1Tree(t))
	require.NoError(t, err)

	assert.Equal(t, "Model1", p.ModelID())
	assert.Equal(t,
		`((row["date_from"] != nil && row["date_from"] > args[0]) && (row["vvip"] != nil && row["vvip"] == args[1]))`,
		p.Source())
	assert.Equal(t, []any{"2025-01-01", int64(1)}, p.Params())
}

func TestCompile_NoStringInterpolation(t *testing.T) {
	malicious := `x" || true || "`
	tree, err := queryir.Join("M", ir.LogicalAnd, leaf("M", "name", ir.OpEquals, ir.IRString(malicious)))
	require.NoError(t, err)

	p, err := Compile(tree)
	require.NoError(t, err)

	assert.NotContains(t, p.Source(), malicious)
	assert.Equal(t, []any{malicious}, p.Params())

	ok, err := p.Match(map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Match(map[string]any{"name": malicious})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatch_Comparison(t *testing.T) {
	p, err := Compile(model1Tree(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		record map[string]any
		want   bool
	}{
		{"both hold", map[string]any{"date_from": "2025-03-01", "vvip": 1}, true},
		{"narrower int kind", map[string]any{"date_from": "2025-03-01", "vvip": int32(1)}, true},
		{"vvip differs", map[string]any{"date_from": "2025-03-01", "vvip": 0}, false},
		{"date too early", map[string]any{"date_from": "2024-12-31", "vvip": 1}, false},
		{"date equal is not greater", map[string]any{"date_from": "2025-01-01", "vvip": 1}, false},
		{"missing field", map[string]any{"date_from": "2025-03-01"}, false},
		{"nil field", map[string]any{"date_from": "2025-03-01", "vvip": nil}, false},
		{"extra fields ignored", map[string]any{"date_from": "2025-03-01", "vvip": 1, "price": 9.99}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Match(tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatch_Errors(t *testing.T) {
	p, err := Compile(model1Tree(t))
	require.NoError(t, err)

	_, err = p.Match(map[string]any{"date_from": "2025-03-01", "vvip": 1.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "vvip"`)

	_, err = p.Match(map[string]any{"date_from": 20250301, "vvip": 1})
	require.Error(t, err)
}

func TestMatch_Membership(t *testing.T) {
	statuses := ir.IRArray{ir.IRString("Planning"), ir.IRString("Approved")}

	in, err := queryir.Join("Model2", ir.LogicalAnd, leaf("Model2", "bt_status", ir.OpIn, statuses))
	require.NoError(t, err)
	notIn, err := queryir.Join("Model2", ir.LogicalAnd, leaf("Model2", "bt_status", ir.OpNotIn, statuses))
	require.NoError(t, err)

	pIn, err := Compile(in)
	require.NoError(t, err)
	pNotIn, err := Compile(notIn)
	require.NoError(t, err)

	assert.Equal(t, []any{[]any{"Planning", "Approved"}}, pIn.Params())

	for status, want := range map[string]bool{"Planning": true, "Approved": true, "Closed": false} {
		got, err := pIn.Match(map[string]any{"bt_status": status})
		require.NoError(t, err)
		assert.Equal(t, want, got, "in %s", status)

		got, err = pNotIn.Match(map[string]any{"bt_status": status})
		require.NoError(t, err)
		assert.Equal(t, !want, got, "not in %s", status)
	}

	// NULL fails both
	got, err := pNotIn.Match(map[string]any{})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMatch_NotEqualsAndLessThan(t *testing.T) {
	tree, err := queryir.Join("M", ir.LogicalAnd,
		leaf("M", "vip", ir.OpNotEquals, ir.IRBool(true)),
		leaf("M", "age", ir.OpLessThan, ir.IRInt(30)),
	)
	require.NoError(t, err)
	p, err := Compile(tree)
	require.NoError(t, err)

	got, err := p.Match(map[string]any{"vip": false, "age": 25})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Match(map[string]any{"vip": true, "age": 25})
	require.NoError(t, err)
	assert.False(t, got)

	got, err = p.Match(map[string]any{"vip": false, "age": uint8(30)})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMatch_Time(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tree, err := queryir.Join("M", ir.LogicalAnd, leaf("M", "created_at", ir.OpGreaterThan, ir.NewIRTime(from)))
	require.NoError(t, err)
	p, err := Compile(tree)
	require.NoError(t, err)

	got, err := p.Match(map[string]any{"created_at": from.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Match(map[string]any{"created_at": from.Add(-time.Hour)})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMatch_OrTree(t *testing.T) {
	tree, err := queryir.Join("M", ir.LogicalOr,
		leaf("M", "a", ir.OpEquals, ir.IRInt(1)),
		leaf("M", "b", ir.OpEquals, ir.IRInt(2)),
	)
	require.NoError(t, err)
	p, err := Compile(tree)
	require.NoError(t, err)
	assert.Contains(t, p.Source(), " || ")

	// A missing field only falsifies its own leaf.
	got, err := p.Match(map[string]any{"b": 2})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Match(map[string]any{"a": 0, "b": 0})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMatch_NestedTree(t *testing.T) {
	or, err := queryir.Join("M", ir.LogicalOr,
		leaf("M", "a", ir.OpEquals, ir.IRInt(1)),
		leaf("M", "b", ir.OpEquals, ir.IRInt(2)),
	)
	require.NoError(t, err)
	tree, err := queryir.Join("M", ir.LogicalAnd, or, leaf("M", "c", ir.OpEquals, ir.IRInt(3)))
	require.NoError(t, err)

	p, err := Compile(tree)
	require.NoError(t, err)

	got, err := p.Match(map[string]any{"a": 1, "c": 3})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Match(map[string]any{"a": 1, "c": 4})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCompile_Rejects(t *testing.T) {
	_, err := Compile(nil)
	require.Error(t, err)

	leaky := &queryir.Composite{
		ModelID: "Model1",
		Op:      ir.LogicalAnd,
		Children: []queryir.Node{
			leaf("Model2", "bt_status", ir.OpIn, ir.IRArray{ir.IRString("Planning")}),
		},
	}
	_, err = Compile(leaky)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid condition tree")
}

func TestFilter(t *testing.T) {
	p, err := Compile(model1Tree(t))
	require.NoError(t, err)

	records := []map[string]any{
		{"id": 1, "date_from": "2025-02-01", "vvip": 1},
		{"id": 2, "date_from": "2025-02-01", "vvip": 0},
		{"id": 3, "date_from": "2025-05-01", "vvip": 1},
	}

	matched, err := p.Filter(records)
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, 1, matched[0]["id"])
	assert.Equal(t, 3, matched[1]["id"])

	_, err = p.Filter([]map[string]any{{"date_from": "2025-02-01", "vvip": 1.5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 0")
}

func TestMatch_Concurrent(t *testing.T) {
	p, err := Compile(model1Tree(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]bool, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.Match(map[string]any{"date_from": "2025-02-01", "vvip": i % 2})
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, i%2 == 1, got)
	}
}
