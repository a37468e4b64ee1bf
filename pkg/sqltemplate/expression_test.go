package sqltemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	params := `{
		"a": 1, "b": 2, "zero": 0, "fzero": 0.0, "flag": false, "on": true,
		"name": "ann", "blank": "  ", "n": "12", "word": "abd",
		"ids": [1], "empty": [], "user": {"age": 18}
	}`

	tests := []struct {
		expr string
		want bool
	}{
		// truthiness
		{"", false},
		{"   ", false},
		{"a", true},
		{"zero", false},
		{"fzero", false},
		{"flag", false},
		{"on", true},
		{"name", true},
		{"blank", false},
		{"ids", true},
		{"empty", false},
		{"missing", false},

		// equality
		{"a == 1", true},
		{"a==1", true},
		{"a == 1.0", true},
		{"a != 1", false},
		{"a == b", false},
		{"name == 'ann'", true},
		{`name == "ann"`, true},
		{"name == 'bob'", false},
		{"name != ''", true},
		{"missing == null", true},
		{"missing != null", false},
		{"name != NULL", true},
		{"on == TRUE", true},
		{"flag == false", true},
		{"a == '1'", false},

		// ordering
		{"a < b", true},
		{"b > a", true},
		{"a >= 1", true},
		{"a <= 0", false},
		{"user.age >= 18", true},
		{"user.age > 18", false},
		{"n >= 10", true},
		{"word > 'abc'", true},
		{"word < 'abc'", false},

		// negation
		{"!flag", true},
		{"!on", false},
		{"!missing", true},
		{"!a == 1", false},

		// connectives
		{"a == 1 and b == 2", true},
		{"a == 1 and b == 3", false},
		{"a == 2 or b == 2", true},
		{"a == 2 or b == 3", false},
		{"on or flag and flag", true},
		{"flag or on and flag", false},
		{"name != null and name != ''", true},
	}

	scope := GlobalScope(mustParams(t, params))
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.expr, scope))
		})
	}
}

func TestEvaluate_NumbersCompareByValue(t *testing.T) {
	scope := GlobalScope(mustParams(t, `{"n": 1, "f": 1.0, "big": 2.5}`))

	assert.True(t, Evaluate("n == 1.0", scope))
	assert.True(t, Evaluate("f == 1", scope))
	assert.True(t, Evaluate("n == f", scope))
	assert.False(t, Evaluate("n != 1.0", scope))
	assert.False(t, Evaluate("big == 2", scope))
}

func TestEvaluate_UsesLoopVariable(t *testing.T) {
	scope := GlobalScope(mustParams(t, `{"min": 2}`)).WithLocal("row", Object(map[string]Value{"n": Int(3)}))

	assert.True(t, Evaluate("row.n > min", scope))
	assert.False(t, Evaluate("row.n == 4", scope))
}
