package sqltemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
)

func lint(t *testing.T, template string) []Issue {
	t.Helper()
	result, err := Lint(template)
	require.NoError(t, err)
	return result.Issues
}

func TestLint_Balanced(t *testing.T) {
	issues := lint(t, `SELECT * FROM t <where><if test="a">AND a = #{a}</if><include refid="x"/></where>`)
	assert.Empty(t, issues)
	assert.NotNil(t, issues)
}

func TestLint_MismatchedNesting(t *testing.T) {
	issues := lint(t, "<if test='1'><where>a</if></where>")
	assert.Equal(t, []Issue{
		{Line: 1, Level: LevelError, Message: "tag mismatch: expected </where> but got </if>"},
		{Line: 1, Level: LevelError, Message: "tag mismatch: expected </if> but got </where>"},
	}, issues)
}

func TestLint_UnexpectedClosingTag(t *testing.T) {
	issues := lint(t, "SELECT 1\n</if>")
	assert.Equal(t, []Issue{
		{Line: 2, Level: LevelError, Message: "unexpected closing tag </if>"},
	}, issues)
}

func TestLint_UnclosedTagsInOpenOrder(t *testing.T) {
	issues := lint(t, "SELECT *\n<where>\n<if test=\"a\">\n<foreach collection=\"ids\">")
	assert.Equal(t, []Issue{
		{Line: 2, Level: LevelError, Message: "unclosed tag <where>"},
		{Line: 3, Level: LevelError, Message: "unclosed tag <if>"},
		{Line: 4, Level: LevelError, Message: "unclosed tag <foreach>"},
	}, issues)
}

func TestLint_MismatchReportsLineOfClosingTag(t *testing.T) {
	issues := lint(t, "SELECT *\n<where>\n<if test=\"a\">x</where>")
	assert.Equal(t, []Issue{
		{Line: 3, Level: LevelError, Message: "tag mismatch: expected </if> but got </where>"},
		{Line: 2, Level: LevelError, Message: "unclosed tag <where>"},
	}, issues)
}

func TestLint_RawPlaceholderWarning(t *testing.T) {
	issues := lint(t, "SELECT * FROM ${table}")
	assert.Equal(t, []Issue{
		{Line: 0, Level: LevelWarn, Message: "`${}` may lead to SQL injection, ensure value is sanitized."},
	}, issues)

	// Reported even on malformed markup, after the tag errors.
	issues = lint(t, "<if>${x}")
	require.Len(t, issues, 2)
	assert.Equal(t, LevelError, issues[0].Level)
	assert.Equal(t, LevelWarn, issues[1].Level)
}

func TestLint_BindInsideStringLiteral(t *testing.T) {
	issues := lint(t, "SELECT * FROM t\nWHERE name LIKE '%#{q}%'")
	assert.Equal(t, []Issue{
		{Line: 2, Level: LevelWarn, Message: "`#{q}` is inside a quoted string literal; the bound value renders as a nested literal"},
	}, issues)
}

func TestLint_AttributeQuotesAreNotLiterals(t *testing.T) {
	issues := lint(t, `<if test="name != ''">AND name = #{name}</if><if test='x'>#{x}</if>`)
	assert.Empty(t, issues)
}

func TestLint_IgnoresComparisons(t *testing.T) {
	assert.Empty(t, lint(t, "SELECT * FROM t WHERE a < 1 AND b > 2"))
}

func TestLint_EmptyTemplate(t *testing.T) {
	_, err := Lint("  \n ")
	assert.ErrorIs(t, err, apperrors.ErrEmptyTemplate)
}
