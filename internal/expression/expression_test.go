package expression

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Expression
	}{
		{
			name:  "with revision",
			input: "repo(revision=7)",
			want:  &Expression{Term: Term{Identifier: "repo", Options: map[string]string{"revision": "7"}}},
		},
		{
			name:  "empty options",
			input: "repo()",
			want:  &Expression{Term: Term{Identifier: "repo", Options: map[string]string{}}},
		},
		{
			name:  "bare name",
			input: "repo",
			want:  &Expression{Term: Term{Identifier: "repo", Options: map[string]string{}}},
		},
		{
			name:  "spaces between tokens",
			input: " repo ( revision = HEAD~1 , branch=main ) ",
			want: &Expression{Term: Term{Identifier: "repo", Options: map[string]string{
				"revision": "HEAD~1",
				"branch":   "main",
			}}},
		},
		{
			name:  "quoted value",
			input: `file(path="/tmp/a b,c",project_space=internal)`,
			want: &Expression{Term: Term{Identifier: "file", Options: map[string]string{
				"path":          "/tmp/a b,c",
				"project_space": "internal",
			}}},
		},
		{
			name:  "escaped quote",
			input: `repo(revision="a\"b")`,
			want:  &Expression{Term: Term{Identifier: "repo", Options: map[string]string{"revision": `a"b`}}},
		},
		{
			name:  "translate and edit steps",
			input: "internal(revision=3)|scrub(level=strict)>public",
			want: &Expression{
				Term: Term{Identifier: "internal", Options: map[string]string{"revision": "3"}},
				Operations: []Operation{
					{Operator: Edit, Term: Term{Identifier: "scrub", Options: map[string]string{"level": "strict"}}},
					{Operator: Translate, Term: Term{Identifier: "public", Options: map[string]string{}}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   int
	}{
		{"empty", "", 0},
		{"blank", "   ", 3},
		{"empty value", "repo(revision=)", 14},
		{"missing equals", "repo(revision)", 13},
		{"unclosed paren", "repo(revision=1", 15},
		{"unopened paren", "repo)", 4},
		{"missing option name", "repo(=1)", 5},
		{"trailing comma", "repo(revision=1,)", 16},
		{"duplicate option", "repo(a=1,a=2)", 9},
		{"dangling operator", "repo()>", 7},
		{"unknown operator", "repo()+x", 6},
		{"unterminated quote", `repo(path="abc)`, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			assert.Equal(t, tt.input, pe.Input)
			assert.Equal(t, tt.pos, pe.Pos)
			assert.Contains(t, err.Error(), tt.input)
		})
	}
}

func TestString_RoundTrip(t *testing.T) {
	inputs := []string{
		"repo()",
		"repo(revision=7)",
		"repo(branch=main,revision=HEAD~1)",
		`file(path="/tmp/a b",project_space=internal)`,
		"internal(revision=3)|scrub(level=strict)>public",
		"internal()>public|rename",
		`repo(revision="")`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			e := MustParse(in)
			assert.Equal(t, in, e.String())

			again, err := Parse(e.String())
			require.NoError(t, err)
			if diff := cmp.Diff(e, again); diff != "" {
				t.Errorf("reparse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestString_SortsOptions(t *testing.T) {
	e := MustParse("repo(revision=1,branch=main)")
	assert.Equal(t, "repo(branch=main,revision=1)", e.String())
}

func TestParse_NormalizesUnicode(t *testing.T) {
	a := MustParse("caf\u00e9(revision=1)")
	b := MustParse("cafe\u0301(revision=1)")
	assert.Equal(t, a.RepositoryName(), b.RepositoryName())
}

func TestWithOption_DoesNotModifyReceiver(t *testing.T) {
	e := MustParse("repo(branch=main)")
	withRev := e.WithOption("revision", "9")

	_, ok := e.Option("revision")
	assert.False(t, ok)
	rev, ok := withRev.Option("revision")
	require.True(t, ok)
	assert.Equal(t, "9", rev)
	assert.Equal(t, "repo(branch=main,revision=9)", withRev.String())
}

func TestSteps(t *testing.T) {
	e := MustParse("internal(revision=2)")
	got := e.EditWith("scrub", map[string]string{"level": "low"}).TranslateTo("public")

	assert.Equal(t, "internal(revision=2)|scrub(level=low)>public", got.String())
	assert.Empty(t, e.Operations)
}
