package expression

import (
	"sort"
	"strings"
	"unicode"
)

// Operator is the kind of transform step.
type Operator int

const (
	// Translate converts the codebase into the project space named by the
	// step's identifier.
	Translate Operator = iota
	// Edit applies the editor named by the step's identifier.
	Edit
)

// Symbol returns the operator's character in expression text.
func (o Operator) Symbol() string {
	if o == Edit {
		return "|"
	}
	return ">"
}

func (o Operator) String() string {
	if o == Edit {
		return "edit"
	}
	return "translate"
}

// Term is an identifier with its options.
type Term struct {
	Identifier string
	Options    map[string]string
}

// Option returns the value of key.
func (t Term) Option(key string) (string, bool) {
	v, ok := t.Options[key]
	return v, ok
}

// Keys returns the option keys, sorted.
func (t Term) Keys() []string {
	keys := make([]string, 0, len(t.Options))
	for k := range t.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String formats t with its options sorted by key.
func (t Term) String() string {
	var b strings.Builder
	t.write(&b, false)
	return b.String()
}

func (t Term) write(b *strings.Builder, omitEmpty bool) {
	b.WriteString(t.Identifier)
	if omitEmpty && len(t.Options) == 0 {
		return
	}
	b.WriteByte('(')
	for i, k := range t.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quoteValue(t.Options[k]))
	}
	b.WriteByte(')')
}

// Operation is one transform step.
type Operation struct {
	Operator Operator
	Term     Term
}

// Expression is a parsed codebase expression. It is never modified after
// parsing; the With methods return copies.
type Expression struct {
	Term       Term
	Operations []Operation
}

// New returns the expression naming repository with options and no steps.
func New(repository string, options map[string]string) *Expression {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[k] = v
	}
	return &Expression{Term: Term{Identifier: repository, Options: opts}}
}

// RepositoryName returns the name of the repository the expression starts
// from.
func (e *Expression) RepositoryName() string {
	return e.Term.Identifier
}

// Option returns the value of a repository option.
func (e *Expression) Option(key string) (string, bool) {
	return e.Term.Option(key)
}

// WithOption returns a copy of e whose repository term has key set to value.
func (e *Expression) WithOption(key, value string) *Expression {
	opts := make(map[string]string, len(e.Term.Options)+1)
	for k, v := range e.Term.Options {
		opts[k] = v
	}
	opts[key] = value
	return &Expression{
		Term:       Term{Identifier: e.Term.Identifier, Options: opts},
		Operations: append([]Operation(nil), e.Operations...),
	}
}

// TranslateTo returns a copy of e with a translation into projectSpace
// appended.
func (e *Expression) TranslateTo(projectSpace string) *Expression {
	return e.with(Operation{Operator: Translate, Term: Term{Identifier: projectSpace, Options: map[string]string{}}})
}

// EditWith returns a copy of e with the named editor appended.
func (e *Expression) EditWith(editor string, options map[string]string) *Expression {
	if options == nil {
		options = map[string]string{}
	}
	return e.with(Operation{Operator: Edit, Term: Term{Identifier: editor, Options: options}})
}

func (e *Expression) with(op Operation) *Expression {
	ops := append(append([]Operation(nil), e.Operations...), op)
	return &Expression{Term: e.Term, Operations: ops}
}

// String formats e in canonical form: the repository term always carries
// parentheses, steps only when they have options, and options are sorted.
// Parsing the result yields an equal Expression.
func (e *Expression) String() string {
	var b strings.Builder
	e.Term.write(&b, false)
	for _, op := range e.Operations {
		b.WriteString(op.Operator.Symbol())
		op.Term.write(&b, true)
	}
	return b.String()
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, specialChars) && strings.IndexFunc(v, unicode.IsSpace) < 0 {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}
