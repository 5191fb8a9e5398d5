// Package builder constructs DELETE statements from an ordered list of
// predicate conditions.
//
// The builder renders SQL text only; it never talks to the database. Literal
// quoting is decided by the declared column type, and string literals are
// embedded without escaping. The output therefore trusts values that the
// operator already owns — it is not safe against hostile input and must not
// be fed end-user data.
package builder

import (
	"strings"
	"sync"

	"github.com/hiteshgeek/query-builder-sub002/schema"
)

// Placeholder is returned by Statement when no table is selected. It is a
// SQL comment, not an executable statement.
const Placeholder = "-- select a table to build a statement"

// Connector values joining a condition to its predecessor.
const (
	ConnectorAnd = "AND"
	ConnectorOr  = "OR"
)

// Operators lists the supported comparison operators in display order.
var Operators = []string{"=", "!=", ">", "<", ">=", "<=", "LIKE", "IN", "IS NULL", "IS NOT NULL"}

// Condition fields recognized by UpdateCondition.
const (
	FieldColumn    = "column"
	FieldOperator  = "operator"
	FieldValue     = "value"
	FieldConnector = "connector"
)

// Condition is one predicate term of the WHERE clause.
type Condition struct {
	Column    string `json:"column"`    // empty = incomplete, skipped at render
	Operator  string `json:"operator"`  // one of Operators
	Value     string `json:"value"`     // raw literal text; ignored by null tests
	Connector string `json:"connector"` // AND | OR; ignored for the first rendered condition
}

// Builder owns the condition list for one target table and renders it to a
// DELETE statement. All methods are safe for concurrent use; mutations are
// serialized and the change callback observes them in mutation order.
type Builder struct {
	mu            sync.Mutex
	snap          *schema.Snapshot
	table         string
	columns       []schema.Column
	conditions    []Condition
	onChange      func(sql string)
	maxConditions int
}

// New returns a Builder reading table metadata from snap. snap may be nil;
// every table then resolves to an empty column list.
func New(snap *schema.Snapshot, maxConditions int) *Builder {
	return &Builder{snap: snap, maxConditions: maxConditions}
}

// SetSnapshot replaces the schema snapshot used for future table selections.
// The current selection and conditions are left untouched.
func (b *Builder) SetSnapshot(snap *schema.Snapshot) {
	b.mu.Lock()
	b.snap = snap
	b.mu.Unlock()
}

// OnChange registers the change callback. It is invoked with the freshly
// built statement exactly once per mutating call. The callback runs with the
// builder's lock held and must not call back into the Builder.
func (b *Builder) OnChange(fn func(sql string)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// SelectTable sets the active table and resets the condition list. A table
// missing from the snapshot degrades to an empty column list rather than
// failing.
func (b *Builder) SelectTable(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.table = name
	b.conditions = nil
	b.columns = nil
	if tbl, ok := b.snap.Lookup(name); ok {
		b.columns = tbl.Columns
	}
	b.notify()
}

// AddCondition appends a fresh condition (empty column, operator "=", empty
// value, connector AND). It fails without mutating when no table is selected
// or the condition limit is reached.
func (b *Builder) AddCondition() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.table == "" {
		return ErrNoTableSelected
	}
	if b.maxConditions > 0 && len(b.conditions) >= b.maxConditions {
		return ErrTooManyConditions
	}

	b.conditions = append(b.conditions, Condition{
		Operator:  "=",
		Connector: ConnectorAnd,
	})
	b.notify()
	return nil
}

// RemoveCondition removes the condition at index, preserving the relative
// order of the rest. An out-of-range index is ignored; the index came from a
// stale rendering, not from bad data. The statement is regenerated either way.
func (b *Builder) RemoveCondition(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index >= 0 && index < len(b.conditions) {
		b.conditions = append(b.conditions[:index], b.conditions[index+1:]...)
	}
	b.notify()
}

// UpdateCondition sets one field of the condition at index. Out-of-range
// indexes and unknown field names are ignored. The statement is regenerated
// on every call.
func (b *Builder) UpdateCondition(index int, field, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index >= 0 && index < len(b.conditions) {
		cond := &b.conditions[index]
		switch field {
		case FieldColumn:
			cond.Column = value
		case FieldOperator:
			cond.Operator = value
		case FieldValue:
			cond.Value = value
		case FieldConnector:
			cond.Connector = value
		}
	}
	b.notify()
}

// Reset clears the table selection, columns, and conditions.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.table = ""
	b.columns = nil
	b.conditions = nil
	b.notify()
}

// Statement renders the current state as SQL text. It is a pure function of
// the builder's state: no table yields Placeholder, and any selected table
// yields a syntactically complete DELETE statement.
func (b *Builder) Statement() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.render()
}

// HasNoPredicate reports whether no condition contributes to the WHERE
// clause. A true result means the statement deletes every row of the table;
// callers must route such statements through the confirmation gate.
func (b *Builder) HasNoPredicate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(filterComplete(b.conditions)) == 0
}

// Table returns the active table name, or "" when none is selected.
func (b *Builder) Table() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.table
}

// Conditions returns a copy of the current condition list.
func (b *Builder) Conditions() []Condition {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Condition, len(b.conditions))
	copy(out, b.conditions)
	return out
}

// Columns returns a copy of the active table's columns.
func (b *Builder) Columns() []schema.Column {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]schema.Column, len(b.columns))
	copy(out, b.columns)
	return out
}

// notify rebuilds the statement and invokes the change callback.
// Callers must hold b.mu.
func (b *Builder) notify() {
	if b.onChange != nil {
		b.onChange(b.render())
	}
}

// render builds the statement text. Callers must hold b.mu.
func (b *Builder) render() string {
	if b.table == "" {
		return Placeholder
	}

	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(b.table)

	complete := filterComplete(b.conditions)
	if len(complete) > 0 {
		sb.WriteString("\nWHERE ")
		for i, cond := range complete {
			if i > 0 {
				sb.WriteString(" ")
				sb.WriteString(cond.Connector)
				sb.WriteString(" ")
			}
			sb.WriteString(b.renderTerm(cond))
		}
	}

	sb.WriteString(";")
	return sb.String()
}

// filterComplete drops conditions with no column. Connectors are later
// emitted between surviving neighbors only, so a blank row mid-sequence
// never produces a dangling AND/OR.
func filterComplete(conds []Condition) []Condition {
	var out []Condition
	for _, c := range conds {
		if c.Column != "" {
			out = append(out, c)
		}
	}
	return out
}

// renderTerm renders one condition. Callers must hold b.mu.
func (b *Builder) renderTerm(cond Condition) string {
	switch cond.Operator {
	case "IS NULL", "IS NOT NULL":
		return cond.Column + " " + cond.Operator
	case "IN":
		// The raw value is trusted to be a well-formed literal list.
		return cond.Column + " IN (" + cond.Value + ")"
	default:
		return cond.Column + " " + cond.Operator + " " + b.renderLiteral(cond)
	}
}

// renderLiteral quotes the value by the declared type of its column. String
// literals are not escaped; a value containing a single quote produces
// malformed SQL. Preserved as documented behavior — the console operator
// owns these values.
func (b *Builder) renderLiteral(cond Condition) string {
	for _, col := range b.columns {
		if col.Name == cond.Column && col.Numeric() {
			return cond.Value
		}
	}
	return "'" + cond.Value + "'"
}
