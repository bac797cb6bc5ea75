package history

import (
	"encoding/json"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
)

// Kind is the semantic type of a recorded value.
type Kind string

const (
	KindNull Kind = "null"
	KindText Kind = "text"
	KindEnum Kind = "enum"
	KindRef  Kind = "ref"
	KindDate Kind = "date"
)

// Value is a field value before or after a change. Exactly one of the
// payloads is meaningful, selected by Kind.
type Value struct {
	kind Kind
	text string
	date time.Time
}

// Null returns the empty value.
func Null() Value {
	return Value{kind: KindNull}
}

// Text returns a free text value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Enum returns an enumerated value.
func Enum(s string) Value {
	return Value{kind: KindEnum, text: s}
}

// Ref returns a reference value. The zero ID is null.
func Ref(v id.ID) Value {
	if v.IsZero() {
		return Null()
	}
	return Value{kind: KindRef, text: v.String()}
}

// Date returns a date value. A nil date is null.
func Date(t *time.Time) Value {
	if t == nil {
		return Null()
	}
	return Value{kind: KindDate, date: task.Timestamp(*t)}
}

// Restore rebuilds a value from its stored parts.
func Restore(kind Kind, text string, date *time.Time) Value {
	switch kind {
	case KindText:
		return Text(text)
	case KindEnum:
		return Enum(text)
	case KindRef:
		return Ref(id.ID(text))
	case KindDate:
		return Date(date)
	default:
		return Null()
	}
}

// Kind returns the value kind.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether the value is empty.
func (v Value) IsNull() bool {
	return v.Kind() == KindNull
}

// String returns text, enum and ref payloads. Empty for other kinds.
func (v Value) String() string {
	return v.text
}

// Time returns the date payload.
func (v Value) Time() (time.Time, bool) {
	if v.Kind() != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// Equal compares kind and payload. Dates are compared by instant.
func (v Value) Equal(o Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	if v.Kind() == KindDate {
		return v.date.Equal(o.date)
	}
	return v.text == o.text
}

// Raw returns the plain Go value: nil, string or time.Time.
func (v Value) Raw() any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindDate:
		return v.date
	default:
		return v.text
	}
}

// MarshalJSON writes the plain value so clients see "todo", not an object.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// FieldValue reads the current value of f from t.
func FieldValue(t *task.Task, f task.Field) Value {
	switch f {
	case task.FieldTitle:
		return Text(t.Title)
	case task.FieldDescription:
		return Text(t.Description)
	case task.FieldStatus:
		return Enum(string(t.Status))
	case task.FieldPriority:
		return Enum(string(t.Priority))
	case task.FieldAssignee:
		return Ref(t.AssigneeID())
	case task.FieldDueDate:
		return Date(t.DueDate)
	default:
		return Null()
	}
}
