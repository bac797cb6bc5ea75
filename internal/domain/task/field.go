package task

import "slices"

// Field names a mutable task attribute. The string form is the wire name.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldPriority    Field = "priority"
	FieldAssignee    Field = "assignee"
	FieldDueDate     Field = "dueDate"
)

// Fields are listed in the order changes are evaluated and reported.
//
//nolint:gochecknoglobals // fixed order
var mutableFields = []Field{
	FieldTitle,
	FieldDescription,
	FieldStatus,
	FieldPriority,
	FieldAssignee,
	FieldDueDate,
}

// MutableFields returns the updatable fields in evaluation order.
func MutableFields() []Field {
	return slices.Clone(mutableFields)
}

// IsMutable reports whether f can be changed after creation.
func (f Field) IsMutable() bool {
	return slices.Contains(mutableFields, f)
}

func (f Field) String() string {
	return string(f)
}
