package task

import "time"

// Optional distinguishes a field that was not sent from one sent as null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Patch is a partial update of a task. Unset fields are left untouched.
type Patch struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[string]
	Priority    Optional[string]
	Assignee    Optional[string]
	DueDate     Optional[time.Time]
}

// Fields returns the fields present in the patch, in evaluation order.
func (p Patch) Fields() []Field {
	present := map[Field]bool{
		FieldTitle:       p.Title.Set,
		FieldDescription: p.Description.Set,
		FieldStatus:      p.Status.Set,
		FieldPriority:    p.Priority.Set,
		FieldAssignee:    p.Assignee.Set,
		FieldDueDate:     p.DueDate.Set,
	}

	fields := make([]Field, 0, len(mutableFields))
	for _, f := range mutableFields {
		if present[f] {
			fields = append(fields, f)
		}
	}
	return fields
}

// IsEmpty reports whether no field is present.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}
