package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lllypuk/taskboard/internal/domain/history"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// AssertChangeRecord checks one audit entry against the expected field transition.
func AssertChangeRecord(
	t *testing.T,
	rec history.ChangeRecord,
	field taskdomain.Field,
	oldValue, newValue history.Value,
) {
	t.Helper()

	assert.Equal(t, field, rec.Field)
	assert.True(t, oldValue.Equal(rec.OldValue), "old value: expected %v, got %v", oldValue.Raw(), rec.OldValue.Raw())
	assert.True(t, newValue.Equal(rec.NewValue), "new value: expected %v, got %v", newValue.Raw(), rec.NewValue.Raw())
}

// RecordFields returns the fields of records in order.
func RecordFields(records []history.ChangeRecord) []taskdomain.Field {
	fields := make([]taskdomain.Field, 0, len(records))
	for _, rec := range records {
		fields = append(fields, rec.Field)
	}
	return fields
}
