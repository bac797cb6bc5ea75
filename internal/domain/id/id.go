package id

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lllypuk/taskboard/internal/domain/errs"
)

// ID is the hex form of a MongoDB ObjectID.
type ID string

// New generates a new ID.
func New() ID {
	return ID(bson.NewObjectID().Hex())
}

// Parse checks that s is a 24 character hex ObjectID and returns it in
// lowercase canonical form.
func Parse(s string) (ID, error) {
	oid, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidReference, s)
	}
	return ID(oid.Hex()), nil
}

// MustParse парсит строку в ID или паникует
func MustParse(s string) ID {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid reports whether s is a well-formed identifier.
func IsValid(s string) bool {
	_, err := bson.ObjectIDFromHex(s)
	return err == nil
}

// FromObjectID конвертирует bson.ObjectID в доменный ID
func FromObjectID(oid bson.ObjectID) ID {
	if oid.IsZero() {
		return ""
	}
	return ID(oid.Hex())
}

// ObjectID returns the ObjectID form. The zero ID maps to bson.NilObjectID.
func (i ID) ObjectID() bson.ObjectID {
	oid, err := bson.ObjectIDFromHex(string(i))
	if err != nil {
		return bson.NilObjectID
	}
	return oid
}

// String возвращает строковое представление
func (i ID) String() string {
	return string(i)
}

// IsZero проверяет, является ли ID пустым
func (i ID) IsZero() bool {
	return i == ""
}

// Ptr returns a pointer to a copy of i, or nil for the zero ID.
func (i ID) Ptr() *ID {
	if i.IsZero() {
		return nil
	}
	return &i
}
