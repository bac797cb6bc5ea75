package project

import (
	"regexp"
	"strings"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

//nolint:gochecknoglobals // compiled once
var keyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

// Project groups boards and tasks under a short unique key.
type Project struct {
	ID          id.ID     `json:"id"`
	Name        string    `json:"name"`
	Key         string    `json:"key"`
	Description string    `json:"description"`
	OwnerID     id.ID     `json:"ownerId"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewProject creates a project. The key is upper-cased.
func NewProject(name, key, description string, ownerID id.ID) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.ErrInvalidInput
	}
	key, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Project{
		ID:          id.New(),
		Name:        name,
		Key:         key,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NormalizeKey upper-cases key and checks it is 2-10 letters or digits starting with a letter.
func NormalizeKey(key string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if !keyPattern.MatchString(key) {
		return "", errs.ErrInvalidInput
	}
	return key, nil
}

// Rename changes the project name
func (p *Project) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.ErrInvalidInput
	}
	p.Name = name
	p.touch()
	return nil
}

// SetDescription replaces the description
func (p *Project) SetDescription(description string) {
	p.Description = strings.TrimSpace(description)
	p.touch()
}

// SetArchived archives or restores the project
func (p *Project) SetArchived(archived bool) {
	p.Archived = archived
	p.touch()
}

func (p *Project) touch() {
	p.UpdatedAt = time.Now().UTC()
}
