package comment

import (
	"strings"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// Comment is a message left on a task.
type Comment struct {
	ID        id.ID     `json:"id"`
	TaskID    id.ID     `json:"taskId"`
	AuthorID  id.ID     `json:"authorId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewComment creates a comment with a trimmed message.
func NewComment(taskID, authorID id.ID, message string) (*Comment, error) {
	if taskID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errs.ErrInvalidInput
	}

	now := time.Now().UTC()
	return &Comment{
		ID:        id.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsAuthor reports whether userID wrote the comment.
func (c *Comment) IsAuthor(userID id.ID) bool {
	return !userID.IsZero() && c.AuthorID == userID
}

// Edit replaces the message. Only the author may edit.
func (c *Comment) Edit(message string, editor id.ID) error {
	if !c.IsAuthor(editor) {
		return errs.ErrForbidden
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return errs.ErrInvalidInput
	}
	c.Message = message
	c.UpdatedAt = time.Now().UTC()
	return nil
}
