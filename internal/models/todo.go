package models

import "time"

// TodoStatus is the lifecycle state of a todo.
type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "PENDING"
	TodoStatusInProgress TodoStatus = "IN_PROGRESS"
	TodoStatusDone       TodoStatus = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s TodoStatus) Valid() bool {
	switch s {
	case TodoStatusPending, TodoStatusInProgress, TodoStatusDone:
		return true
	}
	return false
}

// Todo is a task owned by exactly one user.
type Todo struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Description *string    `json:"description" gorm:"type:text"`
	Status      TodoStatus `json:"status" gorm:"type:varchar(20);not null;default:PENDING"`
	UserID      string     `json:"user_id" gorm:"type:varchar(36);not null;index:idx_todos_user_id"`
	User        *User      `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TodoPatch lists the fields an update may change. Nil means "leave as is".
type TodoPatch struct {
	Title       *string     `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string     `json:"description"`
	Status      *TodoStatus `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS DONE"`
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}
