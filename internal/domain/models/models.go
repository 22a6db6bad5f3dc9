package models

import "time"

type User struct {
	ID        string    `json:"id" validate:"omitempty,uuid"`
	Username  string    `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"-" validate:"required,min=6,max=100"`
	CreatedAt time.Time `json:"createdAt"`
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type Task struct {
	ID          string    `json:"id" validate:"omitempty,uuid"`
	UserID      string    `json:"userId" validate:"omitempty,uuid"`
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description string    `json:"description" validate:"omitempty,max=1000"`
	DueDate     time.Time `json:"dueDate"`
	Status      string    `json:"status" validate:"required,oneof=pending in-progress completed"`
	Priority    string    `json:"priority" validate:"required,oneof=low medium high"`
	Deleted     bool      `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	DueDate     string `json:"dueDate" validate:"required"`
	Status      string `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// Поля-указатели отличают отсутствующее поле от явно переданного
// пустого значения: пустое описание затирает старое, отсутствующее
// не трогает.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in-progress completed"`
}

// TaskFilter задаёт выборку списка задач. SortBy сверяется со списком
// известных полей, неизвестные поля приводятся к сроку выполнения.
type TaskFilter struct {
	Status string
	SortBy string
	Order  string
}

// TaskView — композиция задачи с публичными полями владельца,
// собирается явным вторым чтением из хранилища.
type TaskView struct {
	Task  Task      `json:"task"`
	Owner UserBrief `json:"owner"`
}

type UserBrief struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
