package db

import (
	"context"
	"fmt"
	"log"
	"taskplanner/internal/domain/errors"
	"taskplanner/internal/domain/models"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Storage struct {
	conn                  *pgx.Conn
	prepCreateTask        string
	prepGetTaskByID       string
	prepUpdateTask        string
	prepDeleteTask        string
	prepCreateUser        string
	prepGetUserByID       string
	prepGetUserByUsername string
	prepGetUserByEmail    string
	baseGetTasks          string
	deleteQueue           chan struct{}
}

// Поле сортировки сверяется со списком колонок задачи: в ORDER BY
// нельзя подставлять строку клиента как есть. Неизвестные поля
// приводятся к сроку выполнения.
var sortColumns = map[string]string{
	"dueDate":   "due_date",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
}

func NewStorage(connStr string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Println("[ERROR] Не удалось подключиться к базе данных:", err)
		return nil, err
	}

	s := &Storage{
		conn:                  conn,
		prepCreateTask:        `INSERT INTO tasks (id, user_id, title, description, due_date, status, priority, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		prepGetTaskByID:       `SELECT id, user_id, title, description, due_date, status, priority, created_at, updated_at FROM tasks WHERE id = $1 AND user_id = $2 AND deleted = false`,
		prepUpdateTask:        `UPDATE tasks SET title = $1, description = $2, due_date = $3, status = $4, priority = $5, updated_at = $6 WHERE id = $7 AND user_id = $8 AND deleted = false`,
		prepDeleteTask:        `UPDATE tasks SET deleted = true WHERE id = $1 AND user_id = $2 AND deleted = false RETURNING id, user_id, title, description, due_date, status, priority, created_at, updated_at`,
		prepCreateUser:        `INSERT INTO users (id, username, email, password, created_at) VALUES ($1, $2, $3, $4, $5)`,
		prepGetUserByID:       `SELECT id, username, email, password, created_at FROM users WHERE id = $1`,
		prepGetUserByUsername: `SELECT id, username, email, password, created_at FROM users WHERE username = $1`,
		prepGetUserByEmail:    `SELECT id, username, email, password, created_at FROM users WHERE email = $1`,
		baseGetTasks:          `SELECT id, user_id, title, description, due_date, status, priority, created_at, updated_at FROM tasks WHERE user_id = $1 AND deleted = false`,
		deleteQueue:           make(chan struct{}, 10),
	}
	log.Println("[SUCCESS] Соединение с базой данных установлено успешно")
	return s, nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	task.ID = uuid.New().String()
	task.Deleted = false
	stmt, err := s.conn.Prepare(ctx, "create_task", s.prepCreateTask)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на создание задачи:", err)
		return err
	}
	_, err = s.conn.Exec(ctx, stmt.Name, task.ID, task.UserID, task.Title, task.Description, task.DueDate, task.Status, task.Priority, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		log.Println("[ERROR] Не удалось создать задачу:", err)
		return err
	}
	log.Println("[SUCCESS] Задача успешно создана:", task.ID)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, userID string, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "get_task_by_id", s.prepGetTaskByID)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на получение задачи по ID:", err)
		return nil, err
	}
	// Чужая задача не отличается от несуществующей: фильтр по владельцу
	// стоит в самом запросе.
	row := s.conn.QueryRow(ctx, stmt.Name, id, userID)
	task := &models.Task{}
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.DueDate, &task.Status, &task.Priority, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrTaskNotFound
		}
		log.Println("[ERROR] Ошибка при получении задачи:", err)
		return nil, err
	}
	return task, nil
}

func (s *Storage) GetTasks(ctx context.Context, userID string, filter models.TaskFilter) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	query := s.baseGetTasks
	args := []interface{}{userID}
	if filter.Status != "" {
		query += ` AND status = $2`
		args = append(args, filter.Status)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "due_date"
	}
	direction := "ASC"
	if filter.Order == "desc" {
		direction = "DESC"
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, column, direction)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		log.Println("[ERROR] Не удалось получить задачи:", err)
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task := models.Task{}
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.DueDate, &task.Status, &task.Priority, &task.CreatedAt, &task.UpdatedAt); err != nil {
			log.Println("[ERROR] Ошибка при чтении задач:", err)
			return nil, err
		}
		tasks = append(tasks, task)
	}
	log.Println("[SUCCESS] Получено задач:", len(tasks))
	return tasks, nil
}

func (s *Storage) UpdateTask(ctx context.Context, userID string, id string, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "update_task", s.prepUpdateTask)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на обновление задачи:", err)
		return err
	}
	ct, err := s.conn.Exec(ctx, stmt.Name, task.Title, task.Description, task.DueDate, task.Status, task.Priority, task.UpdatedAt, id, userID)
	if err != nil {
		log.Println("[ERROR] Не удалось обновить задачу:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	log.Println("[SUCCESS] Задача успешно обновлена:", id)
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, userID string, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "delete_task_soft", s.prepDeleteTask)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на пометку задачи как удалённой:", err)
		return nil, err
	}
	row := s.conn.QueryRow(ctx, stmt.Name, id, userID)
	task := &models.Task{}
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.DueDate, &task.Status, &task.Priority, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrTaskNotFound
		}
		log.Println("[ERROR] Не удалось пометить задачу как удалённую:", err)
		return nil, err
	}
	log.Println("[SUCCESS] Задача помечена как удалённая:", id)
	s.tryEnqueueOrFlush()
	return task, nil
}

func (s *Storage) CreateUser(user *models.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "create_user", s.prepCreateUser)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на создание пользователя:", err)
		return err
	}
	_, err = s.conn.Exec(ctx, stmt.Name, user.ID, user.Username, user.Email, user.Password, user.CreatedAt)
	if err != nil {
		log.Println("[ERROR] Не удалось создать пользователя:", err)
		return errors.ErrUserAlreadyExists
	}
	log.Println("[SUCCESS] Пользователь успешно создан:", user.ID)
	return nil
}

func (s *Storage) GetUserByID(id string) (*models.User, error) {
	return s.getUser("get_user_by_id", s.prepGetUserByID, id)
}

func (s *Storage) GetUserByUsername(username string) (*models.User, error) {
	return s.getUser("get_user_by_username", s.prepGetUserByUsername, username)
}

func (s *Storage) GetUserByEmail(email string) (*models.User, error) {
	return s.getUser("get_user_by_email", s.prepGetUserByEmail, email)
}

func (s *Storage) getUser(name, query, key string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, name, query)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на получение пользователя:", err)
		return nil, err
	}
	row := s.conn.QueryRow(ctx, stmt.Name, key)
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		log.Println("[ERROR] Ошибка при получении пользователя:", err)
		return nil, err
	}
	return user, nil
}

func (s *Storage) tryEnqueueOrFlush() {
	if s.deleteQueue == nil {
		return
	}
	select {
	case s.deleteQueue <- struct{}{}:
	default:
		s.drainDeleteQueue()
		if affected, err := s.hardDeleteAllFlagged(context.Background()); err != nil {
			log.Println("[ERROR] Ошибка при удалении задач с признаком deleted:", err)
		} else if affected > 0 {
			log.Println("[SUCCESS] Жёстко удалено задач:", affected)
		}
	}
}

func (s *Storage) drainDeleteQueue() {
	if s.deleteQueue == nil {
		return
	}
	for {
		select {
		case <-s.deleteQueue:
		default:
			return
		}
	}
}

func (s *Storage) hardDeleteAllFlagged(ctx context.Context) (int64, error) {
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	tx, err := s.conn.Begin(c)
	if err != nil {
		return 0, err
	}
	ct, err := tx.Exec(c, `DELETE FROM tasks WHERE deleted = true`)
	if err != nil {
		_ = tx.Rollback(c)
		return 0, err
	}
	if err := tx.Commit(c); err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
