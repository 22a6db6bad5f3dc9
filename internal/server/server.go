package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"taskplanner/internal/domain/errors"
	"taskplanner/internal/domain/models"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"github.com/google/uuid"
)

type Repository interface {
	CreateUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, userID string, id string) (*models.Task, error)
	GetTasks(ctx context.Context, userID string, filter models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, userID string, id string, task *models.Task) error
	DeleteTask(ctx context.Context, userID string, id string) (*models.Task, error)
}

type TaskAPI struct {
	httpSrv *http.Server
	users   Repository
	tasks   TaskRepository
	issuer  *TokenIssuer
	cfg     *Config
}

func NewTaskAPI(users Repository, tasks TaskRepository, cfg *Config) *TaskAPI {
	if users == nil || tasks == nil {
		return nil
	}
	if cfg == nil {
		cfg = &Config{}
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = defaultJWTSecret
	}
	ttl := cfg.TokenTTLMin
	if ttl <= 0 {
		ttl = defaultTokenTTLMin
	}

	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}
	p := cfg.Port
	if p == 0 {
		p = defaultPort
	}

	api := TaskAPI{
		httpSrv: &http.Server{
			Addr: fmt.Sprintf("%s:%d", addr, p),
		},
		users:  users,
		tasks:  tasks,
		issuer: NewTokenIssuer(secret, time.Duration(ttl)*time.Minute),
		cfg:    cfg,
	}

	api.configRoutes()

	return &api
}

func (api *TaskAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}

	return api.httpSrv.ListenAndServe()
}

func (api *TaskAPI) Shutdown(ctx context.Context) error {
	if api.httpSrv == nil {
		return nil
	}

	return api.httpSrv.Shutdown(ctx)
}

func (api *TaskAPI) configRoutes() {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(ctx *gin.Context, _ interface{}) {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
	}))

	origin := api.cfg.AllowedOrigin
	if origin == "" {
		origin = defaultAllowedOrigin
	}
	router.Use(CORS(origin))
	router.Use(GzipResponseCompress())

	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"message": "использован некорректный HTTP-метод"})
	})
	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrNotFound.Error()})
	})

	auth := router.Group("/auth")
	{
		auth.POST("/signup", api.signup)
		auth.POST("/login", api.login)
		auth.GET("/me", AuthRequired(api.issuer, api.users), api.me)
	}

	tasks := router.Group("/tasks")
	tasks.Use(AuthRequired(api.issuer, api.users))
	{
		tasks.GET("", api.getTasks)
		tasks.GET(":taskID", api.getTaskByID)
		tasks.POST("", api.createTask)
		tasks.PUT(":taskID", api.updateTask)
		tasks.PATCH(":taskID/status", api.updateTaskStatus)
		tasks.DELETE(":taskID", api.deleteTask)
	}

	api.httpSrv.Handler = router
}

func (api *TaskAPI) signup(ctx *gin.Context) {
	var req models.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "некорректные данные запроса"})
		return
	}

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": validationErrorToErrorResponse(err).Error()})
		return
	}

	// Отказ хранилища при проверке уникальности — не конфликт, а 500.
	existing, err := api.users.GetUserByUsername(req.Username)
	if err != nil && err != errors.ErrUserNotFound {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}
	if existing != nil {
		ctx.JSON(http.StatusConflict, gin.H{"message": errors.ErrUserAlreadyExists.Error()})
		return
	}
	existing, err = api.users.GetUserByEmail(req.Email)
	if err != nil && err != errors.ErrUserNotFound {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}
	if existing != nil {
		ctx.JSON(http.StatusConflict, gin.H{"message": errors.ErrUserAlreadyExists.Error()})
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	user := models.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  hash,
		CreatedAt: time.Now().UTC(),
	}

	if err := api.users.CreateUser(&user); err != nil {
		ctx.JSON(http.StatusConflict, gin.H{"message": errors.ErrUserAlreadyExists.Error()})
		return
	}

	token, err := api.issuer.Issue(user.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	log.Println("[SUCCESS] Пользователь зарегистрирован:", user.ID)
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "пользователь успешно создан",
		"token":   token,
		"user":    userBrief(&user),
	})
}

func (api *TaskAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "некорректные данные запроса"})
		return
	}

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": validationErrorToErrorResponse(err).Error()})
		return
	}

	// Отсутствие пользователя и неверный пароль не различимы в ответе,
	// иначе можно перебором выяснять занятые адреса.
	user, err := api.users.GetUserByEmail(req.Email)
	if err != nil || !checkPassword(user.Password, req.Password) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": errors.ErrInvalidCredentials.Error()})
		return
	}

	token, err := api.issuer.Issue(user.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "вход выполнен успешно",
		"token":   token,
		"user":    userBrief(user),
	})
}

func (api *TaskAPI) me(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": errors.ErrUnauthorized.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userBrief(user)})
}

var allowedTaskStatuses = map[string]bool{
	"pending":     true,
	"in-progress": true,
	"completed":   true,
}

var allowedTaskPriorities = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
}

func (api *TaskAPI) getTasks(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": errors.ErrUnauthorized.Error()})
		return
	}

	filter := models.TaskFilter{
		Status: ctx.Query("status"),
		SortBy: ctx.Query("sortBy"),
		Order:  ctx.Query("order"),
	}
	if filter.Status != "" && !allowedTaskStatuses[filter.Status] {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidStatus.Error()})
		return
	}

	tasks, err := api.tasks.GetTasks(ctx.Request.Context(), user.ID, filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (api *TaskAPI) getTaskByID(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": errors.ErrUnauthorized.Error()})
		return
	}

	id := ctx.Param("taskID")
	if uuid.Validate(id) != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidTaskID.Error()})
		return
	}

	task, err := api.tasks.GetTaskByID(ctx.Request.Context(), user.ID, id)
	if err != nil {
		if err == errors.ErrTaskNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrTaskNotFound.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	// Явный второй запрос за публичными полями владельца, без живых
	// ссылок между записями.
	owner, err := api.users.GetUserByID(task.UserID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusOK, models.TaskView{Task: *task, Owner: *userBrief(owner)})
}

func (api *TaskAPI) createTask(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": errors.ErrUnauthorized.Error()})
		return
	}

	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrBadRequest.Error()})
		return
	}

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": validationErrorToErrorResponse(err).Error()})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidTitle.Error()})
		return
	}

	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidDueDate.Error()})
		return
	}

	status := req.Status
	if status == "" {
		status = "pending"
	}
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	now := time.Now().UTC()
	task := models.Task{
		UserID:      user.ID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		DueDate:     dueDate,
		Status:      status,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := api.tasks.CreateTask(ctx.Request.Context(), &task); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"task": task})
}

func (api *TaskAPI) updateTask(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": errors.ErrUnauthorized.Error()})
		return
	}

	id := ctx.Param("taskID")
	if uuid.Validate(id) != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidTaskID.Error()})
		return
	}

	var req models.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrBadRequest.Error()})
		return
	}

	task, err := api.tasks.GetTaskByID(ctx.Request.Context(), user.ID, id)
	if err != nil {
		if err == errors.ErrTaskNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrTaskNotFound.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	if req.Title != nil {
		// Лимиты считаются в рунах, как max= у валидатора при создании.
		title := strings.TrimSpace(*req.Title)
		if title == "" || utf8.RuneCountInString(title) > 200 {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidTitle.Error()})
			return
		}
		task.Title = title
	}
	if req.Description != nil {
		// Пустое описание — легальное значение, затирает прежнее.
		description := strings.TrimSpace(*req.Description)
		if utf8.RuneCountInString(description) > 1000 {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidDescription.Error()})
			return
		}
		task.Description = description
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidDueDate.Error()})
			return
		}
		task.DueDate = dueDate
	}
	if req.Status != nil {
		if !allowedTaskStatuses[*req.Status] {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidStatus.Error()})
			return
		}
		task.Status = *req.Status
	}
	if req.Priority != nil {
		if !allowedTaskPriorities[*req.Priority] {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidPriority.Error()})
			return
		}
		task.Priority = *req.Priority
	}

	task.UpdatedAt = time.Now().UTC()

	if err := api.tasks.UpdateTask(ctx.Request.Context(), user.ID, id, task); err != nil {
		if err == errors.ErrTaskNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrTaskNotFound.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": task})
}

func (api *TaskAPI) updateTaskStatus(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": errors.ErrUnauthorized.Error()})
		return
	}

	id := ctx.Param("taskID")
	if uuid.Validate(id) != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidTaskID.Error()})
		return
	}

	var req models.UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidStatus.Error()})
		return
	}
	if !allowedTaskStatuses[req.Status] {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidStatus.Error()})
		return
	}

	task, err := api.tasks.GetTaskByID(ctx.Request.Context(), user.ID, id)
	if err != nil {
		if err == errors.ErrTaskNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrTaskNotFound.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	// Порядок переходов между статусами сервер не навязывает,
	// любой допустимый статус принимается из любого состояния.
	task.Status = req.Status
	task.UpdatedAt = time.Now().UTC()

	if err := api.tasks.UpdateTask(ctx.Request.Context(), user.ID, id, task); err != nil {
		if err == errors.ErrTaskNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrTaskNotFound.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": task})
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": errors.ErrUnauthorized.Error()})
		return
	}

	id := ctx.Param("taskID")
	if uuid.Validate(id) != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidTaskID.Error()})
		return
	}

	task, err := api.tasks.DeleteTask(ctx.Request.Context(), user.ID, id)
	if err != nil {
		if err == errors.ErrTaskNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrTaskNotFound.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "задача успешно удалена", "task": task})
}

func userBrief(user *models.User) *models.UserBrief {
	return &models.UserBrief{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

func validationErrorToErrorResponse(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, verr := range verrs {
			switch verr.Field() {
			case "Username":
				return errors.ErrInvalidUsername
			case "Email":
				return errors.ErrInvalidEmail
			case "Password":
				return errors.ErrInvalidPassword
			case "Title":
				return errors.ErrInvalidTitle
			case "Description":
				return errors.ErrInvalidDescription
			case "DueDate":
				return errors.ErrInvalidDueDate
			case "Status":
				return errors.ErrInvalidStatus
			case "Priority":
				return errors.ErrInvalidPriority
			}
		}
	}
	return errors.ErrValidationFailed
}
