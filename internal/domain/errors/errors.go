package errors

import "errors"

var (
	ErrUserNotFound       = errors.New("пользователь не найден")
	ErrTaskNotFound       = errors.New("задача не найдена")
	ErrInvalidCredentials = errors.New("неверные учетные данные")
	ErrUserAlreadyExists  = errors.New("пользователь уже существует")
	ErrValidationFailed   = errors.New("ошибка валидации")
	ErrUnauthorized       = errors.New("требуется авторизация")
	ErrInternalServer     = errors.New("внутренняя ошибка сервера")
	ErrBadRequest         = errors.New("неверный запрос")
	ErrNotFound           = errors.New("ресурс не найден")

	ErrTokenMissing      = errors.New("токен авторизации отсутствует")
	ErrTokenMalformed    = errors.New("некорректный формат заголовка авторизации")
	ErrTokenInvalid      = errors.New("недействительный токен")
	ErrTokenExpired      = errors.New("срок действия токена истёк")
	ErrTokenUserNotFound = errors.New("пользователь токена не существует")

	ErrInvalidUsername    = errors.New("некорректное имя пользователя")
	ErrInvalidEmail       = errors.New("некорректный email")
	ErrInvalidPassword    = errors.New("некорректный пароль")
	ErrInvalidTitle       = errors.New("некорректный заголовок задачи")
	ErrInvalidDescription = errors.New("некорректное описание задачи")
	ErrInvalidStatus      = errors.New("недопустимый статус задачи")
	ErrInvalidPriority    = errors.New("недопустимый приоритет задачи")
	ErrInvalidDueDate     = errors.New("некорректный срок выполнения задачи")
	ErrInvalidTaskID      = errors.New("некорректный идентификатор задачи")

	ErrConfigFileReadFailed = errors.New("не удалось прочитать файл конфигурации")
	ErrConfigParseFailed    = errors.New("не удалось разобрать файл конфигурации")
	ErrConfigInvalidFormat  = errors.New("некорректное значение конфигурации")
)
