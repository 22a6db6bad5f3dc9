package server

import (
	"compress/gzip"
	"net/http"
	"strings"
	"taskplanner/internal/domain/errors"
	"taskplanner/internal/domain/models"

	"github.com/gin-gonic/gin"
)

const ctxUserKey = "currentUser"

// AuthRequired — сквозная проверка каждого защищённого запроса:
// достаёт bearer-токен, проверяет подпись и срок, находит живого
// пользователя и кладёт его в контекст. Побочных эффектов нет.
func AuthRequired(issuer *TokenIssuer, users Repository) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": errors.ErrTokenMissing.Error()})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": errors.ErrTokenMalformed.Error()})
			return
		}

		claims, err := issuer.Parse(parts[1])
		if err != nil {
			// Просрочка и неверная подпись отдаются с разными сообщениями.
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}

		user, err := users.GetUserByID(claims.UserID)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": errors.ErrTokenUserNotFound.Error()})
			return
		}

		ctx.Set(ctxUserKey, user)
		ctx.Next()
	}
}

func currentUser(ctx *gin.Context) *models.User {
	v, exists := ctx.Get(ctxUserKey)
	if !exists {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// CORS пропускает только настроенный Origin (или любой при "*").
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		if origin != "" && (allowedOrigin == "*" || origin == allowedOrigin) {
			ctx.Header("Access-Control-Allow-Origin", allowedOrigin)
			ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	gw *gzip.Writer
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	return w.gw.Write(data)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.gw.Write([]byte(s))
}

// GzipResponseCompress сжимает тело ответа, если клиент прислал
// Accept-Encoding: gzip. Ответы у сервиса только JSON, поэтому
// проверка типа содержимого не нужна.
func GzipResponseCompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodHead {
			ctx.Next()
			return
		}

		if !strings.Contains(strings.ToLower(ctx.GetHeader("Accept-Encoding")), "gzip") {
			ctx.Next()
			return
		}

		ctx.Header("Content-Encoding", "gzip")
		ctx.Header("Vary", "Accept-Encoding")

		gw := gzip.NewWriter(ctx.Writer)
		ctx.Writer = &gzipWriter{ResponseWriter: ctx.Writer, gw: gw}

		defer func() {
			_ = gw.Close()
			ctx.Header("Content-Length", "")
		}()

		ctx.Next()
	}
}
