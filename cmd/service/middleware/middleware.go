package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/knowhive/knowhive/app/core"
	v1 "github.com/knowhive/knowhive/app/logic/v1"
	"github.com/knowhive/knowhive/app/response"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/security"
)

func I18n() gin.HandlerFunc {
	var allow []string
	for lang := range i18n.ALLOW_LANG {
		allow = append(allow, lang)
	}
	return response.ProvideResponseLocalizer(i18n.NewLocalizer(allow...))
}

// Session opens the store session of the request and closes it once the handlers returned.
func Session(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := appCore.Store().OpenSession(c.Request.Context())
		defer session.Close()
		c.Set(v1.SESSION_CONTEXT_KEY, session)
		c.Next()
	}
}

func Authorization(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(security.TOKEN_KEY)
		if !strings.HasPrefix(token, security.TOKEN_PREFIX) {
			response.APIError(c, errors.New("middleware.Authorization", i18n.ERROR_UNAUTHORIZED, errors.ErrUnauthorized).Code(http.StatusUnauthorized))
			return
		}

		claims, err := v1.NewAuthLogic(c, appCore).ParseToken(strings.TrimPrefix(token, security.TOKEN_PREFIX))
		if err != nil {
			response.APIError(c, errors.Trace("middleware.Authorization", err))
			return
		}

		c.Set(v1.TOKEN_CONTEXT_KEY, claims)
		c.Set(response.UserKey, claims.GetUser())
	}
}

// Cors answers preflights and echoes allowed origins. An empty list or "*" allows any origin.
func Cors(origins []string) gin.HandlerFunc {
	anyOrigin := len(origins) == 0 || slices.Contains(origins, "*")
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (anyOrigin || slices.Contains(origins, origin)) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization, X-Request-ID, Accept-Language")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type, Content-Disposition, X-Request-ID")
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

type LimiterFunc func(key string, opts ...core.LimitOption) gin.HandlerFunc

func UseLimit(appCore *core.Core, operation string, genKeyFunc func(c *gin.Context) string, opts ...core.LimitOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appCore.UseLimiter(operation+":"+genKeyFunc(c), opts...).Allow() {
			appCore.Metrics().RateLimitedInc(operation)
			response.APIError(c, errors.New("middleware.limiter", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
		}
	}
}

// Metrics times every routed request and counts the failed ones.
func Metrics(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		api := c.FullPath()
		if api == "" {
			c.Next()
			return
		}
		timer := appCore.Metrics().ApiResponseTimer(api)
		c.Next()
		timer.ObserveDuration()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			appCore.Metrics().ApiErrorInc(c.Request.Method, api, status)
		}
	}
}
