package response

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/utils"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
	ResponseKey     = "response_key"
	LocalizerKey    = "i18n"
	// UserKey holds the authenticated user id, set by the auth middleware.
	UserKey = "user"
)

func ProvideResponseLocalizer(l i18n.Localizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(LocalizerKey, l)
	}
}

func InjectResponseLocalizer(c *gin.Context) i18n.Localizer {
	if l, ok := c.Get(LocalizerKey); ok {
		return l.(i18n.Localizer)
	}
	return i18n.NewDefaultLocalizer()
}

// Response is the body of every json answer.
type Response struct {
	Message   string              `json:"message"`
	Data      any                 `json:"data,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
	RequestID string              `json:"request_id"`
}

// NewResponse prepares the envelope and its request id. An incoming X-Request-ID is kept.
func NewResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = utils.GenUniqIDStr()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Set(ResponseKey, &Response{RequestID: id})
	}
}

func envelope(c *gin.Context) *Response {
	if v, ok := c.Get(ResponseKey); ok {
		return v.(*Response)
	}
	return &Response{RequestID: c.GetString(RequestIDKey)}
}

func GetLangFromRequestOrDefault(c *gin.Context) string {
	return i18n.MatchLang(c.GetHeader("Accept-Language"))
}

func localize(c *gin.Context, key string, data map[string]any) string {
	return InjectResponseLocalizer(c).GetWithData(GetLangFromRequestOrDefault(c), key, data)
}

// Option transforms the payload before it is embedded.
type Option func(data any) any

// WithModel converts an entity, or a slice of entities, into its outward form.
func WithModel[E any, O any](fn func(*E) O) Option {
	return func(data any) any {
		switch v := data.(type) {
		case *E:
			if v == nil {
				return nil
			}
			return fn(v)
		case []*E:
			return lo.Map(v, func(item *E, _ int) O { return fn(item) })
		case []E:
			return lo.Map(v, func(item E, _ int) O { return fn(&item) })
		}
		return data
	}
}

func success(c *gin.Context, status int, message string, data any, opts []Option) {
	c.Abort()
	for _, opt := range opts {
		data = opt(data)
	}
	res := envelope(c)
	res.Message = localize(c, message, nil)
	res.Data = data
	c.JSON(status, res)
	printSuccessLog(c, status)
}

func OK(c *gin.Context, data any, opts ...Option) {
	success(c, http.StatusOK, i18n.MESSAGE_SUCCESS, data, opts)
}

func Created(c *gin.Context, data any, opts ...Option) {
	success(c, http.StatusCreated, i18n.MESSAGE_CREATED, data, opts)
}

func fail(c *gin.Context, status int, message string, data map[string]any, fields map[string][]string, err error) {
	c.Abort()
	res := envelope(c)
	res.Message = localize(c, message, data)
	res.Data = nil
	if len(fields) > 0 {
		res.Errors = make(map[string][]string, len(fields))
		for field, keys := range fields {
			res.Errors[field] = lo.Map(keys, func(key string, _ int) string {
				return localize(c, key, nil)
			})
		}
	}
	c.JSON(status, res)
	printErrorLog(c, status, err)
}

// BadRequest answers with the field errors of a failed validation, each message localized.
func BadRequest(c *gin.Context, fields map[string][]string) {
	fail(c, http.StatusBadRequest, i18n.ERROR_VALIDATION, nil, fields, nil)
}

func Unauthorized(c *gin.Context) {
	fail(c, http.StatusUnauthorized, i18n.ERROR_UNAUTHORIZED, nil, nil, nil)
}

func Forbidden(c *gin.Context) {
	fail(c, http.StatusForbidden, i18n.ERROR_FORBIDDEN, nil, nil, nil)
}

func NotFound(c *gin.Context) {
	fail(c, http.StatusNotFound, i18n.ERROR_NOT_FOUND, nil, nil, nil)
}

// InternalError logs err and answers with a generic message.
func InternalError(c *gin.Context, err error) {
	fail(c, http.StatusInternalServerError, i18n.ERROR_INTERNAL, nil, nil, err)
}

// APIError picks the answer for err. Raw error text never reaches the body.
func APIError(c *gin.Context, err error) {
	var ce *errors.CustomizedError
	if errors.As(err, &ce) {
		status := ce.GetCode()
		message := ce.Message()
		if status >= http.StatusInternalServerError || message == "" {
			message = messageFor(status)
		}
		var fields map[string][]string
		if f, ok := ce.Data()["fields"].(map[string][]string); ok {
			fields = f
		}
		fail(c, status, message, ce.Data(), fields, err)
		return
	}

	switch {
	case errors.Is(err, errors.ErrNotFound):
		fail(c, http.StatusNotFound, i18n.ERROR_NOT_FOUND, nil, nil, err)
	case errors.Is(err, errors.ErrForbidden):
		fail(c, http.StatusForbidden, i18n.ERROR_FORBIDDEN, nil, nil, err)
	case errors.Is(err, errors.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, i18n.ERROR_UNAUTHORIZED, nil, nil, err)
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrUnknownField):
		fail(c, http.StatusBadRequest, i18n.ERROR_INVALIDARGUMENT, nil, nil, err)
	default:
		InternalError(c, err)
	}
}

func messageFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return i18n.ERROR_INVALIDARGUMENT
	case http.StatusUnauthorized:
		return i18n.ERROR_UNAUTHORIZED
	case http.StatusForbidden:
		return i18n.ERROR_FORBIDDEN
	case http.StatusNotFound:
		return i18n.ERROR_NOT_FOUND
	case http.StatusTooManyRequests:
		return i18n.ERROR_TOO_MANY_REQUESTS
	}
	return i18n.ERROR_INTERNAL
}

// File serves the file at path as an attachment called name.
// The media type follows the extension when mediaType is empty.
func File(c *gin.Context, path, name, mediaType string) {
	c.Abort()
	if mediaType == "" {
		mediaType = mediaTypeOf(name)
	}
	c.Header("Content-Type", mediaType)
	c.FileAttachment(path, name)
	printSuccessLog(c, http.StatusOK)
}

// Stream copies r to the client as an attachment called name. size may be -1 when unknown.
func Stream(c *gin.Context, r io.Reader, size int64, name, mediaType string) {
	c.Abort()
	if mediaType == "" {
		mediaType = mediaTypeOf(name)
	}
	c.DataFromReader(http.StatusOK, size, mediaType, r, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
	})
	printSuccessLog(c, http.StatusOK)
}

func mediaTypeOf(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func logAttrs(c *gin.Context, status int) []any {
	attrs := []any{
		slog.String("request_id", c.GetString(RequestIDKey)),
		slog.String("method", c.Request.Method),
		slog.String("request_uri", c.Request.URL.Path),
		slog.Int("code", status),
	}
	if query := c.Request.URL.Query(); len(query) > 0 {
		keys := lo.Keys(query)
		sort.Strings(keys)
		attrs = append(attrs, slog.Any("query_keys", keys))
	}
	if uid := c.GetString(UserKey); uid != "" {
		attrs = append(attrs, slog.String("uid", uid))
	}
	return attrs
}

func printErrorLog(c *gin.Context, status int, err error) {
	attrs := logAttrs(c, status)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	if status >= http.StatusInternalServerError {
		slog.Error("response error", attrs...)
		return
	}
	slog.Warn("response error", attrs...)
}

func printSuccessLog(c *gin.Context, status int) {
	slog.Info("request success", logAttrs(c, status)...)
}
