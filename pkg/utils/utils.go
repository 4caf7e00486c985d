package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/holdno/snowFlakeByGo"

	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
)

var idWorker, _ = snowFlakeByGo.NewWorker(1)

// SetupIDWorker replaces the default worker, every instance of a cluster needs its own id.
func SetupIDWorker(clusterID int64) {
	if w, err := snowFlakeByGo.NewWorker(clusterID); err == nil {
		idWorker = w
	}
}

func GenUniqID() int64 {
	return idWorker.GetId()
}

func GenUniqIDStr() string {
	return strconv.FormatInt(GenUniqID(), 10)
}

func GenRandomID() string {
	return RandomStr(32)
}

func RandomStr(l int) string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	seed := "1234567890qwertyuiopasdfghjklzxcvbnmQWERTYUIOPASDFGHJKLZXCVBNM"
	b := make([]byte, l)
	for i := range b {
		b[i] = seed[r.Intn(len(seed))]
	}
	return string(b)
}

func MD5(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// MaskString keeps preLen leading and postLen trailing runes of s.
func MaskString(s string, preLen, postLen int) string {
	runes := []rune(s)
	if len(runes) <= preLen+postLen {
		return "***"
	}
	return string(runes[:preLen]) + "***" + string(runes[len(runes)-postLen:])
}

// BindArgsWithGin binds the request by method and content type.
// Rule violations come back as a 400 carrying the failing fields.
func BindArgsWithGin(c *gin.Context, req any) error {
	err := c.ShouldBindWith(req, binding.Default(c.Request.Method, c.ContentType()))
	if err != nil {
		ce := errors.New(fmt.Sprintf("Gin.ShouldBindWith.%s.%s", c.Request.Method, c.Request.URL.Path), i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
		if fields := BindingFieldErrors(err); len(fields) > 0 {
			ce = ce.WithData(map[string]any{"fields": fields})
		}
		return ce
	}
	return nil
}

// BindQueryWithGin binds the url query only, whatever the method or body.
func BindQueryWithGin(c *gin.Context, req any) error {
	err := c.ShouldBindQuery(req)
	if err != nil {
		ce := errors.New(fmt.Sprintf("Gin.ShouldBindQuery.%s.%s", c.Request.Method, c.Request.URL.Path), i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
		if fields := BindingFieldErrors(err); len(fields) > 0 {
			ce = ce.WithData(map[string]any{"fields": fields})
		}
		return ce
	}
	return nil
}
