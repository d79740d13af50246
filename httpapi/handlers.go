package httpapi

import (
	"net/http"
	"time"

	couchjwt "github.com/MrEthical07/couchjwt"
	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/MrEthical07/couchjwt/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// MIMEJWT is the media type of a bare token response.
const MIMEJWT = "application/jwt"

type handlers struct {
	engine *couchjwt.Engine
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
	Pass     string `json:"pass" form:"pass"`
}

func (r loginRequest) credentials() (string, string) {
	username, password := r.Username, r.Password
	if username == "" {
		username = r.Name
	}
	if password == "" {
		password = r.Pass
	}
	return username, password
}

type tokenResponse struct {
	OK      bool             `json:"ok"`
	UserCtx couchjwt.UserCtx `json:"userCtx"`
	Session string           `json:"session,omitempty"`
	Token   string           `json:"token"`
	Issued  time.Time        `json:"issued"`
	Expires time.Time        `json:"expires"`
}

type errorResponse struct {
	Error   bool         `json:"error"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Code    autherr.Code `json:"code"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		abort(c, autherr.HTTP(http.StatusBadRequest))
		return
	}
	username, password := req.credentials()
	res, err := h.engine.Login(c.Request.Context(), username, password)
	respond(c, res, err)
}

func (h *handlers) info(c *gin.Context) {
	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		abort(c, autherr.ErrBadToken)
		return
	}
	res, err := h.engine.Info(c.Request.Context(), token)
	respond(c, res, err)
}

func (h *handlers) renew(c *gin.Context) {
	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		abort(c, autherr.ErrBadToken)
		return
	}
	res, err := h.engine.Renew(c.Request.Context(), token)
	respond(c, res, err)
}

func (h *handlers) logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		abort(c, autherr.ErrBadToken)
		return
	}
	res, err := h.engine.Logout(c.Request.Context(), token)
	respond(c, res, err)
}

func respond(c *gin.Context, res *couchjwt.Result, err error) {
	if err != nil {
		abort(c, err)
		return
	}

	switch c.NegotiateFormat(binding.MIMEJSON, MIMEJWT) {
	case binding.MIMEJSON:
		c.JSON(http.StatusOK, tokenResponse{
			OK:      true,
			UserCtx: res.UserCtx,
			Session: res.Session,
			Token:   res.Token,
			Issued:  res.IssuedAt.UTC(),
			Expires: res.ExpiresAt.UTC(),
		})
	case MIMEJWT:
		c.Data(http.StatusOK, MIMEJWT, []byte(res.Token))
	default:
		abort(c, autherr.HTTP(http.StatusNotAcceptable))
	}
}

func abort(c *gin.Context, err error) {
	e := autherr.From(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(e.Status, errorResponse{
		Error:   true,
		Message: e.Message,
		Status:  e.Status,
		Code:    e.Code,
	})
}

func notFound(c *gin.Context) {
	abort(c, autherr.HTTP(http.StatusNotFound))
}
