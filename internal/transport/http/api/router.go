package apihttp

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"markbook/internal/gate"
	"markbook/internal/gradebook"
	"markbook/internal/logger"
	"markbook/internal/source"
	"markbook/internal/workbook"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 32 << 20 // matches gin's default multipart memory

// Router exposes workbook loading and lookup endpoints.
type Router struct {
	svc *gradebook.Service
}

// NewRouter builds the API router around a gradebook service.
func NewRouter(svc *gradebook.Service) *Router {
	return &Router{svc: svc}
}

// Register mounts the API routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/workbook", r.handleWorkbookUpload)
	group.POST("/workbook/fetch", r.handleWorkbookFetch)
	group.GET("/workbook", r.handleWorkbookMeta)
	group.POST("/login", r.handleLogin)
	group.POST("/courses", r.handleCourses)
	group.GET("/overview", r.handleOverview)
}

// identityRequest is the login/courses request body.
type identityRequest struct {
	StudentID  string `json:"student_id"`
	AccessCode string `json:"access_code"`
	Secret     string `json:"secret"`
	Course     string `json:"course"`
}

func (req identityRequest) identity() gate.Identity {
	return gate.Identity{
		StudentID:  req.StudentID,
		AccessCode: req.AccessCode,
		Secret:     req.Secret,
		Course:     req.Course,
	}
}

type fetchRequest struct {
	URL string `json:"url"`
}

func (r *Router) handleWorkbookUpload(c *gin.Context) {
	if r.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gradebook service unavailable"})
		return
	}
	file, err := c.FormFile("workbook")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `multipart field "workbook" is required`})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "workbook too large"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := filepath.Base(file.Filename)
	if _, err := r.svc.LoadBytes(data, "upload:"+name); err != nil {
		logger.Warnf("[api] workbook upload rejected ip=%s file=%s err=%v", c.ClientIP(), name, err)
		r.writeLoadError(c, err)
		return
	}
	logger.Infof("[api] workbook upload ip=%s file=%s size=%d", c.ClientIP(), name, file.Size)
	r.writeMeta(c)
}

func (r *Router) handleWorkbookFetch(c *gin.Context) {
	if r.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gradebook service unavailable"})
		return
	}
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if _, err := r.svc.LoadURL(c.Request.Context(), url); err != nil {
		logger.Errorf("[api] workbook fetch failed ip=%s err=%v", c.ClientIP(), err)
		r.writeLoadError(c, err)
		return
	}
	logger.Infof("[api] workbook fetch ip=%s", c.ClientIP())
	r.writeMeta(c)
}

func (r *Router) handleWorkbookMeta(c *gin.Context) {
	if r.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gradebook service unavailable"})
		return
	}
	meta, err := r.svc.Meta()
	if err != nil {
		if errors.Is(err, gradebook.ErrNoWorkbook) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (r *Router) handleLogin(c *gin.Context) {
	if r.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gradebook service unavailable"})
		return
	}
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := r.svc.Login(req.identity())
	if err != nil {
		if errors.Is(err, gate.ErrNoMatch) {
			logger.Warnf("[api] login rejected ip=%s student=%s", c.ClientIP(), strings.TrimSpace(req.StudentID))
		}
		r.writeGateError(c, err)
		return
	}
	logger.Debugf("[api] login ip=%s student=%s outcome=%s", c.ClientIP(), strings.TrimSpace(req.StudentID), result.Outcome)
	c.JSON(http.StatusOK, result)
}

func (r *Router) handleCourses(c *gin.Context) {
	if r.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gradebook service unavailable"})
		return
	}
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	courses, err := r.svc.Courses(req.identity())
	if err != nil {
		r.writeGateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (r *Router) handleOverview(c *gin.Context) {
	if r.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gradebook service unavailable"})
		return
	}
	overview, err := r.svc.Overview()
	if err != nil {
		r.writeGateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": overview})
}

func (r *Router) writeMeta(c *gin.Context) {
	meta, err := r.svc.Meta()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, meta)
}

// writeLoadError maps workbook load failures onto HTTP statuses: upstream
// fetch problems become 502 with a share-permissions hint, undecodable
// uploads become 400.
func (r *Router) writeLoadError(c *gin.Context, err error) {
	var fetchErr *source.FetchError
	var decodeErr *workbook.DecodeError
	switch {
	case errors.As(err, &fetchErr):
		body := gin.H{"error": err.Error(), "hint": source.PermissionsHint}
		if fetchErr.Status != 0 {
			body["status"] = fetchErr.Status
		}
		c.JSON(http.StatusBadGateway, body)
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// writeGateError maps lookup failures. Failed matches never reveal whether
// the id or the code was wrong.
func (r *Router) writeGateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gradebook.ErrMissingStudentID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gate.ErrNoMatch):
		c.JSON(http.StatusUnauthorized, gin.H{"error": gradebook.MsgInvalidLogin})
	case errors.Is(err, gate.ErrCredentialsUnavailable), errors.Is(err, gradebook.ErrNoWorkbook):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
