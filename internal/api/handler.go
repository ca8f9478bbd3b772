package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"roster/internal/auth"
	"roster/internal/roster"
)

// Handler wires the HTTP surface to the roster service and session store.
type Handler struct {
	svc        *roster.Service
	sessions   auth.Store
	sessionTTL time.Duration
}

// New creates a handler.
func New(svc *roster.Service, sessions auth.Store, sessionTTL time.Duration) *Handler {
	return &Handler{svc: svc, sessions: sessions, sessionTTL: sessionTTL}
}

// Register mounts all routes under /api.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/auth/check", h.CheckAuth)
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)

		protected := api.Group("", auth.RequireSession(h.sessions))
		{
			protected.GET("/students", h.ListStudents)
			protected.POST("/students", h.AddStudent)
			protected.PUT("/students/:id", h.UpdateStudent)
			protected.PATCH("/students/:id/attendance", h.SetAttendance)
			protected.DELETE("/students/:id", h.DeleteStudent)
			protected.DELETE("/students", h.ClearStudents)
			protected.GET("/statistics", h.Statistics)
		}
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type studentBody struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Attendance roster.Attendance `json:"attendance"`
}

// CheckAuth reports whether the request carries a live session. Never fails.
func (h *Handler) CheckAuth(c *gin.Context) {
	token, err := c.Cookie(auth.SessionCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	sess, ok, err := h.sessions.Get(c.Request.Context(), token)
	if err != nil || !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "username": sess.Username})
}

// Login validates credentials and establishes a new session.
func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	acc, err := h.svc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, roster.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		log.Printf("login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	sess := auth.Session{Token: auth.NewToken(), AccountID: acc.ID, Username: acc.Username}
	if err := h.sessions.Put(c.Request.Context(), sess, h.sessionTTL); err != nil {
		log.Printf("session put: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, sess.Token, int(h.sessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    gin.H{"id": acc.ID, "username": acc.Username},
	})
}

// Logout destroys the session if one exists. Destroying an absent session
// still reports success.
func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(auth.SessionCookie); err == nil && token != "" {
		if err := h.sessions.Delete(c.Request.Context(), token); err != nil {
			log.Printf("logout: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
			return
		}
	}
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListStudents returns the caller's full roster.
func (h *Handler) ListStudents(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	students, err := h.svc.List(c.Request.Context(), sess.AccountID)
	if err != nil {
		log.Printf("list students: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if students == nil {
		students = []roster.Student{}
	}
	c.JSON(http.StatusOK, students)
}

// AddStudent creates a record; attendance defaults to present.
func (h *Handler) AddStudent(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	var req studentBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID and name are required"})
		return
	}

	st, err := h.svc.Create(c.Request.Context(), sess.AccountID, roster.Student{
		ID: req.ID, Name: req.Name, Attendance: req.Attendance,
	})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "student": st})
}

// UpdateStudent rewrites a record; the path id is the current id, the body
// id may rename it.
func (h *Handler) UpdateStudent(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	var req studentBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID and name are required"})
		return
	}

	err := h.svc.Update(c.Request.Context(), sess.AccountID, c.Param("id"), roster.Student{
		ID: req.ID, Name: req.Name, Attendance: req.Attendance,
	})
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetAttendance flips one record's attendance field.
func (h *Handler) SetAttendance(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	var req struct {
		Attendance roster.Attendance `json:"attendance"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attendance value"})
		return
	}

	err := h.svc.SetAttendance(c.Request.Context(), sess.AccountID, c.Param("id"), req.Attendance)
	if err != nil {
		if errors.Is(err, roster.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attendance value"})
			return
		}
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteStudent removes one record.
func (h *Handler) DeleteStudent(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	if err := h.svc.Delete(c.Request.Context(), sess.AccountID, c.Param("id")); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearStudents removes the caller's whole roster in one batched operation.
func (h *Handler) ClearStudents(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	n, err := h.svc.DeleteAll(c.Request.Context(), sess.AccountID)
	if err != nil {
		log.Printf("clear students: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": n})
}

// Statistics returns aggregate attendance counts for the caller.
func (h *Handler) Statistics(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	stats, err := h.svc.Statistics(c.Request.Context(), sess.AccountID)
	if err != nil {
		log.Printf("statistics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// writeStoreError maps service errors onto HTTP statuses without leaking
// store detail; only the duplicate-id case is distinguished.
func (h *Handler) writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID and name are required"})
	case errors.Is(err, roster.ErrDuplicateID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student ID already exists"})
	case errors.Is(err, roster.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
	default:
		log.Printf("store: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}
