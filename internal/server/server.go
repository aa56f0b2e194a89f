package server

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// Server exposes sessions over HTTP. The RoleRAG is shared; each session
// owns its memory and answers one query at a time.
type Server struct {
	RAG *core.RoleRAG

	mu       sync.RWMutex
	sessions map[string]*core.Session
}

func NewServer(rag *core.RoleRAG) *Server {
	return &Server{RAG: rag, sessions: make(map[string]*core.Session)}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/graph/stats", s.GraphStats)
	r.POST("/sessions", s.CreateSession)
	r.POST("/sessions/:id/query", s.Query)
	r.DELETE("/sessions/:id", s.DeleteSession)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status())
	}
}

type CreateSessionRequest struct {
	// SessionID resumes a stored session; a new id is generated when empty.
	SessionID string `json:"session_id"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
}

func (s *Server) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}
	id := req.SessionID
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		c.JSON(http.StatusOK, CreateSessionResponse{SessionID: id, Turns: sess.TurnCount()})
		return
	}
	sess, err := s.RAG.NewSession(c.Request.Context(), id)
	if err != nil {
		logger.Error("failed to create session", "session", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	s.sessions[id] = sess
	c.JSON(http.StatusCreated, CreateSessionResponse{SessionID: id, Turns: sess.TurnCount()})
}

func (s *Server) session(id string) (*core.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *Server) Query(c *gin.Context) {
	sess, ok := s.session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ans, err := sess.Ask(c.Request.Context(), req.Query)
	if errors.Is(err, core.ErrSessionClosed) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	if errors.Is(err, core.ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is empty"})
		return
	}
	if err != nil {
		logger.Error("failed to answer query", "session", sess.ID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer query"})
		return
	}
	c.JSON(http.StatusOK, ans)
}

// DeleteSession forgets the session and its stored memory. An in-flight
// query finishes first and is not written back.
func (s *Server) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.Close()
	}

	if s.RAG.Repo != nil {
		if err := s.RAG.Repo.DeleteMemory(c.Request.Context(), id); err != nil {
			logger.Error("failed to delete session memory", "session", id, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
			return
		}
	} else if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) GraphStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"graph":       s.RAG.Graph.Stats(),
		"communities": len(s.RAG.Communities),
	})
}
