package server

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"

	"quizbot/internal/auth"
	"quizbot/internal/chat"
	"quizbot/internal/validate"

	"github.com/gin-gonic/gin"
)

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Quizbot API", "version": version})
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.DB.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	name := validate.SanitizeInput(req.Name)
	if name == "" || utf8.RuneCountInString(name) > 100 {
		badRequest(c, "имя должно содержать от 1 до 100 символов")
		return
	}
	if err := validate.Email(req.Email); err != nil {
		s.fail(c, err)
		return
	}
	if err := validate.PasswordStrength(req.Password); err != nil {
		s.fail(c, err)
		return
	}

	session, err := s.deps.Auth.Register(c.Request.Context(), name, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse(session))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session, err := s.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

func sessionResponse(session *auth.Session) gin.H {
	return gin.H{
		"user":         session.User,
		"access_token": session.Token,
		"token_type":   "bearer",
	}
}

func (s *Server) me(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	c.JSON(http.StatusOK, user)
}

func currentUserID(c *gin.Context) uint {
	user, _ := auth.CurrentUser(c)
	return user.ID
}

func chatID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "некорректный id чата")
		return 0, false
	}
	return uint(id), true
}

func (s *Server) listChats(c *gin.Context) {
	chats, err := s.deps.Chats.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

type titleRequest struct {
	Title string `json:"title"`
}

func (s *Server) createChat(c *gin.Context) {
	var req titleRequest
	// тело необязательно: без заголовка чат получает название по умолчанию
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	created, err := s.deps.Chats.Create(c.Request.Context(), currentUserID(c), req.Title)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getChat(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}
	detail, err := s.deps.Chats.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) deleteChat(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}
	if err := s.deps.Chats.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "чат удалён"})
}

func (s *Server) renameChat(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	renamed, err := s.deps.Chats.Rename(c.Request.Context(), currentUserID(c), id, req.Title)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, renamed)
}

func (s *Server) searchChats(c *gin.Context) {
	found, err := s.deps.Chats.Search(c.Request.Context(), currentUserID(c), c.Query("q"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

type messageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) sendMessage(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	exchange, err := s.deps.Chats.Submit(c.Request.Context(), chat.Submission{
		Persist: true,
		UserID:  currentUserID(c),
		ChatID:  id,
		Content: req.Content,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, exchange)
}

func (s *Server) guestMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	exchange, err := s.deps.Chats.Submit(c.Request.Context(), chat.Submission{Content: req.Content})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, exchange)
}

func (s *Server) llmPing(c *gin.Context) {
	if s.deps.LLM == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": "модель не настроена"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	models, err := s.deps.LLM.Ping(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"model":     s.cfg.OpenAI.Model,
		"available": slices.Contains(models, s.cfg.OpenAI.Model),
		"models":    models,
	})
}
