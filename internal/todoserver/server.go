package todoserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"todosmoke/internal/todo"
	"todosmoke/pkg/logging"
)

const subsystem = "todoserver"

// Server is the reference todo service. It serves the same REST surface the
// smoke test drives, backed by a Store.
type Server struct {
	store  Store
	engine *gin.Engine
}

// NewServer builds the gin engine and registers all routes.
func NewServer(store Store) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{store: store, engine: engine}

	engine.GET("/healthz", s.health)
	engine.POST(todo.PathTodo, s.createItem)
	engine.POST(todo.PathTodo+"/:id", s.updateItem)
	engine.DELETE(todo.PathTodo+"/:id", s.deleteItem)
	engine.GET(todo.PathTodoCompleted, s.listItems(true))
	engine.GET(todo.PathTodoIncomplete, s.listItems(false))

	return s
}

// Handler returns the http.Handler serving the REST surface.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(subsystem, "Reference todo service listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("todo service on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Info(subsystem, "Shutting down reference todo service")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown todo service: %w", err)
		}
		return nil
	}
}

// itemRequest is the decoded create or update body. The id sent with updates
// is ignored in favor of the path parameter.
type itemRequest struct {
	Description *string     `json:"description"`
	Completed   interface{} `json:"completed"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createItem(c *gin.Context) {
	req, err := bindItemRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Description == nil || strings.TrimSpace(*req.Description) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}
	completed, err := parseBool(req.Completed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := s.store.Create(*req.Description, completed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, []todo.Item{item})
}

func (s *Server) updateItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	req, err := bindItemRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	completed, err := parseBool(req.Completed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.SetCompleted(id, completed); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) deleteItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.store.Delete(id); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) listItems(completed bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.store.List(completed)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if items == nil {
			items = []todo.Item{}
		}
		c.JSON(http.StatusOK, items)
	}
}

// bindItemRequest reads a JSON body, or HTML form values for any other content type.
func bindItemRequest(c *gin.Context) (itemRequest, error) {
	var req itemRequest
	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
		return req, nil
	}

	if desc, ok := c.GetPostForm("description"); ok {
		req.Description = &desc
	}
	if completed, ok := c.GetPostForm("completed"); ok {
		req.Completed = completed
	}
	return req, nil
}

// parseBool accepts nil (false), JSON booleans and strconv.ParseBool strings
// such as "true", "False" or "1".
func parseBool(v interface{}) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case string:
		if t == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("invalid completed value %q", t)
		}
		return b, nil
	default:
		return false, fmt.Errorf("invalid completed value %v", t)
	}
}

func writeStoreError(c *gin.Context, err error) {
	var nf ErrNotFound
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug(subsystem, "%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
