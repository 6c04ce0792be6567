// forge/debughttp/debughttp.go
// Package debughttp exposes a read-only HTTP introspection surface over a
// root container: the names of the containers in its DRO, in DRO order.
// It does not report registered keys or a scope's bound keys. Grounded on the teacher's core/app.go
// (gin.New(), gin.Recovery(), gin.SetMode) for engine setup, with
// gin-contrib/cors added so the endpoint can be polled from a browser-based
// dashboard on a different origin during local development.
package debughttp

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"forge/container"
)

// Introspectable is the minimal view a container.Container exposes for
// read-only reporting, declared here so debughttp has no compile-time
// dependency on scope's bindings cache internals.
type Introspectable interface {
	Name() string
	DRO() []*container.Container
}

// Server is a read-only introspection HTTP server over one root container.
type Server struct {
	engine *gin.Engine
	root   Introspectable
}

// New builds a Server for root. debug controls gin's logging middleware
// the same way core.GoblinApp's Debug option did.
func New(root *container.Container, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if debug {
		engine.Use(gin.Logger())
	}
	engine.Use(cors.Default())

	s := &Server{engine: engine, root: root}
	engine.GET("/containers", s.handleContainers)
	engine.GET("/containers/dro", s.handleDRO)
	return s
}

// Engine exposes the underlying gin.Engine so callers can call Run/
// ServeHTTP themselves (tests use httptest.NewRecorder + ServeHTTP).
func (s *Server) Engine() *gin.Engine { return s.engine }

type containerView struct {
	Name string `json:"name"`
}

func (s *Server) handleContainers(c *gin.Context) {
	var out []containerView
	for _, cont := range s.root.DRO() {
		out = append(out, containerView{Name: cont.Name()})
	}
	c.JSON(http.StatusOK, gin.H{"containers": out})
}

func (s *Server) handleDRO(c *gin.Context) {
	order := s.root.DRO()
	names := make([]string, len(order))
	for i, cont := range order {
		names[i] = cont.Name()
	}
	c.JSON(http.StatusOK, gin.H{"dro": names})
}
