// Package mockserver is a stand-in classifier for exercising the
// fairness check against a live HTTP endpoint.
package mockserver

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	ServiceName = "Mock Classifier API"
	Version     = "1.0"
	BiasedNote  = "This is an intentionally biased endpoint for testing"
)

type Server struct {
	log logrus.FieldLogger

	mu  sync.Mutex
	rnd *rand.Rand
}

// New seeds the prediction source. A zero seed uses the current time.
func New(seed int64, log logrus.FieldLogger) *Server {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{log: log, rnd: rand.New(rand.NewSource(seed))}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	r.GET("/", s.handleInfo)
	r.GET("/health", s.handleHealth)
	r.POST("/classify", s.handleRandom)
	r.POST("/classify/random", s.handleRandom)
	r.POST("/classify/biased", s.handleBiased)
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("mock classifier listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.WithFields(logrus.Fields{
		"method":   c.Request.Method,
		"path":     c.Request.URL.Path,
		"status":   c.Writer.Status(),
		"duration": time.Since(start).String(),
	}).Debug("request")
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"version": Version,
		"endpoints": gin.H{
			"/classify":        "POST - Classify features and return prediction",
			"/classify/random": "POST - Random predictions for testing",
			"/classify/biased": "POST - Biased predictions for testing",
			"/health":          "GET - Health check",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleRandom(c *gin.Context) {
	features, ok := s.bindFeatures(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"inference": s.coinFlip(), "features": features})
}

func (s *Server) handleBiased(c *gin.Context) {
	features, ok := s.bindFeatures(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"inference": 1, "features": features, "note": BiasedNote})
}

// bindFeatures requires a JSON object with a "features" key. The value
// itself may be anything, including null.
func (s *Server) bindFeatures(c *gin.Context) (any, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		s.renderError(c, "request body must be a JSON object")
		return nil, false
	}
	features, ok := body["features"]
	if !ok {
		s.renderError(c, "field required: features")
		return nil, false
	}
	return features, true
}

func (s *Server) renderError(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
}

func (s *Server) coinFlip() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(2)
}
