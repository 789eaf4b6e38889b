// Package api exposes the HTTP surface: CSV batch intake and the two
// conversation read endpoints.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/carelane/reply-engine/internal/core/domain"
	"github.com/carelane/reply-engine/internal/ingest/intake"
	"github.com/carelane/reply-engine/internal/storage"
)

// ConversationReader is the read-only storage surface for the two
// lookup endpoints.
type ConversationReader interface {
	ListConversations(ctx context.Context, limit int, startKey string) ([]domain.ConversationSummary, string, error)
	GetConversation(ctx context.Context, id string) (*domain.ConversationRecord, error)
}

var _ ConversationReader = (*storage.DB)(nil)

type Server struct {
	intake        *intake.Service
	conversations ConversationReader
	logger        *zerolog.Logger
}

func NewServer(intakeService *intake.Service, conversations ConversationReader, logger *zerolog.Logger) *Server {
	return &Server{
		intake:        intakeService,
		conversations: conversations,
		logger:        logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.POST("/upload", s.handleUpload)
	router.GET("/conversations", s.handleListConversations)
	router.GET("/conversations/:id", s.handleGetConversation)

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
