package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carelane/reply-engine/internal/ingest/intake"
	"github.com/carelane/reply-engine/internal/storage"
)

const defaultListLimit = 10

func (s *Server) handleUpload(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing the CSV", "error": err.Error()})

		return
	}

	req := intake.Request{
		ContentType:   c.GetHeader("Content-Type"),
		Body:          body,
		Base64Encoded: intake.IsBase64Transfer(c.GetHeader("Content-Transfer-Encoding")),
	}

	if _, err := s.intake.Accept(c.Request.Context(), req); err != nil {
		var rejection *intake.Rejection

		if errors.As(err, &rejection) {
			payload := gin.H{"message": rejection.Message}
			if len(rejection.Errors) > 0 {
				payload["errors"] = rejection.Errors
			}

			c.JSON(http.StatusBadRequest, payload)

			return
		}

		s.logger.Error().Err(err).Msg("upload processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing the CSV", "error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": intake.AcceptedMessage})
}

func (s *Server) handleListConversations(c *gin.Context) {
	limit := defaultListLimit

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})

			return
		}

		limit = parsed
	}

	conversations, lastKey, err := s.conversations.ListConversations(c.Request.Context(), limit, c.Query("startKey"))
	if err != nil {
		s.logger.Error().Err(err).Msg("list conversations failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations":    conversations,
		"lastEvaluatedKey": lastKey,
	})
}

func (s *Server) handleGetConversation(c *gin.Context) {
	rec, err := s.conversations.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})

			return
		}

		s.logger.Error().Err(err).Msg("get conversation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  rec.Message,
		"response": rec.Response,
	})
}
