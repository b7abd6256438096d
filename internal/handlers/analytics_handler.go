package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/moodtune/moodtune-backend/internal/dto"
	"github.com/moodtune/moodtune-backend/internal/middleware"
	"github.com/moodtune/moodtune-backend/internal/services"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// clientTimezone reads the IANA timezone name the client wants results
// localized to. Resolution failures fall back to UTC downstream.
func clientTimezone(c *fiber.Ctx) string {
	if tz := c.Get("X-Timezone"); tz != "" {
		return tz
	}
	return c.Query("tz")
}

// GetStats handles GET /analytics/stats - the dashboard aggregate.
func (h *AnalyticsHandler) GetStats(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	stats, err := h.analytics.ComputeStats(userID, clientTimezone(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to compute stats",
		})
	}

	return c.JSON(stats)
}

// GetHistory handles GET /analytics/history - past analyses newest first.
func (h *AnalyticsHandler) GetHistory(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	emotionFilter := c.Query("emotion_filter")
	includeRecommendations := c.QueryBool("include_recommendations", false)
	spotifyToken := c.Get("X-Spotify-Token")

	history, err := h.analytics.History(userID, clientTimezone(c), emotionFilter, includeRecommendations, spotifyToken)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch history",
		})
	}

	return c.JSON(history)
}

// SaveAnalysis handles POST /analytics/save-analysis - ingests one
// emotion-analysis result with duplicate suppression.
func (h *AnalyticsHandler) SaveAnalysis(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SaveAnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.analytics.SaveAnalysis(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEmotion) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to save analysis",
		})
	}

	return c.JSON(resp)
}

// GetAnalysisDetail handles GET /analytics/analysis/:id.
func (h *AnalyticsHandler) GetAnalysisDetail(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	recordID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid analysis ID",
		})
	}

	entry, err := h.analytics.AnalysisDetail(userID, recordID, clientTimezone(c))
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Analysis not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch analysis",
		})
	}

	return c.JSON(entry)
}
