package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/moodtune/moodtune-backend/internal/dto"
	"github.com/moodtune/moodtune-backend/internal/services"
)

type RecommendHandler struct {
	spotify *services.SpotifyClient
	mockup  *services.MockupProvider
}

func NewRecommendHandler(spotify *services.SpotifyClient, mockup *services.MockupProvider) *RecommendHandler {
	return &RecommendHandler{spotify: spotify, mockup: mockup}
}

// GetRecommendations handles GET /recommend - track recommendations for
// an emotion, using the caller's Spotify access token from the
// Authorization header.
func (h *RecommendHandler) GetRecommendations(c *fiber.Ctx) error {
	emotion := c.Query("emotion")
	if emotion == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "emotion query parameter is required",
		})
	}

	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing Spotify access token",
		})
	}

	raw, err := h.spotify.Recommend(c.UserContext(), emotion, token)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch recommendations",
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// GetMockupRecommendations handles GET /recommend/mockup - local mockup
// tracks, no Spotify account required.
func (h *RecommendHandler) GetMockupRecommendations(c *fiber.Ctx) error {
	emotion := c.Query("emotion")
	if emotion == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "emotion query parameter is required",
		})
	}

	result, err := h.mockup.Recommendations(emotion)
	if err != nil {
		if errors.Is(err, services.ErrUnknownEmotion) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid emotion. Options: happy, sad, angry, relaxed, energetic",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load mockup recommendations",
		})
	}

	return c.JSON(result)
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
