package handlers

import (
	"errors"
	"fmt"
	"log"

	"printsi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler handles HTTP requests for conversations and proposals.
type ChatHandler struct {
	service *services.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{
		service: service,
	}
}

// RegisterRoutes registers the chat routes with the Fiber app.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	chatRoutes := router.Group("/chats")
	chatRoutes.Get("/", h.HandleGetChats)
	chatRoutes.Post("/", h.HandleStartChat)
	chatRoutes.Get("/:id/messages", h.HandleGetMessages)
	chatRoutes.Post("/:id/messages", h.HandleSendMessage)
	chatRoutes.Post("/:id/proposals", h.HandleSubmitProposal)
	chatRoutes.Post("/:id/proposals/:messageId/accept", h.HandleAcceptProposal)
	chatRoutes.Post("/:id/proposals/:messageId/reject", h.HandleRejectProposal)
}

// chatError maps chat service errors onto HTTP responses.
func (h *ChatHandler) chatError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Request rejected",
			"error":   validationErr.Reason,
		})
	}
	log.Printf("Chat request failed: %v", err)
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "Not found",
		"error":   err.Error(),
	})
}

// HandleGetChats lists the user's conversations.
func (h *ChatHandler) HandleGetChats(c *fiber.Ctx) error {
	chats, err := h.service.ListChats(currentUserID(c))
	if err != nil {
		log.Printf("Error listing chats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve chats",
			"error":   err.Error(),
		})
	}
	return c.JSON(chats)
}

// HandleStartChat opens (or returns) the conversation about an offer.
func (h *ChatHandler) HandleStartChat(c *fiber.Ctx) error {
	var req struct {
		OfferID string `json:"offer_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.OfferID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "offer_id is required",
		})
	}

	chat, err := h.service.StartChat(currentUserID(c), req.OfferID)
	if err != nil {
		return h.chatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(chat)
}

// HandleGetMessages lists a chat's messages in order.
func (h *ChatHandler) HandleGetMessages(c *fiber.Ctx) error {
	chatID := c.Params("id")
	messages, err := h.service.ListMessages(currentUserID(c), chatID)
	if err != nil {
		log.Printf("Error listing messages for chat %s: %v", chatID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Chat with ID %s not found", chatID),
		})
	}
	return c.JSON(messages)
}

// HandleSendMessage appends a text message to the chat.
func (h *ChatHandler) HandleSendMessage(c *fiber.Ctx) error {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	message, err := h.service.SendMessage(currentUserID(c), c.Params("id"), req.Body)
	if err != nil {
		return h.chatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// HandleSubmitProposal posts a custom-order proposal into the chat.
func (h *ChatHandler) HandleSubmitProposal(c *fiber.Ctx) error {
	var input services.ProposalInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	message, err := h.service.SubmitProposal(currentUserID(c), c.Params("id"), input)
	if err != nil {
		return h.chatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// HandleAcceptProposal accepts an open proposal.
func (h *ChatHandler) HandleAcceptProposal(c *fiber.Ctx) error {
	message, err := h.service.AcceptProposal(currentUserID(c), c.Params("id"), c.Params("messageId"))
	if err != nil {
		return h.chatError(c, err)
	}
	return c.JSON(message)
}

// HandleRejectProposal rejects an open proposal.
func (h *ChatHandler) HandleRejectProposal(c *fiber.Ctx) error {
	message, err := h.service.RejectProposal(currentUserID(c), c.Params("id"), c.Params("messageId"))
	if err != nil {
		return h.chatError(c, err)
	}
	return c.JSON(message)
}
