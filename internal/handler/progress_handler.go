package handler

import (
	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/internal/service"
	internalWS "ai-docview-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ProgressHandler streams view lifecycle and progress frames for one document.
type ProgressHandler struct {
	service   service.IDocumentService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewProgressHandler(svc service.IDocumentService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		service:   svc,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs upgrades the request and attaches it to the document's watchers.
// Browsers cannot set headers on the handshake, so the token may come as a query param.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	if h.jwtSecret != "" {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			authHeader := c.Get("Authorization")
			if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				tokenStr = authHeader[7:]
			}
		}
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.ErrUnauthorized
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			h.logger.Warn("ProgressHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
	}

	documentID := c.Params("id")
	if _, err := h.service.GetProfile(c.UserContext(), documentID); err != nil {
		return err
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ProgressHandler", "Starting WebSocket session", map[string]interface{}{"document_id": documentID})
			internalWS.ServeWs(h.hub, conn, documentID)
			h.logger.Info("ProgressHandler", "WebSocket session ended", map[string]interface{}{"document_id": documentID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the live progress routes.
func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/document/v1/:id/ws", h.ServeWs)
}
