package api

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	"PriceOpt/internal/usecase"
	xhttp "PriceOpt/pkg/http"
	"PriceOpt/pkg/logger"
)

const maxUserIDLen = 128

// ChatHandler exposes per-user conversation history.
type ChatHandler struct {
	logger *logger.Logger
	chat   *usecase.Chat
}

func NewChatHandler(lgr *logger.Logger, chat *usecase.Chat) *ChatHandler {
	return &ChatHandler{logger: lgr, chat: chat}
}

func (h *ChatHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/chat")
	g.POST("/:user_id", h.Post)
	g.GET("/:user_id/history", h.History)
	g.DELETE("/:user_id/history", h.Clear)
}

func (h *ChatHandler) Post(c echo.Context) error {
	userID, err := userParam(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	req := &models.ChatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sess, perr := h.chat.Post(c.Request().Context(), userID, req.Message)
	if perr != nil {
		return h.fail(c, perr)
	}
	return xhttp.SuccessResponse(c, &models.ChatResponse{
		UserID:          userID,
		Response:        fmt.Sprintf("Message saved for user %s", userID),
		SessionLen:      len(sess.History),
		MessageReceived: req.Message,
	})
}

func (h *ChatHandler) History(c echo.Context) error {
	userID, err := userParam(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	sess, herr := h.chat.History(c.Request().Context(), userID)
	if herr != nil {
		return h.fail(c, herr)
	}
	return xhttp.SuccessResponse(c, &models.ChatHistoryResponse{
		UserID:       userID,
		History:      sess.History,
		MessageCount: len(sess.History),
	})
}

func (h *ChatHandler) Clear(c echo.Context) error {
	userID, err := userParam(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if cerr := h.chat.Clear(c.Request().Context(), userID); cerr != nil {
		return h.fail(c, cerr)
	}
	return xhttp.SuccessResponse(c, &models.ChatClearedResponse{UserID: userID, Status: "cleared"})
}

func (h *ChatHandler) fail(c echo.Context, err error) error {
	if errors.Is(err, domrepo.ErrBusy) {
		return xhttp.AppErrorResponse(c, xhttp.ConflictErrorf("chat session is being updated, retry"))
	}
	h.logger.Error("chat request failed", logger.String("path", c.Path()), logger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("chat session store unavailable"))
}

func userParam(c echo.Context) (string, *xhttp.AppError) {
	id := c.Param("user_id")
	if id == "" || len(id) > maxUserIDLen {
		return "", xhttp.UnprocessableError("user_id", fmt.Sprintf("user_id must be 1..%d characters", maxUserIDLen))
	}
	return id, nil
}
