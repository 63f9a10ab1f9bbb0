package http

import (
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type MessageHandler struct {
	orderUsecase usecase.OrderUC
	logger       logger.Logger
}

func NewMessageHandler(orderUsecase usecase.OrderUC, logger logger.Logger) *MessageHandler {
	return &MessageHandler{orderUsecase: orderUsecase, logger: logger}
}

type SendMessageRequest struct {
	// Адресат. "ALL" или пустое значение означает рассылку всем.
	UserID  string `json:"userId"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type MessagesResponse struct {
	Messages []domain.Message `json:"messages"`
	Unread   int              `json:"unread"`
}

// listMessages
//
//	@Summary	Лента сообщений пользователя
//	@Tags		messages
//	@Produce	json
//	@Param		X-User-ID	header		string	true	"ID пользователя"
//	@Success	200			{object}	MessagesResponse
//	@Router		/messages [get]
func (h *MessageHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	res, err := h.orderUsecase.MessagesForUser(r.Context(), identityFromCtx(r.Context()).UserID)
	if err != nil {
		h.logger.Errorf(err, "list messages failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, MessagesResponse{Messages: res.Messages, Unread: res.Unread})
}

// markRead
//
//	@Summary	Отметить сообщение прочитанным
//	@Tags		messages
//	@Param		X-User-ID	header	string	true	"ID пользователя"
//	@Param		id			path	string	true	"ID сообщения"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/messages/{id}/read [post]
func (h *MessageHandler) markRead(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")

	res, err := h.orderUsecase.MessagesForUser(r.Context(), identityFromCtx(r.Context()).UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	// чужие сообщения не раскрываются: для них 404
	visible := false
	for _, m := range res.Messages {
		if m.ID == messageID {
			visible = true
			break
		}
	}
	if !visible {
		WriteError(w, e.Wrap(messageID, e.ErrNotFound))
		return
	}

	if err := h.orderUsecase.MarkMessageRead(r.Context(), messageID); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sendMessage
//
//	@Summary	Отправка сообщения
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		message	body		SendMessageRequest	true	"Сообщение"
//	@Success	201		{object}	domain.Message
//	@Failure	400		{object}	ErrorResponse
//	@Router		/admin/messages [post]
func (h *MessageHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	target := strings.TrimSpace(req.UserID)
	if target == "" {
		target = domain.BroadcastUserID
	}

	msg, err := h.orderUsecase.SendMessage(r.Context(), target, req.Title, req.Content)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, msg)
}

// deleteMessage
//
//	@Summary	Удаление сообщения
//	@Tags		admin
//	@Param		id	path	string	true	"ID сообщения"
//	@Success	204
//	@Router		/admin/messages/{id} [delete]
func (h *MessageHandler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.orderUsecase.DeleteMessage(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
