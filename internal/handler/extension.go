package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
	"github.com/MintShards/pawn-repo-sub002/internal/service"
)

type ExtensionHandler struct {
	extensionService *service.ExtensionService
	logger           *logrus.Logger
}

func NewExtensionHandler(extensionService *service.ExtensionService, logger *logrus.Logger) *ExtensionHandler {
	return &ExtensionHandler{extensionService: extensionService, logger: logger}
}

func (h *ExtensionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.ProcessExtension).Methods("POST")
}

// ProcessExtension продлевает срок залогового билета
func (h *ExtensionHandler) ProcessExtension(w http.ResponseWriter, r *http.Request) {
	var req model.ExtensionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос продления")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.extensionService.ProcessExtension(r.Context(), req, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
