package datasources

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chatforge/backend/internal/auth"
	"github.com/chatforge/backend/internal/db"
	apperrors "github.com/chatforge/backend/internal/errors"
	"github.com/chatforge/backend/internal/logger"
	"github.com/chatforge/backend/internal/metrics"
	"github.com/chatforge/backend/internal/storage"
	"github.com/google/uuid"
)

// 25 MB upload cap for data source documents.
const maxUploadBytes = 25 << 20

// DataSourceInfo is the public shape of a data source.
type DataSourceInfo struct {
	ID        int64     `json:"id"`
	ChatbotID int64     `json:"chatbot_id"`
	DataType  string    `json:"data_type"`
	ObjectKey string    `json:"object_key"`
	CreatedAt time.Time `json:"created_at"`
	Status    int16     `json:"status"`
}

func NewDataSourceInfo(ds *db.DataSource) *DataSourceInfo {
	return &DataSourceInfo{
		ID:        ds.ID,
		ChatbotID: ds.ChatbotID,
		DataType:  ds.DataType,
		ObjectKey: ds.ObjectKey,
		CreatedAt: ds.CreatedAt,
		Status:    ds.Status,
	}
}

type Handlers struct {
	datasources *db.DataSourceRepository
	chatbots    *db.ChatbotRepository
	storage     *storage.Client
	presigner   *storage.Presigner
	metrics     *metrics.Metrics
}

func NewHandlers(datasources *db.DataSourceRepository, chatbots *db.ChatbotRepository, st *storage.Client, presigner *storage.Presigner, m *metrics.Metrics) *Handlers {
	return &Handlers{
		datasources: datasources,
		chatbots:    chatbots,
		storage:     st,
		presigner:   presigner,
		metrics:     m,
	}
}

// ownedChatbot loads the chatbot and verifies it belongs to the caller.
func (h *Handlers) ownedChatbot(r *http.Request, chatbotID int64) (*db.Chatbot, *apperrors.AppError) {
	userCtx := auth.GetUserFromContext(r.Context())
	if userCtx == nil {
		return nil, apperrors.Unauthorized("not authenticated")
	}

	bot, err := h.chatbots.GetByID(r.Context(), chatbotID)
	if err != nil {
		if errors.Is(err, db.ErrChatbotNotFound) {
			return nil, apperrors.ChatbotNotFound()
		}
		return nil, apperrors.DatabaseError("failed to load chatbot")
	}
	if bot.UserID != userCtx.UserID {
		return nil, apperrors.Forbidden("cannot access another user's chatbot")
	}
	return bot, nil
}

// Create uploads a document and registers it as a data source for the
// chatbot. Expects a multipart form with a "file" part and an optional
// "data_type" field.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	chatbotID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid chatbot ID"))
		return
	}

	bot, appErr := h.ownedChatbot(r, chatbotID)
	if appErr != nil {
		apperrors.WriteError(w, requestID, appErr)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("file part is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("failed to read upload"))
		return
	}
	if len(data) > maxUploadBytes {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("file exceeds the 25MB limit"))
		return
	}

	dataType := r.FormValue("data_type")
	if dataType == "" {
		dataType = "document"
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("datasources/%s%s", uuid.New().String(), filepath.Ext(header.Filename))
	if err := h.storage.PutObject(ctx, key, data, contentType); err != nil {
		logger.Error(ctx, "Failed to store document", err, map[string]any{
			"component":  "datasources",
			"chatbot_id": bot.ID,
		})
		apperrors.WriteError(w, requestID, apperrors.StorageError("failed to store document"))
		return
	}

	ds := &db.DataSource{
		ChatbotID: bot.ID,
		DataType:  dataType,
		ObjectKey: key,
	}

	if err := h.datasources.Create(ctx, ds); err != nil {
		// The row failed, so the orphaned object is removed best-effort.
		if delErr := h.storage.DeleteObject(ctx, key); delErr != nil {
			logger.Warn(ctx, "Failed to clean up orphaned object", map[string]any{
				"component":  "datasources",
				"object_key": key,
			})
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to create data source"))
		return
	}

	h.metrics.IncCounter(metrics.CounterDocsUploaded)
	logger.Info(ctx, "Data source created", map[string]any{
		"component":     "datasources",
		"datasource_id": ds.ID,
		"chatbot_id":    bot.ID,
	})

	apperrors.WriteJSON(w, requestID, http.StatusCreated, NewDataSourceInfo(ds))
}

// Get returns a single active data source.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid data source ID"))
		return
	}

	ds, err := h.datasources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrDataSourceNotFound) {
			apperrors.WriteError(w, requestID, apperrors.DataSourceNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to load data source"))
		return
	}

	if _, appErr := h.ownedChatbot(r, ds.ChatbotID); appErr != nil {
		apperrors.WriteError(w, requestID, appErr)
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, NewDataSourceInfo(ds))
}

// DownloadURL returns a presigned, time-limited URL for the stored document.
func (h *Handlers) DownloadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid data source ID"))
		return
	}

	ds, err := h.datasources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrDataSourceNotFound) {
			apperrors.WriteError(w, requestID, apperrors.DataSourceNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to load data source"))
		return
	}

	if _, appErr := h.ownedChatbot(r, ds.ChatbotID); appErr != nil {
		apperrors.WriteError(w, requestID, appErr)
		return
	}

	url, err := h.presigner.DownloadURL(ctx, ds.ObjectKey)
	if err != nil {
		logger.Error(ctx, "Failed to presign download URL", err, map[string]any{
			"component":     "datasources",
			"datasource_id": ds.ID,
		})
		apperrors.WriteError(w, requestID, apperrors.StorageError("failed to generate download URL"))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, map[string]string{
		"url": url,
	})
}

// Delete soft deletes the data source and removes its stored document.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid data source ID"))
		return
	}

	ds, err := h.datasources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrDataSourceNotFound) {
			apperrors.WriteError(w, requestID, apperrors.DataSourceNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to load data source"))
		return
	}

	if _, appErr := h.ownedChatbot(r, ds.ChatbotID); appErr != nil {
		apperrors.WriteError(w, requestID, appErr)
		return
	}

	deleted, err := h.datasources.SoftDelete(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrDataSourceNotFound) {
			apperrors.WriteError(w, requestID, apperrors.DataSourceNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to delete data source"))
		return
	}

	// Best-effort removal. The soft-deleted row keeps the key so a failed
	// removal can be retried out of band.
	if err := h.storage.DeleteObject(ctx, deleted.ObjectKey); err != nil {
		logger.Warn(ctx, "Failed to remove stored document", map[string]any{
			"component":     "datasources",
			"datasource_id": deleted.ID,
			"object_key":    deleted.ObjectKey,
		})
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, NewDataSourceInfo(deleted))
}
