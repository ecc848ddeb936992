package service

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prasannakumar32/smart-bookmark/internal/auth/context"
	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/logging"
	"github.com/prasannakumar32/smart-bookmark/internal/models"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

type Api struct {
	BookmarkModel *models.BookmarkModel
}

type ErrorResponse struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

// IndexAPI returns every bookmark owned by the caller, newest first.
//
// @Produce json
// @Success 200 {object} struct{Bookmarks []types.Bookmark}
// @Router /api/v1/bookmarks [get]
func (a *Api) IndexAPI(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	logger := context.Logger(r.Context())
	bookmarks, err := a.BookmarkModel.GetByUserId(r.Context(), user.ID)
	if err != nil {
		logger.Errorw("fetching bookmarks", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "api: Something went wrong",
		})
		return
	}

	var data struct {
		Bookmarks []types.Bookmark `json:"bookmarks"`
	}
	data.Bookmarks = make([]types.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		data.Bookmarks = append(data.Bookmarks, b.Wire())
	}
	writeResponse(w, r, data)
}

// CreateAPI inserts a bookmark and echoes it back with the server-assigned
// id and creation timestamp.
//
// @Accept json
// @Produce json
// @Success 200 {object} types.Bookmark
// @Failure 400 {object} ErrorResponse "Invalid URL or request body"
// @Router /api/v1/bookmarks [post]
func (a *Api) CreateAPI(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	logger := context.Logger(r.Context())

	var req types.CreateBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	bookmark, err := a.BookmarkModel.Create(r.Context(), user.ID, req.Title, req.Url)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidUrl) {
			writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
				Code:    "INVALID_URL",
				Message: fmt.Sprintf("Invalid URL: %v", req.Url),
			})
			return
		}
		logger.Errorw("create bookmark", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, ErrorResponse{
			Code:    "CREATE_BOOKMARK",
			Message: "Failed to create bookmark",
		})
		return
	}
	writeResponse(w, r, bookmark.Wire())
}

func (a *Api) GetAPI(w http.ResponseWriter, r *http.Request) {
	bookmark := a.getBookmark(w, r)
	if bookmark == nil {
		return
	}
	writeResponse(w, r, bookmark.Wire())
}

// UpdateAPI replaces the title and URL of a bookmark the caller owns.
func (a *Api) UpdateAPI(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	logger := context.Logger(r.Context())
	id := types.BookmarkId(chi.URLParam(r, "id"))

	var req types.UpdateBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	bookmark, err := a.BookmarkModel.Update(r.Context(), user.ID, id, req.Title, req.Url)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, ErrorResponse{
				Code:    "NOT_FOUND",
				Message: "Bookmark not found",
			})
			return
		}
		if errors.Is(err, errors.ErrInvalidUrl) {
			writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
				Code:    "INVALID_URL",
				Message: fmt.Sprintf("Invalid URL: %v", req.Url),
			})
			return
		}
		logger.Errorw("update bookmark", "error", err, "id", id)
		writeErrorResponse(w, http.StatusInternalServerError, ErrorResponse{
			Code:    "UPDATE_BOOKMARK",
			Message: "Failed to update bookmark",
		})
		return
	}
	writeResponse(w, r, bookmark.Wire())
}

// DeleteAPI removes a bookmark. Deleting an id that no longer exists still
// returns 204; clients retry deletes and the second attempt must not fail.
func (a *Api) DeleteAPI(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	logger := context.Logger(r.Context())
	id := types.BookmarkId(chi.URLParam(r, "id"))

	err := a.BookmarkModel.Delete(r.Context(), user.ID, id)
	if err != nil {
		logger.Errorw("delete bookmark", "error", err, "id", id)
		writeErrorResponse(w, http.StatusInternalServerError, ErrorResponse{
			Code:    "DELETE_BOOKMARK",
			Message: "Failed to delete bookmark",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) getBookmark(w http.ResponseWriter, r *http.Request) *models.Bookmark {
	user := context.User(r.Context())
	logger := context.Logger(r.Context())
	id := chi.URLParam(r, "id")
	bookmark, err := a.BookmarkModel.GetById(r.Context(), user.ID, types.BookmarkId(id))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, ErrorResponse{
				Code:    "NOT_FOUND",
				Message: "Bookmark not found",
			})
			return nil
		}
		logger.Errorw("get bookmark", "error", err, "id", id)
		writeErrorResponse(w, http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "api: Something went wrong",
		})
		return nil
	}
	return bookmark
}

func writeResponse(w http.ResponseWriter, r *http.Request, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		context.Logger(r.Context()).Errorw("encoding response", "error", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, errResp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		logging.Logger.Errorw("encoding error response", "error", err)
	}
}
