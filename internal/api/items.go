package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/poshledger/internal/blob"
	"github.com/erazemk/poshledger/internal/imaging"
	"github.com/erazemk/poshledger/internal/ledger"
	"github.com/erazemk/poshledger/internal/model"
	"github.com/erazemk/poshledger/internal/store"
)

// maxImageSize caps an image upload request.
const maxImageSize = 10 << 20

// ItemsHandler handles the ledger endpoints of the signed-in user.
type ItemsHandler struct {
	DB    *sql.DB
	Blobs *blob.Store
}

// rawField accepts a JSON string, number or null and keeps its text, so
// coercion happens in one place no matter how the client typed the value.
type rawField string

func (f *rawField) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = rawField(v)
	case json.Number:
		*f = rawField(v.String())
	default:
		return fmt.Errorf("expected string or number, got %s", data)
	}
	return nil
}

type itemRequest struct {
	ItemName      rawField `json:"item_name"`
	Quantity      rawField `json:"quantity"`
	OriginalPrice rawField `json:"original_price"`
	SoldPrice     rawField `json:"sold_price"`
	PurchaseDate  rawField `json:"purchase_date"`
	Store         rawField `json:"store"`
}

func (req itemRequest) input() ledger.Input {
	return ledger.Input{
		ItemName:      string(req.ItemName),
		Quantity:      string(req.Quantity),
		OriginalPrice: string(req.OriginalPrice),
		SoldPrice:     string(req.SoldPrice),
		PurchaseDate:  string(req.PurchaseDate),
		Store:         string(req.Store),
	}
}

// buildError writes the response for a failed ledger.Build.
func buildError(w http.ResponseWriter, err error) {
	var verrs ledger.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid item",
			"fields": verrs,
		})
	case errors.Is(err, ledger.ErrNotPermitted):
		jsonError(w, http.StatusUnauthorized, "not authenticated")
	default:
		jsonError(w, http.StatusBadRequest, err.Error())
	}
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()
	items, err := store.ListItems(r.Context(), h.DB, claims.UserID, store.ParseSort(q.Get("sort"), q.Get("dir")))
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	item, err := ledger.Build(claims.Identity(), req.input())
	if err != nil {
		buildError(w, err)
		return
	}

	item, err = store.CreateItem(r.Context(), h.DB, item)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "user", claims.Username, "item", item.Name, "id", item.ID)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, GetClaims(r.Context()).UserID, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Every editable field is replaced; the
// image is kept.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	current, err := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if current == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	item, err := ledger.Build(claims.Identity(), req.input())
	if err != nil {
		buildError(w, err)
		return
	}
	item.ID = id
	item.ImageURL = current.ImageURL

	if err := store.UpdateItem(r.Context(), h.DB, item); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		slog.Error("failed to update item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	slog.Info("item updated", "user", claims.Username, "item", updated.Name, "id", id)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, claims.UserID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	imaging.Discard(r.Context(), h.Blobs, store.ImageInUse(h.DB), item.ImageURL)

	slog.Info("item deleted", "user", claims.Username, "item", item.Name, "id", id)
	jsonMessage(w, "item deleted")
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	ref, err := imaging.Save(r.Context(), h.Blobs, header.Filename, file)
	if err != nil {
		slog.Warn("image upload rejected", "user", claims.Username, "error", err)
		jsonError(w, http.StatusBadRequest, "invalid image: "+err.Error())
		return
	}

	previous := item.ImageURL
	item.ImageURL = ref
	if err := store.UpdateItem(r.Context(), h.DB, item); err != nil {
		imaging.Discard(r.Context(), h.Blobs, store.ImageInUse(h.DB), ref)
		slog.Error("failed to save image reference", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}
	imaging.Discard(r.Context(), h.Blobs, store.ImageInUse(h.DB), previous)

	updated, err := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	slog.Info("item image uploaded", "user", claims.Username, "item", updated.Name, "ref", ref)
	jsonResponse(w, http.StatusOK, updated)
}

// Summary handles GET /api/summary.
func (h *ItemsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB, GetClaims(r.Context()).UserID, store.DefaultSort)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	jsonResponse(w, http.StatusOK, ledger.Summarize(items))
}
