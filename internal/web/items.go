package web

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/erazemk/poshledger/internal/imaging"
	"github.com/erazemk/poshledger/internal/ledger"
	"github.com/erazemk/poshledger/internal/model"
	"github.com/erazemk/poshledger/internal/store"
)

// maxFormSize caps an item form submission including its image.
const maxFormSize = 10 << 20

// column is one sortable heading of the items table.
type column struct {
	Field string
	Label string
}

var itemColumns = []column{
	{"item_name", "Item"},
	{"quantity", "Qty"},
	{"original_price", "Cost"},
	{"sold_price", "Sold for"},
	{"poshmark_fee", "Fee"},
	{"profit", "Profit"},
	{"purchase_date", "Purchased"},
	{"store", "Store"},
	{"return_by", "Return by"},
}

// itemForm is the data behind the add and edit pages.
type itemForm struct {
	PageData
	Action string
	Item   *model.Item
	Input  ledger.Input
	Errors map[string]string
}

func formInput(r *http.Request) ledger.Input {
	return ledger.Input{
		ItemName:      r.FormValue("item_name"),
		Quantity:      r.FormValue("quantity"),
		OriginalPrice: r.FormValue("original_price"),
		SoldPrice:     r.FormValue("sold_price"),
		PurchaseDate:  r.FormValue("purchase_date"),
		Store:         r.FormValue("store"),
	}
}

// itemInput fills a form with the stored values of item.
func itemInput(item *model.Item) ledger.Input {
	in := ledger.Input{
		ItemName:     item.Name,
		Quantity:     strconv.Itoa(item.Quantity),
		PurchaseDate: item.PurchaseDate.String(),
		Store:        item.Store,
	}
	if !item.OriginalPrice.IsZero() {
		in.OriginalPrice = item.OriginalPrice.StringFixed(2)
	}
	if !item.SoldPrice.IsZero() {
		in.SoldPrice = item.SoldPrice.StringFixed(2)
	}
	return in
}

// parseItemForm parses a urlencoded or multipart item form and returns the
// uploaded image, if any. The caller closes the returned file.
func parseItemForm(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, err
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if header.Size == 0 {
		file.Close()
		return nil, nil, nil
	}
	return file, header, nil
}

func fieldErrors(err error) map[string]string {
	var verrs ledger.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": err.Error()}
	}
	m := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		m[fe.Field] = fe.Message
	}
	return m
}

// ItemsPage handles GET /items.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	q := r.URL.Query()
	sort := store.ParseSort(q.Get("sort"), q.Get("dir"))

	items, err := store.ListItems(r.Context(), s.DB, claims.UserID, sort)
	if err != nil {
		slog.Error("failed to list items", "error", err)
	}

	s.Templates.Render(w, "items.html", &struct {
		PageData
		Items   []model.Item
		Summary model.Summary
		Sort    store.Sort
		Columns []column
	}{
		PageData: s.page(r, "Inventory"),
		Items:    items,
		Summary:  ledger.Summarize(items),
		Sort:     sort,
		Columns:  itemColumns,
	})
}

// ItemNewPage handles GET /items/new.
func (s *Server) ItemNewPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "item_form.html", &itemForm{
		PageData: s.page(r, "Add item"),
		Action:   "/items",
		Input:    ledger.Input{Quantity: "1", PurchaseDate: model.Today().String()},
	})
}

// ItemCreateSubmit handles POST /items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	file, header, err := parseItemForm(w, r)
	if err != nil {
		http.Error(w, "file too large or invalid form", http.StatusBadRequest)
		return
	}
	if file != nil {
		defer file.Close()
	}

	form := &itemForm{
		PageData: s.page(r, "Add item"),
		Action:   "/items",
		Input:    formInput(r),
	}

	item, err := ledger.Build(claims.Identity(), form.Input)
	if err != nil {
		form.Errors = fieldErrors(err)
		s.Templates.RenderStatus(w, http.StatusBadRequest, "item_form.html", form)
		return
	}

	if file != nil {
		ref, err := imaging.Save(r.Context(), s.Blobs, header.Filename, file)
		if err != nil {
			slog.Warn("image upload rejected", "user", claims.Username, "error", err)
			form.Errors = map[string]string{"image": err.Error()}
			s.Templates.RenderStatus(w, http.StatusBadRequest, "item_form.html", form)
			return
		}
		item.ImageURL = ref
	}

	created, err := store.CreateItem(r.Context(), s.DB, item)
	if err != nil {
		imaging.Discard(r.Context(), s.Blobs, store.ImageInUse(s.DB), item.ImageURL)
		slog.Error("failed to create item", "error", err)
		http.Error(w, "failed to save item", http.StatusInternalServerError)
		return
	}

	slog.Info("item created", "user", claims.Username, "item", created.Name, "id", created.ID)
	http.Redirect(w, r, "/items", http.StatusSeeOther)
}

// loadItem fetches the item named by the {id} path value, writing the
// error response itself when there is none.
func (s *Server) loadItem(w http.ResponseWriter, r *http.Request) *model.Item {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil
	}

	item, err := store.GetItem(r.Context(), s.DB, GetWebClaims(r.Context()).UserID, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return nil
	}
	return item
}

// ItemEditPage handles GET /items/{id}/edit.
func (s *Server) ItemEditPage(w http.ResponseWriter, r *http.Request) {
	item := s.loadItem(w, r)
	if item == nil {
		return
	}

	s.Templates.Render(w, "item_form.html", &itemForm{
		PageData: s.page(r, "Edit "+item.Name),
		Action:   fmt.Sprintf("/items/%d", item.ID),
		Item:     item,
		Input:    itemInput(item),
	})
}

// ItemUpdateSubmit handles POST /items/{id}. The stored image is kept unless
// a new one is uploaded.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	file, header, err := parseItemForm(w, r)
	if err != nil {
		http.Error(w, "file too large or invalid form", http.StatusBadRequest)
		return
	}
	if file != nil {
		defer file.Close()
	}

	current := s.loadItem(w, r)
	if current == nil {
		return
	}

	form := &itemForm{
		PageData: s.page(r, "Edit "+current.Name),
		Action:   fmt.Sprintf("/items/%d", current.ID),
		Item:     current,
		Input:    formInput(r),
	}

	item, err := ledger.Build(claims.Identity(), form.Input)
	if err != nil {
		form.Errors = fieldErrors(err)
		s.Templates.RenderStatus(w, http.StatusBadRequest, "item_form.html", form)
		return
	}
	item.ID = current.ID
	item.ImageURL = current.ImageURL

	if file != nil {
		ref, err := imaging.Save(r.Context(), s.Blobs, header.Filename, file)
		if err != nil {
			slog.Warn("image upload rejected", "user", claims.Username, "error", err)
			form.Errors = map[string]string{"image": err.Error()}
			s.Templates.RenderStatus(w, http.StatusBadRequest, "item_form.html", form)
			return
		}
		item.ImageURL = ref
	}

	if err := store.UpdateItem(r.Context(), s.DB, item); err != nil {
		if item.ImageURL != current.ImageURL {
			imaging.Discard(r.Context(), s.Blobs, store.ImageInUse(s.DB), item.ImageURL)
		}
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to update item", "error", err)
		http.Error(w, "failed to update", http.StatusInternalServerError)
		return
	}
	if item.ImageURL != current.ImageURL {
		imaging.Discard(r.Context(), s.Blobs, store.ImageInUse(s.DB), current.ImageURL)
	}

	slog.Info("item updated", "user", claims.Username, "item", item.Name, "id", item.ID)
	http.Redirect(w, r, "/items", http.StatusSeeOther)
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	item := s.loadItem(w, r)
	if item == nil {
		return
	}

	if err := store.DeleteItem(r.Context(), s.DB, claims.UserID, item.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("failed to delete item", "error", err)
		http.Error(w, "failed to delete", http.StatusInternalServerError)
		return
	}
	imaging.Discard(r.Context(), s.Blobs, store.ImageInUse(s.DB), item.ImageURL)

	slog.Info("item deleted", "user", claims.Username, "item", item.Name, "id", item.ID)
	http.Redirect(w, r, "/items", http.StatusSeeOther)
}
