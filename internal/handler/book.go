package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

const bookImageDir = "bookImage"

func (h *Handler) ListBooks(c echo.Context) error {
	books, err := h.bookSvc.List(c.Request().Context())
	if err != nil {
		return h.serverError(c, "list books", err)
	}
	return ok(c, http.StatusOK, books)
}

func (h *Handler) GetBook(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Book Id")
	}

	book, err := h.bookSvc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Book not found")
		}
		return h.serverError(c, "get book", err)
	}
	return ok(c, http.StatusOK, book)
}

func (h *Handler) CreateBook(c echo.Context) error {
	title := c.FormValue("title")
	stockStr := c.FormValue("stock")
	if title == "" || stockStr == "" {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}
	stock, err := strconv.Atoi(stockStr)
	if err != nil {
		return fail(c, http.StatusBadRequest, "stock is invalid")
	}

	req := model.CreateBookRequest{
		Title:     title,
		Author:    c.FormValue("author"),
		Publisher: c.FormValue("publisher"),
		Year:      c.FormValue("year"),
		ISBN:      c.FormValue("isbn"),
		Category:  c.FormValue("category"),
		Stock:     stock,
		Location:  c.FormValue("location"),
	}
	if availStr := c.FormValue("available"); availStr != "" {
		avail, err := strconv.Atoi(availStr)
		if err != nil {
			return fail(c, http.StatusBadRequest, "available is invalid")
		}
		req.Available = &avail
	}

	image, err := h.saveUpload(c, bookImageDir)
	if err != nil {
		return h.serverError(c, "file upload", err)
	}
	req.Image = image

	book, err := h.bookSvc.Create(c.Request().Context(), req)
	if err != nil {
		h.removeUpload(image)
		if errors.Is(err, errs.ErrAvailableRange) {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "create book", err)
	}
	return ok(c, http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Book Id")
	}

	values, err := c.FormParams()
	if err != nil {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}
	formStr := func(key string) *string {
		if vs, okKey := values[key]; okKey && len(vs) > 0 {
			return &vs[0]
		}
		return nil
	}

	req := model.UpdateBookRequest{
		Title:     formStr("title"),
		Author:    formStr("author"),
		Publisher: formStr("publisher"),
		Year:      formStr("year"),
		ISBN:      formStr("isbn"),
		Category:  formStr("category"),
		Location:  formStr("location"),
	}
	if s := formStr("stock"); s != nil {
		stock, err := strconv.Atoi(*s)
		if err != nil {
			return fail(c, http.StatusBadRequest, "stock is invalid")
		}
		req.Stock = &stock
	}
	if s := formStr("available"); s != nil {
		avail, err := strconv.Atoi(*s)
		if err != nil {
			return fail(c, http.StatusBadRequest, "available is invalid")
		}
		req.Available = &avail
	}
	if s := formStr("status"); s != nil {
		status, err := strconv.ParseBool(*s)
		if err != nil {
			return fail(c, http.StatusBadRequest, "status is invalid")
		}
		req.Status = &status
	}

	image, err := h.saveUpload(c, bookImageDir)
	if err != nil {
		return h.serverError(c, "file upload", err)
	}
	if image != "" {
		req.Image = &image
	}

	old, err := h.bookSvc.Get(c.Request().Context(), id)
	if err != nil {
		h.removeUpload(image)
		if errors.Is(err, errs.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Book not found")
		}
		return h.serverError(c, "get book", err)
	}

	book, err := h.bookSvc.Update(c.Request().Context(), id, req)
	if err != nil {
		h.removeUpload(image)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return fail(c, http.StatusNotFound, "Book not found")
		case errors.Is(err, errs.ErrAvailableRange):
			return fail(c, http.StatusBadRequest, err.Error())
		}
		return h.serverError(c, "update book", err)
	}

	if image != "" {
		h.removeUpload(old.Image)
	}
	return ok(c, http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Book Id")
	}

	old, err := h.bookSvc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Book not found")
		}
		return h.serverError(c, "get book", err)
	}

	if err := h.bookSvc.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return fail(c, http.StatusNotFound, "Book not found")
		case errors.Is(err, errs.ErrBookOnLoan):
			return fail(c, http.StatusConflict, err.Error())
		}
		return h.serverError(c, "delete book", err)
	}

	h.removeUpload(old.Image)
	return okMsg(c, http.StatusOK, "Book deleted")
}

// saveUpload stores the optional "file" form part. An absent part is
// not an error.
func (h *Handler) saveUpload(c echo.Context, subdir string) (string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", err
	}
	return h.files.Save(subdir, fh)
}

// removeUpload cleans a stored file on a failure exit path or after
// replacement, best effort.
func (h *Handler) removeUpload(relPath string) {
	if relPath == "" {
		return
	}
	if err := h.files.Remove(relPath); err != nil {
		h.log.Warn("remove upload", zap.String("path", relPath), zap.Error(err))
	}
}
