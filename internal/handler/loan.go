package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

func (h *Handler) ListLoans(c echo.Context) error {
	loans, err := h.loanSvc.List(c.Request().Context())
	if err != nil {
		return h.serverError(c, "list loans", err)
	}
	return ok(c, http.StatusOK, loans)
}

func (h *Handler) GetLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Loan Id")
	}

	loan, err := h.loanSvc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Loan not found")
		}
		return h.serverError(c, "get loan", err)
	}
	return ok(c, http.StatusOK, loan)
}

func (h *Handler) CreateLoan(c echo.Context) error {
	var req model.CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}

	loan, err := h.loanSvc.Create(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Member or book not found")
		}
		return h.loanError(c, "create loan", err)
	}
	return ok(c, http.StatusCreated, loan)
}

func (h *Handler) UpdateLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Loan Id")
	}

	var req model.UpdateLoanRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}

	loan, err := h.loanSvc.Update(c.Request().Context(), id, req)
	if err != nil {
		return h.loanError(c, "update loan", err)
	}
	return ok(c, http.StatusOK, loan)
}

func (h *Handler) ReturnLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Loan Id")
	}

	loan, err := h.loanSvc.Return(c.Request().Context(), id)
	if err != nil {
		return h.loanError(c, "return loan", err)
	}
	return ok(c, http.StatusOK, loan)
}

func (h *Handler) DeleteLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Loan Id")
	}

	if err := h.loanSvc.Delete(c.Request().Context(), id); err != nil {
		return h.loanError(c, "delete loan", err)
	}
	return okMsg(c, http.StatusOK, "Loan deleted")
}

func (h *Handler) loanError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return fail(c, http.StatusNotFound, "Loan not found")
	case errors.Is(err, errs.ErrOutOfStock):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrDueBeforeBorrow):
		return fail(c, http.StatusBadRequest, err.Error())
	}
	return h.serverError(c, op, err)
}
