package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

const profileImageDir = "profileImage"

func (h *Handler) ListMembers(c echo.Context) error {
	members, err := h.memberSvc.List(c.Request().Context())
	if err != nil {
		return h.serverError(c, "list members", err)
	}
	return ok(c, http.StatusOK, members)
}

func (h *Handler) GetMember(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Member Id")
	}

	member, err := h.memberSvc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Member not found")
		}
		return h.serverError(c, "get member", err)
	}
	return ok(c, http.StatusOK, member)
}

func (h *Handler) CreateMember(c echo.Context) error {
	req := model.CreateMemberRequest{
		Role:           c.FormValue("role"),
		Name:           c.FormValue("name"),
		Email:          c.FormValue("email"),
		IdentityNumber: c.FormValue("identityNumber"),
	}
	if req.Role == "" || req.Name == "" || req.Email == "" || req.IdentityNumber == "" {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}

	image, err := h.saveUpload(c, profileImageDir)
	if err != nil {
		return h.serverError(c, "file upload", err)
	}
	req.ProfileImage = image

	member, err := h.memberSvc.Create(c.Request().Context(), req)
	if err != nil {
		h.removeUpload(image)
		switch {
		case errors.Is(err, errs.ErrEmailTaken), errors.Is(err, errs.ErrIdentityTaken):
			return fail(c, http.StatusConflict, err.Error())
		}
		return h.serverError(c, "create member", err)
	}
	return ok(c, http.StatusCreated, member)
}

func (h *Handler) UpdateMember(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Member Id")
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

	req := model.UpdateMemberRequest{
		Role:           formStr("role"),
		Name:           formStr("name"),
		Email:          formStr("email"),
		IdentityNumber: formStr("identityNumber"),
		Password:       formStr("password"),
	}
	if s := formStr("status"); s != nil {
		status, err := strconv.ParseBool(*s)
		if err != nil {
			return fail(c, http.StatusBadRequest, "status is invalid")
		}
		req.Status = &status
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}

	image, err := h.saveUpload(c, profileImageDir)
	if err != nil {
		return h.serverError(c, "file upload", err)
	}
	if image != "" {
		req.ProfileImage = &image
	}

	old, err := h.memberSvc.Get(c.Request().Context(), id)
	if err != nil {
		h.removeUpload(image)
		if errors.Is(err, errs.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Member not found")
		}
		return h.serverError(c, "get member", err)
	}

	member, err := h.memberSvc.Update(c.Request().Context(), id, req)
	if err != nil {
		h.removeUpload(image)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return fail(c, http.StatusNotFound, "Member not found")
		case errors.Is(err, errs.ErrEmailTaken), errors.Is(err, errs.ErrIdentityTaken):
			return fail(c, http.StatusConflict, err.Error())
		}
		return h.serverError(c, "update member", err)
	}

	if image != "" {
		h.removeUpload(old.ProfileImage)
	}
	return ok(c, http.StatusOK, member)
}

// DeleteMember soft-deactivates, loan history is never orphaned.
func (h *Handler) DeleteMember(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Invalid Member Id")
	}

	if err := h.memberSvc.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Member not found")
		}
		return h.serverError(c, "delete member", err)
	}
	return okMsg(c, http.StatusOK, "Member deactivated")
}
