package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/handler"
	"github.com/ryanadiyantara/librasys/internal/model"
	"github.com/ryanadiyantara/librasys/pkg/validate"

	service_mocks "github.com/ryanadiyantara/librasys/internal/handler/mocks"
)

func newBookEcho(t *testing.T) (*echo.Echo, *service_mocks.MockBookService) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	svc := service_mocks.NewMockBookService(c)
	log := zap.NewExample().Named("test")
	h := handler.New(nil, svc, nil, nil, nil, nil, log)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/api/books", h.ListBooks)
	e.GET("/api/books/:id", h.GetBook)
	e.POST("/api/books", h.CreateBook)
	e.DELETE("/api/books/:id", h.DeleteBook)
	return e, svc
}

func TestHandler_CreateBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		form         url.Values
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			form: url.Values{
				"title":  {"The Go Programming Language"},
				"author": {"Donovan"},
				"stock":  {"3"},
			},
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					Create(context.Background(), model.CreateBookRequest{
						Title:  "The Go Programming Language",
						Author: "Donovan",
						Stock:  3,
					}).
					Return(model.Book{
						ID:        1,
						Title:     "The Go Programming Language",
						Author:    "Donovan",
						Publisher: "-",
						Year:      "-",
						ISBN:      "-",
						Category:  "-",
						Stock:     3,
						Available: 3,
						Location:  "-",
						Image:     "-",
						Status:    true,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"success":true,"data":{"id":1,"title":"The Go Programming Language","author":"Donovan","publisher":"-","year":"-","isbn":"-","category":"-","stock":3,"available":3,"location":"-","image":"-","status":true,"createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}}`,
			},
		},
		{
			name: "err. missing stock",
			form: url.Values{
				"title": {"The Go Programming Language"},
			},
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"success":false,"message":"Please provide all fields"}`,
			},
		},
		{
			name: "err. available above stock",
			form: url.Values{
				"title":     {"The Go Programming Language"},
				"stock":     {"3"},
				"available": {"5"},
			},
			mockBehavior: func(r *service_mocks.MockBookService) {
				avail := 5
				r.EXPECT().
					Create(context.Background(), model.CreateBookRequest{
						Title:     "The Go Programming Language",
						Stock:     3,
						Available: &avail,
					}).
					Return(model.Book{}, errs.ErrAvailableRange)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"success":false,"message":"available must be between 0 and stock"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newBookEcho(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(tt.form.Encode()))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		id           string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			id:   "1",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					Get(context.Background(), 1).
					Return(model.Book{ID: 1, Title: "Clean Code", Author: "Martin", Stock: 2, Available: 2, Status: true}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"success":true,"data":{"id":1,"title":"Clean Code","author":"Martin","publisher":"","year":"","isbn":"","category":"","stock":2,"available":2,"location":"","image":"","status":true,"createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}}`,
			},
		},
		{
			name:         "err. invalid id",
			id:           "x",
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"success":false,"message":"Invalid Book Id"}`,
			},
		},
		{
			name: "err. not found",
			id:   "99",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					Get(context.Background(), 99).
					Return(model.Book{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"success":false,"message":"Book not found"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newBookEcho(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodGet, "/api/books/"+tt.id, http.NoBody)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_DeleteBook_OnLoan(t *testing.T) {
	t.Parallel()
	e, svc := newBookEcho(t)
	svc.EXPECT().Get(context.Background(), 5).Return(model.Book{ID: 5, Title: "Clean Code"}, nil)
	svc.EXPECT().Delete(context.Background(), 5).Return(errs.ErrBookOnLoan)

	r := httptest.NewRequest(http.MethodDelete, "/api/books/5", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, `{"success":false,"message":"Book is on an open loan"}`, strings.Trim(w.Body.String(), "\n"))
}
