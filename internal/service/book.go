package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

type BookStore interface {
	CreateBook(ctx context.Context, b model.Book) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int) (model.Book, error)
	UpdateBook(ctx context.Context, b model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id int) error
}

type BookService struct {
	repo BookStore
	log  *zap.Logger
}

func NewBookService(repo BookStore, log *zap.Logger) *BookService {
	return &BookService{
		repo: repo,
		log:  log.Named("books"),
	}
}

func (s *BookService) Create(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	available := req.Stock
	if req.Available != nil {
		available = *req.Available
	}
	if available < 0 || available > req.Stock {
		return model.Book{}, errs.ErrAvailableRange
	}

	return s.repo.CreateBook(ctx, model.Book{
		Title:     req.Title,
		Author:    orDash(req.Author),
		Publisher: orDash(req.Publisher),
		Year:      orDash(req.Year),
		ISBN:      orDash(req.ISBN),
		Category:  orDash(req.Category),
		Stock:     req.Stock,
		Available: available,
		Location:  orDash(req.Location),
		Image:     orDash(req.Image),
	})
}

func (s *BookService) List(ctx context.Context) ([]model.Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *BookService) Get(ctx context.Context, id int) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *BookService) Update(ctx context.Context, id int, req model.UpdateBookRequest) (model.Book, error) {
	b, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}

	setString(&b.Title, req.Title)
	setString(&b.Author, req.Author)
	setString(&b.Publisher, req.Publisher)
	setString(&b.Year, req.Year)
	setString(&b.ISBN, req.ISBN)
	setString(&b.Category, req.Category)
	setString(&b.Location, req.Location)
	setString(&b.Image, req.Image)
	if req.Stock != nil {
		b.Stock = *req.Stock
	}
	if req.Available != nil {
		b.Available = *req.Available
	}
	if req.Status != nil {
		b.Status = *req.Status
	}

	if b.Available < 0 || b.Available > b.Stock {
		return model.Book{}, errs.ErrAvailableRange
	}

	return s.repo.UpdateBook(ctx, b)
}

func (s *BookService) Delete(ctx context.Context, id int) error {
	return s.repo.DeleteBook(ctx, id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
