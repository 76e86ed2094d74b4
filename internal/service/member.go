package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ryanadiyantara/librasys/internal/model"
)

type MemberStore interface {
	NextSeq(ctx context.Context, name string) (int64, error)
	CreateMember(ctx context.Context, m model.Member) (model.Member, error)
	ListMembers(ctx context.Context) ([]model.Member, error)
	GetMember(ctx context.Context, id int) (model.Member, error)
	UpdateMember(ctx context.Context, m model.Member) (model.Member, error)
	DeactivateMember(ctx context.Context, id int) error
}

type MemberService struct {
	repo MemberStore
	cfg  Config
	log  *zap.Logger
}

func NewMemberService(repo MemberStore, cfg Config, log *zap.Logger) *MemberService {
	return &MemberService{
		repo: repo,
		cfg:  cfg,
		log:  log.Named("members"),
	}
}

// Create registers a member with the configured default password, the
// member is expected to change it after first login.
func (s *MemberService) Create(ctx context.Context, req model.CreateMemberRequest) (model.Member, error) {
	seq, err := s.repo.NextSeq(ctx, memberSeqName)
	if err != nil {
		return model.Member{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return model.Member{}, errors.Wrap(err, "hash password")
	}

	return s.repo.CreateMember(ctx, model.Member{
		MemberID:       formatSeq(memberIDPrefix, seq, memberIDWidth),
		Role:           req.Role,
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   string(hash),
		IdentityNumber: req.IdentityNumber,
		ProfileImage:   orDash(req.ProfileImage),
	})
}

func (s *MemberService) List(ctx context.Context) ([]model.Member, error) {
	return s.repo.ListMembers(ctx)
}

func (s *MemberService) Get(ctx context.Context, id int) (model.Member, error) {
	return s.repo.GetMember(ctx, id)
}

func (s *MemberService) Update(ctx context.Context, id int, req model.UpdateMemberRequest) (model.Member, error) {
	m, err := s.repo.GetMember(ctx, id)
	if err != nil {
		return model.Member{}, err
	}

	setString(&m.Role, req.Role)
	setString(&m.Name, req.Name)
	setString(&m.Email, req.Email)
	setString(&m.IdentityNumber, req.IdentityNumber)
	setString(&m.ProfileImage, req.ProfileImage)
	if req.Status != nil {
		m.Status = *req.Status
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return model.Member{}, errors.Wrap(err, "hash password")
		}
		m.PasswordHash = string(hash)
	}

	return s.repo.UpdateMember(ctx, m)
}

// Deactivate is the delete operation, members are soft-flagged so
// their loan history survives.
func (s *MemberService) Deactivate(ctx context.Context, id int) error {
	return s.repo.DeactivateMember(ctx, id)
}
