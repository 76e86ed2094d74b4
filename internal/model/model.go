package model

import (
	"strings"
	"time"
)

const (
	RoleAdmin  = "Admin"
	RoleMember = "Member"
)

type Member struct {
	ID                   int        `json:"id" db:"id"`
	MemberID             string     `json:"memberId" db:"member_id"`
	Role                 string     `json:"role" db:"role"`
	Name                 string     `json:"name" db:"name"`
	Email                string     `json:"email" db:"email"`
	PasswordHash         string     `json:"-" db:"password_hash"`
	IdentityNumber       string     `json:"identityNumber" db:"identity_number"`
	ProfileImage         string     `json:"profileImage" db:"profile_image"`
	Status               bool       `json:"status" db:"status"`
	OnLoan               bool       `json:"onLoan" db:"on_loan"`
	PasswordResetToken   *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpires *time.Time `json:"-" db:"password_reset_expires"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time  `json:"updatedAt" db:"updated_at"`
}

type Book struct {
	ID        int       `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	Publisher string    `json:"publisher" db:"publisher"`
	Year      string    `json:"year" db:"year"`
	ISBN      string    `json:"isbn" db:"isbn"`
	Category  string    `json:"category" db:"category"`
	Stock     int       `json:"stock" db:"stock"`
	Available int       `json:"available" db:"available"`
	Location  string    `json:"location" db:"location"`
	Image     string    `json:"image" db:"image"`
	Status    bool      `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type Loan struct {
	ID         int        `json:"id" db:"id"`
	LoanID     string     `json:"loanId" db:"loan_id"`
	MemberID   int        `json:"memberId" db:"member_id"`
	BorrowDate time.Time  `json:"borrowDate" db:"borrow_date"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate *time.Time `json:"returnDate" db:"return_date"`
	Status     bool       `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
	BookIDs    []int      `json:"bookIds" db:"-"`
}

type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "BORROWED"
	LoanStatusOverdue  LoanStatus = "OVERDUE"
	LoanStatusReturned LoanStatus = "RETURNED"
)

// DisplayStatus is derived at read time, never stored.
func (l Loan) DisplayStatus(now time.Time) LoanStatus {
	switch {
	case l.ReturnDate != nil:
		return LoanStatusReturned
	case now.After(l.DueDate):
		return LoanStatusOverdue
	default:
		return LoanStatusBorrowed
	}
}

// DiffIDs returns the ids present in next but not in prev. Loan edits
// use it twice, once per direction, against the loan's state prior to
// the update.
func DiffIDs(next, prev []int) []int {
	seen := make(map[int]struct{}, len(prev))
	for _, id := range prev {
		seen[id] = struct{}{}
	}
	var out []int
	for _, id := range next {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

type BookSummary struct {
	ID     int    `json:"id" db:"id"`
	Title  string `json:"title" db:"title"`
	Author string `json:"author" db:"author"`
}

type LoanView struct {
	Loan
	MemberCode    string        `json:"memberCode" db:"member_code"`
	MemberName    string        `json:"memberName" db:"member_name"`
	Books         []BookSummary `json:"books" db:"-"`
	DisplayStatus LoanStatus    `json:"displayStatus" db:"-"`
}

// Date accepts both "2006-01-02" and RFC 3339 payloads and marshals
// back as a bare date, matching what the admin screens send.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return err
		}
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

type AuthRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is what the auth service hands back, the refresh token
// travels only in the HttpOnly cookie.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

type AuthResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CreateLoanRequest struct {
	MemberID   int   `json:"memberId" validate:"required"`
	BookIDs    []int `json:"bookIds" validate:"required,min=1,unique,dive,required"`
	BorrowDate Date  `json:"borrowDate" validate:"required"`
	DueDate    Date  `json:"dueDate" validate:"required"`
}

type UpdateLoanRequest struct {
	MemberID   int   `json:"memberId" validate:"required"`
	BookIDs    []int `json:"bookIds" validate:"required,min=1,unique,dive,required"`
	BorrowDate Date  `json:"borrowDate" validate:"required"`
	DueDate    Date  `json:"dueDate" validate:"required"`
}

type CreateBookRequest struct {
	Title     string `validate:"required"`
	Author    string
	Publisher string
	Year      string
	ISBN      string
	Category  string
	Stock     int `validate:"gte=0"`
	Available *int
	Location  string
	Image     string
}

type UpdateBookRequest struct {
	Title     *string
	Author    *string
	Publisher *string
	Year      *string
	ISBN      *string
	Category  *string
	Stock     *int
	Available *int
	Location  *string
	Image     *string
	Status    *bool
}

type CreateMemberRequest struct {
	Role           string `validate:"required,oneof=Admin Member"`
	Name           string `validate:"required"`
	Email          string `validate:"required,email"`
	IdentityNumber string `validate:"required"`
	ProfileImage   string
}

type UpdateMemberRequest struct {
	Role           *string `validate:"omitempty,oneof=Admin Member"`
	Name           *string
	Email          *string `validate:"omitempty,email"`
	IdentityNumber *string
	ProfileImage   *string
	Password       *string
	Status         *bool
}

type LoanEvent struct {
	Event    string    `json:"event"`
	LoanID   string    `json:"loanId"`
	MemberID int       `json:"memberId"`
	BookIDs  []int     `json:"bookIds"`
	At       time.Time `json:"at"`
}

const (
	LoanEventCreated  = "loan.created"
	LoanEventReturned = "loan.returned"
)
