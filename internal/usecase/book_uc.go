package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"coupon-lifecycle-engine/internal/domain"
	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
)

// GenerateSpec asks for pattern-generated codes at book creation.
type GenerateSpec struct {
	Pattern      string
	Count        int
	RandomLength int
}

// CreateBookParams carries everything a business supplies when opening a book.
// Initial codes (explicit or generated) are optional; supplying them activates
// the book immediately.
type CreateBookParams struct {
	Name                     string
	Description              string
	MaxCodesPerUser          *int
	AllowMultipleRedemptions bool
	ExpiresAt                *time.Time
	InitialCodes             []string
	Generate                 *GenerateSpec
}

// BookUseCase implements book lifecycle and code population operations.
type BookUseCase struct {
	books repository.CouponBookRepository
	codes repository.CouponCodeRepository
	txm   repository.TransactionManager
}

func NewBookUseCase(books repository.CouponBookRepository, codes repository.CouponCodeRepository, txm repository.TransactionManager) *BookUseCase {
	return &BookUseCase{books: books, codes: codes, txm: txm}
}

// Create opens a new book in DRAFT. When initial codes are supplied the codes
// persist in the same transaction and the book goes ACTIVE with TotalCodes
// set; book row and code rows commit together or not at all.
func (uc *BookUseCase) Create(ctx context.Context, businessID string, p CreateBookParams) (*model.CouponBook, error) {
	if p.Name == "" || businessID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if p.MaxCodesPerUser != nil && *p.MaxCodesPerUser <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	now := time.Now()
	book := &model.CouponBook{
		Meta:                     model.Meta{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		Name:                     p.Name,
		Description:              p.Description,
		BusinessID:               businessID,
		MaxCodesPerUser:          p.MaxCodesPerUser,
		AllowMultipleRedemptions: p.AllowMultipleRedemptions,
		Status:                   model.BookStatusDraft,
		ExpiresAt:                p.ExpiresAt,
	}

	initial := p.InitialCodes
	if p.Generate != nil {
		generated, err := GenerateCodes(p.Generate.Pattern, p.Generate.Count, initial, p.Generate.RandomLength)
		if err != nil {
			return nil, err
		}
		initial = append(initial, generated...)
	}

	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.books.Save(ctx, tx, book); err != nil {
			return err
		}
		if len(initial) == 0 {
			return nil
		}
		if _, err := uc.insertCodes(ctx, tx, book.ID, initial); err != nil {
			return err
		}
		book.TotalCodes = len(initial)
		book.Status = model.BookStatusActive
		book.UpdatedAt = time.Now()
		return uc.books.Save(ctx, tx, book)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Get returns the book or a NotFound error.
func (uc *BookUseCase) Get(ctx context.Context, bookID string) (*model.CouponBook, error) {
	return uc.books.FindByID(ctx, nil, bookID)
}

// SetStatus flips the book lifecycle status. EXPIRED is terminal.
func (uc *BookUseCase) SetStatus(ctx context.Context, bookID, status string) (*model.CouponBook, error) {
	if !model.ValidBookStatus(status) {
		return nil, domain.ErrInvalidArgument
	}
	var book *model.CouponBook
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		b, err := uc.books.FindByID(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if b.Status == model.BookStatusExpired && status != model.BookStatusExpired {
			return domain.InvalidState("expired book cannot change status", bookID)
		}
		b.Status = status
		b.UpdatedAt = time.Now()
		if err := uc.books.Save(ctx, tx, b); err != nil {
			return err
		}
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// UploadCodes adds caller-supplied code strings to an existing book. Every
// code must be new to the whole system; any collision rejects the batch.
func (uc *BookUseCase) UploadCodes(ctx context.Context, bookID string, codes []string) ([]*model.CouponCode, error) {
	if len(codes) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c == "" {
			return nil, domain.ErrInvalidArgument
		}
		if _, dup := seen[c]; dup {
			return nil, domain.Conflict("duplicate code in upload", c, "")
		}
		seen[c] = struct{}{}
	}

	var out []*model.CouponCode
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		book, err := uc.books.FindByID(ctx, tx, bookID)
		if err != nil {
			return err
		}
		rows, err := uc.insertCodes(ctx, tx, book.ID, codes)
		if err != nil {
			return err
		}
		if err := uc.books.IncrementTotalCodes(ctx, tx, book.ID, len(codes)); err != nil {
			return err
		}
		out = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateCodes populates the book from a pattern. The generator already
// avoids the book's own codes; the global uniqueness check runs against the
// whole codes table before insert.
func (uc *BookUseCase) GenerateCodes(ctx context.Context, bookID, pattern string, count, randomLen int) ([]*model.CouponCode, error) {
	var out []*model.CouponCode
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		book, err := uc.books.FindByID(ctx, tx, bookID)
		if err != nil {
			return err
		}
		existing, err := uc.codes.CodeStringsByBook(ctx, tx, book.ID)
		if err != nil {
			return err
		}
		generated, err := GenerateCodes(pattern, count, existing, randomLen)
		if err != nil {
			return err
		}
		rows, err := uc.insertCodes(ctx, tx, book.ID, generated)
		if err != nil {
			return err
		}
		if err := uc.books.IncrementTotalCodes(ctx, tx, book.ID, len(generated)); err != nil {
			return err
		}
		out = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *BookUseCase) insertCodes(ctx context.Context, tx repository.Tx, bookID string, codes []string) ([]*model.CouponCode, error) {
	clash, err := uc.codes.ExistingCodes(ctx, tx, codes)
	if err != nil {
		return nil, err
	}
	if len(clash) > 0 {
		return nil, domain.Conflict(
			fmt.Sprintf("codes already exist: %s", strings.Join(clash, ", ")),
			clash[0], "",
		)
	}

	now := time.Now()
	rows := make([]*model.CouponCode, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, &model.CouponCode{
			Meta:   model.Meta{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
			Code:   c,
			BookID: bookID,
			Status: model.CodeStatusAvailable,
		})
	}
	if err := uc.codes.BulkInsert(ctx, tx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}
