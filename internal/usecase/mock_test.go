package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"coupon-lifecycle-engine/internal/domain"
	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
)

// -----------------------------
// In-memory store shared by the fakes
// -----------------------------

// memStore mimics the transactional store: WithTx serializes callers the way
// row locks do, and state is snapshotted so a failed callback rolls back
// without partial writes.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*model.User
	books       map[string]*model.CouponBook
	codesByStr  map[string]*model.CouponCode
	assignments []*model.Assignment
	redemptions []*model.Redemption
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*model.User{},
		books:      map[string]*model.CouponBook{},
		codesByStr: map[string]*model.CouponCode{},
	}
}

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	for k, v := range s.users {
		u := *v
		cp.users[k] = &u
	}
	for k, v := range s.books {
		b := *v
		cp.books[k] = &b
	}
	for k, v := range s.codesByStr {
		c := *v
		cp.codesByStr[k] = &c
	}
	cp.assignments = append([]*model.Assignment(nil), s.assignments...)
	cp.redemptions = append([]*model.Redemption(nil), s.redemptions...)
	return cp
}

func (s *memStore) restore(from *memStore) {
	s.users = from.users
	s.books = from.books
	s.codesByStr = from.codesByStr
	s.assignments = from.assignments
	s.redemptions = from.redemptions
}

func (s *memStore) codeByID(id string) *model.CouponCode {
	for _, c := range s.codesByStr {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// addUser/addBook/addCode seed state outside any transaction.
func (s *memStore) addUser(id string) {
	s.users[id] = &model.User{Meta: model.Meta{ID: id, CreatedAt: time.Now()}}
}

func (s *memStore) addBook(b *model.CouponBook) { s.books[b.ID] = b }

func (s *memStore) addCode(c *model.CouponCode) { s.codesByStr[c.Code] = c }

// -----------------------------
// TransactionManager fake
// -----------------------------

type memTxManager struct{ store *memStore }

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	snap := m.store.snapshot()
	if err := fn(ctx, m.store); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// lockIfDirect guards non-transactional calls; inside WithTx the store mutex
// is already held and tx carries the store itself.
func (s *memStore) lockIfDirect(tx repository.Tx) func() {
	if tx != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// -----------------------------
// Repository fakes
// -----------------------------

type memUserRepo struct{ store *memStore }

func (r *memUserRepo) Exists(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	defer r.store.lockIfDirect(tx)()
	_, ok := r.store.users[id]
	return ok, nil
}

func (r *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	defer r.store.lockIfDirect(tx)()
	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.NotFound("user not found", id)
	}
	cp := *u
	return &cp, nil
}

type memBookRepo struct{ store *memStore }

func (r *memBookRepo) Save(ctx context.Context, tx repository.Tx, book *model.CouponBook) error {
	defer r.store.lockIfDirect(tx)()
	cp := *book
	r.store.books[book.ID] = &cp
	return nil
}

func (r *memBookRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CouponBook, error) {
	defer r.store.lockIfDirect(tx)()
	b, ok := r.store.books[id]
	if !ok {
		return nil, domain.NotFound("coupon book not found", id)
	}
	cp := *b
	return &cp, nil
}

func (r *memBookRepo) IncrementTotalCodes(ctx context.Context, tx repository.Tx, id string, n int) error {
	defer r.store.lockIfDirect(tx)()
	b, ok := r.store.books[id]
	if !ok {
		return domain.NotFound("coupon book not found", id)
	}
	b.TotalCodes += n
	return nil
}

type memCodeRepo struct{ store *memStore }

func (r *memCodeRepo) BulkInsert(ctx context.Context, tx repository.Tx, codes []*model.CouponCode) error {
	defer r.store.lockIfDirect(tx)()
	for _, c := range codes {
		if _, dup := r.store.codesByStr[c.Code]; dup {
			return domain.Conflict("code already exists", c.Code, "")
		}
	}
	for _, c := range codes {
		cp := *c
		r.store.codesByStr[c.Code] = &cp
	}
	return nil
}

func (r *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.CouponCode, error) {
	defer r.store.lockIfDirect(tx)()
	c, ok := r.store.codesByStr[code]
	if !ok {
		return nil, domain.NotFound("coupon not found", code)
	}
	cp := *c
	return &cp, nil
}

func (r *memCodeRepo) ClaimAvailable(ctx context.Context, tx repository.Tx, bookID string) (*model.CouponCode, error) {
	defer r.store.lockIfDirect(tx)()
	// Deterministic order keeps tests stable.
	keys := make([]string, 0, len(r.store.codesByStr))
	for k := range r.store.codesByStr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c := r.store.codesByStr[k]
		if c.BookID == bookID && c.Status == model.CodeStatusAvailable {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.NotFound("no available code", bookID)
}

func (r *memCodeRepo) Update(ctx context.Context, tx repository.Tx, code *model.CouponCode) error {
	defer r.store.lockIfDirect(tx)()
	if _, ok := r.store.codesByStr[code.Code]; !ok {
		return domain.NotFound("coupon not found", code.Code)
	}
	cp := *code
	r.store.codesByStr[code.Code] = &cp
	return nil
}

func (r *memCodeRepo) ExistingCodes(ctx context.Context, tx repository.Tx, codes []string) ([]string, error) {
	defer r.store.lockIfDirect(tx)()
	var clash []string
	for _, c := range codes {
		if _, ok := r.store.codesByStr[c]; ok {
			clash = append(clash, c)
		}
	}
	return clash, nil
}

func (r *memCodeRepo) CodeStringsByBook(ctx context.Context, tx repository.Tx, bookID string) ([]string, error) {
	defer r.store.lockIfDirect(tx)()
	var out []string
	for _, c := range r.store.codesByStr {
		if c.BookID == bookID {
			out = append(out, c.Code)
		}
	}
	return out, nil
}

func (r *memCodeRepo) ReclaimExpiredLocks(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	defer r.store.lockIfDirect(tx)()
	n := 0
	for _, c := range r.store.codesByStr {
		if c.Status == model.CodeStatusLocked && c.LockExpiresAt != nil && c.LockExpiresAt.Before(now) {
			c.Status = model.CodeStatusAssigned
			c.LockOwnerUserID = nil
			c.LockExpiresAt = nil
			n++
		}
	}
	return n, nil
}

type memAssignmentRepo struct{ store *memStore }

func (r *memAssignmentRepo) Insert(ctx context.Context, tx repository.Tx, a *model.Assignment) error {
	defer r.store.lockIfDirect(tx)()
	for _, ex := range r.store.assignments {
		if ex.UserID == a.UserID && ex.CodeID == a.CodeID {
			return domain.Conflict("assignment already exists", a.CodeID, a.UserID)
		}
	}
	cp := *a
	r.store.assignments = append(r.store.assignments, &cp)
	return nil
}

func (r *memAssignmentRepo) CountByUserAndBook(ctx context.Context, tx repository.Tx, userID, bookID string) (int, error) {
	defer r.store.lockIfDirect(tx)()
	n := 0
	for _, a := range r.store.assignments {
		c := r.store.codeByID(a.CodeID)
		if a.UserID == userID && c != nil && c.BookID == bookID {
			n++
		}
	}
	return n, nil
}

func (r *memAssignmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Assignment, error) {
	defer r.store.lockIfDirect(tx)()
	var out []*model.Assignment
	for _, a := range r.store.assignments {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

type memRedemptionRepo struct{ store *memStore }

func (r *memRedemptionRepo) Insert(ctx context.Context, tx repository.Tx, red *model.Redemption) error {
	defer r.store.lockIfDirect(tx)()
	cp := *red
	r.store.redemptions = append(r.store.redemptions, &cp)
	return nil
}

func (r *memRedemptionRepo) ListByCode(ctx context.Context, tx repository.Tx, codeID string) ([]*model.Redemption, error) {
	defer r.store.lockIfDirect(tx)()
	var out []*model.Redemption
	for _, red := range r.store.redemptions {
		if red.CodeID == codeID {
			cp := *red
			out = append(out, &cp)
		}
	}
	return out, nil
}

// -----------------------------
// Harness
// -----------------------------

type fixture struct {
	store       *memStore
	txm         *memTxManager
	users       *memUserRepo
	books       *memBookRepo
	codes       *memCodeRepo
	assignments *memAssignmentRepo
	redemptions *memRedemptionRepo
}

func newFixture() *fixture {
	s := newMemStore()
	return &fixture{
		store:       s,
		txm:         &memTxManager{store: s},
		users:       &memUserRepo{store: s},
		books:       &memBookRepo{store: s},
		codes:       &memCodeRepo{store: s},
		assignments: &memAssignmentRepo{store: s},
		redemptions: &memRedemptionRepo{store: s},
	}
}

func (f *fixture) bookUC() *BookUseCase {
	return NewBookUseCase(f.books, f.codes, f.txm)
}

func (f *fixture) assignUC() *AssignmentUseCase {
	return NewAssignmentUseCase(f.users, f.books, f.codes, f.assignments, f.txm)
}

func (f *fixture) lockUC(ttl time.Duration) *LockUseCase {
	return NewLockUseCase(f.codes, f.txm, NewLockPolicy(ttl))
}

func (f *fixture) redeemUC() *RedemptionUseCase {
	return NewRedemptionUseCase(f.books, f.codes, f.redemptions, f.txm)
}

var _ repository.UserRepository = (*memUserRepo)(nil)
var _ repository.CouponBookRepository = (*memBookRepo)(nil)
var _ repository.CouponCodeRepository = (*memCodeRepo)(nil)
var _ repository.AssignmentRepository = (*memAssignmentRepo)(nil)
var _ repository.RedemptionRepository = (*memRedemptionRepo)(nil)
var _ repository.TransactionManager = (*memTxManager)(nil)
