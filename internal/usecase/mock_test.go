//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
)

// -----------------------------
// Utilities
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

var testLoc = time.FixedZone("CST", 8*3600)

// testClock is a settable time source for CivilClock.
type testClock struct {
	mu sync.Mutex
	at time.Time
}

func newTestClock(at time.Time) (*testClock, *domain.CivilClock) {
	tc := &testClock{at: at}
	return tc, domain.NewClockFunc(testLoc, tc.Now)
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = t
}

// ---- TxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// -----------------------------
// Repositories
// -----------------------------

// ---- UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User

	CreateFunc             func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc           func(ctx context.Context, tx repository.Tx, userID int64) (*model.User, error)
	AddScoreFunc           func(ctx context.Context, tx repository.Tx, userID int64, delta int64) (int64, error)
	ListExpiredFunc        func(ctx context.Context, tx repository.Tx, now time.Time) ([]int64, error)
	DowngradeIfExpiredFunc func(ctx context.Context, tx repository.Tx, userID int64, now time.Time) (bool, error)

	// Invites is consulted by FindProfile for the counter join.
	Invites *MockInviteRepo
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: map[int64]*model.User{}}
}

// Seed stores a copy of u directly.
func (r *MockUserRepo) Seed(u *model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.UserID] = &cp
}

// Get returns a copy of the stored user, or nil.
func (r *MockUserRepo) Get(userID int64) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (r *MockUserRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.UserID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *u
	r.users[u.UserID] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, userID int64) (*model.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, userID)
	}
	if u := r.Get(userID); u != nil {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindProfile(ctx context.Context, tx repository.Tx, userID int64) (*model.Profile, error) {
	u := r.Get(userID)
	if u == nil {
		return nil, domain.ErrNotFound
	}
	p := &model.Profile{User: *u}
	if r.Invites != nil {
		if inv, err := r.Invites.FindByUser(ctx, tx, userID); err == nil {
			p.InviteCount = inv.InviteCount
		}
	}
	return p, nil
}

func (r *MockUserRepo) AddScore(ctx context.Context, tx repository.Tx, userID int64, delta int64) (int64, error) {
	if r.AddScoreFunc != nil {
		return r.AddScoreFunc(ctx, tx, userID, delta)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	u.Score += delta
	return u.Score, nil
}

func (r *MockUserRepo) SetMembership(ctx context.Context, tx repository.Tx, userID int64, tier model.Tier, expireTime *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Tier = tier
	u.ExpireTime = expireTime
	return nil
}

func (r *MockUserRepo) ListExpired(ctx context.Context, tx repository.Tx, now time.Time) ([]int64, error) {
	if r.ListExpiredFunc != nil {
		return r.ListExpiredFunc(ctx, tx, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for id, u := range r.users {
		if u.MembershipLapsed(now) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *MockUserRepo) DowngradeIfExpired(ctx context.Context, tx repository.Tx, userID int64, now time.Time) (bool, error) {
	if r.DowngradeIfExpiredFunc != nil {
		return r.DowngradeIfExpiredFunc(ctx, tx, userID, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || !u.MembershipLapsed(now) {
		return false, nil
	}
	if u.Tier != model.TierBanned {
		u.Tier = model.TierNormal
	}
	u.ExpireTime = nil
	return true, nil
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

// ---- InviteRepository ----

type MockInviteRepo struct {
	mu     sync.Mutex
	byUser map[int64]*model.Invite
	logs   []*model.InviteLog

	FindByCodeFunc     func(ctx context.Context, tx repository.Tx, code string) (*model.Invite, error)
	CreateIfAbsentFunc func(ctx context.Context, tx repository.Tx, inv *model.Invite) error
	AppendLogFunc      func(ctx context.Context, tx repository.Tx, l *model.InviteLog) error
}

var _ repository.InviteRepository = (*MockInviteRepo)(nil)

func NewMockInviteRepo() *MockInviteRepo {
	return &MockInviteRepo{byUser: map[int64]*model.Invite{}}
}

func (r *MockInviteRepo) FindByUser(ctx context.Context, tx repository.Tx, userID int64) (*model.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *MockInviteRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Invite, error) {
	if r.FindByCodeFunc != nil {
		return r.FindByCodeFunc(ctx, tx, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.byUser {
		if inv.Code == code {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockInviteRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, inv *model.Invite) error {
	if r.CreateIfAbsentFunc != nil {
		return r.CreateIfAbsentFunc(ctx, tx, inv)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[inv.UserID]; ok {
		return nil
	}
	for _, other := range r.byUser {
		if other.Code == inv.Code {
			return domain.ErrAlreadyExists
		}
	}
	cp := *inv
	r.byUser[inv.UserID] = &cp
	return nil
}

func (r *MockInviteRepo) IncrementCount(ctx context.Context, tx repository.Tx, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byUser[userID]
	if !ok {
		return domain.ErrNotFound
	}
	inv.InviteCount++
	return nil
}

func (r *MockInviteRepo) AppendLog(ctx context.Context, tx repository.Tx, l *model.InviteLog) error {
	if r.AppendLogFunc != nil {
		return r.AppendLogFunc(ctx, tx, l)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.logs {
		if existing.InvitedID == l.InvitedID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *l
	cp.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, &cp)
	return nil
}

// LogCount returns how many attribution rows name inviterID.
func (r *MockInviteRepo) LogCount(inviterID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.logs {
		if l.InviterID == inviterID {
			n++
		}
	}
	return n
}

// ---- CheckInRepository ----

type MockCheckInRepo struct {
	mu   sync.Mutex
	rows map[int64]time.Time
}

var _ repository.CheckInRepository = (*MockCheckInRepo)(nil)

func NewMockCheckInRepo() *MockCheckInRepo {
	return &MockCheckInRepo{rows: map[int64]time.Time{}}
}

func (r *MockCheckInRepo) Find(ctx context.Context, tx repository.Tx, userID int64) (*model.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &model.CheckIn{UserID: userID, LastCheckInTime: t}, nil
}

func (r *MockCheckInRepo) InsertIfAbsent(ctx context.Context, tx repository.Tx, c *model.CheckIn) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[c.UserID]; ok {
		return false, nil
	}
	r.rows[c.UserID] = c.LastCheckInTime
	return true, nil
}

// Advance mirrors the conditional UPDATE: it only moves the timestamp when the cooldown elapsed.
func (r *MockCheckInRepo) Advance(ctx context.Context, tx repository.Tx, userID int64, now time.Time, cooldown time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[userID]
	if !ok || t.After(now.Add(-cooldown)) {
		return false, nil
	}
	r.rows[userID] = now
	return true, nil
}

// ---- ActivationCodeRepository ----

type MockActivationCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*model.ActivationCode

	SaveFunc    func(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error
	ConsumeFunc func(ctx context.Context, tx repository.Tx, code string, userID int64, at time.Time) (*model.ActivationCode, error)
}

var _ repository.ActivationCodeRepository = (*MockActivationCodeRepo)(nil)

func NewMockActivationCodeRepo() *MockActivationCodeRepo {
	return &MockActivationCodeRepo{codes: map[string]*model.ActivationCode{}}
}

func (r *MockActivationCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	r.codes[code.Code] = &cp
	return nil
}

func (r *MockActivationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Consume is a mutex-guarded compare-and-set on the used flag.
func (r *MockActivationCodeRepo) Consume(ctx context.Context, tx repository.Tx, code string, userID int64, at time.Time) (*model.ActivationCode, error) {
	if r.ConsumeFunc != nil {
		return r.ConsumeFunc(ctx, tx, code, userID, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if !ok || c.Used {
		return nil, domain.ErrNotFound
	}
	c.Used = true
	c.UsedBy = &userID
	c.UsedAt = &at
	cp := *c
	return &cp, nil
}
