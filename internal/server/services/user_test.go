package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"recordkeeper/internal/common"
	"recordkeeper/internal/dbx"
	"recordkeeper/internal/docstore"
	"recordkeeper/internal/server/config"
	"recordkeeper/internal/server/models"
	refreshtokensrepo "recordkeeper/internal/server/repositories/refreshtokens"
	"recordkeeper/internal/server/repositories/repomanager"
	usersrepo "recordkeeper/internal/server/repositories/users"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	return string(h)
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error

	claimsOut models.CustomClaims
	claimsErr error

	setClaimsErr error
	setClaimsLog []models.CustomClaims
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}
func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}
func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}
func (f *fakeUsersRepo) GetClaims(ctx context.Context, userID string) (models.CustomClaims, error) {
	return f.claimsOut, f.claimsErr
}
func (f *fakeUsersRepo) SetClaims(ctx context.Context, userID string, claims models.CustomClaims) error {
	f.setClaimsLog = append(f.setClaimsLog, claims)
	return f.setClaimsErr
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr error

	createErr error

	deletedAll int
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	return f.createErr
}
func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}
func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	return f.delErr
}
func (f *fakeRefreshRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	f.deletedAll++
	return 1, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Documents(db dbx.DBTX) docstore.Store                   { return nil }

func TestRegister_SuccessAndError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rmOK := &fakeRepoManager{
		u: &fakeUsersRepo{createOut: &models.User{ID: "42", Email: "alice@example.com"}},
		r: &fakeRefreshRepo{},
	}
	sOK := newUserService(t, db, rmOK)
	u, err := sOK.Register(context.Background(), "alice@example.com", "pw")
	if err != nil || u.ID != "42" {
		t.Fatalf("Register ok: got (%v, %v)", u, err)
	}

	rmDup := &fakeRepoManager{
		u: &fakeUsersRepo{createErr: common.ErrLoginAlreadyExists},
		r: &fakeRefreshRepo{},
	}
	sDup := newUserService(t, db, rmDup)
	if _, err := sDup.Register(context.Background(), "alice@example.com", "pw"); !errors.Is(err, common.ErrLoginAlreadyExists) {
		t.Fatalf("Register duplicate: want ErrLoginAlreadyExists, got %v", err)
	}

	rmErr := &fakeRepoManager{
		u: &fakeUsersRepo{createErr: errBoom{}},
		r: &fakeRefreshRepo{},
	}
	sErr := newUserService(t, db, rmErr)
	_, err = sErr.Register(context.Background(), "bob@example.com", "pw")
	if err == nil || !regexp.MustCompile(`error creating user: .*boom`).MatchString(err.Error()) {
		t.Fatalf("Register expected wrapped error, got %v", err)
	}
}

func TestLogin_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	// not found → unauthorized
	rmNF := &fakeRepoManager{
		u: &fakeUsersRepo{getErr: common.ErrNotFound},
		r: &fakeRefreshRepo{},
	}
	sNF := newUserService(t, db, rmNF)
	if _, err := sNF.Login(context.Background(), "ghost@example.com", "x"); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("notfound → unauthorized, got %v", err)
	}

	// internal error
	rmIE := &fakeRepoManager{
		u: &fakeUsersRepo{getErr: errBoom{}},
		r: &fakeRefreshRepo{},
	}
	sIE := newUserService(t, db, rmIE)
	if _, err := sIE.Login(context.Background(), "u@example.com", "x"); !errors.Is(err, common.ErrInternal) {
		t.Fatalf("internal → ErrInternal, got %v", err)
	}

	// wrong password → unauthorized
	rmWP := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{ID: "u1", PasswordHash: hashOf(t, "right")}},
		r: &fakeRefreshRepo{},
	}
	sWP := newUserService(t, db, rmWP)
	if _, err := sWP.Login(context.Background(), "u@example.com", "wrong"); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("wrong password → unauthorized, got %v", err)
	}

	rmOK := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{
			ID:           "u1",
			PasswordHash: hashOf(t, "right"),
			Claims:       models.CustomClaims{Roles: []string{"admin"}, IsManager: true},
		}},
		r: &fakeRefreshRepo{},
	}
	sOK := newUserService(t, db, rmOK)
	pair, err := sOK.Login(context.Background(), "u@example.com", "right")
	if err != nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("Login success: pair=%+v err=%v", pair, err)
	}

	claims, err := sOK.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "u1" || !claims.IsManager || len(claims.Roles) != 1 || claims.Roles[0] != "admin" {
		t.Fatalf("claims not carried into token: %+v", claims)
	}
}

func TestRefreshToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{claimsOut: models.CustomClaims{Roles: []string{"def"}}},
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
		},
	}
	s := newUserService(t, db, rm)

	pair, err := s.RefreshToken(context.Background(), "refresh-xyz")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty tokens: %+v", pair)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{},
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(-1 * time.Minute)},
		},
	}
	s := newUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}

func TestRefreshToken_FindErr(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{findErr: errBoom{}}}
	s := newUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if err == nil || !regexp.MustCompile(`error searching refresh token: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped find error, got %v", err)
	}
}

func TestRefreshToken_DeleteErr(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{},
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
			delErr:  errBoom{},
		},
	}
	s := newUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if err == nil || !regexp.MustCompile(`error deleting refresh token: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped delete error, got %v", err)
	}
}

func TestRefreshToken_PicksUpClaimsChange(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{claimsOut: models.CustomClaims{Roles: []string{"editor"}, IsManager: true}},
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
		},
	}
	s := newUserService(t, db, rm)

	pair, err := s.RefreshToken(context.Background(), "r")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	claims, err := s.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if !claims.IsManager || len(claims.Roles) != 1 || claims.Roles[0] != "editor" {
		t.Fatalf("refreshed token misses updated claims: %+v", claims)
	}
}

func TestLogout(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newUserService(t, db, rm)
	if err := s.Logout(context.Background(), "r"); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	rmErr := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{delErr: errBoom{}}}
	sErr := newUserService(t, db, rmErr)
	if err := sErr.Logout(context.Background(), "r"); err == nil {
		t.Fatalf("Logout expected error")
	}
}
