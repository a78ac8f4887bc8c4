package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/internal/users"
	"github.com/bugabuga/commerce-backend/pkg/config"
	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/enums"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
	"github.com/bugabuga/commerce-backend/pkg/security"
)

type stubUsersRepo struct {
	byEmail   map[string]*models.User
	byID      map[uuid.UUID]*models.User
	lastLogin map[uuid.UUID]time.Time
	createErr error
}

func newStubUsersRepo() *stubUsersRepo {
	return &stubUsersRepo{
		byEmail:   make(map[string]*models.User),
		byID:      make(map[uuid.UUID]*models.User),
		lastLogin: make(map[uuid.UUID]time.Time),
	}
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) users.Repository {
	return s
}

func (s *stubUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *stubUsersRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

func testService(t *testing.T, repo users.Repository) Service {
	t.Helper()
	svc, err := NewService(repo, config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "commerce-backend",
		ExpirationMinutes: 30,
	}, config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestRegisterCreatesCustomerAndMintsToken(t *testing.T) {
	repo := newStubUsersRepo()
	svc := testService(t, repo)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Jane@Example.com",
		Password:  "sup3r-secret",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected minted token")
	}
	if result.User.Email != "jane@example.com" {
		t.Fatalf("expected lowercased email, got %s", result.User.Email)
	}
	if result.User.Role != enums.RoleCustomer {
		t.Fatalf("expected default customer role, got %s", result.User.Role)
	}

	stored := repo.byEmail["jane@example.com"]
	if stored == nil {
		t.Fatal("expected user persisted")
	}
	if stored.PasswordHash == "sup3r-secret" {
		t.Fatal("password must not be stored in plain text")
	}
	if ok, _ := security.VerifyPassword("sup3r-secret", stored.PasswordHash); !ok {
		t.Fatal("stored hash does not verify against original password")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := newStubUsersRepo()
	repo.byEmail["jane@example.com"] = &models.User{ID: uuid.New(), Email: "jane@example.com"}
	svc := testService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "jane@example.com",
		Password:  "sup3r-secret",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := testService(t, newStubUsersRepo())
	cases := []RegisterInput{
		{Email: "", Password: "sup3r-secret", FirstName: "a", LastName: "b"},
		{Email: "x@y.z", Password: "short", FirstName: "a", LastName: "b"},
		{Email: "x@y.z", Password: "sup3r-secret", FirstName: "", LastName: "b"},
		{Email: "x@y.z", Password: "sup3r-secret", FirstName: "a", LastName: "b", Role: enums.Role("superuser")},
	}
	for i, input := range cases {
		_, err := svc.Register(context.Background(), input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestLoginVerifiesPasswordAndRecordsLogin(t *testing.T) {
	repo := newStubUsersRepo()
	svc := testService(t, repo)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email:     "jane@example.com",
		Password:  "sup3r-secret",
		FirstName: "Jane",
		LastName:  "Doe",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "jane@example.com",
		Password: "sup3r-secret",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected minted token")
	}
	if _, ok := repo.lastLogin[result.User.ID]; !ok {
		t.Fatal("expected last login timestamp recorded")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newStubUsersRepo()
	svc := testService(t, repo)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email:     "jane@example.com",
		Password:  "sup3r-secret",
		FirstName: "Jane",
		LastName:  "Doe",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	repo := newStubUsersRepo()
	svc := testService(t, repo)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:     "jane@example.com",
		Password:  "sup3r-secret",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	repo.byID[result.User.ID].IsActive = false

	_, err = svc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: "sup3r-secret"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for disabled account, got %v", err)
	}
}

func TestMe(t *testing.T) {
	repo := newStubUsersRepo()
	svc := testService(t, repo)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:     "jane@example.com",
		Password:  "sup3r-secret",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	profile, err := svc.Me(context.Background(), result.User.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if profile.Email != "jane@example.com" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	_, err = svc.Me(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
