package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitoshi/hygienesurvey/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

func TestPostgresUserRepo_FindByEmail_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "name", "picture", "created_at"}).
		AddRow("user-1", "asha@example.com", "Asha", "https://example.com/a.png", now)
	mock.ExpectQuery("SELECT id, email, name, picture, created_at FROM users WHERE email").
		WithArgs("asha@example.com").
		WillReturnRows(rows)

	repo := NewPostgresUserRepo(db)
	user, err := repo.FindByEmail(context.Background(), "asha@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if user == nil {
		t.Fatal("expected user")
	}
	if user.ID != "user-1" {
		t.Errorf("ID = %q, want %q", user.ID, "user-1")
	}
	if user.Picture == nil || *user.Picture != "https://example.com/a.png" {
		t.Errorf("Picture = %v, want https://example.com/a.png", user.Picture)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresUserRepo_FindByID_NotFound_ReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "picture", "created_at"}))

	repo := NewPostgresUserRepo(db)
	user, err := repo.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

func TestPostgresUserRepo_FindByID_NullPicture(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "name", "picture", "created_at"}).
		AddRow("user-1", "asha@example.com", "Asha", nil, time.Now())
	mock.ExpectQuery("FROM users WHERE id").WithArgs("user-1").WillReturnRows(rows)

	user, err := NewPostgresUserRepo(db).FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if user.Picture != nil {
		t.Errorf("Picture = %q, want nil", *user.Picture)
	}
}

func TestPostgresUserRepo_Create_InsertsFirstWriteWins(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectExec("INSERT INTO users (.+) ON CONFLICT DO NOTHING").
		WithArgs("user-1", "asha@example.com", "Asha", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresUserRepo(db).Create(context.Background(), &model.User{
		ID:        "user-1",
		Email:     "asha@example.com",
		Name:      "Asha",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresUserRepo_Create_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("connection reset"))

	err = NewPostgresUserRepo(db).Create(context.Background(), &model.User{ID: "user-1"})
	if err == nil {
		t.Fatal("expected error")
	}
}
