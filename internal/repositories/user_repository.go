package repositories

import (
	"database/sql"

	"greentrain/internal/domain"
)

// User is the minimal account record the auth endpoints need.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Status       string
}

type UserRepository struct {
	DB *sql.DB
}

// GetByEmail loads a user for login.
func (r UserRepository) GetByEmail(email string) (User, error) {
	var u User
	err := r.DB.QueryRow(`
        SELECT id, name, email, password_hash, role, status
        FROM users
        WHERE email = ?
    `, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status)
	if err == sql.ErrNoRows {
		return u, domain.NotFoundError{Resource: "user"}
	}
	return u, err
}

// EmailExists reports whether an account already uses the address.
func (r UserRepository) EmailExists(email string) (bool, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	return count > 0, err
}

// Create inserts a new account and returns its id.
func (r UserRepository) Create(name, email, passwordHash string) (int64, error) {
	res, err := r.DB.Exec(`
        INSERT INTO users (name, email, password_hash, role, status, created_at, updated_at)
        VALUES (?, ?, ?, 'user', 'active', NOW(), NOW())
    `, name, email, passwordHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
