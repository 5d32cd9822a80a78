// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"picfeed/internal/database"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolation = "23505"

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// IsUniqueViolation reports whether err is a unique constraint violation on postgres or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func translate(err error) error {
	if IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// activeUsers restricts a users query to accounts that are not soft-deleted.
func activeUsers(db *gorm.DB) *gorm.DB {
	return db.Where("users.is_deleted = ?", false)
}

// activeAuthors restricts a posts query to posts whose author is not soft-deleted.
func activeAuthors(db *gorm.DB) *gorm.DB {
	return db.Where("posts.user_id IN (SELECT id FROM users WHERE is_deleted = ?)", false)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
