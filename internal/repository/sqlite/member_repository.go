package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatroom-api/internal/domain"
	"chatroom-api/internal/repository"
)

const createMembersTable = `
CREATE TABLE IF NOT EXISTS members (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	username TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

type MemberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) repository.MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMembersTable); err != nil {
		return fmt.Errorf("create members table: %w", err)
	}
	return nil
}

func (r *MemberRepository) Create(ctx context.Context, member *domain.Member) (int64, error) {
	member.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO members (user_id, username, created_at)
VALUES (?, ?, ?)`,
		member.UserID,
		member.Username,
		member.CreatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, fmt.Errorf("member for user %d: %w", member.UserID, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert member: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("member last insert id: %w", err)
	}
	member.ID = id
	return id, nil
}

func (r *MemberRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, username, created_at
FROM members
WHERE user_id = ?`,
		userID,
	)

	var member domain.Member
	if err := row.Scan(
		&member.ID,
		&member.UserID,
		&member.Username,
		&member.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}
	return &member, nil
}
