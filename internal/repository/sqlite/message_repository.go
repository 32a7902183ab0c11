package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chatroom-api/internal/domain"
	"chatroom-api/internal/repository"
)

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	member_id INTEGER NOT NULL REFERENCES members(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMessagesTable); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}

func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) (int64, error) {
	message.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO messages (member_id, text, created_at)
VALUES (?, ?, ?)`,
		message.MemberID,
		message.Text,
		message.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("message last insert id: %w", err)
	}
	message.ID = id
	return id, nil
}

// List returns messages oldest first. A positive limit keeps the earliest N
// rows; any other limit value returns the whole log.
func (r *MessageRepository) List(ctx context.Context, limit int) ([]domain.Message, error) {
	query := `
SELECT m.id, m.member_id, mb.username, m.text, m.created_at
FROM messages m
JOIN members mb ON mb.id = m.member_id
ORDER BY m.created_at ASC, m.id ASC`
	args := []any{}
	if limit > 0 {
		query += `
LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.MemberID,
			&msg.MemberUsername,
			&msg.Text,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
