package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"beamchat/internal/app/user"
)

// Queries is the hand-written query layer over the connection pool.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries wraps a connection pool.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// UserRow is a full account record, password hash included. It never leaves
// this package's callers unconverted; responses use ToUser.
type UserRow struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	ProfilePic   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ToUser strips the credential fields for client-facing use.
func (u UserRow) ToUser() user.User {
	return user.User{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}

// MessageRow is a persisted chat message.
type MessageRow struct {
	ID         string
	SenderID   string
	ReceiverID string
	Text       string
	ImageURL   string
	CreatedAt  time.Time
}

const userColumns = `id::text, email, full_name, password_hash, profile_pic, created_at, updated_at`

func scanUserRow(row interface{ Scan(dest ...any) error }) (UserRow, error) {
	var u UserRow
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.ProfilePic, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts a new account and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, email, fullName, passwordHash string) (UserRow, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		email, fullName, passwordHash,
	)
	return scanUserRow(row)
}

// GetUserByEmail fetches an account by its login email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1`,
		email,
	)
	return scanUserRow(row)
}

// GetUserByID fetches an account by id.
func (q *Queries) GetUserByID(ctx context.Context, id string) (UserRow, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1::uuid`,
		id,
	)
	return scanUserRow(row)
}

// UpdateProfilePic replaces the avatar URL and returns the updated row.
func (q *Queries) UpdateProfilePic(ctx context.Context, id, profilePic string) (UserRow, error) {
	row := q.pool.QueryRow(ctx, `
		UPDATE users
		SET profile_pic = $2, updated_at = now()
		WHERE id = $1::uuid
		RETURNING `+userColumns,
		id, profilePic,
	)
	return scanUserRow(row)
}

// ListUsersExcept returns the user directory without the requesting user,
// newest accounts first. Backs the sidebar contact list.
func (q *Queries) ListUsersExcept(ctx context.Context, id string) ([]UserRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id <> $1::uuid
		ORDER BY created_at DESC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRow
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const messageColumns = `id::text, sender_id::text, receiver_id::text, text, image_url, created_at`

func scanMessageRow(row interface{ Scan(dest ...any) error }) (MessageRow, error) {
	var m MessageRow
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.ImageURL, &m.CreatedAt)
	return m, err
}

// CreateMessage inserts a message row and returns it. Live delivery happens
// only after this commit returns.
func (q *Queries) CreateMessage(ctx context.Context, senderID, receiverID, text, imageURL string) (MessageRow, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, text, image_url)
		VALUES ($1::uuid, $2::uuid, $3, $4)
		RETURNING `+messageColumns,
		senderID, receiverID, text, imageURL,
	)
	return scanMessageRow(row)
}

// ListMessagesBetween returns the conversation between two users in both
// directions, oldest first.
func (q *Queries) ListMessagesBetween(ctx context.Context, userA, userB string) ([]MessageRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE (sender_id = $1::uuid AND receiver_id = $2::uuid)
		   OR (sender_id = $2::uuid AND receiver_id = $1::uuid)
		ORDER BY created_at ASC`,
		userA, userB,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []MessageRow
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
