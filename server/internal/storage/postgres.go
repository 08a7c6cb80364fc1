package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when a unique constraint rejects an insert
var ErrDuplicate = errors.New("already exists")

// uniqueViolation is the Postgres SQLSTATE for unique_violation
const uniqueViolation = "23505"

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// DB wraps the database connection and provides query methods
type DB struct {
	conn *sql.DB
}

// Config contains database connection configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// User is a gateway account
type User struct {
	ID             int64
	Username       string
	HashedPassword string
	CreatedAt      int64
}

// KeyProfile is a named key/IV pair owned by a user. Key and IV are stored
// already normalized to 16 bytes.
type KeyProfile struct {
	ID        int64
	OwnerID   int64
	Name      string
	Key       []byte
	IV        []byte
	Padding   string
	CreatedAt int64
}

// New creates a new database connection
func New(cfg Config) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates all database tables
func (db *DB) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		hashed_password VARCHAR(255) NOT NULL,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
	);

	CREATE TABLE IF NOT EXISTS key_profiles (
		id BIGSERIAL PRIMARY KEY,
		owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		key BYTEA NOT NULL CHECK (octet_length(key) = 16),
		iv BYTEA NOT NULL CHECK (octet_length(iv) = 16),
		padding VARCHAR(50) NOT NULL DEFAULT 'PKCS7',
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		UNIQUE(owner_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_key_profiles_owner_id ON key_profiles(owner_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// User operations

// CreateUser creates a new user with hashed password
func (db *DB) CreateUser(username, hashedPassword string) (int64, error) {
	var id int64
	err := db.conn.QueryRow(
		"INSERT INTO users (username, hashed_password) VALUES ($1, $2) RETURNING id",
		username, hashedPassword,
	).Scan(&id)
	return id, translate(err)
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(userID int64) (*User, error) {
	user := &User{}
	err := db.conn.QueryRow(
		"SELECT id, username, hashed_password, created_at FROM users WHERE id = $1",
		userID,
	).Scan(&user.ID, &user.Username, &user.HashedPassword, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// GetUserByUsername retrieves a user by username
func (db *DB) GetUserByUsername(username string) (*User, error) {
	user := &User{}
	err := db.conn.QueryRow(
		"SELECT id, username, hashed_password, created_at FROM users WHERE username = $1",
		username,
	).Scan(&user.ID, &user.Username, &user.HashedPassword, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// Key profile operations

// CreateKeyProfile stores a key profile and returns its ID
func (db *DB) CreateKeyProfile(p *KeyProfile) (int64, error) {
	var id int64
	err := db.conn.QueryRow(
		"INSERT INTO key_profiles (owner_id, name, key, iv, padding) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at",
		p.OwnerID, p.Name, p.Key, p.IV, p.Padding,
	).Scan(&id, &p.CreatedAt)
	if err != nil {
		return 0, translate(err)
	}
	p.ID = id
	return id, nil
}

// GetKeyProfile retrieves a key profile owned by ownerID
func (db *DB) GetKeyProfile(ownerID, profileID int64) (*KeyProfile, error) {
	p := &KeyProfile{}
	err := db.conn.QueryRow(
		"SELECT id, owner_id, name, key, iv, padding, created_at FROM key_profiles WHERE id = $1 AND owner_id = $2",
		profileID, ownerID,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Key, &p.IV, &p.Padding, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListKeyProfiles lists all key profiles of a user, oldest first
func (db *DB) ListKeyProfiles(ownerID int64) ([]*KeyProfile, error) {
	rows, err := db.conn.Query(
		"SELECT id, owner_id, name, key, iv, padding, created_at FROM key_profiles WHERE owner_id = $1 ORDER BY id",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*KeyProfile
	for rows.Next() {
		p := &KeyProfile{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Key, &p.IV, &p.Padding, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DeleteKeyProfile removes a key profile; it reports whether a row was deleted
func (db *DB) DeleteKeyProfile(ownerID, profileID int64) (bool, error) {
	res, err := db.conn.Exec(
		"DELETE FROM key_profiles WHERE id = $1 AND owner_id = $2",
		profileID, ownerID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
