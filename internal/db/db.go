package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Database struct {
	Conn *sql.DB
}

func NewDatabase(dsn string) (*Database, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return &Database{Conn: conn}, nil
}

func (d *Database) AutoMigrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS vendors (
            id UUID PRIMARY KEY,
            name VARCHAR(100) NOT NULL,
            email VARCHAR(190) UNIQUE NOT NULL,
            phone VARCHAR(30) NOT NULL,
            password VARCHAR(255) NOT NULL,
            shop_name VARCHAR(100) NOT NULL,
            shop_category VARCHAR(100) NOT NULL,
            address TEXT NOT NULL,
            city VARCHAR(100) NOT NULL,
            state VARCHAR(100) NOT NULL,
            country VARCHAR(100) NOT NULL,
            business_license_no VARCHAR(100),
            gst_number VARCHAR(100) NOT NULL,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS agents (
            id UUID PRIMARY KEY,
            name VARCHAR(100) NOT NULL,
            email VARCHAR(190) UNIQUE NOT NULL,
            password VARCHAR(255) NOT NULL,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )`,

		// seq is the stable tiebreaker when two messages share a timestamp.
		`CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            seq BIGSERIAL,
            sender VARCHAR(64) NOT NULL,
            sender_type VARCHAR(10) NOT NULL CHECK (sender_type IN ('Vendor', 'Agent')),
            receiver VARCHAR(64) NOT NULL,
            receiver_type VARCHAR(10) NOT NULL CHECK (receiver_type IN ('Vendor', 'Agent')),
            text TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            CHECK (sender_type <> receiver_type)
        )`,

		// Conversation lookup is by the unordered pair, so index both legs.
		`CREATE INDEX IF NOT EXISTS idx_messages_pair
            ON messages (LEAST(sender, receiver), GREATEST(sender, receiver), created_at, seq)`,
	}

	for _, query := range queries {
		_, err := d.Conn.Exec(query)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
