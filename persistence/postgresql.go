// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/models"
)

const (
	docRoomTable = "rooms"
	docUserTable = "users"
)

// PostgreSQL is a database/sql implementation of Store: maps and whole-table
// documents as JSONB rows, upserted on conflict.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}
	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS maps (
            id SERIAL PRIMARY KEY,
            name VARCHAR(255) UNIQUE NOT NULL,
            data JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS documents (
            id SERIAL PRIMARY KEY,
            name VARCHAR(255) UNIQUE NOT NULL,
            data JSONB NOT NULL,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_maps_name ON maps(name);
        CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name);
    `)
	return err
}

func (p *PostgreSQL) SaveMap(name string, data *dungeon.GeneratedMap) error {
	return p.upsert("maps", name, data)
}

func (p *PostgreSQL) LoadMap(name string) (*dungeon.GeneratedMap, error) {
	var data dungeon.GeneratedMap
	if err := p.load("maps", name, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (p *PostgreSQL) ListMaps() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `SELECT name FROM maps ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (p *PostgreSQL) DeleteMap(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := p.db.ExecContext(ctx, `DELETE FROM maps WHERE name = $1`, name)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (p *PostgreSQL) SaveRoomTable(rooms []*models.RoomRecord) error {
	return p.upsert("documents", docRoomTable, rooms)
}

func (p *PostgreSQL) LoadRoomTable() ([]*models.RoomRecord, error) {
	var rooms []*models.RoomRecord
	if err := p.load("documents", docRoomTable, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (p *PostgreSQL) SaveUsers(users map[string]*models.UserRecord) error {
	return p.upsert("documents", docUserTable, users)
}

func (p *PostgreSQL) LoadUsers() (map[string]*models.UserRecord, error) {
	var users map[string]*models.UserRecord
	if err := p.load("documents", docUserTable, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

func (p *PostgreSQL) upsert(table, name string, v interface{}) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := fmt.Sprintf(`
        INSERT INTO %s (name, data)
        VALUES ($1, $2)
        ON CONFLICT (name)
        DO UPDATE SET data = $2, updated_at = CURRENT_TIMESTAMP
    `, table)
	_, err = p.db.ExecContext(ctx, query, name, jsonData)
	return err
}

func (p *PostgreSQL) load(table, name string, v interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data []byte
	query := fmt.Sprintf(`SELECT data FROM %s WHERE name = $1`, table)
	err := p.db.QueryRowContext(ctx, query, name).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrRecordNotFound
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrCorruptRecord, table, name, err)
	}
	return nil
}
