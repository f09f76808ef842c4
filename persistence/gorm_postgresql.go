// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/models"
)

// GormPostgreSQL is the GORM-backed implementation of Store, interchangeable
// with PostgreSQL and FileStore.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormMap{}, &models.GormDocument{}); err != nil {
		return nil, err
	}
	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveMap(name string, data *dungeon.GeneratedMap) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	var record models.GormMap
	result := p.db.Where("name = ?", name).First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return p.db.Create(&models.GormMap{Name: name, Data: payload}).Error
	}
	if result.Error != nil {
		return result.Error
	}
	return p.db.Model(&record).Update("data", payload).Error
}

func (p *GormPostgreSQL) LoadMap(name string) (*dungeon.GeneratedMap, error) {
	var record models.GormMap
	if err := p.db.Where("name = ?", name).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	var data dungeon.GeneratedMap
	if err := json.Unmarshal(record.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: map %s: %v", ErrCorruptRecord, name, err)
	}
	return &data, nil
}

func (p *GormPostgreSQL) ListMaps() ([]string, error) {
	var names []string
	if err := p.db.Model(&models.GormMap{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (p *GormPostgreSQL) DeleteMap(name string) error {
	result := p.db.Where("name = ?", name).Delete(&models.GormMap{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (p *GormPostgreSQL) SaveRoomTable(rooms []*models.RoomRecord) error {
	return p.saveDocument(docRoomTable, rooms)
}

func (p *GormPostgreSQL) LoadRoomTable() ([]*models.RoomRecord, error) {
	var rooms []*models.RoomRecord
	if err := p.loadDocument(docRoomTable, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (p *GormPostgreSQL) SaveUsers(users map[string]*models.UserRecord) error {
	return p.saveDocument(docUserTable, users)
}

func (p *GormPostgreSQL) LoadUsers() (map[string]*models.UserRecord, error) {
	var users map[string]*models.UserRecord
	if err := p.loadDocument(docUserTable, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *GormPostgreSQL) saveDocument(name string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var record models.GormDocument
	result := p.db.Where("name = ?", name).First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return p.db.Create(&models.GormDocument{Name: name, Data: payload}).Error
	}
	if result.Error != nil {
		return result.Error
	}
	return p.db.Model(&record).Update("data", payload).Error
}

func (p *GormPostgreSQL) loadDocument(name string, v interface{}) error {
	var record models.GormDocument
	if err := p.db.Where("name = ?", name).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	if err := json.Unmarshal(record.Data, v); err != nil {
		return fmt.Errorf("%w: document %s: %v", ErrCorruptRecord, name, err)
	}
	return nil
}
