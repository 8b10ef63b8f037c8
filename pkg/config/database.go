package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connections
type DB struct {
	SQL   *gorm.DB
	Mongo *mongo.Client
	log   *slog.Logger
}

// InitDB initializes and returns the database connections
func InitDB(cfg *Config, log *slog.Logger) (*DB, error) {
	sqlDB, err := OpenGorm(cfg.DBDriver, cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}
	log.Info("Successfully connected to relational store", "driver", cfg.DBDriver)

	mongoClient, err := initMongo(cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	log.Info("Successfully connected to MongoDB")

	return &DB{SQL: sqlDB, Mongo: mongoClient, log: log}, nil
}

func (c *Config) dsn() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.PostgresConnStr
}

// OpenGorm opens and pings a gorm connection for the given driver
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY and keeps :memory: databases shared
		sqlDB.SetMaxOpenConns(1)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.SQL != nil {
		sqlDB, err := db.SQL.DB()
		if err != nil {
			db.log.Error("Error getting SQL DB from GORM", "error", err)
		} else if err := sqlDB.Close(); err != nil {
			db.log.Error("Error closing relational connection", "error", err)
		} else {
			db.log.Info("Relational connection closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.log.Error("Error closing MongoDB connection", "error", err)
		} else {
			db.log.Info("MongoDB connection closed.")
		}
	}
}
