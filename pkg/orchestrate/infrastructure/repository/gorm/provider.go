// Package gorm provides the GORM-backed persistence adapter for job executions.
// Dialect-specific subpackages (sqlite, postgres, mysql) register themselves
// through RegisterDialector when imported.
package gorm

import (
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	config "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	"github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"

	"gorm.io/gorm"
)

// DialectorFactory generates a gorm.Dialector from a DatabaseConfig.
type DialectorFactory func(cfg DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory corresponding to the specified DB type.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// ConnectionProvider establishes and caches named GORM connections declared
// under the "database" section of the configuration.
type ConnectionProvider struct {
	cfg *config.Config
	// Map of connections managed by this provider (name -> *gorm.DB)
	connections map[string]*gorm.DB
	mu          sync.RWMutex
}

// NewConnectionProvider creates a new ConnectionProvider.
func NewConnectionProvider(cfg *config.Config) *ConnectionProvider {
	return &ConnectionProvider{
		cfg:         cfg,
		connections: make(map[string]*gorm.DB),
	}
}

// GetConnection retrieves an existing connection or establishes a new one.
func (p *ConnectionProvider) GetConnection(name string) (*gorm.DB, error) {
	p.mu.RLock()
	db, ok := p.connections[name]
	p.mu.RUnlock()

	if ok {
		return db, nil
	}

	// Connection not found, establish a new one
	p.mu.Lock()
	defer p.mu.Unlock()

	// Double check (DCL)
	db, ok = p.connections[name]
	if ok {
		return db, nil
	}

	return p.createAndStoreConnection(name)
}

// createAndStoreConnection establishes a new connection and stores it in the map.
func (p *ConnectionProvider) createAndStoreConnection(name string) (*gorm.DB, error) {
	var dbConfig DatabaseConfig
	rawConfig, ok := p.cfg.Darkroom.AdapterConfigs[name]
	if !ok {
		return nil, fmt.Errorf("database configuration '%s' not found in database configs", name)
	}
	if err := mapstructure.Decode(rawConfig, &dbConfig); err != nil {
		return nil, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}

	db, err := p.connect(dbConfig)
	if err != nil {
		return nil, err
	}

	p.connections[name] = db
	logger.Infof("Established new DB connection: %s (%s)", name, dbConfig.Type)

	return db, nil
}

// connect establishes a GORM connection based on DatabaseConfig.
func (p *ConnectionProvider) connect(dbConfig DatabaseConfig) (*gorm.DB, error) {
	dialectorFactory, err := GetDialectorFactory(dbConfig.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to get dialector factory for %s: %w", dbConfig.Type, err)
	}
	dialector, err := dialectorFactory(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for %s: %w", dbConfig.Type, err)
	}

	gormConfig := &gorm.Config{
		// SQL tracing goes through the application logger at DEBUG.
		Logger: NewGormLogger(p.cfg.Darkroom.System.Logging.Level),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Apply pool settings
	sqlDB.SetMaxOpenConns(dbConfig.Pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbConfig.Pool.MaxIdleConns)
	if dbConfig.Pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.Pool.ConnMaxLifetimeMinutes) * time.Minute)
	}

	return db, nil
}

// CloseAll closes all connections managed by this provider.
func (p *ConnectionProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for name, db := range p.connections {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			logger.Errorf("Failed to close connection '%s': %v", name, err)
			lastErr = err
		}
		delete(p.connections, name)
	}
	return lastErr
}
