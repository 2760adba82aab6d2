package hookstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chathooks/pkg/storage"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config selects the database behind the project/hook/channel store.
type Config struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

// Store implements storage.Store on top of GORM.
type Store struct {
	db *gorm.DB
}

type projectRow struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;size:50;not null"`
	Public       bool      `gorm:"column:public"`
	Website      string    `gorm:"column:website;size:1024"`
	MessageCount int64     `gorm:"column:message_count"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (projectRow) TableName() string { return "chathooks_projects" }

type hookRow struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key          string    `gorm:"column:key;size:255;not null;uniqueIndex"`
	ServiceID    int       `gorm:"column:service_id;not null;index:idx_service_project"`
	ProjectID    uint      `gorm:"column:project_id;index:idx_service_project"`
	ConfigJSON   string    `gorm:"column:config_json;type:text"`
	MessageCount int64     `gorm:"column:message_count"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (hookRow) TableName() string { return "chathooks_hooks" }

type channelRow struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID uint      `gorm:"column:project_id;index"`
	Topic     string    `gorm:"column:topic;size:255;not null"`
	Drivers   string    `gorm:"column:drivers;size:255"`
	Public    bool      `gorm:"column:public"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (channelRow) TableName() string { return "chathooks_channels" }

// Open creates a GORM-backed store.
func Open(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("storage dsn is required")
	}
	driver := normalizeDriver(cfg.Driver)
	if driver == "" {
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}

	gormDB, err := openGorm(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	store := &Store{db: gormDB}
	if cfg.AutoMigrate {
		if err := store.migrate(); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Close closes the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateProject(ctx context.Context, record storage.ProjectRecord) (storage.ProjectRecord, error) {
	if s == nil || s.db == nil {
		return record, errors.New("store is not initialized")
	}
	if strings.TrimSpace(record.Name) == "" {
		return record, errors.New("project name is required")
	}
	data := projectRow{
		Name:    strings.TrimSpace(record.Name),
		Public:  record.Public,
		Website: strings.TrimSpace(record.Website),
	}
	if err := s.db.WithContext(ctx).Create(&data).Error; err != nil {
		return record, err
	}
	return projectFromRow(data), nil
}

func (s *Store) GetProject(ctx context.Context, id uint) (*storage.ProjectRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data projectRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := projectFromRow(data)
	return &record, nil
}

// CreateHook persists a new hook, generating its opaque key when the record
// does not carry one.
func (s *Store) CreateHook(ctx context.Context, record storage.HookRecord) (storage.HookRecord, error) {
	if s == nil || s.db == nil {
		return record, errors.New("store is not initialized")
	}
	if record.ServiceID == 0 {
		return record, errors.New("service id is required")
	}
	if record.Key == "" {
		record.Key = storage.NewHookKey()
	}
	data := hookRow{
		Key:        record.Key,
		ServiceID:  record.ServiceID,
		ProjectID:  record.ProjectID,
		ConfigJSON: record.ConfigJSON,
	}
	if err := s.db.WithContext(ctx).Create(&data).Error; err != nil {
		return record, err
	}
	return hookFromRow(data), nil
}

func (s *Store) GetHookByKey(ctx context.Context, key string) (*storage.HookRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data hookRow
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := hookFromRow(data)
	return &record, nil
}

func (s *Store) GetHookByServiceAndProject(ctx context.Context, serviceID int, projectID uint) (*storage.HookRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data hookRow
	err := s.db.WithContext(ctx).
		Where("service_id = ? AND project_id = ?", serviceID, projectID).
		Take(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := hookFromRow(data)
	return &record, nil
}

func (s *Store) ListHooks(ctx context.Context, projectID uint) ([]storage.HookRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data []hookRow
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&data).Error
	if err != nil {
		return nil, err
	}
	records := make([]storage.HookRecord, 0, len(data))
	for _, item := range data {
		records = append(records, hookFromRow(item))
	}
	return records, nil
}

// IncrementHookMessages bumps the per-hook and per-project delivered-line
// counters.
func (s *Store) IncrementHookMessages(ctx context.Context, hookID uint, n int64) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	var data hookRow
	err := s.db.WithContext(ctx).Where("id = ?", hookID).Take(&data).Error
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&hookRow{}).
		Where("id = ?", hookID).
		UpdateColumn("message_count", gorm.Expr("message_count + ?", n)).Error
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&projectRow{}).
		Where("id = ?", data.ProjectID).
		UpdateColumn("message_count", gorm.Expr("message_count + ?", n)).Error
}

func (s *Store) CreateChannel(ctx context.Context, record storage.ChannelRecord) (storage.ChannelRecord, error) {
	if s == nil || s.db == nil {
		return record, errors.New("store is not initialized")
	}
	if strings.TrimSpace(record.Topic) == "" {
		return record, errors.New("channel topic is required")
	}
	data := channelRow{
		ProjectID: record.ProjectID,
		Topic:     strings.TrimSpace(record.Topic),
		Drivers:   strings.Join(record.Drivers, ","),
		Public:    record.Public,
	}
	if err := s.db.WithContext(ctx).Create(&data).Error; err != nil {
		return record, err
	}
	return channelFromRow(data), nil
}

func (s *Store) ListChannels(ctx context.Context, projectID uint) ([]storage.ChannelRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data []channelRow
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&data).Error
	if err != nil {
		return nil, err
	}
	records := make([]storage.ChannelRecord, 0, len(data))
	for _, item := range data {
		records = append(records, channelFromRow(item))
	}
	return records, nil
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(&projectRow{}, &hookRow{}, &channelRow{})
}

func projectFromRow(data projectRow) storage.ProjectRecord {
	return storage.ProjectRecord{
		ID:           data.ID,
		Name:         data.Name,
		Public:       data.Public,
		Website:      data.Website,
		MessageCount: data.MessageCount,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func hookFromRow(data hookRow) storage.HookRecord {
	return storage.HookRecord{
		ID:           data.ID,
		Key:          data.Key,
		ServiceID:    data.ServiceID,
		ProjectID:    data.ProjectID,
		ConfigJSON:   data.ConfigJSON,
		MessageCount: data.MessageCount,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func channelFromRow(data channelRow) storage.ChannelRecord {
	record := storage.ChannelRecord{
		ID:        data.ID,
		ProjectID: data.ProjectID,
		Topic:     data.Topic,
		Public:    data.Public,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
	if data.Drivers != "" {
		for _, driver := range strings.Split(data.Drivers, ",") {
			if trimmed := strings.TrimSpace(driver); trimmed != "" {
				record.Drivers = append(record.Drivers, trimmed)
			}
		}
	}
	return record
}

func normalizeDriver(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "postgres", "postgresql", "pgx":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return ""
	}
}

func openGorm(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}
