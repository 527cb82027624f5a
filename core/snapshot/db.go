package snapshot

import (
	"context"
	"fmt"

	"declaration-manager/core/database"
	"declaration-manager/core/declaration"

	"gorm.io/gorm"
)

// Entry is one row of the snapshot_entries table.
type Entry struct {
	ID     uint   `gorm:"primaryKey"`
	Tenant string `gorm:"size:255;not null;uniqueIndex:idx_snapshot_entry"`
	Class  string `gorm:"size:64;not null;uniqueIndex:idx_snapshot_entry"`
	Name   string `gorm:"size:255;not null;uniqueIndex:idx_snapshot_entry"`
}

// TableName overrides the gorm default.
func (Entry) TableName() string {
	return "snapshot_entries"
}

// DBSource reads the snapshot from the snapshot_entries table.
type DBSource struct {
	db *gorm.DB
}

// NewDBSource creates a database-backed source.
func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

// Migrate creates or updates the snapshot_entries table.
func (s *DBSource) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Entry{})
}

// Check verifies that the snapshot_entries table has the columns Load reads.
func (s *DBSource) Check(ctx context.Context) error {
	missing, err := database.MissingColumns(s.db.WithContext(ctx), Entry{}.TableName(), "tenant", "class", "name")
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns %v", Entry{}.TableName(), missing)
	}
	return nil
}

// Load reads every row into a Map.
func (s *DBSource) Load(ctx context.Context) (*Map, error) {
	var rows []Entry
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query snapshot entries: %w", err)
	}

	m := New()
	for _, row := range rows {
		class, err := declaration.ParseClass(row.Class)
		if err != nil {
			return nil, fmt.Errorf("snapshot entry %d: %w", row.ID, err)
		}
		m.Add(class, row.Tenant, row.Name)
	}
	return m, nil
}

// Save replaces the rows of every tenant present in m. Tenants absent from m are
// left untouched.
func (s *DBSource) Save(ctx context.Context, m *Map) error {
	rows := make([]Entry, 0, m.Len())
	m.Each(func(tenant string, class declaration.Class, name string) {
		rows = append(rows, Entry{Tenant: tenant, Class: string(class), Name: name})
	})

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenants := m.Tenants()
		if len(tenants) > 0 {
			if err := tx.Where("tenant IN ?", tenants).Delete(&Entry{}).Error; err != nil {
				return fmt.Errorf("failed to clear snapshot entries: %w", err)
			}
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("failed to write snapshot entries: %w", err)
		}
		return nil
	})
}
