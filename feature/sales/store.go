package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scanmate/core/database"
	"scanmate/feature/inventory"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

// Sale is one row of the lookup table. Prices are kept as printed.
type Sale struct {
	Barcode     string    `json:"barcode"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Size        string    `json:"size"`
	SaleType    string    `json:"saleType"`
	OldPrice    string    `json:"oldPrice"`
	NewPrice    string    `json:"newPrice"`
	ArticleCode string    `json:"articleCode"`
	CreatedAt   time.Time `json:"createdAt"`
}

type saleRecord struct {
	Barcode     string `gorm:"primaryKey"`
	Name        string
	Color       string
	Size        string
	SaleType    string
	OldPrice    string
	NewPrice    string
	ArticleCode string    `gorm:"column:artic_code"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
}

func (saleRecord) TableName() string { return "sales" }

func (r saleRecord) sale() Sale {
	return Sale{
		Barcode:     r.Barcode,
		Name:        r.Name,
		Color:       r.Color,
		Size:        r.Size,
		SaleType:    r.SaleType,
		OldPrice:    r.OldPrice,
		NewPrice:    r.NewPrice,
		ArticleCode: r.ArticleCode,
		CreatedAt:   r.CreatedAt,
	}
}

func recordOf(s Sale) saleRecord {
	return saleRecord{
		Barcode:     s.Barcode,
		Name:        s.Name,
		Color:       s.Color,
		Size:        s.Size,
		SaleType:    s.SaleType,
		OldPrice:    s.OldPrice,
		NewPrice:    s.NewPrice,
		ArticleCode: s.ArticleCode,
		CreatedAt:   s.CreatedAt,
	}
}

// Result summarises one import.
type Result struct {
	Imported   int `json:"imported"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// Store owns the sales table.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open connects to the sales store described by cfg and creates its table.
func Open(cfg database.Config, logger *zap.Logger) (*Store, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales store: %w", err)
	}
	s, err := NewStore(db, logger)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing connection and creates the table if missing.
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&saleRecord{}); err != nil {
		return nil, fmt.Errorf("failed to initialize sales schema: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("store", "sales")),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Get looks up the sale of a barcode. It returns inventory.ErrNotFound when
// the barcode has no sale.
func (s *Store) Get(ctx context.Context, barcode string) (Sale, error) {
	barcode = inventory.NormalizeBarcode(barcode)
	if barcode == "" {
		return Sale{}, &inventory.ValidationError{Op: "get sale", Err: errors.New("barcode is required")}
	}

	var rec saleRecord
	res := s.db.WithContext(ctx).Where("barcode = ?", barcode).Limit(1).Find(&rec)
	if res.Error != nil {
		return Sale{}, fmt.Errorf("failed to query sale %q: %w", barcode, res.Error)
	}
	if res.RowsAffected == 0 {
		return Sale{}, inventory.ErrNotFound
	}
	return rec.sale(), nil
}

// Count returns the number of sales.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&saleRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return n, nil
}

// Replace clears the table and upserts sales in one transaction. A barcode
// listed twice keeps its last row. It returns how many rows were stored and
// how many were overwritten by a later duplicate.
func (s *Store) Replace(ctx context.Context, sales []Sale) (stored, duplicates int, err error) {
	now := s.now()
	index := make(map[string]int, len(sales))
	records := make([]saleRecord, 0, len(sales))
	for _, sale := range sales {
		sale.Barcode = inventory.NormalizeBarcode(sale.Barcode)
		if sale.CreatedAt.IsZero() {
			sale.CreatedAt = now
		}
		if i, ok := index[sale.Barcode]; ok {
			records[i] = recordOf(sale)
			duplicates++
			continue
		}
		index[sale.Barcode] = len(records)
		records = append(records, recordOf(sale))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&saleRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear sales: %w", err)
		}
		for start := 0; start < len(records); start += insertBatchSize {
			end := min(start+insertBatchSize, len(records))
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "barcode"}},
				UpdateAll: true,
			}).Create(records[start:end]).Error
			if err != nil {
				return fmt.Errorf("failed to upsert sales %d-%d: %w", start, end, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("sales replace rolled back: %w", err)
	}
	return len(records), duplicates, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	return database.Close(s.db)
}
