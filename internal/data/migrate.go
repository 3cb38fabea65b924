package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datacuration/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// Migrate 创建数据表和索引，可重复执行
func Migrate(ctx context.Context, d *Data) error {
	if err := d.DB(ctx).AutoMigrate(&DataSourcePO{}, &ScheduledResultPO{}, &InstantResultPO{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

// SeedRawRecord 初始化用的原始数据
type SeedRawRecord struct {
	ID      string `yaml:"id"`
	Type    string `yaml:"type"`
	Title   string `yaml:"title"`
	URL     string `yaml:"url"`
	Snippet string `yaml:"snippet"`
	Content string `yaml:"content"`
}

// SeedDataSource 初始化用的数据源
type SeedDataSource struct {
	ID                string                 `yaml:"id"`
	Title             string                 `yaml:"title"`
	Description       string                 `yaml:"description"`
	CreatedBy         string                 `yaml:"created_by"`
	Tags              []string               `yaml:"tags"`
	PrimaryCategory   string                 `yaml:"primary_category"`
	SecondaryCategory string                 `yaml:"secondary_category"`
	TertiaryCategory  string                 `yaml:"tertiary_category"`
	Metadata          map[string]interface{} `yaml:"metadata"`
	Content           string                 `yaml:"content"`
	RawData           []string               `yaml:"raw_data"` // 引用 raw_records 中的ID
}

// SeedFixture 初始化数据
type SeedFixture struct {
	RawRecords []SeedRawRecord `yaml:"raw_records"`
	DataSource SeedDataSource  `yaml:"data_source"`
}

// Seed 写入初始化数据，已存在的记录跳过
func Seed(ctx context.Context, d *Data, fixture *SeedFixture, logger log.Logger) error {
	helper := log.NewHelper(logger)

	return d.InTx(ctx, func(ctx context.Context) error {
		raw := &RawRecordRepository{data: d, log: helper}
		records := make(map[string]*domain.RawRecord, len(fixture.RawRecords))
		now := time.Now().UTC()

		for _, sr := range fixture.RawRecords {
			rec := &domain.RawRecord{
				ID:        sr.ID,
				Type:      domain.RawDataType(sr.Type),
				Title:     sr.Title,
				URL:       sr.URL,
				Snippet:   sr.Snippet,
				Content:   sr.Content,
				Status:    domain.RawRecordStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			records[sr.ID] = rec

			_, err := raw.GetByID(ctx, rec.Type, rec.ID)
			if err == nil {
				helper.Infof("raw record %s/%s exists, skipped", rec.Type, rec.ID)
				continue
			}
			if !errors.Is(err, domain.ErrRawRecordNotFound) {
				return err
			}
			if err := raw.Create(ctx, rec); err != nil {
				return err
			}
		}

		repo := &DataSourceRepository{data: d, log: helper}
		seed := fixture.DataSource
		if _, err := repo.GetByID(ctx, seed.ID); err == nil {
			helper.Infof("seed data source %s exists, skipped", seed.ID)
			return nil
		} else if !errors.Is(err, domain.ErrDataSourceNotFound) {
			return err
		}

		ds, err := domain.NewDataSource(seed.ID, domain.CreateParams{
			Title:             seed.Title,
			Description:       seed.Description,
			CreatedBy:         seed.CreatedBy,
			Tags:              seed.Tags,
			PrimaryCategory:   optional(seed.PrimaryCategory),
			SecondaryCategory: optional(seed.SecondaryCategory),
			TertiaryCategory:  optional(seed.TertiaryCategory),
			Metadata:          seed.Metadata,
		})
		if err != nil {
			return fmt.Errorf("invalid seed data source: %w", err)
		}
		if seed.Content != "" {
			if err := ds.UpdateContent(seed.Content, seed.CreatedBy); err != nil {
				return err
			}
		}
		for _, id := range seed.RawData {
			rec, ok := records[id]
			if !ok {
				return fmt.Errorf("seed data source references unknown raw record %q", id)
			}
			if err := ds.AddRawData(rec.ID, rec.Type, rec.Title, rec.URL, rec.SnapshotSnippet(), seed.CreatedBy); err != nil {
				return err
			}
			if err := raw.UpdateStatus(ctx, rec.Type, rec.ID, domain.RawRecordStatusProcessing); err != nil {
				return err
			}
		}

		if err := repo.Create(ctx, ds); err != nil {
			return err
		}
		helper.Infof("seed data source inserted: id=%s raw_data=%d", ds.ID, ds.TotalRawDataCount)
		return nil
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
