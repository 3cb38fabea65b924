package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"datacuration/internal/data"
	"datacuration/pkg/database"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"gopkg.in/yaml.v3"
)

var (
	flagconf string
	flagseed string
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/datasource-service.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagseed, "seed", "../../configs/seed.yaml", "seed fixture path, empty to skip seeding")
}

// Config 只读取数据库配置
type Config struct {
	Data struct {
		Database database.Config `json:"database"`
	} `json:"data"`
}

func main() {
	flag.Parse()

	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "datasource-migrate",
	)
	helper := log.NewHelper(logger)

	if err := run(logger); err != nil {
		helper.Errorf("migration failed: %v", err)
		os.Exit(1)
	}
	helper.Info("migration finished")
}

func run(logger log.Logger) error {
	c := config.New(config.WithSource(env.NewSource("DATASOURCE_"), file.NewSource(flagconf)))
	defer c.Close()

	if err := c.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	var cfg Config
	if err := c.Scan(&cfg); err != nil {
		return fmt.Errorf("failed to scan config: %w", err)
	}

	db, err := database.NewDB(&cfg.Data.Database, logger)
	if err != nil {
		return err
	}
	d, cleanup, err := data.NewData(db, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := data.Migrate(ctx, d); err != nil {
		return err
	}

	if flagseed == "" {
		return nil
	}
	fixture, err := loadFixture(flagseed)
	if err != nil {
		return err
	}
	return data.Seed(ctx, d, fixture, logger)
}

func loadFixture(path string) (*data.SeedFixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed fixture: %w", err)
	}
	var fixture data.SeedFixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixture: %w", err)
	}
	return &fixture, nil
}
