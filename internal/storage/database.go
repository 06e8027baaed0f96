package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/SashaBaych/steam-scrape/internal/catalog"
	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/types"
)

// Database persists catalogs into the relational schema. Every statement
// commits on its own; a failure part way leaves earlier rows in place.
type Database struct {
	db     *gorm.DB
	logger *slog.Logger
	count  int
}

// OpenDatabase connects with the configured driver, creating the database
// first when the server supports it, and migrates the schema.
func OpenDatabase(cfg *config.Config, logger *slog.Logger) (*Database, error) {
	gormCfg := &gorm.Config{Logger: gormLogger(cfg.Logging.Level)}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		if err := ensureMySQLDatabase(cfg, gormCfg); err != nil {
			return nil, &types.StorageError{Backend: "mysql", Err: err}
		}
		dialector = mysql.Open(mysqlDSN(cfg.Database, cfg.Schema.Database))
	case "postgres":
		if err := ensurePostgresDatabase(cfg, gormCfg); err != nil {
			return nil, &types.StorageError{Backend: "postgres", Err: err}
		}
		dialector = postgres.Open(postgresDSN(cfg.Database, cfg.Schema.Database))
	case "sqlite":
		dialector = sqlite.Open(cfg.Schema.Database)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, &types.StorageError{Backend: cfg.Database.Driver, Err: fmt.Errorf("connect: %w", err)}
	}
	return NewDatabase(db, logger)
}

// NewDatabase wraps an open gorm handle and migrates the schema.
func NewDatabase(db *gorm.DB, logger *slog.Logger) (*Database, error) {
	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, &types.StorageError{Backend: db.Dialector.Name(), Err: fmt.Errorf("migrate: %w", err)}
	}
	return &Database{
		db:     db,
		logger: logger.With("component", "database"),
	}, nil
}

func gormLogger(level string) logger.Interface {
	if level == "debug" {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Silent)
}

func mysqlDSN(c config.DatabaseConfig, database string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, database)
}

func postgresDSN(c config.DatabaseConfig, database string) string {
	port := c.Port
	if port == 0 || port == 3306 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		c.Host, port, c.User, c.Password, database)
}

func ensureMySQLDatabase(cfg *config.Config, gormCfg *gorm.Config) error {
	admin, err := gorm.Open(mysql.Open(mysqlDSN(cfg.Database, "")), gormCfg)
	if err != nil {
		return fmt.Errorf("connect server: %w", err)
	}
	defer closeDB(admin)

	name := strings.ReplaceAll(cfg.Schema.Database, "`", "``")
	return admin.Exec("CREATE DATABASE IF NOT EXISTS `" + name + "` CHARACTER SET utf8mb4").Error
}

func ensurePostgresDatabase(cfg *config.Config, gormCfg *gorm.Config) error {
	if cfg.Schema.Database == "postgres" {
		return nil
	}
	admin, err := gorm.Open(postgres.Open(postgresDSN(cfg.Database, "postgres")), gormCfg)
	if err != nil {
		return fmt.Errorf("connect server: %w", err)
	}
	defer closeDB(admin)

	var exists int64
	if err := admin.Raw("SELECT count(*) FROM pg_database WHERE datname = ?", cfg.Schema.Database).Scan(&exists).Error; err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}
	name := strings.ReplaceAll(cfg.Schema.Database, `"`, `""`)
	return admin.Exec(`CREATE DATABASE "` + name + `"`).Error
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (d *Database) Name() string { return d.db.Dialector.Name() }

// Store persists every record of a catalog. Records are written one by one;
// the first failure stops the run and is returned.
func (d *Database) Store(ctx context.Context, records []*catalog.GameRecord) error {
	for _, rec := range records {
		if err := d.persist(ctx, rec); err != nil {
			return &types.StorageError{Backend: d.Name(), Err: fmt.Errorf("persist %q: %w", rec.Name, err)}
		}
		d.count++
	}
	d.logger.Info("catalog persisted", "games", len(records))
	return nil
}

func (d *Database) persist(ctx context.Context, rec *catalog.GameRecord) error {
	db := d.db.WithContext(ctx)
	info := rec.Info
	if info == nil {
		info = types.UnavailableInfo(time.Now())
	}

	devID, err := optionalID(db, info.Developer, func(v string) Developer { return Developer{Name: v} })
	if err != nil {
		return fmt.Errorf("developer: %w", err)
	}
	pubID, err := optionalID(db, info.Publisher, func(v string) Publisher { return Publisher{Name: v} })
	if err != nil {
		return fmt.Errorf("publisher: %w", err)
	}
	revID, err := optionalID(db, info.ReviewSummary, func(v string) ReviewSummary { return ReviewSummary{Summary: v} })
	if err != nil {
		return fmt.Errorf("review summary: %w", err)
	}

	genres := make([]Genre, 0, len(info.Genres))
	seen := make(map[string]bool, len(info.Genres))
	for _, name := range info.Genres {
		if seen[name] {
			continue
		}
		seen[name] = true
		id, err := getOrCreate(db, Genre{Name: name})
		if err != nil {
			return fmt.Errorf("genre %q: %w", name, err)
		}
		genres = append(genres, Genre{GenreID: id, Name: name})
	}

	game := Game{
		Title:           rec.Name,
		Category:        rec.Category,
		ReleaseDate:     toDate(info.ReleaseDate),
		MetacriticScore: info.MetacriticScore,
		DeveloperID:     devID,
		PublisherID:     pubID,
		ReviewSummaryID: revID,
	}
	if err := d.upsertGame(db, &game); err != nil {
		return err
	}

	if len(genres) == 0 {
		if err := db.Model(&game).Association("Genres").Clear(); err != nil {
			return fmt.Errorf("clear genres: %w", err)
		}
	} else if err := db.Model(&game).Association("Genres").Replace(genres); err != nil {
		return fmt.Errorf("replace genres: %w", err)
	}

	sample := datatypes.Date(info.SampleDate)
	price := PriceHistory{
		GameID:     game.GameID,
		Price:      info.Price,
		Currency:   info.Currency,
		SampleDate: sample,
	}
	if err := db.Omit(clause.Associations).Create(&price).Error; err != nil {
		return fmt.Errorf("price history: %w", err)
	}

	rank := TopSellingHistory{
		GameID:     game.GameID,
		Position:   rec.Rank,
		SampleDate: sample,
	}
	if err := db.Omit(clause.Associations).Create(&rank).Error; err != nil {
		return fmt.Errorf("rank history: %w", err)
	}
	return nil
}

// upsertGame inserts the game or overwrites the existing row with the same title.
func (d *Database) upsertGame(db *gorm.DB, game *Game) error {
	var existing Game
	err := db.Where("title = ?", game.Title).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Omit(clause.Associations).Create(game).Error; err != nil {
			return fmt.Errorf("create game: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("find game: %w", err)
	}

	game.GameID = existing.GameID
	err = db.Model(&existing).
		Select("category", "release_date", "metacritic_score", "developer_id", "publisher_id", "review_summary_id").
		Updates(map[string]any{
			"category":          game.Category,
			"release_date":      game.ReleaseDate,
			"metacritic_score":  game.MetacriticScore,
			"developer_id":      game.DeveloperID,
			"publisher_id":      game.PublisherID,
			"review_summary_id": game.ReviewSummaryID,
		}).Error
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

// lookupRow is a lookup table model that exposes its primary key.
type lookupRow[T any] interface {
	*T
	key() uint
}

func (d *Developer) key() uint     { return d.DeveloperID }
func (p *Publisher) key() uint     { return p.PublisherID }
func (r *ReviewSummary) key() uint { return r.ReviewSummaryID }
func (g *Genre) key() uint         { return g.GenreID }

// getOrCreate returns the id of the row matching where, inserting it first if absent.
func getOrCreate[T any, P lookupRow[T]](db *gorm.DB, where T) (uint, error) {
	row := where
	if err := db.Where(where).FirstOrCreate(&row).Error; err != nil {
		return 0, err
	}
	return P(&row).key(), nil
}

// optionalID is getOrCreate for a field that may be absent.
func optionalID[T any, P lookupRow[T]](db *gorm.DB, value *string, build func(string) T) (*uint, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := getOrCreate[T, P](db, build(*value))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func toDate(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	d := datatypes.Date(*t)
	return &d
}

// TopGame is a game ranked on its latest sample date.
type TopGame struct {
	GameID   uint
	Title    string
	Position int
}

// LatestTopGames returns up to limit games ordered by their position on the
// most recent date each was sampled.
func (d *Database) LatestTopGames(ctx context.Context, limit int) ([]TopGame, error) {
	var rows []TopGame
	err := d.db.WithContext(ctx).
		Table("top_selling_history AS tsh").
		Distinct("g.title AS title", "tsh.game_id AS game_id", "tsh.position AS position").
		Joins("JOIN game g ON g.game_id = tsh.game_id").
		Where("tsh.sample_date = (SELECT MAX(t2.sample_date) FROM top_selling_history t2 WHERE t2.game_id = tsh.game_id)").
		Order("tsh.position").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, &types.StorageError{Backend: d.Name(), Err: fmt.Errorf("top games: %w", err)}
	}
	return rows, nil
}

// SaveMention appends a mention count row.
func (d *Database) SaveMention(ctx context.Context, gameID uint, count int, queryDate time.Time) error {
	row := TwitterMention{
		GameID:        gameID,
		MentionsCount: count,
		QueryDate:     datatypes.Date(queryDate),
	}
	if err := d.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return &types.StorageError{Backend: d.Name(), Err: fmt.Errorf("save mention: %w", err)}
	}
	return nil
}

// DB exposes the gorm handle for queries outside this package.
func (d *Database) DB() *gorm.DB { return d.db }

func (d *Database) Close() error {
	d.logger.Info("database closing", "games_persisted", d.count)
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
