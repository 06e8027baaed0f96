package storage

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Developer is a game developer lookup row.
type Developer struct {
	DeveloperID uint   `gorm:"column:developer_id;primaryKey"`
	Name        string `gorm:"column:name;type:varchar(255);uniqueIndex;not null"`
}

func (Developer) TableName() string { return "developer" }

// Publisher is a game publisher lookup row.
type Publisher struct {
	PublisherID uint   `gorm:"column:publisher_id;primaryKey"`
	Name        string `gorm:"column:name;type:varchar(255);uniqueIndex;not null"`
}

func (Publisher) TableName() string { return "publisher" }

// ReviewSummary is a review summary label lookup row.
type ReviewSummary struct {
	ReviewSummaryID uint   `gorm:"column:review_summary_id;primaryKey"`
	Summary         string `gorm:"column:summary;type:varchar(255);uniqueIndex;not null"`
}

func (ReviewSummary) TableName() string { return "review_summary" }

// Genre is a genre lookup row.
type Genre struct {
	GenreID uint   `gorm:"column:genre_id;primaryKey"`
	Name    string `gorm:"column:name;type:varchar(255);uniqueIndex;not null"`
}

func (Genre) TableName() string { return "genre" }

// Game is one game, unique by title.
type Game struct {
	GameID          uint            `gorm:"column:game_id;primaryKey"`
	Title           string          `gorm:"column:title;type:varchar(255);uniqueIndex;not null"`
	Category        string          `gorm:"column:category;type:varchar(64)"`
	ReleaseDate     *datatypes.Date `gorm:"column:release_date"`
	MetacriticScore *int            `gorm:"column:metacritic_score"`
	DeveloperID     *uint           `gorm:"column:developer_id"`
	PublisherID     *uint           `gorm:"column:publisher_id"`
	ReviewSummaryID *uint           `gorm:"column:review_summary_id"`

	Developer     *Developer     `gorm:"foreignKey:DeveloperID;references:DeveloperID"`
	Publisher     *Publisher     `gorm:"foreignKey:PublisherID;references:PublisherID"`
	ReviewSummary *ReviewSummary `gorm:"foreignKey:ReviewSummaryID;references:ReviewSummaryID"`
	Genres        []Genre        `gorm:"many2many:game_genre;foreignKey:GameID;joinForeignKey:GameID;references:GenreID;joinReferences:GenreID"`
}

func (Game) TableName() string { return "game" }

// PriceHistory is one price sample of a game.
type PriceHistory struct {
	PriceHistoryID uint                `gorm:"column:price_history_id;primaryKey"`
	GameID         uint                `gorm:"column:game_id;index;not null"`
	Price          decimal.NullDecimal `gorm:"column:price;type:decimal(10,2)"`
	Currency       *string             `gorm:"column:currency;type:varchar(16)"`
	SampleDate     datatypes.Date      `gorm:"column:sample_date;not null"`

	Game Game `gorm:"foreignKey:GameID;references:GameID"`
}

func (PriceHistory) TableName() string { return "price_history" }

// TopSellingHistory is one rank sample of a game.
type TopSellingHistory struct {
	TopSellingHistoryID uint           `gorm:"column:top_selling_history_id;primaryKey"`
	GameID              uint           `gorm:"column:game_id;index;not null"`
	Position            int            `gorm:"column:position;not null"`
	SampleDate          datatypes.Date `gorm:"column:sample_date;not null"`

	Game Game `gorm:"foreignKey:GameID;references:GameID"`
}

func (TopSellingHistory) TableName() string { return "top_selling_history" }

// TwitterMention is the mention count for a game over one query window.
type TwitterMention struct {
	ID            uint           `gorm:"column:id;primaryKey"`
	GameID        uint           `gorm:"column:game_id;index;not null"`
	MentionsCount int            `gorm:"column:mentions_count;not null"`
	QueryDate     datatypes.Date `gorm:"column:query_date;not null"`

	Game Game `gorm:"foreignKey:GameID;references:GameID"`
}

func (TwitterMention) TableName() string { return "twitter" }

// allModels lists tables in dependency order for migration.
var allModels = []any{
	&Developer{},
	&Publisher{},
	&ReviewSummary{},
	&Genre{},
	&Game{},
	&PriceHistory{},
	&TopSellingHistory{},
	&TwitterMention{},
}
