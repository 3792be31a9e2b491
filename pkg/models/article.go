package models

import (
	"strings"
	"time"
)

// Sentiment labels produced by a classifier.
const (
	SentimentYes     = "YES"
	SentimentNo      = "NO"
	SentimentUnknown = "UNKNOWN"
)

// KeywordSeparator joins an article's keyword list into a single column.
const KeywordSeparator = ", "

// Article is a news item associated with a Symbol. URL is the dedup key.
type Article struct {
	ID                 uint      `gorm:"primaryKey"                   json:"id"`
	PublishedOn        string    `gorm:"size:10;index;not null"       json:"published_on"` // YYYY-MM-DD
	Title              string    `gorm:"type:text"                    json:"title"`
	Description        string    `gorm:"type:text"                    json:"description"`
	URL                string    `gorm:"size:768;uniqueIndex;not null" json:"url"`
	Author             string    `gorm:"size:255"                     json:"author"`
	Keywords           string    `gorm:"type:text"                    json:"keywords"`
	Publisher          string    `gorm:"size:255"                     json:"publisher"`
	ImageURL           string    `gorm:"type:text"                    json:"image_url"`
	AMPURL             string    `gorm:"type:text"                    json:"amp_url"`
	SymbolID           uint      `gorm:"index;not null"               json:"symbol_id"`
	SentimentLabel     *string   `gorm:"size:16"                      json:"sentiment_label,omitempty"`
	SentimentRationale *string   `gorm:"type:text"                    json:"sentiment_rationale,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Article) TableName() string { return "articles" }

// KeywordList splits the stored keyword column back into its parts.
func (a Article) KeywordList() []string {
	if a.Keywords == "" {
		return nil
	}
	return strings.Split(a.Keywords, KeywordSeparator)
}

// JoinKeywords serialises a keyword list for storage. An empty list yields "".
func JoinKeywords(keywords []string) string {
	return strings.Join(keywords, KeywordSeparator)
}

// IsLabelled reports whether a sentiment label has been assigned.
func (a Article) IsLabelled() bool {
	return a.SentimentLabel != nil
}

// ValidSentiment reports whether label is one of the known sentiment labels.
func ValidSentiment(label string) bool {
	switch label {
	case SentimentYes, SentimentNo, SentimentUnknown:
		return true
	}
	return false
}
