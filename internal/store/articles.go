package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/seenimoa/sastocks/pkg/models"
)

// ArticleFilter narrows ListArticles. Zero fields do not filter.
type ArticleFilter struct {
	SymbolID   uint
	URL        string
	From       string // inclusive YYYY-MM-DD
	To         string // inclusive YYYY-MM-DD
	Unlabelled bool   // only articles without a sentiment label
	Limit      int
}

// CreateArticle inserts a and sets its generated ID.
func (s *Store) CreateArticle(ctx context.Context, a *models.Article) error {
	return persistErr("create", "article", s.db.WithContext(ctx).Create(a).Error)
}

// InsertArticleIfAbsent inserts a unless an article with the same URL is
// already stored. The check and the insert are one statement, so concurrent
// callers cannot store the same URL twice. created reports whether a was
// written; when it was, a.ID is set.
func (s *Store) InsertArticleIfAbsent(ctx context.Context, a *models.Article) (created bool, err error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return false, persistErr("upsert", "article", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ArticleByID returns the article with the given id, or nil when absent.
func (s *Store) ArticleByID(ctx context.Context, id uint) (*models.Article, error) {
	var a models.Article
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &a)
	if err != nil {
		return nil, persistErr("query", "article", err)
	}
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ArticleByURL returns the article stored under url, or nil when absent.
func (s *Store) ArticleByURL(ctx context.Context, url string) (*models.Article, error) {
	var a models.Article
	ok, err := first(s.db.WithContext(ctx).Where("url = ?", url), &a)
	if err != nil {
		return nil, persistErr("query", "article", err)
	}
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListArticles returns matching articles in id order.
func (s *Store) ListArticles(ctx context.Context, f ArticleFilter) ([]models.Article, error) {
	q := s.db.WithContext(ctx).Model(&models.Article{})
	if f.SymbolID != 0 {
		q = q.Where("symbol_id = ?", f.SymbolID)
	}
	if f.URL != "" {
		q = q.Where("url = ?", f.URL)
	}
	if f.From != "" {
		q = q.Where("published_on >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("published_on <= ?", f.To)
	}
	if f.Unlabelled {
		q = q.Where("sentiment_label IS NULL")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []models.Article
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, persistErr("query", "article", err)
	}
	return out, nil
}

// UpdateArticle applies fields to the article with the given id.
func (s *Store) UpdateArticle(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateByID(ctx, "article", &models.Article{}, id, fields)
}

// SetArticleSentiment records a classifier verdict on an article.
func (s *Store) SetArticleSentiment(ctx context.Context, id uint, label, rationale string) error {
	return s.UpdateArticle(ctx, id, map[string]any{
		"sentiment_label":     label,
		"sentiment_rationale": rationale,
	})
}

// DeleteArticle removes the article with the given id.
func (s *Store) DeleteArticle(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, "article", &models.Article{}, id)
}
