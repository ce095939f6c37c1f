package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

const (
	// SnippetLength is the number of characters of content kept in a snippet
	SnippetLength = 23
	// SnippetSuffix is appended to every non-empty snippet
	SnippetSuffix = "..."
	// TagSeparator joins tags for display
	TagSeparator = ", "
)

// Article represents a blog article.
// Snippet and the joined tags string are derived on read and never stored.
type Article struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title" validate:"notblank"`
	Content   string    `json:"content" db:"content"`
	Version   int       `json:"version" db:"version" validate:"gte=0"`
	Tags      []string  `json:"tags" db:"tags"` // text[] in PostgreSQL
	AuthorID  *int64    `json:"authorId" db:"author_id"`
	Author    *User     `json:"author,omitempty" db:"-"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NewArticle builds an unsaved article with the defaults applied
func NewArticle(title, content string, tags []string) *Article {
	if tags == nil {
		tags = []string{}
	}
	return &Article{
		Title:   title,
		Content: content,
		Version: 0,
		Tags:    tags,
	}
}

// Snippet returns the first SnippetLength characters of the content followed
// by SnippetSuffix, or an empty string when there is no content.
func (a *Article) Snippet() string {
	if a == nil || a.Content == "" {
		return ""
	}
	runes := []rune(a.Content)
	if len(runes) > SnippetLength {
		runes = runes[:SnippetLength]
	}
	return string(runes) + SnippetSuffix
}

// TagsDisplay joins the tags for presentation
func (a *Article) TagsDisplay() string {
	if a == nil {
		return ""
	}
	return strings.Join(a.Tags, TagSeparator)
}

// Truncate cuts the content down to its first length characters. A negative
// length counts from the end, so -3 drops the last three characters.
// It only changes the in-memory value; callers persist it through an update.
func (a *Article) Truncate(length int) {
	runes := []rune(a.Content)
	if length < 0 {
		length += len(runes)
		if length < 0 {
			length = 0
		}
	}
	if length >= len(runes) {
		return
	}
	a.Content = string(runes[:length])
}

// BumpVersion is the pre-persist step of every update
func (a *Article) BumpVersion() {
	a.Version++
}

// SetAuthor attaches the author under the "author" role
func (a *Article) SetAuthor(u *User) {
	if u == nil {
		a.AuthorID = nil
		a.Author = nil
		return
	}
	id := u.ID
	a.AuthorID = &id
	a.Author = u
}

// NormalizeTags guarantees the stored tags are a sequence, never nil
func (a *Article) NormalizeTags() {
	if a.Tags == nil {
		a.Tags = []string{}
	}
}

// articleJSON is the wire representation of an Article
type articleJSON struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Snippet   string    `json:"snippet"`
	Version   int       `json:"version"`
	Tags      string    `json:"tags"`
	AuthorID  *int64    `json:"authorId"`
	Author    *User     `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON emits the derived snippet and the joined tags string
func (a Article) MarshalJSON() ([]byte, error) {
	return json.Marshal(articleJSON{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Snippet:   a.Snippet(),
		Version:   a.Version,
		Tags:      a.TagsDisplay(),
		AuthorID:  a.AuthorID,
		Author:    a.Author,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	})
}

// CreateArticleInput is the payload accepted when creating an article.
// Pointers distinguish a missing field from an empty one.
type CreateArticleInput struct {
	Title   *string  `json:"title" validate:"required,notblank"`
	Content *string  `json:"content" validate:"required"`
	Tags    []string `json:"tags"`
}

// ArticleChanges holds the fields an update may change; nil means untouched.
// Decoding from JSON also remembers which required fields were sent as an
// explicit null, which CheckNulls reports.
type ArticleChanges struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`

	nullFields []string
}

// requiredFields may never be cleared with null
var requiredFields = []string{"title", "content"}

// UnmarshalJSON decodes the changes and records explicit nulls on required fields
func (c *ArticleChanges) UnmarshalJSON(data []byte) error {
	type plain ArticleChanges
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = ArticleChanges(p)
	c.nullFields = nil
	for _, field := range requiredFields {
		for key, value := range raw {
			if strings.EqualFold(key, field) && string(bytes.TrimSpace(value)) == "null" {
				c.nullFields = append(c.nullFields, field)
				break
			}
		}
	}
	return nil
}

// CheckNulls returns a *ValidationError naming every required field that
// was explicitly set to null
func (c ArticleChanges) CheckNulls() error {
	if len(c.nullFields) == 0 {
		return nil
	}
	ve := NewValidationError(c.nullFields[0], c.nullFields[0]+" cannot be null", nil)
	for _, field := range c.nullFields[1:] {
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: field + " cannot be null"})
	}
	return ve
}

// Apply copies the provided fields onto the article
func (c ArticleChanges) Apply(a *Article) {
	if c.Title != nil {
		a.Title = *c.Title
	}
	if c.Content != nil {
		a.Content = *c.Content
	}
	if c.Tags != nil {
		a.Tags = *c.Tags
	}
	a.NormalizeTags()
}
