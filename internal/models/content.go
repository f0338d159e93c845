package models

import "encoding/json"

type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "rascunho"
	ContentStatusPublished ContentStatus = "publicado"
)

// Content is a rich-text article. BodyHTML is the rendered document and
// BodyJSON the editor's structural state used to re-open it for editing.
type Content struct {
	ID        int64           `json:"id"`
	Title     string          `json:"titulo"`
	BodyHTML  string          `json:"conteudo"`
	BodyJSON  json.RawMessage `json:"conteudoJson,omitempty"`
	Category  string          `json:"categoria,omitempty"`
	Status    ContentStatus   `json:"status"`
	AuthorID  int64           `json:"autorId"`
	MediaURLs []string        `json:"mediaUrls,omitempty"`
	Active    bool            `json:"ativo"`
	CreatedAt Timestamp       `json:"createdAt"`
	UpdatedAt Timestamp       `json:"updatedAt"`
}

func (c Content) Published() bool {
	return c.Status == ContentStatusPublished
}

// ContentRequest is sent whole on create and on every edit.
type ContentRequest struct {
	Title     string          `json:"titulo" validate:"required,max=255"`
	BodyHTML  string          `json:"conteudo" validate:"required"`
	BodyJSON  json.RawMessage `json:"conteudoJson,omitempty"`
	Category  string          `json:"categoria,omitempty" validate:"max=100"`
	Status    ContentStatus   `json:"status,omitempty" validate:"omitempty,oneof=rascunho publicado"`
	AuthorID  int64           `json:"autorId" validate:"required,gt=0"`
	MediaURLs []string        `json:"mediaUrls,omitempty" validate:"omitempty,dive,url"`
}

// MediaUpload describes an asset stored by the upload endpoint.
type MediaUpload struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}
