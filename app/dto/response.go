package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

type ClientResponse struct {
	ID       int64   `json:"id"`
	OwnerID  *int64  `json:"owner_id"`
	Email    string  `json:"email"`
	Fullname string  `json:"fullname"`
	Comment  *string `json:"comment"`
}

func NewClientResponse(c entity.Client) ClientResponse {
	return ClientResponse{ID: c.ID, OwnerID: c.OwnerID, Email: c.Email, Fullname: c.Fullname, Comment: c.Comment}
}

type MailResponse struct {
	ID        int64  `json:"id"`
	OwnerID   *int64 `json:"owner_id"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	MailingID *int64 `json:"mailing_id"`
}

func NewMailResponse(m entity.Mail) MailResponse {
	return MailResponse{ID: m.ID, OwnerID: m.OwnerID, Subject: m.Subject, Content: m.Content, MailingID: m.MailingID}
}

type MailingResponse struct {
	ID           int64     `json:"id"`
	OwnerID      *int64    `json:"owner_id"`
	MailID       *int64    `json:"mail_id"`
	RecipientIDs []int64   `json:"recipient_ids,omitempty"`
	Start        time.Time `json:"start"`
	Next         time.Time `json:"next"`
	Finish       time.Time `json:"finish"`
	Status       string    `json:"status"`
	Frequency    string    `json:"frequency"`
	IsActivated  bool      `json:"is_activated"`
}

func NewMailingResponse(m entity.Mailing) MailingResponse {
	return MailingResponse{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		MailID:       m.MailID,
		RecipientIDs: m.RecipientIDs,
		Start:        m.Start,
		Next:         m.Next,
		Finish:       m.Finish,
		Status:       string(m.Status),
		Frequency:    string(m.Frequency),
		IsActivated:  m.IsActivated,
	}
}

type LogResponse struct {
	ID             int64     `json:"id"`
	MailingID      *int64    `json:"mailing_id"`
	ClientID       *int64    `json:"client_id"`
	Occurrence     time.Time `json:"occurrence"`
	AttemptTime    time.Time `json:"attempt_time"`
	Status         string    `json:"status"`
	ServerResponse *string   `json:"server_response"`
}

func NewLogResponse(l entity.Log) LogResponse {
	return LogResponse{
		ID:             l.ID,
		MailingID:      l.MailingID,
		ClientID:       l.ClientID,
		Occurrence:     l.Occurrence,
		AttemptTime:    l.AttemptTime,
		Status:         l.Status,
		ServerResponse: l.ServerResponse,
	}
}

type ArticleResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Preview     string    `json:"preview"`
	PublishedAt time.Time `json:"published_at"`
}

type IndexResponse struct {
	TotalMailings  int64             `json:"total_mailings"`
	ActiveMailings int64             `json:"active_mailings"`
	UniqueClients  int64             `json:"unique_clients"`
	Articles       []ArticleResponse `json:"articles"`
}

func NewIndexResponse(s entity.IndexStats) IndexResponse {
	out := IndexResponse{
		TotalMailings:  s.TotalMailings,
		ActiveMailings: s.ActiveMailings,
		UniqueClients:  s.UniqueClients,
		Articles:       make([]ArticleResponse, 0, len(s.Articles)),
	}
	for _, a := range s.Articles {
		out.Articles = append(out.Articles, ArticleResponse{ID: a.ID, Title: a.Title, Preview: a.Preview, PublishedAt: a.PublishedAt})
	}
	return out
}

// Map converts a slice with the given response constructor.
func Map[T any, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
