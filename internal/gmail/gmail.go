// Package gmail reads job mail through the Gmail API.
//
// Messages are fetched with google.golang.org/api/gmail/v1 and normalized
// into types.EmailRecord for the pipeline.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	gm "google.golang.org/api/gmail/v1"

	"github.com/daviddao/jobmail/internal/textclean"
	"github.com/daviddao/jobmail/internal/types"
)

// MessageSummary is a search hit with its headers.
type MessageSummary struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
}

// AttachmentInfo holds metadata about a message attachment.
type AttachmentInfo struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// FullMessage is a complete message with a decoded plain-text body.
type FullMessage struct {
	ID          string           `json:"id"`
	ThreadID    string           `json:"thread_id"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Subject     string           `json:"subject"`
	Date        string           `json:"date"`
	Body        string           `json:"body"`
	Labels      []string         `json:"labels,omitempty"`
	Snippet     string           `json:"snippet,omitempty"`
	Attachments []AttachmentInfo `json:"attachments,omitempty"`
}

// Client wraps an authenticated Gmail service for one mailbox user.
type Client struct {
	svc  *gm.Service
	user string
	now  func() time.Time
}

// New returns a client for user ("me" for the authenticated account).
func New(svc *gm.Service, user string) *Client {
	if user == "" {
		user = "me"
	}
	return &Client{svc: svc, user: user, now: time.Now}
}

// ListIDs returns the ids of messages matching a Gmail query.
func (c *Client) ListIDs(ctx context.Context, query string, maxResults int64) ([]string, error) {
	resp, err := c.svc.Users.Messages.List(c.user).
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// Search finds messages matching a Gmail query and returns summaries.
// Messages that fail to load are skipped.
func (c *Client) Search(ctx context.Context, query string, maxResults int64) ([]MessageSummary, error) {
	ids, err := c.ListIDs(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	summaries := make([]MessageSummary, 0, len(ids))
	for _, id := range ids {
		detail, err := c.svc.Users.Messages.Get(c.user, id).
			Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").
			Context(ctx).
			Do()
		if err != nil {
			continue
		}

		headers := headerMap(detail.Payload)
		summaries = append(summaries, MessageSummary{
			ID:       detail.Id,
			ThreadID: detail.ThreadId,
			From:     headers["From"],
			To:       headers["To"],
			Subject:  defaultStr(headers["Subject"], "(no subject)"),
			Date:     headers["Date"],
			Snippet:  detail.Snippet,
		})
	}
	return summaries, nil
}

func (c *Client) get(ctx context.Context, id string) (*gm.Message, error) {
	msg, err := c.svc.Users.Messages.Get(c.user, id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return msg, nil
}

// ReadFull fetches a complete message by id.
func (c *Client) ReadFull(ctx context.Context, id string) (*FullMessage, error) {
	msg, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}
	headers := headerMap(msg.Payload)
	return &FullMessage{
		ID:          msg.Id,
		ThreadID:    msg.ThreadId,
		From:        headers["From"],
		To:          headers["To"],
		Subject:     defaultStr(headers["Subject"], "(no subject)"),
		Date:        headers["Date"],
		Body:        extractBody(msg.Payload),
		Labels:      msg.LabelIds,
		Snippet:     msg.Snippet,
		Attachments: extractAttachments(msg.Payload),
	}, nil
}

// Fetch loads a message and normalizes it for the pipeline.
func (c *Client) Fetch(ctx context.Context, id string) (types.EmailRecord, error) {
	msg, err := c.get(ctx, id)
	if err != nil {
		return types.EmailRecord{}, err
	}
	return ToRecord(msg, c.now()), nil
}

// ToRecord converts a Gmail message into an EmailRecord. The received time
// comes from the Date header, then Gmail's internal date, then now.
func ToRecord(msg *gm.Message, now time.Time) types.EmailRecord {
	headers := headerMap(msg.Payload)
	return types.EmailRecord{
		MessageID:  msg.Id,
		ThreadID:   msg.ThreadId,
		Subject:    headers["Subject"],
		From:       headers["From"],
		Body:       extractBody(msg.Payload),
		Snippet:    msg.Snippet,
		ReceivedAt: receivedAt(headers["Date"], msg.InternalDate, now),
	}
}

func receivedAt(date string, internalMillis int64, now time.Time) time.Time {
	if date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			return t.UTC()
		}
	}
	if internalMillis > 0 {
		return time.UnixMilli(internalMillis).UTC()
	}
	return now.UTC()
}

// extractBody returns the message text, preferring text/plain parts and
// converting HTML when that is all there is. Empty when nothing is readable.
func extractBody(payload *gm.MessagePart) string {
	if payload == nil {
		return ""
	}
	if plain := findPart(payload, "text/plain"); plain != "" {
		return textclean.NormalizeWhitespace(plain)
	}
	if html := findPart(payload, "text/html"); html != "" {
		return textclean.PlainText(html)
	}
	// Single-part message with some other text type.
	if len(payload.Parts) == 0 && payload.Body != nil && payload.Body.Data != "" {
		if decoded, err := decodeBase64URL(payload.Body.Data); err == nil {
			return textclean.PlainText(decoded)
		}
	}
	return ""
}

// findPart walks the MIME tree depth-first for the first non-empty part of mimeType.
func findPart(part *gm.MessagePart, mimeType string) string {
	if strings.EqualFold(part.MimeType, mimeType) && part.Filename == "" &&
		part.Body != nil && part.Body.Data != "" {
		if decoded, err := decodeBase64URL(part.Body.Data); err == nil {
			return decoded
		}
	}
	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

func extractAttachments(payload *gm.MessagePart) []AttachmentInfo {
	var attachments []AttachmentInfo

	var scan func(parts []*gm.MessagePart)
	scan = func(parts []*gm.MessagePart) {
		for _, part := range parts {
			if part.Filename != "" {
				att := AttachmentInfo{Filename: part.Filename, MimeType: part.MimeType}
				if part.Body != nil {
					att.Size = part.Body.Size
				}
				attachments = append(attachments, att)
			}
			scan(part.Parts)
		}
	}
	if payload != nil {
		scan(payload.Parts)
	}
	return attachments
}

// headerMap converts Gmail API headers into a simple key-value map.
func headerMap(payload *gm.MessagePart) map[string]string {
	if payload == nil {
		return map[string]string{}
	}
	m := make(map[string]string, len(payload.Headers))
	for _, h := range payload.Headers {
		m[h.Name] = h.Value
	}
	return m
}

// decodeBase64URL decodes Gmail's base64url content, with or without padding.
func decodeBase64URL(data string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
