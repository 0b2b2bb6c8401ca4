package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gm "google.golang.org/api/gmail/v1"
)

func enc(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func part(mime, body string) *gm.MessagePart {
	return &gm.MessagePart{MimeType: mime, Body: &gm.MessagePartBody{Data: enc(body)}}
}

var now = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func TestToRecordPrefersPlainText(t *testing.T) {
	msg := &gm.Message{
		Id:       "m1",
		ThreadId: "t1",
		Snippet:  "Thank you for applying",
		Payload: &gm.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gm.MessagePartHeader{
				{Name: "Subject", Value: "Application received"},
				{Name: "From", Value: "Acme <no-reply@greenhouse.io>"},
				{Name: "Date", Value: "Fri, 10 Jan 2025 09:30:00 +0100"},
			},
			Parts: []*gm.MessagePart{
				part("text/html", "<p>HTML version</p>"),
				part("text/plain", "Plain   version\r\n\r\n\r\n\r\nend"),
			},
		},
	}

	rec := ToRecord(msg, now)
	assert.Equal(t, "m1", rec.MessageID)
	assert.Equal(t, "t1", rec.ThreadID)
	assert.Equal(t, "Application received", rec.Subject)
	assert.Equal(t, "Acme <no-reply@greenhouse.io>", rec.From)
	assert.Equal(t, "Plain version\n\nend", rec.Body)
	assert.Equal(t, time.Date(2025, 1, 10, 8, 30, 0, 0, time.UTC), rec.ReceivedAt)
}

func TestToRecordFallsBackToHTML(t *testing.T) {
	msg := &gm.Message{
		Id: "m2",
		Payload: &gm.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gm.MessagePart{{
				MimeType: "multipart/alternative",
				Parts:    []*gm.MessagePart{part("text/html", "<html><body><p>Thank you for applying</p></body></html>")},
			}},
		},
	}
	rec := ToRecord(msg, now)
	assert.Contains(t, rec.Body, "Thank you for applying")
	assert.NotContains(t, rec.Body, "<p>")
}

func TestReceivedAtFallbacks(t *testing.T) {
	internal := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, internal, receivedAt("garbage", internal.UnixMilli(), now))
	assert.Equal(t, now, receivedAt("", 0, now))
}

func TestExtractBodyEmpty(t *testing.T) {
	assert.Empty(t, extractBody(nil))
	assert.Empty(t, extractBody(&gm.MessagePart{MimeType: "multipart/mixed"}))
}

func TestAttachmentsSkippedInBody(t *testing.T) {
	payload := &gm.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gm.MessagePart{
			{MimeType: "text/plain", Filename: "resume.txt", Body: &gm.MessagePartBody{Data: enc("resume"), Size: 6}},
			part("text/plain", "Interview invitation"),
		},
	}
	assert.Equal(t, "Interview invitation", extractBody(payload))
	atts := extractAttachments(payload)
	assert.Equal(t, []AttachmentInfo{{Filename: "resume.txt", MimeType: "text/plain", Size: 6}}, atts)
}

func TestDecodeBase64URL(t *testing.T) {
	for _, in := range []string{
		base64.URLEncoding.EncodeToString([]byte("héllo?>")),
		base64.RawURLEncoding.EncodeToString([]byte("héllo?>")),
	} {
		got, err := decodeBase64URL(in)
		assert.NoError(t, err)
		assert.Equal(t, "héllo?>", got)
	}
}
