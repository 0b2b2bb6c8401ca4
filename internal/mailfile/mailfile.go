// Package mailfile reads raw RFC 822 messages (.eml files) into EmailRecords.
package mailfile

import (
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/daviddao/jobmail/internal/textclean"
	"github.com/daviddao/jobmail/internal/types"
)

// SnippetLength is the number of runes kept in the generated snippet.
const SnippetLength = 200

// Read parses a raw message. Missing headers leave fields empty and an
// unparseable Date falls back to now.
func Read(r io.Reader, now time.Time) (types.EmailRecord, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return types.EmailRecord{}, fmt.Errorf("parse message: %w", err)
	}

	body := textclean.NormalizeWhitespace(env.Text)
	if body == "" && env.HTML != "" {
		body = textclean.PlainText(env.HTML)
	}

	id := trimAngles(env.GetHeader("Message-ID"))
	thread := id
	if refs := strings.Fields(env.GetHeader("References")); len(refs) > 0 {
		thread = trimAngles(refs[0])
	}

	received := now.UTC()
	if t, err := mail.ParseDate(env.GetHeader("Date")); err == nil {
		received = t.UTC()
	}

	return types.EmailRecord{
		MessageID:  id,
		ThreadID:   thread,
		Subject:    env.GetHeader("Subject"),
		From:       env.GetHeader("From"),
		Body:       body,
		Snippet:    snippet(body),
		ReceivedAt: received,
	}, nil
}

// ReadFile parses the message at path. A message without a Message-ID
// header is identified by its file name.
func ReadFile(path string, now time.Time) (types.EmailRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.EmailRecord{}, err
	}
	defer f.Close()

	rec, err := Read(f, now)
	if err != nil {
		return types.EmailRecord{}, fmt.Errorf("%s: %w", path, err)
	}
	if rec.MessageID == "" {
		rec.MessageID = "file:" + filepath.Base(path)
		rec.ThreadID = rec.MessageID
	}
	return rec, nil
}

func snippet(body string) string {
	return textclean.Truncate(strings.Join(strings.Fields(body), " "), SnippetLength)
}

func trimAngles(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "<"), ">")
}
