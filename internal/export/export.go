// Package export writes emails out of the TUI: RFC 5322 .eml files for
// archival and sanitized HTML files for viewing in a browser.
package export

import (
	"fmt"
	"io"
	netmail "net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"mailsort/internal/model"
	"mailsort/internal/render"
)

// WriteEML writes email as a single-part RFC 5322 message. HTML bodies
// are sanitized before writing; plain text goes out as text/plain.
func WriteEML(w io.Writer, email model.Email) error {
	var h mail.Header
	h.SetDate(email.ReceivedAt)
	h.SetSubject(email.Subject)
	setFrom(&h, email.Sender)

	isHTML := strings.Contains(email.Body, "<") && strings.Contains(email.Body, ">")
	if isHTML {
		h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	} else {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	}

	mw, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating message writer: %w", err)
	}

	body := email.Body
	if isHTML {
		body = render.Render(email.Body)
	}
	if _, err := io.WriteString(mw, body); err != nil {
		mw.Close()
		return fmt.Errorf("writing message body: %w", err)
	}

	return mw.Close()
}

// EML writes email to dir as email-<id>.eml and returns the full path.
func EML(email model.Email, dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("email-%d.eml", email.ID))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	if err := WriteEML(f, email); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}

	return path, nil
}

// PreviewHTML writes a sanitized standalone HTML document for email to
// dir and returns the full path. The document carries only the sanitized
// body; scripts and active content never reach the browser.
func PreviewHTML(email model.Email, dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("email-%d.html", email.ID))

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", escapeTitle(email.Subject))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<p><b>From:</b> %s<br><b>Date:</b> %s</p>\n<hr>\n",
		escapeTitle(email.Sender), email.ReceivedAt.Format(time.RFC1123))
	b.WriteString(render.Render(email.Body))
	b.WriteString("\n</body>\n</html>\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return "", fmt.Errorf("writing preview %s: %w", path, err)
	}

	return path, nil
}

// Preview writes a sanitized HTML copy of email to the system temp
// directory and opens it in the default browser.
func Preview(email model.Email) error {
	path, err := PreviewHTML(email, os.TempDir())
	if err != nil {
		return err
	}
	return OpenBrowser("file://" + path)
}

// setFrom parses sender as an address with optional display name, falling
// back to the raw string when it does not parse.
func setFrom(h *mail.Header, sender string) {
	addr, err := netmail.ParseAddress(sender)
	if err != nil {
		h.Set("From", sender)
		return
	}
	h.SetAddressList("From", []*mail.Address{{Name: addr.Name, Address: addr.Address}})
}

func escapeTitle(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
