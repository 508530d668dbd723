package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"
)

var htmlTags = strings.NewReplacer("<b>", "", "</b>", "", "<pre>", "", "</pre>", "",
	"&lt;", "<", "&gt;", ">", "&amp;", "&", "&#34;", `"`, "&#39;", "'")

// ConsoleNotifier writes reports as plain text, used when Telegram is not configured.
type ConsoleNotifier struct {
	W io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier { return &ConsoleNotifier{W: w} }

func (c *ConsoleNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	_, err := fmt.Fprintln(c.W, PlainText(text))
	return err
}

// PlainText strips the HTML markup the formatters emit.
func PlainText(text string) string {
	return htmlTags.Replace(text)
}
