// Package notify posts crawl results to a Slack channel. Notification is
// best-effort: every failure here is logged and swallowed, never
// surfaced to the sync job.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/wafflestudio/siksha-crawler/internal/store"
)

const postMessageURL = "https://slack.com/api/chat.postMessage"

type Notifier struct {
	client  *resty.Client
	token   string
	channel string
}

func New(token, channel string) *Notifier {
	return &Notifier{
		client:  resty.New().SetTimeout(100 * time.Second),
		token:   token,
		channel: channel,
	}
}

// Send posts one message. Without a token it logs and returns.
func (n *Notifier) Send(ctx context.Context, text string) {
	if n.token == "" {
		slog.Info("no slack token provided, skipping message", "text", text)
		return
	}
	resp, err := n.client.R().
		SetContext(ctx).
		SetAuthToken(n.token).
		SetFormData(map[string]string{
			"channel": n.channel,
			"text":    text,
		}).
		Post(postMessageURL)
	if err != nil {
		slog.Error("failed to send slack message", "error", err)
		return
	}
	if resp.IsError() {
		slog.Error("slack api returned error", "status", resp.StatusCode(), "body", resp.String())
	}
}

// NewRestaurants announces restaurant insertions; silent when empty.
func (n *Notifier) NewRestaurants(ctx context.Context, restaurants []store.NewRestaurant) {
	slog.Info("new restaurants", "count", len(restaurants))
	if len(restaurants) == 0 {
		return
	}
	names := make([]string, 0, len(restaurants))
	for _, r := range restaurants {
		names = append(names, r.NameKR)
	}
	n.Send(ctx, fmt.Sprintf("%d new restaurants found: \n%s", len(restaurants), body(names, nil)))
}

// NewMenus announces menu insertions. Merged multi-line names (those
// containing a ":") are bolded so they stand out for review.
func (n *Notifier) NewMenus(ctx context.Context, menus []store.Menu) {
	slog.Info("new menus", "count", len(menus))
	n.Send(ctx, fmt.Sprintf("%d new menus found: \n%s", len(menus), body(menuNames(menus), func(name string) bool {
		return strings.Contains(name, ":")
	})))
}

func (n *Notifier) EditedMenus(ctx context.Context, menus []store.Menu) {
	slog.Info("menus edited", "count", len(menus))
	if len(menus) == 0 {
		return
	}
	n.Send(ctx, fmt.Sprintf("%d menus edited: \n%s", len(menus), body(menuNames(menus), nil)))
}

func (n *Notifier) DeletedMenus(ctx context.Context, menus []store.Menu) {
	slog.Info("menus deleted", "count", len(menus))
	if len(menus) == 0 {
		return
	}
	n.Send(ctx, fmt.Sprintf("%d menus deleted: \n%s", len(menus), body(menuNames(menus), nil)))
}

func menuNames(menus []store.Menu) []string {
	names := make([]string, 0, len(menus))
	for _, m := range menus {
		names = append(names, m.NameKR)
	}
	return names
}

// body quotes names five per line; bold marks the ones the predicate
// selects.
func body(names []string, bold func(string) bool) string {
	var b strings.Builder
	for i, name := range names {
		if bold != nil && bold(name) {
			fmt.Fprintf(&b, "*%q* ", name)
		} else {
			fmt.Fprintf(&b, "%q ", name)
		}
		if i%5 == 4 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
