package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/pkg/client"
	"github.com/gookit/color"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.Disable()
	m.Run()
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    uint
		wantErr string
	}{
		{name: "valid", args: []string{"42"}, want: 42},
		{name: "missing", args: nil, wantErr: "exactly one"},
		{name: "extra", args: []string{"1", "2"}, wantErr: "exactly one"},
		{name: "not a number", args: []string{"abc"}, wantErr: `invalid notification id "abc"`},
		{name: "zero", args: []string{"0"}, wantErr: "invalid notification id"},
		{name: "negative", args: []string{"-3"}, wantErr: "invalid notification id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, err := parseID(tt.args)
			if tt.wantErr != "" {
				req.ErrorContains(err, tt.wantErr)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestRow(t *testing.T) {
	postID := "6650f1f2a1b2c3d4e5f60708"
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		view models.NotificationView
		want []string
	}{
		{
			name: "unread follow has no post",
			view: models.NotificationView{ID: 7, Kind: models.KindFollow, Message: "alice started following you", CreatedAt: at},
			want: []string{"7", "follow", "alice started following you", "-", "2026-05-01 09:30:00", "new"},
		},
		{
			name: "read like falls back to the post id",
			view: models.NotificationView{ID: 8, Kind: models.KindLike, Message: "alice liked your post", PostID: &postID, IsRead: true, CreatedAt: at},
			want: []string{"8", "like", "alice liked your post", postID, "2026-05-01 09:30:00", "yes"},
		},
		{
			name: "comment shows a shortened excerpt",
			view: models.NotificationView{
				ID: 9, Kind: models.KindComment, Message: "alice commented on your post", PostID: &postID,
				Post:      &models.PostSummary{ID: postID, Content: "sunset at the pier, again and again"},
				CreatedAt: at,
			},
			want: []string{"9", "comment", "alice commented on your post", "sunset at the pier, a...", "2026-05-01 09:30:00", "new"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, row(tt.view))
		})
	}
}

func TestExcerpt(t *testing.T) {
	req := require.New(t)
	req.Equal("short", excerpt("short", 10))
	req.Equal("exactly10!", excerpt("exactly10!", 10))
	req.Equal("héllo w...", excerpt("héllo wörld!", 10))
}

func TestRenderPage(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer

	renderPage(&out, client.Page{
		Items: []models.NotificationView{
			{ID: 2, Kind: models.KindLike, Message: "bob liked your post"},
			{ID: 1, Kind: models.KindFollow, Message: "carol started following you", IsRead: true},
		},
		CurrentPage: 1,
		TotalPages:  3,
		TotalCount:  41,
		UnreadCount: 5,
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	req.Len(lines, 4)
	req.Contains(strings.ToUpper(lines[0]), "MESSAGE")
	req.Contains(lines[1], "bob liked your post")
	req.Contains(lines[2], "carol started following you")
	req.Equal("page 1/3, 41 total, 5 unread", lines[3])
}
