// Command notifyctl reads and follows a user's notifications from the terminal.
//
//	notifyctl [flags] list|count|read <id>|read-all|tail
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/pkg/client"
	"github.com/anonto42/socialpulse/backend/pkg/config"
	"github.com/caarlos0/env/v9"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

type cliConfig struct {
	BaseURL string `env:"NOTIFY_URL" envDefault:"http://localhost:8080"`
	Token   string `env:"NOTIFY_TOKEN"`
}

func main() {
	_ = godotenv.Load()
	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		fail(err)
	}

	baseURL := flag.String("url", cfg.BaseURL, "server base URL")
	token := flag.String("token", cfg.Token, "bearer token")
	page := flag.Int("page", 1, "page for list")
	limit := flag.Int("limit", 20, "page size for list")
	verbose := flag.Bool("v", false, "log reconnects")
	flag.Parse()

	if *token == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []client.Option{client.WithTimeout(10 * time.Second)}
	if *verbose {
		opts = append(opts, client.WithLogger(config.NewLogger("debug", "development")))
	}
	c := client.New(*baseURL, *token, opts...)

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "list":
		err = list(ctx, c, *page, *limit)
	case "count":
		var n int64
		if n, err = c.UnreadCount(ctx); err == nil {
			fmt.Println(n)
		}
	case "read":
		var id uint
		if id, err = parseID(flag.Args()[1:]); err == nil {
			err = c.MarkRead(ctx, id)
		}
	case "read-all":
		var n int64
		if n, err = c.MarkAllRead(ctx); err == nil {
			fmt.Printf("%d marked read\n", n)
		}
	case "tail":
		err = tail(ctx, c)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fail(err)
	}
}

// parseID reads the single positional id of `read <id>`
func parseID(args []string) (uint, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("read needs exactly one notification id, got %d arguments", len(args))
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid notification id %q", args[0])
	}
	return uint(id), nil
}

func list(ctx context.Context, c *client.Client, page, limit int) error {
	p, err := c.List(ctx, page, limit)
	if err != nil {
		return err
	}
	renderPage(os.Stdout, p)
	return nil
}

func renderPage(w io.Writer, p client.Page) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Kind", "Message", "Post", "When", "Read"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	for _, n := range p.Items {
		table.Append(row(n))
	}
	table.Render()

	fmt.Fprintf(w, "page %d/%d, %d total, %d unread\n", p.CurrentPage, p.TotalPages, p.TotalCount, p.UnreadCount)
}

func row(n models.NotificationView) []string {
	post := "-"
	switch {
	case n.Post != nil:
		post = excerpt(n.Post.Content, excerptLen)
	case n.PostID != nil:
		post = *n.PostID
	}
	read := color.FgYellow.Render("new")
	if n.IsRead {
		read = "yes"
	}
	return []string{strconv.FormatUint(uint64(n.ID), 10), string(n.Kind), n.Message, post, n.CreatedAt.Local().Format(time.DateTime), read}
}

const excerptLen = 24

// excerpt shortens s to at most n runes, marking the cut with "..."
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func tail(ctx context.Context, c *client.Client) error {
	inbox := client.NewInbox()
	err := c.Stream(ctx, inbox, func(n models.NotificationView) {
		fmt.Printf("%s %s  %s\n",
			color.FgGray.Render(n.CreatedAt.Local().Format(time.TimeOnly)),
			color.New(color.FgGreen, color.OpBold).Render(n.Message),
			color.FgCyan.Sprintf("(%d unread)", inbox.Unread()))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, color.FgRed.Render("error: ")+err.Error())
	os.Exit(1)
}
