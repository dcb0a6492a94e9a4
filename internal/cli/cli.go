// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fluffyriot/notbadfeed/internal/feedapi"
	"golang.org/x/term"
)

// ReadPassword prompts on out and reads a line from the terminal without
// echoing it.
func ReadPassword(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func HandleLogin(ctx context.Context, client *feedapi.Client, out io.Writer, email string, password func() (string, error)) error {
	if email == "" {
		return errors.New("--email is required")
	}

	pw, err := password()
	if err != nil {
		return err
	}

	resp, err := client.Login(ctx, email, pw)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(out, "user_id: %d\n", resp.ID)
	fmt.Fprintf(out, "token:   %s\n", resp.Token)
	if resp.ExpiresAt != "" {
		fmt.Fprintf(out, "expires: %s\n", resp.ExpiresAt)
	}
	return nil
}

func HandleFeed(ctx context.Context, client *feedapi.Client, out io.Writer, token string, userID int) error {
	posts, err := client.Feed(feedapi.WithToken(ctx, token), userID)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	if len(posts) == 0 {
		fmt.Fprintln(out, "No posts.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAUTHOR\tPOSTED\tCAPTION")
	for _, p := range posts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Username, feedapi.FormatLocal(p.CreatedAt, time.Local), oneLine(p.Caption))
	}
	return w.Flush()
}

func HandlePosts(ctx context.Context, client *feedapi.Client, out io.Writer, token string, userID int) error {
	posts, err := client.UserPosts(feedapi.WithToken(ctx, token), userID)
	if err != nil {
		return fmt.Errorf("failed to fetch posts: %w", err)
	}

	if len(posts) == 0 {
		fmt.Fprintln(out, "No posts.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOSTED\tIMAGE\tCAPTION")
	for _, p := range posts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, feedapi.FormatLocal(p.CreatedAt, time.Local), p.ImageURL, oneLine(p.Caption))
	}
	return w.Flush()
}

func HandleComments(ctx context.Context, client *feedapi.Client, out io.Writer, token string, postID int) error {
	comments, err := client.Comments(feedapi.WithToken(ctx, token), postID)
	if err != nil {
		return fmt.Errorf("failed to fetch comments for post %d: %w", postID, err)
	}

	if len(comments) == 0 {
		fmt.Fprintln(out, "No comments.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tPOSTED\tCONTENT")
	for _, c := range comments {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", c.ID, c.UserID, feedapi.FormatLocal(c.CreatedAt, time.Local), oneLine(c.Content))
	}
	return w.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
