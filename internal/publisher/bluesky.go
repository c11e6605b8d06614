package publisher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	DefaultBlueskyHost = "https://bsky.social"

	postCollection = "app.bsky.feed.post"
)

// Bluesky posts to a PDS over XRPC. It logs in lazily on the first publish
// and once more when a session from an earlier publish has expired.
type Bluesky struct {
	client   *xrpc.Client
	handle   string
	password string

	mu  sync.Mutex
	now func() time.Time
}

func NewBluesky(host, handle, password string) *Bluesky {
	if host == "" {
		host = DefaultBlueskyHost
	}
	return &Bluesky{
		client: &xrpc.Client{
			Host: strings.TrimRight(host, "/"),
			Client: &http.Client{
				Timeout: 30 * time.Second,
				Transport: &http.Transport{
					TLSClientConfig: &tls.Config{
						MinVersion: tls.VersionTLS12,
					},
				},
			},
		},
		handle:   handle,
		password: password,
		now:      time.Now,
	}
}

func (b *Bluesky) Publish(ctx context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	hadSession := b.client.Auth != nil
	err := b.post(ctx, text)
	if hadSession && sessionExpired(err) {
		b.client.Auth = nil
		err = b.post(ctx, text)
	}
	if err != nil {
		return fmt.Errorf("%w: bluesky: %v", ErrPublish, err)
	}
	return nil
}

func (b *Bluesky) post(ctx context.Context, text string) error {
	if b.client.Auth == nil {
		if err := b.login(ctx); err != nil {
			return err
		}
	}

	_, err := atproto.RepoCreateRecord(ctx, b.client, &atproto.RepoCreateRecord_Input{
		Collection: postCollection,
		Repo:       b.client.Auth.Did,
		Record: &lexutil.LexiconTypeDecoder{Val: &bsky.FeedPost{
			Text:      text,
			CreatedAt: b.now().UTC().Format(time.RFC3339),
		}},
	})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (b *Bluesky) login(ctx context.Context) error {
	session, err := atproto.ServerCreateSession(ctx, b.client, &atproto.ServerCreateSession_Input{
		Identifier: b.handle,
		Password:   b.password,
	})
	if err != nil {
		return fmt.Errorf("login as %s: %w", b.handle, err)
	}

	b.client.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}
	return nil
}

func sessionExpired(err error) bool {
	var xe *xrpc.Error
	if !errors.As(err, &xe) {
		return false
	}
	if xe.StatusCode == http.StatusUnauthorized {
		return true
	}

	var body *xrpc.XRPCError
	if errors.As(xe.Wrapped, &body) {
		return body.ErrStr == "ExpiredToken" || body.ErrStr == "InvalidToken"
	}
	return false
}
