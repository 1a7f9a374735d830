// Package discovery provides an off-request-path service inventory: a
// deadline-bounded NATS request/response scrape, independent of the engine
// registry the streaming core uses (spec §1's "model discovery... out of
// scope" boundary — this is the admin-surface inventory, not the per-call
// lookup).
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
)

const collectServicesSubject = "$SRV.PING"

// ServiceInfo is one reply to a $SRV.PING broadcast, matching the NATS
// micro-services protocol's PING response envelope.
type ServiceInfo struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Client scrapes the currently-running service set from a NATS cluster.
type Client struct {
	conn *nats.Conn
}

func NewClient(url string) (*Client, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Close() {
	c.conn.Close()
}

// CollectServices broadcasts a PING and gathers replies until deadline
// elapses, deduplicating by (name, id). There is no fixed reply count to
// wait for — the deadline is the only termination signal, since any number
// of instances may be up at scrape time. The ping publish and the reply
// drain run concurrently via errgroup so a publish failure surfaces
// immediately instead of waiting out the full deadline first.
func (c *Client) CollectServices(ctx context.Context, deadline time.Duration) ([]ServiceInfo, error) {
	sub, err := c.conn.SubscribeSync(nats.NewInbox())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe for service replies: %w", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	var (
		mu       sync.Mutex
		seen     = map[string]struct{}{}
		services []ServiceInfo
	)

	deadlineCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	group, gctx := errgroup.WithContext(deadlineCtx)

	group.Go(func() error {
		if err := c.conn.PublishRequest(collectServicesSubject, sub.Subject, nil); err != nil {
			return fmt.Errorf("failed to publish service discovery ping: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		for {
			msg, err := sub.NextMsgWithContext(gctx)
			if err != nil {
				// Deadline (or parent cancellation) reached: a partial
				// inventory is the expected steady-state result, not a
				// failure worth propagating from this goroutine.
				return nil
			}

			var info ServiceInfo
			if err := json.Unmarshal(msg.Data, &info); err != nil {
				continue
			}

			key := info.Name + "/" + info.ID

			mu.Lock()
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				services = append(services, info)
			}
			mu.Unlock()
		}
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return services, nil
}
