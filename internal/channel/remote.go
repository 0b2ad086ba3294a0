package channel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
	"github.com/danmuck/densecode/internal/protocol/frame"
	"github.com/danmuck/densecode/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

const (
	TransmitPath = "/v1/transmit"
	ContentType  = "application/octet-stream"
)

// Remote forwards transmissions to a channel server over HTTP. Transport
// failures and unavailable responses are retried with session backoff;
// every other error is returned as is.
type Remote struct {
	BaseURL string
	Token   string
	Max     int
	Session session.Config
	Limits  frame.Limits
	Client  *http.Client

	nextID atomic.Uint64
}

type RemoteOption func(*Remote)

func WithToken(token string) RemoteOption {
	return func(r *Remote) { r.Token = token }
}

func WithMaxSymbols(n int) RemoteOption {
	return func(r *Remote) { r.Max = n }
}

func WithSession(cfg session.Config) RemoteOption {
	return func(r *Remote) { r.Session = cfg }
}

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.Client = c }
}

// NewRemote validates the session's transport settings before building the
// client. With TLS enabled the base URL must be https.
func NewRemote(baseURL string, opts ...RemoteOption) (*Remote, error) {
	r := &Remote{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Max:     DefaultMaxSymbols,
		Session: session.DefaultConfig(),
		Limits:  frame.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Session.ValidateClientTransport(); err != nil {
		return nil, err
	}
	if r.Session.TLS.Enabled && !strings.HasPrefix(r.BaseURL, "https://") {
		return nil, fmt.Errorf("%w: %s is not an https url", session.ErrTLSRequired, r.BaseURL)
	}
	if r.Client == nil {
		client, err := newHTTPClient(r.Session)
		if err != nil {
			return nil, err
		}
		r.Client = client
	}
	return r, nil
}

func newHTTPClient(cfg session.Config) (*http.Client, error) {
	tlsCfg, err := cfg.ClientTLSConfig()
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.DialTimeout}).DialContext
	transport.TLSClientConfig = tlsCfg
	return &http.Client{Timeout: cfg.RequestTimeout, Transport: transport}, nil
}

func (r *Remote) MaxSymbols() int {
	return r.Max
}

func (r *Remote) Transmit(ctx context.Context, req Request) ([]bitstream.Bits, error) {
	if err := req.Validate(r.Max); err != nil {
		return nil, err
	}
	attempts := max(r.Session.MaxAttempts, 1)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := session.NextBackoffDelay(r.Session.Backoff, attempt-1, rng)
			if err := session.Sleep(ctx, delay); err != nil {
				return nil, ContextError(err)
			}
		}
		readouts, err := r.exchange(ctx, req)
		if err == nil {
			return readouts, nil
		}
		if ctxErr := ContextError(ctx.Err()); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, protocol.ErrChannelUnavailable) {
			return nil, err
		}
		lastErr = err
		log.Warn().
			Str("channel", r.BaseURL).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Err(err).
			Msg("remote_channel_retry")
	}
	return nil, lastErr
}

func (r *Remote) exchange(ctx context.Context, req Request) ([]bitstream.Bits, error) {
	f := frame.New(r.nextID.Add(1), frame.TypeTransmit, EncodeRequest(req))
	if r.Token != "" {
		f.Auth = []byte(r.Token)
	}
	var body bytes.Buffer
	if err := frame.WriteFrame(&body, f, r.Limits); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+TransmitPath, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", ContentType)

	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrChannelUnavailable, err)
	}
	defer resp.Body.Close()

	reply, err := frame.ReadFrame(resp.Body, r.Limits)
	if err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: status %d", protocol.ErrChannelUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %v", ErrRemote, resp.StatusCode, err)
	}
	if reply.Header.MessageID != f.Header.MessageID {
		return nil, fmt.Errorf("%w: reply id %d for request %d", ErrRemote, reply.Header.MessageID, f.Header.MessageID)
	}
	switch reply.Header.MessageType {
	case frame.TypeReadout:
	case frame.TypeError:
		return nil, DecodeError(reply.Payload)
	default:
		return nil, fmt.Errorf("%w: unexpected message type %d", ErrRemote, reply.Header.MessageType)
	}

	readouts, err := DecodeReadouts(reply.Payload)
	if err != nil {
		return nil, err
	}
	if len(readouts) != req.Trials {
		return nil, fmt.Errorf("%w: %d readouts for %d trials", ErrRemote, len(readouts), req.Trials)
	}
	for i, ro := range readouts {
		if ro.Len() != 2*len(req.Symbols) {
			return nil, fmt.Errorf("%w: readout %d has %d bits, want %d", ErrRemote, i, ro.Len(), 2*len(req.Symbols))
		}
	}
	return readouts, nil
}
