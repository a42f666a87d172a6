package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sonnes/parley/archive"
	"github.com/sonnes/parley/chat"
	"github.com/sonnes/parley/core"
	"github.com/sonnes/parley/events"
	"github.com/sonnes/parley/pgstore"
	"github.com/sonnes/parley/redact"
	"github.com/sonnes/parley/render"
	htmlrender "github.com/sonnes/parley/render/html"
	jsonrender "github.com/sonnes/parley/render/json"
	"github.com/sonnes/parley/render/terminal"
	"github.com/sonnes/parley/reply"
	"github.com/sonnes/parley/session"
	"github.com/sonnes/parley/telemetry"
	"github.com/urfave/cli/v3"
)

// app wires the session store, its persistence listeners, the reply client
// and the controller from CLI flags.
type app struct {
	store      *session.Store
	client     *reply.Client
	controller *chat.Controller
	telemetry  *telemetry.Provider
	logger     *log.Logger

	closers []func()
}

func newApp(ctx context.Context, cmd *cli.Command, opts ...chat.Option) (*app, error) {
	a := &app{logger: log.Default()}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "parley",
		ServiceVersion: version,
		Endpoint:       cmd.String("otlp-endpoint"),
	})
	if err != nil {
		return nil, err
	}
	a.telemetry = tp

	var (
		listeners []session.Listener
		restored  [][]core.Conversation
	)

	if path := cmd.String("archive"); path != "" {
		sink, err := archive.Open(path, a.logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		listeners = append(listeners, sink.Listen)
		restored = append(restored, sink.Conversations())
	}

	if url := cmd.String("database-url"); url != "" {
		pg, err := pgstore.New(ctx, url, a.logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)

		convs, err := pg.List(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		listeners = append(listeners, pg.Listen)
		restored = append(restored, convs)
	}

	if url := cmd.String("nats-url"); url != "" {
		pub, err := events.Connect(url, cmd.String("nats-token"), a.logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		listeners = append(listeners, pub.Listen)
	}

	a.store = session.New(
		session.WithLogger(a.logger),
		session.WithListener(session.Fanout(listeners...)),
	)
	a.store.Restore(mergeConversations(restored...))

	clientOpts := []reply.Option{
		reply.WithTimeout(cmd.Duration("timeout")),
		reply.WithLogger(a.logger),
	}
	if tp.Enabled() {
		clientOpts = append(clientOpts, reply.WithTracerProvider(tp.TracerProvider))
	}
	if cmd.Bool("redact-outgoing") {
		r := redact.New(redact.Config{Secrets: true, PII: true})
		clientOpts = append(clientOpts, reply.WithRewrite(r.String))
	}
	a.client = reply.NewClient(cmd.String("endpoint"), clientOpts...)

	a.controller = chat.New(a.store, a.client, append([]chat.Option{chat.WithLogger(a.logger)}, opts...)...)

	a.logger.Debug("app ready",
		"endpoint", a.client.Endpoint(),
		"conversations", a.store.Len(),
		"tracing", tp.Enabled(),
	)
	return a, nil
}

// Close releases connections in reverse order and flushes traces.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil

	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.logger.Warn("telemetry shutdown", "err", err)
		}
	}
}

// mergeConversations combines restore sources. When an id appears more than
// once, the most recently updated copy wins.
func mergeConversations(sources ...[]core.Conversation) []core.Conversation {
	byID := make(map[string]int)
	var out []core.Conversation
	for _, src := range sources {
		for _, c := range src {
			i, ok := byID[c.ID]
			if !ok {
				byID[c.ID] = len(out)
				out = append(out, c)
				continue
			}
			if c.UpdatedAt.After(out[i].UpdatedAt) {
				out[i] = c
			}
		}
	}
	return out
}

var renderers = map[string]func() render.Renderer{
	"terminal": func() render.Renderer { return terminal.New() },
	"html":     func() render.Renderer { return htmlrender.New() },
	"json":     func() render.Renderer { return &jsonrender.Renderer{Indent: true} },
}

func renderer(name string) (render.Renderer, error) {
	fn, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", name)
	}
	return fn(), nil
}

// newRedactor builds a Redactor from CLI flags. Returns nil when --no-redact is set.
func newRedactor(cmd *cli.Command) (*redact.Redactor, error) {
	if cmd.Bool("no-redact") {
		return nil, nil
	}

	cfg := redact.Config{}
	rules := cmd.StringSlice("redact")

	if len(rules) == 0 {
		cfg.Secrets = true
		cfg.PII = true
	} else {
		for _, r := range rules {
			switch r {
			case "secrets":
				cfg.Secrets = true
			case "pii":
				cfg.PII = true
			default:
				rule, ok := redact.RuleByName(r)
				if !ok {
					return nil, fmt.Errorf("unknown redaction rule %q", r)
				}
				cfg.ExtraRules = append(cfg.ExtraRules, rule)
			}
		}
	}

	return redact.New(cfg), nil
}
