package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"configdesk/internal/editor"
	"configdesk/internal/form"
	"configdesk/internal/messages"
	"configdesk/internal/monitor"
	"configdesk/internal/remote"
	"configdesk/internal/store"
	"configdesk/internal/tree"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// replaceConsumer is the durable consumer applying replace commands.
const replaceConsumer = "CONFIG_REPLACE"

// App is the assembled service.
type App struct {
	cfg       *AppConfig
	js        jetstream.JetStream
	docs      *store.Service
	editor    *EditorHandlers
	monitor   *monitor.Source
	publisher *messages.Publisher
}

// Setup creates the streams and the document store and builds the editor.
func Setup(ctx context.Context, nc *nats.Conn, cfg *AppConfig) (*App, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "COMMAND",
		Subjects:  []string{"command.>"},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("COMMAND stream: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     "EVENT",
		Subjects: []string{"event.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("EVENT stream: %w", err)
	}
	slog.Info("streams 'COMMAND' and 'EVENT' ready")

	collection, err := tree.ParsePath(cfg.EditorCfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("editor collection: %w", err)
	}

	var st store.Store
	switch cfg.StoreCfg.Backend {
	case "kv":
		st, err = store.OpenKV(ctx, js, jetstream.FileStorage)
		if err != nil {
			return nil, err
		}
		slog.Info("document store", "backend", "kv", "bucket", store.Bucket)
	case "file":
		st = store.NewFileStore(cfg.StoreCfg.File)
		slog.Info("document store", "backend", "file", "path", cfg.StoreCfg.File)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreCfg.Backend)
	}

	publisher := messages.NewPublisher(js)
	docs := store.NewService(st, publisher, collection, slog.Default())
	if seeded, err := docs.Seed(ctx, cfg.StoreCfg.Seed); err != nil {
		return nil, err
	} else if seeded {
		slog.Info("document seeded", "file", cfg.StoreCfg.Seed)
	}

	reg, err := newRegistry(cfg, collection)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:       cfg,
		js:        js,
		docs:      docs,
		editor:    NewEditorHandlers(reg, js, publisher, slog.Default()),
		publisher: publisher,
	}
	if cfg.Flags.Monitor {
		app.monitor = monitor.NewSource(slog.Default())
		app.reconfigureMonitor(ctx)
	}
	return app, nil
}

// newRegistry builds the editor sessions' shared settings.
func newRegistry(cfg *AppConfig, collection tree.Path) (*editor.Registry, error) {
	ec := cfg.EditorCfg
	policy, err := form.ParsePolicy(ec.Coercion)
	if err != nil {
		return nil, err
	}
	tpl, err := editor.LoadTemplate(ec.TemplatePatch)
	if err != nil {
		return nil, err
	}

	client := remote.NewClient(cfg.RemoteURL(), ec.RequestTimeout)
	client.Source = "editor"

	return editor.NewRegistry(client, editor.Options{
		Projector: form.NewProjector(form.NewClassifier(ec.SensitiveNames...), collection),
		Collector: form.Collector{Policy: policy},
		Editor:    &editor.CollectionEditor{Path: collection, Template: tpl},
		Logger:    slog.Default(),
	}), nil
}

// Handler returns the HTTP routes.
func (a *App) Handler() http.Handler {
	svc := Services{
		Documents: a.docs,
		Editor:    a.editor,
		Cookies:   NewCookieStore(a.cfg.HTTPSrvCfg.SessionKey),
	}
	if a.monitor != nil {
		svc.Monitor = a.monitor
	}
	return NewRouter(svc)
}

// Run applies replace commands from the COMMAND stream, follows replaced
// documents for the monitor and sweeps idle editor sessions until ctx ends.
func (a *App) Run(ctx context.Context) {
	if err := a.consumeReplaceCommands(ctx); err != nil {
		slog.Error("replace command consumer", "err", err)
	}
	if a.monitor != nil {
		if err := a.followReplacements(ctx); err != nil {
			slog.Error("monitor event consumer", "err", err)
		}
		defer a.monitor.Close()
	}

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()

	slog.Info("configdesk is up")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Run: shutdown requested")
			return
		case <-sweep.C:
			a.editor.Sweep(a.cfg.EditorCfg.SessionIdle)
		}
	}
}

func (a *App) consumeReplaceCommands(ctx context.Context) error {
	consumer, err := a.js.CreateOrUpdateConsumer(ctx, "COMMAND", jetstream.ConsumerConfig{
		Durable:       replaceConsumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: messages.ConfigReplaceSubject,
	})
	if err != nil {
		return err
	}
	cc, err := consumer.Consume(func(msg jetstream.Msg) { a.handleReplace(ctx, msg) })
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		cc.Stop()
	}()
	return nil
}

func (a *App) handleReplace(ctx context.Context, msg jetstream.Msg) {
	cmd, err := messages.DecodeReplaceCommand(msg.Data())
	if err != nil {
		slog.Warn("rejected replace command", "err", err)
		_ = msg.Term()
		return
	}
	source := cmd.Source
	if source == "" {
		source = "nats"
	}
	_, err = a.docs.Replace(ctx, cmd.Document, source, cmd.CorrelationID)
	countDocumentOp("replace", err)
	switch {
	case errors.Is(err, tree.ErrInvalidName),
		errors.Is(err, tree.ErrUnsupportedValue),
		errors.Is(err, tree.ErrNotObject),
		errors.Is(err, tree.ErrMalformedJSON):
		slog.Warn("rejected replace command", "source", source, "err", err)
		_ = msg.Term()
	case err != nil:
		slog.Error("replace command", "source", source, "err", err)
		_ = msg.Nak()
	default:
		_ = msg.Ack()
	}
}

func (a *App) followReplacements(ctx context.Context) error {
	cons, err := a.js.CreateConsumer(ctx, "EVENT", jetstream.ConsumerConfig{
		AckPolicy:         jetstream.AckNonePolicy,
		FilterSubject:     messages.ConfigReplacedSubject,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: time.Minute,
	})
	if err != nil {
		return err
	}
	cc, err := cons.Consume(func(jetstream.Msg) { a.reconfigureMonitor(ctx) })
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		cc.Stop()
	}()
	return nil
}

func (a *App) reconfigureMonitor(ctx context.Context) {
	t, err := a.docs.Get(ctx)
	countDocumentOp("load", err)
	if err != nil {
		slog.Warn("monitor: load document", "err", err)
		return
	}
	if err := a.monitor.Reconfigure(ctx, t); err != nil {
		slog.Warn("monitor: database settings", "err", err)
	}
}
