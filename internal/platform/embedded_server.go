package platform

import (
	"context"
	"errors"
	"net/url"
	"time"

	"log/slog"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// EmbeddedServerConfig holds options for running the embedded server.
type EmbeddedServerConfig struct {
	InProcess       bool   `toml:"in_process"`
	EnableLogging   bool   `toml:"logging"`
	JetStream       bool   `toml:"jetstream"`
	JetStreamDomain string `toml:"domain"`
	LeafNodeURL     string `toml:"leaf_url"`   // empty disables leaf node
	LeafNodeCreds   string `toml:"leaf_creds"` // only used if LeafNodeURL is set
	StoreDir        string `toml:"store_dir"`  // JetStream file storage
	// Port for external clients. Ignored when InProcess.
	Port int `toml:"port"`
}

// RunEmbeddedServer starts an embedded NATS server and returns a client
// connection, the server instance and a channel closed over by ctx.
func RunEmbeddedServer(ctx context.Context, cfg EmbeddedServerConfig) (*nats.Conn, *server.Server, <-chan error, error) {
	var leafRemotes []*server.RemoteLeafOpts
	if cfg.LeafNodeURL != "" {
		leafURL, err := url.Parse(cfg.LeafNodeURL)
		if err != nil {
			return nil, nil, nil, err
		}
		leafRemotes = []*server.RemoteLeafOpts{{
			URLs:        []*url.URL{leafURL},
			Credentials: cfg.LeafNodeCreds,
		}}
	}

	opts := &server.Options{
		ServerName:      "configdesk",
		DontListen:      cfg.InProcess,
		JetStream:       cfg.JetStream,
		JetStreamDomain: cfg.JetStreamDomain,
		StoreDir:        cfg.StoreDir,
	}
	if !cfg.InProcess && cfg.Port != 0 {
		opts.Port = cfg.Port
	}
	if len(leafRemotes) > 0 {
		opts.LeafNode = server.LeafNodeOpts{Remotes: leafRemotes}
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.EnableLogging {
		ns.SetLogger(NewNATSServerLogger(slog.Default()), false, false)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, nil, nil, errors.New("NATS Server timeout")
	}

	clientOpts := []nats.Option{nats.Name("configdesk")}
	if cfg.InProcess {
		clientOpts = append(clientOpts, nats.InProcessServer(ns))
	}

	nc, err := nats.Connect(ns.ClientURL(), clientOpts...)
	if err != nil {
		ns.Shutdown()
		return nil, nil, nil, err
	}

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		// the caller shuts the server down; doing it here too panics in
		// nats-server when internal channels are closed twice
		errCh <- ctx.Err()
	}()

	return nc, ns, errCh, nil
}
