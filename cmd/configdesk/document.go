package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"configdesk/internal/messages"
	"configdesk/internal/platform"
	"configdesk/internal/remote"
	"configdesk/internal/tree"
)

var (
	remoteURL      string
	natsURL        string
	requestTimeout time.Duration
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		t, err := c.Load(cmd.Context())
		if err != nil {
			return err
		}
		out, err := tree.EncodeIndent(t)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

var putCmd = &cobra.Command{
	Use:   "put FILE",
	Short: "Validate FILE and store it in place of the document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		t, err := tree.Decode(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if natsURL != "" {
			canonical, err := tree.Encode(t)
			if err != nil {
				return err
			}
			id, err := publishReplace(cmd.Context(), natsURL, canonical)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "queued %s (correlation %s)\n", args[0], id)
			return nil
		}
		c, err := client()
		if err != nil {
			return err
		}
		if err := c.Save(cmd.Context(), t); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "stored %s\n", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{getCmd, putCmd} {
		c.Flags().StringVar(&remoteURL, "url", "", "base URL of the server (default from config)")
		c.Flags().DurationVar(&requestTimeout, "timeout", 10*time.Second, "request timeout")
		rootCmd.AddCommand(c)
	}
	putCmd.Flags().StringVar(&natsURL, "nats", "", "queue the document as a replace command on this NATS server instead of posting it")
}

// publishReplace sends doc to the COMMAND stream and returns the correlation
// id carried by the resulting change event.
func publishReplace(ctx context.Context, url string, doc []byte) (string, error) {
	nc, err := nats.Connect(url, nats.Name("configdesk-cli"), nats.Timeout(requestTimeout))
	if err != nil {
		return "", fmt.Errorf("connect %s: %w", url, err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	id := uuid.NewString()
	cmd := messages.NewConfigReplaceCommand(doc, "cli").WithCorrelation(id)
	if err := messages.NewPublisher(js).PublishCommand(ctx, cmd); err != nil {
		return "", err
	}
	return id, nil
}

func client() (*remote.Client, error) {
	base := remoteURL
	if base == "" {
		cfg, err := platform.LoadAppConfig()
		if err != nil {
			return nil, err
		}
		base = cfg.RemoteURL()
	}
	c := remote.NewClient(base, requestTimeout)
	c.Source = "cli"
	return c, nil
}
