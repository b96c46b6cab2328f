package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/orgkit-dev/orgkit/internal/config"
	"github.com/orgkit-dev/orgkit/pkg/api"
	"github.com/orgkit-dev/orgkit/pkg/auth"
	"github.com/orgkit-dev/orgkit/pkg/storage"
	"github.com/orgkit-dev/orgkit/pkg/swr"
)

// defaultStateFile is used when the config does not name one. The CLI
// always persists: tokens saved by login must survive into the next
// invocation.
const defaultStateFile = "orgkit-state.json"

// stack is the assembled client: persistent storage, credentials, the
// refresh coordinator as the transport, the JSON client on top, and the
// stale-while-revalidate cache over reads.
type stack struct {
	cfg    *config.Config
	creds  *auth.Credentials
	coord  *auth.Coordinator
	client *api.Client
	cache  *swr.Cache
}

func buildStack(configPath string) (*stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	statePath := cfg.StateFile
	if statePath == "" {
		statePath = defaultStateFile
	}
	store, err := storage.NewFileStore(statePath)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}

	creds := auth.NewCredentials(store)
	coord := auth.NewCoordinator(creds, cfg.RefreshURL(),
		auth.WithLoginPath(cfg.LoginPath),
		auth.WithNavigator(auth.NavigatorFunc(func(path string) {
			info("Session expired. Run 'orgkit login' to sign in again.")
		})),
	)

	client := api.NewClient(cfg.BaseURL,
		api.WithHTTPClient(&http.Client{Transport: coord, Timeout: 30 * time.Second}),
	)
	cache := swr.New(store, swr.NewClientFetcher(client))

	return &stack{
		cfg:    cfg,
		creds:  creds,
		coord:  coord,
		client: client,
		cache:  cache,
	}, nil
}
