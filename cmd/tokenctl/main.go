// tokenctl issues, verifies and revokes cluster bound tokens from the
// command line.
//
// Usage:
//
//	tokenctl [--config auth.yaml] issue-user --user ID [--ttl 1h] [--network CIDR]
//	tokenctl [--config auth.yaml] issue-api --user ID [--ttl 720h] [--network CIDR] [--claim k=v]
//	tokenctl [--config auth.yaml] revoke TOKEN_ID
//	tokenctl [--config auth.yaml] verify TOKEN
//	tokenctl [--config auth.yaml] migrate
//
// Without --config, options come from .env and AUTH_* environment variables.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-token"
	"github.com/goliatone/go-auth-token/config"
	"github.com/goliatone/go-auth-token/logging"
	"github.com/goliatone/go-auth-token/repository"
	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := pflag.NewFlagSet("tokenctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	configPath := global.String("config", "", "YAML configuration file (default: .env and environment)")

	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		return usageError("a command is required: issue-user, issue-api, revoke, verify or migrate")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	zl, err := logging.NewZap(cfg.GetLogLevel())
	if err != nil {
		return err
	}
	logger := logging.New(zl)
	defer logger.Sync()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "issue-user":
		return app.issueUser(ctx, cmdArgs, out)
	case "issue-api":
		return app.issueAPI(ctx, cmdArgs, out)
	case "revoke":
		return app.revoke(ctx, cmdArgs, out)
	case "verify":
		return app.verify(ctx, cmdArgs, out)
	case "migrate":
		return app.migrate(ctx, out)
	default:
		return usageError("unknown command %q", command)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

type app struct {
	service *auth.TokenServiceImpl
	source  auth.ClusterIDSource
	manager *repository.Manager
	redis   *redis.Client
	logger  *logging.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	a := &app{logger: logger}

	var store auth.APITokenStore
	if cfg.Database.Driver != "" {
		db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.manager = repository.NewManager(db)
		a.manager.MustValidate()
		store = a.manager.APITokens()
	}

	switch {
	case cfg.Redis.Addr != "":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.source = repository.NewRedisClusterSource(a.redis, cfg.Redis.ClusterKey)
	case strings.TrimSpace(cfg.GetClusterID()) != "":
		a.source = auth.StaticClusterID(strings.TrimSpace(cfg.GetClusterID()))
	case a.manager != nil:
		a.source = a.manager.Clusters()
	}

	service, err := auth.NewTokenServiceFromConfig(cfg, a.source, store, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = service
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.manager != nil {
		_ = a.manager.Close()
	}
}

func (a *app) issueUser(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("issue-user", pflag.ContinueOnError)
	userID := fs.String("user", "", "user id (subject)")
	ttl := fs.Duration("ttl", 0, "token lifetime; 0 uses the configured expiration, negative never expires")
	network := fs.String("network", "", "comma separated IPs or CIDRs the token may be used from")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, expires, err := auth.MintUserToken(ctx, a.service, *userID, auth.UserTokenOptions{
		TTL:              *ttl,
		ModDate:          time.Now(),
		AllowFromNetwork: *network,
	})
	if err != nil {
		return err
	}

	a.logger.Info("issued user token", "user", *userID, "expires", formatTime(expires))
	fmt.Fprintln(out, token)
	return nil
}

func (a *app) issueAPI(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("issue-api", pflag.ContinueOnError)
	userID := fs.String("user", "", "owner of the API token")
	requestedBy := fs.String("requested-by", "", "user asking for the token (default: owner)")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "token lifetime")
	network := fs.String("network", "", "comma separated IPs or CIDRs the token may be used from")
	claims := fs.StringToString("claim", nil, "extra claim signed into the token, key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if a.manager == nil {
		return usageError("issue-api needs a database: set AUTH_DB_DRIVER and AUTH_DB_DSN")
	}
	if *requestedBy == "" {
		*requestedBy = *userID
	}

	clusterID := ""
	if a.source != nil {
		id, err := a.source.CurrentClusterID(ctx)
		if err != nil {
			return err
		}
		clusterID = id
	}

	now := time.Now()
	state := &auth.APITokenState{
		ID:               auth.NewAPITokenID(),
		UserID:           *userID,
		ClusterID:        clusterID,
		IssueDate:        now,
		Expires:          now.Add(*ttl),
		AllowFromNetwork: *network,
		ModDate:          now,
	}
	if len(*claims) > 0 {
		state.Claims = make(map[string]any, len(*claims))
		for k, v := range *claims {
			state.Claims[k] = v
		}
	}

	token, err := a.service.IssueForAPIToken(ctx, state.Token())
	if err != nil {
		return err
	}

	if err := a.manager.APITokens().Insert(ctx, state, *requestedBy); err != nil {
		return err
	}

	a.logger.Info("issued API token", "id", state.ID, "user", state.UserID, "expires", formatTime(state.Expires))
	fmt.Fprintf(out, "%s\n%s\n", state.ID, token)
	return nil
}

func (a *app) revoke(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return usageError("revoke takes exactly one API token id")
	}
	if a.manager == nil {
		return usageError("revoke needs a database: set AUTH_DB_DRIVER and AUTH_DB_DSN")
	}

	if err := a.manager.APITokens().Revoke(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "revoked %s\n", args[0])
	return nil
}

func (a *app) verify(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return usageError("verify takes exactly one token")
	}

	token, err := a.service.Authenticate(ctx, args[0])
	if err != nil {
		if kind := auth.KindOf(err); kind != auth.KindNone {
			return fmt.Errorf("%s: %w", kind, err)
		}
		return err
	}

	fmt.Fprintf(out, "type: %s\n", token.Type())
	fmt.Fprintf(out, "subject: %s\n", token.Subject())
	fmt.Fprintf(out, "id: %s\n", token.TokenID())
	fmt.Fprintf(out, "issuer: %s\n", token.IssuedBy())
	fmt.Fprintf(out, "expires: %s\n", formatTime(token.ExpiresAt()))
	if network := token.AllowedNetwork(); network != "" {
		fmt.Fprintf(out, "network: %s\n", network)
	}

	metadata := token.Metadata()
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "claim %s: %v\n", k, metadata[k])
	}
	return nil
}

func (a *app) migrate(ctx context.Context, out io.Writer) error {
	if a.manager == nil {
		return usageError("migrate needs a database: set AUTH_DB_DRIVER and AUTH_DB_DSN")
	}
	if err := a.manager.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "schema up to date")
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func usageError(format string, args ...any) error {
	return goerrors.New(fmt.Sprintf(format, args...), goerrors.CategoryBadInput)
}
