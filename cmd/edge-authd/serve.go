package main

import (
	"context"
	"errors"
	"fmt"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-edge-auth/gateway"
	"github.com/jrsteele09/go-edge-auth/idp"
	"github.com/jrsteele09/go-edge-auth/internal/config"
	"github.com/jrsteele09/go-edge-auth/internal/metrics"
	"github.com/jrsteele09/go-edge-auth/policy"
	"github.com/jrsteele09/go-edge-auth/server"
	"github.com/jrsteele09/go-edge-auth/token/jwt"
	"github.com/jrsteele09/go-edge-auth/token/keys"
)

func commandServe() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway and admin listeners",
		Run: func(cmd *cobra.Command, args []string) {
			for {
				if err := serve(); err != nil {
					log.Error().Err(err).Msg("server exited with error")
					time.Sleep(1 * time.Second)
				} else {
					break
				}
			}
			log.Info().Msg("server stopped")
		},
	}
}

func serve() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("config.New: %w", err)
	}
	configureLogging(cfg.Server.LogLevel)
	displayAppname(cfg.Server.AppName)

	srv, err := buildServer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// buildServer wires the whole gateway from configuration: key material, token
// codec, provider client, authorization policy, origin proxy, listeners.
func buildServer(cfg *config.Config) (*server.Server, error) {
	keyPair, err := keys.LoadKeyPairFromFiles(cfg.Security.KeyID, cfg.Security.PrivateKeyFile, cfg.Security.PublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load key material: %w", err)
	}
	signer := keys.NewKeyPairSigner(keyPair)
	codec := jwt.NewCodec(signer, tokenIssuer(cfg.OAuth.RedirectURI), cfg.Security.SessionDuration)

	domainHint := ""
	if cfg.Policy.Method == config.AuthMethodDomain {
		domainHint = cfg.Policy.HostedDomain
	}
	providerClient := idp.New(idp.Config{
		ClientID:         cfg.OAuth.ClientID,
		ClientSecret:     cfg.OAuth.ClientSecret,
		RedirectURL:      cfg.OAuth.RedirectURI,
		Issuer:           cfg.OAuth.Issuer,
		AuthURL:          cfg.OAuth.AuthURL,
		TokenURL:         cfg.OAuth.TokenURL,
		JWKSURL:          cfg.OAuth.JWKSURL,
		Scopes:           cfg.OAuth.Scopes,
		Timeout:          cfg.OAuth.Timeout,
		HostedDomainHint: domainHint,
	})

	gatewayMetrics := metrics.New()
	authorizer, err := policy.New(cfg.Policy, gatewayMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to build authorization policy: %w", err)
	}

	originURL, err := url.Parse(cfg.Server.OriginURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse origin URL: %w", err)
	}
	origin := httputil.NewSingleHostReverseProxy(originURL)

	gw, err := gateway.New(gateway.Config{
		Codec:           codec,
		Exchanger:       providerClient,
		Authorizer:      authorizer,
		Origin:          origin,
		Metrics:         gatewayMetrics,
		CallbackPath:    cfg.OAuth.CallbackPath(),
		CookieName:      cfg.Security.CookieName,
		SessionDuration: cfg.Security.SessionDuration,
		Timeout:         cfg.OAuth.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway: %w", err)
	}

	log.Info().
		Str("origin", cfg.Server.OriginURL).
		Str("callback_path", cfg.OAuth.CallbackPath()).
		Str("auth_method", cfg.Policy.Method).
		Msg("gateway configured")

	return server.New(*cfg, gw, signer), nil
}

// tokenIssuer derives the first-party token issuer from the registered
// redirect URI's origin.
func tokenIssuer(redirectURI string) string {
	redirect, err := url.Parse(redirectURI)
	if err != nil {
		return "edge-auth"
	}
	return redirect.Scheme + "://" + redirect.Host
}

func configureLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
