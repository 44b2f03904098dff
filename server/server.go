package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/go-edge-auth/internal/config"
	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
)

// shutdownTimeout bounds the drain of in-flight requests on stop.
const shutdownTimeout = 5 * time.Second

// Server runs the two listeners. The gateway listener carries every viewer
// path and nothing else; ops endpoints live on a separate admin listener so
// they never punch a hole in the gated surface.
type Server struct {
	gateway *http.Server
	admin   *http.Server
}

// New composes the listeners from the gateway handler and the admin router.
func New(cfg config.Config, gatewayHandler http.Handler, jwks JWKSProvider) *Server {
	return &Server{
		gateway: &http.Server{
			Addr:    cfg.Server.ListenAddr(),
			Handler: gatewayHandler,
		},
		admin: &http.Server{
			Addr:    cfg.Server.AdminListenAddr(),
			Handler: NewAdminRouter(jwks),
		},
	}
}

// Run serves both listeners until ctx is cancelled or either listener fails,
// then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().Str("addr", s.gateway.Addr).Msg("gateway listening")
		return listenAndServe(s.gateway, "gateway")
	})
	group.Go(func() error {
		log.Info().Str("addr", s.admin.Addr).Msg("admin listening")
		return listenAndServe(s.admin, "admin")
	})
	group.Go(func() error {
		<-ctx.Done()
		return s.shutdown()
	})

	return group.Wait()
}

func listenAndServe(server *http.Server, name string) error {
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return apperrors.Wrapf(err, "%s listener failed", name)
	}
	return nil
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	gatewayErr := s.gateway.Shutdown(ctx)
	adminErr := s.admin.Shutdown(ctx)

	if gatewayErr != nil {
		return apperrors.Wrapf(gatewayErr, "gateway shutdown")
	}
	if adminErr != nil {
		return apperrors.Wrapf(adminErr, "admin shutdown")
	}
	return nil
}
