// sessionkit es el CLI de demostración del manejador de sesión: ejerce las
// operaciones del coordinator contra un servicio de identidad (el devserver
// incluido o uno real) y permite observar las transiciones de sesión.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dropDatabas3/sessionkit/internal/auth"
	"github.com/dropDatabas3/sessionkit/internal/cache"
	"github.com/dropDatabas3/sessionkit/internal/config"
	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/events"
	"github.com/dropDatabas3/sessionkit/internal/idp/devserver"
	"github.com/dropDatabas3/sessionkit/internal/metrics"
	"github.com/dropDatabas3/sessionkit/internal/observability/logger"
	"github.com/dropDatabas3/sessionkit/internal/provider"
	githubadapter "github.com/dropDatabas3/sessionkit/internal/provider/github"
	googleadapter "github.com/dropDatabas3/sessionkit/internal/provider/google"
	passwordadapter "github.com/dropDatabas3/sessionkit/internal/provider/password"
	"github.com/dropDatabas3/sessionkit/internal/session"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env es opcional; los flags y el YAML mandan.
	_ = godotenv.Load()

	var configPath string
	var cfg *config.Config

	root := &cobra.Command{
		Use:   "sessionkit",
		Short: "Manejador de sesión contra un servicio de identidad",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cfg = c
			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "sessionkit",
			})
			return metrics.RegisterAuth(nil)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", envOr("SESSIONKIT_CONFIG", ""), "ruta al YAML de configuración (env SESSIONKIT_CONFIG)")

	build := func(ctx context.Context) (*auth.Coordinator, error) {
		coord, err := buildCoordinator(cfg)
		if err != nil {
			return nil, err
		}
		coord.Start(ctx)
		return coord, nil
	}

	// ─── signin / signup / signout / whoami ───

	var email, password, name string

	signinCmd := &cobra.Command{
		Use:   "signin",
		Short: "Iniciar sesión con email y password",
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := build(cmd.Context())
			if err != nil {
				return err
			}
			id, err := coord.SignInWithPassword(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printIdentity(id)
			return nil
		},
	}
	signinCmd.Flags().StringVar(&email, "email", "", "email de la cuenta")
	signinCmd.Flags().StringVar(&password, "password", "", "password de la cuenta")

	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Crear una cuenta nueva",
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := build(cmd.Context())
			if err != nil {
				return err
			}
			id, err := coord.SignUpWithPassword(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			printIdentity(id)
			return nil
		},
	}
	signupCmd.Flags().StringVar(&email, "email", "", "email de la cuenta")
	signupCmd.Flags().StringVar(&password, "password", "", "password de la cuenta")
	signupCmd.Flags().StringVar(&name, "name", "", "nombre para mostrar")

	signoutCmd := &cobra.Command{
		Use:   "signout",
		Short: "Cerrar la sesión local (revocación remota best-effort)",
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := build(cmd.Context())
			if err != nil {
				return err
			}
			if err := coord.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("signed out")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar la sesión actual (restaurada del cache)",
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := build(cmd.Context())
			if err != nil {
				return err
			}
			s := coord.Session()
			if !s.IsAuthenticated() {
				fmt.Println("unauthenticated")
				return nil
			}
			// Confirmar frescura contra el proveedor antes de mostrar.
			id, err := coord.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			printIdentity(id)
			return nil
		},
	}

	// ─── federated ───

	var providerKind, rawToken string

	federatedCmd := &cobra.Command{
		Use:   "federated",
		Short: "Flujo federado en dos pasos (begin/complete)",
	}

	beginCmd := &cobra.Command{
		Use:   "begin",
		Short: "Abrir un intento federado y mostrar el challenge",
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := build(cmd.Context())
			if err != nil {
				return err
			}
			challenge, err := coord.BeginFederatedSignIn(domain.Provider(providerKind))
			if err != nil {
				return err
			}
			fmt.Println(challenge)
			return nil
		},
	}
	beginCmd.Flags().StringVar(&providerKind, "provider", "google", "proveedor federado: google|github")

	completeCmd := &cobra.Command{
		Use:   "complete",
		Short: "Cerrar el intento federado con el token del proveedor",
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := build(cmd.Context())
			if err != nil {
				return err
			}
			// El begin debe correr en el mismo proceso: el nonce vive solo en
			// memoria. En un proceso nuevo esto retorna InvalidState, que es el
			// comportamiento especificado tras un reinicio.
			if _, err := coord.BeginFederatedSignIn(domain.Provider(providerKind)); err != nil {
				return err
			}
			id, err := coord.CompleteFederatedSignIn(cmd.Context(), domain.Provider(providerKind), rawToken)
			if err != nil {
				return err
			}
			printIdentity(id)
			return nil
		},
	}
	completeCmd.Flags().StringVar(&providerKind, "provider", "google", "proveedor federado: google|github")
	completeCmd.Flags().StringVar(&rawToken, "token", "", "token crudo emitido por el proveedor")

	federatedCmd.AddCommand(beginCmd, completeCmd)

	// ─── watch ───

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Imprimir cada transición de sesión hasta Ctrl-C",
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := build(cmd.Context())
			if err != nil {
				return err
			}
			sub := coord.Subscribe(func(s domain.Session) {
				b, _ := json.Marshal(s)
				fmt.Println(string(b))
			})
			defer sub.Cancel()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}

	// ─── devserver ───

	devserverCmd := &cobra.Command{
		Use:   "devserver",
		Short: "Levantar el identity provider de desarrollo",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := devserver.New()
			if err != nil {
				return err
			}
			hs := &http.Server{
				Addr:              cfg.Devserver.Addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.L().Info("devserver listening", logger.String("addr", cfg.Devserver.Addr))
				if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return hs.Shutdown(sctx)
			})
			return g.Wait()
		},
	}

	root.AddCommand(signinCmd, signupCmd, signoutCmd, whoamiCmd, federatedCmd, watchCmd, devserverCmd)

	defer func() { _ = logger.Sync() }()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// buildCoordinator cablea cache, store, bus, adapters y coordinator desde la
// configuración.
func buildCoordinator(cfg *config.Config) (*auth.Coordinator, error) {
	var ccfg cache.Config
	ccfg.Kind = cfg.Cache.Kind
	ccfg.Redis.Addr = cfg.Cache.Redis.Addr
	ccfg.Redis.DB = cfg.Cache.Redis.DB
	ccfg.Memory.DefaultTTL = cfg.MemoryTTL()

	c, err := cache.New(ccfg)
	if err != nil {
		return nil, err
	}

	store := session.New(c, cfg.App.Name, cfg.PersistTTL())
	base := cfg.Identity.BaseURL
	timeout := cfg.ExchangeTimeout()

	return auth.New(auth.Deps{
		Store: store,
		Bus:   events.New(),
		Adapters: map[domain.Provider]provider.Adapter{
			domain.ProviderPassword: passwordadapter.New(base, timeout),
			domain.ProviderGoogle:   googleadapter.New(base, timeout),
			domain.ProviderGitHub:   githubadapter.New(base, timeout),
		},
		ExchangeTimeout: timeout,
		RevokeTimeout:   cfg.RevokeTimeout(),
	}), nil
}

func printIdentity(id *domain.Identity) {
	b, _ := json.MarshalIndent(id, "", "  ")
	fmt.Println(string(b))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
