package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/mediz/internal/api"
	"github.com/abhisek/mediz/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve consultations over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			rt.cfg.Server.Addr = addr
		}
		switch strings.ToLower(rt.cfg.Log.Mode) {
		case "prod", "production":
			gin.SetMode(gin.ReleaseMode)
		}

		m := metrics.New()
		c, err := rt.buildConsultation(ctx, m)
		if err != nil {
			return fmt.Errorf("build consultation: %w", err)
		}

		router := api.NewRouter(api.RouterConfig{
			Handler: api.NewHandler(rt.log, c.sessions, c.learners, rt.store.SessionRepo()),
			Metrics: m,
			Logger:  rt.log,
		})
		return api.Serve(ctx, rt.cfg.Server.Addr, router, rt.log)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
