// cmd/server/main.go
package main

import (
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cambia/internal/admin"
	"github.com/jason-s-yu/cambia/internal/auth"
	"github.com/jason-s-yu/cambia/internal/catalog"
	"github.com/jason-s-yu/cambia/internal/dispatch"
	"github.com/jason-s-yu/cambia/internal/historian"
	"github.com/jason-s-yu/cambia/internal/lobbystore"
	"github.com/jason-s-yu/cambia/internal/middleware"
	"github.com/jason-s-yu/cambia/internal/queryapi"
	"github.com/jason-s-yu/cambia/internal/transport"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	auth.Init()

	stores := lobbystore.New()
	hub := transport.NewHub()
	adminSvc := admin.NewService(stores, catalog.Global, logger)

	var hist *historian.Publisher
	if pub, err := historian.Connect(); err != nil {
		logger.WithError(err).Warn("historian: redis unavailable, running without action-log publishing")
	} else {
		hist = pub
	}

	disp := dispatch.NewServer(stores, catalog.Global, hub, adminSvc, hist, logger)
	disp.AdminJWTRequired = os.Getenv("ADMIN_JWT_REQUIRED") == "true"

	mux := http.NewServeMux()

	mux.Handle("/ws", middleware.LogMiddleware(logger)(disp.ServeWS(hub, logger)))

	mux.HandleFunc("/api/cardColors", queryapi.CardColorsHandler(catalog.Global))
	mux.HandleFunc("/api/lobbies", queryapi.LobbiesHandler(stores))
	mux.HandleFunc("/api/mapPool", queryapi.MapPoolHandler(catalog.Global))
	mux.HandleFunc("/api/coinFlip", queryapi.CoinFlipHandler(catalog.Global))
	mux.HandleFunc("/api/runtime-env", queryapi.RuntimeEnvHandler(catalog.Global, disp.AdminJWTRequired))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("veto ceremony server running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
