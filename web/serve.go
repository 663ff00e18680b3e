package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"witaj.town/asr"
	"witaj.town/captions"
	"witaj.town/hub"
	"witaj.town/record"
	"witaj.town/translate"
	"witaj.town/tts"
)

func Serve(port int) error {
	logger := log.Default()

	var archive record.Archive
	if databaseURL := viper.GetString("database_url"); databaseURL != "" {
		pg, err := record.OpenPostgres(context.Background(), databaseURL)
		if err != nil {
			return fmt.Errorf("open record store: %w", err)
		}
		defer pg.Close()
		archive = pg
	} else {
		logger.Warn("no database_url configured, records are in-memory only")
		archive = record.NewMemory()
	}

	markers := viper.GetStringSlice("asr_banner_markers")
	if len(markers) == 0 {
		markers = asr.DefaultBannerMarkers
	}

	broadcast := hub.New(logger)
	relay := asr.NewRelay(
		asr.NewEngine(viper.GetString("recognizer_url")),
		archive,
		asr.NewFilter(markers),
		logger,
	)
	engine := translate.NewSotra(
		viper.GetString("sotra_server_url"),
		viper.GetDuration("translate_timeout"),
	)
	dispatcher := translate.NewDispatcher(engine, archive, broadcast, logger)

	handler := NewHandler(
		archive,
		dispatcher,
		relay,
		broadcast,
		tts.NewClient(viper.GetString("bamborak_server")),
		captions.NewUploader(viper.GetString("youtube_ingest_url")),
		logger,
	)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	handler.Routes(r)

	logger.Info("http", "url", fmt.Sprintf("http://localhost:%d", port))
	return http.ListenAndServe(fmt.Sprintf(":%d", port), r)
}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the caption relay server",
	Long:  `This command starts the HTTP server with the recognition relay, the translation dispatcher and the subscriber hub.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = viper.GetInt("port")
		}
		if err := Serve(port); err != nil {
			log.Fatal("Failed to start server", "error", err)
		}
	},
}

func init() {
	ServeCmd.Flags().IntP("port", "p", 0, "Port to run the HTTP server on")
}
