package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"witaj.town/asr"
	"witaj.town/record"
	"witaj.town/translate"
	"witaj.town/tui"
	"witaj.town/web"
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(web.ServeCmd)
	rootCmd.AddCommand(tui.WatchCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(listRecordsCmd)

	rootCmd.PersistentFlags().String("database-url", "", "Postgres connection string")
	rootCmd.PersistentFlags().String("sotra-url", "", "Base URL of the sotra translation server")
	rootCmd.PersistentFlags().String("recognizer-url", "", "Websocket URL of the streaming recognition engine")
	rootCmd.PersistentFlags().String("bamborak-url", "", "Base URL of the bamborak TTS server")

	viper.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("sotra_server_url", rootCmd.PersistentFlags().Lookup("sotra-url"))
	viper.BindPFlag("recognizer_url", rootCmd.PersistentFlags().Lookup("recognizer-url"))
	viper.BindPFlag("bamborak_server", rootCmd.PersistentFlags().Lookup("bamborak-url"))

	translateCmd.Flags().String("model", translate.ModelCTranslate, "Translation model flavor")
	translateCmd.Flags().String("from", "hsb", "Source language")
	translateCmd.Flags().String("to", "de", "Target language")
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("port", 4000)
	viper.SetDefault("translate_timeout", 30*time.Second)
	viper.SetDefault("asr_banner_markers", asr.DefaultBannerMarkers)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %s\n", err)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "witaj",
	Short: "witaj is a live caption relay for Sorbian broadcasts",
	Long:  `witaj bridges browser audio producers, a streaming speech recognizer and the sotra translation engine, and fans live caption pairs out to viewers.`,
}

var translateCmd = &cobra.Command{
	Use:   "translate <text>",
	Short: "Translate a text through the sotra engine",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		model, _ := cmd.Flags().GetString("model")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		engine := translate.NewSotra(
			viper.GetString("sotra_server_url"),
			viper.GetDuration("translate_timeout"),
		)
		result, err := engine.Translate(context.Background(), model, args[0], from, to, "")
		if err != nil {
			log.Fatal("Translation failed", "error", err)
		}
		fmt.Println(result.Translation)
	},
}

var listRecordsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List audio records",
	Long:  `List all audio records with their details in a formatted table`,
	Run: func(cmd *cobra.Command, args []string) {
		databaseURL := viper.GetString("database_url")
		if databaseURL == "" {
			log.Fatal("database_url is not configured")
		}

		archive, err := record.OpenPostgres(context.Background(), databaseURL)
		if err != nil {
			log.Fatal("Failed to open record store", "error", err)
		}
		defer archive.Close()

		records, err := archive.List(context.Background(), "")
		if err != nil {
			log.Fatal("Failed to list records", "error", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Created At", "Title", "Entries", "Translated", "Speaker"})
		for _, rec := range records {
			speaker := ""
			if rec.SpeakerID != nil {
				speaker = *rec.SpeakerID
			}
			table.Append([]string{
				rec.ID,
				rec.CreatedAt.Format("2006-01-02 15:04:05"),
				rec.Title,
				strconv.Itoa(len(rec.Original)),
				strconv.Itoa(len(rec.Translated)),
				speaker,
			})
		}
		table.Render()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
