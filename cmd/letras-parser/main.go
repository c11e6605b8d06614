package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/sukalov/lyricsbot/internal/corpus"
	"github.com/sukalov/lyricsbot/internal/db"
	"github.com/sukalov/lyricsbot/internal/logger"
	"github.com/sukalov/lyricsbot/internal/lyrics"
	"github.com/sukalov/lyricsbot/internal/lyrics/parsers/letras"
	"github.com/sukalov/lyricsbot/internal/utils"
)

const defaultArtistURL = "https://www.letras.com/el-mato-un-policia-motorizado/"

func main() {
	var (
		outputFile string
		sqlitePath string
		useTurso   bool
		delay      time.Duration
	)

	flag.StringVar(&outputFile, "output", "el_mato_lyrics.json", "Output file name")
	flag.StringVar(&sqlitePath, "sqlite", "", "Also store songs in this SQLite database")
	flag.BoolVar(&useTurso, "turso", false, "Also store songs in the Turso database from TURSO_DATABASE_URL")
	flag.DurationVar(&delay, "delay", 2*time.Second, "Pause between song requests")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [artist URL]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "Example: %s %s\n", os.Args[0], defaultArtistURL)
	}
	flag.Parse()

	artistURL := defaultArtistURL
	if flag.NArg() > 0 {
		artistURL = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("=== letras.com Lyrics Extractor CLI ===")
	fmt.Printf("URL: %s\n", artistURL)
	fmt.Printf("Output file: %s\n", outputFile)
	fmt.Println()

	parser, err := letras.NewParser(letras.BaseURL)
	if err != nil {
		log.Fatalf("Error creating parser: %v", err)
	}
	parser.Delay = delay

	songs, err := lyrics.NewService(parser).ScrapeArtist(ctx, artistURL)
	if err != nil {
		logger.Error(fmt.Sprintf("Error extracting lyrics\nURL: %s\nError: %v", artistURL, err))
		log.Fatalf("Error extracting lyrics: %v", err)
	}

	if err := saveJSON(outputFile, songs); err != nil {
		log.Fatalf("Error saving file: %v", err)
	}

	if sqlitePath != "" {
		if err := saveDB(ctx, db.DriverSQLite, sqlitePath, songs); err != nil {
			log.Fatalf("Error saving songs to sqlite: %v", err)
		}
	}
	if useTurso {
		env, err := utils.LoadEnv([]string{"TURSO_DATABASE_URL", "TURSO_AUTH_TOKEN"})
		if err != nil {
			log.Fatalf("failed to load db env: %v", err)
		}
		dsn := db.TursoDSN(env["TURSO_DATABASE_URL"], env["TURSO_AUTH_TOKEN"])
		if err := saveDB(ctx, db.DriverLibSQL, dsn, songs); err != nil {
			log.Fatalf("Error saving songs to turso: %v", err)
		}
	}

	logger.Success(fmt.Sprintf("Lyrics extraction completed successfully\nURL: %s\nOutput: %s\nSongs: %d", artistURL, outputFile, len(songs)))
	fmt.Println("=== EXTRACTION COMPLETED SUCCESSFULLY ===")
}

func saveJSON(path string, songs []corpus.Song) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(songs); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func saveDB(ctx context.Context, driver, dsn string, songs []corpus.Song) error {
	database, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close(database)

	return db.ReplaceSongs(ctx, database, songs)
}
