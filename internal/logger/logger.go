package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sukalov/lyricsbot/internal/utils"
	"github.com/sukalov/lyricsbot/internal/utils/e"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	ChannelID int64
	mu        sync.Mutex
	botClient BotClient
	output    io.Writer = os.Stdout
	minLevel            = LevelInfo
)

type BotClient interface {
	SendMessage(chatID int64, text string) error
}

// Init mirrors every log line at or above Info to a Telegram channel.
func Init(client BotClient, channelID int64) {
	mu.Lock()
	defer mu.Unlock()

	botClient = client
	ChannelID = channelID
}

func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func Info(message string) {
	sendLog(LevelInfo, "ℹ️ INFO", message)
}

func Warn(message string) {
	sendLog(LevelWarn, "⚠️ WARN", message)
}

func Error(message string) {
	sendLog(LevelError, "❌ ERROR", message)
}

func Debug(message string) {
	sendLog(LevelDebug, "🔍 DEBUG", message)
}

func Success(message string) {
	sendLog(LevelInfo, "✅ SUCCESS", message)
}

func sendLog(level Level, prefix, message string) {
	mu.Lock()
	defer mu.Unlock()

	if level < minLevel {
		return
	}

	timestamp := utils.ConvertToBuenosAiresTime(time.Now())
	logMessage := fmt.Sprintf("[%s] %s\n%s", timestamp, prefix, message)

	fmt.Fprintf(output, "[%s] %s %s\n", timestamp, prefix, message)

	if botClient == nil || level == LevelDebug {
		return
	}

	client, chatID := botClient, ChannelID
	go func() {
		if err := client.SendMessage(chatID, logMessage); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to send log to channel: %v\nLog was: %s\n", err, logMessage)
		}
	}()
}

// LogWithErr logs message as Info when err is nil, otherwise as Error, and
// returns err wrapped with message.
func LogWithErr(message string, err error) error {
	if err == nil {
		Info(message)
		return nil
	}

	Error(fmt.Sprintf("%s\nError: %v", message, err))

	return e.Wrap(message, err)
}
