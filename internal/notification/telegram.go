// Package notification pushes analysis reports to Telegram.
package notification

import (
	"fmt"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	internalerrors "github.com/gstewart/log-insights-go/internal/errors"
	"github.com/gstewart/log-insights-go/internal/pipeline"
)

const (
	maxMessageLength = 4096
	// minMessageInterval is the minimum time between messages to the same channel
	// to avoid Telegram rate limits
	minMessageInterval = 1 * time.Second
	// maxRetries is the maximum number of retry attempts for sending messages
	maxRetries = 3
	// baseRetryDelay is the initial delay between retries (doubles each attempt)
	baseRetryDelay = 2 * time.Second
)

// TelegramClient handles Telegram notifications
type TelegramClient struct {
	bot             *tgbotapi.BotAPI
	channelID       int64
	hostname        string
	lastMessageTime time.Time // tracks last message for rate limiting
}

// NewTelegramClient creates a new Telegram client
func NewTelegramClient(botToken string, channelID int64) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		// Sanitize error to prevent bot token from appearing in error messages
		return nil, internalerrors.Wrapf(err, "failed to create Telegram bot")
	}

	// Get hostname for reports
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &TelegramClient{
		bot:       bot,
		channelID: channelID,
		hostname:  hostname,
	}, nil
}

// SendRunReport sends the analysis report to the configured Telegram channel
func (t *TelegramClient) SendRunReport(report *pipeline.Report) error {
	message := t.formatMessage(report)

	if err := t.sendToChannel(t.channelID, message); err != nil {
		return fmt.Errorf("failed to send to channel: %w", err)
	}

	return nil
}

// formatMessage formats the run report into a Telegram message
func (t *TelegramClient) formatMessage(report *pipeline.Report) string {
	var msg strings.Builder

	// Header
	msg.WriteString("🔍 *Log Insights Report*\n")
	msg.WriteString(fmt.Sprintf("🖥 Host\\: %s\n", escapeMarkdown(t.hostname)))
	msg.WriteString(fmt.Sprintf("📅 Date\\: %s\n", escapeMarkdown(time.Now().Format("2006-01-02 15:04:05"))))
	msg.WriteString(fmt.Sprintf("📂 Log Type\\: %s\n\n", escapeMarkdown(string(report.LogType))))

	// Run stats
	msg.WriteString("📋 *Run Stats*\n")
	msg.WriteString(fmt.Sprintf("• Files\\: %d\n", report.FileCount))
	msg.WriteString(fmt.Sprintf("• Log Records\\: %d\n", report.RecordCount))
	msg.WriteString(fmt.Sprintf("• Duration\\: %s\n\n", escapeMarkdown(fmt.Sprintf("%.2fs", report.Duration.Seconds()))))

	// Ranked grams
	if len(report.TopGrams) == 0 {
		msg.WriteString("No n\\-grams found in this data\\.\n")
		return msg.String()
	}

	msg.WriteString(fmt.Sprintf("📊 *Top %d\\-grams by TF\\-IDF*\n", report.GramSize))
	for i, sg := range report.TopGrams {
		msg.WriteString(fmt.Sprintf("%d\\. `%s` \\- %s\n",
			i+1,
			escapeCode(sg.Gram),
			escapeMarkdown(fmt.Sprintf("%.2f", sg.Weight)),
		))
	}

	return msg.String()
}

// sendToChannel sends a message to a Telegram channel with rate limiting
func (t *TelegramClient) sendToChannel(channelID int64, message string) error {
	// Split message if it exceeds Telegram's limit
	messages := t.splitMessage(message)

	for _, msg := range messages {
		// Apply rate limiting before sending
		t.waitForRateLimit()

		msgConfig := tgbotapi.NewMessage(channelID, msg)
		msgConfig.ParseMode = "MarkdownV2"

		// Send with exponential backoff retry
		if err := t.sendWithRetry(msgConfig); err != nil {
			return err
		}

		// Update last message time for rate limiting
		t.lastMessageTime = time.Now()
	}

	return nil
}

// waitForRateLimit ensures minimum interval between messages
func (t *TelegramClient) waitForRateLimit() {
	if t.lastMessageTime.IsZero() {
		return
	}

	elapsed := time.Since(t.lastMessageTime)
	if elapsed < minMessageInterval {
		time.Sleep(minMessageInterval - elapsed)
	}
}

// sendWithRetry sends a message with exponential backoff retry
func (t *TelegramClient) sendWithRetry(msgConfig tgbotapi.MessageConfig) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		_, err := t.bot.Send(msgConfig)
		if err == nil {
			return nil
		}

		lastErr = err

		// Check if this is a rate limit error (429)
		if isRateLimitError(err) {
			// Wait longer for rate limit errors
			retryAfter := extractRetryAfter(err)
			if retryAfter > 0 {
				time.Sleep(time.Duration(retryAfter) * time.Second)
				continue
			}
		}

		// Exponential backoff for other errors
		if attempt < maxRetries {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1)) // 2s, 4s, 8s...
			time.Sleep(delay)
		}
	}

	// Sanitize error to prevent credentials from appearing in error messages
	return internalerrors.Wrapf(lastErr, "failed to send message after %d retries", maxRetries)
}

// isRateLimitError checks if the error is a Telegram rate limit error (429)
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") || strings.Contains(errStr, "Too Many Requests")
}

// extractRetryAfter extracts the retry_after value from a rate limit error
func extractRetryAfter(err error) int {
	if err == nil {
		return 0
	}

	// Telegram API errors typically include retry_after in the message
	// Example: "Too Many Requests: retry after 30"
	errStr := err.Error()

	// Simple extraction - look for "retry after X" pattern
	if idx := strings.Index(strings.ToLower(errStr), "retry after "); idx != -1 {
		remaining := errStr[idx+len("retry after "):]
		var seconds int
		if _, err := fmt.Sscanf(remaining, "%d", &seconds); err == nil {
			return seconds
		}
	}

	// Default to a conservative wait time if we can't extract the value
	return 30
}

// splitMessage splits a long message into multiple messages
func (t *TelegramClient) splitMessage(message string) []string {
	if len(message) <= maxMessageLength {
		return []string{message}
	}

	var messages []string
	lines := strings.Split(message, "\n")
	var currentMsg strings.Builder

	for _, line := range lines {
		// If adding this line would exceed the limit
		if currentMsg.Len()+len(line)+1 > maxMessageLength {
			// Save current message
			if currentMsg.Len() > 0 {
				messages = append(messages, currentMsg.String())
				currentMsg.Reset()
			}

			// If a single line is too long, split it
			if len(line) > maxMessageLength {
				for i := 0; i < len(line); i += maxMessageLength {
					end := i + maxMessageLength
					if end > len(line) {
						end = len(line)
					}
					messages = append(messages, line[i:end])
				}
				continue
			}
		}

		currentMsg.WriteString(line)
		currentMsg.WriteString("\n")
	}

	// Add remaining content
	if currentMsg.Len() > 0 {
		messages = append(messages, currentMsg.String())
	}

	return messages
}

// escapeMarkdown escapes special characters for Telegram MarkdownV2
func escapeMarkdown(text string) string {
	// Characters that need to be escaped in MarkdownV2
	// See: https://core.telegram.org/bots/api#markdownv2-style
	specialChars := []string{
		"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!", ":",
	}

	result := text
	for _, char := range specialChars {
		result = strings.ReplaceAll(result, char, "\\"+char)
	}

	return result
}

// escapeCode escapes characters inside MarkdownV2 inline code spans,
// where only backticks and backslashes are special.
func escapeCode(text string) string {
	result := strings.ReplaceAll(text, `\`, `\\`)
	return strings.ReplaceAll(result, "`", "\\`")
}

// GetBotInfo returns information about the bot
func (t *TelegramClient) GetBotInfo() map[string]interface{} {
	return map[string]interface{}{
		"username": t.bot.Self.UserName,
		"channel":  t.channelID,
		"hostname": t.hostname,
	}
}

// Close closes the Telegram client
func (t *TelegramClient) Close() error {
	t.bot.StopReceivingUpdates()
	return nil
}
