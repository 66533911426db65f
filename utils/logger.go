package utils

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// InitLogger configures logrus and, if an admin channel is configured,
// mirrors warnings and errors there as embeds.
func InitLogger(s *discordgo.Session) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if level, err := logrus.ParseLevel(viper.GetString("bot.logLevel")); err == nil {
		logrus.SetLevel(level)
	}

	channelID := viper.GetString("bot.adminChannelId")
	if channelID == "" {
		logrus.Warn("bot.adminChannelId is not set, logging to channel is disabled")
		return
	}

	logrus.AddHook(&channelHook{session: s, channelID: channelID})
}

// channelHook sends WARN and ERROR log entries to the admin channel.
type channelHook struct {
	session   *discordgo.Session
	channelID string
}

func (h *channelHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.ErrorLevel, logrus.WarnLevel}
}

func (h *channelHook) Fire(entry *logrus.Entry) error {
	color := ColorWarn
	if entry.Level == logrus.ErrorLevel {
		color = ColorError
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(entry.Data))
	for key, value := range entry.Data {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   key,
			Value:  fmt.Sprintf("%v", value),
			Inline: true,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Log Level: %s", entry.Level),
		Description: entry.Message,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}

	// Sent in the background so logging never blocks the caller.
	go func() {
		if _, err := h.session.ChannelMessageSendEmbed(h.channelID, embed); err != nil {
			fmt.Printf("error sending log message to Discord: %v\n", err)
		}
	}()

	return nil
}
