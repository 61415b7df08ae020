package notification

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"osintrecon/internal/models"
	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/parsers"

	"github.com/bwmarrin/discordgo"
)

type Message struct {
	Title       string
	Description string
	Severity    string
	Fields      map[string]string
	Timestamp   time.Time
}

// EmbedSender is the part of a discord session used to post messages.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type NotificationClient struct {
	sender    EmbedSender
	session   *discordgo.Session
	channelID string
}

// NewNotificationClient opens a bot session using DISCORD_TOKEN. It returns
// ErrDiscordNotConfigured when the token or the channel is missing so callers
// can run without notifications.
func NewNotificationClient(channelID string) (*NotificationClient, error) {
	token := os.Getenv("DISCORD_TOKEN")
	if channelID == "" {
		channelID = os.Getenv("DISCORD_CHANNEL_ID")
	}
	if token == "" || channelID == "" {
		return nil, apperrors.ErrDiscordNotConfigured
	}

	sg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	if err := sg.Open(); err != nil {
		return nil, err
	}

	return &NotificationClient{sender: sg, session: sg, channelID: channelID}, nil
}

// NewNotificationClientWithSender is used when the session is managed elsewhere.
func NewNotificationClientWithSender(sender EmbedSender, channelID string) *NotificationClient {
	return &NotificationClient{sender: sender, channelID: channelID}
}

func (c *NotificationClient) getSeverityColor(severity string) int {
	switch severity {
	case "high":
		return 0xFF0000
	case "success":
		return 0x2ECC71
	case "info":
		return 0x00BFFF
	default:
		return 0x808080
	}
}

func (c *NotificationClient) Send(msg Message) error {
	if c.sender == nil {
		return apperrors.ErrDiscordNotConfigured
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       c.getSeverityColor(msg.Severity),
		Timestamp:   msg.Timestamp.Format(time.RFC3339),
	}

	if len(msg.Fields) > 0 {
		keys := make([]string, 0, len(msg.Fields))
		for key := range msg.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fields := make([]*discordgo.MessageEmbedField, 0, len(keys))
		for _, key := range keys {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name:   key,
				Value:  msg.Fields[key],
				Inline: true,
			})
		}
		embed.Fields = fields
	}

	_, err := c.sender.ChannelMessageSendEmbed(c.channelID, embed)
	return err
}

// NotifyScanFinished posts a summary of a scan in a terminal state.
func (c *NotificationClient) NotifyScanFinished(scan *models.Scan) error {
	return c.Send(ScanMessage(scan))
}

func (c *NotificationClient) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

// ScanMessage summarizes a finished scan.
func ScanMessage(scan *models.Scan) Message {
	msg := Message{
		Fields: map[string]string{
			"Domain": scan.Domain,
			"Tool":   scan.Tool.String(),
			"Status": string(scan.Status),
		},
	}
	if scan.EndTime != nil {
		msg.Timestamp = *scan.EndTime
		msg.Fields["Duration"] = scan.EndTime.Sub(scan.StartTime).Round(time.Second).String()
	}

	switch scan.Status {
	case models.StatusCompleted:
		msg.Title = fmt.Sprintf("Scan completed: %s", scan.Domain)
		msg.Severity = "success"
		if scan.Results != nil {
			if findings, err := parsers.DecodeFindings(*scan.Results); err == nil {
				msg.Fields["Emails"] = strconv.Itoa(len(findings.Emails))
				msg.Fields["Hosts"] = strconv.Itoa(len(findings.Hosts))
				msg.Fields["Subdomains"] = strconv.Itoa(len(findings.Subdomains))
				msg.Fields["IPs"] = strconv.Itoa(len(findings.IPs))
			}
		}
	case models.StatusFailed:
		msg.Title = fmt.Sprintf("Scan failed: %s", scan.Domain)
		msg.Severity = "high"
		if scan.ErrorMessage != nil {
			msg.Description = *scan.ErrorMessage
		}
	default:
		msg.Title = fmt.Sprintf("Scan %s: %s", scan.Status, scan.Domain)
		msg.Severity = "info"
	}
	msg.Fields["Scan ID"] = scan.ID
	return msg
}
