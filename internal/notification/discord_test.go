package notification

import (
	"errors"
	"testing"
	"time"

	"osintrecon/internal/models"
	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/tools"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	channelID string
	embeds    []*discordgo.MessageEmbed
	err       error
}

func (r *recordingSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.channelID = channelID
	r.embeds = append(r.embeds, embed)
	return &discordgo.Message{}, r.err
}

func TestNotifyScanFinished_Completed(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	scan := models.NewScan("id-1", "example.com", tools.Amass, start)
	require.NoError(t, scan.Complete(`{"emails":["a@example.com"],"hosts":[],"subdomains":["x.example.com","y.example.com"],"ips":[],"linkedin":[],"raw":""}`, start.Add(90*time.Second)))

	sender := &recordingSender{}
	client := NewNotificationClientWithSender(sender, "chan-1")
	require.NoError(t, client.NotifyScanFinished(scan))

	require.Len(t, sender.embeds, 1)
	embed := sender.embeds[0]
	assert.Equal(t, "chan-1", sender.channelID)
	assert.Equal(t, "Scan completed: example.com", embed.Title)
	assert.Equal(t, 0x2ECC71, embed.Color)
	assert.Equal(t, "2024-05-01T12:01:30Z", embed.Timestamp)

	fields := map[string]string{}
	names := []string{}
	for _, f := range embed.Fields {
		fields[f.Name] = f.Value
		names = append(names, f.Name)
	}
	assert.Equal(t, "2", fields["Subdomains"])
	assert.Equal(t, "1", fields["Emails"])
	assert.Equal(t, "1m30s", fields["Duration"])
	assert.IsIncreasing(t, names)
}

func TestNotifyScanFinished_Failed(t *testing.T) {
	scan := models.NewScan("id-2", "example.com", tools.TheHarvester, time.Now())
	require.NoError(t, scan.Fail("image pull failed", time.Now()))

	sender := &recordingSender{}
	require.NoError(t, NewNotificationClientWithSender(sender, "chan-1").NotifyScanFinished(scan))

	embed := sender.embeds[0]
	assert.Equal(t, "Scan failed: example.com", embed.Title)
	assert.Equal(t, "image pull failed", embed.Description)
	assert.Equal(t, 0xFF0000, embed.Color)
}

func TestSend_PropagatesError(t *testing.T) {
	sender := &recordingSender{err: errors.New("rate limited")}
	err := NewNotificationClientWithSender(sender, "chan-1").Send(Message{Title: "x"})
	assert.EqualError(t, err, "rate limited")
}

func TestNewNotificationClient_NotConfigured(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DISCORD_CHANNEL_ID", "")

	_, err := NewNotificationClient("")
	assert.True(t, errors.Is(err, apperrors.ErrDiscordNotConfigured))
}
