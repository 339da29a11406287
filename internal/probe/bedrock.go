package probe

import (
	"context"

	"github.com/mcstatus-io/mcutil/v3"

	"github.com/cubemon/cubemon/internal/models"
)

// BedrockAdapter speaks the Bedrock Edition RakNet unconnected ping over UDP.
type BedrockAdapter struct{}

// Attempt runs one status query. Bedrock has no favicon, so the banner image
// stays empty and the store applies the platform fallback.
func (BedrockAdapter) Attempt(ctx context.Context, address string, port uint16) (*models.LivenessSample, error) {
	info, err := mcutil.StatusBedrock(ctx, address, port)
	if err != nil {
		return nil, err
	}

	sample := &models.LivenessSample{}
	if info.OnlinePlayers != nil {
		sample.CurrentPlayers = *info.OnlinePlayers
	}
	if info.MOTD != nil {
		sample.BannerText = info.MOTD.Clean
	}

	return sample, nil
}
