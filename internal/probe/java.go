package probe

import (
	"context"

	"github.com/mcstatus-io/mcutil/v3"

	"github.com/cubemon/cubemon/internal/models"
)

// JavaAdapter speaks the Java Edition Server List Ping protocol: a TCP
// handshake followed by a status request.
type JavaAdapter struct{}

// Attempt runs one status query. The favicon comes back as a data URI and
// maps directly onto the banner image, the cleaned MOTD onto the banner text.
func (JavaAdapter) Attempt(ctx context.Context, address string, port uint16) (*models.LivenessSample, error) {
	info, err := mcutil.Status(ctx, address, port)
	if err != nil {
		return nil, err
	}

	sample := &models.LivenessSample{}
	if info.Players.Online != nil {
		sample.CurrentPlayers = *info.Players.Online
	}
	if info.Favicon != nil {
		sample.BannerImage = *info.Favicon
	}
	sample.BannerText = info.MOTD.Clean

	return sample, nil
}
