package facebook

import (
	"context"
	"fmt"

	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/configuration"
)

// Factory builds publishers per owner. Credentials are resolved at call time
// so token rotation takes effect without a restart.
type Factory struct {
	ctx context.Context
}

func NewFactory(ctx context.Context) repository.IPublisherFactory {
	return &Factory{ctx: ctx}
}

func (f *Factory) ForOwner(ownerID string) (repository.IPublisher, error) {
	cfg, err := configuration.GetFacebookConfig(ownerID)
	if err != nil {
		return nil, err
	}
	client, err := NewFacebookClient(f.ctx, &Config{
		AccessToken:  cfg.AccessToken,
		PageID:       cfg.PageID,
		GraphVersion: cfg.GraphVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("building publisher for page %s: %w", cfg.PageID, err)
	}
	return client, nil
}
