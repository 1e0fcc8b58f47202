package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/benmeehan/locator/internal/constants"
	"github.com/benmeehan/locator/internal/models"
	"github.com/benmeehan/locator/pkg/store"
	"github.com/rs/zerolog"
)

// FlagResolver loads named override locations from the persistence gateway.
type FlagResolver struct {
	gateway store.Gateway
	logger  zerolog.Logger
}

// NewFlagResolver creates a FlagResolver.
func NewFlagResolver(gateway store.Gateway, logger zerolog.Logger) *FlagResolver {
	return &FlagResolver{gateway: gateway, logger: logger}
}

// Resolve returns the stored flag called name, or ErrFlagNotFound.
func (f *FlagResolver) Resolve(ctx context.Context, name string) (models.FlagLocation, error) {
	key := constants.FlagKeyPrefix + name

	doc, err := f.gateway.Read(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			f.logger.Debug().Str("flag", name).Msg("Flag not found")
			return models.FlagLocation{}, ErrFlagNotFound
		}
		return models.FlagLocation{}, persistenceError("read", key, err)
	}

	var flag models.FlagLocation
	if err := json.Unmarshal(doc, &flag); err != nil {
		return models.FlagLocation{}, persistenceError("decode", key, err)
	}
	return flag, nil
}
