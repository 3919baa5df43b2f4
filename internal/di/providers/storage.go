package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/media/images"
)

// Avatar rendition widths. Avatars are small enough that the sizes are not
// worth a config knob.
const (
	avatarSizeS = 100
	avatarSizeM = 400
)

// ImageStorages groups the on-disk image storage services.
type ImageStorages struct {
	Photos  *images.Storage
	Avatars *images.Storage
}

// ProvideImageStorages provides the photo and avatar storages.
func ProvideImageStorages(i do.Injector) (*ImageStorages, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	photos, err := images.NewStorage(cfg.Data.UploadPath, "photos")
	if err != nil {
		return nil, fmt.Errorf("photo storage: %w", err)
	}

	avatars, err := images.NewStorage(cfg.Data.UploadPath, "avatars")
	if err != nil {
		return nil, fmt.Errorf("avatar storage: %w", err)
	}

	log.Info("Image storages initialized", "path", cfg.Data.UploadPath)

	return &ImageStorages{
		Photos:  photos,
		Avatars: avatars,
	}, nil
}

// ImagePipelines groups the rendition pipelines for uploads.
type ImagePipelines struct {
	Photos  *images.Pipeline
	Avatars *images.Pipeline
}

// ProvideImagePipelines provides the photo and avatar pipelines.
func ProvideImagePipelines(i do.Injector) (*ImagePipelines, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storages := do.MustInvoke[*ImageStorages](i)

	photos := images.NewPipeline(storages.Photos, cfg.Upload.PhotoSizeS, cfg.Upload.PhotoSizeM, log.Logger)
	avatars := images.NewPipeline(storages.Avatars, avatarSizeS, avatarSizeM, log.Logger).WithPrefix("avatar")

	return &ImagePipelines{
		Photos:  photos,
		Avatars: avatars,
	}, nil
}
