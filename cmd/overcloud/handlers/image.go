package handlers

import (
	"context"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/overcloud/internal/imagestore"
)

// ImageUpload uploads the overcloud images to the configured image store.
func ImageUpload(ctx context.Context, configPath string, opts imagestore.Options) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, where, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	printTitle("Uploading images to " + where)
	report, err := imagestore.NewUploader(store, opts).Run(ctx)
	if report != nil {
		for _, img := range report.Images {
			printRow(img.Name, img.Status.String(), statusStyle(img.Status))
		}
		for _, f := range report.Files {
			printRow(f.Path, f.Status.String(), statusStyle(f.Status))
		}
	}
	return err
}

func statusStyle(s imagestore.Status) lipgloss.Style {
	switch s {
	case imagestore.Created, imagestore.Updated:
		return okStyle
	case imagestore.Outdated:
		return warnStyle
	default:
		return dimStyle
	}
}
