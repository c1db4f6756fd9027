package imagestore

import (
	"context"
	"fmt"
	"maps"

	"github.com/containerd/errdefs"
	"github.com/go-logr/logr"

	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/platform/openstack"
)

// GlanceAPI is the part of the image service the Glance store uses.
type GlanceAPI interface {
	FindImage(ctx context.Context, name string) (*openstack.Image, error)
	GetImage(ctx context.Context, id string) (*openstack.Image, error)
	CreateImage(ctx context.Context, opts openstack.ImageOpts) (*openstack.Image, error)
	UploadImageData(ctx context.Context, id, path string) error
	RenameImage(ctx context.Context, id, name string) error
}

// GlanceStore keeps images in the undercloud image service. Glance
// computes the checksum itself, so an upload is verified against the
// local one after the data is in.
type GlanceStore struct {
	api GlanceAPI
}

// NewGlanceStore creates a store on top of api.
func NewGlanceStore(api GlanceAPI) *GlanceStore {
	return &GlanceStore{api: api}
}

func fromGlance(img *openstack.Image) *Image {
	return &Image{
		ID:         img.ID,
		Name:       img.Name,
		Checksum:   img.Checksum,
		Properties: img.Properties,
		CreatedAt:  img.CreatedAt,
	}
}

// Find returns the newest image called name, or nil.
func (g *GlanceStore) Find(ctx context.Context, name string) (*Image, error) {
	img, err := g.api.FindImage(ctx, name)
	if err != nil || img == nil {
		return nil, err
	}
	return fromGlance(img), nil
}

// Upload registers a public image, streams the file into it and checks
// the stored checksum.
func (g *GlanceStore) Upload(ctx context.Context, req UploadRequest) (*Image, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("image", req.Name)

	props := maps.Clone(req.Properties)
	if props == nil {
		props = map[string]string{}
	}
	disk, container := props[MetaDiskFormat], props[MetaContainerFormat]
	delete(props, MetaDiskFormat)
	delete(props, MetaContainerFormat)

	created, err := g.api.CreateImage(ctx, openstack.ImageOpts{
		Name:            req.Name,
		DiskFormat:      disk,
		ContainerFormat: container,
		Public:          true,
		Properties:      props,
	})
	if err != nil {
		return nil, err
	}
	log.V(1).Info("Registered image", "id", created.ID)

	if err := g.api.UploadImageData(ctx, created.ID, req.Path); err != nil {
		return nil, err
	}

	stored, err := g.api.GetImage(ctx, created.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, &deployerr.NotFoundError{Kind: "image", Name: created.ID}
	}
	if stored.Checksum != req.Checksum {
		return nil, fmt.Errorf("%w: image %s (%s) was stored with checksum %q, expected %q",
			errdefs.ErrDataLoss, req.Name, created.ID, stored.Checksum, req.Checksum)
	}

	img := fromGlance(stored)
	if len(img.Properties) == 0 {
		img.Properties = props
	}
	return img, nil
}

// Archive renames img so that Find no longer returns it.
func (g *GlanceStore) Archive(ctx context.Context, img *Image, name string) error {
	return g.api.RenameImage(ctx, img.ID, name)
}
