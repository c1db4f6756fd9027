package openstack

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/image/v2/imagedata"
	"github.com/gophercloud/gophercloud/v2/openstack/image/v2/images"
)

// Image is an image registered with the image service.
type Image struct {
	ID         string
	Name       string
	Status     string
	Checksum   string
	Properties map[string]string
	CreatedAt  time.Time
}

// ImageOpts describes a new image.
type ImageOpts struct {
	Name            string
	DiskFormat      string
	ContainerFormat string
	Public          bool
	Properties      map[string]string
}

func fromImage(img *images.Image) *Image {
	out := &Image{
		ID:         img.ID,
		Name:       img.Name,
		Status:     string(img.Status),
		Checksum:   img.Checksum,
		CreatedAt:  img.CreatedAt,
		Properties: map[string]string{},
	}
	for k, v := range img.Properties {
		if s, ok := v.(string); ok {
			out.Properties[k] = s
		}
	}
	return out
}

// FindImage returns the newest image with the given name, or nil if there
// is none.
func (c *Client) FindImage(ctx context.Context, name string) (*Image, error) {
	var found []images.Image
	err := c.call(ctx, ServiceImage, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		pages, err := images.List(sc, images.ListOpts{Name: name}).AllPages(ctx)
		if err != nil {
			return err
		}
		found, err = images.ExtractImages(pages)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up image %s: %w", name, err)
	}

	var newest *images.Image
	for i := range found {
		if found[i].Name != name {
			continue
		}
		if newest == nil || found[i].CreatedAt.After(newest.CreatedAt) {
			newest = &found[i]
		}
	}
	if newest == nil {
		return nil, nil
	}
	return fromImage(newest), nil
}

// GetImage returns an image by ID, or nil if it does not exist.
func (c *Client) GetImage(ctx context.Context, id string) (*Image, error) {
	var img *images.Image
	err := c.call(ctx, ServiceImage, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		var err error
		img, err = images.Get(ctx, sc, id).Extract()
		return err
	})
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image %s: %w", id, err)
	}
	return fromImage(img), nil
}

// CreateImage registers an image without data and returns it.
func (c *Client) CreateImage(ctx context.Context, opts ImageOpts) (*Image, error) {
	visibility := images.ImageVisibilityPrivate
	if opts.Public {
		visibility = images.ImageVisibilityPublic
	}
	var img *images.Image
	err := c.call(ctx, ServiceImage, http.MethodPost, func(sc *gophercloud.ServiceClient) error {
		var err error
		img, err = images.Create(ctx, sc, images.CreateOpts{
			Name:            opts.Name,
			DiskFormat:      opts.DiskFormat,
			ContainerFormat: opts.ContainerFormat,
			Visibility:      &visibility,
			Properties:      opts.Properties,
		}).Extract()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image %s: %w", opts.Name, err)
	}
	return fromImage(img), nil
}

// UploadImageData streams the file at path into an image.
func (c *Client) UploadImageData(ctx context.Context, id, path string) error {
	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	err = c.call(ctx, ServiceImage, http.MethodPut, func(sc *gophercloud.ServiceClient) error {
		return imagedata.Upload(ctx, sc, id, f).ExtractErr()
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to image %s: %w", path, id, err)
	}
	return nil
}

// RenameImage changes the name of an image.
func (c *Client) RenameImage(ctx context.Context, id, name string) error {
	err := c.call(ctx, ServiceImage, http.MethodPatch, func(sc *gophercloud.ServiceClient) error {
		_, err := images.Update(ctx, sc, id, images.UpdateOpts{
			images.ReplaceImageName{NewName: name},
		}).Extract()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to rename image %s to %s: %w", id, name, err)
	}
	return nil
}
