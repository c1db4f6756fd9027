package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/metrics"
	"github.com/imamik/overcloud/internal/util/checksum"
	"github.com/imamik/overcloud/internal/util/fileutil"
)

// Property keys stored with every image.
const (
	MetaMD5             = "md5"
	MetaDiskFormat      = "disk_format"
	MetaContainerFormat = "container_format"
	MetaKernelID        = "kernel_id"
	MetaRamdiskID       = "ramdisk_id"
)

// Defaults for Options.
const (
	DefaultOSImage   = "overcloud-full.qcow2"
	DefaultAgentName = "ironic-python-agent"
	DefaultHTTPBoot  = "/httpboot"
)

// Status is what happened to one image or file.
type Status int

const (
	Created Status = iota
	Updated
	UpToDate
	// Outdated means the content differs but updates were not requested.
	Outdated
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case UpToDate:
		return "up_to_date"
	case Outdated:
		return "outdated"
	default:
		return "unknown"
	}
}

// Image is the stored state of one image.
type Image struct {
	ID         string
	Name       string
	Checksum   string
	Properties map[string]string
	CreatedAt  time.Time
}

// UploadRequest describes one image to store. Properties carry the disk
// and container formats and the kernel and ramdisk links.
type UploadRequest struct {
	Name       string
	Path       string
	Checksum   string
	Properties map[string]string
}

// Store is where the images go.
type Store interface {
	// Find returns the current image called name, or nil.
	Find(ctx context.Context, name string) (*Image, error)
	// Upload stores a new image and returns it.
	Upload(ctx context.Context, req UploadRequest) (*Image, error)
	// Archive keeps img under another name so a new image can take its
	// place.
	Archive(ctx context.Context, img *Image, name string) error
}

// Options selects the image files and the HTTP boot directory.
type Options struct {
	ImagePath      string
	OSImage        string
	AgentName      string
	HTTPBoot       string
	UpdateExisting bool
}

func (o Options) withDefaults() Options {
	if o.ImagePath == "" {
		o.ImagePath = "."
	}
	if o.OSImage == "" {
		o.OSImage = DefaultOSImage
	}
	if o.AgentName == "" {
		o.AgentName = DefaultAgentName
	}
	if o.HTTPBoot == "" {
		o.HTTPBoot = DefaultHTTPBoot
	}
	return o
}

// ImageResult is the outcome of one image upload.
type ImageResult struct {
	Name   string
	Status Status
	Image  *Image
}

// FileResult is the outcome of one HTTP boot file copy.
type FileResult struct {
	Path   string
	Status Status
}

// Report lists everything an upload run touched.
type Report struct {
	Images []ImageResult
	Files  []FileResult
}

// Uploader uploads the overcloud and deploy images.
type Uploader struct {
	store Store
	opts  Options
}

// NewUploader creates an Uploader. Unset options take their defaults.
func NewUploader(store Store, opts Options) *Uploader {
	return &Uploader{store: store, opts: opts.withDefaults()}
}

func (u *Uploader) agentKernel() string  { return u.opts.AgentName + ".kernel" }
func (u *Uploader) agentRamdisk() string { return u.opts.AgentName + ".initramfs" }

// Run uploads the overcloud kernel, ramdisk and disk image, the deploy
// kernel and ramdisk, and copies the agent images to the HTTP boot
// directory.
func (u *Uploader) Run(ctx context.Context) (*Report, error) {
	log := logr.FromContextOrDiscard(ctx)

	for _, name := range []string{u.agentRamdisk(), u.agentKernel(), u.opts.OSImage} {
		path := filepath.Join(u.opts.ImagePath, name)
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist), err == nil && !info.Mode().IsRegular():
			return nil, &deployerr.NotFoundError{Kind: "required file", Name: path}
		case err != nil:
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	base, _, _ := strings.Cut(u.opts.OSImage, ".")
	report := &Report{}

	kernel, err := u.upload(ctx, base+"-vmlinuz", base+".vmlinuz", formats("aki"))
	if err != nil {
		return report, err
	}
	report.Images = append(report.Images, kernel)

	ramdisk, err := u.upload(ctx, base+"-initrd", base+".initrd", formats("ari"))
	if err != nil {
		return report, err
	}
	report.Images = append(report.Images, ramdisk)

	diskProps := formats("qcow2")
	diskProps[MetaKernelID] = kernel.Image.ID
	diskProps[MetaRamdiskID] = ramdisk.Image.ID
	disk, err := u.upload(ctx, base, base+".qcow2", diskProps)
	if err != nil {
		return report, err
	}
	report.Images = append(report.Images, disk)

	if disk.Image.Properties[MetaKernelID] != kernel.Image.ID ||
		disk.Image.Properties[MetaRamdiskID] != ramdisk.Image.ID {
		log.Error(nil, "Link of the overcloud image to its kernel and ramdisk is missing or leads to an old image", "image", base)
	}

	for _, img := range []struct{ name, file, format string }{
		{"bm-deploy-kernel", u.agentKernel(), "aki"},
		{"bm-deploy-ramdisk", u.agentRamdisk(), "ari"},
	} {
		res, err := u.upload(ctx, img.name, img.file, formats(img.format))
		if err != nil {
			return report, err
		}
		report.Images = append(report.Images, res)
	}

	for _, f := range [][2]string{
		{u.agentKernel(), "agent.kernel"},
		{u.agentRamdisk(), "agent.ramdisk"},
	} {
		dst := filepath.Join(u.opts.HTTPBoot, f[1])
		status, err := CopyIfChanged(ctx, filepath.Join(u.opts.ImagePath, f[0]), dst, u.opts.UpdateExisting)
		if err != nil {
			return report, err
		}
		report.Files = append(report.Files, FileResult{Path: dst, Status: status})
	}
	return report, nil
}

// formats returns the disk and container format properties of an image.
// Kernels and ramdisks use their disk format as container format.
func formats(disk string) map[string]string {
	container := "bare"
	if disk == "aki" || disk == "ari" {
		container = disk
	}
	return map[string]string{MetaDiskFormat: disk, MetaContainerFormat: container}
}

// upload stores file under name unless an image with the same checksum
// is already there.
func (u *Uploader) upload(ctx context.Context, name, file string, props map[string]string) (ImageResult, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("image", name)
	path := filepath.Join(u.opts.ImagePath, file)

	sum, err := checksum.File(path)
	if err != nil {
		return ImageResult{}, err
	}

	existing, err := u.store.Find(ctx, name)
	if err != nil {
		return ImageResult{}, err
	}

	status := Created
	if existing != nil {
		switch {
		case existing.Checksum == sum:
			log.Info("Image is up-to-date, skipping")
			metrics.RecordImageUpload(UpToDate.String())
			return ImageResult{Name: name, Status: UpToDate, Image: existing}, nil
		case !u.opts.UpdateExisting:
			log.Info("Image already exists and can be updated with --update-existing")
			metrics.RecordImageUpload(Outdated.String())
			return ImageResult{Name: name, Status: Outdated, Image: existing}, nil
		}
		archive := name + "_" + existing.CreatedAt.UTC().Format("20060102T150405")
		if err := u.store.Archive(ctx, existing, archive); err != nil {
			return ImageResult{}, err
		}
		log.V(1).Info("Archived previous image", "archive", archive)
		status = Updated
	}

	img, err := u.store.Upload(ctx, UploadRequest{Name: name, Path: path, Checksum: sum, Properties: props})
	if err != nil {
		metrics.RecordImageUpload("error")
		return ImageResult{}, err
	}
	metrics.RecordImageUpload(status.String())
	log.Info("Image was uploaded", "status", status.String(), "id", img.ID)
	return ImageResult{Name: name, Status: status, Image: img}, nil
}

// CopyIfChanged copies src to dst when dst is missing, or when the
// contents differ and update is set.
func CopyIfChanged(ctx context.Context, src, dst string, update bool) (Status, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("file", dst)

	if _, err := os.Stat(dst); os.IsNotExist(err) {
		if err := copyFile(src, dst); err != nil {
			return 0, err
		}
		return Created, nil
	}

	same, err := checksum.Equal(src, dst)
	if err != nil {
		return 0, err
	}
	switch {
	case same:
		log.Info("Image file is up-to-date, skipping")
		return UpToDate, nil
	case !update:
		log.Info("Image file already exists and can be updated with --update-existing")
		return Outdated, nil
	}
	if err := copyFile(src, dst); err != nil {
		return 0, err
	}
	return Updated, nil
}

func copyFile(src, dst string) error {
	if err := fileutil.CopyAtomic(src, dst, 0o644); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}
