package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/overcloud/cmd/overcloud/handlers"
	"github.com/imamik/overcloud/internal/imagestore"
)

// Image returns the command group for overcloud images.
func Image() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage overcloud images",
	}

	var opts imagestore.Options
	upload := &cobra.Command{
		Use:   "upload",
		Short: "Upload overcloud and deploy images to the image store",
		Long: `Upload the overcloud kernel, ramdisk and disk image and the deploy
kernel and ramdisk to the image service (or the S3 bucket when
image_store.backend is s3), and copy the agent images to the HTTP boot
directory.

Images whose stored checksum matches the local file are skipped. Changed
images are only replaced with --update-existing; the previous image is
kept under a timestamped name.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ImageUpload(cmd.Context(), global.configPath, opts)
		},
	}
	f := upload.Flags()
	f.StringVar(&opts.ImagePath, "image-path", envOr("IMAGE_PATH", "./"), "Directory containing the image files")
	f.StringVar(&opts.OSImage, "os-image", envOr("OS_IMAGE", imagestore.DefaultOSImage), "Overcloud disk image file name")
	f.StringVar(&opts.AgentName, "agent-name", envOr("AGENT_NAME", imagestore.DefaultAgentName), "Base name of the deploy agent images")
	f.StringVar(&opts.HTTPBoot, "http-boot", envOr("HTTP_BOOT", imagestore.DefaultHTTPBoot), "HTTP boot directory for the agent images")
	f.BoolVar(&opts.UpdateExisting, "update-existing", false, "Replace images that already exist with different content")
	cmd.AddCommand(upload)

	return cmd
}
