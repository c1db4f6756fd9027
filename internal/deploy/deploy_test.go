package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/credentials"
	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/platform/openstack"
)

func intPtr(v int) *int { return &v }

func parameterDefaults(opts *openstack.StackOpts) map[string]any {
	env, ok := opts.Environment.(map[string]any)
	Expect(ok).To(BeTrue())
	defaults, ok := env["parameter_defaults"].(map[string]any)
	Expect(ok).To(BeTrue())
	return defaults
}

var _ = Describe("Deployer", func() {
	var (
		ctx       context.Context
		dir       string
		templates string
		api       *fakeAPI
		cfg       *config.Config
		d         *Deployer
		removed   []string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		templates = writeTemplates(filepath.Join(dir, "templates"))
		api = newFakeAPI(3)

		cfg = &config.Config{
			Templates:       templates,
			EnvironmentFile: filepath.Join(dir, "overcloud-env.json"),
			OutputDir:       filepath.Join(dir, "out"),
			KnownHostsFile:  filepath.Join(dir, "known_hosts"),
		}
		cfg.ApplyDefaults()

		removed = nil
		origRemove, origUUID, origKey, origNow := removeKnownHost, newUUID, cephxKey, now
		removeKnownHost = func(path, host string) (int, error) {
			removed = append(removed, host)
			return 1, nil
		}
		newUUID = func() (uuid.UUID, error) {
			return uuid.MustParse("0a1b2c3d-0000-1000-8000-00aabbccddee"), nil
		}
		cephxKey = func() (string, error) { return "cephx-key", nil }
		now = func() time.Time { return time.Unix(1700000000, 0) }
		DeferCleanup(func() {
			removeKnownHost, newUUID, cephxKey, now = origRemove, origUUID, origKey, origNow
		})

		store := credentials.NewStore(filepath.Join(dir, "passwords"))
		d = NewDeployer(api, cfg, store, &config.Timeouts{StackPollInterval: time.Millisecond})
	})

	Context("when the stack does not exist", func() {
		It("creates it and writes the overcloud files", func() {
			res, err := d.Deploy(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Created).To(BeTrue())
			Expect(res.Endpoint).To(Equal("http://192.0.2.10:5000/v2.0/"))
			Expect(api.created).NotTo(BeNil())
			Expect(api.updated).To(BeNil())
			Expect(api.created.Name).To(Equal("overcloud"))
			Expect(api.created.TimeoutMinutes).To(Equal(config.DefaultTimeoutMinutes))

			By("waiting from the beginning of the event list")
			Expect(api.markers).NotTo(BeEmpty())
			Expect(api.markers[0]).To(BeEmpty())

			By("writing the RC file and tempest input")
			Expect(res.RCPath).To(Equal(filepath.Join(cfg.OutputDir, "overcloudrc")))
			rc, err := os.ReadFile(res.RCPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(rc)).To(ContainSubstring("export OS_AUTH_URL=http://192.0.2.10:5000/v2.0/"))
			Expect(res.TempestPath).To(BeAnExistingFile())

			By("dropping stale host keys of the endpoint")
			Expect(removed).To(Equal([]string{"192.0.2.10"}))
		})

		It("bundles nested templates and files", func() {
			_, err := d.Deploy(ctx)
			Expect(err).NotTo(HaveOccurred())

			tmpl, ok := api.created.Template.(map[string]any)
			Expect(ok).To(BeTrue())
			resources := tmpl["resources"].(map[string]any)
			configURL := fileURL(filepath.Join(templates, "puppet/config.yaml"))
			Expect(resources["Config"].(map[string]any)["type"]).To(Equal(configURL))
			Expect(resources["Controller"].(map[string]any)["type"]).To(Equal("OS::TripleO::Controller"))

			scriptURL := fileURL(filepath.Join(templates, "puppet/scripts/run.sh"))
			Expect(api.created.Files).To(HaveKeyWithValue(scriptURL, "#!/bin/sh\necho configured\n"))
			Expect(api.created.Files[configURL]).To(ContainSubstring(scriptURL))
		})

		It("prepends the resource registry and sends new stack parameters", func() {
			_, err := d.Deploy(ctx)
			Expect(err).NotTo(HaveOccurred())

			env := api.created.Environment.(map[string]any)
			registry := env["resource_registry"].(map[string]any)
			Expect(registry).To(HaveKeyWithValue("OS::TripleO::Controller",
				fileURL(filepath.Join(templates, "puppet/controller.yaml"))))

			defaults := parameterDefaults(api.created)
			Expect(defaults).To(HaveKeyWithValue("CloudName", "overcloud"))
			Expect(defaults["ControllerCount"]).To(BeEquivalentTo(1))
			Expect(defaults["ComputeCount"]).To(BeEquivalentTo(1))
			Expect(defaults).To(HaveKeyWithValue("NeutronControlPlaneID", "net-ctlplane"))
			Expect(defaults).To(HaveKeyWithValue("NovaComputeLibvirtType", "kvm"))
			Expect(defaults).To(HaveKeyWithValue("NeutronEnableTunnelling", true))
			Expect(defaults).To(HaveKeyWithValue("NeutronTunnelIdRanges", []any{"1:1000"}))
			Expect(defaults["DeployIdentifier"]).To(BeEquivalentTo(1700000000))
			Expect(defaults).To(HaveKey("AdminPassword"))

			Expect(cfg.EnvironmentFile).To(BeAnExistingFile())
		})

		It("adds the registration environments when registration is enabled", func() {
			cfg.Registration = config.Registration{
				Enabled:       true,
				Method:        "portal",
				Org:           "acme",
				ActivationKey: "key",
			}
			_, err := d.Deploy(ctx)
			Expect(err).NotTo(HaveOccurred())

			env := api.created.Environment.(map[string]any)
			registry := env["resource_registry"].(map[string]any)
			Expect(registry).To(HaveKeyWithValue("OS::TripleO::NodeExtraConfig",
				fileURL(filepath.Join(templates, RegistrationDir, "rhel-registration.yaml"))))

			defaults := parameterDefaults(api.created)
			Expect(defaults).To(HaveKeyWithValue("rhel_reg_method", "portal"))
			Expect(defaults).To(HaveKeyWithValue("rhel_reg_org", "acme"))
			Expect(defaults).To(HaveKeyWithValue("rhel_reg_force", "false"))
			Expect(defaults).To(HaveKey("rhel_reg_repos"))
		})

		It("lets user environment files override generated values", func() {
			userEnv := filepath.Join(dir, "custom.yaml")
			Expect(os.WriteFile(userEnv, []byte("parameter_defaults:\n  CloudName: custom\n"), 0o600)).To(Succeed())
			cfg.EnvironmentFiles = []string{userEnv}

			_, err := d.Deploy(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(parameterDefaults(api.created)).To(HaveKeyWithValue("CloudName", "custom"))
		})

		It("fails with a deployment error when the stack create fails", func() {
			api.failAction = true

			_, err := d.Deploy(ctx)
			var depErr *deployerr.DeploymentError
			Expect(errors.As(err, &depErr)).To(BeTrue())
			Expect(depErr.Msg).To(Equal("Heat Stack create failed."))
			Expect(errdefs.IsFailedPrecondition(err)).To(BeTrue())
			Expect(removed).To(BeEmpty())
		})

		It("refuses to deploy more nodes than are available", func() {
			cfg.Scale.Compute = intPtr(5)

			_, err := d.Deploy(ctx)
			var insufficient *deployerr.InsufficientResourcesError
			Expect(errors.As(err, &insufficient)).To(BeTrue())
			Expect(insufficient.Available).To(Equal(3))
			Expect(insufficient.Requested).To(Equal(6))
			Expect(api.created).To(BeNil())
		})

		It("requires at least one hypervisor", func() {
			api.stats = openstack.HypervisorStats{}

			_, err := d.Deploy(ctx)
			Expect(errdefs.IsResourceExhausted(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("hypervisors"))
			Expect(api.created).To(BeNil())
		})

		It("fails when the template directory is incomplete", func() {
			Expect(os.Remove(filepath.Join(templates, ResourceRegistryName))).To(Succeed())

			_, err := d.Deploy(ctx)
			Expect(errdefs.IsNotFound(err)).To(BeTrue())
			Expect(api.created).To(BeNil())
		})
	})

	Context("when the stack exists", func() {
		BeforeEach(func() {
			api.stack = &openstack.Stack{
				ID:   "stack-1",
				Name: "overcloud",
				Parameters: map[string]string{
					"ControllerCount":    "1",
					"ComputeCount":       "1",
					"CephStorageCount":   "0",
					"BlockStorageCount":  "0",
					"ObjectStorageCount": "0",
				},
				Outputs: []openstack.StackOutput{{Key: "KeystoneURL", Value: api.endpoint}},
			}
			api.emit("overcloud", ActionCreate)
		})

		It("updates it and waits from the latest event", func() {
			res, err := d.Deploy(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Created).To(BeFalse())
			Expect(api.created).To(BeNil())
			Expect(api.updated).NotTo(BeNil())
			Expect(api.markers[0]).To(Equal("event-2"))
			Expect(removed).To(BeEmpty())

			env := api.updated.Environment.(map[string]any)
			Expect(env).NotTo(HaveKey("resource_registry"))
			defaults := parameterDefaults(api.updated)
			Expect(defaults).NotTo(HaveKey("NovaComputeLibvirtType"))
			Expect(defaults).NotTo(HaveKey("NeutronEnableTunnelling"))
		})

		It("fails with a deployment error when the update fails", func() {
			api.failAction = true

			_, err := d.Deploy(ctx)
			Expect(err).To(MatchError("Heat Stack update failed."))
		})

		It("rejects a stack missing a role count", func() {
			delete(api.stack.Parameters, "ComputeCount")

			_, err := d.Deploy(ctx)
			Expect(errdefs.IsInvalidArgument(err)).To(BeTrue())
			Expect(api.updated).To(BeNil())
		})
	})

	Describe("Parameters", func() {
		It("enables L3 HA for multiple controllers", func() {
			cfg.Scale.Control = intPtr(3)
			cfg.NTPServer = "pool.ntp.org"

			params, err := d.Parameters(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(params).To(HaveKeyWithValue("NeutronL3HA", true))
			Expect(params).To(HaveKeyWithValue("NeutronAllowL3AgentFailover", false))
			Expect(params).To(HaveKeyWithValue("NeutronDhcpAgentsPerNetwork", 3))
			Expect(params).To(HaveKeyWithValue("NtpServer", "pool.ntp.org"))
		})

		It("requires an NTP server for multiple controllers", func() {
			cfg.Scale.Control = intPtr(2)

			_, err := d.Parameters(ctx, nil)
			Expect(errdefs.IsInvalidArgument(err)).To(BeTrue())
		})

		It("generates Ceph secrets only for a new stack", func() {
			cfg.Scale.CephStorage = intPtr(2)

			params, err := d.Parameters(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(params).To(HaveKeyWithValue("CephClusterFSID", "0a1b2c3d-0000-1000-8000-00aabbccddee"))
			Expect(params).To(HaveKeyWithValue("CephMonKey", "cephx-key"))
			Expect(params).To(HaveKeyWithValue("CephAdminKey", "cephx-key"))

			params, err = d.Parameters(ctx, &openstack.Stack{Name: "overcloud"})
			Expect(err).NotTo(HaveOccurred())
			Expect(params).NotTo(HaveKey("CephClusterFSID"))
		})

		It("applies flavor and neutron overrides", func() {
			cfg.Flavors.Compute = "compute"
			cfg.Neutron.NetworkVLANRanges = "physnet:10:20"
			cfg.Neutron.DisableTunneling = true

			params, err := d.Parameters(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(params).To(HaveKeyWithValue("OvercloudComputeFlavor", "compute"))
			Expect(params).To(HaveKeyWithValue("OvercloudControlFlavor", "baremetal"))
			Expect(params).To(HaveKeyWithValue("NeutronNetworkVLANRanges", "physnet:10:20"))
			Expect(params).To(HaveKeyWithValue("NeutronEnableTunnelling", false))
		})

		DescribeTable("DHCP agents per network",
			func(controllers, want int) {
				Expect(dhcpAgentsPerNetwork(controllers)).To(Equal(want))
			},
			Entry("no controllers requested", 0, 1),
			Entry("single controller", 1, 1),
			Entry("two controllers", 2, 2),
			Entry("capped at three", 5, 3),
		)
	})

	Describe("mergeEnvironments", func() {
		It("deep-merges with later values winning", func() {
			merged, err := mergeEnvironments([]map[string]any{
				{"parameter_defaults": map[string]any{"A": "1", "B": "1"}},
				{"parameter_defaults": map[string]any{"B": "2", "C": "2"}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(merged["parameter_defaults"]).To(Equal(map[string]any{"A": "1", "B": "2", "C": "2"}))
		})
	})
})
