package render

import (
	"fmt"
	"strings"

	"github.com/imamik/overcloud/internal/util/fileutil"
)

// TempestDeployerInputFile is the default name of the tempest input file.
const TempestDeployerInputFile = "tempest-deployer-input.conf"

type iniSection struct {
	name    string
	options [][2]string
}

// Overrides of tempest defaults that do not hold for an overcloud.
var tempestSections = []iniSection{
	{"compute-feature-enabled", [][2]string{{"console_output", "false"}}},
	{"object-storage", [][2]string{{"operator_role", "swiftoperator"}}},
	{"orchestration", [][2]string{{"stack_owner_role", "heat_stack_user"}}},
	{"volume", [][2]string{{"backend1_name", "tripleo_iscsi"}}},
	{"volume-feature-enabled", [][2]string{{"bootable", "true"}}},
}

// TempestDeployerInput renders the tempest deployer input INI file.
func TempestDeployerInput() string {
	var b strings.Builder
	for _, s := range tempestSections {
		fmt.Fprintf(&b, "[%s]\n", s.name)
		for _, kv := range s.options {
			fmt.Fprintf(&b, "%s = %s\n", kv[0], kv[1])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteTempestDeployerInput writes the tempest deployer input to path.
func WriteTempestDeployerInput(path string) error {
	if err := fileutil.WriteAtomic(path, []byte(TempestDeployerInput()), 0o644); err != nil {
		return fmt.Errorf("failed to write tempest deployer input: %w", err)
	}
	return nil
}
