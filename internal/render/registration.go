package render

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/imamik/overcloud/internal/config"
)

// RegistrationEnvironment renders the RHEL registration parameters as a
// YAML environment. Values are double-quoted strings.
func RegistrationEnvironment(reg config.Registration) ([]byte, error) {
	params := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range [][2]string{
		{"rhel_reg_method", reg.Method},
		{"rhel_reg_org", reg.Org},
		{"rhel_reg_force", strconv.FormatBool(reg.Force)},
		{"rhel_reg_sat_url", reg.SatURL},
		{"rhel_reg_activation_key", reg.ActivationKey},
	} {
		params.Content = append(params.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv[0]},
			&yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Tag: "!!str", Value: kv[1]},
		)
	}
	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "parameter_defaults"},
		params,
	}}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registration environment: %w", err)
	}
	return data, nil
}
