package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"sigs.k8s.io/yaml"

	"github.com/imamik/overcloud/internal/deployerr"
)

// Template and environment locations relative to the templates directory.
const (
	TemplateName         = "overcloud-without-mergepy.yaml"
	ResourceRegistryName = "overcloud-resource-registry-puppet.yaml"
	RegistrationDir      = "extraconfig/post_deploy/rhel-registration/"

	registrationEnvironmentName = "environment-rhel-registration.yaml"
	registrationRegistryName    = "rhel-registration-resource-registry.yaml"
)

// fileSet collects the files referenced by templates and environments,
// keyed by their file:// URL, as sent in the "files" field of a stack
// request.
type fileSet map[string]string

func fileURL(path string) string {
	return "file://" + path
}

// isTemplateRef reports whether s names a template file rather than a
// resource type or a remote URL.
func isTemplateRef(s string) bool {
	if strings.Contains(s, "://") || strings.Contains(s, "::") {
		return false
	}
	switch filepath.Ext(s) {
	case ".yaml", ".yml", ".template":
		return true
	}
	return false
}

func resolvePath(base, ref string) string {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	return filepath.Join(base, ref)
}

func readFile(path string) ([]byte, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &deployerr.NotFoundError{Kind: "file", Name: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// loadTemplate parses the template at path. Nested templates and get_file
// references are added to the set and rewritten to their file:// URL.
func (f fileSet) loadTemplate(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var tmpl map[string]any
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, deployerr.Configf("invalid template %s: %v", path, err)
	}
	if err := f.resolve(tmpl, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (f fileSet) resolve(node any, base string) error {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if s, ok := child.(string); ok {
				switch {
				case key == "get_file" && !strings.Contains(s, "://"):
					url, err := f.addRaw(resolvePath(base, s))
					if err != nil {
						return err
					}
					v[key] = url
					continue
				case key == "type" && isTemplateRef(s):
					url, err := f.addTemplate(resolvePath(base, s))
					if err != nil {
						return err
					}
					v[key] = url
					continue
				}
			}
			if err := f.resolve(child, base); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range v {
			if err := f.resolve(child, base); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f fileSet) addRaw(path string) (string, error) {
	url := fileURL(path)
	if _, ok := f[url]; ok {
		return url, nil
	}
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	f[url] = string(data)
	return url, nil
}

func (f fileSet) addTemplate(path string) (string, error) {
	url := fileURL(path)
	if _, ok := f[url]; ok {
		return url, nil
	}
	// Reserve the key first so self-referencing templates terminate.
	f[url] = ""
	tmpl, err := f.loadTemplate(path)
	if err != nil {
		delete(f, url)
		return "", err
	}
	data, err := json.Marshal(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to encode template %s: %w", path, err)
	}
	f[url] = string(data)
	return url, nil
}

// loadEnvironment parses the environment file at path.
func (f fileSet) loadEnvironment(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	env, err := f.parseEnvironment(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", path, err)
	}
	return env, nil
}

// parseEnvironment parses an environment document. Template paths in its
// resource_registry are resolved against base.
func (f fileSet) parseEnvironment(data []byte, base string) (map[string]any, error) {
	env := map[string]any{}
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, deployerr.Configf("invalid environment: %v", err)
	}
	if env == nil {
		env = map[string]any{}
	}
	if reg, ok := env["resource_registry"].(map[string]any); ok {
		if err := f.resolveRegistry(reg, base); err != nil {
			return nil, err
		}
	}
	return env, nil
}

func (f fileSet) resolveRegistry(reg map[string]any, base string) error {
	for key, value := range reg {
		switch v := value.(type) {
		case string:
			if !isTemplateRef(v) {
				continue
			}
			url, err := f.addTemplate(resolvePath(base, v))
			if err != nil {
				return err
			}
			reg[key] = url
		case map[string]any:
			if err := f.resolveRegistry(v, base); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeEnvironments deep-merges environments in order; later values win.
func mergeEnvironments(envs []map[string]any) (map[string]any, error) {
	merged := map[string]any{}
	for _, env := range envs {
		if err := mergo.Merge(&merged, env, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge environments: %w", err)
		}
	}
	return merged, nil
}
