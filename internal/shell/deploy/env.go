package deploy

import (
	"fmt"
	"os"

	"github.com/subosito/gotenv"
)

// =============================================================================
// Environment File Loading
// =============================================================================

// LoadEnvFile reads a dotenv file into a map for Compose interpolation.
// Key case is preserved. A missing file is not an error when optional.
func LoadEnvFile(path string, optional bool) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open env file %s: %w", path, err)
	}
	defer f.Close()

	pairs, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}

	env := make(map[string]string, len(pairs))
	for k, v := range pairs {
		env[k] = v
	}
	return env, nil
}

// MergeEnv overlays the process environment on top of the file values so
// exported variables win over the dotenv file, matching Compose semantics.
func MergeEnv(fileEnv map[string]string, processEnv []string) map[string]string {
	merged := make(map[string]string, len(fileEnv)+len(processEnv))
	for k, v := range fileEnv {
		merged[k] = v
	}
	for _, kv := range processEnv {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				merged[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return merged
}
