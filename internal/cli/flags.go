package cli

import (
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/versiontext/internal/config"
	clierrors "github.com/ariel-frischer/versiontext/internal/errors"
)

// flagOverrides converts the changed flags named in flagKeys (flag name to
// config key) into typed config overrides.
func flagOverrides(cmd *cobra.Command, flagKeys map[string]string) (map[string]any, error) {
	overrides := make(map[string]any, len(flagKeys))
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		parsed, err := config.ValidateValue(key, flag.Value.String())
		if err != nil {
			return nil, clierrors.InvalidFlagValue(name, err)
		}
		overrides[key] = parsed.Parsed
	}
	return overrides, nil
}
