package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vvatanabe/scm/internal/constant"
)

// applyEnv fills every flag left unset on the command line from the
// environment, e.g. --shipment-table-name from SCM_SHIPMENT_TABLE_NAME.
func applyEnv(c *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(constant.DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := c.Flags().Set(f.Name, v.GetString(f.Name)); err != nil {
			errs = append(errs, fmt.Errorf("invalid environment value for --%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}
