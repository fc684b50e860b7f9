package cmd

import (
	"fmt"
	"strings"

	"github.com/signalnine/pccbench/internal/codec"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List codecs, their rate points and configured datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			fmt.Println("Codecs:")
			for _, name := range codec.Names() {
				c, err := codec.New(name, cfg.Directories.CodecConfigs)
				if err != nil {
					fmt.Printf("  - %s (unavailable: %v)\n", name, err)
					continue
				}
				ids := make([]string, len(c.Config().Params))
				for i, rp := range c.Config().Params {
					ids[i] = rp.ID
				}
				where := "host"
				if c.Config().Image != "" {
					where = "image: " + c.Config().Image
				}
				fmt.Printf("  - %s [%s] (%s)\n", name, strings.Join(ids, ", "), where)
			}
			fmt.Println("\nDatasets:")
			for _, ds := range cfg.Datasets {
				fmt.Printf("  - %s (resolution %d, color %t, %s)\n", ds.Name, ds.Resolution, ds.Color, ds.Extension)
			}
			return nil
		},
	}
}
