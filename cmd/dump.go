package cmd

import (
	"github.com/c0depwn/ripplec/ir"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump [module_file]",
		Short: "Pretty-print the decoded IR of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFile(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			module, err := ir.Decode(f)
			if err != nil {
				return err
			}
			spew.Dump(module)
			return nil
		},
	}
}
