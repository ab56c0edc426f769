package cmd

import (
	"github.com/c0depwn/ripplec/codegen/ripple"
	"github.com/c0depwn/ripplec/ir"
	"github.com/spf13/cobra"
	"os"
)

var (
	compileFlagBankSize  int
	compileFlagStackBank int
)

func newCompileCommand() *cobra.Command {
	compileCmd := &cobra.Command{
		Use:   "compile [module_file]",
		Short: "Lower a serialized IR module to Ripple assembly",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompiler,
	}
	compileCmd.PersistentFlags().IntVar(&compileFlagBankSize, "bank-size", ripple.DefaultBankSize, "words per memory bank")
	compileCmd.PersistentFlags().IntVar(&compileFlagStackBank, "stack-bank", 1, "bank number holding the stack")
	return compileCmd
}

func runCompiler(cmd *cobra.Command, args []string) error {
	f, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	module, err := ir.Decode(f)
	if err != nil {
		return err
	}

	return ripple.Generate(
		module, os.Stdout,
		ripple.WithBankSize(compileFlagBankSize),
		ripple.WithStackBank(compileFlagStackBank),
	)
}
