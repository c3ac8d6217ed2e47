package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

type checkOptions struct {
	CommonOptions

	Password string
}

var checkOpts = checkOptions{CommonOptions: DefaultCommonOptions("table", "json", "yaml", "junit", "sarif")}

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <asset>",
	Short: "Compile every script of an asset without running it",
	Long: `Load an asset and compile each of its scripts, disabled ones included.
Syntax errors are reported with their line. Use --format sarif or junit to
feed the results to CI.`,
	Args: cobra.ExactArgs(1),
	RunE: withContainer(func(cc *CommandContext, _ *cobra.Command, args []string) error {
		return runCheckAction(cc, args[0], &checkOpts)
	}),
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkOpts.RegisterFlags(checkCmd)
	checkCmd.Flags().StringVar(&checkOpts.Password, "password", "", "Password for an encrypted archive")
}

// runCheckAction implements the core logic for the check command
func runCheckAction(cc *CommandContext, ref string, opts *checkOptions) error {
	if err := opts.ValidateFlags(); err != nil {
		return err
	}
	ctx, cancel := opts.ApplyToContext(cc.Context)
	defer cancel()

	resp, err := cc.Container.CheckScriptsUseCase().Execute(ctx, dto.CheckScriptsRequest{
		Asset:    dto.LoadAssetRequest{Ref: ref, Password: opts.Password},
		Metadata: dto.RequestMetadata{RequestID: uuid.NewString()},
	})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	formatter, closeOut, err := opts.Formatter(ref)
	if err != nil {
		return err
	}
	defer closeOut()
	if err := formatter.FormatCheck(resp); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if failures := resp.Failures(); failures > 0 {
		return fmt.Errorf("check failed: %d of %d scripts do not compile", failures, len(resp.Scripts))
	}
	return nil
}
