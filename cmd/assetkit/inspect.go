package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

type inspectOptions struct {
	CommonOptions

	Password string
}

var inspectOpts = inspectOptions{CommonOptions: DefaultCommonOptions("table", "json", "yaml")}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <asset>",
	Short: "Describe an asset without running its scripts",
	Args:  cobra.ExactArgs(1),
	RunE: withContainer(func(cc *CommandContext, _ *cobra.Command, args []string) error {
		return runInspectAction(cc, args[0], &inspectOpts)
	}),
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectOpts.RegisterFlags(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectOpts.Password, "password", "", "Password for an encrypted archive")
}

func runInspectAction(cc *CommandContext, ref string, opts *inspectOptions) error {
	if err := opts.ValidateFlags(); err != nil {
		return err
	}
	ctx, cancel := opts.ApplyToContext(cc.Context)
	defer cancel()

	resp, err := cc.Container.InspectAssetUseCase().Execute(ctx, dto.InspectAssetRequest{
		Asset:    dto.LoadAssetRequest{Ref: ref, Password: opts.Password},
		Metadata: dto.RequestMetadata{RequestID: uuid.NewString()},
	})
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}

	formatter, closeOut, err := opts.Formatter(ref)
	if err != nil {
		return err
	}
	defer closeOut()
	return formatter.FormatInspect(resp)
}
