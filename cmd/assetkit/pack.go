package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

type packOptions struct {
	CommonOptions

	Encrypt  bool
	Password string
}

var packOpts = packOptions{CommonOptions: DefaultCommonOptions("table", "json", "yaml")}

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:   "pack <asset-dir> <archive>",
	Short: "Build an asset archive from a directory",
	Long: `Pack the model, preview and metadata files of an asset directory into a
zip archive. With --encrypt the archive is sealed with a password, asked for
on the terminal unless --password is given.`,
	Args: cobra.ExactArgs(2),
	RunE: withContainer(func(cc *CommandContext, _ *cobra.Command, args []string) error {
		return runPackAction(cc, args[0], args[1], &packOpts)
	}),
}

func init() {
	rootCmd.AddCommand(packCmd)

	packOpts.RegisterFlags(packCmd)
	packCmd.Flags().BoolVar(&packOpts.Encrypt, "encrypt", false, "Seal the archive with a password")
	packCmd.Flags().StringVar(&packOpts.Password, "password", "", "Archive password (implies --encrypt)")
}

func runPackAction(cc *CommandContext, dir, archive string, opts *packOptions) error {
	if err := opts.ValidateFlags(); err != nil {
		return err
	}
	ctx, cancel := opts.ApplyToContext(cc.Context)
	defer cancel()

	password := opts.Password
	if opts.Encrypt && password == "" {
		var err error
		if password, err = cc.Container.Prompter().NewPassword(); err != nil {
			return fmt.Errorf("archive password: %w", err)
		}
	}

	resp, err := cc.Container.PackAssetUseCase().Execute(ctx, dto.PackAssetRequest{
		SourceDir:  dir,
		OutputPath: archive,
		Password:   password,
	})
	if err != nil {
		return fmt.Errorf("pack failed: %w", err)
	}

	formatter, closeOut, err := opts.Formatter(dir)
	if err != nil {
		return err
	}
	defer closeOut()
	return formatter.FormatPack(resp)
}
