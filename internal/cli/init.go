package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/toolgate/internal/config"
)

var (
	initPath  string
	initForce bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initPath, "path", "", "Where to write the policy (default ~/.toolgate/policy.yaml)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing policy")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default policy file",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := initPath
	if path == "" {
		path = config.DefaultPath()
		if path == "" {
			return fmt.Errorf("cannot resolve home directory; pass --path")
		}
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Write(path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
