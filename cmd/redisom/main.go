package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omniql-engine/redisom"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/internal/config"
	"github.com/omniql-engine/redisom/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "redisom",
	Short: "Compile and run Redis search queries from derived method names",
	Long: `redisom compiles derived repository methods against an entity schema
described in YAML and runs them on a Redis server with the search and
probabilistic modules loaded.

Examples:
  # Show the command a method compiles to
  redisom --schema product.yaml explain findByCategoryAndPriceBetween shoes 10 50

  # Run it
  redisom --schema product.yaml run findByCategory shoes

  # Create the index and its Bloom/Cuckoo/Count-Min structures
  redisom --schema product.yaml index create`,
	SilenceUsage: true,
}

var (
	configPath string
	schemaPath string
	format     string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./redisom.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&schemaPath, "schema", "s", "", "Entity schema file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "json", "Output format: json|yaml")

	rootCmd.AddCommand(explainCmd(), runCmd(), indexCmd())
}

// session loads config and schema and connects a client.
func session() (*redisom.Client, *models.EntitySchema, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	s, err := loadSchema(schemaPath)
	if err != nil {
		return nil, nil, err
	}
	logger.InitGlobalLogger(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: os.Stderr})
	c, err := redisom.NewFromConfig(cfg, redisom.WithLogger(logger.GetGlobalLogger()))
	if err != nil {
		return nil, nil, err
	}
	return c, s, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
