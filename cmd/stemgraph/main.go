package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		inputPath  string
		jsonReport bool
		convert    convertFlags
		push       pushFlags
	)

	rootCmd := &cobra.Command{
		Use:          "stemgraph",
		Short:        "Convert Stemic graph documents into Gephi tables",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "stemgraph.yaml", "Config file path")

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a document and write the node and edge tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer env.close()
			convert.apply(cmd, env.cfg)
			return runConvert(cmd.Context(), env, inputPath, jsonReport, cmd.OutOrStdout())
		},
	}
	convertCmd.Flags().StringVar(&inputPath, "input", "", "Stemic JSON document")
	convertCmd.Flags().StringVar(&convert.output, "output", "", "Destination directory (default ./"+defaultDestinationName+")")
	convertCmd.Flags().StringVar(&convert.groupLabel, "group-label", "", "Label of containment edges")
	convertCmd.Flags().StringToStringVar(&convert.themes, "theme", nil, "Color theme mapping, e.g. #FF0000=urgent")
	convertCmd.Flags().StringSliceVar(&convert.formats, "format", nil, "Output formats: csv, xlsx, dot, json")
	convertCmd.Flags().StringVar(&convert.idScheme, "id-scheme", "", "Edge id scheme: tagged or banded")
	convertCmd.Flags().BoolVar(&jsonReport, "json", false, "Output metrics as JSON")
	_ = convertCmd.MarkFlagRequired("input")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Convert a document in memory and print its columns and statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer env.close()
			convert.apply(cmd, env.cfg)
			return runInspect(cmd.Context(), env, inputPath, jsonReport, cmd.OutOrStdout())
		},
	}
	inspectCmd.Flags().StringVar(&inputPath, "input", "", "Stemic JSON document")
	inspectCmd.Flags().StringVar(&convert.idScheme, "id-scheme", "", "Edge id scheme: tagged or banded")
	inspectCmd.Flags().BoolVar(&jsonReport, "json", false, "Output as JSON")
	_ = inspectCmd.MarkFlagRequired("input")

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Convert a document and store the graph in Neo4j",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer env.close()
			convert.apply(cmd, env.cfg)
			push.apply(cmd, env.cfg)
			return runPush(cmd.Context(), env, inputPath, cmd.OutOrStdout())
		},
	}
	pushCmd.Flags().StringVar(&inputPath, "input", "", "Stemic JSON document")
	pushCmd.Flags().StringVar(&convert.groupLabel, "group-label", "", "Label of containment edges")
	pushCmd.Flags().StringVar(&push.uri, "uri", "", "Neo4j URI, e.g. bolt://localhost:7687")
	pushCmd.Flags().StringVar(&push.username, "username", "", "Neo4j user")
	pushCmd.Flags().StringVar(&push.password, "password", "", "Neo4j password")
	_ = pushCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(convertCmd, inspectCmd, pushCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
