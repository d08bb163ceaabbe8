package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	jarremapper "github.com/wippyai/jar-remapper"
	"github.com/wippyai/jar-remapper/config"
	"github.com/wippyai/jar-remapper/relocate"
)

type remapOptions struct {
	input           string
	output          string
	mappings        string
	report          string
	flat            []string
	classpath       []string
	annotations     []string
	workers         int
	stripSignatures bool
	noRelocate      bool
}

func newRemapCmd(global *globalOptions) *cobra.Command {
	opts := &remapOptions{}
	cmd := &cobra.Command{
		Use:   "remap",
		Short: "Remap a jar and relocate bundled libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := global.loadConfig(cmd, opts.apply(cmd))
			if err != nil {
				return err
			}
			return runRemap(cmd, c)
		},
	}
	opts.addFlags(cmd.Flags())
	return cmd
}

func (o *remapOptions) addFlags(f *pflag.FlagSet) {
	o.addSourceFlags(f)
	f.StringVarP(&o.output, "output", "o", "", "output jar")
	f.IntVarP(&o.workers, "workers", "j", 0, "concurrent entries (default GOMAXPROCS)")
	f.BoolVar(&o.stripSignatures, "strip-signatures", false, "drop META-INF signature files")
	f.StringVar(&o.report, "report", "", "write a report (.yaml or .cbor, optionally .zst)")
}

// addSourceFlags registers the flags that describe what is read.
func (o *remapOptions) addSourceFlags(f *pflag.FlagSet) {
	f.StringVarP(&o.input, "input", "i", "", "input jar")
	f.StringVarP(&o.mappings, "mappings", "m", "", "TSRG mapping file")
	f.StringSliceVar(&o.flat, "flat", nil, "flat name tables (.yaml or .json)")
	f.StringSliceVarP(&o.classpath, "classpath", "c", nil, "jars consulted for class hierarchy")
	f.StringSliceVar(&o.annotations, "mixin-annotation", nil, "annotations that declare mixin targets")
	f.BoolVar(&o.noRelocate, "no-relocate", false, "disable package relocation")
}

// apply copies the flags the user set over c.
func (o *remapOptions) apply(cmd *cobra.Command) func(*config.Config) {
	return func(c *config.Config) {
		f := cmd.Flags()
		if f.Changed("input") {
			c.Input = o.input
		}
		if f.Changed("output") {
			c.Output = o.output
		}
		if f.Changed("mappings") {
			c.Mappings = o.mappings
		}
		if f.Changed("flat") {
			c.FlatMappings = o.flat
		}
		if f.Changed("classpath") {
			c.Classpath = o.classpath
		}
		if f.Changed("mixin-annotation") {
			c.Mixin.Annotations = o.annotations
		}
		if f.Changed("workers") {
			c.Workers = o.workers
		}
		if f.Changed("strip-signatures") {
			c.StripSignatures = o.stripSignatures
		}
		if f.Changed("report") {
			c.Report = o.report
		}
		if o.noRelocate {
			c.Relocations = []relocate.Rule{}
		}
	}
}

func runRemap(cmd *cobra.Command, c *config.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	logger, err := setupLogging(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	r, err := jarremapper.Open(c, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	_, err = r.Run(cmd.Context())
	return err
}
