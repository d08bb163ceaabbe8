package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	jarremapper "github.com/wippyai/jar-remapper"
	"github.com/wippyai/jar-remapper/classinfo"
	"github.com/wippyai/jar-remapper/config"
)

func newInspectCmd(global *globalOptions) *cobra.Command {
	opts := &remapOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <class>",
		Short: "Print the class info resolved for a class under its original name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := global.loadConfig(cmd, opts.apply(cmd))
			if err != nil {
				return err
			}
			return runInspect(cmd, c, args[0])
		},
	}
	opts.addSourceFlags(cmd.Flags())
	return cmd
}

// classView is the printed form of a classinfo.ClassInfo.
type classView struct {
	Kind       string                 `yaml:"kind"`
	Name       string                 `yaml:"name"`
	Super      string                 `yaml:"super,omitempty"`
	Access     string                 `yaml:"access"`
	Targets    []string               `yaml:"targets,omitempty"`
	Interfaces []string               `yaml:"interfaces,omitempty"`
	Fields     []classinfo.FieldInfo  `yaml:"fields,omitempty"`
	Methods    []classinfo.MethodInfo `yaml:"methods,omitempty"`
}

func newClassView(ci classinfo.ClassInfo) classView {
	return classView{
		Kind:       ci.Kind().String(),
		Name:       ci.Name(),
		Super:      ci.Super(),
		Access:     fmt.Sprintf("0x%04x", ci.Access()),
		Targets:    ci.Targets(),
		Interfaces: ci.Interfaces(),
		Fields:     ci.Fields(),
		Methods:    ci.Methods(),
	}
}

func runInspect(cmd *cobra.Command, c *config.Config, class string) error {
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

	ci, err := r.Inspect(cmd.Context(), class)
	if err != nil {
		return err
	}
	return printClass(cmd.OutOrStdout(), ci)
}

func printClass(w io.Writer, ci classinfo.ClassInfo) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newClassView(ci)); err != nil {
		return err
	}
	return enc.Close()
}
